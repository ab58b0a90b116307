package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/labatlas/centerscrape/internal/fetch"
)

func newTestScraper(server *httptest.Server) *Scraper {
	fetcher := fetch.New(server.Client(), nil, nil, 5*time.Second)
	return New(fetcher, nil, server.URL)
}

func listingPage(detailsURL string) string {
	return fmt.Sprintf(`<html><body>
		<div class="resultbox" data-href="%s">
			<span class="lng_cont_name">City Diagnostic Center</span>
			<span class="cont_fl_addr">12 MG Road, Andheri West, Mumbai</span>
			<span class="green-box">4.3</span>
		</div>
		<div class="resultbox">
			<h2>Metro Scan Point</h2>
			<div class="adrss">Plot 4, Baner, Pune</div>
		</div>
	</body></html>`, detailsURL)
}

const detailsPage = `<html><body>
	<div class="ophrs">Mon-Sat 7:00 AM - 9:00 PM</div>
	<p>Landmark: Opposite Metro Station Gate 2</p>
	<div class="testi">Great service</div>
	<div class="testi">Quick reports</div>
	<li class="doctor">Dr. A Sharma</li>
	<li class="doctor">Dr. B Patel</li>
	<img data-src="https://cdn.example.com/img/1.jpg">
	<img src="https://cdn.example.com/img/2.jpg">
	<img src="https://cdn.example.com/img/1.jpg">
	<img src="/relative/skip.jpg">
	<p>Collection Charges : Rs.200 and Collection Radius : 5 Kms with Report Time : 24hrs</p>
</body></html>`

func TestScrape_ExtractsListingsAndDetails(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/details/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(detailsPage))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "page-1") {
			w.Write([]byte(listingPage(server.URL + "/details/1")))
			return
		}
		w.Write([]byte("<html><body></body></html>"))
	})

	s := newTestScraper(server)
	results, err := s.Scrape(context.Background(), "Mumbai", "diagnostic center", 3)
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	first := results[0]
	if first.CenterName != "City Diagnostic Center" {
		t.Errorf("name = %q", first.CenterName)
	}
	if first.FullAddress != "12 MG Road, Andheri West, Mumbai" {
		t.Errorf("address = %q", first.FullAddress)
	}
	if first.ReviewsRatings != "4.3" {
		t.Errorf("rating = %q", first.ReviewsRatings)
	}
	if first.CenterType != TypeDiagnosticCenter {
		t.Errorf("center type = %q", first.CenterType)
	}
	if first.WorkingHours != "Mon-Sat 7:00 AM - 9:00 PM" {
		t.Errorf("hours = %q", first.WorkingHours)
	}
	if !strings.Contains(first.LocalLandmark, "Opposite Metro Station Gate 2") {
		t.Errorf("landmark = %q", first.LocalLandmark)
	}
	if first.Testimonials != "Great service | Quick reports" {
		t.Errorf("testimonials = %q", first.Testimonials)
	}
	if first.StaffDoctors != "Dr. A Sharma | Dr. B Patel" {
		t.Errorf("staff = %q", first.StaffDoctors)
	}
	if first.ImageURLs != "https://cdn.example.com/img/1.jpg, https://cdn.example.com/img/2.jpg" {
		t.Errorf("images = %q", first.ImageURLs)
	}
	if first.CollectionCharges != "Rs.200" {
		t.Errorf("charges = %q", first.CollectionCharges)
	}
	if first.CollectionRadius != "5" {
		t.Errorf("radius = %q", first.CollectionRadius)
	}
	if first.AverageReportTime != "24hrs" {
		t.Errorf("report time = %q", first.AverageReportTime)
	}
	if first.SourceURL != server.URL+"/details/1" {
		t.Errorf("source url = %q", first.SourceURL)
	}

	// Second card has no details page; name-derived type, empty sub-fields.
	second := results[1]
	if second.CenterName != "Metro Scan Point" {
		t.Errorf("second name = %q", second.CenterName)
	}
	if second.WorkingHours != "" || second.Testimonials != "" {
		t.Errorf("second card should carry no details: %+v", second)
	}
}

func TestScrape_NoMatchingSelectors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><div class='unrelated'>nothing here</div></body></html>"))
	}))
	defer server.Close()

	s := newTestScraper(server)
	results, err := s.Scrape(context.Background(), "Mumbai", "labs", 3)
	if err != nil {
		t.Fatalf("Scrape should not error on empty pages: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestScrape_BlockedPageAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>We detected unusual traffic from your computer network</body></html>"))
	}))
	defer server.Close()

	s := newTestScraper(server)
	_, err := s.Scrape(context.Background(), "Mumbai", "labs", 2)

	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected *BlockedError, got %v", err)
	}
	if blocked.Reason != BlockedReason {
		t.Errorf("reason = %q, want %q", blocked.Reason, BlockedReason)
	}
}

func TestScrape_EmptyPageStopsPaging(t *testing.T) {
	var pagesServed []string
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		pagesServed = append(pagesServed, r.URL.Path)
		if strings.Contains(r.URL.Path, "page-1") {
			w.Write([]byte(`<html><body><li class="cntanr"><h2>Solo Lab</h2></li></body></html>`))
			return
		}
		w.Write([]byte("<html><body></body></html>"))
	})

	s := newTestScraper(server)
	results, err := s.Scrape(context.Background(), "Pune", "labs", 5)
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
	if len(pagesServed) != 2 {
		t.Errorf("served %d pages, want 2 (page-2 empty should stop paging)", len(pagesServed))
	}
}

func TestScrape_FetchFailureSkipsPage(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "page-1") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`<html><body><li class="cntanr"><h2>Backup Lab</h2></li></body></html>`))
	})

	s := newTestScraper(server)
	results, err := s.Scrape(context.Background(), "Pune", "labs", 2)
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if len(results) != 1 || results[0].CenterName != "Backup Lab" {
		t.Errorf("page-2 results should survive a page-1 failure: %+v", results)
	}
}

func TestScrapeByName_PicksBestMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<div class="resultbox">
				<span class="lng_cont_name">Unrelated Pharmacy</span>
				<span class="cont_fl_addr">Elsewhere</span>
			</div>
			<div class="resultbox">
				<span class="lng_cont_name">Sunrise Diagnostic Center</span>
				<span class="cont_fl_addr">Baner Road Pune</span>
			</div>
		</body></html>`))
	}))
	defer server.Close()

	s := newTestScraper(server)
	got, err := s.ScrapeByName(context.Background(), "Pune", "Sunrise Diagnostic Center", "Baner Pune")
	if err != nil {
		t.Fatalf("ScrapeByName failed: %v", err)
	}
	if got == nil || got.CenterName != "Sunrise Diagnostic Center" {
		t.Errorf("best match = %+v", got)
	}
}

func TestScrapeByName_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body></body></html>"))
	}))
	defer server.Close()

	s := newTestScraper(server)
	got, err := s.ScrapeByName(context.Background(), "Pune", "Ghost Lab", "")
	if err != nil {
		t.Fatalf("ScrapeByName failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for empty lookup, got %+v", got)
	}
}

func TestInferCenterType(t *testing.T) {
	cases := []struct {
		keyword, name string
		want          string
	}{
		{"diagnostic center", "", TypeDiagnosticCenter},
		{"ct scan", "", TypeScanCenter},
		{"pathology lab", "", TypeLab},
		{"hospital", "", TypeHospital},
		{"health services", "Apollo Diagnostics Diagnostic Wing", TypeDiagnosticCenter},
		{"health services", "Metro Labs", TypeLab},
		{"health services", "General Clinic", ""},
		{"Diagnostic Labs", "", TypeDiagnosticCenter}, // diagnostic outranks lab
	}
	for _, c := range cases {
		if got := InferCenterType(c.keyword, c.name); got != c.want {
			t.Errorf("InferCenterType(%q, %q) = %q, want %q", c.keyword, c.name, got, c.want)
		}
	}
}

func TestPreloadedFields(t *testing.T) {
	html := `<html><body>
		<script>
			window.__PRELOADED_STATE__ = {
				collectionCharges: "Rs.150",
				collectionRadius: "8",
				avgReportTime: "12hrs"
			};
		</script>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}

	det := parseDetails(doc)
	if det.collectionCharges != "Rs.150" {
		t.Errorf("charges = %q", det.collectionCharges)
	}
	if det.collectionRadius != "8" {
		t.Errorf("radius = %q", det.collectionRadius)
	}
	if det.averageReportTime != "12hrs" {
		t.Errorf("report time = %q", det.averageReportTime)
	}
}

func TestPreloadedFields_TextScanWins(t *testing.T) {
	html := `<html><body>
		<p>Collection Charges : Rs.99</p>
		<script>window.__PRELOADED_STATE__ = {collectionCharges: "Rs.999"};</script>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}

	det := parseDetails(doc)
	if det.collectionCharges != "Rs.99" {
		t.Errorf("text scan should take precedence, got %q", det.collectionCharges)
	}
}

func TestParseDetails_BrokenScriptDegrades(t *testing.T) {
	html := `<html><body>
		<script>window.__PRELOADED_STATE__ = {not valid js</script>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}

	det := parseDetails(doc)
	if det.collectionCharges != "" || det.collectionRadius != "" || det.averageReportTime != "" {
		t.Errorf("broken inline script should degrade to empty fields: %+v", det)
	}
}
