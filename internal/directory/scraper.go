// Package directory extracts business listings from the directory site.
// Every extraction step is best-effort: selector chains are tried in order,
// the first non-empty result wins, and exhausted chains degrade to ""
// rather than erroring. Markup drift tolerance lives here.
package directory

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/labatlas/centerscrape/internal/diag"
	"github.com/labatlas/centerscrape/internal/fetch"
	"github.com/labatlas/centerscrape/internal/match"
	"github.com/labatlas/centerscrape/internal/record"
	"github.com/labatlas/centerscrape/internal/textutil"
)

// BlockedReason is the reason code attached to directory-side blocks.
const BlockedReason = "directory_blocked_or_captcha"

// BlockedError aborts a directory call when a page reads like an anti-bot
// interstitial.
type BlockedError struct {
	URL    string
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("directory blocked at %s: %s", e.URL, e.Reason)
}

// cardSelectors locate listing cards on a results page, most specific first.
var cardSelectors = []string{
	"div.resultbox",
	"div.jcn",
	"li.cntanr",
	"div.store-details",
}

var (
	nameSelectors    = []string{"span.lng_cont_name", "span.jcn", "a.lng_cont_name", "h2"}
	addressSelectors = []string{"span.cont_fl_addr", "span.mrehover", "div.adrss"}
	ratingSelectors  = []string{"span.green-box", "span.green-box span", "span.rating"}
)

// Scraper extracts listings from the directory site.
type Scraper struct {
	fetcher *fetch.Client
	sink    diag.Sink
	baseURL string
	host    string
}

// New creates a directory Scraper rooted at baseURL. The base URL's host is
// used to recognize profile links inside cards.
func New(fetcher *fetch.Client, sink diag.Sink, baseURL string) *Scraper {
	if sink == nil {
		sink = diag.NopSink{}
	}
	host := ""
	if u, err := url.Parse(baseURL); err == nil {
		host = u.Host
	}
	return &Scraper{
		fetcher: fetcher,
		sink:    sink,
		baseURL: strings.TrimRight(baseURL, "/"),
		host:    host,
	}
}

// Scrape fetches result pages 1..maxPages for (city, keyword) and extracts
// one ListingRecord per card. A blocked page aborts the whole call with a
// *BlockedError; an empty card set stops paging early without error; a
// failed page fetch skips to the next page.
func (s *Scraper) Scrape(ctx context.Context, city, keyword string, maxPages int) ([]*record.ListingRecord, error) {
	if maxPages < 1 {
		maxPages = 1
	}

	var results []*record.ListingRecord
	for page := 1; page <= maxPages; page++ {
		pageURL := fmt.Sprintf("%s/%s/%s/page-%d",
			s.baseURL, url.PathEscape(city), url.PathEscape(keyword), page)

		doc, err := s.fetcher.Document(ctx, pageURL)
		if err != nil {
			// Already recorded by the fetcher; this page yields nothing.
			continue
		}

		if textutil.LooksLikeBlocked(doc.Text()) {
			s.sink.MissingFields("directory", pageURL, []string{BlockedReason})
			return nil, &BlockedError{URL: pageURL, Reason: BlockedReason}
		}

		cards := s.listingCards(doc)
		if len(cards) == 0 {
			// No cards under any selector: assume no more results.
			break
		}

		log.Debug().
			Str("city", city).
			Str("keyword", keyword).
			Int("page", page).
			Int("cards", len(cards)).
			Msg("Extracted listing cards")

		for _, card := range cards {
			results = append(results, s.extractListing(ctx, card, keyword, pageURL))
		}
	}
	return results, nil
}

// ScrapeByName runs a single-page lookup for centerName in city and returns
// the best-scoring candidate against (centerName, addressHint). Returns
// (nil, nil) when the lookup yields no candidates at all.
func (s *Scraper) ScrapeByName(ctx context.Context, city, centerName, addressHint string) (*record.ListingRecord, error) {
	results, err := s.Scrape(ctx, city, centerName, 1)
	if err != nil {
		return nil, err
	}
	return match.Best(results, centerName, addressHint), nil
}

// listingCards tries the card selector chain and returns the first
// non-empty match set.
func (s *Scraper) listingCards(doc *goquery.Document) []*goquery.Selection {
	for _, selector := range cardSelectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		cards := make([]*goquery.Selection, 0, sel.Length())
		sel.Each(func(_ int, card *goquery.Selection) {
			cards = append(cards, card)
		})
		return cards
	}
	return nil
}

// extractListing pulls the per-card fields, then fetches and folds in the
// details page when the card carries a profile URL.
func (s *Scraper) extractListing(ctx context.Context, card *goquery.Selection, keyword, pageURL string) *record.ListingRecord {
	profileURL := s.extractProfileURL(card)
	name := extractFirstText(card, nameSelectors)
	address := extractFirstText(card, addressSelectors)
	rating := extractFirstText(card, ratingSelectors)

	var det details
	if profileURL != "" {
		det = s.parseDetailsPage(ctx, profileURL)
	}

	var missing []string
	if name == "" {
		missing = append(missing, "Center Name")
	}
	if address == "" {
		missing = append(missing, "Full Address")
	}
	diagURL := profileURL
	if diagURL == "" {
		diagURL = pageURL
	}
	s.sink.MissingFields("directory", diagURL, missing)

	images := strings.Join(det.images, ", ")
	return &record.ListingRecord{
		CenterName:        name,
		CenterType:        InferCenterType(keyword, name),
		FullAddress:       address,
		AverageReportTime: det.averageReportTime,
		CollectionCharges: det.collectionCharges,
		CollectionRadius:  det.collectionRadius,
		WorkingHours:      det.hours,
		ImageURLs:         images,
		LocalLandmark:     det.landmark,
		ReviewsRatings:    rating,
		Testimonials:      det.testimonials,
		StaffDoctors:      det.staff,
		SourceURL:         diagURL,
	}
}

// extractProfileURL tries the card's data attributes, then any anchor
// pointing back at the directory host.
func (s *Scraper) extractProfileURL(card *goquery.Selection) string {
	for _, attr := range []string{"data-href", "data-url"} {
		if v, ok := card.Attr(attr); ok && v != "" {
			return v
		}
	}
	link := card.Find(fmt.Sprintf("a[href*='%s']", s.host)).First()
	if href, ok := link.Attr("href"); ok {
		return href
	}
	return ""
}

// extractFirstText walks a selector chain and returns the first non-empty
// normalized text.
func extractFirstText(sel *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		node := sel.Find(selector).First()
		if node.Length() == 0 {
			continue
		}
		if text := textutil.NormalizeText(node.Text()); text != "" {
			return text
		}
	}
	return ""
}
