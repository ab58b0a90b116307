package profile

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/labatlas/centerscrape/internal/record"
)

const resultPage = `<html><body>
	<h1>City Diagnostic Center</h1>
	<div class="F7nice">4.4 (210)</div>
	<button data-item-id="address">12 MG Road, Andheri West, Mumbai</button>
	<button data-item-id="oh">Open - Closes 9 PM</button>
	<img decoding="async" src="https://lh3.googleusercontent.com/p/photo1">
	<img decoding="async" src="https://lh3.googleusercontent.com/p/photo2">
	<img decoding="async" src="https://lh3.googleusercontent.com/p/photo1">
	<img decoding="async" src="https://other.example.com/skip.jpg">
	<span class="wiI7pd">Clean and fast.</span>
	<span class="wiI7pd">Reports on time.</span>
	<span class="wiI7pd">Friendly staff.</span>
	<span class="wiI7pd">A fourth review that must be dropped.</span>
</body></html>`

func parseDoc(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestExtractProfileFields(t *testing.T) {
	var rec record.ProfileRecord
	extractProfileFields(parseDoc(t, resultPage), &rec)

	if rec.ReviewsRatings != "4.4 (210)" {
		t.Errorf("rating = %q", rec.ReviewsRatings)
	}
	if rec.FullAddress != "12 MG Road, Andheri West, Mumbai" {
		t.Errorf("address = %q", rec.FullAddress)
	}
	if rec.WorkingHours != "Open - Closes 9 PM" {
		t.Errorf("hours = %q", rec.WorkingHours)
	}
	wantImages := "https://lh3.googleusercontent.com/p/photo1, https://lh3.googleusercontent.com/p/photo2"
	if rec.ImageURLs != wantImages {
		t.Errorf("images = %q, want %q", rec.ImageURLs, wantImages)
	}
	if rec.Testimonials != "Clean and fast. | Reports on time. | Friendly staff." {
		t.Errorf("testimonials = %q", rec.Testimonials)
	}
}

func TestExtractProfileFields_EmptyPage(t *testing.T) {
	var rec record.ProfileRecord
	extractProfileFields(parseDoc(t, "<html><body></body></html>"), &rec)

	if rec != (record.ProfileRecord{}) {
		t.Errorf("empty page should populate nothing: %+v", rec)
	}
}

func TestExtractProfileFields_ImageCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 15; i++ {
		b.WriteString(`<img decoding="async" src="https://lh3.googleusercontent.com/p/photo`)
		b.WriteByte(byte('a' + i))
		b.WriteString(`">`)
	}
	b.WriteString("</body></html>")

	var rec record.ProfileRecord
	extractProfileFields(parseDoc(t, b.String()), &rec)

	if got := strings.Count(rec.ImageURLs, "googleusercontent"); got != 10 {
		t.Errorf("image count = %d, want capped at 10", got)
	}
}
