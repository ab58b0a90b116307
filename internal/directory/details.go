package directory

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/labatlas/centerscrape/internal/textutil"
)

// details carries the structured sub-fields parsed from a profile details
// page. Absent fields stay "".
type details struct {
	hours             string
	images            []string
	landmark          string
	testimonials      string
	staff             string
	collectionCharges string
	collectionRadius  string
	averageReportTime string
}

var (
	hoursSelectors       = []string{"div.ophrs", "span.timing"}
	testimonialSelectors = []string{"div.testi", "div.testimonial"}
	staffSelectors       = []string{"div.doctor", "li.doctor", "div.staff"}

	chargesRe = regexp.MustCompile(`Collection Charges\s*[:\-]?\s*(\S+)`)
	radiusRe  = regexp.MustCompile(`Collection Radius\s*[:\-]?\s*([0-9.]+)\s*Kms?`)
	reportRe  = regexp.MustCompile(`Report Time\s*[:\-]?\s*(\S+)`)
)

// parseDetailsPage fetches a profile URL once and independently attempts
// each sub-field. A failed fetch returns zero details.
func (s *Scraper) parseDetailsPage(ctx context.Context, profileURL string) details {
	doc, err := s.fetcher.Document(ctx, profileURL)
	if err != nil {
		return details{}
	}
	return parseDetails(doc)
}

func parseDetails(doc *goquery.Document) details {
	var det details

	det.hours = extractFirstText(doc.Selection, hoursSelectors)
	det.landmark = extractLandmark(doc)
	det.testimonials = extractJoined(doc, testimonialSelectors)
	det.staff = extractJoined(doc, staffSelectors)
	det.images = extractImages(doc)

	pageText := textutil.NormalizeText(doc.Text())
	det.collectionCharges = firstGroup(chargesRe, pageText)
	det.collectionRadius = firstGroup(radiusRe, pageText)
	det.averageReportTime = firstGroup(reportRe, pageText)

	// Markup and text-scan both empty: fall back to the inline preloaded
	// state some detail pages ship for their client-side widgets.
	if det.collectionCharges == "" && det.collectionRadius == "" && det.averageReportTime == "" {
		det.collectionCharges, det.collectionRadius, det.averageReportTime = preloadedFields(doc)
	}

	return det
}

// extractJoined tries selector groups in order and joins the texts of the
// first group that matches with " | ".
func extractJoined(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		var parts []string
		sel.Each(func(_ int, node *goquery.Selection) {
			if text := textutil.NormalizeText(node.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		if len(parts) > 0 {
			return strings.Join(parts, " | ")
		}
	}
	return ""
}

// extractImages collects img sources, preferring data-src over src,
// filtered to absolute URLs and deduplicated preserving order.
func extractImages(doc *goquery.Document) []string {
	var images []string
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("data-src")
		if !ok || src == "" {
			src, _ = img.Attr("src")
		}
		if textutil.IsAbsoluteURL(src) {
			images = append(images, src)
		}
	})
	return textutil.UniqueStrings(images)
}

// extractLandmark finds the first text node containing the "Landmark"
// marker and returns its parent's normalized text.
func extractLandmark(doc *goquery.Document) string {
	for _, root := range doc.Nodes {
		if n := findTextNode(root, "Landmark"); n != nil && n.Parent != nil {
			return textutil.NormalizeText(nodeText(n.Parent))
		}
	}
	return ""
}

func findTextNode(n *html.Node, marker string) *html.Node {
	if n.Type == html.TextNode && strings.Contains(n.Data, marker) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTextNode(c, marker); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
		b.WriteString(" ")
	}
	return b.String()
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
