// Package profile drives a headless browser session against the map service
// to enrich a matched listing with its business-profile fields.
package profile

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/rs/zerolog/log"

	"github.com/labatlas/centerscrape/internal/diag"
	"github.com/labatlas/centerscrape/internal/record"
	"github.com/labatlas/centerscrape/internal/textutil"
)

// Reason codes attached to non-success results.
const (
	BlockedReason     = "profile_blocked_or_captcha"
	ParseFailedReason = "profile_parse_failed"
	UnavailableReason = "browser_unavailable"
)

// Kind classifies the outcome of a profile lookup.
type Kind int

const (
	// KindSuccess means the record carries whatever fields were found.
	KindSuccess Kind = iota
	// KindBlocked means the map service served an anti-bot interstitial;
	// the record is unusable.
	KindBlocked
	// KindUnavailable means no browser could be constructed at all.
	KindUnavailable
	// KindFailed means the session broke mid-sequence; the record carries
	// whatever fields were populated before the failure.
	KindFailed
)

// Result is the outcome of one profile lookup.
type Result struct {
	Kind   Kind
	Record record.ProfileRecord
	Reason string
}

// Enricher is the capability the pipeline needs from this package.
type Enricher interface {
	Scrape(ctx context.Context, query string) Result
}

// Scraper runs one browser session per lookup. Sessions are scoped
// resources: acquired at the start of Scrape and torn down before it
// returns regardless of outcome.
type Scraper struct {
	sink       diag.Sink
	searchURL  string
	chromePath string
	userAgent  string
	proxy      string
	headless   bool
	timeout    time.Duration
}

// Options configures a profile Scraper.
type Options struct {
	Sink       diag.Sink
	SearchURL  string
	ChromePath string
	UserAgent  string
	Proxy      string
	Headless   bool
	Timeout    time.Duration
}

// New creates a profile Scraper.
func New(opts Options) *Scraper {
	if opts.Sink == nil {
		opts.Sink = diag.NopSink{}
	}
	if opts.SearchURL == "" {
		opts.SearchURL = "https://www.google.com/maps"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = textutil.PickUserAgent()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	return &Scraper{
		sink:       opts.Sink,
		searchURL:  opts.SearchURL,
		chromePath: opts.ChromePath,
		userAgent:  opts.UserAgent,
		proxy:      opts.Proxy,
		headless:   opts.Headless,
		timeout:    opts.Timeout,
	}
}

// Scrape searches the map service for query and extracts profile fields
// from the top result. Blocking markers short-circuit extraction; any other
// mid-sequence failure returns the fields populated so far.
func (s *Scraper) Scrape(ctx context.Context, query string) Result {
	var rec record.ProfileRecord

	chromePath := findChrome(s.chromePath)
	if chromePath == "" {
		s.sink.MissingFields("profile", query, []string{UnavailableReason})
		return Result{Kind: KindUnavailable, Record: rec, Reason: UnavailableReason}
	}

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.ExecPath(chromePath),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("lang", "en-US"),
		chromedp.Flag("window-size", "1366,768"),
		chromedp.UserAgent(s.userAgent),
	}
	if s.headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if s.proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(s.proxy))
	}

	// Session teardown is guaranteed by the deferred cancels, whichever
	// variant is produced below.
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()
	runCtx, cancel := context.WithTimeout(browserCtx, s.timeout)
	defer cancel()

	var (
		currentURL string
		pageHTML   string
	)
	err := chromedp.Run(runCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "en-US,en;q=0.9"}),
		chromedp.Navigate(s.searchURL),
		settle(),
		chromedp.WaitVisible("#searchboxinput", chromedp.ByID),
		chromedp.SendKeys("#searchboxinput", query+kb.Enter, chromedp.ByID),
		chromedp.WaitVisible("h1", chromedp.ByQuery),
		settle(),
		chromedp.Location(&currentURL),
		chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery),
	)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("Profile session failed")
		s.sink.MissingFields("profile", query, []string{ParseFailedReason})
		return Result{Kind: KindFailed, Record: rec, Reason: ParseFailedReason}
	}

	if textutil.LooksLikeBlocked(pageHTML) {
		s.sink.MissingFields("profile", query, []string{BlockedReason})
		rec.Blocked = BlockedReason
		return Result{Kind: KindBlocked, Record: rec, Reason: BlockedReason}
	}

	rec.ProfileLink = currentURL
	rec.EmbedLink = textutil.EmbedLinkFromPlaceURL(currentURL)
	if rec.EmbedLink == "" {
		rec.EmbedLink = textutil.BuildEmbedLink(query)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("Profile page parse failed")
		s.sink.MissingFields("profile", query, []string{ParseFailedReason})
		return Result{Kind: KindFailed, Record: rec, Reason: ParseFailedReason}
	}
	extractProfileFields(doc, &rec)

	return Result{Kind: KindSuccess, Record: rec}
}

// settle pauses 2-4 seconds to absorb client-side rendering lag. Purely an
// empirically-required latency tolerance, not a correctness mechanism.
func settle() chromedp.ActionFunc {
	return func(ctx context.Context) error {
		timer := time.NewTimer(textutil.RandomDelay(2*time.Second, 4*time.Second))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}

// extractProfileFields reads the best-effort single selectors off the
// rendered result page: rating, address, hours, up to 10 hosted photos, and
// up to 3 review snippets.
func extractProfileFields(doc *goquery.Document, rec *record.ProfileRecord) {
	rec.ReviewsRatings = textutil.NormalizeText(doc.Find("div.F7nice").First().Text())
	// Canonicalize "4.3 (1,234)" style text when it parses; keep the raw
	// normalized text otherwise.
	if rating, reviews := textutil.ParseRatingReviews(rec.ReviewsRatings); rating != "" {
		rec.ReviewsRatings = rating + " (" + reviews + ")"
	}
	rec.FullAddress = textutil.NormalizeText(doc.Find("button[data-item-id='address']").First().Text())
	rec.WorkingHours = textutil.NormalizeText(doc.Find("button[data-item-id='oh']").First().Text())

	var images []string
	doc.Find("img[decoding='async']").Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok && strings.Contains(src, "googleusercontent") {
			images = append(images, src)
		}
	})
	images = textutil.UniqueStrings(images)
	if len(images) > 10 {
		images = images[:10]
	}
	rec.ImageURLs = strings.Join(images, ", ")

	var reviews []string
	doc.Find("span.wiI7pd").EachWithBreak(func(_ int, node *goquery.Selection) bool {
		if text := textutil.NormalizeText(node.Text()); text != "" {
			reviews = append(reviews, text)
		}
		return len(reviews) < 3
	})
	rec.Testimonials = strings.Join(reviews, " | ")
}
