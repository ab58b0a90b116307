// Package fetch retrieves HTML pages for the static extractor. One attempt
// per URL: failures are logged to the diagnostic sink and surfaced as
// errors, and the caller moves on.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/labatlas/centerscrape/internal/diag"
	"github.com/labatlas/centerscrape/internal/ratelimit"
	"github.com/labatlas/centerscrape/internal/textutil"
)

// Client fetches and parses static HTML pages.
type Client struct {
	client  *http.Client
	limiter ratelimit.RateLimiter
	sink    diag.Sink
	timeout time.Duration
}

// New creates a Client with dependency injection.
func New(client *http.Client, limiter ratelimit.RateLimiter, sink diag.Sink, timeout time.Duration) *Client {
	if client == nil {
		client = &http.Client{}
	}
	if sink == nil {
		sink = diag.NopSink{}
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		client:  client,
		limiter: limiter,
		sink:    sink,
		timeout: timeout,
	}
}

// Document fetches url and parses the body with goquery. Non-200 statuses
// and transport errors are recorded on the sink and returned as errors;
// callers treat them as "no data from this source".
func (c *Client) Document(ctx context.Context, url string) (*goquery.Document, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, url); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	log.Debug().Str("url", url).Msg("Fetching page")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.sink.FailedURL(url, err.Error())
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", textutil.PickUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")

	resp, err := c.client.Do(req)
	if err != nil {
		c.sink.FailedURL(url, err.Error())
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		reason := fmt.Sprintf("non-200 status %d", resp.StatusCode)
		c.sink.FailedURL(url, reason)
		return nil, fmt.Errorf("fetch %s: %s", url, reason)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		c.sink.FailedURL(url, err.Error())
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Int64("response_time_ms", time.Since(start).Milliseconds()).
		Msg("Fetch completed")

	return doc, nil
}
