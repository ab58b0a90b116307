// Package ratelimit provides per-domain request throttling for the fetchers.
package ratelimit

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/labatlas/centerscrape/internal/textutil"
)

// RateLimiter controls how fast requests may be issued against a host.
type RateLimiter interface {
	// Wait blocks until a request for the given URL may proceed, or the
	// context is cancelled.
	Wait(ctx context.Context, urlStr string) error

	// Allow reports whether a request for the given URL may proceed
	// immediately without blocking.
	Allow(urlStr string) bool
}

// DomainLimiter applies a token bucket per host plus a jittered politeness
// pause between consecutive requests to the same host. The pause is an
// anti-detection measure, not a correctness mechanism.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastHit  map[string]time.Time
	perHost  rate.Limit
	burst    int
	minPause time.Duration
	maxPause time.Duration
}

// NewDomainLimiter creates a limiter allowing requestsPerSecond with the
// given burst per host, pausing a random minPause..maxPause between hits to
// the same host.
func NewDomainLimiter(requestsPerSecond float64, burst int, minPause, maxPause time.Duration) *DomainLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1.0
	}
	if burst <= 0 {
		burst = 1
	}
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		lastHit:  make(map[string]time.Time),
		perHost:  rate.Limit(requestsPerSecond),
		burst:    burst,
		minPause: minPause,
		maxPause: maxPause,
	}
}

// Wait blocks until the request may proceed under both the token bucket and
// the politeness pause for the URL's host.
func (dl *DomainLimiter) Wait(ctx context.Context, urlStr string) error {
	host := extractHost(urlStr)
	if host == "" {
		// Invalid URL, let it proceed and fail at the fetch layer.
		return nil
	}

	if pause := dl.pauseFor(host); pause > 0 {
		timer := time.NewTimer(pause)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return dl.getLimiter(host).Wait(ctx)
}

// Allow reports whether the token bucket for the URL's host has capacity.
func (dl *DomainLimiter) Allow(urlStr string) bool {
	host := extractHost(urlStr)
	if host == "" {
		return true
	}
	return dl.getLimiter(host).Allow()
}

// pauseFor computes the remaining politeness pause for a host and stamps the
// next hit time.
func (dl *DomainLimiter) pauseFor(host string) time.Duration {
	if dl.maxPause <= 0 {
		return 0
	}

	dl.mu.Lock()
	defer dl.mu.Unlock()

	var pause time.Duration
	if last, ok := dl.lastHit[host]; ok {
		want := textutil.RandomDelay(dl.minPause, dl.maxPause)
		if elapsed := time.Since(last); elapsed < want {
			pause = want - elapsed
		}
	}
	dl.lastHit[host] = time.Now().Add(pause)
	return pause
}

func (dl *DomainLimiter) getLimiter(host string) *rate.Limiter {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if limiter, ok := dl.limiters[host]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(dl.perHost, dl.burst)
	dl.limiters[host] = limiter
	return limiter
}

func extractHost(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Host
}
