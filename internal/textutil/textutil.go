// Package textutil holds the text and link normalization helpers shared by
// both extractors and the pipeline driver.
package textutil

import (
	"math/rand"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	tokenSplitRe = regexp.MustCompile(`[^a-z0-9]+`)
	ratingRe     = regexp.MustCompile(`([0-9.]+)\s*\((\d+)\)`)
)

// userAgents is a small rotation of desktop browser identities.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Edge/120.0.0.0 Safari/537.36",
}

// NormalizeText collapses whitespace runs to single spaces and trims the
// result. Empty or whitespace-only input normalizes to "".
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Tokenize lowercases s and splits it on runs of non-alphanumeric characters.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	parts := tokenSplitRe.Split(strings.ToLower(s), -1)
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// TokenSet returns the tokens of s as a set.
func TokenSet(s string) map[string]struct{} {
	tokens := Tokenize(s)
	if len(tokens) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// UniqueStrings removes empty entries and duplicates, preserving first-seen
// order.
func UniqueStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}

// LooksLikeBlocked reports whether the page text reads like an anti-bot
// interstitial rather than real content.
func LooksLikeBlocked(text string) bool {
	if text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	return strings.Contains(lowered, "unusual traffic") ||
		strings.Contains(lowered, "captcha") ||
		strings.Contains(lowered, "verify")
}

// BuildEmbedLink constructs a query-based maps embed URL.
func BuildEmbedLink(query string) string {
	return "https://www.google.com/maps?q=" + url.QueryEscape(query) + "&output=embed"
}

// EmbedLinkFromPlaceURL derives an embeddable URL from a place URL by
// appending output=embed. URLs that already carry it pass through unchanged.
func EmbedLinkFromPlaceURL(placeURL string) string {
	if placeURL == "" {
		return ""
	}
	if strings.Contains(placeURL, "output=embed") {
		return placeURL
	}
	joiner := "?"
	if strings.Contains(placeURL, "?") {
		joiner = "&"
	}
	return placeURL + joiner + "output=embed"
}

// IsAbsoluteURL reports whether s is an http(s) URL.
func IsAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// PickUserAgent returns a random entry from the user agent rotation.
func PickUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// RandomDelay returns a jittered duration in [min, max). It backs the
// politeness pauses between consecutive fetches and navigations.
func RandomDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// ParseRatingReviews splits a "4.3 (120)" style string into rating and
// review count. Both returns are "" when the pattern is absent.
func ParseRatingReviews(text string) (rating, reviews string) {
	if text == "" {
		return "", ""
	}
	m := ratingRe.FindStringSubmatch(text)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}
