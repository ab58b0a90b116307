// Package match scores directory listings against a target business and
// merges map-profile fields into a listing.
package match

import (
	"github.com/labatlas/centerscrape/internal/record"
	"github.com/labatlas/centerscrape/internal/textutil"
)

// Score computes the token-overlap score between a candidate listing name
// and the target name, plus the overlap of the two addresses when both are
// present. Zero tokens on either name side means the pair is unmatchable
// and scores 0.
func Score(candidate, target, candidateAddr, targetAddr string) int {
	candidateTokens := textutil.TokenSet(candidate)
	targetTokens := textutil.TokenSet(target)
	if len(candidateTokens) == 0 || len(targetTokens) == 0 {
		return 0
	}

	score := overlap(candidateTokens, targetTokens)
	if candidateAddr != "" && targetAddr != "" {
		score += overlap(textutil.TokenSet(candidateAddr), textutil.TokenSet(targetAddr))
	}
	return score
}

func overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}

// Best picks the strictly-greatest-scoring listing for the target name and
// address hint; ties keep the earliest-seen candidate. When every candidate
// scores zero the first one wins anyway, matching upstream behavior. Returns
// nil only for an empty candidate list.
func Best(listings []*record.ListingRecord, name, addressHint string) *record.ListingRecord {
	if len(listings) == 0 {
		return nil
	}

	var best *record.ListingRecord
	bestScore := -1
	for _, l := range listings {
		score := Score(l.CenterName, name, l.FullAddress, addressHint)
		if score > bestScore {
			bestScore = score
			best = l
		}
	}
	return best
}

// Merge copies every non-empty field of the profile onto the listing.
// Populated listing fields are never overwritten by empty profile values.
// The blocked sentinel is not a data field and is never merged; callers
// must route blocked profiles to the failure set instead.
func Merge(listing *record.ListingRecord, profile *record.ProfileRecord) {
	if listing == nil || profile == nil {
		return
	}

	setIf(&listing.ProfileLink, profile.ProfileLink)
	setIf(&listing.EmbedLink, profile.EmbedLink)
	setIf(&listing.ReviewsRatings, profile.ReviewsRatings)
	setIf(&listing.WorkingHours, profile.WorkingHours)
	setIf(&listing.FullAddress, profile.FullAddress)
	setIf(&listing.ImageURLs, profile.ImageURLs)
	setIf(&listing.Testimonials, profile.Testimonials)
}

func setIf(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}
