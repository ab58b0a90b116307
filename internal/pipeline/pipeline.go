// Package pipeline drives the end-to-end collection run: directory
// extraction, deduplication, optional profile enrichment, and routing of
// blocked entities to the failure set. Execution is sequential; the dedupe
// set and the accumulating result lists are owned here and nowhere else.
package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/labatlas/centerscrape/internal/directory"
	"github.com/labatlas/centerscrape/internal/input"
	"github.com/labatlas/centerscrape/internal/match"
	"github.com/labatlas/centerscrape/internal/profile"
	"github.com/labatlas/centerscrape/internal/record"
	"github.com/labatlas/centerscrape/internal/textutil"
)

// Pipeline orchestrates one collection run.
type Pipeline struct {
	directory *directory.Scraper
	enricher  profile.Enricher
	progress  bool
}

// New creates a Pipeline. A nil enricher disables profile enrichment
// entirely; showProgress controls the terminal progress bar.
func New(dir *directory.Scraper, enricher profile.Enricher, showProgress bool) *Pipeline {
	return &Pipeline{
		directory: dir,
		enricher:  enricher,
		progress:  showProgress,
	}
}

// RunBulk walks the cities × keywords cross product, deduplicates listings
// by (normalized name, normalized address) with first-seen-wins, enriches
// survivors, and returns the collected records plus the failure set.
func (p *Pipeline) RunBulk(ctx context.Context, cities, keywords []string, maxPages int) ([]*record.ListingRecord, []record.FailedRecord) {
	var (
		results []*record.ListingRecord
		failed  []record.FailedRecord
	)
	seen := make(map[string]struct{})
	bar := p.newBar(len(cities)*len(keywords), "queries")

	for _, city := range cities {
		for _, keyword := range keywords {
			rows, err := p.directory.Scrape(ctx, city, keyword, maxPages)
			p.step(bar)

			var blocked *directory.BlockedError
			if errors.As(err, &blocked) {
				log.Warn().Str("city", city).Str("keyword", keyword).Msg("Directory blocked, skipping query")
				failed = append(failed, record.FailedRecord{
					CenterName: keyword,
					Address:    city,
					Reason:     blocked.Reason,
				})
				continue
			}

			for _, row := range rows {
				key := row.DedupeKey()
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}

				if p.enricher != nil && row.CenterName != "" {
					if !p.enrich(ctx, row, row.FullAddress, &failed) {
						continue
					}
				}
				results = append(results, row)
			}
		}
	}
	return results, failed
}

// RunTargeted resolves each named entity through a directory lookup,
// enriches the resolution, and routes blocked lookups to the failure set.
// Entities are deduplicated by normalized name, first-seen-wins.
func (p *Pipeline) RunTargeted(ctx context.Context, entities []input.Entity, fallbackCity string) ([]*record.ListingRecord, []record.FailedRecord) {
	var (
		results []*record.ListingRecord
		failed  []record.FailedRecord
	)
	seen := make(map[string]struct{})
	bar := p.newBar(len(entities), "entities")

	for _, entity := range entities {
		p.step(bar)

		nameKey := strings.ToLower(textutil.NormalizeText(entity.Name))
		if _, dup := seen[nameKey]; dup {
			continue
		}
		seen[nameKey] = struct{}{}

		city := entity.Locality
		if city == "" {
			city = fallbackCity
		}
		addressHint := joinNonEmpty(entity.Address, entity.Pincode, entity.Locality)
		lookupHint := addressHint
		if lookupHint == "" {
			lookupHint = entity.Locality
		}

		row, err := p.directory.ScrapeByName(ctx, city, entity.Name, lookupHint)

		var blocked *directory.BlockedError
		if errors.As(err, &blocked) {
			failed = append(failed, record.FailedRecord{
				CenterName: entity.Name,
				Address:    entity.Address,
				Reason:     blocked.Reason,
			})
			continue
		}
		if row == nil {
			// Lookup produced nothing; carry the name forward so the
			// entity still gets an output row.
			row = &record.ListingRecord{CenterName: entity.Name}
		}

		if p.enricher != nil {
			baseAddress := row.FullAddress
			if baseAddress == "" {
				baseAddress = addressHint
			}
			queryName := row.CenterName
			if queryName == "" {
				queryName = entity.Name
			}
			query := strings.TrimSpace(queryName + " " + baseAddress)

			res := p.enricher.Scrape(ctx, query)
			if res.Kind == profile.KindBlocked {
				failed = append(failed, record.FailedRecord{
					CenterName: entity.Name,
					Address:    entity.Address,
					Reason:     res.Reason,
				})
				continue
			}
			match.Merge(row, &res.Record)
			// In targeted mode the profile address is authoritative: a
			// lookup that returned none clears the directory's guess.
			if res.Record.FullAddress == "" {
				row.FullAddress = ""
			}
		}

		results = append(results, row)
	}
	return results, failed
}

// enrich merges a profile lookup into row. Returns false when the lookup
// was blocked, in which case the row has been routed to the failure set.
func (p *Pipeline) enrich(ctx context.Context, row *record.ListingRecord, address string, failed *[]record.FailedRecord) bool {
	query := strings.TrimSpace(row.CenterName + " " + address)
	res := p.enricher.Scrape(ctx, query)
	if res.Kind == profile.KindBlocked {
		*failed = append(*failed, record.FailedRecord{
			CenterName: row.CenterName,
			Address:    row.FullAddress,
			Reason:     res.Reason,
		})
		return false
	}
	// Unavailable and Failed still merge: the record carries whatever
	// fields were populated, possibly none.
	match.Merge(row, &res.Record)
	return true
}

func (p *Pipeline) newBar(total int, desc string) *progressbar.ProgressBar {
	if !p.progress || total <= 0 {
		return nil
	}
	return progressbar.Default(int64(total), desc)
}

func (p *Pipeline) step(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Add(1)
	}
}

func joinNonEmpty(parts ...string) string {
	nonEmpty := parts[:0]
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.TrimSpace(strings.Join(nonEmpty, " "))
}
