package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/labatlas/centerscrape/internal/config"
	"github.com/labatlas/centerscrape/internal/input"
	"github.com/labatlas/centerscrape/internal/output"
	"github.com/labatlas/centerscrape/internal/pipeline"
	"github.com/labatlas/centerscrape/internal/profile"
	"github.com/labatlas/centerscrape/internal/record"
	"github.com/labatlas/centerscrape/internal/ui"
)

var (
	runKeywords  []string
	runCities    []string
	runCity      string
	runInput     string
	runMaxPages  int
	runNoProfile bool
	runHeadless  bool
	runJSONOut   bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape directory listings and enrich them with profile data",
	Long: `Run the scraping pipeline.

If the input CSV exists, each row's center name is resolved against the
directory and enriched individually (targeted mode). Otherwise the directory
is crawled page by page for every city and keyword combination (bulk mode).`,
	Example: `  # Bulk crawl with defaults (Mumbai, "diagnostic center")
  centerscrape run

  # Bulk crawl across cities and keywords
  centerscrape run --cities Mumbai,Delhi --keywords "pathology lab","scan center"

  # Targeted mode from a CSV of center names
  centerscrape run --input centers.csv --city Pune

  # Skip the browser-based profile enrichment
  centerscrape run --no-profile`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVarP(&runKeywords, "keywords", "k", []string{config.DefaultKeyword}, "Search keywords for bulk mode")
	runCmd.Flags().StringSliceVarP(&runCities, "cities", "c", []string{config.DefaultFallbackCity}, "Cities to crawl in bulk mode")
	runCmd.Flags().StringVar(&runCity, "city", config.DefaultFallbackCity, "Fallback city for targeted mode rows without a locality")
	runCmd.Flags().StringVarP(&runInput, "input", "i", config.DefaultInputPath, "CSV of center names for targeted mode")
	runCmd.Flags().IntVar(&runMaxPages, "max-pages", config.DefaultMaxPages, "Maximum directory result pages per city/keyword")
	runCmd.Flags().BoolVar(&runNoProfile, "no-profile", false, "Skip map profile enrichment")
	runCmd.Flags().BoolVar(&runHeadless, "headless", true, "Run the enrichment browser headless")
	runCmd.Flags().BoolVar(&runJSONOut, "json-out", false, "Also write results as JSON")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := application.Config

	var enricher profile.Enricher
	if !runNoProfile {
		enricher = application.ProfileScraper(runHeadless)
	} else {
		log.Debug().Msg("Profile enrichment disabled")
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	pipe := pipeline.New(application.Directory, enricher, !quiet && !cfg.JSONLog)

	var (
		results []*record.ListingRecord
		failed  []record.FailedRecord
	)

	if entities, ok := loadTargetedInput(runInput); ok {
		log.Info().
			Str("input", runInput).
			Int("rows", len(entities)).
			Msg("Running in targeted mode")
		results, failed = pipe.RunTargeted(ctx, entities, runCity)
	} else {
		log.Info().
			Strs("cities", runCities).
			Strs("keywords", runKeywords).
			Int("max_pages", runMaxPages).
			Msg("Running in bulk mode")
		results, failed = pipe.RunBulk(ctx, runCities, runKeywords, runMaxPages)
	}

	csvPath := filepath.Join(cfg.OutputDir, output.EnrichedCSVName)
	if err := output.WriteEnrichedCSV(csvPath, results); err != nil {
		return fmt.Errorf("write enriched csv: %w", err)
	}

	jsonPath := ""
	if runJSONOut {
		jsonPath = filepath.Join(cfg.OutputDir, output.JSONName)
		if err := output.WriteJSON(jsonPath, results); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}

	failedPath := ""
	if len(failed) > 0 {
		failedPath = filepath.Join(cfg.OutputDir, output.FailedCSVName)
		if err := output.WriteFailedCSV(failedPath, failed); err != nil {
			return fmt.Errorf("write failed csv: %w", err)
		}
	}

	printSummary(quiet, len(results), len(failed), csvPath, jsonPath, failedPath)
	return nil
}

// loadTargetedInput reads the targeted-mode CSV if it exists. A missing file
// is not an error; it just means bulk mode.
func loadTargetedInput(path string) ([]input.Entity, bool) {
	if path == "" {
		return nil, false
	}
	if _, err := os.Stat(path); err != nil {
		return nil, false
	}
	entities, err := input.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to read input CSV, falling back to bulk mode")
		return nil, false
	}
	return entities, true
}

func printSummary(quiet bool, scraped, failed int, csvPath, jsonPath, failedPath string) {
	if quiet {
		return
	}
	fmt.Println()
	fmt.Printf("%s %s records scraped\n", ui.Success("✔"), ui.Bold(fmt.Sprintf("%d", scraped)))
	fmt.Printf("  Saved to %s\n", ui.Path(csvPath))
	if jsonPath != "" {
		fmt.Printf("  JSON at %s\n", ui.Path(jsonPath))
	}
	if failed > 0 {
		fmt.Printf("%s %d records failed, see %s\n", ui.Warn("!"), failed, ui.Path(failedPath))
	}
}
