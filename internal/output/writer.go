// Package output writes the pipeline's artifacts: the enriched CSV (always
// produced, even when empty), the optional JSON dump of pre-projection
// records, and the failure CSV (only when failures exist).
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/labatlas/centerscrape/internal/record"
)

// Default artifact names under the output directory.
const (
	EnrichedCSVName = "Lab_Centers_Enriched.csv"
	JSONName        = "scraped_centers.json"
	FailedCSVName   = "Failed_Records.csv"
)

// WriteEnrichedCSV writes the fixed 15-column CSV at path, creating parent
// directories as needed. A nil or empty record set still produces the
// header row.
func WriteEnrichedCSV(path string, records []*record.ListingRecord) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(record.Columns); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(r.Row()); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return nil
}

// WriteFailedCSV writes the failure rows at path. Callers should skip it
// entirely when failed is empty.
func WriteFailedCSV(path string, failed []record.FailedRecord) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Center Name", "Address", "Reason"}); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, fr := range failed {
		if err := w.Write([]string{fr.CenterName, fr.Address, fr.Reason}); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return nil
}

// WriteJSON writes the pre-projection records as an indented JSON array.
func WriteJSON(path string, records []*record.ListingRecord) error {
	if records == nil {
		records = []*record.ListingRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("json: marshal records: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("json: create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("json: write %q: %w", path, err)
	}
	return nil
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}
	return f, nil
}
