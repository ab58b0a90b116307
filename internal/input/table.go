// Package input reads the targeted-mode entity table. Column headers are
// matched against a set of accepted aliases; free-text cells pass through
// normalization rules that strip conversational placeholders.
package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// ErrNoNameColumn is returned when the table has none of the accepted name
// headers. It is the one fatal input condition.
var ErrNoNameColumn = errors.New("input table must include a center name column")

// Entity is one named business from the input table, cells already
// normalized.
type Entity struct {
	Name     string
	Address  string
	Locality string
	Pincode  string
}

// Accepted header aliases, checked in order.
var (
	nameAliases     = []string{"Center Name", "partnerName", "centerName", "name"}
	addressAliases  = []string{"Address", "address", "centerAddress"}
	localityAliases = []string{"locality", "Locality", "city", "City", "town", "Town"}
	pincodeAliases  = []string{"pincode", "Pincode", "pin", "PIN"}
)

// placeholders are conversational cell values that carry no address data.
var placeholders = map[string]struct{}{
	"yes":        {},
	"no":         {},
	"yes in gmb": {},
}

var pincodeRe = regexp.MustCompile(`^\d{5,6}$`)

// ReadFile opens and parses the table at path.
func ReadFile(path string) ([]Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input table: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a CSV entity table from r. Rows with an empty name cell are
// skipped; malformed rows shorter than the header are tolerated.
func Read(r io.Reader) ([]Entity, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ErrNoNameColumn
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	nameIdx := findColumn(header, nameAliases)
	if nameIdx < 0 {
		return nil, ErrNoNameColumn
	}
	addressIdx := findColumn(header, addressAliases)
	localityIdx := findColumn(header, localityAliases)
	pincodeIdx := findColumn(header, pincodeAliases)

	var entities []Entity
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		name := strings.TrimSpace(cell(row, nameIdx))
		if name == "" {
			continue
		}

		entities = append(entities, Entity{
			Name:     name,
			Address:  NormalizeAddressCell(cell(row, addressIdx)),
			Locality: NormalizeCityCell(cell(row, localityIdx)),
			Pincode:  NormalizePincodeCell(cell(row, pincodeIdx)),
		})
	}
	return entities, nil
}

func findColumn(header []string, aliases []string) int {
	for _, alias := range aliases {
		for i, col := range header {
			if strings.TrimSpace(col) == alias {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// NormalizeAddressCell trims the cell, rejecting placeholders and values
// too short to be an address. Rejected values become "", never errors.
func NormalizeAddressCell(value string) string {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || isPlaceholder(cleaned) {
		return ""
	}
	if len(cleaned) < 5 {
		return ""
	}
	return cleaned
}

// NormalizeCityCell trims the cell and rejects placeholders.
func NormalizeCityCell(value string) string {
	cleaned := strings.TrimSpace(value)
	if isPlaceholder(cleaned) {
		return ""
	}
	return cleaned
}

// NormalizePincodeCell trims the cell and requires an exact 5-6 digit
// match; anything else becomes "".
func NormalizePincodeCell(value string) string {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || isPlaceholder(cleaned) {
		return ""
	}
	if !pincodeRe.MatchString(cleaned) {
		return ""
	}
	return cleaned
}

func isPlaceholder(value string) bool {
	_, ok := placeholders[strings.ToLower(value)]
	return ok
}
