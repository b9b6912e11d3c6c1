// Package ingest turns raw dataset rows into Records. Column names are
// matched loosely so differently-labeled funding exports map onto the
// same canonical fields.
package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gema-dev/gema/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// canonical columns and the header substrings that map onto them, in
// priority order.
var columnAliases = []struct {
	key     string
	typ     model.FieldType
	aliases []string
}{
	{"company", model.FieldTypeString, []string{"company", "startup", "brand", "name"}},
	{"investor", model.FieldTypeString, []string{"investor", "backer", "lead"}},
	{"amount", model.FieldTypeNumber, []string{"amount", "funding", "raised", "value"}},
	{"funding_round", model.FieldTypeString, []string{"round", "stage", "series", "investment"}},
	{"year", model.FieldTypeDate, []string{"year", "date"}},
	{"sector", model.FieldTypeString, []string{"sector", "industry", "vertical"}},
	{"city", model.FieldTypeString, []string{"city", "location", "headquarter"}},
}

// LoadCSV reads a funding dataset from a CSV file. Rows missing a
// company value are skipped. Record IDs are stable across re-ingests
// of the same file.
func LoadCSV(path string) ([]*model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open dataset", goerr.V("path", path))
	}
	defer f.Close()

	return ReadCSV(f, filepath.Base(path))
}

// ReadCSV parses CSV content into records, tagging each with the given
// source name.
func ReadCSV(r io.Reader, source string) ([]*model.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read csv header", goerr.V("source", source))
	}

	mapping := mapColumns(header)
	if _, ok := mapping["company"]; !ok {
		return nil, goerr.New("no company column in dataset",
			goerr.V("source", source), goerr.V("header", header))
	}

	var records []*model.Record
	for row := 1; ; row++ {
		cols, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed rows are skipped, not fatal.
			continue
		}

		record := buildRecord(source, row, cols, mapping)
		if record != nil {
			records = append(records, record)
		}
	}

	return records, nil
}

func mapColumns(header []string) map[string]int {
	mapping := make(map[string]int)
	for _, col := range columnAliases {
		for idx, name := range header {
			lower := strings.ToLower(strings.TrimSpace(name))
			for _, alias := range col.aliases {
				if strings.Contains(lower, alias) {
					if _, taken := mapping[col.key]; !taken {
						mapping[col.key] = idx
					}
				}
			}
		}
	}
	return mapping
}

func buildRecord(source string, row int, cols []string, mapping map[string]int) *model.Record {
	fields := make([]model.Field, 0, len(columnAliases)+1)
	for _, col := range columnAliases {
		idx, ok := mapping[col.key]
		if !ok || idx >= len(cols) {
			continue
		}
		value := strings.TrimSpace(cols[idx])
		if value == "" || strings.EqualFold(value, "nan") {
			continue
		}
		fields = append(fields, model.Field{Key: col.key, Value: value, Type: col.typ})
	}

	record := &model.Record{
		ID:     model.NewRecordID(source, row),
		Source: source,
		Fields: fields,
	}

	company, ok := record.Field("company")
	if !ok || company == "" {
		return nil
	}

	// Normalize the raised amount so numeric verification can match
	// "Rs. 20 Lakhs" against the canonical digits.
	if amount, found := record.Field("amount"); found {
		if canonical, ok := CanonicalAmount(amount); ok {
			record.Fields = append(record.Fields, model.Field{
				Key:   "amount_value",
				Value: canonical,
				Type:  model.FieldTypeNumber,
			})
		}
	}

	return record
}
