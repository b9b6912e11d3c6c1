package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/gema-dev/gema/pkg/adapter"
	"github.com/gema-dev/gema/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// LoadBigQuery runs the given query and converts every result row into
// a record. Column headers are matched with the same aliases as CSV
// ingestion, so a SELECT over a funding table needs no renaming.
func LoadBigQuery(ctx context.Context, bq adapter.BigQuery, query, source string) ([]*model.Record, error) {
	rows, err := bq.Query(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query dataset", goerr.V("source", source))
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := sortedColumns(rows[0])
	mapping := mapColumns(header)
	if _, ok := mapping["company"]; !ok {
		return nil, goerr.New("no company column in query result",
			goerr.V("source", source), goerr.V("header", header))
	}

	records := make([]*model.Record, 0, len(rows))
	for i, row := range rows {
		cols := make([]string, len(header))
		for j, name := range header {
			cols[j] = formatValue(row[name])
		}

		record := buildRecord(source, i+1, cols, mapping)
		if record != nil {
			records = append(records, record)
		}
	}

	return records, nil
}

// sortedColumns returns column names in a stable order so row numbers
// and field layout do not shift between runs.
func sortedColumns(row map[string]bigquery.Value) []string {
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatValue(v bigquery.Value) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", t), "0"), ".")
	default:
		return fmt.Sprintf("%v", t)
	}
}
