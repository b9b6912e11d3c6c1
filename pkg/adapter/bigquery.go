package adapter

import (
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

// BigQuery is an interface for reading funding records out of a
// BigQuery table.
type BigQuery interface {
	// Query executes a query and returns all result rows as column
	// name to value maps.
	Query(ctx context.Context, query string) ([]map[string]bigquery.Value, error)
}

type bigqueryClient struct {
	client *bigquery.Client
}

// NewBigQuery creates a new BigQuery client
func NewBigQuery(ctx context.Context, projectID string) (BigQuery, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client")
	}

	return &bigqueryClient{client: client}, nil
}

func (bq *bigqueryClient) Query(ctx context.Context, query string) ([]map[string]bigquery.Value, error) {
	q := bq.client.Query(query)

	job, err := q.Run(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run query")
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to wait for query completion")
	}
	if status.Err() != nil {
		return nil, goerr.Wrap(status.Err(), "query execution failed")
	}

	it, err := job.Read(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read query result")
	}

	var rows []map[string]bigquery.Value
	for {
		var row map[string]bigquery.Value
		if err := it.Next(&row); err == iterator.Done {
			break
		} else if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate query result")
		}
		rows = append(rows, row)
	}

	return rows, nil
}
