package repository

import (
	"context"

	"github.com/gema-dev/gema/pkg/model"
)

// ScoredRecord is a record paired with its similarity to a query
// vector.
type ScoredRecord struct {
	Record *model.Record
	Score  float64
}

// Repository defines the interface for record persistence and vector
// similarity search. Implementations are safe for concurrent reads
// once the index build has finished.
type Repository interface {
	// PutRecord saves a record (with its embedding) to the repository
	PutRecord(ctx context.Context, record *model.Record) error

	// GetRecord retrieves a record by ID
	GetRecord(ctx context.Context, id model.RecordID) (*model.Record, error)

	// ListRecords retrieves all records
	ListRecords(ctx context.Context) ([]*model.Record, error)

	// Count returns the number of stored records
	Count(ctx context.Context) (int, error)

	// SearchSimilar returns up to limit records ordered by cosine
	// similarity to the query vector, descending, ties broken by
	// record ID ascending.
	SearchSimilar(ctx context.Context, vector []float32, limit int) ([]*ScoredRecord, error)
}
