package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/gema-dev/gema/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

const recordCollection = "records"

// firestoreRecord is the stored form of a record. The embedding is a
// firestore.Vector32 so it can serve FindNearest queries.
type firestoreRecord struct {
	ID             string             `firestore:"id"`
	Source         string             `firestore:"source"`
	Fields         []model.Field      `firestore:"fields"`
	Embedding      firestore.Vector32 `firestore:"embedding"`
	EmbeddingModel string             `firestore:"embedding_model"`

	// Distance is populated only on vector search results.
	Distance float64 `firestore:"vector_distance,omitempty"`
}

func (f *firestoreRecord) toModel() *model.Record {
	return &model.Record{
		ID:             model.RecordID(f.ID),
		Source:         f.Source,
		Fields:         f.Fields,
		Embedding:      []float32(f.Embedding),
		EmbeddingModel: f.EmbeddingModel,
	}
}

// Firestore is the persistent repository backend. It lets an index
// built once by `gema index` serve later processes without re-embedding
// the dataset.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a Firestore-backed repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	return &Firestore{client: client}, nil
}

// Close releases the underlying client.
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) PutRecord(ctx context.Context, record *model.Record) error {
	if err := record.Validate(); err != nil {
		return goerr.Wrap(err, "invalid record")
	}

	doc := &firestoreRecord{
		ID:             string(record.ID),
		Source:         record.Source,
		Fields:         record.Fields,
		Embedding:      firestore.Vector32(record.Embedding),
		EmbeddingModel: record.EmbeddingModel,
	}

	_, err := r.client.Collection(recordCollection).Doc(string(record.ID)).Set(ctx, doc)
	if err != nil {
		return goerr.Wrap(err, "failed to put record", goerr.V("record_id", record.ID))
	}
	return nil
}

func (r *Firestore) GetRecord(ctx context.Context, id model.RecordID) (*model.Record, error) {
	snap, err := r.client.Collection(recordCollection).Doc(string(id)).Get(ctx)
	if err != nil {
		return nil, goerr.Wrap(model.ErrRecordNotFound, "failed to get record", goerr.V("record_id", id))
	}

	var doc firestoreRecord
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode record", goerr.V("record_id", id))
	}
	return doc.toModel(), nil
}

func (r *Firestore) ListRecords(ctx context.Context) ([]*model.Record, error) {
	it := r.client.Collection(recordCollection).Documents(ctx)
	defer it.Stop()

	var records []*model.Record
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list records")
		}

		var doc firestoreRecord
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode record")
		}
		records = append(records, doc.toModel())
	}
	return records, nil
}

func (r *Firestore) Count(ctx context.Context) (int, error) {
	records, err := r.ListRecords(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func (r *Firestore) SearchSimilar(ctx context.Context, vector []float32, limit int) ([]*ScoredRecord, error) {
	if limit < 1 {
		return nil, goerr.New("limit must be >= 1", goerr.V("limit", limit))
	}

	query := r.client.Collection(recordCollection).FindNearest(
		"embedding",
		firestore.Vector32(vector),
		limit,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{
			DistanceResultField: "vector_distance",
		},
	)

	it := query.Documents(ctx)
	defer it.Stop()

	var scored []*ScoredRecord
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search similar records")
		}

		var doc firestoreRecord
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode record")
		}

		// Firestore reports cosine distance; similarity = 1 - distance.
		scored = append(scored, &ScoredRecord{
			Record: doc.toModel(),
			Score:  1 - doc.Distance,
		})
	}
	return scored, nil
}
