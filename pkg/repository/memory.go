package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/gema-dev/gema/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Memory is the default in-process repository. Records are inserted
// once at index build and read-only afterwards, so searches run
// lock-free on the shared snapshot apart from a read lock.
type Memory struct {
	mu      sync.RWMutex
	records []*model.Record
	byID    map[model.RecordID]*model.Record
}

// NewMemory creates an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{
		byID: make(map[model.RecordID]*model.Record),
	}
}

func (m *Memory) PutRecord(ctx context.Context, record *model.Record) error {
	if err := record.Validate(); err != nil {
		return goerr.Wrap(err, "invalid record")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[record.ID]; ok {
		return goerr.New("duplicate record id", goerr.V("record_id", record.ID))
	}
	m.records = append(m.records, record)
	m.byID[record.ID] = record
	return nil
}

func (m *Memory) GetRecord(ctx context.Context, id model.RecordID) (*model.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrRecordNotFound, "no such record", goerr.V("record_id", id))
	}
	return record, nil
}

func (m *Memory) ListRecords(ctx context.Context) ([]*model.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*model.Record, len(m.records))
	copy(records, m.records)
	return records, nil
}

func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// SearchSimilar scans the full corpus. Vectors are L2-normalized at
// index build, so cosine similarity is the plain dot product.
func (m *Memory) SearchSimilar(ctx context.Context, vector []float32, limit int) ([]*ScoredRecord, error) {
	if limit < 1 {
		return nil, goerr.New("limit must be >= 1", goerr.V("limit", limit))
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	scored := make([]*ScoredRecord, 0, len(m.records))
	for _, record := range m.records {
		if len(record.Embedding) == 0 {
			continue
		}
		if len(record.Embedding) != len(vector) {
			return nil, goerr.New("vector dimension mismatch",
				goerr.V("record_id", record.ID),
				goerr.V("record_dim", len(record.Embedding)),
				goerr.V("query_dim", len(vector)))
		}
		scored = append(scored, &ScoredRecord{
			Record: record,
			Score:  dot(record.Embedding, vector),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Record.ID < scored[j].Record.ID
	})

	if limit > len(scored) {
		limit = len(scored)
	}
	return scored[:limit], nil
}

func dot(a []float32, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
