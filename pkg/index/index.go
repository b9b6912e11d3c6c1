package index

import (
	"context"
	"math"

	"github.com/gema-dev/gema/pkg/adapter"
	"github.com/gema-dev/gema/pkg/model"
	"github.com/gema-dev/gema/pkg/repository"
	"github.com/gema-dev/gema/pkg/utils/backoff"
	"github.com/gema-dev/gema/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Index maps query text to the nearest records by semantic similarity.
// Vectors are L2-normalized at insert so cosine similarity is the dot
// product, matching the flat inner-product search of the original
// system. The index is immutable once built and safe for concurrent
// queries.
type Index struct {
	embedder adapter.Embedder
	repo     repository.Repository
	retry    backoff.Policy
}

type Option func(*Index)

// WithRetryPolicy overrides the retry policy for embedding calls.
func WithRetryPolicy(p backoff.Policy) Option {
	return func(x *Index) {
		x.retry = p
	}
}

// New creates an index over the given repository
func New(embedder adapter.Embedder, repo repository.Repository, opts ...Option) *Index {
	x := &Index{
		embedder: embedder,
		repo:     repo,
		retry:    backoff.Default(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// BuildResult summarizes an index build.
type BuildResult struct {
	Indexed  int
	Excluded []model.RecordID
}

// Build embeds every record's document text and stores the pair in the
// repository. Records yielding a degenerate (all-zero) embedding are
// excluded and logged, not fatal; the build fails only when no record
// could be indexed at all.
func (x *Index) Build(ctx context.Context, records []*model.Record) (*BuildResult, error) {
	logger := logging.From(ctx)
	result := &BuildResult{}

	for _, record := range records {
		vec, err := x.embed(ctx, record.Document())
		if err != nil {
			return nil, goerr.Wrap(err, "failed to embed record", goerr.V("record_id", record.ID))
		}

		if !normalize(vec) {
			logger.Warn("excluding record with degenerate embedding", "record_id", record.ID)
			result.Excluded = append(result.Excluded, record.ID)
			continue
		}

		record.Embedding = vec
		record.EmbeddingModel = x.embedder.ModelVersion()
		if err := x.repo.PutRecord(ctx, record); err != nil {
			return nil, goerr.Wrap(err, "failed to store record", goerr.V("record_id", record.ID))
		}
		result.Indexed++
	}

	if len(records) > 0 && result.Indexed == 0 {
		return nil, goerr.Wrap(model.ErrIndexBuild, "no record yielded a usable embedding",
			goerr.V("records", len(records)))
	}

	logger.Info("index build complete",
		"indexed", result.Indexed,
		"excluded", len(result.Excluded),
		"model", x.embedder.ModelVersion())
	return result, nil
}

// Query embeds text and returns the top k candidates ordered by score
// descending, ties broken by record ID ascending. Requesting k beyond
// the corpus size returns the full corpus. An empty corpus returns an
// empty candidate list.
func (x *Index) Query(ctx context.Context, text string, k int) ([]*model.RetrievalCandidate, error) {
	if k < 1 {
		return nil, goerr.New("k must be >= 1", goerr.V("k", k))
	}

	count, err := x.repo.Count(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count records")
	}
	if count == 0 {
		return []*model.RetrievalCandidate{}, nil
	}

	vec, err := x.embed(ctx, text)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}
	if !normalize(vec) {
		return []*model.RetrievalCandidate{}, nil
	}

	scored, err := x.repo.SearchSimilar(ctx, vec, k)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search similar records")
	}

	candidates := make([]*model.RetrievalCandidate, 0, len(scored))
	for rank, s := range scored {
		if s.Record.EmbeddingModel != x.embedder.ModelVersion() {
			return nil, goerr.Wrap(model.ErrModelMismatch, "stored vector from different model",
				goerr.V("record_id", s.Record.ID),
				goerr.V("stored", s.Record.EmbeddingModel),
				goerr.V("query", x.embedder.ModelVersion()))
		}
		candidates = append(candidates, &model.RetrievalCandidate{
			Record: s.Record,
			ID:     s.Record.ID,
			Score:  s.Score,
			Rank:   rank,
		})
	}

	return candidates, nil
}

func (x *Index) embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := x.retry.Do(ctx, func(ctx context.Context) error {
		v, err := x.embedder.Embed(ctx, text)
		if err != nil {
			return err
		}
		vec = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// normalize L2-normalizes v in place. Returns false for a zero-norm
// vector.
func normalize(v []float32) bool {
	var norm2 float64
	for _, val := range v {
		norm2 += float64(val) * float64(val)
	}
	if norm2 == 0 {
		return false
	}

	inv := 1 / math.Sqrt(norm2)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return true
}
