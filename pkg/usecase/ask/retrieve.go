package ask

import (
	"context"

	"github.com/gema-dev/gema/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Retrieve runs the index query and drops candidates scoring below
// MinSimilarity. An empty result is a legitimate no-evidence outcome,
// not an error.
func (u *UseCase) Retrieve(ctx context.Context, query string) ([]*model.RetrievalCandidate, error) {
	candidates, err := u.index.Query(ctx, query, u.cfg.TopK)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query index")
	}

	kept := make([]*model.RetrievalCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score < u.cfg.MinSimilarity {
			continue
		}
		kept = append(kept, c)
	}
	return kept, nil
}
