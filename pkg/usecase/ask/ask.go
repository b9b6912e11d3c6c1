// Package ask drives a single question through the full pipeline:
// retrieve, gate, generate, verify, respond. Every invocation resolves
// into exactly one terminal state (answered, partial, rejected); the
// only errors surfaced to the caller are genuine infrastructure
// failures.
package ask

import (
	"context"
	"time"

	"github.com/gema-dev/gema/pkg/adapter"
	"github.com/gema-dev/gema/pkg/index"
	"github.com/gema-dev/gema/pkg/model"
	"github.com/gema-dev/gema/pkg/usecase/verify"
	"github.com/gema-dev/gema/pkg/utils/backoff"
	"github.com/gema-dev/gema/pkg/utils/logging"
)

// Config holds the per-deployment pipeline knobs.
type Config struct {
	// TopK is the retrieval depth per query.
	TopK int
	// MinSimilarity drops weak candidates before the gate. It is the
	// primary knob trading recall against hallucination risk.
	MinSimilarity float64
	// GenerateTimeout bounds each external generation call.
	GenerateTimeout time.Duration
	// Retry bounds transport failures of the generation call.
	Retry backoff.Policy
	// Verify is the grounding policy.
	Verify verify.Config

	// NoEvidenceAnswer is returned for rejected queries.
	NoEvidenceAnswer string
	// PartialNote is appended when unsupported claims were stripped.
	PartialNote string
	// ExcerptLen bounds the source excerpts in responses.
	ExcerptLen int
}

// DefaultConfig returns the serving defaults.
func DefaultConfig() Config {
	return Config{
		TopK:             5,
		MinSimilarity:    0.25,
		GenerateTimeout:  60 * time.Second,
		Retry:            backoff.Default(),
		Verify:           verify.DefaultConfig(),
		NoEvidenceAnswer: "I cannot answer that from the available data.",
		PartialNote:      "Note: statements that could not be verified against the indexed records were removed from this answer.",
		ExcerptLen:       150,
	}
}

// UseCase is one pipeline instance. It holds no mutable state beyond
// the read-only index, so separate instances with different thresholds
// can coexist in one process.
type UseCase struct {
	index    *index.Index
	llm      adapter.LLM
	verifier *verify.Verifier
	cfg      Config
}

// New creates a pipeline over the given index and generation backend.
func New(idx *index.Index, llm adapter.LLM, cfg Config) *UseCase {
	return &UseCase{
		index:    idx,
		llm:      llm,
		verifier: verify.New(cfg.Verify),
		cfg:      cfg,
	}
}

// Ask answers a natural-language question. The returned response is
// always well-formed; an error is returned only for infrastructure
// failures (ErrGenerationUnavailable or an index failure), never for
// insufficient evidence.
func (u *UseCase) Ask(ctx context.Context, question string) (*model.Response, error) {
	logger := logging.From(ctx)

	candidates, err := u.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	resp := &model.Response{
		Candidates: candidates,
		Sources:    []model.Source{},
	}

	// Layer 1: retrieval-confidence gate. The generator is never
	// invoked below the threshold.
	resp.Gate = u.verifier.Gate(candidates)
	if !resp.Gate.Passed {
		resp.State = model.StateRejected
		resp.Answer = u.cfg.NoEvidenceAnswer
		logger.Info("query rejected at retrieval gate",
			"reason", resp.Gate.Reason, "top_score", resp.Gate.TopScore)
		return resp, nil
	}

	evidence := make([]*model.Record, 0, len(candidates))
	for _, c := range candidates {
		evidence = append(evidence, c.Record)
	}

	answer, err := u.generate(ctx, question, evidence, false)
	if err != nil {
		return nil, err
	}

	// Layers 2 and 3: groundedness and citation binding.
	claims := u.verifier.Ground(answer, evidence)
	verdict := u.verifier.Bind(claims)

	if !verdict.Grounded {
		logger.Info("answer not grounded, regenerating once",
			"unsupported_claims", len(verdict.UnsupportedClaims))

		answer, err = u.generate(ctx, question, evidence, true)
		if err != nil {
			return nil, err
		}
		claims = u.verifier.Ground(answer, evidence)
		verdict = u.verifier.Bind(claims)

		if !verdict.Grounded {
			return u.truncate(ctx, resp, claims, verdict, evidence), nil
		}
	}

	resp.State = model.StateAnswered
	resp.Answer = answer
	resp.Verdict = &verdict
	resp.Citations = verdict.Citations
	resp.Sources = u.sources(verdict.Citations, evidence)
	return resp, nil
}

// truncate handles the second grounding failure: unsupported sentences
// are stripped, the answer is marked partial, and the disclosure note
// is appended.
func (u *UseCase) truncate(ctx context.Context, resp *model.Response, claims []model.Claim, verdict model.AnswerVerdict, evidence []*model.Record) *model.Response {
	logging.From(ctx).Info("regeneration still not grounded, truncating",
		"unsupported_claims", len(verdict.UnsupportedClaims))

	stripped := verify.Strip(claims)
	if stripped == "" {
		resp.Answer = u.cfg.PartialNote
	} else {
		resp.Answer = stripped + "\n\n" + u.cfg.PartialNote
	}

	resp.State = model.StatePartial
	resp.Disclosed = true
	resp.Verdict = &verdict
	resp.Citations = verdict.Citations
	resp.Sources = u.sources(verdict.Citations, evidence)
	return resp
}

// sources pairs each cited record with a short excerpt for display.
// The list is exactly the bound citation set, in citation order.
func (u *UseCase) sources(citations []model.RecordID, evidence []*model.Record) []model.Source {
	byID := make(map[model.RecordID]*model.Record, len(evidence))
	for _, r := range evidence {
		byID[r.ID] = r
	}

	sources := make([]model.Source, 0, len(citations))
	for _, id := range citations {
		r, ok := byID[id]
		if !ok {
			continue
		}
		label := r.Source
		if label == "" {
			label = string(r.ID)
		}
		sources = append(sources, model.Source{
			Source:  label,
			Content: r.Excerpt(u.cfg.ExcerptLen),
		})
	}
	return sources
}
