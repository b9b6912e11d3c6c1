// Package eval replays a labeled query set through the full pipeline
// and scores the output against ground truth. It is a debugging and
// regression tool: per-case detail is kept, not just scalar scores.
package eval

import (
	"context"
	"errors"
	"time"

	"github.com/gema-dev/gema/pkg/model"
	"github.com/gema-dev/gema/pkg/usecase/ask"
	"github.com/gema-dev/gema/pkg/utils/logging"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// Runner executes evaluation cases against a pipeline instance.
type Runner struct {
	pipeline    *ask.UseCase
	concurrency int
}

type Option func(*Runner)

// WithConcurrency bounds parallel case execution. Cases exercise the
// same external generation service as live traffic, so this should
// match the serving concurrency bound.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewRunner creates an evaluation runner
func NewRunner(pipeline *ask.UseCase, opts ...Option) *Runner {
	r := &Runner{
		pipeline:    pipeline,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes all cases, in parallel up to the concurrency bound, and
// aggregates the report. Cases are independent; the only shared state
// is the read-only index. A case failing on the external generation
// service is recorded as an infrastructure failure, excluded from
// quality metrics, and flagged for re-run.
func (r *Runner) Run(ctx context.Context, cases []model.EvaluationCase) (*model.EvaluationReport, error) {
	if len(cases) == 0 {
		return nil, goerr.New("no evaluation cases")
	}

	logger := logging.From(ctx)
	started := time.Now()

	results := make([]*model.CaseResult, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, c := range cases {
		g.Go(func() error {
			results[i] = r.runCase(gctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, goerr.Wrap(err, "evaluation run failed")
	}

	report := aggregate(results)
	report.RunID = uuid.New().String()
	report.StartedAt = started
	report.Elapsed = time.Since(started)

	logger.Info("evaluation complete",
		"run_id", report.RunID,
		"cases", report.TotalCases,
		"scored", report.ScoredCases,
		"infra_failures", report.InfraFailures,
		"mean_correctness", report.MeanCorrectness)
	return report, nil
}

func (r *Runner) runCase(ctx context.Context, c model.EvaluationCase) *model.CaseResult {
	result := &model.CaseResult{CaseID: c.ID}
	started := time.Now()
	defer func() {
		result.Elapsed = time.Since(started)
	}()

	resp, err := r.pipeline.Ask(ctx, c.Query)
	if err != nil {
		// Infrastructure failures must not be counted as incorrect
		// answers.
		result.InfraFailure = true
		result.Error = err.Error()
		if !errors.Is(err, model.ErrGenerationUnavailable) {
			logging.From(ctx).Warn("case failed outside generation path",
				"case_id", c.ID, "error", err)
		}
		return result
	}

	result.State = resp.State
	result.Answer = resp.Answer
	result.Candidates = resp.Candidates
	result.Gate = &resp.Gate
	result.Verdict = resp.Verdict
	result.Citations = resp.Citations

	result.Correctness = correctness(c, resp.Answer)
	if len(c.ExpectedCitations) > 0 {
		result.CitationScored = true
		result.CitationPrecision, result.CitationRecall = citationScores(c.ExpectedCitations, resp.Citations)
	}
	return result
}

func aggregate(results []*model.CaseResult) *model.EvaluationReport {
	report := &model.EvaluationReport{
		Cases:             make(map[string]*model.CaseResult, len(results)),
		TotalCases:        len(results),
		StateDistribution: make(map[model.TerminalState]float64),
	}

	var sumCorrectness, sumPrecision, sumRecall float64
	var citationCases int
	stateCounts := make(map[model.TerminalState]int)

	for _, res := range results {
		report.Cases[res.CaseID] = res

		if res.InfraFailure {
			report.InfraFailures++
			report.Rerun = append(report.Rerun, res.CaseID)
			continue
		}

		report.ScoredCases++
		stateCounts[res.State]++
		sumCorrectness += res.Correctness
		if res.CitationScored {
			sumPrecision += res.CitationPrecision
			sumRecall += res.CitationRecall
			citationCases++
		}
	}

	if report.ScoredCases > 0 {
		report.MeanCorrectness = sumCorrectness / float64(report.ScoredCases)
		for state, n := range stateCounts {
			report.StateDistribution[state] = float64(n) / float64(report.ScoredCases)
		}
	}
	if citationCases > 0 {
		report.MeanCitationPrecision = sumPrecision / float64(citationCases)
		report.MeanCitationRecall = sumRecall / float64(citationCases)
	}

	return report
}
