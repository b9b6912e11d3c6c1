package ask_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gema-dev/gema/pkg/index"
	"github.com/gema-dev/gema/pkg/model"
	"github.com/gema-dev/gema/pkg/repository"
	"github.com/gema-dev/gema/pkg/usecase/ask"
	"github.com/gema-dev/gema/pkg/utils/backoff"
	"github.com/m-mizutani/gt"
)

type mockEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := m.vectors[text]; ok {
		return append([]float32{}, v...), nil
	}
	return append([]float32{}, m.fallback...), nil
}

func (m *mockEmbedder) ModelVersion() string {
	return "test-embedding-001"
}

type mockLLM struct {
	answers []string
	err     error
	calls   int
	prompts []string
}

func (m *mockLLM) Generate(ctx context.Context, system, prompt string) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	answer := m.answers[len(m.answers)-1]
	if m.calls <= len(m.answers) {
		answer = m.answers[m.calls-1]
	}
	return answer, nil
}

func acmeRecord() *model.Record {
	return &model.Record{
		ID:     "aaaa0001",
		Source: "funding.csv",
		Fields: []model.Field{
			{Key: "company", Value: "Acme Robotics", Type: model.FieldTypeString},
			{Key: "amount", Value: "2,000,000", Type: model.FieldTypeNumber},
			{Key: "funding_round", Value: "Series A", Type: model.FieldTypeString},
			{Key: "investor", Value: "Northgate Capital", Type: model.FieldTypeString},
		},
	}
}

func setupPipeline(t *testing.T, llm *mockLLM, queryVectors map[string][]float32) *ask.UseCase {
	t.Helper()
	ctx := context.Background()

	record := acmeRecord()
	vectors := map[string][]float32{
		record.Document(): {1, 0, 0},
	}
	for q, v := range queryVectors {
		vectors[q] = v
	}

	embedder := &mockEmbedder{vectors: vectors, fallback: []float32{0, 0, 1}}
	idx := index.New(embedder, repository.NewMemory())

	_, err := idx.Build(ctx, []*model.Record{record})
	gt.NoError(t, err)

	cfg := ask.DefaultConfig()
	cfg.Retry = backoff.Policy{MaxAttempts: 2}
	return ask.New(idx, llm, cfg)
}

func TestAskAnswered(t *testing.T) {
	ctx := context.Background()

	llm := &mockLLM{answers: []string{
		"Acme Robotics raised 2,000,000 in their Series A round from Northgate Capital.",
	}}
	pipeline := setupPipeline(t, llm, map[string][]float32{
		"How much did Acme raise?": {0.95, 0.05, 0},
	})

	resp, err := pipeline.Ask(ctx, "How much did Acme raise?")
	gt.NoError(t, err)
	gt.Equal(t, resp.State, model.StateAnswered)
	gt.True(t, resp.Verified())
	gt.False(t, resp.Disclosed)
	gt.Equal(t, llm.calls, 1)

	gt.Equal(t, resp.Citations, []model.RecordID{"aaaa0001"})
	gt.A(t, resp.Sources).Length(1)
	gt.Equal(t, resp.Sources[0].Source, "funding.csv")
	gt.S(t, resp.Sources[0].Content).Contains("Acme Robotics")

	// The prompt enumerates the evidence for the generator
	gt.S(t, llm.prompts[0]).Contains("[Source 1]")
	gt.S(t, llm.prompts[0]).Contains("Acme Robotics")
}

func TestAskRejectedWithoutGeneration(t *testing.T) {
	ctx := context.Background()

	llm := &mockLLM{answers: []string{"should never be used"}}
	pipeline := setupPipeline(t, llm, map[string][]float32{
		"What is the meaning of life?": {0, 1, 0},
	})

	resp, err := pipeline.Ask(ctx, "What is the meaning of life?")
	gt.NoError(t, err)
	gt.Equal(t, resp.State, model.StateRejected)
	gt.False(t, resp.Verified())
	gt.Equal(t, resp.Answer, ask.DefaultConfig().NoEvidenceAnswer)
	gt.Equal(t, resp.Gate.Reason, model.GateReasonNoEvidence)
	gt.A(t, resp.Sources).Length(0)

	// The generator is never invoked below the gate
	gt.Equal(t, llm.calls, 0)
}

func TestAskRejectedLowConfidence(t *testing.T) {
	ctx := context.Background()

	llm := &mockLLM{answers: []string{"should never be used"}}
	// Above MinSimilarity but below TauHigh
	pipeline := setupPipeline(t, llm, map[string][]float32{
		"Vaguely related question": {0.4, 0.9, 0},
	})

	resp, err := pipeline.Ask(ctx, "Vaguely related question")
	gt.NoError(t, err)
	gt.Equal(t, resp.State, model.StateRejected)
	gt.Equal(t, resp.Gate.Reason, model.GateReasonLowConfidence)
	gt.Equal(t, llm.calls, 0)
}

func TestAskRegeneratesThenTruncates(t *testing.T) {
	ctx := context.Background()

	// Both attempts mix one supported claim with one fabricated claim
	fabricated := "Acme Robotics raised 2,000,000 in their Series A round. " +
		"Acme Robotics will expand to Mars with quantum teleportation next quarter."
	llm := &mockLLM{answers: []string{fabricated, fabricated}}
	pipeline := setupPipeline(t, llm, map[string][]float32{
		"How much did Acme raise?": {0.95, 0.05, 0},
	})

	resp, err := pipeline.Ask(ctx, "How much did Acme raise?")
	gt.NoError(t, err)
	gt.Equal(t, resp.State, model.StatePartial)
	gt.False(t, resp.Verified())
	gt.True(t, resp.Disclosed)

	// One regeneration, then truncation
	gt.Equal(t, llm.calls, 2)

	// The supported claim survives, the fabricated one is gone, and the
	// disclosure note is appended
	gt.S(t, resp.Answer).Contains("2,000,000")
	gt.S(t, resp.Answer).NotContains("Mars")
	gt.S(t, resp.Answer).Contains(ask.DefaultConfig().PartialNote)

	gt.Equal(t, resp.Citations, []model.RecordID{"aaaa0001"})
	gt.A(t, resp.Sources).Length(1)

	// The second prompt carries the stricter instruction
	gt.V(t, llm.prompts[0]).NotEqual(llm.prompts[1])
}

func TestAskFullyFabricatedTruncatesToNote(t *testing.T) {
	ctx := context.Background()

	fabricated := "Venus colonization budgets tripled overnight according to nobody."
	llm := &mockLLM{answers: []string{fabricated, fabricated}}
	pipeline := setupPipeline(t, llm, map[string][]float32{
		"How much did Acme raise?": {0.95, 0.05, 0},
	})

	resp, err := pipeline.Ask(ctx, "How much did Acme raise?")
	gt.NoError(t, err)
	gt.Equal(t, resp.State, model.StatePartial)
	gt.True(t, resp.Disclosed)
	gt.Equal(t, resp.Answer, ask.DefaultConfig().PartialNote)
	gt.A(t, resp.Citations).Length(0)
}

func TestAskGenerationUnavailable(t *testing.T) {
	ctx := context.Background()

	llm := &mockLLM{err: errors.New("upstream 503")}
	pipeline := setupPipeline(t, llm, map[string][]float32{
		"How much did Acme raise?": {0.95, 0.05, 0},
	})

	_, err := pipeline.Ask(ctx, "How much did Acme raise?")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrGenerationUnavailable))

	// Exhausted the retry budget
	gt.Equal(t, llm.calls, 2)
}

func TestRetrieveFiltersByMinSimilarity(t *testing.T) {
	ctx := context.Background()

	llm := &mockLLM{answers: []string{"unused"}}
	pipeline := setupPipeline(t, llm, map[string][]float32{
		"weak match": {0.1, 0.99, 0},
	})

	candidates, err := pipeline.Retrieve(ctx, "weak match")
	gt.NoError(t, err)
	gt.A(t, candidates).Length(0)
}

func TestAskCitationsSubsetOfCandidates(t *testing.T) {
	ctx := context.Background()

	llm := &mockLLM{answers: []string{
		"Acme Robotics raised 2,000,000 in their Series A round.",
	}}
	pipeline := setupPipeline(t, llm, map[string][]float32{
		"How much did Acme raise?": {0.95, 0.05, 0},
	})

	resp, err := pipeline.Ask(ctx, "How much did Acme raise?")
	gt.NoError(t, err)

	candidateIDs := make(map[model.RecordID]bool)
	for _, c := range resp.Candidates {
		candidateIDs[c.ID] = true
	}
	for _, id := range resp.Citations {
		gt.True(t, candidateIDs[id])
	}

	if !strings.Contains(resp.Answer, "2,000,000") {
		t.Errorf("answer lost the grounded amount: %s", resp.Answer)
	}
}
