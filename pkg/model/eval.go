package model

import "time"

// EvaluationCase is one labeled query. Expected and KeyFacts describe
// the ground truth; when KeyFacts is empty the Expected string is
// treated as a single key fact.
type EvaluationCase struct {
	ID                string     `yaml:"id" json:"id"`
	Query             string     `yaml:"query" json:"query"`
	Expected          string     `yaml:"expected" json:"expected"`
	KeyFacts          []string   `yaml:"key_facts,omitempty" json:"key_facts,omitempty"`
	ExpectedCitations []RecordID `yaml:"expected_citations,omitempty" json:"expected_citations,omitempty"`
}

// CaseResult records enough per-case detail to diagnose a failure:
// the retrieved candidates, verdicts, and the final answer.
type CaseResult struct {
	CaseID string        `json:"case_id"`
	State  TerminalState `json:"state,omitempty"`

	Answer     string                `json:"answer,omitempty"`
	Candidates []*RetrievalCandidate `json:"candidates,omitempty"`
	Gate       *GateVerdict          `json:"gate,omitempty"`
	Verdict    *AnswerVerdict        `json:"verdict,omitempty"`
	Citations  []RecordID            `json:"citations,omitempty"`

	Correctness       float64 `json:"correctness"`
	CitationScored    bool    `json:"citation_scored,omitempty"`
	CitationPrecision float64 `json:"citation_precision,omitempty"`
	CitationRecall    float64 `json:"citation_recall,omitempty"`

	// InfraFailure marks a case whose pipeline invocation failed on the
	// external service. Such cases are excluded from quality metrics
	// and must be re-run.
	InfraFailure bool   `json:"infra_failure,omitempty"`
	Error        string `json:"error,omitempty"`

	Elapsed time.Duration `json:"elapsed_ns"`
}

// EvaluationReport aggregates metrics over a run of labeled cases.
type EvaluationReport struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed_ns"`

	Cases map[string]*CaseResult `json:"cases"`

	TotalCases    int `json:"total_cases"`
	ScoredCases   int `json:"scored_cases"`
	InfraFailures int `json:"infra_failures"`

	MeanCorrectness       float64 `json:"mean_correctness"`
	MeanCitationPrecision float64 `json:"mean_citation_precision"`
	MeanCitationRecall    float64 `json:"mean_citation_recall"`

	// StateDistribution maps terminal state to the fraction of scored
	// cases ending in it.
	StateDistribution map[TerminalState]float64 `json:"state_distribution"`

	// Rerun lists the case IDs flagged as infrastructure failures.
	Rerun []string `json:"rerun,omitempty"`
}
