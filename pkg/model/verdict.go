package model

// TerminalState is the outcome of a query through the verification
// pipeline. Every query resolves into exactly one of these.
type TerminalState string

const (
	// StateAnswered means all verification layers passed and the answer
	// carries at least one bound citation.
	StateAnswered TerminalState = "answered"
	// StatePartial means unsupported claims were stripped from the
	// answer and the caller is told so.
	StatePartial TerminalState = "partial"
	// StateRejected means the retrieval-confidence gate failed and the
	// generator was never invoked.
	StateRejected TerminalState = "rejected"
)

const (
	// GateReasonNoEvidence is set when retrieval returned nothing.
	GateReasonNoEvidence = "no_sufficient_evidence"
	// GateReasonLowConfidence is set when the top candidate scored below
	// the confidence threshold.
	GateReasonLowConfidence = "top_score_below_threshold"
)

// GateVerdict is the result of the pre-generation retrieval gate.
type GateVerdict struct {
	Passed   bool    `json:"passed"`
	Reason   string  `json:"reason,omitempty"`
	TopScore float64 `json:"top_score"`
}

// Claim is one atomic factual unit of a generated answer, with the
// records that support it.
type Claim struct {
	Text      string     `json:"text"`
	Supported bool       `json:"supported"`
	Citations []RecordID `json:"citations,omitempty"`
}

// AnswerVerdict is the result of the post-generation groundedness and
// citation-binding checks. Citations is the union of record IDs bound
// by supported claims, ordered by first appearance in the answer.
type AnswerVerdict struct {
	Grounded          bool       `json:"grounded"`
	Claims            []Claim    `json:"claims"`
	UnsupportedClaims []string   `json:"unsupported_claims,omitempty"`
	Citations         []RecordID `json:"citations"`
}
