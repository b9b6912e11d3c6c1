// Package verify implements the three-layer grounding protocol that
// gates what may reach generation and what may be returned:
//
//	layer 1: retrieval-confidence gate (pre-generation)
//	layer 2: answer-groundedness check (post-generation)
//	layer 3: citation binding
//
// Verification failing is first-class business logic, not an error;
// every layer's decision is an explicit verdict value.
package verify

import (
	"sort"
	"strings"

	"github.com/gema-dev/gema/pkg/model"
)

// Config holds the tunable attribution policy. TauHigh trades recall
// against hallucination risk at the gate; MinTermCoverage is the fuzzy
// match floor for non-numeric claim content.
type Config struct {
	TauHigh         float64
	MinTermCoverage float64
}

// DefaultConfig returns the baseline policy: exact match for numbers,
// 0.5 key-term coverage floor, 0.5 gate threshold.
func DefaultConfig() Config {
	return Config{
		TauHigh:         0.5,
		MinTermCoverage: 0.5,
	}
}

type Verifier struct {
	cfg Config
}

func New(cfg Config) *Verifier {
	return &Verifier{cfg: cfg}
}

// Gate is layer 1: it decides whether retrieval produced enough
// confidence to invoke the generator at all. An empty candidate set or
// a top score below TauHigh terminates the pipeline with REJECTED.
func (v *Verifier) Gate(candidates []*model.RetrievalCandidate) model.GateVerdict {
	if len(candidates) == 0 {
		return model.GateVerdict{
			Passed: false,
			Reason: model.GateReasonNoEvidence,
		}
	}

	top := candidates[0].Score
	if top < v.cfg.TauHigh {
		return model.GateVerdict{
			Passed:   false,
			Reason:   model.GateReasonLowConfidence,
			TopScore: top,
		}
	}

	return model.GateVerdict{Passed: true, TopScore: top}
}

// evidenceDoc is a record's document text prepared for attribution.
type evidenceDoc struct {
	id      model.RecordID
	text    string
	numbers map[string]bool
}

func prepareEvidence(records []*model.Record) []evidenceDoc {
	docs := make([]evidenceDoc, 0, len(records))
	for _, r := range records {
		doc := strings.ToLower(r.Document())
		numbers := make(map[string]bool)
		for _, n := range extractNumbers(doc) {
			numbers[n] = true
		}
		docs = append(docs, evidenceDoc{id: r.ID, text: doc, numbers: numbers})
	}
	return docs
}

// Ground is layer 2: it decomposes the answer into atomic claims and
// attributes each one to the supplied evidence. A claim is supported
// when every number in it appears verbatim (digit-normalized) in the
// evidence and its key-term coverage reaches the configured floor.
// Supporting record IDs are attached to each claim for layer 3.
func (v *Verifier) Ground(answer string, evidence []*model.Record) []model.Claim {
	docs := prepareEvidence(evidence)

	var union strings.Builder
	for _, d := range docs {
		union.WriteString(d.text)
		union.WriteString(" ")
	}
	unionText := union.String()

	var claims []model.Claim
	for _, text := range splitClaims(answer) {
		claims = append(claims, v.groundClaim(text, docs, unionText))
	}
	return claims
}

func (v *Verifier) groundClaim(text string, docs []evidenceDoc, unionText string) model.Claim {
	claim := model.Claim{Text: text}
	numbers := extractNumbers(text)
	terms := keyTerms(text)

	// Numeric layer: exact match, no tolerance. One fabricated amount
	// sinks the whole claim.
	cited := make(map[model.RecordID]bool)
	for _, n := range numbers {
		matched := false
		for _, d := range docs {
			if d.numbers[n] {
				cited[d.id] = true
				matched = true
			}
		}
		if !matched {
			return claim
		}
	}

	if termCoverage(terms, unionText) < v.cfg.MinTermCoverage {
		return claim
	}

	claim.Supported = true

	// Citation binding: records that matched a number, otherwise the
	// record with the best term overlap.
	if len(cited) == 0 {
		if id, ok := bestOverlap(terms, docs); ok {
			cited[id] = true
		}
	}
	claim.Citations = sortedIDs(cited)
	return claim
}

// bestOverlap returns the evidence record with the highest key-term
// coverage for the claim; ties keep the earlier (higher-ranked)
// record. Reports false when no record matches any term.
func bestOverlap(terms []string, docs []evidenceDoc) (model.RecordID, bool) {
	if len(terms) == 0 {
		return "", false
	}

	var bestID model.RecordID
	var best float64
	for _, d := range docs {
		if c := termCoverage(terms, d.text); c > best {
			best = c
			bestID = d.id
		}
	}
	return bestID, best > 0
}

// Bind is layer 3: every surviving claim must carry the record IDs
// that support it. The verdict's citation set is exactly the union of
// IDs bound by supported claims, in order of first appearance. An
// answer whose supported claims bind zero citations despite evidence
// is not grounded.
func (v *Verifier) Bind(claims []model.Claim) model.AnswerVerdict {
	verdict := model.AnswerVerdict{Claims: claims}

	seen := make(map[model.RecordID]bool)
	for _, c := range claims {
		if !c.Supported {
			verdict.UnsupportedClaims = append(verdict.UnsupportedClaims, c.Text)
			continue
		}
		for _, id := range c.Citations {
			if !seen[id] {
				seen[id] = true
				verdict.Citations = append(verdict.Citations, id)
			}
		}
	}

	verdict.Grounded = len(claims) > 0 &&
		len(verdict.UnsupportedClaims) == 0 &&
		len(verdict.Citations) > 0
	return verdict
}

// Strip rebuilds the answer from supported claims only, for the
// partial-answer fallback after a failed regeneration.
func Strip(claims []model.Claim) string {
	var kept []string
	for _, c := range claims {
		if c.Supported {
			kept = append(kept, c.Text)
		}
	}
	return strings.Join(kept, " ")
}

func sortedIDs(set map[model.RecordID]bool) []model.RecordID {
	ids := make([]model.RecordID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
