package eval

import (
	"strings"

	"github.com/gema-dev/gema/pkg/model"
)

// correctness is the fraction of key facts contained in the answer,
// case-insensitively with digit-normalized numbers. When a case lists
// no key facts, the whole expected answer counts as one fact.
func correctness(c model.EvaluationCase, answer string) float64 {
	facts := c.KeyFacts
	if len(facts) == 0 {
		if c.Expected == "" {
			return 0
		}
		facts = []string{c.Expected}
	}

	haystack := normalizeForMatch(answer)
	found := 0
	for _, fact := range facts {
		if strings.Contains(haystack, normalizeForMatch(fact)) {
			found++
		}
	}
	return float64(found) / float64(len(facts))
}

// normalizeForMatch lowercases and removes digit grouping commas, so
// "2,000,000" in an answer matches the key fact "2000000".
func normalizeForMatch(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if r == ',' && i > 0 && i+1 < len(runes) &&
			runes[i-1] >= '0' && runes[i-1] <= '9' &&
			runes[i+1] >= '0' && runes[i+1] <= '9' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// citationScores computes precision and recall of the returned
// citation set against the expected one.
func citationScores(expected, got []model.RecordID) (precision, recall float64) {
	expectedSet := make(map[model.RecordID]bool, len(expected))
	for _, id := range expected {
		expectedSet[id] = true
	}

	hits := 0
	for _, id := range got {
		if expectedSet[id] {
			hits++
		}
	}

	if len(got) > 0 {
		precision = float64(hits) / float64(len(got))
	}
	if len(expected) > 0 {
		recall = float64(hits) / float64(len(expected))
	}
	return precision, recall
}
