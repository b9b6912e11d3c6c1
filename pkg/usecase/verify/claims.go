package verify

import (
	"regexp"
	"strings"
)

var numberPattern = regexp.MustCompile(`[0-9][0-9,.]*`)

// stopwords are excluded from key-term attribution. Short function
// words never carry a factual claim on their own.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "not": true, "can": true,
	"are": true, "was": true, "were": true, "under": true, "must": true,
	"than": true, "more": true, "less": true, "with": true, "from": true,
	"this": true, "that": true, "these": true, "those": true,
	"have": true, "has": true, "had": true, "been": true, "will": true,
	"would": true, "could": true, "should": true, "about": true,
	"which": true, "their": true, "there": true, "where": true,
	"when": true, "what": true, "into": true, "also": true,
	"according": true, "based": true, "provided": true, "approximately": true,
}

// splitClaims decomposes answer text into sentence-level claims.
// Markdown emphasis and list markers are stripped first so formatting
// never hides a factual unit. Fragments of fewer than three words are
// dropped.
func splitClaims(text string) []string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "*", "")

	var claims []string
	var current strings.Builder
	runes := []rune(text)

	flush := func() {
		claim := strings.TrimSpace(current.String())
		current.Reset()
		claim = strings.TrimLeft(claim, "-•# \t")
		if len(strings.Fields(claim)) >= 3 {
			claims = append(claims, claim)
		}
	}

	for i, r := range runes {
		switch r {
		case '\n':
			flush()
		case '.', '!', '?':
			// A dot between digits is a decimal point, not a boundary.
			if r == '.' && i > 0 && i+1 < len(runes) && isDigit(runes[i-1]) && isDigit(runes[i+1]) {
				current.WriteRune(r)
				continue
			}
			current.WriteRune(r)
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' {
				flush()
			}
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return claims
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// extractNumbers returns all numeric tokens in s, digit-normalized:
// grouping commas removed, trailing punctuation trimmed. "2,000,000"
// and "2000000" normalize identically.
func extractNumbers(s string) []string {
	matches := numberPattern.FindAllString(s, -1)
	nums := make([]string, 0, len(matches))
	for _, m := range matches {
		n := strings.ReplaceAll(m, ",", "")
		n = strings.TrimRight(n, ".")
		if n != "" {
			nums = append(nums, n)
		}
	}
	return nums
}

// keyTerms returns lowercased candidate attribution terms: words of
// four or more letters that are not stopwords and not numeric.
func keyTerms(s string) []string {
	var terms []string
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !isDigit(r)
	}) {
		if len(w) < 4 || stopwords[w] {
			continue
		}
		if isDigit(rune(w[0])) {
			continue
		}
		terms = append(terms, w)
	}
	return terms
}

// termCoverage is the fraction of terms present in haystack. No terms
// means nothing to contradict, which counts as full coverage.
func termCoverage(terms []string, haystack string) float64 {
	if len(terms) == 0 {
		return 1.0
	}
	found := 0
	for _, t := range terms {
		if strings.Contains(haystack, t) {
			found++
		}
	}
	return float64(found) / float64(len(terms))
}
