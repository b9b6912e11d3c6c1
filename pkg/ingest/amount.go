package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

var amountPattern = regexp.MustCompile(`([0-9][0-9,]*(?:\.[0-9]+)?)`)

// unit multipliers recognized in raw amount strings, checked after the
// numeric part is extracted.
var amountUnits = []struct {
	suffix     string
	multiplier float64
}{
	{"crore", 1e7},
	{"cr", 1e7},
	{"lakh", 1e5},
	{"lac", 1e5},
	{"billion", 1e9},
	{"bn", 1e9},
	{"million", 1e6},
	{"mn", 1e6},
	{"thousand", 1e3},
	{"k", 1e3},
	{"m", 1e6},
	{"b", 1e9},
}

// CanonicalAmount extracts the numeric value from a raw amount string
// ("$2.5M", "Rs. 20 Lakhs", "1,000,000") and renders it as plain
// digits. Returns false when no number can be found.
func CanonicalAmount(raw string) (string, bool) {
	match := amountPattern.FindString(raw)
	if match == "" {
		return "", false
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return "", false
	}

	lower := strings.ToLower(raw)
	for _, unit := range amountUnits {
		if hasUnit(lower, unit.suffix) {
			value *= unit.multiplier
			break
		}
	}

	if value != float64(int64(value)) {
		return strconv.FormatFloat(value, 'f', -1, 64), true
	}
	return strconv.FormatInt(int64(value), 10), true
}

// hasUnit reports whether the unit appears as a word (or trailing
// single-letter suffix like "2.5M") rather than inside another word.
// A plural "s" after the unit still counts.
func hasUnit(s, unit string) bool {
	idx := strings.Index(s, unit)
	for idx >= 0 {
		before := idx == 0 || !isLetter(s[idx-1])
		afterIdx := idx + len(unit)
		if afterIdx < len(s) && s[afterIdx] == 's' {
			afterIdx++
		}
		after := afterIdx >= len(s) || !isLetter(s[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(s[idx+1:], unit)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
