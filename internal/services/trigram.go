package services

import (
	"strings"
)

// trigramSet extracts the set of character trigrams from an identifier.
// Hyphens separate words (identifiers are normalized lowercase-hyphenated
// strings) and each word is padded with two leading and one trailing space,
// matching the trigram extraction Postgres uses so thresholds tuned against
// pg_trgm carry over.
func trigramSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Split(s, "-") {
		if word == "" {
			continue
		}
		padded := "  " + word + " "
		for i := 0; i+3 <= len(padded); i++ {
			set[padded[i:i+3]] = struct{}{}
		}
	}
	return set
}

// TrigramSimilarity returns the trigram-overlap similarity of two identifiers
// on a 0-1 scale: the number of shared trigrams divided by the total number
// of distinct trigrams across both inputs.
func TrigramSimilarity(a, b string) float64 {
	ta := trigramSet(a)
	tb := trigramSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}

	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}
