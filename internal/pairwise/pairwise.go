// Package pairwise turns absolute system scores into signed score differences
// between every pair of systems.
package pairwise

import (
	"sort"

	"github.com/summeval/rougecorr/internal/score"
)

// Pair is an unordered pair of systems stored in sorted order.
type Pair struct {
	First  string
	Second string
}

// Compare orders pairs by First, then Second.
func Compare(a, b Pair) int {
	switch {
	case a.First < b.First:
		return -1
	case a.First > b.First:
		return 1
	case a.Second < b.Second:
		return -1
	case a.Second > b.Second:
		return 1
	}
	return 0
}

// Differences returns score[First] - score[Second] for every pair of systems
// drawn from systems, where First sorts before Second.
// Pairs where either side is absent, missing or below score.Floor are
// omitted, never zero-filled.
func Differences(scores map[string]score.Value, systems []string) map[Pair]float64 {
	sorted := append([]string(nil), systems...)
	sort.Strings(sorted)

	diffs := make(map[Pair]float64)
	for i, first := range sorted {
		a, ok := present(scores, first)
		if !ok {
			continue
		}
		for _, second := range sorted[i+1:] {
			b, ok := present(scores, second)
			if !ok {
				continue
			}
			diffs[Pair{First: first, Second: second}] = a - b
		}
	}
	return diffs
}

// Values wraps differences as present score values for alignment.
func Values(diffs map[Pair]float64) map[Pair]score.Value {
	out := make(map[Pair]score.Value, len(diffs))
	for p, d := range diffs {
		out[p] = score.Of(d)
	}
	return out
}

// present returns a system's score when it is valid. Scores below
// score.Floor count as missing here, as they do in absolute mode.
func present(scores map[string]score.Value, system string) (float64, bool) {
	v, ok := scores[system]
	if !ok || !v.Valid() {
		return 0, false
	}
	return v.Float()
}
