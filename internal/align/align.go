// Package align intersects two keyed score collections into paired sequences.
package align

import (
	"math"
	"slices"
	"strings"

	"github.com/summeval/rougecorr/internal/pairwise"
	"github.com/summeval/rougecorr/internal/score"
)

// Aligned holds two equal-length sequences paired by Keys.
type Aligned[K comparable] struct {
	Keys []K
	X    []float64
	Y    []float64
}

// Len returns the number of paired values.
func (a Aligned[K]) Len() int {
	return len(a.Keys)
}

// Align keeps the keys whose value is valid on both sides and returns the
// paired values in cmp order.
func Align[K comparable](a, b map[K]score.Value, cmp func(K, K) int) Aligned[K] {
	return alignBy(a, b, cmp, score.Value.Valid)
}

func alignBy[K comparable](a, b map[K]score.Value, cmp func(K, K) int, keep func(score.Value) bool) Aligned[K] {
	var keys []K
	for k, va := range a {
		if !keep(va) {
			continue
		}
		if vb, ok := b[k]; ok && keep(vb) {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, cmp)

	out := Aligned[K]{
		Keys: keys,
		X:    make([]float64, len(keys)),
		Y:    make([]float64, len(keys)),
	}
	for i, k := range keys {
		out.X[i], _ = a[k].Float()
		out.Y[i], _ = b[k].Float()
	}
	return out
}

// Systems aligns two system rankings.
func Systems(a, b map[string]score.Value) Aligned[string] {
	return Align(a, b, strings.Compare)
}

// Pairs aligns two pairwise difference sets. Differences are not held to
// the score floor: a gap of -3 between two systems is a real value.
func Pairs(a, b map[pairwise.Pair]float64) Aligned[pairwise.Pair] {
	return alignBy(pairwise.Values(a), pairwise.Values(b), pairwise.Compare, isNumber)
}

func isNumber(v score.Value) bool {
	f, ok := v.Float()
	return ok && !math.IsNaN(f)
}
