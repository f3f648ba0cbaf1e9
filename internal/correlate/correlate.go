// Package correlate computes linear and rank correlations between two paired
// score sequences.
package correlate

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ErrUndefined is returned when a statistic has no defined value for the
// input: fewer than two points, mismatched lengths, or a constant sequence.
var ErrUndefined = errors.New("correlation undefined")

// Type names one of the three correlation statistics.
type Type string

const (
	Pearson  Type = "pearson"
	Spearman Type = "spearman"
	Kendall  Type = "kendall"
)

// Types lists the statistics in report order.
var Types = []Type{Pearson, Spearman, Kendall}

// Result holds the three statistics for one aligned pair of sequences.
type Result struct {
	Pearson  float64
	Spearman float64
	Kendall  float64
	N        int
}

// Get returns the statistic of the given type.
func (r Result) Get(t Type) float64 {
	switch t {
	case Pearson:
		return r.Pearson
	case Spearman:
		return r.Spearman
	case Kendall:
		return r.Kendall
	}
	return math.NaN()
}

// Compute returns Pearson, Spearman and Kendall tau-b for x and y.
func Compute(x, y []float64) (Result, error) {
	p, err := PearsonR(x, y)
	if err != nil {
		return Result{}, err
	}
	s, err := SpearmanRho(x, y)
	if err != nil {
		return Result{}, err
	}
	k, err := KendallTau(x, y)
	if err != nil {
		return Result{}, err
	}
	return Result{Pearson: p, Spearman: s, Kendall: k, N: len(x)}, nil
}

// PearsonR returns the linear correlation coefficient.
func PearsonR(x, y []float64) (float64, error) {
	if err := checkInput(x, y); err != nil {
		return 0, err
	}
	if constant(x) || constant(y) {
		return 0, fmt.Errorf("%w: constant sequence", ErrUndefined)
	}
	return clamp(stat.Correlation(x, y, nil)), nil
}

// SpearmanRho returns the Pearson correlation of the average ranks of x and y.
func SpearmanRho(x, y []float64) (float64, error) {
	if err := checkInput(x, y); err != nil {
		return 0, err
	}
	return PearsonR(Ranks(x), Ranks(y))
}

// KendallTau returns Kendall's tau-b, which corrects for ties on either side.
// Pairs tied on both sides count toward neither concordance nor discordance.
func KendallTau(x, y []float64) (float64, error) {
	if err := checkInput(x, y); err != nil {
		return 0, err
	}
	var concordant, discordant, tiesX, tiesY float64
	n := len(x)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := x[i] - x[j]
			dy := y[i] - y[j]
			switch {
			case dx == 0 && dy == 0:
				tiesX++
				tiesY++
			case dx == 0:
				tiesX++
			case dy == 0:
				tiesY++
			case (dx > 0) == (dy > 0):
				concordant++
			default:
				discordant++
			}
		}
	}
	total := float64(n*(n-1)) / 2
	denom := math.Sqrt((total - tiesX) * (total - tiesY))
	if denom == 0 {
		return 0, fmt.Errorf("%w: constant sequence", ErrUndefined)
	}
	return clamp((concordant - discordant) / denom), nil
}

// Ranks returns 1-based ranks of values, giving tied values the average of
// the ranks they span.
func Ranks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, len(values))
	for start := 0; start < len(idx); {
		end := start + 1
		for end < len(idx) && values[idx[end]] == values[idx[start]] {
			end++
		}
		// positions start..end-1 hold ranks start+1..end
		avg := float64(start+1+end) / 2
		for k := start; k < end; k++ {
			ranks[idx[k]] = avg
		}
		start = end
	}
	return ranks
}

func checkInput(x, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("%w: sequences have lengths %d and %d", ErrUndefined, len(x), len(y))
	}
	if len(x) < 2 {
		return fmt.Errorf("%w: need at least 2 points, got %d", ErrUndefined, len(x))
	}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			return fmt.Errorf("%w: NaN at position %d", ErrUndefined, i)
		}
	}
	return nil
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
