// Package pipeline wires loading, correlation, delta and report writing
// into batch runs.
package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/summeval/rougecorr/internal/align"
	"github.com/summeval/rougecorr/internal/correlate"
	"github.com/summeval/rougecorr/internal/corrtable"
	"github.com/summeval/rougecorr/internal/pairwise"
	"github.com/summeval/rougecorr/internal/score"
)

// Mode selects what is correlated: raw system scores or score differences
// between system pairs.
type Mode string

const (
	Absolute Mode = "absolute"
	Pairwise Mode = "pairwise"
)

// ParseMode accepts absolute, pairwise, or "" for absolute.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", Absolute:
		return Absolute, nil
	case Pairwise:
		return Pairwise, nil
	}
	return "", fmt.Errorf("unknown mode %q (want absolute or pairwise)", s)
}

// ErrLengthNotScored means the ROUGE table has no column for a human length.
var ErrLengthNotScored = errors.New("length not in ROUGE table")

// Cell is the outcome of one (measure, ROUGE type, length) correlation.
// Result is meaningful only when Err is nil.
type Cell struct {
	Measure   score.Measure
	RougeType string
	Length    string
	Result    correlate.Result
	Err       error
}

// Correlate computes every (ROUGE type, length, measure) correlation between
// the human and ROUGE tables. Lengths follow the human table. A cell that
// cannot be computed is missing in the table and carries its reason; it
// never stops the others.
func Correlate(human *score.HumanTable, rouge *score.RougeTable, mode Mode, rougeTypes []string) (*corrtable.Table, []Cell) {
	if len(rougeTypes) == 0 {
		rougeTypes = score.DefaultRougeTypes
	}
	t := corrtable.New(human.Lengths, rougeTypes)

	systems := append([]string(nil), human.Systems...)
	sort.Strings(systems)
	humanDiffs := make(map[string]map[pairwise.Pair]float64)

	var cells []Cell
	for _, rt := range rougeTypes {
		for _, length := range human.Lengths {
			for _, m := range score.Measures {
				c := Cell{Measure: m, RougeType: rt, Length: length}
				switch {
				case !rouge.HasLength(length):
					c.Err = ErrLengthNotScored
				case mode == Pairwise:
					hd, ok := humanDiffs[length]
					if !ok {
						hd = pairwise.Differences(human.Scores(length), systems)
						humanDiffs[length] = hd
					}
					a := align.Pairs(pairwise.Differences(rouge.Scores(rt, length, m), systems), hd)
					c.Result, c.Err = correlate.Compute(a.X, a.Y)
				default:
					a := align.Systems(rouge.Scores(rt, length, m), human.Scores(length))
					c.Result, c.Err = correlate.Compute(a.X, a.Y)
				}

				if c.Err != nil {
					t.SetMissing(m, rt, length)
				} else {
					t.SetResult(m, rt, length, c.Result)
				}
				cells = append(cells, c)
			}
		}
	}
	return t, cells
}

// Failed returns the cells that could not be computed.
func Failed(cells []Cell) []Cell {
	var out []Cell
	for _, c := range cells {
		if c.Err != nil {
			out = append(out, c)
		}
	}
	return out
}
