// Package delta compares correlation tables from different configurations
// against a baseline.
package delta

import (
	"errors"
	"fmt"

	"github.com/summeval/rougecorr/internal/corrtable"
	"github.com/summeval/rougecorr/internal/score"
)

// InvalidDelta is the value a cell without a valid delta contributes to its
// row average, and the text it is reported as.
const InvalidDelta = -999.0

// DefaultRougeTypes are the ROUGE types compared when none are configured.
var DefaultRougeTypes = []string{"R1", "R2", "RL", "RSU"}

var (
	ErrNoComparisons = errors.New("no comparisons given")
	ErrNoLengths     = errors.New("baseline has no summary lengths")
)

// Comparison is a named correlation table compared to the baseline.
type Comparison struct {
	Name  string
	Table *corrtable.Table
}

// Row holds the deltas of one ROUGE type of one comparison.
type Row struct {
	RougeType string
	// Cells has one entry per length; missing entries are invalid deltas.
	Cells []score.Value
	// Average is the mean over all lengths, invalid cells counted as InvalidDelta.
	Average float64
}

// Block holds all rows of one comparison within a sheet.
type Block struct {
	Comparison string
	Rows       []Row
	// PerLength is the mean of the valid cells of each length, 0 when a
	// length has none.
	PerLength []float64
	// Final is the mean of PerLength.
	Final float64
}

// Sheet is the delta table of one (measure, correlation) combination.
type Sheet struct {
	corrtable.Sheet
	Blocks []Block
}

// Report is the full result of a comparison run.
type Report struct {
	Lengths    []string
	RougeTypes []string
	Sheets     []Sheet
}

// Compute returns the deltas of every comparison against baseline for the
// given ROUGE types. Lengths and sheets follow the baseline.
func Compute(baseline *corrtable.Table, comparisons []Comparison, rougeTypes []string) (*Report, error) {
	if len(comparisons) == 0 {
		return nil, ErrNoComparisons
	}
	if len(baseline.Lengths) == 0 {
		return nil, ErrNoLengths
	}
	seen := make(map[string]bool, len(comparisons))
	for _, c := range comparisons {
		if c.Name == "" {
			return nil, errors.New("comparison with empty name")
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate comparison name %q", c.Name)
		}
		seen[c.Name] = true
	}
	if len(rougeTypes) == 0 {
		rougeTypes = DefaultRougeTypes
	}

	r := &Report{
		Lengths:    append([]string(nil), baseline.Lengths...),
		RougeTypes: append([]string(nil), rougeTypes...),
	}
	for _, sh := range baseline.Sheets() {
		sheet := Sheet{Sheet: sh}
		for _, c := range comparisons {
			sheet.Blocks = append(sheet.Blocks, r.block(sh, baseline, c))
		}
		r.Sheets = append(r.Sheets, sheet)
	}
	return r, nil
}

func (r *Report) block(sh corrtable.Sheet, baseline *corrtable.Table, c Comparison) Block {
	b := Block{Comparison: c.Name, PerLength: make([]float64, len(r.Lengths))}
	sums := make([]float64, len(r.Lengths))
	counts := make([]int, len(r.Lengths))

	for _, rt := range r.RougeTypes {
		row := Row{RougeType: rt, Cells: make([]score.Value, len(r.Lengths))}
		total := 0.0
		for i, length := range r.Lengths {
			k := corrtable.Key{Measure: sh.Measure, Correlation: sh.Correlation, RougeType: rt, Length: length}
			d, ok := Cell(baseline.Get(k), c.Table.Get(k))
			if !ok {
				row.Cells[i] = score.Missing()
				total += InvalidDelta
				continue
			}
			row.Cells[i] = score.Of(d)
			total += d
			sums[i] += d
			counts[i]++
		}
		row.Average = total / float64(len(r.Lengths))
		b.Rows = append(b.Rows, row)
	}

	final := 0.0
	for i := range r.Lengths {
		if counts[i] > 0 {
			b.PerLength[i] = sums[i] / float64(counts[i])
		}
		final += b.PerLength[i]
	}
	b.Final = final / float64(len(r.Lengths))
	return b
}

// Cell returns comparison minus baseline, and false when either side is
// missing or below the valid floor.
func Cell(baseline, comparison score.Value) (float64, bool) {
	if !baseline.Valid() || !comparison.Valid() {
		return 0, false
	}
	b, _ := baseline.Float()
	c, _ := comparison.Float()
	return c - b, true
}
