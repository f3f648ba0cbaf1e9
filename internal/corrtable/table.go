// Package corrtable holds correlation results keyed by
// (measure, correlation type, ROUGE type, summary length).
package corrtable

import (
	"github.com/summeval/rougecorr/internal/correlate"
	"github.com/summeval/rougecorr/internal/score"
)

// Key addresses one correlation value.
type Key struct {
	Measure     score.Measure
	Correlation correlate.Type
	RougeType   string
	Length      string
}

// Table is a set of correlation values with the row and column labels used
// to lay them out.
type Table struct {
	Lengths    []string
	RougeTypes []string
	Values     map[Key]score.Value
}

// New returns an empty table.
func New(lengths, rougeTypes []string) *Table {
	return &Table{
		Lengths:    append([]string(nil), lengths...),
		RougeTypes: append([]string(nil), rougeTypes...),
		Values:     make(map[Key]score.Value),
	}
}

// Get returns the value at k; absent keys are missing.
func (t *Table) Get(k Key) score.Value {
	return t.Values[k]
}

// Set stores a value.
func (t *Table) Set(k Key, v score.Value) {
	t.Values[k] = v
}

// SetResult stores all three statistics of r for one (measure, ROUGE type, length).
func (t *Table) SetResult(m score.Measure, rougeType, length string, r correlate.Result) {
	for _, ct := range correlate.Types {
		t.Set(Key{Measure: m, Correlation: ct, RougeType: rougeType, Length: length}, score.Of(r.Get(ct)))
	}
}

// SetMissing marks all three statistics of one (measure, ROUGE type, length) as missing.
func (t *Table) SetMissing(m score.Measure, rougeType, length string) {
	for _, ct := range correlate.Types {
		t.Set(Key{Measure: m, Correlation: ct, RougeType: rougeType, Length: length}, score.Missing())
	}
}

// Measures returns the measures present in the table, in column order.
func (t *Table) Measures() []score.Measure {
	var out []score.Measure
	for _, m := range score.Measures {
		for k := range t.Values {
			if k.Measure == m {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// Correlations returns the correlation types present in the table.
func (t *Table) Correlations() []correlate.Type {
	var out []correlate.Type
	for _, c := range correlate.Types {
		for k := range t.Values {
			if k.Correlation == c {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Sheets returns the (measure, correlation) combinations present in the
// table, in canonical order.
func (t *Table) Sheets() []Sheet {
	seen := make(map[Sheet]bool)
	for k := range t.Values {
		seen[Sheet{Measure: k.Measure, Correlation: k.Correlation}] = true
	}
	var out []Sheet
	for _, s := range AllSheets() {
		if seen[s] {
			out = append(out, s)
		}
	}
	return out
}

// Sheet is one (measure, correlation type) slice of a table.
type Sheet struct {
	Measure     score.Measure
	Correlation correlate.Type
}

// AllSheets returns every (measure, correlation) combination in report order.
func AllSheets() []Sheet {
	var out []Sheet
	for _, m := range score.Measures {
		for _, c := range correlate.Types {
			out = append(out, Sheet{Measure: m, Correlation: c})
		}
	}
	return out
}

// FileName returns the CSV file name of a correlation sheet.
func (s Sheet) FileName() string {
	return "correlations_" + string(s.Measure) + "_" + string(s.Correlation) + ".csv"
}
