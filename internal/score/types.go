package score

import (
	"fmt"
	"sort"
	"strconv"
)

// Measure is one of the three ROUGE score variants.
type Measure string

const (
	Recall    Measure = "recall"
	Precision Measure = "precision"
	F1        Measure = "f1"
)

// Measures lists the variants in table column order.
var Measures = []Measure{Recall, Precision, F1}

// Suffix returns the column suffix used in ROUGE table headers.
func (m Measure) Suffix() string {
	switch m {
	case Recall:
		return "r"
	case Precision:
		return "p"
	case F1:
		return "f"
	}
	return ""
}

// DefaultRougeTypes are the ROUGE variants scored by the extraction step,
// in report row order.
var DefaultRougeTypes = []string{"R1", "R2", "R3", "R4", "RSU", "RL", "RW", "RS"}

// ParseMode selects how loaders react to rows with the wrong column count.
type ParseMode int

const (
	// Strict fails on the first malformed row.
	Strict ParseMode = iota
	// Tolerant skips malformed rows and reports them.
	Tolerant
)

// MalformedRowError describes a data row that does not fit the table header.
type MalformedRowError struct {
	Path     string
	Line     int
	Expected int
	Got      int
	Reason   string
}

func (e *MalformedRowError) Error() string {
	loc := fmt.Sprintf("line %d", e.Line)
	if e.Path != "" {
		loc = e.Path + ":" + loc
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s: malformed row: %s", loc, e.Reason)
	}
	return fmt.Sprintf("%s: malformed row: expected %d columns, got %d", loc, e.Expected, e.Got)
}

// SortLengths sorts summary-length labels numerically; labels that are not
// numbers sort after numeric ones, lexically.
func SortLengths(lengths []string) {
	sort.SliceStable(lengths, func(i, j int) bool {
		a, errA := strconv.Atoi(lengths[i])
		b, errB := strconv.Atoi(lengths[j])
		switch {
		case errA == nil && errB == nil:
			if a != b {
				return a < b
			}
			return lengths[i] < lengths[j]
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return lengths[i] < lengths[j]
	})
}
