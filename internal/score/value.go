// Package score holds the in-memory score tables loaded from human assessment
// and ROUGE score CSVs.
package score

import (
	"math"
	"strconv"
	"strings"
)

// MissingMarker is the cell text used for a value that was not computed.
const MissingMarker = "-"

// Floor is the smallest value still considered a real score or correlation.
// Anything below it is treated as missing.
const Floor = -1.0

// Value is a score that may be missing.
// The zero Value is missing.
type Value struct {
	f  float64
	ok bool
}

// Of returns a present Value.
func Of(f float64) Value {
	return Value{f: f, ok: true}
}

// Missing returns a missing Value.
func Missing() Value {
	return Value{}
}

// ParseValue parses a table cell. Anything that is not a number, such as
// the missing marker, an empty cell, "nan" or "N/A", is missing.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" || s == MissingMarker || strings.EqualFold(s, "nan") {
		return Missing()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Missing()
	}
	return Of(f)
}

// Float returns the raw value and whether it is present.
func (v Value) Float() (float64, bool) {
	return v.f, v.ok
}

// IsMissing reports whether no value was recorded.
func (v Value) IsMissing() bool {
	return !v.ok
}

// Valid reports whether the value is present, a number, and not below Floor.
func (v Value) Valid() bool {
	return v.ok && !math.IsNaN(v.f) && v.f >= Floor
}

// String renders the value losslessly, or the missing marker.
func (v Value) String() string {
	if !v.ok || math.IsNaN(v.f) {
		return MissingMarker
	}
	return strconv.FormatFloat(v.f, 'f', -1, 64)
}

// Format renders the value with a fixed number of decimals, or the missing marker.
func (v Value) Format(decimals int) string {
	if !v.ok || math.IsNaN(v.f) {
		return MissingMarker
	}
	return strconv.FormatFloat(v.f, 'f', decimals, 64)
}
