package score

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// RougeHeaderLabel is the label of the first column of a ROUGE score table.
const RougeHeaderLabel = "ROUGE_type"

// RougeKey addresses one score in a ROUGE table.
type RougeKey struct {
	System    string
	RougeType string
	Length    string
	Measure   Measure
}

// RougeTable holds ROUGE recall/precision/f1 per (system, ROUGE type, length).
type RougeTable struct {
	Lengths    []string
	Systems    []string // section order
	RougeTypes []string // first-seen row order

	// Skipped holds rows ignored by a Tolerant load.
	Skipped []*MalformedRowError

	scores map[RougeKey]Value
}

// NewRougeTable returns an empty table for the given length columns.
func NewRougeTable(lengths []string) *RougeTable {
	return &RougeTable{
		Lengths: append([]string(nil), lengths...),
		scores:  make(map[RougeKey]Value),
	}
}

// AddSystem registers a system section even if it has no scores.
func (t *RougeTable) AddSystem(system string) {
	if !contains(t.Systems, system) {
		t.Systems = append(t.Systems, system)
	}
}

// Set stores a value, registering system and ROUGE type on first use.
func (t *RougeTable) Set(k RougeKey, v Value) {
	t.AddSystem(k.System)
	if !contains(t.RougeTypes, k.RougeType) {
		t.RougeTypes = append(t.RougeTypes, k.RougeType)
	}
	t.scores[k] = v
}

// Get returns a value; absent entries are missing.
func (t *RougeTable) Get(k RougeKey) Value {
	return t.scores[k]
}

// Scores returns the system ranking for one (ROUGE type, length, measure).
// Systems without an entry are left out.
func (t *RougeTable) Scores(rougeType, length string, m Measure) map[string]Value {
	out := make(map[string]Value, len(t.Systems))
	for _, sys := range t.Systems {
		k := RougeKey{System: sys, RougeType: rougeType, Length: length, Measure: m}
		if v, ok := t.scores[k]; ok {
			out[sys] = v
		}
	}
	return out
}

// HasLength reports whether the table has columns for the length.
func (t *RougeTable) HasLength(length string) bool {
	return contains(t.Lengths, length)
}

// LoadRouge reads a ROUGE score table from a CSV file.
func LoadRouge(path string, mode ParseMode) (*RougeTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ROUGE table: %w", err)
	}
	defer f.Close()

	t, err := ReadRouge(f, mode)
	if err != nil {
		return nil, withPath(err, path)
	}
	for _, s := range t.Skipped {
		s.Path = path
	}
	return t, nil
}

// ReadRouge parses a sectioned ROUGE table:
//
//	ROUGE_type,050_r,100_r,050_p,100_p,050_f,100_f
//
//	<system>
//	R1,<r050>,<r100>,<p050>,<p100>,<f050>,<f100>
//	R2,...
//
// A line with a single field starts a new system section. Fields may be
// quoted and a cell that is not a number is missing.
func ReadRouge(r io.Reader, mode ParseMode) (*RougeTable, error) {
	tr := NewTableReader(r)
	var t *RougeTable
	system := ""
	for {
		parts, lineNum, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var mre *MalformedRowError
			if !errors.As(err, &mre) {
				return nil, fmt.Errorf("reading ROUGE table: %w", err)
			}
			if t == nil || mode == Strict {
				return nil, mre
			}
			t.Skipped = append(t.Skipped, mre)
			continue
		}

		if t == nil {
			lengths, err := parseRougeHeader(parts)
			if err != nil {
				return nil, &MalformedRowError{Line: lineNum, Reason: err.Error()}
			}
			t = NewRougeTable(lengths)
			continue
		}

		if len(parts) == 1 {
			system = parts[0]
			t.AddSystem(system)
			continue
		}

		if err := t.addRow(system, parts, lineNum); err != nil {
			if mode == Strict {
				return nil, err
			}
			t.Skipped = append(t.Skipped, err)
		}
	}
	if t == nil {
		return nil, fmt.Errorf("reading ROUGE table: missing header")
	}
	return t, nil
}

// parseRougeHeader extracts the length labels from the recall block of the header.
func parseRougeHeader(parts []string) ([]string, error) {
	cols := parts[1:]
	if len(cols) == 0 || len(cols)%len(Measures) != 0 {
		return nil, fmt.Errorf("header needs %d columns per length, got %d columns", len(Measures), len(cols))
	}
	n := len(cols) / len(Measures)
	lengths := make([]string, n)
	for mi, m := range Measures {
		suffix := "_" + m.Suffix()
		for i := 0; i < n; i++ {
			col := cols[mi*n+i]
			if !strings.HasSuffix(col, suffix) {
				return nil, fmt.Errorf("header column %q should end in %q", col, suffix)
			}
			length := strings.TrimSuffix(col, suffix)
			if mi == 0 {
				lengths[i] = length
			} else if lengths[i] != length {
				return nil, fmt.Errorf("header column %q does not match length %q", col, lengths[i])
			}
		}
	}
	return lengths, nil
}

func (t *RougeTable) addRow(system string, parts []string, lineNum int) *MalformedRowError {
	if system == "" {
		return &MalformedRowError{Line: lineNum, Reason: "score row before any system name"}
	}
	want := 1 + len(t.Lengths)*len(Measures)
	if len(parts) != want {
		return &MalformedRowError{Line: lineNum, Expected: want, Got: len(parts)}
	}
	rougeType := parts[0]
	cells := parts[1:]
	n := len(t.Lengths)
	for mi, m := range Measures {
		for li, length := range t.Lengths {
			t.Set(RougeKey{System: system, RougeType: rougeType, Length: length, Measure: m}, ParseValue(cells[mi*n+li]))
		}
	}
	return nil
}

// WriteRouge writes the table in the format read by ReadRouge.
// Every system section lists every ROUGE type; absent scores are written
// as the missing marker.
func WriteRouge(w io.Writer, t *RougeTable) error {
	tw := NewTableWriter(w)
	header := []string{RougeHeaderLabel}
	for _, m := range Measures {
		for _, length := range t.Lengths {
			header = append(header, length+"_"+m.Suffix())
		}
	}
	tw.Row(header...)
	tw.Blank()

	for _, sys := range t.Systems {
		tw.Row(sys)
		for _, rt := range t.RougeTypes {
			row := []string{rt}
			for _, m := range Measures {
				for _, length := range t.Lengths {
					row = append(row, t.Get(RougeKey{System: sys, RougeType: rt, Length: length, Measure: m}).String())
				}
			}
			tw.Row(row...)
		}
		tw.Blank()
		tw.Blank()
	}
	return tw.Flush()
}

// SaveRouge writes the table to a new file, creating parent directories.
func SaveRouge(path string, t *RougeTable) error {
	return saveFile(path, func(w io.Writer) error { return WriteRouge(w, t) })
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
