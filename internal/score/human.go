package score

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// HumanHeaderLabel is the label of the first column of a human score table.
const HumanHeaderLabel = "system_name"

// SystemLength addresses one cell of a human score table.
type SystemLength struct {
	System string
	Length string
}

// HumanTable holds one human score per (system, summary length).
type HumanTable struct {
	Lengths []string // header order
	Systems []string // first-seen row order

	// Skipped holds rows ignored by a Tolerant load.
	Skipped []*MalformedRowError

	scores map[SystemLength]Value
}

// NewHumanTable returns an empty table with the given length columns.
func NewHumanTable(lengths []string) *HumanTable {
	return &HumanTable{
		Lengths: append([]string(nil), lengths...),
		scores:  make(map[SystemLength]Value),
	}
}

// Set stores a value, registering the system on first use.
func (t *HumanTable) Set(system, length string, v Value) {
	if !contains(t.Systems, system) {
		t.Systems = append(t.Systems, system)
	}
	t.scores[SystemLength{System: system, Length: length}] = v
}

// Get returns the value for a cell; absent cells are missing.
func (t *HumanTable) Get(system, length string) Value {
	return t.scores[SystemLength{System: system, Length: length}]
}

// Scores returns the system ranking for one summary length.
// Systems with a missing cell are included with a missing Value.
func (t *HumanTable) Scores(length string) map[string]Value {
	out := make(map[string]Value, len(t.Systems))
	for _, sys := range t.Systems {
		out[sys] = t.Get(sys, length)
	}
	return out
}

// HasLength reports whether the table has a column for the length.
func (t *HumanTable) HasLength(length string) bool {
	return contains(t.Lengths, length)
}

// LoadHuman reads a human score table from a CSV file.
func LoadHuman(path string, mode ParseMode) (*HumanTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening human table: %w", err)
	}
	defer f.Close()

	t, err := ReadHuman(f, mode)
	if err != nil {
		return nil, withPath(err, path)
	}
	for _, s := range t.Skipped {
		s.Path = path
	}
	return t, nil
}

// ReadHuman parses a table of the form
//
//	system_name,<len1>,<len2>,...
//	<system>,<score>,<score>,...
//
// Fields may be quoted. A cell that is not a number is missing; only a row
// with the wrong number of fields is malformed.
func ReadHuman(r io.Reader, mode ParseMode) (*HumanTable, error) {
	tr := NewTableReader(r)
	var t *HumanTable
	for {
		parts, lineNum, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var mre *MalformedRowError
			if !errors.As(err, &mre) {
				return nil, fmt.Errorf("reading human table: %w", err)
			}
			if t == nil || mode == Strict {
				return nil, mre
			}
			t.Skipped = append(t.Skipped, mre)
			continue
		}

		if t == nil {
			if len(parts) < 2 {
				return nil, &MalformedRowError{Line: lineNum, Reason: "header has no length columns"}
			}
			t = NewHumanTable(parts[1:])
			continue
		}

		if err := t.addRow(parts, lineNum); err != nil {
			if mode == Strict {
				return nil, err
			}
			t.Skipped = append(t.Skipped, err)
		}
	}
	if t == nil {
		return nil, fmt.Errorf("reading human table: missing header")
	}
	return t, nil
}

func (t *HumanTable) addRow(parts []string, lineNum int) *MalformedRowError {
	if len(parts) != len(t.Lengths)+1 {
		return &MalformedRowError{Line: lineNum, Expected: len(t.Lengths) + 1, Got: len(parts)}
	}
	for i, length := range t.Lengths {
		t.Set(parts[0], length, ParseValue(parts[i+1]))
	}
	return nil
}

// WriteHuman writes the table in the format read by ReadHuman.
func WriteHuman(w io.Writer, t *HumanTable) error {
	tw := NewTableWriter(w)
	tw.Row(append([]string{HumanHeaderLabel}, t.Lengths...)...)
	for _, sys := range t.Systems {
		row := []string{sys}
		for _, length := range t.Lengths {
			row = append(row, t.Get(sys, length).String())
		}
		tw.Row(row...)
	}
	return tw.Flush()
}

// SaveHuman writes the table to a new file, creating parent directories.
func SaveHuman(path string, t *HumanTable) error {
	return saveFile(path, func(w io.Writer) error { return WriteHuman(w, t) })
}

func withPath(err error, path string) error {
	var mre *MalformedRowError
	if errors.As(err, &mre) {
		mre.Path = path
		return mre
	}
	return fmt.Errorf("%s: %w", path, err)
}
