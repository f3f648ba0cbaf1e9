package corrtable

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/summeval/rougecorr/internal/correlate"
	"github.com/summeval/rougecorr/internal/score"
)

// HeaderLabel is the first column label of a correlation CSV.
const HeaderLabel = "Method"

// ReadDir loads every correlations_<measure>_<correlation>.csv in dir.
// Files whose base name has fewer than three underscore-separated parts are
// ignored. Cells that do not parse as numbers are missing.
func ReadDir(dir string) (*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading correlation folder: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	t := New(nil, nil)
	for _, name := range names {
		parts := strings.Split(strings.SplitN(name, ".", 2)[0], "_")
		if len(parts) < 3 {
			continue
		}
		sheet := Sheet{Measure: score.Measure(parts[1]), Correlation: correlate.Type(parts[2])}
		if err := t.readSheet(filepath.Join(dir, name), sheet); err != nil {
			return nil, err
		}
	}
	if len(t.Values) == 0 {
		return nil, fmt.Errorf("no correlation tables found in %s", dir)
	}
	return t, nil
}

func (t *Table) readSheet(path string, sheet Sheet) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var lengths []string
	tr := score.NewTableReader(f)
	for {
		parts, lineNum, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var mre *score.MalformedRowError
			if errors.As(err, &mre) {
				mre.Path = path
				return mre
			}
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if parts[0] == HeaderLabel {
			lengths = parts[1:]
			t.addLengths(lengths)
			continue
		}
		if lengths == nil {
			return &score.MalformedRowError{Path: path, Line: lineNum, Reason: "row before header"}
		}
		if len(parts) != len(lengths)+1 {
			return &score.MalformedRowError{Path: path, Line: lineNum, Expected: len(lengths) + 1, Got: len(parts)}
		}
		rougeType := parts[0]
		t.addRougeType(rougeType)
		for i, length := range lengths {
			t.Set(Key{Measure: sheet.Measure, Correlation: sheet.Correlation, RougeType: rougeType, Length: length}, score.ParseValue(parts[i+1]))
		}
	}
}

func (t *Table) addLengths(lengths []string) {
	for _, l := range lengths {
		if !contains(t.Lengths, l) {
			t.Lengths = append(t.Lengths, l)
		}
	}
}

func (t *Table) addRougeType(rt string) {
	if !contains(t.RougeTypes, rt) {
		t.RougeTypes = append(t.RougeTypes, rt)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
