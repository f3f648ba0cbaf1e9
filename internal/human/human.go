// Package human turns DUC human assessment tables into per-system scores.
package human

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/summeval/rougecorr/internal/score"
)

// Edition selects the layout of a DUC assessment table.
type Edition int

const (
	DUC2001 Edition = 2001
	DUC2002 Edition = 2002
)

// ParseEdition accepts "2001" or "2002".
func ParseEdition(s string) (Edition, error) {
	switch strings.TrimSpace(s) {
	case "2001":
		return DUC2001, nil
	case "2002":
		return DUC2002, nil
	}
	return 0, fmt.Errorf("unsupported DUC edition %q (want 2001 or 2002)", s)
}

// multiDoc marks multi-document summary rows, the only ones with varying lengths.
const multiDoc = "M"

const (
	colTask   = 0
	colKind   = 1
	colLength = 3

	colSystem2001     = 7
	colModelUnits2001 = 14
	colFirstExpr2001  = 18

	colSystem2002   = 8
	colCoverage2002 = 27
)

// Assessment is the human score of one system summary for one task.
type Assessment struct {
	Task   string
	System string
	Length string
	Score  float64
}

// Extract reads a DUC assessment table and averages it into a human score table.
func Extract(path string, ed Edition) (*score.HumanTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening assessment table: %w", err)
	}
	defer f.Close()

	as, err := ReadAssessments(f, ed)
	if err != nil {
		var mre *score.MalformedRowError
		if errors.As(err, &mre) {
			mre.Path = path
		}
		return nil, err
	}
	return Aggregate(as), nil
}

// ReadAssessments parses the multi-document rows of a DUC table.
// Any row that cannot be parsed fails the whole read.
func ReadAssessments(r io.Reader, ed Edition) ([]Assessment, error) {
	if ed != DUC2001 && ed != DUC2002 {
		return nil, fmt.Errorf("unsupported DUC edition %d", ed)
	}

	var out []Assessment
	scanner := bufio.NewScanner(r)
	inData := ed == DUC2001 // 2002 tables open with a header block ended by a blank line
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if !inData {
			if line == "" {
				inData = true
			}
			continue
		}
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[colKind] != multiDoc {
			continue
		}

		var (
			a   Assessment
			err error
		)
		if ed == DUC2001 {
			a, err = parse2001(fields)
		} else {
			a, err = parse2002(fields)
		}
		if err != nil {
			var mre *score.MalformedRowError
			if errors.As(err, &mre) {
				mre.Line = lineNum
			}
			return nil, err
		}
		out = append(out, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading assessment table: %w", err)
	}
	return out, nil
}

func parse2001(fields []string) (Assessment, error) {
	if len(fields) <= colModelUnits2001 {
		return Assessment{}, &score.MalformedRowError{Expected: colModelUnits2001 + 1, Got: len(fields)}
	}
	units, err := strconv.Atoi(fields[colModelUnits2001])
	if err != nil || units < 1 {
		return Assessment{}, &score.MalformedRowError{Reason: fmt.Sprintf("bad model unit count %q", fields[colModelUnits2001])}
	}
	last := colFirstExpr2001 + 3*(units-1)
	if len(fields) <= last {
		return Assessment{}, &score.MalformedRowError{Expected: last + 1, Got: len(fields)}
	}

	sum := 0
	for i := colFirstExpr2001; i <= last; i += 3 {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return Assessment{}, &score.MalformedRowError{Reason: fmt.Sprintf("bad expressiveness score %q in column %d", fields[i], i)}
		}
		sum += v
	}
	return Assessment{
		Task:   fields[colTask],
		System: fields[colSystem2001],
		Length: fields[colLength],
		Score:  float64(sum) / float64(units),
	}, nil
}

func parse2002(fields []string) (Assessment, error) {
	if len(fields) <= colCoverage2002 {
		return Assessment{}, &score.MalformedRowError{Expected: colCoverage2002 + 1, Got: len(fields)}
	}
	v, err := strconv.ParseFloat(fields[colCoverage2002], 64)
	if err != nil {
		return Assessment{}, &score.MalformedRowError{Reason: fmt.Sprintf("bad mean coverage %q", fields[colCoverage2002])}
	}
	return Assessment{
		Task:   fields[colTask],
		System: fields[colSystem2002],
		Length: fields[colLength],
		Score:  v,
	}, nil
}

// Aggregate averages assessments over tasks per (system, length).
// Every system and length seen gets a cell; combinations without any
// assessment are missing. A task assessed twice keeps its last score.
func Aggregate(as []Assessment) *score.HumanTable {
	type cell struct{ system, length string }
	perTask := make(map[cell]map[string]float64)
	systems := make(map[string]bool)
	lengths := make(map[string]bool)
	for _, a := range as {
		systems[a.System] = true
		lengths[a.Length] = true
		c := cell{a.System, a.Length}
		if perTask[c] == nil {
			perTask[c] = make(map[string]float64)
		}
		perTask[c][a.Task] = a.Score
	}

	lens := keys(lengths)
	score.SortLengths(lens)
	sys := keys(systems)
	sort.Strings(sys)

	t := score.NewHumanTable(lens)
	for _, s := range sys {
		for _, l := range lens {
			tasks := perTask[cell{s, l}]
			if len(tasks) == 0 {
				t.Set(s, l, score.Missing())
				continue
			}
			names := make([]string, 0, len(tasks))
			for task := range tasks {
				names = append(names, task)
			}
			sort.Strings(names)
			sum := 0.0
			for _, task := range names {
				sum += tasks[task]
			}
			t.Set(s, l, score.Of(sum/float64(len(tasks))))
		}
	}
	return t
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
