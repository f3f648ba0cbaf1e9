package score

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// TableReader reads the comma-separated tables used for scores and
// correlations. Rows may have any number of fields, blank lines are
// skipped and fields are trimmed.
type TableReader struct {
	r *csv.Reader
}

// NewTableReader returns a TableReader over r.
func NewTableReader(r io.Reader) *TableReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	return &TableReader{r: cr}
}

// Next returns the next non-blank row and the line it starts on. It returns
// io.EOF after the last row. A row the CSV layer cannot split is returned
// as a *MalformedRowError; reading may continue after it.
func (tr *TableReader) Next() ([]string, int, error) {
	for {
		fields, err := tr.r.Read()
		if err == io.EOF {
			return nil, 0, io.EOF
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, pe.StartLine, &MalformedRowError{Line: pe.StartLine, Reason: pe.Err.Error()}
			}
			return nil, 0, err
		}
		line, _ := tr.r.FieldPos(0)
		blank := true
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
			if fields[i] != "" {
				blank = false
			}
		}
		if !blank {
			return fields, line, nil
		}
	}
}

// TableWriter writes rows with CSV quoting where a field needs it, plus the
// blank separator lines the table formats use.
type TableWriter struct {
	bw  *bufio.Writer
	cw  *csv.Writer
	err error
}

// NewTableWriter returns a TableWriter buffering into w. Call Flush when done.
func NewTableWriter(w io.Writer) *TableWriter {
	bw := bufio.NewWriter(w)
	return &TableWriter{bw: bw, cw: csv.NewWriter(bw)}
}

// Row writes one record.
func (tw *TableWriter) Row(fields ...string) {
	if tw.err == nil {
		tw.err = tw.cw.Write(fields)
	}
}

// Blank writes an empty line.
func (tw *TableWriter) Blank() {
	tw.cw.Flush()
	if tw.err == nil {
		tw.err = tw.cw.Error()
	}
	if tw.err == nil {
		_, tw.err = tw.bw.WriteString("\n")
	}
}

// Flush writes out everything buffered and returns the first error seen.
func (tw *TableWriter) Flush() error {
	tw.cw.Flush()
	if tw.err == nil {
		tw.err = tw.cw.Error()
	}
	if tw.err != nil {
		return tw.err
	}
	return tw.bw.Flush()
}
