// Package report writes correlation, delta and model comparison tables as
// CSV folders.
package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/summeval/rougecorr/internal/corrtable"
	"github.com/summeval/rougecorr/internal/delta"
	"github.com/summeval/rougecorr/internal/rouge"
	"github.com/summeval/rougecorr/internal/score"
)

const (
	cellDecimals    = 2
	averageDecimals = 3
)

// UniquePath returns path if nothing exists there, otherwise the first of
// path_1, path_2, ... that does not exist.
func UniquePath(path string) (string, error) {
	candidate := path
	for i := 1; ; i++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", candidate, err)
		}
		candidate = path + "_" + strconv.Itoa(i)
	}
}

// UniqueFile is UniquePath for files: the counter goes before the
// extension, so out.csv becomes out_1.csv.
func UniqueFile(path string) (string, error) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	candidate := path
	for i := 1; ; i++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", candidate, err)
		}
		candidate = stem + "_" + strconv.Itoa(i) + ext
	}
}

// WriteCorrelations writes one correlations_<measure>_<correlation>.csv per
// measure and correlation type into a fresh folder at dir (or a
// disambiguated sibling) and returns the folder used.
func WriteCorrelations(dir string, t *corrtable.Table) (string, error) {
	out, err := createDir(dir)
	if err != nil {
		return "", err
	}
	for _, sh := range corrtable.AllSheets() {
		err := writeFile(filepath.Join(out, sh.FileName()), func(w *score.TableWriter) {
			writeRow(w, corrtable.HeaderLabel, t.Lengths, "")
			for _, rt := range t.RougeTypes {
				cells := make([]string, len(t.Lengths))
				for i, length := range t.Lengths {
					k := corrtable.Key{Measure: sh.Measure, Correlation: sh.Correlation, RougeType: rt, Length: length}
					cells[i] = t.Get(k).Format(cellDecimals)
				}
				writeRow(w, rt, cells, "")
			}
		})
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// WriteDeltas writes deltas_<measure>_<correlation>.csv and
// final_deltas_<measure>_<correlation>.csv per sheet of r into a fresh
// folder and returns the folder used.
func WriteDeltas(dir string, r *delta.Report) (string, error) {
	out, err := createDir(dir)
	if err != nil {
		return "", err
	}
	for _, sh := range r.Sheets {
		suffix := string(sh.Measure) + "_" + string(sh.Correlation) + ".csv"
		err := writeFile(filepath.Join(out, "deltas_"+suffix), func(w *score.TableWriter) {
			writeRow(w, "comparison", r.Lengths, "avgPerRouge")
			w.Blank()
			for _, b := range sh.Blocks {
				for _, row := range b.Rows {
					cells := make([]string, len(row.Cells))
					for i, c := range row.Cells {
						cells[i] = deltaCell(c.Float())
					}
					writeRow(w, b.Comparison+"_"+row.RougeType, cells, formatFloat(row.Average, averageDecimals))
				}
				writeRow(w, "avgPerLen", formatAll(b.PerLength), formatFloat(b.Final, averageDecimals))
				w.Blank()
			}
		})
		if err != nil {
			return out, err
		}
		err = writeFile(filepath.Join(out, "final_deltas_"+suffix), func(w *score.TableWriter) {
			writeRow(w, "comparison", r.Lengths, "final")
			w.Blank()
			for _, b := range sh.Blocks {
				writeRow(w, b.Comparison, formatAll(b.PerLength), formatFloat(b.Final, averageDecimals))
			}
		})
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// Model comparison table labels.
const (
	ModelTableRows    = "Rows:CheckedSize"
	ModelTableColumns = "Columns:referencesSize"
	ModelTableScaling = "averages scaled by referencesSize/CheckedSize where referencesSize is larger"
	ModelTotalPrefix  = "TOTAL"
)

// WriteModelComparison writes <author>_<measure>.csv per author and
// TOTAL_<measure>.csv with the averages over authors into a fresh folder
// and returns the folder used. Each file holds one block per ROUGE type:
// rows are the checked summary lengths, columns the reference lengths.
func WriteModelComparison(dir string, t *rouge.ModelTable) (string, error) {
	out, err := createDir(dir)
	if err != nil {
		return "", err
	}
	for _, m := range score.Measures {
		for _, author := range t.Authors {
			err := writeFile(filepath.Join(out, author+"_"+string(m)+".csv"), func(w *score.TableWriter) {
				w.Row(ModelTableRows, ModelTableColumns)
				w.Blank()
				writeModelBlocks(w, t, func(rt, checked, ref string) score.Value {
					return t.Get(rouge.ModelKey{Author: author, RougeType: rt, CheckedLength: checked, ReferenceLength: ref, Measure: m})
				})
			})
			if err != nil {
				return out, err
			}
		}
		err := writeFile(filepath.Join(out, ModelTotalPrefix+"_"+string(m)+".csv"), func(w *score.TableWriter) {
			w.Row(ModelTableRows, ModelTableColumns, ModelTableScaling)
			w.Blank()
			writeModelBlocks(w, t, func(rt, checked, ref string) score.Value {
				return t.Average(rt, checked, ref, m)
			})
		})
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func writeModelBlocks(w *score.TableWriter, t *rouge.ModelTable, value func(rt, checked, ref string) score.Value) {
	for _, rt := range t.RougeTypes {
		writeRow(w, rt, t.Lengths, "")
		for _, checked := range t.Lengths {
			cells := make([]string, len(t.Lengths))
			for i, ref := range t.Lengths {
				cells[i] = value(rt, checked, ref).String()
			}
			writeRow(w, checked, cells, "")
		}
		w.Blank()
	}
}

func deltaCell(d float64, ok bool) string {
	if !ok {
		return strconv.FormatFloat(delta.InvalidDelta, 'f', 0, 64)
	}
	return formatFloat(d, cellDecimals)
}

func formatAll(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = formatFloat(v, averageDecimals)
	}
	return out
}

func formatFloat(f float64, decimals int) string {
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

// writeRow writes label, cells and an optional trailing column.
func writeRow(w *score.TableWriter, label string, cells []string, last string) {
	parts := append([]string{label}, cells...)
	if last != "" {
		parts = append(parts, last)
	}
	w.Row(parts...)
}

func createDir(dir string) (string, error) {
	out, err := UniquePath(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		return "", fmt.Errorf("creating output folder: %w", err)
	}
	return out, nil
}

func writeFile(path string, fill func(w *score.TableWriter)) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	w := score.NewTableWriter(f)
	fill(w)
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
