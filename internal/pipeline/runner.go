package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/summeval/rougecorr/internal/correlate"
	"github.com/summeval/rougecorr/internal/corrtable"
	"github.com/summeval/rougecorr/internal/delta"
	"github.com/summeval/rougecorr/internal/ledger"
	"github.com/summeval/rougecorr/internal/report"
	"github.com/summeval/rougecorr/internal/score"
)

// RunConfig is one correlation run: a human table and a ROUGE table
// correlated into a fresh output folder.
type RunConfig struct {
	Name      string
	HumanPath string
	RougePath string
	OutputDir string
	Mode      Mode
	// StopWords records whether the ROUGE table was scored without stop words.
	StopWords bool
}

// RunResult is what happened to one RunConfig.
type RunResult struct {
	Name      string `json:"name"`
	RunID     string `json:"run_id,omitempty"`
	OutputDir string `json:"output_dir,omitempty"`
	Cells     int    `json:"cells"`
	Undefined int    `json:"undefined"`
	Skipped   int    `json:"skipped_rows"`
	Err       error  `json:"-"`
	Error     string `json:"error,omitempty"`
}

// Comparison names a folder of correlation tables compared to a baseline.
type Comparison struct {
	Name string
	Dir  string
}

// DeltaConfig is one comparison of correlation folders against a baseline folder.
type DeltaConfig struct {
	Baseline    string
	Comparisons []Comparison
	OutputDir   string
	RougeTypes  []string // delta.DefaultRougeTypes when empty
}

// Runner executes runs. The zero value is usable: it correlates the default
// ROUGE types, logs to the default logger and records nothing.
type Runner struct {
	RougeTypes []string
	Ledger     *ledger.Ledger
	Logger     *slog.Logger
	Now        func() time.Time
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run executes runs in order. A failing run is logged and reported in its
// result; the remaining runs still execute.
func (r *Runner) Run(ctx context.Context, runs []RunConfig) []RunResult {
	results := make([]RunResult, 0, len(runs))
	for _, rc := range runs {
		res := r.RunOne(ctx, rc)
		if res.Err != nil {
			r.logger().Warn("run failed", "run", rc.Name, "error", res.Err)
		}
		results = append(results, res)
	}
	return results
}

// RunOne executes a single correlation run.
func (r *Runner) RunOne(ctx context.Context, rc RunConfig) RunResult {
	res := RunResult{Name: rc.Name}
	fail := func(err error) RunResult {
		res.Err = err
		res.Error = err.Error()
		return res
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	mode, err := ParseMode(string(rc.Mode))
	if err != nil {
		return fail(err)
	}

	log := r.logger().With("run", rc.Name)
	human, err := score.LoadHuman(rc.HumanPath, score.Strict)
	if err != nil {
		return fail(fmt.Errorf("loading human scores: %w", err))
	}
	rouge, err := score.LoadRouge(rc.RougePath, score.Tolerant)
	if err != nil {
		return fail(fmt.Errorf("loading ROUGE scores: %w", err))
	}
	for _, skipped := range rouge.Skipped {
		log.Warn("skipped malformed ROUGE row", "error", skipped)
	}
	res.Skipped = len(rouge.Skipped)

	table, cells := Correlate(human, rouge, mode, r.RougeTypes)
	for _, c := range Failed(cells) {
		log.Debug("no comparable data", "measure", c.Measure, "rouge_type", c.RougeType, "length", c.Length, "error", c.Err)
	}
	res.Cells = len(cells)
	res.Undefined = len(Failed(cells))

	out, err := report.WriteCorrelations(rc.OutputDir, table)
	if err != nil {
		return fail(fmt.Errorf("writing correlations: %w", err))
	}
	res.OutputDir = out
	log.Info("correlations written", "output", out, "cells", res.Cells, "undefined", res.Undefined)

	if r.Ledger != nil {
		res.RunID = ledger.NewRunID()
		if err := r.Ledger.Append(r.records(res.RunID, rc, mode, out, cells)); err != nil {
			return fail(fmt.Errorf("recording results: %w", err))
		}
	}
	return res
}

func (r *Runner) records(runID string, rc RunConfig, mode Mode, out string, cells []Cell) []ledger.Record {
	now := r.now()
	records := make([]ledger.Record, 0, len(cells)*len(correlate.Types))
	for _, c := range cells {
		for _, ct := range correlate.Types {
			rec := ledger.Record{
				RunID:       runID,
				Run:         rc.Name,
				Mode:        string(mode),
				StopWords:   rc.StopWords,
				HumanPath:   rc.HumanPath,
				RougePath:   rc.RougePath,
				OutputDir:   out,
				Measure:     string(c.Measure),
				Correlation: string(ct),
				RougeType:   c.RougeType,
				Length:      c.Length,
				CreatedAt:   now,
			}
			if c.Err == nil {
				v := c.Result.Get(ct)
				rec.Value = &v
				rec.N = c.Result.N
			}
			records = append(records, rec)
		}
	}
	return records
}

// RunDeltas compares the configured correlation folders against the
// baseline and writes the delta tables. It returns the folder written.
func (r *Runner) RunDeltas(ctx context.Context, dc DeltaConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(dc.Comparisons) == 0 {
		return "", delta.ErrNoComparisons
	}
	baseline, err := corrtable.ReadDir(dc.Baseline)
	if err != nil {
		return "", fmt.Errorf("baseline: %w", err)
	}
	comparisons := make([]delta.Comparison, 0, len(dc.Comparisons))
	for _, c := range dc.Comparisons {
		t, err := corrtable.ReadDir(c.Dir)
		if err != nil {
			return "", fmt.Errorf("comparison %s: %w", c.Name, err)
		}
		comparisons = append(comparisons, delta.Comparison{Name: c.Name, Table: t})
	}

	rep, err := delta.Compute(baseline, comparisons, dc.RougeTypes)
	if err != nil {
		return "", err
	}
	out, err := report.WriteDeltas(dc.OutputDir, rep)
	if err != nil {
		return "", fmt.Errorf("writing deltas: %w", err)
	}
	r.logger().Info("deltas written", "output", out, "comparisons", len(comparisons))
	return out, nil
}

// Errors joins the errors of failed runs, or returns nil.
func Errors(results []RunResult) error {
	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Name, res.Err))
		}
	}
	return errors.Join(errs...)
}
