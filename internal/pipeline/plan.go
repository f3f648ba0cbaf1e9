package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/summeval/rougecorr/internal/human"
	"github.com/summeval/rougecorr/internal/report"
	"github.com/summeval/rougecorr/internal/rouge"
	"github.com/summeval/rougecorr/internal/score"
)

// ErrNoScorer is reported for ROUGE extractions when no scorer is available.
var ErrNoScorer = errors.New("no ROUGE scorer configured")

// HumanJob turns a DUC assessment table into a human score CSV.
type HumanJob struct {
	Edition human.Edition
	Table   string
	Output  string
}

// RougeJob scores a summary corpus into a ROUGE score CSV.
type RougeJob struct {
	Name   string
	Input  rouge.Input
	Output string
}

// ModelJob compares the reference summaries of a corpus with each other
// into a folder of model comparison tables.
type ModelJob struct {
	Name   string
	Input  rouge.ModelInput
	Output string
}

// Plan is a whole batch, executed stage by stage: human tables, ROUGE
// tables, model comparisons, correlation runs, then deltas.
type Plan struct {
	Human       []HumanJob
	Extractions []RougeJob
	Models      []ModelJob
	Runs        []RunConfig
	Deltas      []DeltaConfig
}

// StageResult reports one job of a non-correlation stage.
type StageResult struct {
	Stage  string `json:"stage"`
	Name   string `json:"name"`
	Output string `json:"output,omitempty"`
	Failed int    `json:"failed,omitempty"` // (system, length) combinations not scored
	Err    error  `json:"-"`
	Error  string `json:"error,omitempty"`
}

// Summary is the outcome of a Plan.
type Summary struct {
	Stages []StageResult `json:"stages"`
	Runs   []RunResult   `json:"runs"`
}

// Failures counts failed jobs and runs.
func (s *Summary) Failures() int {
	n := 0
	for _, st := range s.Stages {
		if st.Err != nil {
			n++
		}
	}
	for _, r := range s.Runs {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// ExtractHuman writes the human score table of one DUC assessment table to a
// fresh file and returns its path.
func (r *Runner) ExtractHuman(ctx context.Context, job HumanJob) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t, err := human.Extract(job.Table, job.Edition)
	if err != nil {
		return "", err
	}
	out, err := report.UniqueFile(job.Output)
	if err != nil {
		return "", err
	}
	if err := score.SaveHuman(out, t); err != nil {
		return "", err
	}
	r.logger().Info("human scores written", "output", out, "systems", len(t.Systems), "lengths", len(t.Lengths))
	return out, nil
}

// ExtractRouge scores one corpus and writes its ROUGE table to a fresh file.
// Combinations the scorer failed on are missing in the table and returned
// in the outcomes.
func (r *Runner) ExtractRouge(ctx context.Context, ex *rouge.Extractor, job RougeJob) (string, []rouge.Outcome, error) {
	t, outcomes, err := ex.Extract(ctx, job.Input)
	if err != nil {
		return "", outcomes, err
	}
	out, err := report.UniqueFile(job.Output)
	if err != nil {
		return "", outcomes, err
	}
	if err := score.SaveRouge(out, t); err != nil {
		return "", outcomes, err
	}
	r.logger().Info("ROUGE scores written", "output", out, "systems", len(t.Systems), "failed", countFailed(outcomes))
	return out, outcomes, nil
}

// CompareModels scores the reference summaries of one corpus against each
// other and writes the tables to a fresh folder.
func (r *Runner) CompareModels(ctx context.Context, ex *rouge.Extractor, job ModelJob) (string, []rouge.Outcome, error) {
	t, outcomes, err := ex.CompareModels(ctx, job.Input)
	if err != nil {
		return "", outcomes, err
	}
	out, err := report.WriteModelComparison(job.Output, t)
	if err != nil {
		return "", outcomes, err
	}
	r.logger().Info("model comparison written", "output", out, "authors", len(t.Authors), "scope", t.Scope, "failed", countFailed(outcomes))
	return out, outcomes, nil
}

func countFailed(outcomes []rouge.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}

// Execute runs every stage of p. A failing job is logged and recorded; the
// batch carries on. ex may be nil when p has no extractions.
//
// Outputs never overwrite, so a stage may write to a suffixed path such as
// human_1.csv or corr_1. Later stages that name a configured output path read
// what this batch actually wrote there. If the job producing it failed, they
// fail with ErrInputNotProduced instead of reading an older file.
func (r *Runner) Execute(ctx context.Context, p Plan, ex *rouge.Extractor) *Summary {
	s := &Summary{}
	record := func(st StageResult) {
		if st.Err != nil {
			st.Error = st.Err.Error()
			r.logger().Warn("job failed", "stage", st.Stage, "name", st.Name, "error", st.Err)
		}
		s.Stages = append(s.Stages, st)
	}
	outputs := make(outputMap)

	for _, job := range p.Human {
		out, err := r.ExtractHuman(ctx, job)
		outputs.produced(job.Output, out)
		record(StageResult{Stage: "human", Name: job.Table, Output: out, Err: err})
	}
	for _, job := range p.Extractions {
		st := StageResult{Stage: "rouge", Name: job.Name}
		if ex == nil {
			st.Err = ErrNoScorer
		} else {
			var outcomes []rouge.Outcome
			st.Output, outcomes, st.Err = r.ExtractRouge(ctx, ex, job)
			st.Failed = countFailed(outcomes)
		}
		outputs.produced(job.Output, st.Output)
		record(st)
	}
	for _, job := range p.Models {
		st := StageResult{Stage: "models", Name: job.Name}
		if ex == nil {
			st.Err = ErrNoScorer
		} else {
			var outcomes []rouge.Outcome
			st.Output, outcomes, st.Err = r.CompareModels(ctx, ex, job)
			st.Failed = countFailed(outcomes)
		}
		record(st)
	}
	for _, rc := range p.Runs {
		configured := rc.OutputDir
		var res RunResult
		h, herr := outputs.latest(rc.HumanPath)
		rt, rerr := outputs.latest(rc.RougePath)
		if err := errors.Join(herr, rerr); err != nil {
			res = RunResult{Name: rc.Name, Err: err, Error: err.Error()}
		} else {
			rc.HumanPath, rc.RougePath = h, rt
			res = r.RunOne(ctx, rc)
		}
		if res.Err != nil {
			r.logger().Warn("run failed", "run", rc.Name, "error", res.Err)
		}
		outputs.produced(configured, res.OutputDir)
		s.Runs = append(s.Runs, res)
	}
	for _, dc := range p.Deltas {
		out, err := r.runPlannedDeltas(ctx, dc, outputs)
		record(StageResult{Stage: "delta", Name: dc.OutputDir, Output: out, Err: err})
	}
	return s
}

func (r *Runner) runPlannedDeltas(ctx context.Context, dc DeltaConfig, outputs outputMap) (string, error) {
	baseline, err := outputs.latest(dc.Baseline)
	if err != nil {
		return "", err
	}
	dc.Baseline = baseline
	comparisons := make([]Comparison, len(dc.Comparisons))
	for i, c := range dc.Comparisons {
		dir, err := outputs.latest(c.Dir)
		if err != nil {
			return "", fmt.Errorf("comparison %s: %w", c.Name, err)
		}
		comparisons[i] = Comparison{Name: c.Name, Dir: dir}
	}
	dc.Comparisons = comparisons
	return r.RunDeltas(ctx, dc)
}

// ErrInputNotProduced is returned when a stage reads an output whose job
// failed earlier in the same batch.
var ErrInputNotProduced = errors.New("input was not produced: its job failed earlier in this batch")

// outputMap maps a configured output path to the path a job of the current
// batch wrote. An empty value marks a failed job.
type outputMap map[string]string

func (m outputMap) produced(configured, actual string) {
	m[filepath.Clean(configured)] = actual
}

func (m outputMap) latest(path string) (string, error) {
	actual, ok := m[filepath.Clean(path)]
	switch {
	case !ok:
		return path, nil
	case actual == "":
		return "", fmt.Errorf("%s: %w", path, ErrInputNotProduced)
	}
	return actual, nil
}
