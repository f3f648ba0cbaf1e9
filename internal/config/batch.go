// Package config handles batch files and global configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/summeval/rougecorr/internal/delta"
	"github.com/summeval/rougecorr/internal/human"
	"github.com/summeval/rougecorr/internal/logging"
	"github.com/summeval/rougecorr/internal/pipeline"
	"github.com/summeval/rougecorr/internal/rouge"
	"github.com/summeval/rougecorr/internal/score"
)

// DefaultBatchFile is read by `rougecorr run` when no file is given.
const DefaultBatchFile = "rougecorr.yml"

// Batch is a whole rougecorr job: DUC extractions, ROUGE extractions,
// model comparisons, correlation runs and delta comparisons, executed in
// that order.
type Batch struct {
	Log              LogConfig         `yaml:"log"`
	Ledger           string            `yaml:"ledger"`
	RougeTypes       []string          `yaml:"rouge_types"`
	Human            []HumanEntry      `yaml:"human"`
	Extractions      []ExtractionEntry `yaml:"extractions"`
	ModelComparisons []ModelEntry      `yaml:"model_comparisons"`
	Runs             []RunEntry        `yaml:"runs"`
	Deltas           []DeltaEntry      `yaml:"deltas"`
}

// LogConfig selects the log level (debug, info, warn, error) and format (text, json).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HumanEntry extracts human scores from a DUC assessment table.
type HumanEntry struct {
	Edition string `yaml:"edition"`
	Table   string `yaml:"table"`
	Output  string `yaml:"output"`
}

// ExtractionEntry scores a summary corpus with ROUGE.
type ExtractionEntry struct {
	Name       string `yaml:"name"`
	Systems    string `yaml:"systems"`
	Models     string `yaml:"models"`
	Comparison string `yaml:"comparison"`
	StopWords  bool   `yaml:"stop_words"`
	Ext        string `yaml:"ext"`
	Output     string `yaml:"output"`
}

// ModelEntry compares the reference summaries of a folder with each other.
type ModelEntry struct {
	Name      string `yaml:"name"`
	Models    string `yaml:"models"`
	Scope     string `yaml:"scope"`
	StopWords bool   `yaml:"stop_words"`
	Ext       string `yaml:"ext"`
	Output    string `yaml:"output"`
}

// RunEntry correlates one human table with one ROUGE table.
type RunEntry struct {
	Name      string `yaml:"name"`
	Human     string `yaml:"human"`
	Rouge     string `yaml:"rouge"`
	Output    string `yaml:"output"`
	Mode      string `yaml:"mode"`
	StopWords bool   `yaml:"stop_words"`
}

// DeltaEntry compares correlation folders against a baseline folder.
type DeltaEntry struct {
	Baseline    string            `yaml:"baseline"`
	Comparisons []ComparisonEntry `yaml:"comparisons"`
	Output      string            `yaml:"output"`
	RougeTypes  []string          `yaml:"rouge_types"`
}

// ComparisonEntry names one compared correlation folder.
type ComparisonEntry struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"`
}

// ErrEmptyBatch is returned for a batch with nothing to do.
var ErrEmptyBatch = errors.New("batch defines no human, extractions, model_comparisons, runs or deltas")

// LoadBatch reads, validates and completes a batch file. Relative paths
// are resolved against the directory holding the file.
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	b, err := ParseBatch(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	b.resolve(filepath.Dir(path))
	return b, nil
}

// ParseBatch decodes and validates a batch. Unknown keys are rejected.
func ParseBatch(data []byte) (*Batch, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var b Batch
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("parsing batch: %w", err)
	}
	b.setDefaults()
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *Batch) setDefaults() {
	if b.Log.Level == "" {
		b.Log.Level = "info"
	}
	if b.Log.Format == "" {
		b.Log.Format = "text"
	}
	if len(b.RougeTypes) == 0 {
		b.RougeTypes = append([]string(nil), score.DefaultRougeTypes...)
	}
	for i := range b.Extractions {
		e := &b.Extractions[i]
		if e.Ext == "" {
			e.Ext = rouge.DefaultExt
		}
		if e.Models == "" {
			e.Models = e.Systems
		}
		if e.Name == "" {
			e.Name = e.Comparison
		}
	}
	for i := range b.ModelComparisons {
		m := &b.ModelComparisons[i]
		if m.Ext == "" {
			m.Ext = rouge.DefaultExt
		}
		if m.Name == "" {
			m.Name = m.Scope
		}
	}
	for i := range b.Runs {
		if b.Runs[i].Mode == "" {
			b.Runs[i].Mode = string(pipeline.Absolute)
		}
	}
	for i := range b.Deltas {
		if len(b.Deltas[i].RougeTypes) == 0 {
			b.Deltas[i].RougeTypes = append([]string(nil), delta.DefaultRougeTypes...)
		}
	}
}

// Validate checks every entry. Entries are numbered from 1 in messages.
func (b *Batch) Validate() error {
	if len(b.Human)+len(b.Extractions)+len(b.ModelComparisons)+len(b.Runs)+len(b.Deltas) == 0 {
		return ErrEmptyBatch
	}
	if _, err := logging.ParseLevel(b.Log.Level); err != nil {
		return err
	}
	if b.Log.Format != "text" && b.Log.Format != "json" {
		return fmt.Errorf("log format %q (want text or json)", b.Log.Format)
	}
	if err := validateRougeTypes(b.RougeTypes); err != nil {
		return err
	}

	for i, h := range b.Human {
		if _, err := human.ParseEdition(h.Edition); err != nil {
			return fmt.Errorf("human entry %d: %w", i+1, err)
		}
		if err := required("human", i, map[string]string{"table": h.Table, "output": h.Output}); err != nil {
			return err
		}
	}
	for i, e := range b.Extractions {
		if _, err := rouge.ParseComparison(e.Comparison); err != nil {
			return fmt.Errorf("extractions entry %d: %w", i+1, err)
		}
		if err := required("extractions", i, map[string]string{"systems": e.Systems, "output": e.Output}); err != nil {
			return err
		}
	}
	for i, m := range b.ModelComparisons {
		if _, err := rouge.ParseAuthorScope(m.Scope); err != nil {
			return fmt.Errorf("model_comparisons entry %d: %w", i+1, err)
		}
		if err := required("model_comparisons", i, map[string]string{"models": m.Models, "output": m.Output}); err != nil {
			return err
		}
	}
	names := make(map[string]bool)
	for i, r := range b.Runs {
		if err := required("runs", i, map[string]string{"name": r.Name, "human": r.Human, "rouge": r.Rouge, "output": r.Output}); err != nil {
			return err
		}
		if names[r.Name] {
			return fmt.Errorf("runs entry %d: duplicate name %q", i+1, r.Name)
		}
		names[r.Name] = true
		if _, err := pipeline.ParseMode(r.Mode); err != nil {
			return fmt.Errorf("runs entry %d: %w", i+1, err)
		}
	}
	for i, d := range b.Deltas {
		if err := required("deltas", i, map[string]string{"baseline": d.Baseline, "output": d.Output}); err != nil {
			return err
		}
		if len(d.Comparisons) == 0 {
			return fmt.Errorf("deltas entry %d must list at least one comparison", i+1)
		}
		for j, c := range d.Comparisons {
			if c.Name == "" || c.Dir == "" {
				return fmt.Errorf("deltas entry %d: comparison %d needs 'name' and 'dir'", i+1, j+1)
			}
		}
		if err := validateRougeTypes(d.RougeTypes); err != nil {
			return fmt.Errorf("deltas entry %d: %w", i+1, err)
		}
	}
	return nil
}

// required reports the first empty field, in sorted key order.
func required(section string, i int, fields map[string]string) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if fields[k] == "" {
			return fmt.Errorf("%s entry %d: missing '%s'", section, i+1, k)
		}
	}
	return nil
}

func validateRougeTypes(types []string) error {
	for _, rt := range types {
		if _, ok := rouge.TypeKeys[rt]; !ok {
			return fmt.Errorf("unknown ROUGE type %q", rt)
		}
	}
	return nil
}

func (b *Batch) resolve(base string) {
	abs := func(p *string) {
		if *p == "" {
			return
		}
		*p = ExpandPath(*p)
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	abs(&b.Ledger)
	for i := range b.Human {
		abs(&b.Human[i].Table)
		abs(&b.Human[i].Output)
	}
	for i := range b.Extractions {
		abs(&b.Extractions[i].Systems)
		abs(&b.Extractions[i].Models)
		abs(&b.Extractions[i].Output)
	}
	for i := range b.ModelComparisons {
		abs(&b.ModelComparisons[i].Models)
		abs(&b.ModelComparisons[i].Output)
	}
	for i := range b.Runs {
		abs(&b.Runs[i].Human)
		abs(&b.Runs[i].Rouge)
		abs(&b.Runs[i].Output)
	}
	for i := range b.Deltas {
		abs(&b.Deltas[i].Baseline)
		abs(&b.Deltas[i].Output)
		for j := range b.Deltas[i].Comparisons {
			abs(&b.Deltas[i].Comparisons[j].Dir)
		}
	}
}

// Plan converts a validated batch into a pipeline plan.
func (b *Batch) Plan() (pipeline.Plan, error) {
	var p pipeline.Plan
	for i, h := range b.Human {
		ed, err := human.ParseEdition(h.Edition)
		if err != nil {
			return p, fmt.Errorf("human entry %d: %w", i+1, err)
		}
		p.Human = append(p.Human, pipeline.HumanJob{Edition: ed, Table: h.Table, Output: h.Output})
	}
	for i, e := range b.Extractions {
		cmp, err := rouge.ParseComparison(e.Comparison)
		if err != nil {
			return p, fmt.Errorf("extractions entry %d: %w", i+1, err)
		}
		p.Extractions = append(p.Extractions, pipeline.RougeJob{
			Name: e.Name,
			Input: rouge.Input{
				SystemDir:  e.Systems,
				ModelDir:   e.Models,
				Comparison: cmp,
				StopWords:  e.StopWords,
				Ext:        e.Ext,
				RougeTypes: b.RougeTypes,
			},
			Output: e.Output,
		})
	}
	for i, m := range b.ModelComparisons {
		scope, err := rouge.ParseAuthorScope(m.Scope)
		if err != nil {
			return p, fmt.Errorf("model_comparisons entry %d: %w", i+1, err)
		}
		p.Models = append(p.Models, pipeline.ModelJob{
			Name: m.Name,
			Input: rouge.ModelInput{
				Dir:        m.Models,
				Scope:      scope,
				StopWords:  m.StopWords,
				Ext:        m.Ext,
				RougeTypes: b.RougeTypes,
			},
			Output: m.Output,
		})
	}
	for i, r := range b.Runs {
		mode, err := pipeline.ParseMode(r.Mode)
		if err != nil {
			return p, fmt.Errorf("runs entry %d: %w", i+1, err)
		}
		p.Runs = append(p.Runs, pipeline.RunConfig{
			Name:      r.Name,
			HumanPath: r.Human,
			RougePath: r.Rouge,
			OutputDir: r.Output,
			Mode:      mode,
			StopWords: r.StopWords,
		})
	}
	for _, d := range b.Deltas {
		dc := pipeline.DeltaConfig{Baseline: d.Baseline, OutputDir: d.Output, RougeTypes: d.RougeTypes}
		for _, c := range d.Comparisons {
			dc.Comparisons = append(dc.Comparisons, pipeline.Comparison{Name: c.Name, Dir: c.Dir})
		}
		p.Deltas = append(p.Deltas, dc)
	}
	return p, nil
}
