package rouge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/summeval/rougecorr/internal/score"
)

// TypeKeys maps report ROUGE types to the key prefixes produced by the scorer.
var TypeKeys = map[string]string{
	"R1":  "rouge_1",
	"R2":  "rouge_2",
	"R3":  "rouge_3",
	"R4":  "rouge_4",
	"RSU": "rouge_su4",
	"RL":  "rouge_l",
	"RW":  "rouge_w_1.2",
	"RS":  "rouge_s4",
}

var measureKeys = map[score.Measure]string{
	score.Recall:    "_recall",
	score.Precision: "_precision",
	score.F1:        "_f_score",
}

// DefaultExt is the file extension of SEE-formatted summaries.
const DefaultExt = "html"

// DefaultInterval is the minimum gap between two scorer launches.
const DefaultInterval = 10 * time.Millisecond

// Input describes one extraction: system summaries scored against
// reference summaries under one comparison strategy.
type Input struct {
	SystemDir  string
	ModelDir   string
	Comparison Comparison
	StopWords  bool
	Ext        string   // DefaultExt when empty
	RougeTypes []string // score.DefaultRougeTypes when empty
}

// Outcome reports how one (system, length) combination went.
// A nil Err means its scores are in the table.
type Outcome struct {
	System          string
	Length          string
	ReferenceLength string
	Err             error
}

// OK reports whether the combination was scored.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Extractor runs a Scorer over every (system, length) of a corpus.
type Extractor struct {
	scorer  Scorer
	limiter *rate.Limiter
	logger  *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithInterval sets the minimum gap between scorer launches.
func WithInterval(d time.Duration) ExtractorOption {
	return func(e *Extractor) {
		e.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithLogger sets the logger for per-combination failures.
func WithLogger(l *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = l
	}
}

// NewExtractor returns an Extractor using scorer.
func NewExtractor(scorer Scorer, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		scorer:  scorer,
		limiter: rate.NewLimiter(rate.Every(DefaultInterval), 1),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract scores every system of in.SystemDir at every length. A failing
// combination is logged, reported in its Outcome and left missing in the
// table. The error return is for problems that stop the whole extraction:
// an unreadable corpus or a cancelled context.
func (e *Extractor) Extract(ctx context.Context, in Input) (*score.RougeTable, []Outcome, error) {
	if _, err := ParseComparison(string(in.Comparison)); err != nil {
		return nil, nil, err
	}
	ext := in.Ext
	if ext == "" {
		ext = DefaultExt
	}
	corpus, err := Discover(in.SystemDir, ext)
	if err != nil {
		return nil, nil, err
	}
	rougeTypes := in.RougeTypes
	if len(rougeTypes) == 0 {
		rougeTypes = score.DefaultRougeTypes
	}
	for _, rt := range rougeTypes {
		if _, ok := TypeKeys[rt]; !ok {
			return nil, nil, fmt.Errorf("unknown ROUGE type %q", rt)
		}
	}

	table := score.NewRougeTable(corpus.Lengths)
	table.RougeTypes = append([]string(nil), rougeTypes...)
	var outcomes []Outcome
	for _, sys := range corpus.Systems {
		table.AddSystem(sys)
		for _, length := range corpus.Lengths {
			o := Outcome{System: sys, Length: length}
			ref, err := in.Comparison.ReferenceLength(length, corpus.Lengths)
			if err != nil {
				o.Err = err
				outcomes = append(outcomes, o)
				e.logger.Debug("combination not computed", "system", sys, "length", length, "error", err)
				continue
			}
			o.ReferenceLength = ref

			if err := e.limiter.Wait(ctx); err != nil {
				return table, outcomes, err
			}
			scores, err := e.scorer.Score(ctx, Job{
				SystemDir:     in.SystemDir,
				ModelDir:      in.ModelDir,
				SystemPattern: SystemPattern(length, sys, ext),
				ModelPattern:  ModelPattern(ref, ext),
				Length:        length,
				StopWords:     in.StopWords,
			})
			if err != nil {
				if ctx.Err() != nil {
					return table, outcomes, ctx.Err()
				}
				o.Err = err
				outcomes = append(outcomes, o)
				e.logger.Warn("scoring failed", "system", sys, "length", length, "error", err)
				continue
			}
			store(table, sys, length, rougeTypes, scores)
			outcomes = append(outcomes, o)
		}
	}
	return table, outcomes, nil
}

func store(t *score.RougeTable, system, length string, rougeTypes []string, scores map[string]float64) {
	for _, rt := range rougeTypes {
		for _, m := range score.Measures {
			t.Set(score.RougeKey{System: system, RougeType: rt, Length: length, Measure: m}, scoreValue(scores, rt, m))
		}
	}
}

// scoreValue picks one score out of scorer output; absent keys are missing.
func scoreValue(scores map[string]float64, rougeType string, m score.Measure) score.Value {
	if f, ok := scores[TypeKeys[rougeType]+measureKeys[m]]; ok {
		return score.Of(f)
	}
	return score.Missing()
}
