package rouge

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/summeval/rougecorr/internal/score"
)

// AuthorScope selects whose reference summaries a reference summary is
// compared against.
type AuthorScope string

const (
	SameAuthor   AuthorScope = "same_author"
	OtherAuthors AuthorScope = "other_authors"
	AllAuthors   AuthorScope = "all_authors"
)

// AuthorScopes lists every supported scope.
var AuthorScopes = []AuthorScope{SameAuthor, OtherAuthors, AllAuthors}

// ParseAuthorScope validates a scope name.
func ParseAuthorScope(s string) (AuthorScope, error) {
	for _, a := range AuthorScopes {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown author scope %q", s)
}

// Authors returns the authors whose summaries author's summaries are scored
// against. nil means every author.
func (a AuthorScope) Authors(author string, all []string) ([]string, error) {
	switch a {
	case SameAuthor:
		return []string{author}, nil
	case AllAuthors:
		return nil, nil
	case OtherAuthors:
		var others []string
		for _, o := range all {
			if o != author {
				others = append(others, o)
			}
		}
		if len(others) == 0 {
			return nil, fmt.Errorf("%w: %s is the only author", ErrNoSummaries, author)
		}
		return others, nil
	}
	return nil, fmt.Errorf("unknown author scope %q", a)
}

// AuthorPattern matches the reference summaries of one task at refLength
// written by one of authors, or by anyone when authors is empty.
func AuthorPattern(refLength string, authors []string, ext string) string {
	if len(authors) == 0 {
		return ModelPattern(refLength, ext)
	}
	quoted := make([]string, len(authors))
	for i, a := range authors {
		quoted[i] = regexp.QuoteMeta(a)
	}
	return TaskPlaceholder + `\.M\.` + regexp.QuoteMeta(refLength) + `\.(.*)\.(` + strings.Join(quoted, "|") + `)\.` + regexp.QuoteMeta(ext) + `$`
}

// ModelInput describes a comparison of the reference summaries in Dir
// with each other.
type ModelInput struct {
	Dir        string
	Scope      AuthorScope
	StopWords  bool
	Ext        string   // DefaultExt when empty
	RougeTypes []string // score.DefaultRougeTypes when empty
}

// ModelKey addresses one score of a ModelTable: the summaries of Author at
// CheckedLength scored against references at ReferenceLength.
type ModelKey struct {
	Author          string
	RougeType       string
	CheckedLength   string
	ReferenceLength string
	Measure         score.Measure
}

// ModelTable holds reference-vs-reference ROUGE scores per author and
// length pair.
type ModelTable struct {
	Scope      AuthorScope
	Lengths    []string // shortest first
	Authors    []string
	RougeTypes []string

	scores map[ModelKey]score.Value
}

// NewModelTable returns an empty table.
func NewModelTable(scope AuthorScope, lengths, authors, rougeTypes []string) *ModelTable {
	return &ModelTable{
		Scope:      scope,
		Lengths:    append([]string(nil), lengths...),
		Authors:    append([]string(nil), authors...),
		RougeTypes: append([]string(nil), rougeTypes...),
		scores:     make(map[ModelKey]score.Value),
	}
}

// Set stores a value.
func (t *ModelTable) Set(k ModelKey, v score.Value) {
	t.scores[k] = v
}

// Get returns a value; absent entries are missing.
func (t *ModelTable) Get(k ModelKey) score.Value {
	return t.scores[k]
}

// Average returns the mean over authors of the valid scores for one
// (ROUGE type, checked length, reference length, measure). When the
// references are longer than the checked summaries the mean is multiplied
// by referenceLength/checkedLength, so that full containment reads as 1.
// It is missing when no author has a score.
func (t *ModelTable) Average(rougeType, checked, reference string, m score.Measure) score.Value {
	sum, n := 0.0, 0
	for _, a := range t.Authors {
		v := t.Get(ModelKey{Author: a, RougeType: rougeType, CheckedLength: checked, ReferenceLength: reference, Measure: m})
		if f, ok := v.Float(); ok && v.Valid() {
			sum += f
			n++
		}
	}
	if n == 0 {
		return score.Missing()
	}
	avg := sum / float64(n)
	c, cerr := strconv.Atoi(checked)
	r, rerr := strconv.Atoi(reference)
	if cerr == nil && rerr == nil && c > 0 && r > c {
		avg *= float64(r) / float64(c)
	}
	return score.Of(avg)
}

// CompareModels scores the summaries of every author in in.Dir at every
// length against the references chosen by in.Scope at every length. Outcomes
// carry the author as System. A failing combination is logged, reported and
// left missing; the error return stops the whole comparison.
func (e *Extractor) CompareModels(ctx context.Context, in ModelInput) (*ModelTable, []Outcome, error) {
	if _, err := ParseAuthorScope(string(in.Scope)); err != nil {
		return nil, nil, err
	}
	ext := in.Ext
	if ext == "" {
		ext = DefaultExt
	}
	corpus, err := Discover(in.Dir, ext)
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

	table := NewModelTable(in.Scope, corpus.Lengths, corpus.Systems, rougeTypes)
	var outcomes []Outcome
	for _, author := range corpus.Systems {
		authors, scopeErr := in.Scope.Authors(author, corpus.Systems)
		for _, checked := range corpus.Lengths {
			for _, ref := range corpus.Lengths {
				o := Outcome{System: author, Length: checked, ReferenceLength: ref}
				if scopeErr != nil {
					o.Err = scopeErr
					outcomes = append(outcomes, o)
					continue
				}
				if werr := e.limiter.Wait(ctx); werr != nil {
					return table, outcomes, werr
				}
				scores, serr := e.scorer.Score(ctx, Job{
					SystemDir:     in.Dir,
					ModelDir:      in.Dir,
					SystemPattern: SystemPattern(checked, author, ext),
					ModelPattern:  AuthorPattern(ref, authors, ext),
					Length:        longer(checked, ref),
					StopWords:     in.StopWords,
				})
				if serr != nil {
					if ctx.Err() != nil {
						return table, outcomes, ctx.Err()
					}
					o.Err = serr
					outcomes = append(outcomes, o)
					e.logger.Warn("scoring failed", "author", author, "length", checked, "reference_length", ref, "error", serr)
					continue
				}
				for _, rt := range rougeTypes {
					for _, m := range score.Measures {
						k := ModelKey{Author: author, RougeType: rt, CheckedLength: checked, ReferenceLength: ref, Measure: m}
						table.Set(k, scoreValue(scores, rt, m))
					}
				}
				outcomes = append(outcomes, o)
			}
		}
		if scopeErr != nil {
			e.logger.Warn("author not compared", "author", author, "error", scopeErr)
		}
	}
	return table, outcomes, nil
}

// longer returns the larger of two lengths, so that neither side of a
// comparison is truncated.
func longer(a, b string) string {
	x, xerr := strconv.Atoi(a)
	y, yerr := strconv.Atoi(b)
	if xerr == nil && yerr == nil && y > x {
		return b
	}
	return a
}
