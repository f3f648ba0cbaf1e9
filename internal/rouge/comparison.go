// Package rouge drives the external ROUGE-1.5.5 scorer over a corpus of
// system and reference summaries and collects the scores into a ROUGE table.
package rouge

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Comparison selects which reference summaries a system summary is scored against.
type Comparison string

const (
	SameLength       Comparison = "same_length"
	VaryingLength    Comparison = "varying_length"
	ToSmallest       Comparison = "to_smallest"
	ToSecondSmallest Comparison = "to_second_smallest"
	ToSecondLargest  Comparison = "to_second_largest"
	ToLargest        Comparison = "to_largest"
	ToOneSmaller     Comparison = "to_one_smaller"
	ToOneLarger      Comparison = "to_one_larger"
)

// Comparisons lists every supported strategy.
var Comparisons = []Comparison{
	SameLength, VaryingLength, ToSmallest, ToSecondSmallest,
	ToSecondLargest, ToLargest, ToOneSmaller, ToOneLarger,
}

// ErrNoReferenceLength means the strategy has no reference length for a
// system length, e.g. to_one_smaller at the shortest length.
var ErrNoReferenceLength = errors.New("no reference length for this comparison")

// ParseComparison validates a strategy name.
func ParseComparison(s string) (Comparison, error) {
	for _, c := range Comparisons {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown comparison %q", s)
}

// ReferenceLength returns the reference summary length used for a system
// summary of the given length. sorted must be ordered shortest first.
// VaryingLength uses every length and returns "".
func (c Comparison) ReferenceLength(length string, sorted []string) (string, error) {
	n := len(sorted)
	at := func(i int) (string, error) {
		if i < 0 || i >= n {
			return "", ErrNoReferenceLength
		}
		return sorted[i], nil
	}
	switch c {
	case SameLength:
		return length, nil
	case VaryingLength:
		return "", nil
	case ToSmallest:
		return at(0)
	case ToSecondSmallest:
		return at(1)
	case ToSecondLargest:
		return at(n - 2)
	case ToLargest:
		return at(n - 1)
	case ToOneSmaller, ToOneLarger:
		i := indexOf(sorted, length)
		if i < 0 {
			return "", fmt.Errorf("length %q not in corpus", length)
		}
		if c == ToOneSmaller {
			return at(i - 1)
		}
		return at(i + 1)
	}
	return "", fmt.Errorf("unknown comparison %q", c)
}

// SystemPattern matches the multi-document summaries of one system at one
// length. The first group captures the task ID.
func SystemPattern(length, system, ext string) string {
	return `(.*)\.M\.` + regexp.QuoteMeta(length) + `\.(.*)\.` + regexp.QuoteMeta(system) + `\.` + regexp.QuoteMeta(ext) + `$`
}

// ModelPattern matches the reference summaries of one task at refLength, or
// at every length when refLength is empty. #ID# stands for the task ID.
func ModelPattern(refLength, ext string) string {
	lengthPart := `(.*)`
	if refLength != "" {
		lengthPart = regexp.QuoteMeta(refLength)
	}
	return TaskPlaceholder + `\.M\.` + lengthPart + `\.(.*)\.(.*)\.` + regexp.QuoteMeta(ext) + `$`
}

// TaskPlaceholder is replaced by the task ID of a system summary in a model pattern.
const TaskPlaceholder = "#ID#"

func expandModelPattern(pattern, task string) string {
	return strings.ReplaceAll(pattern, TaskPlaceholder, regexp.QuoteMeta(task))
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
