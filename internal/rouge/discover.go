package rouge

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/summeval/rougecorr/internal/score"
)

// Corpus lists what a summary directory contains.
type Corpus struct {
	Tasks   []string
	Systems []string
	Lengths []string // shortest first
}

// Discover scans dir for multi-document summaries named
// <task>.M.<length>.<assessor>.<system>.<ext>. Other files, including those
// with another extension, are ignored. An empty ext accepts any extension.
func Discover(dir, ext string) (*Corpus, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading summaries: %w", err)
	}
	tasks := make(map[string]bool)
	systems := make(map[string]bool)
	lengths := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext != "" {
			if !strings.HasSuffix(name, "."+ext) {
				continue
			}
			name = strings.TrimSuffix(name, "."+ext)
		}
		parts := strings.Split(name, ".")
		if len(parts) < 5 || parts[1] != "M" {
			continue
		}
		tasks[parts[0]] = true
		lengths[parts[2]] = true
		systems[parts[4]] = true
	}
	if len(systems) == 0 {
		return nil, fmt.Errorf("no multi-document summaries in %s", dir)
	}

	c := &Corpus{Tasks: sortedKeys(tasks), Systems: sortedKeys(systems), Lengths: sortedKeys(lengths)}
	score.SortLengths(c.Lengths)
	return c, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
