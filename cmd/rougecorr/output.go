package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/summeval/rougecorr/internal/delta"
	"github.com/summeval/rougecorr/internal/ledger"
	"github.com/summeval/rougecorr/internal/score"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitCodeFor classifies an error from the data packages.
func exitCodeFor(err error) int {
	var mre *score.MalformedRowError
	switch {
	case errors.As(err, &mre),
		errors.Is(err, delta.ErrNoComparisons),
		errors.Is(err, delta.ErrNoLengths):
		return ExitDataError
	case errors.Is(err, os.ErrNotExist):
		return ExitConfigError
	}
	return ExitError
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OutputResponse reports a folder or file written by a command.
type OutputResponse struct {
	Status string `json:"status"`
	Output string `json:"output"`
	Failed int    `json:"failed,omitempty"`
}

// parseComparisons turns name=dir arguments into ordered comparisons.
func parseComparisons(args []string) ([][2]string, error) {
	seen := make(map[string]bool)
	out := make([][2]string, 0, len(args))
	for _, a := range args {
		name, dir, ok := strings.Cut(a, "=")
		if !ok || name == "" || dir == "" {
			return nil, fmt.Errorf("comparison %q should look like name=dir", a)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate comparison name %q", name)
		}
		seen[name] = true
		out = append(out, [2]string{name, dir})
	}
	return out, nil
}

// printRowsHuman prints query rows as an aligned table, columns sorted by name.
func printRowsHuman(rows []ledger.Row) {
	if len(rows) == 0 {
		fmt.Println("(0 rows)")
		return
	}
	var cols []string
	for col := range rows[0] {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	widths := make(map[string]int)
	for _, col := range cols {
		widths[col] = len(col)
		for _, r := range rows {
			if n := len(fmt.Sprintf("%v", r[col])); n > widths[col] {
				widths[col] = n
			}
		}
		if widths[col] > 40 {
			widths[col] = 40
		}
	}

	line := func(cell func(col string) string) {
		parts := make([]string, len(cols))
		for i, col := range cols {
			parts[i] = padRight(cell(col), widths[col])
		}
		fmt.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
	}
	line(strings.ToUpper)
	for _, r := range rows {
		line(func(col string) string { return fmt.Sprintf("%v", r[col]) })
	}
}

// padRight pads s with spaces to width, truncating longer strings.
func padRight(s string, width int) string {
	if len(s) > width {
		return s[:width-3] + "..."
	}
	return s + strings.Repeat(" ", width-len(s))
}
