package main

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/summeval/rougecorr/internal/logging"
	"github.com/summeval/rougecorr/internal/pipeline"
	"github.com/summeval/rougecorr/internal/rouge"
)

var (
	rougeSystems    string
	rougeModels     string
	rougeComparison string
	rougeOut        string
	rougeStopWords  bool
	rougeExt        string
	rougeTypes      []string
)

func init() {
	rootCmd.AddCommand(rougeCmd)
	rougeCmd.Flags().StringVar(&rougeSystems, "systems", "", "Folder of system summaries")
	rougeCmd.Flags().StringVar(&rougeModels, "models", "", "Folder of reference summaries (default: --systems)")
	rougeCmd.Flags().StringVar(&rougeComparison, "comparison", string(rouge.SameLength), "Reference length strategy: "+comparisonNames())
	rougeCmd.Flags().StringVarP(&rougeOut, "out", "o", "", "ROUGE score table to write (a suffix is added if it exists)")
	rougeCmd.Flags().BoolVar(&rougeStopWords, "stop-words", false, "Remove stop words before scoring")
	rougeCmd.Flags().StringVar(&rougeExt, "ext", rouge.DefaultExt, "Summary file extension")
	rougeCmd.Flags().StringSliceVar(&rougeTypes, "rouge-types", nil, "ROUGE types to keep (default: all)")
	rougeCmd.MarkFlagRequired("systems")
	rougeCmd.MarkFlagRequired("out")
}

var rougeCmd = &cobra.Command{
	Use:   "rouge",
	Short: "Score a summary corpus with ROUGE-1.5.5",
	Long: `Run ROUGE-1.5.5 for every system and summary length found in a folder
of multi-document summaries named <task>.M.<length>.<assessor>.<system>.<ext>,
and write the scores as a ROUGE table.

Combinations the scorer fails on are left missing and reported.
Requires rouge_home in the global config or ROUGECORR_ROUGE_HOME.`,
	Args: cobra.NoArgs,
	RunE: runRouge,
}

// RougeResponse is the response for the rouge command.
type RougeResponse struct {
	Status string          `json:"status"`
	Output string          `json:"output"`
	Failed []FailedOutcome `json:"failed,omitempty"`
}

// FailedOutcome is a (system, length) combination that was not scored.
type FailedOutcome struct {
	System string `json:"system"`
	Length string `json:"length"`
	Error  string `json:"error"`
}

func runRouge(cmd *cobra.Command, args []string) error {
	cfg := mustLoadGlobalConfig()
	mustInitLogging(cfg, "", "")

	cmp, err := rouge.ParseComparison(rougeComparison)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	models := rougeModels
	if models == "" {
		models = rougeSystems
	}
	ex := mustNewExtractor(cfg)
	runner := &pipeline.Runner{Logger: logging.New("pipeline")}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	out, outcomes, err := runner.ExtractRouge(ctx, ex, pipeline.RougeJob{
		Name: string(cmp),
		Input: rouge.Input{
			SystemDir:  rougeSystems,
			ModelDir:   models,
			Comparison: cmp,
			StopWords:  rougeStopWords,
			Ext:        rougeExt,
			RougeTypes: rougeTypes,
		},
		Output: rougeOut,
	})
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	resp := RougeResponse{Status: "ok", Output: out}
	for _, o := range outcomes {
		if !o.OK() {
			resp.Failed = append(resp.Failed, FailedOutcome{System: o.System, Length: o.Length, Error: o.Err.Error()})
		}
	}
	if humanOutput {
		outputHuman("Wrote %s\n", out)
		for _, f := range resp.Failed {
			outputHuman("  not scored: system %s at %s: %s\n", f.System, f.Length, f.Error)
		}
	} else {
		outputJSON(resp)
	}
	return nil
}

func comparisonNames() string {
	names := make([]string, len(rouge.Comparisons))
	for i, c := range rouge.Comparisons {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
