package main

import (
	"github.com/spf13/cobra"

	"github.com/summeval/rougecorr/internal/logging"
	"github.com/summeval/rougecorr/internal/pipeline"
)

var (
	deltaBaseline string
	deltaCompare  []string
	deltaOut      string
	deltaTypes    []string
)

func init() {
	rootCmd.AddCommand(deltaCmd)
	deltaCmd.Flags().StringVar(&deltaBaseline, "baseline", "", "Baseline correlation folder")
	deltaCmd.Flags().StringArrayVar(&deltaCompare, "compare", nil, "Compared correlation folder as name=dir (repeatable)")
	deltaCmd.Flags().StringVarP(&deltaOut, "out", "o", "", "Output folder (a suffix is added if it exists)")
	deltaCmd.Flags().StringSliceVar(&deltaTypes, "rouge-types", nil, "ROUGE types to compare (default: R1,R2,RL,RSU)")
	deltaCmd.MarkFlagRequired("baseline")
	deltaCmd.MarkFlagRequired("compare")
	deltaCmd.MarkFlagRequired("out")
}

var deltaCmd = &cobra.Command{
	Use:   "delta",
	Short: "Compare correlation folders against a baseline",
	Long: `Subtract baseline correlations from each compared folder and write
per-sheet delta tables with row, length and final averages.

A cell whose baseline or compared value is invalid is written as -999.

Example:
  rougecorr delta --baseline corr/sameLen \
    --compare toOneLarger=corr/toOneLarger --compare toLargest=corr/toLargest \
    --out deltas`,
	Args: cobra.NoArgs,
	RunE: runDelta,
}

func runDelta(cmd *cobra.Command, args []string) error {
	cfg := mustLoadGlobalConfig()
	mustInitLogging(cfg, "", "")

	pairs, err := parseComparisons(deltaCompare)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	dc := pipeline.DeltaConfig{Baseline: deltaBaseline, OutputDir: deltaOut, RougeTypes: deltaTypes}
	for _, p := range pairs {
		dc.Comparisons = append(dc.Comparisons, pipeline.Comparison{Name: p[0], Dir: p[1]})
	}

	runner := &pipeline.Runner{Logger: logging.New("pipeline")}
	out, err := runner.RunDeltas(cmd.Context(), dc)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}
	if humanOutput {
		outputHuman("Wrote %s\n", out)
	} else {
		outputJSON(OutputResponse{Status: "ok", Output: out})
	}
	return nil
}
