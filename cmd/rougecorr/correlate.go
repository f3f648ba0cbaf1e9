package main

import (
	"github.com/spf13/cobra"

	"github.com/summeval/rougecorr/internal/logging"
	"github.com/summeval/rougecorr/internal/pipeline"
)

var (
	correlateHuman     string
	correlateRouge     string
	correlateOut       string
	correlateName      string
	correlatePairwise  bool
	correlateStopWords bool
	correlateTypes     []string
)

func init() {
	rootCmd.AddCommand(correlateCmd)
	correlateCmd.Flags().StringVar(&correlateHuman, "human-scores", "", "Human score table (CSV)")
	correlateCmd.Flags().StringVar(&correlateRouge, "rouge-scores", "", "ROUGE score table (CSV)")
	correlateCmd.Flags().StringVarP(&correlateOut, "out", "o", "", "Output folder (a suffix is added if it exists)")
	correlateCmd.Flags().StringVar(&correlateName, "name", "", "Run name recorded in the ledger (default: output folder name)")
	correlateCmd.Flags().BoolVar(&correlatePairwise, "pairwise", false, "Correlate score differences between system pairs")
	correlateCmd.Flags().BoolVar(&correlateStopWords, "stop-words", false, "Record that ROUGE was run without stop words")
	correlateCmd.Flags().StringSliceVar(&correlateTypes, "rouge-types", nil, "ROUGE types to correlate (default: all)")
	correlateCmd.MarkFlagRequired("human-scores")
	correlateCmd.MarkFlagRequired("rouge-scores")
	correlateCmd.MarkFlagRequired("out")
}

var correlateCmd = &cobra.Command{
	Use:   "correlate",
	Short: "Correlate one ROUGE table with one human table",
	Long: `Compute Pearson, Spearman and Kendall correlations between ROUGE and
human scores for every ROUGE type, length and measure, and write the nine
correlation tables to a fresh folder.

Systems scored by only one side are left out. Cells without enough data
are written as "-".`,
	Args: cobra.NoArgs,
	RunE: runCorrelate,
}

func runCorrelate(cmd *cobra.Command, args []string) error {
	cfg := mustLoadGlobalConfig()
	mustInitLogging(cfg, "", "")

	mode := pipeline.Absolute
	if correlatePairwise {
		mode = pipeline.Pairwise
	}
	name := correlateName
	if name == "" {
		name = correlateOut
	}
	runner := &pipeline.Runner{
		RougeTypes: correlateTypes,
		Ledger:     mustOpenLedger(cfg, ""),
		Logger:     logging.New("pipeline"),
	}
	res := runner.RunOne(cmd.Context(), pipeline.RunConfig{
		Name:      name,
		HumanPath: correlateHuman,
		RougePath: correlateRouge,
		OutputDir: correlateOut,
		Mode:      mode,
		StopWords: correlateStopWords,
	})
	if res.Err != nil {
		exitWithError(exitCodeFor(res.Err), "%v", res.Err)
	}

	if humanOutput {
		outputHuman("Wrote %s (%d cells, %d undefined", res.OutputDir, res.Cells, res.Undefined)
		if res.Skipped > 0 {
			outputHuman(", %d malformed ROUGE rows skipped", res.Skipped)
		}
		outputHuman(")\n")
		if res.RunID != "" {
			outputHuman("Run ID: %s\n", res.RunID)
		}
	} else {
		outputJSON(res)
	}
	return nil
}
