package main

import (
	"github.com/spf13/cobra"

	"github.com/summeval/rougecorr/internal/human"
	"github.com/summeval/rougecorr/internal/logging"
	"github.com/summeval/rougecorr/internal/pipeline"
)

var (
	ducEdition string
	ducTable   string
	ducOut     string
)

func init() {
	rootCmd.AddCommand(ducCmd)
	ducCmd.Flags().StringVar(&ducEdition, "edition", "", "DUC edition of the assessment table: 2001 or 2002")
	ducCmd.Flags().StringVar(&ducTable, "table", "", "DUC assessment table")
	ducCmd.Flags().StringVarP(&ducOut, "out", "o", "", "Human score table to write (a suffix is added if it exists)")
	ducCmd.MarkFlagRequired("edition")
	ducCmd.MarkFlagRequired("table")
	ducCmd.MarkFlagRequired("out")
}

var ducCmd = &cobra.Command{
	Use:   "duc",
	Short: "Extract human scores from a DUC assessment table",
	Long: `Average the human assessments of multi-document summaries over tasks
and write one score per system and length.

DUC 2001 tables score mean expressiveness over units, DUC 2002 tables mean
coverage.`,
	Args: cobra.NoArgs,
	RunE: runDUC,
}

func runDUC(cmd *cobra.Command, args []string) error {
	cfg := mustLoadGlobalConfig()
	mustInitLogging(cfg, "", "")

	ed, err := human.ParseEdition(ducEdition)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	runner := &pipeline.Runner{Logger: logging.New("human")}
	out, err := runner.ExtractHuman(cmd.Context(), pipeline.HumanJob{Edition: ed, Table: ducTable, Output: ducOut})
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
