package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/summeval/rougecorr/internal/config"
	"github.com/summeval/rougecorr/internal/logging"
	"github.com/summeval/rougecorr/internal/pipeline"
	"github.com/summeval/rougecorr/internal/rouge"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [batch.yml]",
	Short: "Run every job of a batch file",
	Long: `Run a batch file: DUC extractions, ROUGE extractions, model
comparisons, correlation runs and delta comparisons, in that order.

A failing job or run is reported and the rest of the batch carries on.
Later jobs that name an earlier job's output read the file or folder that
job wrote in this run, even when it was given a _1 style suffix.
Defaults to rougecorr.yml in the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

// RunResponse is the response for the run command.
type RunResponse struct {
	Status string `json:"status"`
	*pipeline.Summary
}

func runRun(cmd *cobra.Command, args []string) error {
	path := config.DefaultBatchFile
	if len(args) == 1 {
		path = args[0]
	}
	cfg := mustLoadGlobalConfig()
	batch, err := config.LoadBatch(path)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	plan, err := batch.Plan()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	mustInitLogging(cfg, batch.Log.Level, batch.Log.Format)

	var ex *rouge.Extractor
	if len(plan.Extractions)+len(plan.Models) > 0 {
		ex = mustNewExtractor(cfg)
	}
	runner := &pipeline.Runner{
		RougeTypes: batch.RougeTypes,
		Ledger:     mustOpenLedger(cfg, batch.Ledger),
		Logger:     logging.New("pipeline"),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	summary := runner.Execute(ctx, plan, ex)

	status := "ok"
	if summary.Failures() > 0 {
		status = "partial"
	}
	if humanOutput {
		printSummaryHuman(summary)
	} else {
		outputJSON(RunResponse{Status: status, Summary: summary})
	}
	if summary.Failures() > 0 {
		os.Exit(ExitPartial)
	}
	return nil
}

func printSummaryHuman(s *pipeline.Summary) {
	for _, st := range s.Stages {
		if st.Err != nil {
			outputHuman("FAIL %-6s %s: %v\n", st.Stage, st.Name, st.Err)
			continue
		}
		extra := ""
		if st.Failed > 0 {
			extra = fmt.Sprintf(" (%d combinations not scored)", st.Failed)
		}
		outputHuman("ok   %-6s %s -> %s%s\n", st.Stage, st.Name, st.Output, extra)
	}
	for _, r := range s.Runs {
		if r.Err != nil {
			outputHuman("FAIL run    %s: %v\n", r.Name, r.Err)
			continue
		}
		outputHuman("ok   run    %s -> %s (%d/%d cells undefined)\n", r.Name, r.OutputDir, r.Undefined, r.Cells)
	}
	outputHuman("\n%d failure(s)\n", s.Failures())
}
