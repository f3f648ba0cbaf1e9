package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsSyncCmd)
	resultsCmd.AddCommand(resultsQueryCmd)
	resultsCmd.AddCommand(resultsRunsCmd)
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect the results ledger",
	Long: `Every correlation run appends its values to correlations.jsonl in the ledger
directory. A SQLite index over it is rebuilt whenever the file changes and
can be queried with SQL (table: correlations).`,
}

var resultsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebuild the SQLite index from correlations.jsonl",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l := mustRequireLedger(mustLoadGlobalConfig())
		n, err := l.Sync()
		if err != nil {
			exitWithError(ExitError, "syncing ledger: %v", err)
		}
		if humanOutput {
			outputHuman("Indexed %d records in %s\n", n, l.DBPath())
		} else {
			outputJSON(map[string]any{"status": "synced", "records": n})
		}
		return nil
	},
}

var resultsQueryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Query the results index with SQL",
	Long: `Run a SQL query against the correlations table.

Examples:
  rougecorr results query "SELECT run, length, value FROM correlations WHERE measure = 'recall' AND correlation = 'kendall' AND rouge_type = 'R2'"
  rougecorr results query "SELECT run, AVG(value) FROM correlations GROUP BY run" --human`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l := mustRequireLedger(mustLoadGlobalConfig())
		rows, err := l.Query(args[0])
		if err != nil {
			exitWithError(ExitError, "SQL error: %v", err)
		}
		if humanOutput {
			printRowsHuman(rows)
		} else {
			outputJSON(rows)
		}
		return nil
	},
}

var resultsRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l := mustRequireLedger(mustLoadGlobalConfig())
		runs, err := l.Runs()
		if err != nil {
			exitWithError(ExitError, "listing runs: %v", err)
		}
		if !humanOutput {
			outputJSON(runs)
			return nil
		}
		if len(runs) == 0 {
			outputHuman("No runs recorded\n")
			return nil
		}
		for _, r := range runs {
			outputHuman("%s  %s  %-10s %-8s %d cells (%d missing)  %s\n",
				r.CreatedAt.Format("2006-01-02 15:04"), shortID(r.RunID), r.Run, r.Mode, r.Cells, r.Missing, r.OutputDir)
		}
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
