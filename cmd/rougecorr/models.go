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
	modelsDir       string
	modelsScope     string
	modelsOut       string
	modelsStopWords bool
	modelsExt       string
	modelsTypes     []string
)

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().StringVar(&modelsDir, "models", "", "Folder of reference summaries")
	modelsCmd.Flags().StringVar(&modelsScope, "scope", string(rouge.OtherAuthors), "Whose references to compare against: "+scopeNames())
	modelsCmd.Flags().StringVarP(&modelsOut, "out", "o", "", "Folder to write the tables to (a suffix is added if it exists)")
	modelsCmd.Flags().BoolVar(&modelsStopWords, "stop-words", false, "Remove stop words before scoring")
	modelsCmd.Flags().StringVar(&modelsExt, "ext", rouge.DefaultExt, "Summary file extension")
	modelsCmd.Flags().StringSliceVar(&modelsTypes, "rouge-types", nil, "ROUGE types to keep (default: all)")
	modelsCmd.MarkFlagRequired("models")
	modelsCmd.MarkFlagRequired("out")
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Score reference summaries against each other",
	Long: `Score every author's reference summaries at every length against the
references of the same author, the other authors or all authors at every
length, and write one table per author and measure plus TOTAL_<measure>.csv
with the averages over authors.

Rows are the checked summary length, columns the reference length. Averages
where the references are longer are scaled by referencesSize/CheckedSize.
Requires rouge_home in the global config or ROUGECORR_ROUGE_HOME.`,
	Args: cobra.NoArgs,
	RunE: runModels,
}

// ModelsResponse is the response for the models command.
type ModelsResponse struct {
	Status string          `json:"status"`
	Output string          `json:"output"`
	Failed []FailedOutcome `json:"failed,omitempty"`
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg := mustLoadGlobalConfig()
	mustInitLogging(cfg, "", "")

	scope, err := rouge.ParseAuthorScope(modelsScope)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	ex := mustNewExtractor(cfg)
	runner := &pipeline.Runner{Logger: logging.New("pipeline")}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	out, outcomes, err := runner.CompareModels(ctx, ex, pipeline.ModelJob{
		Name: string(scope),
		Input: rouge.ModelInput{
			Dir:        modelsDir,
			Scope:      scope,
			StopWords:  modelsStopWords,
			Ext:        modelsExt,
			RougeTypes: modelsTypes,
		},
		Output: modelsOut,
	})
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	resp := ModelsResponse{Status: "ok", Output: out}
	for _, o := range outcomes {
		if !o.OK() {
			resp.Failed = append(resp.Failed, FailedOutcome{System: o.System, Length: o.Length + "/" + o.ReferenceLength, Error: o.Err.Error()})
		}
	}
	if humanOutput {
		outputHuman("Wrote %s\n", out)
		for _, f := range resp.Failed {
			outputHuman("  not scored: author %s at %s: %s\n", f.System, f.Length, f.Error)
		}
	} else {
		outputJSON(resp)
	}
	return nil
}

func scopeNames() string {
	names := make([]string, len(rouge.AuthorScopes))
	for i, s := range rouge.AuthorScopes {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
