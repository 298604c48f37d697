package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/evaluation"
	"github.com/spigell/interview-analyzer/internal/store"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score transcript files against a reference answer and select the best candidate",
	Example: `  interview-analyzer analyze -t 'answers/**/*.txt' -r reference.txt
  interview-analyzer analyze -t a.txt -t b.txt -r reference.txt -p gemini -o yaml`,
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringArrayP("transcripts", "t", nil, "transcript files or glob patterns, one candidate per file")
	analyzeCmd.Flags().StringP("reference", "r", "", "reference answer file")
	analyzeCmd.Flags().String("position", "", "job position of the interview")
	analyzeCmd.Flags().StringP("output", "o", OutputText, "output format: text, yaml or json")
	analyzeCmd.Flags().BoolP("auto-approve", "y", false, "record the result without asking for confirmation")

	analyzeCmd.MarkFlagRequired("transcripts")
	analyzeCmd.MarkFlagRequired("reference")
}

func analyze(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()
	defer logger.Sync() //nolint:errcheck

	patterns, _ := cmd.Flags().GetStringArray("transcripts")
	referenceFile, _ := cmd.Flags().GetString("reference")
	position, _ := cmd.Flags().GetString("position")
	output, _ := cmd.Flags().GetString("output")

	transcripts, paths, err := readInputs(patterns)
	if err != nil {
		logger.Fatal("reading transcripts", zap.Error(err))
	}
	reference, err := readText(referenceFile)
	if err != nil {
		logger.Fatal("reading the reference", zap.Error(err))
	}

	logger.Info("loaded transcripts", zap.Int("count", len(transcripts)), zap.Strings("files", paths))

	registry, cleanup, err := buildRegistry(ctx, logger, config)
	if err != nil {
		logger.Fatal("building ai providers", zap.Error(err))
	}
	defer cleanup()

	service, err := evaluation.NewService(registry.Get(config.AI.Provider), config.Evaluation, nil, logger)
	if err != nil {
		logger.Fatal("creating the evaluation service", zap.Error(err))
	}

	result, err := service.Analyze(ctx, evaluation.Request{
		Transcripts: transcripts,
		Reference:   reference,
		Position:    position,
	})
	if err != nil {
		logger.Fatal("analysis failed", zap.Error(err))
	}

	if err := printResult(os.Stdout, output, result); err != nil {
		logger.Fatal("printing the result", zap.Error(err))
	}

	autoApprove, _ := cmd.Flags().GetBool("auto-approve")
	saveResult(ctx, logger, config, result, autoApprove)
}

// saveResult records result in the result log after confirmation. Failures
// are logged and never fail the command.
func saveResult(ctx context.Context, logger *zap.Logger, config *Config, result *evaluation.Result, autoApprove bool) {
	saveEntry(ctx, logger, config, store.EntryFromResult(result), autoApprove)
}

func saveEntry(ctx context.Context, logger *zap.Logger, config *Config, entry store.Entry, autoApprove bool) {
	results := openStore(ctx, logger, config)
	if results == nil {
		return
	}
	defer results.Close()

	if !autoApprove {
		ok, err := confirm("Save this evaluation to the result log?")
		if err != nil {
			logger.Warn("skipping the result log", zap.Error(err))
			return
		}
		if !ok {
			return
		}
	}

	if err := results.Save(ctx, entry); err != nil {
		logger.Warn("failed to record evaluation result", zap.Error(err))
		return
	}

	logger.Info("evaluation recorded",
		zap.String("id", entry.ID.String()),
		zap.String("source", entry.Source),
		zap.Float64("overall_score", entry.OverallScore),
	)
}

func confirm(label string) (bool, error) {
	prompt := promptui.Select{
		Label: label,
		Items: []string{PromptYes, PromptNo},
	}

	_, answer, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return answer == PromptYes, nil
}
