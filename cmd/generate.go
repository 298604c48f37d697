package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/evaluation"
	"github.com/spigell/interview-analyzer/internal/interview"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a demo interview for a position and evaluate it",
	Run: func(cmd *cobra.Command, _ []string) {
		generate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("position", interview.DefaultPosition, "job position to generate the interview for")
	generateCmd.Flags().IntP("candidates", "n", interview.DefaultCandidates, "number of candidate answers (1-10)")
	generateCmd.Flags().Bool("no-analysis", false, "print the generated interview without evaluating it")
	generateCmd.Flags().StringP("output", "o", OutputText, "output format: text, yaml or json")
	generateCmd.Flags().BoolP("auto-approve", "y", false, "record the result without asking for confirmation")
}

func generate(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()
	defer logger.Sync() //nolint:errcheck

	position, _ := cmd.Flags().GetString("position")
	candidates, _ := cmd.Flags().GetInt("candidates")
	skipAnalysis, _ := cmd.Flags().GetBool("no-analysis")
	output, _ := cmd.Flags().GetString("output")

	if candidates < interview.MinCandidates || candidates > interview.MaxCandidates {
		logger.Fatal("candidates out of range",
			zap.Int("candidates", candidates),
			zap.Int("min", interview.MinCandidates),
			zap.Int("max", interview.MaxCandidates),
		)
	}

	registry, cleanup, err := buildRegistry(ctx, logger, config)
	if err != nil {
		logger.Fatal("building ai providers", zap.Error(err))
	}
	defer cleanup()

	provider := registry.Get(config.AI.Provider)

	generated, err := interview.NewGenerator(provider, config.AI.Language, logger).Generate(ctx, position, candidates)
	if err != nil {
		logger.Fatal("generating the interview", zap.Error(err))
	}

	if skipAnalysis {
		if output == OutputText {
			output = OutputYAML
		}
		if err := encode(os.Stdout, output, generated); err != nil {
			logger.Fatal("printing the interview", zap.Error(err))
		}
		return
	}

	service, err := evaluation.NewService(provider, config.Evaluation, nil, logger)
	if err != nil {
		logger.Fatal("creating the evaluation service", zap.Error(err))
	}

	result, err := service.Analyze(ctx, evaluation.Request{
		Transcripts: generated.Transcripts,
		Reference:   generated.Reference,
		Position:    position,
		Question:    generated.Question,
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
