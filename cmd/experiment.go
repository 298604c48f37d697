package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/ai"
	"github.com/spigell/interview-analyzer/internal/prompts"
	"github.com/spigell/interview-analyzer/internal/refinement"
	"github.com/spigell/interview-analyzer/internal/scoring"
)

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Compare analysis prompt variants against a reference and report the best one",
	Long: `Generates one cross-interview report per prompt variant and scores each with the
comprehensive assessment. Variant files reference the transcripts with {{CANDIDATES}};
files without the placeholder get the transcripts appended. Without --prompts the
built-in variants are compared.`,
	Example: `  interview-analyzer experiment -t 'interviews/*.txt' -r reference.txt
  interview-analyzer experiment -t 'interviews/*.txt' -r reference.txt -P 'prompts/*.md' --local -o yaml`,
	Run: func(cmd *cobra.Command, _ []string) {
		experiment(cmd)
	},
}

func init() {
	rootCmd.AddCommand(experimentCmd)

	experimentCmd.Flags().StringArrayP("transcripts", "t", nil, "transcript files or glob patterns")
	experimentCmd.Flags().StringP("reference", "r", "", "reference answer file")
	experimentCmd.Flags().StringArrayP("prompts", "P", nil, "prompt variant files or glob patterns")
	experimentCmd.Flags().Bool("local", false, "embed with the local sentence-transformer model instead of the provider")
	experimentCmd.Flags().StringP("output", "o", OutputText, "output format: text, yaml or json")

	experimentCmd.MarkFlagRequired("transcripts")
	experimentCmd.MarkFlagRequired("reference")
}

func experiment(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()
	defer logger.Sync() //nolint:errcheck

	patterns, _ := cmd.Flags().GetStringArray("transcripts")
	referenceFile, _ := cmd.Flags().GetString("reference")
	promptPatterns, _ := cmd.Flags().GetStringArray("prompts")
	useLocal, _ := cmd.Flags().GetBool("local")
	output, _ := cmd.Flags().GetString("output")

	transcripts, _, err := readInputs(patterns)
	if err != nil {
		logger.Fatal("reading transcripts", zap.Error(err))
	}
	reference, err := readText(referenceFile)
	if err != nil {
		logger.Fatal("reading the reference", zap.Error(err))
	}

	variants, err := loadVariants(promptPatterns)
	if err != nil {
		logger.Fatal("reading prompt variants", zap.Error(err))
	}

	registry, cleanup, err := buildRegistry(ctx, logger, config)
	if err != nil {
		logger.Fatal("building ai providers", zap.Error(err))
	}
	defer cleanup()

	provider := registry.Get(config.AI.Provider)

	var embedder ai.Embedder = provider
	if useLocal {
		localEmbedder, err := newLocalEmbedder(logger, config)
		if err != nil {
			logger.Fatal("starting the local embedder", zap.Error(err))
		}
		defer localEmbedder.Close()
		embedder = localEmbedder
	}

	logger.Info("comparing prompt variants",
		zap.Int("variants", len(variants)),
		zap.Int("transcripts", len(transcripts)),
	)

	result, err := refinement.Compare(ctx, provider, embedder, variants, transcripts, reference, scoring.ComprehensiveWeights, logger)
	if err != nil {
		logger.Fatal("prompt experiment failed", zap.Error(err))
	}

	if err := printExperiment(os.Stdout, output, result); err != nil {
		logger.Fatal("printing the result", zap.Error(err))
	}
}

// loadVariants reads prompt files named after their base name. No patterns
// selects the built-in variants.
func loadVariants(patterns []string) ([]prompts.Variant, error) {
	if len(patterns) == 0 {
		return prompts.DefaultVariants(), nil
	}

	texts, paths, err := readInputs(patterns)
	if err != nil {
		return nil, err
	}

	variants := make([]prompts.Variant, len(texts))
	for i, text := range texts {
		name := strings.TrimSuffix(filepath.Base(paths[i]), filepath.Ext(paths[i]))
		variants[i] = prompts.Variant{Name: name, Template: text}
	}
	return variants, nil
}
