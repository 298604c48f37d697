package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/ai"
	"github.com/spigell/interview-analyzer/internal/evaluation"
	"github.com/spigell/interview-analyzer/internal/refinement"
	"github.com/spigell/interview-analyzer/internal/scoring"
	"github.com/spigell/interview-analyzer/internal/store"
	"github.com/spigell/interview-analyzer/internal/themes"
)

var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Iteratively regenerate a cross-analysis report until it matches the reference",
	Example: `  interview-analyzer refine -t 'interviews/*.txt' -r reference.txt --local
  interview-analyzer refine -t a.txt -t b.txt -r reference.txt --max-iterations 5 --save-report report.md --themes`,
	Run: func(cmd *cobra.Command, _ []string) {
		refine(cmd)
	},
}

func init() {
	rootCmd.AddCommand(refineCmd)

	refineCmd.Flags().StringArrayP("transcripts", "t", nil, "transcript files or glob patterns")
	refineCmd.Flags().StringP("reference", "r", "", "reference answer file")
	refineCmd.Flags().Bool("local", false, "embed with the local sentence-transformer model instead of the provider")
	refineCmd.Flags().Int("max-iterations", refinement.DefaultMaxIterations, "iteration budget")
	refineCmd.Flags().Float64("target-score", refinement.DefaultTargetScore, "stop once a report scores at least this much")
	refineCmd.Flags().StringP("output", "o", OutputText, "output format: text, yaml or json")
	refineCmd.Flags().String("save-report", "", "write the best report to this file")
	refineCmd.Flags().Bool("themes", false, "also extract structured themes from the transcripts")
	refineCmd.Flags().BoolP("auto-approve", "y", false, "record the assessment and overwrite an existing report file without asking")

	refineCmd.MarkFlagRequired("transcripts")
	refineCmd.MarkFlagRequired("reference")

	viper.BindPFlag("refinement.max-iterations", refineCmd.Flags().Lookup("max-iterations"))
	viper.BindPFlag("refinement.target-score", refineCmd.Flags().Lookup("target-score"))
}

func refine(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()
	defer logger.Sync() //nolint:errcheck

	patterns, _ := cmd.Flags().GetStringArray("transcripts")
	referenceFile, _ := cmd.Flags().GetString("reference")
	useLocal, _ := cmd.Flags().GetBool("local")
	withThemes, _ := cmd.Flags().GetBool("themes")
	output, _ := cmd.Flags().GetString("output")
	autoApprove, _ := cmd.Flags().GetBool("auto-approve")

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

	loop, err := refinement.New(provider, embedder, config.Refinement, logger)
	if err != nil {
		logger.Fatal("creating the refinement loop", zap.Error(err))
	}

	bar := progressbar.NewOptions(config.Refinement.MaxIterations,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]Refining[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
	loop.OnIteration = func(rec evaluation.IterationRecord) {
		bar.Describe(fmt.Sprintf("[cyan]Refining[reset] score %.4f", rec.OverallScore))
		bar.Set(rec.Iteration) //nolint:errcheck
	}

	result, err := loop.Run(ctx, transcripts, reference)
	if err != nil {
		logger.Fatal("refinement failed", zap.Error(err))
	}
	bar.Finish() //nolint:errcheck

	assessment, err := refinement.Assess(ctx, embedder, result.BestReport, reference, scoring.ComprehensiveWeights)
	if err != nil {
		logger.Warn("comprehensive assessment failed", zap.Error(err))
		assessment = nil
	}

	var extracted *themes.Themes
	if withThemes {
		extracted, err = themes.Extract(ctx, provider, transcripts, logger)
		if err != nil {
			logger.Fatal("extracting themes", zap.Error(err))
		}
		logger.Info("themes extracted", zap.Int("overall_themes", len(extracted.OverallThemes)))
	}

	if err := printRefinement(os.Stdout, output, result, assessment, extracted); err != nil {
		logger.Fatal("printing the result", zap.Error(err))
	}

	if assessment != nil {
		saveEntry(ctx, logger, config, store.EntryFromAssessment(provider.Name(), len(transcripts), assessment), autoApprove)
	}

	reportFile, _ := cmd.Flags().GetString("save-report")
	if reportFile == "" {
		return
	}

	if err := writeReport(reportFile, result.BestReport, autoApprove); err != nil {
		if errors.Is(err, errNotConfirmed) {
			logger.Info("report not saved", zap.String("filename", reportFile))
			return
		}
		logger.Fatal("saving the report", zap.Error(err))
	}
	logger.Info("report saved", zap.String("filename", reportFile))
}

var errNotConfirmed = errors.New("not confirmed")

func writeReport(path, report string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		ok, err := confirm(fmt.Sprintf("%s exists. Overwrite?", path))
		if err != nil {
			return err
		}
		if !ok {
			return errNotConfirmed
		}
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return os.WriteFile(path, []byte(report+"\n"), 0o644)
}
