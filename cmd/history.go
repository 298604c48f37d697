package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent evaluations from the result log",
	Run: func(cmd *cobra.Command, _ []string) {
		history(cmd)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "l", 20, "number of entries to show")
	historyCmd.Flags().StringP("output", "o", OutputText, "output format: text, yaml or json")
}

func history(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()
	defer logger.Sync() //nolint:errcheck

	limit, _ := cmd.Flags().GetInt("limit")
	output, _ := cmd.Flags().GetString("output")

	results := openStore(ctx, logger, config)
	if results == nil {
		logger.Fatal("result log is not configured",
			zap.String("hint", "set DATABASE_URL or the 'store.dsn' key in the configuration file"),
		)
	}
	defer results.Close()

	entries, err := results.List(ctx, limit)
	if err != nil {
		logger.Fatal("listing evaluations", zap.Error(err))
	}

	if err := printEntries(os.Stdout, output, entries); err != nil {
		logger.Fatal("printing evaluations", zap.Error(err))
	}
}
