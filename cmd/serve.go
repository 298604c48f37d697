package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/logger"
	"github.com/spigell/interview-analyzer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interview analysis HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", server.DefaultAddr, "listen address")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	defer logger.Sync() //nolint:errcheck

	registry, cleanup, err := buildRegistry(ctx, logger, config)
	if err != nil {
		logger.Fatal("building ai providers", zap.Error(err))
	}
	defer cleanup()

	results := openStore(ctx, logger, config)
	if results != nil {
		defer results.Close()
	}

	srv, err := server.New(config.Server, registry, results, logger)
	if err != nil {
		logger.Fatal("creating the server", zap.Error(err))
	}

	logger.Info("starting the interview-analyzer api",
		zap.String("version", version),
		zap.String("addr", srv.Addr()),
		zap.Strings("providers", registry.Names()),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}
}

// setup builds the logger and decodes the configuration. Both failures are fatal.
func setup() (*zap.Logger, *Config) {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	l.Debug("starting with config",
		zap.String("provider", config.AI.Provider),
		zap.String("language", config.AI.Language),
		zap.Duration("request_timeout", config.AI.RequestTimeout),
		zap.Any("evaluation", config.Evaluation),
		zap.Any("refinement", config.Refinement),
	)

	return l, config
}
