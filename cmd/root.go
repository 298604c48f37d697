package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/interview-analyzer/internal/ai/provider"
	"github.com/spigell/interview-analyzer/internal/evaluation"
	"github.com/spigell/interview-analyzer/internal/prompts"
	"github.com/spigell/interview-analyzer/internal/refinement"
	"github.com/spigell/interview-analyzer/internal/server"
)

const (
	app = "interview-analyzer"
)

type Config struct {
	AI         *AIConfig         `mapstructure:"ai"`
	Evaluation evaluation.Config `mapstructure:"evaluation"`
	Refinement refinement.Config `mapstructure:"refinement"`
	Server     server.Config     `mapstructure:"server"`
	Store      *StoreConfig      `mapstructure:"store"`
	Cache      *CacheConfig      `mapstructure:"cache"`
	Local      *LocalConfig      `mapstructure:"local"`
}

type AIConfig struct {
	Provider       string          `mapstructure:"provider"`
	Language       string          `mapstructure:"language"`
	RequestTimeout time.Duration   `mapstructure:"request-timeout"`
	MaxRetries     int             `mapstructure:"max-retries"`
	MaxLogLength   int             `mapstructure:"max-log-length"`
	OpenAI         *ProviderConfig `mapstructure:"openai"`
	Friendli       *ProviderConfig `mapstructure:"friendli"`
	Gemini         *ProviderConfig `mapstructure:"gemini"`
}

type ProviderConfig struct {
	APIKey         string `mapstructure:"api-key"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	BaseURL        string `mapstructure:"base-url"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding-model"`
}

// StoreConfig enables the result log when DSN is set.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// CacheConfig enables the embedding cache when Path is set.
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

type LocalConfig struct {
	Model    string `mapstructure:"model"`
	ModelDir string `mapstructure:"model-dir"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interview-analyzer scores interview answers against a reference answer and picks the best candidate",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

var envBindings = map[string]string{
	"ai.openai.api-key":        provider.OpenAIKeyEnv,
	"ai.openai.api-key-file":   provider.OpenAIKeyEnv + "_FILE",
	"ai.friendli.api-key":      provider.FriendliKeyEnv,
	"ai.friendli.api-key-file": provider.FriendliKeyEnv + "_FILE",
	"ai.gemini.api-key":        provider.GoogleKeyEnv,
	"ai.gemini.api-key-file":   provider.GoogleKeyEnv + "_FILE",
	"store.dsn":                "DATABASE_URL",
	"store.driver":             "DATABASE_DRIVER",
	"cache.path":               "EMBEDDING_CACHE_PATH",
}

func init() {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-analyzer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("provider", "p", "", "ai provider: openai, friendli or gemini")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("ai.provider", rootCmd.PersistentFlags().Lookup("provider"))
}

func setDefaults() {
	viper.SetDefault("ai.provider", provider.Default)
	viper.SetDefault("ai.language", prompts.DefaultLanguage)
	viper.SetDefault("ai.request-timeout", "60s")
	viper.SetDefault("ai.max-retries", 1)
	viper.SetDefault("ai.max-log-length", 200)

	evalDefaults := evaluation.DefaultConfig()
	viper.SetDefault("evaluation.weights.cosine", evalDefaults.Weights.Cosine)
	viper.SetDefault("evaluation.weights.lexical", evalDefaults.Weights.Lexical)
	viper.SetDefault("evaluation.lexical-metric", string(evalDefaults.Metric))
	viper.SetDefault("evaluation.policy", string(evalDefaults.Policy))
	viper.SetDefault("evaluation.parallel-embeddings", 4)

	refineDefaults := refinement.DefaultConfig()
	viper.SetDefault("refinement.max-iterations", refineDefaults.MaxIterations)
	viper.SetDefault("refinement.target-score", refineDefaults.TargetScore)
	viper.SetDefault("refinement.top-keywords", refineDefaults.TopKeywords)

	viper.SetDefault("server.addr", server.DefaultAddr)
	viper.SetDefault("store.driver", "sqlite")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless given explicitly; a broken file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)))
	if err != nil {
		return config, err
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.Evaluation.Language == "" {
		config.Evaluation.Language = config.AI.Language
	}
	config.Server.Evaluation = config.Evaluation

	return config, nil
}
