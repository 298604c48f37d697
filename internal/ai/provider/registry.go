// Package provider wires the OpenAI, Friendli and Gemini backends behind the
// ai.Provider contract and selects one by id.
package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/ai"
	"github.com/spigell/interview-analyzer/internal/ai/cache"
	"github.com/spigell/interview-analyzer/internal/ai/gemini"
	"github.com/spigell/interview-analyzer/internal/ai/openai"
	"github.com/spigell/interview-analyzer/internal/logger"
	"github.com/spigell/interview-analyzer/internal/prompts"
)

const (
	OpenAI   = "openai"
	Friendli = "friendli"
	Gemini   = "gemini"

	// Default is used when the requested provider is unknown.
	Default = OpenAI

	OpenAIKeyEnv   = "OPENAI_API_KEY"
	FriendliKeyEnv = "FRIENDLI_API_KEY"
	GoogleKeyEnv   = "GOOGLE_API_KEY"

	DefaultFriendliModel = "meta-llama-3.1-8b-instruct"
)

// Config holds resolved credentials and model choices for all providers.
type Config struct {
	OpenAIKey   string
	FriendliKey string
	GoogleKey   string

	OpenAIBaseURL        string
	OpenAIModel          string
	OpenAIEmbeddingModel string
	FriendliBaseURL      string
	FriendliModel        string
	GeminiModel          string
	GeminiEmbeddingModel string

	// Language is the output language requested in the system prompt.
	Language       string
	RequestTimeout time.Duration
	MaxRetries     int
	MaxLogLength   int
}

// Registry maps lowercase provider ids to providers. It is read-only after
// construction.
type Registry struct {
	providers map[string]ai.Provider
	fallback  string
	logger    *zap.Logger
}

// NewRegistry creates a registry from providers keyed by id. fallback must be
// one of the keys.
func NewRegistry(log *zap.Logger, fallback string, providers map[string]ai.Provider) (*Registry, error) {
	normalized := make(map[string]ai.Provider, len(providers))
	for id, p := range providers {
		normalized[normalize(id)] = p
	}

	fallback = normalize(fallback)
	if _, ok := normalized[fallback]; !ok {
		return nil, fmt.Errorf("default provider %q is not registered", fallback)
	}

	return &Registry{providers: normalized, fallback: fallback, logger: logger.OrNop(log)}, nil
}

// Get returns the provider registered as name, or the default provider when
// name is empty or unknown.
func (r *Registry) Get(name string) ai.Provider {
	id := normalize(name)
	if p, ok := r.providers[id]; ok {
		return p
	}

	if id != "" {
		r.logger.Warn("unknown ai provider requested, using default",
			zap.String("requested", name),
			zap.String("default", r.fallback),
		)
	}
	return r.providers[r.fallback]
}

// Names returns the registered ids in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for id := range r.providers {
		names = append(names, id)
	}
	sort.Strings(names)
	return names
}

// Each calls fn for every registered provider in id order.
func (r *Registry) Each(fn func(id string, p ai.Provider)) {
	for _, id := range r.Names() {
		fn(id, r.providers[id])
	}
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Build constructs the OpenAI, Friendli and Gemini backends. Missing keys do
// not fail construction; they surface through CheckCredentials.
func Build(ctx context.Context, log *zap.Logger, cfg Config) (*Registry, error) {
	log = logger.OrNop(log)
	system := prompts.System(cfg.Language)

	var openaiClient *openai.Client
	if cfg.OpenAIKey != "" {
		client, err := openai.New(log, openai.Options{
			APIKey:         cfg.OpenAIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			ChatModel:      cfg.OpenAIModel,
			EmbeddingModel: cfg.OpenAIEmbeddingModel,
			SystemPrompt:   system,
			Timeout:        cfg.RequestTimeout,
			MaxRetries:     cfg.MaxRetries,
			MaxLogLength:   cfg.MaxLogLength,
		})
		if err != nil {
			return nil, fmt.Errorf("openai client: %w", err)
		}
		openaiClient = client
	}

	providers := map[string]ai.Provider{
		OpenAI: newOpenAI(log, cfg, openaiClient),
	}

	friendliBackend, err := newFriendli(log, cfg, system, openaiClient)
	if err != nil {
		return nil, err
	}
	providers[Friendli] = friendliBackend

	geminiBackend, err := newGemini(ctx, log, cfg, system, openaiClient)
	if err != nil {
		return nil, err
	}
	providers[Gemini] = geminiBackend

	return NewRegistry(log, Default, providers)
}

func orDefault(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}

func displayName(vendor, model string) string {
	return fmt.Sprintf("%s (%s)", vendor, model)
}

func newOpenAI(log *zap.Logger, cfg Config, client *openai.Client) *Backend {
	model := orDefault(cfg.OpenAIModel, openai.DefaultChatModel)
	embeddingModel := orDefault(cfg.OpenAIEmbeddingModel, openai.DefaultEmbeddingModel)

	b := &Backend{
		id:        OpenAI,
		name:      displayName("OpenAI", model),
		model:     model,
		available: client != nil,
		envKey:    OpenAIKeyEnv,
		namespace: cache.Namespace(OpenAI, embeddingModel),
		timeout:   cfg.RequestTimeout,
	}
	if client != nil {
		b.generator = client
		b.embedder = client
	} else {
		b.embedder = unavailableEmbedder{err: ai.MissingCredentials(OpenAI, OpenAIKeyEnv)}
	}
	logAvailability(log, b)
	return b
}

// newFriendli serves chat through the Friendli OpenAI-compatible API and
// embeddings through OpenAI, falling back to zero vectors without an OpenAI key.
func newFriendli(log *zap.Logger, cfg Config, system string, openaiClient *openai.Client) (*Backend, error) {
	model := orDefault(cfg.FriendliModel, DefaultFriendliModel)

	b := &Backend{
		id:        Friendli,
		name:      displayName("Friendli AI", model),
		model:     model,
		available: cfg.FriendliKey != "",
		envKey:    FriendliKeyEnv,
		timeout:   cfg.RequestTimeout,
	}

	if b.available {
		client, err := openai.New(log, openai.Options{
			APIKey:       cfg.FriendliKey,
			BaseURL:      orDefault(cfg.FriendliBaseURL, openai.FriendliBaseURL),
			ChatModel:    model,
			SystemPrompt: system,
			Timeout:      cfg.RequestTimeout,
			MaxRetries:   cfg.MaxRetries,
			MaxLogLength: cfg.MaxLogLength,
		})
		if err != nil {
			return nil, fmt.Errorf("friendli client: %w", err)
		}
		b.generator = client
	}

	b.embedder, b.namespace = openAIEmbeddingsOrZero(log, Friendli, cfg, openaiClient)
	logAvailability(log, b)
	return b, nil
}

// newGemini uses Gemini for chat and embeddings when GOOGLE_API_KEY is set and
// otherwise embeds through OpenAI or the zero-vector fallback.
func newGemini(ctx context.Context, log *zap.Logger, cfg Config, system string, openaiClient *openai.Client) (*Backend, error) {
	model := orDefault(cfg.GeminiModel, gemini.DefaultModel)

	b := &Backend{
		id:        Gemini,
		name:      displayName("Google Gemini", model),
		model:     model,
		available: cfg.GoogleKey != "",
		envKey:    GoogleKeyEnv,
		timeout:   cfg.RequestTimeout,
	}

	if !b.available {
		b.embedder, b.namespace = openAIEmbeddingsOrZero(log, Gemini, cfg, openaiClient)
		logAvailability(log, b)
		return b, nil
	}

	embeddingModel := orDefault(cfg.GeminiEmbeddingModel, gemini.DefaultEmbeddingModel)
	client, err := gemini.NewGenerator(ctx, log, gemini.Options{
		APIKey:         cfg.GoogleKey,
		Model:          model,
		EmbeddingModel: embeddingModel,
		SystemPrompt:   system,
		MaxRetries:     cfg.MaxRetries,
		MaxLogLength:   cfg.MaxLogLength,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	b.generator = client
	b.embedder = client
	b.namespace = cache.Namespace(Gemini, embeddingModel)
	logAvailability(log, b)
	return b, nil
}

func openAIEmbeddingsOrZero(log *zap.Logger, id string, cfg Config, client *openai.Client) (ai.Embedder, string) {
	if client != nil {
		return client, cache.Namespace(OpenAI, orDefault(cfg.OpenAIEmbeddingModel, openai.DefaultEmbeddingModel))
	}

	return &ai.FallbackEmbedder{
		Available: false,
		Dimension: ai.DefaultFallbackDimension,
		Logger:    logger.WithCommonFields(log, id, ""),
	}, cache.Namespace(id, "zero")
}

func logAvailability(log *zap.Logger, b *Backend) {
	log = logger.WithCommonFields(log, b.id, b.model)
	if b.available {
		log.Debug("ai provider configured")
		return
	}
	log.Debug("ai provider has no credentials", zap.String("env", b.envKey))
}

type unavailableEmbedder struct {
	err error
}

func (u unavailableEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, u.err
}
