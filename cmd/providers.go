package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/ai"
	"github.com/spigell/interview-analyzer/internal/ai/cache"
	"github.com/spigell/interview-analyzer/internal/ai/local"
	"github.com/spigell/interview-analyzer/internal/ai/provider"
	"github.com/spigell/interview-analyzer/internal/secrets"
	"github.com/spigell/interview-analyzer/internal/store"
)

// loadKey resolves an optional provider key. A key that is configured but
// unreadable is an error; an absent key leaves the provider unavailable.
func loadKey(name string, cfg *ProviderConfig) (string, error) {
	if cfg == nil {
		return "", nil
	}

	key, _, err := secrets.LoadOptional(secrets.Source{
		Name:  name,
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
	})
	return key, err
}

func providerOrEmpty(cfg *ProviderConfig) ProviderConfig {
	if cfg == nil {
		return ProviderConfig{}
	}
	return *cfg
}

// buildRegistry loads credentials and builds every provider. The returned
// cleanup closes the embedding cache when one is configured.
func buildRegistry(ctx context.Context, log *zap.Logger, config *Config) (*provider.Registry, func(), error) {
	aiCfg := config.AI

	openaiKey, err := loadKey("openai api key", aiCfg.OpenAI)
	if err != nil {
		return nil, nil, err
	}
	friendliKey, err := loadKey("friendli api key", aiCfg.Friendli)
	if err != nil {
		return nil, nil, err
	}
	googleKey, err := loadKey("google api key", aiCfg.Gemini)
	if err != nil {
		return nil, nil, err
	}

	openaiCfg := providerOrEmpty(aiCfg.OpenAI)
	friendliCfg := providerOrEmpty(aiCfg.Friendli)
	geminiCfg := providerOrEmpty(aiCfg.Gemini)

	registry, err := provider.Build(ctx, log, provider.Config{
		OpenAIKey:            openaiKey,
		FriendliKey:          friendliKey,
		GoogleKey:            googleKey,
		OpenAIBaseURL:        openaiCfg.BaseURL,
		OpenAIModel:          openaiCfg.Model,
		OpenAIEmbeddingModel: openaiCfg.EmbeddingModel,
		FriendliBaseURL:      friendliCfg.BaseURL,
		FriendliModel:        friendliCfg.Model,
		GeminiModel:          geminiCfg.Model,
		GeminiEmbeddingModel: geminiCfg.EmbeddingModel,
		Language:             aiCfg.Language,
		RequestTimeout:       aiCfg.RequestTimeout,
		MaxRetries:           aiCfg.MaxRetries,
		MaxLogLength:         aiCfg.MaxLogLength,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("building ai providers: %w", err)
	}

	cleanup := func() {}
	if config.Cache == nil || strings.TrimSpace(config.Cache.Path) == "" {
		return registry, cleanup, nil
	}

	cacheStore, err := cache.Open(config.Cache.Path)
	if err != nil {
		return nil, nil, err
	}

	registry.Each(func(_ string, p ai.Provider) {
		backend, ok := p.(*provider.Backend)
		if !ok {
			return
		}
		backend.WrapEmbedder(func(namespace string, next ai.Embedder) ai.Embedder {
			if cached, err := cacheStore.Len(namespace); err == nil {
				log.Debug("embedding cache namespace", zap.String("namespace", namespace), zap.Int("vectors", cached))
			}
			return cache.Wrap(next, cacheStore, namespace, log)
		})
	})
	log.Info("embedding cache enabled", zap.String("path", config.Cache.Path))

	cleanup = func() {
		if err := cacheStore.Close(); err != nil {
			log.Warn("closing embedding cache", zap.Error(err))
		}
	}
	return registry, cleanup, nil
}

// openStore opens the result log when a DSN is configured. A nil store means
// results are not recorded.
func openStore(ctx context.Context, log *zap.Logger, config *Config) store.Store {
	if config.Store == nil || strings.TrimSpace(config.Store.DSN) == "" {
		return nil
	}

	s, err := store.Open(ctx, config.Store.Driver, config.Store.DSN)
	if err != nil {
		log.Warn("result log is unavailable, results will not be recorded", zap.Error(err))
		return nil
	}

	log.Info("result log enabled", zap.String("driver", config.Store.Driver))
	return s
}

// newLocalEmbedder starts the hugot sentence-transformer embedder.
func newLocalEmbedder(log *zap.Logger, config *Config) (*local.Embedder, error) {
	opts := local.Options{}
	if config.Local != nil {
		opts.Model = config.Local.Model
		opts.ModelDir = config.Local.ModelDir
	}
	return local.New(log, opts)
}
