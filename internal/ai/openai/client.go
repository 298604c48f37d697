// Package openai talks to OpenAI-compatible chat completion and embedding
// endpoints through the official SDK. It is used for OpenAI itself and for
// Friendli, which exposes the same API under a different base URL.
package openai

import (
	"errors"
	"net/http"
	"strings"
	"time"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/logger"
)

const (
	// DefaultBaseURL is the public OpenAI API.
	DefaultBaseURL = "https://api.openai.com/v1"
	// FriendliBaseURL is the Friendli serverless inference API.
	FriendliBaseURL = "https://inference.friendli.ai/v1"

	DefaultChatModel      = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"

	userAgent      = "spigell/interview-analyzer"
	defaultTimeout = 60 * time.Second

	defaultMaxLogLength = 200
)

// Options configures a Client.
type Options struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	// SystemPrompt is sent as the first chat message when not empty.
	SystemPrompt string
	Timeout      time.Duration
	// MaxRetries is the total number of attempts for transient upstream errors.
	MaxRetries   int
	MaxLogLength int
}

// Client wraps the SDK client with the configured models and system prompt.
type Client struct {
	api    sdk.Client
	logger *zap.Logger

	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	SystemPrompt   string
	MaxRetries     int
	MaxLogLength   int
}

// New creates a client. An API key is required.
func New(log *zap.Logger, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	chatModel := strings.TrimSpace(opts.ChatModel)
	if chatModel == "" {
		chatModel = DefaultChatModel
	}

	embeddingModel := strings.TrimSpace(opts.EmbeddingModel)
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	retries := opts.MaxRetries
	if retries < 1 {
		retries = 1
	}

	maxLogLength := opts.MaxLogLength
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	c := &Client{
		logger:         logger.WithCommonFields(log, "openai-compatible", chatModel),
		BaseURL:        baseURL,
		ChatModel:      chatModel,
		EmbeddingModel: embeddingModel,
		SystemPrompt:   strings.TrimSpace(opts.SystemPrompt),
		MaxRetries:     retries,
		MaxLogLength:   maxLogLength,
	}

	// The SDK counts retries after the first attempt.
	c.api = sdk.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(retries-1),
		option.WithHeader("User-Agent", userAgent),
		option.WithMiddleware(c.logRequest),
	)

	return c, nil
}

// Model returns the chat model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.ChatModel
}

// logRequest logs every attempt, retries included.
func (c *Client) logRequest(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := next(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn("openai-compatible request failed",
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
		)
	}
	return resp, nil
}
