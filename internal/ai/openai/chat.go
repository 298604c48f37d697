package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	sdk "github.com/openai/openai-go/v3"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/utils"
)

// Complete sends prompt as a single user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt, nil)
}

// CompleteWithTemperature is Complete with an explicit sampling temperature.
func (c *Client) CompleteWithTemperature(ctx context.Context, prompt string, temperature float32) (string, error) {
	return c.complete(ctx, prompt, &temperature)
}

func (c *Client) complete(ctx context.Context, prompt string, temperature *float32) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, 2)
	if c.SystemPrompt != "" {
		messages = append(messages, sdk.SystemMessage(c.SystemPrompt))
	}
	messages = append(messages, sdk.UserMessage(prompt))

	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(c.ChatModel),
		Messages: messages,
	}
	if temperature != nil {
		params.Temperature = sdk.Float(float64(*temperature))
	}

	c.logger.Debug("chat completion request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.MaxLogLength)),
	)

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("api returned no choices")
	}

	output := strings.TrimSpace(resp.Choices[0].Message.Content)
	if output == "" {
		return "", errors.New("api returned empty response")
	}

	c.logger.Debug("chat completion response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", utils.TruncateForLog(output, c.MaxLogLength)),
	)

	return output, nil
}
