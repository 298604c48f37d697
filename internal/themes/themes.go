// Package themes extracts structured topics, sentiment and key quotes from
// interview transcripts for visualization.
package themes

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/ai"
	"github.com/spigell/interview-analyzer/internal/logger"
	"github.com/spigell/interview-analyzer/internal/prompts"
	"github.com/spigell/interview-analyzer/internal/utils"
)

// ParseFailedNote marks a result whose response was not valid JSON.
const ParseFailedNote = "JSON parsing failed"

const maxLogLength = 200

// Interview holds the themes of one transcript. ID is 1-based.
type Interview struct {
	ID         int      `json:"id" yaml:"id"`
	MainTopics []string `json:"main_topics" yaml:"main_topics"`
	Sentiment  string   `json:"sentiment" yaml:"sentiment"`
	KeyQuote   string   `json:"key_quote" yaml:"key_quote"`
}

// Themes is the structured extraction over all transcripts.
type Themes struct {
	Interviews    []Interview `json:"interviews" yaml:"interviews"`
	OverallThemes []string    `json:"overall_themes" yaml:"overall_themes"`
	Note          string      `json:"note,omitempty" yaml:"note,omitempty"`
}

// Extract asks generator for the themes of transcripts. A response that is
// not valid JSON yields empty themes with ParseFailedNote instead of an error.
func Extract(ctx context.Context, generator ai.Generator, transcripts []string, log *zap.Logger) (*Themes, error) {
	if len(transcripts) == 0 {
		return nil, &ai.ValidationError{Field: "transcripts", Message: "at least one transcript is required"}
	}
	if err := ai.CheckCredentials(generator); err != nil {
		return nil, err
	}

	log = logger.OrNop(log)
	prompt := prompts.Themes(transcripts)

	raw, err := generator.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract themes: %w", err)
	}

	log.Debug("themes response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, maxLogLength)),
	)

	themes, err := Parse(raw)
	if err != nil {
		log.Warn("themes response is not valid json", zap.Error(err))
		return &Themes{Interviews: []Interview{}, OverallThemes: []string{}, Note: ParseFailedNote}, nil
	}
	return themes, nil
}

// Parse decodes a themes response. Code fences are stripped and loosely typed
// fields are coerced.
func Parse(raw string) (*Themes, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, fmt.Errorf("parse themes response: %w", err)
	}

	themes := &Themes{
		Interviews:    []Interview{},
		OverallThemes: coerceStrings(data["overall_themes"]),
	}

	items, _ := data["interviews"].([]any)
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id := coerceInt(fields["id"])
		if id <= 0 {
			id = i + 1
		}
		themes.Interviews = append(themes.Interviews, Interview{
			ID:         id,
			MainTopics: coerceStrings(fields["main_topics"]),
			Sentiment:  strings.ToLower(coerceString(fields["sentiment"])),
			KeyQuote:   coerceString(fields["key_quote"]),
		})
	}

	return themes, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceInt(v any) int {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) {
			return 0
		}
		return int(val)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

// coerceStrings accepts a list or a single comma separated string.
func coerceStrings(v any) []string {
	out := []string{}
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(val, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
