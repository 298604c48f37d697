package themes

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/interview-analyzer/internal/ai"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) Complete(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type lockedGenerator struct {
	stubGenerator
}

func (lockedGenerator) CheckCredentials() error {
	return ai.MissingCredentials("openai", "OPENAI_API_KEY")
}

func TestExtract(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{response: "```json\n" + `{
		"interviews": [
			{"id": 1, "main_topics": ["productivity", "tools"], "sentiment": "Positive", "key_quote": "fewer distractions"},
			{"id": "2", "main_topics": "cohesion, communication", "sentiment": "negative", "key_quote": "face-to-face matters"}
		],
		"overall_themes": ["remote work", "collaboration", "flexibility"]
	}` + "\n```"}

	got, err := Extract(context.Background(), stub, []string{"Candidate A", "Candidate B"}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stub.lastPrompt, "Interview 2: Candidate B") {
		t.Fatalf("transcripts missing from prompt:\n%s", stub.lastPrompt)
	}
	if got.Note != "" {
		t.Fatalf("unexpected note %q", got.Note)
	}
	if len(got.OverallThemes) != 3 || got.OverallThemes[2] != "flexibility" {
		t.Fatalf("unexpected overall themes %v", got.OverallThemes)
	}
	if len(got.Interviews) != 2 {
		t.Fatalf("expected 2 interviews, got %d", len(got.Interviews))
	}

	first, second := got.Interviews[0], got.Interviews[1]
	if first.ID != 1 || first.Sentiment != "positive" || first.KeyQuote != "fewer distractions" {
		t.Fatalf("unexpected first interview %+v", first)
	}
	if second.ID != 2 || len(second.MainTopics) != 2 || second.MainTopics[1] != "communication" {
		t.Fatalf("unexpected second interview %+v", second)
	}
}

func TestExtractFallsBackOnInvalidJSON(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	stub := &stubGenerator{response: "Here are the themes: remote work, hybrid."}

	got, err := Extract(context.Background(), stub, []string{"a"}, zap.New(core))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Note != ParseFailedNote {
		t.Fatalf("expected parse failure note, got %q", got.Note)
	}
	if got.Interviews == nil || len(got.Interviews) != 0 || got.OverallThemes == nil || len(got.OverallThemes) != 0 {
		t.Fatalf("expected empty, non-nil lists, got %+v", got)
	}
	if logs.FilterMessage("themes response is not valid json").Len() != 1 {
		t.Fatal("expected a warning for the unparsable response")
	}
}

func TestExtractErrors(t *testing.T) {
	t.Parallel()

	upstream := errors.New("upstream down")
	if _, err := Extract(context.Background(), &stubGenerator{err: upstream}, []string{"a"}, nil); !errors.Is(err, upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}

	var validation *ai.ValidationError
	if _, err := Extract(context.Background(), &stubGenerator{}, nil, nil); !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	locked := &lockedGenerator{}
	if _, err := Extract(context.Background(), locked, []string{"a"}, nil); err == nil {
		t.Fatal("expected missing credentials error")
	}
	if locked.lastPrompt != "" {
		t.Fatal("no request expected without credentials")
	}
}

func TestParseAssignsMissingIDs(t *testing.T) {
	t.Parallel()

	got, err := Parse(`{"interviews": [{"main_topics": ["a"]}, "junk", {"id": 0}], "overall_themes": "x, , y"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Interviews) != 2 || got.Interviews[0].ID != 1 || got.Interviews[1].ID != 3 {
		t.Fatalf("unexpected interviews %+v", got.Interviews)
	}
	if len(got.OverallThemes) != 2 || got.OverallThemes[1] != "y" {
		t.Fatalf("unexpected overall themes %v", got.OverallThemes)
	}
}
