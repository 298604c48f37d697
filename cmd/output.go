package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/spigell/interview-analyzer/internal/evaluation"
	"github.com/spigell/interview-analyzer/internal/refinement"
	"github.com/spigell/interview-analyzer/internal/store"
	"github.com/spigell/interview-analyzer/internal/themes"
)

const (
	OutputText = "text"
	OutputYAML = "yaml"
	OutputJSON = "json"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	winnerColor = color.New(color.FgGreen, color.Bold)
	dimColor    = color.New(color.Faint)
)

// readInputs expands the glob patterns and returns the file contents in
// lexical path order. Patterns without glob characters must match a file.
func readInputs(patterns []string) ([]string, []string, error) {
	seen := make(map[string]struct{})
	var paths []string

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, nil, fmt.Errorf("no files match %q", pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			paths = append(paths, m)
		}
	}

	texts := make([]string, 0, len(paths))
	for _, p := range paths {
		text, err := readText(p)
		if err != nil {
			return nil, nil, err
		}
		texts = append(texts, text)
	}
	return texts, paths, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// encode writes v as yaml or json. Text output is handled by the callers.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (want %s, %s or %s)", format, OutputText, OutputYAML, OutputJSON)
	}
}

func printResult(w io.Writer, format string, r *evaluation.Result) error {
	if format != OutputText {
		return encode(w, format, r)
	}

	headerColor.Fprintf(w, "Evaluation %s\n", r.ID)
	fmt.Fprintf(w, "Provider: %s\nPosition: %s\n", r.Provider, r.Position)
	if r.Question != "" {
		fmt.Fprintf(w, "Question: %s\n", r.Question)
	}
	fmt.Fprintln(w)

	if r.HireDecision != nil {
		headerColor.Fprintln(w, "Candidates")
		for _, s := range r.HireDecision.Scores {
			line := fmt.Sprintf("  #%d  overall %.4f  cosine %.4f  lexical %.4f  grade %s",
				s.Position, s.OverallScore, s.CosineScore, s.LexicalScore, s.Grade)
			if s.Position == r.HireDecision.SelectedIndex {
				winnerColor.Fprintln(w, line+"  <- selected")
				continue
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w)
		headerColor.Fprintln(w, "Hire decision")
		fmt.Fprintln(w, r.HireDecision.Justification)
		fmt.Fprintln(w)
	}

	headerColor.Fprintln(w, "Summary")
	fmt.Fprintf(w, "  mean score %.4f, grade %s, %s\n\n", r.Score, r.Grade, r.Recommendation)

	headerColor.Fprintln(w, "Cross analysis")
	fmt.Fprintln(w, r.Report)
	return nil
}

type refineOutput struct {
	refinement.Result `yaml:",inline"`
	Assessment        *refinement.Assessment `json:"assessment" yaml:"assessment"`
	Themes            *themes.Themes         `json:"themes,omitempty" yaml:"themes,omitempty"`
}

func printRefinement(w io.Writer, format string, r *refinement.Result, a *refinement.Assessment, t *themes.Themes) error {
	if format != OutputText {
		return encode(w, format, refineOutput{Result: *r, Assessment: a, Themes: t})
	}

	headerColor.Fprintln(w, "Iterations")
	for _, rec := range r.History {
		fmt.Fprintf(w, "  %d  score %.4f  cosine %.4f  lexical %.4f\n",
			rec.Iteration, rec.OverallScore, rec.CosineScore, rec.LexicalScore)
	}
	fmt.Fprintln(w)

	winnerColor.Fprintf(w, "Best score %.4f (grade %s, %s), improvement %+.4f\n\n",
		r.BestScore, r.Grade, r.Recommendation, r.Improvement())

	if a != nil {
		printAssessment(w, a)
		fmt.Fprintln(w)
	}

	if t != nil {
		printThemes(w, t)
	}

	headerColor.Fprintln(w, "Final report")
	fmt.Fprintln(w, r.BestReport)
	return nil
}

func printAssessment(w io.Writer, a *refinement.Assessment) {
	headerColor.Fprintln(w, "Comprehensive assessment")
	fmt.Fprintf(w, "  cosine %.4f  precision %.4f  recall %.4f  f1 %.4f\n",
		a.CosineScore, a.Overlap.Precision, a.Overlap.Recall, a.Overlap.F1)
	fmt.Fprintf(w, "  overall %.4f, grade %s, %s\n", a.OverallScore, a.Grade, a.Recommendation)
}

func printThemes(w io.Writer, t *themes.Themes) {
	headerColor.Fprintln(w, "Themes")
	if t.Note != "" {
		dimColor.Fprintf(w, "  %s\n\n", t.Note)
		return
	}
	fmt.Fprintf(w, "  overall: %s\n", strings.Join(t.OverallThemes, ", "))
	for _, in := range t.Interviews {
		fmt.Fprintf(w, "  #%d  %-8s  %s\n", in.ID, in.Sentiment, strings.Join(in.MainTopics, ", "))
		if in.KeyQuote != "" {
			dimColor.Fprintf(w, "      %q\n", in.KeyQuote)
		}
	}
	fmt.Fprintln(w)
}

func printExperiment(w io.Writer, format string, e *refinement.Experiment) error {
	if format != OutputText {
		return encode(w, format, e)
	}

	headerColor.Fprintln(w, "Prompt variants")
	for _, trial := range e.Trials {
		line := fmt.Sprintf("  v%d  %-20s  overall %.4f  grade %s",
			trial.Version, trial.Name, trial.Assessment.OverallScore, trial.Assessment.Grade)
		if trial.Version == e.BestVersion {
			winnerColor.Fprintln(w, line+"  <- best")
			continue
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)

	best := e.Best()
	if best == nil {
		return nil
	}
	winnerColor.Fprintf(w, "Optimal prompt: version %d (score %.4f)\n\n", best.Version, best.Assessment.OverallScore)
	printAssessment(w, best.Assessment)
	fmt.Fprintln(w)
	headerColor.Fprintln(w, "Best report")
	fmt.Fprintln(w, best.Report)
	return nil
}

func printEntries(w io.Writer, format string, entries []store.Entry) error {
	if format != OutputText {
		return encode(w, format, entries)
	}

	if len(entries) == 0 {
		dimColor.Fprintln(w, "no evaluations recorded")
		return nil
	}

	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s  %-10s  %-40s  %-24s  #%d/%d  %.4f  %s  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			dimColor.Sprint(e.ID.String()[:8]),
			e.Source, e.Provider, e.Position,
			e.SelectedCandidate, e.Candidates,
			e.OverallScore, e.Grade, e.Recommendation,
		)
	}
	return nil
}
