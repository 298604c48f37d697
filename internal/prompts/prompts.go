// Package prompts renders the prompt templates sent to generation providers.
package prompts

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
)

// DefaultLanguage is the output language requested from providers.
const DefaultLanguage = "Korean"

var (
	//go:embed templates/system.md
	systemTemplate string
	//go:embed templates/justification.md
	justificationTemplate string
	//go:embed templates/cross_analysis.md
	crossAnalysisTemplate string
	//go:embed templates/generation.md
	generationTemplate string
	//go:embed templates/refinement.md
	refinementTemplate string
	//go:embed templates/refinement_hint.md
	refinementHintTemplate string
	//go:embed templates/cross_interview.md
	crossInterviewTemplate string
	//go:embed templates/themes.md
	themesTemplate string
)

func render(template string, pairs ...string) string {
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(template))
}

func language(lang string) string {
	if lang = strings.TrimSpace(lang); lang == "" {
		return DefaultLanguage
	}
	return lang
}

// System is the system instruction shared by all generation calls.
func System(lang string) string {
	return render(systemTemplate, "{{LANGUAGE}}", language(lang))
}

// NumberedList renders texts as "<label> N: text" lines.
func NumberedList(label string, texts []string) string {
	lines := make([]string, len(texts))
	for i, text := range texts {
		lines[i] = fmt.Sprintf("%s %d: %s", label, i+1, strings.TrimSpace(text))
	}
	return strings.Join(lines, "\n")
}

// Justification asks for the reasoning behind the selected candidate (1-based).
func Justification(lang, reference string, candidates []string, selected int) string {
	return render(justificationTemplate,
		"{{LANGUAGE}}", language(lang),
		"{{REFERENCE}}", strings.TrimSpace(reference),
		"{{CANDIDATES}}", NumberedList("Candidate", candidates),
		"{{SELECTED}}", strconv.Itoa(selected),
	)
}

// CrossAnalysis asks for the comparative report over all candidates.
func CrossAnalysis(lang, position, reference string, candidates []string) string {
	return render(crossAnalysisTemplate,
		"{{LANGUAGE}}", language(lang),
		"{{COUNT}}", strconv.Itoa(len(candidates)),
		"{{POSITION}}", strings.TrimSpace(position),
		"{{REFERENCE}}", strings.TrimSpace(reference),
		"{{CANDIDATES}}", NumberedList("Candidate", candidates),
	)
}

// CandidateTag is the section tag of candidate n in generated interviews.
func CandidateTag(n int) string {
	return fmt.Sprintf("[CANDIDATE %d]", n)
}

const (
	QuestionTag  = "[QUESTION]"
	ReferenceTag = "[REFERENCE]"
)

// Generation asks for a question, candidates answers graded from expert to
// junior and a reference answer.
func Generation(lang, position string, candidates int) string {
	sections := make([]string, candidates)
	for i := range sections {
		sections[i] = CandidateTag(i+1) + "\n(" + levelHint(i, candidates) + ")"
	}

	return render(generationTemplate,
		"{{LANGUAGE}}", language(lang),
		"{{POSITION}}", strings.TrimSpace(position),
		"{{CANDIDATE_SECTIONS}}", strings.Join(sections, "\n\n"),
	)
}

func levelHint(i, total int) string {
	switch {
	case i == 0:
		return "a top-level answer: technical principles, trade-offs and performance considerations in depth"
	case i == total-1:
		return "a junior-level answer: basic definitions only, three or four sentences"
	default:
		return "an intermediate answer: the core concepts are present but insight is limited"
	}
}

// Refinement renders the analysis prompt of the refinement loop. hint is empty
// on the first iteration.
func Refinement(candidates []string, hint string) string {
	return render(refinementTemplate,
		"{{CANDIDATES}}", NumberedList("Interview", candidates),
		"{{HINT}}", hint,
	)
}

// RefinementHint feeds the previous score and reference keywords back into
// the next iteration.
func RefinementHint(previousScore float64, keywords string) string {
	return "\n" + render(refinementHintTemplate,
		"{{PREVIOUS_SCORE}}", strconv.FormatFloat(previousScore, 'f', 4, 64),
		"{{KEYWORDS}}", keywords,
	) + "\n"
}

// Themes asks for per-interview topics, sentiment and a key quote plus the
// overall themes as a single JSON object.
func Themes(transcripts []string) string {
	return render(themesTemplate, "{{CANDIDATES}}", NumberedList("Interview", transcripts))
}

// Variant is a named analysis prompt template. Templates reference the
// interviews with {{CANDIDATES}}.
type Variant struct {
	Name     string
	Template string
}

// DefaultVariants returns the built-in analysis prompts compared by the
// prompt experiment.
func DefaultVariants() []Variant {
	return []Variant{
		{Name: "integrated-report", Template: refinementTemplate},
		{Name: "cross-interview", Template: crossInterviewTemplate},
	}
}

// RenderVariant fills template with the interviews. Templates without the
// placeholder get the interviews appended.
func RenderVariant(template string, transcripts []string) string {
	interviews := NumberedList("Interview", transcripts)
	if !strings.Contains(template, "{{CANDIDATES}}") {
		template = strings.TrimSpace(template) + "\n\nInterview data:\n{{CANDIDATES}}"
	}
	return render(template, "{{CANDIDATES}}", interviews, "{{HINT}}", "")
}
