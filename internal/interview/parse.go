package interview

import (
	"regexp"
	"strings"

	"github.com/spigell/interview-analyzer/internal/prompts"
)

// Sections holds the raw text found under each tag. Missing sections are empty.
type Sections struct {
	Question   string
	Candidates []string
	Reference  string
}

// Parse splits generated text by the [QUESTION], [CANDIDATE N] and
// [REFERENCE] tags, case-insensitively. A section ends where the next known
// tag starts.
func Parse(raw string, candidates int) Sections {
	tags := make([]string, 0, candidates+2)
	tags = append(tags, prompts.QuestionTag)
	for i := 1; i <= candidates; i++ {
		tags = append(tags, prompts.CandidateTag(i))
	}
	tags = append(tags, prompts.ReferenceTag)

	type located struct {
		tag   string
		start int
		end   int
	}
	found := make([]located, 0, len(tags))
	for _, tag := range tags {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(tag))
		if loc := re.FindStringIndex(raw); loc != nil {
			found = append(found, located{tag: tag, start: loc[0], end: loc[1]})
		}
	}

	section := func(tag string) string {
		for _, loc := range found {
			if loc.tag != tag {
				continue
			}
			begin := loc.end
			end := len(raw)
			for _, other := range found {
				if other.start > loc.start && other.start < end {
					end = other.start
				}
			}
			return strings.TrimSpace(raw[begin:end])
		}
		return ""
	}

	out := Sections{
		Question:   section(prompts.QuestionTag),
		Candidates: make([]string, candidates),
		Reference:  section(prompts.ReferenceTag),
	}
	for i := range out.Candidates {
		out.Candidates[i] = section(prompts.CandidateTag(i + 1))
	}
	return out
}
