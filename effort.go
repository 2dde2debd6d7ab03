package plandraft

import "strings"

// Effort is the thinking effort tier passed to the provider. Each provider
// maps it to its own knob: Gemini thinking budget, Claude token headroom,
// Grok reasoning_effort.
type Effort int

const (
	EffortLow Effort = iota
	EffortHigh
)

func (e Effort) String() string {
	if e == EffortHigh {
		return "high"
	}
	return "low"
}

// designVocabulary is the fixed keyword set that marks a prompt as a
// multi-step design task. Matching is case-insensitive on whole words.
var designVocabulary = []string{
	"design",
	"create",
	"layout",
	"generate",
	"build",
	"plan",
	"redesign",
	"draw",
	"floorplan",
	"remodel",
}

// EffortForPrompt classifies a prompt into an effort tier by keyword match
// against a fixed vocabulary. Deterministic and stateless: the same prompt
// always yields the same tier.
func EffortForPrompt(prompt string) Effort {
	words := strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	for _, kw := range designVocabulary {
		if _, ok := seen[kw]; ok {
			return EffortHigh
		}
	}
	return EffortLow
}
