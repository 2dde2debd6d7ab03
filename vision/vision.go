// Package vision parses visual review replies from a vision-capable model
// into structured feedback, and drives the post-generation validation pass
// over rendered floor-plan views.
package vision

import (
	"math"
	"strings"
)

// IssueType classifies a correction raised during visual review.
type IssueType string

const (
	IssueOverlap         IssueType = "overlap"
	IssueOutOfBounds     IssueType = "out_of_bounds"
	IssueMissingRoom     IssueType = "missing_room"
	IssueWrongDimensions IssueType = "wrong_dimensions"
	IssueOther           IssueType = "other"
)

// Issue is one problem the reviewer found in the rendered plan.
type Issue struct {
	Type        IssueType `json:"type"`
	Description string    `json:"description"`
}

// Feedback is the structured form of a visual review reply.
type Feedback struct {
	Validated   bool     `json:"validated"`
	Corrections []string `json:"corrections,omitempty"`
	Issues      []Issue  `json:"issues,omitempty"`
}

// correctionsMarker introduces the list of problems in a review reply.
const correctionsMarker = "CORRECTIONS:"

// Parse converts a raw review reply into structured feedback. It is total:
// any input produces a feedback value, never an error. A reply carrying the
// standalone word VALIDATED counts as approval. Otherwise problems are read
// from dash lines after a CORRECTIONS: marker; a reply with neither becomes
// a single opaque correction.
func Parse(text string) *Feedback {
	text = strings.TrimSpace(text)

	if containsToken(text, "VALIDATED") {
		return &Feedback{Validated: true}
	}

	feedback := &Feedback{}

	idx := strings.Index(strings.ToUpper(text), correctionsMarker)
	if idx < 0 {
		if text != "" {
			feedback.Corrections = []string{text}
			feedback.Issues = []Issue{{Type: IssueOther, Description: text}}
		}
		return feedback
	}

	rest := text[idx+len(correctionsMarker):]
	for _, line := range strings.Split(rest, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}
		correction := strings.TrimSpace(strings.TrimPrefix(line, "-"))
		if correction == "" {
			continue
		}
		feedback.Corrections = append(feedback.Corrections, correction)
		feedback.Issues = append(feedback.Issues, Issue{
			Type:        classify(correction),
			Description: correction,
		})
	}

	// A marker with no dash lines still means the reviewer was not satisfied.
	if len(feedback.Corrections) == 0 && rest != "" {
		rest = strings.TrimSpace(rest)
		if rest != "" {
			feedback.Corrections = []string{rest}
			feedback.Issues = []Issue{{Type: classify(rest), Description: rest}}
		}
	}

	return feedback
}

// issueKeywords maps each issue type to its trigger words, in classification
// order. The first matching type wins.
var issueKeywords = []struct {
	issueType IssueType
	keywords  []string
}{
	{IssueOverlap, []string{"overlap", "overlapping", "intersect", "collide"}},
	{IssueOutOfBounds, []string{"out of bounds", "outside", "beyond", "exceeds the footprint", "off the plan"}},
	{IssueMissingRoom, []string{"missing", "no room", "absent", "lacks"}},
	{IssueWrongDimensions, []string{"dimension", "too small", "too large", "too narrow", "too wide", "wrong size", "undersized", "oversized"}},
}

// classify assigns an issue type to a correction by keyword, first match wins.
func classify(correction string) IssueType {
	lower := strings.ToLower(correction)
	for _, entry := range issueKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return entry.issueType
			}
		}
	}
	return IssueOther
}

// containsToken reports whether text contains word as a standalone token,
// case-insensitive.
func containsToken(text, word string) bool {
	upper := strings.ToUpper(text)
	word = strings.ToUpper(word)
	idx := 0
	for {
		i := strings.Index(upper[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(upper[start-1])
		afterOK := end == len(upper) || !isWordChar(upper[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '_'
}

// tokensPerImage is the flat token charge assumed per rendered view.
const tokensPerImage = 560

// CostEstimate is the projected token usage and price of a review call.
type CostEstimate struct {
	Tokens int     `json:"tokens"`
	USD    float64 `json:"usd"`
}

// EstimateCost projects the cost of reviewing imageCount rendered views at
// usdPer1KTokens. The estimate charges a flat per-image token count; the
// price is rounded to four decimal places.
func EstimateCost(imageCount int, usdPer1KTokens float64) CostEstimate {
	tokens := tokensPerImage * imageCount
	usd := float64(tokens) / 1000.0 * usdPer1KTokens
	usd = math.Round(usd*10000) / 10000
	return CostEstimate{Tokens: tokens, USD: usd}
}
