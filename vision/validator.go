package vision

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/plandraft/plandraft"
)

// ReviewPrompt instructs the vision model how to report its verdict. The
// parser depends on the VALIDATED token and the CORRECTIONS: marker.
const ReviewPrompt = `You are reviewing rendered views of a floor plan drawn by a CAD assistant.
Check the views for these problems:
- rooms that overlap each other
- rooms or walls outside the building footprint
- rooms the design obviously needs but does not have
- rooms with unreasonable dimensions

If the plan looks correct, reply with the single word VALIDATED.
Otherwise reply with the line CORRECTIONS: followed by one problem per line, each starting with "- ".`

// Reviewer sends rendered plan views to a vision-capable model and parses
// the reply into structured feedback.
type Reviewer struct {
	llm    plandraft.LLMClient
	logger *slog.Logger
}

// NewReviewer creates a reviewer on top of a vision-capable LLM client.
func NewReviewer(llm plandraft.LLMClient, logger *slog.Logger) *Reviewer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reviewer{llm: llm, logger: logger}
}

// Review submits the rendered views for visual review. Each review runs in a
// fresh session; no state is shared between reviews.
func (r *Reviewer) Review(ctx context.Context, images ...plandraft.Image) (*Feedback, error) {
	if len(images) == 0 {
		return nil, goerr.Wrap(plandraft.ErrInvalidRequest, "visual review needs at least one image")
	}

	session, err := r.llm.NewSession(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create review session")
	}

	input := make([]plandraft.Input, 0, len(images)+1)
	input = append(input, plandraft.Text(ReviewPrompt))
	for _, img := range images {
		input = append(input, img)
	}

	resp, err := session.GenerateContent(ctx, input...)
	if err != nil {
		return nil, goerr.Wrap(err, "visual review call failed")
	}

	reply := strings.TrimSpace(strings.Join(resp.Texts, "\n"))
	feedback := Parse(reply)

	r.logger.Info("visual review completed",
		"images", len(images),
		"validated", feedback.Validated,
		"issues", len(feedback.Issues),
		"input_tokens", resp.InputToken,
		"output_tokens", resp.OutputToken,
	)
	return feedback, nil
}

// RenderSource supplies rendered plan views for validation. The web client
// posts its canvas renders; tests supply fixtures.
type RenderSource interface {
	Render(ctx context.Context) ([]plandraft.Image, error)
}

// StaticSource is a RenderSource over a fixed set of images.
type StaticSource []plandraft.Image

func (s StaticSource) Render(ctx context.Context) ([]plandraft.Image, error) {
	return s, nil
}

// Validator adapts a Reviewer and a RenderSource to the generation loop's
// post-hoc validation hook.
type Validator struct {
	reviewer *Reviewer
	source   RenderSource
}

var _ plandraft.Validator = &Validator{}

// NewValidator creates a loop validator from a reviewer and a render source.
func NewValidator(reviewer *Reviewer, source RenderSource) *Validator {
	return &Validator{reviewer: reviewer, source: source}
}

// Validate renders the current plan views and asks the vision model for a
// verdict. With nothing to render the plan passes by default; review only
// ever narrows success.
func (v *Validator) Validate(ctx context.Context) (*plandraft.Verdict, error) {
	images, err := v.source.Render(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to render plan views")
	}
	if len(images) == 0 {
		return &plandraft.Verdict{Validated: true}, nil
	}

	feedback, err := v.reviewer.Review(ctx, images...)
	if err != nil {
		return nil, err
	}
	if feedback.Validated {
		return &plandraft.Verdict{Validated: true}, nil
	}

	var sb strings.Builder
	for _, c := range feedback.Corrections {
		sb.WriteString("- ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}
	return &plandraft.Verdict{Validated: false, Corrections: sb.String()}, nil
}
