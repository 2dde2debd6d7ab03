package vision_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/plandraft/plandraft"
	"github.com/plandraft/plandraft/vision"
)

// fixedReplyClient answers every review with the same text.
type fixedReplyClient struct {
	reply  string
	inputs []plandraft.Input
}

func (c *fixedReplyClient) NewSession(ctx context.Context, options ...plandraft.SessionOption) (plandraft.Session, error) {
	return &fixedReplySession{client: c}, nil
}

type fixedReplySession struct {
	client *fixedReplyClient
}

func (s *fixedReplySession) GenerateContent(ctx context.Context, input ...plandraft.Input) (*plandraft.Response, error) {
	s.client.inputs = append(s.client.inputs, input...)
	return &plandraft.Response{Texts: []string{s.client.reply}}, nil
}

func testImage() plandraft.Image {
	return plandraft.NewImage(plandraft.ImageMimeTypePNG, []byte{0x89, 0x50, 0x4e, 0x47})
}

func TestReviewer(t *testing.T) {
	ctx := context.Background()

	t.Run("sends prompt and images", func(t *testing.T) {
		client := &fixedReplyClient{reply: "VALIDATED"}
		reviewer := vision.NewReviewer(client, nil)

		feedback, err := reviewer.Review(ctx, testImage(), testImage())
		gt.NoError(t, err)
		gt.True(t, feedback.Validated)

		// One text prompt plus the two images.
		gt.Equal(t, 3, len(client.inputs))
	})

	t.Run("requires at least one image", func(t *testing.T) {
		reviewer := vision.NewReviewer(&fixedReplyClient{reply: "VALIDATED"}, nil)
		_, err := reviewer.Review(ctx)
		gt.Error(t, err)
	})
}

func TestValidator(t *testing.T) {
	ctx := context.Background()

	t.Run("corrections become a loop verdict", func(t *testing.T) {
		client := &fixedReplyClient{reply: "CORRECTIONS:\n- The kitchen overlaps the living room\n"}
		validator := vision.NewValidator(
			vision.NewReviewer(client, nil),
			vision.StaticSource{testImage()},
		)

		verdict, err := validator.Validate(ctx)
		gt.NoError(t, err)
		gt.False(t, verdict.Validated)
		gt.Equal(t, "- The kitchen overlaps the living room\n", verdict.Corrections)
	})

	t.Run("nothing to render passes by default", func(t *testing.T) {
		validator := vision.NewValidator(
			vision.NewReviewer(&fixedReplyClient{reply: "CORRECTIONS:\n- anything\n"}, nil),
			vision.StaticSource{},
		)

		verdict, err := validator.Validate(ctx)
		gt.NoError(t, err)
		gt.True(t, verdict.Validated)
	})
}
