package vision_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/plandraft/plandraft/vision"
)

func TestParse(t *testing.T) {
	t.Run("validated replies", func(t *testing.T) {
		t.Run("bare token", func(t *testing.T) {
			fb := vision.Parse("VALIDATED")
			gt.True(t, fb.Validated)
			gt.Equal(t, 0, len(fb.Corrections))
		})

		t.Run("token inside a sentence", func(t *testing.T) {
			fb := vision.Parse("The plan looks good. Validated.")
			gt.True(t, fb.Validated)
		})

		t.Run("case insensitive", func(t *testing.T) {
			gt.True(t, vision.Parse("validated").Validated)
		})

		t.Run("token must stand alone", func(t *testing.T) {
			gt.False(t, vision.Parse("The plan is not yet REVALIDATED_OK").Validated)
		})
	})

	t.Run("corrections list", func(t *testing.T) {
		reply := "CORRECTIONS:\n" +
			"- The kitchen overlaps the living room\n" +
			"- No bathroom on the second floor, it is missing\n"
		fb := vision.Parse(reply)

		gt.False(t, fb.Validated)
		gt.Equal(t, 2, len(fb.Corrections))
		gt.Equal(t, "The kitchen overlaps the living room", fb.Corrections[0])
		gt.Equal(t, 2, len(fb.Issues))
		gt.Equal(t, vision.IssueOverlap, fb.Issues[0].Type)
		gt.Equal(t, vision.IssueMissingRoom, fb.Issues[1].Type)
	})

	t.Run("classification order is first match wins", func(t *testing.T) {
		// Mentions both an overlap and a missing room: overlap wins.
		fb := vision.Parse("CORRECTIONS:\n- The missing hallway would overlap the kitchen\n")
		gt.Equal(t, 1, len(fb.Issues))
		gt.Equal(t, vision.IssueOverlap, fb.Issues[0].Type)
	})

	t.Run("issue classification by keyword", func(t *testing.T) {
		cases := []struct {
			correction string
			issueType  vision.IssueType
		}{
			{"Rooms R1 and R2 overlap", vision.IssueOverlap},
			{"The garage is outside the footprint", vision.IssueOutOfBounds},
			{"A bathroom is missing", vision.IssueMissingRoom},
			{"The closet dimensions look wrong", vision.IssueWrongDimensions},
			{"The hallway is too narrow", vision.IssueWrongDimensions},
			{"The labels are unreadable", vision.IssueOther},
		}
		for _, c := range cases {
			fb := vision.Parse("CORRECTIONS:\n- " + c.correction + "\n")
			gt.Equal(t, 1, len(fb.Issues))
			gt.Equal(t, c.issueType, fb.Issues[0].Type)
		}
	})

	t.Run("reply without marker becomes one opaque correction", func(t *testing.T) {
		fb := vision.Parse("The plan has several problems I cannot enumerate.")
		gt.False(t, fb.Validated)
		gt.Equal(t, 1, len(fb.Corrections))
		gt.Equal(t, 1, len(fb.Issues))
		gt.Equal(t, vision.IssueOther, fb.Issues[0].Type)
	})

	t.Run("empty reply is not validated", func(t *testing.T) {
		fb := vision.Parse("")
		gt.False(t, fb.Validated)
		gt.Equal(t, 0, len(fb.Corrections))
	})
}

func TestEstimateCost(t *testing.T) {
	t.Run("three images at two tenths of a cent", func(t *testing.T) {
		estimate := vision.EstimateCost(3, 0.002)
		gt.Equal(t, 1680, estimate.Tokens)
		gt.Equal(t, 0.0034, estimate.USD)
	})

	t.Run("zero images cost nothing", func(t *testing.T) {
		estimate := vision.EstimateCost(0, 0.002)
		gt.Equal(t, 0, estimate.Tokens)
		gt.Equal(t, 0.0, estimate.USD)
	})

	t.Run("price rounds to four decimals", func(t *testing.T) {
		estimate := vision.EstimateCost(1, 0.003)
		gt.Equal(t, 560, estimate.Tokens)
		gt.Equal(t, 0.0017, estimate.USD)
	})
}
