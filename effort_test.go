package plandraft

import (
	"testing"

	"github.com/m-mizutani/gt"
)

func TestEffortForPrompt(t *testing.T) {
	t.Run("design vocabulary raises effort", func(t *testing.T) {
		gt.Equal(t, EffortHigh, EffortForPrompt("Design a 3 bedroom house"))
		gt.Equal(t, EffortHigh, EffortForPrompt("create a small cabin layout"))
		gt.Equal(t, EffortHigh, EffortForPrompt("please REDESIGN the second floor"))
		gt.Equal(t, EffortHigh, EffortForPrompt("generate a floorplan"))
	})

	t.Run("queries stay low effort", func(t *testing.T) {
		gt.Equal(t, EffortLow, EffortForPrompt("What rooms are on the first level?"))
		gt.Equal(t, EffortLow, EffortForPrompt("how big is the kitchen"))
		gt.Equal(t, EffortLow, EffortForPrompt(""))
	})

	t.Run("only whole words match", func(t *testing.T) {
		gt.Equal(t, EffortLow, EffortForPrompt("who is the designer of this software"))
		gt.Equal(t, EffortLow, EffortForPrompt("show me the building"))
	})

	t.Run("classification is deterministic", func(t *testing.T) {
		prompt := "Plan a two story home"
		first := EffortForPrompt(prompt)
		for i := 0; i < 10; i++ {
			gt.Equal(t, first, EffortForPrompt(prompt))
		}
	})
}
