package geometry

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/plandraft/plandraft"
)

func TestToolSpecs(t *testing.T) {
	specs := ToolSpecs()

	t.Run("every spec passes its own validation", func(t *testing.T) {
		for _, spec := range specs {
			gt.NoError(t, spec.Validate())
		}
	})

	t.Run("names are unique", func(t *testing.T) {
		seen := map[string]bool{}
		for _, spec := range specs {
			gt.False(t, seen[spec.Name])
			seen[spec.Name] = true
		}
	})
}

func TestToolsetValidate(t *testing.T) {
	ts, err := newToolset()
	gt.NoError(t, err)

	t.Run("valid call", func(t *testing.T) {
		err := ts.validate(call("create_room", map[string]any{
			"level_id": "L1", "name": "Kitchen", "room_type": "kitchen",
			"x": 0, "y": 0, "width": 12, "height": 10,
		}))
		gt.NoError(t, err)
	})

	t.Run("unknown tool", func(t *testing.T) {
		err := ts.validate(call("teleport_room", map[string]any{}))
		gt.Error(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := ts.validate(call("set_footprint", map[string]any{
			"level_id": "L1", "width": 40,
		}))
		gt.Error(t, err)
	})

	t.Run("enum violation", func(t *testing.T) {
		err := ts.validate(call("add_opening", map[string]any{
			"wall_id": "W1", "kind": "hatch", "offset": 0, "width": 3,
		}))
		gt.Error(t, err)
	})

	t.Run("minimum constraint", func(t *testing.T) {
		err := ts.validate(call("create_room", map[string]any{
			"level_id": "L1", "name": "Bad", "room_type": "closet",
			"x": 0, "y": 0, "width": -5, "height": 10,
		}))
		gt.Error(t, err)
	})

	t.Run("wrong argument type", func(t *testing.T) {
		err := ts.validate(call("add_level", map[string]any{"name": 42}))
		gt.Error(t, err)
	})

	t.Run("no-argument tool accepts an empty map", func(t *testing.T) {
		gt.NoError(t, ts.validate(call("get_plan_state", map[string]any{})))
	})

	t.Run("nil arguments validate like an empty object", func(t *testing.T) {
		gt.NoError(t, ts.validate(plandraft.ToolCall{ID: "c1", Name: "get_plan_state"}))
	})
}
