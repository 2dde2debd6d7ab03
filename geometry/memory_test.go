package geometry

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/plandraft/plandraft"
)

func call(name string, args map[string]any) plandraft.ToolCall {
	return plandraft.ToolCall{ID: name + "_1", Name: name, Arguments: args}
}

func newExecutor(t *testing.T) *MemoryExecutor {
	t.Helper()
	executor, err := NewMemoryExecutor()
	gt.NoError(t, err)
	return executor
}

func TestMemoryExecutor(t *testing.T) {
	ctx := context.Background()

	t.Run("builds a plan step by step", func(t *testing.T) {
		e := newExecutor(t)

		result := e.Execute(ctx, call("add_level", map[string]any{"name": "Ground Floor"}))
		gt.Equal(t, plandraft.StatusOK, result.Status)
		gt.Equal(t, "L1", result.Data["level_id"])
		gt.True(t, strings.Contains(result.WhatChanged, "added level L1"))

		result = e.Execute(ctx, call("set_footprint", map[string]any{
			"level_id": "L1", "width": 40, "depth": 30,
		}))
		gt.Equal(t, plandraft.StatusOK, result.Status)
		gt.Equal(t, 1200.0, result.Data["area"])

		result = e.Execute(ctx, call("create_room", map[string]any{
			"level_id": "L1", "name": "Kitchen", "room_type": "kitchen",
			"x": 0, "y": 0, "width": 12, "height": 10,
		}))
		gt.Equal(t, plandraft.StatusOK, result.Status)
		gt.Equal(t, "R1", result.Data["room_id"])

		result = e.Execute(ctx, call("create_wall", map[string]any{
			"level_id": "L1", "x1": 0, "y1": 0, "x2": 40, "y2": 0,
		}))
		gt.Equal(t, plandraft.StatusOK, result.Status)
		gt.Equal(t, "W1", result.Data["wall_id"])

		result = e.Execute(ctx, call("add_opening", map[string]any{
			"wall_id": "W1", "kind": "door", "offset": 3, "width": 3,
		}))
		gt.Equal(t, plandraft.StatusOK, result.Status)
		gt.Equal(t, "O1", result.Data["opening_id"])

		snapshot := e.Snapshot()
		gt.True(t, strings.Contains(snapshot, "level L1 (Ground Floor)"))
		gt.True(t, strings.Contains(snapshot, "footprint 40x30"))
		gt.True(t, strings.Contains(snapshot, `room R1 "Kitchen" (kitchen)`))
		gt.True(t, strings.Contains(snapshot, "1 walls, 1 openings"))
	})

	t.Run("every result carries the state snapshot", func(t *testing.T) {
		e := newExecutor(t)

		result := e.Execute(ctx, call("add_level", map[string]any{"name": "L"}))
		gt.Equal(t, result.StateForLLM, e.Snapshot())

		result = e.Execute(ctx, call("get_plan_state", map[string]any{}))
		gt.Equal(t, plandraft.StatusOK, result.Status)
		gt.True(t, result.StateForLLM != "")
	})

	t.Run("ids are minted sequentially", func(t *testing.T) {
		e := newExecutor(t)

		first := e.Execute(ctx, call("add_level", map[string]any{"name": "First"}))
		second := e.Execute(ctx, call("add_level", map[string]any{"name": "Second", "elevation": 9}))
		gt.Equal(t, "L1", first.Data["level_id"])
		gt.Equal(t, "L2", second.Data["level_id"])
	})

	t.Run("room types normalize to canonical names", func(t *testing.T) {
		e := newExecutor(t)
		e.Execute(ctx, call("add_level", map[string]any{"name": "L"}))

		result := e.Execute(ctx, call("create_room", map[string]any{
			"level_id": "L1", "name": "Bath", "room_type": "bathroom",
			"x": 0, "y": 0, "width": 6, "height": 8,
		}))
		gt.Equal(t, plandraft.StatusOK, result.Status)
		gt.True(t, strings.Contains(e.Snapshot(), "(bathroom)"))
	})

	t.Run("remove_room deletes and later ids stay stable", func(t *testing.T) {
		e := newExecutor(t)
		e.Execute(ctx, call("add_level", map[string]any{"name": "L"}))
		e.Execute(ctx, call("create_room", map[string]any{
			"level_id": "L1", "name": "A", "room_type": "bedroom",
			"x": 0, "y": 0, "width": 10, "height": 10,
		}))

		result := e.Execute(ctx, call("remove_room", map[string]any{"room_id": "R1"}))
		gt.Equal(t, plandraft.StatusOK, result.Status)

		result = e.Execute(ctx, call("create_room", map[string]any{
			"level_id": "L1", "name": "B", "room_type": "bedroom",
			"x": 0, "y": 0, "width": 10, "height": 10,
		}))
		gt.Equal(t, "R2", result.Data["room_id"])
	})
}

func TestMemoryExecutorErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("failures are error results, never panics or Go errors", func(t *testing.T) {
		e := newExecutor(t)

		cases := []plandraft.ToolCall{
			call("no_such_tool", map[string]any{}),
			call("create_room", map[string]any{"level_id": "L9"}),
			call("set_footprint", map[string]any{"level_id": "L9", "width": 40, "depth": 30}),
			call("remove_room", map[string]any{"room_id": "R9"}),
			call("add_opening", map[string]any{"wall_id": "W9", "kind": "door", "offset": 0, "width": 3}),
			call("add_level", map[string]any{"name": 42}),
		}
		for _, c := range cases {
			result := e.Execute(ctx, c)
			gt.Equal(t, plandraft.StatusError, result.Status)
			gt.True(t, result.Message != "")
		}
	})

	t.Run("schema violations are rejected before dispatch", func(t *testing.T) {
		e := newExecutor(t)
		e.Execute(ctx, call("add_level", map[string]any{"name": "L"}))

		// Missing required fields.
		result := e.Execute(ctx, call("create_room", map[string]any{"level_id": "L1"}))
		gt.Equal(t, plandraft.StatusError, result.Status)

		// Enum violation.
		result = e.Execute(ctx, call("add_opening", map[string]any{
			"wall_id": "W1", "kind": "hatch", "offset": 0, "width": 3,
		}))
		gt.Equal(t, plandraft.StatusError, result.Status)
	})

	t.Run("zero dimensions are rejected", func(t *testing.T) {
		e := newExecutor(t)
		e.Execute(ctx, call("add_level", map[string]any{"name": "L"}))

		result := e.Execute(ctx, call("create_room", map[string]any{
			"level_id": "L1", "name": "Bad", "room_type": "closet",
			"x": 0, "y": 0, "width": 0, "height": 5,
		}))
		gt.Equal(t, plandraft.StatusError, result.Status)
	})

	t.Run("zero-width openings are rejected", func(t *testing.T) {
		e := newExecutor(t)
		e.Execute(ctx, call("add_level", map[string]any{"name": "L"}))
		e.Execute(ctx, call("create_wall", map[string]any{
			"level_id": "L1", "x1": 0, "y1": 0, "x2": 20, "y2": 0,
		}))

		result := e.Execute(ctx, call("add_opening", map[string]any{
			"wall_id": "W1", "kind": "door", "offset": 3, "width": 0,
		}))
		gt.Equal(t, plandraft.StatusError, result.Status)
		gt.True(t, result.Message != "")
	})

	t.Run("degenerate walls are rejected", func(t *testing.T) {
		e := newExecutor(t)
		e.Execute(ctx, call("add_level", map[string]any{"name": "L"}))

		result := e.Execute(ctx, call("create_wall", map[string]any{
			"level_id": "L1", "x1": 5, "y1": 5, "x2": 5, "y2": 5,
		}))
		gt.Equal(t, plandraft.StatusError, result.Status)
	})
}

func TestMemoryExecutorWarnings(t *testing.T) {
	ctx := context.Background()

	t.Run("overlapping rooms are flagged", func(t *testing.T) {
		e := newExecutor(t)
		e.Execute(ctx, call("add_level", map[string]any{"name": "L"}))
		e.Execute(ctx, call("create_room", map[string]any{
			"level_id": "L1", "name": "Kitchen", "room_type": "kitchen",
			"x": 0, "y": 0, "width": 12, "height": 10,
		}))
		e.Execute(ctx, call("create_room", map[string]any{
			"level_id": "L1", "name": "Dining", "room_type": "dining_room",
			"x": 10, "y": 0, "width": 12, "height": 10,
		}))

		gt.True(t, strings.Contains(e.Snapshot(), "overlap"))
	})

	t.Run("adjacent rooms sharing an edge do not overlap", func(t *testing.T) {
		e := newExecutor(t)
		e.Execute(ctx, call("add_level", map[string]any{"name": "L"}))
		e.Execute(ctx, call("create_room", map[string]any{
			"level_id": "L1", "name": "Kitchen", "room_type": "kitchen",
			"x": 0, "y": 0, "width": 12, "height": 10,
		}))
		e.Execute(ctx, call("create_room", map[string]any{
			"level_id": "L1", "name": "Dining", "room_type": "dining_room",
			"x": 12, "y": 0, "width": 12, "height": 10,
		}))

		gt.False(t, strings.Contains(e.Snapshot(), "overlap"))
	})

	t.Run("rooms outside the footprint are flagged", func(t *testing.T) {
		e := newExecutor(t)
		e.Execute(ctx, call("add_level", map[string]any{"name": "L"}))
		e.Execute(ctx, call("set_footprint", map[string]any{"level_id": "L1", "width": 20, "depth": 20}))
		e.Execute(ctx, call("create_room", map[string]any{
			"level_id": "L1", "name": "Garage", "room_type": "garage",
			"x": 15, "y": 0, "width": 12, "height": 10,
		}))

		gt.True(t, strings.Contains(e.Snapshot(), "outside the footprint"))
	})
}
