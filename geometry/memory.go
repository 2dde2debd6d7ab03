package geometry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mitchellh/mapstructure"

	"github.com/plandraft/plandraft"
)

// MemoryExecutor simulates the geometry backend in memory. It is used when
// the real geometry server is unreachable, or when a request asks for the
// mock backend explicitly. One instance holds the state of one generation
// request; it is not safe for concurrent use and is not meant to be shared.
type MemoryExecutor struct {
	tools *toolset

	levels   []*Level
	rooms    []*Room
	walls    []*Wall
	openings []*Opening

	levelSeq   int
	roomSeq    int
	wallSeq    int
	openingSeq int
}

var _ plandraft.ToolExecutor = &MemoryExecutor{}

// NewMemoryExecutor creates a fresh in-memory executor with empty plan state.
func NewMemoryExecutor() (*MemoryExecutor, error) {
	tools, err := newToolset()
	if err != nil {
		return nil, err
	}
	return &MemoryExecutor{tools: tools}, nil
}

func (e *MemoryExecutor) Specs(ctx context.Context) ([]plandraft.ToolSpec, error) {
	return e.tools.specs, nil
}

// Execute runs one tool call against the in-memory plan. It never returns a
// Go error: all failures become StatusError results with a message the model
// can act on.
func (e *MemoryExecutor) Execute(ctx context.Context, call plandraft.ToolCall) plandraft.ToolResult {
	if err := e.tools.validate(call); err != nil {
		return errorResult(err)
	}

	var result plandraft.ToolResult
	var err error

	switch call.Name {
	case "add_level":
		result, err = e.addLevel(call.Arguments)
	case "set_footprint":
		result, err = e.setFootprint(call.Arguments)
	case "create_room":
		result, err = e.createRoom(call.Arguments)
	case "create_wall":
		result, err = e.createWall(call.Arguments)
	case "add_opening":
		result, err = e.addOpening(call.Arguments)
	case "remove_room":
		result, err = e.removeRoom(call.Arguments)
	case "get_plan_state":
		result = plandraft.ToolResult{Status: plandraft.StatusOK}
	default:
		err = goerr.New("unknown tool", goerr.V("tool", call.Name))
	}

	if err != nil {
		return errorResult(err)
	}

	result.StateForLLM = e.Snapshot()
	return result
}

func errorResult(err error) plandraft.ToolResult {
	msg := "tool execution failed"
	if err != nil {
		msg = err.Error()
	}
	return plandraft.ToolResult{Status: plandraft.StatusError, Message: msg}
}

func decodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to build argument decoder")
	}
	if err := decoder.Decode(args); err != nil {
		return goerr.Wrap(err, "failed to decode arguments")
	}
	return nil
}

type addLevelArgs struct {
	Name         string  `mapstructure:"name"`
	Elevation    float64 `mapstructure:"elevation"`
	FloorToFloor float64 `mapstructure:"floor_to_floor"`
}

func (e *MemoryExecutor) addLevel(args map[string]any) (plandraft.ToolResult, error) {
	var a addLevelArgs
	if err := decodeArgs(args, &a); err != nil {
		return plandraft.ToolResult{}, err
	}
	if a.FloorToFloor == 0 {
		a.FloorToFloor = 9
	}

	e.levelSeq++
	level := &Level{
		ID:           fmt.Sprintf("L%d", e.levelSeq),
		Name:         a.Name,
		Elevation:    a.Elevation,
		FloorToFloor: a.FloorToFloor,
	}
	e.levels = append(e.levels, level)

	return plandraft.ToolResult{
		Status:      plandraft.StatusOK,
		Data:        map[string]any{"level_id": level.ID},
		WhatChanged: fmt.Sprintf("added level %s (%s) at elevation %s", level.ID, level.Name, formatDim(level.Elevation)),
	}, nil
}

type setFootprintArgs struct {
	LevelID string  `mapstructure:"level_id"`
	Width   float64 `mapstructure:"width"`
	Depth   float64 `mapstructure:"depth"`
}

func (e *MemoryExecutor) setFootprint(args map[string]any) (plandraft.ToolResult, error) {
	var a setFootprintArgs
	if err := decodeArgs(args, &a); err != nil {
		return plandraft.ToolResult{}, err
	}

	level := e.findLevel(a.LevelID)
	if level == nil {
		return plandraft.ToolResult{}, goerr.New("level not found", goerr.V("level_id", a.LevelID))
	}
	if a.Width <= 0 || a.Depth <= 0 {
		return plandraft.ToolResult{}, goerr.New("footprint dimensions must be positive",
			goerr.V("width", a.Width), goerr.V("depth", a.Depth))
	}

	level.Footprint = &Rect{X: 0, Y: 0, Width: a.Width, Height: a.Depth}

	return plandraft.ToolResult{
		Status:      plandraft.StatusOK,
		Data:        map[string]any{"level_id": level.ID, "area": level.Footprint.Area()},
		WhatChanged: fmt.Sprintf("set %sx%s footprint on level %s", formatDim(a.Width), formatDim(a.Depth), level.ID),
	}, nil
}

type createRoomArgs struct {
	LevelID  string  `mapstructure:"level_id"`
	Name     string  `mapstructure:"name"`
	RoomType string  `mapstructure:"room_type"`
	X        float64 `mapstructure:"x"`
	Y        float64 `mapstructure:"y"`
	Width    float64 `mapstructure:"width"`
	Height   float64 `mapstructure:"height"`
}

func (e *MemoryExecutor) createRoom(args map[string]any) (plandraft.ToolResult, error) {
	var a createRoomArgs
	if err := decodeArgs(args, &a); err != nil {
		return plandraft.ToolResult{}, err
	}

	level := e.findLevel(a.LevelID)
	if level == nil {
		return plandraft.ToolResult{}, goerr.New("level not found", goerr.V("level_id", a.LevelID))
	}
	if a.Width <= 0 || a.Height <= 0 {
		return plandraft.ToolResult{}, goerr.New("room dimensions must be positive",
			goerr.V("width", a.Width), goerr.V("height", a.Height))
	}

	e.roomSeq++
	room := &Room{
		ID:      fmt.Sprintf("R%d", e.roomSeq),
		LevelID: level.ID,
		Name:    a.Name,
		Type:    NormalizeRoomType(a.RoomType),
		Bounds:  Rect{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height},
	}
	e.rooms = append(e.rooms, room)

	return plandraft.ToolResult{
		Status: plandraft.StatusOK,
		Data:   map[string]any{"room_id": room.ID, "area": room.Bounds.Area()},
		WhatChanged: fmt.Sprintf("created %s %s (%sx%s) on level %s",
			RoomTypeDisplayName(room.Type), room.ID, formatDim(a.Width), formatDim(a.Height), level.ID),
	}, nil
}

type createWallArgs struct {
	LevelID string  `mapstructure:"level_id"`
	X1      float64 `mapstructure:"x1"`
	Y1      float64 `mapstructure:"y1"`
	X2      float64 `mapstructure:"x2"`
	Y2      float64 `mapstructure:"y2"`
	Height  float64 `mapstructure:"height"`
}

func (e *MemoryExecutor) createWall(args map[string]any) (plandraft.ToolResult, error) {
	var a createWallArgs
	if err := decodeArgs(args, &a); err != nil {
		return plandraft.ToolResult{}, err
	}

	level := e.findLevel(a.LevelID)
	if level == nil {
		return plandraft.ToolResult{}, goerr.New("level not found", goerr.V("level_id", a.LevelID))
	}
	if a.X1 == a.X2 && a.Y1 == a.Y2 {
		return plandraft.ToolResult{}, goerr.New("wall start and end points are identical")
	}
	if a.Height == 0 {
		a.Height = level.FloorToFloor
	}

	e.wallSeq++
	wall := &Wall{
		ID:      fmt.Sprintf("W%d", e.wallSeq),
		LevelID: level.ID,
		X1:      a.X1, Y1: a.Y1, X2: a.X2, Y2: a.Y2,
		Height: a.Height,
	}
	e.walls = append(e.walls, wall)

	return plandraft.ToolResult{
		Status: plandraft.StatusOK,
		Data:   map[string]any{"wall_id": wall.ID},
		WhatChanged: fmt.Sprintf("created wall %s from (%s,%s) to (%s,%s) on level %s",
			wall.ID, formatDim(a.X1), formatDim(a.Y1), formatDim(a.X2), formatDim(a.Y2), level.ID),
	}, nil
}

type addOpeningArgs struct {
	WallID string  `mapstructure:"wall_id"`
	Kind   string  `mapstructure:"kind"`
	Offset float64 `mapstructure:"offset"`
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

func (e *MemoryExecutor) addOpening(args map[string]any) (plandraft.ToolResult, error) {
	var a addOpeningArgs
	if err := decodeArgs(args, &a); err != nil {
		return plandraft.ToolResult{}, err
	}

	var wall *Wall
	for _, w := range e.walls {
		if w.ID == a.WallID {
			wall = w
			break
		}
	}
	if wall == nil {
		return plandraft.ToolResult{}, goerr.New("wall not found", goerr.V("wall_id", a.WallID))
	}
	if a.Width <= 0 {
		return plandraft.ToolResult{}, goerr.New("opening width must be positive", goerr.V("width", a.Width))
	}
	if a.Height == 0 {
		if a.Kind == "door" {
			a.Height = 6.8
		} else {
			a.Height = 4
		}
	}

	e.openingSeq++
	opening := &Opening{
		ID:     fmt.Sprintf("O%d", e.openingSeq),
		WallID: wall.ID,
		Kind:   a.Kind,
		Offset: a.Offset,
		Width:  a.Width,
		Height: a.Height,
	}
	e.openings = append(e.openings, opening)

	return plandraft.ToolResult{
		Status:      plandraft.StatusOK,
		Data:        map[string]any{"opening_id": opening.ID},
		WhatChanged: fmt.Sprintf("added %s %s to wall %s", a.Kind, opening.ID, wall.ID),
	}, nil
}

type removeRoomArgs struct {
	RoomID string `mapstructure:"room_id"`
}

func (e *MemoryExecutor) removeRoom(args map[string]any) (plandraft.ToolResult, error) {
	var a removeRoomArgs
	if err := decodeArgs(args, &a); err != nil {
		return plandraft.ToolResult{}, err
	}

	for i, room := range e.rooms {
		if room.ID == a.RoomID {
			e.rooms = append(e.rooms[:i], e.rooms[i+1:]...)
			return plandraft.ToolResult{
				Status:      plandraft.StatusOK,
				WhatChanged: fmt.Sprintf("removed room %s (%s)", room.ID, room.Name),
			}, nil
		}
	}
	return plandraft.ToolResult{}, goerr.New("room not found", goerr.V("room_id", a.RoomID))
}

func (e *MemoryExecutor) findLevel(id string) *Level {
	if id == "" && len(e.levels) == 1 {
		return e.levels[0]
	}
	for _, level := range e.levels {
		if level.ID == id {
			return level
		}
	}
	return nil
}

// Snapshot renders the plan state as compact text for the model: levels with
// footprints, rooms with dimensions and areas, wall and opening counts, and
// consistency warnings (overlapping rooms, rooms outside the footprint).
func (e *MemoryExecutor) Snapshot() string {
	if len(e.levels) == 0 {
		return "empty plan: no levels yet"
	}

	var sb strings.Builder
	for _, level := range e.levels {
		sb.WriteString(fmt.Sprintf("level %s (%s), elevation %s", level.ID, level.Name, formatDim(level.Elevation)))
		if level.Footprint != nil {
			sb.WriteString(fmt.Sprintf(", footprint %sx%s", formatDim(level.Footprint.Width), formatDim(level.Footprint.Height)))
		}
		sb.WriteString("\n")

		for _, room := range e.roomsOn(level.ID) {
			sb.WriteString(fmt.Sprintf("  room %s %q (%s) at (%s,%s) size %sx%s, area %s sqft\n",
				room.ID, room.Name, room.Type,
				formatDim(room.Bounds.X), formatDim(room.Bounds.Y),
				formatDim(room.Bounds.Width), formatDim(room.Bounds.Height),
				formatDim(room.Bounds.Area())))
		}
	}

	if len(e.walls) > 0 || len(e.openings) > 0 {
		sb.WriteString(fmt.Sprintf("%d walls, %d openings\n", len(e.walls), len(e.openings)))
	}

	for _, warning := range e.warnings() {
		sb.WriteString("warning: " + warning + "\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (e *MemoryExecutor) roomsOn(levelID string) []*Room {
	rooms := make([]*Room, 0, len(e.rooms))
	for _, room := range e.rooms {
		if room.LevelID == levelID {
			rooms = append(rooms, room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}

func (e *MemoryExecutor) warnings() []string {
	var warnings []string

	for i := 0; i < len(e.rooms); i++ {
		for j := i + 1; j < len(e.rooms); j++ {
			a, b := e.rooms[i], e.rooms[j]
			if a.LevelID == b.LevelID && a.Bounds.Overlaps(b.Bounds) {
				warnings = append(warnings, fmt.Sprintf("rooms %s (%s) and %s (%s) overlap", a.ID, a.Name, b.ID, b.Name))
			}
		}
	}

	for _, room := range e.rooms {
		level := e.findLevel(room.LevelID)
		if level == nil || level.Footprint == nil {
			continue
		}
		if !level.Footprint.Contains(room.Bounds) {
			warnings = append(warnings, fmt.Sprintf("room %s (%s) extends outside the footprint of level %s", room.ID, room.Name, level.ID))
		}
	}

	return warnings
}
