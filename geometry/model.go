// Package geometry executes floor-plan tool calls against a geometry backend:
// either a remote geometry server over HTTP, or an in-memory fallback that
// simulates the same state transitions for offline use and testing.
package geometry

import (
	"fmt"
	"strings"
)

// Rect is an axis-aligned rectangle in plan coordinates (feet).
type Rect struct {
	X      float64 `json:"x" mapstructure:"x"`
	Y      float64 `json:"y" mapstructure:"y"`
	Width  float64 `json:"width" mapstructure:"width"`
	Height float64 `json:"height" mapstructure:"height"`
}

func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// Overlaps reports whether two rectangles share interior area. Shared edges
// do not count as overlap.
func (r Rect) Overlaps(other Rect) bool {
	return r.X < other.X+other.Width && other.X < r.X+r.Width &&
		r.Y < other.Y+other.Height && other.Y < r.Y+r.Height
}

// Contains reports whether other lies entirely inside r.
func (r Rect) Contains(other Rect) bool {
	return other.X >= r.X && other.Y >= r.Y &&
		other.X+other.Width <= r.X+r.Width &&
		other.Y+other.Height <= r.Y+r.Height
}

// Level is one story of the building.
type Level struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Elevation    float64 `json:"elevation"`
	FloorToFloor float64 `json:"floorToFloor"`
	Footprint    *Rect   `json:"footprint,omitempty"`
}

// Room is a bounded spatial zone within a level.
type Room struct {
	ID      string `json:"id"`
	LevelID string `json:"levelId"`
	Name    string `json:"name"`
	Type    string `json:"roomType"`
	Bounds  Rect   `json:"bounds"`
}

// Wall is a 2D segment with a height, belonging to a level.
type Wall struct {
	ID      string  `json:"id"`
	LevelID string  `json:"levelId"`
	X1      float64 `json:"x1"`
	Y1      float64 `json:"y1"`
	X2      float64 `json:"x2"`
	Y2      float64 `json:"y2"`
	Height  float64 `json:"height"`
}

// Opening is a door or window cut into a wall.
type Opening struct {
	ID     string  `json:"id"`
	WallID string  `json:"wallId"`
	Kind   string  `json:"kind"`
	Offset float64 `json:"offset"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NormalizeRoomType maps free-form room type strings onto the canonical
// snake_case names the geometry core uses. Unknown types pass through.
func NormalizeRoomType(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "living_room", "livingroom", "living":
		return "living_room"
	case "kitchen":
		return "kitchen"
	case "bedroom", "bed":
		return "bedroom"
	case "bathroom", "bath":
		return "bathroom"
	case "closet":
		return "closet"
	case "hallway", "hall", "corridor", "circulation":
		return "hallway"
	case "utility", "mech", "mechanical":
		return "utility"
	case "garage":
		return "garage"
	case "dining_room", "diningroom", "dining":
		return "dining_room"
	case "family_room", "familyroom", "family":
		return "family_room"
	case "office", "study":
		return "office"
	case "laundry":
		return "laundry"
	case "pantry":
		return "pantry"
	case "mudroom", "mud":
		return "mudroom"
	case "foyer", "entry":
		return "foyer"
	default:
		return strings.ToLower(strings.TrimSpace(s))
	}
}

// RoomTypeDisplayName returns a human-readable name for a canonical room type.
func RoomTypeDisplayName(roomType string) string {
	parts := strings.Split(roomType, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func formatDim(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
