package geometry

import (
	"bytes"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/plandraft/plandraft"
)

// RoomTypeEnum lists the canonical room types offered to the model.
var RoomTypeEnum = []string{
	"living_room", "kitchen", "bedroom", "bathroom", "closet", "hallway",
	"utility", "garage", "dining_room", "family_room", "office", "laundry",
	"pantry", "mudroom", "foyer",
}

func positive() *float64 {
	v := 0.0
	return &v
}

// ToolSpecs returns the floor-plan toolset shared by the HTTP and in-memory
// executors. The surface mirrors the geometry server's scripting API,
// flattened for a single implicit project.
func ToolSpecs() []plandraft.ToolSpec {
	return []plandraft.ToolSpec{
		{
			Name:        "add_level",
			Description: "Add a building level (story). Returns the new level id.",
			Parameters: map[string]*plandraft.Parameter{
				"name":           {Type: plandraft.TypeString, Description: "Level name, e.g. 'Ground Floor'"},
				"elevation":      {Type: plandraft.TypeNumber, Description: "Elevation of the finished floor in feet"},
				"floor_to_floor": {Type: plandraft.TypeNumber, Description: "Floor-to-floor height in feet", Minimum: positive()},
			},
			Required: []string{"name"},
		},
		{
			Name:        "set_footprint",
			Description: "Set a rectangular footprint for a level. Rooms and walls must stay inside it.",
			Parameters: map[string]*plandraft.Parameter{
				"level_id": {Type: plandraft.TypeString, Description: "Target level id"},
				"width":    {Type: plandraft.TypeNumber, Description: "Footprint width in feet", Minimum: positive()},
				"depth":    {Type: plandraft.TypeNumber, Description: "Footprint depth in feet", Minimum: positive()},
			},
			Required: []string{"level_id", "width", "depth"},
		},
		{
			Name:        "create_room",
			Description: "Create a rectangular room on a level.",
			Parameters: map[string]*plandraft.Parameter{
				"level_id":  {Type: plandraft.TypeString, Description: "Target level id"},
				"name":      {Type: plandraft.TypeString, Description: "Room name, e.g. 'Master Bedroom'"},
				"room_type": {Type: plandraft.TypeString, Description: "Room type", Enum: RoomTypeEnum},
				"x":         {Type: plandraft.TypeNumber, Description: "Left edge in feet"},
				"y":         {Type: plandraft.TypeNumber, Description: "Bottom edge in feet"},
				"width":     {Type: plandraft.TypeNumber, Description: "Room width in feet", Minimum: positive()},
				"height":    {Type: plandraft.TypeNumber, Description: "Room depth in feet", Minimum: positive()},
			},
			Required: []string{"level_id", "name", "room_type", "x", "y", "width", "height"},
		},
		{
			Name:        "create_wall",
			Description: "Create a wall segment on a level.",
			Parameters: map[string]*plandraft.Parameter{
				"level_id": {Type: plandraft.TypeString, Description: "Target level id"},
				"x1":       {Type: plandraft.TypeNumber, Description: "Start X in feet"},
				"y1":       {Type: plandraft.TypeNumber, Description: "Start Y in feet"},
				"x2":       {Type: plandraft.TypeNumber, Description: "End X in feet"},
				"y2":       {Type: plandraft.TypeNumber, Description: "End Y in feet"},
				"height":   {Type: plandraft.TypeNumber, Description: "Wall height in feet", Minimum: positive()},
			},
			Required: []string{"level_id", "x1", "y1", "x2", "y2"},
		},
		{
			Name:        "add_opening",
			Description: "Cut a door or window into an existing wall.",
			Parameters: map[string]*plandraft.Parameter{
				"wall_id": {Type: plandraft.TypeString, Description: "Target wall id"},
				"kind":    {Type: plandraft.TypeString, Description: "Opening kind", Enum: []string{"door", "window"}},
				"offset":  {Type: plandraft.TypeNumber, Description: "Distance from wall start in feet"},
				"width":   {Type: plandraft.TypeNumber, Description: "Opening width in feet", Minimum: positive()},
				"height":  {Type: plandraft.TypeNumber, Description: "Opening height in feet", Minimum: positive()},
			},
			Required: []string{"wall_id", "kind", "offset", "width"},
		},
		{
			Name:        "remove_room",
			Description: "Remove a room by id.",
			Parameters: map[string]*plandraft.Parameter{
				"room_id": {Type: plandraft.TypeString, Description: "Room id to remove"},
			},
			Required: []string{"room_id"},
		},
		{
			Name:        "get_plan_state",
			Description: "Return the current plan state: levels, rooms, walls and openings.",
			Parameters:  map[string]*plandraft.Parameter{},
		},
	}
}

// toolset holds the tool specs with their compiled JSON schemas. Argument
// validation happens before dispatch so that schema violations become error
// results instead of backend calls.
type toolset struct {
	specs   []plandraft.ToolSpec
	schemas map[string]*jsonschema.Schema
}

func newToolset() (*toolset, error) {
	specs := ToolSpecs()
	compiler := jsonschema.NewCompiler()

	for _, spec := range specs {
		raw, err := json.Marshal(specSchema(&spec))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal tool schema", goerr.V("tool", spec.Name))
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to parse tool schema", goerr.V("tool", spec.Name))
		}
		if err := compiler.AddResource(spec.Name+".json", doc); err != nil {
			return nil, goerr.Wrap(err, "failed to register tool schema", goerr.V("tool", spec.Name))
		}
	}

	schemas := make(map[string]*jsonschema.Schema, len(specs))
	for _, spec := range specs {
		schema, err := compiler.Compile(spec.Name + ".json")
		if err != nil {
			return nil, goerr.Wrap(err, "failed to compile tool schema", goerr.V("tool", spec.Name))
		}
		schemas[spec.Name] = schema
	}

	return &toolset{specs: specs, schemas: schemas}, nil
}

// validate checks a call against the tool's compiled schema. It returns an
// error for unknown tools and schema violations.
func (t *toolset) validate(call plandraft.ToolCall) error {
	schema, ok := t.schemas[call.Name]
	if !ok {
		return goerr.New("unknown tool", goerr.V("tool", call.Name))
	}

	// Round-trip through JSON so argument values carry JSON types only.
	raw, err := json.Marshal(call.Arguments)
	if err != nil {
		return goerr.Wrap(err, "arguments are not JSON-compatible", goerr.V("tool", call.Name))
	}
	args, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return goerr.Wrap(err, "failed to decode arguments", goerr.V("tool", call.Name))
	}
	if args == nil {
		args = map[string]any{}
	}

	if err := schema.Validate(args); err != nil {
		return goerr.Wrap(err, "invalid arguments", goerr.V("tool", call.Name))
	}
	return nil
}

// specSchema converts a tool spec into a JSON schema document.
func specSchema(spec *plandraft.ToolSpec) map[string]any {
	properties := make(map[string]any, len(spec.Parameters))
	for name, param := range spec.Parameters {
		properties[name] = parameterSchema(param)
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(spec.Required) > 0 {
		schema["required"] = spec.Required
	}
	return schema
}

func parameterSchema(param *plandraft.Parameter) map[string]any {
	schema := map[string]any{
		"type": string(param.Type),
	}
	if param.Description != "" {
		schema["description"] = param.Description
	}
	if len(param.Enum) > 0 {
		schema["enum"] = param.Enum
	}
	if param.Properties != nil {
		properties := make(map[string]any, len(param.Properties))
		for name, prop := range param.Properties {
			properties[name] = parameterSchema(prop)
		}
		schema["properties"] = properties
		if len(param.Required) > 0 {
			schema["required"] = param.Required
		}
	}
	if param.Items != nil {
		schema["items"] = parameterSchema(param.Items)
	}
	if param.Type == plandraft.TypeNumber || param.Type == plandraft.TypeInteger {
		if param.Minimum != nil {
			schema["minimum"] = *param.Minimum
		}
		if param.Maximum != nil {
			schema["maximum"] = *param.Maximum
		}
	}
	return schema
}
