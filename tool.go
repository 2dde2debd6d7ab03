package plandraft

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
)

// ToolSpec is the specification of a tool.
// It defines the interface and behavior of a tool that can be requested by LLMs.
type ToolSpec struct {
	// Name is the unique identifier for the tool.
	Name string

	// Description is a human-readable description of what the tool does.
	Description string

	// Parameters defines the input parameters that the tool accepts.
	Parameters map[string]*Parameter

	// Required is the list of required parameter names.
	Required []string
}

// Validate validates the tool specification.
func (s *ToolSpec) Validate() error {
	eb := goerr.NewBuilder(goerr.V("tool", s))
	if s.Name == "" {
		return eb.Wrap(ErrInvalidTool, "name is required")
	}

	for _, param := range s.Parameters {
		if err := param.Validate(); err != nil {
			return eb.Wrap(ErrInvalidTool, "invalid parameter")
		}
	}

	return nil
}

// ParameterType is the type of a parameter.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeNumber  ParameterType = "number"
	TypeInteger ParameterType = "integer"
	TypeBoolean ParameterType = "boolean"
	TypeArray   ParameterType = "array"
	TypeObject  ParameterType = "object"
)

// Parameter is a parameter of a tool.
type Parameter struct {
	// Type is the type of the parameter. It's required.
	Type ParameterType

	// Description is the description of the parameter.
	Description string

	// Enum is the list of allowed values for string parameters.
	Enum []string

	// Properties is the properties of the parameter. It's used for object type.
	Properties map[string]*Parameter

	// Required is the list of required field names when Type is Object.
	Required []string

	// Items is the items of the parameter. It's used for array type.
	Items *Parameter

	// Minimum and Maximum define the valid range for number type parameters.
	Minimum *float64
	Maximum *float64
}

// Validate validates the parameter.
func (p *Parameter) Validate() error {
	eb := goerr.NewBuilder(goerr.V("parameter", p))

	if p.Type == "" {
		return eb.Wrap(ErrInvalidParameter, "type is required")
	}

	if p.Type == TypeObject {
		if p.Properties == nil {
			return eb.Wrap(ErrInvalidParameter, "properties is required for object type")
		}
		for _, prop := range p.Properties {
			if err := prop.Validate(); err != nil {
				return eb.Wrap(ErrInvalidParameter, "invalid property")
			}
		}
		for _, req := range p.Required {
			if _, ok := p.Properties[req]; !ok {
				return eb.Wrap(ErrInvalidParameter, "required field not found in properties", goerr.V("field", req))
			}
		}
	}

	if p.Type == TypeArray {
		if p.Items == nil {
			return eb.Wrap(ErrInvalidParameter, "items is required for array type")
		}
		if err := p.Items.Validate(); err != nil {
			return eb.Wrap(ErrInvalidParameter, "invalid items")
		}
	}

	if len(p.Enum) > 0 && p.Type != TypeString {
		return eb.Wrap(ErrInvalidParameter, "enum is only valid for string type")
	}

	if p.Type == TypeNumber || p.Type == TypeInteger {
		if p.Minimum != nil && p.Maximum != nil && *p.Minimum > *p.Maximum {
			return eb.Wrap(ErrInvalidParameter, "minimum must be less than or equal to maximum")
		}
	}

	return nil
}

// ToolExecutor executes tool calls requested by the LLM against a backing
// geometry store. Execute must not fail with a Go error: every failure mode is
// converted into a ToolResult with StatusError so the conversation loop can
// continue and let the model recover in its next turn.
type ToolExecutor interface {
	// Specs returns the specifications of the tools the executor can run.
	// They are registered with the LLM session at loop start.
	Specs(ctx context.Context) ([]ToolSpec, error)

	// Execute runs one tool call and returns its structured result.
	Execute(ctx context.Context, call ToolCall) ToolResult
}
