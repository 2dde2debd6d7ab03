package claude

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/plandraft/plandraft"
)

func convertTool(spec *plandraft.ToolSpec) anthropic.ToolUnionParam {
	schema := convertParametersToJSONSchema(spec.Parameters, spec.Required)

	tool := anthropic.ToolUnionParamOfTool(
		anthropic.ToolInputSchemaParam{
			Properties: schema.Properties,
		},
		spec.Name,
	)
	if spec.Description != "" {
		tool.OfTool.Description = anthropic.String(spec.Description)
	}
	return tool
}

type jsonSchema struct {
	Type        string                `json:"type"`
	Properties  map[string]jsonSchema `json:"properties,omitempty"`
	Required    []string              `json:"required,omitempty"`
	Items       *jsonSchema           `json:"items,omitempty"`
	Minimum     *float64              `json:"minimum,omitempty"`
	Maximum     *float64              `json:"maximum,omitempty"`
	Enum        []interface{}         `json:"enum,omitempty"`
	Description string                `json:"description,omitempty"`
}

func convertParametersToJSONSchema(params map[string]*plandraft.Parameter, required []string) jsonSchema {
	properties := make(map[string]jsonSchema)

	for name, param := range params {
		properties[name] = convertParameterToSchema(param)
	}

	return jsonSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// convertParameterToSchema converts a parameter to Claude's schema form.
func convertParameterToSchema(param *plandraft.Parameter) jsonSchema {
	schema := jsonSchema{
		Type:        getClaudeType(param.Type),
		Description: param.Description,
	}

	if len(param.Enum) > 0 {
		enum := make([]interface{}, len(param.Enum))
		for i, v := range param.Enum {
			enum[i] = v
		}
		schema.Enum = enum
	}

	if param.Properties != nil {
		properties := make(map[string]jsonSchema)
		for name, prop := range param.Properties {
			properties[name] = convertParameterToSchema(prop)
		}
		schema.Properties = properties
		if len(param.Required) > 0 {
			schema.Required = param.Required
		}
	}

	if param.Items != nil {
		items := convertParameterToSchema(param.Items)
		schema.Items = &items
	}

	if param.Type == plandraft.TypeNumber || param.Type == plandraft.TypeInteger {
		if param.Minimum != nil {
			schema.Minimum = param.Minimum
		}
		if param.Maximum != nil {
			schema.Maximum = param.Maximum
		}
	}

	return schema
}

func getClaudeType(paramType plandraft.ParameterType) string {
	switch paramType {
	case plandraft.TypeString:
		return "string"
	case plandraft.TypeNumber:
		return "number"
	case plandraft.TypeInteger:
		return "integer"
	case plandraft.TypeBoolean:
		return "boolean"
	case plandraft.TypeArray:
		return "array"
	case plandraft.TypeObject:
		return "object"
	default:
		return "string"
	}
}
