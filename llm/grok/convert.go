package grok

import (
	openai "github.com/sashabaranov/go-openai"

	"github.com/plandraft/plandraft"
)

// convertTool converts a tool spec to the OpenAI tool format.
func convertTool(spec *plandraft.ToolSpec) openai.Tool {
	parameters := make(map[string]interface{})
	properties := make(map[string]interface{})

	for name, param := range spec.Parameters {
		properties[name] = convertParameterToSchema(param)
	}

	if len(properties) > 0 {
		parameters["type"] = "object"
		parameters["properties"] = properties
		if len(spec.Required) > 0 {
			parameters["required"] = spec.Required
		}
	}

	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  parameters,
		},
	}
}

func convertParameterToSchema(param *plandraft.Parameter) map[string]interface{} {
	schema := map[string]interface{}{
		"type":        getOpenAIType(param.Type),
		"description": param.Description,
	}

	if len(param.Enum) > 0 {
		schema["enum"] = param.Enum
	}

	if param.Properties != nil {
		properties := make(map[string]interface{})
		for name, prop := range param.Properties {
			properties[name] = convertParameterToSchema(prop)
		}
		schema["properties"] = properties
		if len(param.Required) > 0 {
			schema["required"] = param.Required
		}
	}

	if param.Items != nil {
		schema["items"] = convertParameterToSchema(param.Items)
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

func getOpenAIType(paramType plandraft.ParameterType) string {
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
