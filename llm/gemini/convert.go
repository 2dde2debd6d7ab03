package gemini

import (
	"google.golang.org/genai"

	"github.com/plandraft/plandraft"
)

// convertTool converts a tool spec to Gemini's FunctionDeclaration.
func convertTool(spec *plandraft.ToolSpec) *genai.FunctionDeclaration {
	// Gemini requires an empty slice for Required, not nil.
	required := spec.Required
	if required == nil {
		required = []string{}
	}

	parameters := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema),
		Required:   required,
	}
	for name, param := range spec.Parameters {
		parameters.Properties[name] = convertParameter(param)
	}

	return &genai.FunctionDeclaration{
		Name:        spec.Name,
		Description: spec.Description,
		Parameters:  parameters,
	}
}

func convertParameter(param *plandraft.Parameter) *genai.Schema {
	schema := &genai.Schema{
		Type:        getGeminiType(param.Type),
		Description: param.Description,
	}

	if len(param.Enum) > 0 {
		schema.Enum = param.Enum
	}

	if param.Properties != nil {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range param.Properties {
			schema.Properties[name] = convertParameter(prop)
		}
		if len(param.Required) > 0 {
			schema.Required = param.Required
		} else {
			schema.Required = []string{}
		}
	}

	if param.Items != nil {
		schema.Items = convertParameter(param.Items)
	}

	if param.Type == plandraft.TypeNumber || param.Type == plandraft.TypeInteger {
		if param.Minimum != nil {
			minVal := *param.Minimum
			schema.Minimum = &minVal
		}
		if param.Maximum != nil {
			maxVal := *param.Maximum
			schema.Maximum = &maxVal
		}
	}

	return schema
}

func getGeminiType(paramType plandraft.ParameterType) genai.Type {
	switch paramType {
	case plandraft.TypeString:
		return genai.TypeString
	case plandraft.TypeNumber:
		return genai.TypeNumber
	case plandraft.TypeInteger:
		return genai.TypeInteger
	case plandraft.TypeBoolean:
		return genai.TypeBoolean
	case plandraft.TypeArray:
		return genai.TypeArray
	case plandraft.TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
