package plandraft

import (
	"testing"

	"github.com/m-mizutani/gt"
)

func ptr[T any](v T) *T {
	return &v
}

func TestToolSpecValidation(t *testing.T) {
	t.Run("valid spec", func(t *testing.T) {
		spec := &ToolSpec{
			Name:        "create_room",
			Description: "Create a rectangular room",
			Parameters: map[string]*Parameter{
				"name":  {Type: TypeString},
				"width": {Type: TypeNumber, Minimum: ptr(0.0)},
			},
			Required: []string{"name"},
		}
		gt.NoError(t, spec.Validate())
	})

	t.Run("name is required", func(t *testing.T) {
		spec := &ToolSpec{}
		gt.Error(t, spec.Validate())
	})

	t.Run("invalid parameter fails the spec", func(t *testing.T) {
		spec := &ToolSpec{
			Name: "broken",
			Parameters: map[string]*Parameter{
				"x": {},
			},
		}
		gt.Error(t, spec.Validate())
	})
}

func TestParameterValidation(t *testing.T) {
	t.Run("number constraints", func(t *testing.T) {
		t.Run("valid minimum and maximum", func(t *testing.T) {
			p := &Parameter{
				Type:    TypeNumber,
				Minimum: ptr(1.0),
				Maximum: ptr(10.0),
			}
			gt.NoError(t, p.Validate())
		})

		t.Run("inverted minimum and maximum", func(t *testing.T) {
			p := &Parameter{
				Type:    TypeNumber,
				Minimum: ptr(10.0),
				Maximum: ptr(1.0),
			}
			gt.Error(t, p.Validate())
		})
	})

	t.Run("object requires properties", func(t *testing.T) {
		p := &Parameter{Type: TypeObject}
		gt.Error(t, p.Validate())
	})

	t.Run("object required fields must exist", func(t *testing.T) {
		p := &Parameter{
			Type: TypeObject,
			Properties: map[string]*Parameter{
				"a": {Type: TypeString},
			},
			Required: []string{"b"},
		}
		gt.Error(t, p.Validate())
	})

	t.Run("array requires items", func(t *testing.T) {
		p := &Parameter{Type: TypeArray}
		gt.Error(t, p.Validate())
	})

	t.Run("enum only on strings", func(t *testing.T) {
		p := &Parameter{Type: TypeNumber, Enum: []string{"a"}}
		gt.Error(t, p.Validate())
	})
}
