package field

import (
	"context"

	"github.com/vk/jsonform/expr"
)

// ValidatorFunc reports whether value violates the rule. options carries the
// declaration's options, if any. A non-nil error aborts the validation chain.
type ValidatorFunc func(ctx context.Context, value any, f *Field, options any) (bool, error)

// Field is one node of the declarative form tree.
type Field struct {
	// Name is the key segment of the field's value. An empty name makes the
	// field a pure layout container without a value of its own.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Type identifies the widget rendering the field.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	// Wrapper lists wrapper identifiers applied outside-in.
	Wrapper []string `json:"wrapper,omitempty" yaml:"wrapper,omitempty"`
	// Props are static widget props.
	Props map[string]any `json:"props,omitempty" yaml:"props,omitempty"`
	// Expressions maps `hide` or `props.<key>` to a computed expression.
	Expressions map[string]expr.Expression `json:"expressions,omitempty" yaml:"expressions,omitempty"`
	// Group is a fixed-shape list of children.
	Group []*Field `json:"group,omitempty" yaml:"group,omitempty"`
	// Array is the element template of a variable-length collection.
	Array *Field `json:"array,omitempty" yaml:"array,omitempty"`
	// Validators are applied in declaration order.
	Validators []ValidatorDecl `json:"validators,omitempty" yaml:"validators,omitempty"`
}

// HasChildren reports whether the field owns child fields.
func (f *Field) HasChildren() bool {
	return f.Group != nil || f.Array != nil
}

// Prop returns a static prop.
func (f *Field) Prop(name string) (any, bool) {
	v, ok := f.Props[name]
	return v, ok
}

// DefaultValue is the value inserted for a new element built from f when f
// is used as an array template.
func (f *Field) DefaultValue() any {
	switch {
	case f.Array != nil:
		return []any{}
	case f.Group != nil:
		return map[string]any{}
	}
	return ""
}
