package expr

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Func is a host-supplied expression. It receives the values snapshot and must
// not mutate it.
type Func func(values map[string]any) (any, error)

type kind int

const (
	kindNone kind = iota
	kindSource
	kindLiteral
	kindFunc
)

// Expression is one entry of a field's `expressions` map: a string predicate, a
// constant literal, or a callable.
type Expression struct {
	Source  string
	Literal any
	Func    Func

	kind kind
}

// Source creates a string expression.
func Source(src string) Expression {
	return Expression{Source: src, kind: kindSource}
}

// Literal creates a constant expression.
func Literal(v any) Expression {
	return Expression{Literal: v, kind: kindLiteral}
}

// Callable creates an expression backed by a Go function.
func Callable(fn Func) Expression {
	return Expression{Func: fn, kind: kindFunc}
}

// IsZero reports whether the expression is unset.
func (e Expression) IsZero() bool {
	return e.resolvedKind() == kindNone
}

// resolvedKind also classifies expressions built as struct literals.
func (e Expression) resolvedKind() kind {
	switch {
	case e.kind != kindNone:
		return e.kind
	case e.Func != nil:
		return kindFunc
	case e.Source != "":
		return kindSource
	case e.Literal != nil:
		return kindLiteral
	}
	return kindNone
}

// String returns a printable form used in logs and fingerprints.
func (e Expression) String() string {
	switch e.resolvedKind() {
	case kindSource:
		return e.Source
	case kindLiteral:
		return fmt.Sprintf("%v", e.Literal)
	case kindFunc:
		return "<func>"
	}
	return ""
}

// UnmarshalJSON decodes a JSON string into a source expression and any other
// JSON value into a literal.
func (e *Expression) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if s, ok := v.(string); ok {
		*e = Source(s)
		return nil
	}
	*e = Literal(v)
	return nil
}

// MarshalJSON encodes source and literal expressions. Callables cannot be encoded.
func (e Expression) MarshalJSON() ([]byte, error) {
	switch e.resolvedKind() {
	case kindSource:
		return json.Marshal(e.Source)
	case kindLiteral:
		return json.Marshal(e.Literal)
	case kindFunc:
		return nil, errors.New("expr: callable expressions cannot be marshaled")
	}
	return []byte("null"), nil
}

// UnmarshalYAML decodes a YAML string scalar into a source expression and any
// other node into a literal.
func (e *Expression) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!str" {
		*e = Source(node.Value)
		return nil
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	*e = Literal(v)
	return nil
}
