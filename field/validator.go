package field

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ValidatorDecl is one entry of a field's validators list. It is either a
// reference to a registered validator (Name, optionally with Options) or an
// inline validator (Func with its own Message).
type ValidatorDecl struct {
	Name    string
	Options any
	Func    ValidatorFunc
	Message string
}

// Named declares a registered validator by name.
func Named(name string) ValidatorDecl {
	return ValidatorDecl{Name: name}
}

// NamedWithOptions declares a registered validator with options.
func NamedWithOptions(name string, options any) ValidatorDecl {
	return ValidatorDecl{Name: name, Options: options}
}

// Inline declares a validator that bypasses the registry.
func Inline(fn ValidatorFunc, message string) ValidatorDecl {
	return ValidatorDecl{Func: fn, Message: message}
}

// IsInline reports whether the declaration carries its own function.
func (d ValidatorDecl) IsInline() bool {
	return d.Func != nil
}

type namedDecl struct {
	Name    string `json:"name" yaml:"name"`
	Options any    `json:"options,omitempty" yaml:"options,omitempty"`
}

// UnmarshalJSON accepts "name", ["name", options] and {"name": ..., "options": ...}.
func (d *ValidatorDecl) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decl, err := declFromValue(raw)
	if err != nil {
		return err
	}
	*d = decl
	return nil
}

// UnmarshalYAML accepts the same shapes as UnmarshalJSON.
func (d *ValidatorDecl) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	decl, err := declFromValue(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = decl
	return nil
}

func declFromValue(raw any) (ValidatorDecl, error) {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return ValidatorDecl{}, errors.New("validator name cannot be empty")
		}
		return Named(v), nil
	case []any:
		if len(v) == 0 || len(v) > 2 {
			return ValidatorDecl{}, fmt.Errorf("validator tuple must be [name] or [name, options], got %d elements", len(v))
		}
		name, ok := v[0].(string)
		if !ok || name == "" {
			return ValidatorDecl{}, errors.New("validator tuple must start with a name")
		}
		if len(v) == 1 {
			return Named(name), nil
		}
		return NamedWithOptions(name, v[1]), nil
	case map[string]any:
		name, _ := v["name"].(string)
		if name == "" {
			return ValidatorDecl{}, errors.New("validator object requires a non-empty \"name\"")
		}
		return NamedWithOptions(name, v["options"]), nil
	}
	return ValidatorDecl{}, fmt.Errorf("unsupported validator declaration of type %T", raw)
}

// MarshalJSON encodes named declarations. Inline declarations cannot be encoded.
func (d ValidatorDecl) MarshalJSON() ([]byte, error) {
	if d.IsInline() {
		return nil, errors.New("field: inline validators cannot be marshaled")
	}
	if d.Options == nil {
		return json.Marshal(d.Name)
	}
	return json.Marshal(namedDecl{Name: d.Name, Options: d.Options})
}
