package field

import (
	"fmt"
	"reflect"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
)

// shape is the shallow, serializable description hashed by Fingerprint.
type shape struct {
	Name        string            `json:"n,omitempty"`
	Type        string            `json:"t,omitempty"`
	Wrapper     []string          `json:"w,omitempty"`
	Props       map[string]any    `json:"p,omitempty"`
	Expressions map[string]string `json:"e,omitempty"`
	Validators  []string          `json:"v,omitempty"`
	Group       int               `json:"g"`
	Array       bool              `json:"a,omitempty"`
}

// Fingerprint returns a content hash of the field itself, excluding the
// content of its children (only the group size and the presence of an array
// template are included). Callables are hashed by identity. Two fields with
// the same fingerprint are interchangeable at the same tree position.
func Fingerprint(f *Field) uint64 {
	if f == nil {
		return 0
	}

	s := shape{
		Name:    f.Name,
		Type:    f.Type,
		Wrapper: f.Wrapper,
		Props:   f.Props,
		Group:   -1,
		Array:   f.Array != nil,
	}
	if f.Group != nil {
		s.Group = len(f.Group)
	}
	if len(f.Expressions) > 0 {
		s.Expressions = make(map[string]string, len(f.Expressions))
		for k, e := range f.Expressions {
			if e.Func != nil {
				s.Expressions[k] = funcID(e.Func)
				continue
			}
			s.Expressions[k] = fmt.Sprintf("%T:%s", e.Literal, e.String())
		}
	}
	for _, d := range f.Validators {
		if d.IsInline() {
			s.Validators = append(s.Validators, funcID(d.Func)+":"+d.Message)
			continue
		}
		s.Validators = append(s.Validators, fmt.Sprintf("%s:%v", d.Name, d.Options))
	}

	data, err := json.Marshal(s)
	if err != nil {
		// Props that cannot be encoded fall back to a formatted rendering.
		data = []byte(fmt.Sprintf("%#v", s))
	}
	return xxhash.Sum64(data)
}

func funcID(fn any) string {
	return fmt.Sprintf("func@%x", reflect.ValueOf(fn).Pointer())
}

// Walk visits f and every field below it (group children and the array
// template) depth-first.
func Walk(fields []*Field, visit func(f *Field, depth int)) {
	walk(fields, 0, visit)
}

func walk(fields []*Field, depth int, visit func(*Field, int)) {
	for _, f := range fields {
		if f == nil {
			continue
		}
		visit(f, depth)
		walk(f.Group, depth+1, visit)
		if f.Array != nil {
			walk([]*Field{f.Array}, depth+1, visit)
		}
	}
}
