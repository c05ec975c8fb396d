package expr

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/jsonform/keypath"
)

// Scope is one values snapshot prepared for evaluation. It is built once per
// recompute pass and shared by every evaluator in that pass.
type Scope struct {
	values  map[string]any
	evalCtx *hcl.EvalContext
}

func newScope(values map[string]any, funcs map[string]function.Function) (*Scope, error) {
	if values == nil {
		values = map[string]any{}
	}
	converted, err := toCty(values)
	if err != nil {
		return nil, fmt.Errorf("converting values snapshot: %w", err)
	}
	return &Scope{
		values: values,
		evalCtx: &hcl.EvalContext{
			Variables: map[string]cty.Value{valuesRoot: converted},
			Functions: funcs,
		},
	}, nil
}

// Values returns the snapshot the scope was built from.
func (s *Scope) Values() map[string]any {
	return s.values
}

// evalContext returns the context for an expression reading deps. A key
// missing from the snapshot reads as null. Only the first missing key of a
// path is filled in, so reading through it still fails.
func (s *Scope) evalContext(deps []keypath.Path) (*hcl.EvalContext, error) {
	var fill []keypath.Path
	for _, dep := range deps {
		if p, ok := firstMissing(s.values, dep); ok {
			fill = append(fill, p)
		}
	}
	if len(fill) == 0 {
		return s.evalCtx, nil
	}

	var padded any = s.values
	for _, p := range fill {
		padded = keypath.Set(padded, p, nil)
	}
	converted, err := toCty(padded)
	if err != nil {
		return nil, fmt.Errorf("converting values snapshot: %w", err)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{valuesRoot: converted},
		Functions: s.evalCtx.Functions,
	}, nil
}

// firstMissing returns the prefix of p ending at the first key absent from an
// existing object.
func firstMissing(doc map[string]any, p keypath.Path) (keypath.Path, bool) {
	var cur any = doc
	for i, seg := range p {
		if seg.IsIndex() {
			list, ok := cur.([]any)
			if !ok || seg.Index >= len(list) {
				return nil, false
			}
			cur = list[seg.Index]
			continue
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := obj[seg.Key]
		if !ok {
			return p[:i+1], true
		}
		cur = next
	}
	return nil, false
}
