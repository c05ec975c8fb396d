package expr

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/jsonform/internal/ctxlog"
	"github.com/vk/jsonform/keypath"
)

// Compiled holds the evaluators of one field.
type Compiled struct {
	owner string

	// Hide is nil when the field has no `hide` expression.
	Hide *Evaluator
	// Props are the `props.<key>` evaluators sorted by key.
	Props []*Evaluator
}

// IsEmpty reports whether the field has no expressions at all.
func (c *Compiled) IsEmpty() bool {
	return c == nil || (c.Hide == nil && len(c.Props) == 0)
}

// EvalHide evaluates the hide predicate. A missing predicate or a runtime
// failure yields false; failures are logged.
func (c *Compiled) EvalHide(ctx context.Context, s *Scope) bool {
	if c == nil || c.Hide == nil {
		return false
	}
	v, err := c.Hide.Eval(s)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Hide expression failed, field stays visible.",
			"field", c.owner, "expression", c.Hide.source, "error", err)
		return false
	}
	return Truthy(v)
}

// EvalProps evaluates every computed prop. Props whose evaluation fails are
// omitted and logged.
func (c *Compiled) EvalProps(ctx context.Context, s *Scope) map[string]any {
	if c == nil || len(c.Props) == 0 {
		return nil
	}
	out := make(map[string]any, len(c.Props))
	for _, ev := range c.Props {
		v, err := ev.Eval(s)
		if err != nil {
			ctxlog.FromContext(ctx).Warn("Prop expression failed, prop omitted.",
				"field", c.owner, "prop", ev.target, "expression", ev.source, "error", err)
			continue
		}
		out[ev.target] = v
	}
	return out
}

// DependsOn reports whether a change at any of the given paths can alter a
// result. A nil changed list means "everything changed".
func (c *Compiled) DependsOn(changed []keypath.Path) bool {
	if c.IsEmpty() {
		return false
	}
	if changed == nil {
		return true
	}
	if c.Hide != nil && c.Hide.dependsOn(changed) {
		return true
	}
	for _, ev := range c.Props {
		if ev.dependsOn(changed) {
			return true
		}
	}
	return false
}

// Evaluator evaluates a single expression against a Scope.
type Evaluator struct {
	owner  string
	key    string
	target string
	source string

	syntax  hclsyntax.Expression
	fn      Func
	literal any

	deps   []keypath.Path
	static bool // literal, never changes
	always bool // dependencies unknown
}

// Key returns the expression key, e.g. `hide` or `props.label`.
func (e *Evaluator) Key() string { return e.key }

// Deps returns the key-paths the expression reads.
func (e *Evaluator) Deps() []keypath.Path { return e.deps }

// Eval evaluates the expression. Panics raised by callables are recovered and
// returned as errors.
func (e *Evaluator) Eval(s *Scope) (result any, err error) {
	switch {
	case e.static:
		return e.literal, nil
	case e.fn != nil:
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("expression %q panicked: %v", e.key, r)
			}
		}()
		return e.fn(s.values)
	case e.syntax != nil:
		evalCtx, cerr := s.evalContext(e.deps)
		if cerr != nil {
			return nil, cerr
		}
		val, diags := e.syntax.Value(evalCtx)
		if diags.HasErrors() {
			return nil, diags
		}
		return fromCty(val)
	}
	return nil, nil
}

func (e *Evaluator) dependsOn(changed []keypath.Path) bool {
	if e.static {
		return false
	}
	if e.always {
		return true
	}
	for _, dep := range e.deps {
		for _, p := range changed {
			if keypath.Overlaps(dep, p) {
				return true
			}
		}
	}
	return false
}
