package form

import (
	"context"
	"maps"
	"reflect"
	"slices"

	"github.com/vk/jsonform/expr"
	"github.com/vk/jsonform/formstate"
	"github.com/vk/jsonform/internal/ctxlog"
	"github.com/vk/jsonform/keypath"
	"github.com/vk/jsonform/validation"
)

// Props forced to true on every descendant of a field where they are true.
var inheritedProps = []string{"disabled", "required", "readonly"}

// pass is one recompute pass over the tree. changed lists the key-paths
// committed since the previous pass; all means the values were replaced.
func (s *Store) pass(ctx context.Context, changed []keypath.Path, all bool) {
	logger := ctxlog.FromContext(ctx)

	values := s.provider.Values(ctx)
	scope, err := s.compiler.NewScope(values)
	if err != nil {
		logger.Warn("Values snapshot cannot be evaluated, expressions see an empty form.", "error", err)
		scope, _ = s.compiler.NewScope(nil)
	}

	s.syncArrays(ctx, values)

	var resets []keypath.Path
	s.tree.walk(func(n, parent *node) {
		if p := s.evaluate(ctx, n, parent, scope, changed, all); p != nil {
			resets = append(resets, p)
		}
	})

	s.detectCollisions(ctx)
	s.syncValidators(ctx)

	s.tree.walk(func(n, _ *node) {
		n.fresh = false
	})

	// The reset commit schedules the next pass.
	s.reset(ctx, resets)
}

// syncArrays sizes every array node to the length of its value collection.
// Elements that disappeared are discarded together with their state.
func (s *Store) syncArrays(ctx context.Context, values map[string]any) {
	var removed []*node
	s.tree.walk(func(n, _ *node) {
		if !n.isArray() {
			return
		}
		want := max(keypath.Len(values, n.path), 0)
		have := len(n.children)
		switch {
		case want > have:
			for i := have; i < want; i++ {
				n.children = append(n.children, s.build(ctx, n.raw.Array, n, i, values).id)
			}
			s.markAffected(n.id)
		case want < have:
			for _, id := range n.children[want:] {
				removed = append(removed, s.tree.subtree(id)...)
			}
			n.children = slices.Clone(n.children[:want])
			s.markAffected(n.id)
		}
	})
	s.discard(ctx, removed, true)
}

// evaluate refreshes the resolved state of n from its expressions and its
// parent's state. It returns the key-path to reset when n has just become
// hidden.
func (s *Store) evaluate(ctx context.Context, n, parent *node, scope *expr.Scope, changed []keypath.Path, all bool) keypath.Path {
	if n.fresh || all || n.compiled.DependsOn(changed) {
		n.ownHide = n.compiled.EvalHide(ctx, scope)
		n.ownProps = n.compiled.EvalProps(ctx, scope)
	}

	props := make(map[string]any, len(n.raw.Props)+len(n.ownProps))
	maps.Copy(props, n.raw.Props)
	maps.Copy(props, n.ownProps)

	hide := n.ownHide
	if parent != nil {
		hide = hide || parent.hide
		for _, name := range inheritedProps {
			if expr.Truthy(parent.props[name]) {
				props[name] = true
			}
		}
	}
	if len(props) == 0 {
		props = nil
	}

	if n.fresh || hide != n.hide || !reflect.DeepEqual(props, n.props) {
		s.markAffected(n.id)
	}
	becameHidden := hide && (!n.hide || n.fresh)

	n.hide = hide
	n.props = props
	n.disabled = expr.Truthy(props["disabled"])
	n.required = expr.Truthy(props["required"])
	n.readonly = expr.Truthy(props["readonly"])

	if becameHidden && n.bound() {
		return n.path
	}
	return nil
}

// detectCollisions marks every bound node whose key-path is claimed again by
// a later node in display order. The later node wins.
func (s *Store) detectCollisions(ctx context.Context) {
	seen := make(map[string]*node)
	was := make(map[ID]bool)
	s.tree.walk(func(n, _ *node) {
		was[n.id] = n.shadowed
		n.shadowed = false
		if !n.bound() {
			return
		}
		key := n.path.String()
		if prev, ok := seen[key]; ok {
			prev.shadowed = true
		}
		seen[key] = n
	})

	logger := ctxlog.FromContext(ctx)
	s.tree.walk(func(n, _ *node) {
		if n.shadowed && !was[n.id] {
			logger.Warn("Two fields resolve to the same key-path, the later one wins.",
				"field_id", n.id, "key_path", n.path.String(), "type", n.raw.Type)
		}
	})
}

// syncValidators keeps validator registrations tied to visible, bound,
// unshadowed fields that have at least one validator. Stale registrations
// are removed before new ones are made, so a key-path handed from one field
// to another ends up with the new owner's routine.
func (s *Store) syncValidators(ctx context.Context) {
	var register []*node
	s.tree.walk(func(n, _ *node) {
		want := n.bound() && !n.hide && !n.shadowed
		if want {
			implied := validation.Implied(n.props)
			if !n.resolved || !slices.Equal(implied, n.implied) {
				n.routine = s.resolver.Resolve(ctx, n.raw, implied)
				n.implied = implied
				n.resolved = true
				n.routineGen++
			}
			want = n.routine != nil
		}

		current := n.registered && n.registeredAt.Equal(n.path) && n.registeredAs == n.routineGen
		if n.registered && (!want || !current) {
			s.provider.UnregisterValidator(ctx, n.registeredAt)
			n.registered = false
		}
		if want && !n.registered {
			register = append(register, n)
		}
	})

	for _, n := range register {
		s.provider.RegisterValidator(ctx, n.path, formstate.ValidateFunc(n.routine))
		n.registered = true
		n.registeredAt = slices.Clone(n.path)
		n.registeredAs = n.routineGen
	}
}

// unregisterAll removes every registration made by this store.
func (s *Store) unregisterAll(ctx context.Context) {
	s.tree.walk(func(n, _ *node) {
		if n.registered {
			s.provider.UnregisterValidator(ctx, n.registeredAt)
			n.registered = false
		}
	})
}
