package validation

import (
	"context"
	"fmt"

	"github.com/vk/jsonform/expr"
	"github.com/vk/jsonform/field"
	"github.com/vk/jsonform/internal/ctxlog"
	"github.com/vk/jsonform/registry"
)

// Routine validates one value and returns the failure message, or "" when the
// value passes. A non-nil error means a validator could not run.
type Routine func(ctx context.Context, value any) (string, error)

// step is one resolved validator of a chain.
type step struct {
	name    string
	fn      field.ValidatorFunc
	options any
	message string
}

// Resolver builds validation routines against a registry.
type Resolver struct {
	registry *registry.Registry
}

// NewResolver creates a resolver bound to r.
func NewResolver(r *registry.Registry) *Resolver {
	return &Resolver{registry: r}
}

// Implied returns the validator names implied by resolved props.
func Implied(props map[string]any) []string {
	if expr.Truthy(props["required"]) {
		return []string{registry.Required}
	}
	return nil
}

// Resolve composes the routine for f. implied lists the props-implied
// validator names, which run first. It returns nil when no validator remains
// after resolution.
func (r *Resolver) Resolve(ctx context.Context, f *field.Field, implied []string) Routine {
	logger := ctxlog.FromContext(ctx)

	steps := make([]step, 0, len(implied)+len(f.Validators))
	for _, name := range implied {
		if s, ok := r.named(ctx, f, name, nil); ok {
			steps = append(steps, s)
		}
	}
	for i, decl := range f.Validators {
		if decl.IsInline() {
			steps = append(steps, step{name: fmt.Sprintf("inline#%d", i), fn: decl.Func, message: decl.Message})
			continue
		}
		if decl.Name == "" {
			logger.Warn("Validator declaration has neither a name nor a function, skipping.", "field", f.Name, "position", i)
			continue
		}
		if s, ok := r.named(ctx, f, decl.Name, decl.Options); ok {
			steps = append(steps, s)
		}
	}

	if len(steps) == 0 {
		return nil
	}
	return chain(f, steps)
}

func (r *Resolver) named(ctx context.Context, f *field.Field, name string, options any) (step, bool) {
	fn, ok := r.registry.Validator(name)
	if !ok {
		ctxlog.FromContext(ctx).Warn("Validator is not registered, skipping.", "field", f.Name, "validator", name)
		return step{}, false
	}
	message, ok := r.registry.Message(name)
	if !ok {
		message = name
	}
	return step{name: name, fn: fn, options: options, message: message}, true
}

func chain(f *field.Field, steps []step) Routine {
	return func(ctx context.Context, value any) (string, error) {
		for _, s := range steps {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			invalid, err := s.fn(ctx, value, f, s.options)
			if err != nil {
				return "", fmt.Errorf("validator %q: %w", s.name, err)
			}
			if invalid {
				return s.message, nil
			}
		}
		return "", nil
	}
}
