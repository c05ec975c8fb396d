package registry

import (
	"context"
	"fmt"
	"sort"

	"dario.cat/mergo"
	"github.com/vk/jsonform/field"
	"github.com/vk/jsonform/internal/ctxlog"
)

// Component renders a widget or wrapper. The engine never calls it; it is
// handed to the render layer as-is.
type Component func(props map[string]any, children ...any) any

// Config is one configuration scope.
type Config struct {
	// Components maps widget types and wrapper names to renderers.
	Components map[string]Component
	// Validators maps validator names to predicates.
	Validators map[string]field.ValidatorFunc
	// ValidationMessages maps validator names to their failure message.
	ValidationMessages map[string]string
}

// Merge combines scopes into a new Config without modifying the inputs.
func Merge(scopes ...Config) (Config, error) {
	out := Config{
		Components:         make(map[string]Component),
		Validators:         make(map[string]field.ValidatorFunc),
		ValidationMessages: make(map[string]string),
	}
	for i, scope := range scopes {
		if err := mergo.Merge(&out, scope, mergo.WithOverride); err != nil {
			return Config{}, fmt.Errorf("merging config scope %d: %w", i, err)
		}
	}
	return out, nil
}

// Registry is the read-only lookup table of one engine instance.
type Registry struct {
	components map[string]Component
	validators map[string]field.ValidatorFunc
	messages   map[string]string
}

// New creates a registry from Defaults overlaid with the given scopes.
func New(scopes ...Config) (*Registry, error) {
	cfg, err := Merge(append([]Config{Defaults()}, scopes...)...)
	if err != nil {
		return nil, err
	}
	return &Registry{
		components: cfg.Components,
		validators: cfg.Validators,
		messages:   cfg.ValidationMessages,
	}, nil
}

// MustNew is like New but panics on error. Intended for tests and static setup.
func MustNew(scopes ...Config) *Registry {
	r, err := New(scopes...)
	if err != nil {
		panic(err)
	}
	return r
}

// FindWidget returns the component rendering the given field type.
func (r *Registry) FindWidget(typ string) (Component, bool) {
	c, ok := r.components[typ]
	return c, ok && c != nil
}

// FindWrapper returns the component registered under a wrapper name.
func (r *Registry) FindWrapper(name string) (Component, bool) {
	c, ok := r.components[name]
	return c, ok && c != nil
}

// Validator returns the predicate registered under name.
func (r *Registry) Validator(name string) (field.ValidatorFunc, bool) {
	v, ok := r.validators[name]
	return v, ok && v != nil
}

// Message returns the failure message registered under name.
func (r *Registry) Message(name string) (string, bool) {
	m, ok := r.messages[name]
	return m, ok
}

// ValidatorNames returns the registered validator names in sorted order.
func (r *Registry) ValidatorNames() []string {
	names := make([]string, 0, len(r.validators))
	for name := range r.validators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check logs a warning for every validator without a message. Such validators
// still run; their failures are reported with the validator name.
func (r *Registry) Check(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	for _, name := range r.ValidatorNames() {
		if _, ok := r.messages[name]; !ok {
			logger.Warn("Validator has no validation message, its name will be reported instead.", "validator", name)
		}
	}
}
