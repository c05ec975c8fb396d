package form

import (
	"context"
	"fmt"

	"github.com/vk/jsonform/formstate"
	"github.com/vk/jsonform/keypath"
)

// Control is the value handle of one bound field. It resolves the field's
// key-path on every call, so it stays valid while array operations move the
// field.
type Control struct {
	store *Store
	id    ID
}

// Control returns the control of field id, or nil for unknown fields and for
// fields without a key-path of their own.
func (s *Store) Control(id ID) *Control {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.tree.get(id)
	if n == nil || !n.bound() {
		return nil
	}
	return &Control{store: s, id: id}
}

// ID returns the field the control belongs to.
func (c *Control) ID() ID {
	return c.id
}

func (c *Control) target() (keypath.Path, formstate.Provider, error) {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provider == nil {
		return nil, nil, ErrNotBound
	}
	n := s.tree.get(c.id)
	if n == nil {
		return nil, nil, fmt.Errorf("field %d: %w", c.id, ErrFieldNotFound)
	}
	return n.path, s.provider, nil
}

// KeyPath returns the field's current key-path.
func (c *Control) KeyPath() (keypath.Path, error) {
	p, _, err := c.target()
	return p, err
}

// Meta returns value, touched flag and error of the field.
func (c *Control) Meta(ctx context.Context) (formstate.Meta, error) {
	p, provider, err := c.target()
	if err != nil {
		return formstate.Meta{}, err
	}
	return provider.GetMeta(c.store.ctx(ctx), p), nil
}

// Value returns the field's value, or nil.
func (c *Control) Value(ctx context.Context) any {
	m, _ := c.Meta(ctx)
	return m.Value
}

// Error returns the field's validation message, or "".
func (c *Control) Error(ctx context.Context) string {
	m, _ := c.Meta(ctx)
	return m.Error
}

// Touched reports whether the field was touched.
func (c *Control) Touched(ctx context.Context) bool {
	m, _ := c.Meta(ctx)
	return m.Touched
}

// SetValue stores v and validates the field when it has a validator.
func (c *Control) SetValue(ctx context.Context, v any) error {
	p, provider, err := c.target()
	if err != nil {
		return err
	}
	return provider.SetValue(c.store.ctx(ctx), p, v, true)
}

// SetTouched marks the field as touched or untouched.
func (c *Control) SetTouched(ctx context.Context, touched bool) error {
	p, provider, err := c.target()
	if err != nil {
		return err
	}
	return provider.SetTouched(c.store.ctx(ctx), p, touched)
}

// SetError stores msg as the field's error. An empty msg clears it.
func (c *Control) SetError(ctx context.Context, msg string) error {
	p, provider, err := c.target()
	if err != nil {
		return err
	}
	return provider.SetError(c.store.ctx(ctx), p, msg)
}

// Len returns the number of elements of an array field.
func (c *Control) Len() int {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.tree.get(c.id)
	if n == nil {
		return 0
	}
	return len(n.children)
}

// Add inserts an element before index; see Store.Add.
func (c *Control) Add(ctx context.Context, index int) bool {
	return c.store.Add(ctx, c.id, index)
}

// Append adds an element at the end; see Store.Append.
func (c *Control) Append(ctx context.Context) bool {
	return c.store.Append(ctx, c.id)
}

// Remove deletes the element at index; see Store.Remove.
func (c *Control) Remove(ctx context.Context, index int) bool {
	return c.store.Remove(ctx, c.id, index)
}
