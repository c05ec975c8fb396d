package form

import (
	"fmt"

	"github.com/vk/jsonform/keypath"
)

// RootFields returns the top-level fields in display order.
func (s *Store) RootFields() []Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots(s.tree.roots)
}

// FieldGroup returns the children of field id in display order: the group
// members, or the elements of an array field.
func (s *Store) FieldGroup(id ID) ([]Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.tree.get(id)
	if n == nil {
		return nil, fmt.Errorf("field %d: %w", id, ErrFieldNotFound)
	}
	return s.snapshots(n.children), nil
}

// Parent returns the parent of field id. The second result is false for
// top-level and unknown fields.
func (s *Store) Parent(id ID) (Field, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.tree.get(id)
	if n == nil {
		return Field{}, false
	}
	p := s.tree.parentOf(n)
	if p == nil {
		return Field{}, false
	}
	return p.snapshot(), true
}

// Lookup returns field id.
func (s *Store) Lookup(id ID) (Field, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.tree.get(id)
	if n == nil {
		return Field{}, false
	}
	return n.snapshot(), true
}

// Fields returns every field, depth-first in display order.
func (s *Store) Fields() []Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Field
	s.tree.walk(func(n, _ *node) {
		out = append(out, n.snapshot())
	})
	return out
}

// FindByKeyPath returns the bound field owning p. When several fields
// resolve to p, the one that wins the key-path is returned.
func (s *Store) FindByKeyPath(p keypath.Path) (Field, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *node
	s.tree.walk(func(n, _ *node) {
		if n.bound() && !n.shadowed && n.path.Equal(p) {
			found = n
		}
	})
	if found == nil {
		return Field{}, false
	}
	return found.snapshot(), true
}

func (s *Store) snapshots(ids []ID) []Field {
	out := make([]Field, 0, len(ids))
	for _, id := range ids {
		if n := s.tree.get(id); n != nil {
			out = append(out, n.snapshot())
		}
	}
	return out
}
