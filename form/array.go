package form

import (
	"context"
	"slices"

	"github.com/vk/jsonform/formstate"
	"github.com/vk/jsonform/internal/ctxlog"
	"github.com/vk/jsonform/keypath"
)

// Add inserts a new element before index into the array field id. index
// ranges over [0, length]; negative indices are rejected, Append adds at the
// end. The values collection receives the template's default value, and
// the touched and errors collections a placeholder when they already exist.
// Invalid requests are logged and ignored; the result reports whether the
// element was added.
func (s *Store) Add(ctx context.Context, id ID, index int) bool {
	ctx = s.ctx(ctx)
	var ok bool
	s.exclusive(ctx, func(ctx context.Context) {
		ok = s.add(ctx, id, index, false)
	})
	return ok
}

// Append adds a new element at the end of the array field id. The length is
// read inside the transition.
func (s *Store) Append(ctx context.Context, id ID) bool {
	ctx = s.ctx(ctx)
	var ok bool
	s.exclusive(ctx, func(ctx context.Context) {
		ok = s.add(ctx, id, 0, true)
	})
	return ok
}

// Remove deletes the element at index of the array field id together with
// its value, touched and error entries. Invalid requests are logged and
// ignored; the result reports whether the element was removed.
func (s *Store) Remove(ctx context.Context, id ID, index int) bool {
	ctx = s.ctx(ctx)
	var ok bool
	s.exclusive(ctx, func(ctx context.Context) {
		ok = s.remove(ctx, id, index)
	})
	return ok
}

// arrayNode returns the array node id, logging why it cannot be used.
func (s *Store) arrayNode(ctx context.Context, id ID, op string) *node {
	logger := ctxlog.FromContext(ctx)
	if s.provider == nil {
		logger.Warn("Array operation before the form value binding is set.", "operation", op, "field_id", id)
		return nil
	}
	n := s.tree.get(id)
	if n == nil {
		logger.Warn("Array operation on unknown field.", "operation", op, "field_id", id)
		return nil
	}
	if !n.isArray() {
		logger.Warn("Array operation on a field without an array template.", "operation", op, "field_id", id, "key_path", n.path.String())
		return nil
	}
	return n
}

func (s *Store) add(ctx context.Context, id ID, index int, atEnd bool) bool {
	n := s.arrayNode(ctx, id, "add")
	if n == nil {
		return false
	}
	length := len(n.children)
	if atEnd {
		index = length
	}
	if index < 0 || index > length {
		ctxlog.FromContext(ctx).Warn("Array add index out of range.",
			"field_id", id, "key_path", n.path.String(), "index", index, "length", length)
		return false
	}

	tmpl := n.raw.Array
	path := n.path
	err := s.provider.Update(ctx, []keypath.Path{path}, func(d *formstate.Documents) {
		d.Insert(path, index, tmpl.DefaultValue())
	})
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Array add failed.", "field_id", id, "key_path", path.String(), "error", err)
		return false
	}

	values := s.provider.Values(ctx)
	child := s.build(ctx, tmpl, n, index, values)
	n.children = slices.Insert(n.children, index, child.id)
	s.renumber(n, index+1)
	s.markAffected(n.id)
	return true
}

func (s *Store) remove(ctx context.Context, id ID, index int) bool {
	n := s.arrayNode(ctx, id, "remove")
	if n == nil {
		return false
	}
	length := len(n.children)
	if index < 0 || index >= length {
		ctxlog.FromContext(ctx).Warn("Array remove index out of range.",
			"field_id", id, "key_path", n.path.String(), "index", index, "length", length)
		return false
	}

	path := n.path
	err := s.provider.Update(ctx, []keypath.Path{path}, func(d *formstate.Documents) {
		d.RemoveAt(path, index)
	})
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Array remove failed.", "field_id", id, "key_path", path.String(), "error", err)
		return false
	}

	// The element's state left with RemoveAt, so the subtree is dropped
	// without a reset: its former key-path now belongs to the next sibling.
	s.discard(ctx, s.tree.subtree(n.children[index]), false)
	n.children = slices.Delete(n.children, index, index+1)
	s.renumber(n, index)
	s.markAffected(n.id)
	return true
}

// renumber assigns positions from `from` onwards to the elements of the
// array node n and moves their subtrees to the matching key-paths.
func (s *Store) renumber(n *node, from int) {
	for i := from; i < len(n.children); i++ {
		child := s.tree.get(n.children[i])
		if child == nil {
			continue
		}
		child.index = i
		s.relabel(child, n)
	}
}

// relabel recomputes the key-paths of n and its descendants.
func (s *Store) relabel(n, parent *node) {
	if p := pathFor(n, parent); !p.Equal(n.path) {
		n.path = p
		s.markAffected(n.id)
	}
	for _, id := range n.children {
		if child := s.tree.get(id); child != nil {
			s.relabel(child, n)
		}
	}
}
