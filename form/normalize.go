package form

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/multierr"

	"github.com/vk/jsonform/expr"
	"github.com/vk/jsonform/field"
	"github.com/vk/jsonform/formstate"
	"github.com/vk/jsonform/internal/ctxlog"
	"github.com/vk/jsonform/keypath"
)

// compileTree compiles the expressions of every raw field, array templates
// included. Raw fields already compiled by this store are reused. All compile
// errors are reported together.
func (s *Store) compileTree(ctx context.Context, raws []*field.Field) (map[*field.Field]*expr.Compiled, error) {
	out := make(map[*field.Field]*expr.Compiled)
	var errs error

	var visit func(f *field.Field, owner string)
	visit = func(f *field.Field, owner string) {
		if _, done := out[f]; !done {
			if c, ok := s.compiled[f]; ok {
				out[f] = c
			} else {
				c, err := s.compiler.Compile(ctx, owner, f.Expressions)
				if err != nil {
					errs = multierr.Append(errs, err)
				} else {
					out[f] = c
				}
			}
		}
		for i, child := range f.Group {
			if child != nil {
				visit(child, ownerName(owner, child, i))
			}
		}
		if f.Array != nil {
			visit(f.Array, ownerName(owner+"[]", f.Array, 0))
		}
	}
	for i, f := range raws {
		if f != nil {
			visit(f, ownerName("", f, i))
		}
	}

	if errs != nil {
		return nil, fmt.Errorf("compiling field expressions: %w", errs)
	}
	return out, nil
}

// ownerName names a raw field in compile errors and logs.
func ownerName(prefix string, f *field.Field, pos int) string {
	name := f.Name
	if name == "" {
		name = fmt.Sprintf("#%d", pos)
	}
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// nameSegments parses a field name, which may itself be a key-path such as
// `address.city`.
func nameSegments(ctx context.Context, name string) keypath.Path {
	if name == "" {
		return nil
	}
	p, err := keypath.Parse(name)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Field name is not a valid key-path, using it as a single key.", "name", name, "error", err)
		return keypath.Path{keypath.Key(name)}
	}
	return p
}

// pathFor computes the key-path of n below parent.
func pathFor(n, parent *node) keypath.Path {
	var base keypath.Path
	if parent != nil {
		base = parent.path
	}
	switch {
	case n.index >= 0:
		return base.Elem(n.index)
	case len(n.segs) > 0:
		out := make(keypath.Path, 0, len(base)+len(n.segs))
		out = append(out, base...)
		return append(out, n.segs...)
	}
	return slices.Clone(base)
}

// build creates a new node for raw and, recursively, its group children and
// array elements. index is the element position, or -1.
func (s *Store) build(ctx context.Context, raw *field.Field, parent *node, index int, values map[string]any) *node {
	n := &node{
		id:       s.tree.alloc(),
		raw:      raw,
		fp:       field.Fingerprint(raw),
		index:    index,
		compiled: s.compiled[raw],
		fresh:    true,
	}
	if parent != nil {
		n.parent = parent.id
	}
	if index < 0 {
		n.segs = nameSegments(ctx, raw.Name)
	}
	n.path = pathFor(n, parent)
	s.tree.nodes[n.id] = n
	s.markAffected(n.id)

	if raw.Array != nil {
		length := keypath.Len(values, n.path)
		for i := 0; i < length; i++ {
			n.children = append(n.children, s.build(ctx, raw.Array, n, i, values).id)
		}
		return n
	}
	for _, child := range raw.Group {
		if child == nil {
			continue
		}
		n.children = append(n.children, s.build(ctx, child, n, -1, values).id)
	}
	return n
}

// matches reports whether an existing node may keep its identity for raw:
// it was built from the same raw field, from one with the same content, or
// from one binding the same name with the same type and shape.
func matches(n *node, raw *field.Field) bool {
	if n == nil {
		return false
	}
	if n.raw == raw || n.fp == field.Fingerprint(raw) {
		return true
	}
	return raw.Name != "" &&
		n.raw.Name == raw.Name &&
		n.raw.Type == raw.Type &&
		(n.raw.Array == nil) == (raw.Array == nil)
}

// reconcile maps raws onto the existing child list. A raw field first tries
// the node at its own position, then any other unclaimed sibling it matches;
// a matched node keeps its identity and everything else is rebuilt. Nodes
// that are not carried over are appended to removed.
func (s *Store) reconcile(ctx context.Context, raws []*field.Field, parent *node, existing []ID, values map[string]any, removed *[]*node) []ID {
	var ids []ID
	claimed := make(map[ID]bool, len(existing))
	find := func(raw *field.Field, pos int) *node {
		if pos < len(existing) && !claimed[existing[pos]] {
			if n := s.tree.get(existing[pos]); n != nil && n.index < 0 && matches(n, raw) {
				return n
			}
		}
		for _, id := range existing {
			if claimed[id] {
				continue
			}
			if n := s.tree.get(id); n != nil && n.index < 0 && matches(n, raw) {
				return n
			}
		}
		return nil
	}

	for _, raw := range raws {
		if raw == nil {
			ctxlog.FromContext(ctx).Warn("Skipping nil field.", "parent_id", parentID(parent))
			continue
		}
		if old := find(raw, len(ids)); old != nil {
			claimed[old.id] = true
			s.adopt(ctx, old, raw, parent, -1, values, removed)
			ids = append(ids, old.id)
			continue
		}
		ids = append(ids, s.build(ctx, raw, parent, -1, values).id)
	}
	for _, id := range existing {
		if !claimed[id] {
			*removed = append(*removed, s.tree.subtree(id)...)
		}
	}
	return ids
}

// reconcileElements sizes the element list of the array node n to the value
// length, keeping the identity of elements at unchanged positions.
func (s *Store) reconcileElements(ctx context.Context, n *node, values map[string]any, removed *[]*node) {
	tmpl := n.raw.Array
	length := keypath.Len(values, n.path)
	ids := make([]ID, 0, max(length, 0))
	for i := 0; i < length; i++ {
		var old *node
		if i < len(n.children) {
			old = s.tree.get(n.children[i])
		}
		if old != nil && matches(old, tmpl) {
			s.adopt(ctx, old, tmpl, n, i, values, removed)
			ids = append(ids, old.id)
			continue
		}
		if old != nil {
			*removed = append(*removed, s.tree.subtree(old.id)...)
		}
		ids = append(ids, s.build(ctx, tmpl, n, i, values).id)
	}
	for _, id := range n.children[min(len(ids), len(n.children)):] {
		*removed = append(*removed, s.tree.subtree(id)...)
	}
	n.children = ids
}

// adopt carries an existing node over to raw, refreshing its links and
// key-path, then reconciles its children.
func (s *Store) adopt(ctx context.Context, n *node, raw *field.Field, parent *node, index int, values map[string]any, removed *[]*node) {
	if n.raw != raw {
		n.raw = raw
		n.fp = field.Fingerprint(raw)
		n.resolved = false
		n.fresh = true
	}
	n.compiled = s.compiled[raw]
	n.parent = parentID(parent)
	n.index = index
	if index < 0 {
		n.segs = nameSegments(ctx, raw.Name)
	} else {
		n.segs = nil
	}
	if p := pathFor(n, parent); !p.Equal(n.path) {
		n.path = p
		s.markAffected(n.id)
	}

	if raw.Array != nil {
		s.reconcileElements(ctx, n, values, removed)
		return
	}
	n.children = s.reconcile(ctx, raw.Group, n, n.children, values, removed)
}

func parentID(parent *node) ID {
	if parent == nil {
		return Root
	}
	return parent.id
}

// rebuild reconciles the whole tree against the current raw fields and values
// and schedules a full recompute pass.
func (s *Store) rebuild(ctx context.Context) {
	values := s.provider.Values(ctx)

	var removed []*node
	s.tree.roots = s.reconcile(ctx, s.raws, nil, s.tree.roots, values, &removed)
	s.discard(ctx, removed, true)

	s.pendingMu.Lock()
	s.pendingAll = true
	s.pendingMu.Unlock()
}

// discard drops removed nodes from the arena and unregisters their
// validators. With reset, the state at each bound node's former key-path is
// cleared.
func (s *Store) discard(ctx context.Context, removed []*node, reset bool) {
	if len(removed) == 0 {
		return
	}

	var resets []keypath.Path
	for _, n := range removed {
		if n.registered {
			s.provider.UnregisterValidator(ctx, n.registeredAt)
			n.registered = false
		}
		delete(s.tree.nodes, n.id)
		s.markAffected(n.id)
		if reset && n.bound() {
			resets = append(resets, n.path)
		}
	}
	s.reset(ctx, resets)
}

// reset clears value, touched and error at every path holding state, as one
// commit.
func (s *Store) reset(ctx context.Context, paths []keypath.Path) {
	var live []keypath.Path
	for _, p := range paths {
		if s.hasState(ctx, p) {
			live = append(live, p)
		}
	}
	if len(live) == 0 {
		return
	}

	logger := ctxlog.FromContext(ctx)
	for _, p := range live {
		logger.Debug("Resetting field state.", "key_path", p.String())
	}
	err := s.provider.Update(ctx, live, func(d *formstate.Documents) {
		for _, p := range live {
			d.Reset(p)
		}
	})
	if err != nil {
		logger.Warn("Resetting field state failed.", "error", err)
	}
}

func (s *Store) hasState(ctx context.Context, p keypath.Path) bool {
	if _, ok := s.provider.GetValue(ctx, p); ok {
		return true
	}
	m := s.provider.GetMeta(ctx, p)
	return m.Touched || m.Error != ""
}
