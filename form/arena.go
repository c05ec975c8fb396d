package form

// arena owns every node of a tree. Parent and child links are IDs.
type arena struct {
	nodes map[ID]*node
	roots []ID
	next  ID
}

func newArena() *arena {
	return &arena{nodes: make(map[ID]*node)}
}

func (a *arena) alloc() ID {
	a.next++
	return a.next
}

func (a *arena) get(id ID) *node {
	return a.nodes[id]
}

func (a *arena) parentOf(n *node) *node {
	if n.parent == Root {
		return nil
	}
	return a.nodes[n.parent]
}

// walk visits the tree depth-first in display order. visit receives the node
// and its parent (nil for roots). The child list is read after visit returns,
// so visit may replace a node's children.
func (a *arena) walk(visit func(n, parent *node)) {
	var rec func(ids []ID, parent *node)
	rec = func(ids []ID, parent *node) {
		for _, id := range ids {
			n := a.nodes[id]
			if n == nil {
				continue
			}
			visit(n, parent)
			rec(n.children, n)
		}
	}
	rec(a.roots, nil)
}

// subtree returns id and all of its descendants, parents first.
func (a *arena) subtree(id ID) []*node {
	var out []*node
	var rec func(id ID)
	rec = func(id ID) {
		n := a.nodes[id]
		if n == nil {
			return
		}
		out = append(out, n)
		for _, c := range n.children {
			rec(c)
		}
	}
	rec(id)
	return out
}
