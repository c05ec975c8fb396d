package keypath

import (
	"maps"
	"slices"
)

// Get returns the value stored at p inside doc and whether it exists.
func Get(doc any, p Path) (any, bool) {
	cur := doc
	for _, seg := range p {
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
		cur, ok = obj[seg.Key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set returns a copy of doc where the value at p is v. Missing containers
// along the path are created: an index segment creates a list, a key segment
// creates an object. Containers on the path are cloned, everything else is shared.
func Set(doc any, p Path, v any) any {
	if len(p) == 0 {
		return v
	}

	seg := p[0]
	if seg.IsIndex() {
		list, _ := doc.([]any)
		out := slices.Clone(list)
		for len(out) <= seg.Index {
			out = append(out, nil)
		}
		out[seg.Index] = Set(out[seg.Index], p[1:], v)
		return out
	}

	obj, _ := doc.(map[string]any)
	out := maps.Clone(obj)
	if out == nil {
		out = make(map[string]any)
	}
	out[seg.Key] = Set(out[seg.Key], p[1:], v)
	return out
}

// Delete returns a copy of doc without the value at p. Object keys are removed;
// list elements are set to nil so sibling indexes stay stable. Deleting a path
// that does not exist returns doc unchanged.
func Delete(doc any, p Path) any {
	if len(p) == 0 {
		return nil
	}
	if _, ok := Get(doc, p); !ok {
		return doc
	}
	return deleteIn(doc, p)
}

func deleteIn(doc any, p Path) any {
	seg := p[0]
	if seg.IsIndex() {
		out := slices.Clone(doc.([]any))
		if len(p) == 1 {
			out[seg.Index] = nil
		} else {
			out[seg.Index] = deleteIn(out[seg.Index], p[1:])
		}
		return out
	}

	out := maps.Clone(doc.(map[string]any))
	if len(p) == 1 {
		delete(out, seg.Key)
	} else {
		out[seg.Key] = deleteIn(out[seg.Key], p[1:])
	}
	return out
}

// Insert returns a copy of doc where v is inserted into the list at p before
// position index. A missing (or non-list) value at p is treated as an empty list.
func Insert(doc any, p Path, index int, v any) any {
	cur, _ := Get(doc, p)
	list, _ := cur.([]any)
	if index < 0 || index > len(list) {
		index = len(list)
	}
	out := slices.Insert(slices.Clone(list), index, v)
	return Set(doc, p, out)
}

// RemoveAt returns a copy of doc where the list element at p[index] is removed.
// Out-of-range indexes and non-list values leave doc unchanged.
func RemoveAt(doc any, p Path, index int) any {
	cur, _ := Get(doc, p)
	list, ok := cur.([]any)
	if !ok || index < 0 || index >= len(list) {
		return doc
	}
	out := slices.Delete(slices.Clone(list), index, index+1)
	return Set(doc, p, out)
}

// Len returns the length of the list at p, or -1 when the value is absent or
// is not a list.
func Len(doc any, p Path) int {
	cur, ok := Get(doc, p)
	if !ok {
		return -1
	}
	list, ok := cur.([]any)
	if !ok {
		return -1
	}
	return len(list)
}
