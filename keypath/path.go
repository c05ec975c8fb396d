package keypath

import (
	"strconv"
	"strings"
)

// String serializes the Path into its canonical representation.
func (p Path) String() string {
	var sb strings.Builder
	for i, segment := range p {
		if segment.IsIndex() {
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(segment.Index))
			sb.WriteByte(']')
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(segment.Key)
	}
	return sb.String()
}

// IsEmpty reports whether the path addresses the document root.
func (p Path) IsEmpty() bool {
	return len(p) == 0
}

// Equal checks two paths for segment-wise equality.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Child returns a new path extended by an object key.
func (p Path) Child(name string) Path {
	return p.append(Key(name))
}

// Elem returns a new path extended by an array index.
func (p Path) Elem(i int) Path {
	return p.append(Index(i))
}

func (p Path) append(s Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// HasPrefix reports whether prefix addresses p itself or one of its ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return p[:len(prefix)].Equal(prefix)
}

// Overlaps reports whether a change at one path can affect the value at the
// other, i.e. one of them is a prefix of the other.
func Overlaps(a, b Path) bool {
	return a.HasPrefix(b) || b.HasPrefix(a)
}
