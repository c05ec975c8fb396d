package keypath

// Segment is a single component of a Path: either an object key or an array index.
type Segment struct {
	Key   string
	Index int // -1 indicates an object key.
}

// Key creates an object key segment.
func Key(name string) Segment {
	return Segment{Key: name, Index: -1}
}

// Index creates an array index segment.
func Index(i int) Segment {
	return Segment{Index: i}
}

// IsIndex returns true if the segment addresses an array element.
func (s Segment) IsIndex() bool {
	return s.Index != -1
}

// Path is the structured representation of a key-path. A nil or empty Path
// addresses the document root.
type Path []Segment
