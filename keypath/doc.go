/*
Package keypath provides a structured representation for the addresses of
field values inside a nested values document.

The canonical format is a dot-separated sequence of object keys where array
elements are addressed with bracketed indexes, e.g. `a.b[0].c` or `m[1][0]`.

Besides parsing and formatting, the package implements copy-on-write access
to documents made of map[string]any, []any and scalar leaves. Every mutating
helper returns a new root and never modifies the containers it was given, so
a caller holding an older root keeps a consistent snapshot.
*/
package keypath
