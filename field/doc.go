// Package field defines the author-supplied description of a form: a tree of
// Field values, each describing a widget type, wrappers, static props,
// expressions, validators and either a fixed-shape Group of children or an
// Array template repeated once per element of a value collection.
//
// Field trees are plain data. They are loaded from JSON or YAML, or built in Go
// when callables (expression funcs, inline validators) are needed, and are
// never mutated by the engine.
package field
