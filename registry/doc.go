// Package registry holds the lookups a form engine resolves string identifiers
// against: rendering components (widgets and wrappers), validator predicates,
// and validation messages.
//
// A Registry is built once per engine instance from one or more Config scopes.
// Scopes are merged in order: a later scope wins per key, and each sub-map is
// merged key-wise rather than replaced. The built-in validators returned by
// Defaults always form the outermost scope.
package registry
