// Package expr compiles the per-field `hide` and `props.<key>` expressions of a
// field tree into evaluators over a values snapshot.
//
// String expressions use the HCL native expression syntax (property paths,
// literals, comparisons, boolean connectives, conditionals and a fixed table of
// pure functions). They are parsed into a syntax tree once and evaluated against
// a cty rendering of the values document; no host code is ever synthesized from
// the source text. The only variable in scope is `values`.
//
// Compilation is strict: a source that does not parse, references an unknown
// variable, or calls an unknown function is reported as a *CompileError.
// Evaluation is lenient: a runtime failure on a particular snapshot is logged and
// the evaluator falls back to its safe default.
package expr
