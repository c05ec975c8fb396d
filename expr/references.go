package expr

import (
	"math/big"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/jsonform/keypath"
	"github.com/zclconf/go-cty/cty"
)

// valuesRoot is the only variable visible to string expressions.
const valuesRoot = "values"

// analysis is the result of walking one parsed expression.
type analysis struct {
	// deps are the key-paths read through `values`, truncated at the first
	// dynamic step. An empty path means the whole document.
	deps []keypath.Path
	// unknownRoots are referenced variables other than `values`.
	unknownRoots []string
	// functions are the called function names, sorted and unique.
	functions []string
}

// analyze walks an expression to find its variable traversals and function calls.
func analyze(expr hclsyntax.Expression) analysis {
	var res analysis
	roots := make(map[string]struct{})
	for _, traversal := range expr.Variables() {
		root := traversal.RootName()
		if root != valuesRoot {
			roots[root] = struct{}{}
			continue
		}
		res.deps = append(res.deps, traversalPath(traversal))
	}
	for r := range roots {
		res.unknownRoots = append(res.unknownRoots, r)
	}
	sort.Strings(res.unknownRoots)

	functions := make(map[string]struct{})
	walkForFunctions(expr, functions)
	for f := range functions {
		res.functions = append(res.functions, f)
	}
	sort.Strings(res.functions)

	return res
}

// traversalPath converts the static steps after the root of a traversal into a
// key-path. It stops at the first step it cannot represent.
func traversalPath(t hcl.Traversal) keypath.Path {
	var p keypath.Path
	for _, step := range t[1:] {
		switch s := step.(type) {
		case hcl.TraverseAttr:
			p = append(p, keypath.Key(s.Name))
		case hcl.TraverseIndex:
			switch {
			case !s.Key.IsKnown() || s.Key.IsNull():
				return p
			case s.Key.Type() == cty.String:
				p = append(p, keypath.Key(s.Key.AsString()))
			case s.Key.Type() == cty.Number:
				i, acc := s.Key.AsBigFloat().Int64()
				if acc != big.Exact || i < 0 {
					return p
				}
				p = append(p, keypath.Index(int(i)))
			default:
				return p
			}
		default:
			return p
		}
	}
	return p
}

// walkForFunctions recursively walks the AST, looking only for function calls.
func walkForFunctions(expr hclsyntax.Expression, functions map[string]struct{}) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		functions[e.Name] = struct{}{}
		for _, arg := range e.Args {
			walkForFunctions(arg, functions)
		}
	case *hclsyntax.BinaryOpExpr:
		walkForFunctions(e.LHS, functions)
		walkForFunctions(e.RHS, functions)
	case *hclsyntax.ConditionalExpr:
		walkForFunctions(e.Condition, functions)
		walkForFunctions(e.TrueResult, functions)
		walkForFunctions(e.FalseResult, functions)
	case *hclsyntax.UnaryOpExpr:
		walkForFunctions(e.Val, functions)
	case *hclsyntax.TemplateExpr:
		for _, part := range e.Parts {
			walkForFunctions(part, functions)
		}
	case *hclsyntax.TemplateWrapExpr:
		walkForFunctions(e.Wrapped, functions)
	case *hclsyntax.TupleConsExpr:
		for _, item := range e.Exprs {
			walkForFunctions(item, functions)
		}
	case *hclsyntax.ObjectConsExpr:
		for _, item := range e.Items {
			walkForFunctions(item.KeyExpr, functions)
			walkForFunctions(item.ValueExpr, functions)
		}
	case *hclsyntax.ObjectConsKeyExpr:
		walkForFunctions(e.Wrapped, functions)
	case *hclsyntax.ForExpr:
		walkForFunctions(e.CollExpr, functions)
		walkForFunctions(e.KeyExpr, functions)
		walkForFunctions(e.ValExpr, functions)
		walkForFunctions(e.CondExpr, functions)
	case *hclsyntax.IndexExpr:
		walkForFunctions(e.Collection, functions)
		walkForFunctions(e.Key, functions)
	case *hclsyntax.SplatExpr:
		walkForFunctions(e.Source, functions)
		walkForFunctions(e.Each, functions)
	case *hclsyntax.ParenthesesExpr:
		walkForFunctions(e.Expression, functions)
	case *hclsyntax.RelativeTraversalExpr:
		walkForFunctions(e.Source, functions)
	}
}
