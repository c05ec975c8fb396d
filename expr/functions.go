package expr

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/tryfunc"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// truthyFunc is the name under which operands of `!`, `&&` and `||` are
// coerced to booleans.
const truthyFunc = "truthy"

// defaultFunctions is the fixed table of pure functions callable from string
// expressions.
func defaultFunctions() map[string]function.Function {
	return map[string]function.Function{
		"abs":       stdlib.AbsoluteFunc,
		"can":       tryfunc.CanFunc,
		"coalesce":  stdlib.CoalesceFunc,
		"contains":  stdlib.ContainsFunc,
		"length":    stdlib.LengthFunc,
		"lower":     stdlib.LowerFunc,
		"max":       stdlib.MaxFunc,
		"min":       stdlib.MinFunc,
		"strlen":    stdlib.StrlenFunc,
		"trimspace": stdlib.TrimSpaceFunc,
		truthyFunc:  truthyFunction,
		"try":       tryfunc.TryFunc,
		"upper":     stdlib.UpperFunc,
	}
}

// truthyFunction applies Truthy to any value, null included.
var truthyFunction = function.New(&function.Spec{
	Params: []function.Parameter{{
		Name:             "v",
		Type:             cty.DynamicPseudoType,
		AllowNull:        true,
		AllowDynamicType: true,
		AllowUnknown:     true,
	}},
	Type: function.StaticReturnType(cty.Bool),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		if !args[0].IsWhollyKnown() {
			return cty.UnknownVal(cty.Bool), nil
		}
		v, err := fromCty(args[0])
		if err != nil {
			return cty.NilVal, err
		}
		return cty.BoolVal(Truthy(v)), nil
	},
})

// coerceLogicalOperands wraps every operand of `!`, `&&` and `||` in a
// truthy call so the operators accept any value.
func coerceLogicalOperands(expr hclsyntax.Expression) {
	hclsyntax.VisitAll(expr, func(node hclsyntax.Node) hcl.Diagnostics {
		switch e := node.(type) {
		case *hclsyntax.UnaryOpExpr:
			if e.Op == hclsyntax.OpLogicalNot {
				e.Val = truthyCall(e.Val)
			}
		case *hclsyntax.BinaryOpExpr:
			if e.Op == hclsyntax.OpLogicalAnd || e.Op == hclsyntax.OpLogicalOr {
				e.LHS = truthyCall(e.LHS)
				e.RHS = truthyCall(e.RHS)
			}
		}
		return nil
	})
}

func truthyCall(operand hclsyntax.Expression) hclsyntax.Expression {
	if call, ok := operand.(*hclsyntax.FunctionCallExpr); ok && call.Name == truthyFunc {
		return operand
	}
	rng := operand.Range()
	return &hclsyntax.FunctionCallExpr{
		Name:            truthyFunc,
		Args:            []hclsyntax.Expression{operand},
		NameRange:       rng,
		OpenParenRange:  rng,
		CloseParenRange: rng,
	}
}
