package expr

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// toCty converts a values document (maps, lists and JSON scalars) into a cty.Value.
func toCty(v any) (cty.Value, error) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return x, nil
	case string:
		return cty.StringVal(x), nil
	case bool:
		return cty.BoolVal(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return cty.NullVal(cty.Number), nil
		}
		return cty.NumberFloatVal(x), nil
	case float32:
		return cty.NumberFloatVal(float64(x)), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case int64:
		return cty.NumberIntVal(x), nil
	case int32:
		return cty.NumberIntVal(int64(x)), nil
	case uint64:
		return cty.NumberUIntVal(x), nil
	case json.Number:
		return cty.ParseNumberVal(x.String())
	case map[string]any:
		if len(x) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(x))
		for k, elem := range x {
			cv, err := toCty(elem)
			if err != nil {
				return cty.NilVal, fmt.Errorf("in attribute '%s': %w", k, err)
			}
			attrs[k] = cv
		}
		return cty.ObjectVal(attrs), nil
	case []any:
		if len(x) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(x))
		for i, elem := range x {
			cv, err := toCty(elem)
			if err != nil {
				return cty.NilVal, fmt.Errorf("at index %d: %w", i, err)
			}
			elems[i] = cv
		}
		return cty.TupleVal(elems), nil
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type for %T: %w", v, err)
	}
	return gocty.ToCtyValue(v, ty)
}

// fromCty recursively converts a cty.Value to its most natural Go counterpart.
// Numbers become float64, matching what a JSON decoder produces.
func fromCty(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}
	v, _ = v.Unmark()

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := fromCty(elem)
			if err != nil {
				return nil, err
			}
			slice = append(slice, native)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		m := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			native, err := fromCty(elem)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", key.AsString(), err)
			}
			m[key.AsString()] = native
		}
		return m, nil
	}

	return nil, fmt.Errorf("unsupported cty type for conversion: %s", ty.FriendlyName())
}

// Truthy applies the loose boolean coercion used for `hide`: nil, false, zero
// numbers and empty strings are false; everything else is true.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case float32:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case int32:
		return x != 0
	case uint64:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	case *big.Float:
		return x.Sign() != 0
	}
	return true
}
