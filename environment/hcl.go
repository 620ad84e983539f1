package environment

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

var expressionFunctions = map[string]function.Function{
	"concat": stdlib.ConcatFunc,
	"format": stdlib.FormatFunc,
	"join":   stdlib.JoinFunc,
	"lower":  stdlib.LowerFunc,
	"upper":  stdlib.UpperFunc,
}

// Expression binds an HCL expression. Every variable the expression refers
// to is looked up in the composed environment when the binding is read.
func Expression(expr hcl.Expression) Binding {
	return Deferred(func(s Scope) (any, error) {
		variables := make(map[string]cty.Value)
		for _, traversal := range expr.Variables() {
			name := traversal.RootName()
			if _, ok := variables[name]; ok {
				continue
			}
			v, err := s.Lookup(name)
			if err != nil {
				return nil, err
			}
			cv, err := ToCty(v)
			if err != nil {
				return nil, fmt.Errorf("configuration %q: %w", name, err)
			}
			variables[name] = cv
		}

		val, diags := expr.Value(&hcl.EvalContext{
			Variables: variables,
			Functions: expressionFunctions,
		})
		if diags.HasErrors() {
			return nil, diags
		}
		return FromCty(val)
	})
}

// ToCty converts an environment value to a cty value.
func ToCty(v any) (cty.Value, error) {
	switch v := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(v), nil
	case bool:
		return cty.BoolVal(v), nil
	case int:
		return cty.NumberIntVal(int64(v)), nil
	case int64:
		return cty.NumberIntVal(v), nil
	case float64:
		return cty.NumberFloatVal(v), nil
	case []string:
		if len(v) == 0 {
			return cty.ListValEmpty(cty.String), nil
		}
		items := make([]cty.Value, len(v))
		for i, item := range v {
			items[i] = cty.StringVal(item)
		}
		return cty.ListVal(items), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported configuration value %T", v)
	}
}

// FromCty converts a cty value to an environment value. Collections become
// string sequences.
func FromCty(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		seq := make([]string, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, el := it.Element()
			str, err := convert.Convert(el, cty.String)
			if err != nil {
				return nil, fmt.Errorf("sequence element: %w", err)
			}
			if str.IsNull() {
				continue
			}
			seq = append(seq, str.AsString())
		}
		return seq, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
	}
}
