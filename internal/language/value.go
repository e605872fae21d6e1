package language

import (
	"math/big"
	"strconv"
)

// ValueToGo converts a constant literal to its Go form: int for Int (*big.Int
// when it does not fit an int), float64 for Float, string for String and Enum, []any for lists and map[string]any
// for input objects. Variables convert to nil; see the executor for
// substitution.
func ValueToGo(value *Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case IntValue:
		if iv, err := strconv.Atoi(value.Raw); err == nil {
			return iv
		}
		if bv, ok := new(big.Int).SetString(value.Raw, 10); ok {
			return bv
		}
		return value.Raw
	case FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case StringValue, BlockValue, EnumValue:
		return value.Raw
	case BooleanValue:
		return value.Raw == "true"
	case ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = ValueToGo(c.Value)
		}
		return out
	case ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = ValueToGo(f.Value)
		}
		return m
	default:
		return nil
	}
}
