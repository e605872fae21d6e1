package language

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
)

func TestValueToGo(t *testing.T) {
	huge, _ := new(big.Int).SetString("99999999999999999999", 10)
	tests := []struct {
		name  string
		value *Value
		want  any
	}{
		{"int", &Value{Kind: IntValue, Raw: "42"}, 42},
		{"int beyond int64", &Value{Kind: IntValue, Raw: "99999999999999999999"}, huge},
		{"float", &Value{Kind: FloatValue, Raw: "1.5"}, 1.5},
		{"enum", &Value{Kind: EnumValue, Raw: "RED"}, "RED"},
		{"boolean", &Value{Kind: BooleanValue, Raw: "true"}, true},
		{"list", &Value{Kind: ListValue, Children: ast.ChildValueList{{Value: &Value{Kind: IntValue, Raw: "1"}}}}, []any{1}},
		{"object", &Value{Kind: ObjectValue, Children: ast.ChildValueList{{Name: "a", Value: &Value{Kind: StringValue, Raw: "x"}}}}, map[string]any{"a": "x"}},
		{"null", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ValueToGo(tt.value))
		})
	}
}
