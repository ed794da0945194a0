package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamValue_Decimal(t *testing.T) {
	tests := []struct {
		name  string
		value ParamValue
		want  decimal.Decimal
	}{
		{name: "number", value: NumberParam(decimal.RequireFromString("899.99")), want: decimal.RequireFromString("899.99")},
		{name: "numeric string", value: StringParam(" 15 "), want: decimal.NewFromInt(15)},
		{name: "non numeric string", value: StringParam("cheap"), want: decimal.Zero},
		{name: "bool", value: BoolParam(true), want: decimal.Zero},
		{name: "invalid", value: ParamValue{}, want: decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(tt.value.Decimal()), "got %s", tt.value.Decimal())
		})
	}
}

func TestParseRuleParams(t *testing.T) {
	params, err := ParseRuleParams([]byte(`{"target": 900, "percent": "15", "flag": true, "nested": {"a": 1}, "list": [1], "none": null}`))
	require.NoError(t, err)

	assert.Equal(t, ParamKindNumber, params["target"].Kind)
	assert.True(t, decimal.NewFromInt(900).Equal(params.Number("target")))
	assert.Equal(t, ParamKindString, params["percent"].Kind)
	assert.True(t, decimal.NewFromInt(15).Equal(params.Number("percent")))
	assert.Equal(t, ParamKindBool, params["flag"].Kind)
	assert.Equal(t, ParamKindInvalid, params["nested"].Kind)
	assert.Equal(t, ParamKindInvalid, params["list"].Kind)
	assert.Equal(t, ParamKindInvalid, params["none"].Kind)
	assert.True(t, params.Number("missing").IsZero())
}

func TestParseRuleParams_Empty(t *testing.T) {
	params, err := ParseRuleParams(nil)
	require.NoError(t, err)
	assert.Empty(t, params)

	params, err = ParseRuleParams([]byte("null"))
	require.NoError(t, err)
	assert.NotNil(t, params)
}

func TestParseRuleParams_RejectsNonObject(t *testing.T) {
	_, err := ParseRuleParams([]byte(`[1, 2]`))
	assert.Error(t, err)
}

func TestRuleParams_MarshalJSON(t *testing.T) {
	params := RuleParams{
		"target": NumberParam(decimal.RequireFromString("899.99")),
		"label":  StringParam("laptop"),
		"flag":   BoolParam(false),
	}

	data, err := json.Marshal(params)
	require.NoError(t, err)
	assert.JSONEq(t, `{"target": 899.99, "label": "laptop", "flag": false}`, string(data))
}

func TestRuleParamsFromMap(t *testing.T) {
	params := RuleParamsFromMap(map[string]any{
		"target":  float64(900),
		"percent": json.Number("12.5"),
		"count":   3,
		"label":   "x",
		"other":   []any{1},
	})

	assert.True(t, decimal.NewFromInt(900).Equal(params.Number("target")))
	assert.True(t, decimal.RequireFromString("12.5").Equal(params.Number("percent")))
	assert.True(t, decimal.NewFromInt(3).Equal(params.Number("count")))
	assert.Equal(t, ParamKindString, params["label"].Kind)
	assert.Equal(t, ParamKindInvalid, params["other"].Kind)

	back := params.ToMap()
	assert.Equal(t, "900", back["target"])
	assert.Equal(t, "12.5", back["percent"])
	assert.Equal(t, "x", back["label"])
	assert.Nil(t, back["other"])
}

func TestRuleParamsFromMap_NonFiniteNumbers(t *testing.T) {
	params := RuleParamsFromMap(map[string]any{
		"nan":      math.NaN(),
		"inf":      math.Inf(1),
		"neg_inf":  math.Inf(-1),
		"nan32":    float32(math.NaN()),
		"inf32":    float32(math.Inf(1)),
		"finite32": float32(2.5),
	})

	for _, key := range []string{"nan", "inf", "neg_inf", "nan32", "inf32"} {
		assert.Equal(t, ParamKindInvalid, params[key].Kind, key)
		assert.True(t, params.Number(key).IsZero(), key)
	}
	assert.True(t, decimal.RequireFromString("2.5").Equal(params.Number("finite32")))
}
