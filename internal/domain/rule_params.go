package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParamKind is the closed set of primitive kinds a rule parameter can hold
type ParamKind int

const (
	ParamKindInvalid ParamKind = iota // null, object, array or unparsable input
	ParamKindNumber
	ParamKindString
	ParamKindBool
)

// ParamValue is a single rule parameter value
type ParamValue struct {
	Kind   ParamKind
	Number decimal.Decimal
	Text   string
	Bool   bool
}

// NumberParam builds a numeric parameter value
func NumberParam(d decimal.Decimal) ParamValue {
	return ParamValue{Kind: ParamKindNumber, Number: d}
}

// StringParam builds a text parameter value
func StringParam(s string) ParamValue {
	return ParamValue{Kind: ParamKindString, Text: s}
}

// BoolParam builds a boolean parameter value
func BoolParam(b bool) ParamValue {
	return ParamValue{Kind: ParamKindBool, Bool: b}
}

// Decimal coerces the value to a number.
// Numeric strings are parsed; every other kind yields zero.
func (v ParamValue) Decimal() decimal.Decimal {
	switch v.Kind {
	case ParamKindNumber:
		return v.Number
	case ParamKindString:
		d, err := decimal.NewFromString(strings.TrimSpace(v.Text))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// MarshalJSON renders numbers as bare JSON numbers
func (v ParamValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ParamKindNumber:
		return []byte(v.Number.String()), nil
	case ParamKindString:
		return json.Marshal(v.Text)
	case ParamKindBool:
		return json.Marshal(v.Bool)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON never fails on well-formed JSON: values outside the
// primitive kinds decode as ParamKindInvalid.
func (v *ParamValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		*v = ParamValue{}
	case bytes.Equal(trimmed, []byte("true")):
		*v = BoolParam(true)
	case bytes.Equal(trimmed, []byte("false")):
		*v = BoolParam(false)
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = StringParam(s)
	case trimmed[0] == '{', trimmed[0] == '[':
		*v = ParamValue{}
	default:
		d, err := decimal.NewFromString(string(trimmed))
		if err != nil {
			*v = ParamValue{}
			return nil
		}
		*v = NumberParam(d)
	}
	return nil
}

// RuleParams is the type-erased parameter mapping persisted with a rule.
// Variants read only the keys they need and ignore the rest.
type RuleParams map[string]ParamValue

// Number returns the numeric value under key, or zero when missing or non-numeric
func (p RuleParams) Number(key string) decimal.Decimal {
	v, ok := p[key]
	if !ok {
		return decimal.Zero
	}
	return v.Decimal()
}

// ParseRuleParams decodes a JSON object into RuleParams.
// An empty input yields an empty mapping.
func ParseRuleParams(data []byte) (RuleParams, error) {
	params := RuleParams{}
	if len(bytes.TrimSpace(data)) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, err
	}
	if params == nil {
		params = RuleParams{}
	}
	return params, nil
}

// RuleParamsFromMap converts loosely typed values (decoded JSON, YAML, structpb)
// into RuleParams. Unsupported values become ParamKindInvalid.
func RuleParamsFromMap(m map[string]any) RuleParams {
	params := make(RuleParams, len(m))
	for k, raw := range m {
		params[k] = paramFromAny(raw)
	}
	return params
}

func paramFromAny(raw any) ParamValue {
	switch val := raw.(type) {
	case decimal.Decimal:
		return NumberParam(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return ParamValue{}
		}
		return NumberParam(decimal.NewFromFloat(val))
	case float32:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return ParamValue{}
		}
		return NumberParam(decimal.NewFromFloat32(val))
	case int:
		return NumberParam(decimal.NewFromInt(int64(val)))
	case int64:
		return NumberParam(decimal.NewFromInt(val))
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return ParamValue{}
		}
		return NumberParam(d)
	case string:
		return StringParam(val)
	case bool:
		return BoolParam(val)
	default:
		return ParamValue{}
	}
}

// ToMap converts the parameters back into loosely typed values that JSON and
// structpb encoders accept. Numbers become decimal strings to keep their precision.
func (p RuleParams) ToMap() map[string]any {
	m := make(map[string]any, len(p))
	for k, v := range p {
		switch v.Kind {
		case ParamKindNumber:
			m[k] = v.Number.String()
		case ParamKindString:
			m[k] = v.Text
		case ParamKindBool:
			m[k] = v.Bool
		default:
			m[k] = nil
		}
	}
	return m
}
