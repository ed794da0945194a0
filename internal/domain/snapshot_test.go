package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservation_Validate(t *testing.T) {
	tests := []struct {
		name    string
		obs     Observation
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid observation",
			obs:  Observation{Price: decimal.RequireFromString("899.99"), Currency: "EUR", InStock: true},
		},
		{
			name: "free item is valid",
			obs:  Observation{Price: decimal.Zero, Currency: "EUR"},
		},
		{
			name:    "negative price",
			obs:     Observation{Price: decimal.NewFromInt(-1), Currency: "EUR"},
			wantErr: true,
			errMsg:  "observation price cannot be negative",
		},
		{
			name:    "missing currency",
			obs:     Observation{Price: decimal.NewFromInt(1)},
			wantErr: true,
			errMsg:  "observation currency cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.obs.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAlertDetails_JSON(t *testing.T) {
	details := AlertDetails{
		"prev_price":    decimal.RequireFromString("250"),
		"drop_percent":  decimal.RequireFromString("20"),
		"prev_in_stock": false,
	}

	data, err := json.Marshal(details)
	require.NoError(t, err)
	assert.JSONEq(t, `{"prev_price": 250, "drop_percent": 20, "prev_in_stock": false}`, string(data))

	var decoded AlertDetails
	require.NoError(t, json.Unmarshal(data, &decoded))
	dec, ok := decoded["prev_price"].(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(250).Equal(dec))
	assert.Equal(t, false, decoded["prev_in_stock"])
}
