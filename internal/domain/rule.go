package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RuleType represents the kind of condition a rule checks
type RuleType string

const (
	RuleTypePriceBelow  RuleType = "PRICE_BELOW"
	RuleTypeDropPercent RuleType = "DROP_PERCENT"
	RuleTypeBackInStock RuleType = "BACK_IN_STOCK"
)

// Parameter keys read by the rule variants
const (
	ParamTarget  = "target"
	ParamPercent = "percent"
)

// ParseRuleType normalises a user supplied rule type and rejects unknown values.
// Matching is case-insensitive.
func ParseRuleType(s string) (RuleType, error) {
	rt := RuleType(strings.ToUpper(strings.TrimSpace(s)))
	if !rt.IsKnown() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRuleType, s)
	}
	return rt, nil
}

// IsKnown reports whether the rule type belongs to the enumeration
func (rt RuleType) IsKnown() bool {
	switch rt {
	case RuleTypePriceBelow, RuleTypeDropPercent, RuleTypeBackInStock:
		return true
	default:
		return false
	}
}

// Rule represents a user-defined alert condition on a tracked item
type Rule struct {
	ID                      int64
	TrackedItemID           int64
	Type                    RuleType
	Params                  RuleParams
	IsEnabled               bool
	LastTriggeredSnapshotID *int64 // NULL until the rule fires for the first time
}

// PriceBelowParams is the payload of a PRICE_BELOW rule
type PriceBelowParams struct {
	Target decimal.Decimal
}

// DropPercentParams is the payload of a DROP_PERCENT rule
type DropPercentParams struct {
	Percent decimal.Decimal
}

// PriceBelow reads the PRICE_BELOW payload. A missing or non-numeric target is zero.
func (r *Rule) PriceBelow() PriceBelowParams {
	return PriceBelowParams{Target: r.Params.Number(ParamTarget)}
}

// DropPercent reads the DROP_PERCENT payload. A missing or non-numeric percent is zero.
func (r *Rule) DropPercent() DropPercentParams {
	return DropPercentParams{Percent: r.Params.Number(ParamPercent)}
}

// Validate ensures the rule adheres to domain rules
// Returns an error if validation fails
func (r *Rule) Validate() error {
	if r.TrackedItemID <= 0 {
		return errors.New("rule must belong to a tracked item")
	}
	if !r.Type.IsKnown() {
		return fmt.Errorf("%w: %q", ErrInvalidRuleType, string(r.Type))
	}
	return nil
}
