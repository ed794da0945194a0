package alertengine

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/pricewatch-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Evaluate decides which rules fire for the current state and the optional previous state.
// Logic:
//  1. Walk the rules in the order given; the output keeps that order
//  2. PRICE_BELOW fires when current price <= target
//  3. DROP_PERCENT and BACK_IN_STOCK need a previous state and never fire without one
//  4. Unknown rule types are skipped
//
// Evaluate is pure: missing or non-numeric parameters count as zero and it never fails.
func Evaluate(current domain.PriceState, previous *domain.PriceState, rules []*domain.Rule) []domain.FiredRule {
	fired := make([]domain.FiredRule, 0)

	for _, rule := range rules {
		if rule == nil {
			continue
		}

		var result *domain.FiredRule
		switch rule.Type {
		case domain.RuleTypePriceBelow:
			result = evaluatePriceBelow(rule, current)
		case domain.RuleTypeDropPercent:
			result = evaluateDropPercent(rule, current, previous)
		case domain.RuleTypeBackInStock:
			result = evaluateBackInStock(rule, current, previous)
		default:
			// unknown types never fire
			continue
		}

		if result != nil {
			fired = append(fired, *result)
		}
	}

	return fired
}

// PercentDrop returns how much cur fell below prev, in percent of prev.
// A non-positive prev yields zero. A price increase yields a negative drop.
func PercentDrop(prev, cur decimal.Decimal) decimal.Decimal {
	if prev.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return prev.Sub(cur).Mul(hundred).Div(prev)
}

func evaluatePriceBelow(rule *domain.Rule, current domain.PriceState) *domain.FiredRule {
	target := rule.PriceBelow().Target
	if current.Price.GreaterThan(target) {
		return nil
	}
	return &domain.FiredRule{
		RuleID:  rule.ID,
		Message: fmt.Sprintf("Price is below target (%s)", target.String()),
		Details: domain.AlertDetails{
			"price":  current.Price,
			"target": target,
		},
	}
}

func evaluateDropPercent(rule *domain.Rule, current domain.PriceState, previous *domain.PriceState) *domain.FiredRule {
	if previous == nil {
		return nil
	}
	threshold := rule.DropPercent().Percent
	drop := PercentDrop(previous.Price, current.Price)
	if drop.LessThan(threshold) {
		return nil
	}
	return &domain.FiredRule{
		RuleID:  rule.ID,
		Message: fmt.Sprintf("Price dropped by %s%% (>= %s%%)", drop.StringFixed(2), threshold.String()),
		Details: domain.AlertDetails{
			"prev_price":   previous.Price,
			"price":        current.Price,
			"drop_percent": drop,
			"threshold":    threshold,
		},
	}
}

func evaluateBackInStock(rule *domain.Rule, current domain.PriceState, previous *domain.PriceState) *domain.FiredRule {
	if previous == nil {
		return nil
	}
	if previous.InStock || !current.InStock {
		return nil
	}
	return &domain.FiredRule{
		RuleID:  rule.ID,
		Message: "Item is back in stock",
		Details: domain.AlertDetails{
			"prev_in_stock": previous.InStock,
			"in_stock":      current.InStock,
		},
	}
}
