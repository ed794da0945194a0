package alertengine

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/simaogato/pricewatch-backend/internal/domain"
)

func cents(n int64) decimal.Decimal {
	return decimal.New(n, -2)
}

func TestProperty_PriceBelow(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("PRICE_BELOW fires iff price <= target", prop.ForAll(
		func(priceCents, targetCents int64) bool {
			rule := &domain.Rule{
				ID:     1,
				Type:   domain.RuleTypePriceBelow,
				Params: domain.RuleParams{domain.ParamTarget: domain.NumberParam(cents(targetCents))},
			}
			fired := Evaluate(domain.PriceState{Price: cents(priceCents), Currency: "EUR"}, nil, []*domain.Rule{rule})
			return (len(fired) == 1) == (priceCents <= targetCents)
		},
		gen.Int64Range(0, 1_000_000),
		gen.Int64Range(0, 1_000_000),
	))

	properties.Property("PRICE_BELOW fires at the boundary", prop.ForAll(
		func(priceCents int64) bool {
			rule := &domain.Rule{
				ID:     1,
				Type:   domain.RuleTypePriceBelow,
				Params: domain.RuleParams{domain.ParamTarget: domain.NumberParam(cents(priceCents))},
			}
			return len(Evaluate(domain.PriceState{Price: cents(priceCents)}, nil, []*domain.Rule{rule})) == 1
		},
		gen.Int64Range(0, 1_000_000),
	))

	properties.TestingRun(t)
}

func TestProperty_DropPercent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// integer percents over whole-unit prices keep the reference check exact:
	// (prev - cur) * 100 >= threshold * prev
	properties.Property("DROP_PERCENT fires iff the drop reaches the threshold", prop.ForAll(
		func(prev, cur, threshold int64) bool {
			rule := &domain.Rule{
				ID:     1,
				Type:   domain.RuleTypeDropPercent,
				Params: domain.RuleParams{domain.ParamPercent: domain.NumberParam(decimal.NewFromInt(threshold))},
			}
			previous := domain.PriceState{Price: decimal.NewFromInt(prev)}
			fired := Evaluate(domain.PriceState{Price: decimal.NewFromInt(cur)}, &previous, []*domain.Rule{rule})
			want := (prev-cur)*100 >= threshold*prev
			return (len(fired) == 1) == want
		},
		gen.Int64Range(1, 100_000),
		gen.Int64Range(0, 200_000),
		gen.Int64Range(-100, 100),
	))

	properties.Property("DROP_PERCENT with zero previous price fires iff threshold <= 0", prop.ForAll(
		func(cur, threshold int64) bool {
			rule := &domain.Rule{
				ID:     1,
				Type:   domain.RuleTypeDropPercent,
				Params: domain.RuleParams{domain.ParamPercent: domain.NumberParam(decimal.NewFromInt(threshold))},
			}
			previous := domain.PriceState{Price: decimal.Zero}
			fired := Evaluate(domain.PriceState{Price: decimal.NewFromInt(cur)}, &previous, []*domain.Rule{rule})
			return (len(fired) == 1) == (threshold <= 0)
		},
		gen.Int64Range(0, 100_000),
		gen.Int64Range(-100, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_BackInStock(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("BACK_IN_STOCK fires only on a rising edge", prop.ForAll(
		func(prevInStock, curInStock bool) bool {
			previous := domain.PriceState{InStock: prevInStock}
			fired := Evaluate(domain.PriceState{InStock: curInStock}, &previous, []*domain.Rule{{ID: 1, Type: domain.RuleTypeBackInStock}})
			return (len(fired) == 1) == (!prevInStock && curInStock)
		},
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestProperty_OrderPreserved(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("fired rule IDs keep the input order", prop.ForAll(
		func(targets []int64) bool {
			rules := make([]*domain.Rule, 0, len(targets))
			for i, target := range targets {
				rules = append(rules, &domain.Rule{
					ID:     int64(i + 1),
					Type:   domain.RuleTypePriceBelow,
					Params: domain.RuleParams{domain.ParamTarget: domain.NumberParam(decimal.NewFromInt(target))},
				})
			}
			fired := Evaluate(domain.PriceState{Price: decimal.NewFromInt(50)}, nil, rules)
			for i := 1; i < len(fired); i++ {
				if fired[i-1].RuleID >= fired[i].RuleID {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Int64Range(0, 100)),
	))

	properties.TestingRun(t)
}
