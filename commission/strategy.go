/*
strategy.go - Closed set of calculation formulas

PURPOSE:
  Each sub-category maps to exactly one of four formulas. The set is closed:
  the strategy interface has an unexported method, so no package outside
  this one can add a variant, and an unmapped sub-category is a validation
  error - never a silent zero commission.

THE FOUR FORMULAS:
  life:           valuation = grossYearly * years
                  commission = valuation * rate / 1000   (rate in per-mille)
  healthMonthly:  valuation = grossPremium  (raw monthly figure)
                  commission = grossPremium * rate       (flat multiplier)
  healthTravel:   valuation = grossYearly
                  commission = grossYearly * rate / 100  (rate in percent)
  annualPercent:  valuation = netYearly
                  commission = netYearly * rate / 100    (rate in percent)

  Note the unit of `rate` differs per formula. The per-sub-category default
  table in product/rates.go is expressed in matching units.
*/
package commission

import (
	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/product"
)

var (
	thousand = decimal.NewFromInt(1000)
	hundred  = decimal.NewFromInt(100)
)

// strategy computes the valuation sum and commission for annualized figures.
// The unexported method keeps the variant set closed to this package.
type strategy interface {
	valuation(in Input, netYearly, grossYearly decimal.Decimal) decimal.Decimal
	commission(valuation decimal.Decimal, rate decimal.Decimal) decimal.Decimal
}

// -----------------------------------------------------------------------------
// life: multi-year sum, rate in per-mille
// -----------------------------------------------------------------------------

type lifeStrategy struct{}

func (lifeStrategy) valuation(in Input, _, grossYearly decimal.Decimal) decimal.Decimal {
	return grossYearly.Mul(decimal.NewFromInt(int64(in.DurationYears)))
}

func (lifeStrategy) commission(valuation, rate decimal.Decimal) decimal.Decimal {
	return valuation.Mul(rate).Div(thousand)
}

// -----------------------------------------------------------------------------
// healthMonthly: raw monthly premium, rate as flat multiplier
// -----------------------------------------------------------------------------

type healthMonthlyStrategy struct{}

func (healthMonthlyStrategy) valuation(in Input, _, _ decimal.Decimal) decimal.Decimal {
	// The raw entered figure, NOT annualized. Rate 3.0 means "3x the
	// monthly premium", independent of payment frequency and duration.
	return in.GrossPremium
}

func (healthMonthlyStrategy) commission(valuation, rate decimal.Decimal) decimal.Decimal {
	return valuation.Mul(rate)
}

// -----------------------------------------------------------------------------
// healthTravel: annualized gross, rate in percent
// -----------------------------------------------------------------------------

type healthTravelStrategy struct{}

func (healthTravelStrategy) valuation(_ Input, _, grossYearly decimal.Decimal) decimal.Decimal {
	return grossYearly
}

func (healthTravelStrategy) commission(valuation, rate decimal.Decimal) decimal.Decimal {
	return valuation.Mul(rate).Div(hundred)
}

// -----------------------------------------------------------------------------
// annualPercent: annualized net, rate in percent
// -----------------------------------------------------------------------------

type annualPercentStrategy struct{}

func (annualPercentStrategy) valuation(_ Input, netYearly, _ decimal.Decimal) decimal.Decimal {
	return netYearly
}

func (annualPercentStrategy) commission(valuation, rate decimal.Decimal) decimal.Decimal {
	return valuation.Mul(rate).Div(hundred)
}

// =============================================================================
// SELECTOR - Static sub-category to strategy mapping
// =============================================================================

var strategies = map[product.SubCategory]strategy{
	product.SubLeben:        lifeStrategy{},
	product.SubBU:           lifeStrategy{},
	product.SubKVVoll:       healthMonthlyStrategy{},
	product.SubKVZusatz:     healthMonthlyStrategy{},
	product.SubReiseKV:      healthTravelStrategy{},
	product.SubPHV:          annualPercentStrategy{},
	product.SubHR:           annualPercentStrategy{},
	product.SubUNF:          annualPercentStrategy{},
	product.SubSach:         annualPercentStrategy{},
	product.SubKFZ:          annualPercentStrategy{},
	product.SubRechtsschutz: annualPercentStrategy{},
	product.SubSonstige:     annualPercentStrategy{},
}

// strategyFor returns the formula for a sub-category. Unknown sub-categories
// are a validation error; the selector never guesses.
func strategyFor(sub product.SubCategory) (strategy, error) {
	s, ok := strategies[sub]
	if !ok {
		return nil, invalid("sub_category", "unknown sub-category "+string(sub))
	}
	return s, nil
}
