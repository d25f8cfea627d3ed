/*
calculator.go - The commission calculation core

PURPOSE:
  Pure function from contract inputs + resolved rate to the derived
  financial fields that get persisted and later aggregated:

    netYearly, grossYearly, valuationSum, rate (echoed), commission

  The SAME function backs the live on-screen preview and final persistence.
  It reads no clock, no randomness, no ambient state - two calls with
  identical inputs produce identical outputs, so preview and stored record
  can never drift apart.

NUMERIC SEMANTICS:
  All figures are decimal.Decimal. Nothing is rounded here; rounding to the
  currency's minor unit happens at presentation/export time only, so
  intermediate aggregation is not lossy.

FAILURE SEMANTICS:
  Invalid input (duration < 1, negative premium, unknown sub-category or
  frequency) returns a ValidationError naming the offending field. The
  calculator never substitutes zero.

SEE ALSO:
  - strategy.go: the four formulas
  - reserve.go: optional liability reserve on top of the commission
*/
package commission

import (
	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/product"
)

// =============================================================================
// INPUT / RESULT
// =============================================================================

// Input is everything the calculation depends on, besides the resolved rate.
type Input struct {
	Selection     product.Selection
	Frequency     product.PaymentFrequency
	DurationYears int

	// Premiums as entered, at the cadence implied by Frequency.
	NetPremium   decimal.Decimal
	GrossPremium decimal.Decimal
}

// Result holds the derived fields. Rate echoes the resolved rate for
// display and audit.
type Result struct {
	NetYearly    decimal.Decimal
	GrossYearly  decimal.Decimal
	ValuationSum decimal.Decimal
	Rate         decimal.Decimal
	Commission   decimal.Decimal
}

// =============================================================================
// CALCULATE
// =============================================================================

// Calculate derives the financial fields for a contract from validated
// input and an already-resolved rate.
func Calculate(in Input, rate decimal.Decimal) (Result, error) {
	if err := validate(in); err != nil {
		return Result{}, err
	}

	s, err := strategyFor(in.Selection.Sub)
	if err != nil {
		return Result{}, err
	}

	factor := in.Frequency.AnnualizationFactor()
	netYearly := in.NetPremium.Mul(factor)
	grossYearly := in.GrossPremium.Mul(factor)

	valuation := s.valuation(in, netYearly, grossYearly)

	return Result{
		NetYearly:    netYearly,
		GrossYearly:  grossYearly,
		ValuationSum: valuation,
		Rate:         rate,
		Commission:   s.commission(valuation, rate),
	}, nil
}

func validate(in Input) error {
	if !in.Selection.Sub.Known() {
		return invalid("sub_category", "unknown sub-category "+string(in.Selection.Sub))
	}
	if !in.Frequency.Known() {
		return invalid("payment_frequency", "unknown payment frequency "+string(in.Frequency))
	}
	if in.DurationYears < 1 {
		return invalid("duration_years", "must be at least 1")
	}
	if in.NetPremium.IsNegative() {
		return invalid("net_premium", "must not be negative")
	}
	if in.GrossPremium.IsNegative() {
		return invalid("gross_premium", "must not be negative")
	}
	return nil
}
