package commission

import "github.com/shopspring/decimal"

// =============================================================================
// LIABILITY RESERVE - Withheld commission against cancellation clawback
// =============================================================================

// DefaultReservePercent applies when the reserve toggle is newly activated
// and no prior percentage exists.
var DefaultReservePercent = decimal.NewFromInt(10)

// Reserve returns the withheld portion of a commission. Inactive reserves
// are zero regardless of the configured percentage.
func Reserve(commission decimal.Decimal, active bool, percent decimal.Decimal) decimal.Decimal {
	if !active {
		return decimal.Zero
	}
	return commission.Mul(percent).Div(hundred)
}
