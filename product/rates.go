package product

import "github.com/shopspring/decimal"

// =============================================================================
// DEFAULT RATE TABLE - System fallback per sub-category
// =============================================================================

// The unit of each default depends on the formula attached to the
// sub-category: per-mille for life products, a flat monthly multiplier for
// full/supplementary health cover, percent for everything else.
var defaultRates = map[SubCategory]decimal.Decimal{
	SubLeben:        decimal.NewFromFloat(8.0),
	SubBU:           decimal.NewFromFloat(8.0),
	SubKVVoll:       decimal.NewFromFloat(3.0),
	SubKVZusatz:     decimal.NewFromFloat(3.0),
	SubReiseKV:      decimal.NewFromFloat(10.0),
	SubPHV:          decimal.NewFromFloat(7.5),
	SubHR:           decimal.NewFromFloat(7.5),
	SubUNF:          decimal.NewFromFloat(7.5),
	SubSach:         decimal.NewFromFloat(7.5),
	SubKFZ:          decimal.NewFromFloat(3.0),
	SubRechtsschutz: decimal.NewFromFloat(5.0),
	SubSonstige:     decimal.NewFromFloat(5.0),
}

// DefaultRate returns the system default rate for a sub-category.
// The table is total over the known enumeration; unknown sub-categories
// return zero and must be rejected earlier via Select.
func DefaultRate(sub SubCategory) decimal.Decimal {
	return defaultRates[sub]
}
