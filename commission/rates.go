/*
rates.go - Operator rate table and resolution

PURPOSE:
  Operators can override the commission rate per sub-category. Resolution
  prefers the operator's own entry and falls back to the system default
  table, which is total over the sub-category enumeration - so resolution
  never fails.

DESIGN:
  The resolver is a pure function of an explicit RateSnapshot rather than
  ambient state looked up by id at calculation time. A snapshot is built
  once from store rows and threaded through preview and persistence alike,
  so both paths see identical rates.

SEE ALSO:
  - store/sqlite: ReplaceRates (transactional replace-all save semantics)
  - calculator.go: consumes the resolved rate
*/
package commission

import (
	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/product"
)

// OperatorID identifies an operator (submitter, supervisor, rate owner).
type OperatorID string

// =============================================================================
// RATE ENTRY - One operator override for one sub-category
// =============================================================================

// RateEntry is an operator-specific rate. At most one entry exists per
// (operator, sub-category) pair; saves replace the operator's whole set.
type RateEntry struct {
	Operator OperatorID
	Sub      product.SubCategory
	Rate     decimal.Decimal
}

// =============================================================================
// RATE SNAPSHOT - Immutable view of stored rates at resolution time
// =============================================================================

type rateKey struct {
	op  OperatorID
	sub product.SubCategory
}

// RateSnapshot is a point-in-time view over stored rate entries.
// It is immutable after construction and safe for concurrent reads.
type RateSnapshot struct {
	entries map[rateKey]decimal.Decimal
}

// NewRateSnapshot builds a snapshot from store rows. Later duplicates for
// the same (operator, sub-category) win, matching replace-all save order.
func NewRateSnapshot(entries []RateEntry) RateSnapshot {
	m := make(map[rateKey]decimal.Decimal, len(entries))
	for _, e := range entries {
		m[rateKey{op: e.Operator, sub: e.Sub}] = e.Rate
	}
	return RateSnapshot{entries: m}
}

// Resolve returns the effective rate for an operator and sub-category:
// the operator's own entry if present, otherwise the system default.
// A missing entry is a resolution gap, not an error.
func (s RateSnapshot) Resolve(op OperatorID, sub product.SubCategory) decimal.Decimal {
	if rate, ok := s.entries[rateKey{op: op, sub: sub}]; ok {
		return rate
	}
	return product.DefaultRate(sub)
}

// Has reports whether the operator carries an override for the sub-category.
func (s RateSnapshot) Has(op OperatorID, sub product.SubCategory) bool {
	_, ok := s.entries[rateKey{op: op, sub: sub}]
	return ok
}
