/*
Package contract holds the central ContractEntry record and its lifecycle.

PURPOSE:
  A ContractEntry is the persisted unit of production: who submitted what
  product for which customer, at which premiums, plus the derived financial
  fields the commission engine computed for it. Derived fields are NEVER
  hand-entered; they are recomputed from the non-derived fields on every
  create and edit before the record reaches the store.

KEY CONCEPTS IN THIS FILE (contract.go):
  - Entry:   The full record, input fields + Derived block
  - Derived: Computed financial figures (pure function of the rest)
  - Status:  Submitted -> Policed -> Cancelled state machine

STATUS MACHINE:
  submitted -> policed
  submitted -> cancelled
  policed   -> cancelled
  Cancelled is terminal. An attempted transition out of it is a validation
  error, not a silent no-op.

SEE ALSO:
  - lifecycle.go: the manager that assembles persistable entries
  - commission/: the calculation the Derived block comes from
*/
package contract

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/product"
)

// =============================================================================
// STATUS - Submitted / Policed / Cancelled
// =============================================================================

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusPoliced   Status = "policed"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusSubmitted: {StatusPoliced, StatusCancelled},
	StatusPoliced:   {StatusCancelled},
	StatusCancelled: {},
}

// Known reports whether the status belongs to the closed enumeration.
func (s Status) Known() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether the status machine permits s -> next.
// Staying in the same status is always allowed (plain edits).
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// =============================================================================
// ENTRY - The central record
// =============================================================================

// Derived holds the computed financial fields. A pure function of the
// entry's input fields plus the rate resolved at calculation time.
type Derived struct {
	NetYearly    decimal.Decimal
	GrossYearly  decimal.Decimal
	ValuationSum decimal.Decimal
	Rate         decimal.Decimal
	Commission   decimal.Decimal
	Reserve      decimal.Decimal
}

// Entry is a contract submission with its derived financials.
type Entry struct {
	ID string

	// Owner submitted the contract and is credited for it; Supervisor may
	// differ and defaults to Owner when unset.
	Owner      commission.OperatorID
	Supervisor commission.OperatorID

	Customer     string
	PolicyNumber string

	Selection product.Selection
	Status    Status

	SubmittedAt time.Time  // required
	StartAt     *time.Time // contract start
	PolicedAt   *time.Time
	ReceivedAt  *time.Time // commission received

	Frequency     product.PaymentFrequency
	DurationYears int

	NetPremium   decimal.Decimal
	GrossPremium decimal.Decimal

	ReserveActive  bool
	ReservePercent decimal.Decimal

	Note string

	Derived Derived
}

// CalcInput projects the entry onto the calculator's input.
func (e Entry) CalcInput() commission.Input {
	return commission.Input{
		Selection:     e.Selection,
		Frequency:     e.Frequency,
		DurationYears: e.DurationYears,
		NetPremium:    e.NetPremium,
		GrossPremium:  e.GrossPremium,
	}
}
