/*
lifecycle.go - Record lifecycle manager

PURPOSE:
  Orchestrates what happens on create and edit of a ContractEntry:

    1. Validate input fields (incl. the status enumeration)
    2. Resolve the effective rate from the supplied RateSnapshot
    3. Run the commission calculation
    4. Compute the liability reserve
    5. Return the complete persistable entry with Derived stamped

  Prepare is used identically by the live-preview path and the persistence
  path, so the two can never disagree - a preview IS the record that would
  be stored, minus the store write.

EDIT SEMANTICS:
  PrepareUpdate additionally enforces the status machine against the
  existing record. Submitter and supervisor may change independently on
  edit; an unset supervisor defaults to the submitter.

ERROR CONTRACT:
  Only commission.ValidationError (wrapped ErrValidation) comes out of this
  file. Nothing is logged, retried, or swallowed; persistence failures
  belong to the store collaborator.
*/
package contract

import (
	"time"

	"github.com/google/uuid"

	"github.com/warp/commission-engine/commission"
)

// Manager assembles persistable entries. Stateless; the rate snapshot is an
// explicit parameter so concurrent previews are trivially safe.
type Manager struct{}

// NewManager returns a lifecycle manager.
func NewManager() *Manager { return &Manager{} }

// Prepare validates a draft entry, recomputes every derived field, and
// returns the persistable record. The draft is not mutated.
func (m *Manager) Prepare(draft Entry, rates commission.RateSnapshot) (Entry, error) {
	entry := draft

	if entry.Owner == "" {
		return Entry{}, validationErr("owner", "required")
	}
	if entry.SubmittedAt.IsZero() {
		return Entry{}, validationErr("submitted_at", "required")
	}
	if entry.Status == "" {
		entry.Status = StatusSubmitted
	}
	if !entry.Status.Known() {
		return Entry{}, validationErr("status", "unknown status "+string(entry.Status))
	}

	// Supervisor defaults to the submitting operator.
	if entry.Supervisor == "" {
		entry.Supervisor = entry.Owner
	}

	// Newly activated reserve without a configured percentage gets the
	// system default.
	if entry.ReserveActive && entry.ReservePercent.IsZero() {
		entry.ReservePercent = commission.DefaultReservePercent
	}
	if entry.ReservePercent.IsNegative() {
		return Entry{}, validationErr("reserve_percent", "must not be negative")
	}

	rate := rates.Resolve(entry.Owner, entry.Selection.Sub)
	result, err := commission.Calculate(entry.CalcInput(), rate)
	if err != nil {
		return Entry{}, err
	}

	entry.Derived = Derived{
		NetYearly:    result.NetYearly,
		GrossYearly:  result.GrossYearly,
		ValuationSum: result.ValuationSum,
		Rate:         result.Rate,
		Commission:   result.Commission,
		Reserve:      commission.Reserve(result.Commission, entry.ReserveActive, entry.ReservePercent),
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	return entry, nil
}

// PrepareUpdate prepares an edit of an existing entry. The draft carries the
// new field values; the existing entry supplies identity and the status the
// machine is checked against.
func (m *Manager) PrepareUpdate(existing Entry, draft Entry, rates commission.RateSnapshot) (Entry, error) {
	if draft.Status != "" && !draft.Status.Known() {
		return Entry{}, validationErr("status", "unknown status "+string(draft.Status))
	}
	next := draft.Status
	if next == "" {
		next = existing.Status
	}
	if !existing.Status.CanTransitionTo(next) {
		return Entry{}, validationErr("status",
			"illegal transition "+string(existing.Status)+" -> "+string(next))
	}

	draft.ID = existing.ID
	if draft.Owner == "" {
		draft.Owner = existing.Owner
	}
	draft.Status = next
	if draft.Status == StatusPoliced && draft.PolicedAt == nil {
		now := existing.PolicedAt
		if now == nil {
			t := timeNow()
			now = &t
		}
		draft.PolicedAt = now
	}

	return m.Prepare(draft, rates)
}

// timeNow is a seam for tests; the calculation itself never reads it.
var timeNow = func() time.Time { return time.Now().UTC() }

func validationErr(field, reason string) error {
	return &commission.ValidationError{Field: field, Reason: reason}
}
