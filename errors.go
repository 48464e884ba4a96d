package taxledger

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAccount is returned when a journal entry references an
	// account code that is not registered in the chart of accounts.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrInactiveAccount is returned when a journal entry references a
	// deactivated account.
	ErrInactiveAccount = errors.New("inactive account")
	// ErrAlreadyReversed is returned when reversing a journal that has
	// already been reversed.
	ErrAlreadyReversed = errors.New("journal already reversed")
	// ErrUnknownJournal is returned when a journal id cannot be resolved.
	ErrUnknownJournal = errors.New("unknown journal")
)

// ValidationError reports a malformed normalized transaction. It is collected
// per record; a batch continues with the remaining records.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid transaction: field %q %s", e.Field, e.Reason)
}

// ImbalancedJournalError reports a journal whose debit and credit totals
// differ by more than one minor currency unit. Nothing is posted.
type ImbalancedJournalError struct {
	Debits  Money
	Credits Money
}

func (e ImbalancedJournalError) Error() string {
	return fmt.Sprintf("imbalanced journal: debits %s != credits %s (off by %s)",
		e.Debits, e.Credits, e.Debits.Sub(e.Credits).Abs())
}

// Discrepancy returns the absolute difference between the two sides.
func (e ImbalancedJournalError) Discrepancy() Money { return e.Debits.Sub(e.Credits).Abs() }

// OversellError reports a disposal that exceeds the open lot quantity for a
// holding. It indicates a missing acquisition record or an upstream
// unit-tracking bug, so it is never silently clamped.
type OversellError struct {
	Holding   string
	Requested Quantity
	Available Quantity
}

func (e OversellError) Error() string {
	return fmt.Sprintf("oversell on %s: disposing %s with only %s open (short by %s)",
		e.Holding, e.Requested, e.Available, e.Shortfall())
}

// Shortfall returns the quantity that could not be matched to any lot.
func (e OversellError) Shortfall() Quantity { return e.Requested.Sub(e.Available) }

// WarningKind distinguishes the non-fatal conditions a run can report.
type WarningKind string

const (
	// WarnDuplicateIngestion marks a record already posted with the same
	// fingerprint and identical payload; the record is skipped.
	WarnDuplicateIngestion WarningKind = "duplicate-ingestion"
	// WarnRestatedIngestion marks a record whose fingerprint was seen before
	// with a differing payload; the first-seen value wins.
	WarnRestatedIngestion WarningKind = "restated-ingestion"
	// WarnMissingGrandfatheringData marks a grandfathering-eligible lot with
	// no fair market value at the cutoff; original cost is used instead.
	WarnMissingGrandfatheringData WarningKind = "missing-grandfathering-fmv"
)

// Warning is a non-fatal condition attached to a specific holding or record.
type Warning struct {
	Kind    WarningKind
	Holding string
	Detail  string
}

func (w Warning) String() string {
	if w.Detail == "" {
		return fmt.Sprintf("%s on %s", w.Kind, w.Holding)
	}
	return fmt.Sprintf("%s on %s: %s", w.Kind, w.Holding, w.Detail)
}
