package taxledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/msgtosan/taxledger/date"
)

// JournalID identifies a posted journal.
type JournalID string

// SourceRef links a journal back to the record that produced it.
type SourceRef struct {
	Type string `json:"type"` // e.g. "ingestion", "manual", "reversal"
	ID   string `json:"id"`   // fingerprint, document id, or journal id
}

// JournalEntry is one leg of a journal. Exactly one of Debit or Credit is
// nonzero, and it is positive.
type JournalEntry struct {
	Account string `json:"account"`
	Debit   Money  `json:"debit,omitzero"`
	Credit  Money  `json:"credit,omitzero"`
}

// Journal is a dated, described group of balanced entries. Once posted it is
// immutable; corrections go through Reverse.
type Journal struct {
	ID          JournalID      `json:"id"`
	On          date.Date      `json:"on"`
	Description string         `json:"description"`
	Source      SourceRef      `json:"source"`
	Reverses    JournalID      `json:"reverses,omitempty"`
	ReversedBy  JournalID      `json:"reversedBy,omitempty"`
	Entries     []JournalEntry `json:"entries"`
}

// Debits returns the journal's total debit amount.
func (j *Journal) Debits() Money {
	var total Money
	for _, e := range j.Entries {
		total = total.Add(e.Debit)
	}
	return total
}

// Credits returns the journal's total credit amount.
func (j *Journal) Credits() Money {
	var total Money
	for _, e := range j.Entries {
		total = total.Add(e.Credit)
	}
	return total
}

// Ledger creates and validates balanced journals against a chart of accounts
// and posts them through the store. It owns the Journal lifecycle.
type Ledger struct {
	chart *ChartOfAccounts
	store Store
}

// NewLedger creates a ledger engine over a chart of accounts and a store.
func NewLedger(chart *ChartOfAccounts, store Store) *Ledger {
	return &Ledger{chart: chart, store: store}
}

// Post validates and persists a journal, all-or-nothing. The debit and credit
// totals may differ by at most one minor currency unit (rounding of prorated
// allocations); a larger discrepancy is an ImbalancedJournalError.
func (l *Ledger) Post(ctx context.Context, on date.Date, description string, entries []JournalEntry, source SourceRef) (JournalID, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("journal %q has no entries", description)
	}
	for i, e := range entries {
		if err := l.validateEntry(e); err != nil {
			return "", fmt.Errorf("journal %q entry %d: %w", description, i, err)
		}
	}
	j := &Journal{
		ID:          JournalID(uuid.NewString()),
		On:          on,
		Description: description,
		Source:      source,
		Entries:     entries,
	}
	debits, credits := j.Debits(), j.Credits()
	if debits.Sub(credits).Abs().GreaterThan(debits.MinorUnit()) {
		return "", ImbalancedJournalError{Debits: debits, Credits: credits}
	}
	if err := l.store.PostJournal(ctx, j); err != nil {
		return "", fmt.Errorf("posting journal %q: %w", description, err)
	}
	return j.ID, nil
}

func (l *Ledger) validateEntry(e JournalEntry) error {
	a := l.chart.Lookup(e.Account)
	if a == nil {
		return fmt.Errorf("account %q: %w", e.Account, ErrUnknownAccount)
	}
	if !a.Active {
		return fmt.Errorf("account %q: %w", e.Account, ErrInactiveAccount)
	}
	debit, credit := !e.Debit.IsZero(), !e.Credit.IsZero()
	if debit == credit {
		return fmt.Errorf("account %q: exactly one of debit or credit must be set", e.Account)
	}
	if e.Debit.IsNegative() || e.Credit.IsNegative() {
		return fmt.Errorf("account %q: amounts must be positive", e.Account)
	}
	return nil
}

// Reverse creates a new journal with every entry's sides swapped, linked back
// to the original, and marks the original as reversed. Reversing an already
// reversed journal is rejected.
func (l *Ledger) Reverse(ctx context.Context, id JournalID) (JournalID, error) {
	original, err := l.store.Journal(ctx, id)
	if err != nil {
		return "", err
	}
	if original.ReversedBy != "" {
		return "", fmt.Errorf("journal %s: %w", id, ErrAlreadyReversed)
	}
	entries := make([]JournalEntry, len(original.Entries))
	for i, e := range original.Entries {
		entries[i] = JournalEntry{Account: e.Account, Debit: e.Credit, Credit: e.Debit}
	}
	reversal := &Journal{
		ID:          JournalID(uuid.NewString()),
		On:          original.On,
		Description: "reversal of " + original.Description,
		Source:      SourceRef{Type: "reversal", ID: string(id)},
		Reverses:    id,
		Entries:     entries,
	}
	if err := l.store.PostReversal(ctx, id, reversal); err != nil {
		return "", fmt.Errorf("reversing journal %s: %w", id, err)
	}
	return reversal.ID, nil
}
