package taxledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/msgtosan/taxledger/date"
)

// TaxLot is a discrete acquisition of a holding, tracked until fully disposed
// and retained afterwards for audit. Only the Tracker mutates RemainingQty.
type TaxLot struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user"`
	HoldingID    string     `json:"holding"`
	Class        AssetClass `json:"class"`
	AcquiredOn   date.Date  `json:"acquiredOn"`
	Seq          int64      `json:"seq"` // insertion order, tie-break for same-day lots
	OriginalQty  Quantity   `json:"originalQty"`
	RemainingQty Quantity   `json:"remainingQty"`
	UnitCost     Money      `json:"unitCost"`
	// FMVPerUnit is the fair market value per unit at the grandfathering
	// cutoff, when known. Nil when the statement carried none.
	FMVPerUnit *Money `json:"fmvPerUnit,omitempty"`
}

// MatchedDisposal pairs a disposal with one lot it consumed. It is derived and
// ephemeral: its only purpose is to feed the capital gains calculator.
type MatchedDisposal struct {
	Lot           *TaxLot
	DisposedOn    date.Date
	Consumed      Quantity
	SaleUnitPrice Money
	Proceeds      Money // this match's prorated share of gross proceeds
	Charges       Money // this match's prorated share of charges
}

// Tracker maintains open acquisition lots per (user, holding) and matches
// disposals against them oldest-first. It exclusively owns lot mutation.
type Tracker struct {
	store Store
}

// NewTracker creates a tax-lot tracker over a store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Acquire opens a new lot.
func (t *Tracker) Acquire(ctx context.Context, userID, holdingID string, class AssetClass, on date.Date, qty Quantity, unitCost Money, fmvPerUnit *Money) (*TaxLot, error) {
	if !qty.IsPositive() {
		return nil, ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	seq, err := t.store.NextLotSeq(ctx, userID, holdingID)
	if err != nil {
		return nil, fmt.Errorf("acquiring lot for %s: %w", holdingID, err)
	}
	lot := &TaxLot{
		ID:           uuid.NewString(),
		UserID:       userID,
		HoldingID:    holdingID,
		Class:        class,
		AcquiredOn:   on,
		Seq:          seq,
		OriginalQty:  qty,
		RemainingQty: qty,
		UnitCost:     unitCost,
		FMVPerUnit:   fmvPerUnit,
	}
	if err := t.store.SaveLot(ctx, lot); err != nil {
		return nil, fmt.Errorf("acquiring lot for %s: %w", holdingID, err)
	}
	return lot, nil
}

// Dispose matches a disposal against open lots in strict chronological order,
// oldest first, breaking same-day ties by insertion sequence. The last lot
// touched is split when only partially consumed. Proceeds and charges are
// prorated by consumed over total disposed quantity. A shortfall fails with
// OversellError and mutates nothing.
func (t *Tracker) Dispose(ctx context.Context, userID, holdingID string, on date.Date, qty Quantity, grossProceeds, charges Money) ([]MatchedDisposal, error) {
	if !qty.IsPositive() {
		return nil, ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	lots, err := t.store.Lots(ctx, userID, holdingID)
	if err != nil {
		return nil, fmt.Errorf("disposing %s of %s: %w", qty, holdingID, err)
	}

	// The store returns lots ordered by (acquire date, seq); verify the total
	// before touching anything so an oversell leaves every lot untouched.
	var available Quantity
	for _, lot := range lots {
		available = available.Add(lot.RemainingQty)
	}
	if available.LessThan(qty) {
		return nil, OversellError{Holding: holdingID, Requested: qty, Available: available}
	}

	salePrice := grossProceeds.Div(qty)
	var matches []MatchedDisposal
	remaining := qty
	for _, lot := range lots {
		if remaining.IsZero() {
			break
		}
		if lot.RemainingQty.IsZero() {
			continue // consumed lots are kept for audit, skip them
		}
		consumed := lot.RemainingQty.Min(remaining)
		share := consumed.Div(qty)
		matches = append(matches, MatchedDisposal{
			Lot:           lot,
			DisposedOn:    on,
			Consumed:      consumed,
			SaleUnitPrice: salePrice,
			Proceeds:      grossProceeds.Mul(share),
			Charges:       charges.Mul(share),
		})
		lot.RemainingQty = lot.RemainingQty.Sub(consumed)
		remaining = remaining.Sub(consumed)
	}

	for _, m := range matches {
		if err := t.store.SaveLot(ctx, m.Lot); err != nil {
			return nil, fmt.Errorf("disposing %s of %s: %w", qty, holdingID, err)
		}
	}
	return matches, nil
}

// Open returns the lots of a holding that still have remaining quantity.
func (t *Tracker) Open(ctx context.Context, userID, holdingID string) ([]*TaxLot, error) {
	lots, err := t.store.Lots(ctx, userID, holdingID)
	if err != nil {
		return nil, err
	}
	open := lots[:0:0]
	for _, lot := range lots {
		if lot.RemainingQty.IsPositive() {
			open = append(open, lot)
		}
	}
	return open, nil
}
