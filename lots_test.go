package taxledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msgtosan/taxledger/date"
)

func TestDisposeMatchesOldestFirst(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(NewMemoryStore())

	// Three lots of 10 units acquired on days 1, 5 and 10.
	for _, day := range []int{1, 5, 10} {
		on := date.New(2024, time.January, day)
		if _, err := tracker.Acquire(ctx, "u", "INFY", EquityListed, on, Q(10), INR(100), nil); err != nil {
			t.Fatalf("Acquire(day %d) error = %v", day, err)
		}
	}

	// Disposing 15 consumes the day-1 lot fully and 5 from the day-5 lot.
	matches, err := tracker.Dispose(ctx, "u", "INFY", date.New(2024, time.June, 1), Q(15), INR(3000), INR(30))
	if err != nil {
		t.Fatalf("Dispose() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	if got := matches[0].Lot.AcquiredOn; got != date.New(2024, time.January, 1) {
		t.Errorf("first match from %v, want day 1", got)
	}
	if !matches[0].Consumed.Equal(Q(10)) || !matches[1].Consumed.Equal(Q(5)) {
		t.Errorf("consumed = %s, %s, want 10, 5", matches[0].Consumed, matches[1].Consumed)
	}

	open, err := tracker.Open(ctx, "u", "INFY")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("open lots = %d, want 2", len(open))
	}
	if !open[0].RemainingQty.Equal(Q(5)) || !open[1].RemainingQty.Equal(Q(10)) {
		t.Errorf("remaining = %s, %s, want 5, 10", open[0].RemainingQty, open[1].RemainingQty)
	}
}

func TestDisposeProratesProceedsAndCharges(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(NewMemoryStore())

	tracker.Acquire(ctx, "u", "INFY", EquityListed, date.New(2024, time.January, 1), Q(12), INR(100), nil)
	tracker.Acquire(ctx, "u", "INFY", EquityListed, date.New(2024, time.February, 1), Q(10), INR(110), nil)

	matches, err := tracker.Dispose(ctx, "u", "INFY", date.New(2024, time.June, 1), Q(16), INR(3200), INR(32))
	if err != nil {
		t.Fatalf("Dispose() error = %v", err)
	}

	// 12/16 of proceeds and charges go to the first match, 4/16 to the second.
	if !matches[0].Proceeds.Equal(INR(2400)) || !matches[1].Proceeds.Equal(INR(800)) {
		t.Errorf("proceeds = %s, %s, want 2400, 800", matches[0].Proceeds, matches[1].Proceeds)
	}
	if !matches[0].Charges.Equal(INR(24)) || !matches[1].Charges.Equal(INR(8)) {
		t.Errorf("charges = %s, %s, want 24, 8", matches[0].Charges, matches[1].Charges)
	}
	// Shares sum back to the whole.
	total := matches[0].Proceeds.Add(matches[1].Proceeds)
	if !total.Equal(INR(3200)) {
		t.Errorf("proceeds total = %s, want 3200", total)
	}
}

func TestDisposeBreaksSameDayTiesByInsertion(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(NewMemoryStore())
	on := date.New(2024, time.March, 4)

	first, err := tracker.Acquire(ctx, "u", "TCS", EquityListed, on, Q(10), INR(100), nil)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := tracker.Acquire(ctx, "u", "TCS", EquityListed, on, Q(10), INR(105), nil); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	matches, err := tracker.Dispose(ctx, "u", "TCS", date.New(2024, time.June, 1), Q(5), INR(600), INR(0))
	if err != nil {
		t.Fatalf("Dispose() error = %v", err)
	}
	if len(matches) != 1 || matches[0].Lot.ID != first.ID {
		t.Errorf("tie-break consumed lot %s, want first-inserted %s", matches[0].Lot.ID, first.ID)
	}
}

func TestDisposeOversellMutatesNothing(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(NewMemoryStore())

	tracker.Acquire(ctx, "u", "INFY", EquityListed, date.New(2024, time.January, 1), Q(10), INR(100), nil)

	_, err := tracker.Dispose(ctx, "u", "INFY", date.New(2024, time.June, 1), Q(12), INR(1200), INR(0))
	var oversell OversellError
	if !errors.As(err, &oversell) {
		t.Fatalf("Dispose() error = %v, want OversellError", err)
	}
	if !oversell.Shortfall().Equal(Q(2)) {
		t.Errorf("Shortfall() = %s, want 2", oversell.Shortfall())
	}

	// The failed disposal left the lot untouched.
	open, _ := tracker.Open(ctx, "u", "INFY")
	if len(open) != 1 || !open[0].RemainingQty.Equal(Q(10)) {
		t.Errorf("open after oversell = %+v, want one lot of 10", open)
	}
}

func TestDisposeSkipsConsumedLots(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(NewMemoryStore())

	tracker.Acquire(ctx, "u", "INFY", EquityListed, date.New(2024, time.January, 1), Q(10), INR(100), nil)
	tracker.Acquire(ctx, "u", "INFY", EquityListed, date.New(2024, time.February, 1), Q(10), INR(110), nil)

	if _, err := tracker.Dispose(ctx, "u", "INFY", date.New(2024, time.May, 1), Q(10), INR(1500), INR(0)); err != nil {
		t.Fatalf("first Dispose() error = %v", err)
	}
	matches, err := tracker.Dispose(ctx, "u", "INFY", date.New(2024, time.June, 1), Q(5), INR(800), INR(0))
	if err != nil {
		t.Fatalf("second Dispose() error = %v", err)
	}
	if got := matches[0].Lot.AcquiredOn; got != date.New(2024, time.February, 1) {
		t.Errorf("second disposal matched lot from %v, want February", got)
	}
}

func TestAcquireRejectsNonPositiveQuantity(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(NewMemoryStore())
	on := date.New(2024, time.January, 1)

	if _, err := tracker.Acquire(ctx, "u", "INFY", EquityListed, on, Q(0), INR(100), nil); err == nil {
		t.Error("Acquire(0) expected an error")
	}
	if _, err := tracker.Dispose(ctx, "u", "INFY", on, Q(-1), INR(0), INR(0)); err == nil {
		t.Error("Dispose(-1) expected an error")
	}
}
