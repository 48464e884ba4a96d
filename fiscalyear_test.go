package taxledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/msgtosan/taxledger/date"
)

func saveGain(t *testing.T, store Store, class AssetClass, disposed date.Date, term Term, gain float64) {
	t.Helper()
	g := &GainRecord{
		ID:         fmt.Sprintf("g-%s-%s-%v", class, disposed, gain),
		UserID:     "u",
		HoldingID:  "H",
		Class:      class,
		DisposedOn: disposed,
		Term:       term,
		Gain:       INR(gain),
	}
	if err := store.SaveGainRecord(context.Background(), g); err != nil {
		t.Fatalf("SaveGainRecord() error = %v", err)
	}
}

func TestRecomputeAppliesExemptionOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	agg := NewAggregator(DefaultTaxRules(), store)
	fy := date.FiscalYear{Start: 2024}

	// Ten long-term gains of 20,000 each. The 100,000 exemption applies once
	// to the aggregate, not per record.
	for i := 0; i < 10; i++ {
		saveGain(t, store, EquityListed, date.New(2024, time.May, 1+i), Long, 20_000)
	}

	s, err := agg.Recompute(ctx, "u", fy, EquityListed)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if !s.LongGain.Equal(INR(200_000)) {
		t.Errorf("LongGain = %s, want 200000", s.LongGain)
	}
	if !s.Exemption.Equal(INR(100_000)) {
		t.Errorf("Exemption = %s, want 100000", s.Exemption)
	}
	if !s.TaxableLong.Equal(INR(100_000)) {
		t.Errorf("TaxableLong = %s, want 100000", s.TaxableLong)
	}
	if s.Records != 10 {
		t.Errorf("Records = %d, want 10", s.Records)
	}
}

func TestRecomputeExemptionNeverExceedsGain(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	agg := NewAggregator(DefaultTaxRules(), store)
	fy := date.FiscalYear{Start: 2024}

	saveGain(t, store, EquityListed, date.New(2024, time.May, 1), Long, 40_000)

	s, err := agg.Recompute(ctx, "u", fy, EquityListed)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if !s.Exemption.Equal(INR(40_000)) {
		t.Errorf("Exemption = %s, want capped at 40000", s.Exemption)
	}
	if !s.TaxableLong.IsZero() {
		t.Errorf("TaxableLong = %s, want 0", s.TaxableLong)
	}
}

func TestRecomputeNoExemptionOnLoss(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	agg := NewAggregator(DefaultTaxRules(), store)
	fy := date.FiscalYear{Start: 2024}

	saveGain(t, store, EquityListed, date.New(2024, time.May, 1), Long, -50_000)

	s, err := agg.Recompute(ctx, "u", fy, EquityListed)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if !s.Exemption.IsZero() {
		t.Errorf("Exemption = %s, want 0 on a net loss", s.Exemption)
	}
	// The loss passes through for carry-forward reporting.
	if !s.TaxableLong.Equal(INR(-50_000)) {
		t.Errorf("TaxableLong = %s, want -50000", s.TaxableLong)
	}
}

func TestRecomputeNettingAcrossTerms(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	agg := NewAggregator(DefaultTaxRules(), store)
	fy := date.FiscalYear{Start: 2024}

	// Debt funds net across terms: a short loss offsets the long gain.
	saveGain(t, store, DebtFund, date.New(2024, time.May, 1), Short, -30_000)
	saveGain(t, store, DebtFund, date.New(2024, time.June, 1), Long, 70_000)

	s, err := agg.Recompute(ctx, "u", fy, DebtFund)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if !s.ShortGain.IsZero() {
		t.Errorf("ShortGain = %s, want 0 after offset", s.ShortGain)
	}
	if !s.LongGain.Equal(INR(40_000)) {
		t.Errorf("LongGain = %s, want 40000 after offset", s.LongGain)
	}

	// Listed equity nets within terms only: the same figures stay separate.
	saveGain(t, store, EquityListed, date.New(2024, time.May, 1), Short, -30_000)
	saveGain(t, store, EquityListed, date.New(2024, time.June, 1), Long, 70_000)
	s, err = agg.Recompute(ctx, "u", fy, EquityListed)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if !s.ShortGain.Equal(INR(-30_000)) || !s.LongGain.Equal(INR(70_000)) {
		t.Errorf("equity short/long = %s/%s, want -30000/70000", s.ShortGain, s.LongGain)
	}
}

func TestRecomputeReplacesSummary(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	agg := NewAggregator(DefaultTaxRules(), store)
	fy := date.FiscalYear{Start: 2024}

	saveGain(t, store, EquityListed, date.New(2024, time.May, 1), Short, 10_000)
	if _, err := agg.Recompute(ctx, "u", fy, EquityListed); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	// A later record changes the scope; recomputation fully replaces the row.
	saveGain(t, store, EquityListed, date.New(2024, time.July, 1), Short, 5_000)
	s, err := agg.Recompute(ctx, "u", fy, EquityListed)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if !s.ShortGain.Equal(INR(15_000)) || s.Records != 2 {
		t.Errorf("recomputed ShortGain = %s records = %d, want 15000 and 2", s.ShortGain, s.Records)
	}

	stored, err := store.Summary(ctx, "u", fy, EquityListed)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !stored.ShortGain.Equal(INR(15_000)) {
		t.Errorf("stored ShortGain = %s, want 15000", stored.ShortGain)
	}
}

func TestRecomputeIgnoresOtherScopes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	agg := NewAggregator(DefaultTaxRules(), store)
	fy := date.FiscalYear{Start: 2024}

	saveGain(t, store, EquityListed, date.New(2024, time.May, 1), Short, 10_000)
	// Outside the fiscal year.
	saveGain(t, store, EquityListed, date.New(2024, time.March, 1), Short, 99_000)
	// Different class.
	saveGain(t, store, DebtFund, date.New(2024, time.May, 1), Short, 88_000)

	s, err := agg.Recompute(ctx, "u", fy, EquityListed)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if !s.ShortGain.Equal(INR(10_000)) || s.Records != 1 {
		t.Errorf("ShortGain = %s records = %d, want 10000 and 1", s.ShortGain, s.Records)
	}
}
