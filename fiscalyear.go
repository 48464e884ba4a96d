package taxledger

import (
	"context"
	"fmt"

	"github.com/msgtosan/taxledger/date"
)

// FiscalYearSummary is the per-(user, fiscal year, asset class) rollup of gain
// records, with the class exemption applied once and the applicable rates
// tagged. It is fully replaced on every recomputation, never patched.
type FiscalYearSummary struct {
	UserID       string          `json:"user"`
	FiscalYear   date.FiscalYear `json:"-"`
	Class        AssetClass      `json:"class"`
	ShortGain    Money           `json:"shortGain"`
	LongGain     Money           `json:"longGain"`
	Exemption    Money           `json:"exemption"` // amount actually deducted
	TaxableShort Money           `json:"taxableShort"`
	TaxableLong  Money           `json:"taxableLong"`
	ShortRate    float64         `json:"shortRate"`
	LongRate     float64         `json:"longRate"`
	Records      int             `json:"records"` // gain records aggregated
}

// MarshalJSON writes the summary with its fiscal year in the conventional
// "FY2024-25" form.
func (s FiscalYearSummary) MarshalJSON() ([]byte, error) {
	type alias FiscalYearSummary
	var w jsonObjectWriter
	w.Append("fiscalYear", s.FiscalYear.String())
	w.EmbedFrom(alias(s))
	return w.MarshalJSON()
}

// Aggregator rolls gain records up into fiscal-year summaries. It owns the
// FiscalYearSummary lifecycle.
type Aggregator struct {
	cfg   TaxRuleConfig
	store Store
}

// NewAggregator creates an aggregator for one fiscal-year rule set.
func NewAggregator(cfg TaxRuleConfig, store Store) *Aggregator {
	return &Aggregator{cfg: cfg, store: store}
}

// Recompute rebuilds the summary for one (user, fiscal year, asset class)
// scope from its gain records and replaces the stored row. Running it again
// over unchanged records is a no-op, which makes re-ingestion safe.
func (a *Aggregator) Recompute(ctx context.Context, userID string, fy date.FiscalYear, class AssetClass) (*FiscalYearSummary, error) {
	rule, err := a.cfg.Rule(class)
	if err != nil {
		return nil, err
	}
	records, err := a.store.GainRecords(ctx, userID, class, fy.Range(a.cfg.FiscalYearStart))
	if err != nil {
		return nil, fmt.Errorf("recomputing %s %s %s: %w", userID, fy, class, err)
	}

	var short, long Money
	for _, g := range records {
		switch g.Term {
		case Short:
			short = short.Add(g.Gain)
		case Long:
			long = long.Add(g.Gain)
		}
	}

	// Loss netting across the term buckets is a per-class rule; offsets
	// never cross asset classes.
	if rule.Netting == NetAcrossTerms {
		short, long = netAcrossTerms(short, long)
	}

	// The exemption is a flat deduction against aggregate long-term gain,
	// applied exactly once per scope and never below zero.
	exemption := rule.Exemption.Min(long.Max(INR(0)))

	s := &FiscalYearSummary{
		UserID:       userID,
		FiscalYear:   fy,
		Class:        class,
		ShortGain:    short,
		LongGain:     long,
		Exemption:    exemption,
		TaxableShort: short,
		TaxableLong:  long.Sub(exemption),
		ShortRate:    rule.ShortRate,
		LongRate:     rule.LongRate,
		Records:      len(records),
	}
	if err := a.store.ReplaceSummary(ctx, s); err != nil {
		return nil, fmt.Errorf("recomputing %s %s %s: %w", userID, fy, class, err)
	}
	return s, nil
}

// netAcrossTerms offsets a net loss in one term bucket against a net gain in
// the other, without letting the offset flip the gain's sign past zero.
func netAcrossTerms(short, long Money) (Money, Money) {
	if short.IsNegative() && long.IsPositive() {
		offset := short.Neg().Min(long)
		return short.Add(offset), long.Sub(offset)
	}
	if long.IsNegative() && short.IsPositive() {
		offset := long.Neg().Min(short)
		return short.Sub(offset), long.Add(offset)
	}
	return short, long
}
