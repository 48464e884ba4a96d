package taxledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/msgtosan/taxledger/date"
)

// Term classifies a disposal by holding period.
type Term string

const (
	Short Term = "short"
	Long  Term = "long"
)

// GainRecord is the immutable result of classifying one matched disposal.
// Corrections never patch a record; they supersede the source transaction and
// re-derive.
type GainRecord struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user"`
	HoldingID   string     `json:"holding"`
	Class       AssetClass `json:"class"`
	LotID       string     `json:"lot"`
	AcquiredOn  date.Date  `json:"acquiredOn"`
	DisposedOn  date.Date  `json:"disposedOn"`
	Quantity    Quantity   `json:"quantity"`
	CostBasis   Money      `json:"costBasis"` // post-grandfathering
	Proceeds    Money      `json:"proceeds"`  // prorated gross
	Charges     Money      `json:"charges"`   // prorated
	HoldingDays int        `json:"holdingDays"`
	Term        Term       `json:"term"`
	Gain        Money      `json:"gain"` // signed; losses are negative
}

// Calculator turns matched disposals into classified gain records. It owns
// GainRecord creation and is the only writer of term classifications.
type Calculator struct {
	cfg TaxRuleConfig
}

// NewCalculator creates a calculator for one fiscal-year rule set.
func NewCalculator(cfg TaxRuleConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Classify computes the gain record for one matched disposal. Warnings (for
// now only missing grandfathering data) are returned alongside, never as
// errors.
func (c *Calculator) Classify(md MatchedDisposal) (*GainRecord, []Warning, error) {
	lot := md.Lot
	rule, err := c.cfg.Rule(lot.Class)
	if err != nil {
		return nil, nil, err
	}
	if md.DisposedOn.Before(lot.AcquiredOn) {
		return nil, nil, fmt.Errorf("holding %s: disposal on %s predates acquisition on %s",
			lot.HoldingID, md.DisposedOn, lot.AcquiredOn)
	}

	var warnings []Warning
	basisPerUnit, warn := c.effectiveUnitBasis(lot, rule, md.SaleUnitPrice)
	if warn != nil {
		warnings = append(warnings, *warn)
	}

	basis := basisPerUnit.Mul(md.Consumed)
	net := md.Proceeds.Sub(md.Charges)
	g := &GainRecord{
		ID:          uuid.NewString(),
		UserID:      lot.UserID,
		HoldingID:   lot.HoldingID,
		Class:       lot.Class,
		LotID:       lot.ID,
		AcquiredOn:  lot.AcquiredOn,
		DisposedOn:  md.DisposedOn,
		Quantity:    md.Consumed,
		CostBasis:   basis,
		Proceeds:    md.Proceeds,
		Charges:     md.Charges,
		HoldingDays: lot.AcquiredOn.DaysUntil(md.DisposedOn),
		Term:        classifyTerm(lot.AcquiredOn, md.DisposedOn, rule.ThresholdMonths),
		Gain:        net.Sub(basis),
	}
	return g, warnings, nil
}

// classifyTerm is long only when the disposal falls strictly after the
// acquisition date plus the threshold. The boundary day itself is short: a
// lot acquired 2023-01-15 under a 12-month threshold is still short-term on
// 2024-01-15 and turns long-term on 2024-01-16.
func classifyTerm(acquired, disposed date.Date, thresholdMonths int) Term {
	if disposed.After(acquired.AddMonths(thresholdMonths)) {
		return Long
	}
	return Short
}

// effectiveUnitBasis applies the grandfathering rule: for eligible classes
// and lots acquired before the cutoff, the basis per unit is
// max(cost, min(fmv, sale price)). Capping the FMV at the sale price prevents
// the rule from manufacturing an artificial loss. Without an FMV the original
// cost is used and a warning is raised.
func (c *Calculator) effectiveUnitBasis(lot *TaxLot, rule AssetClassRule, salePrice Money) (Money, *Warning) {
	if !rule.Grandfathered || !lot.AcquiredOn.Before(c.cfg.GrandfatherCutoff) {
		return lot.UnitCost, nil
	}
	if lot.FMVPerUnit == nil {
		return lot.UnitCost, &Warning{
			Kind:    WarnMissingGrandfatheringData,
			Holding: lot.HoldingID,
			Detail:  fmt.Sprintf("lot %s acquired %s has no FMV at cutoff, using original cost", lot.ID, lot.AcquiredOn),
		}
	}
	return lot.UnitCost.Max(lot.FMVPerUnit.Min(salePrice)), nil
}
