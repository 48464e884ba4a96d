package taxledger

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/msgtosan/taxledger/date"
)

// NettingRule states how gains and losses offset inside one asset class.
// Offsets never cross asset classes implicitly; the fiscal-year aggregator
// only ever nets within the scope it is recomputing.
type NettingRule string

const (
	// NetWithinTerm nets losses against gains separately inside the
	// short-term and long-term buckets.
	NetWithinTerm NettingRule = "within-term"
	// NetAcrossTerms additionally offsets a net short-term loss against the
	// class's long-term gain (and vice versa) before the exemption applies.
	NetAcrossTerms NettingRule = "across-terms"
)

// AssetClassRule is the tax treatment of one asset class for one fiscal year.
type AssetClassRule struct {
	// ThresholdMonths is the holding period strictly above which a disposal
	// is long-term. The boundary itself is short-term.
	ThresholdMonths int `json:"thresholdMonths"`
	// ShortRate and LongRate tag the summaries; they are ratios (0.15 = 15%).
	ShortRate float64 `json:"shortRate"`
	LongRate  float64 `json:"longRate"`
	// Exemption is the flat deduction against aggregate long-term gain,
	// applied once per (user, fiscal year, asset class).
	Exemption Money `json:"exemption,omitzero"`
	// Grandfathered marks the class eligible for the FMV-at-cutoff basis.
	Grandfathered bool `json:"grandfathered,omitempty"`
	// Netting selects the class's loss-offset rule.
	Netting NettingRule `json:"netting"`
}

// TaxRuleConfig is the full rule set for one fiscal year, resolved once at the
// start of a run and passed by value into the calculator and aggregator.
type TaxRuleConfig struct {
	// FiscalYearStart is the month the fiscal year begins (April in India).
	FiscalYearStart time.Month `json:"fiscalYearStart"`
	// GrandfatherCutoff is the date before which grandfathering applies to
	// acquisitions of eligible classes.
	GrandfatherCutoff date.Date `json:"grandfatherCutoff"`
	// Classes maps every known asset class to its rule. The calculator
	// rejects classes absent from this map rather than guessing.
	Classes map[AssetClass]AssetClassRule `json:"classes"`
}

// Rule returns the rule for an asset class.
func (c TaxRuleConfig) Rule(class AssetClass) (AssetClassRule, error) {
	r, ok := c.Classes[class]
	if !ok {
		return AssetClassRule{}, fmt.Errorf("no tax rule configured for asset class %q", class)
	}
	return r, nil
}

// FiscalYearOf returns the fiscal year a date belongs to under this config.
func (c TaxRuleConfig) FiscalYearOf(d date.Date) date.FiscalYear {
	return date.FiscalYearOf(d, c.FiscalYearStart)
}

// DefaultTaxRules returns the built-in Indian capital-gains rule set:
// April-start fiscal year, 2018-01-31 grandfathering cutoff, 12-month
// threshold for listed equity classes and 24 months for the rest, and the
// 100,000 rupee long-term exemption on listed equity.
func DefaultTaxRules() TaxRuleConfig {
	exemption := INR(100_000)
	return TaxRuleConfig{
		FiscalYearStart:   time.April,
		GrandfatherCutoff: date.New(2018, time.January, 31),
		Classes: map[AssetClass]AssetClassRule{
			EquityListed: {
				ThresholdMonths: 12,
				ShortRate:       0.15,
				LongRate:        0.10,
				Exemption:       exemption,
				Grandfathered:   true,
				Netting:         NetWithinTerm,
			},
			EquityFund: {
				ThresholdMonths: 12,
				ShortRate:       0.15,
				LongRate:        0.10,
				Exemption:       exemption,
				Grandfathered:   true,
				Netting:         NetWithinTerm,
			},
			DebtFund: {
				ThresholdMonths: 36,
				ShortRate:       0.30,
				LongRate:        0.20,
				Netting:         NetAcrossTerms,
			},
			ForeignStock: {
				ThresholdMonths: 24,
				ShortRate:       0.30,
				LongRate:        0.20,
				Netting:         NetWithinTerm,
			},
			Unlisted: {
				ThresholdMonths: 24,
				ShortRate:       0.30,
				LongRate:        0.20,
				Netting:         NetWithinTerm,
			},
		},
	}
}

// LoadTaxRules reads a rule file and overlays it on the defaults: classes
// present in the file replace the built-in rule, the rest keep theirs.
func LoadTaxRules(path string) (TaxRuleConfig, error) {
	cfg := DefaultTaxRules()
	raw, err := os.ReadFile(path)
	if err != nil {
		return TaxRuleConfig{}, fmt.Errorf("reading tax rules %q: %w", path, err)
	}
	var overlay TaxRuleConfig
	if err := json.Unmarshal(raw, &overlay); err != nil {
		return TaxRuleConfig{}, fmt.Errorf("parsing tax rules %q: %w", path, err)
	}
	if overlay.FiscalYearStart != 0 {
		cfg.FiscalYearStart = overlay.FiscalYearStart
	}
	if !overlay.GrandfatherCutoff.IsZero() {
		cfg.GrandfatherCutoff = overlay.GrandfatherCutoff
	}
	for class, rule := range overlay.Classes {
		if _, err := ParseAssetClass(string(class)); err != nil {
			return TaxRuleConfig{}, fmt.Errorf("tax rules %q: %w", path, err)
		}
		cfg.Classes[class] = rule
	}
	return cfg, nil
}
