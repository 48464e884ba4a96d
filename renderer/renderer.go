// Package renderer turns engine outputs into markdown reports for the
// command-line tool and the export layer.
package renderer

import (
	"fmt"
	"strings"

	"github.com/msgtosan/taxledger"
)

// GainsMarkdown renders the per-transaction capital gains statement for one
// fiscal year scope.
func GainsMarkdown(fy string, records []*taxledger.GainRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Capital Gains Statement %s\n\n", fy)
	if len(records) == 0 {
		fmt.Fprintln(&b, "No disposals in this period.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Holding | Acquired | Disposed | Qty | Cost Basis | Proceeds | Charges | Term | Gain |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|---:|---:|:---:|---:|")
	var total taxledger.Money
	for _, g := range records {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			g.HoldingID, g.AcquiredOn, g.DisposedOn, g.Quantity,
			g.CostBasis, g.Proceeds, g.Charges, g.Term, g.Gain.SignedString(),
		)
		total = total.Add(g.Gain)
	}
	fmt.Fprintf(&b, "| **Total** | | | | | | | | **%s** |\n", total.SignedString())

	return b.String()
}

// SummaryMarkdown renders a fiscal-year summary for one asset class.
func SummaryMarkdown(s *taxledger.FiscalYearSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s %s — %s\n\n", s.FiscalYear, s.Class, s.UserID)
	fmt.Fprintf(&b, "Aggregated from %d gain records.\n\n", s.Records)
	fmt.Fprintln(&b, "| | Gain | Exemption | Taxable | Rate |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|")
	fmt.Fprintf(&b, "| Short-term | %s | | %s | %.1f%% |\n",
		s.ShortGain.SignedString(), s.TaxableShort.SignedString(), s.ShortRate*100)
	fmt.Fprintf(&b, "| Long-term | %s | %s | %s | %.1f%% |\n",
		s.LongGain.SignedString(), s.Exemption, s.TaxableLong.SignedString(), s.LongRate*100)

	return b.String()
}

// JournalsMarkdown renders a listing of posted journals with their entries.
func JournalsMarkdown(journals []*taxledger.Journal) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Journal\n\n")
	if len(journals) == 0 {
		fmt.Fprintln(&b, "No journals posted.")
		return b.String()
	}

	for _, j := range journals {
		fmt.Fprintf(&b, "## %s %s\n\n", j.On, j.Description)
		fmt.Fprintf(&b, "id `%s`", j.ID)
		if j.Reverses != "" {
			fmt.Fprintf(&b, ", reverses `%s`", j.Reverses)
		}
		if j.ReversedBy != "" {
			fmt.Fprintf(&b, ", reversed by `%s`", j.ReversedBy)
		}
		fmt.Fprint(&b, "\n\n")
		fmt.Fprintln(&b, "| Account | Debit | Credit |")
		fmt.Fprintln(&b, "|:---|---:|---:|")
		for _, e := range j.Entries {
			debit, credit := "", ""
			if !e.Debit.IsZero() {
				debit = e.Debit.String()
			}
			if !e.Credit.IsZero() {
				credit = e.Credit.String()
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", e.Account, debit, credit)
		}
		fmt.Fprintln(&b)
	}

	return b.String()
}

// ReportMarkdown renders an ingestion run report, including every warning and
// error, so no skipped record goes unexplained.
func ReportMarkdown(r *taxledger.IngestReport) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Ingestion Report\n\n")
	fmt.Fprintln(&b, "| Processed | Posted | Duplicates | Restated | Failed |")
	fmt.Fprintln(&b, "|---:|---:|---:|---:|---:|")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d |\n\n",
		r.Processed, r.Posted, r.Duplicates, r.Restated, r.Failed)

	if len(r.Warnings) > 0 {
		fmt.Fprint(&b, "## Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		fmt.Fprintln(&b)
	}
	if len(r.Errors) > 0 {
		fmt.Fprint(&b, "## Errors\n\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}

	return b.String()
}

// AccountsMarkdown renders the chart of accounts.
func AccountsMarkdown(chart *taxledger.ChartOfAccounts) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Chart of Accounts\n\n")
	fmt.Fprintln(&b, "| Code | Name | Category | Normal | Active |")
	fmt.Fprintln(&b, "|:---|:---|:---|:---|:---:|")
	for _, a := range chart.Accounts() {
		active := "yes"
		if !a.Active {
			active = "no"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			a.Code, a.Name, a.Category, a.Category.NormalBalance(), active)
	}

	return b.String()
}
