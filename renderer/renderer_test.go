package renderer

import (
	"strings"
	"testing"
	"time"

	"github.com/msgtosan/taxledger"
	"github.com/msgtosan/taxledger/date"
)

func TestGainsMarkdown(t *testing.T) {
	records := []*taxledger.GainRecord{
		{
			HoldingID: "INFY", AcquiredOn: date.New(2023, time.May, 1),
			DisposedOn: date.New(2024, time.June, 1), Quantity: taxledger.Q(10),
			CostBasis: taxledger.INR(1000), Proceeds: taxledger.INR(1500),
			Charges: taxledger.INR(15), Term: taxledger.Long, Gain: taxledger.INR(485),
		},
		{
			HoldingID: "TCS", AcquiredOn: date.New(2024, time.January, 1),
			DisposedOn: date.New(2024, time.June, 1), Quantity: taxledger.Q(5),
			CostBasis: taxledger.INR(500), Proceeds: taxledger.INR(450),
			Term: taxledger.Short, Gain: taxledger.INR(-50),
		},
	}
	md := GainsMarkdown("FY2024-25", records)

	for _, want := range []string{"FY2024-25", "| INFY |", "| TCS |", "long", "short"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	// The total row sums signed gains: 485 - 50 = 435.
	if !strings.Contains(md, taxledger.INR(435).SignedString()) {
		t.Errorf("markdown missing total %s:\n%s", taxledger.INR(435).SignedString(), md)
	}

	empty := GainsMarkdown("FY2024-25", nil)
	if !strings.Contains(empty, "No disposals") {
		t.Errorf("empty statement missing placeholder:\n%s", empty)
	}
}

func TestSummaryMarkdown(t *testing.T) {
	md := SummaryMarkdown(&taxledger.FiscalYearSummary{
		UserID:       "alice",
		FiscalYear:   date.FiscalYear{Start: 2024},
		Class:        taxledger.EquityListed,
		LongGain:     taxledger.INR(200_000),
		Exemption:    taxledger.INR(100_000),
		TaxableLong:  taxledger.INR(100_000),
		TaxableShort: taxledger.INR(0),
		ShortRate:    0.15,
		LongRate:     0.10,
		Records:      10,
	})
	for _, want := range []string{"FY2024-25", "equity-listed", "alice", "10 gain records", "15.0%", "10.0%"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestJournalsMarkdown(t *testing.T) {
	journals := []*taxledger.Journal{{
		ID:          "j-1",
		On:          date.New(2024, time.June, 3),
		Description: "acquire 10 INFY",
		ReversedBy:  "j-2",
		Entries: []taxledger.JournalEntry{
			{Account: "assets.holdings.equity-listed", Debit: taxledger.INR(1000)},
			{Account: "assets.settlement", Credit: taxledger.INR(1000)},
		},
	}}
	md := JournalsMarkdown(journals)
	for _, want := range []string{"acquire 10 INFY", "`j-1`", "reversed by `j-2`", "assets.settlement"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestReportMarkdown(t *testing.T) {
	md := ReportMarkdown(&taxledger.IngestReport{
		Processed:  4,
		Posted:     2,
		Duplicates: 1,
		Failed:     1,
		Errors: []taxledger.RecordError{
			{Index: 3, Holding: "INFY", Err: taxledger.ValidationError{Field: "user", Reason: "is missing"}},
		},
		Warnings: []taxledger.Warning{
			{Kind: taxledger.WarnDuplicateIngestion, Holding: "TCS"},
		},
	})
	for _, want := range []string{"| 4 | 2 | 1 | 0 | 1 |", "## Warnings", "## Errors", "record 3 (INFY)"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestAccountsMarkdown(t *testing.T) {
	md := AccountsMarkdown(taxledger.DefaultChart())
	for _, want := range []string{"assets.settlement", "income.capital-gain", "| debit |", "| credit |"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}
