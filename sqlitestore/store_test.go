package sqlitestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/msgtosan/taxledger"
	"github.com/msgtosan/taxledger/date"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testJournal(id string) *taxledger.Journal {
	return &taxledger.Journal{
		ID:          taxledger.JournalID(id),
		On:          date.New(2024, time.June, 3),
		Description: "acquire 10 INFY",
		Source:      taxledger.SourceRef{Type: "ingestion", ID: "fp-1"},
		Entries: []taxledger.JournalEntry{
			{Account: "assets.holdings.equity-listed", Debit: taxledger.INR(15000)},
			{Account: "expenses.charges", Debit: taxledger.INR(20)},
			{Account: "assets.settlement", Credit: taxledger.INR(15020)},
		},
	}
}

func TestJournalRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	j := testJournal("j-1")
	if err := s.PostJournal(ctx, j); err != nil {
		t.Fatalf("PostJournal() error = %v", err)
	}

	got, err := s.Journal(ctx, "j-1")
	if err != nil {
		t.Fatalf("Journal() error = %v", err)
	}
	if got.On != j.On || got.Description != j.Description || got.Source != j.Source {
		t.Errorf("header round trip = %+v, want %+v", got, j)
	}
	if len(got.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(got.Entries))
	}
	if got.Entries[0].Account != "assets.holdings.equity-listed" || !got.Entries[0].Debit.Equal(taxledger.INR(15000)) {
		t.Errorf("entry 0 = %+v", got.Entries[0])
	}
	if !got.Entries[2].Credit.Equal(taxledger.INR(15020)) || !got.Entries[2].Debit.IsZero() {
		t.Errorf("entry 2 = %+v", got.Entries[2])
	}

	if _, err := s.Journal(ctx, "nope"); !errors.Is(err, taxledger.ErrUnknownJournal) {
		t.Errorf("Journal(unknown) error = %v, want ErrUnknownJournal", err)
	}
	// Duplicate ids violate the primary key.
	if err := s.PostJournal(ctx, testJournal("j-1")); err == nil {
		t.Error("PostJournal(duplicate id) expected an error")
	}
}

func TestJournalsKeepPostingOrder(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	for _, id := range []string{"j-3", "j-1", "j-2"} {
		if err := s.PostJournal(ctx, testJournal(id)); err != nil {
			t.Fatalf("PostJournal(%s) error = %v", id, err)
		}
	}
	journals, err := s.Journals(ctx)
	if err != nil {
		t.Fatalf("Journals() error = %v", err)
	}
	if len(journals) != 3 {
		t.Fatalf("journals = %d, want 3", len(journals))
	}
	// Posting order, not id order.
	want := []taxledger.JournalID{"j-3", "j-1", "j-2"}
	for i, j := range journals {
		if j.ID != want[i] {
			t.Errorf("journals[%d] = %s, want %s", i, j.ID, want[i])
		}
	}
}

func TestPostReversal(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	if err := s.PostJournal(ctx, testJournal("j-1")); err != nil {
		t.Fatalf("PostJournal() error = %v", err)
	}
	rev := testJournal("j-rev")
	rev.Reverses = "j-1"
	if err := s.PostReversal(ctx, "j-1", rev); err != nil {
		t.Fatalf("PostReversal() error = %v", err)
	}

	original, _ := s.Journal(ctx, "j-1")
	if original.ReversedBy != "j-rev" {
		t.Errorf("ReversedBy = %q, want j-rev", original.ReversedBy)
	}
	got, _ := s.Journal(ctx, "j-rev")
	if got.Reverses != "j-1" {
		t.Errorf("Reverses = %q, want j-1", got.Reverses)
	}

	if err := s.PostReversal(ctx, "nope", testJournal("j-rev2")); !errors.Is(err, taxledger.ErrUnknownJournal) {
		t.Errorf("PostReversal(unknown) error = %v, want ErrUnknownJournal", err)
	}
	// The failed reversal rolled back its journal insert.
	if _, err := s.Journal(ctx, "j-rev2"); !errors.Is(err, taxledger.ErrUnknownJournal) {
		t.Errorf("rolled-back journal still readable: %v", err)
	}
}

func TestLotsOrderAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	fmv := taxledger.INR(180)
	lots := []*taxledger.TaxLot{
		{ID: "l-2", UserID: "u", HoldingID: "INFY", Class: taxledger.EquityListed,
			AcquiredOn: date.New(2024, time.March, 4), Seq: 2,
			OriginalQty: taxledger.Q(10), RemainingQty: taxledger.Q(10), UnitCost: taxledger.INR(105)},
		{ID: "l-1", UserID: "u", HoldingID: "INFY", Class: taxledger.EquityListed,
			AcquiredOn: date.New(2024, time.March, 4), Seq: 1,
			OriginalQty: taxledger.Q(10), RemainingQty: taxledger.Q(10), UnitCost: taxledger.INR(100)},
		{ID: "l-0", UserID: "u", HoldingID: "INFY", Class: taxledger.EquityListed,
			AcquiredOn: date.New(2017, time.June, 1), Seq: 3,
			OriginalQty: taxledger.Q(5), RemainingQty: taxledger.Q(5), UnitCost: taxledger.INR(50),
			FMVPerUnit: &fmv},
	}
	for _, lot := range lots {
		if err := s.SaveLot(ctx, lot); err != nil {
			t.Fatalf("SaveLot(%s) error = %v", lot.ID, err)
		}
	}

	got, err := s.Lots(ctx, "u", "INFY")
	if err != nil {
		t.Fatalf("Lots() error = %v", err)
	}
	// Ordered by acquire date then seq, regardless of insertion order.
	want := []string{"l-0", "l-1", "l-2"}
	for i, lot := range got {
		if lot.ID != want[i] {
			t.Errorf("lots[%d] = %s, want %s", i, lot.ID, want[i])
		}
	}
	if got[0].FMVPerUnit == nil || !got[0].FMVPerUnit.Equal(fmv) {
		t.Errorf("FMVPerUnit = %v, want 180", got[0].FMVPerUnit)
	}
	if got[1].FMVPerUnit != nil {
		t.Errorf("FMVPerUnit = %v, want nil", got[1].FMVPerUnit)
	}

	// Saving again only updates the remaining quantity.
	lots[1].RemainingQty = taxledger.Q(4)
	if err := s.SaveLot(ctx, lots[1]); err != nil {
		t.Fatalf("SaveLot(update) error = %v", err)
	}
	got, _ = s.Lots(ctx, "u", "INFY")
	if !got[1].RemainingQty.Equal(taxledger.Q(4)) {
		t.Errorf("RemainingQty after update = %s, want 4", got[1].RemainingQty)
	}

	seq, err := s.NextLotSeq(ctx, "u", "INFY")
	if err != nil {
		t.Fatalf("NextLotSeq() error = %v", err)
	}
	if seq != 4 {
		t.Errorf("NextLotSeq = %d, want 4", seq)
	}
	if seq, _ := s.NextLotSeq(ctx, "u", "TCS"); seq != 1 {
		t.Errorf("NextLotSeq(empty) = %d, want 1", seq)
	}
}

func TestGainRecordsRange(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	save := func(id string, disposed date.Date) {
		g := &taxledger.GainRecord{
			ID: id, UserID: "u", HoldingID: "INFY", Class: taxledger.EquityListed,
			LotID: "l-1", AcquiredOn: date.New(2023, time.May, 1), DisposedOn: disposed,
			Quantity: taxledger.Q(10), CostBasis: taxledger.INR(1000),
			Proceeds: taxledger.INR(1500), Term: taxledger.Short, Gain: taxledger.INR(500),
		}
		if err := s.SaveGainRecord(ctx, g); err != nil {
			t.Fatalf("SaveGainRecord(%s) error = %v", id, err)
		}
	}
	save("g-1", date.New(2024, time.April, 1))  // first day, included
	save("g-2", date.New(2025, time.March, 31)) // last day, included
	save("g-3", date.New(2024, time.March, 31)) // previous year

	fy := date.FiscalYear{Start: 2024}
	records, err := s.GainRecords(ctx, "u", taxledger.EquityListed, fy.Range(time.April))
	if err != nil {
		t.Fatalf("GainRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].ID != "g-1" || records[1].ID != "g-2" {
		t.Errorf("records = %s, %s, want g-1, g-2", records[0].ID, records[1].ID)
	}
	if !records[0].Gain.Equal(taxledger.INR(500)) {
		t.Errorf("Gain = %s, want 500", records[0].Gain)
	}
}

func TestSummaryReplace(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	fy := date.FiscalYear{Start: 2024}

	if got, err := s.Summary(ctx, "u", fy, taxledger.EquityListed); err != nil || got != nil {
		t.Fatalf("Summary(absent) = %v, %v, want nil, nil", got, err)
	}

	sum := &taxledger.FiscalYearSummary{
		UserID: "u", FiscalYear: fy, Class: taxledger.EquityListed,
		ShortGain: taxledger.INR(10_000), TaxableShort: taxledger.INR(10_000),
		ShortRate: 0.15, LongRate: 0.10, Records: 1,
	}
	if err := s.ReplaceSummary(ctx, sum); err != nil {
		t.Fatalf("ReplaceSummary() error = %v", err)
	}
	sum.ShortGain, sum.TaxableShort, sum.Records = taxledger.INR(15_000), taxledger.INR(15_000), 2
	if err := s.ReplaceSummary(ctx, sum); err != nil {
		t.Fatalf("ReplaceSummary(update) error = %v", err)
	}

	got, err := s.Summary(ctx, "u", fy, taxledger.EquityListed)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !got.ShortGain.Equal(taxledger.INR(15_000)) || got.Records != 2 {
		t.Errorf("summary = %+v, want replaced values", got)
	}
	if got.FiscalYear != fy {
		t.Errorf("FiscalYear = %v, want %v", got.FiscalYear, fy)
	}
}

func TestFingerprints(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	if _, seen, err := s.Fingerprint(ctx, "fp-1"); err != nil || seen {
		t.Fatalf("Fingerprint(unseen) = seen %v, err %v", seen, err)
	}
	if err := s.SaveFingerprint(ctx, "fp-1", "hash-a", taxledger.OutcomePosted); err != nil {
		t.Fatalf("SaveFingerprint() error = %v", err)
	}
	payload, seen, err := s.Fingerprint(ctx, "fp-1")
	if err != nil || !seen || payload != "hash-a" {
		t.Errorf("Fingerprint() = %q, %v, %v, want hash-a, true, nil", payload, seen, err)
	}
	// Overwrite replaces the stored payload.
	if err := s.SaveFingerprint(ctx, "fp-1", "hash-b", taxledger.OutcomePosted); err != nil {
		t.Fatalf("SaveFingerprint(overwrite) error = %v", err)
	}
	payload, _, _ = s.Fingerprint(ctx, "fp-1")
	if payload != "hash-b" {
		t.Errorf("payload after overwrite = %q, want hash-b", payload)
	}
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s) error = %v", path, err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.PostJournal(ctx, testJournal("j-1")); err != nil {
		t.Fatalf("PostJournal() error = %v", err)
	}
	// Reopen and read back.
	s.Close()
	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if _, err := s.Journal(ctx, "j-1"); err != nil {
		t.Errorf("Journal() after reopen error = %v", err)
	}
}
