package taxledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/msgtosan/taxledger/date"
)

// Chart-of-account codes the ingester posts against.
const (
	AccountSettlement  = "assets.settlement"
	AccountHoldings    = "assets.holdings"
	AccountCharges     = "expenses.charges"
	AccountCapitalLoss = "expenses.capital-loss"
	AccountCapitalGain = "income.capital-gain"
	AccountOtherIncome = "income.other"
)

// DefaultChart builds the chart of accounts the ingester posts into: a
// settlement account, one holdings account per asset class, and the charge,
// gain, loss and income accounts.
func DefaultChart() *ChartOfAccounts {
	c := NewChart()
	mustRegister := func(code, name string, cat Category) {
		if _, err := c.Register(code, name, cat); err != nil {
			panic(err)
		}
	}
	mustRegister("assets", "Assets", Asset)
	mustRegister(AccountSettlement, "Settlement", Asset)
	mustRegister(AccountHoldings, "Holdings", Asset)
	for _, class := range []AssetClass{EquityListed, EquityFund, DebtFund, ForeignStock, Unlisted} {
		mustRegister(holdingAccount(class), "Holdings "+string(class), Asset)
	}
	mustRegister("expenses", "Expenses", Expense)
	mustRegister(AccountCharges, "Transaction Charges", Expense)
	mustRegister(AccountCapitalLoss, "Capital Loss", Expense)
	mustRegister("income", "Income", Income)
	mustRegister(AccountCapitalGain, "Capital Gain", Income)
	mustRegister(AccountOtherIncome, "Other Income", Income)
	return c
}

func holdingAccount(class AssetClass) string {
	return AccountHoldings + "." + string(class)
}

// RecordError ties a per-record failure to its position in the batch.
type RecordError struct {
	Index   int
	Holding string
	Err     error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d (%s): %v", e.Index, e.Holding, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// IngestReport summarizes one run. Every record lands in exactly one of
// Posted, Duplicates, Restated, or Failed; nothing is dropped silently.
type IngestReport struct {
	Processed  int
	Posted     int
	Duplicates int
	Restated   int
	Failed     int
	Errors     []RecordError
	Warnings   []Warning
}

// Ingester drives one batch: guard, tracker, calculator, ledger, aggregator.
type Ingester struct {
	cfg     TaxRuleConfig
	guard   *Guard
	tracker *Tracker
	calc    *Calculator
	ledger  *Ledger
	agg     *Aggregator
	store   Store
	fmv     FMVTable
	log     *slog.Logger
}

// NewIngester wires the engine components over a shared store. The FMV table
// may be empty; eligible lots then fall back to original cost with a warning
// at classification time.
func NewIngester(cfg TaxRuleConfig, store Store, chart *ChartOfAccounts, fmv FMVTable, log *slog.Logger) *Ingester {
	return &Ingester{
		cfg:     cfg,
		guard:   NewGuard(store),
		tracker: NewTracker(store),
		calc:    NewCalculator(cfg),
		ledger:  NewLedger(chart, store),
		agg:     NewAggregator(cfg, store),
		store:   store,
		fmv:     fmv,
		log:     log,
	}
}

// scope identifies one fiscal-year summary to recompute after the batch.
type scope struct {
	userID string
	fy     date.FiscalYear
	class  AssetClass
}

// Run processes a stream of normalized transactions. Per-record errors are
// collected and the batch continues; a structural error (imbalance, oversell)
// aborts only the affected record. Touched fiscal-year summaries are
// recomputed once at the end.
func (in *Ingester) Run(ctx context.Context, txs []NormalizedTransaction) (*IngestReport, error) {
	report := &IngestReport{}
	touched := make(map[scope]bool)

	for i, tx := range txs {
		report.Processed++
		if err := in.process(ctx, tx, report, touched); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, RecordError{Index: i, Holding: tx.HoldingID, Err: err})
			in.log.Warn("record failed", "index", i, "holding", tx.HoldingID, "error", err)
		}
	}

	for s := range touched {
		if _, err := in.agg.Recompute(ctx, s.userID, s.fy, s.class); err != nil {
			return report, fmt.Errorf("recomputing summary %s %s %s: %w", s.userID, s.fy, s.class, err)
		}
	}

	in.log.Info("ingestion run finished",
		"processed", report.Processed, "posted", report.Posted,
		"duplicates", report.Duplicates, "restated", report.Restated,
		"failed", report.Failed)
	return report, nil
}

func (in *Ingester) process(ctx context.Context, tx NormalizedTransaction, report *IngestReport, touched map[scope]bool) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	fp, payload := tx.Fingerprint(), tx.PayloadHash()
	decision, err := in.guard.ShouldPost(ctx, fp, payload)
	if err != nil {
		return err
	}
	switch decision {
	case SkipDuplicate:
		report.Duplicates++
		report.Warnings = append(report.Warnings, Warning{
			Kind: WarnDuplicateIngestion, Holding: tx.HoldingID,
			Detail: fmt.Sprintf("already posted from %s on %s", tx.SourceDoc, tx.On),
		})
		return nil
	case SkipRestated:
		report.Restated++
		report.Warnings = append(report.Warnings, Warning{
			Kind: WarnRestatedIngestion, Holding: tx.HoldingID,
			Detail: fmt.Sprintf("%s restates an already posted record with different values, keeping first seen", tx.SourceDoc),
		})
		return nil
	}

	switch tx.Kind {
	case Acquire:
		err = in.acquire(ctx, tx)
	case Dispose:
		err = in.dispose(ctx, tx, report, touched)
	case IncomeEvent:
		err = in.income(ctx, tx)
	}
	if err != nil {
		return err
	}

	if err := in.guard.RecordPosted(ctx, fp, payload, OutcomePosted); err != nil {
		return err
	}
	report.Posted++
	return nil
}

func (in *Ingester) acquire(ctx context.Context, tx NormalizedTransaction) error {
	var fmvPerUnit *Money
	rule, err := in.cfg.Rule(tx.Class)
	if err != nil {
		return err
	}
	if rule.Grandfathered && tx.On.Before(in.cfg.GrandfatherCutoff) {
		fmvPerUnit = in.fmv.Lookup(tx.HoldingID)
	}
	if _, err := in.tracker.Acquire(ctx, tx.UserID, tx.HoldingID, tx.Class, tx.On, tx.Quantity, tx.UnitPrice, fmvPerUnit); err != nil {
		return err
	}

	entries := []JournalEntry{
		{Account: holdingAccount(tx.Class), Debit: tx.Gross},
	}
	if !tx.Charges.IsZero() {
		entries = append(entries, JournalEntry{Account: AccountCharges, Debit: tx.Charges})
	}
	entries = append(entries, JournalEntry{Account: AccountSettlement, Credit: tx.Gross.Add(tx.Charges)})
	_, err = in.ledger.Post(ctx, tx.On,
		fmt.Sprintf("acquire %s %s", tx.Quantity, tx.HoldingID),
		entries, SourceRef{Type: "ingestion", ID: string(tx.Fingerprint())})
	return err
}

func (in *Ingester) dispose(ctx context.Context, tx NormalizedTransaction, report *IngestReport, touched map[scope]bool) error {
	matches, err := in.tracker.Dispose(ctx, tx.UserID, tx.HoldingID, tx.On, tx.Quantity, tx.Gross, tx.Charges)
	if err != nil {
		return err
	}

	// Book cost leaves the holdings account at original lot cost; the
	// grandfathered basis only affects the tax figures in the gain records.
	var bookCost Money
	for _, m := range matches {
		g, warnings, err := in.calc.Classify(m)
		if err != nil {
			return err
		}
		report.Warnings = append(report.Warnings, warnings...)
		if err := in.store.SaveGainRecord(ctx, g); err != nil {
			return err
		}
		bookCost = bookCost.Add(m.Lot.UnitCost.Mul(m.Consumed))
		touched[scope{userID: tx.UserID, fy: in.cfg.FiscalYearOf(tx.On), class: tx.Class}] = true
	}

	net := tx.Gross.Sub(tx.Charges)
	entries := []JournalEntry{
		{Account: AccountSettlement, Debit: net},
	}
	if !tx.Charges.IsZero() {
		entries = append(entries, JournalEntry{Account: AccountCharges, Debit: tx.Charges})
	}
	entries = append(entries, JournalEntry{Account: holdingAccount(tx.Class), Credit: bookCost})
	bookGain := tx.Gross.Sub(bookCost)
	switch {
	case bookGain.IsPositive():
		entries = append(entries, JournalEntry{Account: AccountCapitalGain, Credit: bookGain})
	case bookGain.IsNegative():
		entries = append(entries, JournalEntry{Account: AccountCapitalLoss, Debit: bookGain.Neg()})
	}
	_, err = in.ledger.Post(ctx, tx.On,
		fmt.Sprintf("dispose %s %s", tx.Quantity, tx.HoldingID),
		entries, SourceRef{Type: "ingestion", ID: string(tx.Fingerprint())})
	return err
}

func (in *Ingester) income(ctx context.Context, tx NormalizedTransaction) error {
	net := tx.Gross.Sub(tx.Charges)
	entries := []JournalEntry{
		{Account: AccountSettlement, Debit: net},
	}
	if !tx.Charges.IsZero() {
		entries = append(entries, JournalEntry{Account: AccountCharges, Debit: tx.Charges})
	}
	entries = append(entries, JournalEntry{Account: AccountOtherIncome, Credit: tx.Gross})
	_, err := in.ledger.Post(ctx, tx.On,
		fmt.Sprintf("income on %s", tx.HoldingID),
		entries, SourceRef{Type: "ingestion", ID: string(tx.Fingerprint())})
	return err
}
