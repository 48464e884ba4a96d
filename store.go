package taxledger

import (
	"context"

	"github.com/msgtosan/taxledger/date"
)

// Store is the persistence port every engine component receives at
// construction. Implementations must make PostJournal and PostReversal
// all-or-nothing; everything else is plain row access. The engine is a
// single-writer batch system, so implementations need no internal locking
// beyond that commit boundary.
type Store interface {
	// PostJournal persists a journal header and all its entries atomically.
	PostJournal(ctx context.Context, j *Journal) error
	// PostReversal persists the reversing journal and marks the original as
	// reversed by it, atomically.
	PostReversal(ctx context.Context, original JournalID, reversal *Journal) error
	// Journal returns the journal with this id, or ErrUnknownJournal.
	Journal(ctx context.Context, id JournalID) (*Journal, error)
	// Journals returns all journals in posting order.
	Journals(ctx context.Context) ([]*Journal, error)

	// SaveLot inserts a lot or updates its remaining quantity.
	SaveLot(ctx context.Context, lot *TaxLot) error
	// Lots returns all lots of a holding, including fully consumed ones,
	// ordered by (acquire date, sequence).
	Lots(ctx context.Context, userID, holdingID string) ([]*TaxLot, error)
	// NextLotSeq returns the next insertion sequence number for a holding.
	NextLotSeq(ctx context.Context, userID, holdingID string) (int64, error)

	// SaveGainRecord appends an immutable gain record.
	SaveGainRecord(ctx context.Context, g *GainRecord) error
	// GainRecords returns the gain records of one user and asset class whose
	// disposal date falls within the range.
	GainRecords(ctx context.Context, userID string, class AssetClass, r date.Range) ([]*GainRecord, error)

	// ReplaceSummary fully replaces the summary row for its
	// (user, fiscal year, asset class) scope.
	ReplaceSummary(ctx context.Context, s *FiscalYearSummary) error
	// Summary returns the stored summary for the scope, or nil if absent.
	Summary(ctx context.Context, userID string, fy date.FiscalYear, class AssetClass) (*FiscalYearSummary, error)

	// Fingerprint returns the stored payload hash for a fingerprint, if seen.
	Fingerprint(ctx context.Context, fp Fingerprint) (payloadHash string, seen bool, err error)
	// SaveFingerprint records a fingerprint with its payload hash and outcome.
	SaveFingerprint(ctx context.Context, fp Fingerprint, payloadHash, outcome string) error
}
