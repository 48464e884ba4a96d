package taxledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/msgtosan/taxledger/date"
)

// MemoryStore is an in-process Store. It backs tests and ephemeral runs; the
// sqlitestore package provides the durable implementation.
type MemoryStore struct {
	journals     []*Journal
	journalByID  map[JournalID]*Journal
	lots         map[string][]*TaxLot // keyed by user|holding
	gains        []*GainRecord
	summaries    map[string]*FiscalYearSummary // keyed by user|fy|class
	fingerprints map[Fingerprint]fingerprintRow
}

type fingerprintRow struct {
	payloadHash string
	outcome     string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		journalByID:  make(map[JournalID]*Journal),
		lots:         make(map[string][]*TaxLot),
		summaries:    make(map[string]*FiscalYearSummary),
		fingerprints: make(map[Fingerprint]fingerprintRow),
	}
}

var _ Store = (*MemoryStore)(nil)

func holdingKey(userID, holdingID string) string { return userID + "|" + holdingID }

func scopeKey(userID string, fy date.FiscalYear, class AssetClass) string {
	return fmt.Sprintf("%s|%s|%s", userID, fy, class)
}

func (s *MemoryStore) PostJournal(_ context.Context, j *Journal) error {
	if _, exists := s.journalByID[j.ID]; exists {
		return fmt.Errorf("journal %s already posted", j.ID)
	}
	s.journals = append(s.journals, j)
	s.journalByID[j.ID] = j
	return nil
}

func (s *MemoryStore) PostReversal(ctx context.Context, original JournalID, reversal *Journal) error {
	o, ok := s.journalByID[original]
	if !ok {
		return fmt.Errorf("journal %s: %w", original, ErrUnknownJournal)
	}
	if err := s.PostJournal(ctx, reversal); err != nil {
		return err
	}
	o.ReversedBy = reversal.ID
	return nil
}

func (s *MemoryStore) Journal(_ context.Context, id JournalID) (*Journal, error) {
	j, ok := s.journalByID[id]
	if !ok {
		return nil, fmt.Errorf("journal %s: %w", id, ErrUnknownJournal)
	}
	return j, nil
}

func (s *MemoryStore) Journals(_ context.Context) ([]*Journal, error) {
	return append([]*Journal(nil), s.journals...), nil
}

func (s *MemoryStore) SaveLot(_ context.Context, lot *TaxLot) error {
	key := holdingKey(lot.UserID, lot.HoldingID)
	for i, existing := range s.lots[key] {
		if existing.ID == lot.ID {
			s.lots[key][i] = lot
			return nil
		}
	}
	s.lots[key] = append(s.lots[key], lot)
	return nil
}

func (s *MemoryStore) Lots(_ context.Context, userID, holdingID string) ([]*TaxLot, error) {
	lots := append([]*TaxLot(nil), s.lots[holdingKey(userID, holdingID)]...)
	sort.Slice(lots, func(i, j int) bool {
		if lots[i].AcquiredOn != lots[j].AcquiredOn {
			return lots[i].AcquiredOn.Before(lots[j].AcquiredOn)
		}
		return lots[i].Seq < lots[j].Seq
	})
	return lots, nil
}

func (s *MemoryStore) NextLotSeq(_ context.Context, userID, holdingID string) (int64, error) {
	return int64(len(s.lots[holdingKey(userID, holdingID)])) + 1, nil
}

func (s *MemoryStore) SaveGainRecord(_ context.Context, g *GainRecord) error {
	s.gains = append(s.gains, g)
	return nil
}

func (s *MemoryStore) GainRecords(_ context.Context, userID string, class AssetClass, r date.Range) ([]*GainRecord, error) {
	var out []*GainRecord
	for _, g := range s.gains {
		if g.UserID == userID && g.Class == class && r.Contains(g.DisposedOn) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *MemoryStore) ReplaceSummary(_ context.Context, sum *FiscalYearSummary) error {
	s.summaries[scopeKey(sum.UserID, sum.FiscalYear, sum.Class)] = sum
	return nil
}

func (s *MemoryStore) Summary(_ context.Context, userID string, fy date.FiscalYear, class AssetClass) (*FiscalYearSummary, error) {
	return s.summaries[scopeKey(userID, fy, class)], nil
}

func (s *MemoryStore) Fingerprint(_ context.Context, fp Fingerprint) (string, bool, error) {
	row, ok := s.fingerprints[fp]
	return row.payloadHash, ok, nil
}

func (s *MemoryStore) SaveFingerprint(_ context.Context, fp Fingerprint, payloadHash, outcome string) error {
	s.fingerprints[fp] = fingerprintRow{payloadHash: payloadHash, outcome: outcome}
	return nil
}
