package taxledger

import (
	"context"
	"fmt"
)

// Decision is the guard's verdict for one fingerprint.
type Decision int

const (
	// PostRecord means the fingerprint is unseen and the record should post.
	PostRecord Decision = iota
	// SkipDuplicate means the fingerprint was seen with an identical
	// payload; the record is a re-read of the same source line.
	SkipDuplicate
	// SkipRestated means the fingerprint was seen with a differing payload.
	// Source documents sometimes restate prior entries; the first-seen value
	// wins and the difference is reported as a data-quality warning.
	SkipRestated
)

// Outcomes recorded against a fingerprint.
const (
	OutcomePosted = "posted"
	OutcomeFailed = "failed"
)

// Guard guarantees at-most-once posting per fingerprint across repeated runs
// over the same or overlapping source documents.
type Guard struct {
	store Store
}

// NewGuard creates an ingestion idempotency guard over a store.
func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

// ShouldPost decides whether a record with this fingerprint and payload hash
// may post.
func (g *Guard) ShouldPost(ctx context.Context, fp Fingerprint, payloadHash string) (Decision, error) {
	stored, seen, err := g.store.Fingerprint(ctx, fp)
	if err != nil {
		return SkipDuplicate, fmt.Errorf("checking fingerprint: %w", err)
	}
	if !seen {
		return PostRecord, nil
	}
	if stored == payloadHash {
		return SkipDuplicate, nil
	}
	return SkipRestated, nil
}

// Overwrite forgets the stored payload for a fingerprint so the next run can
// post the restated record. It is the only way a first-seen value is lost.
func (g *Guard) Overwrite(ctx context.Context, fp Fingerprint, payloadHash string) error {
	return g.store.SaveFingerprint(ctx, fp, payloadHash, OutcomePosted)
}

// RecordPosted stores the fingerprint with its payload hash and outcome.
// The ingester only records successfully posted records, so a failed record
// stays unknown to the guard and is retried on the next run.
func (g *Guard) RecordPosted(ctx context.Context, fp Fingerprint, payloadHash, outcome string) error {
	if err := g.store.SaveFingerprint(ctx, fp, payloadHash, outcome); err != nil {
		return fmt.Errorf("recording fingerprint: %w", err)
	}
	return nil
}
