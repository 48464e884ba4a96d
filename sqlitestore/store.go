// Package sqlitestore is the durable Store implementation, backed by a local
// sqlite database file.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/msgtosan/taxledger"
	"github.com/msgtosan/taxledger/date"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS journals (
	id TEXT PRIMARY KEY,
	on_date TEXT NOT NULL,
	description TEXT NOT NULL,
	source_type TEXT NOT NULL,
	source_id TEXT NOT NULL,
	reverses TEXT,
	reversed_by TEXT,
	posted_seq INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS journal_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	journal_id TEXT NOT NULL,
	account_code TEXT NOT NULL,
	debit TEXT,
	credit TEXT,
	FOREIGN KEY(journal_id) REFERENCES journals(id)
);

CREATE TABLE IF NOT EXISTS tax_lots (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	holding_id TEXT NOT NULL,
	class TEXT NOT NULL,
	acquired_on TEXT NOT NULL,
	seq INTEGER NOT NULL,
	original_qty TEXT NOT NULL,
	remaining_qty TEXT NOT NULL,
	unit_cost TEXT NOT NULL,
	fmv_per_unit TEXT,
	UNIQUE(user_id, holding_id, seq)
);

CREATE TABLE IF NOT EXISTS gain_records (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	holding_id TEXT NOT NULL,
	class TEXT NOT NULL,
	lot_id TEXT NOT NULL,
	disposed_on TEXT NOT NULL,
	record TEXT NOT NULL,
	FOREIGN KEY(lot_id) REFERENCES tax_lots(id)
);

CREATE TABLE IF NOT EXISTS fiscal_year_summary (
	user_id TEXT NOT NULL,
	fiscal_year TEXT NOT NULL,
	class TEXT NOT NULL,
	summary TEXT NOT NULL,
	UNIQUE(user_id, fiscal_year, class)
);

CREATE TABLE IF NOT EXISTS fingerprints (
	fingerprint TEXT PRIMARY KEY,
	payload_hash TEXT NOT NULL,
	outcome TEXT NOT NULL
);
`

// Store implements taxledger.Store on sqlite. Journal rows hold the header;
// lot, gain and summary rows keep their JSON encoding alongside the indexed
// columns, so the exact decimal representation round-trips unchanged.
type Store struct {
	db *sql.DB
}

var _ taxledger.Store = (*Store)(nil)

// Open opens (and if needed creates) the database at path. Use ":memory:"
// for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables in %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// PostJournal writes the header and all entries in one transaction.
func (s *Store) PostJournal(ctx context.Context, j *taxledger.Journal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := insertJournal(ctx, tx, j); err != nil {
		return err
	}
	return tx.Commit()
}

// PostReversal writes the reversing journal and marks the original, in one
// transaction.
func (s *Store) PostReversal(ctx context.Context, original taxledger.JournalID, reversal *taxledger.Journal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := insertJournal(ctx, tx, reversal); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE journals SET reversed_by = ? WHERE id = ?`, reversal.ID, original)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("journal %s: %w", original, taxledger.ErrUnknownJournal)
	}
	return tx.Commit()
}

func insertJournal(ctx context.Context, tx *sql.Tx, j *taxledger.Journal) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO journals (id, on_date, description, source_type, source_id, reverses, reversed_by, posted_seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(posted_seq), 0) + 1 FROM journals))`,
		j.ID, j.On.String(), j.Description, j.Source.Type, j.Source.ID,
		nullable(string(j.Reverses)), nullable(string(j.ReversedBy)))
	if err != nil {
		return fmt.Errorf("inserting journal %s: %w", j.ID, err)
	}
	for _, e := range j.Entries {
		raw, err := json.Marshal(e)
		if err != nil {
			return err
		}
		var entry struct {
			Debit  json.RawMessage `json:"debit"`
			Credit json.RawMessage `json:"credit"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO journal_entries (journal_id, account_code, debit, credit) VALUES (?, ?, ?, ?)`,
			j.ID, e.Account, nullable(string(entry.Debit)), nullable(string(entry.Credit))); err != nil {
			return fmt.Errorf("inserting entry for journal %s: %w", j.ID, err)
		}
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Journal returns one journal with its entries.
func (s *Store) Journal(ctx context.Context, id taxledger.JournalID) (*taxledger.Journal, error) {
	js, err := s.queryJournals(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(js) == 0 {
		return nil, fmt.Errorf("journal %s: %w", id, taxledger.ErrUnknownJournal)
	}
	return js[0], nil
}

// Journals returns all journals in posting order.
func (s *Store) Journals(ctx context.Context) ([]*taxledger.Journal, error) {
	return s.queryJournals(ctx, ``)
}

func (s *Store) queryJournals(ctx context.Context, where string, args ...any) ([]*taxledger.Journal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, on_date, description, source_type, source_id, reverses, reversed_by
		 FROM journals `+where+` ORDER BY posted_seq`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var journals []*taxledger.Journal
	for rows.Next() {
		var j taxledger.Journal
		var on string
		var reverses, reversedBy sql.NullString
		if err := rows.Scan(&j.ID, &on, &j.Description, &j.Source.Type, &j.Source.ID, &reverses, &reversedBy); err != nil {
			return nil, err
		}
		j.On, err = date.Parse(on)
		if err != nil {
			return nil, err
		}
		j.Reverses = taxledger.JournalID(reverses.String)
		j.ReversedBy = taxledger.JournalID(reversedBy.String)
		journals = append(journals, &j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, j := range journals {
		if err := s.loadEntries(ctx, j); err != nil {
			return nil, err
		}
	}
	return journals, nil
}

func (s *Store) loadEntries(ctx context.Context, j *taxledger.Journal) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account_code, debit, credit FROM journal_entries WHERE journal_id = ? ORDER BY id`, j.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var account string
		var debit, credit sql.NullString
		if err := rows.Scan(&account, &debit, &credit); err != nil {
			return err
		}
		e := taxledger.JournalEntry{Account: account}
		if debit.Valid {
			if err := json.Unmarshal([]byte(debit.String), &e.Debit); err != nil {
				return err
			}
		}
		if credit.Valid {
			if err := json.Unmarshal([]byte(credit.String), &e.Credit); err != nil {
				return err
			}
		}
		j.Entries = append(j.Entries, e)
	}
	return rows.Err()
}

// SaveLot inserts a lot or updates its remaining quantity.
func (s *Store) SaveLot(ctx context.Context, lot *taxledger.TaxLot) error {
	raw, err := json.Marshal(lot)
	if err != nil {
		return err
	}
	var cols struct {
		OriginalQty  json.RawMessage `json:"originalQty"`
		RemainingQty json.RawMessage `json:"remainingQty"`
		UnitCost     json.RawMessage `json:"unitCost"`
		FMVPerUnit   json.RawMessage `json:"fmvPerUnit"`
	}
	if err := json.Unmarshal(raw, &cols); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tax_lots (id, user_id, holding_id, class, acquired_on, seq, original_qty, remaining_qty, unit_cost, fmv_per_unit)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET remaining_qty = excluded.remaining_qty`,
		lot.ID, lot.UserID, lot.HoldingID, lot.Class, lot.AcquiredOn.String(), lot.Seq,
		string(cols.OriginalQty), string(cols.RemainingQty), string(cols.UnitCost),
		nullable(string(cols.FMVPerUnit)))
	if err != nil {
		return fmt.Errorf("saving lot %s: %w", lot.ID, err)
	}
	return nil
}

// Lots returns every lot of a holding ordered by (acquire date, seq).
func (s *Store) Lots(ctx context.Context, userID, holdingID string) ([]*taxledger.TaxLot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, holding_id, class, acquired_on, seq, original_qty, remaining_qty, unit_cost, fmv_per_unit
		 FROM tax_lots WHERE user_id = ? AND holding_id = ?
		 ORDER BY acquired_on, seq`, userID, holdingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []*taxledger.TaxLot
	for rows.Next() {
		var lot taxledger.TaxLot
		var acquired, class string
		var original, remaining, unitCost string
		var fmv sql.NullString
		if err := rows.Scan(&lot.ID, &lot.UserID, &lot.HoldingID, &class, &acquired, &lot.Seq,
			&original, &remaining, &unitCost, &fmv); err != nil {
			return nil, err
		}
		lot.Class = taxledger.AssetClass(class)
		lot.AcquiredOn, err = date.Parse(acquired)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(original), &lot.OriginalQty); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(remaining), &lot.RemainingQty); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(unitCost), &lot.UnitCost); err != nil {
			return nil, err
		}
		if fmv.Valid {
			lot.FMVPerUnit = new(taxledger.Money)
			if err := json.Unmarshal([]byte(fmv.String), lot.FMVPerUnit); err != nil {
				return nil, err
			}
		}
		lots = append(lots, &lot)
	}
	return lots, rows.Err()
}

// NextLotSeq returns the next insertion sequence number for a holding.
func (s *Store) NextLotSeq(ctx context.Context, userID, holdingID string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM tax_lots WHERE user_id = ? AND holding_id = ?`,
		userID, holdingID).Scan(&seq)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return seq.Int64 + 1, nil
}

// SaveGainRecord appends a gain record.
func (s *Store) SaveGainRecord(ctx context.Context, g *taxledger.GainRecord) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO gain_records (id, user_id, holding_id, class, lot_id, disposed_on, record)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.HoldingID, g.Class, g.LotID, g.DisposedOn.String(), string(raw))
	if err != nil {
		return fmt.Errorf("saving gain record %s: %w", g.ID, err)
	}
	return nil
}

// GainRecords returns the records of one user and class within the range.
func (s *Store) GainRecords(ctx context.Context, userID string, class taxledger.AssetClass, r date.Range) ([]*taxledger.GainRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM gain_records
		 WHERE user_id = ? AND class = ? AND disposed_on >= ? AND disposed_on <= ?
		 ORDER BY disposed_on, id`,
		userID, class, r.From.String(), r.To.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*taxledger.GainRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var g taxledger.GainRecord
		if err := json.Unmarshal([]byte(raw), &g); err != nil {
			return nil, err
		}
		records = append(records, &g)
	}
	return records, rows.Err()
}

// ReplaceSummary upserts the summary row for its scope.
func (s *Store) ReplaceSummary(ctx context.Context, sum *taxledger.FiscalYearSummary) error {
	raw, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO fiscal_year_summary (user_id, fiscal_year, class, summary)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, fiscal_year, class) DO UPDATE SET summary = excluded.summary`,
		sum.UserID, sum.FiscalYear.String(), sum.Class, string(raw))
	if err != nil {
		return fmt.Errorf("replacing summary %s %s %s: %w", sum.UserID, sum.FiscalYear, sum.Class, err)
	}
	return nil
}

// Summary returns the stored summary for the scope, or nil if absent.
func (s *Store) Summary(ctx context.Context, userID string, fy date.FiscalYear, class taxledger.AssetClass) (*taxledger.FiscalYearSummary, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT summary FROM fiscal_year_summary WHERE user_id = ? AND fiscal_year = ? AND class = ?`,
		userID, fy.String(), class).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sum taxledger.FiscalYearSummary
	if err := json.Unmarshal([]byte(raw), &sum); err != nil {
		return nil, err
	}
	sum.FiscalYear = fy
	return &sum, nil
}

// Fingerprint returns the stored payload hash for a fingerprint, if seen.
func (s *Store) Fingerprint(ctx context.Context, fp taxledger.Fingerprint) (string, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload_hash FROM fingerprints WHERE fingerprint = ?`, fp).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return payload, true, nil
}

// SaveFingerprint records a fingerprint with its payload hash and outcome.
func (s *Store) SaveFingerprint(ctx context.Context, fp taxledger.Fingerprint, payloadHash, outcome string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fingerprints (fingerprint, payload_hash, outcome)
		 VALUES (?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET payload_hash = excluded.payload_hash, outcome = excluded.outcome`,
		fp, payloadHash, outcome)
	if err != nil {
		return fmt.Errorf("saving fingerprint: %w", err)
	}
	return nil
}
