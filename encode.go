package taxledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// This file persists and reads the engine's streams as JSONL: one JSON object
// per line, human-readable and git-friendly. Parsers hand the engine their
// normalized transactions in this shape; the export layer reads gain records
// and summaries back out of it.

// DecodeTransactions reads a stream of normalized transactions, one JSON
// object per line. Blank lines are skipped. The filename is for error
// messages only.
func DecodeTransactions(filename string, r io.Reader) ([]NormalizedTransaction, error) {
	var txs []NormalizedTransaction
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		txt := strings.TrimSpace(scanner.Text())
		if txt == "" {
			continue
		}
		var tx NormalizedTransaction
		if err := json.Unmarshal([]byte(txt), &tx); err != nil {
			return nil, fmt.Errorf("format error in %q line %d: %w", filename, line, err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %q: %w", filename, err)
	}
	return txs, nil
}

// EncodeTransactions writes transactions one JSON object per line.
func EncodeTransactions(w io.Writer, txs []NormalizedTransaction) error {
	return encodeLines(w, txs)
}

// EncodeGainRecords writes gain records one JSON object per line, for the
// per-transaction capital gains statement export.
func EncodeGainRecords(w io.Writer, records []*GainRecord) error {
	return encodeLines(w, records)
}

// EncodeSummaries writes fiscal-year summaries one JSON object per line.
func EncodeSummaries(w io.Writer, summaries []*FiscalYearSummary) error {
	return encodeLines(w, summaries)
}

func encodeLines[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("encoding line: %w", err)
		}
	}
	return nil
}
