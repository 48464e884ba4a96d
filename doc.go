// Package taxledger converts normalized personal-finance transaction records
// into a consistent double-entry ledger and derives tax-correct capital-gains
// figures under the Indian capital-gains regime. It is designed to be
// local-first, auditable, and deterministic: re-running an ingestion over the
// same source documents never double-posts and always reproduces the same
// balances and summaries.
//
// The core functionalities include:
//   - Account Registry: a hierarchical chart of accounts with normal-balance
//     semantics derived from each account's category.
//   - Ledger Engine: creation and validation of balanced journals, posted
//     all-or-nothing, with linked reversals for corrections.
//   - Ingestion Idempotency Guard: a deterministic fingerprint per source
//     transaction guaranteeing at-most-once posting across overlapping runs.
//   - Tax-Lot Tracker: open acquisition lots per holding, matched to
//     disposals oldest-first with deterministic same-day tie-breaks.
//   - Capital Gains Calculator: short/long term classification per
//     asset-class holding thresholds, with the grandfathered
//     fair-market-value basis capped at the sale price.
//   - Fiscal-Year Aggregator: per-user, per-year, per-class summaries with
//     the exemption applied once per scope and rates tagged from
//     configuration.
//
// This package is the foundational logic for the `txl` command-line tool;
// the sqlitestore package provides its durable persistence.
package taxledger
