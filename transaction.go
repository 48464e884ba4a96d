package taxledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/msgtosan/taxledger/date"
)

// TxKind is the closed set of normalized transaction kinds.
type TxKind string

const (
	Acquire     TxKind = "acquire"
	Dispose     TxKind = "dispose"
	IncomeEvent TxKind = "income"
)

// ParseTxKind parses a string into a TxKind.
func ParseTxKind(s string) (TxKind, error) {
	switch TxKind(s) {
	case Acquire, Dispose, IncomeEvent:
		return TxKind(s), nil
	default:
		return "", fmt.Errorf("unknown transaction kind: %q", s)
	}
}

// AssetClass is the closed set of asset classes the tax rules distinguish.
type AssetClass string

const (
	EquityListed AssetClass = "equity-listed" // domestic listed shares
	EquityFund   AssetClass = "equity-fund"   // equity-oriented mutual funds
	DebtFund     AssetClass = "debt-fund"     // debt-oriented mutual funds
	ForeignStock AssetClass = "foreign-stock" // foreign listed shares
	Unlisted     AssetClass = "unlisted"      // unlisted shares, including ESOPs
)

// ParseAssetClass parses a string into an AssetClass.
func ParseAssetClass(s string) (AssetClass, error) {
	switch AssetClass(s) {
	case EquityListed, EquityFund, DebtFund, ForeignStock, Unlisted:
		return AssetClass(s), nil
	default:
		return "", fmt.Errorf("unknown asset class: %q", s)
	}
}

// NormalizedTransaction is the record document parsers emit. It is the only
// input the engine consumes: a dated movement of units of one holding.
type NormalizedTransaction struct {
	UserID    string     `json:"user"`
	Class     AssetClass `json:"class"`
	HoldingID string     `json:"holding"` // folio, symbol, or account number
	Kind      TxKind     `json:"kind"`
	On        date.Date  `json:"on"`
	Quantity  Quantity   `json:"quantity"`
	UnitPrice Money      `json:"unitPrice"`
	Gross     Money      `json:"gross"`   // gross amount moved
	Charges   Money      `json:"charges"` // transaction taxes and levies
	SourceDoc string     `json:"sourceDoc"`
}

// Validate checks the record for structural correctness before it reaches the
// tracker. It returns a ValidationError naming the offending field.
func (t NormalizedTransaction) Validate() error {
	switch {
	case t.UserID == "":
		return ValidationError{Field: "user", Reason: "is missing"}
	case t.HoldingID == "":
		return ValidationError{Field: "holding", Reason: "is missing"}
	case t.On.IsZero():
		return ValidationError{Field: "on", Reason: "is missing"}
	case t.SourceDoc == "":
		return ValidationError{Field: "sourceDoc", Reason: "is missing"}
	}
	if _, err := ParseTxKind(string(t.Kind)); err != nil {
		return ValidationError{Field: "kind", Reason: err.Error()}
	}
	if _, err := ParseAssetClass(string(t.Class)); err != nil {
		return ValidationError{Field: "class", Reason: err.Error()}
	}
	switch t.Kind {
	case Acquire, Dispose:
		if !t.Quantity.IsPositive() {
			return ValidationError{Field: "quantity", Reason: "must be positive"}
		}
	case IncomeEvent:
		if !t.Gross.IsPositive() {
			return ValidationError{Field: "gross", Reason: "must be positive"}
		}
	}
	if t.Gross.IsNegative() {
		return ValidationError{Field: "gross", Reason: "must not be negative"}
	}
	if t.Charges.IsNegative() {
		return ValidationError{Field: "charges", Reason: "must not be negative"}
	}
	return nil
}

// Fingerprint is the deterministic dedup key of a transaction: its defining
// fields plus the source document identity.
type Fingerprint string

// Fingerprint derives the ingestion fingerprint for this record.
func (t NormalizedTransaction) Fingerprint() Fingerprint {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s",
		t.HoldingID, t.On, t.Kind, t.Quantity, t.Gross, t.SourceDoc)
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// PayloadHash digests every field of the record, so that two records with the
// same fingerprint but different content can be told apart.
func (t NormalizedTransaction) PayloadHash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s|%s|%s|%s",
		t.UserID, t.Class, t.HoldingID, t.Kind, t.On,
		t.Quantity, t.UnitPrice, t.Gross, t.Charges, t.SourceDoc)
	return hex.EncodeToString(h.Sum(nil))
}
