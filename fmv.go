package taxledger

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/PaesslerAG/jsonpath"
)

// FMVTable maps a holding identifier to its fair market value per unit at the
// grandfathering cutoff date. Lookup misses are not errors: the calculator
// falls back to original cost with a warning.
type FMVTable map[string]Money

// Lookup returns the FMV per unit for a holding, or nil when unknown.
func (t FMVTable) Lookup(holdingID string) *Money {
	if t == nil {
		return nil
	}
	m, ok := t[holdingID]
	if !ok {
		return nil
	}
	return &m
}

// FMVPaths configures where in a provider's JSON snapshot the holdings and
// their cutoff-date prices live. Providers publish wildly different shapes,
// so both are jsonpath expressions evaluated against the whole document; the
// two result lists pair up index by index.
type FMVPaths struct {
	Holdings string `json:"holdings"` // e.g. "$.data[*].symbol"
	Prices   string `json:"prices"`   // e.g. "$.data[*].close"
}

// LoadFMVTable reads a provider JSON snapshot and extracts the FMV table
// using the given jsonpath expressions.
func LoadFMVTable(path string, paths FMVPaths) (FMVTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading FMV snapshot %q: %w", path, err)
	}
	var jobj any
	if err := json.Unmarshal(raw, &jobj); err != nil {
		return nil, fmt.Errorf("parsing FMV snapshot %q: %w", path, err)
	}

	holdings, err := jsonpathList(paths.Holdings, jobj)
	if err != nil {
		return nil, fmt.Errorf("FMV snapshot %q: %w", path, err)
	}
	prices, err := jsonpathList(paths.Prices, jobj)
	if err != nil {
		return nil, fmt.Errorf("FMV snapshot %q: %w", path, err)
	}
	if len(holdings) != len(prices) {
		return nil, fmt.Errorf("FMV snapshot %q: %d holdings but %d prices", path, len(holdings), len(prices))
	}

	table := make(FMVTable, len(holdings))
	for i, h := range holdings {
		id, ok := h.(string)
		if !ok {
			return nil, fmt.Errorf("FMV snapshot %q: holding %v is not a string", path, h)
		}
		price, ok := prices[i].(float64)
		if !ok {
			return nil, fmt.Errorf("FMV snapshot %q: price for %s is not a number: %v", path, id, prices[i])
		}
		table[id] = INR(price)
	}
	return table, nil
}

// jsonpathList evaluates a jsonpath expression and normalizes the result to a
// list, because jsonpath is never clear about whether it returns a list of
// answers or a single answer.
func jsonpathList(path string, jobj any) ([]any, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("evaluating %q: %w", path, err)
	}
	if jlist, ok := jval.([]any); ok {
		return jlist, nil
	}
	return []any{jval}, nil
}
