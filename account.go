package taxledger

import (
	"fmt"
	"sort"
	"strings"
)

// Category classifies an account and fixes its normal balance side.
type Category int

const (
	Asset Category = iota
	Liability
	Equity
	Income
	Expense
)

func (c Category) String() string {
	switch c {
	case Asset:
		return "asset"
	case Liability:
		return "liability"
	case Equity:
		return "equity"
	case Income:
		return "income"
	case Expense:
		return "expense"
	default:
		return "unknown"
	}
}

// ParseCategory parses a string into a Category.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "asset":
		return Asset, nil
	case "liability":
		return Liability, nil
	case "equity":
		return Equity, nil
	case "income":
		return Income, nil
	case "expense":
		return Expense, nil
	default:
		return 0, fmt.Errorf("unknown account category: %q", s)
	}
}

// Side is the normal balance side of an account.
type Side int

const (
	DebitNormal Side = iota
	CreditNormal
)

func (s Side) String() string {
	if s == DebitNormal {
		return "debit"
	}
	return "credit"
}

// NormalBalance returns the side on which accounts of this category grow.
func (c Category) NormalBalance() Side {
	switch c {
	case Asset, Expense:
		return DebitNormal
	default:
		return CreditNormal
	}
}

// Account is one node of the chart of accounts. Codes are dotted and
// hierarchical, e.g. "assets.holdings.equity". The category is fixed at
// registration.
type Account struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category Category
	Parent   string `json:"parent,omitempty"`
	Active   bool   `json:"active"`
}

// ChartOfAccounts is a pure registry of accounts: registration, lookup, and
// hierarchy integrity. It has no posting behavior.
type ChartOfAccounts struct {
	accounts map[string]*Account
}

// NewChart creates an empty chart of accounts.
func NewChart() *ChartOfAccounts {
	return &ChartOfAccounts{accounts: make(map[string]*Account)}
}

// Register adds an account to the chart. The code must be unused, and the
// parent, when derivable from the dotted code, must already be registered.
func (c *ChartOfAccounts) Register(code, name string, category Category) (*Account, error) {
	if code == "" {
		return nil, fmt.Errorf("account code is empty")
	}
	if _, exists := c.accounts[code]; exists {
		return nil, fmt.Errorf("account %q is already registered", code)
	}
	parent := parentCode(code)
	if parent != "" {
		p, ok := c.accounts[parent]
		if !ok {
			return nil, fmt.Errorf("account %q: parent %q is not registered", code, parent)
		}
		if p.Category != category {
			return nil, fmt.Errorf("account %q: category %s differs from parent %q category %s",
				code, category, parent, p.Category)
		}
	}
	a := &Account{Code: code, Name: name, Category: category, Parent: parent, Active: true}
	c.accounts[code] = a
	return a, nil
}

// parentCode derives the parent account code from a dotted code, or "" for a
// top-level account.
func parentCode(code string) string {
	i := strings.LastIndex(code, ".")
	if i < 0 {
		return ""
	}
	return code[:i]
}

// Lookup returns the account with this code, or nil if unknown.
func (c *ChartOfAccounts) Lookup(code string) *Account {
	return c.accounts[code]
}

// Deactivate marks an account inactive. Deactivating an account with active
// children is rejected to keep the hierarchy consistent.
func (c *ChartOfAccounts) Deactivate(code string) error {
	a, ok := c.accounts[code]
	if !ok {
		return fmt.Errorf("account %q: %w", code, ErrUnknownAccount)
	}
	for _, child := range c.accounts {
		if child.Parent == code && child.Active {
			return fmt.Errorf("account %q has active child %q", code, child.Code)
		}
	}
	a.Active = false
	return nil
}

// Accounts returns all registered accounts sorted by code.
func (c *ChartOfAccounts) Accounts() []*Account {
	list := make([]*Account, 0, len(c.accounts))
	for _, a := range c.accounts {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}
