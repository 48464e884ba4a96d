package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/msgtosan/taxledger"
	"github.com/msgtosan/taxledger/date"
	"github.com/msgtosan/taxledger/renderer"
)

// gainsCmd holds the flags for the 'gains' subcommand.
type gainsCmd struct {
	userID string
	fy     string
	class  string
}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "list the classified gain records of a fiscal year" }
func (*gainsCmd) Usage() string {
	return `txl gains -user <id> [-fy FY2024-25] [-class equity-listed]

  Prints every gain record whose disposal date falls in the fiscal year,
  one row per matched lot, with term, holding days and tax basis.

Usage Examples:
# Current fiscal year, all asset classes.
$ txl gains -user alice

# One class of a past year.
$ txl gains -user alice -fy FY2022-23 -class debt-fund

`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.userID, "user", "", "User whose records to list")
	f.StringVar(&c.fy, "fy", "", "Fiscal year, e.g. FY2024-25 (default: current)")
	f.StringVar(&c.class, "class", "", "Restrict to one asset class")
}

func (c *gainsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.userID == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		return subcommands.ExitUsageError
	}

	cfg, err := LoadRules()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading tax rules: %v\n", err)
		return subcommands.ExitFailure
	}

	fy := date.FiscalYearOf(date.Today(), cfg.FiscalYearStart)
	if c.fy != "" {
		fy, err = date.ParseFiscalYear(c.fy)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	classes := allClasses(cfg)
	if c.class != "" {
		class, err := taxledger.ParseAssetClass(c.class)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		classes = []taxledger.AssetClass{class}
	}

	store, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	var records []*taxledger.GainRecord
	for _, class := range classes {
		rs, err := store.GainRecords(ctx, c.userID, class, fy.Range(cfg.FiscalYearStart))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading gain records: %v\n", err)
			return subcommands.ExitFailure
		}
		records = append(records, rs...)
	}

	printMarkdown(renderer.GainsMarkdown(fy.String(), records))
	return subcommands.ExitSuccess
}

// allClasses returns the asset classes the rule configuration knows, in the
// canonical order.
func allClasses(cfg taxledger.TaxRuleConfig) []taxledger.AssetClass {
	var classes []taxledger.AssetClass
	for _, class := range []taxledger.AssetClass{
		taxledger.EquityListed, taxledger.EquityFund, taxledger.DebtFund,
		taxledger.ForeignStock, taxledger.Unlisted,
	} {
		if _, ok := cfg.Classes[class]; ok {
			classes = append(classes, class)
		}
	}
	return classes
}
