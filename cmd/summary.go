package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/msgtosan/taxledger"
	"github.com/msgtosan/taxledger/date"
	"github.com/msgtosan/taxledger/renderer"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	userID string
	fy     string
	class  string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "print fiscal-year capital gains summaries" }
func (*summaryCmd) Usage() string {
	return `txl summary -user <id> [-fy FY2024-25] [-class equity-listed]

  Prints the stored per-class fiscal-year summary: short and long term
  totals, the exemption applied and the net taxable amounts.

Usage Examples:
# Every class of the current fiscal year.
$ txl summary -user alice

# One class.
$ txl summary -user alice -fy FY2023-24 -class equity-listed

`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.userID, "user", "", "User whose summaries to print")
	f.StringVar(&c.fy, "fy", "", "Fiscal year, e.g. FY2024-25 (default: current)")
	f.StringVar(&c.class, "class", "", "Restrict to one asset class")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	var out strings.Builder
	found := 0
	for _, class := range classes {
		s, err := store.Summary(ctx, c.userID, fy, class)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading summary: %v\n", err)
			return subcommands.ExitFailure
		}
		if s == nil {
			continue
		}
		found++
		out.WriteString(renderer.SummaryMarkdown(s))
		out.WriteString("\n")
	}
	if found == 0 {
		fmt.Fprintf(os.Stderr, "no summaries for %s in %s\n", c.userID, fy)
		return subcommands.ExitSuccess
	}

	printMarkdown(out.String())
	return subcommands.ExitSuccess
}
