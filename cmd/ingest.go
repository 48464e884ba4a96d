package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/msgtosan/taxledger"
	"github.com/msgtosan/taxledger/renderer"
)

// ingestCmd holds the flags for the 'ingest' subcommand.
type ingestCmd struct {
	fmvFile     string
	fmvHoldings string
	fmvPrices   string
}

func (*ingestCmd) Name() string     { return "ingest" }
func (*ingestCmd) Synopsis() string { return "post normalized transaction files to the ledger" }
func (*ingestCmd) Usage() string {
	return `txl ingest [-fmv <snapshot> [-fmv-holdings <path>] [-fmv-prices <path>]] <file.jsonl>...

  Reads normalized transaction records (JSONL, one object per line), posts
  them at most once each, matches disposals to tax lots, classifies gains,
  and recomputes the touched fiscal-year summaries. Prints the run report.

Usage Examples:
# Ingest a parsed broker statement.
$ txl ingest hdfc-2024.jsonl

# Same, with a grandfathering FMV snapshot.
$ txl ingest -fmv nse-20180131.json zerodha.jsonl

`
}

func (c *ingestCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fmvFile, "fmv", "", "Provider JSON snapshot with fair market values at the grandfathering cutoff")
	f.StringVar(&c.fmvHoldings, "fmv-holdings", "$.data[*].symbol", "jsonpath to the holding identifiers in the snapshot")
	f.StringVar(&c.fmvPrices, "fmv-prices", "$.data[*].close", "jsonpath to the cutoff prices in the snapshot")
}

func (c *ingestCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "at least one transaction file is required")
		return subcommands.ExitUsageError
	}

	cfg, err := LoadRules()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading tax rules: %v\n", err)
		return subcommands.ExitFailure
	}

	var fmv taxledger.FMVTable
	if c.fmvFile != "" {
		fmv, err = taxledger.LoadFMVTable(c.fmvFile, taxledger.FMVPaths{
			Holdings: c.fmvHoldings,
			Prices:   c.fmvPrices,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading FMV snapshot: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	var txs []taxledger.NormalizedTransaction
	for _, filename := range f.Args() {
		file, err := os.Open(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening %q: %v\n", filename, err)
			return subcommands.ExitFailure
		}
		decoded, err := taxledger.DecodeTransactions(filename, file)
		file.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", filename, err)
			return subcommands.ExitFailure
		}
		txs = append(txs, decoded...)
	}

	store, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	ingester := taxledger.NewIngester(cfg, store, taxledger.DefaultChart(), fmv, NewLogger())
	report, err := ingester.Run(ctx, txs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: ingestion run aborted: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.ReportMarkdown(report))
	if report.Failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
