package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/msgtosan/taxledger"
)

// reverseCmd holds the flags for the 'reverse' subcommand.
type reverseCmd struct{}

func (*reverseCmd) Name() string     { return "reverse" }
func (*reverseCmd) Synopsis() string { return "post the reversing journal for a posted journal" }
func (*reverseCmd) Usage() string {
	return `txl reverse <journal-id>

  Posts a new journal with every entry's sides swapped and links it to
  the original. The original is never edited; a journal can only be
  reversed once.

Usage Examples:
$ txl reverse 2f1a6c1e-6a4e-4f7d-9f0b-3f6a2b6a9c1d

`
}

func (c *reverseCmd) SetFlags(f *flag.FlagSet) {}

func (c *reverseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "exactly one journal id is required")
		return subcommands.ExitUsageError
	}

	store, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	ledger := taxledger.NewLedger(taxledger.DefaultChart(), store)
	id, err := ledger.Reverse(ctx, taxledger.JournalID(f.Arg(0)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("reversed %s with %s\n", f.Arg(0), id)
	return subcommands.ExitSuccess
}
