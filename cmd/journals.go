package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/msgtosan/taxledger/renderer"
)

// journalsCmd holds the flags for the 'journals' subcommand.
type journalsCmd struct{}

func (*journalsCmd) Name() string     { return "journals" }
func (*journalsCmd) Synopsis() string { return "list posted journals with their entries" }
func (*journalsCmd) Usage() string {
	return `txl journals

  Prints every posted journal in posting order, each with its entries,
  source reference and reversal link if reversed.

`
}

func (c *journalsCmd) SetFlags(f *flag.FlagSet) {}

func (c *journalsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	journals, err := store.Journals(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading journals: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.JournalsMarkdown(journals))
	return subcommands.ExitSuccess
}
