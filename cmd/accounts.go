package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/msgtosan/taxledger"
	"github.com/msgtosan/taxledger/renderer"
)

// accountsCmd holds the flags for the 'accounts' subcommand.
type accountsCmd struct{}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "print the chart of accounts" }
func (*accountsCmd) Usage() string {
	return `txl accounts

  Prints the chart of accounts the ingester posts into, with each
  account's category and normal balance side.

`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {}

func (c *accountsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	printMarkdown(renderer.AccountsMarkdown(taxledger.DefaultChart()))
	return subcommands.ExitSuccess
}
