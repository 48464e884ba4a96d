package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/msgtosan/taxledger/cmd"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// completion describes the CLI to the shell completion engine. Complete
// exits the process when invoked by the shell, so it must run before
// flag.Parse.
func completion() {
	sub := make(map[string]*complete.Command, len(cmd.Commands))
	for _, c := range cmd.Commands {
		sub[c.Name()] = &complete.Command{}
	}
	sub["ingest"].Args = predict.Files("*.jsonl")
	sub["ingest"].Flags = map[string]complete.Predictor{
		"fmv": predict.Files("*.json"),
	}
	sub["topic"].Args = predict.Set{"readme", "ledger", "lots", "grandfathering", "fiscal-year", "ingestion"}

	cli := &complete.Command{
		Sub: sub,
		Flags: map[string]complete.Predictor{
			"db":        predict.Files("*.db"),
			"rules":     predict.Files("*.json"),
			"log-level": predict.Set{"debug", "info", "warn", "error"},
		},
	}
	cli.Complete("txl")
}

func main() {
	completion()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
