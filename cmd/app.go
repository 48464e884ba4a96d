// Package cmd implements the CLI application to run the ledger and
// capital-gains engine.
package cmd

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/msgtosan/taxledger"
	"github.com/msgtosan/taxledger/sqlitestore"
)

// Commands lists all subcommands for registration by the main package.
var Commands = []subcommands.Command{
	&ingestCmd{},
	&gainsCmd{},
	&summaryCmd{},
	&accountsCmd{},
	&journalsCmd{},
	&reverseCmd{},
	&topicCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var dbPath = flag.String("db", "taxledger.db", "Path to the ledger database file")
var rulesFile = flag.String("rules", "", "Tax rule overrides (JSON); built-in Indian rules by default")
var logLevel = flag.String("log-level", "warn", "Log level (debug, info, warn, error)")

func init() {
	// A .env file can carry the flags' environment defaults; its absence is fine.
	godotenv.Load()
	if v := os.Getenv("TAXLEDGER_DB"); v != "" {
		*dbPath = v
	}
}

// OpenStore opens the application database.
func OpenStore() (*sqlitestore.Store, error) {
	return sqlitestore.Open(*dbPath)
}

// LoadRules resolves the tax rule configuration once for the run.
func LoadRules() (taxledger.TaxRuleConfig, error) {
	if *rulesFile == "" {
		return taxledger.DefaultTaxRules(), nil
	}
	return taxledger.LoadTaxRules(*rulesFile)
}

// NewLogger builds the run's logger from the -log-level flag.
func NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(*logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// printMarkdown renders markdown to the terminal, falling back to the raw
// text when rendering fails (e.g. no TTY).
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
