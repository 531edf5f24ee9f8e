package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/config"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/db"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/logging"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/mcp"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/search"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"add": true, "get": true, "update": true, "delete": true,
	"list": true, "search": true, "suggest": true, "tags": true,
	"import": true, "export": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a short usage note when run interactively without args.
func printBanner() {
	fmt.Println(`
  timeline - campaign event log with fuzzy search

  Usage: timeline <command> [options]
         timeline --help

  MCP server mode requires piped input.`)
}

// newIndex builds the search index from the search section of cfg.
func newIndex(cfg *config.Config, logger *slog.Logger) *search.Index {
	return search.NewIndex(
		search.WithCache(search.NewTextCache(cfg.Search.CacheSize)),
		search.WithAbbreviations(search.Abbreviations(cfg.Search.Abbreviations)),
		search.WithWorkers(cfg.Search.Workers),
		search.WithParallelThreshold(cfg.Search.ParallelThreshold),
		search.WithLogger(logger),
	)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	baseDir := config.DefaultBaseDir()
	cwd, _ := os.Getwd()

	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	cliMode := isCLIMode()
	logger := logging.Init(!cliMode, logging.ParseLevel(cfg.LogLevel))

	database, err := db.Init(baseDir)
	if err != nil {
		fatal("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	env := &appEnv{db: database, cfg: cfg, ix: newIndex(cfg, logger)}

	if cliMode {
		app := newCLIApp(env)
		if err := app.Run(os.Args); err != nil {
			database.Close()
			fatal("%v", err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		database.Close()
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'timeline --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	logger.Info("starting MCP server", "version", Version, "base_dir", baseDir)
	if err := mcp.Run(database, cfg, env.ix, Version); err != nil {
		database.Close()
		fatal("%v", err)
	}
}
