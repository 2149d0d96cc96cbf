package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/satory074/dreamscope/internal/cli"
	"github.com/satory074/dreamscope/internal/interpret"
	"github.com/satory074/dreamscope/internal/logging"
	"github.com/satory074/dreamscope/internal/storage"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Storage path. A .db extension selects SQLite, anything else a file-per-record store." type:"path" default:"~/.config/dreamscope/data"`
	Proxy   string `help:"Analysis proxy URL." env:"DREAMSCOPE_PROXY" default:"http://localhost:3000"`
	Verbose bool   `short:"v" help:"Enable debug logging."`

	Init    cli.InitCmd    `cmd:"" help:"Initialize dreamscope storage."`
	Tui     cli.TuiCmd     `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Record  cli.RecordCmd  `cmd:"" help:"Record and analyze a dream."`
	List    cli.ListCmd    `cmd:"" help:"List recorded dreams."`
	Stats   cli.StatsCmd   `cmd:"" help:"Show symbol statistics."`
	Export  cli.ExportCmd  `cmd:"" help:"Export dreams as CSV or JSON."`
	Restore cli.RestoreCmd `cmd:"" help:"Restore dreams from a backup file."`
	Clear   cli.ClearCmd   `cmd:"" help:"Delete all stored data."`
	Serve   cli.ServeCmd   `cmd:"" help:"Run the analysis proxy server."`
	Doctor  cli.DoctorCmd  `cmd:"" help:"Run health diagnostics."`
	Debug   cli.DebugCmd   `cmd:"" help:"Inspect stored data."`
	Backup  struct {
		Create cli.BackupCreateCmd `cmd:"" help:"Create a backup now."`
		List   cli.BackupListCmd   `cmd:"" help:"List available backups."`
	} `cmd:"" help:"Manage backups."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("dreamscope"),
		kong.Description("Dream journal with symbolic interpretation"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	log, err := logging.New(CLI.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Determine storage type based on extension
	var store storage.Provider
	if strings.HasSuffix(CLI.Config, ".db") {
		store = storage.NewSQLiteStore(CLI.Config, log)
	} else {
		store = storage.NewDiskvStore(CLI.Config, log)
	}

	appCtx := &cli.Context{
		Store:  store,
		Client: interpret.NewClient(CLI.Proxy, log),
		Log:    log,
	}

	err = ctx.Run(appCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
