package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type DebugCmd struct {
	StorePath *DebugStorePathCmd `cmd:"" help:"Show storage path."`
	DumpEntry *DebugDumpEntryCmd `cmd:"" help:"Dump one entry as JSON."`
	DumpStats *DebugDumpStatsCmd `cmd:"" help:"Dump symbol statistics as JSON."`
}

type DebugStorePathCmd struct{}

func (cmd *DebugStorePathCmd) Run(ctx *Context) error {
	// Output in machine-readable format
	output := map[string]string{
		"path": ctx.Store.GetConfigPath(),
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	fmt.Println(string(jsonBytes))
	return nil
}

type DebugDumpEntryCmd struct {
	ID string `arg:"" help:"ID of the entry to dump."`
}

func (cmd *DebugDumpEntryCmd) Run(ctx *Context) error {
	id, err := strconv.ParseInt(cmd.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid entry ID: %s", cmd.ID)
	}

	entries, _, _, err := ctx.LoadState()
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.ID != id {
			continue
		}
		jsonBytes, err := json.MarshalIndent(e, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}
		fmt.Println(string(jsonBytes))
		return nil
	}

	return fmt.Errorf("no entry found with ID: %s", cmd.ID)
}

type DebugDumpStatsCmd struct{}

func (cmd *DebugDumpStatsCmd) Run(ctx *Context) error {
	_, _, symStats, err := ctx.LoadState()
	if err != nil {
		return err
	}

	jsonBytes, err := json.MarshalIndent(symStats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	fmt.Println(string(jsonBytes))
	return nil
}
