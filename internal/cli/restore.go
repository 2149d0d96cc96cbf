package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/satory074/dreamscope/internal/backup"
	"github.com/satory074/dreamscope/internal/export"
	"github.com/satory074/dreamscope/internal/stats"
)

type RestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Force      bool   `help:"Skip the confirmation prompt."`
}

func (c *RestoreCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	mgr := backup.NewManager(ctx.Store.GetConfigPath())

	backupPath := c.BackupFile
	if !filepath.IsAbs(backupPath) {
		// Bare filenames resolve against the backup directory.
		possiblePath := filepath.Join(mgr.BackupDir(), c.BackupFile)
		if _, err := os.Stat(possiblePath); err == nil {
			backupPath = possiblePath
		}
	}

	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup file not found: %s", backupPath)
	}

	// Validate before touching anything.
	b, err := mgr.Read(backupPath)
	if err != nil {
		if errors.Is(err, export.ErrInvalidBackup) {
			return fmt.Errorf("not a valid backup file: %s", filepath.Base(backupPath))
		}
		return fmt.Errorf("read backup: %w", err)
	}

	if !c.Force {
		fmt.Println("⚠️  WARNING: This will replace all current dreams and settings with the backup.")
		fmt.Printf("\nRestore from: %s (%d entries)\n", filepath.Base(backupPath), len(b.Dreams))
		ok, err := confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Store.ReplaceEntries(b.Dreams); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	if err := ctx.Store.SaveSettings(b.Settings); err != nil {
		return fmt.Errorf("restore settings failed: %w", err)
	}
	// The old counters describe the replaced collection; rebuild them from
	// what was actually restored.
	if err := ctx.Store.SaveSymbolStats(stats.Rebuild(b.Dreams)); err != nil {
		return fmt.Errorf("restore symbol stats failed: %w", err)
	}

	fmt.Printf("✓ Restored %d entries from backup.\n", len(b.Dreams))
	return nil
}
