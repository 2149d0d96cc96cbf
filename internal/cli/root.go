package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satory074/dreamscope/internal/backup"
	"github.com/satory074/dreamscope/internal/interpret"
	"github.com/satory074/dreamscope/internal/models"
	"github.com/satory074/dreamscope/internal/stats"
	"github.com/satory074/dreamscope/internal/storage"
)

type Context struct {
	Store  storage.Provider
	Client *interpret.Client
	Log    *zap.Logger
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	entries, settings, _, err := c.LoadState()
	if err != nil {
		c.Log.Warn("automatic backup skipped", zap.Error(err))
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.Create(entries, settings); err != nil {
		// Log warning but don't interrupt user workflow
		c.Log.Warn("automatic backup failed", zap.Error(err))
	}
}

// LoadState reads entries, settings, and symbol stats together. A
// corrupted store is reset to defaults instead of blocking the command;
// the user is told their data was unreadable and starts fresh.
func (c *Context) LoadState() ([]models.Entry, models.Settings, map[string]*models.SymbolStat, error) {
	if err := c.Store.Load(); err != nil {
		return nil, models.Settings{}, nil, err
	}

	entries, err := c.Store.Entries()
	if err == nil {
		var settings models.Settings
		settings, err = c.Store.GetSettings()
		if err == nil {
			var symStats map[string]*models.SymbolStat
			symStats, err = c.Store.GetSymbolStats()
			if err == nil {
				return entries, settings, symStats, nil
			}
		}
	}

	if !errors.Is(err, storage.ErrCorrupted) {
		return nil, models.Settings{}, nil, err
	}

	c.Log.Warn("stored data is corrupted, resetting to defaults", zap.Error(err))
	fmt.Fprintln(os.Stderr, "⚠️  Stored data could not be read and has been reset.")
	if resetErr := c.Store.Reset(); resetErr != nil {
		return nil, models.Settings{}, nil, fmt.Errorf("reset after corruption: %w", resetErr)
	}
	return nil, models.DefaultSettings(), map[string]*models.SymbolStat{}, nil
}

// SaveInterpreted appends a new entry and folds its symbols into the
// aggregate stats. Entry IDs are creation timestamps in milliseconds;
// when the clock reads at or before the previous entry the ID is bumped
// so IDs stay strictly increasing.
func (c *Context) SaveInterpreted(content string, interp *models.Interpretation, now time.Time) (models.Entry, error) {
	entries, _, symStats, err := c.LoadState()
	if err != nil {
		return models.Entry{}, err
	}

	entry := models.NewEntry(now, content, interp)
	if n := len(entries); n > 0 && entry.ID <= entries[n-1].ID {
		entry.ID = entries[n-1].ID + 1
	}

	if err := c.Store.AddEntry(entry); err != nil {
		if errors.Is(err, storage.ErrQuotaExceeded) {
			return models.Entry{}, fmt.Errorf("storage is full, export and clear old entries: %w", err)
		}
		return models.Entry{}, err
	}

	agg := stats.New(symStats)
	agg.RecordSave(entry.ID, interp, now)
	if err := c.Store.SaveSymbolStats(agg.Stats()); err != nil {
		// The entry itself is saved; stale stats are rebuilt on the next
		// save, so report and move on.
		c.Log.Warn("symbol stats update failed", zap.Error(err))
	}
	return entry, nil
}

func confirm(prompt string) (bool, error) {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

func printInterpretation(interp *models.Interpretation) {
	if interp == nil {
		return
	}
	if interp.DreamTheme != "" {
		fmt.Printf("\nテーマ: %s\n", interp.DreamTheme)
	}
	fmt.Println("\nシンボル:")
	for _, s := range interp.Symbols {
		fmt.Printf("  • %s: %s\n", s.Symbol, s.Meaning)
		if s.Interpretation != "" {
			fmt.Printf("    %s\n", s.Interpretation)
		}
	}
	fmt.Printf("\n深層心理からのメッセージ:\n  %s\n", interp.PsychologicalMessage)
	if interp.DailyInsight != "" {
		fmt.Printf("\n今日の気づき:\n  %s\n", interp.DailyInsight)
	}
	if interp.OverallComment != "" {
		fmt.Printf("\n総合コメント:\n  %s\n", interp.OverallComment)
	}
}
