package storage

import "github.com/satory074/dreamscope/internal/models"

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Entries
	Entries() ([]models.Entry, error)
	AddEntry(models.Entry) error
	ReplaceEntries([]models.Entry) error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Symbol stats
	GetSymbolStats() (map[string]*models.SymbolStat, error)
	SaveSymbolStats(map[string]*models.SymbolStat) error

	// Onboarding flag
	Onboarded() (bool, error)
	MarkOnboarded() error

	// Snapshot returns the backup envelope most recently written by a
	// successful save, if any.
	Snapshot() (*Backup, error)

	// Reset replaces every record with empty defaults, self-healing a
	// corrupted store. The caller is expected to notify the user.
	Reset() error

	// Clear wipes every record unconditionally. Irreversible; the caller
	// must have obtained explicit confirmation first.
	Clear() error

	// Utils
	GetConfigPath() string
}
