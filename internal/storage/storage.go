package storage

import (
	"time"

	"github.com/satory074/dreamscope/internal/models"
)

// Logical record names. Both backends persist the same set of records;
// the diskv backend uses these directly as keys.
const (
	KeyDreams      = "dreams"
	KeySettings    = "settings"
	KeySymbolStats = "symbol_stats"
	KeyBackup      = "backup"
	KeyOnboarded   = "onboarded"
)

// BackupVersion tags backup envelopes so restore can reject formats it
// does not understand.
const BackupVersion = "1.0"

// Backup is the snapshot envelope written alongside every successful
// save and used for export/restore.
type Backup struct {
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Dreams    []models.Entry  `json:"dreams"`
	Settings  models.Settings `json:"settings"`
}

// NewBackup builds a snapshot of the current state.
func NewBackup(now time.Time, entries []models.Entry, settings models.Settings) Backup {
	if entries == nil {
		entries = []models.Entry{}
	}
	return Backup{
		Version:   BackupVersion,
		Timestamp: now,
		Dreams:    entries,
		Settings:  settings,
	}
}
