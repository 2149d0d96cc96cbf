package models

import (
	"strings"
	"time"
)

type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

const DefaultCategory = "uncategorized"

// PendingSymbol is a candidate symbol between extraction and submission.
// It exists only inside a workflow session and is never persisted.
type PendingSymbol struct {
	Text       string     `json:"text"`
	Category   string     `json:"category"`
	Importance Importance `json:"importance"`
}

// SymbolStat aggregates the history of one symbol across all entries.
// Stats are keyed case-insensitively; DisplayText keeps the casing of the
// first occurrence.
type SymbolStat struct {
	DisplayText     string    `json:"display_text"`
	OccurrenceCount int       `json:"occurrence_count"`
	FirstSeenAt     time.Time `json:"first_seen_at"`
	LastSeenAt      time.Time `json:"last_seen_at"`
	RecentEntryIDs  []int64   `json:"recent_entry_ids"`
	RecentMeanings  []string  `json:"recent_meanings"`
}

// SymbolKey folds a symbol label into its stats key.
func SymbolKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
