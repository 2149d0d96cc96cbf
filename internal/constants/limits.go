package constants

import "time"

const (
	// Input validation limits. Content length is enforced at input time;
	// the store itself accepts whatever was validated upstream.
	MaxDreamLength   = 2000
	MinDreamLength   = 1
	MaxKeywordLength = 50

	// RequestTimeout bounds every remote interpretation request. A timeout
	// counts as a network failure for fallback purposes.
	RequestTimeout = 30 * time.Second

	// Caps on per-symbol history kept in SymbolStat. Both lists evict
	// oldest-first when full.
	MaxRecentEntryIDs = 20
	MaxRecentMeanings = 5

	// MaxMockSymbols caps how many symbols the offline fallback derives
	// from the dream content.
	MaxMockSymbols = 3
)
