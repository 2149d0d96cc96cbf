// Package stats maintains per-symbol frequency counters and the display
// aggregates derived from the entry collection.
package stats

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/satory074/dreamscope/internal/constants"
	"github.com/satory074/dreamscope/internal/models"
)

// Aggregator upserts SymbolStat records on every save. Keys are
// case-folded; ties in TopSymbols break by first-seen order.
type Aggregator struct {
	stats map[string]*models.SymbolStat
	order []string
}

// New wraps an existing stats map, typically loaded from the store.
func New(existing map[string]*models.SymbolStat) *Aggregator {
	if existing == nil {
		existing = make(map[string]*models.SymbolStat)
	}
	a := &Aggregator{stats: existing}

	order := make([]string, 0, len(existing))
	for key := range existing {
		order = append(order, key)
	}
	sort.Slice(order, func(i, j int) bool {
		si, sj := existing[order[i]], existing[order[j]]
		if si.FirstSeenAt.Equal(sj.FirstSeenAt) {
			return order[i] < order[j]
		}
		return si.FirstSeenAt.Before(sj.FirstSeenAt)
	})
	a.order = order
	return a
}

// Stats exposes the underlying map for persistence.
func (a *Aggregator) Stats() map[string]*models.SymbolStat {
	return a.stats
}

// Rebuild replays the entry collection from scratch, producing the stats
// map that saving those entries one by one would have produced. Used after
// a restore, where the old counters describe entries that no longer exist.
func Rebuild(entries []models.Entry) map[string]*models.SymbolStat {
	ordered := make([]models.Entry, len(entries))
	copy(ordered, entries)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	a := New(nil)
	for _, e := range ordered {
		a.RecordSave(e.ID, e.Interpretation, e.CreatedAt)
	}
	return a.Stats()
}

// RecordSave updates the counter of every symbol in the interpretation.
// Called once per saved entry.
func (a *Aggregator) RecordSave(entryID int64, interp *models.Interpretation, now time.Time) {
	if interp == nil {
		return
	}
	for _, sym := range interp.Symbols {
		key := models.SymbolKey(sym.Symbol)
		if key == "" {
			continue
		}
		stat, ok := a.stats[key]
		if !ok {
			stat = &models.SymbolStat{
				DisplayText: strings.TrimSpace(sym.Symbol),
				FirstSeenAt: now,
			}
			a.stats[key] = stat
			a.order = append(a.order, key)
		}
		stat.OccurrenceCount++
		stat.LastSeenAt = now
		stat.RecentEntryIDs = appendBounded(stat.RecentEntryIDs, entryID, constants.MaxRecentEntryIDs)
		if meaning := strings.TrimSpace(sym.Meaning); meaning != "" && !contains(stat.RecentMeanings, meaning) {
			stat.RecentMeanings = appendBounded(stat.RecentMeanings, meaning, constants.MaxRecentMeanings)
		}
	}
}

// appendBounded keeps the list a bounded FIFO: append, then evict from
// the front when past max.
func appendBounded[T comparable](list []T, v T, max int) []T {
	list = append(list, v)
	if len(list) > max {
		list = list[len(list)-max:]
	}
	return list
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// TopSymbols returns up to n stats ordered by occurrence count
// descending, ties by first-seen order.
func (a *Aggregator) TopSymbols(n int) []*models.SymbolStat {
	ranked := make([]string, len(a.order))
	copy(ranked, a.order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return a.stats[ranked[i]].OccurrenceCount > a.stats[ranked[j]].OccurrenceCount
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]*models.SymbolStat, 0, n)
	for _, key := range ranked[:n] {
		out = append(out, a.stats[key])
	}
	return out
}

// Summary is the aggregate block shown on the analysis view.
type Summary struct {
	TotalEntries     int
	DistinctSymbols  int
	AvgWordsPerEntry float64
}

// Summarize computes display aggregates over the entry collection.
// Averages round to one decimal and are zero with no entries.
func (a *Aggregator) Summarize(entries []models.Entry) Summary {
	s := Summary{
		TotalEntries:    len(entries),
		DistinctSymbols: len(a.stats),
	}
	if len(entries) == 0 {
		return s
	}
	totalWords := 0
	for _, e := range entries {
		totalWords += len(strings.Fields(e.Content))
	}
	s.AvgWordsPerEntry = math.Round(float64(totalWords)/float64(len(entries))*10) / 10
	return s
}

// Streak counts consecutive calendar days ending today that have at
// least one entry.
func Streak(entries []models.Entry, today time.Time) int {
	days := make(map[string]bool, len(entries))
	for _, e := range entries {
		days[e.Day()] = true
	}
	streak := 0
	for d := today; days[d.Format("2006-01-02")]; d = d.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}
