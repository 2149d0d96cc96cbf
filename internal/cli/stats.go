package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/satory074/dreamscope/internal/stats"
)

type StatsCmd struct {
	Top int `default:"5" help:"Number of top symbols to show."`
}

func (c *StatsCmd) Run(ctx *Context) error {
	entries, _, symStats, err := ctx.LoadState()
	if err != nil {
		return err
	}

	agg := stats.New(symStats)
	summary := agg.Summarize(entries)
	streak := stats.Streak(entries, time.Now())

	fmt.Println("Dream statistics:")
	fmt.Printf("  Entries:          %d\n", summary.TotalEntries)
	fmt.Printf("  Distinct symbols: %d\n", summary.DistinctSymbols)
	fmt.Printf("  Avg words/entry:  %.1f\n", summary.AvgWordsPerEntry)
	fmt.Printf("  Current streak:   %d day(s)\n", streak)

	top := agg.TopSymbols(c.Top)
	if len(top) == 0 {
		return nil
	}

	fmt.Println("\nTop symbols:")
	for _, s := range top {
		fmt.Printf("  %-20s ×%d  (last seen %s)\n", s.DisplayText, s.OccurrenceCount, s.LastSeenAt.Format("2006-01-02"))
		if len(s.RecentMeanings) > 0 {
			fmt.Printf("      %s\n", strings.Join(s.RecentMeanings, " / "))
		}
	}
	return nil
}
