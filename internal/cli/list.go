package cli

import (
	"fmt"
	"strings"
	"time"
)

type ListCmd struct {
	Date  string `help:"Show only entries recorded on this day (YYYY-MM-DD)."`
	Limit int    `default:"10" help:"Maximum number of entries to show. 0 shows all."`
	Full  bool   `help:"Print full content and interpretation for each entry."`
}

func (c *ListCmd) Run(ctx *Context) error {
	entries, _, _, err := ctx.LoadState()
	if err != nil {
		return err
	}

	if c.Date != "" {
		if _, err := time.Parse("2006-01-02", c.Date); err != nil {
			return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", c.Date)
		}
		filtered := entries[:0:0]
		for _, e := range entries {
			if e.Day() == c.Date {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if len(entries) == 0 {
		fmt.Println("No dreams recorded.")
		return nil
	}

	// Newest first.
	shown := 0
	for i := len(entries) - 1; i >= 0; i-- {
		if c.Limit > 0 && shown >= c.Limit {
			fmt.Printf("... and %d more (use --limit 0 to show all)\n", i+1)
			break
		}
		e := entries[i]
		fmt.Printf("%s  %s\n", e.CreatedAt.Format("2006-01-02 15:04"), summarize(e.Content, c.Full))
		if len(e.Tags) > 0 {
			fmt.Printf("  tags: %s\n", strings.Join(e.Tags, ", "))
		}
		if c.Full {
			printInterpretation(e.Interpretation)
			fmt.Println()
		}
		shown++
	}
	return nil
}

func summarize(content string, full bool) string {
	content = strings.ReplaceAll(content, "\n", " ")
	if full {
		return content
	}
	runes := []rune(content)
	if len(runes) > 60 {
		return string(runes[:60]) + "…"
	}
	return content
}
