package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/satory074/dreamscope/internal/export"
)

type ExportCmd struct {
	Format string `arg:"" enum:"csv,json" help:"Export format: csv or json."`
	Output string `short:"o" type:"path" help:"Output file. Writes to stdout when omitted."`
}

func (c *ExportCmd) Run(ctx *Context) error {
	entries, settings, _, err := ctx.LoadState()
	if err != nil {
		return err
	}

	var data []byte
	switch c.Format {
	case "csv":
		data = export.CSV(entries)
	case "json":
		data, err = export.JSON(time.Now(), entries, settings)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
	}

	if c.Output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(c.Output, data, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	fmt.Printf("✓ Exported %d entries to %s\n", len(entries), c.Output)
	return nil
}
