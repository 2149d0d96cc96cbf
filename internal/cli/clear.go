package cli

import "fmt"

type ClearCmd struct {
	Force bool `help:"Skip the confirmation prompt."`
}

func (c *ClearCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	if !c.Force {
		fmt.Println("⚠️  WARNING: This will permanently delete all dreams, settings, and statistics.")
		ok, err := confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Clear cancelled.")
			return nil
		}
	}

	if err := ctx.Store.Clear(); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}

	fmt.Println("✓ All data deleted.")
	return nil
}
