package cli

import (
	"fmt"

	"go.uber.org/zap"
)

type InitCmd struct{}

func (c *InitCmd) Run(ctx *Context) error {
	if err := ctx.Store.Init(); err != nil {
		return err
	}
	// A fresh init counts as having seen the first run, so the TUI skips
	// the welcome screen.
	if err := ctx.Store.MarkOnboarded(); err != nil {
		ctx.Log.Warn("could not record onboarding flag", zap.Error(err))
	}
	fmt.Printf("Initialized dreamscope storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}
