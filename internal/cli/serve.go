package cli

import (
	"os"

	"github.com/satory074/dreamscope/internal/server"
)

type ServeCmd struct {
	Addr string `default:":3000" help:"Address for the analysis proxy to listen on."`
}

func (c *ServeCmd) Run(ctx *Context) error {
	srv := server.New(c.Addr, os.Getenv("GEMINI_API_KEY"), ctx.Log)
	return srv.Run()
}
