package cmd

import (
	"context"
	"io"
	"time"

	"github.com/jimezsa/jobcollector/internal/config"
	"github.com/jimezsa/jobcollector/internal/store"
	"github.com/jimezsa/jobcollector/internal/ui"
	"github.com/rs/zerolog"
)

type Context struct {
	Out        io.Writer
	Err        io.Writer
	UI         *ui.UI
	Config     config.Config
	ConfigDir  string
	DataDir    string
	Logger     zerolog.Logger
	Verbose    bool
	JSONOutput bool
	PlainText  bool
	Version    string
	ColorMode  ui.ColorMode

	// RunCtx is cancelled on SIGINT/SIGTERM.
	RunCtx context.Context
	// Now is time.Now unless a test pins it.
	Now func() time.Time
}

func (c *Context) context() context.Context {
	if c.RunCtx != nil {
		return c.RunCtx
	}
	return context.Background()
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// openStore opens the configured corpus backend under the data directory.
func (c *Context) openStore() (store.Store, error) {
	return store.Open(c.Config.Store, c.DataDir)
}
