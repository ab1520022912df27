// Package logging builds the hclog loggers shared by the binaries.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Options controls the root logger.
type Options struct {
	Name   string
	Level  string // trace, debug, info, warn, error
	JSON   bool
	Output io.Writer // defaults to stderr
}

// New returns a root logger.  Unknown level names fall back to info.
func New(opts Options) hclog.Logger {
	level := hclog.LevelFromString(strings.TrimSpace(opts.Level))
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:            opts.Name,
		Level:           level,
		JSONFormat:      opts.JSON,
		Output:          out,
		IncludeLocation: level <= hclog.Debug,
	})
}

// OrNull returns l, or a discarding logger when l is nil.
func OrNull(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}
