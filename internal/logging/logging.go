// Package logging builds the hclog logger shared by the command and the
// build driver.
package logging

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
)

const Name = "tmake"

// New returns a logger writing to w at the named level ("trace", "debug",
// "info", "warn", "error" or "off"). An empty level means info.
func New(w io.Writer, level string, json bool) (hclog.Logger, error) {
	lvl := hclog.Info
	if level != "" {
		lvl = hclog.LevelFromString(level)
		if lvl == hclog.NoLevel {
			return nil, fmt.Errorf("invalid log level %q", level)
		}
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:            Name,
		Level:           lvl,
		Output:          w,
		JSONFormat:      json,
		DisableTime:     !json,
		IncludeLocation: lvl <= hclog.Trace,
	}), nil
}

// Discard returns a logger that drops everything, for tests and library
// callers that do not care.
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}
