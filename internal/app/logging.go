package app

import (
	"io"

	"github.com/dshills/scribe/internal/config"
	"github.com/dshills/scribe/internal/logging"
)

// NewLogger builds the application logger from the logging section.
// A nil out writes to stderr.
func NewLogger(cfg config.LoggingConfig, out io.Writer) *logging.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Level),
		Output: out,
		Prefix: cfg.Prefix,
	})
}
