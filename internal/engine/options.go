package engine

import (
	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/engine/transform"
	"github.com/dshills/scribe/internal/logging"
	"github.com/dshills/scribe/internal/renderer/decoration"
)

// Default configuration values.
const (
	DefaultMaxUndoEntries = 1000
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithDoc sets the initial document.
func WithDoc(doc *model.Node) Option {
	return func(e *Engine) {
		e.initDoc = doc
	}
}

// WithSelection sets the initial selection.
func WithSelection(sel transform.Selection) Option {
	return func(e *Engine) {
		e.initSelection = sel
	}
}

// WithPlugins appends plugins to the pipeline. Plugins run in the order
// they are given.
func WithPlugins(plugins ...state.Plugin) Option {
	return func(e *Engine) {
		e.plugins = append(e.plugins, plugins...)
	}
}

// WithLogger sets the logger for the engine and its pipeline.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMaxUndoEntries sets the maximum number of undo history entries.
func WithMaxUndoEntries(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxUndoEntries = max
		}
	}
}

// WithDecorations sets the decoration configuration.
func WithDecorations(cfg decoration.Config) Option {
	return func(e *Engine) {
		e.decorations = cfg
	}
}

// WithReadOnly creates a read-only engine.
// Document changes will return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}
