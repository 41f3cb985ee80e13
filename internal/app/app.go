// Package app wires a configured editing engine together: guards, script
// plugins, decorations and the extraction processor.
package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/dshills/scribe/internal/config"
	"github.com/dshills/scribe/internal/engine"
	"github.com/dshills/scribe/internal/engine/commands"
	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/transform"
	"github.com/dshills/scribe/internal/extract"
	"github.com/dshills/scribe/internal/logging"
	"github.com/dshills/scribe/internal/plugin/guard"
	"github.com/dshills/scribe/internal/renderer/decoration"
)

// Application is the central coordinator of a configured engine.
type Application struct {
	mu sync.Mutex

	config     *config.Config
	logger     *logging.Logger
	engine     *engine.Engine
	processor  *extract.Processor
	generator  extract.Generator
	commands   *commands.Registry
	components *components

	closed atomic.Bool
}

// Options configures the application.
type Options struct {
	// Config is the configuration. Nil uses config.Default().
	Config *config.Config

	// Document is the initial document. Nil starts with an empty document.
	Document *model.Node

	// Selection is the initial selection.
	Selection transform.Selection

	// Generator overrides the configured extraction generator.
	Generator extract.Generator

	// Logger overrides the logger built from the config.
	Logger *logging.Logger

	// LogOutput receives log lines when Logger is nil. Nil means stderr.
	LogOutput io.Writer
}

// New creates an Application with the given options.
func New(opts Options) (*Application, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(cfg.Logging, opts.LogOutput)
	}

	gen := opts.Generator
	if gen == nil {
		var err error
		if gen, err = extract.GeneratorByName(cfg.Extract.Generator); err != nil {
			return nil, &InitError{Component: "generator", Err: err}
		}
	}

	comps, err := buildComponents(cfg, logger.WithComponent("bootstrap"))
	if err != nil {
		return nil, err
	}

	engineOpts := []engine.Option{
		engine.WithDoc(opts.Document),
		engine.WithSelection(opts.Selection),
		engine.WithPlugins(comps.plugins...),
		engine.WithLogger(logger),
		engine.WithMaxUndoEntries(cfg.Editor.HistorySize),
		engine.WithDecorations(comps.decorations),
	}
	if !cfg.Editor.Editable {
		engineOpts = append(engineOpts, engine.WithReadOnly())
	}
	eng, err := engine.New(engineOpts...)
	if err != nil {
		_ = comps.close()
		return nil, &InitError{Component: "engine", Err: err}
	}

	a := &Application{
		config:     cfg,
		logger:     logger.WithComponent("app"),
		engine:     eng,
		generator:  gen,
		commands:   commands.DefaultRegistry(),
		components: comps,
	}
	a.processor = extract.NewProcessor(eng, gen,
		extract.WithLogger(logger),
		extract.WithTagging(cfg.Extract.Tagging),
	)
	a.logger.Debug("started with %d plugins", len(comps.plugins))
	return a, nil
}

// Engine returns the engine.
func (a *Application) Engine() *engine.Engine { return a.engine }

// Processor returns the extraction processor.
func (a *Application) Processor() *extract.Processor { return a.processor }

// Commands returns the command registry.
func (a *Application) Commands() *commands.Registry { return a.commands }

// Config returns the active configuration.
func (a *Application) Config() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config
}

// ============================================================================
// Operations
// ============================================================================

// Select sets the selection to [from, to].
func (a *Application) Select(from, to int) error {
	if err := a.checkRange(from, to); err != nil {
		return wrap("select", fmt.Sprintf("%d:%d", from, to), err)
	}
	return wrap("select", fmt.Sprintf("%d:%d", from, to),
		a.engine.SetSelection(transform.NewSelection(from, to)))
}

// Highlight sets the persistent highlight to [from, to].
func (a *Application) Highlight(from, to int) error {
	target := fmt.Sprintf("%d:%d", from, to)
	if err := a.checkRange(from, to); err != nil {
		return wrap("highlight", target, err)
	}
	tr := guard.SetPersistentSelection(a.engine.State(), from, to)
	return wrap("highlight", target, a.engine.Dispatch(tr))
}

// Execute runs a "name=arg" command invocation.
func (a *Application) Execute(invocation string) error {
	if a.closed.Load() {
		return ErrClosed
	}
	name, arg := commands.ParseInvocation(invocation)
	return wrap("command", name, a.commands.Execute(a.engine, name, arg))
}

// Extract runs one extraction round trip for the current selection,
// bounded by the configured timeout.
func (a *Application) Extract(ctx context.Context, suggestion string) (extract.Response, error) {
	if a.closed.Load() {
		return extract.Response{}, ErrClosed
	}
	if d := a.Config().Extract.TimeoutDuration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	resp, err := a.processor.Run(ctx, suggestion)
	return resp, wrap("extract", "", err)
}

// Decorations returns the current decoration set.
func (a *Application) Decorations() *decoration.Set {
	return a.engine.Decorations()
}

func (a *Application) checkRange(from, to int) error {
	size := a.engine.Doc().ContentSize()
	if from < 0 || to < 0 || from > size || to > size {
		return fmt.Errorf("%w: %d:%d outside 0:%d", ErrInvalidRange, from, to, size)
	}
	return nil
}

// ============================================================================
// Configuration
// ============================================================================

// ApplyConfig rebuilds the plugins and decorations from cfg and installs
// them in the engine. The document and history are kept.
func (a *Application) ApplyConfig(cfg *config.Config) error {
	if a.closed.Load() {
		return ErrClosed
	}
	comps, err := buildComponents(cfg, a.logger.WithComponent("bootstrap"))
	if err != nil {
		return wrap("reconfigure", cfg.Path, err)
	}
	if err := a.engine.Reconfigure(comps.plugins...); err != nil {
		_ = comps.close()
		return wrap("reconfigure", cfg.Path, err)
	}
	a.engine.SetDecorationConfig(comps.decorations)
	a.engine.SetReadOnly(!cfg.Editor.Editable)

	a.mu.Lock()
	old := a.components
	a.components = comps
	a.config = cfg
	a.mu.Unlock()

	a.logger.Info("configuration reloaded")
	return old.close()
}

// Reload returns a config.ReloadFunc that applies reloaded configurations
// and logs failures, keeping the previous configuration.
func (a *Application) Reload() config.ReloadFunc {
	return func(cfg *config.Config, err error) {
		if err == nil {
			err = a.ApplyConfig(cfg)
		}
		if err != nil {
			a.logger.Warn("reload failed: %v", err)
		}
	}
}

// Close releases script plugins. It is safe to call more than once.
func (a *Application) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.components.close()
}
