package app

import (
	"errors"

	"github.com/dshills/scribe/internal/config"
	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/logging"
	"github.com/dshills/scribe/internal/plugin/guard"
	"github.com/dshills/scribe/internal/plugin/lua"
	"github.com/dshills/scribe/internal/renderer/decoration"
)

// components holds what the configuration produces for the engine.
type components struct {
	plugins     []state.Plugin
	scripts     []*lua.ScriptPlugin
	decorations decoration.Config
}

// close releases the script states.
func (c *components) close() error {
	var errs []error
	for _, s := range c.scripts {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// bootstrapper builds components in pipeline order: guards first, then
// scripts.
type bootstrapper struct {
	cfg    *config.Config
	logger *logging.Logger
	out    components
}

func buildComponents(cfg *config.Config, logger *logging.Logger) (*components, error) {
	b := &bootstrapper{cfg: cfg, logger: logger}
	b.initGuards()
	if err := b.initScripts(); err != nil {
		_ = b.out.close()
		return nil, err
	}
	b.initDecorations()
	return &b.out, nil
}

// initGuards installs the enabled guards.
func (b *bootstrapper) initGuards() {
	g := b.cfg.Guards

	if g.Leading.Enabled {
		shape := guard.HeadingShape(g.Leading.Level)
		if g.Leading.Node == "title" {
			shape = guard.TitleShape()
		}
		b.out.plugins = append(b.out.plugins, guard.NewLeadingGuard(
			guard.WithShape(shape),
			guard.WithLeadingLogger(b.logger),
		))
	}

	if g.UniqueID.Enabled {
		types := make([]model.NodeType, 0, len(g.UniqueID.Types))
		for _, name := range g.UniqueID.Types {
			if t, ok := model.ParseNodeType(name); ok {
				types = append(types, t)
			}
		}
		b.out.plugins = append(b.out.plugins, guard.NewUniqueIDGuard(
			guard.WithIDTypes(types...),
			guard.WithUniqueIDLogger(b.logger),
		))
	}

	if g.Highlight.Enabled {
		b.out.plugins = append(b.out.plugins, guard.NewHighlightGuard(
			guard.RemapOnChange(g.Highlight.RemapOnChange),
		))
	}
}

// initScripts loads the enabled script plugins.
func (b *bootstrapper) initScripts() error {
	for _, sc := range b.cfg.Plugins.Scripts {
		if sc.Disabled {
			b.logger.Debug("script %s disabled", sc.Name)
			continue
		}

		var stateOpts []lua.StateOption
		if d := sc.TimeoutDuration(); d > 0 {
			stateOpts = append(stateOpts, lua.WithExecutionTimeout(d))
		}

		var (
			p   *lua.ScriptPlugin
			err error
		)
		if sc.Path != "" {
			p, err = lua.LoadScript(sc.Name, b.cfg.ScriptPath(sc), stateOpts, lua.WithLogger(b.logger))
		} else {
			p, err = lua.NewScriptPlugin(sc.Name, sc.Code, stateOpts, lua.WithLogger(b.logger))
		}
		if err != nil {
			return &InitError{Component: "script " + sc.Name, Err: err}
		}
		b.out.scripts = append(b.out.scripts, p)
		b.out.plugins = append(b.out.plugins, p)
		b.logger.Debug("loaded script %s", sc.Name)
	}
	return nil
}

// initDecorations maps the placeholder and highlight settings onto the
// decoration config. The first script with a placeholder hook resolves
// placeholder text.
func (b *bootstrapper) initDecorations() {
	p := b.cfg.Placeholder
	cfg := decoration.Config{
		PlaceholderText:      p.Text,
		EmptyNodeClass:       p.EmptyNodeClass,
		EmptyEditorClass:     p.EmptyEditorClass,
		HighlightClass:       b.cfg.Guards.Highlight.Class,
		ShowOnlyWhenEditable: p.ShowOnlyWhenEditable,
		Editable:             b.cfg.Editor.Editable,
	}

	for _, s := range b.out.scripts {
		if !s.HasPlaceholder() {
			continue
		}
		script, fallback := s, p.Text
		cfg.Placeholder = func(node *model.Node, pos int, hasAnchor bool) string {
			if text, ok := script.Placeholder(node, pos, hasAnchor); ok {
				return text
			}
			return fallback
		}
		break
	}
	b.out.decorations = cfg
}
