package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/engine/transform"
	"github.com/dshills/scribe/internal/logging"
)

// Hook names looked up in scripts.
const (
	FilterHook      = "filter_transaction"
	PlaceholderHook = "placeholder"
)

// ScriptPlugin is a pipeline plugin whose filter is written in Lua. It can
// also resolve placeholder text for the decoration overlay.
type ScriptPlugin struct {
	state.BasePlugin

	lua    *State
	logger *logging.Logger
}

// ScriptOption configures a ScriptPlugin.
type ScriptOption func(*ScriptPlugin)

// WithLogger sets the logger for script errors.
func WithLogger(l *logging.Logger) ScriptOption {
	return func(p *ScriptPlugin) {
		p.logger = l
	}
}

// LoadScript creates a plugin from a script file.
func LoadScript(name, path string, stateOpts []StateOption, opts ...ScriptOption) (*ScriptPlugin, error) {
	return newScriptPlugin(name, stateOpts, opts, func(s *State) error { return s.DoFile(path) })
}

// NewScriptPlugin creates a plugin from Lua source.
func NewScriptPlugin(name, code string, stateOpts []StateOption, opts ...ScriptOption) (*ScriptPlugin, error) {
	return newScriptPlugin(name, stateOpts, opts, func(s *State) error { return s.DoString(code) })
}

func newScriptPlugin(name string, stateOpts []StateOption, opts []ScriptOption, load func(*State) error) (*ScriptPlugin, error) {
	ls, err := NewState(stateOpts...)
	if err != nil {
		return nil, err
	}
	if err := load(ls); err != nil {
		_ = ls.Close()
		return nil, fmt.Errorf("load script %s: %w", name, err)
	}
	p := &ScriptPlugin{
		BasePlugin: state.BasePlugin{Name: "script:" + name},
		lua:        ls,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithComponent(p.Key())
	return p, nil
}

// FilterTransaction implements state.Plugin. The script vetoes by returning
// false; nil and any other value allow the transaction.
func (p *ScriptPlugin) FilterTransaction(tr *transform.Transaction, _ *state.State) bool {
	if !p.lua.HasFunction(FilterHook) {
		return true
	}
	result, err := p.lua.Call(FilterHook, p.transactionTable(tr))
	if err != nil {
		p.logger.Warn("%s failed: %v", FilterHook, err)
		return true
	}
	return result != lua.LFalse
}

// HasPlaceholder reports whether the script defines a placeholder hook.
func (p *ScriptPlugin) HasPlaceholder() bool {
	return p.lua.HasFunction(PlaceholderHook)
}

// Placeholder asks the script for the placeholder text of an empty node. It
// reports false when the script has no opinion.
func (p *ScriptPlugin) Placeholder(node *model.Node, pos int, hasAnchor bool) (string, bool) {
	if !p.HasPlaceholder() {
		return "", false
	}
	result, err := p.lua.Call(PlaceholderHook,
		lua.LString(node.Type().String()),
		lua.LNumber(pos),
		lua.LBool(hasAnchor),
	)
	if err != nil {
		p.logger.Warn("%s failed: %v", PlaceholderHook, err)
		return "", false
	}
	s, ok := result.(lua.LString)
	if !ok {
		return "", false
	}
	return string(s), true
}

// Close releases the script's Lua state.
func (p *ScriptPlugin) Close() error {
	return p.lua.Close()
}

func (p *ScriptPlugin) transactionTable(tr *transform.Transaction) *lua.LTable {
	tbl := p.lua.NewTable()
	doc := tr.Doc()
	before := tr.Before()

	tbl.RawSetString("doc_changed", lua.LBool(tr.DocChanged()))
	tbl.RawSetString("step_count", lua.LNumber(len(tr.Steps())))
	tbl.RawSetString("text", lua.LString(doc.TextBetween(0, doc.ContentSize(), "\n")))
	tbl.RawSetString("before_text", lua.LString(before.TextBetween(0, before.ContentSize(), "\n")))
	if first := doc.FirstChild(); first != nil {
		tbl.RawSetString("first_type", lua.LString(first.Type().String()))
	} else {
		tbl.RawSetString("first_type", lua.LString(""))
	}

	meta := p.lua.NewTable()
	for _, key := range []string{transform.MetaAddToHistory, transform.MetaAppendedTransaction, transform.MetaUIEvent} {
		v, ok := tr.Meta(key)
		if !ok {
			continue
		}
		switch val := v.(type) {
		case bool:
			meta.RawSetString(key, lua.LBool(val))
		case string:
			meta.RawSetString(key, lua.LString(val))
		default:
			meta.RawSetString(key, lua.LString(fmt.Sprint(val)))
		}
	}
	tbl.RawSetString("meta", meta)
	return tbl
}
