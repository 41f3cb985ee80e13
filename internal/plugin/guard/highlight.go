package guard

import (
	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/engine/transform"
)

// HighlightKey is the plugin key of the persistent highlight guard, and the
// metadata key its transactions carry.
const HighlightKey = "persistentHighlight"

// HighlightAction is the intent carried by HighlightMeta.
type HighlightAction int

const (
	// HighlightSet activates the highlight over a range.
	HighlightSet HighlightAction = iota + 1
	// HighlightClear deactivates the highlight.
	HighlightClear
)

// HighlightMeta is the metadata value that sets or clears the highlight.
type HighlightMeta struct {
	Action HighlightAction
	From   int
	To     int
}

// Highlight is the plugin state. From and To are meaningful only while
// Active.
type Highlight struct {
	Active bool
	From   int
	To     int
}

// HighlightGuard tracks a persistent highlight range.
type HighlightGuard struct {
	state.BasePlugin

	remap bool
}

// HighlightOption configures a HighlightGuard.
type HighlightOption func(*HighlightGuard)

// RemapOnChange maps the range through document changes instead of
// clearing it, and clears only when the range was deleted.
func RemapOnChange(enabled bool) HighlightOption {
	return func(g *HighlightGuard) {
		g.remap = enabled
	}
}

// NewHighlightGuard creates a highlight guard.
func NewHighlightGuard(opts ...HighlightOption) *HighlightGuard {
	g := &HighlightGuard{BasePlugin: state.BasePlugin{Name: HighlightKey}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Init implements state.Plugin.
func (g *HighlightGuard) Init(*model.Node, transform.Selection) any { return Highlight{} }

// Apply implements state.Plugin.
func (g *HighlightGuard) Apply(tr *transform.Transaction, value any, _, _ *state.State) any {
	h, _ := value.(Highlight)
	if v, ok := tr.Meta(HighlightKey); ok {
		if meta, ok := v.(HighlightMeta); ok {
			switch meta.Action {
			case HighlightSet:
				return Highlight{Active: true, From: min(meta.From, meta.To), To: max(meta.From, meta.To)}
			case HighlightClear:
				return Highlight{}
			}
		}
	}
	if !tr.DocChanged() || !h.Active {
		return h
	}
	if !g.remap {
		return Highlight{}
	}
	from := tr.Mapping().MapResult(h.From, 1)
	to := tr.Mapping().MapResult(h.To, -1)
	if (from.Deleted() && to.Deleted()) || from.Pos >= to.Pos {
		return Highlight{}
	}
	return Highlight{Active: true, From: from.Pos, To: to.Pos}
}

// CurrentHighlight returns the highlight of a state, or an inactive one
// when the guard is not registered.
func CurrentHighlight(s *state.State) Highlight {
	h, _ := state.FieldOf[Highlight](s, HighlightKey)
	return h
}

// SetPersistentSelection returns a transaction that activates the highlight over
// [from, to). It keeps the transaction out of undo history.
func SetPersistentSelection(s *state.State, from, to int) *transform.Transaction {
	return s.Tr().
		SetMeta(HighlightKey, HighlightMeta{Action: HighlightSet, From: from, To: to}).
		SetMeta(transform.MetaAddToHistory, false)
}

// ClearPersistentSelection returns a transaction that clears the highlight.
func ClearPersistentSelection(s *state.State) *transform.Transaction {
	return s.Tr().
		SetMeta(HighlightKey, HighlightMeta{Action: HighlightClear}).
		SetMeta(transform.MetaAddToHistory, false)
}
