package decoration

import (
	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/plugin/guard"
)

// Producer sources.
const (
	SourcePlaceholder = "placeholder"
	SourceHighlight   = "highlight"
)

// PlaceholderFunc resolves the placeholder text of an empty node at pos.
// hasAnchor reports whether the selection anchor lies in the node.
type PlaceholderFunc func(node *model.Node, pos int, hasAnchor bool) string

// Producer derives decorations from a state.
type Producer func(s *state.State, cfg Config) []Decoration

// Config controls decoration output.
type Config struct {
	// Placeholder resolves placeholder text. When nil, PlaceholderText is
	// used for every node.
	Placeholder PlaceholderFunc

	// PlaceholderText is the fallback placeholder text.
	PlaceholderText string

	// EmptyNodeClass is set on every empty node that shows a placeholder.
	EmptyNodeClass string

	// EmptyEditorClass is added for the first child of the document.
	EmptyEditorClass string

	// HighlightClass is set on the persistent highlight.
	HighlightClass string

	// ShowOnlyWhenEditable hides placeholders while Editable is false.
	ShowOnlyWhenEditable bool

	// Editable reports whether the editor accepts input.
	Editable bool

	// Producers run after the built-in producers.
	Producers []Producer
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PlaceholderText:      "Type something...",
		EmptyNodeClass:       "is-empty",
		EmptyEditorClass:     "is-editor-empty",
		HighlightClass:       "persistent-highlight",
		ShowOnlyWhenEditable: true,
		Editable:             true,
	}
}

// Compute derives the decoration set of s. It never modifies s.
func Compute(s *state.State, cfg Config) *Set {
	var decos []Decoration
	decos = append(decos, Placeholders(s, cfg)...)
	decos = append(decos, Highlights(s, cfg)...)
	for _, p := range cfg.Producers {
		decos = append(decos, p(s, cfg)...)
	}
	return NewSet(decos...)
}

// Placeholders decorates empty nodes that are the first child of the
// document or hold the selection anchor. Nodes holding the anchor are
// descended into so nested empty blocks are found.
func Placeholders(s *state.State, cfg Config) []Decoration {
	if cfg.ShowOnlyWhenEditable && !cfg.Editable {
		return nil
	}
	anchor := s.Selection().Anchor
	var out []Decoration
	var walk func(parent *model.Node, base int, top bool)
	walk = func(parent *model.Node, base int, top bool) {
		pos := base
		for i := range parent.ChildCount() {
			node := parent.Child(i)
			end := pos + node.NodeSize()
			hasAnchor := anchor >= pos && anchor <= end
			empty := !node.IsLeaf() && node.ChildCount() == 0
			first := top && i == 0

			switch {
			case empty && (first || hasAnchor):
				out = append(out, placeholder(cfg, node, pos, first, hasAnchor))
			case hasAnchor && !node.IsLeaf() && !node.IsTextblock():
				walk(node, pos+1, false)
			}
			pos = end
		}
	}
	walk(s.Doc(), 0, true)
	return out
}

func placeholder(cfg Config, node *model.Node, pos int, first, hasAnchor bool) Decoration {
	class := cfg.EmptyNodeClass
	if first && cfg.EmptyEditorClass != "" {
		if class != "" {
			class += " "
		}
		class += cfg.EmptyEditorClass
	}
	text := cfg.PlaceholderText
	if cfg.Placeholder != nil {
		text = cfg.Placeholder(node, pos, hasAnchor)
	}
	return Decoration{
		Kind:     KindNode,
		From:     pos,
		To:       pos + node.NodeSize(),
		Priority: PriorityNormal,
		Source:   SourcePlaceholder,
		Attrs: map[string]string{
			AttrClass:       class,
			AttrPlaceholder: text,
		},
	}
}

// Highlights decorates the active persistent highlight. A range that no
// longer fits the document yields nothing.
func Highlights(s *state.State, cfg Config) []Decoration {
	h := guard.CurrentHighlight(s)
	if !h.Active {
		return nil
	}
	if h.From < 0 || h.From >= h.To || h.To > s.Doc().ContentSize() {
		return nil
	}
	return []Decoration{{
		Kind:     KindInline,
		From:     h.From,
		To:       h.To,
		Priority: PriorityHigh,
		Source:   SourceHighlight,
		Attrs:    map[string]string{AttrClass: cfg.HighlightClass},
	}}
}
