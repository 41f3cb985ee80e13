package guard

import (
	"fmt"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/engine/transform"
	"github.com/dshills/scribe/internal/logging"
)

// LeadingKey is the plugin key of the leading node guard.
const LeadingKey = "protectedLeading"

// Shape describes the node required at the start of the document.
type Shape struct {
	// Type is the required node type.
	Type model.NodeType

	// Level is the required heading level. Zero accepts any level.
	Level int
}

// HeadingShape requires a heading of the given level.
func HeadingShape(level int) Shape {
	return Shape{Type: model.TypeHeading, Level: level}
}

// TitleShape requires a dedicated title node.
func TitleShape() Shape {
	return Shape{Type: model.TypeTitle}
}

// Matches reports whether n has the shape. A nil node never matches.
func (s Shape) Matches(n *model.Node) bool {
	if n == nil || n.Type() != s.Type {
		return false
	}
	if s.Level == 0 {
		return true
	}
	level, _ := n.Attrs().Int(model.AttrLevel)
	return level == s.Level
}

// Blank returns an empty node with the shape.
func (s Shape) Blank() *model.Node {
	var attrs model.Attrs
	if s.Type == model.TypeHeading {
		level := s.Level
		if level == 0 {
			level = 1
		}
		attrs = model.Attrs{model.AttrLevel: level}
	}
	return model.NewNode(s.Type, attrs)
}

// String returns a description such as "heading(level=1)".
func (s Shape) String() string {
	if s.Level > 0 {
		return fmt.Sprintf("%s(level=%d)", s.Type, s.Level)
	}
	return s.Type.String()
}

// LeadingGuard keeps a node of a required shape at the start of the
// document.
type LeadingGuard struct {
	state.BasePlugin

	shape  Shape
	logger *logging.Logger
}

// LeadingOption configures a LeadingGuard.
type LeadingOption func(*LeadingGuard)

// WithShape sets the required shape.
func WithShape(s Shape) LeadingOption {
	return func(g *LeadingGuard) {
		g.shape = s
	}
}

// WithLeadingLogger sets the logger.
func WithLeadingLogger(l *logging.Logger) LeadingOption {
	return func(g *LeadingGuard) {
		g.logger = l
	}
}

// NewLeadingGuard creates a guard requiring a level 1 heading unless
// configured otherwise.
func NewLeadingGuard(opts ...LeadingOption) *LeadingGuard {
	g := &LeadingGuard{
		BasePlugin: state.BasePlugin{Name: LeadingKey},
		shape:      HeadingShape(1),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.WithComponent(LeadingKey)
	return g
}

// Shape returns the required shape.
func (g *LeadingGuard) Shape() Shape { return g.shape }

// FilterTransaction implements state.Plugin. A document change is rejected
// when the current first child has the shape and the resulting one does
// not. Documents that already lack the shape accept any change so that
// they can be repaired.
func (g *LeadingGuard) FilterTransaction(tr *transform.Transaction, s *state.State) bool {
	if !tr.DocChanged() {
		return true
	}
	if !g.shape.Matches(s.Doc().FirstChild()) {
		return true
	}
	return g.shape.Matches(tr.Doc().FirstChild())
}

// AppendTransaction implements state.Plugin. It reinserts the node when a
// dispatch ended without it: the previous first node when that had the
// shape, a blank instance otherwise.
func (g *LeadingGuard) AppendTransaction(trs []*transform.Transaction, oldState, newState *state.State) *transform.Transaction {
	if g.shape.Matches(newState.Doc().FirstChild()) {
		return nil
	}
	node := g.shape.Blank()
	if prev := oldState.Doc().FirstChild(); g.shape.Matches(prev) {
		node = prev
	}
	g.logger.Info("restoring leading %s", g.shape)
	return newState.Tr().Insert(0, node)
}

// Normalize implements state.Normalizer by inserting a blank node into
// documents created without one.
func (g *LeadingGuard) Normalize(s *state.State) *transform.Transaction {
	if g.shape.Matches(s.Doc().FirstChild()) {
		return nil
	}
	return s.Tr().Insert(0, g.shape.Blank())
}
