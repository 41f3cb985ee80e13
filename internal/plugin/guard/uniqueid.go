package guard

import (
	"strings"

	"github.com/google/uuid"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/engine/transform"
	"github.com/dshills/scribe/internal/logging"
)

// UniqueIDKey is the plugin key of the unique id guard.
const UniqueIDKey = "uniqueID"

// maxIDAttempts bounds collision retries before falling back to a full uuid.
const maxIDAttempts = 16

// IDGenerator returns candidate ids.
type IDGenerator func() string

// ShortID returns the first 8 hex digits of a random uuid.
func ShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// UniqueIDGuard assigns ids to nodes of the configured types and keeps them
// unique in document order.
type UniqueIDGuard struct {
	state.BasePlugin

	types    map[model.NodeType]bool
	generate IDGenerator
	logger   *logging.Logger
}

// UniqueIDOption configures a UniqueIDGuard.
type UniqueIDOption func(*UniqueIDGuard)

// WithIDGenerator replaces the id generator.
func WithIDGenerator(gen IDGenerator) UniqueIDOption {
	return func(g *UniqueIDGuard) {
		g.generate = gen
	}
}

// WithIDTypes sets the node types that carry ids.
func WithIDTypes(types ...model.NodeType) UniqueIDOption {
	return func(g *UniqueIDGuard) {
		g.types = make(map[model.NodeType]bool, len(types))
		for _, t := range types {
			g.types[t] = true
		}
	}
}

// WithUniqueIDLogger sets the logger.
func WithUniqueIDLogger(l *logging.Logger) UniqueIDOption {
	return func(g *UniqueIDGuard) {
		g.logger = l
	}
}

// NewUniqueIDGuard creates a guard for heading and title nodes.
func NewUniqueIDGuard(opts ...UniqueIDOption) *UniqueIDGuard {
	g := &UniqueIDGuard{
		BasePlugin: state.BasePlugin{Name: UniqueIDKey},
		types:      map[model.NodeType]bool{model.TypeHeading: true, model.TypeTitle: true},
		generate:   ShortID,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.WithComponent(UniqueIDKey)
	return g
}

// AppendTransaction implements state.Plugin.
func (g *UniqueIDGuard) AppendTransaction(trs []*transform.Transaction, _, newState *state.State) *transform.Transaction {
	changed := false
	for _, tr := range trs {
		if tr.DocChanged() {
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}
	return g.assign(newState)
}

// Normalize implements state.Normalizer.
func (g *UniqueIDGuard) Normalize(s *state.State) *transform.Transaction {
	return g.assign(s)
}

// Duplicates returns the positions of id-carrying nodes whose id is
// missing or repeats an earlier one.
func (g *UniqueIDGuard) Duplicates(doc *model.Node) []int {
	var out []int
	seen := make(map[string]bool)
	for node, pos := range doc.Descendants() {
		if !g.types[node.Type()] {
			continue
		}
		id := node.Attrs().String(model.AttrID)
		if id == "" || seen[id] {
			out = append(out, pos)
			continue
		}
		seen[id] = true
	}
	return out
}

func (g *UniqueIDGuard) assign(s *state.State) *transform.Transaction {
	doc := s.Doc()
	positions := g.Duplicates(doc)
	if len(positions) == 0 {
		return nil
	}

	taken := make(map[string]bool)
	for node := range doc.Descendants() {
		if id := node.Attrs().String(model.AttrID); id != "" {
			taken[id] = true
		}
	}

	tr := s.Tr()
	for _, pos := range positions {
		node := doc.NodeAt(pos)
		id := g.newID(taken)
		g.logger.Debug("assigning id %s to %s at %d", id, node.Type(), pos)
		tr.SetNodeAttrs(pos, node.Attrs().With(model.AttrID, id))
	}
	return tr
}

func (g *UniqueIDGuard) newID(taken map[string]bool) string {
	for range maxIDAttempts {
		id := g.generate()
		if id != "" && !taken[id] {
			taken[id] = true
			return id
		}
	}
	id := uuid.NewString()
	taken[id] = true
	return id
}
