package state

import (
	"fmt"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/transform"
	"github.com/dshills/scribe/internal/logging"
)

// Config configures a new State.
type Config struct {
	// Doc is the initial document. Defaults to a document with one empty
	// paragraph.
	Doc *model.Node

	// Selection is the initial selection.
	Selection transform.Selection

	// Plugins run in registration order.
	Plugins []Plugin

	// Logger receives pipeline diagnostics. Nil discards them.
	Logger *logging.Logger
}

// State is an immutable editor state: a document revision, a selection and
// one value per plugin. Every accepted transaction produces a new State.
type State struct {
	doc       *model.Node
	selection transform.Selection
	revision  uint64
	plugins   []Plugin
	fields    map[string]any
	logger    *logging.Logger
}

// New creates a state, initializes every plugin and runs normalizers.
func New(cfg Config) (*State, error) {
	doc := cfg.Doc
	if doc == nil {
		doc = model.NewDoc(model.NewParagraph(""))
	}
	if doc.Type() != model.TypeRoot {
		return nil, fmt.Errorf("%w: root is %s", ErrInvalidDocument, doc.Type())
	}
	if err := doc.Check(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	s := &State{
		doc:       doc,
		selection: cfg.Selection.Clamp(doc.ContentSize()),
		plugins:   append([]Plugin(nil), cfg.Plugins...),
		fields:    make(map[string]any, len(cfg.Plugins)),
		logger:    cfg.Logger.WithComponent("pipeline"),
	}
	for _, p := range s.plugins {
		if _, dup := s.fields[p.Key()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlugin, p.Key())
		}
		s.fields[p.Key()] = p.Init(doc, s.selection)
	}

	for _, p := range s.plugins {
		n, ok := p.(Normalizer)
		if !ok {
			continue
		}
		tr := n.Normalize(s)
		if tr == nil || !tr.DocChanged() {
			continue
		}
		tr.SetMeta(transform.MetaAddToHistory, false)
		next, _, err := s.ApplyTransaction(tr)
		if err != nil {
			s.logger.Warn("normalization by %s discarded: %v", p.Key(), err)
			continue
		}
		s = next
	}
	return s, nil
}

// Doc returns the current document.
func (s *State) Doc() *model.Node { return s.doc }

// Selection returns the current selection.
func (s *State) Selection() transform.Selection { return s.selection }

// Revision counts document-changing transactions since creation.
func (s *State) Revision() uint64 { return s.revision }

// Plugins returns the registered plugins in order.
func (s *State) Plugins() []Plugin { return append([]Plugin(nil), s.plugins...) }

// Field returns the state value of the plugin with the given key.
func (s *State) Field(key string) (any, bool) {
	v, ok := s.fields[key]
	return v, ok
}

// FieldOf returns a plugin's state value with its concrete type.
func FieldOf[T any](s *State, key string) (T, bool) {
	v, ok := s.fields[key].(T)
	return v, ok
}

// Tr starts a transaction against the current document.
func (s *State) Tr() *transform.Transaction {
	return transform.NewTransaction(s.doc)
}

// Apply is ApplyTransaction without the list of accepted transactions.
func (s *State) Apply(tr *transform.Transaction) (*State, error) {
	next, _, err := s.ApplyTransaction(tr)
	return next, err
}

// ApplyTransaction runs tr through the pipeline:
//
//  1. every plugin's filter, in order; one veto cancels tr
//  2. tr's document becomes current and every plugin's Apply runs
//  3. one round of AppendTransaction; each follow-up passes through 1 and 2
//
// On error the receiver is returned unchanged together with the error.
// The returned list holds tr followed by the accepted follow-ups.
func (s *State) ApplyTransaction(tr *transform.Transaction) (*State, []*transform.Transaction, error) {
	if err := tr.Err(); err != nil {
		s.logger.Warn("transaction discarded: %v", err)
		return s, nil, err
	}
	if tr.Before() != s.doc && !tr.Before().Eq(s.doc) {
		return s, nil, ErrStaleTransaction
	}
	if err := s.filter(tr); err != nil {
		return s, nil, err
	}

	next := s.applyInner(tr)
	trs := []*transform.Transaction{tr}

	for _, p := range s.plugins {
		follow := p.AppendTransaction(trs, s, next)
		if follow == nil {
			continue
		}
		follow.SetMeta(transform.MetaAppendedTransaction, p.Key())
		if err := follow.Err(); err != nil {
			s.logger.Warn("follow-up from %s discarded: %v", p.Key(), err)
			continue
		}
		if follow.Before() != next.doc && !follow.Before().Eq(next.doc) {
			s.logger.Warn("follow-up from %s built against a stale document", p.Key())
			continue
		}
		if err := next.filter(follow); err != nil {
			continue
		}
		next = next.applyInner(follow)
		trs = append(trs, follow)
	}
	return next, trs, nil
}

func (s *State) filter(tr *transform.Transaction) error {
	for _, p := range s.plugins {
		if !p.FilterTransaction(tr, s) {
			s.logger.Debug("transaction vetoed by %s", p.Key())
			return &VetoError{Plugin: p.Key()}
		}
	}
	return nil
}

func (s *State) applyInner(tr *transform.Transaction) *State {
	doc := tr.Doc()
	sel, ok := tr.Selection()
	if !ok {
		sel = s.selection.Map(tr.Mapping())
	}
	next := &State{
		doc:       doc,
		selection: sel.Clamp(doc.ContentSize()),
		revision:  s.revision,
		plugins:   s.plugins,
		fields:    make(map[string]any, len(s.fields)),
		logger:    s.logger,
	}
	if tr.DocChanged() {
		next.revision++
	}
	for k, v := range s.fields {
		next.fields[k] = v
	}
	for _, p := range s.plugins {
		next.fields[p.Key()] = p.Apply(tr, s.fields[p.Key()], s, next)
	}
	return next
}

// WithSelection returns a state with a different selection and the same
// document and plugin values.
func (s *State) WithSelection(sel transform.Selection) *State {
	c := *s
	c.selection = sel.Clamp(s.doc.ContentSize())
	return &c
}

// Reconfigure returns a state over the same document with a new plugin set.
// Plugins whose key already existed keep their value.
func (s *State) Reconfigure(plugins []Plugin) (*State, error) {
	c := &State{
		doc:       s.doc,
		selection: s.selection,
		revision:  s.revision,
		plugins:   append([]Plugin(nil), plugins...),
		fields:    make(map[string]any, len(plugins)),
		logger:    s.logger,
	}
	for _, p := range c.plugins {
		if _, dup := c.fields[p.Key()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlugin, p.Key())
		}
		if v, ok := s.fields[p.Key()]; ok {
			c.fields[p.Key()] = v
		} else {
			c.fields[p.Key()] = p.Init(s.doc, s.selection)
		}
	}
	return c, nil
}
