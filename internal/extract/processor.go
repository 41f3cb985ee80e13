package extract

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/engine/transform"
	"github.com/dshills/scribe/internal/logging"
)

// UIEvent is the MetaUIEvent value of transactions created by a Processor.
const UIEvent = "extract"

// Editor is the dispatch surface a Processor works against.
type Editor interface {
	State() *state.State
	Dispatch(tr *transform.Transaction) error
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Processor) {
		p.logger = l
	}
}

// WithTagging controls whether selections are tagged with a selectionTag
// mark while a response is pending. Enabled by default.
func WithTagging(enabled bool) Option {
	return func(p *Processor) {
		p.tag = enabled
	}
}

// WithTagIDs replaces the tag id generator.
func WithTagIDs(gen func() string) Option {
	return func(p *Processor) {
		p.newID = gen
	}
}

// Processor runs extraction sessions against an editor.
type Processor struct {
	editor    Editor
	generator Generator
	logger    *logging.Logger
	tag       bool
	newID     func() string
}

// NewProcessor creates a processor.
func NewProcessor(editor Editor, gen Generator, opts ...Option) *Processor {
	p := &Processor{
		editor:    editor,
		generator: gen,
		tag:       true,
		newID:     func() string { return "selection-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithComponent("extract")
	return p
}

// Session is one pending extraction. It records the document it analyzed
// so that a late response can be checked before it is applied.
type Session struct {
	mu       sync.Mutex
	id       string
	request  Request
	snapshot *model.Node
	tagged   bool
	closed   bool
}

// ID returns the selection tag id.
func (s *Session) ID() string { return s.id }

// Request returns the request to send to the generator.
func (s *Session) Request() Request { return s.request }

// Nodes returns the analyzed blocks.
func (s *Session) Nodes() []NodeSelectionInfo { return s.request.Nodes }

// Snapshot returns the document the session expects when completing.
func (s *Session) Snapshot() *model.Node { return s.snapshot }

func (s *Session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	return nil
}

// Begin analyzes the current selection, tags it and returns the session.
func (p *Processor) Begin(suggestion string) (*Session, error) {
	st := p.editor.State()
	sel := st.Selection()
	nodes, err := Analyze(st.Doc(), sel.From(), sel.To())
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrNothingSelected
	}

	sess := &Session{
		id:       p.newID(),
		request:  Request{Suggestion: suggestion, Nodes: nodes},
		snapshot: st.Doc(),
	}
	if !p.tag {
		return sess, nil
	}

	tr := st.Tr()
	tagMark := model.NewMark(model.MarkSelectionTag, sess.id)
	for i := len(nodes) - 1; i >= 0; i-- {
		from, to := nodes[i].SelectedRange()
		tr.AddMark(from, to, tagMark)
	}
	if !tr.DocChanged() {
		return sess, nil
	}
	tr.SetMeta(transform.MetaAddToHistory, false).SetMeta(transform.MetaUIEvent, UIEvent)
	if err := p.editor.Dispatch(tr); err != nil {
		p.logger.Warn("tagging selection %s failed: %v", sess.id, err)
		return sess, nil
	}
	sess.tagged = true
	sess.snapshot = p.editor.State().Doc()
	p.logger.Debug("session %s tagged %d blocks", sess.id, len(nodes))
	return sess, nil
}

// Complete applies a response. The tag is removed in every case. Results
// are discarded when the response failed, is malformed, or the document or
// selection changed since Begin.
func (p *Processor) Complete(sess *Session, resp Response) error {
	if err := sess.close(); err != nil {
		return err
	}
	st := p.editor.State()

	if !resp.Success {
		p.strip(sess)
		msg := resp.Message
		if msg == "" {
			msg = "generator reported failure"
		}
		err := &ServiceError{Message: msg}
		p.logger.Error("session %s: %v", sess.id, err)
		return err
	}
	if err := validateResults(resp.Results, len(sess.request.Nodes)); err != nil {
		p.strip(sess)
		p.logger.Error("session %s: %v", sess.id, err)
		return err
	}
	if st.Selection().IsEmpty() {
		p.strip(sess)
		return ErrSelectionCollapsed
	}
	if st.Doc() != sess.snapshot && !st.Doc().Eq(sess.snapshot) {
		p.strip(sess)
		return ErrStaleSnapshot
	}

	tr := st.Tr()
	p.stripInto(tr, sess)
	replace(tr, sess.snapshot, sess.request.Nodes, resp.Results)
	tr.SetMeta(transform.MetaUIEvent, UIEvent)
	if err := tr.Err(); err != nil {
		p.strip(sess)
		return fmt.Errorf("applying results: %w", err)
	}
	if !tr.DocChanged() {
		return nil
	}
	if err := p.editor.Dispatch(tr); err != nil {
		p.strip(sess)
		return fmt.Errorf("applying results: %w", err)
	}
	p.logger.Debug("session %s applied %d results", sess.id, len(resp.Results))
	return nil
}

// Cancel discards the session and removes its tag.
func (p *Processor) Cancel(sess *Session) error {
	if err := sess.close(); err != nil {
		return err
	}
	p.strip(sess)
	return nil
}

// Run begins a session, calls the generator and completes the session.
func (p *Processor) Run(ctx context.Context, suggestion string) (Response, error) {
	sess, err := p.Begin(suggestion)
	if err != nil {
		return Response{}, err
	}
	resp, err := p.generator.Generate(ctx, sess.Request())
	if err != nil {
		_ = p.Cancel(sess)
		var se *ServiceError
		if !errors.As(err, &se) {
			err = serviceErrorf(err, "generate")
		}
		p.logger.Error("session %s: %v", sess.id, err)
		return Response{}, err
	}
	return resp, p.Complete(sess, resp)
}

// strip dispatches a transaction removing the session's tag.
func (p *Processor) strip(sess *Session) {
	if !sess.tagged {
		return
	}
	tr := p.editor.State().Tr()
	p.stripInto(tr, sess)
	if !tr.DocChanged() {
		return
	}
	tr.SetMeta(transform.MetaAddToHistory, false).SetMeta(transform.MetaUIEvent, UIEvent)
	if err := p.editor.Dispatch(tr); err != nil {
		p.logger.Warn("removing tag %s failed: %v", sess.id, err)
	}
}

// stripInto adds steps to tr removing every selectionTag mark with the
// session's id.
func (p *Processor) stripInto(tr *transform.Transaction, sess *Session) {
	if !sess.tagged {
		return
	}
	tagMark := model.NewMark(model.MarkSelectionTag, sess.id)
	doc := tr.Doc()
	for node, pos := range doc.Descendants() {
		if node.IsText() && node.Marks().Contains(tagMark) {
			tr.RemoveMark(pos, pos+node.NodeSize(), tagMark)
		}
	}
}

func validateResults(results []Result, n int) error {
	seen := make(map[int]bool, len(results))
	for _, r := range results {
		if r.NodeIndex < 0 || r.NodeIndex >= n {
			return serviceErrorf(nil, "result for unknown node %d", r.NodeIndex)
		}
		if seen[r.NodeIndex] {
			return serviceErrorf(nil, "duplicate result for node %d", r.NodeIndex)
		}
		seen[r.NodeIndex] = true
	}
	return nil
}

// replace adds one replacement per result to tr, last block first. doc is
// the document the node infos were taken from.
func replace(tr *transform.Transaction, doc *model.Node, nodes []NodeSelectionInfo, results []Result) {
	sorted := append([]Result(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return nodes[sorted[i].NodeIndex].ContextFrom > nodes[sorted[j].NodeIndex].ContextFrom
	})
	for _, r := range sorted {
		info := nodes[r.NodeIndex]
		from, to := info.SelectedRange()
		if r.ReplaceEntireContext {
			from, to = info.ContentRange()
		}
		// Empty content clears the target range but keeps the node.
		if r.NewContent == "" {
			tr.Delete(from, to)
			continue
		}
		tr.ReplaceWith(from, to, model.NewText(r.NewContent, inheritedMarks(doc, from, to)...))
	}
}

// inheritedMarks returns the marks of the first character in [from, to),
// or the marks at from when the range is empty, without selection tags.
func inheritedMarks(doc *model.Node, from, to int) model.MarkSet {
	rp, err := doc.Resolve(from)
	if err != nil {
		return nil
	}
	marks := rp.Marks()
	if from < to {
		if after := rp.NodeAfter(); after != nil && after.IsText() {
			marks = after.Marks()
		}
	}
	return marks.RemoveType(model.MarkSelectionTag)
}
