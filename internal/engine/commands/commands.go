package commands

import (
	"fmt"
	"unicode/utf8"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/engine/transform"
)

// Command names, also used as the MetaUIEvent of the transactions they build.
const (
	NameInsertText      = "insertText"
	NameDeleteSelection = "deleteSelection"
	NameToggleMark      = "toggleMark"
	NameSetHeading      = "setHeading"
	NameSetLink         = "setLink"
	NameUnsetLink       = "unsetLink"
)

// Command builds the transaction for an edit against s. A nil transaction
// with a nil error means there is nothing to do.
type Command func(s *state.State) (*transform.Transaction, error)

// Dispatcher is the surface commands run against.
type Dispatcher interface {
	State() *state.State
	Dispatch(tr *transform.Transaction) error
}

// Run builds cmd against the dispatcher's current state and dispatches the
// result.
func Run(d Dispatcher, cmd Command) error {
	tr, err := cmd(d.State())
	if err != nil {
		return err
	}
	if tr == nil {
		return nil
	}
	return d.Dispatch(tr)
}

// ============================================================================
// Text
// ============================================================================

// InsertText replaces the selection with text. The text takes the marks
// found at the start of the selection, except selection tags. The cursor
// ends up after the inserted text.
func InsertText(text string) Command {
	return func(s *state.State) (*transform.Transaction, error) {
		if text == "" {
			return nil, nil
		}
		sel := s.Selection()
		from, to := sel.From(), sel.To()

		r, err := s.Doc().Resolve(from)
		if err != nil {
			return nil, err
		}
		if !r.Parent().IsTextblock() {
			return nil, fmt.Errorf("%w: position %d is not inside a text block", ErrNotApplicable, from)
		}
		marks := r.Marks().RemoveType(model.MarkSelectionTag)

		tr := s.Tr()
		if from < to {
			tr.Delete(from, to)
		}
		tr.InsertText(from, text, marks...).
			SetSelection(transform.Cursor(from + utf8.RuneCountInString(text))).
			SetMeta(transform.MetaUIEvent, NameInsertText)
		return tr, nil
	}
}

// DeleteSelection deletes the selected range and collapses the selection
// to its start.
func DeleteSelection() Command {
	return func(s *state.State) (*transform.Transaction, error) {
		sel := s.Selection()
		if sel.IsEmpty() {
			return nil, nil
		}
		tr := s.Tr().Delete(sel.From(), sel.To())
		tr.SetSelection(transform.Cursor(sel.From())).
			SetMeta(transform.MetaUIEvent, NameDeleteSelection)
		return tr, nil
	}
}

// ============================================================================
// Marks
// ============================================================================

// ToggleMark removes marks of mark's type from the selection when all of
// its markable text already carries one, and adds mark otherwise.
func ToggleMark(mark model.Mark) Command {
	return func(s *state.State) (*transform.Transaction, error) {
		sel := s.Selection()
		if sel.IsEmpty() {
			return nil, fmt.Errorf("%w: %s needs a selection", ErrNotApplicable, NameToggleMark)
		}
		from, to := sel.From(), sel.To()

		markable, all := markCoverage(s.Doc(), from, to, mark.Type)
		if !markable {
			return nil, fmt.Errorf("%w: no markable text in %d..%d", ErrNotApplicable, from, to)
		}
		tr := s.Tr()
		if all {
			tr.RemoveMarkType(from, to, mark.Type)
		} else {
			tr.AddMark(from, to, mark)
		}
		tr.SetMeta(transform.MetaUIEvent, NameToggleMark)
		return tr, nil
	}
}

// markCoverage reports whether [from, to) holds text that accepts marks and
// whether all such text carries a mark of type t.
func markCoverage(doc *model.Node, from, to int, t model.MarkType) (markable, all bool) {
	all = true
	doc.NodesBetween(from, to, func(n *model.Node, _ int, parent *model.Node, _ int) bool {
		if n.IsText() && parent != nil && parent.Type().Spec().AllowsMarks {
			markable = true
			if !n.Marks().HasType(t) {
				all = false
			}
		}
		return true
	})
	return markable, markable && all
}

// SetLink links the selection to href. With an empty selection the link
// around the cursor is retargeted. An empty href removes the link.
func SetLink(href string) Command {
	if href == "" {
		return UnsetLink()
	}
	return func(s *state.State) (*transform.Transaction, error) {
		from, to, ok := linkTarget(s)
		if !ok {
			return nil, fmt.Errorf("%w: %s needs a selection or a link at the cursor", ErrNotApplicable, NameSetLink)
		}
		tr := s.Tr().AddMark(from, to, model.NewMark(model.MarkLink, href))
		tr.SetMeta(transform.MetaUIEvent, NameSetLink)
		return tr, nil
	}
}

// UnsetLink removes links from the selection, or from the link around the
// cursor.
func UnsetLink() Command {
	return func(s *state.State) (*transform.Transaction, error) {
		from, to, ok := linkTarget(s)
		if !ok {
			return nil, nil
		}
		tr := s.Tr().RemoveMarkType(from, to, model.MarkLink)
		tr.SetMeta(transform.MetaUIEvent, NameUnsetLink)
		return tr, nil
	}
}

func linkTarget(s *state.State) (from, to int, ok bool) {
	sel := s.Selection()
	if !sel.IsEmpty() {
		return sel.From(), sel.To(), true
	}
	return MarkRange(s.Doc(), sel.Head, model.MarkLink)
}

// MarkRange returns the extent of the run of text around pos carrying the
// same mark of type t as the text at pos. Runs do not cross text blocks.
func MarkRange(doc *model.Node, pos int, t model.MarkType) (from, to int, ok bool) {
	r, err := doc.Resolve(pos)
	if err != nil || !r.Parent().IsTextblock() {
		return 0, 0, false
	}
	var mark model.Mark
	for _, m := range r.Marks() {
		if m.Type == t {
			mark, ok = m, true
		}
	}
	if !ok {
		return 0, 0, false
	}

	parent := r.Parent()
	type span struct {
		from, to int
		has      bool
	}
	spans := make([]span, parent.ChildCount())
	off := r.Start()
	for i := range spans {
		child := parent.Child(i)
		spans[i] = span{off, off + child.NodeSize(), child.Marks().Contains(mark)}
		off += child.NodeSize()
	}

	at := -1
	for i, sp := range spans {
		if sp.has && sp.from <= pos && pos <= sp.to {
			at = i
			break
		}
	}
	if at < 0 {
		return 0, 0, false
	}
	first, last := at, at
	for first > 0 && spans[first-1].has {
		first--
	}
	for last < len(spans)-1 && spans[last+1].has {
		last++
	}
	return spans[first].from, spans[last].to, true
}

// ============================================================================
// Blocks
// ============================================================================

// SetHeadingLevel turns every paragraph and heading touched by the
// selection into a heading of level. Level 0 turns them into paragraphs.
// Existing heading ids are kept.
func SetHeadingLevel(level int) Command {
	return func(s *state.State) (*transform.Transaction, error) {
		if level < 0 || level > 6 {
			return nil, fmt.Errorf("%w: heading level %d", ErrInvalidArgument, level)
		}
		sel := s.Selection()
		doc := s.Doc()

		type block struct {
			pos  int
			node *model.Node
		}
		var blocks []block
		doc.NodesBetween(sel.From(), max(sel.To(), sel.From()+1), func(n *model.Node, pos int, _ *model.Node, _ int) bool {
			if !n.IsTextblock() {
				return true
			}
			if n.Type() == model.TypeParagraph || n.Type() == model.TypeHeading {
				blocks = append(blocks, block{pos, n})
			}
			return false
		})
		if len(blocks) == 0 {
			return nil, fmt.Errorf("%w: no paragraph or heading in selection", ErrNotApplicable)
		}

		tr := s.Tr()
		for i := len(blocks) - 1; i >= 0; i-- {
			b := blocks[i]
			next, err := retype(b.node, level)
			if err != nil {
				return nil, err
			}
			if next.SameMarkup(b.node) {
				continue
			}
			tr.ReplaceWith(b.pos, b.pos+b.node.NodeSize(), next)
		}
		if !tr.DocChanged() {
			return nil, nil
		}
		// Block sizes are unchanged, so the selection stays valid.
		tr.SetSelection(sel).SetMeta(transform.MetaUIEvent, NameSetHeading)
		return tr, nil
	}
}

func retype(n *model.Node, level int) (*model.Node, error) {
	children := make([]*model.Node, n.ChildCount())
	for i := range children {
		children[i] = n.Child(i)
	}
	if level == 0 {
		return model.Create(model.TypeParagraph, nil, children...)
	}
	attrs := model.Attrs{model.AttrLevel: level}
	if id := n.Attrs().String(model.AttrID); id != "" {
		attrs[model.AttrID] = id
	}
	return model.Create(model.TypeHeading, attrs, children...)
}
