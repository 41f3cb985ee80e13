package transform

import (
	"time"

	"github.com/dshills/scribe/internal/engine/model"
)

// Well-known metadata keys.
const (
	// MetaAddToHistory set to false keeps a transaction out of undo history.
	MetaAddToHistory = "addToHistory"

	// MetaAppendedTransaction marks follow-up transactions produced by
	// plugins. Its value is the key of the producing plugin.
	MetaAppendedTransaction = "appendedTransaction"

	// MetaUIEvent names the user action that produced a transaction.
	MetaUIEvent = "uiEvent"
)

// Transaction is an ordered group of steps built against one base document,
// plus metadata. Steps are applied as they are added; the first failing
// step leaves a sticky error and later steps are ignored.
type Transaction struct {
	before    *model.Node
	doc       *model.Node
	steps     []Step
	docs      []*model.Node
	mapping   *Mapping
	meta      map[string]any
	selection *Selection
	err       error
	time      time.Time
}

// NewTransaction starts a transaction against doc.
func NewTransaction(doc *model.Node) *Transaction {
	return &Transaction{
		before:  doc,
		doc:     doc,
		mapping: NewMapping(),
		meta:    make(map[string]any),
		time:    time.Now(),
	}
}

// Before returns the base document.
func (tr *Transaction) Before() *model.Node { return tr.before }

// Doc returns the document after all steps so far.
func (tr *Transaction) Doc() *model.Node { return tr.doc }

// Steps returns the steps.
func (tr *Transaction) Steps() []Step { return append([]Step(nil), tr.steps...) }

// Docs returns the document before each step.
func (tr *Transaction) Docs() []*model.Node { return append([]*model.Node(nil), tr.docs...) }

// Mapping returns the composed mapping of all steps.
func (tr *Transaction) Mapping() *Mapping { return tr.mapping }

// DocChanged reports whether the transaction has any steps.
func (tr *Transaction) DocChanged() bool { return len(tr.steps) > 0 }

// Err returns the error of the first failed step.
func (tr *Transaction) Err() error { return tr.err }

// Time returns when the transaction was created.
func (tr *Transaction) Time() time.Time { return tr.time }

// Step applies s and appends it. If the transaction has already failed the
// step is ignored.
func (tr *Transaction) Step(s Step) error {
	if tr.err != nil {
		return tr.err
	}
	doc, err := s.Apply(tr.doc)
	if err != nil {
		tr.err = &StepError{Step: s, Index: len(tr.steps), Err: err}
		return tr.err
	}
	tr.docs = append(tr.docs, tr.doc)
	tr.steps = append(tr.steps, s)
	tr.mapping.AppendMap(s.GetMap())
	tr.doc = doc
	return nil
}

// MaybeStep applies s and reports whether it succeeded. A failure does not
// poison the transaction.
func (tr *Transaction) MaybeStep(s Step) bool {
	if tr.err != nil {
		return false
	}
	doc, err := s.Apply(tr.doc)
	if err != nil {
		return false
	}
	tr.docs = append(tr.docs, tr.doc)
	tr.steps = append(tr.steps, s)
	tr.mapping.AppendMap(s.GetMap())
	tr.doc = doc
	return true
}

// SetMeta stores metadata and returns the transaction.
func (tr *Transaction) SetMeta(key string, value any) *Transaction {
	tr.meta[key] = value
	return tr
}

// Meta returns metadata for key.
func (tr *Transaction) Meta(key string) (any, bool) {
	v, ok := tr.meta[key]
	return v, ok
}

// AddToHistory reports whether the transaction should be recorded for undo.
func (tr *Transaction) AddToHistory() bool {
	v, ok := tr.meta[MetaAddToHistory].(bool)
	return !ok || v
}

// SetSelection sets the selection to use after the transaction, expressed
// in the coordinates of the final document.
func (tr *Transaction) SetSelection(sel Selection) *Transaction {
	tr.selection = &sel
	return tr
}

// Selection returns the explicitly set selection.
func (tr *Transaction) Selection() (Selection, bool) {
	if tr.selection == nil {
		return Selection{}, false
	}
	return *tr.selection, true
}

// Replace replaces [from, to) with slice.
func (tr *Transaction) Replace(from, to int, slice *model.Slice) *Transaction {
	if from == to && slice.Size() == 0 {
		return tr
	}
	_ = tr.Step(NewReplaceStep(from, to, slice))
	return tr
}

// ReplaceWith replaces [from, to) with closed nodes.
func (tr *Transaction) ReplaceWith(from, to int, nodes ...*model.Node) *Transaction {
	return tr.Replace(from, to, model.SliceOf(nodes...))
}

// Insert inserts closed nodes at pos.
func (tr *Transaction) Insert(pos int, nodes ...*model.Node) *Transaction {
	return tr.ReplaceWith(pos, pos, nodes...)
}

// Delete deletes [from, to).
func (tr *Transaction) Delete(from, to int) *Transaction {
	return tr.Replace(from, to, model.EmptySlice)
}

// InsertText inserts text with the given marks at pos, which must lie inside
// a text block. Empty text deletes nothing and inserts nothing.
func (tr *Transaction) InsertText(pos int, text string, marks ...model.Mark) *Transaction {
	if text == "" {
		return tr
	}
	return tr.Insert(pos, model.NewText(text, marks...))
}

// ReplaceText replaces [from, to) inside one text block with text. Empty
// text deletes the range.
func (tr *Transaction) ReplaceText(from, to int, text string, marks ...model.Mark) *Transaction {
	if text == "" {
		return tr.Delete(from, to)
	}
	return tr.ReplaceWith(from, to, model.NewText(text, marks...))
}

// AddMark adds mark to the text in [from, to).
func (tr *Transaction) AddMark(from, to int, mark model.Mark) *Transaction {
	if from < to {
		_ = tr.Step(NewAddMarkStep(from, to, mark))
	}
	return tr
}

// RemoveMark removes one exact mark from the text in [from, to).
func (tr *Transaction) RemoveMark(from, to int, mark model.Mark) *Transaction {
	if from < to {
		_ = tr.Step(NewRemoveExactMarkStep(from, to, mark))
	}
	return tr
}

// RemoveMarkType removes every mark of type t from the text in [from, to).
func (tr *Transaction) RemoveMarkType(from, to int, t model.MarkType) *Transaction {
	if from < to {
		_ = tr.Step(NewRemoveMarkStep(from, to, t))
	}
	return tr
}

// SetNodeAttrs replaces the attributes of the node at pos.
func (tr *Transaction) SetNodeAttrs(pos int, attrs model.Attrs) *Transaction {
	_ = tr.Step(NewSetAttrsStep(pos, attrs))
	return tr
}

// Replay applies steps to base in order and returns the resulting document.
// The first failing step aborts the replay.
func Replay(base *model.Node, steps []Step) (*model.Node, error) {
	doc := base
	for i, s := range steps {
		next, err := s.Apply(doc)
		if err != nil {
			return nil, &StepError{Step: s, Index: i, Err: err}
		}
		doc = next
	}
	return doc, nil
}
