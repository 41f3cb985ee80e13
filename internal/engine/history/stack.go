package history

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/engine/transform"
)

// MetaHistory marks transactions produced by Undo and Redo. Its value is
// "undo" or "redo". Such transactions are never recorded.
const MetaHistory = "history"

// DefaultMaxEntries bounds the undo stack when no limit is given.
const DefaultMaxEntries = 1000

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// ApplyFunc dispatches a transaction and returns the accepted transactions.
type ApplyFunc func(tr *transform.Transaction) ([]*transform.Transaction, error)

// Entry is one undo or redo unit.
type Entry struct {
	// Description names the edit, e.g. a group name or a UI event.
	Description string

	// Steps revert the edit, in application order.
	Steps []transform.Step

	// Selection is restored when the entry is applied.
	Selection transform.Selection

	Timestamp time.Time
}

// Info describes an entry without exposing its steps.
type Info struct {
	Description string
	Timestamp   time.Time
	Steps       int
}

func (e *Entry) info() Info {
	return Info{Description: e.Description, Timestamp: e.Timestamp, Steps: len(e.Steps)}
}

// History manages undo/redo state for an editor.
type History struct {
	mu sync.Mutex

	undoStack []*Entry
	redoStack []*Entry

	// Grouping state
	grouping  bool
	groupName string
	group     *Entry

	maxEntries int
}

// New creates a history holding at most maxEntries undo entries.
func New(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{maxEntries: maxEntries}
}

// Invert returns the steps that revert trs, which must have been applied
// in order.
func Invert(trs []*transform.Transaction) []transform.Step {
	var inv []transform.Step
	for _, tr := range trs {
		docs := tr.Docs()
		for i, step := range tr.Steps() {
			inv = append(inv, step.Invert(docs[i]))
		}
	}
	slices.Reverse(inv)
	return inv
}

// Record stores the transactions accepted by one dispatch. sel is the
// selection before the dispatch. The first transaction decides: history
// transactions are ignored, addToHistory=false rebases the stacks, and
// anything else becomes an undo entry and clears the redo stack.
func (h *History) Record(trs []*transform.Transaction, sel transform.Selection) {
	if len(trs) == 0 {
		return
	}
	if _, ok := trs[0].Meta(MetaHistory); ok {
		return
	}
	changed := false
	for _, tr := range trs {
		changed = changed || tr.DocChanged()
	}
	if !changed {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !trs[0].AddToHistory() {
		m := transform.NewMapping()
		for _, tr := range trs {
			m.AppendMapping(tr.Mapping())
		}
		h.rebaseLocked(m)
		return
	}

	inv := Invert(trs)
	if h.grouping {
		if h.group == nil {
			h.group = &Entry{Description: h.groupName, Selection: sel, Timestamp: time.Now()}
		}
		h.group.Steps = append(inv, h.group.Steps...)
		return
	}

	desc, _ := trs[0].Meta(transform.MetaUIEvent)
	name, _ := desc.(string)
	h.pushLocked(&Entry{Description: name, Steps: inv, Selection: sel, Timestamp: time.Now()})
	h.redoStack = nil
}

// pushLocked adds an entry to the undo stack without touching redo.
func (h *History) pushLocked(e *Entry) {
	h.undoStack = append(h.undoStack, e)
	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
}

// rebaseLocked maps every stored step through m. The open group and the
// undo stack form one chain from the current document backwards; the redo
// stack is a second chain.
func (h *History) rebaseLocked(m *transform.Mapping) {
	var undo []*Entry
	if h.group != nil {
		undo = append(undo, h.group)
	}
	for i := len(h.undoStack) - 1; i >= 0; i-- {
		undo = append(undo, h.undoStack[i])
	}
	rebaseChain(undo, m)

	redo := make([]*Entry, 0, len(h.redoStack))
	for i := len(h.redoStack) - 1; i >= 0; i-- {
		redo = append(redo, h.redoStack[i])
	}
	rebaseChain(redo, m)

	h.undoStack = slices.DeleteFunc(h.undoStack, emptyEntry)
	h.redoStack = slices.DeleteFunc(h.redoStack, emptyEntry)
}

func emptyEntry(e *Entry) bool { return len(e.Steps) == 0 }

// rebaseChain maps a chain of entries through m. Each step in the chain
// applies to the document left by the steps before it, so step i is mapped
// back through the inverses of steps 0..i-1, across m, and forward through
// the rebased versions of those steps. Each inverse is mirrored by its
// rebased step, which keeps positions inside earlier insertions intact.
func rebaseChain(chain []*Entry, m *transform.Mapping) {
	var inverted, rebased []*transform.StepMap
	mapping := func() *transform.Mapping {
		rm := transform.NewMapping()
		for j := len(inverted) - 1; j >= 0; j-- {
			rm.AppendMap(inverted[j])
		}
		rm.AppendMapping(m)
		for j, sm := range rebased {
			if sm != nil {
				rm.AppendMirror(sm, len(inverted)-1-j)
			}
		}
		return rm
	}

	for _, e := range chain {
		steps := make([]transform.Step, 0, len(e.Steps))
		for _, s := range e.Steps {
			mapped := s.Map(mapping())
			inverted = append(inverted, s.GetMap().Invert())
			if mapped == nil {
				rebased = append(rebased, nil)
				continue
			}
			steps = append(steps, mapped)
			rebased = append(rebased, mapped.GetMap())
		}
		e.Steps = steps
		e.Selection = e.Selection.Map(mapping())
	}
}

// Undo reverts the most recent entry against st. The entry moves to the
// redo stack only when apply succeeds.
func (h *History) Undo(st *state.State, apply ApplyFunc) error {
	h.mu.Lock()
	if len(h.undoStack) == 0 {
		h.mu.Unlock()
		return ErrNothingToUndo
	}
	entry := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.mu.Unlock()

	redo, err := h.run(st, entry, "undo", apply)
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.undoStack = append(h.undoStack, entry)
		return err
	}
	h.redoStack = append(h.redoStack, redo)
	return nil
}

// Redo reapplies the most recently undone entry against st.
func (h *History) Redo(st *state.State, apply ApplyFunc) error {
	h.mu.Lock()
	if len(h.redoStack) == 0 {
		h.mu.Unlock()
		return ErrNothingToRedo
	}
	entry := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.mu.Unlock()

	undo, err := h.run(st, entry, "redo", apply)
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.redoStack = append(h.redoStack, entry)
		return err
	}
	h.pushLocked(undo)
	return nil
}

// run applies entry and returns the entry that reverts it.
func (h *History) run(st *state.State, entry *Entry, kind string, apply ApplyFunc) (*Entry, error) {
	tr := st.Tr()
	for _, s := range entry.Steps {
		if err := tr.Step(s); err != nil {
			return nil, err
		}
	}
	tr.SetMeta(MetaHistory, kind).
		SetMeta(transform.MetaAddToHistory, false).
		SetSelection(entry.Selection.Clamp(tr.Doc().ContentSize()))

	trs, err := apply(tr)
	if err != nil {
		return nil, err
	}
	return &Entry{
		Description: entry.Description,
		Steps:       Invert(trs),
		Selection:   st.Selection(),
		Timestamp:   time.Now(),
	}, nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo operations available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo operations available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// BeginGroup starts a group. Dispatches recorded while grouping are
// combined into a single undo unit.
func (h *History) BeginGroup(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		// Nested groups join the outer one.
		return
	}
	h.grouping = true
	h.groupName = name
	h.group = nil
}

// EndGroup finishes a group and pushes it as one entry.
func (h *History) EndGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.grouping {
		return
	}
	h.grouping = false
	if h.group != nil && len(h.group.Steps) > 0 {
		h.pushLocked(h.group)
		h.redoStack = nil
	}
	h.group = nil
}

// CancelGroup drops the group without adding it to history.
// Note: edits already dispatched stay in the document.
func (h *History) CancelGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.grouping = false
	h.group = nil
}

// IsGrouping returns true if currently in a group.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grouping
}

// Clear removes all undo/redo history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undoStack = nil
	h.redoStack = nil
	h.grouping = false
	h.group = nil
}

// PeekUndo returns info about the next undo entry without removing it.
func (h *History) PeekUndo() (Info, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return Info{}, false
	}
	return h.undoStack[len(h.undoStack)-1].info(), true
}

// PeekRedo returns info about the next redo entry without removing it.
func (h *History) PeekRedo() (Info, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return Info{}, false
	}
	return h.redoStack[len(h.redoStack)-1].info(), true
}

// SetMaxEntries changes the maximum number of undo entries.
// If the current stack is larger, oldest entries are removed.
func (h *History) SetMaxEntries(max int) {
	if max <= 0 {
		max = DefaultMaxEntries
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.maxEntries = max
	if len(h.undoStack) > max {
		excess := len(h.undoStack) - max
		h.undoStack = h.undoStack[excess:]
	}
}

// MaxEntries returns the maximum number of undo entries.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}
