package transform

import (
	"fmt"

	"github.com/dshills/scribe/internal/engine/model"
)

// Step is one atomic, invertible edit.
type Step interface {
	// Apply applies the step to doc and returns the new document. doc is
	// never modified.
	Apply(doc *model.Node) (*model.Node, error)

	// Invert returns a step that undoes this one when applied to the
	// document produced by Apply(doc).
	Invert(doc *model.Node) Step

	// Map re-expresses the step through a mapping. It returns nil when the
	// content the step addressed was deleted.
	Map(m Mappable) Step

	// GetMap returns how the step moves positions.
	GetMap() *StepMap

	fmt.Stringer
}

// ReplaceStep replaces the range [From, To) with a slice.
type ReplaceStep struct {
	From  int
	To    int
	Slice *model.Slice
}

// NewReplaceStep creates a replace step. A nil slice deletes the range.
func NewReplaceStep(from, to int, slice *model.Slice) *ReplaceStep {
	if slice == nil {
		slice = model.EmptySlice
	}
	return &ReplaceStep{From: from, To: to, Slice: slice}
}

// Apply implements Step.
func (s *ReplaceStep) Apply(doc *model.Node) (*model.Node, error) {
	return doc.Replace(s.From, s.To, s.Slice)
}

// Invert implements Step.
func (s *ReplaceStep) Invert(doc *model.Node) Step {
	old, err := doc.Slice(s.From, s.To)
	if err != nil {
		old = model.EmptySlice
	}
	return NewReplaceStep(s.From, s.From+s.Slice.Size(), old)
}

// Map implements Step.
func (s *ReplaceStep) Map(m Mappable) Step {
	from := m.MapResult(s.From, 1)
	to := m.MapResult(s.To, -1)
	if from.DeletedAcross() && to.DeletedAcross() {
		return nil
	}
	return NewReplaceStep(from.Pos, max(from.Pos, to.Pos), s.Slice)
}

// GetMap implements Step.
func (s *ReplaceStep) GetMap() *StepMap {
	return NewStepMap(s.From, s.To-s.From, s.Slice.Size())
}

// String implements fmt.Stringer.
func (s *ReplaceStep) String() string {
	return fmt.Sprintf("replace(%d, %d, %s)", s.From, s.To, s.Slice)
}

// AddMarkStep adds a mark to all text in [From, To) whose parent allows
// marks.
type AddMarkStep struct {
	From int
	To   int
	Mark model.Mark
}

// NewAddMarkStep creates an add-mark step.
func NewAddMarkStep(from, to int, mark model.Mark) *AddMarkStep {
	return &AddMarkStep{From: from, To: to, Mark: mark}
}

// Apply implements Step.
func (s *AddMarkStep) Apply(doc *model.Node) (*model.Node, error) {
	return applyMarks(doc, s.From, s.To, func(marks model.MarkSet) model.MarkSet {
		return marks.Add(s.Mark)
	})
}

// Invert implements Step. The inverse restores the original slice, which
// also restores marks that an exclusive mark replaced.
func (s *AddMarkStep) Invert(doc *model.Node) Step {
	return invertMarkStep(doc, s.From, s.To)
}

// Map implements Step.
func (s *AddMarkStep) Map(m Mappable) Step {
	from, to, ok := mapMarkRange(m, s.From, s.To)
	if !ok {
		return nil
	}
	return NewAddMarkStep(from, to, s.Mark)
}

// GetMap implements Step.
func (s *AddMarkStep) GetMap() *StepMap { return EmptyStepMap }

// String implements fmt.Stringer.
func (s *AddMarkStep) String() string {
	return fmt.Sprintf("addMark(%d, %d, %s)", s.From, s.To, s.Mark)
}

// RemoveMarkStep removes marks from all text in [From, To). When Exact is
// set only that mark is removed, otherwise every mark of Type.
type RemoveMarkStep struct {
	From  int
	To    int
	Type  model.MarkType
	Exact *model.Mark
}

// NewRemoveMarkStep removes every mark of type t.
func NewRemoveMarkStep(from, to int, t model.MarkType) *RemoveMarkStep {
	return &RemoveMarkStep{From: from, To: to, Type: t}
}

// NewRemoveExactMarkStep removes one specific mark, such as a selection tag
// with a given id.
func NewRemoveExactMarkStep(from, to int, mark model.Mark) *RemoveMarkStep {
	return &RemoveMarkStep{From: from, To: to, Type: mark.Type, Exact: &mark}
}

// Apply implements Step.
func (s *RemoveMarkStep) Apply(doc *model.Node) (*model.Node, error) {
	return applyMarks(doc, s.From, s.To, func(marks model.MarkSet) model.MarkSet {
		if s.Exact != nil {
			return marks.Remove(*s.Exact)
		}
		return marks.RemoveType(s.Type)
	})
}

// Invert implements Step.
func (s *RemoveMarkStep) Invert(doc *model.Node) Step {
	return invertMarkStep(doc, s.From, s.To)
}

// Map implements Step.
func (s *RemoveMarkStep) Map(m Mappable) Step {
	from, to, ok := mapMarkRange(m, s.From, s.To)
	if !ok {
		return nil
	}
	return &RemoveMarkStep{From: from, To: to, Type: s.Type, Exact: s.Exact}
}

// GetMap implements Step.
func (s *RemoveMarkStep) GetMap() *StepMap { return EmptyStepMap }

// String implements fmt.Stringer.
func (s *RemoveMarkStep) String() string {
	if s.Exact != nil {
		return fmt.Sprintf("removeMark(%d, %d, %s)", s.From, s.To, *s.Exact)
	}
	return fmt.Sprintf("removeMark(%d, %d, %s)", s.From, s.To, s.Type)
}

// applyMarks rewrites the mark sets of all text in [from, to) and replaces
// the range with the result.
func applyMarks(doc *model.Node, from, to int, update func(model.MarkSet) model.MarkSet) (*model.Node, error) {
	old, err := doc.Slice(from, to)
	if err != nil {
		return nil, err
	}
	rFrom, err := doc.Resolve(from)
	if err != nil {
		return nil, err
	}
	parent := rFrom.Node(rFrom.SharedDepth(to))
	content := mapInline(old.Content, parent, update)
	return doc.Replace(from, to, model.NewSlice(content, old.OpenStart, old.OpenEnd))
}

func mapInline(f *model.Fragment, parent *model.Node, update func(model.MarkSet) model.MarkSet) *model.Fragment {
	children := f.Children()
	for i, child := range children {
		if child.ContentSize() > 0 {
			child = child.Copy(mapInline(child.Content(), child, update))
		}
		if child.IsText() && parent.Type().Spec().AllowsMarks {
			child = child.WithMarks(update(child.Marks()))
		}
		children[i] = child
	}
	return model.NewFragment(children...)
}

func invertMarkStep(doc *model.Node, from, to int) Step {
	old, err := doc.Slice(from, to)
	if err != nil {
		old = model.EmptySlice
	}
	return NewReplaceStep(from, to, old)
}

func mapMarkRange(m Mappable, from, to int) (int, int, bool) {
	f := m.MapResult(from, 1)
	t := m.MapResult(to, -1)
	if (f.Deleted() && t.Deleted()) || f.Pos >= t.Pos {
		return 0, 0, false
	}
	return f.Pos, t.Pos, true
}

// SetAttrsStep replaces the attributes of the non-text node starting at Pos.
// Attribute defaults of the node type are merged under Attrs.
type SetAttrsStep struct {
	Pos   int
	Attrs model.Attrs
}

// NewSetAttrsStep creates a set-attributes step.
func NewSetAttrsStep(pos int, attrs model.Attrs) *SetAttrsStep {
	return &SetAttrsStep{Pos: pos, Attrs: attrs}
}

// Apply implements Step.
func (s *SetAttrsStep) Apply(doc *model.Node) (*model.Node, error) {
	node := doc.NodeAt(s.Pos)
	if node == nil || node.IsText() {
		return nil, fmt.Errorf("%w: %d", ErrNoNode, s.Pos)
	}
	updated, err := node.WithAttrs(s.Attrs)
	if err != nil {
		return nil, err
	}
	return doc.ReplaceNodeAt(s.Pos, updated)
}

// Invert implements Step.
func (s *SetAttrsStep) Invert(doc *model.Node) Step {
	node := doc.NodeAt(s.Pos)
	if node == nil {
		return NewSetAttrsStep(s.Pos, nil)
	}
	return NewSetAttrsStep(s.Pos, node.Attrs().Clone())
}

// Map implements Step.
func (s *SetAttrsStep) Map(m Mappable) Step {
	r := m.MapResult(s.Pos, 1)
	if r.DeletedAfter() {
		return nil
	}
	return NewSetAttrsStep(r.Pos, s.Attrs)
}

// GetMap implements Step.
func (s *SetAttrsStep) GetMap() *StepMap { return EmptyStepMap }

// String implements fmt.Stringer.
func (s *SetAttrsStep) String() string {
	return fmt.Sprintf("setAttrs(%d, %v)", s.Pos, s.Attrs)
}
