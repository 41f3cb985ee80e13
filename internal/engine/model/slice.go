package model

import "fmt"

// Slice is a piece of document content. OpenStart and OpenEnd count how many
// nodes on each side are open, meaning the slice cuts through them.
type Slice struct {
	Content   *Fragment
	OpenStart int
	OpenEnd   int
}

// EmptySlice is the slice with no content.
var EmptySlice = &Slice{Content: EmptyFragment}

// NewSlice creates a slice.
func NewSlice(content *Fragment, openStart, openEnd int) *Slice {
	if content == nil {
		content = EmptyFragment
	}
	return &Slice{Content: content, OpenStart: openStart, OpenEnd: openEnd}
}

// SliceOf wraps closed nodes in a slice with no open sides.
func SliceOf(nodes ...*Node) *Slice {
	return NewSlice(NewFragment(nodes...), 0, 0)
}

func (s *Slice) content() *Fragment {
	if s == nil || s.Content == nil {
		return EmptyFragment
	}
	return s.Content
}

// Size returns the size the slice adds when inserted.
func (s *Slice) Size() int {
	if s == nil {
		return 0
	}
	return s.content().Size() - s.OpenStart - s.OpenEnd
}

// Eq reports whether two slices are equal.
func (s *Slice) Eq(o *Slice) bool {
	return s.content().Eq(o.content()) && s.openStart() == o.openStart() && s.openEnd() == o.openEnd()
}

func (s *Slice) openStart() int {
	if s == nil {
		return 0
	}
	return s.OpenStart
}

func (s *Slice) openEnd() int {
	if s == nil {
		return 0
	}
	return s.OpenEnd
}

// String returns a debug form such as <paragraph("a")>(1,1).
func (s *Slice) String() string {
	return fmt.Sprintf("%s(%d,%d)", s.content(), s.openStart(), s.openEnd())
}
