package transform

import "fmt"

// Selection is a range of the document. Anchor is where the selection
// started and Head is where the cursor is. When Anchor == Head the
// selection is a cursor. Selection is an immutable value type.
type Selection struct {
	Anchor int
	Head   int
}

// NewSelection creates a selection from anchor to head.
func NewSelection(anchor, head int) Selection {
	return Selection{Anchor: anchor, Head: head}
}

// Cursor creates a collapsed selection at pos.
func Cursor(pos int) Selection {
	return Selection{Anchor: pos, Head: pos}
}

// IsEmpty reports whether the selection is a cursor.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Head
}

// From returns the lower bound of the selection.
func (s Selection) From() int {
	return min(s.Anchor, s.Head)
}

// To returns the upper bound of the selection.
func (s Selection) To() int {
	return max(s.Anchor, s.Head)
}

// Contains reports whether pos lies in [From, To].
func (s Selection) Contains(pos int) bool {
	return pos >= s.From() && pos <= s.To()
}

// Clamp returns a selection clamped to [0, size].
func (s Selection) Clamp(size int) Selection {
	return Selection{
		Anchor: min(max(s.Anchor, 0), size),
		Head:   min(max(s.Head, 0), size),
	}
}

// Map projects the selection through a mapping. A cursor keeps its side of
// an insertion at the cursor; a range shrinks away from content inserted at
// its edges.
func (s Selection) Map(m Mappable) Selection {
	if s.IsEmpty() {
		return Cursor(m.Map(s.Head, 1))
	}
	if s.Anchor <= s.Head {
		return Selection{Anchor: m.Map(s.Anchor, 1), Head: m.Map(s.Head, -1)}
	}
	return Selection{Anchor: m.Map(s.Anchor, -1), Head: m.Map(s.Head, 1)}
}

// String returns a string representation of the selection.
func (s Selection) String() string {
	if s.IsEmpty() {
		return fmt.Sprintf("Cursor(%d)", s.Head)
	}
	return fmt.Sprintf("Selection(%d->%d)", s.Anchor, s.Head)
}
