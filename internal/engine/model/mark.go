package model

import (
	"fmt"
	"sort"
	"strings"
)

// MarkType identifies a kind of mark. The set is closed.
type MarkType uint8

const (
	MarkBold MarkType = iota
	MarkItalic
	MarkStrike
	MarkCode
	MarkLink
	MarkHighlight
	MarkTextColor

	// MarkSelectionTag is an ephemeral mark carrying an id. It tags text
	// while an external request is in flight and must be stripped by id.
	MarkSelectionTag

	numMarkTypes
)

// markSpec is the behavior table entry for a mark type.
type markSpec struct {
	name string

	// attr is the serialized attribute name of the mark's value, or "" if
	// the mark carries no value.
	attr string

	// exclusive marks replace other marks of the same type.
	exclusive bool
}

var markSpecs = [numMarkTypes]markSpec{
	MarkBold:         {name: "bold"},
	MarkItalic:       {name: "italic"},
	MarkStrike:       {name: "strike"},
	MarkCode:         {name: "code"},
	MarkLink:         {name: "link", attr: "href", exclusive: true},
	MarkHighlight:    {name: "highlight", attr: "color", exclusive: true},
	MarkTextColor:    {name: "textColor", attr: "color", exclusive: true},
	MarkSelectionTag: {name: "selectionTag", attr: "id"},
}

// String returns the serialized mark type name.
func (t MarkType) String() string {
	if t >= numMarkTypes {
		return "unknown"
	}
	return markSpecs[t].name
}

// ParseMarkType returns the mark type with the given serialized name.
func ParseMarkType(name string) (MarkType, bool) {
	for t := MarkType(0); t < numMarkTypes; t++ {
		if markSpecs[t].name == name {
			return t, true
		}
	}
	return 0, false
}

// Mark is a formatting or semantic tag on a run of text. Value holds the
// mark's single attribute: href for links, color for highlight and text
// color, id for selection tags.
type Mark struct {
	Type  MarkType
	Value string
}

// NewMark creates a mark.
func NewMark(t MarkType, value string) Mark {
	return Mark{Type: t, Value: value}
}

// String returns a compact representation such as "link(https://x)".
func (m Mark) String() string {
	if m.Value == "" {
		return m.Type.String()
	}
	return fmt.Sprintf("%s(%s)", m.Type, m.Value)
}

func (m Mark) less(o Mark) bool {
	if m.Type != o.Type {
		return m.Type < o.Type
	}
	return m.Value < o.Value
}

// MarkSet is a sorted, deduplicated set of marks. A MarkSet is never
// modified in place; all methods return new sets.
type MarkSet []Mark

// NewMarkSet builds a set from marks in any order.
func NewMarkSet(marks ...Mark) MarkSet {
	var set MarkSet
	for _, m := range marks {
		set = set.Add(m)
	}
	return set
}

// Add returns the set with m added. Exclusive mark types replace any mark of
// the same type.
func (s MarkSet) Add(m Mark) MarkSet {
	if s.Contains(m) {
		return s
	}
	out := make(MarkSet, 0, len(s)+1)
	for _, existing := range s {
		if existing.Type == m.Type && markSpecs[m.Type].exclusive {
			continue
		}
		out = append(out, existing)
	}
	out = append(out, m)
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}

// Remove returns the set without m.
func (s MarkSet) Remove(m Mark) MarkSet {
	if !s.Contains(m) {
		return s
	}
	out := make(MarkSet, 0, len(s)-1)
	for _, existing := range s {
		if existing != m {
			out = append(out, existing)
		}
	}
	return out
}

// RemoveType returns the set without any mark of type t.
func (s MarkSet) RemoveType(t MarkType) MarkSet {
	if !s.HasType(t) {
		return s
	}
	out := make(MarkSet, 0, len(s))
	for _, existing := range s {
		if existing.Type != t {
			out = append(out, existing)
		}
	}
	return out
}

// Contains reports whether m is in the set.
func (s MarkSet) Contains(m Mark) bool {
	for _, existing := range s {
		if existing == m {
			return true
		}
	}
	return false
}

// HasType reports whether the set holds a mark of type t.
func (s MarkSet) HasType(t MarkType) bool {
	for _, existing := range s {
		if existing.Type == t {
			return true
		}
	}
	return false
}

// Eq reports whether two sets hold the same marks.
func (s MarkSet) Eq(o MarkSet) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// String returns the marks joined with commas.
func (s MarkSet) String() string {
	parts := make([]string, len(s))
	for i, m := range s {
		parts[i] = m.String()
	}
	return strings.Join(parts, ",")
}
