// Package decoration computes display annotations for an editor state.
//
// Decorations are never stored. Compute derives them from the document,
// the selection and plugin state on every read, so a stale range can only
// ever produce a missing decoration, never an error.
package decoration

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
)

// Kind is the kind of decoration.
type Kind uint8

const (
	// KindNode decorates a whole node. From and To span the node.
	KindNode Kind = iota

	// KindInline decorates the inline content in [From, To).
	KindInline
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindInline:
		return "inline"
	default:
		return "unknown"
	}
}

// Priority orders decorations that start at the same position.
// Higher priority decorations are rendered on top.
type Priority uint8

const (
	PriorityLow    Priority = 50
	PriorityNormal Priority = 100
	PriorityHigh   Priority = 150
)

// Well-known attribute names.
const (
	AttrClass       = "class"
	AttrPlaceholder = "data-placeholder"
)

// Decoration is a display annotation over a document range.
type Decoration struct {
	Kind     Kind
	From     int
	To       int
	Priority Priority

	// Source names the producer, e.g. "placeholder".
	Source string

	// Attrs are the display attributes to apply.
	Attrs map[string]string
}

// Class returns the class attribute.
func (d Decoration) Class() string { return d.Attrs[AttrClass] }

// Classes returns the class attribute split on spaces.
func (d Decoration) Classes() []string { return strings.Fields(d.Attrs[AttrClass]) }

// Placeholder returns the placeholder text attribute.
func (d Decoration) Placeholder() string { return d.Attrs[AttrPlaceholder] }

// Overlaps reports whether the decoration intersects [from, to]. An empty
// query range matches decorations that contain its position.
func (d Decoration) Overlaps(from, to int) bool {
	if from == to {
		return d.From <= from && from <= d.To
	}
	return d.From < to && d.To > from
}

// Eq reports whether two decorations are identical.
func (d Decoration) Eq(o Decoration) bool {
	return d.Kind == o.Kind && d.From == o.From && d.To == o.To &&
		d.Priority == o.Priority && d.Source == o.Source && maps.Equal(d.Attrs, o.Attrs)
}

// String returns a description such as "inline(14,19 class=x)".
func (d Decoration) String() string {
	keys := slices.Sorted(maps.Keys(d.Attrs))
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%d,%d", d.Kind, d.From, d.To)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%q", k, d.Attrs[k])
	}
	b.WriteByte(')')
	return b.String()
}

// Set is an ordered, immutable collection of decorations.
type Set struct {
	decos []Decoration
}

// Empty is the set without decorations.
var Empty = &Set{}

// NewSet returns a set holding decos ordered by start, end and priority.
func NewSet(decos ...Decoration) *Set {
	if len(decos) == 0 {
		return Empty
	}
	sorted := slices.Clone(decos)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Priority > b.Priority
	})
	return &Set{decos: sorted}
}

// Len returns the number of decorations.
func (s *Set) Len() int { return len(s.decos) }

// All returns the decorations in order.
func (s *Set) All() []Decoration { return slices.Clone(s.decos) }

// Find returns the decorations overlapping [from, to].
func (s *Set) Find(from, to int) []Decoration {
	var out []Decoration
	for _, d := range s.decos {
		if d.From > to {
			break
		}
		if d.Overlaps(from, to) {
			out = append(out, d)
		}
	}
	return out
}

// BySource returns the decorations produced by source.
func (s *Set) BySource(source string) []Decoration {
	var out []Decoration
	for _, d := range s.decos {
		if d.Source == source {
			out = append(out, d)
		}
	}
	return out
}

// Eq reports whether two sets hold the same decorations in the same order.
func (s *Set) Eq(o *Set) bool {
	return slices.EqualFunc(s.decos, o.decos, Decoration.Eq)
}

// String returns the decorations separated by spaces.
func (s *Set) String() string {
	parts := make([]string, len(s.decos))
	for i, d := range s.decos {
		parts[i] = d.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
