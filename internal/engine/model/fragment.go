package model

import "strings"

// Fragment is an immutable ordered sequence of child nodes with a cached
// size. Adjacent text nodes with identical marks are always merged and empty
// text nodes are dropped.
type Fragment struct {
	nodes []*Node
	size  int
}

// EmptyFragment is the fragment with no children.
var EmptyFragment = &Fragment{}

// NewFragment builds a normalized fragment from nodes. Nil nodes are skipped.
func NewFragment(nodes ...*Node) *Fragment {
	if len(nodes) == 0 {
		return EmptyFragment
	}
	out := make([]*Node, 0, len(nodes))
	size := 0
	for _, n := range nodes {
		if n == nil || (n.IsText() && n.runes == 0) {
			continue
		}
		if last := len(out) - 1; last >= 0 && n.IsText() && out[last].IsText() && out[last].marks.Eq(n.marks) {
			out[last] = out[last].withText(out[last].text + n.text)
		} else {
			out = append(out, n)
		}
		size += n.NodeSize()
	}
	if len(out) == 0 {
		return EmptyFragment
	}
	return &Fragment{nodes: out, size: size}
}

// Size returns the total size of the fragment's children.
func (f *Fragment) Size() int {
	if f == nil {
		return 0
	}
	return f.size
}

// ChildCount returns the number of children.
func (f *Fragment) ChildCount() int {
	if f == nil {
		return 0
	}
	return len(f.nodes)
}

// Child returns the child at index i. It panics if i is out of range.
func (f *Fragment) Child(i int) *Node {
	return f.nodes[i]
}

// MaybeChild returns the child at index i or nil.
func (f *Fragment) MaybeChild(i int) *Node {
	if f == nil || i < 0 || i >= len(f.nodes) {
		return nil
	}
	return f.nodes[i]
}

// FirstChild returns the first child or nil.
func (f *Fragment) FirstChild() *Node {
	return f.MaybeChild(0)
}

// LastChild returns the last child or nil.
func (f *Fragment) LastChild() *Node {
	return f.MaybeChild(f.ChildCount() - 1)
}

// Children returns a copy of the child slice.
func (f *Fragment) Children() []*Node {
	if f == nil {
		return nil
	}
	out := make([]*Node, len(f.nodes))
	copy(out, f.nodes)
	return out
}

// Append returns a fragment holding f's children followed by other's.
func (f *Fragment) Append(other *Fragment) *Fragment {
	if other.Size() == 0 {
		return f
	}
	if f.Size() == 0 {
		return other
	}
	nodes := make([]*Node, 0, len(f.nodes)+len(other.nodes))
	nodes = append(nodes, f.nodes...)
	nodes = append(nodes, other.nodes...)
	return NewFragment(nodes...)
}

// ReplaceChild returns a fragment with the child at index i replaced.
func (f *Fragment) ReplaceChild(i int, node *Node) *Fragment {
	if f.nodes[i] == node {
		return f
	}
	nodes := f.Children()
	nodes[i] = node
	return NewFragment(nodes...)
}

// Cut returns the part of the fragment between two content offsets.
func (f *Fragment) Cut(from, to int) *Fragment {
	if from == 0 && to == f.Size() {
		return f
	}
	var result []*Node
	if to > from {
		pos := 0
		for i := 0; i < f.ChildCount() && pos < to; i++ {
			child := f.nodes[i]
			end := pos + child.NodeSize()
			if end > from {
				if pos < from || end > to {
					if child.IsText() {
						child = child.cut(max(0, from-pos), min(child.runes, to-pos))
					} else {
						child = child.cut(max(0, from-pos-1), min(child.content.Size(), to-pos-1))
					}
				}
				result = append(result, child)
			}
			pos = end
		}
	}
	return NewFragment(result...)
}

// Eq reports whether two fragments hold structurally equal children.
func (f *Fragment) Eq(other *Fragment) bool {
	if f.ChildCount() != other.ChildCount() {
		return false
	}
	for i := 0; i < f.ChildCount(); i++ {
		if !f.nodes[i].Eq(other.nodes[i]) {
			return false
		}
	}
	return true
}

// findIndex locates the child containing content offset pos. It returns the
// child index and the offset at which that child starts. With round > 0 a
// position inside a child rounds to the next index.
func (f *Fragment) findIndex(pos int, round int) (index, offset int) {
	if pos == 0 {
		return 0, 0
	}
	if pos == f.Size() {
		return f.ChildCount(), pos
	}
	cur := 0
	for i, child := range f.nodes {
		end := cur + child.NodeSize()
		if end >= pos {
			if end == pos || round > 0 {
				return i + 1, end
			}
			return i, cur
		}
		cur = end
	}
	return f.ChildCount(), f.Size()
}

// nodesBetween calls fn for every node overlapping [from, to), depth first.
// Returning false from fn skips the node's children.
func (f *Fragment) nodesBetween(from, to int, fn func(node *Node, pos int, parent *Node, index int) bool, nodeStart int, parent *Node) {
	pos := 0
	for i := 0; i < f.ChildCount() && pos < to; i++ {
		child := f.nodes[i]
		end := pos + child.NodeSize()
		if end > from && fn(child, nodeStart+pos, parent, i) && child.content.Size() > 0 {
			start := pos + 1
			child.content.nodesBetween(max(0, from-start), min(child.content.Size(), to-start), fn, nodeStart+start, child)
		}
		pos = end
	}
}

// descend walks all descendants depth first, stopping when yield returns
// false. It reports whether the walk completed.
func (f *Fragment) descend(start int, yield func(*Node, int) bool) bool {
	pos := start
	for _, child := range f.nodes {
		if !yield(child, pos) {
			return false
		}
		if child.content.Size() > 0 && !child.content.descend(pos+1, yield) {
			return false
		}
		pos += child.NodeSize()
	}
	return true
}

// textBetween concatenates text between two content offsets, inserting sep
// between text blocks and non-empty leaf blocks.
func (f *Fragment) textBetween(from, to int, sep string) string {
	var b strings.Builder
	first := true
	f.nodesBetween(from, to, func(node *Node, pos int, _ *Node, _ int) bool {
		var text string
		if node.IsText() {
			text = node.cut(max(from, pos)-pos, min(node.runes, to-pos)).text
		}
		if node.IsBlock() && node.IsTextblock() && sep != "" {
			if first {
				first = false
			} else {
				b.WriteString(sep)
			}
		}
		b.WriteString(text)
		return true
	}, 0, nil)
	return b.String()
}

// String returns a compact debug form such as <heading("Title"), paragraph>.
func (f *Fragment) String() string {
	parts := make([]string, f.ChildCount())
	for i := 0; i < f.ChildCount(); i++ {
		parts[i] = f.nodes[i].String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}
