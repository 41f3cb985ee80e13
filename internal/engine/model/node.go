package model

import (
	"fmt"
	"iter"
	"strconv"
	"unicode/utf8"
)

// Node is an immutable element of the document tree. Text nodes carry a
// string and a mark set; all other nodes carry attributes and a content
// fragment. Nodes are shared between document revisions and never mutated.
type Node struct {
	typ     NodeType
	attrs   Attrs
	content *Fragment
	text    string
	runes   int
	marks   MarkSet
}

// Type returns the node type.
func (n *Node) Type() NodeType { return n.typ }

// Attrs returns the node's attributes. The returned map must not be modified.
func (n *Node) Attrs() Attrs { return n.attrs }

// Attr returns a single attribute value.
func (n *Node) Attr(key string) any { return n.attrs[key] }

// Marks returns the marks of a text node.
func (n *Node) Marks() MarkSet { return n.marks }

// Text returns the text of a text node, or "" for other nodes.
func (n *Node) Text() string { return n.text }

// Content returns the node's children.
func (n *Node) Content() *Fragment {
	if n.content == nil {
		return EmptyFragment
	}
	return n.content
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.typ == TypeText }

// IsBlock reports whether n is a block node.
func (n *Node) IsBlock() bool { return n.typ.IsBlock() }

// IsTextblock reports whether n is a block holding inline content.
func (n *Node) IsTextblock() bool { return n.typ.IsTextblock() }

// IsLeaf reports whether n cannot have content.
func (n *Node) IsLeaf() bool { return n.typ.IsLeaf() }

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return n.content.ChildCount() }

// Child returns the child at index i.
func (n *Node) Child(i int) *Node { return n.content.Child(i) }

// MaybeChild returns the child at index i or nil.
func (n *Node) MaybeChild(i int) *Node { return n.content.MaybeChild(i) }

// FirstChild returns the first child or nil.
func (n *Node) FirstChild() *Node { return n.content.FirstChild() }

// NodeSize returns the size the node occupies in its parent. Text counts
// runes, leaves count one and other nodes count their content plus two.
func (n *Node) NodeSize() int {
	switch {
	case n.IsText():
		return n.runes
	case n.IsLeaf():
		return 1
	default:
		return n.content.Size() + 2
	}
}

// ContentSize returns the size of the node's content. For the root node
// this is the document size.
func (n *Node) ContentSize() int { return n.content.Size() }

// TextContent concatenates all text in the node without separators.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.text
	}
	return n.content.textBetween(0, n.content.Size(), "")
}

// TextBetween concatenates the text between two positions, inserting sep
// between text blocks. Positions are clamped to the node's content.
func (n *Node) TextBetween(from, to int, sep string) string {
	from = max(0, from)
	to = min(n.content.Size(), to)
	if from >= to {
		return ""
	}
	return n.content.textBetween(from, to, sep)
}

// NodeAt returns the node starting directly after pos, or nil.
func (n *Node) NodeAt(pos int) *Node {
	node := n
	for {
		index, offset := node.content.findIndex(pos, 0)
		child := node.content.MaybeChild(index)
		if child == nil {
			return nil
		}
		if offset == pos || child.IsText() {
			return child
		}
		node = child
		pos -= offset + 1
	}
}

// Descendants yields every descendant with its position, depth first. The
// sequence is lazy and may be stopped early with break.
func (n *Node) Descendants() iter.Seq2[*Node, int] {
	return func(yield func(*Node, int) bool) {
		n.content.descend(0, yield)
	}
}

// NodesBetween calls fn for every node overlapping [from, to) with its
// position, its parent and its index in the parent. Returning false skips
// the node's children.
func (n *Node) NodesBetween(from, to int, fn func(node *Node, pos int, parent *Node, index int) bool) {
	n.content.nodesBetween(from, to, fn, 0, n)
}

// Eq reports whether two nodes are structurally equal.
func (n *Node) Eq(o *Node) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil {
		return false
	}
	return n.SameMarkup(o) && n.text == o.text && n.content.Eq(o.content)
}

// SameMarkup reports whether two nodes have the same type, attributes and
// marks.
func (n *Node) SameMarkup(o *Node) bool {
	return n.HasMarkup(o.typ, o.attrs, o.marks)
}

// HasMarkup reports whether the node has the given type, attributes and marks.
func (n *Node) HasMarkup(t NodeType, attrs Attrs, marks MarkSet) bool {
	return n.typ == t && n.attrs.Equal(attrs) && n.marks.Eq(marks)
}

// Copy returns a node with the same markup and new content. The content is
// not validated.
func (n *Node) Copy(content *Fragment) *Node {
	if content == n.content {
		return n
	}
	c := *n
	c.content = content
	return &c
}

// WithAttrs returns a node with replaced attributes. The result is validated
// against the node type's attribute rules.
func (n *Node) WithAttrs(attrs Attrs) (*Node, error) {
	if n.IsText() {
		return nil, schemaErrorf("text nodes have no attributes")
	}
	merged := mergeAttrs(n.typ, attrs)
	if err := validateAttrs(n.typ, merged); err != nil {
		return nil, err
	}
	c := *n
	c.attrs = merged
	return &c, nil
}

// WithMarks returns a text node with a different mark set.
func (n *Node) WithMarks(marks MarkSet) *Node {
	if n.marks.Eq(marks) {
		return n
	}
	c := *n
	c.marks = marks
	return &c
}

func (n *Node) withText(text string) *Node {
	if text == n.text {
		return n
	}
	c := *n
	c.text = text
	c.runes = utf8.RuneCountInString(text)
	return &c
}

// cut returns the part of the node between two offsets into its content.
func (n *Node) cut(from, to int) *Node {
	if n.IsText() {
		if from == 0 && to == n.runes {
			return n
		}
		r := []rune(n.text)
		return n.withText(string(r[from:to]))
	}
	if from == 0 && to == n.content.Size() {
		return n
	}
	return n.Copy(n.content.Cut(from, to))
}

// Cut returns the node restricted to content between from and to.
func (n *Node) Cut(from, to int) *Node {
	return n.cut(from, to)
}

// Slice returns the content between two positions as a slice whose open
// depths reflect how deep the positions sit below their shared ancestor.
func (n *Node) Slice(from, to int) (*Slice, error) {
	if from == to {
		return EmptySlice, nil
	}
	rFrom, err := n.Resolve(from)
	if err != nil {
		return nil, err
	}
	rTo, err := n.Resolve(to)
	if err != nil {
		return nil, err
	}
	depth := rFrom.SharedDepth(to)
	start := rFrom.Start(depth)
	node := rFrom.Node(depth)
	content := node.content.Cut(rFrom.Pos-start, rTo.Pos-start)
	return NewSlice(content, rFrom.Depth-depth, rTo.Depth-depth), nil
}

// Replace replaces the content between from and to with slice and returns
// the new node. Every node closed by the replacement is checked against its
// content rule.
func (n *Node) Replace(from, to int, slice *Slice) (*Node, error) {
	rFrom, err := n.Resolve(from)
	if err != nil {
		return nil, err
	}
	rTo, err := n.Resolve(to)
	if err != nil {
		return nil, err
	}
	return replace(rFrom, rTo, slice)
}

// ReplaceNodeAt returns a copy of n with the non-text node starting at pos
// replaced by node. Ancestors are rebuilt along the path.
func (n *Node) ReplaceNodeAt(pos int, node *Node) (*Node, error) {
	r, err := n.Resolve(pos)
	if err != nil {
		return nil, err
	}
	target := r.NodeAfter()
	if target == nil || target.IsText() || r.TextOffset() != 0 {
		return nil, fmt.Errorf("%w: no node at %d", ErrOutOfRange, pos)
	}
	child := node
	for d := r.Depth; d >= 0; d-- {
		parent := r.Node(d)
		child = parent.Copy(parent.content.ReplaceChild(r.Index(d), child))
	}
	return child, nil
}

// Check validates the node and all descendants against the schema.
func (n *Node) Check() error {
	if n.IsText() {
		if n.runes == 0 {
			return schemaErrorf("empty text node")
		}
		return nil
	}
	if err := validateAttrs(n.typ, n.attrs); err != nil {
		return err
	}
	if err := validContent(n.typ, n.content); err != nil {
		return err
	}
	for _, child := range n.content.nodes {
		if err := child.Check(); err != nil {
			return err
		}
	}
	return nil
}

// String returns a compact debug form.
func (n *Node) String() string {
	if n.IsText() {
		s := strconv.Quote(n.text)
		if len(n.marks) > 0 {
			s = "[" + n.marks.String() + "]" + s
		}
		return s
	}
	name := n.typ.String()
	if n.content.Size() == 0 {
		return name
	}
	return name + "(" + n.content.String()[1:len(n.content.String())-1] + ")"
}
