package model

// pathEntry is one level of a resolved position: the ancestor node, the
// index of the child the position points into, and the absolute position at
// which that child starts.
type pathEntry struct {
	node  *Node
	index int
	start int
}

// ResolvedPos is a position with its ancestor chain. It is computed on
// demand by Resolve and never stored in the tree.
type ResolvedPos struct {
	// Pos is the absolute position.
	Pos int

	// Depth is the number of ancestors below the root.
	Depth int

	// ParentOffset is the offset of the position into its parent's content.
	ParentOffset int

	path []pathEntry
}

// Resolve resolves pos in the node, which is normally the document root.
func (n *Node) Resolve(pos int) (*ResolvedPos, error) {
	if pos < 0 || pos > n.content.Size() {
		return nil, outOfRange(pos, n.content.Size())
	}
	var path []pathEntry
	start := 0
	parentOffset := pos
	node := n
	for {
		index, offset := node.content.findIndex(parentOffset, 0)
		rem := parentOffset - offset
		path = append(path, pathEntry{node: node, index: index, start: start + offset})
		if rem == 0 {
			break
		}
		node = node.Child(index)
		if node.IsText() {
			break
		}
		parentOffset = rem - 1
		start += offset + 1
	}
	return &ResolvedPos{
		Pos:          pos,
		Depth:        len(path) - 1,
		ParentOffset: parentOffset,
		path:         path,
	}, nil
}

// MustResolve is Resolve for positions known to be valid. It panics on error.
func (n *Node) MustResolve(pos int) *ResolvedPos {
	r, err := n.Resolve(pos)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *ResolvedPos) depth(d []int) int {
	if len(d) == 0 {
		return r.Depth
	}
	if d[0] < 0 {
		return r.Depth + d[0]
	}
	return d[0]
}

// Node returns the ancestor at depth d. Depth 0 is the root.
func (r *ResolvedPos) Node(d int) *Node {
	return r.path[d].node
}

// Parent returns the innermost ancestor.
func (r *ResolvedPos) Parent() *Node {
	return r.path[r.Depth].node
}

// Doc returns the root node.
func (r *ResolvedPos) Doc() *Node {
	return r.path[0].node
}

// Ancestors returns the ancestor chain from the root to the parent.
func (r *ResolvedPos) Ancestors() []*Node {
	out := make([]*Node, len(r.path))
	for i, e := range r.path {
		out[i] = e.node
	}
	return out
}

// Index returns the index into the ancestor at the given depth. Without an
// argument the innermost depth is used.
func (r *ResolvedPos) Index(d ...int) int {
	return r.path[r.depth(d)].index
}

// IndexAfter returns the index pointing after the position in the ancestor
// at the given depth.
func (r *ResolvedPos) IndexAfter(d ...int) int {
	depth := r.depth(d)
	if depth == r.Depth && r.TextOffset() == 0 {
		return r.path[depth].index
	}
	return r.path[depth].index + 1
}

// Start returns the absolute position at which the ancestor at the given
// depth starts its content.
func (r *ResolvedPos) Start(d ...int) int {
	depth := r.depth(d)
	if depth == 0 {
		return 0
	}
	return r.path[depth-1].start + 1
}

// End returns the absolute position at which the ancestor at the given depth
// ends its content.
func (r *ResolvedPos) End(d ...int) int {
	depth := r.depth(d)
	return r.Start(depth) + r.Node(depth).content.Size()
}

// Before returns the position directly before the ancestor at the given
// depth. Depth must be at least 1.
func (r *ResolvedPos) Before(d ...int) int {
	depth := r.depth(d)
	if depth == 0 {
		panic("model: no position before the top-level node")
	}
	if depth == r.Depth+1 {
		return r.Pos
	}
	return r.path[depth-1].start
}

// After returns the position directly after the ancestor at the given depth.
// Depth must be at least 1.
func (r *ResolvedPos) After(d ...int) int {
	depth := r.depth(d)
	if depth == 0 {
		panic("model: no position after the top-level node")
	}
	if depth == r.Depth+1 {
		return r.Pos
	}
	return r.path[depth-1].start + r.Node(depth).NodeSize()
}

// TextOffset returns the offset into a text node when the position points
// inside one, otherwise zero.
func (r *ResolvedPos) TextOffset() int {
	return r.Pos - r.path[len(r.path)-1].start
}

// NodeAfter returns the node directly after the position. Inside a text node
// the remaining part of the text is returned.
func (r *ResolvedPos) NodeAfter() *Node {
	parent := r.Parent()
	index := r.Index()
	if index == parent.ChildCount() {
		return nil
	}
	child := parent.Child(index)
	if off := r.TextOffset(); off > 0 {
		return child.cut(off, child.runes)
	}
	return child
}

// NodeBefore returns the node directly before the position. Inside a text
// node the leading part of the text is returned.
func (r *ResolvedPos) NodeBefore() *Node {
	parent := r.Parent()
	index := r.Index()
	if off := r.TextOffset(); off > 0 {
		return parent.Child(index).cut(0, off)
	}
	if index == 0 {
		return nil
	}
	return parent.Child(index - 1)
}

// SharedDepth returns the depth of the deepest ancestor that also contains
// pos.
func (r *ResolvedPos) SharedDepth(pos int) int {
	for d := r.Depth; d > 0; d-- {
		if r.Start(d) <= pos && r.End(d) >= pos {
			return d
		}
	}
	return 0
}

// Marks returns the marks of the text at the position. Between two text
// nodes the marks of the preceding one win.
func (r *ResolvedPos) Marks() MarkSet {
	parent := r.Parent()
	if parent.content.Size() == 0 {
		return nil
	}
	index := r.Index()
	if r.TextOffset() > 0 {
		return parent.Child(index).marks
	}
	if before := parent.MaybeChild(index - 1); before != nil {
		return before.marks
	}
	if after := parent.MaybeChild(index); after != nil {
		return after.marks
	}
	return nil
}
