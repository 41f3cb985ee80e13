package model

import "unicode/utf8"

// Create builds a validated node of type t. Defaults of the type are merged
// under attrs, and the children are checked against the content rule.
func Create(t NodeType, attrs Attrs, content ...*Node) (*Node, error) {
	if t >= numNodeTypes {
		return nil, ErrUnknownType
	}
	if t == TypeText {
		return nil, schemaErrorf("text nodes are created with NewText")
	}
	merged := mergeAttrs(t, attrs)
	if err := validateAttrs(t, merged); err != nil {
		return nil, err
	}
	frag := NewFragment(content...)
	if err := validContent(t, frag); err != nil {
		return nil, err
	}
	return &Node{typ: t, attrs: merged, content: frag}, nil
}

// NewNode is Create for content known to be valid. It panics on a schema
// violation and is meant for literals and tests.
func NewNode(t NodeType, attrs Attrs, content ...*Node) *Node {
	n, err := Create(t, attrs, content...)
	if err != nil {
		panic(err)
	}
	return n
}

// NewText creates a text node. Empty text produces a node that fragments
// drop.
func NewText(text string, marks ...Mark) *Node {
	return &Node{
		typ:   TypeText,
		text:  text,
		runes: utf8.RuneCountInString(text),
		marks: NewMarkSet(marks...),
	}
}

func textChildren(text string, marks ...Mark) []*Node {
	if text == "" {
		return nil
	}
	return []*Node{NewText(text, marks...)}
}

// NewDoc creates a root node.
func NewDoc(blocks ...*Node) *Node {
	return NewNode(TypeRoot, nil, blocks...)
}

// NewParagraph creates a paragraph holding text with the given marks.
func NewParagraph(text string, marks ...Mark) *Node {
	return NewNode(TypeParagraph, nil, textChildren(text, marks...)...)
}

// NewHeading creates a heading of the given level.
func NewHeading(level int, text string) *Node {
	return NewNode(TypeHeading, Attrs{AttrLevel: level}, textChildren(text)...)
}

// NewHeadingWithID creates a heading with a stable id.
func NewHeadingWithID(level int, id, text string) *Node {
	return NewNode(TypeHeading, Attrs{AttrLevel: level, AttrID: id}, textChildren(text)...)
}

// NewTitle creates a title block.
func NewTitle(text string) *Node {
	return NewNode(TypeTitle, nil, textChildren(text)...)
}

// NewBlockQuote creates a block quote.
func NewBlockQuote(blocks ...*Node) *Node {
	return NewNode(TypeBlockQuote, nil, blocks...)
}

// NewListItem creates a list item.
func NewListItem(blocks ...*Node) *Node {
	return NewNode(TypeListItem, nil, blocks...)
}

// NewBulletList creates a bullet list.
func NewBulletList(items ...*Node) *Node {
	return NewNode(TypeBulletList, nil, items...)
}

// NewOrderedList creates an ordered list counting from start.
func NewOrderedList(start int, items ...*Node) *Node {
	return NewNode(TypeOrderedList, Attrs{AttrStart: start}, items...)
}

// NewCodeBlock creates a code block.
func NewCodeBlock(text string) *Node {
	return NewNode(TypeCodeBlock, nil, textChildren(text)...)
}

// NewHorizontalRule creates a horizontal rule.
func NewHorizontalRule() *Node {
	return NewNode(TypeHorizontalRule, nil)
}
