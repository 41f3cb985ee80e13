package model

// NodeType identifies the kind of a node. The set is closed.
type NodeType uint8

const (
	// TypeText is an inline run of text carrying a mark set.
	TypeText NodeType = iota

	// TypeParagraph is a plain text block.
	TypeParagraph

	// TypeHeading is a text block with a level attribute (1-6) and an id.
	TypeHeading

	// TypeTitle is a dedicated document title text block.
	TypeTitle

	// TypeBlockQuote wraps one or more blocks.
	TypeBlockQuote

	// TypeListItem wraps one or more blocks inside a list.
	TypeListItem

	// TypeBulletList holds list items.
	TypeBulletList

	// TypeOrderedList holds list items and has a start attribute.
	TypeOrderedList

	// TypeCodeBlock is a text block whose text never carries marks.
	TypeCodeBlock

	// TypeHorizontalRule is a leaf block.
	TypeHorizontalRule

	// TypeRoot is the document node.
	TypeRoot

	numNodeTypes
)

// ContentRule describes what a node type may contain.
type ContentRule uint8

const (
	// ContentNone is for leaves.
	ContentNone ContentRule = iota

	// ContentInline allows zero or more text nodes.
	ContentInline

	// ContentBlocks allows zero or more block nodes.
	ContentBlocks

	// ContentBlocksRequired allows one or more block nodes.
	ContentBlocksRequired

	// ContentListItems allows one or more list items.
	ContentListItems
)

// String returns the rule in content-expression form.
func (r ContentRule) String() string {
	switch r {
	case ContentNone:
		return "none"
	case ContentInline:
		return "inline*"
	case ContentBlocks:
		return "block*"
	case ContentBlocksRequired:
		return "block+"
	case ContentListItems:
		return "listItem+"
	default:
		return "unknown"
	}
}

// NodeSpec is the behavior table entry for a node type.
type NodeSpec struct {
	// Name is the serialized type name.
	Name string

	// Content is the content rule.
	Content ContentRule

	// Block reports whether the type belongs to the block group.
	Block bool

	// AllowsMarks reports whether inline content may carry marks.
	AllowsMarks bool

	// Defaults are merged under explicit attributes on creation.
	Defaults Attrs

	// Validate checks attribute values. Nil means any attributes are accepted.
	Validate func(Attrs) error
}

var nodeSpecs = [numNodeTypes]NodeSpec{
	TypeText: {
		Name:    "text",
		Content: ContentNone,
	},
	TypeParagraph: {
		Name:        "paragraph",
		Content:     ContentInline,
		Block:       true,
		AllowsMarks: true,
	},
	TypeHeading: {
		Name:        "heading",
		Content:     ContentInline,
		Block:       true,
		AllowsMarks: true,
		Defaults:    Attrs{AttrLevel: 1},
		Validate:    validateHeading,
	},
	TypeTitle: {
		Name:        "title",
		Content:     ContentInline,
		Block:       true,
		AllowsMarks: true,
	},
	TypeBlockQuote: {
		Name:    "blockQuote",
		Content: ContentBlocksRequired,
		Block:   true,
	},
	TypeListItem: {
		Name:    "listItem",
		Content: ContentBlocksRequired,
		Block:   true,
	},
	TypeBulletList: {
		Name:    "bulletList",
		Content: ContentListItems,
		Block:   true,
	},
	TypeOrderedList: {
		Name:     "orderedList",
		Content:  ContentListItems,
		Block:    true,
		Defaults: Attrs{AttrStart: 1},
		Validate: validateOrderedList,
	},
	TypeCodeBlock: {
		Name:    "codeBlock",
		Content: ContentInline,
		Block:   true,
	},
	TypeHorizontalRule: {
		Name:    "horizontalRule",
		Content: ContentNone,
		Block:   true,
	},
	TypeRoot: {
		Name:    "doc",
		Content: ContentBlocks,
	},
}

// Spec returns the behavior table entry for t.
func (t NodeType) Spec() NodeSpec {
	if t >= numNodeTypes {
		return NodeSpec{Name: "unknown"}
	}
	return nodeSpecs[t]
}

// String returns the serialized type name.
func (t NodeType) String() string {
	return t.Spec().Name
}

// ParseNodeType returns the type with the given serialized name.
func ParseNodeType(name string) (NodeType, bool) {
	for t := NodeType(0); t < numNodeTypes; t++ {
		if nodeSpecs[t].Name == name {
			return t, true
		}
	}
	return 0, false
}

// IsBlock reports whether t belongs to the block group.
func (t NodeType) IsBlock() bool {
	return t.Spec().Block
}

// IsTextblock reports whether t is a block with inline content.
func (t NodeType) IsTextblock() bool {
	s := t.Spec()
	return s.Block && s.Content == ContentInline
}

// IsLeaf reports whether t can have no content.
func (t NodeType) IsLeaf() bool {
	return t.Spec().Content == ContentNone
}

// compatibleContent reports whether content of one type can be joined onto
// another.
func compatibleContent(a, b NodeType) bool {
	return a == b || a.Spec().Content == b.Spec().Content
}

// validContent checks a fragment against the content rule of t.
func validContent(t NodeType, content *Fragment) error {
	spec := t.Spec()
	switch spec.Content {
	case ContentNone:
		if content.Size() > 0 {
			return schemaErrorf("%s cannot have content", spec.Name)
		}
	case ContentInline:
		for _, child := range content.nodes {
			if !child.IsText() {
				return schemaErrorf("%s cannot contain %s", spec.Name, child.typ)
			}
			if !spec.AllowsMarks && len(child.marks) > 0 {
				return schemaErrorf("%s does not allow marks", spec.Name)
			}
		}
	case ContentBlocks, ContentBlocksRequired:
		for _, child := range content.nodes {
			if !child.typ.IsBlock() {
				return schemaErrorf("%s cannot contain %s", spec.Name, child.typ)
			}
		}
		if spec.Content == ContentBlocksRequired && content.ChildCount() == 0 {
			return schemaErrorf("%s requires at least one block", spec.Name)
		}
	case ContentListItems:
		for _, child := range content.nodes {
			if child.typ != TypeListItem {
				return schemaErrorf("%s cannot contain %s", spec.Name, child.typ)
			}
		}
		if content.ChildCount() == 0 {
			return schemaErrorf("%s requires at least one list item", spec.Name)
		}
	}
	return nil
}

func validateAttrs(t NodeType, attrs Attrs) error {
	if v := t.Spec().Validate; v != nil {
		return v(attrs)
	}
	return nil
}

func validateHeading(attrs Attrs) error {
	level, ok := attrs.Int(AttrLevel)
	if !ok || level < 1 || level > 6 {
		return schemaErrorf("heading level must be 1-6, got %v", attrs[AttrLevel])
	}
	if id, ok := attrs[AttrID]; ok && id != nil {
		if _, isString := id.(string); !isString {
			return schemaErrorf("heading id must be a string, got %T", id)
		}
	}
	return nil
}

func validateOrderedList(attrs Attrs) error {
	start, ok := attrs.Int(AttrStart)
	if !ok || start < 1 {
		return schemaErrorf("ordered list start must be >= 1, got %v", attrs[AttrStart])
	}
	return nil
}
