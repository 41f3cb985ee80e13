package model

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ============================================================================
// Fixtures
// ============================================================================

// titleDoc is doc(heading("Title"), paragraph("Hello world")).
//
//	0 heading 1 T i t l e 6 /heading 7 paragraph 8 Hello world 19 /paragraph 20
func titleDoc() *Node {
	return NewDoc(NewHeading(1, "Title"), NewParagraph("Hello world"))
}

func nestedDoc() *Node {
	return NewDoc(
		NewHeading(1, "T"),
		NewBulletList(
			NewListItem(NewParagraph("one")),
			NewListItem(NewParagraph("two")),
		),
		NewBlockQuote(NewParagraph("q")),
		NewHorizontalRule(),
	)
}

// ============================================================================
// Construction and schema
// ============================================================================

func TestNodeSizes(t *testing.T) {
	doc := titleDoc()
	if got := doc.ContentSize(); got != 20 {
		t.Errorf("ContentSize() = %d, want 20", got)
	}
	if got := doc.Child(0).NodeSize(); got != 7 {
		t.Errorf("heading NodeSize() = %d, want 7", got)
	}
	if got := NewHorizontalRule().NodeSize(); got != 1 {
		t.Errorf("leaf NodeSize() = %d, want 1", got)
	}
	if got := NewText("héllo").NodeSize(); got != 5 {
		t.Errorf("text NodeSize() counts runes, got %d", got)
	}
}

func TestCreateSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		typ     NodeType
		attrs   Attrs
		content []*Node
	}{
		{"heading level too high", TypeHeading, Attrs{AttrLevel: 7}, nil},
		{"heading level zero", TypeHeading, Attrs{AttrLevel: 0}, nil},
		{"heading inside heading", TypeHeading, nil, []*Node{NewHeading(2, "x")}},
		{"empty list", TypeBulletList, nil, nil},
		{"paragraph in list", TypeBulletList, nil, []*Node{NewParagraph("x")}},
		{"empty list item", TypeListItem, nil, nil},
		{"text in doc", TypeRoot, nil, []*Node{NewText("x")}},
		{"marks in code", TypeCodeBlock, nil, []*Node{NewText("x", NewMark(MarkBold, ""))}},
		{"ordered list start", TypeOrderedList, Attrs{AttrStart: 0}, []*Node{NewListItem(NewParagraph("a"))}},
		{"content in rule", TypeHorizontalRule, nil, []*Node{NewText("x")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(tt.typ, tt.attrs, tt.content...)
			if !errors.Is(err, ErrSchemaViolation) {
				t.Errorf("Create() error = %v, want ErrSchemaViolation", err)
			}
		})
	}
}

func TestCreateDefaults(t *testing.T) {
	h := NewNode(TypeHeading, nil)
	if level, _ := h.Attrs().Int(AttrLevel); level != 1 {
		t.Errorf("default heading level = %d, want 1", level)
	}
	ol := NewOrderedList(3, NewListItem(NewParagraph("a")))
	if start, _ := ol.Attrs().Int(AttrStart); start != 3 {
		t.Errorf("ordered list start = %d, want 3", start)
	}
}

func TestFragmentMergesText(t *testing.T) {
	bold := NewMark(MarkBold, "")
	f := NewFragment(NewText("a"), NewText("b"), NewText(""), NewText("c", bold))
	if f.ChildCount() != 2 {
		t.Fatalf("ChildCount() = %d, want 2", f.ChildCount())
	}
	if f.Child(0).Text() != "ab" {
		t.Errorf("merged text = %q, want %q", f.Child(0).Text(), "ab")
	}
	if f.Size() != 3 {
		t.Errorf("Size() = %d, want 3", f.Size())
	}
}

func TestMarkSetExclusive(t *testing.T) {
	set := NewMarkSet(NewMark(MarkLink, "a"), NewMark(MarkBold, ""))
	set = set.Add(NewMark(MarkLink, "b"))
	want := MarkSet{NewMark(MarkBold, ""), NewMark(MarkLink, "b")}
	if diff := cmp.Diff(want, set); diff != "" {
		t.Errorf("mark set mismatch (-want +got):\n%s", diff)
	}

	set = set.Add(NewMark(MarkSelectionTag, "x")).Add(NewMark(MarkSelectionTag, "y"))
	if len(set) != 4 {
		t.Errorf("selection tags are not exclusive, got %v", set)
	}
	if set.RemoveType(MarkSelectionTag).HasType(MarkSelectionTag) {
		t.Error("RemoveType left a selection tag")
	}
}

func TestCheck(t *testing.T) {
	if err := nestedDoc().Check(); err != nil {
		t.Errorf("Check() = %v", err)
	}
}

// ============================================================================
// Resolve
// ============================================================================

func TestResolve(t *testing.T) {
	doc := titleDoc()

	r, err := doc.Resolve(10)
	if err != nil {
		t.Fatalf("Resolve(10) error: %v", err)
	}
	if r.Depth != 1 {
		t.Errorf("Depth = %d, want 1", r.Depth)
	}
	if r.Parent().Type() != TypeParagraph {
		t.Errorf("Parent = %s, want paragraph", r.Parent().Type())
	}
	if r.ParentOffset != 2 {
		t.Errorf("ParentOffset = %d, want 2", r.ParentOffset)
	}
	if r.Start() != 8 || r.End() != 19 {
		t.Errorf("Start/End = %d/%d, want 8/19", r.Start(), r.End())
	}
	if r.Before(1) != 7 || r.After(1) != 20 {
		t.Errorf("Before/After = %d/%d, want 7/20", r.Before(1), r.After(1))
	}
	if r.TextOffset() != 2 {
		t.Errorf("TextOffset = %d, want 2", r.TextOffset())
	}
	if got := r.NodeAfter().Text(); got != "llo world" {
		t.Errorf("NodeAfter = %q", got)
	}
	if got := r.NodeBefore().Text(); got != "He" {
		t.Errorf("NodeBefore = %q", got)
	}

	r, _ = doc.Resolve(7)
	if r.Depth != 0 || r.Index() != 1 {
		t.Errorf("Resolve(7) depth/index = %d/%d, want 0/1", r.Depth, r.Index())
	}
	if r.NodeAfter().Type() != TypeParagraph {
		t.Errorf("NodeAfter at 7 = %s", r.NodeAfter().Type())
	}
}

func TestResolveOutOfRange(t *testing.T) {
	doc := titleDoc()
	for _, pos := range []int{-1, 21, 100} {
		if _, err := doc.Resolve(pos); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Resolve(%d) error = %v, want ErrOutOfRange", pos, err)
		}
	}
}

func TestResolveRoundTrip(t *testing.T) {
	doc := nestedDoc()
	for from := 0; from <= doc.ContentSize(); from++ {
		for to := from; to <= doc.ContentSize(); to++ {
			rf := doc.MustResolve(from)
			rt := doc.MustResolve(to)
			if got := rf.Start(rf.Depth) + rf.ParentOffset; got != from {
				t.Fatalf("from %d reconstructed as %d", from, got)
			}
			if got := rt.Start(rt.Depth) + rt.ParentOffset; got != to {
				t.Fatalf("to %d reconstructed as %d", to, got)
			}
			ancestors := rf.Ancestors()
			if len(ancestors) != rf.Depth+1 || ancestors[0] != doc {
				t.Fatalf("bad ancestor chain at %d", from)
			}
		}
	}
}

// ============================================================================
// Queries
// ============================================================================

func TestTextBetween(t *testing.T) {
	doc := titleDoc()
	tests := []struct {
		from, to int
		sep      string
		want     string
	}{
		{0, 20, "\n", "Title\nHello world"},
		{3, 14, "|", "tle|Hello "},
		{8, 13, "\n", "Hello"},
		{-5, 500, "", "TitleHello world"},
		{10, 10, "\n", ""},
	}
	for _, tt := range tests {
		if got := doc.TextBetween(tt.from, tt.to, tt.sep); got != tt.want {
			t.Errorf("TextBetween(%d, %d) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestNodeAt(t *testing.T) {
	doc := titleDoc()
	if n := doc.NodeAt(0); n == nil || n.Type() != TypeHeading {
		t.Errorf("NodeAt(0) = %v, want heading", n)
	}
	if n := doc.NodeAt(7); n == nil || n.Type() != TypeParagraph {
		t.Errorf("NodeAt(7) = %v, want paragraph", n)
	}
	if n := doc.NodeAt(8); n == nil || n.Text() != "Hello world" {
		t.Errorf("NodeAt(8) = %v, want text", n)
	}
	if n := doc.NodeAt(20); n != nil {
		t.Errorf("NodeAt(20) = %v, want nil", n)
	}
}

func TestDescendants(t *testing.T) {
	doc := NewDoc(NewHeading(1, "Title"), NewParagraph("Hi"))

	type visit struct {
		Type NodeType
		Pos  int
	}
	var got []visit
	for node, pos := range doc.Descendants() {
		got = append(got, visit{node.Type(), pos})
	}
	want := []visit{{TypeHeading, 0}, {TypeText, 1}, {TypeParagraph, 7}, {TypeText, 8}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Descendants mismatch (-want +got):\n%s", diff)
	}

	count := 0
	for range doc.Descendants() {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("early termination visited %d nodes", count)
	}

	again := 0
	for range doc.Descendants() {
		again++
	}
	if again != len(want) {
		t.Errorf("sequence is not restartable: %d visits", again)
	}
}

func TestNodesBetweenSkipsChildren(t *testing.T) {
	doc := nestedDoc()
	var types []NodeType
	doc.NodesBetween(0, doc.ContentSize(), func(node *Node, _ int, _ *Node, _ int) bool {
		types = append(types, node.Type())
		return node.Type() != TypeBulletList
	})
	for _, typ := range types {
		if typ == TypeListItem {
			t.Fatal("visited list item below a skipped list")
		}
	}
}

// ============================================================================
// Slice and Replace
// ============================================================================

func TestReplaceJoinsBlocks(t *testing.T) {
	doc := NewDoc(NewParagraph("ab"), NewParagraph("cd"))
	got, err := doc.Replace(2, 6, EmptySlice)
	if err != nil {
		t.Fatalf("Replace error: %v", err)
	}
	want := NewDoc(NewParagraph("ad"))
	if !got.Eq(want) {
		t.Errorf("Replace = %s, want %s", got, want)
	}
	if !doc.Eq(NewDoc(NewParagraph("ab"), NewParagraph("cd"))) {
		t.Error("Replace mutated the original document")
	}
}

func TestSliceReplaceRestores(t *testing.T) {
	doc := nestedDoc()
	size := doc.ContentSize()
	for from := 0; from <= size; from++ {
		for to := from; to <= size; to++ {
			slice, err := doc.Slice(from, to)
			if err != nil {
				t.Fatalf("Slice(%d, %d): %v", from, to, err)
			}
			got, err := doc.Replace(from, to, slice)
			if err != nil {
				t.Fatalf("Replace(%d, %d): %v", from, to, err)
			}
			if !got.Eq(doc) {
				t.Fatalf("Replace(%d, %d, Slice) = %s, want %s", from, to, got, doc)
			}
		}
	}
}

func TestReplaceText(t *testing.T) {
	doc := titleDoc()
	got, err := doc.Replace(14, 19, SliceOf(NewText("WORLD")))
	if err != nil {
		t.Fatalf("Replace error: %v", err)
	}
	if text := got.Child(1).TextContent(); text != "Hello WORLD" {
		t.Errorf("paragraph text = %q", text)
	}
}

func TestReplaceSchemaViolation(t *testing.T) {
	doc := titleDoc()
	_, err := doc.Replace(9, 9, SliceOf(NewHeading(2, "nested")))
	if !errors.Is(err, ErrSchemaViolation) {
		t.Errorf("Replace error = %v, want ErrSchemaViolation", err)
	}

	_, err = doc.Replace(0, 0, SliceOf(NewText("loose")))
	if !errors.Is(err, ErrSchemaViolation) {
		t.Errorf("text at top level error = %v, want ErrSchemaViolation", err)
	}
}

func TestReplaceNodeAt(t *testing.T) {
	doc := nestedDoc()
	// The second list item's paragraph sits at 12.
	target := doc.NodeAt(12)
	if target == nil || target.Type() != TypeParagraph {
		t.Fatalf("NodeAt(12) = %v", target)
	}
	replacement := NewParagraph("TWO")
	got, err := doc.ReplaceNodeAt(12, replacement)
	if err != nil {
		t.Fatalf("ReplaceNodeAt error: %v", err)
	}
	if got.NodeAt(12) != replacement {
		t.Error("replacement not found at 12")
	}
	if got.Child(0) != doc.Child(0) {
		t.Error("untouched siblings should be shared")
	}
}

// ============================================================================
// Codec
// ============================================================================

func TestJSONRoundTrip(t *testing.T) {
	doc := NewDoc(
		NewHeadingWithID(1, "abcd1234", "Title"),
		NewNode(TypeParagraph, nil,
			NewText("plain "),
			NewText("link", NewMark(MarkLink, "https://example.com"), NewMark(MarkBold, "")),
		),
		NewOrderedList(2, NewListItem(NewParagraph("x"))),
		NewHorizontalRule(),
	)
	data, err := doc.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON error: %v", err)
	}
	got, err := NodeFromJSON(data)
	if err != nil {
		t.Fatalf("NodeFromJSON error: %v", err)
	}
	if !got.Eq(doc) {
		t.Errorf("round trip = %s, want %s", got, doc)
	}
}

func TestNodeFromYAML(t *testing.T) {
	src := []byte(`
type: doc
content:
  - type: heading
    attrs: {level: 2}
    content:
      - type: text
        text: Intro
  - type: paragraph
    content:
      - type: text
        text: body
        marks:
          - type: highlight
            attrs: {color: yellow}
`)
	got, err := NodeFromYAML(src)
	if err != nil {
		t.Fatalf("NodeFromYAML error: %v", err)
	}
	want := NewDoc(NewHeading(2, "Intro"), NewParagraph("body", NewMark(MarkHighlight, "yellow")))
	if !got.Eq(want) {
		t.Errorf("NodeFromYAML = %s, want %s", got, want)
	}
}

func TestNodeFromJSONRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"unknown node", `{"type":"table"}`, ErrUnknownType},
		{"unknown mark", `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"a","marks":[{"type":"blink"}]}]}]}`, ErrUnknownType},
		{"bad nesting", `{"type":"doc","content":[{"type":"bulletList","content":[{"type":"paragraph"}]}]}`, ErrSchemaViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NodeFromJSON([]byte(tt.src)); !errors.Is(err, tt.want) {
				t.Errorf("NodeFromJSON error = %v, want %v", err, tt.want)
			}
		})
	}
}
