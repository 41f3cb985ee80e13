package decoration

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/engine/transform"
	"github.com/dshills/scribe/internal/plugin/guard"
)

func newState(t *testing.T, doc *model.Node, sel transform.Selection) *state.State {
	t.Helper()
	s, err := state.New(state.Config{
		Doc:       doc,
		Selection: sel,
		Plugins:   []state.Plugin{guard.NewHighlightGuard()},
	})
	if err != nil {
		t.Fatalf("state.New error: %v", err)
	}
	return s
}

type summary struct {
	From, To    int
	Class, Text string
}

func summarize(decos []Decoration) []summary {
	out := make([]summary, len(decos))
	for i, d := range decos {
		out[i] = summary{d.From, d.To, d.Class(), d.Placeholder()}
	}
	return out
}

// ============================================================================
// Placeholder
// ============================================================================

func TestPlaceholders(t *testing.T) {
	nested := model.NewDoc(
		model.NewHeading(1, "T"),
		model.NewBulletList(model.NewListItem(model.NewParagraph(""))),
	)

	tests := []struct {
		name string
		doc  *model.Node
		sel  transform.Selection
		want []summary
	}{
		{
			name: "empty first heading",
			doc:  model.NewDoc(model.NewHeading(1, ""), model.NewParagraph("Hello")),
			sel:  transform.Cursor(5),
			want: []summary{{0, 2, "is-empty is-editor-empty", "Type something..."}},
		},
		{
			name: "empty paragraph holding cursor",
			doc:  model.NewDoc(model.NewHeading(1, "T"), model.NewParagraph("")),
			sel:  transform.Cursor(4),
			want: []summary{{3, 5, "is-empty", "Type something..."}},
		},
		{
			name: "empty paragraph without cursor",
			doc:  model.NewDoc(model.NewHeading(1, "T"), model.NewParagraph("")),
			sel:  transform.Cursor(1),
			want: []summary{},
		},
		{
			name: "nested empty paragraph",
			doc:  nested,
			sel:  transform.Cursor(6),
			want: []summary{{5, 7, "is-empty", "Type something..."}},
		},
		{
			name: "leaf nodes are never empty",
			doc:  model.NewDoc(model.NewHorizontalRule(), model.NewParagraph("x")),
			sel:  transform.Cursor(0),
			want: []summary{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(t, tt.doc, tt.sel)
			got := summarize(Placeholders(s, DefaultConfig()))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Placeholders() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPlaceholderFunc(t *testing.T) {
	doc := model.NewDoc(model.NewHeading(1, ""), model.NewParagraph(""))
	s := newState(t, doc, transform.Cursor(3))

	cfg := DefaultConfig()
	cfg.Placeholder = func(node *model.Node, pos int, hasAnchor bool) string {
		if node.Type() == model.TypeHeading {
			return "Untitled"
		}
		if hasAnchor {
			return "Write here"
		}
		return ""
	}
	got := summarize(Placeholders(s, cfg))
	want := []summary{
		{0, 2, "is-empty is-editor-empty", "Untitled"},
		{2, 4, "is-empty", "Write here"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Placeholders() mismatch (-want +got):\n%s", diff)
	}
}

func TestPlaceholderEditable(t *testing.T) {
	s := newState(t, model.NewDoc(model.NewHeading(1, "")), transform.Cursor(1))

	cfg := DefaultConfig()
	cfg.Editable = false
	if got := Placeholders(s, cfg); len(got) != 0 {
		t.Errorf("read-only editor produced %d placeholders", len(got))
	}

	cfg.ShowOnlyWhenEditable = false
	if got := Placeholders(s, cfg); len(got) != 1 {
		t.Errorf("ShowOnlyWhenEditable=false produced %d placeholders, want 1", len(got))
	}
}

// ============================================================================
// Highlight
// ============================================================================

func highlightDoc() *model.Node {
	return model.NewDoc(model.NewHeading(1, "Title"), model.NewParagraph("Hello world"))
}

func TestHighlightDecoration(t *testing.T) {
	s := newState(t, highlightDoc(), transform.Cursor(1))
	s, err := s.Apply(guard.SetPersistentSelection(s, 14, 19))
	if err != nil {
		t.Fatal(err)
	}

	set := Compute(s, DefaultConfig())
	hl := set.BySource(SourceHighlight)
	if len(hl) != 1 {
		t.Fatalf("highlight decorations = %d, want 1", len(hl))
	}
	d := hl[0]
	if d.Kind != KindInline || d.From != 14 || d.To != 19 || d.Class() != "persistent-highlight" {
		t.Errorf("highlight = %s", d)
	}
	if found := set.Find(16, 16); len(found) != 1 || found[0].Source != SourceHighlight {
		t.Errorf("Find(16, 16) = %v", found)
	}
	if found := set.Find(19, 25); len(found) != 0 {
		t.Errorf("Find(19, 25) = %v, want none", found)
	}
}

func TestHighlightStaleRange(t *testing.T) {
	s := newState(t, highlightDoc(), transform.Cursor(1))
	s, err := s.Apply(guard.SetPersistentSelection(s, 14, 50))
	if err != nil {
		t.Fatal(err)
	}
	if got := Highlights(s, DefaultConfig()); len(got) != 0 {
		t.Errorf("stale highlight produced %v", got)
	}
}

func TestHighlightWithoutGuard(t *testing.T) {
	s, err := state.New(state.Config{Doc: highlightDoc()})
	if err != nil {
		t.Fatal(err)
	}
	if got := Highlights(s, DefaultConfig()); len(got) != 0 {
		t.Errorf("Highlights without the guard = %v", got)
	}
}

// ============================================================================
// Compute and Set
// ============================================================================

func TestComputeIdempotent(t *testing.T) {
	doc := model.NewDoc(model.NewHeading(1, ""), model.NewParagraph("Hello world"))
	s := newState(t, doc, transform.Cursor(1))
	s, _ = s.Apply(guard.SetPersistentSelection(s, 3, 8))

	a := Compute(s, DefaultConfig())
	b := Compute(s, DefaultConfig())
	if !a.Eq(b) {
		t.Errorf("Compute not idempotent:\n%s\n%s", a, b)
	}
	if a.Len() != 2 {
		t.Errorf("Len() = %d, want 2", a.Len())
	}
	if !s.Doc().Eq(doc) {
		t.Error("Compute modified the document")
	}
}

func TestComputeProducers(t *testing.T) {
	s := newState(t, highlightDoc(), transform.Cursor(1))
	cfg := DefaultConfig()
	cfg.Producers = []Producer{func(s *state.State, _ Config) []Decoration {
		return []Decoration{{Kind: KindInline, From: 1, To: 6, Source: "custom"}}
	}}

	set := Compute(s, cfg)
	if got := set.BySource("custom"); len(got) != 1 {
		t.Errorf("custom decorations = %v", got)
	}
}

func TestSetOrdering(t *testing.T) {
	set := NewSet(
		Decoration{From: 5, To: 9, Source: "c"},
		Decoration{From: 1, To: 4, Source: "a", Priority: PriorityLow},
		Decoration{From: 1, To: 4, Source: "b", Priority: PriorityHigh},
	)
	var got []string
	for _, d := range set.All() {
		got = append(got, d.Source)
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if NewSet() != Empty || Empty.Len() != 0 {
		t.Error("NewSet() should return Empty")
	}
}

func TestDecorationString(t *testing.T) {
	d := Decoration{Kind: KindNode, From: 0, To: 2, Attrs: map[string]string{AttrClass: "is-empty"}}
	if got := d.String(); got != `node(0,2 class="is-empty")` {
		t.Errorf("String() = %s", got)
	}
	if diff := cmp.Diff([]string{"a", "b"}, Decoration{Attrs: map[string]string{AttrClass: "a  b"}}.Classes()); diff != "" {
		t.Errorf("Classes() mismatch:\n%s", diff)
	}
}
