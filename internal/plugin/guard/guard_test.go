package guard

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/engine/transform"
)

// titleDoc is doc(heading(1, "Title"), paragraph("Hello world")).
// The heading spans [0, 7) and "world" spans [14, 19).
func titleDoc() *model.Node {
	return model.NewDoc(
		model.NewHeadingWithID(1, "a", "Title"),
		model.NewParagraph("Hello world"),
	)
}

func newState(t *testing.T, doc *model.Node, plugins ...state.Plugin) *state.State {
	t.Helper()
	s, err := state.New(state.Config{Doc: doc, Plugins: plugins})
	if err != nil {
		t.Fatalf("state.New error: %v", err)
	}
	return s
}

// sequence returns a generator yielding ids in order, then "zz<n>".
func sequence(ids ...string) IDGenerator {
	i := 0
	return func() string {
		i++
		if i <= len(ids) {
			return ids[i-1]
		}
		return fmt.Sprintf("zz%d", i)
	}
}

// ============================================================================
// Leading node
// ============================================================================

func TestLeadingGuardVetoesDeletion(t *testing.T) {
	g := NewLeadingGuard()
	s := newState(t, titleDoc(), g)

	next, err := s.Apply(s.Tr().Delete(0, 7))
	var ve *state.VetoError
	if !errors.As(err, &ve) || ve.Plugin != LeadingKey {
		t.Fatalf("deleting the heading error = %v, want veto by %s", err, LeadingKey)
	}
	if !errors.Is(err, state.ErrVetoed) {
		t.Error("veto error should match ErrVetoed")
	}
	if next != s || !next.Doc().Eq(titleDoc()) {
		t.Error("vetoed transaction changed the document")
	}
}

func TestLeadingGuardAllowsJoin(t *testing.T) {
	g := NewLeadingGuard()
	s := newState(t, titleDoc(), g)

	// Deleting from inside the heading into the paragraph joins the
	// paragraph's remainder into the heading.
	next, err := s.Apply(s.Tr().Delete(1, 9))
	if err != nil {
		t.Fatalf("join error: %v", err)
	}
	first := next.Doc().FirstChild()
	if !g.Shape().Matches(first) || first.TextContent() != "ello world" {
		t.Errorf("first child = %s, want heading \"ello world\"", first)
	}
}

func TestLeadingGuardRejectsReplacementByOtherLevel(t *testing.T) {
	g := NewLeadingGuard()
	s := newState(t, titleDoc(), g)

	_, err := s.Apply(s.Tr().ReplaceWith(0, 7, model.NewHeading(2, "Title")))
	if !errors.Is(err, state.ErrVetoed) {
		t.Errorf("replacing with a level 2 heading error = %v, want veto", err)
	}
	_, err = s.Apply(s.Tr().ReplaceWith(0, 7, model.NewHeading(1, "Other")))
	if err != nil {
		t.Errorf("replacing with another level 1 heading error = %v", err)
	}
}

func TestLeadingGuardRandomEdits(t *testing.T) {
	g := NewLeadingGuard()
	s := newState(t, titleDoc(), g)
	r := rand.New(rand.NewSource(7))

	for i := range 300 {
		size := s.Doc().ContentSize()
		from := r.Intn(size + 1)
		to := from + r.Intn(size-from+1)

		tr := s.Tr()
		switch r.Intn(4) {
		case 0:
			tr.Delete(from, to)
		case 1:
			tr.InsertText(from, "xy")
		case 2:
			tr.Insert(from, model.NewParagraph("p"))
		default:
			tr.ReplaceWith(from, to, model.NewParagraph("q"))
		}
		next, err := s.Apply(tr)
		if err == nil {
			s = next
		}
		if !g.Shape().Matches(s.Doc().FirstChild()) {
			t.Fatalf("edit %d lost the leading heading: %s", i, s.Doc())
		}
		if err := s.Doc().Check(); err != nil {
			t.Fatalf("edit %d produced an invalid document: %v", i, err)
		}
	}
}

func TestLeadingGuardAppendRestoresPrevious(t *testing.T) {
	g := NewLeadingGuard()
	old := newState(t, titleDoc(), g)
	lost := newState(t, model.NewDoc(model.NewParagraph("Hello world")))

	tr := g.AppendTransaction(nil, old, lost)
	if tr == nil {
		t.Fatal("AppendTransaction returned nil for a document without a heading")
	}
	want := model.NewDoc(
		model.NewHeadingWithID(1, "a", "Title"),
		model.NewParagraph("Hello world"),
	)
	if !tr.Doc().Eq(want) {
		t.Errorf("restored doc = %s, want %s", tr.Doc(), want)
	}

	if g.AppendTransaction(nil, old, old) != nil {
		t.Error("AppendTransaction should return nil when the heading is present")
	}
}

func TestLeadingGuardAppendInsertsBlank(t *testing.T) {
	g := NewLeadingGuard()
	old := newState(t, model.NewDoc(model.NewParagraph("x")))
	lost := newState(t, model.NewDoc(model.NewParagraph("y")))

	tr := g.AppendTransaction(nil, old, lost)
	first := tr.Doc().FirstChild()
	if !g.Shape().Matches(first) || first.ContentSize() != 0 {
		t.Errorf("inserted node = %s, want an empty level 1 heading", first)
	}
}

func TestLeadingGuardNormalize(t *testing.T) {
	g := NewLeadingGuard()
	s := newState(t, model.NewDoc(model.NewParagraph("body")), g)

	doc := s.Doc()
	if doc.ChildCount() != 2 {
		t.Fatalf("child count = %d, want 2", doc.ChildCount())
	}
	if !g.Shape().Matches(doc.FirstChild()) {
		t.Errorf("first child = %s, want heading", doc.FirstChild())
	}
	if doc.Child(1).TextContent() != "body" {
		t.Errorf("second child = %s", doc.Child(1))
	}
}

func TestLeadingGuardTitleShape(t *testing.T) {
	g := NewLeadingGuard(WithShape(TitleShape()))
	doc := model.NewDoc(model.NewTitle("T"), model.NewParagraph("body"))
	s := newState(t, doc, g)

	if _, err := s.Apply(s.Tr().Delete(0, 3)); !errors.Is(err, state.ErrVetoed) {
		t.Errorf("deleting the title error = %v, want veto", err)
	}
	if _, err := s.Apply(s.Tr().InsertText(2, "itle")); err != nil {
		t.Errorf("editing the title error = %v", err)
	}
	if got := TitleShape().String(); got != "title" {
		t.Errorf("TitleShape().String() = %q", got)
	}
	if got := HeadingShape(2).String(); got != "heading(level=2)" {
		t.Errorf("HeadingShape(2).String() = %q", got)
	}
}

func TestLeadingGuardRepairsLegacyDocument(t *testing.T) {
	g := NewLeadingGuard()
	// Created through a state without the guard, then reconfigured.
	s := newState(t, model.NewDoc(model.NewParagraph("legacy")))
	s, err := s.Reconfigure([]state.Plugin{g})
	if err != nil {
		t.Fatalf("Reconfigure error: %v", err)
	}

	next, err := s.Apply(s.Tr().InsertText(1, "a "))
	if err != nil {
		t.Fatalf("edit error: %v", err)
	}
	if !g.Shape().Matches(next.Doc().FirstChild()) {
		t.Errorf("follow-up did not insert the heading: %s", next.Doc())
	}
}

// ============================================================================
// Unique ids
// ============================================================================

func TestUniqueIDNormalize(t *testing.T) {
	g := NewUniqueIDGuard(WithIDGenerator(sequence("h1", "h2")))
	doc := model.NewDoc(
		model.NewHeading(1, "A"),
		model.NewParagraph("body"),
		model.NewHeading(2, "B"),
	)
	s := newState(t, doc, g)

	got := []string{
		s.Doc().Child(0).Attrs().String(model.AttrID),
		s.Doc().Child(2).Attrs().String(model.AttrID),
	}
	if got[0] != "h1" || got[1] != "h2" {
		t.Errorf("assigned ids = %v, want [h1 h2]", got)
	}
	if len(g.Duplicates(s.Doc())) != 0 {
		t.Error("Duplicates should be empty after normalization")
	}
}

func TestUniqueIDPasteDuplicate(t *testing.T) {
	g := NewUniqueIDGuard(WithIDGenerator(sequence("a", "b")))
	s := newState(t, titleDoc(), NewLeadingGuard(), g)

	tr := s.Tr().Insert(20, model.NewHeadingWithID(2, "a", "Copy"))
	next, trs, err := s.ApplyTransaction(tr)
	if err != nil {
		t.Fatalf("paste error: %v", err)
	}
	if len(trs) != 2 {
		t.Fatalf("accepted %d transactions, want 2", len(trs))
	}
	if v, _ := trs[1].Meta(transform.MetaAppendedTransaction); v != UniqueIDKey {
		t.Errorf("follow-up tagged %v, want %s", v, UniqueIDKey)
	}

	doc := next.Doc()
	if id := doc.Child(0).Attrs().String(model.AttrID); id != "a" {
		t.Errorf("first heading id = %q, want a", id)
	}
	if id := doc.Child(2).Attrs().String(model.AttrID); id != "b" {
		t.Errorf("pasted heading id = %q, want b", id)
	}
	if doc.Child(2).TextContent() != "Copy" {
		t.Errorf("pasted heading text = %q", doc.Child(2).TextContent())
	}
}

func TestUniqueIDIgnoresSelectionOnly(t *testing.T) {
	g := NewUniqueIDGuard(WithIDGenerator(sequence("x")))
	s := newState(t, titleDoc(), g)

	_, trs, err := s.ApplyTransaction(s.Tr().SetSelection(transform.Cursor(3)))
	if err != nil {
		t.Fatalf("selection error: %v", err)
	}
	if len(trs) != 1 {
		t.Errorf("selection change produced %d transactions, want 1", len(trs))
	}
}

func TestUniqueIDCustomTypes(t *testing.T) {
	g := NewUniqueIDGuard(WithIDTypes(model.TypeTitle), WithIDGenerator(sequence("t1")))
	doc := model.NewDoc(model.NewTitle("T"), model.NewHeading(1, "H"))
	s := newState(t, doc, g)

	if id := s.Doc().Child(0).Attrs().String(model.AttrID); id != "t1" {
		t.Errorf("title id = %q, want t1", id)
	}
	if _, ok := s.Doc().Child(1).Attrs()[model.AttrID]; ok {
		t.Error("heading should not receive an id")
	}
}

func TestUniqueIDFallsBackToUUID(t *testing.T) {
	g := NewUniqueIDGuard(WithIDGenerator(func() string { return "a" }))
	s := newState(t, titleDoc(), g)

	next, err := s.Apply(s.Tr().Insert(20, model.NewHeadingWithID(2, "a", "Copy")))
	if err != nil {
		t.Fatalf("paste error: %v", err)
	}
	id := next.Doc().Child(2).Attrs().String(model.AttrID)
	if id == "a" || len(id) != 36 {
		t.Errorf("fallback id = %q, want a uuid", id)
	}
}

func TestShortID(t *testing.T) {
	a, b := ShortID(), ShortID()
	if len(a) != 8 || len(b) != 8 {
		t.Errorf("ShortID lengths = %d, %d, want 8", len(a), len(b))
	}
	if a == b {
		t.Error("ShortID returned the same id twice")
	}
}

// ============================================================================
// Persistent highlight
// ============================================================================

func TestHighlightSetAndClear(t *testing.T) {
	s := newState(t, titleDoc(), NewHighlightGuard())

	if CurrentHighlight(s).Active {
		t.Fatal("highlight should start inactive")
	}
	s, err := s.Apply(SetPersistentSelection(s, 19, 14))
	if err != nil {
		t.Fatalf("SetPersistentSelection error: %v", err)
	}
	if got := CurrentHighlight(s); got != (Highlight{Active: true, From: 14, To: 19}) {
		t.Errorf("highlight = %+v, want 14..19", got)
	}
	if s.Revision() != 0 {
		t.Errorf("revision = %d, setting a highlight must not change the document", s.Revision())
	}

	s, err = s.Apply(ClearPersistentSelection(s))
	if err != nil {
		t.Fatalf("ClearPersistentSelection error: %v", err)
	}
	if CurrentHighlight(s).Active {
		t.Error("highlight still active after clear")
	}
}

func TestHighlightClearedByEdit(t *testing.T) {
	s := newState(t, titleDoc(), NewHighlightGuard())
	s, _ = s.Apply(SetPersistentSelection(s, 14, 19))

	s, err := s.Apply(s.Tr().SetSelection(transform.Cursor(2)))
	if err != nil {
		t.Fatal(err)
	}
	if !CurrentHighlight(s).Active {
		t.Fatal("selection change should keep the highlight")
	}

	s, err = s.Apply(s.Tr().InsertText(1, "x"))
	if err != nil {
		t.Fatal(err)
	}
	if CurrentHighlight(s).Active {
		t.Error("document change should clear the highlight")
	}
}

func TestHighlightRemap(t *testing.T) {
	tests := []struct {
		name string
		edit func(*transform.Transaction)
		want Highlight
	}{
		{"insert before", func(tr *transform.Transaction) { tr.InsertText(1, "xy") }, Highlight{Active: true, From: 16, To: 21}},
		{"insert after", func(tr *transform.Transaction) { tr.InsertText(19, "!") }, Highlight{Active: true, From: 14, To: 19}},
		{"delete inside", func(tr *transform.Transaction) { tr.Delete(15, 17) }, Highlight{Active: true, From: 14, To: 17}},
		{"delete range", func(tr *transform.Transaction) { tr.Delete(14, 19) }, Highlight{}},
		{"delete around", func(tr *transform.Transaction) { tr.Delete(13, 19) }, Highlight{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(t, titleDoc(), NewHighlightGuard(RemapOnChange(true)))
			s, _ = s.Apply(SetPersistentSelection(s, 14, 19))

			tr := s.Tr()
			tt.edit(tr)
			next, err := s.Apply(tr)
			if err != nil {
				t.Fatalf("edit error: %v", err)
			}
			if got := CurrentHighlight(next); got != tt.want {
				t.Errorf("highlight = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCurrentHighlightWithoutGuard(t *testing.T) {
	s := newState(t, titleDoc())
	if CurrentHighlight(s).Active {
		t.Error("CurrentHighlight without the guard should be inactive")
	}
}
