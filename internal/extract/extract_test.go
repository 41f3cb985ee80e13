package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/engine/transform"
)

// titleDoc is doc(heading "Title", paragraph "Hello world"). "world" spans
// [14, 19).
func titleDoc() *model.Node {
	return model.NewDoc(model.NewHeading(1, "Title"), model.NewParagraph("Hello world"))
}

// listDoc appends bulletList(listItem(paragraph "item one")). The list
// paragraph spans [22, 32) and its text starts at 23.
func listDoc() *model.Node {
	return model.NewDoc(
		model.NewHeading(1, "Title"),
		model.NewParagraph("Hello world"),
		model.NewBulletList(model.NewListItem(model.NewParagraph("item one"))),
	)
}

// editor dispatches straight into a state.
type editor struct {
	s *state.State
}

func newEditor(t *testing.T, doc *model.Node, sel transform.Selection) *editor {
	t.Helper()
	s, err := state.New(state.Config{Doc: doc, Selection: sel})
	if err != nil {
		t.Fatalf("state.New error: %v", err)
	}
	return &editor{s: s}
}

func (e *editor) State() *state.State { return e.s }

func (e *editor) Dispatch(tr *transform.Transaction) error {
	next, err := e.s.Apply(tr)
	if err != nil {
		return err
	}
	e.s = next
	return nil
}

func hasTags(doc *model.Node) bool {
	for node := range doc.Descendants() {
		if node.Marks().HasType(model.MarkSelectionTag) {
			return true
		}
	}
	return false
}

func fixedIDs() Option {
	return WithTagIDs(func() string { return "tag-1" })
}

// ============================================================================
// Analyze
// ============================================================================

func TestAnalyzeSingleNode(t *testing.T) {
	got, err := Analyze(titleDoc(), 14, 19)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	want := []NodeSelectionInfo{{
		From: 6, To: 11, Content: "world", Context: "Hello world", ContextFrom: 7, ContextTo: 20,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Analyze mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeAcrossNodes(t *testing.T) {
	got, err := Analyze(listDoc(), 14, 27)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	want := []NodeSelectionInfo{
		{From: 6, To: 11, Content: "world", Context: "Hello world", ContextFrom: 7, ContextTo: 20},
		{From: 0, To: 4, Content: "item", Context: "item one", ContextFrom: 22, ContextTo: 32},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Analyze mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeReversedRange(t *testing.T) {
	a, _ := Analyze(titleDoc(), 19, 14)
	b, _ := Analyze(titleDoc(), 14, 19)
	if diff := cmp.Diff(b, a); diff != "" {
		t.Errorf("reversed range mismatch:\n%s", diff)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	if _, err := Analyze(titleDoc(), 5, 5); !errors.Is(err, ErrSelectionCollapsed) {
		t.Errorf("collapsed selection error = %v", err)
	}
	if _, err := Analyze(titleDoc(), 3, 99); !errors.Is(err, model.ErrOutOfRange) {
		t.Errorf("out of range error = %v", err)
	}
}

func TestNodeSelectionInfoRanges(t *testing.T) {
	info := NodeSelectionInfo{From: 6, To: 11, ContextFrom: 7, ContextTo: 20}
	if from, to := info.SelectedRange(); from != 14 || to != 19 {
		t.Errorf("SelectedRange() = %d, %d", from, to)
	}
	if from, to := info.ContentRange(); from != 8 || to != 19 {
		t.Errorf("ContentRange() = %d, %d", from, to)
	}
}

// ============================================================================
// Processor
// ============================================================================

func TestRunUpper(t *testing.T) {
	ed := newEditor(t, titleDoc(), transform.NewSelection(14, 19))
	p := NewProcessor(ed, UpperGenerator(), fixedIDs())

	if _, err := p.Run(context.Background(), "shout"); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	want := model.NewDoc(model.NewHeading(1, "Title"), model.NewParagraph("Hello WORLD"))
	if !ed.s.Doc().Eq(want) {
		t.Errorf("doc = %s, want %s", ed.s.Doc(), want)
	}
}

func TestRunMirrorAcrossNodes(t *testing.T) {
	ed := newEditor(t, listDoc(), transform.NewSelection(14, 27))
	p := NewProcessor(ed, MirrorGenerator(), fixedIDs())

	if _, err := p.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	want := model.NewDoc(
		model.NewHeading(1, "Title"),
		model.NewParagraph("Hello dlrow"),
		model.NewBulletList(model.NewListItem(model.NewParagraph("meti one"))),
	)
	if !ed.s.Doc().Eq(want) {
		t.Errorf("doc = %s, want %s", ed.s.Doc(), want)
	}
}

func TestRunEchoRoundTrip(t *testing.T) {
	for _, sel := range []transform.Selection{
		transform.NewSelection(14, 19),
		transform.NewSelection(14, 27),
		transform.NewSelection(0, 34),
	} {
		t.Run(sel.String(), func(t *testing.T) {
			ed := newEditor(t, listDoc(), sel)
			p := NewProcessor(ed, EchoGenerator(), fixedIDs())
			if _, err := p.Run(context.Background(), ""); err != nil {
				t.Fatalf("Run error: %v", err)
			}
			if !ed.s.Doc().Eq(listDoc()) {
				t.Errorf("doc = %s, want unchanged", ed.s.Doc())
			}
		})
	}
}

func TestRunOverWire(t *testing.T) {
	ed := newEditor(t, titleDoc(), transform.NewSelection(14, 19))
	gen := &WireGenerator{Transport: Loopback(UpperGenerator())}
	p := NewProcessor(ed, gen)

	if _, err := p.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got := ed.s.Doc().Child(1).TextContent(); got != "Hello WORLD" {
		t.Errorf("paragraph = %q, want Hello WORLD", got)
	}
}

func TestRunInheritsMarks(t *testing.T) {
	bold := model.NewMark(model.MarkBold, "")
	doc := model.NewDoc(
		model.NewHeading(1, "Title"),
		model.NewNode(model.TypeParagraph, nil, model.NewText("Hello "), model.NewText("world", bold)),
	)
	ed := newEditor(t, doc, transform.NewSelection(14, 19))
	p := NewProcessor(ed, UpperGenerator(), fixedIDs())

	if _, err := p.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	want := model.NewDoc(
		model.NewHeading(1, "Title"),
		model.NewNode(model.TypeParagraph, nil, model.NewText("Hello "), model.NewText("WORLD", bold)),
	)
	if !ed.s.Doc().Eq(want) {
		t.Errorf("doc = %s, want %s", ed.s.Doc(), want)
	}
}

func TestBeginTagsSelection(t *testing.T) {
	ed := newEditor(t, titleDoc(), transform.NewSelection(14, 19))
	p := NewProcessor(ed, EchoGenerator(), fixedIDs())

	sess, err := p.Begin("x")
	if err != nil {
		t.Fatalf("Begin error: %v", err)
	}
	if sess.ID() != "tag-1" || len(sess.Nodes()) != 1 || sess.Request().Suggestion != "x" {
		t.Errorf("session = %s %v", sess.ID(), sess.Request())
	}
	world := ed.s.Doc().NodeAt(14)
	if !world.Marks().Contains(model.NewMark(model.MarkSelectionTag, "tag-1")) {
		t.Errorf("tagged node = %s, want selection tag", world)
	}
	if sess.Snapshot() != ed.s.Doc() {
		t.Error("snapshot should be the tagged document")
	}

	if err := p.Cancel(sess); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if hasTags(ed.s.Doc()) || !ed.s.Doc().Eq(titleDoc()) {
		t.Errorf("doc after cancel = %s", ed.s.Doc())
	}
	if err := p.Cancel(sess); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("second Cancel error = %v", err)
	}
}

func TestBeginWithoutTagging(t *testing.T) {
	ed := newEditor(t, titleDoc(), transform.NewSelection(14, 19))
	p := NewProcessor(ed, EchoGenerator(), WithTagging(false))

	before := ed.s
	if _, err := p.Begin(""); err != nil {
		t.Fatalf("Begin error: %v", err)
	}
	if ed.s != before {
		t.Error("Begin without tagging should not dispatch")
	}
}

func TestBeginCollapsed(t *testing.T) {
	ed := newEditor(t, titleDoc(), transform.Cursor(3))
	p := NewProcessor(ed, EchoGenerator())
	if _, err := p.Begin(""); !errors.Is(err, ErrSelectionCollapsed) {
		t.Errorf("Begin on a cursor error = %v", err)
	}
}

func TestCompleteFailures(t *testing.T) {
	tests := []struct {
		name    string
		resp    Response
		disturb func(*editor)
		wantErr error
	}{
		{
			name:    "service failure",
			resp:    Response{Success: false, Message: "quota exceeded"},
			wantErr: ErrExternalService,
		},
		{
			name:    "unknown node index",
			resp:    Response{Success: true, Results: []Result{{NodeIndex: 5, NewContent: "x"}}},
			wantErr: ErrExternalService,
		},
		{
			name: "duplicate node index",
			resp: Response{Success: true, Results: []Result{
				{NodeIndex: 0, NewContent: "x"},
				{NodeIndex: 0, NewContent: "y"},
			}},
			wantErr: ErrExternalService,
		},
		{
			name: "selection collapsed",
			resp: Response{Success: true, Results: []Result{{NodeIndex: 0, NewContent: "X"}}},
			disturb: func(e *editor) {
				e.s = e.s.WithSelection(transform.Cursor(3))
			},
			wantErr: ErrSelectionCollapsed,
		},
		{
			name: "document changed",
			resp: Response{Success: true, Results: []Result{{NodeIndex: 0, NewContent: "X"}}},
			disturb: func(e *editor) {
				_ = e.Dispatch(e.s.Tr().InsertText(1, "A "))
			},
			wantErr: ErrStaleSnapshot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := newEditor(t, titleDoc(), transform.NewSelection(14, 19))
			p := NewProcessor(ed, EchoGenerator(), fixedIDs())
			sess, err := p.Begin("")
			if err != nil {
				t.Fatalf("Begin error: %v", err)
			}
			if tt.disturb != nil {
				tt.disturb(ed)
			}
			before := ed.s.Doc().TextBetween(0, ed.s.Doc().ContentSize(), "|")

			err = p.Complete(sess, tt.resp)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Complete error = %v, want %v", err, tt.wantErr)
			}
			if hasTags(ed.s.Doc()) {
				t.Errorf("selection tag leaked into %s", ed.s.Doc())
			}
			after := ed.s.Doc().TextBetween(0, ed.s.Doc().ContentSize(), "|")
			if after != before {
				t.Errorf("text = %q, want unchanged %q", after, before)
			}
		})
	}
}

func TestServiceErrorMessage(t *testing.T) {
	ed := newEditor(t, titleDoc(), transform.NewSelection(14, 19))
	p := NewProcessor(ed, EchoGenerator())
	sess, _ := p.Begin("")

	err := p.Complete(sess, Response{Success: false, Message: "quota exceeded"})
	var se *ServiceError
	if !errors.As(err, &se) || se.Message != "quota exceeded" {
		t.Errorf("Complete error = %v, want ServiceError with message", err)
	}
}

func TestRunGeneratorError(t *testing.T) {
	ed := newEditor(t, titleDoc(), transform.NewSelection(14, 19))
	boom := errors.New("connection refused")
	gen := GeneratorFunc(func(context.Context, Request) (Response, error) {
		return Response{}, boom
	})
	p := NewProcessor(ed, gen)

	_, err := p.Run(context.Background(), "")
	if !errors.Is(err, ErrExternalService) || !errors.Is(err, boom) {
		t.Errorf("Run error = %v, want service error wrapping the cause", err)
	}
	if !ed.s.Doc().Eq(titleDoc()) {
		t.Errorf("doc = %s, want unchanged", ed.s.Doc())
	}
}

func TestRunCanceledContext(t *testing.T) {
	ed := newEditor(t, titleDoc(), transform.NewSelection(14, 19))
	p := NewProcessor(ed, UpperGenerator())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Run(ctx, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
	if hasTags(ed.s.Doc()) {
		t.Error("selection tag leaked after cancellation")
	}
}

func TestCompleteReplaceModes(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		result   Result
		want     string
	}{
		{"selected range", 14, 19, Result{NewContent: "there"}, "Hello there"},
		{"entire context", 14, 19, Result{NewContent: "Bye", ReplaceEntireContext: true}, "Bye"},
		{"empty content deletes selection", 14, 19, Result{}, "Hello "},
		{"empty content deletes only partial selection", 16, 18, Result{}, "Hello wod"},
		{"empty content deletes context", 16, 18, Result{ReplaceEntireContext: true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := newEditor(t, titleDoc(), transform.NewSelection(tt.from, tt.to))
			p := NewProcessor(ed, EchoGenerator())
			sess, err := p.Begin("")
			if err != nil {
				t.Fatal(err)
			}
			if err := p.Complete(sess, Response{Success: true, Results: []Result{tt.result}}); err != nil {
				t.Fatalf("Complete error: %v", err)
			}
			if got := ed.s.Doc().Child(1).TextContent(); got != tt.want {
				t.Errorf("paragraph = %q, want %q", got, tt.want)
			}
			if hasTags(ed.s.Doc()) {
				t.Error("selection tag leaked")
			}
		})
	}
}

// ============================================================================
// Wire format
// ============================================================================

func TestRequestWire(t *testing.T) {
	nodes, _ := Analyze(listDoc(), 14, 27)
	req := Request{Suggestion: `say "hi"`, Nodes: nodes}

	body, err := EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest error: %v", err)
	}
	got, err := DecodeRequest(body)
	if err != nil {
		t.Fatalf("DecodeRequest error: %v", err)
	}
	if diff := cmp.Diff(req, got); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeEmptyRequest(t *testing.T) {
	body, err := EncodeRequest(Request{})
	if err != nil {
		t.Fatal(err)
	}
	if got := string(body); got != `{"suggestion":"","nodes":[]}` {
		t.Errorf("EncodeRequest = %s", got)
	}
}

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Response
		wantErr bool
	}{
		{
			name: "full",
			body: `{"success":true,"results":[{"nodeIndex":1,"newContent":"x","replaceEntireContext":true}],"message":"ok"}`,
			want: Response{Success: true, Results: []Result{{NodeIndex: 1, NewContent: "x", ReplaceEntireContext: true}}, Message: "ok"},
		},
		{
			name: "defaults",
			body: `{"success":false}`,
			want: Response{},
		},
		{name: "not json", body: `{"success":`, wantErr: true},
		{name: "success not bool", body: `{"success":"yes"}`, wantErr: true},
		{name: "results not array", body: `{"success":true,"results":{}}`, wantErr: true},
		{name: "index not number", body: `{"success":true,"results":[{"nodeIndex":"0"}]}`, wantErr: true},
		{name: "content not string", body: `{"success":true,"results":[{"nodeIndex":0,"newContent":5}]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeResponse([]byte(tt.body))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedMessage) {
					t.Errorf("error = %v, want ErrMalformedMessage", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeResponse error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("response mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWireGeneratorErrors(t *testing.T) {
	req := Request{Nodes: []NodeSelectionInfo{{Content: "a"}}}

	failing := &WireGenerator{Transport: func(context.Context, []byte) ([]byte, error) {
		return nil, fmt.Errorf("dial: %w", errors.ErrUnsupported)
	}}
	if _, err := failing.Generate(context.Background(), req); !errors.Is(err, ErrExternalService) {
		t.Errorf("transport failure error = %v", err)
	}

	garbage := &WireGenerator{Transport: func(context.Context, []byte) ([]byte, error) {
		return []byte(`<html>`), nil
	}}
	_, err := garbage.Generate(context.Background(), req)
	if !errors.Is(err, ErrExternalService) || !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("garbage response error = %v", err)
	}
}

func TestGeneratorByName(t *testing.T) {
	req := Request{Nodes: []NodeSelectionInfo{{Content: "abc"}}}
	for name, want := range map[string]string{"echo": "abc", "mirror": "cba", "upper": "ABC"} {
		gen, err := GeneratorByName(name)
		if err != nil {
			t.Fatalf("GeneratorByName(%q) error: %v", name, err)
		}
		resp, _ := gen.Generate(context.Background(), req)
		if !resp.Success || resp.Results[0].NewContent != want {
			t.Errorf("%s generated %+v, want %q", name, resp, want)
		}
	}
	if _, err := GeneratorByName("nope"); err == nil {
		t.Error("unknown generator should fail")
	}
}
