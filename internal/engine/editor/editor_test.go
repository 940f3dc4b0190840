package editor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/operation"
)

func text(s string) *node.Text { return node.NewText(s, nil) }

func bold(s string) *node.Text { return node.NewText(s, node.Props{"bold": true}) }

func para(children ...node.Node) *node.Element {
	return node.NewElement("paragraph", nil, children...)
}

func quote(children ...node.Node) *node.Element {
	return node.NewElement("quote", nil, children...)
}

func link(children ...node.Node) *node.Element {
	return node.NewElement("link", node.Props{"url": "https://example.com"}, children...)
}

func mention() *node.Element {
	return node.NewElement("mention", node.Props{"user": "ada"}, text(""))
}

func isInlineType(el *node.Element) bool { return el.Type == "link" || el.Type == "mention" }

func isVoidType(el *node.Element) bool { return el.Type == "mention" || el.Type == "image" }

func pt(offset int, path ...int) location.Point {
	return location.NewPoint(location.Path(path), offset)
}

func caret(offset int, path ...int) location.Range {
	return location.Collapsed(pt(offset, path...))
}

func newEditor(children ...node.Node) *Editor {
	return New(WithChildren(children...), WithInline(isInlineType), WithVoid(isVoidType))
}

// blocks returns the text of each top-level block.
func blocks(e *Editor) []string {
	out := make([]string, 0, len(e.Children().Children))
	for _, c := range e.Children().Children {
		out = append(out, node.String(c))
	}
	return out
}

var treeOpts = []cmp.Option{cmpopts.EquateEmpty()}

func checkTree(t *testing.T, e *Editor, want ...node.Node) {
	t.Helper()
	if diff := cmp.Diff(node.NewRoot(want...), e.Children(), treeOpts...); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func checkSelection(t *testing.T, e *Editor, want *location.Range) {
	t.Helper()
	if diff := cmp.Diff(want, e.Selection()); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertTextAtSelection(t *testing.T) {
	e := newEditor(para(text("Hello world")))
	if err := e.Select(pt(5, 0, 0)); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if err := e.InsertText(" there", TextOptions{}); err != nil {
		t.Fatalf("InsertText() error = %v", err)
	}
	checkTree(t, e, para(text("Hello there world")))
	want := caret(11, 0, 0)
	checkSelection(t, e, &want)
}

func TestInsertTextReplacesExpandedSelection(t *testing.T) {
	e := newEditor(para(text("Hello world")))
	if err := e.Select(location.NewRange(pt(0, 0, 0), pt(5, 0, 0))); err != nil {
		t.Fatal(err)
	}
	if err := e.InsertText("Goodbye", TextOptions{}); err != nil {
		t.Fatalf("InsertText() error = %v", err)
	}
	checkTree(t, e, para(text("Goodbye world")))
	want := caret(7, 0, 0)
	checkSelection(t, e, &want)
}

func TestSplitNodesAtPoint(t *testing.T) {
	e := newEditor(para(text("Hello world")))
	if err := e.SplitNodes(NodeOptions{At: pt(5, 0, 0)}); err != nil {
		t.Fatalf("SplitNodes() error = %v", err)
	}
	checkTree(t, e, para(text("Hello")), para(text(" world")))
}

func TestSplitNodesAtEdgeIsNoop(t *testing.T) {
	e := newEditor(para(text("Hello")))
	if err := e.SplitNodes(NodeOptions{At: pt(5, 0, 0)}); err != nil {
		t.Fatal(err)
	}
	checkTree(t, e, para(text("Hello")))

	if err := e.SplitNodes(NodeOptions{At: pt(5, 0, 0), Always: true}); err != nil {
		t.Fatal(err)
	}
	checkTree(t, e, para(text("Hello")), para(text("")))
}

func TestMergeNodesAtPath(t *testing.T) {
	e := newEditor(para(text("Hello")), para(text(" world")))
	if err := e.MergeNodes(NodeOptions{At: location.Path{1}}); err != nil {
		t.Fatalf("MergeNodes() error = %v", err)
	}
	checkTree(t, e, para(text("Hello world")))
}

func TestMergeNodesRemovesEmptyPrevious(t *testing.T) {
	e := newEditor(node.NewElement("heading", nil, text("")), para(text("body")))
	if err := e.MergeNodes(NodeOptions{At: location.Path{1}}); err != nil {
		t.Fatal(err)
	}
	checkTree(t, e, para(text("body")))
}

func TestInlineVoidBoundaries(t *testing.T) {
	e := newEditor(para(text("ab")))

	if err := e.Apply(operation.InsertNode{Path: location.Path{0, 1}, Node: mention()}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	checkTree(t, e, para(text("ab"), mention(), text("")))

	if err := e.RemoveNodes(NodeOptions{At: location.Path{0, 1}}); err != nil {
		t.Fatalf("RemoveNodes() error = %v", err)
	}
	checkTree(t, e, para(text("ab")))
}

func TestNormalizeInsertsTextBeforeLeadingInline(t *testing.T) {
	e := newEditor(para(text("x")))
	err := e.Apply(operation.InsertNode{Path: location.Path{1}, Node: para(link(text("go")))})
	if err != nil {
		t.Fatal(err)
	}
	checkTree(t, e, para(text("x")), para(text(""), link(text("go")), text("")))
}

func TestNormalizeCoreRules(t *testing.T) {
	tests := []struct {
		name string
		op   operation.Operation
		want []node.Node
	}{
		{
			name: "empty element gets a text",
			op:   operation.InsertNode{Path: location.Path{1}, Node: para()},
			want: []node.Node{para(text("a")), para(text(""))},
		},
		{
			name: "text at root is removed",
			op:   operation.InsertNode{Path: location.Path{1}, Node: text("stray")},
			want: []node.Node{para(text("a"))},
		},
		{
			name: "block inside inline content is removed",
			op:   operation.InsertNode{Path: location.Path{0, 1}, Node: para(text("nested"))},
			want: []node.Node{para(text("a"))},
		},
		{
			name: "equal texts merge",
			op:   operation.InsertNode{Path: location.Path{0, 1}, Node: text("b")},
			want: []node.Node{para(text("ab"))},
		},
		{
			name: "empty text next to marked text is dropped",
			op:   operation.InsertNode{Path: location.Path{0, 1}, Node: bold("")},
			want: []node.Node{para(text("a"))},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEditor(para(text("a")))
			if err := e.Apply(tt.op); err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			checkTree(t, e, tt.want...)
		})
	}
}

func TestNormalizeForceIsIdempotent(t *testing.T) {
	e := newEditor(
		quote(para(text("a"), link(text("b")), text("c"))),
		para(bold("d"), text("e")),
	)
	if err := e.Normalize(NormalizeOptions{Force: true}); err != nil {
		t.Fatal(err)
	}
	e.Flush()
	before := e.Children()
	if err := e.Normalize(NormalizeOptions{Force: true}); err != nil {
		t.Fatal(err)
	}
	if ops := e.Operations(); len(ops) != 0 {
		t.Errorf("second Normalize() applied %d operations, want 0", len(ops))
	}
	if before != e.Children() {
		t.Error("second Normalize() changed the tree")
	}
}

func TestNormalizationLimit(t *testing.T) {
	counter := 0
	offered := false
	e := New(
		WithChildren(para(text("a"))),
		WithNormalizer(func(next NormalizeFunc) NormalizeFunc {
			return func(e *Editor, entry node.Entry) error {
				if el, ok := entry.Node.(*node.Element); ok && el.Type == "paragraph" {
					counter++
					return e.SetNodes(node.Props{"n": counter}, NodeOptions{At: entry.Path})
				}
				return next(e, entry)
			}
		}),
		WithOnError(func(*Error) bool {
			offered = true
			return true
		}),
	)

	err := e.InsertText("b", TextOptions{At: pt(1, 0, 0)})
	if !errors.Is(err, ErrNormalizationLimit) {
		t.Fatalf("InsertText() error = %v, want ErrNormalizationLimit", err)
	}
	if offered {
		t.Error("ErrNormalizationLimit was offered to OnError")
	}
	if !e.IsNormalizing() {
		t.Error("IsNormalizing() = false after a failed pass")
	}
}

func TestWithoutNormalizingDefers(t *testing.T) {
	e := newEditor(para(text("a")))
	err := e.WithoutNormalizing(func() error {
		if err := e.Apply(operation.InsertNode{Path: location.Path{1}, Node: text("stray")}); err != nil {
			return err
		}
		if got := len(e.Children().Children); got != 2 {
			t.Errorf("children inside batch = %d, want 2", got)
		}
		return e.WithoutNormalizing(func() error {
			if e.IsNormalizing() {
				t.Error("nested batch enabled normalization")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	checkTree(t, e, para(text("a")))
}

func TestApplyErrorReporting(t *testing.T) {
	bad := operation.RemoveNode{Path: location.Path{3}, Node: text("x")}

	t.Run("returned", func(t *testing.T) {
		e := newEditor(para(text("a")))
		err := e.Apply(bad)
		var ee *Error
		if !errors.As(err, &ee) {
			t.Fatalf("Apply() error = %v, want *Error", err)
		}
		if ee.Key != "apply.path_not_found" {
			t.Errorf("Key = %q, want apply.path_not_found", ee.Key)
		}
		if !errors.Is(err, operation.ErrPathNotFound) {
			t.Error("error does not wrap ErrPathNotFound")
		}
		checkTree(t, e, para(text("a")))
	})

	t.Run("accepted", func(t *testing.T) {
		var got *Error
		e := New(WithChildren(para(text("a"))), WithOnError(func(err *Error) bool {
			got = err
			return true
		}))
		if err := e.Apply(bad); err != nil {
			t.Fatalf("Apply() error = %v, want nil", err)
		}
		if got == nil || got.Op == nil {
			t.Fatal("OnError not called with the operation")
		}
		checkTree(t, e, para(text("a")))
	})
}

func TestFlushScheduling(t *testing.T) {
	var (
		scheduled int
		flush     func()
		changes   []Change
	)
	e := New(
		WithChildren(para(text("a"))),
		WithScheduler(func(f func()) {
			scheduled++
			flush = f
		}),
		WithOnChange(func(c Change) { changes = append(changes, c) }),
	)
	if err := e.InsertText("b", TextOptions{At: pt(1, 0, 0)}); err != nil {
		t.Fatal(err)
	}
	if err := e.InsertText("c", TextOptions{At: pt(2, 0, 0)}); err != nil {
		t.Fatal(err)
	}
	if scheduled != 1 {
		t.Fatalf("scheduler called %d times, want 1", scheduled)
	}
	if !e.FlushPending() {
		t.Error("FlushPending() = false before flush")
	}
	flush()
	if len(changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(changes))
	}
	if got := len(changes[0].Operations); got != 2 {
		t.Errorf("change has %d operations, want 2", got)
	}
	if changes[0].ID == "" {
		t.Error("change has no ID")
	}
	if e.FlushPending() || len(e.Operations()) != 0 {
		t.Error("flush did not clear the pending batch")
	}

	e.SetMarks(node.Props{"bold": true})
	if scheduled != 2 {
		t.Errorf("marks change scheduled %d flushes, want 2", scheduled)
	}
}

func TestRefsFollowEdits(t *testing.T) {
	e := newEditor(para(text("a")), para(text("b")))
	pathRef := e.PathRef(location.Path{1}, location.AffinityForward)
	pointRef := e.PointRef(pt(1, 1, 0), location.AffinityForward)
	gone := e.PathRef(location.Path{0}, location.AffinityForward)

	if err := e.InsertNodes([]node.Node{para(text("new"))}, NodeOptions{At: location.Path{0}}); err != nil {
		t.Fatal(err)
	}
	if err := e.RemoveNodes(NodeOptions{At: location.Path{1}}); err != nil {
		t.Fatal(err)
	}

	if p, ok := pathRef.Current(); !ok || !p.Equal(location.Path{1}) {
		t.Errorf("path ref = %v, %v; want [1]", p, ok)
	}
	if p, ok := pointRef.Current(); !ok || !p.Equal(pt(1, 1, 0)) {
		t.Errorf("point ref = %v, %v; want [1,0]:1", p, ok)
	}
	if _, ok := gone.Current(); ok {
		t.Error("ref to removed node still resolves")
	}
	pathRef.Unref()
	pointRef.Unref()
	if n := e.Refs().Len(); n != 0 {
		t.Errorf("live refs = %d, want 0", n)
	}
}
