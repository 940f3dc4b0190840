package editor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/operation"
)

func TestDeleteBackwardAcrossBlocks(t *testing.T) {
	e := newEditor(para(text("Hello")), para(text("world")))
	if err := e.Select(pt(0, 1, 0)); err != nil {
		t.Fatal(err)
	}
	if err := e.DeleteBackward(UnitCharacter); err != nil {
		t.Fatalf("DeleteBackward() error = %v", err)
	}
	checkTree(t, e, para(text("Helloworld")))
	want := caret(5, 0, 0)
	checkSelection(t, e, &want)
}

func TestDeleteBackwardUnits(t *testing.T) {
	tests := []struct {
		name string
		unit Unit
		want string
	}{
		{"character", UnitCharacter, "Hello worl"},
		{"word", UnitWord, "Hello "},
		{"line", UnitLine, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEditor(para(text("Hello world")))
			if err := e.Select(pt(11, 0, 0)); err != nil {
				t.Fatal(err)
			}
			if err := e.DeleteBackward(tt.unit); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]string{tt.want}, blocks(e)); diff != "" {
				t.Errorf("blocks (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeleteRangeAcrossBlocks(t *testing.T) {
	e := newEditor(para(text("Hello")), para(text("world")))
	if err := e.Select(location.NewRange(pt(2, 0, 0), pt(3, 1, 0))); err != nil {
		t.Fatal(err)
	}
	if err := e.DeleteFragment(false); err != nil {
		t.Fatalf("DeleteFragment() error = %v", err)
	}
	checkTree(t, e, para(text("Held")))
	want := caret(2, 0, 0)
	checkSelection(t, e, &want)
}

func TestDeleteWholeInlineVoid(t *testing.T) {
	e := newEditor(para(text("a"), mention(), text("b")))
	if err := e.Delete(TextOptions{At: location.Path{0, 1}}); err != nil {
		t.Fatal(err)
	}
	checkTree(t, e, para(text("ab")))
}

func TestInsertNodesAtSelection(t *testing.T) {
	e := newEditor(para(text("Hello")))
	if err := e.Select(pt(5, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := e.InsertNode(para(text("New"))); err != nil {
		t.Fatalf("InsertNode() error = %v", err)
	}
	checkTree(t, e, para(text("Hello")), para(text("New")))
	want := caret(3, 1, 0)
	checkSelection(t, e, &want)
}

func TestInsertNodesAtPath(t *testing.T) {
	e := newEditor(para(text("b")))
	err := e.InsertNodes([]node.Node{para(text("a"))}, NodeOptions{At: location.Path{0}})
	if err != nil {
		t.Fatal(err)
	}
	checkTree(t, e, para(text("a")), para(text("b")))
	if e.Selection() != nil {
		t.Error("insert at a path changed an empty selection")
	}
}

func TestInsertBreak(t *testing.T) {
	e := newEditor(para(text("Hello world")))
	if err := e.Select(pt(5, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := e.InsertBreak(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Hello", " world"}, blocks(e)); diff != "" {
		t.Errorf("blocks (-want +got):\n%s", diff)
	}
	want := caret(0, 1, 0)
	checkSelection(t, e, &want)
}

func TestWrapAndUnwrapNodes(t *testing.T) {
	e := newEditor(para(text("a")), para(text("b")))
	err := e.WrapNodes(quote(), NodeOptions{At: location.NewRange(pt(0, 0, 0), pt(1, 1, 0))})
	if err != nil {
		t.Fatalf("WrapNodes() error = %v", err)
	}
	checkTree(t, e, quote(para(text("a")), para(text("b"))))

	if err := e.UnwrapNodes(NodeOptions{At: location.Path{0}}); err != nil {
		t.Fatalf("UnwrapNodes() error = %v", err)
	}
	checkTree(t, e, para(text("a")), para(text("b")))
}

func TestWrapInlines(t *testing.T) {
	e := newEditor(para(text("Hello world")))
	err := e.WrapNodes(link(), NodeOptions{At: location.NewRange(pt(0, 0, 0), pt(5, 0, 0)), Split: true})
	if err != nil {
		t.Fatalf("WrapNodes() error = %v", err)
	}
	checkTree(t, e, para(text(""), link(text("Hello")), text(" world")))
}

func TestLiftNodes(t *testing.T) {
	tests := []struct {
		name string
		at   location.Path
		want []node.Node
	}{
		{
			name: "first",
			at:   location.Path{0, 0},
			want: []node.Node{para(text("a")), quote(para(text("b")), para(text("c")))},
		},
		{
			name: "middle",
			at:   location.Path{0, 1},
			want: []node.Node{quote(para(text("a"))), para(text("b")), quote(para(text("c")))},
		},
		{
			name: "last",
			at:   location.Path{0, 2},
			want: []node.Node{quote(para(text("a")), para(text("b"))), para(text("c"))},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEditor(quote(para(text("a")), para(text("b")), para(text("c"))))
			if err := e.LiftNodes(NodeOptions{At: tt.at}); err != nil {
				t.Fatalf("LiftNodes() error = %v", err)
			}
			checkTree(t, e, tt.want...)
		})
	}
}

func TestLiftNodesRejectsTopLevel(t *testing.T) {
	e := newEditor(para(text("a")))
	if err := e.LiftNodes(NodeOptions{At: location.Path{0}}); err == nil {
		t.Fatal("LiftNodes() error = nil, want error")
	}
}

func TestMoveNodes(t *testing.T) {
	e := newEditor(para(text("a")), para(text("b")), para(text("c")))
	if err := e.MoveNodes(NodeOptions{At: location.Path{0}, To: location.Path{2}}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b", "c", "a"}, blocks(e)); diff != "" {
		t.Errorf("blocks (-want +got):\n%s", diff)
	}
}

func TestSetAndUnsetNodes(t *testing.T) {
	e := newEditor(para(text("a")), para(text("b")))
	err := e.SetNodes(node.Props{"type": "heading", "level": 2}, NodeOptions{At: location.Path{1}})
	if err != nil {
		t.Fatal(err)
	}
	checkTree(t, e, para(text("a")), node.NewElement("heading", node.Props{"level": 2}, text("b")))

	if err := e.UnsetNodes([]string{"level"}, NodeOptions{At: location.Path{1}}); err != nil {
		t.Fatal(err)
	}
	checkTree(t, e, para(text("a")), node.NewElement("heading", nil, text("b")))

	before := len(e.Operations())
	if err := e.SetNodes(node.Props{"type": "heading"}, NodeOptions{At: location.Path{1}}); err != nil {
		t.Fatal(err)
	}
	if got := len(e.Operations()); got != before {
		t.Errorf("setting an equal property applied %d operations", got-before)
	}
}

func TestAddAndRemoveMark(t *testing.T) {
	e := newEditor(para(text("Hello world")))
	if err := e.Select(location.NewRange(pt(0, 0, 0), pt(5, 0, 0))); err != nil {
		t.Fatal(err)
	}
	if err := e.AddMark("bold", true); err != nil {
		t.Fatalf("AddMark() error = %v", err)
	}
	checkTree(t, e, para(bold("Hello"), text(" world")))
	if diff := cmp.Diff(node.Props{"bold": true}, e.Marks()); diff != "" {
		t.Errorf("Marks() (-want +got):\n%s", diff)
	}

	if err := e.RemoveMark("bold"); err != nil {
		t.Fatalf("RemoveMark() error = %v", err)
	}
	checkTree(t, e, para(text("Hello world")))
}

func TestPendingMarks(t *testing.T) {
	e := newEditor(para(text("Hello")))
	if err := e.Select(pt(5, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := e.AddMark("bold", true); err != nil {
		t.Fatal(err)
	}
	checkTree(t, e, para(text("Hello")))
	if err := e.TypeText("!"); err != nil {
		t.Fatal(err)
	}
	checkTree(t, e, para(text("Hello"), bold("!")))
	want := caret(1, 0, 1)
	checkSelection(t, e, &want)

	if err := e.TypeText("?"); err != nil {
		t.Fatal(err)
	}
	checkTree(t, e, para(text("Hello"), bold("!?")))
}

func TestInsertFragment(t *testing.T) {
	e := newEditor(para(text("Hello world")))
	if err := e.Select(pt(5, 0, 0)); err != nil {
		t.Fatal(err)
	}
	fragment := []node.Node{para(text("A")), para(text("B")), para(text("C"))}
	if err := e.InsertFragment(fragment, TextOptions{}); err != nil {
		t.Fatalf("InsertFragment() error = %v", err)
	}
	if diff := cmp.Diff([]string{"HelloA", "B", "C world"}, blocks(e)); diff != "" {
		t.Errorf("blocks (-want +got):\n%s", diff)
	}
	want := caret(1, 2, 0)
	checkSelection(t, e, &want)
}

func TestInsertFragmentInline(t *testing.T) {
	e := newEditor(para(text("ab")))
	if err := e.Select(pt(1, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := e.InsertFragment([]node.Node{para(text("XY"))}, TextOptions{}); err != nil {
		t.Fatal(err)
	}
	checkTree(t, e, para(text("aXYb")))
	want := caret(3, 0, 0)
	checkSelection(t, e, &want)
}

func isQuote(n node.Node, _ location.Path) bool {
	el, ok := n.(*node.Element)
	return ok && el.Type == "quote"
}

func TestHangingRanges(t *testing.T) {
	tests := []struct {
		name    string
		doc     func() []node.Node
		at      location.Range
		run     func(e *Editor, opts NodeOptions) error
		unhung  []node.Node
		hanging []node.Node
	}{
		{
			name: "wrap",
			doc:  func() []node.Node { return []node.Node{para(text("a")), para(text("b"))} },
			at:   location.NewRange(pt(0, 0, 0), pt(0, 1, 0)),
			run: func(e *Editor, opts NodeOptions) error {
				return e.WrapNodes(quote(), opts)
			},
			unhung:  []node.Node{quote(para(text("a"))), para(text("b"))},
			hanging: []node.Node{quote(para(text("a")), para(text("b")))},
		},
		{
			name: "unwrap",
			doc: func() []node.Node {
				return []node.Node{quote(para(text("a"))), quote(para(text("b")))}
			},
			at: location.NewRange(pt(0, 0, 0, 0), pt(0, 1, 0, 0)),
			run: func(e *Editor, opts NodeOptions) error {
				opts.Match = isQuote
				return e.UnwrapNodes(opts)
			},
			unhung:  []node.Node{para(text("a")), quote(para(text("b")))},
			hanging: []node.Node{para(text("a")), para(text("b"))},
		},
		{
			name: "lift",
			doc: func() []node.Node {
				return []node.Node{quote(para(text("a")), para(text("b")), para(text("c")))}
			},
			at:      location.NewRange(pt(0, 0, 0, 0), pt(0, 0, 1, 0)),
			run:     (*Editor).LiftNodes,
			unhung:  []node.Node{para(text("a")), quote(para(text("b")), para(text("c")))},
			hanging: []node.Node{para(text("a")), para(text("b")), quote(para(text("c")))},
		},
		{
			name: "remove",
			doc: func() []node.Node {
				return []node.Node{para(text("a")), para(text("b")), para(text("c"))}
			},
			at:      location.NewRange(pt(0, 0, 0), pt(0, 1, 0)),
			run:     (*Editor).RemoveNodes,
			unhung:  []node.Node{para(text("b")), para(text("c"))},
			hanging: []node.Node{para(text("c"))},
		},
		{
			name: "set",
			doc:  func() []node.Node { return []node.Node{para(text("a")), para(text("b"))} },
			at:   location.NewRange(pt(0, 0, 0), pt(0, 1, 0)),
			run: func(e *Editor, opts NodeOptions) error {
				return e.SetNodes(node.Props{"type": "quote"}, opts)
			},
			unhung:  []node.Node{quote(text("a")), para(text("b"))},
			hanging: []node.Node{quote(text("a")), quote(text("b"))},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEditor(tt.doc()...)
			if err := tt.run(e, NodeOptions{At: tt.at}); err != nil {
				t.Fatalf("unhung: error = %v", err)
			}
			checkTree(t, e, tt.unhung...)

			e = newEditor(tt.doc()...)
			if err := tt.run(e, NodeOptions{At: tt.at, Hanging: true}); err != nil {
				t.Fatalf("hanging: error = %v", err)
			}
			checkTree(t, e, tt.hanging...)
		})
	}
}

func TestFailedTransformRollsBack(t *testing.T) {
	e := newEditor(para(text("a")), para(text("b")))
	if err := e.Select(pt(1, 1, 0)); err != nil {
		t.Fatal(err)
	}
	e.Flush()
	ref := e.PathRef(location.Path{1}, location.AffinityForward)
	refs := e.Refs().Len()
	before := e.Children()

	err := e.InsertNodes([]node.Node{para(text("x")), nil}, NodeOptions{At: location.Path{1}})
	if !errors.Is(err, operation.ErrInvalidNode) {
		t.Fatalf("InsertNodes() error = %v, want ErrInvalidNode", err)
	}
	if e.Children() != before {
		checkTree(t, e, para(text("a")), para(text("b")))
	}
	want := caret(1, 1, 0)
	checkSelection(t, e, &want)
	if got := e.Operations(); len(got) != 0 {
		t.Errorf("Operations() = %v, want none", got)
	}
	if e.FlushPending() {
		t.Error("FlushPending() = true after a rolled back batch")
	}
	if got := e.DirtyPaths(); len(got) != 0 {
		t.Errorf("DirtyPaths() = %v, want none", got)
	}
	if got, ok := ref.Current(); !ok || !got.Equal(location.Path{1}) {
		t.Errorf("ref = %v, %v; want [1]", got, ok)
	}
	if got := e.Refs().Len(); got != refs {
		t.Errorf("Refs().Len() = %d, want %d", got, refs)
	}
}

func TestFailedNestedTransformRollsBackOuterBatch(t *testing.T) {
	e := newEditor(para(text("a")))
	err := e.WithoutNormalizing(func() error {
		if err := e.InsertText("bc", TextOptions{At: pt(1, 0, 0)}); err != nil {
			return err
		}
		if err := e.SplitNodes(NodeOptions{At: pt(2, 0, 0)}); err != nil {
			return err
		}
		return e.LiftNodes(NodeOptions{At: location.Path{0}})
	})
	if !errors.Is(err, ErrLiftDepth) {
		t.Fatalf("WithoutNormalizing() error = %v, want ErrLiftDepth", err)
	}
	checkTree(t, e, para(text("a")))
	if !e.IsNormalizing() {
		t.Error("IsNormalizing() = false after a failed batch")
	}
	if e.InBatch() {
		t.Error("InBatch() = true after the batch returned")
	}
}

func TestInsertNodesSelectFailure(t *testing.T) {
	e := newEditor(para(text("a")))
	err := e.InsertNodes([]node.Node{para()}, NodeOptions{At: location.Path{1}, Select: SelectAlways})
	if !errors.Is(err, ErrNoTextEdge) {
		t.Fatalf("InsertNodes() error = %v, want ErrNoTextEdge", err)
	}
	checkTree(t, e, para(text("a")))
	if e.Selection() != nil {
		t.Errorf("Selection() = %v, want nil", e.Selection())
	}
}

func TestCheckpointRestoresExternalState(t *testing.T) {
	e := newEditor(para(text("a")))
	count := 0
	restored := 0
	e.AddCheckpoint(func() func() {
		saved := count
		return func() {
			count = saved
			restored++
		}
	})

	if err := e.WithoutNormalizing(func() error {
		count++
		return e.InsertText("b", TextOptions{At: pt(1, 0, 0)})
	}); err != nil {
		t.Fatal(err)
	}
	if count != 1 || restored != 0 {
		t.Fatalf("after success count = %d restored = %d, want 1 and 0", count, restored)
	}

	err := e.WithoutNormalizing(func() error {
		count++
		if err := e.InsertText("c", TextOptions{At: pt(2, 0, 0)}); err != nil {
			return err
		}
		return e.LiftNodes(NodeOptions{At: location.Path{0}})
	})
	if !errors.Is(err, ErrLiftDepth) {
		t.Fatalf("WithoutNormalizing() error = %v, want ErrLiftDepth", err)
	}
	if count != 1 || restored != 1 {
		t.Errorf("after failure count = %d restored = %d, want 1 and 1", count, restored)
	}
	checkTree(t, e, para(text("ab")))
}
