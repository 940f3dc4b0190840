package operation

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
)

func text(s string) *node.Text { return node.NewText(s, nil) }

func para(children ...node.Node) *node.Element {
	return node.NewElement("paragraph", nil, children...)
}

func docString(t *testing.T, n node.Node) []string {
	t.Helper()
	var out []string
	for _, c := range node.Children(n) {
		out = append(out, node.String(c))
	}
	return out
}

func TestApplyInsertText(t *testing.T) {
	root := node.NewRoot(para(text("Hello world")))
	sel := location.Collapsed(location.NewPoint(P{0, 0}, 5))

	next, nextSel, err := Apply(root, &sel, InsertText{Path: P{0, 0}, Offset: 5, Text: " there"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := node.String(next); got != "Hello there world" {
		t.Errorf("text = %q, want %q", got, "Hello there world")
	}
	if nextSel.Anchor.Offset != 11 || nextSel.Focus.Offset != 11 {
		t.Errorf("selection = %s, want offset 11", nextSel)
	}
	if node.String(root) != "Hello world" {
		t.Error("Apply() modified its input tree")
	}
	if sel.Anchor.Offset != 5 {
		t.Error("Apply() modified its input selection")
	}
}

func TestApplyStructural(t *testing.T) {
	root := node.NewRoot(para(text("Hello world")))

	split1, _, err := Apply(root, nil, SplitNode{Path: P{0, 0}, Position: 5})
	if err != nil {
		t.Fatal(err)
	}
	split2, _, err := Apply(split1, nil, SplitNode{Path: P{0}, Position: 1, Properties: node.Props{"type": "paragraph"}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Hello", " world"}, docString(t, split2)); diff != "" {
		t.Errorf("split mismatch (-want +got):\n%s", diff)
	}
	if el := split2.Children[1].(*node.Element); el.Type != "paragraph" {
		t.Errorf("split element type = %q", el.Type)
	}

	merged, _, err := Apply(split2, nil, MergeNode{Path: P{1}, Position: 1, Properties: node.Props{"type": "paragraph"}})
	if err != nil {
		t.Fatal(err)
	}
	merged, _, err = Apply(merged, nil, MergeNode{Path: P{0, 1}, Position: 5})
	if err != nil {
		t.Fatal(err)
	}
	if !node.Equal(merged, root) {
		t.Errorf("merge did not restore the tree: %v", docString(t, merged))
	}
}

func TestApplyMoveNode(t *testing.T) {
	root := node.NewRoot(para(text("a")), para(text("b")), para(text("c")))
	tests := []struct {
		name string
		op   MoveNode
		want []string
	}{
		{"forward sibling", MoveNode{Path: P{0}, NewPath: P{2}}, []string{"b", "c", "a"}},
		{"backward sibling", MoveNode{Path: P{2}, NewPath: P{0}}, []string{"c", "a", "b"}},
		{"noop", MoveNode{Path: P{1}, NewPath: P{1}}, []string{"a", "b", "c"}},
		{"into other parent", MoveNode{Path: P{0, 0}, NewPath: P{1, 1}}, []string{"", "ba", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _, err := Apply(root, nil, tt.op)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, docString(t, next)); diff != "" {
				t.Errorf("move mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyErrors(t *testing.T) {
	root := node.NewRoot(para(text("abc")), para(text("def")))
	tests := []struct {
		name string
		op   Operation
		want error
	}{
		{"missing path", InsertText{Path: P{5, 0}, Text: "x"}, ErrPathNotFound},
		{"text on element", InsertText{Path: P{0}, Text: "x"}, ErrNotText},
		{"offset past end", InsertText{Path: P{0, 0}, Offset: 4, Text: "x"}, ErrInvalidOffset},
		{"remove past end", RemoveText{Path: P{0, 0}, Offset: 2, Text: "cd"}, ErrInvalidOffset},
		{"insert past end", InsertNode{Path: P{3}, Node: para(text(""))}, ErrInvalidIndex},
		{"insert root", InsertNode{Path: P{}, Node: para(text(""))}, ErrRootOperation},
		{"merge first child", MergeNode{Path: P{0}}, ErrInvalidIndex},
		{"merge elements", MergeNode{Path: P{1}, Position: 1}, nil},
		{"move into itself", MoveNode{Path: P{0}, NewPath: P{0, 1}}, ErrMoveIntoDescendant},
		{"set children", SetNode{Path: P{0}, NewProperties: node.Props{"children": 1}}, ErrReservedProperty},
		{"set root", SetNode{Path: P{}}, ErrRootOperation},
		{"split offset", SplitNode{Path: P{0, 0}, Position: 9}, ErrInvalidOffset},
		{"incomplete selection", SetSelection{NewProperties: &SelectionProps{}}, ErrIncompleteSelection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _, err := Apply(root, nil, tt.op)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Apply() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Apply() error = %v, want %v", err, tt.want)
			}
			var ae *ApplyError
			if !errors.As(err, &ae) {
				t.Errorf("Apply() error %T is not *ApplyError", err)
			}
			if next != root {
				t.Error("Apply() returned a different tree on error")
			}
		})
	}

	mixed := node.NewRoot(para(text("a"), node.NewElement("link", nil, text("b"))))
	if _, _, err := Apply(mixed, nil, MergeNode{Path: P{0, 1}, Position: 1}); !errors.Is(err, ErrMismatchedMerge) {
		t.Errorf("merge text with element error = %v, want ErrMismatchedMerge", err)
	}
}

func TestApplyRemoveNodeMovesSelection(t *testing.T) {
	root := node.NewRoot(para(text("one")), para(text("two")), para(text("three")))

	tests := []struct {
		name string
		path location.Path
		at   location.Point
		want location.Point
	}{
		{"to closer next text", P{1}, location.NewPoint(P{1, 0}, 1), location.NewPoint(P{1, 0}, 0)},
		{"to previous text", P{2}, location.NewPoint(P{2, 0}, 1), location.NewPoint(P{1, 0}, 3)},
		{"first block to next", P{0}, location.NewPoint(P{0, 0}, 1), location.NewPoint(P{0, 0}, 0)},
		{"unaffected shifts", P{0}, location.NewPoint(P{2, 0}, 2), location.NewPoint(P{1, 0}, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, _ := node.Get(root, tt.path)
			sel := location.Collapsed(tt.at)
			_, got, err := Apply(root, &sel, RemoveNode{Path: tt.path, Node: n})
			if err != nil {
				t.Fatal(err)
			}
			if !got.Anchor.Equal(tt.want) || !got.Focus.Equal(tt.want) {
				t.Errorf("selection = %s, want %s", got, tt.want)
			}
		})
	}

	single := node.NewRoot(para(text("x")))
	sel := location.Collapsed(location.NewPoint(P{0, 0}, 0))
	_, got, err := Apply(single, &sel, RemoveNode{Path: P{0}, Node: single.Children[0]})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("selection = %s, want nil when no text remains", got)
	}
}

func TestApplySetSelection(t *testing.T) {
	root := node.NewRoot(para(text("abc")))
	a := location.NewPoint(P{0, 0}, 1)
	f := location.NewPoint(P{0, 0}, 3)

	_, sel, err := Apply(root, nil, SetSelection{NewProperties: &SelectionProps{Anchor: &a, Focus: &f}})
	if err != nil {
		t.Fatal(err)
	}
	if !sel.Equal(location.NewRange(a, f)) {
		t.Errorf("selection = %s", sel)
	}

	moved := location.NewPoint(P{0, 0}, 0)
	_, sel, err = Apply(root, sel, SetSelection{Properties: &SelectionProps{Focus: &f}, NewProperties: &SelectionProps{Focus: &moved}})
	if err != nil {
		t.Fatal(err)
	}
	if !sel.Anchor.Equal(a) || !sel.Focus.Equal(moved) {
		t.Errorf("partial selection update = %s", sel)
	}

	_, sel, err = Apply(root, sel, SetSelection{Properties: SelectionFromRange(sel)})
	if err != nil || sel != nil {
		t.Errorf("deselect = %v, %v", sel, err)
	}
}

func TestDirtyPaths(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want []string
	}{
		{"insert text", InsertText{Path: P{0, 1}}, []string{"[]", "[0]", "[0,1]"}},
		{"insert element", InsertNode{Path: P{1}, Node: para(text("a"))}, []string{"[]", "[1]", "[1,0]"}},
		{"remove", RemoveNode{Path: P{1, 2}}, []string{"[]", "[1]"}},
		{"merge", MergeNode{Path: P{1, 2}}, []string{"[]", "[1]", "[1,1]"}},
		{"split", SplitNode{Path: P{1, 2}}, []string{"[]", "[1]", "[1,2]", "[1,3]"}},
		{"move", MoveNode{Path: P{0, 0}, NewPath: P{1, 0}}, []string{"[]", "[0]", "[]", "[1]", "[1,0]"}},
		{"move noop", MoveNode{Path: P{1}, NewPath: P{1}}, nil},
		{"selection", SetSelection{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, p := range DirtyPaths(tt.op) {
				got = append(got, p.String())
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DirtyPaths() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
