package editor

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
)

func entryPaths(entries []node.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path.String()
	}
	return out
}

func pathStrings(paths ...location.Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.String()
	}
	return out
}

func isElement(n node.Node, _ location.Path) bool { return node.IsElement(n) }

func TestNodesModes(t *testing.T) {
	e := newEditor(quote(para(text("a")), para(text("b"))), para(text("c")))
	tests := []struct {
		name string
		opts NodesOptions
		want []location.Path
	}{
		{
			name: "all",
			opts: NodesOptions{At: location.Path{}, Match: isElement},
			want: []location.Path{{0}, {0, 0}, {0, 1}, {1}},
		},
		{
			name: "highest",
			opts: NodesOptions{At: location.Path{}, Match: isElement, Mode: ModeHighest},
			want: []location.Path{{0}, {1}},
		},
		{
			name: "lowest",
			opts: NodesOptions{At: location.Path{}, Match: isElement, Mode: ModeLowest},
			want: []location.Path{{0, 0}, {0, 1}, {1}},
		},
		{
			name: "reverse",
			opts: NodesOptions{At: location.Path{}, Match: isElement, Mode: ModeHighest, Reverse: true},
			want: []location.Path{{1}, {0}},
		},
		{
			name: "range",
			opts: NodesOptions{At: location.NewRange(pt(0, 0, 1, 0), pt(1, 1, 0)), Match: isText},
			want: []location.Path{{0, 1, 0}, {1, 0}},
		},
		{
			name: "universal match",
			opts: NodesOptions{At: location.Path{}, Match: isText, Universal: true},
			want: []location.Path{{0, 0, 0}, {0, 1, 0}, {1, 0}},
		},
		{
			name: "universal miss",
			opts: NodesOptions{
				At:        location.Path{},
				Match:     func(n node.Node, _ location.Path) bool { return node.Matches(n, node.Props{"bold": true}) },
				Universal: true,
			},
			want: []location.Path{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Nodes(tt.opts)
			if err != nil {
				t.Fatalf("Nodes() error = %v", err)
			}
			if diff := cmp.Diff(pathStrings(tt.want...), entryPaths(got)); diff != "" {
				t.Errorf("Nodes() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNodesSkipsVoidContent(t *testing.T) {
	e := newEditor(para(text("a"), mention(), text("b")))
	got, err := e.Nodes(NodesOptions{At: location.Path{}, Match: isText})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(pathStrings(location.Path{0, 0}, location.Path{0, 2}), entryPaths(got)); diff != "" {
		t.Errorf("without voids (-want +got):\n%s", diff)
	}
	got, err = e.Nodes(NodesOptions{At: location.Path{}, Match: isText, Voids: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("with voids got %d texts, want 3", len(got))
	}
}

func TestPositions(t *testing.T) {
	tests := []struct {
		name  string
		nodes []node.Node
		opts  PositionsOptions
		want  []location.Point
	}{
		{
			name:  "word",
			nodes: []node.Node{para(text("Hello world"))},
			opts:  PositionsOptions{At: location.Path{}, Unit: UnitWord},
			want:  []location.Point{pt(0, 0, 0), pt(5, 0, 0), pt(11, 0, 0)},
		},
		{
			name:  "character across blocks",
			nodes: []node.Node{para(text("a")), para(text("b"))},
			opts:  PositionsOptions{At: location.Path{}, Unit: UnitCharacter},
			want:  []location.Point{pt(0, 0, 0), pt(1, 0, 0), pt(0, 1, 0), pt(1, 1, 0)},
		},
		{
			name:  "reverse line",
			nodes: []node.Node{para(text("ab")), para(text("cd"))},
			opts:  PositionsOptions{At: location.Path{}, Unit: UnitLine, Reverse: true},
			want:  []location.Point{pt(2, 1, 0), pt(0, 1, 0), pt(2, 0, 0), pt(0, 0, 0)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEditor(tt.nodes...)
			got, err := e.Positions(tt.opts)
			if err != nil {
				t.Fatalf("Positions() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Positions() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBeforeAfterGraphemes(t *testing.T) {
	e := newEditor(para(text("e\u0301x\U0001F44D")))

	p, ok, err := e.Before(pt(5, 0, 0), StepOptions{Unit: UnitCharacter})
	if err != nil || !ok || !p.Equal(pt(3, 0, 0)) {
		t.Errorf("Before(end) = %v, %v, %v; want [0 0]:3", p, ok, err)
	}
	p, ok, err = e.Before(pt(2, 0, 0), StepOptions{Unit: UnitCharacter})
	if err != nil || !ok || !p.Equal(pt(0, 0, 0)) {
		t.Errorf("Before(combining) = %v, %v, %v; want [0 0]:0", p, ok, err)
	}
	p, ok, err = e.After(pt(0, 0, 0), StepOptions{Unit: UnitCharacter, Distance: 2})
	if err != nil || !ok || !p.Equal(pt(3, 0, 0)) {
		t.Errorf("After(start, 2) = %v, %v, %v; want [0 0]:3", p, ok, err)
	}
	if _, ok, _ := e.After(pt(5, 0, 0), StepOptions{}); ok {
		t.Error("After(document end) found a point")
	}
}

func TestMoveSelection(t *testing.T) {
	e := newEditor(para(text("Hello world")))
	if err := e.Select(pt(0, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := e.Move(MoveOptions{Unit: UnitWord}); err != nil {
		t.Fatal(err)
	}
	want := caret(5, 0, 0)
	checkSelection(t, e, &want)

	if err := e.Move(MoveOptions{Distance: 3, Edge: EdgeFocus}); err != nil {
		t.Fatal(err)
	}
	want = location.NewRange(pt(5, 0, 0), pt(8, 0, 0))
	checkSelection(t, e, &want)

	if err := e.Collapse(EdgeEnd); err != nil {
		t.Fatal(err)
	}
	want = caret(8, 0, 0)
	checkSelection(t, e, &want)

	if err := e.Deselect(); err != nil {
		t.Fatal(err)
	}
	checkSelection(t, e, nil)
}

func TestUnhangRange(t *testing.T) {
	e := newEditor(para(text("Hello")), para(text("world")))
	got, err := e.UnhangRange(location.NewRange(pt(0, 0, 0), pt(0, 1, 0)), false)
	if err != nil {
		t.Fatal(err)
	}
	want := location.NewRange(pt(0, 0, 0), pt(5, 0, 0))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("UnhangRange() (-want +got):\n%s", diff)
	}

	r := location.NewRange(pt(1, 0, 0), pt(0, 1, 0))
	if got, _ := e.UnhangRange(r, false); !got.Equal(r) {
		t.Errorf("UnhangRange(%v) = %v, want unchanged", r, got)
	}
}

func TestStringAndEdges(t *testing.T) {
	e := newEditor(para(text("Hello")), para(text("big "), link(text("wide")), text(" world")))

	s, err := e.String(location.Path{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if s != "Hellobig wide world" {
		t.Errorf("String() = %q", s)
	}

	s, err = e.String(location.NewRange(pt(2, 0, 0), pt(2, 1, 1, 0)), false)
	if err != nil {
		t.Fatal(err)
	}
	if s != "llobig wi" {
		t.Errorf("String(range) = %q", s)
	}

	start, end, err := e.Edges(location.Path{1})
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(pt(0, 1, 0)) || !end.Equal(pt(6, 1, 2)) {
		t.Errorf("Edges([1]) = %v, %v", start, end)
	}
}

func TestAboveAndLevels(t *testing.T) {
	e := newEditor(quote(para(text("a"), link(text("b")), text(""))))

	above, ok, err := e.Above(QueryOptions{At: pt(0, 0, 0, 1, 0), Match: e.isBlockMatch})
	if err != nil || !ok {
		t.Fatalf("Above() = %v, %v", ok, err)
	}
	if !above.Path.Equal(location.Path{0, 0}) {
		t.Errorf("Above() path = %v, want [0 0]", above.Path)
	}

	above, ok, err = e.Above(QueryOptions{At: pt(0, 0, 0, 1, 0), Match: e.isBlockMatch, Mode: ModeHighest})
	if err != nil || !ok || !above.Path.Equal(location.Path{0}) {
		t.Errorf("Above(highest) = %v, %v, %v; want [0]", above.Path, ok, err)
	}

	levels, err := e.Levels(QueryOptions{At: location.Path{0, 0, 1, 0}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(pathStrings(location.Path{}, location.Path{0}, location.Path{0, 0}, location.Path{0, 0, 1}, location.Path{0, 0, 1, 0}), entryPaths(levels)); diff != "" {
		t.Errorf("Levels() (-want +got):\n%s", diff)
	}

	if !e.HasInlines(e.Children().Children[0].(*node.Element).Children[0].(*node.Element)) {
		t.Error("HasInlines(paragraph) = false")
	}
	if !e.HasBlocks(e.Children()) {
		t.Error("HasBlocks(root) = false")
	}
}

func TestPreviousAndNext(t *testing.T) {
	e := newEditor(para(text("a")), para(text("b")), para(text("c")))

	prev, ok, err := e.Previous(QueryOptions{At: location.Path{1}})
	if err != nil || !ok || !prev.Path.Equal(location.Path{0}) {
		t.Errorf("Previous([1]) = %v, %v, %v; want [0]", prev.Path, ok, err)
	}
	next, ok, err := e.Next(QueryOptions{At: location.Path{1}})
	if err != nil || !ok || !next.Path.Equal(location.Path{2}) {
		t.Errorf("Next([1]) = %v, %v, %v; want [2]", next.Path, ok, err)
	}
	if _, ok, _ := e.Previous(QueryOptions{At: location.Path{0}}); ok {
		t.Error("Previous([0]) found an entry")
	}
}
