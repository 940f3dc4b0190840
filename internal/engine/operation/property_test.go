package operation

import (
	"encoding/json"
	"math/rand"
	"testing"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/textutil"
)

func propertyTree() *node.Root {
	return node.NewRoot(
		para(text("Hello "), node.NewElement("link", node.Props{"url": "a"}, text("big")), text(" world")),
		node.NewElement("quote", nil,
			para(text("one")),
			para(node.NewText("two", node.Props{"bold": true})),
		),
		para(text("")),
	)
}

// randomOperation builds an operation against root. The result may still
// fail to apply; callers skip those.
func randomOperation(rng *rand.Rand, root *node.Root) Operation {
	all := node.Nodes(root, node.WalkOptions{})[1:]
	texts := node.Texts(root, node.WalkOptions{})
	pick := all[rng.Intn(len(all))]

	switch rng.Intn(9) {
	case 0:
		leaf := texts[rng.Intn(len(texts))]
		n := textutil.Len(leaf.Node.(*node.Text).Text)
		return InsertText{Path: leaf.Path, Offset: rng.Intn(n + 1), Text: "xy"}
	case 1:
		leaf := texts[rng.Intn(len(texts))]
		s := leaf.Node.(*node.Text).Text
		n := textutil.Len(s)
		from := rng.Intn(n + 1)
		to := from + rng.Intn(n-from+1)
		return RemoveText{Path: leaf.Path, Offset: from, Text: textutil.Slice(s, from, to)}
	case 2:
		var child node.Node = text("new")
		if len(pick.Path) == 1 {
			child = para(text("new"))
		}
		return InsertNode{Path: pick.Path.Parent().Append(rng.Intn(len(node.Children(mustParent(root, pick.Path))) + 1)), Node: child}
	case 3:
		return RemoveNode{Path: pick.Path, Node: pick.Node}
	case 4:
		if !pick.Path.HasPrevious() {
			return nil
		}
		prev, _ := node.Get(root, pick.Path.Previous())
		pos := len(node.Children(prev))
		if t, ok := prev.(*node.Text); ok {
			pos = textutil.Len(t.Text)
		}
		return MergeNode{Path: pick.Path, Position: pos, Properties: node.Properties(pick.Node)}
	case 5:
		size := len(node.Children(pick.Node))
		if t, ok := pick.Node.(*node.Text); ok {
			size = textutil.Len(t.Text)
		}
		return SplitNode{Path: pick.Path, Position: rng.Intn(size + 1), Properties: node.Properties(pick.Node)}
	case 6:
		to := all[rng.Intn(len(all))]
		return MoveNode{Path: pick.Path, NewPath: to.Path}
	case 7:
		before := node.Properties(pick.Node)
		old := node.Props{"level": before["level"]}
		if _, ok := before["level"]; !ok {
			old = nil
		}
		return SetNode{Path: pick.Path, Properties: old, NewProperties: node.Props{"level": float64(rng.Intn(3))}}
	default:
		leaf := texts[rng.Intn(len(texts))]
		a := location.NewPoint(leaf.Path, 0)
		return SetSelection{NewProperties: &SelectionProps{Anchor: &a, Focus: &a}}
	}
}

func mustParent(root *node.Root, p location.Path) node.Node {
	parent, err := node.Parent(root, p)
	if err != nil {
		panic(err)
	}
	return parent
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestInverseLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	seen := map[Type]int{}

	for i := 0; i < 2000; i++ {
		root := propertyTree()
		op := randomOperation(rng, root)
		if op == nil {
			continue
		}
		next, sel, err := Apply(root, nil, op)
		if err != nil {
			continue
		}
		inv, err := Inverse(op)
		if err != nil {
			t.Fatalf("Inverse(%s) error = %v", mustJSON(t, op), err)
		}
		back, _, err := Apply(next, sel, inv)
		if err != nil {
			t.Fatalf("Apply(inverse of %s) error = %v", mustJSON(t, op), err)
		}
		if !jsonpatch.Equal(mustJSON(t, root), mustJSON(t, back)) {
			t.Fatalf("inverse of %s gave %s", mustJSON(t, op), mustJSON(t, back))
		}
		seen[op.Type()]++
	}

	for _, typ := range []Type{TypeInsertText, TypeRemoveText, TypeInsertNode, TypeRemoveNode, TypeMergeNode, TypeSplitNode, TypeMoveNode, TypeSetNode} {
		if seen[typ] == 0 {
			t.Errorf("no %s operation was exercised", typ)
		}
	}
}

func TestTransformPathFollowsNode(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 2000; i++ {
		root := propertyTree()
		op := randomOperation(rng, root)
		if op == nil {
			continue
		}
		switch op.(type) {
		case InsertNode, RemoveNode, MoveNode:
		default:
			continue
		}
		next, _, err := Apply(root, nil, op)
		if err != nil {
			continue
		}
		for _, leaf := range node.Texts(root, node.WalkOptions{}) {
			p, ok := TransformPath(leaf.Path, op, location.AffinityForward)
			if !ok {
				if rm, isRemove := op.(RemoveNode); !isRemove || !rm.Path.IsCommon(leaf.Path) {
					t.Fatalf("TransformPath(%s, %s) dropped a surviving node", leaf.Path, mustJSON(t, op))
				}
				continue
			}
			got, err := node.Get(next, p)
			if err != nil {
				t.Fatalf("TransformPath(%s, %s) = %s, which does not resolve", leaf.Path, mustJSON(t, op), p)
			}
			if got != leaf.Node {
				t.Fatalf("TransformPath(%s, %s) = %s, which addresses a different node", leaf.Path, mustJSON(t, op), p)
			}
		}
	}
}
