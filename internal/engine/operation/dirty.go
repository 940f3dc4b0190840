package operation

import (
	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
)

// DirtyPaths returns the paths, in the tree produced by op, whose nodes may
// violate a structural rule because of op.
func DirtyPaths(op Operation) []location.Path {
	switch o := op.(type) {
	case InsertText:
		return o.Path.Levels()
	case RemoveText:
		return o.Path.Levels()
	case SetNode:
		return o.Path.Levels()

	case InsertNode:
		out := o.Path.Levels()
		if _, ok := o.Node.(*node.Text); ok {
			return out
		}
		node.Walk(o.Node, node.WalkOptions{}, func(e node.Entry) bool {
			if len(e.Path) > 0 {
				out = append(out, o.Path.Append(e.Path...))
			}
			return true
		})
		return out

	case MergeNode:
		out := o.Path.Ancestors()
		if o.Path.HasPrevious() {
			out = append(out, o.Path.Previous())
		}
		return out

	case MoveNode:
		if o.Path.Equal(o.NewPath) || len(o.NewPath) == 0 {
			return nil
		}
		var out []location.Path
		for _, a := range o.Path.Ancestors() {
			if p, ok := TransformPath(a, op, location.AffinityForward); ok {
				out = append(out, p)
			}
		}
		var newParent location.Path
		for _, a := range o.NewPath.Ancestors() {
			if p, ok := TransformPath(a, op, location.AffinityForward); ok {
				out = append(out, p)
				newParent = p
			}
		}
		return append(out, newParent.Append(o.NewPath.Last()))

	case RemoveNode:
		return o.Path.Ancestors()

	case SplitNode:
		if len(o.Path) == 0 {
			return nil
		}
		out := o.Path.Ancestors()
		return append(out, o.Path.Clone(), o.Path.Next())
	}
	return nil
}
