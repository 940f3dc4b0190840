package operation

import (
	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
)

// Type is the wire name of an operation variant.
type Type string

// Operation variants.
const (
	TypeInsertNode   Type = "insert_node"
	TypeRemoveNode   Type = "remove_node"
	TypeMergeNode    Type = "merge_node"
	TypeMoveNode     Type = "move_node"
	TypeSetNode      Type = "set_node"
	TypeSplitNode    Type = "split_node"
	TypeInsertText   Type = "insert_text"
	TypeRemoveText   Type = "remove_text"
	TypeSetSelection Type = "set_selection"
)

// Operation is one atomic edit.
type Operation interface {
	Type() Type
}

// InsertNode inserts Node so that it ends up at Path.
type InsertNode struct {
	Path location.Path
	Node node.Node
}

// RemoveNode removes the node at Path. Node holds the removed node so the
// operation can be inverted.
type RemoveNode struct {
	Path location.Path
	Node node.Node
}

// MergeNode merges the node at Path into its previous sibling. Position is
// the length (text units or child count) of the previous sibling before the
// merge; Properties are the properties of the merged node.
type MergeNode struct {
	Path       location.Path
	Position   int
	Properties node.Props
}

// MoveNode moves the node at Path so that it ends up at NewPath.
type MoveNode struct {
	Path    location.Path
	NewPath location.Path
}

// SetNode changes properties of the node at Path. Properties holds the
// previous values of every key touched; keys present in Properties but
// absent from NewProperties are removed.
type SetNode struct {
	Path          location.Path
	Properties    node.Props
	NewProperties node.Props
}

// SplitNode splits the node at Path at Position. The second half is
// inserted as the next sibling with Properties.
type SplitNode struct {
	Path       location.Path
	Position   int
	Properties node.Props
}

// InsertText inserts Text at Offset in the text leaf at Path.
type InsertText struct {
	Path   location.Path
	Offset int
	Text   string
}

// RemoveText removes Text starting at Offset from the text leaf at Path.
type RemoveText struct {
	Path   location.Path
	Offset int
	Text   string
}

// SelectionProps is a partial range. A nil field is left unchanged.
type SelectionProps struct {
	Anchor *location.Point
	Focus  *location.Point
}

// Complete reports whether both ends are set.
func (s *SelectionProps) Complete() bool {
	return s != nil && s.Anchor != nil && s.Focus != nil
}

// Range returns the range described by a complete SelectionProps.
func (s *SelectionProps) Range() (location.Range, bool) {
	if !s.Complete() {
		return location.Range{}, false
	}
	return location.NewRange(*s.Anchor, *s.Focus), true
}

// SelectionFromRange returns SelectionProps for a full range, or nil for a
// nil range.
func SelectionFromRange(r *location.Range) *SelectionProps {
	if r == nil {
		return nil
	}
	a, f := r.Anchor.Clone(), r.Focus.Clone()
	return &SelectionProps{Anchor: &a, Focus: &f}
}

// SetSelection changes the selection. A nil Properties means there was no
// selection; a nil NewProperties clears it.
type SetSelection struct {
	Properties    *SelectionProps
	NewProperties *SelectionProps
}

// Type implementations.
func (InsertNode) Type() Type   { return TypeInsertNode }
func (RemoveNode) Type() Type   { return TypeRemoveNode }
func (MergeNode) Type() Type    { return TypeMergeNode }
func (MoveNode) Type() Type     { return TypeMoveNode }
func (SetNode) Type() Type      { return TypeSetNode }
func (SplitNode) Type() Type    { return TypeSplitNode }
func (InsertText) Type() Type   { return TypeInsertText }
func (RemoveText) Type() Type   { return TypeRemoveText }
func (SetSelection) Type() Type { return TypeSetSelection }

// PathOf returns the path an operation targets, or nil for set_selection.
func PathOf(op Operation) location.Path {
	switch o := op.(type) {
	case InsertNode:
		return o.Path
	case RemoveNode:
		return o.Path
	case MergeNode:
		return o.Path
	case MoveNode:
		return o.Path
	case SetNode:
		return o.Path
	case SplitNode:
		return o.Path
	case InsertText:
		return o.Path
	case RemoveText:
		return o.Path
	}
	return nil
}

// IsNodeOperation reports whether op changes tree structure or node
// properties.
func IsNodeOperation(op Operation) bool {
	switch op.(type) {
	case InsertNode, RemoveNode, MergeNode, MoveNode, SetNode, SplitNode:
		return true
	}
	return false
}

// IsTextOperation reports whether op edits text content.
func IsTextOperation(op Operation) bool {
	switch op.(type) {
	case InsertText, RemoveText:
		return true
	}
	return false
}

// IsSelectionOperation reports whether op only changes the selection.
func IsSelectionOperation(op Operation) bool {
	_, ok := op.(SetSelection)
	return ok
}

// CanTransformPath reports whether op can move or delete paths.
func CanTransformPath(op Operation) bool {
	switch op.(type) {
	case InsertNode, RemoveNode, MergeNode, SplitNode, MoveNode:
		return true
	}
	return false
}
