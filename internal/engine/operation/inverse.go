package operation

import (
	"fmt"

	"github.com/dshills/treestorm/internal/engine/location"
)

// Inverse returns the operation that undoes op when applied to the tree op
// produced.
func Inverse(op Operation) (Operation, error) {
	switch o := op.(type) {
	case InsertNode:
		return RemoveNode(o), nil

	case RemoveNode:
		return InsertNode(o), nil

	case InsertText:
		return RemoveText(o), nil

	case RemoveText:
		return InsertText(o), nil

	case MergeNode:
		if !o.Path.HasPrevious() {
			return nil, &ApplyError{Op: op, Path: o.Path, Err: ErrInvalidIndex}
		}
		return SplitNode{Path: o.Path.Previous(), Position: o.Position, Properties: o.Properties}, nil

	case SplitNode:
		if len(o.Path) == 0 {
			return nil, &ApplyError{Op: op, Path: o.Path, Err: ErrRootOperation}
		}
		return MergeNode{Path: o.Path.Next(), Position: o.Position, Properties: o.Properties}, nil

	case SetNode:
		return SetNode{Path: o.Path, Properties: o.NewProperties, NewProperties: o.Properties}, nil

	case MoveNode:
		if o.Path.Equal(o.NewPath) {
			return o, nil
		}
		if o.Path.IsSibling(o.NewPath) {
			return MoveNode{Path: o.NewPath, NewPath: o.Path}, nil
		}
		if len(o.Path) == 0 {
			return nil, &ApplyError{Op: op, Path: o.Path, Err: ErrRootOperation}
		}
		// A move across parents can shift both its source and destination,
		// so the inverse is derived from where the old path and its next
		// sibling slot end up.
		path, ok := TransformPath(o.Path, op, location.AffinityForward)
		if !ok {
			return nil, &ApplyError{Op: op, Path: o.Path, Err: ErrPathNotFound}
		}
		newPath, ok := TransformPath(o.Path.Next(), op, location.AffinityForward)
		if !ok {
			return nil, &ApplyError{Op: op, Path: o.Path, Err: ErrPathNotFound}
		}
		return MoveNode{Path: path, NewPath: newPath}, nil

	case SetSelection:
		switch {
		case o.Properties == nil:
			return SetSelection{Properties: o.NewProperties}, nil
		case o.NewProperties == nil:
			if !o.Properties.Complete() {
				return nil, &ApplyError{Op: op, Err: ErrIncompleteSelection}
			}
			return SetSelection{NewProperties: o.Properties}, nil
		default:
			return SetSelection{Properties: o.NewProperties, NewProperties: o.Properties}, nil
		}
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownOperation, op)
}

// InverseAll returns the inverse of a sequence of operations: each
// operation inverted, in reverse order.
func InverseAll(ops []Operation) ([]Operation, error) {
	out := make([]Operation, 0, len(ops))
	for i := len(ops) - 1; i >= 0; i-- {
		inv, err := Inverse(ops[i])
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}
