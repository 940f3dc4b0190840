package operation

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/textutil"
)

// Apply applies op to root and sel and returns the resulting tree and
// selection. The inputs are never modified; on error they are returned
// unchanged together with an *ApplyError.
func Apply(root *node.Root, sel *location.Range, op Operation) (*node.Root, *location.Range, error) {
	next, err := applyTree(root, op)
	if err != nil {
		return root, sel, err
	}
	nextSel, err := applySelection(next, sel, op)
	if err != nil {
		return root, sel, err
	}
	return next, nextSel, nil
}

func fail(op Operation, path location.Path, err error) error {
	if errors.Is(err, node.ErrNotFound) {
		err = fmt.Errorf("%w: %w", ErrPathNotFound, err)
	}
	return &ApplyError{Op: op, Path: path, Err: err}
}

func applyTree(root *node.Root, op Operation) (*node.Root, error) {
	switch o := op.(type) {
	case InsertNode:
		if len(o.Path) == 0 {
			return nil, fail(op, o.Path, ErrRootOperation)
		}
		if o.Node == nil {
			return nil, fail(op, o.Path, ErrInvalidNode)
		}
		if _, ok := o.Node.(*node.Root); ok {
			return nil, fail(op, o.Path, ErrInvalidNode)
		}
		idx := o.Path.Last()
		next, err := node.UpdateChildren(root, o.Path.Parent(), func(kids []node.Node) ([]node.Node, error) {
			if idx > len(kids) {
				return nil, ErrInvalidIndex
			}
			return slices.Insert(kids, idx, o.Node), nil
		})
		if err != nil {
			return nil, fail(op, o.Path, err)
		}
		return next, nil

	case RemoveNode:
		if len(o.Path) == 0 {
			return nil, fail(op, o.Path, ErrRootOperation)
		}
		next, err := removeAt(root, o.Path)
		if err != nil {
			return nil, fail(op, o.Path, err)
		}
		return next, nil

	case InsertText:
		next, err := node.Update(root, o.Path, func(n node.Node) (node.Node, error) {
			t, ok := n.(*node.Text)
			if !ok {
				return nil, ErrNotText
			}
			if o.Offset < 0 || o.Offset > textutil.Len(t.Text) {
				return nil, ErrInvalidOffset
			}
			return t.WithText(textutil.Insert(t.Text, o.Offset, o.Text)), nil
		})
		if err != nil {
			return nil, fail(op, o.Path, err)
		}
		return next, nil

	case RemoveText:
		next, err := node.Update(root, o.Path, func(n node.Node) (node.Node, error) {
			t, ok := n.(*node.Text)
			if !ok {
				return nil, ErrNotText
			}
			if o.Offset < 0 || o.Offset+textutil.Len(o.Text) > textutil.Len(t.Text) {
				return nil, ErrInvalidOffset
			}
			return t.WithText(textutil.Remove(t.Text, o.Offset, textutil.Len(o.Text))), nil
		})
		if err != nil {
			return nil, fail(op, o.Path, err)
		}
		return next, nil

	case MergeNode:
		if len(o.Path) == 0 {
			return nil, fail(op, o.Path, ErrRootOperation)
		}
		idx := o.Path.Last()
		next, err := node.UpdateChildren(root, o.Path.Parent(), func(kids []node.Node) ([]node.Node, error) {
			if idx >= len(kids) {
				return nil, node.ErrNotFound
			}
			if idx <= 0 {
				return nil, ErrInvalidIndex
			}
			merged, err := merge(kids[idx-1], kids[idx])
			if err != nil {
				return nil, err
			}
			kids[idx-1] = merged
			return slices.Delete(kids, idx, idx+1), nil
		})
		if err != nil {
			return nil, fail(op, o.Path, err)
		}
		return next, nil

	case SplitNode:
		if len(o.Path) == 0 {
			return nil, fail(op, o.Path, ErrRootOperation)
		}
		idx := o.Path.Last()
		next, err := node.UpdateChildren(root, o.Path.Parent(), func(kids []node.Node) ([]node.Node, error) {
			if idx >= len(kids) {
				return nil, node.ErrNotFound
			}
			before, after, err := split(kids[idx], o.Position, o.Properties)
			if err != nil {
				return nil, err
			}
			kids[idx] = before
			return slices.Insert(kids, idx+1, after), nil
		})
		if err != nil {
			return nil, fail(op, o.Path, err)
		}
		return next, nil

	case MoveNode:
		if len(o.Path) == 0 || len(o.NewPath) == 0 {
			return nil, fail(op, o.Path, ErrRootOperation)
		}
		if o.Path.IsAncestor(o.NewPath) {
			return nil, fail(op, o.Path, ErrMoveIntoDescendant)
		}
		moved, err := node.Get(root, o.Path)
		if err != nil {
			return nil, fail(op, o.Path, err)
		}
		if o.Path.Equal(o.NewPath) {
			return root, nil
		}
		next, err := removeAt(root, o.Path)
		if err != nil {
			return nil, fail(op, o.Path, err)
		}
		truePath, _ := TransformPath(o.Path, op, location.AffinityForward)
		idx := truePath.Last()
		next, err = node.UpdateChildren(next, truePath.Parent(), func(kids []node.Node) ([]node.Node, error) {
			if idx > len(kids) {
				return nil, ErrInvalidIndex
			}
			return slices.Insert(kids, idx, moved), nil
		})
		if err != nil {
			return nil, fail(op, o.NewPath, err)
		}
		return next, nil

	case SetNode:
		if len(o.Path) == 0 {
			return nil, fail(op, o.Path, ErrRootOperation)
		}
		var unset []string
		for k := range o.Properties {
			if _, ok := o.NewProperties[k]; !ok {
				unset = append(unset, k)
			}
		}
		next, err := node.Update(root, o.Path, func(n node.Node) (node.Node, error) {
			out, err := node.SetProperties(n, o.NewProperties, unset)
			if errors.Is(err, node.ErrReservedProperty) {
				return nil, ErrReservedProperty
			}
			return out, err
		})
		if err != nil {
			return nil, fail(op, o.Path, err)
		}
		return next, nil

	case SetSelection:
		return root, nil
	}

	return nil, &ApplyError{Op: op, Err: fmt.Errorf("%w: %T", ErrUnknownOperation, op)}
}

func removeAt(root *node.Root, path location.Path) (*node.Root, error) {
	idx := path.Last()
	return node.UpdateChildren(root, path.Parent(), func(kids []node.Node) ([]node.Node, error) {
		if idx < 0 || idx >= len(kids) {
			return nil, node.ErrNotFound
		}
		return slices.Delete(kids, idx, idx+1), nil
	})
}

func merge(prev, n node.Node) (node.Node, error) {
	switch p := prev.(type) {
	case *node.Text:
		t, ok := n.(*node.Text)
		if !ok {
			return nil, ErrMismatchedMerge
		}
		return p.WithText(p.Text + t.Text), nil
	case *node.Element:
		e, ok := n.(*node.Element)
		if !ok {
			return nil, ErrMismatchedMerge
		}
		kids := make([]node.Node, 0, len(p.Children)+len(e.Children))
		kids = append(kids, p.Children...)
		kids = append(kids, e.Children...)
		return p.WithChildren(kids), nil
	}
	return nil, ErrMismatchedMerge
}

func split(n node.Node, position int, props node.Props) (node.Node, node.Node, error) {
	switch v := n.(type) {
	case *node.Text:
		if position < 0 || position > textutil.Len(v.Text) {
			return nil, nil, ErrInvalidOffset
		}
		after, err := node.SetProperties(&node.Text{Text: textutil.SliceFrom(v.Text, position)}, props, nil)
		if err != nil {
			return nil, nil, err
		}
		return v.WithText(textutil.SliceTo(v.Text, position)), after, nil
	case *node.Element:
		if position < 0 || position > len(v.Children) {
			return nil, nil, ErrInvalidOffset
		}
		before := slices.Clone(v.Children[:position])
		rest := slices.Clone(v.Children[position:])
		after, err := node.SetProperties(&node.Element{Children: rest}, props, nil)
		if err != nil {
			return nil, nil, err
		}
		return v.WithChildren(before), after, nil
	}
	return nil, nil, ErrInvalidNode
}

func applySelection(root *node.Root, sel *location.Range, op Operation) (*location.Range, error) {
	switch o := op.(type) {
	case SetSelection:
		return applySetSelection(sel, o)

	case RemoveNode:
		if sel == nil {
			return nil, nil
		}
		out := sel.Clone()
		for _, pt := range []*location.Point{&out.Anchor, &out.Focus} {
			if moved, ok := TransformPoint(*pt, op, location.AffinityForward); ok {
				*pt = moved
				continue
			}
			fallback, ok := nearestText(root, o.Path)
			if !ok {
				return nil, nil
			}
			*pt = fallback
		}
		return &out, nil
	}

	if sel == nil {
		return nil, nil
	}
	out := sel.Clone()
	if a, ok := TransformPoint(out.Anchor, op, location.AffinityForward); ok {
		out.Anchor = a
	}
	if f, ok := TransformPoint(out.Focus, op, location.AffinityForward); ok {
		out.Focus = f
	}
	return &out, nil
}

// nearestText picks the point a selection edge falls back to when the text
// it was in has been removed: the end of the previous text or the start of
// the next one, preferring whichever shares more ancestry with the removed
// path.
func nearestText(root *node.Root, removed location.Path) (location.Point, bool) {
	var prev, next *node.Entry
	node.Walk(root, node.WalkOptions{}, func(e node.Entry) bool {
		if !node.IsText(e.Node) {
			return true
		}
		if e.Path.Compare(removed) == -1 {
			entry := e
			prev = &entry
			return true
		}
		entry := e
		next = &entry
		return false
	})

	preferNext := false
	if prev != nil && next != nil {
		if next.Path.Equal(removed) {
			preferNext = !next.Path.HasPrevious()
		} else {
			preferNext = len(prev.Path.Common(removed)) < len(next.Path.Common(removed))
		}
	}

	switch {
	case prev != nil && !preferNext:
		return location.NewPoint(prev.Path, textutil.Len(prev.Node.(*node.Text).Text)), true
	case next != nil:
		return location.NewPoint(next.Path, 0), true
	}
	return location.Point{}, false
}

func applySetSelection(sel *location.Range, o SetSelection) (*location.Range, error) {
	if o.NewProperties == nil {
		return nil, nil
	}
	if sel == nil {
		r, ok := o.NewProperties.Range()
		if !ok {
			return nil, &ApplyError{Op: o, Err: ErrIncompleteSelection}
		}
		return &r, nil
	}
	out := sel.Clone()
	if o.NewProperties.Anchor != nil {
		out.Anchor = o.NewProperties.Anchor.Clone()
	}
	if o.NewProperties.Focus != nil {
		out.Focus = o.NewProperties.Focus.Clone()
	}
	return &out, nil
}
