package schema

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/treestorm/internal/engine/editor"
	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
)

// Repair fixes err. The rule's Normalize callback runs first; the default
// repair follows only when the callback applied no operation.
func (s *Schema) Repair(e *editor.Editor, err *SchemaError) error {
	s.logger.Debug("schema violation",
		zap.String("kind", string(err.Kind)),
		zap.Stringer("path", err.Path),
		zap.Int("index", err.Index))

	if err.Rule != nil && err.Rule.Normalize != nil {
		before := e.Applied()
		if nerr := err.Rule.Normalize(e, err); nerr != nil {
			return fmt.Errorf("normalize %s: %w", err.Kind, nerr)
		}
		if e.Applied() > before {
			return nil
		}
	}
	return defaultRepair(e, err)
}

func defaultRepair(e *editor.Editor, err *SchemaError) error {
	switch err.Kind {
	case ChildObjectInvalid, ChildTypeInvalid, ChildPropertyInvalid, ChildUnknown,
		FirstChildObjectInvalid, FirstChildTypeInvalid,
		LastChildObjectInvalid, LastChildTypeInvalid:
		// Core normalization would put back the only text of a block.
		if node.IsText(err.Child) && len(node.Children(err.Node)) == 1 && ObjectOf(e, err.Node) == ObjectBlock {
			return removeNode(e, err.Path)
		}
		p, _ := err.ChildPath()
		return removeNode(e, p)

	case ChildMaxInvalid:
		p, _ := err.ChildPath()
		if err.Rule.Children[err.group].MergeOverflow && mergeable(err.Node, err.Index) {
			return e.MergeNodes(editor.NodeOptions{At: p, Voids: true})
		}
		return removeNode(e, p)

	case ChildMinInvalid:
		if def := err.Rule.Children[err.group].Default; def != nil {
			return e.InsertNodes([]node.Node{def}, editor.NodeOptions{At: err.Path.Append(err.Index), Voids: true})
		}
		return removeNode(e, err.Path)

	case NextSiblingObjectInvalid, NextSiblingTypeInvalid,
		PreviousSiblingObjectInvalid, PreviousSiblingTypeInvalid:
		p, _ := err.ChildPath()
		return removeNode(e, p)

	case NodePropertyInvalid:
		if _, ok := node.Properties(err.Node)[err.Property]; ok && len(err.Path) > 0 {
			return e.UnsetNodes([]string{err.Property}, editor.NodeOptions{At: err.Path, Voids: true})
		}
		return removeNode(e, err.Path)

	case NodeMarkInvalid:
		mark := err.Mark
		return e.UnsetNodes([]string{mark}, editor.NodeOptions{
			At: err.Path,
			Match: func(n node.Node, _ location.Path) bool {
				t, ok := n.(*node.Text)
				if !ok {
					return false
				}
				_, has := t.Marks[mark]
				return has
			},
			Mode:  editor.ModeAll,
			Voids: true,
		})
	}
	return removeNode(e, err.Path)
}

// mergeable reports whether child index of n can merge into its previous
// sibling.
func mergeable(n node.Node, index int) bool {
	kids := node.Children(n)
	if index <= 0 || index >= len(kids) {
		return false
	}
	return node.IsText(kids[index]) == node.IsText(kids[index-1])
}

// removeNode removes the node at p. The root cannot be removed, so it is
// emptied instead.
func removeNode(e *editor.Editor, p location.Path) error {
	if len(p) > 0 {
		return e.RemoveNodes(editor.NodeOptions{At: p, Voids: true})
	}
	for i := len(e.Children().Children) - 1; i >= 0; i-- {
		if err := e.RemoveNodes(editor.NodeOptions{At: location.Path{i}, Voids: true}); err != nil {
			return err
		}
	}
	return nil
}
