package editor

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/operation"
)

// NormalizeOptions controls Normalize.
type NormalizeOptions struct {
	// Force marks every node dirty before normalizing.
	Force bool
}

// IsNormalizing reports whether operations trigger normalization.
func (e *Editor) IsNormalizing() bool {
	return e.normalizing
}

// SetNormalizing enables or disables normalization after each operation.
func (e *Editor) SetNormalizing(on bool) {
	e.normalizing = on
}

// DirtyPaths returns a copy of the pending dirty paths.
func (e *Editor) DirtyPaths() []location.Path {
	out := make([]location.Path, len(e.dirty))
	for i, p := range e.dirty {
		out[i] = p.Clone()
	}
	return out
}

// WithoutNormalizing runs fn with normalization deferred, then normalizes
// once if fn succeeded. Calls nest: only the outermost call normalizes.
//
// The outermost call is atomic. If fn or the final normalization fails,
// the document, selection, marks, pending operations, dirty paths, refs
// and every registered checkpoint are restored to their state on entry.
func (e *Editor) WithoutNormalizing(fn func() error) error {
	var restore func()
	if e.batchDepth == 0 {
		restore = e.checkpoint()
	}

	err := e.deferNormalizing(fn)
	if err == nil && e.batchDepth == 0 {
		err = e.Normalize(NormalizeOptions{})
	}
	if err != nil && restore != nil {
		restore()
	}
	return err
}

func (e *Editor) deferNormalizing(fn func() error) error {
	prev := e.normalizing
	e.normalizing = false
	e.batchDepth++
	defer func() {
		e.normalizing = prev
		e.batchDepth--
	}()
	return fn()
}

// Normalize drains the dirty paths through the normalizer chain. It does
// nothing while normalization is disabled.
func (e *Editor) Normalize(opts NormalizeOptions) error {
	if !e.normalizing {
		return nil
	}
	if opts.Force {
		e.resetDirty()
		node.Walk(e.root, node.WalkOptions{}, func(entry node.Entry) bool {
			e.addDirty(entry.Path)
			return true
		})
	}
	if len(e.dirty) == 0 {
		return nil
	}

	return e.WithoutNormalizing(func() error {
		// Empty elements first: giving them a child cannot move other
		// dirty paths, and later rules expect every element to have one.
		for _, p := range slices.Clone(e.dirty) {
			n, err := node.Get(e.root, p)
			if err != nil {
				continue
			}
			if el, ok := n.(*node.Element); ok && len(el.Children) == 0 {
				if err := e.normalize(e, node.Entry{Node: n, Path: p}); err != nil {
					return err
				}
			}
		}

		initial := len(e.dirty)
		limit := initial * e.iterationFactor
		iteration := 0
		for len(e.dirty) > 0 {
			if iteration > limit {
				e.logger.Error("normalization did not converge",
					zap.Int("dirty", initial),
					zap.Int("iterations", iteration))
				return fmt.Errorf("%w after %d iterations", ErrNormalizationLimit, limit)
			}
			p := e.popDirty()
			if n, err := node.Get(e.root, p); err == nil {
				if err := e.normalize(e, node.Entry{Node: n, Path: p}); err != nil {
					return err
				}
			}
			iteration++
		}
		return nil
	})
}

func (e *Editor) updateDirtyPaths(op operation.Operation) {
	if operation.CanTransformPath(op) {
		old := e.dirty
		e.resetDirty()
		for _, p := range old {
			if next, ok := operation.TransformPath(p, op, location.AffinityForward); ok {
				e.addDirty(next)
			}
		}
	}
	for _, p := range operation.DirtyPaths(op) {
		e.addDirty(p)
	}
}

func (e *Editor) resetDirty() {
	e.dirty = nil
	e.dirtyKeys = make(map[string]struct{})
}

func (e *Editor) addDirty(p location.Path) {
	key := p.Key()
	if _, ok := e.dirtyKeys[key]; ok {
		return
	}
	e.dirtyKeys[key] = struct{}{}
	e.dirty = append(e.dirty, p.Clone())
}

func (e *Editor) popDirty() location.Path {
	p := e.dirty[len(e.dirty)-1]
	e.dirty = e.dirty[:len(e.dirty)-1]
	delete(e.dirtyKeys, p.Key())
	return p
}

// normalizeNode enforces the core structural rules on one node:
//   - elements have at least one child;
//   - the root and block-holding elements contain only blocks, everything
//     else contains only inline content;
//   - inline elements are bounded by text on both sides;
//   - adjacent texts with equal marks are merged and empty texts next to
//     other texts are dropped.
func (e *Editor) normalizeNode(entry node.Entry) error {
	path := entry.Path
	switch n := entry.Node.(type) {
	case *node.Text:
		return nil
	case *node.Element:
		if len(n.Children) == 0 {
			return e.InsertNodes([]node.Node{node.NewText("", nil)}, NodeOptions{
				At:    path.Append(0),
				Voids: true,
			})
		}
	}

	kids := node.Children(entry.Node)
	shouldHaveInlines := false
	if el, ok := entry.Node.(*node.Element); ok {
		first := el.Children[0]
		shouldHaveInlines = e.isInline(el) || node.IsText(first) || e.IsInline(first)
	}

	n := 0
	for i := 0; i < len(kids); i, n = i+1, n+1 {
		current, err := node.Get(e.root, path)
		if err != nil {
			return err
		}
		siblings := node.Children(current)
		if n < 0 || n >= len(siblings) {
			break
		}
		child := siblings[n]
		var prev node.Node
		if n > 0 {
			prev = siblings[n-1]
		}
		isLast := i == len(kids)-1
		isInlineOrText := node.IsText(child) || e.IsInline(child)

		if isInlineOrText != shouldHaveInlines {
			if err := e.RemoveNodes(NodeOptions{At: path.Append(n), Voids: true}); err != nil {
				return err
			}
			n--
			continue
		}

		if el, ok := child.(*node.Element); ok {
			if !e.isInline(el) {
				continue
			}
			switch {
			case prev == nil || !node.IsText(prev):
				if err := e.InsertNodes([]node.Node{node.NewText("", nil)}, NodeOptions{At: path.Append(n), Voids: true}); err != nil {
					return err
				}
				n++
			case isLast:
				if err := e.InsertNodes([]node.Node{node.NewText("", nil)}, NodeOptions{At: path.Append(n + 1), Voids: true}); err != nil {
					return err
				}
				n++
			}
			continue
		}

		t := child.(*node.Text)
		pt, ok := prev.(*node.Text)
		if !ok {
			continue
		}
		switch {
		case pt.Marks.Equal(t.Marks):
			if err := e.MergeNodes(NodeOptions{At: path.Append(n), Voids: true}); err != nil {
				return err
			}
			n--
		case pt.Text == "":
			if err := e.RemoveNodes(NodeOptions{At: path.Append(n - 1), Voids: true}); err != nil {
				return err
			}
			n--
		case t.Text == "":
			if err := e.RemoveNodes(NodeOptions{At: path.Append(n), Voids: true}); err != nil {
				return err
			}
			n--
		}
	}
	return nil
}
