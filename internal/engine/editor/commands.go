package editor

import (
	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
)

// InsertBreak splits the block at the selection.
func (e *Editor) InsertBreak() error {
	return e.SplitNodes(NodeOptions{Always: true})
}

// InsertSoftBreak splits the block at the selection. Hosts that want a
// line break inside the block override it with a normalizer or command of
// their own.
func (e *Editor) InsertSoftBreak() error {
	return e.SplitNodes(NodeOptions{Always: true})
}

// InsertNode inserts n at the selection and selects it.
func (e *Editor) InsertNode(n node.Node) error {
	return e.InsertNodes([]node.Node{n}, NodeOptions{})
}

// DeleteBackward deletes one unit before a collapsed selection.
func (e *Editor) DeleteBackward(unit Unit) error {
	if e.selection == nil || !e.selection.IsCollapsed() {
		return nil
	}
	return e.Delete(TextOptions{Unit: unit, Reverse: true})
}

// DeleteForward deletes one unit after a collapsed selection.
func (e *Editor) DeleteForward(unit Unit) error {
	if e.selection == nil || !e.selection.IsCollapsed() {
		return nil
	}
	return e.Delete(TextOptions{Unit: unit})
}

// DeleteFragment deletes an expanded selection. With reverse set the
// selection collapses to its start.
func (e *Editor) DeleteFragment(reverse bool) error {
	if e.selection == nil || !e.selection.IsExpanded() {
		return nil
	}
	return e.Delete(TextOptions{Reverse: reverse})
}

// TypeText inserts text at the selection. Pending marks are applied by
// inserting a new text leaf carrying them.
func (e *Editor) TypeText(text string) error {
	if e.selection == nil {
		return nil
	}
	var err error
	if e.marks != nil {
		err = e.InsertNodes([]node.Node{node.NewText(text, e.marks.Clone())}, NodeOptions{})
	} else {
		err = e.InsertText(text, TextOptions{})
	}
	e.marks = nil
	return err
}

func (e *Editor) markable(n node.Node, p location.Path) bool {
	if !node.IsText(n) {
		return false
	}
	parent, err := node.Parent(e.root, p)
	return err == nil && !e.IsVoid(parent)
}

// AddMark sets a mark on the selected text. A collapsed selection only
// records it as pending for the next typed text.
func (e *Editor) AddMark(key string, value any) error {
	if e.selection == nil {
		return nil
	}
	if e.selection.IsExpanded() {
		return e.SetNodes(node.Props{key: value}, NodeOptions{Match: e.markable, Split: true, Voids: true})
	}
	marks := e.Marks()
	if marks == nil {
		marks = node.Props{}
	}
	marks[key] = value
	e.SetMarks(marks)
	return nil
}

// RemoveMark removes a mark from the selected text, or from the pending
// marks when the selection is collapsed.
func (e *Editor) RemoveMark(key string) error {
	if e.selection == nil {
		return nil
	}
	if e.selection.IsExpanded() {
		return e.UnsetNodes([]string{key}, NodeOptions{Match: e.markable, Split: true, Voids: true})
	}
	marks := e.Marks()
	if marks == nil {
		marks = node.Props{}
	}
	delete(marks, key)
	e.SetMarks(marks)
	return nil
}
