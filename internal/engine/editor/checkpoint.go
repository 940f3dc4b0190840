package editor

import (
	"maps"
	"slices"

	"go.uber.org/zap"
)

// CheckpointFunc captures state kept outside the editor, such as undo
// stacks, and returns the function that puts it back. It runs when the
// outermost batch starts; the returned function runs only if the batch
// fails.
type CheckpointFunc func() (restore func())

// AddCheckpoint registers fn with every future batch.
func (e *Editor) AddCheckpoint(fn CheckpointFunc) {
	if fn != nil {
		e.checkpoints = append(e.checkpoints, fn)
	}
}

// InBatch reports whether a WithoutNormalizing call is running.
func (e *Editor) InBatch() bool {
	return e.batchDepth > 0
}

// checkpoint captures the document state so a failed batch can leave the
// editor exactly as it found it.
func (e *Editor) checkpoint() func() {
	var (
		root      = e.root
		selection = e.Selection()
		marks     = e.marks.Clone()
		ops       = slices.Clone(e.ops)
		pending   = e.flushPending
		dirty     = e.DirtyPaths()
		dirtyKeys = maps.Clone(e.dirtyKeys)
		refs      = e.refs.Checkpoint()
	)
	external := make([]func(), 0, len(e.checkpoints))
	for _, fn := range e.checkpoints {
		external = append(external, fn())
	}

	return func() {
		discarded := max(len(e.ops)-len(ops), 0)
		e.root = root
		e.selection = selection
		e.marks = marks
		e.ops = ops
		e.flushPending = pending
		e.dirty = dirty
		e.dirtyKeys = dirtyKeys
		refs()
		for i := len(external) - 1; i >= 0; i-- {
			if external[i] != nil {
				external[i]()
			}
		}
		e.logger.Debug("batch rolled back", zap.Int("operations", discarded))
	}
}
