package history

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/treestorm/internal/engine/editor"
	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/operation"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxUndos is the undo depth used when none is configured.
const DefaultMaxUndos = 100

// History records the operations applied to one editor and undoes and
// redoes them. It is not safe for concurrent use; callers serialize it
// together with the editor.
type History struct {
	editor *editor.Editor
	logger *zap.Logger

	undos []*Batch
	redos []*Batch

	maxUndos int
	merge    MergePolicy

	// Overrides set by the scopes in group.go; nil means decide per
	// operation.
	saving        *bool
	merging       *bool
	splittingOnce bool
}

// Option configures a History.
type Option func(*History)

// WithMaxUndos sets the maximum number of undo batches. Older batches are
// dropped first.
func WithMaxUndos(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.maxUndos = n
		}
	}
}

// WithMergePolicy replaces MergeTyping as the rule for merging operations
// applied in separate flushes.
func WithMergePolicy(p MergePolicy) Option {
	return func(h *History) {
		if p != nil {
			h.merge = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *History) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a history for e and installs it in e's apply chain.
func New(e *editor.Editor, opts ...Option) *History {
	h := &History{
		editor:   e,
		logger:   zap.NewNop(),
		maxUndos: DefaultMaxUndos,
		merge:    MergeTyping,
	}
	for _, opt := range opts {
		opt(h)
	}
	e.WrapApply(h.middleware)
	e.AddCheckpoint(h.checkpoint)
	return h
}

// checkpoint lets a failed editor batch take back the operations it
// recorded.
func (h *History) checkpoint() func() {
	undos := slices.Clone(h.undos)
	redos := slices.Clone(h.redos)
	splitting := h.splittingOnce
	var last *Batch
	lastLen := 0
	if n := len(undos); n > 0 {
		last = undos[n-1]
		lastLen = len(last.Operations)
	}
	return func() {
		if last != nil {
			last.Operations = last.Operations[:lastLen]
		}
		h.undos, h.redos = undos, redos
		h.splittingOnce = splitting
	}
}

func (h *History) middleware(next editor.ApplyFunc) editor.ApplyFunc {
	return func(e *editor.Editor, op operation.Operation) error {
		var last *Batch
		if n := len(h.undos); n > 0 {
			last = h.undos[n-1]
		}
		var lastOp operation.Operation
		if last != nil && len(last.Operations) > 0 {
			lastOp = last.Operations[len(last.Operations)-1]
		}

		save := op.Type() != operation.TypeSetSelection
		if h.saving != nil {
			save = *h.saving
		}
		if !save {
			return next(e, op)
		}

		var merge bool
		switch {
		case h.merging != nil:
			merge = *h.merging
		case last == nil:
		case len(e.Operations()) != 0:
			merge = true
		default:
			merge = lastOp != nil && h.merge(op, lastOp)
		}
		if h.splittingOnce {
			merge = false
			h.splittingOnce = false
		}

		// Record before applying: normalization triggered by op applies
		// further operations through this chain, and they must follow op.
		target := last
		if !merge || last == nil {
			target = &Batch{ID: uuid.NewString(), SelectionBefore: e.Selection(), Timestamp: time.Now()}
			h.undos = append(h.undos, target)
		}
		at := len(target.Operations)
		target.Operations = append(target.Operations, op)
		redos := h.redos
		h.redos = nil

		applied := e.Applied()
		err := next(e, op)
		if e.Applied() == applied {
			// op was rejected or skipped by the error hook.
			target.Operations = target.Operations[:at]
			if len(target.Operations) == 0 && len(h.undos) > 0 && h.undos[len(h.undos)-1] == target {
				h.undos = h.undos[:len(h.undos)-1]
			}
			h.redos = redos
			return err
		}

		if excess := len(h.undos) - h.maxUndos; excess > 0 {
			h.undos = h.undos[excess:]
		}
		return err
	}
}

// Undo reverts the last batch and moves it to the redo stack.
func (h *History) Undo() error {
	if len(h.undos) == 0 {
		return ErrNothingToUndo
	}
	batch := h.undos[len(h.undos)-1]
	inverse, err := batch.Inverse()
	if err != nil {
		return fmt.Errorf("undo %s: %w", batch.ID, err)
	}

	err = h.WithoutSaving(func() error {
		return h.editor.WithoutNormalizing(func() error {
			for _, op := range inverse {
				if err := h.editor.Apply(op); err != nil {
					return err
				}
			}
			return h.restoreSelection(batch.SelectionBefore)
		})
	})
	if err != nil {
		return fmt.Errorf("undo %s: %w", batch.ID, err)
	}

	h.undos = h.undos[:len(h.undos)-1]
	h.redos = append(h.redos, batch)
	h.logger.Debug("undo",
		zap.String("batch", batch.ID),
		zap.Int("operations", len(batch.Operations)))
	return nil
}

// Redo reapplies the last undone batch and moves it back to the undo stack.
func (h *History) Redo() error {
	if len(h.redos) == 0 {
		return ErrNothingToRedo
	}
	batch := h.redos[len(h.redos)-1]

	err := h.WithoutSaving(func() error {
		return h.editor.WithoutNormalizing(func() error {
			if err := h.restoreSelection(batch.SelectionBefore); err != nil {
				return err
			}
			for _, op := range batch.Operations {
				if err := h.editor.Apply(op); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("redo %s: %w", batch.ID, err)
	}

	h.redos = h.redos[:len(h.redos)-1]
	h.undos = append(h.undos, batch)
	h.logger.Debug("redo",
		zap.String("batch", batch.ID),
		zap.Int("operations", len(batch.Operations)))
	return nil
}

func (h *History) restoreSelection(sel *location.Range) error {
	if sel == nil {
		return nil
	}
	return h.editor.Select(sel.Clone())
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	return len(h.undos) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	return len(h.redos) > 0
}

// UndoCount returns the number of undo batches.
func (h *History) UndoCount() int {
	return len(h.undos)
}

// RedoCount returns the number of redo batches.
func (h *History) RedoCount() int {
	return len(h.redos)
}

// Undos returns copies of the undo batches, oldest first.
func (h *History) Undos() []*Batch {
	return cloneBatches(h.undos)
}

// Redos returns copies of the redo batches, oldest first.
func (h *History) Redos() []*Batch {
	return cloneBatches(h.redos)
}

func cloneBatches(in []*Batch) []*Batch {
	out := make([]*Batch, len(in))
	for i, b := range in {
		out[i] = b.Clone()
	}
	return out
}

// Clear removes all undo and redo batches.
func (h *History) Clear() {
	h.undos = nil
	h.redos = nil
}

// UndoInfo returns info about available undo batches.
func (h *History) UndoInfo() []BatchInfo {
	result := make([]BatchInfo, len(h.undos))
	for i, b := range h.undos {
		result[i] = b.info()
	}
	return result
}

// RedoInfo returns info about available redo batches.
func (h *History) RedoInfo() []BatchInfo {
	result := make([]BatchInfo, len(h.redos))
	for i, b := range h.redos {
		result[i] = b.info()
	}
	return result
}

// PeekUndo returns info about the next undo batch without removing it.
func (h *History) PeekUndo() (BatchInfo, bool) {
	if len(h.undos) == 0 {
		return BatchInfo{}, false
	}
	return h.undos[len(h.undos)-1].info(), true
}

// PeekRedo returns info about the next redo batch without removing it.
func (h *History) PeekRedo() (BatchInfo, bool) {
	if len(h.redos) == 0 {
		return BatchInfo{}, false
	}
	return h.redos[len(h.redos)-1].info(), true
}

// SetMaxUndos changes the maximum number of undo batches.
// If the current stack is larger, oldest batches are removed.
func (h *History) SetMaxUndos(max int) {
	if max <= 0 {
		max = DefaultMaxUndos
	}
	h.maxUndos = max
	if len(h.undos) > max {
		h.undos = h.undos[len(h.undos)-max:]
	}
}

// MaxUndos returns the maximum number of undo batches.
func (h *History) MaxUndos() int {
	return h.maxUndos
}
