package history

import (
	"slices"
	"time"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/operation"
	"github.com/dshills/treestorm/internal/engine/textutil"
)

// Batch is one undo step.
type Batch struct {
	// ID uniquely identifies the batch.
	ID string

	// Operations are the recorded operations in the order they were applied.
	Operations []operation.Operation

	// SelectionBefore is the selection before the first operation.
	SelectionBefore *location.Range

	// Timestamp is when the batch was started.
	Timestamp time.Time
}

// Clone returns a copy of b that does not share its operation slice.
func (b *Batch) Clone() *Batch {
	out := *b
	out.Operations = slices.Clone(b.Operations)
	if b.SelectionBefore != nil {
		sel := b.SelectionBefore.Clone()
		out.SelectionBefore = &sel
	}
	return &out
}

// Inverse returns the operations that undo b, in the order they must be
// applied.
func (b *Batch) Inverse() ([]operation.Operation, error) {
	return operation.InverseAll(b.Operations)
}

// BatchInfo summarizes a batch.
type BatchInfo struct {
	ID         string
	Operations int
	Timestamp  time.Time
}

func (b *Batch) info() BatchInfo {
	return BatchInfo{ID: b.ID, Operations: len(b.Operations), Timestamp: b.Timestamp}
}

// MergePolicy decides whether op joins the batch whose last operation is
// prev when no other rule applies.
type MergePolicy func(op, prev operation.Operation) bool

// MergeTyping merges contiguous text insertions and contiguous backward
// deletions in the same text.
func MergeTyping(op, prev operation.Operation) bool {
	switch o := op.(type) {
	case operation.InsertText:
		p, ok := prev.(operation.InsertText)
		return ok && o.Path.Equal(p.Path) && o.Offset == p.Offset+textutil.Len(p.Text)
	case operation.RemoveText:
		p, ok := prev.(operation.RemoveText)
		return ok && o.Path.Equal(p.Path) && o.Offset+textutil.Len(o.Text) == p.Offset
	}
	return false
}
