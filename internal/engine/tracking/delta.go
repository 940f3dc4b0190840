package tracking

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/operation"
	"github.com/dshills/treestorm/internal/engine/textutil"
)

// RevisionID identifies the document state after one recorded operation.
// Revision 0 is the state before anything was recorded.
type RevisionID uint64

// Change is one recorded operation.
type Change struct {
	// Revision is the revision this operation produced.
	Revision RevisionID

	// Batch groups the operations flushed together.
	Batch string

	// Op is the applied operation.
	Op operation.Operation

	// Timestamp is when the change was recorded.
	Timestamp time.Time
}

// String returns a short description such as "#3 insert_text [0,0]".
func (c Change) String() string {
	if p := operation.PathOf(c.Op); p != nil {
		return fmt.Sprintf("#%d %s %s", c.Revision, c.Op.Type(), p)
	}
	return fmt.Sprintf("#%d %s", c.Revision, c.Op.Type())
}

// Delta returns the change in text length, in UTF-16 units, caused by the
// operation. Structural operations that move whole nodes count the text of
// inserted or removed nodes.
func (c Change) Delta() int64 {
	switch o := c.Op.(type) {
	case operation.InsertText:
		return int64(textutil.Len(o.Text))
	case operation.RemoveText:
		return -int64(textutil.Len(o.Text))
	case operation.InsertNode:
		return int64(nodeTextLen(o))
	case operation.RemoveNode:
		return -int64(nodeTextLen(operation.InsertNode(o)))
	}
	return 0
}

// Invert returns the change that undoes c.
func (c Change) Invert() (Change, error) {
	inv, err := operation.Inverse(c.Op)
	if err != nil {
		return Change{}, err
	}
	out := c
	out.Op = inv
	return out, nil
}

func nodeTextLen(o operation.InsertNode) int {
	if o.Node == nil {
		return 0
	}
	return textutil.Len(node.String(o.Node))
}

// ChangeSet is an ordered run of changes.
type ChangeSet struct {
	// Changes in application order.
	Changes []Change

	// StartRevision is the revision before any changes.
	StartRevision RevisionID

	// EndRevision is the revision after all changes.
	EndRevision RevisionID
}

// NewChangeSet creates an empty change set starting at the given revision.
func NewChangeSet(startRevision RevisionID) *ChangeSet {
	return &ChangeSet{
		StartRevision: startRevision,
		EndRevision:   startRevision,
	}
}

// Add adds a change to the set.
func (cs *ChangeSet) Add(c Change) {
	cs.Changes = append(cs.Changes, c)
	cs.EndRevision = c.Revision
}

// Len returns the number of changes.
func (cs *ChangeSet) Len() int {
	return len(cs.Changes)
}

// IsEmpty returns true if there are no changes.
func (cs *ChangeSet) IsEmpty() bool {
	return len(cs.Changes) == 0
}

// TotalDelta returns the total text delta of all changes.
func (cs *ChangeSet) TotalDelta() int64 {
	var delta int64
	for _, c := range cs.Changes {
		delta += c.Delta()
	}
	return delta
}

// Operations returns the recorded operations in order.
func (cs *ChangeSet) Operations() []operation.Operation {
	ops := make([]operation.Operation, len(cs.Changes))
	for i, c := range cs.Changes {
		ops[i] = c.Op
	}
	return ops
}

// Summary returns a human-readable summary such as
// "2 insert_text, 1 split_node (+6 chars)".
func (cs *ChangeSet) Summary() string {
	if cs.IsEmpty() {
		return "no changes"
	}

	counts := make(map[operation.Type]int)
	for _, c := range cs.Changes {
		counts[c.Op.Type()]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%d %s", counts[operation.Type(t)], t))
	}
	return fmt.Sprintf("%s (%+d chars)", strings.Join(parts, ", "), cs.TotalDelta())
}

// trackedChange pairs a change with its revision for internal storage.
type trackedChange struct {
	revision RevisionID
	change   Change
}
