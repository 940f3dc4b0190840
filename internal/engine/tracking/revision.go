package tracking

import (
	"cmp"
	"slices"
	"time"

	"github.com/dshills/treestorm/internal/engine/node"
)

// Revision captures the document as it was before the operation that
// produced a revision. Trees are immutable, so this is a cheap reference.
type Revision struct {
	// ID is the revision whose operation was applied to Root.
	ID        RevisionID
	Timestamp time.Time

	root *node.Root
}

// NewRevision records root as the document before revision id.
func NewRevision(id RevisionID, root *node.Root) *Revision {
	return &Revision{
		ID:        id,
		Timestamp: time.Now(),
		root:      root,
	}
}

// Root returns the document before this revision's operation.
func (r *Revision) Root() *node.Root {
	return r.root
}

// Text returns the plain text of the stored document.
func (r *Revision) Text() string {
	return node.String(r.root)
}

// revisionStore holds the most recent revisions in ascending ID order.
type revisionStore struct {
	revs []*Revision
	max  int
}

func newRevisionStore(max int) *revisionStore {
	if max <= 0 {
		max = DefaultMaxRevisions
	}
	return &revisionStore{max: max}
}

// Add appends rev, whose ID must exceed every stored ID, and evicts from
// the front past capacity.
func (rs *revisionStore) Add(rev *Revision) {
	rs.revs = append(rs.revs, rev)
	if over := len(rs.revs) - rs.max; over > 0 {
		rs.revs = slices.Delete(rs.revs, 0, over)
	}
}

func (rs *revisionStore) Get(id RevisionID) (*Revision, bool) {
	i, ok := slices.BinarySearchFunc(rs.revs, id, func(r *Revision, id RevisionID) int {
		return cmp.Compare(r.ID, id)
	})
	if !ok {
		return nil, false
	}
	return rs.revs[i], true
}

func (rs *revisionStore) Len() int {
	return len(rs.revs)
}

func (rs *revisionStore) Clear() {
	rs.revs = nil
}
