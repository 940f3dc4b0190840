package tracking

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
)

// ErrSnapshotNotFound is returned for an unknown snapshot ID or name.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotID uniquely identifies a snapshot.
type SnapshotID string

// NewSnapshotID returns a random snapshot ID.
func NewSnapshotID() SnapshotID {
	return SnapshotID(uuid.NewString())
}

// Snapshot is a named checkpoint of a document and its selection. The
// document is immutable, so taking one copies nothing.
type Snapshot struct {
	ID        SnapshotID
	Name      string
	Timestamp time.Time

	// Revision is the last revision recorded before the snapshot.
	Revision RevisionID

	root      *node.Root
	selection *location.Range
}

// NewSnapshot captures root and a copy of sel.
func NewSnapshot(name string, root *node.Root, sel *location.Range, revision RevisionID) *Snapshot {
	var selCopy *location.Range
	if sel != nil {
		c := sel.Clone()
		selCopy = &c
	}
	return &Snapshot{
		ID:        NewSnapshotID(),
		Name:      name,
		Timestamp: time.Now(),
		Revision:  revision,
		root:      root,
		selection: selCopy,
	}
}

// Root returns the document at this snapshot.
func (s *Snapshot) Root() *node.Root {
	return s.root
}

// Selection returns the selection at this snapshot, or nil.
func (s *Snapshot) Selection() *location.Range {
	if s.selection == nil {
		return nil
	}
	c := s.selection.Clone()
	return &c
}

// Text returns the plain text at this snapshot.
func (s *Snapshot) Text() string {
	return node.String(s.root)
}

// SnapshotStore keeps snapshots in creation order. Names are unique: a
// new snapshot replaces an older one of the same name. It is safe for
// concurrent use.
type SnapshotStore struct {
	mu    sync.RWMutex
	order []*Snapshot
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Create stores a snapshot of root and sel taken at revision.
func (st *SnapshotStore) Create(name string, root *node.Root, sel *location.Range, revision RevisionID) SnapshotID {
	snap := NewSnapshot(name, root, sel, revision)

	st.mu.Lock()
	defer st.mu.Unlock()
	if name != "" {
		st.order = slices.DeleteFunc(st.order, func(s *Snapshot) bool { return s.Name == name })
	}
	st.order = append(st.order, snap)
	return snap.ID
}

func (st *SnapshotStore) find(match func(*Snapshot) bool) (*Snapshot, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	i := slices.IndexFunc(st.order, match)
	if i < 0 {
		return nil, false
	}
	return st.order[i], true
}

// Get looks a snapshot up by ID.
func (st *SnapshotStore) Get(id SnapshotID) (*Snapshot, bool) {
	return st.find(func(s *Snapshot) bool { return s.ID == id })
}

// GetByName looks a snapshot up by name.
func (st *SnapshotStore) GetByName(name string) (*Snapshot, bool) {
	if name == "" {
		return nil, false
	}
	return st.find(func(s *Snapshot) bool { return s.Name == name })
}

// Delete drops the snapshot with id, if any.
func (st *SnapshotStore) Delete(id SnapshotID) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.order = slices.DeleteFunc(st.order, func(s *Snapshot) bool { return s.ID == id })
}

// List returns the snapshots oldest first.
func (st *SnapshotStore) List() []*Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return slices.Clone(st.order)
}

// Count returns the number of snapshots.
func (st *SnapshotStore) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.order)
}

// Clear drops every snapshot.
func (st *SnapshotStore) Clear() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.order = nil
}

// Prune drops the oldest snapshots until at most keep remain and returns
// how many were dropped.
func (st *SnapshotStore) Prune(keep int) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := len(st.order) - max(keep, 0)
	if n <= 0 {
		return 0
	}
	st.order = slices.Delete(st.order, 0, n)
	return n
}
