package tracking

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/pkg/errors"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/operation"
)

// DefaultMaxChanges is the default maximum number of changes to track.
const DefaultMaxChanges = 10000

// DefaultMaxRevisions is the default maximum number of revisions to store.
const DefaultMaxRevisions = 100

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithMaxChanges sets the maximum number of changes to track.
// It must only be used when creating a Tracker.
func WithMaxChanges(maxChanges int) TrackerOption {
	return func(t *Tracker) {
		if maxChanges <= 0 {
			return
		}
		t.maxChanges = maxChanges
		t.changes = make([]trackedChange, maxChanges)
	}
}

// WithMaxRevisions sets the maximum number of revisions to store.
func WithMaxRevisions(maxRevisions int) TrackerOption {
	return func(t *Tracker) {
		t.revisions = newRevisionStore(maxRevisions)
	}
}

// Tracker records applied operations and named snapshots.
// All operations are thread-safe.
type Tracker struct {
	mu sync.RWMutex

	// Recent changes in a ring buffer
	changes    []trackedChange
	head       int // Index of oldest entry
	count      int // Number of entries
	maxChanges int

	rev RevisionID

	revisions *revisionStore
	snapshots *SnapshotStore
}

// NewTracker creates a new change tracker with default settings.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		maxChanges: DefaultMaxChanges,
		changes:    make([]trackedChange, DefaultMaxChanges),
		revisions:  newRevisionStore(DefaultMaxRevisions),
		snapshots:  NewSnapshotStore(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Record records a batch of operations applied to before, in order, and
// returns the revision of the last one. before is stored as the state
// preceding the first operation.
func (t *Tracker) Record(batch string, ops []operation.Operation, before *node.Root) RevisionID {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for i, op := range ops {
		t.rev++
		t.recordChangeLocked(Change{Revision: t.rev, Batch: batch, Op: op, Timestamp: now})
		if i == 0 && before != nil {
			t.revisions.Add(NewRevision(t.rev, before))
		}
	}
	return t.rev
}

// recordChangeLocked adds a change to the ring buffer (must hold lock).
func (t *Tracker) recordChangeLocked(change Change) {
	idx := (t.head + t.count) % t.maxChanges
	if t.count < t.maxChanges {
		t.count++
	} else {
		// Ring buffer is full, advance head
		t.head = (t.head + 1) % t.maxChanges
	}

	t.changes[idx] = trackedChange{
		revision: change.Revision,
		change:   change,
	}
}

// Head returns the latest recorded revision.
func (t *Tracker) Head() RevisionID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rev
}

// ChangesSince returns all retained changes after a revision, oldest first.
func (t *Tracker) ChangesSince(rev RevisionID) []Change {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.changesBetweenLocked(rev, t.rev)
}

// ChangesBetween returns changes between two revisions (exclusive start,
// inclusive end).
func (t *Tracker) ChangesBetween(startRev, endRev RevisionID) []Change {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.changesBetweenLocked(startRev, endRev)
}

func (t *Tracker) changesBetweenLocked(startRev, endRev RevisionID) []Change {
	var result []Change
	for i := 0; i < t.count; i++ {
		idx := (t.head + i) % t.maxChanges
		tc := t.changes[idx]
		if tc.revision > startRev && tc.revision <= endRev {
			result = append(result, tc.change)
		}
	}
	return result
}

// LatestChanges returns the most recent N changes in chronological order.
func (t *Tracker) LatestChanges(n int) []Change {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n > t.count {
		n = t.count
	}

	result := make([]Change, n)
	for i := 0; i < n; i++ {
		idx := (t.head + t.count - 1 - i) % t.maxChanges
		result[n-1-i] = t.changes[idx].change
	}
	return result
}

// ChangeCount returns the number of retained changes.
func (t *Tracker) ChangeCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// BuildChangeSet creates a ChangeSet from changes since a revision.
func (t *Tracker) BuildChangeSet(sinceRev RevisionID) *ChangeSet {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cs := NewChangeSet(sinceRev)
	for _, c := range t.changesBetweenLocked(sinceRev, t.rev) {
		cs.Add(c)
	}
	return cs
}

// Revision returns the document as it was before the operation that
// produced rev, if it is still retained.
func (t *Tracker) Revision(rev RevisionID) (*Revision, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.revisions.Get(rev)
}

// RevisionCount returns the number of stored revisions.
func (t *Tracker) RevisionCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.revisions.Len()
}

// WriteLog writes every retained change after since as JSON lines.
func (t *Tracker) WriteLog(w io.Writer, since RevisionID) error {
	lw := operation.NewLogWriter(w)
	for _, c := range t.ChangesSince(since) {
		if err := lw.Write(operation.Record{Rev: int64(c.Revision), Batch: c.Batch, Op: c.Op}); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot Operations

// CreateSnapshot creates a named snapshot of root and sel at the current
// revision.
func (t *Tracker) CreateSnapshot(name string, root *node.Root, sel *location.Range) SnapshotID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshots.Create(name, root, sel, t.rev)
}

// GetSnapshot retrieves a snapshot by ID.
func (t *Tracker) GetSnapshot(id SnapshotID) (*Snapshot, error) {
	snap, ok := t.snapshots.Get(id)
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

// GetSnapshotByName retrieves a snapshot by name.
func (t *Tracker) GetSnapshotByName(name string) (*Snapshot, error) {
	snap, ok := t.snapshots.GetByName(name)
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

// DeleteSnapshot removes a snapshot.
func (t *Tracker) DeleteSnapshot(id SnapshotID) {
	t.snapshots.Delete(id)
}

// ListSnapshots returns all snapshots.
func (t *Tracker) ListSnapshots() []*Snapshot {
	return t.snapshots.List()
}

// SnapshotCount returns the number of snapshots.
func (t *Tracker) SnapshotCount() int {
	return t.snapshots.Count()
}

// ChangesSinceSnapshot returns the retained changes recorded after a
// snapshot was taken.
func (t *Tracker) ChangesSinceSnapshot(id SnapshotID) ([]Change, error) {
	snap, err := t.GetSnapshot(id)
	if err != nil {
		return nil, err
	}
	return t.ChangesSince(snap.Revision), nil
}

// DiffSnapshot returns a JSON merge patch that turns the snapshot's
// document into current.
func (t *Tracker) DiffSnapshot(id SnapshotID, current *node.Root) ([]byte, error) {
	snap, err := t.GetSnapshot(id)
	if err != nil {
		return nil, err
	}
	return DiffTrees(snap.Root(), current)
}

// DiffBetweenSnapshots returns a JSON merge patch that turns the first
// snapshot's document into the second's.
func (t *Tracker) DiffBetweenSnapshots(fromID, toID SnapshotID) ([]byte, error) {
	from, err := t.GetSnapshot(fromID)
	if err != nil {
		return nil, err
	}
	to, err := t.GetSnapshot(toID)
	if err != nil {
		return nil, err
	}
	return DiffTrees(from.Root(), to.Root())
}

// DiffTrees returns a JSON merge patch that turns from into to.
func DiffTrees(from, to *node.Root) ([]byte, error) {
	a, err := json.Marshal(from)
	if err != nil {
		return nil, errors.Wrap(err, "encode source document")
	}
	b, err := json.Marshal(to)
	if err != nil {
		return nil, errors.Wrap(err, "encode target document")
	}
	patch, err := jsonpatch.CreateMergePatch(a, b)
	if err != nil {
		return nil, errors.Wrap(err, "create merge patch")
	}
	return patch, nil
}

// ApplyDiff applies a patch produced by DiffTrees to root.
func ApplyDiff(root *node.Root, patch []byte) (*node.Root, error) {
	doc, err := json.Marshal(root)
	if err != nil {
		return nil, errors.Wrap(err, "encode document")
	}
	out, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return nil, errors.Wrap(err, "apply merge patch")
	}
	return node.ParseRoot(out)
}

// Clear removes all tracked changes, revisions, and snapshots. The revision
// counter keeps counting.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.head = 0
	t.count = 0
	t.revisions.Clear()
	t.snapshots.Clear()
}
