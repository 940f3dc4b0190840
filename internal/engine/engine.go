package engine

import (
	"encoding/json"
	"io"
	"slices"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dshills/treestorm/internal/engine/editor"
	"github.com/dshills/treestorm/internal/engine/event"
	"github.com/dshills/treestorm/internal/engine/history"
	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/operation"
	"github.com/dshills/treestorm/internal/engine/schema"
	"github.com/dshills/treestorm/internal/engine/tracking"
)

// Re-export commonly used types for convenience.
type (
	// RevisionID identifies the document state after one recorded operation.
	RevisionID = tracking.RevisionID

	// SnapshotID uniquely identifies a named snapshot.
	SnapshotID = tracking.SnapshotID

	// Change is one recorded operation.
	Change = tracking.Change
)

// Engine is the main facade for the document engine.
// It combines the editor, undo/redo, schema normalization and change
// tracking into a unified, thread-safe API.
//
// Every write method flushes the editor before returning, so each call is
// one change batch.
type Engine struct {
	mu sync.RWMutex

	// Core components
	editor  *editor.Editor
	history *history.History
	tracker *tracking.Tracker
	schema  *schema.Schema
	bus     *event.Bus
	logger  *zap.Logger

	// outbox holds events staged under mu until the write returns.
	outbox []event.Event

	// Configuration
	maxUndos        int
	maxChanges      int
	maxRevisions    int
	iterationFactor int
	inline          []string
	void            []string
	readOnly        bool
	onChange        func(editor.Change)
	onError         func(*editor.Error) bool

	// Initialization
	initRoot      *node.Root
	initSelection *location.Range

	// flushed is the document as of the last flush.
	flushed *node.Root
}

// New creates a new Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:          zap.NewNop(),
		maxUndos:        DefaultMaxUndos,
		maxChanges:      DefaultMaxChanges,
		maxRevisions:    DefaultMaxRevisions,
		iterationFactor: DefaultIterationFactor,
		initRoot:        node.NewRoot(),
	}
	for _, opt := range opts {
		opt(e)
	}

	edOpts := []editor.Option{
		editor.WithRoot(e.initRoot),
		editor.WithInline(e.isInline),
		editor.WithVoid(e.isVoid),
		editor.WithIterationFactor(e.iterationFactor),
		editor.WithLogger(e.logger),
		editor.WithOnChange(e.record),
		editor.WithOnError(e.onError),
	}
	if e.initSelection != nil {
		edOpts = append(edOpts, editor.WithSelection(*e.initSelection))
	}
	if e.schema != nil {
		edOpts = append(edOpts, editor.WithNormalizer(e.schema.Middleware()))
	}
	if e.bus == nil {
		e.bus = event.NewBus(event.WithLogger(e.logger.Named("event")))
	}
	e.editor = editor.New(edOpts...)
	e.flushed = e.editor.Children()

	e.history = history.New(e.editor,
		history.WithMaxUndos(e.maxUndos),
		history.WithLogger(e.logger))

	e.tracker = tracking.NewTracker(
		tracking.WithMaxChanges(e.maxChanges),
		tracking.WithMaxRevisions(e.maxRevisions),
	)
	return e
}

// NewFromReader creates an Engine from a JSON document: either an array of
// top-level nodes or an object with a "children" array.
func NewFromReader(r io.Reader, opts ...Option) (*Engine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read document")
	}
	root, err := node.ParseRoot(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse document")
	}
	return New(append([]Option{WithDocument(root)}, opts...)...), nil
}

func (e *Engine) isInline(el *node.Element) bool {
	return slices.Contains(e.inline, el.Type) || (e.schema != nil && e.schema.IsInline(el))
}

func (e *Engine) isVoid(el *node.Element) bool {
	return slices.Contains(e.void, el.Type) || (e.schema != nil && e.schema.IsVoid(el))
}

// record is the editor's change listener. It runs with e.mu held.
func (e *Engine) record(c editor.Change) {
	rev := e.tracker.Record(c.ID, c.Operations, e.flushed)
	e.flushed = c.Children
	e.logger.Debug("change recorded",
		zap.String("batch", c.ID),
		zap.Int("operations", len(c.Operations)),
		zap.Uint64("revision", uint64(rev)))
	if e.onChange != nil {
		e.onChange(c)
	}

	docOps := slices.DeleteFunc(slices.Clone(c.Operations), operation.IsSelectionOperation)
	if len(docOps) > 0 {
		e.queue(TopicDocumentChanged, DocumentChanged{Batch: c.ID, Revision: rev, Operations: docOps})
	}
	if len(docOps) < len(c.Operations) {
		e.queue(TopicSelectionChanged, SelectionChanged{Selection: c.Selection})
	}
}

// ============================================================================
// Read Operations
// ============================================================================

// Children returns the document. Documents are immutable; the returned
// value stays valid after further edits.
func (e *Engine) Children() *node.Root {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.editor.Children()
}

// Selection returns a copy of the selection, or nil.
func (e *Engine) Selection() *location.Range {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.editor.Selection()
}

// Marks returns the marks the next typed text will carry.
func (e *Engine) Marks() node.Props {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.editor.Marks()
}

// Text returns the concatenated text of the document.
func (e *Engine) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return node.String(e.editor.Children())
}

// IsEmpty returns true if the document has no text and no void elements.
func (e *Engine) IsEmpty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	root := e.editor.Children()
	if node.String(root) != "" {
		return false
	}
	empty := true
	node.Walk(root, node.WalkOptions{}, func(entry node.Entry) bool {
		if e.editor.IsVoid(entry.Node) {
			empty = false
			return false
		}
		return true
	})
	return empty
}

// Check returns the schema violations in the current document. It returns
// nil without a schema.
func (e *Engine) Check() []*schema.SchemaError {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.schema == nil {
		return nil
	}
	return e.schema.Check(e.editor)
}

// MarshalDocument returns the JSON encoding of the document.
func (e *Engine) MarshalDocument() ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return json.Marshal(e.editor.Children())
}

// ============================================================================
// Write Operations
// ============================================================================

// Apply applies one operation and flushes.
func (e *Engine) Apply(op operation.Operation) error {
	return e.write(atomic(func(ed *editor.Editor) error {
		return ed.Apply(op)
	}))
}

// atomic runs fn as one editor batch: if it fails, nothing it applied
// survives.
func atomic(fn func(ed *editor.Editor) error) func(ed *editor.Editor) error {
	return func(ed *editor.Editor) error {
		return ed.WithoutNormalizing(func() error {
			return fn(ed)
		})
	}
}

// ApplyJSON decodes one operation in its wire form and applies it.
func (e *Engine) ApplyJSON(data []byte) error {
	op, err := operation.Unmarshal(data)
	if err != nil {
		return err
	}
	return e.Apply(op)
}

// ApplyLog replays a JSON-lines operation log. Consecutive records with the
// same batch ID are applied as one batch; a record without a batch ID is a
// batch of its own. Replay stops at the first failing batch, which is
// rolled back. It returns the number of operations applied.
func (e *Engine) ApplyLog(r io.Reader) (int, error) {
	recs, err := operation.ReadLog(r)
	if err != nil {
		return 0, err
	}

	applied := 0
	err = e.write(func(ed *editor.Editor) error {
		for start := 0; start < len(recs); {
			end := start + 1
			for end < len(recs) && recs[start].Batch != "" && recs[end].Batch == recs[start].Batch {
				end++
			}
			batch := recs[start:end]
			err := ed.WithoutNormalizing(func() error {
				for _, rec := range batch {
					if err := ed.Apply(rec.Op); err != nil {
						return errors.Wrapf(err, "rev %d", rec.Rev)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			ed.Flush()
			applied += len(batch)
			start = end
		}
		return nil
	})
	return applied, err
}

// Do runs fn against the editor as one batch. The editor must not be
// retained after fn returns.
func (e *Engine) Do(fn func(ed *editor.Editor) error) error {
	return e.write(atomic(fn))
}

// Transaction runs fn as one batch that never merges with the previous
// undo step.
func (e *Engine) Transaction(fn func(ed *editor.Editor) error) error {
	return e.write(func(ed *editor.Editor) error {
		return e.history.Transaction(func() error {
			return atomic(fn)(ed)
		})
	})
}

// Normalize normalizes the dirty paths, or the whole document when force
// is set.
func (e *Engine) Normalize(force bool) error {
	return e.write(func(ed *editor.Editor) error {
		return ed.Normalize(editor.NormalizeOptions{Force: force})
	})
}

func (e *Engine) write(fn func(ed *editor.Editor) error) error {
	e.mu.Lock()
	if e.readOnly {
		e.mu.Unlock()
		return ErrReadOnly
	}
	// A failed batch has been rolled back, so only batches committed
	// before it, as in ApplyLog, have events to publish.
	err := fn(e.editor)
	if err == nil {
		e.editor.Flush()
	}
	events := e.takeEvents()
	e.mu.Unlock()

	e.publish(events)
	return err
}

// Flush delivers any pending batch to the change listener.
func (e *Engine) Flush() {
	e.mu.Lock()
	e.editor.Flush()
	events := e.takeEvents()
	e.mu.Unlock()
	e.publish(events)
}

// ============================================================================
// Undo/Redo Operations
// ============================================================================

// Undo reverts the last batch.
func (e *Engine) Undo() error {
	return e.write(func(*editor.Editor) error {
		if err := e.history.Undo(); err != nil {
			return err
		}
		e.queue(TopicHistoryUndo, e.historyChanged())
		return nil
	})
}

// Redo reapplies the last undone batch.
func (e *Engine) Redo() error {
	return e.write(func(*editor.Editor) error {
		if err := e.history.Redo(); err != nil {
			return err
		}
		e.queue(TopicHistoryRedo, e.historyChanged())
		return nil
	})
}

func (e *Engine) historyChanged() HistoryChanged {
	return HistoryChanged{UndoCount: e.history.UndoCount(), RedoCount: e.history.RedoCount()}
}

// CanUndo returns true if undo is available.
func (e *Engine) CanUndo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.CanUndo()
}

// CanRedo returns true if redo is available.
func (e *Engine) CanRedo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.CanRedo()
}

// UndoCount returns the number of undo batches.
func (e *Engine) UndoCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.UndoCount()
}

// RedoCount returns the number of redo batches.
func (e *Engine) RedoCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.RedoCount()
}

// ClearHistory removes all undo and redo batches.
func (e *Engine) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Clear()
}

// ============================================================================
// Snapshot Operations
// ============================================================================

// CreateSnapshot creates a named snapshot of the document and selection.
func (e *Engine) CreateSnapshot(name string) SnapshotID {
	e.mu.Lock()
	e.editor.Flush()
	id := e.tracker.CreateSnapshot(name, e.editor.Children(), e.editor.Selection())
	e.queue(TopicSnapshotCreated, SnapshotCreated{ID: id, Name: name})
	events := e.takeEvents()
	e.mu.Unlock()

	e.publish(events)
	return id
}

// GetSnapshot retrieves a snapshot by ID.
func (e *Engine) GetSnapshot(id SnapshotID) (*tracking.Snapshot, error) {
	return e.tracker.GetSnapshot(id)
}

// GetSnapshotByName retrieves a snapshot by name.
func (e *Engine) GetSnapshotByName(name string) (*tracking.Snapshot, error) {
	return e.tracker.GetSnapshotByName(name)
}

// DeleteSnapshot removes a snapshot.
func (e *Engine) DeleteSnapshot(id SnapshotID) {
	e.tracker.DeleteSnapshot(id)
}

// ListSnapshots returns all snapshots.
func (e *Engine) ListSnapshots() []*tracking.Snapshot {
	return e.tracker.ListSnapshots()
}

// DiffSnapshot returns a JSON merge patch that turns the snapshot's
// document into the current one.
func (e *Engine) DiffSnapshot(id SnapshotID) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tracker.DiffSnapshot(id, e.editor.Children())
}

// ChangesSinceSnapshot returns the changes recorded after a snapshot.
func (e *Engine) ChangesSinceSnapshot(id SnapshotID) ([]Change, error) {
	return e.tracker.ChangesSinceSnapshot(id)
}

// ============================================================================
// Change Tracking
// ============================================================================

// RevisionID returns the latest recorded revision.
func (e *Engine) RevisionID() RevisionID {
	return e.tracker.Head()
}

// ChangesSince returns the retained changes after rev, oldest first.
func (e *Engine) ChangesSince(rev RevisionID) []Change {
	return e.tracker.ChangesSince(rev)
}

// LatestChanges returns the n most recent changes.
func (e *Engine) LatestChanges(n int) []Change {
	return e.tracker.LatestChanges(n)
}

// ChangeCount returns the number of retained changes.
func (e *Engine) ChangeCount() int {
	return e.tracker.ChangeCount()
}

// Revision returns the document as it was before rev's operation. Only
// the first revision of each batch stores one.
func (e *Engine) Revision(rev RevisionID) (*tracking.Revision, bool) {
	return e.tracker.Revision(rev)
}

// WriteLog writes the retained changes after since as JSON lines.
func (e *Engine) WriteLog(w io.Writer, since RevisionID) error {
	return e.tracker.WriteLog(w, since)
}

// IsReadOnly returns true if the engine rejects writes.
func (e *Engine) IsReadOnly() bool {
	return e.readOnly
}
