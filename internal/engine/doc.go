// Package engine provides the structured-document editing engine for
// treestorm.
//
// The engine package serves as the main facade, combining the editor,
// undo/redo, schema normalization and change tracking into a unified,
// thread-safe API.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - location: paths, points and ranges into the document tree
//   - node: the immutable document tree and its JSON form
//   - operation: the nine primitive operations, their inverses and transforms
//   - editor: operation pipeline, normalization, queries and transforms
//   - schema: declarative rules validating and repairing the document
//   - history: batch-based undo/redo
//   - tracking: live refs, change log, revisions and snapshots
//   - script: Lua callbacks for schema rules
//
// # Thread Safety
//
// All Engine operations are thread-safe. The engine uses a read-write mutex
// to allow concurrent reads while serializing writes. The editor itself is
// not safe for concurrent use; Do hands it out only while the write lock is
// held.
//
// # Basic Usage
//
//	e := engine.New(engine.WithChildren(
//		node.NewElement("paragraph", nil, node.NewText("Hello", nil)),
//	))
//
//	err := e.Do(func(ed *editor.Editor) error {
//		if err := ed.Select(location.NewPoint(location.Path{0, 0}, 5)); err != nil {
//			return err
//		}
//		return ed.InsertText(" world", editor.TextOptions{})
//	})
//
//	e.Text() // "Hello world"
//	e.Undo() // "Hello"
//
// # Batches
//
// Every write method flushes before returning. The operations of one call
// form one change batch: one undo step (unless typing merges it into the
// previous one) and one group of revisions in the change log.
//
// # Operations From Outside
//
// Operations received in their JSON wire form, for example from a
// collaborator, are applied with ApplyJSON or replayed from a JSON-lines
// log with ApplyLog:
//
//	e.ApplyJSON([]byte(`{"type":"insert_text","path":[0,0],"offset":0,"text":"Hi "}`))
//
// # Snapshots
//
// Snapshots are cheap since documents are immutable. DiffSnapshot returns a
// JSON merge patch from a snapshot to the current document:
//
//	id := e.CreateSnapshot("before-import")
//	// ... edits ...
//	patch, _ := e.DiffSnapshot(id)
package engine
