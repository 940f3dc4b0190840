// Package history provides undo and redo for an editor.
//
// A History installs itself in the editor's apply chain and records every
// applied operation, except selection changes, into batches. One batch is
// one undo step.
//
// # Batches
//
// An operation joins the last batch when the editor already has pending
// (unflushed) operations, so everything one command applies is undone
// together. Otherwise consecutive typing or deleting in the same text
// merges too; any other operation starts a new batch. Each batch remembers
// the selection from before its first operation.
//
//	h := history.New(ed, history.WithMaxUndos(200))
//	ed.InsertText("a", editor.TextOptions{})
//	ed.Flush()
//	h.Undo()
//	h.Redo()
//
// # Scopes
//
// WithoutSaving applies operations that are never recorded, WithMerging and
// WithoutMerging force or forbid merging, and Transaction collects
// everything fn applies into one new batch:
//
//	h.Transaction(func() error {
//		// ... several edits, one undo step ...
//		return nil
//	})
//
// # Undo
//
// Undo applies the inverse of a batch's operations in reverse order,
// without recording them, and restores the batch's selection. Redo
// restores the selection and reapplies the operations.
package history
