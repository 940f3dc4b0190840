// Package tracking keeps auxiliary state in step with a changing document:
// live references into the tree, a bounded log of applied operations, and
// named snapshots.
//
// # Refs
//
// A [Registry] owns every live [PathRef], [PointRef] and [RangeRef]. After
// each applied operation the owner calls [Registry.Transform] and every ref
// moves the same way the selection does. A ref whose location is deleted
// becomes empty and is released automatically. Callers release refs with
// Unref on every exit path; a released ref keeps its final value and
// rejects further changes with ErrRefReleased.
//
// # Change log
//
// The [Tracker] records applied operations in a ring buffer, each with a
// monotonically increasing [RevisionID]:
//
//	tracker := tracking.NewTracker()
//	rev := tracker.Record(batchID, ops, treeBefore)
//	changes := tracker.ChangesSince(rev - 1)
//
// # Snapshots
//
// Snapshots hold an immutable *node.Root, so creating one is O(1):
//
//	id := tracker.CreateSnapshot("before_import", root, sel)
//	patch, err := tracker.DiffSnapshot(id, currentRoot)
//
// DiffSnapshot returns an RFC 7386 JSON merge patch that turns the
// snapshot's document into the current one.
//
// # Thread Safety
//
// Tracker operations are safe for concurrent use. A Registry belongs to a
// single editor and is not.
package tracking
