// Package editor implements the document editor: the aggregate that owns a
// tree, its selection, the pending operation log and the live refs, and the
// queries and transforms that edit it.
//
// # Applying operations
//
// Every change goes through Apply. The operation is applied to a draft of
// the tree (operation.Apply never touches the committed tree), then the
// selection and every live ref are moved across it, the affected paths are
// marked dirty, and the dirty paths are normalized unless a
// WithoutNormalizing block is open. Apply can be wrapped with middleware,
// which is how history recording is installed.
//
// # Locations
//
// Transforms take an At location that may be a location.Path, Point or
// Range; when it is nil the current selection is used. Ranges are resolved
// to points for text edits (deleting expanded content first) and points are
// resolved to the enclosing node for structural edits, splitting as needed.
//
// # Normalization
//
// Dirty paths form a LIFO worklist. Each popped path that still resolves is
// handed to the normalizer chain, whose innermost link enforces the core
// structural rules. A pass that runs for more than the initial number of
// dirty paths times the iteration factor (42 by default) fails with
// ErrNormalizationLimit.
//
// # Errors
//
// Operations that do not fit the tree and API misuse are reported as
// *Error values through the OnError hook. A hook that returns true accepts
// the error: the failing step is skipped and the error's Recovery
// selection, if any, is adopted. Otherwise the error is returned.
//
// # Change notification
//
// Applied operations accumulate until Flush delivers them to OnChange.
// With a scheduler installed Flush is requested once per pending batch;
// otherwise the host polls FlushPending.
package editor
