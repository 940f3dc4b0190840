package editor

import (
	"errors"
	"fmt"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/operation"
	"github.com/dshills/treestorm/internal/engine/tracking"
)

// Errors returned by the editor.
var (
	// ErrNormalizationLimit indicates a normalization pass that did not
	// converge. It is never offered to OnError.
	ErrNormalizationLimit = errors.New("could not completely normalize the document")

	// ErrNoLocation indicates a query that needs a location when none was
	// given and there is no selection.
	ErrNoLocation = errors.New("no location and no selection")

	// ErrNoTextEdge indicates a node without a text leaf at the requested
	// edge.
	ErrNoTextEdge = errors.New("node has no text at the requested edge")

	// ErrRootLocation indicates a query that has no meaning for the root.
	ErrRootLocation = errors.New("location is the root")

	// ErrMergeMismatch indicates a merge of a text node with an element.
	ErrMergeMismatch = errors.New("cannot merge nodes of different kinds")

	// ErrLiftDepth indicates lifting a top-level node.
	ErrLiftDepth = errors.New("cannot lift a node with a depth of less than 2")

	// ErrIncompleteSelection indicates selecting a location that does not
	// resolve to a full range while there is no selection.
	ErrIncompleteSelection = errors.New("selection needs both anchor and focus")

	// ErrUnsupportedLocation indicates a location type a transform does not
	// accept.
	ErrUnsupportedLocation = errors.New("unsupported location")
)

// Error is a structured error reported through OnError.
type Error struct {
	// Key is a machine readable identifier such as "apply.path_not_found".
	Key string

	// Message is a human readable description.
	Message string

	// Op is the operation that failed, if any.
	Op operation.Operation

	// Data holds contextual values.
	Data map[string]any

	// Recovery is a selection the caller may adopt to continue.
	Recovery *location.Range

	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

var applyKeys = []struct {
	err error
	key string
}{
	{operation.ErrPathNotFound, "apply.path_not_found"},
	{operation.ErrInvalidIndex, "apply.invalid_index"},
	{operation.ErrInvalidOffset, "apply.invalid_offset"},
	{operation.ErrRootOperation, "apply.root_operation"},
	{operation.ErrMismatchedMerge, "apply.invalid_merge"},
	{operation.ErrMoveIntoDescendant, "apply.invalid_move"},
	{operation.ErrNotText, "apply.not_text"},
	{operation.ErrReservedProperty, "apply.reserved_property"},
	{operation.ErrInvalidNode, "apply.invalid_node"},
	{operation.ErrIncompleteSelection, "selection.incomplete"},
	{tracking.ErrRefReleased, "ref.released"},
	{node.ErrNotFound, "query.path_not_found"},
	{ErrNoTextEdge, "query.no_text_edge"},
	{ErrRootLocation, "query.root"},
	{ErrMergeMismatch, "transform.invalid_merge"},
	{ErrLiftDepth, "transform.invalid_lift"},
	{ErrIncompleteSelection, "selection.incomplete"},
	{ErrUnsupportedLocation, "transform.unsupported_location"},
}

func errorKey(err error, fallback string) string {
	for _, k := range applyKeys {
		if errors.Is(err, k.err) {
			return k.key
		}
	}
	return fallback
}

// report turns err into an *Error, offers it to OnError and returns nil when
// the hook accepts it. Errors that are already *Error and runaway
// normalization pass through unchanged.
func (e *Editor) report(err error, op operation.Operation, scope string) error {
	if err == nil {
		return nil
	}
	var ee *Error
	if errors.As(err, &ee) || errors.Is(err, ErrNormalizationLimit) {
		return err
	}

	ee = &Error{
		Key:      errorKey(err, scope),
		Message:  err.Error(),
		Op:       op,
		Data:     map[string]any{},
		Recovery: e.recoverySelection(),
		Err:      err,
	}
	if p := operation.PathOf(op); p != nil {
		ee.Data["path"] = p.Clone()
	}
	var ae *operation.ApplyError
	if errors.As(err, &ae) && ae.Path != nil {
		ee.Data["path"] = ae.Path.Clone()
	}

	e.logger.Warn("editor error", zapError(ee)...)
	if e.onError != nil && e.onError(ee) {
		if ee.Recovery != nil {
			sel := ee.Recovery.Clone()
			e.selection = &sel
		}
		return nil
	}
	return ee
}

// recoverySelection returns the current selection when it still resolves,
// otherwise a collapsed selection at the start of the document, or nil for
// an empty document.
func (e *Editor) recoverySelection() *location.Range {
	if e.selection != nil && e.validPoint(e.selection.Anchor) && e.validPoint(e.selection.Focus) {
		sel := e.selection.Clone()
		return &sel
	}
	first, err := node.First(e.root, location.Path{})
	if err != nil || !node.IsText(first.Node) || len(first.Path) == 0 {
		return nil
	}
	r := location.Collapsed(location.NewPoint(first.Path, 0))
	return &r
}

func (e *Editor) validPoint(p location.Point) bool {
	t, err := node.Leaf(e.root, p.Path)
	return err == nil && p.Offset >= 0 && p.Offset <= textLen(t)
}
