package operation

import (
	"errors"
	"fmt"

	"github.com/dshills/treestorm/internal/engine/location"
)

// Errors returned when an operation does not fit the tree it is applied to.
var (
	// ErrPathNotFound indicates the operation references a missing node.
	ErrPathNotFound = errors.New("path not found")

	// ErrInvalidIndex indicates an insertion index past the end of the
	// parent, or a merge of a first child.
	ErrInvalidIndex = errors.New("invalid child index")

	// ErrInvalidOffset indicates a text offset or split position outside
	// the target node.
	ErrInvalidOffset = errors.New("invalid offset")

	// ErrRootOperation indicates a structural operation aimed at the root.
	ErrRootOperation = errors.New("operation cannot target the root")

	// ErrMismatchedMerge indicates a merge of a text node with an element.
	ErrMismatchedMerge = errors.New("cannot merge nodes of different kinds")

	// ErrMoveIntoDescendant indicates a move whose destination is inside
	// the moved node.
	ErrMoveIntoDescendant = errors.New("cannot move a node inside itself")

	// ErrNotText indicates a text operation aimed at a non-text node.
	ErrNotText = errors.New("target is not a text node")

	// ErrReservedProperty indicates set_node touching "text" or "children".
	ErrReservedProperty = errors.New("cannot set text or children as a property")

	// ErrInvalidNode indicates an insert_node carrying no node or a root.
	ErrInvalidNode = errors.New("invalid node")

	// ErrIncompleteSelection indicates a set_selection that would create a
	// selection without both anchor and focus.
	ErrIncompleteSelection = errors.New("incomplete selection")

	// ErrUnknownOperation indicates an operation type that is not handled.
	ErrUnknownOperation = errors.New("unknown operation")
)

// ApplyError describes an operation that could not be applied.
type ApplyError struct {
	Op   Operation
	Path location.Path
	Err  error
}

// Error implements error.
func (e *ApplyError) Error() string {
	if e.Op == nil {
		return fmt.Sprintf("apply: %v", e.Err)
	}
	if e.Path == nil {
		return fmt.Sprintf("apply %s: %v", e.Op.Type(), e.Err)
	}
	return fmt.Sprintf("apply %s at %s: %v", e.Op.Type(), e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ApplyError) Unwrap() error {
	return e.Err
}
