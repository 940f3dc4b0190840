package editor

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/operation"
	"github.com/dshills/treestorm/internal/engine/tracking"
)

// MatchFunc selects node entries in queries and transforms.
type MatchFunc func(n node.Node, p location.Path) bool

// ApplyFunc applies one operation.
type ApplyFunc func(e *Editor, op operation.Operation) error

// ApplyMiddleware wraps an ApplyFunc.
type ApplyMiddleware func(next ApplyFunc) ApplyFunc

// NormalizeFunc repairs the node at entry, usually by applying operations.
type NormalizeFunc func(e *Editor, entry node.Entry) error

// NormalizeMiddleware wraps a NormalizeFunc.
type NormalizeMiddleware func(next NormalizeFunc) NormalizeFunc

// Change is delivered to the OnChange listener by Flush.
type Change struct {
	// ID uniquely identifies the flushed batch.
	ID string

	// Operations are the operations applied since the previous flush.
	Operations []operation.Operation

	// Children is the document after the batch.
	Children *node.Root

	// Selection is the selection after the batch.
	Selection *location.Range

	// Marks are the pending marks after the batch.
	Marks node.Props
}

// Editor owns a document tree and everything needed to edit it.
// It is not safe for concurrent use.
type Editor struct {
	root      *node.Root
	selection *location.Range
	marks     node.Props
	ops       []operation.Operation
	refs      *tracking.Registry

	isInline  func(*node.Element) bool
	isVoid    func(*node.Element) bool
	apply     ApplyFunc
	normalize NormalizeFunc
	onChange  func(Change)
	onError   func(*Error) bool
	scheduler func(flush func())
	logger    *zap.Logger

	iterationFactor int
	normalizing     bool
	dirty           []location.Path
	dirtyKeys       map[string]struct{}
	flushPending    bool
	applied         uint64

	batchDepth  int
	checkpoints []CheckpointFunc
}

// New creates an editor with an empty document.
func New(opts ...Option) *Editor {
	e := &Editor{
		root:            node.NewRoot(),
		refs:            tracking.NewRegistry(),
		isInline:        func(*node.Element) bool { return false },
		isVoid:          func(*node.Element) bool { return false },
		apply:           (*Editor).applyOperation,
		normalize:       (*Editor).normalizeNode,
		logger:          zap.NewNop(),
		iterationFactor: DefaultIterationFactor,
		normalizing:     true,
		dirtyKeys:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WrapApply installs mw around the current apply chain.
func (e *Editor) WrapApply(mw ApplyMiddleware) {
	if mw != nil {
		e.apply = mw(e.apply)
	}
}

// WrapNormalize installs mw around the current normalizer chain.
func (e *Editor) WrapNormalize(mw NormalizeMiddleware) {
	if mw != nil {
		e.normalize = mw(e.normalize)
	}
}

// Children returns the document tree. Trees are immutable; the returned
// value stays valid after further edits.
func (e *Editor) Children() *node.Root {
	return e.root
}

// Selection returns a copy of the selection, or nil.
func (e *Editor) Selection() *location.Range {
	if e.selection == nil {
		return nil
	}
	sel := e.selection.Clone()
	return &sel
}

// Operations returns the operations applied since the last flush.
func (e *Editor) Operations() []operation.Operation {
	return append([]operation.Operation(nil), e.ops...)
}

// Logger returns the editor's logger.
func (e *Editor) Logger() *zap.Logger {
	return e.logger
}

// Refs returns the registry of live refs.
func (e *Editor) Refs() *tracking.Registry {
	return e.refs
}

// IsInline reports whether n is an inline element.
func (e *Editor) IsInline(n node.Node) bool {
	el, ok := n.(*node.Element)
	return ok && e.isInline(el)
}

// IsVoid reports whether n is a void element.
func (e *Editor) IsVoid(n node.Node) bool {
	el, ok := n.(*node.Element)
	return ok && e.isVoid(el)
}

// IsBlock reports whether n is a block element.
func (e *Editor) IsBlock(n node.Node) bool {
	el, ok := n.(*node.Element)
	return ok && !e.isInline(el)
}

// Apply applies op through the apply chain.
func (e *Editor) Apply(op operation.Operation) error {
	return e.apply(e, op)
}

// applyOperation is the innermost link of the apply chain.
func (e *Editor) applyOperation(op operation.Operation) error {
	root, sel, err := operation.Apply(e.root, e.selection, op)
	if err != nil {
		return e.report(err, op, "apply.failed")
	}

	e.refs.Transform(op)
	e.updateDirtyPaths(op)
	e.root, e.selection = root, sel
	e.ops = append(e.ops, op)
	e.applied++

	if err := e.Normalize(NormalizeOptions{}); err != nil {
		return err
	}
	if op.Type() == operation.TypeSetSelection {
		e.marks = nil
	}
	e.scheduleFlush()
	return nil
}

// Applied returns the number of operations applied over the editor's
// lifetime. Unlike Operations it is not reset by Flush.
func (e *Editor) Applied() uint64 {
	return e.applied
}

// PathRef creates a live ref that follows p across edits.
func (e *Editor) PathRef(p location.Path, affinity location.Affinity) *tracking.PathRef {
	return e.refs.PathRef(p, affinity)
}

// PointRef creates a live ref that follows p across edits.
func (e *Editor) PointRef(p location.Point, affinity location.Affinity) *tracking.PointRef {
	return e.refs.PointRef(p, affinity)
}

// RangeRef creates a live ref that follows r across edits.
func (e *Editor) RangeRef(r location.Range, affinity location.Affinity) *tracking.RangeRef {
	return e.refs.RangeRef(r, affinity)
}

func (e *Editor) scheduleFlush() {
	if e.flushPending {
		return
	}
	e.flushPending = true
	if e.scheduler != nil {
		e.scheduler(e.Flush)
	}
}

// FlushPending reports whether a change notification is waiting.
func (e *Editor) FlushPending() bool {
	return e.flushPending
}

// Flush delivers the pending batch to the change listener and clears the
// pending operations. It does nothing when no batch is pending.
func (e *Editor) Flush() {
	if !e.flushPending {
		return
	}
	e.flushPending = false
	change := Change{
		ID:         uuid.NewString(),
		Operations: e.ops,
		Children:   e.root,
		Selection:  e.Selection(),
		Marks:      e.marks.Clone(),
	}
	e.ops = nil
	e.logger.Debug("flush",
		zap.String("change", change.ID),
		zap.Int("operations", len(change.Operations)))
	if e.onChange != nil {
		e.onChange(change)
	}
}

// Marks returns the marks that the next typed text will carry: the pending
// marks if set, otherwise those of the text at the selection. It returns
// nil without a selection.
func (e *Editor) Marks() node.Props {
	if e.selection == nil {
		return nil
	}
	if e.marks != nil {
		return e.marks.Clone()
	}
	marks, err := e.selectionMarks()
	if err != nil {
		return nil
	}
	return marks
}

// SetMarks replaces the pending marks and schedules a change notification.
// A nil value clears them.
func (e *Editor) SetMarks(marks node.Props) {
	e.marks = marks.Clone()
	if e.marks == nil && marks != nil {
		e.marks = node.Props{}
	}
	e.scheduleFlush()
}

func zapError(err *Error) []zap.Field {
	fields := []zap.Field{zap.String("key", err.Key), zap.Error(err.Err)}
	if err.Op != nil {
		fields = append(fields, zap.String("op", string(err.Op.Type())))
	}
	return fields
}
