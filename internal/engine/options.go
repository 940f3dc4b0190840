package engine

import (
	"go.uber.org/zap"

	"github.com/dshills/treestorm/internal/engine/editor"
	"github.com/dshills/treestorm/internal/engine/event"
	"github.com/dshills/treestorm/internal/engine/history"
	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/schema"
	"github.com/dshills/treestorm/internal/engine/tracking"
)

// Default configuration values.
const (
	DefaultMaxUndos        = history.DefaultMaxUndos
	DefaultMaxChanges      = tracking.DefaultMaxChanges
	DefaultMaxRevisions    = tracking.DefaultMaxRevisions
	DefaultIterationFactor = editor.DefaultIterationFactor
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithChildren sets the initial top-level nodes of the document.
func WithChildren(children ...node.Node) Option {
	return func(e *Engine) {
		e.initRoot = node.NewRoot(children...)
	}
}

// WithDocument sets the initial document.
func WithDocument(root *node.Root) Option {
	return func(e *Engine) {
		if root != nil {
			e.initRoot = root
		}
	}
}

// WithSelection sets the initial selection.
func WithSelection(sel location.Range) Option {
	return func(e *Engine) {
		s := sel.Clone()
		e.initSelection = &s
	}
}

// WithInlineTypes declares element types that flow inside text.
func WithInlineTypes(types ...string) Option {
	return func(e *Engine) {
		e.inline = append(e.inline, types...)
	}
}

// WithVoidTypes declares element types whose content is opaque.
func WithVoidTypes(types ...string) Option {
	return func(e *Engine) {
		e.void = append(e.void, types...)
	}
}

// WithSchema installs s. Its inline and void declarations add to those
// given by WithInlineTypes and WithVoidTypes.
func WithSchema(s *schema.Schema) Option {
	return func(e *Engine) {
		e.schema = s
	}
}

// WithEventBus publishes engine events on b instead of a private bus.
func WithEventBus(b *event.Bus) Option {
	return func(e *Engine) {
		e.bus = b
	}
}

// WithMaxUndos sets the maximum number of undo batches.
func WithMaxUndos(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxUndos = max
		}
	}
}

// WithMaxChanges sets the maximum number of tracked changes.
func WithMaxChanges(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxChanges = max
		}
	}
}

// WithMaxRevisions sets the maximum number of stored revisions.
func WithMaxRevisions(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxRevisions = max
		}
	}
}

// WithIterationFactor sets the normalization cap per dirty path.
func WithIterationFactor(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.iterationFactor = n
		}
	}
}

// WithOnChange sets the listener called after each flushed batch. It runs
// with the engine locked and must not call back into the engine.
func WithOnChange(fn func(editor.Change)) Option {
	return func(e *Engine) {
		e.onChange = fn
	}
}

// WithOnError sets the editor's error hook.
func WithOnError(fn func(*editor.Error) bool) Option {
	return func(e *Engine) {
		e.onError = fn
	}
}

// WithLogger sets the logger for the engine and its editor.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithReadOnly creates a read-only engine.
// Write operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}
