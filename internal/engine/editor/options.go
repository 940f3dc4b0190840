package editor

import (
	"go.uber.org/zap"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
)

// DefaultIterationFactor bounds a normalization pass to this many iterations
// per initially dirty path.
const DefaultIterationFactor = 42

// Option configures an Editor during creation.
type Option func(*Editor)

// WithChildren sets the initial document.
func WithChildren(children ...node.Node) Option {
	return func(e *Editor) {
		e.root = node.NewRoot(children...)
	}
}

// WithRoot sets the initial document tree.
func WithRoot(root *node.Root) Option {
	return func(e *Editor) {
		if root != nil {
			e.root = root
		}
	}
}

// WithSelection sets the initial selection.
func WithSelection(sel location.Range) Option {
	return func(e *Editor) {
		c := sel.Clone()
		e.selection = &c
	}
}

// WithInline sets the predicate that decides which elements flow inside
// text.
func WithInline(fn func(*node.Element) bool) Option {
	return func(e *Editor) {
		if fn != nil {
			e.isInline = fn
		}
	}
}

// WithVoid sets the predicate that decides which elements have opaque
// content.
func WithVoid(fn func(*node.Element) bool) Option {
	return func(e *Editor) {
		if fn != nil {
			e.isVoid = fn
		}
	}
}

// WithNormalizer wraps the normalizer chain. Later normalizers run first.
func WithNormalizer(mw NormalizeMiddleware) Option {
	return func(e *Editor) {
		e.WrapNormalize(mw)
	}
}

// WithApplyMiddleware wraps the apply chain.
func WithApplyMiddleware(mw ApplyMiddleware) Option {
	return func(e *Editor) {
		e.WrapApply(mw)
	}
}

// WithOnChange sets the change listener.
func WithOnChange(fn func(Change)) Option {
	return func(e *Editor) {
		e.onChange = fn
	}
}

// WithOnError sets the error hook. Returning true accepts the error.
func WithOnError(fn func(*Error) bool) Option {
	return func(e *Editor) {
		e.onError = fn
	}
}

// WithScheduler installs the function used to request a deferred Flush.
// It is called at most once per pending batch.
func WithScheduler(fn func(flush func())) Option {
	return func(e *Editor) {
		e.scheduler = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIterationFactor overrides DefaultIterationFactor.
func WithIterationFactor(n int) Option {
	return func(e *Editor) {
		if n > 0 {
			e.iterationFactor = n
		}
	}
}
