// Package schema layers declarative structural rules over the editor's
// core normalization.
//
// A Schema holds rules. Each rule selects nodes with a Matcher and
// constrains their object kind, properties, marks, text, parent, siblings
// and children. Installed as a normalizer, the schema validates every
// dirty node and repairs the first violation it finds, either through the
// rule's own Normalize callback or through a default repair.
//
//	s := schema.New(
//		schema.WithVoid("image"),
//		schema.WithRules(schema.Rule{
//			Match:    schema.MatchKind{Object: schema.ObjectRoot},
//			Children: []schema.ChildRule{{Match: schema.MatchType{Types: []string{"paragraph"}}, Min: 1}},
//		}),
//	)
//	ed := editor.New(s.EditorOptions()...)
package schema

import (
	"slices"

	"go.uber.org/zap"

	"github.com/dshills/treestorm/internal/engine/editor"
	"github.com/dshills/treestorm/internal/engine/node"
)

// Schema is a set of rules plus the element types treated as inline or
// void. It is immutable after New and safe to share between editors.
type Schema struct {
	rules  []Rule
	inline []string
	void   []string
	logger *zap.Logger
}

// Option configures a Schema.
type Option func(*Schema)

// WithRules appends rules. Rules are checked in order.
func WithRules(rules ...Rule) Option {
	return func(s *Schema) {
		s.rules = append(s.rules, rules...)
	}
}

// WithInline marks element types as inline.
func WithInline(types ...string) Option {
	return func(s *Schema) {
		s.inline = append(s.inline, types...)
	}
}

// WithVoid marks element types as void.
func WithVoid(types ...string) Option {
	return func(s *Schema) {
		s.void = append(s.void, types...)
	}
}

// WithLogger sets the logger used to report repairs.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Schema) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a schema.
func New(opts ...Option) *Schema {
	s := &Schema{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns a copy of the rules.
func (s *Schema) Rules() []Rule {
	return slices.Clone(s.rules)
}

// IsInline reports whether el's type is declared inline. Void types are
// not implicitly inline.
func (s *Schema) IsInline(el *node.Element) bool {
	return slices.Contains(s.inline, el.Type)
}

// IsVoid reports whether el's type is declared void.
func (s *Schema) IsVoid(el *node.Element) bool {
	return slices.Contains(s.void, el.Type)
}

// Middleware returns a normalizer that validates each entry and repairs
// the first violation. Valid entries pass on to the next normalizer.
func (s *Schema) Middleware() editor.NormalizeMiddleware {
	return func(next editor.NormalizeFunc) editor.NormalizeFunc {
		return func(e *editor.Editor, entry node.Entry) error {
			if err := s.Validate(e, entry); err != nil {
				return s.Repair(e, err)
			}
			return next(e, entry)
		}
	}
}

// EditorOptions returns the editor options that install the schema: its
// inline and void predicates and its normalizer.
func (s *Schema) EditorOptions() []editor.Option {
	return []editor.Option{
		editor.WithInline(s.IsInline),
		editor.WithVoid(s.IsVoid),
		editor.WithNormalizer(s.Middleware()),
	}
}
