package schema

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/dshills/treestorm/internal/engine/editor"
	"github.com/dshills/treestorm/internal/engine/node"
)

// Object is the structural kind of a node.
type Object string

// Object kinds.
const (
	ObjectRoot   Object = "root"
	ObjectBlock  Object = "block"
	ObjectInline Object = "inline"
	ObjectText   Object = "text"
)

// ObjectOf returns the kind of n as seen by e.
func ObjectOf(e *editor.Editor, n node.Node) Object {
	switch n.(type) {
	case *node.Root:
		return ObjectRoot
	case *node.Text:
		return ObjectText
	}
	if e.IsInline(n) {
		return ObjectInline
	}
	return ObjectBlock
}

// Matcher is a node predicate. The concrete variants are MatchKind,
// MatchType, MatchProperty, MatchFunc, MatchAll and MatchAny; they are
// evaluated by Matches.
type Matcher interface {
	matcher()
}

// MatchKind matches nodes of one object kind.
type MatchKind struct {
	Object Object
}

// MatchType matches elements whose type is one of Types.
type MatchType struct {
	Types []string
}

// MatchProperty matches nodes whose property Key deeply equals Value. For
// text nodes the properties are the marks.
type MatchProperty struct {
	Key   string
	Value any
}

// MatchFunc matches nodes accepted by Fn.
type MatchFunc struct {
	Fn func(e *editor.Editor, entry node.Entry) bool
}

// MatchAll matches nodes accepted by every matcher.
type MatchAll []Matcher

// MatchAny matches nodes accepted by at least one matcher.
type MatchAny []Matcher

func (MatchKind) matcher()     {}
func (MatchType) matcher()     {}
func (MatchProperty) matcher() {}
func (MatchFunc) matcher()     {}
func (MatchAll) matcher()      {}
func (MatchAny) matcher()      {}

// Matches reports whether m accepts entry. A nil matcher accepts
// everything.
func Matches(e *editor.Editor, m Matcher, entry node.Entry) bool {
	switch v := m.(type) {
	case nil:
		return true
	case MatchKind:
		return ObjectOf(e, entry.Node) == v.Object
	case MatchType:
		el, ok := entry.Node.(*node.Element)
		return ok && slices.Contains(v.Types, el.Type)
	case MatchProperty:
		have, ok := node.Properties(entry.Node)[v.Key]
		return ok && equalValue(have, v.Value)
	case MatchFunc:
		return v.Fn != nil && v.Fn(e, entry)
	case MatchAll:
		for _, sub := range v {
			if !Matches(e, sub, entry) {
				return false
			}
		}
		return true
	case MatchAny:
		for _, sub := range v {
			if Matches(e, sub, entry) {
				return true
			}
		}
		return false
	}
	panic(fmt.Sprintf("schema: unknown matcher %T", m))
}

// failure classifies why m rejects entry: by object kind, by property, or
// by anything else, which counts as a type mismatch.
type failure int

const (
	failType failure = iota
	failObject
	failProperty
)

func classify(e *editor.Editor, m Matcher, entry node.Entry) failure {
	switch v := m.(type) {
	case MatchKind:
		return failObject
	case MatchProperty:
		return failProperty
	case MatchAll:
		for _, sub := range v {
			if !Matches(e, sub, entry) {
				return classify(e, sub, entry)
			}
		}
	case MatchAny:
		if len(v) > 0 {
			f := classify(e, v[0], entry)
			for _, sub := range v[1:] {
				if classify(e, sub, entry) != f {
					return failType
				}
			}
			return f
		}
	}
	return failType
}

// equalValue compares property values, treating numbers of different Go
// types as equal when they hold the same value. Values decoded from JSON,
// TOML and YAML disagree on numeric types.
func equalValue(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
