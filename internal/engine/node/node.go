package node

import (
	"errors"
	"reflect"
	"sort"

	"github.com/dshills/treestorm/internal/engine/location"
)

// Errors returned by tree lookups and updates.
var (
	// ErrNotFound indicates a path that does not resolve to a node.
	ErrNotFound = errors.New("node not found")

	// ErrNotText indicates a path that resolves to a non-text node where a
	// text leaf was required.
	ErrNotText = errors.New("node is not a text node")

	// ErrNotAncestor indicates a path that resolves to a text node where a
	// node with children was required.
	ErrNotAncestor = errors.New("node cannot have children")

	// ErrReservedProperty indicates an attempt to set "text" or "children"
	// through the property interface.
	ErrReservedProperty = errors.New("reserved node property")
)

// Node is one of *Text, *Element or *Root.
type Node interface {
	isNode()
}

// Ancestor is a node that owns children: *Element or *Root.
type Ancestor interface {
	Node
	ChildNodes() []Node
	replaceChildren(children []Node) Ancestor
}

// Entry pairs a node with the path it was found at.
type Entry struct {
	Node Node
	Path location.Path
}

// Props is a flat record of custom node properties or text marks.
type Props map[string]any

// Clone returns a shallow copy of p. A nil map clones to nil.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Equal reports whether p and q hold the same keys with deeply equal values.
func (p Props) Equal(q Props) bool {
	if len(p) != len(q) {
		return false
	}
	for k, v := range p {
		w, ok := q[k]
		if !ok || !reflect.DeepEqual(v, w) {
			return false
		}
	}
	return true
}

// Keys returns the keys of p in sorted order.
func (p Props) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Text is a leaf holding a run of characters and its formatting marks.
type Text struct {
	Text  string
	Marks Props
}

func (*Text) isNode() {}

// NewText creates a text leaf.
func NewText(text string, marks Props) *Text {
	return &Text{Text: text, Marks: marks.Clone()}
}

// WithText returns a copy of t holding text.
func (t *Text) WithText(text string) *Text {
	return &Text{Text: text, Marks: t.Marks}
}

// WithMarks returns a copy of t holding marks.
func (t *Text) WithMarks(marks Props) *Text {
	return &Text{Text: t.Text, Marks: marks}
}

// Element is a typed container of child nodes with custom properties.
// The "type" property is held in Type and never appears in Props.
type Element struct {
	Type     string
	Children []Node
	Props    Props
}

func (*Element) isNode() {}

// NewElement creates an element of the given type.
func NewElement(typ string, props Props, children ...Node) *Element {
	props = props.Clone()
	delete(props, "type")
	return &Element{Type: typ, Props: props, Children: children}
}

// ChildNodes returns the element's children. The slice must not be modified.
func (e *Element) ChildNodes() []Node { return e.Children }

func (e *Element) replaceChildren(children []Node) Ancestor {
	return e.WithChildren(children)
}

// WithChildren returns a copy of e owning children.
func (e *Element) WithChildren(children []Node) *Element {
	return &Element{Type: e.Type, Props: e.Props, Children: children}
}

// Root is the top of a document tree.
type Root struct {
	Children []Node
}

func (*Root) isNode() {}

// NewRoot creates a root owning children.
func NewRoot(children ...Node) *Root {
	return &Root{Children: children}
}

// ChildNodes returns the root's children. The slice must not be modified.
func (r *Root) ChildNodes() []Node { return r.Children }

func (r *Root) replaceChildren(children []Node) Ancestor {
	return &Root{Children: children}
}

// IsText reports whether n is a text leaf.
func IsText(n Node) bool {
	_, ok := n.(*Text)
	return ok
}

// IsElement reports whether n is an element.
func IsElement(n Node) bool {
	_, ok := n.(*Element)
	return ok
}

// Children returns the children of n, or nil for text leaves.
func Children(n Node) []Node {
	if a, ok := n.(Ancestor); ok {
		return a.ChildNodes()
	}
	return nil
}

// Properties returns the custom properties of n. For elements the result
// includes "type"; for text leaves it is the set of marks.
func Properties(n Node) Props {
	switch v := n.(type) {
	case *Text:
		out := v.Marks.Clone()
		if out == nil {
			out = Props{}
		}
		return out
	case *Element:
		out := make(Props, len(v.Props)+1)
		for k, val := range v.Props {
			out[k] = val
		}
		if v.Type != "" {
			out["type"] = v.Type
		}
		return out
	}
	return Props{}
}

// Matches reports whether every key of props is present on n with an equal
// value.
func Matches(n Node, props Props) bool {
	have := Properties(n)
	for k, v := range props {
		w, ok := have[k]
		if !ok || !reflect.DeepEqual(v, w) {
			return false
		}
	}
	return true
}

// SetProperties returns a copy of n with set applied and the keys in unset
// removed. A nil value in set removes the key. The key "type" addresses an
// element's Type.
func SetProperties(n Node, set Props, unset []string) (Node, error) {
	for k := range set {
		if k == "text" || k == "children" {
			return nil, ErrReservedProperty
		}
	}
	for _, k := range unset {
		if k == "text" || k == "children" {
			return nil, ErrReservedProperty
		}
	}

	switch v := n.(type) {
	case *Text:
		marks := v.Marks.Clone()
		if marks == nil {
			marks = Props{}
		}
		applyProps(marks, set, unset)
		if len(marks) == 0 {
			marks = nil
		}
		return v.WithMarks(marks), nil
	case *Element:
		props := v.Props.Clone()
		if props == nil {
			props = Props{}
		}
		props["type"] = v.Type
		applyProps(props, set, unset)
		typ, _ := props["type"].(string)
		delete(props, "type")
		if len(props) == 0 {
			props = nil
		}
		return &Element{Type: typ, Props: props, Children: v.Children}, nil
	}
	return n, nil
}

func applyProps(dst, set Props, unset []string) {
	for _, k := range unset {
		delete(dst, k)
	}
	for k, v := range set {
		if v == nil {
			delete(dst, k)
			continue
		}
		dst[k] = v
	}
}

// Equal reports whether a and b are structurally identical trees.
func Equal(a, b Node) bool {
	if a == b {
		return true
	}
	switch x := a.(type) {
	case *Text:
		y, ok := b.(*Text)
		return ok && x.Text == y.Text && x.Marks.Equal(y.Marks)
	case *Element:
		y, ok := b.(*Element)
		return ok && x.Type == y.Type && x.Props.Equal(y.Props) && equalChildren(x.Children, y.Children)
	case *Root:
		y, ok := b.(*Root)
		return ok && equalChildren(x.Children, y.Children)
	}
	return false
}

func equalChildren(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// String returns the concatenated text content of n.
func String(n Node) string {
	if t, ok := n.(*Text); ok {
		return t.Text
	}
	var out []byte
	for _, c := range Children(n) {
		out = append(out, String(c)...)
	}
	return string(out)
}
