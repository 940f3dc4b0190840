package node

import (
	"fmt"
	"slices"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/textutil"
)

// Get returns the node at path below root.
func Get(root Node, path location.Path) (Node, error) {
	n := root
	for i, idx := range path {
		kids := Children(n)
		if idx < 0 || idx >= len(kids) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path[:i+1])
		}
		n = kids[idx]
	}
	return n, nil
}

// Has reports whether path resolves below root.
func Has(root Node, path location.Path) bool {
	_, err := Get(root, path)
	return err == nil
}

// Child returns the child of n at index.
func Child(n Node, index int) (Node, error) {
	kids := Children(n)
	if _, ok := n.(Ancestor); !ok {
		return nil, ErrNotAncestor
	}
	if index < 0 || index >= len(kids) {
		return nil, fmt.Errorf("%w: child %d", ErrNotFound, index)
	}
	return kids[index], nil
}

// GetAncestor returns the node at path, which must be able to own children.
func GetAncestor(root Node, path location.Path) (Ancestor, error) {
	n, err := Get(root, path)
	if err != nil {
		return nil, err
	}
	a, ok := n.(Ancestor)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAncestor, path)
	}
	return a, nil
}

// Parent returns the parent of the node at path.
func Parent(root Node, path location.Path) (Ancestor, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: root has no parent", ErrNotFound)
	}
	return GetAncestor(root, path[:len(path)-1])
}

// Leaf returns the text leaf at path.
func Leaf(root Node, path location.Path) (*Text, error) {
	n, err := Get(root, path)
	if err != nil {
		return nil, err
	}
	t, ok := n.(*Text)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotText, path)
	}
	return t, nil
}

// First returns the first leaf-most node at or below path, following first
// children.
func First(root Node, path location.Path) (Entry, error) {
	p := path.Clone()
	n, err := Get(root, p)
	if err != nil {
		return Entry{}, err
	}
	for {
		kids := Children(n)
		if len(kids) == 0 {
			return Entry{Node: n, Path: p}, nil
		}
		n = kids[0]
		p = append(p, 0)
	}
}

// Last returns the last leaf-most node at or below path, following last
// children.
func Last(root Node, path location.Path) (Entry, error) {
	p := path.Clone()
	n, err := Get(root, p)
	if err != nil {
		return Entry{}, err
	}
	for {
		kids := Children(n)
		if len(kids) == 0 {
			return Entry{Node: n, Path: p}, nil
		}
		i := len(kids) - 1
		n = kids[i]
		p = append(p, i)
	}
}

// Levels returns the entries from root down to the node at path inclusive.
// With reverse set the node comes first.
func Levels(root Node, path location.Path, reverse bool) ([]Entry, error) {
	out := make([]Entry, 0, len(path)+1)
	n := root
	out = append(out, Entry{Node: n, Path: location.Path{}})
	for i, idx := range path {
		kids := Children(n)
		if idx < 0 || idx >= len(kids) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path[:i+1])
		}
		n = kids[idx]
		out = append(out, Entry{Node: n, Path: path[:i+1].Clone()})
	}
	if reverse {
		slices.Reverse(out)
	}
	return out, nil
}

// Ancestors returns the entries of every ancestor of path from the root
// down, or from the parent up when reverse is set.
func Ancestors(root Node, path location.Path, reverse bool) ([]Entry, error) {
	if len(path) == 0 {
		return nil, nil
	}
	levels, err := Levels(root, path[:len(path)-1], reverse)
	if err != nil {
		return nil, err
	}
	return levels, nil
}

// Common returns the deepest entry that is an ancestor of, or equal to, both
// paths.
func Common(root Node, path, another location.Path) (Entry, error) {
	p := path.Common(another)
	n, err := Get(root, p)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Node: n, Path: p}, nil
}

// Update returns a copy of root in which the node at path has been replaced
// by the result of fn. Nodes off the path are shared with root.
func Update(root *Root, path location.Path, fn func(Node) (Node, error)) (*Root, error) {
	n, err := update(root, path, 0, fn)
	if err != nil {
		return nil, err
	}
	r, ok := n.(*Root)
	if !ok {
		return nil, fmt.Errorf("%w: root replaced by %T", ErrNotAncestor, n)
	}
	return r, nil
}

func update(n Node, path location.Path, depth int, fn func(Node) (Node, error)) (Node, error) {
	if depth == len(path) {
		return fn(n)
	}
	a, ok := n.(Ancestor)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path[:depth+1])
	}
	kids := a.ChildNodes()
	idx := path[depth]
	if idx < 0 || idx >= len(kids) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path[:depth+1])
	}
	child, err := update(kids[idx], path, depth+1, fn)
	if err != nil {
		return nil, err
	}
	next := slices.Clone(kids)
	next[idx] = child
	return a.replaceChildren(next), nil
}

// UpdateChildren returns a copy of root in which the children of the
// ancestor at path are replaced by the result of fn. fn receives a private
// copy of the children that it may modify freely.
func UpdateChildren(root *Root, path location.Path, fn func([]Node) ([]Node, error)) (*Root, error) {
	return Update(root, path, func(n Node) (Node, error) {
		a, ok := n.(Ancestor)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotAncestor, path)
		}
		kids, err := fn(slices.Clone(a.ChildNodes()))
		if err != nil {
			return nil, err
		}
		return a.replaceChildren(kids), nil
	})
}

// WithChildren returns a copy of the ancestor a owning children.
func WithChildren(a Ancestor, children []Node) Ancestor {
	return a.replaceChildren(children)
}

// Fragment returns the slice of the tree below root covered by r. Text at
// the range edges is trimmed to the covered offsets.
func Fragment(root Ancestor, r location.Range) []Node {
	start, end := r.Edges(false)
	out := make([]Node, 0)
	for i, c := range root.ChildNodes() {
		p := location.Path{i}
		if !r.Includes(p) {
			continue
		}
		out = append(out, fragmentOf(c, p, start, end, r))
	}
	return out
}

func fragmentOf(n Node, p location.Path, start, end location.Point, r location.Range) Node {
	switch v := n.(type) {
	case *Text:
		text := v.Text
		if p.Equal(end.Path) {
			text = textutil.SliceTo(text, end.Offset)
		}
		if p.Equal(start.Path) {
			text = textutil.SliceFrom(text, start.Offset)
		}
		return v.WithText(text)
	case Ancestor:
		kids := make([]Node, 0, len(v.ChildNodes()))
		for i, c := range v.ChildNodes() {
			cp := p.Append(i)
			if !r.Includes(cp) {
				continue
			}
			kids = append(kids, fragmentOf(c, cp, start, end, r))
		}
		return v.replaceChildren(kids)
	}
	return n
}
