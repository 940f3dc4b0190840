package schema

import (
	"slices"

	"github.com/dshills/treestorm/internal/engine/editor"
	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
)

// Validate checks entry against every rule that matches it and returns the
// first violation, or nil.
func (s *Schema) Validate(e *editor.Editor, entry node.Entry) *SchemaError {
	for i := range s.rules {
		r := &s.rules[i]
		if !Matches(e, r.Match, entry) {
			continue
		}
		if err := validateRule(e, r, entry); err != nil {
			return err
		}
	}
	return nil
}

// Check validates every node of the document and returns all violations
// in document order.
func (s *Schema) Check(e *editor.Editor) []*SchemaError {
	var out []*SchemaError
	node.Walk(e.Children(), node.WalkOptions{}, func(entry node.Entry) bool {
		if err := s.Validate(e, entry); err != nil {
			out = append(out, err)
		}
		return true
	})
	return out
}

func validateRule(e *editor.Editor, r *Rule, entry node.Entry) *SchemaError {
	fail := func(kind Kind) *SchemaError {
		return &SchemaError{Kind: kind, Rule: r, Path: entry.Path.Clone(), Node: entry.Node, Index: -1}
	}

	if r.Object != "" && ObjectOf(e, entry.Node) != r.Object {
		return fail(NodeObjectInvalid)
	}

	if len(r.Properties) > 0 {
		props := node.Properties(entry.Node)
		keys := make([]string, 0, len(r.Properties))
		for k := range r.Properties {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			v, ok := props[k]
			if !r.Properties[k](v, ok) {
				err := fail(NodePropertyInvalid)
				err.Property = k
				return err
			}
		}
	}

	if r.Marks != nil {
		if mark, ok := disallowedMark(entry.Node, r.Marks); ok {
			err := fail(NodeMarkInvalid)
			err.Mark = mark
			return err
		}
	}

	if r.Text != nil && !r.Text.MatchString(node.String(entry.Node)) {
		return fail(NodeTextInvalid)
	}

	root := e.Children()
	if r.Parent != nil && len(entry.Path) > 0 {
		parent, err := node.Parent(root, entry.Path)
		if err == nil {
			pe := node.Entry{Node: parent, Path: entry.Path.Parent()}
			if !Matches(e, r.Parent, pe) {
				return fail(pick(classify(e, r.Parent, pe), ParentObjectInvalid, ParentTypeInvalid))
			}
		}
	}

	if r.Previous != nil && len(entry.Path) > 0 && entry.Path.HasPrevious() {
		p := entry.Path.Previous()
		if prev, err := node.Get(root, p); err == nil {
			pe := node.Entry{Node: prev, Path: p}
			if !Matches(e, r.Previous, pe) {
				err := fail(pick(classify(e, r.Previous, pe), PreviousSiblingObjectInvalid, PreviousSiblingTypeInvalid))
				err.Child, err.Index = prev, p.Last()
				return err
			}
		}
	}

	if r.Next != nil && len(entry.Path) > 0 {
		p := entry.Path.Next()
		if next, err := node.Get(root, p); err == nil {
			ne := node.Entry{Node: next, Path: p}
			if !Matches(e, r.Next, ne) {
				err := fail(pick(classify(e, r.Next, ne), NextSiblingObjectInvalid, NextSiblingTypeInvalid))
				err.Child, err.Index = next, p.Last()
				return err
			}
		}
	}

	children := node.Children(entry.Node)
	childEntry := func(i int) node.Entry {
		return node.Entry{Node: children[i], Path: entry.Path.Append(i)}
	}

	if r.First != nil && len(children) > 0 {
		if ce := childEntry(0); !Matches(e, r.First, ce) {
			err := fail(pick(classify(e, r.First, ce), FirstChildObjectInvalid, FirstChildTypeInvalid))
			err.Child, err.Index = ce.Node, 0
			return err
		}
	}
	if r.Last != nil && len(children) > 0 {
		last := len(children) - 1
		if ce := childEntry(last); !Matches(e, r.Last, ce) {
			err := fail(pick(classify(e, r.Last, ce), LastChildObjectInvalid, LastChildTypeInvalid))
			err.Child, err.Index = ce.Node, last
			return err
		}
	}

	if r.Children == nil {
		return nil
	}
	group, count := 0, 0
	for i := range children {
		ce := childEntry(i)
		for {
			if group >= len(r.Children) {
				err := fail(ChildUnknown)
				err.Child, err.Index = ce.Node, i
				return err
			}
			def := r.Children[group]
			if def.Max > 0 && count >= def.Max {
				if group+1 < len(r.Children) {
					group, count = group+1, 0
					continue
				}
				err := fail(ChildMaxInvalid)
				err.Child, err.Index, err.Limit, err.group = ce.Node, i, def.Max, group
				return err
			}
			if Matches(e, def.Match, ce) {
				count++
				break
			}
			if count >= def.Min && group+1 < len(r.Children) {
				group, count = group+1, 0
				continue
			}
			var kind Kind
			switch classify(e, def.Match, ce) {
			case failObject:
				kind = ChildObjectInvalid
			case failProperty:
				kind = ChildPropertyInvalid
			default:
				kind = ChildTypeInvalid
			}
			err := fail(kind)
			err.Child, err.Index, err.group = ce.Node, i, group
			return err
		}
	}
	for ; group < len(r.Children); group, count = group+1, 0 {
		if def := r.Children[group]; count < def.Min {
			err := fail(ChildMinInvalid)
			err.Index, err.Limit, err.group = len(children), def.Min, group
			return err
		}
	}
	return nil
}

// pick maps a matcher failure to the object or type flavour of a kind.
func pick(f failure, object, typ Kind) Kind {
	if f == failObject {
		return object
	}
	return typ
}

// disallowedMark returns the first mark on the text of n that is not in
// allowed.
func disallowedMark(n node.Node, allowed []string) (string, bool) {
	var texts []node.Entry
	if t, ok := n.(*node.Text); ok {
		texts = []node.Entry{{Node: t, Path: location.Path{}}}
	} else {
		texts = node.Texts(n, node.WalkOptions{})
	}
	for _, entry := range texts {
		for _, k := range entry.Node.(*node.Text).Marks.Keys() {
			if !slices.Contains(allowed, k) {
				return k, true
			}
		}
	}
	return "", false
}
