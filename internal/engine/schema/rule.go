package schema

import (
	"fmt"
	"regexp"

	"github.com/dshills/treestorm/internal/engine/editor"
	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
)

// Kind identifies the constraint a node violates.
type Kind string

// Violation kinds.
const (
	ChildMinInvalid              Kind = "child_min_invalid"
	ChildMaxInvalid              Kind = "child_max_invalid"
	ChildObjectInvalid           Kind = "child_object_invalid"
	ChildTypeInvalid             Kind = "child_type_invalid"
	ChildPropertyInvalid         Kind = "child_property_invalid"
	ChildUnknown                 Kind = "child_unknown"
	FirstChildObjectInvalid      Kind = "first_child_object_invalid"
	FirstChildTypeInvalid        Kind = "first_child_type_invalid"
	LastChildObjectInvalid       Kind = "last_child_object_invalid"
	LastChildTypeInvalid         Kind = "last_child_type_invalid"
	NextSiblingObjectInvalid     Kind = "next_sibling_object_invalid"
	NextSiblingTypeInvalid       Kind = "next_sibling_type_invalid"
	PreviousSiblingObjectInvalid Kind = "previous_sibling_object_invalid"
	PreviousSiblingTypeInvalid   Kind = "previous_sibling_type_invalid"
	ParentObjectInvalid          Kind = "parent_object_invalid"
	ParentTypeInvalid            Kind = "parent_type_invalid"
	NodePropertyInvalid          Kind = "node_property_invalid"
	NodeTextInvalid              Kind = "node_text_invalid"
	NodeMarkInvalid              Kind = "node_mark_invalid"
	NodeObjectInvalid            Kind = "node_object_invalid"
)

// Rule constrains the nodes accepted by Match.
type Rule struct {
	// Name appears in logs and errors.
	Name string

	// Match selects the nodes the rule applies to.
	Match Matcher

	// Object, when set, is the only object kind a matched node may have.
	Object Object

	// Children describe the allowed children in order. Each group takes
	// between Min and Max consecutive children. Nil allows any children.
	Children []ChildRule

	// First and Last constrain the first and last child.
	First Matcher
	Last  Matcher

	// Parent constrains the parent of a matched node.
	Parent Matcher

	// Next and Previous constrain the siblings of a matched node.
	Next     Matcher
	Previous Matcher

	// Properties validate property values. For text nodes the properties
	// are the marks.
	Properties map[string]PropertyCheck

	// Marks lists the marks allowed on the text of a matched node. Nil
	// allows any mark.
	Marks []string

	// Text must match the text content of a matched node.
	Text *regexp.Regexp

	// Normalize repairs a violation of this rule. The default repair runs
	// only if Normalize applied no operation.
	Normalize NormalizeFunc
}

// ChildRule is one ordered group of children.
type ChildRule struct {
	Match Matcher
	Min   int

	// Max is the largest group size. Zero means unbounded.
	Max int

	// Default is inserted when the group has fewer than Min children.
	Default node.Node

	// MergeOverflow merges children beyond Max into the last allowed one
	// instead of removing them.
	MergeOverflow bool
}

// PropertyCheck validates one property. ok is false when the property is
// absent.
type PropertyCheck func(value any, ok bool) bool

// NormalizeFunc repairs err, usually by applying operations through e.
type NormalizeFunc func(e *editor.Editor, err *SchemaError) error

// SchemaError describes one violated constraint.
type SchemaError struct {
	Kind Kind
	Rule *Rule

	// Path and Node identify the validated node.
	Path location.Path
	Node node.Node

	// Child and Index identify the offending child or sibling, if any.
	// Index is -1 otherwise.
	Child node.Node
	Index int

	// Property is set for property violations, Mark for mark violations.
	Property string
	Mark     string

	// Limit is the violated bound of a child count violation.
	Limit int

	group int
}

// Error implements error.
func (e *SchemaError) Error() string {
	name := ""
	if e.Rule != nil && e.Rule.Name != "" {
		name = " (rule " + e.Rule.Name + ")"
	}
	switch {
	case e.Property != "":
		return fmt.Sprintf("schema: %s %q at %v%s", e.Kind, e.Property, e.Path, name)
	case e.Mark != "":
		return fmt.Sprintf("schema: %s %q at %v%s", e.Kind, e.Mark, e.Path, name)
	case e.Index >= 0:
		return fmt.Sprintf("schema: %s at %v child %d%s", e.Kind, e.Path, e.Index, name)
	}
	return fmt.Sprintf("schema: %s at %v%s", e.Kind, e.Path, name)
}

// ChildPath returns the path of the offending child or sibling.
func (e *SchemaError) ChildPath() (location.Path, bool) {
	if e.Index < 0 {
		return nil, false
	}
	switch e.Kind {
	case NextSiblingObjectInvalid, NextSiblingTypeInvalid,
		PreviousSiblingObjectInvalid, PreviousSiblingTypeInvalid:
		return e.Path.Parent().Append(e.Index), true
	}
	return e.Path.Append(e.Index), true
}
