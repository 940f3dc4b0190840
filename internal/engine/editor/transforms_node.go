package editor

import (
	"reflect"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/operation"
	"github.com/dshills/treestorm/internal/engine/tracking"
)

// NodeOptions control the node transforms. Each transform documents the
// fields it reads.
type NodeOptions struct {
	// At is the target location. Nil means the selection.
	At location.Location

	// Match selects the nodes to act on. The default depends on the
	// transform and on At: a path matches exactly that node, other
	// locations usually match blocks.
	Match MatchFunc

	// Mode picks among matches along a branch, ModeLowest by default.
	Mode Mode

	// Hanging keeps a hanging range as is instead of unhanging it.
	Hanging bool

	// Voids allows acting inside void elements.
	Voids bool

	// Select controls whether InsertNodes selects the inserted content.
	Select Select

	// Split splits partially covered nodes at the range edges first.
	Split bool

	// Always makes SplitNodes split even at a node edge.
	Always bool

	// Height is the number of levels above the matched node that
	// SplitNodes keeps intact.
	Height int

	// To is the destination of MoveNodes.
	To location.Path

	// Compare decides whether SetNodes changes a property. The default
	// treats deeply equal values as unchanged.
	Compare func(prop, nodeProp any) bool

	// Merge combines the current and new value of a property in SetNodes.
	Merge func(nodeProp, prop any) any
}

// guard runs fn as one normalization batch and reports its error.
func (e *Editor) guard(scope string, fn func() error) error {
	return e.report(e.WithoutNormalizing(fn), nil, scope)
}

// unhang pulls back a range ending at the start of a block unless
// opts.Hanging is set. Other locations pass through.
func (e *Editor) unhang(at location.Location, opts NodeOptions) (location.Location, error) {
	r, ok := at.(location.Range)
	if !ok || opts.Hanging {
		return at, nil
	}
	return e.UnhangRange(r, opts.Voids)
}

func (e *Editor) pathRefs(entries []node.Entry) []*tracking.PathRef {
	refs := make([]*tracking.PathRef, len(entries))
	for i, entry := range entries {
		refs[i] = e.PathRef(entry.Path, location.AffinityForward)
	}
	return refs
}

func releasePaths(refs []*tracking.PathRef) {
	for _, ref := range refs {
		ref.Unref()
	}
}

// deleteRange deletes an expanded range and returns the point where its
// end ended up. Collapsed ranges return their anchor.
func (e *Editor) deleteRange(r location.Range) (location.Point, bool, error) {
	if r.IsCollapsed() {
		return r.Anchor.Clone(), true, nil
	}
	ref := e.PointRef(r.End(), location.AffinityForward)
	if err := e.Delete(TextOptions{At: r}); err != nil {
		ref.Unref()
		return location.Point{}, false, err
	}
	p, ok := ref.Unref()
	return p, ok, nil
}

// InsertNodes inserts nodes at At. A range is deleted first, a point
// splits the matching node so the nodes go between the halves, and a path
// inserts at exactly that index. Without At the nodes go to the selection,
// or to the end of the document, and are selected.
//
// Uses At, Match, Mode, Hanging, Voids and Select.
func (e *Editor) InsertNodes(nodes []node.Node, opts NodeOptions) error {
	return e.guard("transform.insert_nodes", func() error {
		if len(nodes) == 0 {
			return nil
		}
		first := nodes[0]
		mode := opts.Mode.or(ModeLowest)
		sel := opts.Select

		at := opts.At
		if at == nil {
			switch {
			case e.selection != nil:
				at = e.selection.Clone()
			case len(e.root.Children) > 0:
				end, err := e.End(location.Path{})
				if err != nil {
					return err
				}
				at = end
			default:
				at = location.Path{0}
			}
			if sel != SelectNever {
				sel = SelectAlways
			}
		}

		if r, ok := at.(location.Range); ok {
			if !opts.Hanging {
				var err error
				if r, err = e.UnhangRange(r, opts.Voids); err != nil {
					return err
				}
			}
			p, ok, err := e.deleteRange(r)
			if err != nil || !ok {
				return err
			}
			at = p
		}

		if pt, ok := at.(location.Point); ok {
			match := opts.Match
			if match == nil {
				switch {
				case node.IsText(first):
					match = isText
				case e.IsInline(first):
					match = e.isTextOrInline
				default:
					match = e.isBlockMatch
				}
			}
			entries, err := e.Nodes(NodesOptions{At: pt.Path, Match: match, Mode: mode, Voids: opts.Voids, limit: 1})
			if err != nil || len(entries) == 0 {
				return err
			}
			target := entries[0].Path
			ref := e.PathRef(target, location.AffinityForward)
			isAtEnd := e.IsEnd(pt, target)
			if err := e.SplitNodes(NodeOptions{At: pt, Match: match, Mode: mode, Voids: opts.Voids}); err != nil {
				ref.Unref()
				return err
			}
			p, ok := ref.Unref()
			if !ok {
				return nil
			}
			if isAtEnd {
				p = p.Next()
			}
			at = p
		}

		p, ok := at.(location.Path)
		if !ok {
			return ErrUnsupportedLocation
		}
		if len(p) == 0 {
			return ErrRootLocation
		}
		parentPath := p.Parent()
		index := p.Last()
		if !opts.Voids {
			if _, inVoid, err := e.Void(QueryOptions{At: parentPath}); err != nil || inVoid {
				return err
			}
		}

		for _, n := range nodes {
			if err := e.Apply(operation.InsertNode{Path: parentPath.Append(index), Node: n}); err != nil {
				return err
			}
			index++
		}

		if sel == SelectAlways {
			end, err := e.End(parentPath.Append(index - 1))
			if err != nil {
				return err
			}
			return e.Select(end)
		}
		return nil
	})
}

// RemoveNodes removes the nodes matching at At.
//
// Uses At, Match, Mode, Hanging and Voids.
func (e *Editor) RemoveNodes(opts NodeOptions) error {
	return e.guard("transform.remove_nodes", func() error {
		at := e.at(opts.At)
		if at == nil {
			return nil
		}
		match := opts.Match
		if match == nil {
			if p, ok := at.(location.Path); ok {
				match = matchPath(p)
			} else {
				match = e.isBlockMatch
			}
		}
		if r, ok := at.(location.Range); ok && !opts.Hanging {
			var err error
			if at, err = e.UnhangRange(r, opts.Voids); err != nil {
				return err
			}
		}

		entries, err := e.Nodes(NodesOptions{At: at, Match: match, Mode: opts.Mode.or(ModeLowest), Voids: opts.Voids})
		if err != nil {
			return err
		}
		refs := e.pathRefs(entries)
		defer releasePaths(refs)
		for _, ref := range refs {
			p, ok := ref.Unref()
			if !ok {
				continue
			}
			n, err := node.Get(e.root, p)
			if err != nil {
				return err
			}
			if err := e.Apply(operation.RemoveNode{Path: p, Node: n}); err != nil {
				return err
			}
		}
		return nil
	})
}

// hasSingleChildNest reports whether n would become empty once its only
// descendant chain loses its leaf.
func (e *Editor) hasSingleChildNest(n node.Node) bool {
	switch v := n.(type) {
	case *node.Element:
		if e.isVoid(v) {
			return true
		}
		if len(v.Children) == 1 {
			return e.hasSingleChildNest(v.Children[0])
		}
		return false
	case *node.Root:
		return false
	}
	return true
}

// MergeNodes merges the node matching at At into its previous sibling (or
// previous matching node), moving it next to that node first if needed.
// An empty previous node is removed instead, as is any ancestor the move
// leaves empty.
//
// Uses At, Match, Mode, Hanging and Voids.
func (e *Editor) MergeNodes(opts NodeOptions) error {
	return e.guard("transform.merge_nodes", func() error {
		at := e.at(opts.At)
		if at == nil {
			return nil
		}
		mode := opts.Mode.or(ModeLowest)
		match := opts.Match
		if match == nil {
			if p, ok := at.(location.Path); ok {
				if len(p) == 0 {
					return ErrRootLocation
				}
				match = childOf(p.Parent())
			} else {
				match = e.isBlockMatch
			}
		}

		if r, ok := at.(location.Range); ok {
			if !opts.Hanging {
				var err error
				if r, err = e.UnhangRange(r, opts.Voids); err != nil {
					return err
				}
			}
			p, ok, err := e.deleteRange(r)
			if err != nil || !ok {
				return err
			}
			at = p
			if opts.At == nil && !r.IsCollapsed() {
				if err := e.Select(p); err != nil {
					return err
				}
			}
		}

		current, err := e.Nodes(NodesOptions{At: at, Match: match, Mode: mode, Voids: opts.Voids, limit: 1})
		if err != nil || len(current) == 0 {
			return err
		}
		prev, ok, err := e.Previous(QueryOptions{At: at, Match: match, Mode: mode, Voids: opts.Voids})
		if err != nil || !ok {
			return err
		}

		n, path := current[0].Node, current[0].Path
		if len(path) == 0 || len(prev.Path) == 0 {
			return nil
		}
		newPath := prev.Path.Next()
		commonPath := path.Common(prev.Path)
		isPreviousSibling := path.IsSibling(prev.Path)

		empty, hasEmpty, err := e.Above(QueryOptions{
			At:   path,
			Mode: ModeHighest,
			Match: func(n node.Node, p location.Path) bool {
				return len(p) >= len(commonPath) && len(p) < len(path) && e.hasSingleChildNest(n)
			},
		})
		if err != nil {
			return err
		}
		var emptyRef *tracking.PathRef
		if hasEmpty {
			emptyRef = e.PathRef(empty.Path, location.AffinityForward)
			defer emptyRef.Unref()
		}

		var (
			position   int
			properties node.Props
		)
		switch v := n.(type) {
		case *node.Text:
			pt, ok := prev.Node.(*node.Text)
			if !ok {
				return ErrMergeMismatch
			}
			position, properties = textLen(pt), node.Properties(v)
		case *node.Element:
			pe, ok := prev.Node.(*node.Element)
			if !ok {
				return ErrMergeMismatch
			}
			position, properties = len(pe.Children), node.Properties(v)
		default:
			return ErrMergeMismatch
		}

		if !isPreviousSibling {
			if err := e.MoveNodes(NodeOptions{At: path, To: newPath, Voids: opts.Voids}); err != nil {
				return err
			}
		}
		if emptyRef != nil {
			if p, ok := emptyRef.Current(); ok {
				if err := e.RemoveNodes(NodeOptions{At: p, Voids: opts.Voids}); err != nil {
					return err
				}
			}
		}

		removePrev := false
		switch pv := prev.Node.(type) {
		case *node.Element:
			removePrev = e.IsEmpty(pv)
		case *node.Text:
			removePrev = pv.Text == "" && prev.Path.Last() != 0
		}
		if removePrev {
			return e.RemoveNodes(NodeOptions{At: prev.Path, Voids: opts.Voids})
		}
		return e.Apply(operation.MergeNode{Path: newPath, Position: position, Properties: properties})
	})
}

// MoveNodes moves the nodes matching at At to To, keeping their order.
//
// Uses At, Match, Mode, Voids and To.
func (e *Editor) MoveNodes(opts NodeOptions) error {
	return e.guard("transform.move_nodes", func() error {
		at := e.at(opts.At)
		if at == nil {
			return nil
		}
		match := opts.Match
		if match == nil {
			if p, ok := at.(location.Path); ok {
				match = matchPath(p)
			} else {
				match = e.isBlockMatch
			}
		}

		toRef := e.PathRef(opts.To, location.AffinityForward)
		defer toRef.Unref()
		entries, err := e.Nodes(NodesOptions{At: at, Match: match, Mode: opts.Mode.or(ModeLowest), Voids: opts.Voids})
		if err != nil {
			return err
		}
		refs := e.pathRefs(entries)
		defer releasePaths(refs)

		for _, ref := range refs {
			p, ok := ref.Unref()
			if !ok {
				continue
			}
			newPath, ok := toRef.Current()
			if !ok {
				return nil
			}
			if len(p) != 0 {
				if err := e.Apply(operation.MoveNode{Path: p, NewPath: newPath}); err != nil {
					return err
				}
			}
			// A sibling moved to a later index lands before the target, so
			// the next node must go one further.
			if cur, ok := toRef.Current(); ok && newPath.IsSibling(p) && newPath.IsAfter(p) {
				if err := toRef.Set(cur.Next()); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// SetNodes sets props on the nodes matching at At. A nil value removes the
// property. With Split set, texts partially covered by a range are split
// first so that only the covered part changes.
//
// Uses At, Match, Mode, Hanging, Voids, Split, Compare and Merge.
func (e *Editor) SetNodes(props node.Props, opts NodeOptions) error {
	return e.guard("transform.set_nodes", func() error {
		at := e.at(opts.At)
		if at == nil {
			return nil
		}
		mode := opts.Mode.or(ModeLowest)
		match := opts.Match
		if match == nil {
			if p, ok := at.(location.Path); ok {
				match = matchPath(p)
			} else {
				match = e.isBlockMatch
			}
		}
		if r, ok := at.(location.Range); ok && !opts.Hanging {
			var err error
			if at, err = e.UnhangRange(r, opts.Voids); err != nil {
				return err
			}
		}

		if r, ok := at.(location.Range); ok && opts.Split {
			if r.IsCollapsed() {
				leaf, err := e.Leaf(r.Anchor, EdgeDefault)
				if err != nil {
					return err
				}
				if textLen(leaf.Node.(*node.Text)) > 0 {
					return nil
				}
			}
			rangeRef := e.RangeRef(r, location.AffinityInward)
			start, end := r.Edges(false)
			splitMode := ModeHighest
			if mode == ModeLowest {
				splitMode = ModeLowest
			}
			endAtEnd := e.IsEnd(end, end.Path)
			if err := e.SplitNodes(NodeOptions{At: end, Match: match, Mode: splitMode, Voids: opts.Voids, Always: !endAtEnd}); err != nil {
				rangeRef.Unref()
				return err
			}
			startAtStart := e.IsStart(start, start.Path)
			if err := e.SplitNodes(NodeOptions{At: start, Match: match, Mode: splitMode, Voids: opts.Voids, Always: !startAtStart}); err != nil {
				rangeRef.Unref()
				return err
			}
			next, ok := rangeRef.Unref()
			if !ok {
				return nil
			}
			at = next
			if opts.At == nil {
				if err := e.Select(next); err != nil {
					return err
				}
			}
		}

		compare := opts.Compare
		if compare == nil {
			compare = func(prop, nodeProp any) bool { return !reflect.DeepEqual(prop, nodeProp) }
		}

		entries, err := e.Nodes(NodesOptions{At: at, Match: match, Mode: mode, Voids: opts.Voids})
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if len(entry.Path) == 0 {
				continue
			}
			current := node.Properties(entry.Node)
			properties, newProperties := node.Props{}, node.Props{}
			changed := false
			for _, k := range props.Keys() {
				if k == "text" || k == "children" {
					continue
				}
				value := props[k]
				old, has := current[k]
				if !compare(value, old) {
					continue
				}
				changed = true
				if has {
					properties[k] = old
				}
				if opts.Merge != nil {
					if value != nil {
						newProperties[k] = opts.Merge(old, value)
					}
				} else if value != nil {
					newProperties[k] = value
				}
			}
			if !changed {
				continue
			}
			if err := e.Apply(operation.SetNode{Path: entry.Path, Properties: properties, NewProperties: newProperties}); err != nil {
				return err
			}
		}
		return nil
	})
}

// UnsetNodes removes the properties keys from the nodes matching at At.
func (e *Editor) UnsetNodes(keys []string, opts NodeOptions) error {
	props := make(node.Props, len(keys))
	for _, k := range keys {
		props[k] = nil
	}
	return e.SetNodes(props, opts)
}

// SplitNodes splits the nodes matching at At, from the leaf at the point
// up to and including the highest match. Nodes whose edge is the split
// point are left alone unless Always is set. A range is deleted first; a
// path splits its parent before it.
//
// Uses At, Match, Mode, Voids, Always and Height.
func (e *Editor) SplitNodes(opts NodeOptions) error {
	return e.guard("transform.split_nodes", func() error {
		mode := opts.Mode.or(ModeLowest)
		match := opts.Match
		if match == nil {
			match = e.isBlockMatch
		}
		height, always := opts.Height, opts.Always

		at := e.at(opts.At)
		if r, ok := at.(location.Range); ok {
			p, ok, err := e.deleteRange(r)
			if err != nil || !ok {
				return err
			}
			at = p
		}
		if p, ok := at.(location.Path); ok {
			if len(p) == 0 {
				return ErrRootLocation
			}
			pt, err := e.Point(p, EdgeStart)
			if err != nil {
				return err
			}
			match = matchPath(p.Parent())
			height = len(pt.Path) - len(p) + 1
			at = pt
			always = true
		}
		pt, ok := at.(location.Point)
		if !ok {
			return nil
		}

		beforeRef := e.PointRef(pt, location.AffinityBackward)
		defer beforeRef.Unref()

		highest, err := e.Nodes(NodesOptions{At: pt, Match: match, Mode: mode, Voids: opts.Voids, limit: 1})
		if err != nil || len(highest) == 0 {
			return err
		}

		voidEntry, inVoid, err := e.Void(QueryOptions{At: pt, Mode: ModeHighest})
		if err != nil {
			return err
		}
		if !opts.Voids && inVoid {
			if e.IsInline(voidEntry.Node) {
				after, ok, err := e.After(voidEntry.Path, StepOptions{})
				if err != nil {
					return err
				}
				if !ok {
					afterPath := voidEntry.Path.Next()
					if err := e.InsertNodes([]node.Node{node.NewText("", nil)}, NodeOptions{At: afterPath, Voids: opts.Voids}); err != nil {
						return err
					}
					if after, err = e.Point(afterPath, EdgeStart); err != nil {
						return err
					}
				}
				pt = after
			}
			height = len(pt.Path) - len(voidEntry.Path) + 1
			always = true
		}

		afterRef := e.PointRef(pt, location.AffinityForward)
		defer afterRef.Unref()

		depth := max(len(pt.Path)-height, 0)
		highestPath := highest[0].Path
		lowestPath := pt.Path[:depth].Clone()
		position := pt.Offset
		if height != 0 {
			position = pt.Path[depth]
		}

		levels, err := e.Levels(QueryOptions{At: lowestPath, Reverse: true, Voids: opts.Voids})
		if err != nil {
			return err
		}
		for _, level := range levels {
			if len(level.Path) < len(highestPath) || len(level.Path) == 0 || (!opts.Voids && e.IsVoid(level.Node)) {
				break
			}
			point, ok := beforeRef.Current()
			if !ok {
				break
			}
			isEnd := e.IsEnd(point, level.Path)
			split := false
			if always || !e.IsEdge(point, level.Path) {
				split = true
				op := operation.SplitNode{Path: level.Path, Position: position, Properties: node.Properties(level.Node)}
				if err := e.Apply(op); err != nil {
					return err
				}
			}
			position = level.Path.Last()
			if split || isEnd {
				position++
			}
		}

		if opts.At == nil {
			point, ok := afterRef.Current()
			if !ok {
				if point, err = e.End(location.Path{}); err != nil {
					return err
				}
			}
			return e.Select(point)
		}
		return nil
	})
}

// WrapNodes wraps the nodes matching at At in a copy of element. Inline
// elements wrap inline content inside each block; block elements wrap
// blocks under their common parent.
//
// Uses At, Match, Mode, Hanging, Voids and Split.
func (e *Editor) WrapNodes(element *node.Element, opts NodeOptions) error {
	return e.guard("transform.wrap_nodes", func() error {
		at := e.at(opts.At)
		if at == nil {
			return nil
		}
		at, err := e.unhang(at, opts)
		if err != nil {
			return err
		}
		inline := e.isInline(element)
		match := opts.Match
		if match == nil {
			if p, ok := at.(location.Path); ok {
				match = matchPath(p)
			} else if inline {
				match = e.isTextOrInline
			} else {
				match = e.isBlockMatch
			}
		}

		if r, ok := at.(location.Range); ok && opts.Split {
			start, end := r.Edges(false)
			rangeRef := e.RangeRef(r, location.AffinityInward)
			if err := e.SplitNodes(NodeOptions{At: end, Match: match, Voids: opts.Voids}); err != nil {
				rangeRef.Unref()
				return err
			}
			if err := e.SplitNodes(NodeOptions{At: start, Match: match, Voids: opts.Voids}); err != nil {
				rangeRef.Unref()
				return err
			}
			next, ok := rangeRef.Unref()
			if !ok {
				return nil
			}
			at = next
			if opts.At == nil {
				if err := e.Select(next); err != nil {
					return err
				}
			}
		}

		rootMatch := func(n node.Node, _ location.Path) bool {
			_, ok := n.(*node.Root)
			return ok
		}
		if inline {
			rootMatch = e.isBlockMatch
		}
		var roots []node.Entry
		roots, err = e.Nodes(NodesOptions{At: at, Match: rootMatch, Mode: ModeLowest, Voids: opts.Voids})
		if err != nil {
			return err
		}

		for _, root := range roots {
			scope := at
			if r, ok := at.(location.Range); ok {
				rootRange, err := e.Range(root.Path, nil)
				if err != nil {
					return err
				}
				inter, ok := r.Intersection(rootRange)
				if !ok {
					continue
				}
				scope = inter
			}

			matches, err := e.Nodes(NodesOptions{At: scope, Match: match, Mode: opts.Mode.or(ModeLowest), Voids: opts.Voids})
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				continue
			}
			firstPath, lastPath := matches[0].Path, matches[len(matches)-1].Path
			if len(firstPath) == 0 && len(lastPath) == 0 {
				continue
			}

			commonPath := firstPath.Common(lastPath)
			if firstPath.Equal(lastPath) {
				commonPath = firstPath.Parent()
			}
			span, err := e.Range(firstPath, lastPath)
			if err != nil {
				return err
			}
			depth := len(commonPath) + 1
			wrapperPath := lastPath[:depth].Next()
			wrapper := element.WithChildren([]node.Node{})

			if err := e.InsertNodes([]node.Node{wrapper}, NodeOptions{At: wrapperPath, Voids: opts.Voids}); err != nil {
				return err
			}
			if err := e.MoveNodes(NodeOptions{At: span, Match: childOf(commonPath), To: wrapperPath.Append(0), Voids: opts.Voids}); err != nil {
				return err
			}
		}
		return nil
	})
}

// UnwrapNodes replaces the nodes matching at At with their children. With
// Split set only the children inside the range are lifted out.
//
// Uses At, Match, Mode, Hanging, Voids and Split.
func (e *Editor) UnwrapNodes(opts NodeOptions) error {
	return e.guard("transform.unwrap_nodes", func() error {
		at := e.at(opts.At)
		if at == nil {
			return nil
		}
		at, err := e.unhang(at, opts)
		if err != nil {
			return err
		}
		match := opts.Match
		if match == nil {
			if p, ok := at.(location.Path); ok {
				match = matchPath(p)
			} else {
				match = e.isBlockMatch
			}
		}
		if p, ok := at.(location.Path); ok {
			if at, err = e.Range(p, nil); err != nil {
				return err
			}
		}

		var rangeRef *tracking.RangeRef
		if r, ok := at.(location.Range); ok {
			rangeRef = e.RangeRef(r, location.AffinityInward)
			defer rangeRef.Unref()
		}

		entries, err := e.Nodes(NodesOptions{At: at, Match: match, Mode: opts.Mode.or(ModeLowest), Voids: opts.Voids})
		if err != nil {
			return err
		}
		refs := e.pathRefs(entries)
		defer releasePaths(refs)

		// Deepest first, so outer paths stay valid.
		for i := len(refs) - 1; i >= 0; i-- {
			p, ok := refs[i].Unref()
			if !ok {
				continue
			}
			r, err := e.Range(p, nil)
			if err != nil {
				return err
			}
			if opts.Split && rangeRef != nil {
				cur, ok := rangeRef.Current()
				if !ok {
					continue
				}
				if r, ok = cur.Intersection(r); !ok {
					continue
				}
			}
			if err := e.LiftNodes(NodeOptions{At: r, Match: childOf(p), Hanging: true, Voids: opts.Voids}); err != nil {
				return err
			}
		}
		return nil
	})
}

// LiftNodes moves the nodes matching at At up one level, splitting their
// parent when they sit in its middle and removing it when it empties.
//
// Uses At, Match, Mode, Hanging and Voids.
func (e *Editor) LiftNodes(opts NodeOptions) error {
	return e.guard("transform.lift_nodes", func() error {
		at := e.at(opts.At)
		if at == nil {
			return nil
		}
		at, err := e.unhang(at, opts)
		if err != nil {
			return err
		}
		match := opts.Match
		if match == nil {
			if p, ok := at.(location.Path); ok {
				match = matchPath(p)
			} else {
				match = e.isBlockMatch
			}
		}

		entries, err := e.Nodes(NodesOptions{At: at, Match: match, Mode: opts.Mode.or(ModeLowest), Voids: opts.Voids})
		if err != nil {
			return err
		}
		refs := e.pathRefs(entries)
		defer releasePaths(refs)

		for _, ref := range refs {
			p, ok := ref.Unref()
			if !ok {
				continue
			}
			if len(p) < 2 {
				return ErrLiftDepth
			}
			parentPath := p.Parent()
			parent, err := node.Get(e.root, parentPath)
			if err != nil {
				return err
			}
			index, length := p.Last(), len(node.Children(parent))

			switch {
			case length == 1:
				if err := e.MoveNodes(NodeOptions{At: p, To: parentPath.Next(), Voids: opts.Voids}); err != nil {
					return err
				}
				err = e.RemoveNodes(NodeOptions{At: parentPath, Voids: opts.Voids})
			case index == 0:
				err = e.MoveNodes(NodeOptions{At: p, To: parentPath, Voids: opts.Voids})
			case index == length-1:
				err = e.MoveNodes(NodeOptions{At: p, To: parentPath.Next(), Voids: opts.Voids})
			default:
				if err := e.SplitNodes(NodeOptions{At: p.Next(), Voids: opts.Voids}); err != nil {
					return err
				}
				err = e.MoveNodes(NodeOptions{At: p, To: parentPath.Next(), Voids: opts.Voids})
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}
