package editor

import (
	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/operation"
	"github.com/dshills/treestorm/internal/engine/textutil"
	"github.com/dshills/treestorm/internal/engine/tracking"
)

// TextOptions control the text transforms.
type TextOptions struct {
	// At is the target location. Nil means the selection.
	At location.Location

	// Voids allows editing inside void elements.
	Voids bool

	// Hanging keeps a hanging range as is.
	Hanging bool

	// Reverse deletes backwards from a point.
	Reverse bool

	// Unit is the deletion step from a point, UnitCharacter by default.
	Unit Unit

	// Distance is the number of units to delete from a point, 1 by
	// default.
	Distance int
}

// Delete removes the content at At. A point deletes Distance units forward
// (or backward with Reverse); a path removes the node; a range removes the
// covered content and merges the blocks at its edges.
func (e *Editor) Delete(opts TextOptions) error {
	return e.guard("transform.delete", func() error {
		at := e.at(opts.At)
		if at == nil {
			return nil
		}
		hanging := opts.Hanging
		if r, ok := at.(location.Range); ok && r.IsCollapsed() {
			at = r.Anchor
		}

		if pt, ok := at.(location.Point); ok {
			furthest, inVoid, err := e.Void(QueryOptions{At: pt, Mode: ModeHighest})
			if err != nil {
				return err
			}
			if !opts.Voids && inVoid {
				at = furthest.Path
			} else {
				step := StepOptions{Unit: opts.Unit.or(UnitCharacter), Distance: opts.Distance}
				var (
					target location.Point
					found  bool
				)
				if opts.Reverse {
					if target, found, err = e.Before(pt, step); err == nil && !found {
						target, err = e.Start(location.Path{})
					}
				} else {
					if target, found, err = e.After(pt, step); err == nil && !found {
						target, err = e.End(location.Path{})
					}
				}
				if err != nil {
					return err
				}
				at = location.NewRange(pt, target)
				hanging = true
			}
		}

		if p, ok := at.(location.Path); ok {
			return e.RemoveNodes(NodeOptions{At: p, Voids: opts.Voids})
		}
		r, ok := at.(location.Range)
		if !ok {
			return ErrUnsupportedLocation
		}
		if r.IsCollapsed() {
			return nil
		}
		if !hanging {
			docEnd, err := e.End(location.Path{})
			if err != nil {
				return err
			}
			if !r.End().Equal(docEnd) {
				if r, err = e.UnhangRange(r, opts.Voids); err != nil {
					return err
				}
			}
		}

		start, end := r.Edges(false)
		startBlock, hasStartBlock, err := e.Above(QueryOptions{At: start, Match: e.isBlockMatch, Voids: opts.Voids})
		if err != nil {
			return err
		}
		endBlock, hasEndBlock, err := e.Above(QueryOptions{At: end, Match: e.isBlockMatch, Voids: opts.Voids})
		if err != nil {
			return err
		}
		isAcrossBlocks := hasStartBlock && hasEndBlock && !startBlock.Path.Equal(endBlock.Path)
		isSingleText := start.Path.Equal(end.Path)

		var startVoid, endVoid bool
		if !opts.Voids {
			if _, startVoid, err = e.Void(QueryOptions{At: start, Mode: ModeHighest}); err != nil {
				return err
			}
			if _, endVoid, err = e.Void(QueryOptions{At: end, Mode: ModeHighest}); err != nil {
				return err
			}
		}
		// Points inside an inline void move out of it, within their block.
		if startVoid {
			if before, ok, err := e.Before(start, StepOptions{}); err == nil && ok && hasStartBlock && startBlock.Path.IsAncestor(before.Path) {
				start = before
			}
		}
		if endVoid {
			if after, ok, err := e.After(end, StepOptions{}); err == nil && ok && hasEndBlock && endBlock.Path.IsAncestor(after.Path) {
				end = after
			}
		}

		// The highest nodes entirely inside the range, plus voids.
		entries, err := e.Nodes(NodesOptions{At: r, Voids: opts.Voids})
		if err != nil {
			return err
		}
		var (
			matches  []node.Entry
			lastPath location.Path
			haveLast bool
		)
		for _, entry := range entries {
			if haveLast && entry.Path.Compare(lastPath) == 0 {
				continue
			}
			if (!opts.Voids && e.IsVoid(entry.Node)) || (!entry.Path.IsCommon(start.Path) && !entry.Path.IsCommon(end.Path)) {
				matches = append(matches, entry)
				lastPath, haveLast = entry.Path, true
			}
		}

		refs := e.pathRefs(matches)
		defer releasePaths(refs)
		startRef := e.PointRef(start, location.AffinityForward)
		defer startRef.Unref()
		endRef := e.PointRef(end, location.AffinityForward)
		defer endRef.Unref()

		if !isSingleText && !startVoid {
			if point, ok := startRef.Current(); ok {
				leaf, err := node.Leaf(e.root, point.Path)
				if err != nil {
					return err
				}
				if text := textutil.SliceFrom(leaf.Text, start.Offset); text != "" {
					if err := e.Apply(operation.RemoveText{Path: point.Path, Offset: start.Offset, Text: text}); err != nil {
						return err
					}
				}
			}
		}

		for i := len(refs) - 1; i >= 0; i-- {
			p, ok := refs[i].Unref()
			if !ok {
				continue
			}
			if err := e.RemoveNodes(NodeOptions{At: p, Voids: opts.Voids}); err != nil {
				return err
			}
		}

		if !endVoid {
			if point, ok := endRef.Current(); ok {
				leaf, err := node.Leaf(e.root, point.Path)
				if err != nil {
					return err
				}
				offset := 0
				if isSingleText {
					offset = start.Offset
				}
				if text := textutil.Slice(leaf.Text, offset, end.Offset); text != "" {
					if err := e.Apply(operation.RemoveText{Path: point.Path, Offset: offset, Text: text}); err != nil {
						return err
					}
				}
			}
		}

		if !isSingleText && isAcrossBlocks {
			endPoint, endOK := endRef.Current()
			_, startOK := startRef.Current()
			if endOK && startOK {
				if err := e.MergeNodes(NodeOptions{At: endPoint, Hanging: true, Voids: opts.Voids}); err != nil {
					return err
				}
			}
		}

		startPoint, startOK := startRef.Unref()
		endPoint, endOK := endRef.Unref()
		point, ok := endPoint, endOK
		if opts.Reverse || !endOK {
			point, ok = startPoint, startOK
		}
		if opts.Reverse && !startOK {
			point, ok = endPoint, endOK
		}
		if opts.At == nil && ok {
			return e.Select(point)
		}
		return nil
	})
}

// InsertText inserts text at At. An expanded range is deleted first and
// the selection collapsed to where it was.
func (e *Editor) InsertText(text string, opts TextOptions) error {
	return e.guard("transform.insert_text", func() error {
		at := e.at(opts.At)
		if at == nil {
			return nil
		}
		if p, ok := at.(location.Path); ok {
			r, err := e.Range(p, nil)
			if err != nil {
				return err
			}
			at = r
		}

		if r, ok := at.(location.Range); ok {
			if r.IsCollapsed() {
				at = r.Anchor
			} else {
				end := r.End()
				if !opts.Voids {
					if _, inVoid, err := e.Void(QueryOptions{At: end}); err != nil || inVoid {
						return err
					}
				}
				startRef := e.PointRef(r.Start(), location.AffinityForward)
				endRef := e.PointRef(end, location.AffinityForward)
				err := e.Delete(TextOptions{At: r, Voids: opts.Voids})
				startPoint, startOK := startRef.Unref()
				endPoint, _ := endRef.Unref()
				if err != nil {
					return err
				}
				pt := endPoint
				if startOK {
					pt = startPoint
				}
				at = pt
				if err := e.SetSelection(operation.SelectionProps{Anchor: &pt, Focus: &pt}); err != nil {
					return err
				}
			}
		}

		pt, ok := at.(location.Point)
		if !ok {
			return ErrUnsupportedLocation
		}
		if !opts.Voids {
			if _, inVoid, err := e.Void(QueryOptions{At: pt}); err != nil || inVoid {
				return err
			}
		}
		if text == "" {
			return nil
		}
		return e.Apply(operation.InsertText{Path: pt.Path, Offset: pt.Offset, Text: text})
	})
}

// InsertFragment inserts a fragment of the document at At. Inline content
// at the fragment edges merges into the surrounding blocks, whole blocks in
// its middle are inserted between them.
func (e *Editor) InsertFragment(fragment []node.Node, opts TextOptions) error {
	return e.guard("transform.insert_fragment", func() error {
		if len(fragment) == 0 {
			return nil
		}

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
		}

		switch v := at.(type) {
		case location.Range:
			if !opts.Hanging {
				var err error
				if v, err = e.UnhangRange(v, opts.Voids); err != nil {
					return err
				}
			}
			if v.IsCollapsed() {
				at = v.Anchor
				break
			}
			if !opts.Voids {
				if _, inVoid, err := e.Void(QueryOptions{At: v.End()}); err != nil || inVoid {
					return err
				}
			}
			p, ok, err := e.deleteRange(v)
			if err != nil || !ok {
				return err
			}
			at = p
		case location.Path:
			p, err := e.Start(v)
			if err != nil {
				return err
			}
			at = p
		}
		pt, ok := at.(location.Point)
		if !ok {
			return ErrUnsupportedLocation
		}
		if !opts.Voids {
			if _, inVoid, err := e.Void(QueryOptions{At: pt}); err != nil || inVoid {
				return err
			}
		}

		// A point on the edge of an inline moves outside of it.
		inline, inInline, err := e.Above(QueryOptions{
			At:    pt,
			Match: func(n node.Node, _ location.Path) bool { return e.IsInline(n) },
			Mode:  ModeHighest,
			Voids: opts.Voids,
		})
		if err != nil {
			return err
		}
		if inInline {
			if e.IsEnd(pt, inline.Path) {
				if after, ok, err := e.After(inline.Path, StepOptions{}); err == nil && ok {
					pt = after
				}
			} else if e.IsStart(pt, inline.Path) {
				if before, ok, err := e.Before(inline.Path, StepOptions{}); err == nil && ok {
					pt = before
				}
			}
		}

		block, ok, err := e.Above(QueryOptions{At: pt, Match: e.isBlockMatch, Voids: opts.Voids})
		if err != nil || !ok {
			return err
		}
		blockPath := block.Path
		isBlockStart := e.IsStart(pt, blockPath)
		isBlockEnd := e.IsEnd(pt, blockPath)
		isBlockEmpty := isBlockStart && isBlockEnd
		mergeStart := !isBlockStart || isBlockEnd
		mergeEnd := !isBlockEnd

		frag := node.NewRoot(fragment...)
		firstLeaf, err := node.First(frag, location.Path{})
		if err != nil {
			return err
		}
		lastLeaf, err := node.Last(frag, location.Path{})
		if err != nil {
			return err
		}
		keep := func(entry node.Entry) bool {
			if len(entry.Path) == 0 {
				return false
			}
			if isBlockEmpty {
				return true
			}
			el, isEl := entry.Node.(*node.Element)
			mergeable := isEl && !e.isVoid(el) && !e.isInline(el)
			if mergeStart && entry.Path.IsAncestor(firstLeaf.Path) && mergeable {
				return false
			}
			if mergeEnd && entry.Path.IsAncestor(lastLeaf.Path) && mergeable {
				return false
			}
			return true
		}

		var starts, middles, ends []node.Node
		starting, hasBlocks := true, false
		node.Walk(frag, node.WalkOptions{Pass: keep}, func(entry node.Entry) bool {
			if !keep(entry) {
				return true
			}
			switch {
			case e.IsBlock(entry.Node):
				starting, hasBlocks = false, true
				middles = append(middles, entry.Node)
			case starting:
				starts = append(starts, entry.Node)
			default:
				ends = append(ends, entry.Node)
			}
			return true
		})

		inlines, err := e.Nodes(NodesOptions{At: pt, Match: e.isTextOrInline, Mode: ModeHighest, Voids: opts.Voids, limit: 1})
		if err != nil {
			return err
		}
		if len(inlines) == 0 {
			return nil
		}
		inlinePath := inlines[0].Path
		isInlineStart := e.IsStart(pt, inlinePath)
		isInlineEnd := e.IsEnd(pt, inlinePath)

		middleTarget := blockPath
		if isBlockEnd && len(ends) == 0 {
			middleTarget = blockPath.Next()
		}
		middleRef := e.PathRef(middleTarget, location.AffinityForward)
		defer middleRef.Unref()
		endTarget := inlinePath
		if isInlineEnd {
			endTarget = inlinePath.Next()
		}
		endRef := e.PathRef(endTarget, location.AffinityForward)
		defer endRef.Unref()

		splitMatch, splitMode := e.isTextOrInline, ModeHighest
		if hasBlocks {
			splitMatch, splitMode = e.isBlockMatch, ModeLowest
		}
		if err := e.SplitNodes(NodeOptions{
			At:     pt,
			Match:  splitMatch,
			Mode:   splitMode,
			Always: hasBlocks && (!isBlockStart || isBlockEnd) && (!isBlockEnd || isBlockStart),
			Voids:  opts.Voids,
		}); err != nil {
			return err
		}

		startTarget := inlinePath
		if !isInlineStart || isInlineEnd {
			startTarget = inlinePath.Next()
		}
		startRef := e.PathRef(startTarget, location.AffinityForward)
		defer startRef.Unref()

		insert := func(nodes []node.Node, ref *tracking.PathRef, match MatchFunc, mode Mode) error {
			if len(nodes) == 0 {
				return nil
			}
			p, ok := ref.Current()
			if !ok {
				return nil
			}
			return e.InsertNodes(nodes, NodeOptions{At: p, Match: match, Mode: mode, Voids: opts.Voids})
		}

		if err := insert(starts, startRef, e.isTextOrInline, ModeHighest); err != nil {
			return err
		}
		if isBlockEmpty && len(starts) == 0 && len(middles) > 0 && len(ends) == 0 {
			if err := e.Delete(TextOptions{At: blockPath, Voids: opts.Voids}); err != nil {
				return err
			}
		}
		if err := insert(middles, middleRef, e.isBlockMatch, ModeLowest); err != nil {
			return err
		}
		if err := insert(ends, endRef, e.isTextOrInline, ModeHighest); err != nil {
			return err
		}

		if opts.At != nil {
			return nil
		}
		var last location.Path
		if p, ok := endRef.Current(); ok && len(ends) > 0 {
			last = p
		} else if p, ok := middleRef.Current(); ok && len(middles) > 0 {
			last = p
		} else if p, ok := startRef.Current(); ok {
			last = p
		}
		if len(last) == 0 || !last.HasPrevious() {
			return nil
		}
		end, err := e.End(last.Previous())
		if err != nil {
			return err
		}
		return e.Select(end)
	})
}
