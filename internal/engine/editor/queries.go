package editor

import (
	"fmt"
	"strings"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/textutil"
)

// QueryOptions are shared by the single-entry queries.
type QueryOptions struct {
	// At is the location to query. Nil means the selection.
	At location.Location

	// Match filters candidate entries.
	Match MatchFunc

	// Mode picks among matches along a branch.
	Mode Mode

	// Voids includes the content of void elements.
	Voids bool

	// Edge resolves a location to one of its ends.
	Edge Edge

	// Reverse reverses the order of Levels.
	Reverse bool
}

// at returns at or, when nil, the selection. The result is nil when neither
// exists.
func (e *Editor) at(at location.Location) location.Location {
	if at != nil {
		return at
	}
	if e.selection != nil {
		return e.selection.Clone()
	}
	return nil
}

func textLen(t *node.Text) int {
	if t == nil {
		return 0
	}
	return textutil.Len(t.Text)
}

func isText(n node.Node, _ location.Path) bool {
	return node.IsText(n)
}

func matchPath(p location.Path) MatchFunc {
	p = p.Clone()
	return func(_ node.Node, q location.Path) bool { return q.Equal(p) }
}

func childOf(parent location.Path) MatchFunc {
	parent = parent.Clone()
	return func(_ node.Node, q location.Path) bool { return q.IsChild(parent) }
}

func (e *Editor) isBlockMatch(n node.Node, _ location.Path) bool {
	return e.IsBlock(n)
}

func (e *Editor) isTextOrInline(n node.Node, _ location.Path) bool {
	return node.IsText(n) || e.IsInline(n)
}

func (e *Editor) isVoidMatch(n node.Node, _ location.Path) bool {
	return e.IsVoid(n)
}

// Path resolves at to a path. Ranges resolve to the common ancestor of
// their ends unless an edge is requested.
func (e *Editor) Path(at location.Location, edge Edge) (location.Path, error) {
	switch v := at.(type) {
	case location.Path:
		switch edge {
		case EdgeStart:
			first, err := node.First(e.root, v)
			if err != nil {
				return nil, err
			}
			return first.Path, nil
		case EdgeEnd:
			last, err := node.Last(e.root, v)
			if err != nil {
				return nil, err
			}
			return last.Path, nil
		}
		return v.Clone(), nil
	case location.Point:
		return v.Path.Clone(), nil
	case location.Range:
		switch edge {
		case EdgeStart:
			return v.Start().Path.Clone(), nil
		case EdgeEnd:
			return v.End().Path.Clone(), nil
		}
		return v.Anchor.Path.Common(v.Focus.Path), nil
	case nil:
		return nil, ErrNoLocation
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedLocation, at)
}

// Point resolves at to a point. Paths resolve to the start or end of their
// first or last text, ranges to their start or end. The default edge is the
// start.
func (e *Editor) Point(at location.Location, edge Edge) (location.Point, error) {
	switch v := at.(type) {
	case location.Path:
		var (
			entry node.Entry
			err   error
		)
		if edge == EdgeEnd {
			entry, err = node.Last(e.root, v)
		} else {
			entry, err = node.First(e.root, v)
		}
		if err != nil {
			return location.Point{}, err
		}
		t, ok := entry.Node.(*node.Text)
		if !ok {
			return location.Point{}, fmt.Errorf("%w: %s", ErrNoTextEdge, v)
		}
		if edge == EdgeEnd {
			return location.NewPoint(entry.Path, textLen(t)), nil
		}
		return location.NewPoint(entry.Path, 0), nil
	case location.Point:
		return v.Clone(), nil
	case location.Range:
		if edge == EdgeEnd {
			return v.End().Clone(), nil
		}
		return v.Start().Clone(), nil
	case nil:
		return location.Point{}, ErrNoLocation
	}
	return location.Point{}, fmt.Errorf("%w: %T", ErrUnsupportedLocation, at)
}

// Start returns the start point of at.
func (e *Editor) Start(at location.Location) (location.Point, error) {
	return e.Point(at, EdgeStart)
}

// End returns the end point of at.
func (e *Editor) End(at location.Location) (location.Point, error) {
	return e.Point(at, EdgeEnd)
}

// Edges returns the start and end points of at.
func (e *Editor) Edges(at location.Location) (location.Point, location.Point, error) {
	start, err := e.Start(at)
	if err != nil {
		return location.Point{}, location.Point{}, err
	}
	end, err := e.End(at)
	if err != nil {
		return location.Point{}, location.Point{}, err
	}
	return start, end, nil
}

// Range returns the range from the start of at to the end of to, or of at
// itself when to is nil. A range with no to is returned as is.
func (e *Editor) Range(at, to location.Location) (location.Range, error) {
	if r, ok := at.(location.Range); ok && to == nil {
		return r.Clone(), nil
	}
	start, err := e.Start(at)
	if err != nil {
		return location.Range{}, err
	}
	if to == nil {
		to = at
	}
	end, err := e.End(to)
	if err != nil {
		return location.Range{}, err
	}
	return location.NewRange(start, end), nil
}

// Node returns the entry at the path at resolves to.
func (e *Editor) Node(at location.Location, edge Edge) (node.Entry, error) {
	p, err := e.Path(at, edge)
	if err != nil {
		return node.Entry{}, err
	}
	n, err := node.Get(e.root, p)
	if err != nil {
		return node.Entry{}, err
	}
	return node.Entry{Node: n, Path: p}, nil
}

// Parent returns the parent entry of the path at resolves to.
func (e *Editor) Parent(at location.Location, edge Edge) (node.Entry, error) {
	p, err := e.Path(at, edge)
	if err != nil {
		return node.Entry{}, err
	}
	if len(p) == 0 {
		return node.Entry{}, ErrRootLocation
	}
	return e.Node(p.Parent(), EdgeDefault)
}

// First returns the first leaf entry at or below at.
func (e *Editor) First(at location.Location) (node.Entry, error) {
	return e.Node(at, EdgeStart)
}

// Last returns the last leaf entry at or below at.
func (e *Editor) Last(at location.Location) (node.Entry, error) {
	return e.Node(at, EdgeEnd)
}

// Leaf returns the text leaf at the path at resolves to.
func (e *Editor) Leaf(at location.Location, edge Edge) (node.Entry, error) {
	p, err := e.Path(at, edge)
	if err != nil {
		return node.Entry{}, err
	}
	t, err := node.Leaf(e.root, p)
	if err != nil {
		return node.Entry{}, err
	}
	return node.Entry{Node: t, Path: p}, nil
}

// Levels returns the entries from the root down to the path at resolves
// to, keeping those accepted by Match. Unless Voids is set the walk stops
// at the first void element.
func (e *Editor) Levels(opts QueryOptions) ([]node.Entry, error) {
	at := e.at(opts.At)
	if at == nil {
		return nil, nil
	}
	p, err := e.Path(at, EdgeDefault)
	if err != nil {
		return nil, err
	}
	levels, err := node.Levels(e.root, p, false)
	if err != nil {
		return nil, err
	}
	out := make([]node.Entry, 0, len(levels))
	for _, entry := range levels {
		if opts.Match != nil && !opts.Match(entry.Node, entry.Path) {
			continue
		}
		out = append(out, entry)
		if !opts.Voids && e.IsVoid(entry.Node) {
			break
		}
	}
	if opts.Reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// Above returns the closest ancestor of at accepted by Match, or the
// furthest with ModeHighest. For ranges only ancestors of both ends
// qualify. Text nodes are never returned.
func (e *Editor) Above(opts QueryOptions) (node.Entry, bool, error) {
	at := e.at(opts.At)
	if at == nil {
		return node.Entry{}, false, nil
	}
	p, err := e.Path(at, EdgeDefault)
	if err != nil {
		return node.Entry{}, false, err
	}
	levels, err := e.Levels(QueryOptions{
		At:      p,
		Match:   opts.Match,
		Voids:   opts.Voids,
		Reverse: opts.Mode.or(ModeLowest) == ModeLowest,
	})
	if err != nil {
		return node.Entry{}, false, err
	}
	for _, entry := range levels {
		if node.IsText(entry.Node) {
			continue
		}
		if r, ok := at.(location.Range); ok {
			if entry.Path.IsAncestor(r.Anchor.Path) && entry.Path.IsAncestor(r.Focus.Path) {
				return entry, true, nil
			}
			continue
		}
		if !p.Equal(entry.Path) {
			return entry, true, nil
		}
	}
	return node.Entry{}, false, nil
}

// Void returns the void element above at, if any.
func (e *Editor) Void(opts QueryOptions) (node.Entry, bool, error) {
	opts.Match = e.isVoidMatch
	return e.Above(opts)
}

// IsStart reports whether p is the start of at.
func (e *Editor) IsStart(p location.Point, at location.Location) bool {
	if p.Offset != 0 {
		return false
	}
	start, err := e.Start(at)
	return err == nil && start.Equal(p)
}

// IsEnd reports whether p is the end of at.
func (e *Editor) IsEnd(p location.Point, at location.Location) bool {
	end, err := e.End(at)
	return err == nil && end.Equal(p)
}

// IsEdge reports whether p is the start or end of at.
func (e *Editor) IsEdge(p location.Point, at location.Location) bool {
	return e.IsStart(p, at) || e.IsEnd(p, at)
}

// IsEmpty reports whether el has no content: no children, or a single empty
// text when el is not void.
func (e *Editor) IsEmpty(el *node.Element) bool {
	switch len(el.Children) {
	case 0:
		return true
	case 1:
		t, ok := el.Children[0].(*node.Text)
		return ok && t.Text == "" && !e.isVoid(el)
	}
	return false
}

// HasBlocks reports whether every child of a is a block element.
func (e *Editor) HasBlocks(a node.Ancestor) bool {
	for _, c := range a.ChildNodes() {
		if !e.IsBlock(c) {
			return false
		}
	}
	return true
}

// HasInlines reports whether every child of a is text or inline.
func (e *Editor) HasInlines(a node.Ancestor) bool {
	for _, c := range a.ChildNodes() {
		if !node.IsText(c) && !e.IsInline(c) {
			return false
		}
	}
	return true
}

// HasTexts reports whether every child of a is text.
func (e *Editor) HasTexts(a node.Ancestor) bool {
	for _, c := range a.ChildNodes() {
		if !node.IsText(c) {
			return false
		}
	}
	return true
}

// HasPath reports whether p resolves in the document.
func (e *Editor) HasPath(p location.Path) bool {
	return node.Has(e.root, p)
}

// String returns the text covered by at. Void content is skipped unless
// voids is set.
func (e *Editor) String(at location.Location, voids bool) (string, error) {
	r, err := e.Range(at, nil)
	if err != nil {
		return "", err
	}
	start, end := r.Edges(false)
	entries, err := e.Nodes(NodesOptions{At: r, Match: isText, Voids: voids})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, entry := range entries {
		s := entry.Node.(*node.Text).Text
		if entry.Path.Equal(end.Path) {
			s = textutil.SliceTo(s, end.Offset)
		}
		if entry.Path.Equal(start.Path) {
			s = textutil.SliceFrom(s, start.Offset)
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// Fragment returns a copy of the content covered by at, or of the
// selection.
func (e *Editor) Fragment(at location.Location) ([]node.Node, error) {
	at = e.at(at)
	if at == nil {
		return nil, nil
	}
	r, err := e.Range(at, nil)
	if err != nil {
		return nil, err
	}
	return node.Fragment(e.root, r), nil
}

// StepOptions control After and Before.
type StepOptions struct {
	Distance int
	Unit     Unit
	Voids    bool
}

// After returns the point Distance units after at.
func (e *Editor) After(at location.Location, opts StepOptions) (location.Point, bool, error) {
	anchor, err := e.Point(at, EdgeEnd)
	if err != nil {
		return location.Point{}, false, err
	}
	focus, err := e.End(location.Path{})
	if err != nil {
		return location.Point{}, false, err
	}
	return e.step(location.NewRange(anchor, focus), opts, false)
}

// Before returns the point Distance units before at.
func (e *Editor) Before(at location.Location, opts StepOptions) (location.Point, bool, error) {
	anchor, err := e.Start(location.Path{})
	if err != nil {
		return location.Point{}, false, err
	}
	focus, err := e.Point(at, EdgeStart)
	if err != nil {
		return location.Point{}, false, err
	}
	return e.step(location.NewRange(anchor, focus), opts, true)
}

func (e *Editor) step(r location.Range, opts StepOptions, reverse bool) (location.Point, bool, error) {
	distance := opts.Distance
	if distance <= 0 {
		distance = 1
	}
	positions, err := e.Positions(PositionsOptions{At: r, Unit: opts.Unit, Reverse: reverse, Voids: opts.Voids})
	if err != nil {
		return location.Point{}, false, err
	}
	var (
		target location.Point
		found  bool
	)
	for d, p := range positions {
		if d > distance {
			break
		}
		if d != 0 {
			target, found = p, true
		}
	}
	return target, found, nil
}

// Next returns the first matching entry after at. When at is a path and
// Match is nil the next sibling is returned.
func (e *Editor) Next(opts QueryOptions) (node.Entry, bool, error) {
	return e.adjacent(opts, false)
}

// Previous returns the first matching entry before at. When at is a path
// and Match is nil the previous sibling is returned.
func (e *Editor) Previous(opts QueryOptions) (node.Entry, bool, error) {
	return e.adjacent(opts, true)
}

func (e *Editor) adjacent(opts QueryOptions, reverse bool) (node.Entry, bool, error) {
	at := e.at(opts.At)
	if at == nil {
		return node.Entry{}, false, nil
	}
	step := StepOptions{Voids: opts.Voids}
	var (
		from     location.Point
		found    bool
		boundary node.Entry
		err      error
	)
	if reverse {
		from, found, err = e.Before(at, step)
		if err == nil {
			boundary, err = e.First(location.Path{})
		}
	} else {
		from, found, err = e.After(at, step)
		if err == nil {
			boundary, err = e.Last(location.Path{})
		}
	}
	if err != nil || !found {
		return node.Entry{}, false, err
	}

	match := opts.Match
	if p, ok := at.(location.Path); ok {
		if len(p) == 0 {
			return node.Entry{}, false, ErrRootLocation
		}
		if match == nil {
			match = childOf(p.Parent())
		}
	}
	entries, err := e.Nodes(NodesOptions{
		At:      location.Span{From: from.Path, To: boundary.Path},
		Match:   match,
		Mode:    opts.Mode.or(ModeLowest),
		Voids:   opts.Voids,
		Reverse: reverse,
		limit:   1,
	})
	if err != nil || len(entries) == 0 {
		return node.Entry{}, false, err
	}
	return entries[0], true, nil
}

// UnhangRange moves the end of a range that ends at offset 0 of a block's
// first text back to the end of the previous non-empty text, so that the
// range no longer reaches into the following block.
func (e *Editor) UnhangRange(r location.Range, voids bool) (location.Range, error) {
	start, end := r.Edges(false)
	if start.Offset != 0 || end.Offset != 0 || r.IsCollapsed() || end.Path.HasPrevious() {
		return r, nil
	}

	var blockPath location.Path
	block, ok, err := e.Above(QueryOptions{At: end, Match: e.isBlockMatch, Voids: voids})
	if err != nil {
		return r, err
	}
	if ok {
		blockPath = block.Path
	}

	texts, err := e.Nodes(NodesOptions{
		At:      location.NewRange(start, end),
		Match:   isText,
		Reverse: true,
		Voids:   voids,
	})
	if err != nil {
		return r, err
	}
	for i, entry := range texts {
		if i == 0 {
			continue
		}
		t := entry.Node.(*node.Text)
		if t.Text != "" || entry.Path.IsBefore(blockPath) {
			end = location.NewPoint(entry.Path, textLen(t))
			break
		}
	}
	return location.NewRange(start, end), nil
}

func (e *Editor) selectionMarks() (node.Props, error) {
	sel := *e.selection
	anchor, focus := sel.Anchor, sel.Focus

	if sel.IsExpanded() {
		if sel.IsBackward() {
			anchor, focus = focus, anchor
		}
		if e.IsEnd(anchor, anchor.Path) {
			if after, ok, err := e.After(anchor, StepOptions{}); err == nil && ok {
				anchor = after
			}
		}
		texts, err := e.Nodes(NodesOptions{At: location.NewRange(anchor, focus), Match: isText, limit: 1})
		if err != nil {
			return nil, err
		}
		if len(texts) == 0 {
			return node.Props{}, nil
		}
		return node.Properties(texts[0].Node), nil
	}

	leaf, err := e.Leaf(anchor.Path, EdgeDefault)
	if err != nil {
		return nil, err
	}
	if anchor.Offset == 0 {
		prev, hasPrev, err := e.Previous(QueryOptions{At: anchor.Path, Match: isText})
		if err != nil {
			return nil, err
		}
		block, hasBlock, err := e.Above(QueryOptions{Match: e.isBlockMatch})
		if err != nil {
			return nil, err
		}
		if hasPrev && hasBlock && block.Path.IsAncestor(prev.Path) {
			leaf = prev
		}
	}
	return node.Properties(leaf.Node), nil
}
