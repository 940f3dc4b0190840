package location

import "fmt"

// Range is a pair of points. The anchor is where a selection started and the
// focus is where it currently ends; the two may be in either order.
type Range struct {
	Anchor Point `json:"anchor"`
	Focus  Point `json:"focus"`
}

func (Range) location() {}

// NewRange creates a range from anchor to focus.
func NewRange(anchor, focus Point) Range {
	return Range{Anchor: anchor.Clone(), Focus: focus.Clone()}
}

// Collapsed creates a collapsed range at p.
func Collapsed(p Point) Range {
	return Range{Anchor: p.Clone(), Focus: p.Clone()}
}

// Clone returns a deep copy of the range.
func (r Range) Clone() Range {
	return Range{Anchor: r.Anchor.Clone(), Focus: r.Focus.Clone()}
}

// IsBackward reports whether the anchor is after the focus.
func (r Range) IsBackward() bool {
	return r.Anchor.IsAfter(r.Focus)
}

// IsForward reports whether the anchor is at or before the focus.
func (r Range) IsForward() bool {
	return !r.IsBackward()
}

// IsCollapsed reports whether anchor and focus are the same point.
func (r Range) IsCollapsed() bool {
	return r.Anchor.Equal(r.Focus)
}

// IsExpanded reports whether the range covers any content.
func (r Range) IsExpanded() bool {
	return !r.IsCollapsed()
}

// Edges returns the start and end points in document order.
// With reverse set the order is swapped.
func (r Range) Edges(reverse bool) (Point, Point) {
	start, end := r.Anchor, r.Focus
	if r.IsBackward() {
		start, end = end, start
	}
	if reverse {
		return end, start
	}
	return start, end
}

// Start returns the earlier of the two points.
func (r Range) Start() Point {
	s, _ := r.Edges(false)
	return s
}

// End returns the later of the two points.
func (r Range) End() Point {
	_, e := r.Edges(false)
	return e
}

// Equal reports whether both ranges have equal anchors and focuses.
func (r Range) Equal(o Range) bool {
	return r.Anchor.Equal(o.Anchor) && r.Focus.Equal(o.Focus)
}

// Includes reports whether the range contains the target location.
// A path is included when any part of it falls within the range edges.
func (r Range) Includes(target Location) bool {
	start, end := r.Edges(false)
	switch t := target.(type) {
	case Range:
		if r.Includes(t.Anchor) || r.Includes(t.Focus) {
			return true
		}
		ts, te := t.Edges(false)
		return start.IsBefore(ts) && end.IsAfter(te)
	case Point:
		return t.Compare(start) >= 0 && t.Compare(end) <= 0
	case Path:
		return t.Compare(start.Path) >= 0 && t.Compare(end.Path) <= 0
	}
	return false
}

// Surrounds reports whether the target range lies strictly inside r.
func (r Range) Surrounds(target Range) bool {
	start, end := r.Edges(false)
	ts, te := target.Edges(false)
	return start.IsBefore(ts) && end.IsAfter(te)
}

// Intersection returns the overlapping part of two ranges.
// The boolean is false when the ranges do not overlap.
func (r Range) Intersection(o Range) (Range, bool) {
	s1, e1 := r.Edges(false)
	s2, e2 := o.Edges(false)
	start := s1
	if s1.IsBefore(s2) {
		start = s2
	}
	end := e1
	if e2.IsBefore(e1) {
		end = e2
	}
	if end.IsBefore(start) {
		return Range{}, false
	}
	return Range{Anchor: start.Clone(), Focus: end.Clone()}, true
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("{%s -> %s}", r.Anchor, r.Focus)
}
