package operation

import (
	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/textutil"
)

// TransformPath returns where path ends up after op is applied. The second
// result is false when the node at path no longer exists. Affinity only
// matters for split_node, where it decides whether the split node's path
// follows the second half (forward), stays (backward) or is dropped (none).
func TransformPath(path location.Path, op Operation, affinity location.Affinity) (location.Path, bool) {
	if path == nil {
		return nil, false
	}
	p := path.Clone()
	if !CanTransformPath(op) || len(PathOf(op)) == 0 {
		return p, true
	}
	if mv, ok := op.(MoveNode); ok && len(mv.NewPath) == 0 {
		return p, true
	}

	switch o := op.(type) {
	case InsertNode:
		at := o.Path
		if at.Equal(p) || at.EndsBefore(p) || at.IsAncestor(p) {
			p[len(at)-1]++
		}

	case RemoveNode:
		at := o.Path
		if at.Equal(p) || at.IsAncestor(p) {
			return nil, false
		}
		if at.EndsBefore(p) {
			p[len(at)-1]--
		}

	case MergeNode:
		at := o.Path
		if at.Equal(p) || at.EndsBefore(p) {
			p[len(at)-1]--
		} else if at.IsAncestor(p) {
			p[len(at)-1]--
			p[len(at)] += o.Position
		}

	case SplitNode:
		at := o.Path
		switch {
		case at.Equal(p):
			switch affinity {
			case location.AffinityForward:
				p[len(p)-1]++
			case location.AffinityBackward:
			default:
				return nil, false
			}
		case at.EndsBefore(p):
			p[len(at)-1]++
		case at.IsAncestor(p) && path[len(at)] >= o.Position:
			p[len(at)-1]++
			p[len(at)] -= o.Position
		}

	case MoveNode:
		from, to := o.Path, o.NewPath
		if from.Equal(to) {
			return p, true
		}
		switch {
		case from.IsAncestor(p) || from.Equal(p):
			out := to.Clone()
			if from.EndsBefore(to) && len(from) < len(to) {
				out[len(from)-1]--
			}
			return append(out, p[len(from):]...), true
		case from.IsSibling(to) && (to.IsAncestor(p) || to.Equal(p)):
			if from.EndsBefore(p) {
				p[len(from)-1]--
			} else {
				p[len(from)-1]++
			}
		case to.EndsBefore(p) || to.Equal(p) || to.IsAncestor(p):
			if from.EndsBefore(p) {
				p[len(from)-1]--
			}
			p[len(to)-1]++
		case from.EndsBefore(p):
			if to.Equal(p) {
				p[len(to)-1]++
			}
			p[len(from)-1]--
		}
	}

	return p, true
}

// TransformPoint returns where point ends up after op is applied. The
// second result is false when the point's text node was removed, or when
// the point sits exactly on a split with AffinityNone.
func TransformPoint(point location.Point, op Operation, affinity location.Affinity) (location.Point, bool) {
	p := point.Clone()

	switch o := op.(type) {
	case InsertNode, MoveNode:
		path, ok := TransformPath(p.Path, op, affinity)
		if !ok {
			return location.Point{}, false
		}
		p.Path = path

	case InsertText:
		if o.Path.Equal(p.Path) && (o.Offset < p.Offset || (o.Offset == p.Offset && affinity == location.AffinityForward)) {
			p.Offset += textutil.Len(o.Text)
		}

	case RemoveText:
		if o.Path.Equal(p.Path) && o.Offset <= p.Offset {
			p.Offset -= min(p.Offset-o.Offset, textutil.Len(o.Text))
		}

	case MergeNode:
		if o.Path.Equal(p.Path) {
			p.Offset += o.Position
		}
		path, ok := TransformPath(p.Path, op, affinity)
		if !ok {
			return location.Point{}, false
		}
		p.Path = path

	case RemoveNode:
		if o.Path.Equal(p.Path) || o.Path.IsAncestor(p.Path) {
			return location.Point{}, false
		}
		path, _ := TransformPath(p.Path, op, affinity)
		p.Path = path

	case SplitNode:
		if o.Path.Equal(p.Path) {
			if o.Position == p.Offset && affinity == location.AffinityNone {
				return location.Point{}, false
			}
			if o.Position < p.Offset || (o.Position == p.Offset && affinity == location.AffinityForward) {
				p.Offset -= o.Position
				p.Path, _ = TransformPath(p.Path, op, location.AffinityForward)
			}
		} else {
			path, ok := TransformPath(p.Path, op, affinity)
			if !ok {
				return location.Point{}, false
			}
			p.Path = path
		}
	}

	return p, true
}

// TransformRange returns where r ends up after op is applied. Inward
// affinity keeps an expanded range from growing over content inserted at
// its edges; outward lets it grow. Forward, backward and none apply to both
// edges.
func TransformRange(r location.Range, op Operation, affinity location.Affinity) (location.Range, bool) {
	var anchorAff, focusAff location.Affinity
	switch affinity {
	case location.AffinityInward:
		if r.IsForward() {
			anchorAff = location.AffinityForward
			focusAff = location.AffinityBackward
		} else {
			anchorAff = location.AffinityBackward
			focusAff = location.AffinityForward
		}
		if r.IsCollapsed() {
			focusAff = anchorAff
		}
	case location.AffinityOutward:
		if r.IsForward() {
			anchorAff = location.AffinityBackward
			focusAff = location.AffinityForward
		} else {
			anchorAff = location.AffinityForward
			focusAff = location.AffinityBackward
		}
	default:
		anchorAff, focusAff = affinity, affinity
	}

	anchor, ok := TransformPoint(r.Anchor, op, anchorAff)
	if !ok {
		return location.Range{}, false
	}
	focus, ok := TransformPoint(r.Focus, op, focusAff)
	if !ok {
		return location.Range{}, false
	}
	return location.Range{Anchor: anchor, Focus: focus}, true
}
