package editor

import (
	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/operation"
)

// Select sets the selection to the range at resolves to.
func (e *Editor) Select(target location.Location) error {
	return e.guard("selection.select", func() error {
		r, err := e.Range(target, nil)
		if err != nil {
			return err
		}
		if e.selection != nil {
			return e.SetSelection(operation.SelectionProps{Anchor: &r.Anchor, Focus: &r.Focus})
		}
		return e.Apply(operation.SetSelection{NewProperties: operation.SelectionFromRange(&r)})
	})
}

// Deselect clears the selection.
func (e *Editor) Deselect() error {
	if e.selection == nil {
		return nil
	}
	return e.report(e.Apply(operation.SetSelection{
		Properties: operation.SelectionFromRange(e.selection),
	}), nil, "selection.deselect")
}

// SetSelection changes the selection ends given in props. It does nothing
// without a selection or when nothing changes.
func (e *Editor) SetSelection(props operation.SelectionProps) error {
	if e.selection == nil {
		return nil
	}
	var (
		old, next operation.SelectionProps
		changed   bool
	)
	if props.Anchor != nil && !props.Anchor.Equal(e.selection.Anchor) {
		a, n := e.selection.Anchor.Clone(), props.Anchor.Clone()
		old.Anchor, next.Anchor = &a, &n
		changed = true
	}
	if props.Focus != nil && !props.Focus.Equal(e.selection.Focus) {
		f, n := e.selection.Focus.Clone(), props.Focus.Clone()
		old.Focus, next.Focus = &f, &n
		changed = true
	}
	if !changed {
		return nil
	}
	return e.report(e.Apply(operation.SetSelection{Properties: &old, NewProperties: &next}), nil, "selection.set")
}

// SetPoint moves one end of the selection to p. EdgeStart and EdgeEnd pick
// the end by document order, EdgeBoth collapses the selection at p. The
// default is the focus.
func (e *Editor) SetPoint(p location.Point, edge Edge) error {
	if e.selection == nil {
		return nil
	}
	switch edge {
	case EdgeStart:
		edge = EdgeAnchor
		if e.selection.IsBackward() {
			edge = EdgeFocus
		}
	case EdgeEnd:
		edge = EdgeFocus
		if e.selection.IsBackward() {
			edge = EdgeAnchor
		}
	}
	switch edge {
	case EdgeAnchor:
		return e.SetSelection(operation.SelectionProps{Anchor: &p})
	case EdgeBoth:
		return e.SetSelection(operation.SelectionProps{Anchor: &p, Focus: &p})
	}
	return e.SetSelection(operation.SelectionProps{Focus: &p})
}

// Collapse collapses the selection onto one of its ends, the anchor by
// default.
func (e *Editor) Collapse(edge Edge) error {
	if e.selection == nil {
		return nil
	}
	sel := *e.selection
	switch edge {
	case EdgeFocus:
		return e.Select(sel.Focus)
	case EdgeStart:
		return e.Select(sel.Start())
	case EdgeEnd:
		return e.Select(sel.End())
	}
	return e.Select(sel.Anchor)
}

// MoveOptions control Move.
type MoveOptions struct {
	// Distance is the number of units, 1 by default.
	Distance int

	// Unit is UnitOffset by default.
	Unit Unit

	// Reverse moves backwards.
	Reverse bool

	// Edge moves only the anchor or focus. The default moves both; start
	// and end pick by document order.
	Edge Edge
}

// Move moves the selection ends by Distance units.
func (e *Editor) Move(opts MoveOptions) error {
	return e.guard("selection.move", func() error {
		if e.selection == nil {
			return nil
		}
		sel := *e.selection
		edge := opts.Edge
		switch edge {
		case EdgeStart:
			edge = EdgeAnchor
			if sel.IsBackward() {
				edge = EdgeFocus
			}
		case EdgeEnd:
			edge = EdgeFocus
			if sel.IsBackward() {
				edge = EdgeAnchor
			}
		}
		step := StepOptions{Distance: opts.Distance, Unit: opts.Unit.or(UnitOffset)}
		move := func(p location.Point) (*location.Point, error) {
			var (
				next  location.Point
				found bool
				err   error
			)
			if opts.Reverse {
				next, found, err = e.Before(p, step)
			} else {
				next, found, err = e.After(p, step)
			}
			if err != nil || !found {
				return nil, err
			}
			return &next, nil
		}

		var props operation.SelectionProps
		if edge != EdgeFocus {
			p, err := move(sel.Anchor)
			if err != nil {
				return err
			}
			props.Anchor = p
		}
		if edge != EdgeAnchor {
			p, err := move(sel.Focus)
			if err != nil {
				return err
			}
			props.Focus = p
		}
		return e.SetSelection(props)
	})
}
