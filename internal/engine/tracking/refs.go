package tracking

import (
	"errors"
	"maps"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/operation"
)

// ErrRefReleased is returned when changing a ref after Unref.
var ErrRefReleased = errors.New("ref has been released")

// RefID identifies a ref within its registry.
type RefID uint64

// Registry owns the live refs of one editor.
type Registry struct {
	next   RefID
	paths  map[RefID]*PathRef
	points map[RefID]*PointRef
	ranges map[RefID]*RangeRef
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		paths:  make(map[RefID]*PathRef),
		points: make(map[RefID]*PointRef),
		ranges: make(map[RefID]*RangeRef),
	}
}

func (r *Registry) id() RefID {
	r.next++
	return r.next
}

// Len returns the number of live refs.
func (r *Registry) Len() int {
	return len(r.paths) + len(r.points) + len(r.ranges)
}

// Transform moves every live ref across op. Refs whose location is deleted
// become empty and are released.
func (r *Registry) Transform(op operation.Operation) {
	for _, ref := range r.paths {
		ref.transform(op)
	}
	for _, ref := range r.points {
		ref.transform(op)
	}
	for _, ref := range r.ranges {
		ref.transform(op)
	}
}

// Checkpoint records every live ref and its value. The returned function
// puts the registry back: refs created since are released, refs released
// since are live again, and every ref regains its recorded value.
func (r *Registry) Checkpoint() func() {
	paths := make(map[RefID]location.Path, len(r.paths))
	for id, ref := range r.paths {
		paths[id] = clonePath(ref.current)
	}
	points := make(map[RefID]*location.Point, len(r.points))
	for id, ref := range r.points {
		points[id] = clonePoint(ref.current)
	}
	ranges := make(map[RefID]*location.Range, len(r.ranges))
	for id, ref := range r.ranges {
		ranges[id] = cloneRange(ref.current)
	}
	live := struct {
		paths  map[RefID]*PathRef
		points map[RefID]*PointRef
		ranges map[RefID]*RangeRef
	}{maps.Clone(r.paths), maps.Clone(r.points), maps.Clone(r.ranges)}

	return func() {
		for id, ref := range r.paths {
			if _, ok := live.paths[id]; !ok {
				ref.released = true
			}
		}
		for id, ref := range r.points {
			if _, ok := live.points[id]; !ok {
				ref.released = true
			}
		}
		for id, ref := range r.ranges {
			if _, ok := live.ranges[id]; !ok {
				ref.released = true
			}
		}
		for id, ref := range live.paths {
			ref.current, ref.released = paths[id], false
		}
		for id, ref := range live.points {
			ref.current, ref.released = points[id], false
		}
		for id, ref := range live.ranges {
			ref.current, ref.released = ranges[id], false
		}
		r.paths, r.points, r.ranges = live.paths, live.points, live.ranges
	}
}

func clonePath(p location.Path) location.Path {
	if p == nil {
		return nil
	}
	return p.Clone()
}

func clonePoint(p *location.Point) *location.Point {
	if p == nil {
		return nil
	}
	c := p.Clone()
	return &c
}

func cloneRange(rg *location.Range) *location.Range {
	if rg == nil {
		return nil
	}
	c := rg.Clone()
	return &c
}

// PathRef tracks a path across edits.
type PathRef struct {
	id       RefID
	reg      *Registry
	current  location.Path
	affinity location.Affinity
	released bool
}

// PathRef creates a live ref tracking p.
func (r *Registry) PathRef(p location.Path, affinity location.Affinity) *PathRef {
	ref := &PathRef{id: r.id(), reg: r, current: p.Clone(), affinity: affinity}
	r.paths[ref.id] = ref
	return ref
}

// ID returns the ref's handle.
func (ref *PathRef) ID() RefID { return ref.id }

// Affinity returns the ref's affinity.
func (ref *PathRef) Affinity() location.Affinity { return ref.affinity }

// Current returns the tracked path. The second result is false once the
// node was deleted.
func (ref *PathRef) Current() (location.Path, bool) {
	if ref.current == nil {
		return nil, false
	}
	return ref.current.Clone(), true
}

// Released reports whether the ref no longer follows edits.
func (ref *PathRef) Released() bool { return ref.released }

// Set replaces the tracked path.
func (ref *PathRef) Set(p location.Path) error {
	if ref.released {
		return ErrRefReleased
	}
	ref.current = p.Clone()
	return nil
}

// Unref stops tracking and returns the final value.
func (ref *PathRef) Unref() (location.Path, bool) {
	if !ref.released {
		ref.released = true
		delete(ref.reg.paths, ref.id)
	}
	return ref.Current()
}

func (ref *PathRef) transform(op operation.Operation) {
	if ref.current == nil {
		return
	}
	p, ok := operation.TransformPath(ref.current, op, ref.affinity)
	if !ok {
		ref.current = nil
		ref.Unref()
		return
	}
	ref.current = p
}

// PointRef tracks a point across edits.
type PointRef struct {
	id       RefID
	reg      *Registry
	current  *location.Point
	affinity location.Affinity
	released bool
}

// PointRef creates a live ref tracking p.
func (r *Registry) PointRef(p location.Point, affinity location.Affinity) *PointRef {
	pt := p.Clone()
	ref := &PointRef{id: r.id(), reg: r, current: &pt, affinity: affinity}
	r.points[ref.id] = ref
	return ref
}

// ID returns the ref's handle.
func (ref *PointRef) ID() RefID { return ref.id }

// Current returns the tracked point. The second result is false once the
// point's text was deleted.
func (ref *PointRef) Current() (location.Point, bool) {
	if ref.current == nil {
		return location.Point{}, false
	}
	return ref.current.Clone(), true
}

// Released reports whether the ref no longer follows edits.
func (ref *PointRef) Released() bool { return ref.released }

// Set replaces the tracked point.
func (ref *PointRef) Set(p location.Point) error {
	if ref.released {
		return ErrRefReleased
	}
	pt := p.Clone()
	ref.current = &pt
	return nil
}

// Unref stops tracking and returns the final value.
func (ref *PointRef) Unref() (location.Point, bool) {
	if !ref.released {
		ref.released = true
		delete(ref.reg.points, ref.id)
	}
	return ref.Current()
}

func (ref *PointRef) transform(op operation.Operation) {
	if ref.current == nil {
		return
	}
	p, ok := operation.TransformPoint(*ref.current, op, ref.affinity)
	if !ok {
		ref.current = nil
		ref.Unref()
		return
	}
	ref.current = &p
}

// RangeRef tracks a range across edits.
type RangeRef struct {
	id       RefID
	reg      *Registry
	current  *location.Range
	affinity location.Affinity
	released bool
}

// RangeRef creates a live ref tracking rg.
func (r *Registry) RangeRef(rg location.Range, affinity location.Affinity) *RangeRef {
	c := rg.Clone()
	ref := &RangeRef{id: r.id(), reg: r, current: &c, affinity: affinity}
	r.ranges[ref.id] = ref
	return ref
}

// ID returns the ref's handle.
func (ref *RangeRef) ID() RefID { return ref.id }

// Current returns the tracked range. The second result is false once
// either end was deleted.
func (ref *RangeRef) Current() (location.Range, bool) {
	if ref.current == nil {
		return location.Range{}, false
	}
	return ref.current.Clone(), true
}

// Released reports whether the ref no longer follows edits.
func (ref *RangeRef) Released() bool { return ref.released }

// Set replaces the tracked range.
func (ref *RangeRef) Set(rg location.Range) error {
	if ref.released {
		return ErrRefReleased
	}
	c := rg.Clone()
	ref.current = &c
	return nil
}

// Unref stops tracking and returns the final value.
func (ref *RangeRef) Unref() (location.Range, bool) {
	if !ref.released {
		ref.released = true
		delete(ref.reg.ranges, ref.id)
	}
	return ref.Current()
}

func (ref *RangeRef) transform(op operation.Operation) {
	if ref.current == nil {
		return
	}
	rg, ok := operation.TransformRange(*ref.current, op, ref.affinity)
	if !ok {
		ref.current = nil
		ref.Unref()
		return
	}
	ref.current = &rg
}
