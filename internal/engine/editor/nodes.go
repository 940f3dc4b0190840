package editor

import (
	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/textutil"
)

// NodesOptions control Nodes.
type NodesOptions struct {
	// At bounds the walk. A location.Span walks between two paths without
	// resolving them to leaves. Nil means the selection.
	At location.Location

	// Match filters entries. Nil matches everything, including the root.
	Match MatchFunc

	// Mode is ModeAll by default. ModeHighest skips matches nested in an
	// earlier match, ModeLowest keeps only the deepest match of a branch.
	Mode Mode

	// Universal yields nothing unless every text branch in range has a
	// match.
	Universal bool

	// Reverse walks right to left.
	Reverse bool

	// Voids descends into void elements.
	Voids bool

	limit int
}

// Nodes returns the entries in range of At, in document order (or reverse
// order), filtered by Match and Mode. Ancestors of the range start are
// included.
func (e *Editor) Nodes(opts NodesOptions) ([]node.Entry, error) {
	at := e.at(opts.At)
	if at == nil {
		return nil, nil
	}

	var from, to location.Path
	if s, ok := at.(location.Span); ok {
		from, to = s.From, s.To
	} else {
		first, err := e.Path(at, EdgeStart)
		if err != nil {
			return nil, err
		}
		last, err := e.Path(at, EdgeEnd)
		if err != nil {
			return nil, err
		}
		from, to = first, last
		if opts.Reverse {
			from, to = last, first
		}
	}

	mode := opts.Mode.or(ModeAll)
	match := opts.Match
	if match == nil {
		match = func(node.Node, location.Path) bool { return true }
	}

	var (
		out     []node.Entry
		hit     *node.Entry
		stopped bool
		failed  bool
	)
	emit := func(entry node.Entry) bool {
		out = append(out, entry)
		return opts.Universal || opts.limit == 0 || len(out) < opts.limit
	}

	walk := node.WalkOptions{
		From:    from,
		To:      to,
		Reverse: opts.Reverse,
		Pass: func(entry node.Entry) bool {
			return !opts.Voids && e.IsVoid(entry.Node)
		},
	}
	node.Walk(e.root, walk, func(entry node.Entry) bool {
		isLower := hit != nil && entry.Path.Compare(hit.Path) == 0
		if mode == ModeHighest && isLower {
			return true
		}
		if !match(entry.Node, entry.Path) {
			if opts.Universal && !isLower && node.IsText(entry.Node) {
				failed = true
				return false
			}
			return true
		}
		if mode == ModeLowest && isLower {
			hit = &entry
			return true
		}
		next := &entry
		if mode == ModeLowest {
			next = hit
		}
		if next != nil && !emit(*next) {
			stopped = true
			return false
		}
		hit = &entry
		return true
	})

	if failed {
		return nil, nil
	}
	if mode == ModeLowest && hit != nil && !stopped {
		emit(*hit)
	}
	if opts.limit > 0 && len(out) > opts.limit {
		out = out[:opts.limit]
	}
	return out, nil
}

// PositionsOptions control Positions.
type PositionsOptions struct {
	// At bounds the positions. Nil means the selection.
	At location.Location

	// Unit is UnitOffset by default.
	Unit Unit

	// Reverse yields positions from the end.
	Reverse bool

	// Voids yields positions inside void elements instead of only their
	// start.
	Voids bool
}

// Positions returns every point in range of At that is one Unit apart,
// starting at the range edge. Block starts are always included.
func (e *Editor) Positions(opts PositionsOptions) ([]location.Point, error) {
	at := e.at(opts.At)
	if at == nil {
		return nil, nil
	}
	unit := opts.Unit.or(UnitOffset)
	r, err := e.Range(at, nil)
	if err != nil {
		return nil, err
	}
	start, end := r.Edges(false)
	first := start
	if opts.Reverse {
		first = end
	}

	entries, err := e.Nodes(NodesOptions{At: at, Reverse: opts.Reverse, Voids: opts.Voids})
	if err != nil {
		return nil, err
	}

	var (
		out           []location.Point
		isNewBlock    bool
		blockText     string
		distance      int
		leafRemaining int
		leafOffset    int
	)
	for _, entry := range entries {
		if el, ok := entry.Node.(*node.Element); ok {
			if !opts.Voids && e.isVoid(el) {
				p, err := e.Start(entry.Path)
				if err != nil {
					return nil, err
				}
				out = append(out, p)
				continue
			}
			if e.isInline(el) {
				continue
			}
			if e.HasInlines(el) {
				s, en := start, end
				if !entry.Path.IsAncestor(end.Path) {
					if en, err = e.End(entry.Path); err != nil {
						return nil, err
					}
				}
				if !entry.Path.IsAncestor(start.Path) {
					if s, err = e.Start(entry.Path); err != nil {
						return nil, err
					}
				}
				if blockText, err = e.String(location.NewRange(s, en), opts.Voids); err != nil {
					return nil, err
				}
				isNewBlock = true
			}
		}

		t, ok := entry.Node.(*node.Text)
		if !ok {
			continue
		}
		if entry.Path.Equal(first.Path) {
			leafRemaining = textLen(t) - first.Offset
			if opts.Reverse {
				leafRemaining = first.Offset
			}
			leafOffset = first.Offset
		} else {
			leafRemaining = textLen(t)
			leafOffset = 0
			if opts.Reverse {
				leafOffset = leafRemaining
			}
		}

		if entry.Path.Equal(first.Path) || isNewBlock || unit == UnitOffset {
			out = append(out, location.NewPoint(entry.Path, leafOffset))
			isNewBlock = false
		}

		for {
			if distance == 0 {
				if blockText == "" {
					break
				}
				distance = unitDistance(blockText, unit, opts.Reverse)
				_, blockText = textutil.Split(blockText, distance, opts.Reverse)
			}
			if opts.Reverse {
				leafOffset -= distance
			} else {
				leafOffset += distance
			}
			leafRemaining -= distance
			if leafRemaining < 0 {
				distance = -leafRemaining
				break
			}
			distance = 0
			out = append(out, location.NewPoint(entry.Path, leafOffset))
		}
	}
	return out, nil
}

func unitDistance(s string, unit Unit, reverse bool) int {
	d := 1
	switch unit {
	case UnitCharacter:
		d = textutil.CharacterDistance(s, reverse)
	case UnitWord:
		d = textutil.WordDistance(s, reverse)
	case UnitLine, UnitBlock:
		d = textutil.Len(s)
	}
	if d <= 0 {
		d = textutil.Len(s)
	}
	return d
}
