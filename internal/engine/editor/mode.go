package editor

// Mode selects which matching nodes along a branch a query yields.
type Mode uint8

// Mode values. ModeDefault resolves to the default of each query or
// transform.
const (
	ModeDefault Mode = iota
	ModeAll
	ModeHighest
	ModeLowest
)

func (m Mode) or(def Mode) Mode {
	if m == ModeDefault {
		return def
	}
	return m
}

// Unit is the step size for positions, movement and deletion.
type Unit uint8

// Unit values.
const (
	UnitDefault Unit = iota
	UnitOffset
	UnitCharacter
	UnitWord
	UnitLine
	UnitBlock
)

func (u Unit) or(def Unit) Unit {
	if u == UnitDefault {
		return def
	}
	return u
}

// String returns the unit name.
func (u Unit) String() string {
	switch u {
	case UnitOffset:
		return "offset"
	case UnitCharacter:
		return "character"
	case UnitWord:
		return "word"
	case UnitLine:
		return "line"
	case UnitBlock:
		return "block"
	}
	return "default"
}

// ParseUnit parses a unit name. Unknown names yield UnitDefault.
func ParseUnit(s string) Unit {
	switch s {
	case "offset":
		return UnitOffset
	case "character":
		return UnitCharacter
	case "word":
		return UnitWord
	case "line":
		return UnitLine
	case "block":
		return UnitBlock
	}
	return UnitDefault
}

// Edge names one end of a location.
type Edge uint8

// Edge values. For selections EdgeAnchor and EdgeFocus name the ends by
// role, EdgeStart and EdgeEnd by document order.
const (
	EdgeDefault Edge = iota
	EdgeStart
	EdgeEnd
	EdgeAnchor
	EdgeFocus
	EdgeBoth
)

// Select controls whether InsertNodes moves the selection to the inserted
// content.
type Select uint8

// Select values. SelectDefault selects only when no location was given.
const (
	SelectDefault Select = iota
	SelectAlways
	SelectNever
)
