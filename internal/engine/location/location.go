package location

// Location is one of Path, Point or Range.
type Location interface {
	location()
}

// Span is a pair of paths used to iterate from one node to another without
// resolving either end to a text point.
type Span struct {
	From Path
	To   Path
}

func (Span) location() {}

// Affinity controls how a tracked location moves when an edit happens
// exactly at its boundary.
type Affinity uint8

// Affinity values. The zero value is AffinityForward.
const (
	AffinityForward Affinity = iota
	AffinityBackward
	AffinityInward
	AffinityOutward
	// AffinityNone makes a tracked location disappear when its boundary is split.
	AffinityNone
)

// String returns the wire name of the affinity.
func (a Affinity) String() string {
	switch a {
	case AffinityForward:
		return "forward"
	case AffinityBackward:
		return "backward"
	case AffinityInward:
		return "inward"
	case AffinityOutward:
		return "outward"
	default:
		return "none"
	}
}

// Clone returns a deep copy of any location.
func Clone(at Location) Location {
	switch t := at.(type) {
	case Path:
		return t.Clone()
	case Point:
		return t.Clone()
	case Range:
		return t.Clone()
	case Span:
		return Span{From: t.From.Clone(), To: t.To.Clone()}
	}
	return at
}
