package location

import "fmt"

// Point addresses an offset, in UTF-16 code units, inside the text node at Path.
type Point struct {
	Path   Path `json:"path"`
	Offset int  `json:"offset"`
}

func (Point) location() {}

// NewPoint creates a point. The path is copied.
func NewPoint(path Path, offset int) Point {
	return Point{Path: path.Clone(), Offset: offset}
}

// Clone returns a deep copy of the point.
func (p Point) Clone() Point {
	return Point{Path: p.Path.Clone(), Offset: p.Offset}
}

// Compare returns -1, 0 or 1 comparing p to q in document order.
func (p Point) Compare(q Point) int {
	if c := p.Path.Compare(q.Path); c != 0 {
		return c
	}
	switch {
	case p.Offset < q.Offset:
		return -1
	case p.Offset > q.Offset:
		return 1
	}
	return 0
}

// IsBefore reports whether p is before q.
func (p Point) IsBefore(q Point) bool {
	return p.Compare(q) == -1
}

// IsAfter reports whether p is after q.
func (p Point) IsAfter(q Point) bool {
	return p.Compare(q) == 1
}

// Equal reports whether p and q address the same position.
func (p Point) Equal(q Point) bool {
	return p.Offset == q.Offset && p.Path.Equal(q.Path)
}

// String returns a human-readable representation such as "[0,1]:5".
func (p Point) String() string {
	return fmt.Sprintf("%s:%d", p.Path, p.Offset)
}
