package location

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Errors returned by path helpers.
var (
	// ErrRootPath indicates an operation that has no meaning for the root path.
	ErrRootPath = errors.New("path is the root path")

	// ErrNoPrevious indicates a path has no previous sibling.
	ErrNoPrevious = errors.New("path has no previous sibling")

	// ErrNotAncestor indicates a relative path was requested from a non-ancestor.
	ErrNotAncestor = errors.New("path is not an ancestor")
)

// Path is an ordered list of child indexes from the root to a node.
// The empty path addresses the root itself.
type Path []int

func (Path) location() {}

// Clone returns a copy of the path that shares no storage with p.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Append returns a new path with the given indexes appended.
func (p Path) Append(idx ...int) Path {
	out := make(Path, len(p), len(p)+len(idx))
	copy(out, p)
	return append(out, idx...)
}

// Last returns the final index of the path.
// It returns -1 for the root path.
func (p Path) Last() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

// Equal reports whether p and q address the same node.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Compare returns -1 if p is before q, 1 if p is after q and 0 if the
// paths are equal or one is an ancestor of the other.
func (p Path) Compare(q Path) int {
	n := min(len(p), len(q))
	for i := 0; i < n; i++ {
		if p[i] < q[i] {
			return -1
		}
		if p[i] > q[i] {
			return 1
		}
	}
	return 0
}

// IsBefore reports whether p is before q in document order.
func (p Path) IsBefore(q Path) bool {
	return p.Compare(q) == -1
}

// IsAfter reports whether p is after q in document order.
func (p Path) IsAfter(q Path) bool {
	return p.Compare(q) == 1
}

// IsAncestor reports whether p is an ancestor of q.
func (p Path) IsAncestor(q Path) bool {
	return len(p) < len(q) && p.Compare(q) == 0
}

// IsDescendant reports whether p is a descendant of q.
func (p Path) IsDescendant(q Path) bool {
	return len(p) > len(q) && p.Compare(q) == 0
}

// IsChild reports whether p is a direct child of q.
func (p Path) IsChild(q Path) bool {
	return len(p) == len(q)+1 && p.Compare(q) == 0
}

// IsParent reports whether p is the direct parent of q.
func (p Path) IsParent(q Path) bool {
	return len(p)+1 == len(q) && p.Compare(q) == 0
}

// IsCommon reports whether p is equal to or an ancestor of q.
func (p Path) IsCommon(q Path) bool {
	return len(p) <= len(q) && p.Compare(q) == 0
}

// IsSibling reports whether p and q share a parent but are different nodes.
func (p Path) IsSibling(q Path) bool {
	if len(p) == 0 || len(p) != len(q) {
		return false
	}
	n := len(p) - 1
	return Path(p[:n]).Equal(q[:n]) && p[n] != q[n]
}

// EndsBefore reports whether p ends before the index of q at the same level.
func (p Path) EndsBefore(q Path) bool {
	i := len(p) - 1
	if i < 0 || i >= len(q) {
		return false
	}
	return Path(p[:i]).Equal(q[:i]) && p[i] < q[i]
}

// EndsAfter reports whether p ends after the index of q at the same level.
func (p Path) EndsAfter(q Path) bool {
	i := len(p) - 1
	if i < 0 || i >= len(q) {
		return false
	}
	return Path(p[:i]).Equal(q[:i]) && p[i] > q[i]
}

// EndsAt reports whether p ends at the index of q at the same level.
func (p Path) EndsAt(q Path) bool {
	i := len(p) - 1
	if i < 0 || i >= len(q) {
		return false
	}
	return Path(p[:i]).Equal(q[:i]) && p[i] == q[i]
}

// HasPrevious reports whether the node at p has a previous sibling.
func (p Path) HasPrevious() bool {
	return len(p) > 0 && p[len(p)-1] > 0
}

// Parent returns the path of p's parent.
// It panics when called on the root path; callers check len(p) first.
func (p Path) Parent() Path {
	if len(p) == 0 {
		panic(ErrRootPath)
	}
	return p[:len(p)-1].Clone()
}

// Next returns the path of p's next sibling.
// It panics when called on the root path.
func (p Path) Next() Path {
	if len(p) == 0 {
		panic(ErrRootPath)
	}
	out := p.Clone()
	out[len(out)-1]++
	return out
}

// Previous returns the path of p's previous sibling.
// It panics when p has no previous sibling.
func (p Path) Previous() Path {
	if !p.HasPrevious() {
		panic(ErrNoPrevious)
	}
	out := p.Clone()
	out[len(out)-1]--
	return out
}

// Ancestors returns every ancestor of p from the root down, excluding p.
func (p Path) Ancestors() []Path {
	out := make([]Path, 0, len(p))
	for i := 0; i < len(p); i++ {
		out = append(out, p[:i].Clone())
	}
	return out
}

// Levels returns every ancestor of p from the root down, including p.
func (p Path) Levels() []Path {
	out := make([]Path, 0, len(p)+1)
	for i := 0; i <= len(p); i++ {
		out = append(out, p[:i].Clone())
	}
	return out
}

// Common returns the longest shared prefix of p and q.
func (p Path) Common(q Path) Path {
	var out Path
	for i := 0; i < len(p) && i < len(q); i++ {
		if p[i] != q[i] {
			break
		}
		out = append(out, p[i])
	}
	if out == nil {
		return Path{}
	}
	return out
}

// Relative returns the part of p below ancestor.
func (p Path) Relative(ancestor Path) (Path, error) {
	if !ancestor.IsAncestor(p) && !ancestor.Equal(p) {
		return nil, ErrNotAncestor
	}
	return p[len(ancestor):].Clone(), nil
}

// Key returns a compact string form of the path usable as a map key.
func (p Path) Key() string {
	var b strings.Builder
	for i, idx := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	return b.String()
}

// String returns a human-readable representation such as "[0,1]".
func (p Path) String() string {
	return "[" + p.Key() + "]"
}

// MarshalJSON encodes the path as an integer array; the root path is [].
func (p Path) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(p))
}

// Valid reports whether every index of p is non-negative.
func (p Path) Valid() bool {
	for _, idx := range p {
		if idx < 0 {
			return false
		}
	}
	return true
}
