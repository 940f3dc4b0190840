// Package location provides the addressing scheme of the document tree.
//
// A Path is the list of child indexes leading from the root to a node.
// A Point addresses an offset inside the text node at a path, and a Range
// is a pair of points (anchor and focus). Together they form the Location
// union accepted by every editing transform.
//
// All types in this package are immutable values. Functions that derive a
// new location always return a fresh slice and never alias their inputs.
//
// # Ordering
//
// Paths are totally ordered in document (depth-first, left-to-right)
// order, except that an ancestor compares equal to its descendants:
//
//	Path{0}.Compare(Path{0, 1})    //  0 (ancestor)
//	Path{0, 1}.Compare(Path{1})    // -1
//	Path{1, 0}.Compare(Path{0, 5}) //  1
//
// Points extend the ordering with their offset, and ranges expose their
// edges in document order regardless of direction.
package location
