// Package node provides the document tree: Text leaves, Element containers
// and the Root that owns the top-level blocks.
//
// # Immutability
//
// Nodes are never modified after construction. Every update helper returns a
// new tree that shares all unchanged subtrees with the original, so holding a
// *Root is the same as holding a snapshot of the document.
//
// # Addressing
//
// Nodes are addressed by location.Path from a root. Lookups return ErrNotFound
// when the path does not resolve.
//
// # JSON
//
// Text nodes encode as {"text": "...", <marks>}; elements encode as
// {"type": "...", "children": [...], <props>}. Decoding uses gjson and
// distinguishes the variants by the presence of the "text" key.
package node
