// Package operation defines the atomic edits that are the only way a
// document tree or its selection may change.
//
// Every operation is exactly invertible given the tree it was produced
// against, and every operation knows how it moves paths, points and ranges
// that were taken before it was applied (TransformPath, TransformPoint,
// TransformRange). Apply is a pure function: it returns a new tree and
// selection, or an *ApplyError and the inputs untouched.
//
// # Wire format
//
// Operations encode as JSON objects whose "type" field selects the variant:
//
//	{"type":"insert_text","path":[0,0],"offset":5,"text":" there"}
//	{"type":"move_node","path":[1],"newPath":[0,2]}
//	{"type":"set_selection","properties":null,"newProperties":{"anchor":...,"focus":...}}
//
// A log is one encoded operation per line, stamped with "rev" and "batch".
package operation
