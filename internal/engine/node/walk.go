package node

import "github.com/dshills/treestorm/internal/engine/location"

// WalkOptions bounds and filters a depth-first walk.
type WalkOptions struct {
	// From is the path the walk starts descending towards. The root and
	// every ancestor of From are still visited first.
	From location.Path

	// To stops the walk once a path past it is reached.
	To location.Path

	// Reverse walks right to left.
	Reverse bool

	// Pass, when it returns true for an entry, prevents the walk from
	// descending into that entry's children.
	Pass func(Entry) bool
}

// Walk visits root and its descendants in document order, calling fn for
// each entry until fn returns false.
func Walk(root Node, opts WalkOptions, fn func(Entry) bool) {
	stack := []Node{root}
	p := location.Path{}
	ascended := false

	for {
		n := stack[len(stack)-1]

		if opts.To != nil {
			if opts.Reverse && p.IsBefore(opts.To) {
				return
			}
			if !opts.Reverse && p.IsAfter(opts.To) {
				return
			}
		}

		if !ascended {
			if !fn(Entry{Node: n, Path: p.Clone()}) {
				return
			}
		}

		kids := Children(n)
		if !ascended && len(kids) > 0 && (opts.Pass == nil || !opts.Pass(Entry{Node: n, Path: p.Clone()})) {
			next := 0
			if opts.Reverse {
				next = len(kids) - 1
			}
			if p.IsAncestor(opts.From) {
				next = min(max(opts.From[len(p)], 0), len(kids)-1)
			}
			p = p.Append(next)
			stack = append(stack, kids[next])
			continue
		}

		if len(p) == 0 {
			return
		}

		siblings := Children(stack[len(stack)-2])
		i := p.Last()
		if !opts.Reverse && i+1 < len(siblings) {
			p = p.Next()
			stack[len(stack)-1] = siblings[i+1]
			ascended = false
			continue
		}
		if opts.Reverse && i > 0 {
			p = p.Previous()
			stack[len(stack)-1] = siblings[i-1]
			ascended = false
			continue
		}

		p = p.Parent()
		stack = stack[:len(stack)-1]
		ascended = true
	}
}

// Nodes collects the entries visited by Walk.
func Nodes(root Node, opts WalkOptions) []Entry {
	var out []Entry
	Walk(root, opts, func(e Entry) bool {
		out = append(out, e)
		return true
	})
	return out
}

// Texts collects the text leaves visited by Walk.
func Texts(root Node, opts WalkOptions) []Entry {
	var out []Entry
	Walk(root, opts, func(e Entry) bool {
		if IsText(e.Node) {
			out = append(out, e)
		}
		return true
	})
	return out
}
