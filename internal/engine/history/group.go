package history

// GroupScope groups every operation applied until End into one batch.
// Usage:
//
//	func wrapQuote(h *History, e *editor.Editor) error {
//	    defer h.GroupScope().End()
//	    // ... multiple transforms ...
//	}
type GroupScope struct {
	history *History
	merging *bool
	active  bool
}

// GroupScope starts a new batch and merges into it until End.
// Call End() or use with defer to properly close the group.
func (h *History) GroupScope() *GroupScope {
	g := &GroupScope{history: h, merging: h.merging, active: true}
	on := true
	h.merging = &on
	h.splittingOnce = true
	return g
}

// End ends the group scope.
// Safe to call multiple times; only the first call has effect.
func (g *GroupScope) End() {
	if g.active {
		g.history.merging = g.merging
		g.history.splittingOnce = false
		g.active = false
	}
}

// Transaction runs fn with every saved operation collected into a new
// batch of its own. Operations fn applies before failing stay recorded.
func (h *History) Transaction(fn func() error) error {
	g := h.GroupScope()
	defer g.End()
	return fn()
}

// WithoutSaving runs fn without recording its operations.
func (h *History) WithoutSaving(fn func() error) error {
	return h.override(&h.saving, false, fn)
}

// WithMerging runs fn with every operation merged into the previous batch.
func (h *History) WithMerging(fn func() error) error {
	return h.override(&h.merging, true, fn)
}

// WithoutMerging runs fn with every operation starting a new batch.
func (h *History) WithoutMerging(fn func() error) error {
	return h.override(&h.merging, false, fn)
}

// Saving reports the current saving override, nil when unset.
func (h *History) Saving() *bool { return h.saving }

// Merging reports the current merging override, nil when unset.
func (h *History) Merging() *bool { return h.merging }

func (h *History) override(field **bool, value bool, fn func() error) error {
	prev := *field
	*field = &value
	defer func() { *field = prev }()
	return fn()
}

// Checkpoint returns a marker for the current position in history.
// Use with UndoToCheckpoint to undo back to this point.
type Checkpoint struct {
	undoCount int
}

// Checkpoint creates a checkpoint at the current history position.
func (h *History) Checkpoint() Checkpoint {
	return Checkpoint{undoCount: len(h.undos)}
}

// UndoToCheckpoint undoes all batches back to the checkpoint.
// Returns the number of batches undone.
func (h *History) UndoToCheckpoint(cp Checkpoint) (int, error) {
	count := 0
	for len(h.undos) > cp.undoCount {
		if err := h.Undo(); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// RedoToCheckpoint redoes batches until reaching the checkpoint.
// Returns the number of batches redone.
func (h *History) RedoToCheckpoint(cp Checkpoint) (int, error) {
	count := 0
	for len(h.undos) < cp.undoCount && len(h.redos) > 0 {
		if err := h.Redo(); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
