package session

// DefaultHistoryLimit is the default number of undo entries kept.
const DefaultHistoryLimit = 1000

// history is a pair of snapshot stacks. Pushing a new edit discards the redo
// branch. A limit <= 0 keeps every entry.
type history struct {
	limit int
	undo  []Version
	redo  []Version
}

func (h *history) record(prev Version) {
	h.undo = h.pushBounded(h.undo, prev)
	h.redo = nil
}

func (h *history) pushBounded(stack []Version, v Version) []Version {
	stack = append(stack, v)
	if h.limit > 0 && len(stack) > h.limit {
		stack = append([]Version(nil), stack[len(stack)-h.limit:]...)
	}
	return stack
}

// undoTo pops the newest undo entry and parks cur on the redo stack.
func (h *history) undoTo(cur Version) (Version, bool) {
	if len(h.undo) == 0 {
		return Version{}, false
	}
	i := len(h.undo) - 1
	prev := h.undo[i]
	h.undo = h.undo[:i]
	h.redo = append(h.redo, cur)
	return prev, true
}

// redoTo pops the newest redo entry and pushes cur back on the undo stack.
func (h *history) redoTo(cur Version) (Version, bool) {
	if len(h.redo) == 0 {
		return Version{}, false
	}
	i := len(h.redo) - 1
	next := h.redo[i]
	h.redo = h.redo[:i]
	h.undo = h.pushBounded(h.undo, cur)
	return next, true
}

func (h *history) clear() {
	h.undo = nil
	h.redo = nil
}
