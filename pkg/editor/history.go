package editor

// maxHistory bounds the undo stack of every editor session. When full,
// the oldest record is evicted; those edits become permanent.
const maxHistory = 100

// record pairs the state snapshots on either side of one mutation.
type record[T any] struct {
	before T
	after  T
}

// history is a bounded undo/redo stack. The undo side is a fixed-size
// ring so eviction of the oldest record is O(1); the redo side is a
// plain stack, cleared whenever a new record is pushed.
type history[T any] struct {
	ring  []record[T]
	start int
	count int
	redo  []record[T]
}

func newHistory[T any]() *history[T] {
	return &history[T]{ring: make([]record[T], maxHistory)}
}

// push records a completed mutation and clears the redo stack.
func (h *history[T]) push(before, after T) {
	if h.count == len(h.ring) {
		h.start = (h.start + 1) % len(h.ring)
	} else {
		h.count++
	}
	h.ring[(h.start+h.count-1)%len(h.ring)] = record[T]{before: before, after: after}
	h.redo = h.redo[:0]
}

// undo pops the newest record, moves it to the redo stack, and returns
// the state to restore.
func (h *history[T]) undo() (T, bool) {
	var zero T
	if h.count == 0 {
		return zero, false
	}
	r := h.ring[(h.start+h.count-1)%len(h.ring)]
	h.count--
	h.redo = append(h.redo, r)
	return r.before, true
}

// redoPop pops the newest redo record, re-enters it on the undo side,
// and returns the state to restore.
func (h *history[T]) redoPop() (T, bool) {
	var zero T
	if len(h.redo) == 0 {
		return zero, false
	}
	r := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	if h.count == len(h.ring) {
		h.start = (h.start + 1) % len(h.ring)
	} else {
		h.count++
	}
	h.ring[(h.start+h.count-1)%len(h.ring)] = r
	return r.after, true
}

func (h *history[T]) canUndo() bool { return h.count > 0 }
func (h *history[T]) canRedo() bool { return len(h.redo) > 0 }
func (h *history[T]) undoDepth() int { return h.count }
