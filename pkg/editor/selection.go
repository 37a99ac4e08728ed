package editor

import (
	"fmt"
	"sort"
)

// SelectionMode controls how a Select call combines with the current
// selection.
type SelectionMode int

const (
	// SelectionReplace discards the current selection first.
	SelectionReplace SelectionMode = iota
	// SelectionAdd adds to the current selection.
	SelectionAdd
	// SelectionSubtract removes from the current selection.
	SelectionSubtract
	// SelectionToggle inverts membership of the given element.
	SelectionToggle
)

func (m SelectionMode) String() string {
	switch m {
	case SelectionReplace:
		return "replace"
	case SelectionAdd:
		return "add"
	case SelectionSubtract:
		return "subtract"
	case SelectionToggle:
		return "toggle"
	default:
		return fmt.Sprintf("SelectionMode(%d)", int(m))
	}
}

// selection is an unordered set of element indices shared by the vertex
// and index editors.
type selection struct {
	members map[int]struct{}
}

func newSelection() selection {
	return selection{members: make(map[int]struct{})}
}

func (s *selection) apply(i int, mode SelectionMode) {
	switch mode {
	case SelectionReplace:
		s.clear()
		s.members[i] = struct{}{}
	case SelectionAdd:
		s.members[i] = struct{}{}
	case SelectionSubtract:
		delete(s.members, i)
	case SelectionToggle:
		if _, ok := s.members[i]; ok {
			delete(s.members, i)
		} else {
			s.members[i] = struct{}{}
		}
	}
}

func (s *selection) add(i int)    { s.members[i] = struct{}{} }
func (s *selection) remove(i int) { delete(s.members, i) }

func (s *selection) clear() {
	for i := range s.members {
		delete(s.members, i)
	}
}

func (s *selection) has(i int) bool {
	_, ok := s.members[i]
	return ok
}

func (s *selection) size() int { return len(s.members) }

// indices returns the selected indices in ascending order.
func (s *selection) indices() []int {
	out := make([]int, 0, len(s.members))
	for i := range s.members {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// dropAtOrAbove removes members >= limit, used after an undo shrinks
// the underlying array.
func (s *selection) dropAtOrAbove(limit int) {
	for i := range s.members {
		if i >= limit {
			delete(s.members, i)
		}
	}
}
