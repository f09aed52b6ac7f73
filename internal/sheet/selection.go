package sheet

import "sort"

// Selection is a set of tile indices.
type Selection struct {
	set map[int]struct{}
}

func NewSelection(idx ...int) *Selection {
	s := &Selection{set: make(map[int]struct{}, len(idx))}
	for _, i := range idx {
		s.set[i] = struct{}{}
	}
	return s
}

// Toggle flips membership of idx and reports whether it is now a member.
func (s *Selection) Toggle(idx int) bool {
	if _, ok := s.set[idx]; ok {
		delete(s.set, idx)
		return false
	}
	s.set[idx] = struct{}{}
	return true
}

// ToggleAll flips every index, so applying the same list twice is a no-op.
func (s *Selection) ToggleAll(idx []int) {
	for _, i := range idx {
		s.Toggle(i)
	}
}

func (s *Selection) Has(idx int) bool {
	_, ok := s.set[idx]
	return ok
}

func (s *Selection) Len() int {
	return len(s.set)
}

func (s *Selection) Clear() {
	s.set = make(map[int]struct{})
}

// Indices returns the members in ascending order.
func (s *Selection) Indices() []int {
	out := make([]int, 0, len(s.set))
	for i := range s.set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
