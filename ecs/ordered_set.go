package ecs

// orderedSet is an insertion-ordered set backed by an arena of slots plus an
// index from value to slot. It backs every listener registry and the engine's
// entity list.
//
// Removal tombstones the slot in O(1). A walk visits the slots that existed
// when it started, skipping tombstones, so values removed mid-walk are not
// visited and values added mid-walk wait for the next walk. Tombstones are
// compacted away only while no walk is in progress.
type orderedSet[T comparable] struct {
	slots   []orderedSlot[T]
	index   map[T]int
	dead    int
	walking int
}

type orderedSlot[T comparable] struct {
	value T
	alive bool
}

// add appends v. Returns false if v is already present.
func (s *orderedSet[T]) add(v T) bool {
	if s.index == nil {
		s.index = make(map[T]int)
	}
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = len(s.slots)
	s.slots = append(s.slots, orderedSlot[T]{value: v, alive: true})
	return true
}

// remove drops v. Returns false if v was absent.
func (s *orderedSet[T]) remove(v T) bool {
	i, ok := s.index[v]
	if !ok {
		return false
	}
	delete(s.index, v)
	s.slots[i] = orderedSlot[T]{}
	s.dead++
	s.compact()
	return true
}

func (s *orderedSet[T]) has(v T) bool {
	_, ok := s.index[v]
	return ok
}

func (s *orderedSet[T]) len() int {
	return len(s.index)
}

// each calls fn for every live value in insertion order.
func (s *orderedSet[T]) each(fn func(T)) {
	s.walking++
	defer func() {
		s.walking--
		s.compact()
	}()

	n := len(s.slots)
	for i := 0; i < n; i++ {
		if sl := s.slots[i]; sl.alive {
			fn(sl.value)
		}
	}
}

// values returns a snapshot of the live values in insertion order.
func (s *orderedSet[T]) values() []T {
	out := make([]T, 0, len(s.index))
	for _, sl := range s.slots {
		if sl.alive {
			out = append(out, sl.value)
		}
	}
	return out
}

func (s *orderedSet[T]) clear() {
	if s.walking > 0 {
		for v, i := range s.index {
			s.slots[i] = orderedSlot[T]{}
			delete(s.index, v)
			s.dead++
		}
		return
	}
	s.slots = s.slots[:0]
	clear(s.index)
	s.dead = 0
}

func (s *orderedSet[T]) compact() {
	if s.walking > 0 || s.dead == 0 || s.dead*2 < len(s.slots) {
		return
	}

	live := s.slots[:0]
	for _, sl := range s.slots {
		if sl.alive {
			s.index[sl.value] = len(live)
			live = append(live, sl)
		}
	}
	clear(s.slots[len(live):])
	s.slots = live
	s.dead = 0
}
