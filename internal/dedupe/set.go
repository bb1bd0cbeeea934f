package dedupe

import "sort"

// Set keeps unique strings in first-seen order. The zero value is not
// usable; call NewSet.
type Set struct {
	items map[string]int
	order []string
}

// NewSet creates a set seeded with values.
func NewSet(values ...string) *Set {
	s := &Set{items: make(map[string]int, len(values))}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add records key and reports whether it was new.
func (s *Set) Add(key string) bool {
	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = len(s.order)
	s.order = append(s.order, key)
	return true
}

// Has reports whether key has been added.
func (s *Set) Has(key string) bool {
	_, ok := s.items[key]
	return ok
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *Set) Remove(key string) {
	idx, ok := s.items[key]
	if !ok {
		return
	}
	delete(s.items, key)
	s.order = append(s.order[:idx], s.order[idx+1:]...)
	for i := idx; i < len(s.order); i++ {
		s.items[s.order[i]] = i
	}
}

// Len returns the number of keys.
func (s *Set) Len() int {
	return len(s.order)
}

// Values returns the keys in insertion order.
func (s *Set) Values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Sorted returns the keys in lexical order.
func (s *Set) Sorted() []string {
	out := s.Values()
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold the same keys regardless of order.
func (s *Set) Equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for _, k := range s.order {
		if !o.Has(k) {
			return false
		}
	}
	return true
}
