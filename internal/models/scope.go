package models

import "sort"

// AccessScope is the set of institution ids an actor may act upon. It is
// computed once per request and never mutated afterwards; an empty scope
// means deny.
type AccessScope struct {
	ids map[int]struct{}
}

func NewAccessScope(ids []int) AccessScope {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return AccessScope{ids: set}
}

func NewAccessScopeFromSet(ids map[int]struct{}) AccessScope {
	set := make(map[int]struct{}, len(ids))
	for id := range ids {
		set[id] = struct{}{}
	}
	return AccessScope{ids: set}
}

func EmptyAccessScope() AccessScope {
	return AccessScope{ids: map[int]struct{}{}}
}

func (s AccessScope) Contains(id int) bool {
	_, ok := s.ids[id]
	return ok
}

func (s AccessScope) Len() int {
	return len(s.ids)
}

func (s AccessScope) IsEmpty() bool {
	return len(s.ids) == 0
}

// IDs returns the scope members in ascending order.
func (s AccessScope) IDs() []int {
	out := make([]int, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
