// Package set provides a small generic set with sorted snapshots.
package set

import (
	"cmp"
	"slices"
)

// Set is an unordered collection of unique values. The zero value is not
// usable; construct with New or Of.
type Set[T cmp.Ordered] struct {
	m map[T]struct{}
}

// New returns an empty Set with capacity for n values.
func New[T cmp.Ordered](n int) Set[T] {
	return Set[T]{m: make(map[T]struct{}, n)}
}

// Of returns a Set containing the given values.
func Of[T cmp.Ordered](values ...T) Set[T] {
	s := New[T](len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts v into the set.
func (s Set[T]) Add(v T) {
	s.m[v] = struct{}{}
}

// Contains reports whether v is a member of the set.
func (s Set[T]) Contains(v T) bool {
	_, ok := s.m[v]
	return ok
}

// Len returns the number of members.
func (s Set[T]) Len() int {
	return len(s.m)
}

// Intersect returns a new Set containing the values present in both s and other.
func (s Set[T]) Intersect(other Set[T]) Set[T] {
	small, large := s, other
	if large.Len() < small.Len() {
		small, large = large, small
	}
	out := New[T](small.Len())
	for v := range small.m {
		if large.Contains(v) {
			out.Add(v)
		}
	}
	return out
}

// Sorted returns the members in ascending order.
func (s Set[T]) Sorted() []T {
	out := make([]T, 0, len(s.m))
	for v := range s.m {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
