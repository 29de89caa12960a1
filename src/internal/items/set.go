package items

import (
	"slices"
)

// Set is an unordered collection of unique items.
type Set map[Item]struct{}

// NewSet returns a set holding the given items.
func NewSet(items ...Item) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts the item into the set.
func (s Set) Add(item Item) {
	s[item] = struct{}{}
}

// Contains reports whether the item is in the set.
func (s Set) Contains(item Item) bool {
	_, ok := s[item]
	return ok
}

// Len returns the number of items in the set.
func (s Set) Len() int {
	return len(s)
}

// Difference returns the items of s that are not in other.
func (s Set) Difference(other Set) Set {
	result := make(Set)
	for item := range s {
		if !other.Contains(item) {
			result.Add(item)
		}
	}
	return result
}

// Equal reports whether both sets hold exactly the same items.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for item := range s {
		if !other.Contains(item) {
			return false
		}
	}
	return true
}

// Sorted returns the items in address order.
func (s Set) Sorted() []Item {
	result := make([]Item, 0, len(s))
	for item := range s {
		result = append(result, item)
	}
	slices.SortFunc(result, Item.compare)
	return result
}

// Strings returns the canonical textual form of each item in address order.
func (s Set) Strings() []string {
	sorted := s.Sorted()
	result := make([]string, len(sorted))
	for i, item := range sorted {
		result[i] = item.String()
	}
	return result
}

// Diff returns the items to add to current (present only in desired)
// and the items to remove from it (present only in current).
func Diff(current, desired Set) (additions, removals Set) {
	return desired.Difference(current), current.Difference(desired)
}
