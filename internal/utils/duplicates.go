package utils

// SeenFilter drops values that were already seen. Not safe for concurrent use.
type SeenFilter[T comparable] struct {
	seen map[T]struct{}
}

// NewSeenFilter creates a filter, optionally pre-seeded with values to exclude
func NewSeenFilter[T comparable](exclude ...T) *SeenFilter[T] {
	f := &SeenFilter[T]{seen: make(map[T]struct{}, len(exclude))}
	for _, v := range exclude {
		f.seen[v] = struct{}{}
	}
	return f
}

// ShouldInclude reports whether v is new, and remembers it.
// Returns false for duplicates.
func (f *SeenFilter[T]) ShouldInclude(v T) bool {
	if _, ok := f.seen[v]; ok {
		return false
	}
	f.seen[v] = struct{}{}
	return true
}

// Len returns the number of distinct values seen so far.
func (f *SeenFilter[T]) Len() int {
	return len(f.seen)
}
