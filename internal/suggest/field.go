package suggest

import "sync"

// Field holds the suggestion list for one input field and decides which
// lookup responses may replace it. Responses can arrive in any order; only a
// response newer than the last one applied is installed.
type Field[T any] struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
	items   []T
}

// Begin reserves a sequence number for a lookup about to start.
func (f *Field[T]) Begin() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued++
	return f.issued
}

// Apply installs items if seq is newer than the last applied response.
// It reports whether the list changed.
func (f *Field[T]) Apply(seq uint64, items []T) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if seq <= f.applied {
		return false
	}
	f.applied = seq
	f.items = append([]T(nil), items...)
	return true
}

// Clear empties the list and makes every outstanding lookup stale.
func (f *Field[T]) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = f.issued
	f.items = nil
}

// Items returns a copy of the current list, never nil.
func (f *Field[T]) Items() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]T, len(f.items))
	copy(out, f.items)
	return out
}
