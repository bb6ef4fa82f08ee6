package window

// Window is a bounded FIFO sequence. Once full, each push evicts the oldest item.
// It is not safe for concurrent use; callers guard it with their own lock.
type Window[T any] struct {
	items []T
	limit int
}

// New creates a window holding at most limit items.
func New[T any](limit int) *Window[T] {
	if limit < 1 {
		limit = 1
	}
	return &Window[T]{
		items: make([]T, 0, limit),
		limit: limit,
	}
}

// Push appends v and evicts from the front until the window fits its bound.
// It returns the number of evicted items.
func (w *Window[T]) Push(v T) int {
	w.items = append(w.items, v)
	evicted := 0
	for len(w.items) > w.limit {
		var zero T
		w.items[0] = zero
		w.items = w.items[1:]
		evicted++
	}
	return evicted
}

// Len returns the number of items held.
func (w *Window[T]) Len() int {
	return len(w.items)
}

// Limit returns the window bound.
func (w *Window[T]) Limit() int {
	return w.limit
}

// At returns the i-th item, oldest first.
func (w *Window[T]) At(i int) T {
	return w.items[i]
}

// Last returns the most recently pushed item.
func (w *Window[T]) Last() (T, bool) {
	if len(w.items) == 0 {
		var zero T
		return zero, false
	}
	return w.items[len(w.items)-1], true
}

// Items returns a copy of the held items, oldest first.
func (w *Window[T]) Items() []T {
	out := make([]T, len(w.items))
	copy(out, w.items)
	return out
}

// Reset drops every item.
func (w *Window[T]) Reset() {
	w.items = make([]T, 0, w.limit)
}
