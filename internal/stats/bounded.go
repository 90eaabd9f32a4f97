package stats

// Bounded is a FIFO that keeps at most limit items, evicting the oldest.
// A non-positive limit means unbounded.
//
// Evicted slots stay at the front of the backing slice until they number
// limit, then the live items are moved down in one copy, so Push is
// amortized O(1) and the backing slice holds at most 2*limit items.
type Bounded[T any] struct {
	limit int
	items []T
	head  int // index of the oldest live item
}

// NewBounded creates an empty FIFO.
func NewBounded[T any](limit int) *Bounded[T] {
	return &Bounded[T]{limit: limit}
}

// Push appends v and evicts from the front past the limit.
func (b *Bounded[T]) Push(v T) {
	b.items = append(b.items, v)
	if b.limit <= 0 || len(b.items)-b.head <= b.limit {
		return
	}
	var zero T
	b.items[b.head] = zero
	b.head++
	if b.head >= b.limit {
		n := copy(b.items, b.items[b.head:])
		clear(b.items[n:])
		b.items = b.items[:n]
		b.head = 0
	}
}

// Items returns a copy of the contents, oldest first.
func (b *Bounded[T]) Items() []T {
	out := make([]T, b.Len())
	copy(out, b.items[b.head:])
	return out
}

// View returns the contents without copying. Callers must not retain or modify it.
func (b *Bounded[T]) View() []T {
	return b.items[b.head:]
}

// Len returns the number of items held.
func (b *Bounded[T]) Len() int {
	return len(b.items) - b.head
}

// Limit returns the capacity bound.
func (b *Bounded[T]) Limit() int {
	return b.limit
}

// Reset drops all items.
func (b *Bounded[T]) Reset() {
	clear(b.items)
	b.items = b.items[:0]
	b.head = 0
}
