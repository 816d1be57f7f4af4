package tetris

// ring is a fixed capacity circular queue. Its storage is allocated once.
// Taking from an empty ring or adding to a full one is a bug and panics.
type ring[T any] struct {
	items      []T
	head, size int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{items: make([]T, capacity)}
}

func (r *ring[T]) Len() int { return r.size }
func (r *ring[T]) Cap() int { return len(r.items) }

// Push adds v at the tail.
func (r *ring[T]) Push(v T) {
	if r.size == len(r.items) {
		panic("ring: push on a full queue")
	}
	r.items[(r.head+r.size)%len(r.items)] = v
	r.size++
}

// PushFront adds v at the head, it will be the next one popped.
func (r *ring[T]) PushFront(v T) {
	if r.size == len(r.items) {
		panic("ring: push on a full queue")
	}
	r.head = (r.head - 1 + len(r.items)) % len(r.items)
	r.items[r.head] = v
	r.size++
}

// Pop removes and returns the head.
func (r *ring[T]) Pop() T {
	if r.size == 0 {
		panic("ring: pop on an empty queue")
	}
	var zero T
	v := r.items[r.head]
	r.items[r.head] = zero
	r.head = (r.head + 1) % len(r.items)
	r.size--
	return v
}

// Items returns a copy of the queue from head to tail.
func (r *ring[T]) Items() []T {
	out := make([]T, r.size)
	for i := range out {
		out[i] = r.items[(r.head+i)%len(r.items)]
	}
	return out
}

// Reset empties the queue.
func (r *ring[T]) Reset() {
	clear(r.items)
	r.head, r.size = 0, 0
}
