package journal

import "sync"

// Buffer is a thread-safe FIFO ring that grows when full. The writer drains
// it in batches; producers never block.
type Buffer[T any] struct {
	mu    sync.Mutex
	buf   []T
	head  int
	tail  int
	count int

	closed bool

	pushed int64
	popped int64
}

// NewBuffer creates a Buffer with the given initial capacity.
func NewBuffer[T any](initialCapacity int) *Buffer[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	return &Buffer[T]{buf: make([]T, initialCapacity)}
}

// Push appends an item. Returns false if the buffer is closed.
func (b *Buffer[T]) Push(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	if b.count == len(b.buf) {
		b.grow()
	}

	b.buf[b.tail] = item
	b.tail = (b.tail + 1) % len(b.buf)
	b.count++
	b.pushed++
	return true
}

// Drain removes and returns up to max items, or everything when max <= 0.
// Returns nil when the buffer is empty.
func (b *Buffer[T]) Drain(max int) []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}

	n := b.count
	if max > 0 && max < n {
		n = max
	}

	out := make([]T, n)
	var zero T
	for i := 0; i < n; i++ {
		out[i] = b.buf[b.head]
		b.buf[b.head] = zero
		b.head = (b.head + 1) % len(b.buf)
		b.count--
		b.popped++
	}
	return out
}

// Close marks the buffer closed. Subsequent pushes are rejected; remaining
// items can still be drained.
func (b *Buffer[T]) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// grow doubles capacity, unwrapping the ring. Caller holds the lock.
func (b *Buffer[T]) grow() {
	next := make([]T, len(b.buf)*2)
	if b.head < b.tail || b.count == 0 {
		copy(next, b.buf[b.head:b.head+b.count])
	} else {
		n := copy(next, b.buf[b.head:])
		copy(next[n:], b.buf[:b.tail])
	}
	b.buf = next
	b.head = 0
	b.tail = b.count
}
