// Package telemetry provides local observability for the coderef engine:
// a bounded buffer for recent ingestion errors and optional Prometheus
// collectors. Nothing is reported externally; the host owns the registry.
package telemetry

// RingBuffer is a fixed-capacity FIFO buffer. When full, the oldest item
// is evicted. It is not safe for concurrent use; the engine is
// single-writer by contract.
type RingBuffer[T any] struct {
	items    []T
	head     int // next write position
	size     int
	capacity int
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = 10
	}
	return &RingBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add adds an item to the buffer. If full, the oldest item is evicted.
func (b *RingBuffer[T]) Add(item T) {
	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity

	if b.size < b.capacity {
		b.size++
	}
}

// Items returns all items in FIFO order (oldest first).
func (b *RingBuffer[T]) Items() []T {
	if b.size == 0 {
		return []T{}
	}

	result := make([]T, b.size)
	if b.size < b.capacity {
		copy(result, b.items[:b.size])
	} else {
		copy(result, b.items[b.head:])
		copy(result[b.capacity-b.head:], b.items[:b.head])
	}
	return result
}

// Size returns the current number of items in the buffer.
func (b *RingBuffer[T]) Size() int {
	return b.size
}

// Clear removes all items from the buffer.
func (b *RingBuffer[T]) Clear() {
	b.head = 0
	b.size = 0
}
