package outbound

import "sync/atomic"

// queueSize is the ring buffer capacity; must be a power of two so
// indexing can use a mask instead of a modulo.
const queueSize = 8192
const queueMask = queueSize - 1

// Queue is a lock-free MPSC ring buffer for outward events, adapted
// from the teacher's event/queue.go. Multiple producers (e.g. several
// arenas' merge steps, if ever run concurrently) may Push
// concurrently; Consume is single-consumer only, matching the game
// loop's single outward-flush step (spec §5 step 5). Overflow silently
// drops the oldest unread events rather than blocking a producer.
type Queue struct {
	events    [queueSize]Event
	published [queueSize]atomic.Bool
	head      atomic.Uint64
	tail      atomic.Uint64
}

// NewQueue creates an empty queue.
func NewQueue() *Queue { return &Queue{} }

// Push adds an event using lock-free CAS with a published-flag guard so
// Consume never reads a partially written slot.
func (q *Queue) Push(ev Event) {
	for {
		currentTail := q.tail.Load()
		nextTail := currentTail + 1
		if q.tail.CompareAndSwap(currentTail, nextTail) {
			idx := currentTail & queueMask
			q.events[idx] = ev
			q.published[idx].Store(true)

			currentHead := q.head.Load()
			if nextTail-currentHead > queueSize {
				q.head.CompareAndSwap(currentHead, nextTail-queueSize)
			}
			return
		}
	}
}

// PushAll pushes every event in order. Used to hand a merged,
// arena-major-ordered batch to the queue in one call.
func (q *Queue) PushAll(events []Event) {
	for _, ev := range events {
		q.Push(ev)
	}
}

// Consume drains and returns all pending events in FIFO order.
// Single-consumer; safe to call from exactly one goroutine.
func (q *Queue) Consume() []Event {
	for {
		currentHead := q.head.Load()
		currentTail := q.tail.Load()
		if currentTail == currentHead {
			return nil
		}

		maxAvailable := currentTail - currentHead
		if maxAvailable > queueSize {
			maxAvailable = queueSize
			currentHead = currentTail - queueSize
		}

		result := make([]Event, 0, maxAvailable)
		for i := uint64(0); i < maxAvailable; i++ {
			idx := (currentHead + i) & queueMask
			if !q.published[idx].Load() {
				break
			}
			result = append(result, q.events[idx])
			q.published[idx].Store(false)
		}

		newHead := currentHead + uint64(len(result))
		if q.head.CompareAndSwap(currentHead, newHead) {
			if len(result) == 0 {
				return nil
			}
			return result
		}
	}
}

// Len returns an approximate pending-event count.
func (q *Queue) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail <= head {
		return 0
	}
	diff := int(tail - head)
	if diff > queueSize {
		return queueSize
	}
	return diff
}
