package bsal

import (
	"sync"

	"k8s.io/klog/v2"
)

// An eventQueue is a fixed capacity FIFO of raw vendor events. It is the only
// structure shared between vendor goroutines and the Client.
type eventQueue struct {
	// mu guards every field below and is held only while the ring is
	// manipulated.
	mu   sync.Mutex
	buf  []RawEvent
	head int
	n    int
}

func newEventQueue(size int) *eventQueue {
	return &eventQueue{buf: make([]RawEvent, size)}
}

// push appends ev to the queue. It reports whether the queue was empty
// beforehand, and returns ErrQueueFull without modifying the queue when it is
// at capacity.
func (q *eventQueue) push(ev RawEvent) (wasEmpty bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.n == len(q.buf) {
		return false, ErrQueueFull
	}

	q.buf[(q.head+q.n)%len(q.buf)] = ev
	q.n++

	return q.n == 1, nil
}

// drain removes and returns every queued event in FIFO order.
func (q *eventQueue) drain() []RawEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.n == 0 {
		return nil
	}

	evs := make([]RawEvent, q.n)
	for i := range evs {
		j := (q.head + i) % len(q.buf)
		evs[i] = q.buf[j]
		// Release payload references held by the ring.
		q.buf[j] = RawEvent{}
	}
	q.head = 0
	q.n = 0

	return evs
}

// len returns the number of queued events.
func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

// A bridge moves raw events from vendor goroutines to the Client's event
// goroutine. Vendor goroutines call enqueue; the event goroutine waits on
// wake and then calls drain.
type bridge struct {
	q *eventQueue
	m *metrics

	// wake carries at most one pending notification. A notification is sent
	// when the queue goes from empty to non-empty, so one notification may
	// stand for many events and the consumer must drain fully.
	wake chan struct{}
}

func newBridge(size int, m *metrics) *bridge {
	return &bridge{
		q:    newEventQueue(size),
		m:    m,
		wake: make(chan struct{}, 1),
	}
}

// enqueue queues ev and wakes the consumer if needed. It never blocks on the
// consumer; a full queue drops ev and returns ErrQueueFull.
func (b *bridge) enqueue(ev RawEvent) error {
	wasEmpty, err := b.q.push(ev)
	if err != nil {
		b.m.dropped.Inc()
		klog.Errorf("bsal: dropping vendor event %d from AP index %d: %v", ev.Type, ev.APIndex, err)
		return err
	}
	b.m.enqueued.Inc()

	if wasEmpty {
		select {
		case b.wake <- struct{}{}:
		default:
			// A notification is already pending.
		}
	}

	return nil
}

// drain returns every queued event in the order it was enqueued.
func (b *bridge) drain() []RawEvent {
	return b.q.drain()
}
