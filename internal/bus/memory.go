package bus

import (
	"context"
	"errors"
	"sync"
)

var ErrBusClosed = errors.New("bus is closed")

// MemoryBus is an in-process Bus for tests and single-process runs. Direct
// destinations buffer without bound, matching the no-backpressure contract
// of the real transport.
type MemoryBus struct {
	mu     sync.Mutex
	topics map[string][]*memQueue
	queues map[string]*memQueue
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		topics: make(map[string][]*memQueue),
		queues: make(map[string]*memQueue),
	}
}

func (b *MemoryBus) Broadcast(ctx context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	for _, q := range b.topics[topic] {
		q.push(payload)
	}
	return nil
}

func (b *MemoryBus) Send(ctx context.Context, destination string, payload []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	q := b.queueLocked(destination)
	b.mu.Unlock()
	q.push(payload)
	return nil
}

func (b *MemoryBus) SubscribeBroadcast(ctx context.Context, topic string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	q := newMemQueue(topic)
	b.topics[topic] = append(b.topics[topic], q)
	return q.out, nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, destination string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	// Subscribers to one destination share the queue's delivery channel,
	// so each message reaches exactly one of them.
	return b.queueLocked(destination).out, nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.topics {
		for _, q := range subs {
			q.close()
		}
	}
	for _, q := range b.queues {
		q.close()
	}
	return nil
}

func (b *MemoryBus) queueLocked(destination string) *memQueue {
	q, ok := b.queues[destination]
	if !ok {
		q = newMemQueue(destination)
		b.queues[destination] = q
	}
	return q
}

// memQueue delivers an unbounded backlog to out in order. A single pump
// goroutine keeps delivery order deterministic per destination.
type memQueue struct {
	dest    string
	mu      sync.Mutex
	cond    *sync.Cond
	backlog [][]byte
	closed  bool
	done    chan struct{}
	out     chan Message
}

func newMemQueue(dest string) *memQueue {
	q := &memQueue{dest: dest, done: make(chan struct{}), out: make(chan Message)}
	q.cond = sync.NewCond(&q.mu)
	go q.pump()
	return q
}

func (q *memQueue) push(payload []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.backlog = append(q.backlog, payload)
	q.cond.Signal()
}

func (q *memQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	// done unblocks a pump parked on the channel send; the cond unblocks
	// one parked on an empty backlog.
	close(q.done)
	q.cond.Signal()
}

func (q *memQueue) pump() {
	for {
		q.mu.Lock()
		for len(q.backlog) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed {
			q.mu.Unlock()
			close(q.out)
			return
		}
		payload := q.backlog[0]
		q.backlog = q.backlog[1:]
		q.mu.Unlock()
		select {
		case q.out <- Message{Destination: q.dest, Payload: payload}:
		case <-q.done:
			close(q.out)
			return
		}
	}
}

var _ Bus = (*MemoryBus)(nil)
