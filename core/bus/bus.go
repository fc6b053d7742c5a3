// Package bus carries face-data status change notifications between otherwise
// unrelated components. Publishing never blocks: a subscriber that cannot keep
// up loses events rather than stalling the publisher.
package bus

import (
	"errors"
	"sync"
)

var (
	ErrBusClosed          = errors.New("bus is closed")
	ErrSubscriberExists   = errors.New("subscriber id already registered")
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrNilChannel         = errors.New("subscriber channel is nil")
)

// Event is a face-data status change for one student.
type Event struct {
	StudentID   string
	HasFaceData bool
	ImageCount  int
}

// SubscriberStats tracks event distribution for one subscriber.
type SubscriberStats struct {
	Delivered uint64
	Dropped   uint64
}

type subscriberHolder struct {
	id    string
	ch    chan<- Event
	stats SubscriberStats
}

// Bus distributes events to registered subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriberHolder
	published   uint64
	closed      bool
}

func New() *Bus {
	return &Bus{subscribers: make(map[string]*subscriberHolder)}
}

// Subscribe registers ch under id. Each interested component subscribes on
// start and unsubscribes on teardown; ids must be unique.
func (b *Bus) Subscribe(id string, ch chan<- Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if _, exists := b.subscribers[id]; exists {
		return ErrSubscriberExists
	}
	if ch == nil {
		return ErrNilChannel
	}
	b.subscribers[id] = &subscriberHolder{id: id, ch: ch}
	return nil
}

func (b *Bus) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[id]; !exists {
		return ErrSubscriberNotFound
	}
	delete(b.subscribers, id)
	return nil
}

// Publish distributes ev to all subscribers without blocking.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.published++

	for _, holder := range b.subscribers {
		select {
		case holder.ch <- ev:
			holder.stats.Delivered++
		default:
			holder.stats.Dropped++
		}
	}
}

// Stats returns distribution counters for one subscriber.
func (b *Bus) Stats(id string) (SubscriberStats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	holder, exists := b.subscribers[id]
	if !exists {
		return SubscriberStats{}, ErrSubscriberNotFound
	}
	return holder.stats, nil
}

// Published returns the total number of events published.
func (b *Bus) Published() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.published
}

// Close drops all subscribers; further Publish calls are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	b.subscribers = make(map[string]*subscriberHolder)
}
