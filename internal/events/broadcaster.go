// Package events fans watchdog events out to the journal and to live
// subscribers.
package events

import (
	"errors"
	"sync"
)

// ErrStopped is returned when subscribing to a stopped broadcaster.
var ErrStopped = errors.New("broadcaster is stopped")

const subscriberBuffer = 16

// Broadcaster delivers every published value to all current subscribers.
// Slow subscribers lose their oldest buffered value rather than blocking
// the publisher.
type Broadcaster[T any] struct {
	mu          sync.Mutex
	subscribers map[chan T]struct{}
	stopped     bool
}

// NewBroadcaster returns an empty broadcaster.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subscribers: make(map[chan T]struct{})}
}

// Subscribe registers a new subscriber channel.
func (b *Broadcaster[T]) Subscribe() (chan T, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return nil, ErrStopped
	}
	ch := make(chan T, subscriberBuffer)
	b.subscribers[ch] = struct{}{}
	return ch, nil
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (b *Broadcaster[T]) Unsubscribe(ch chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; !ok {
		return
	}
	delete(b.subscribers, ch)
	close(ch)
}

// Publish sends msg to every subscriber without blocking.
func (b *Broadcaster[T]) Publish(msg T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	for ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
			// Full: drop the oldest value to make room.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- msg:
			default:
			}
		}
	}
}

// Stop closes every subscriber channel and rejects new subscribers.
func (b *Broadcaster[T]) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.stopped = true
	for ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, ch)
	}
}
