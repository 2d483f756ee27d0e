// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package broadcast fans a signal out to a set of scoped
// subscriptions. The terminal UI publishes window resizes and section
// changes through it; the map manager and the reset coordinator
// subscribe and detach on teardown instead of registering process-wide
// handlers.
package broadcast

import "sync"

// Broadcaster delivers every published value to each live
// subscription, in subscription order. Safe for concurrent use.
// Handlers run on the publishing goroutine.
type Broadcaster[T any] struct {
	mutex       sync.Mutex
	nextID      uint64
	subscribers []subscriber[T]
	last        T
	published   bool
}

type subscriber[T any] struct {
	id      uint64
	handler func(T)
}

// New returns an empty Broadcaster.
func New[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{}
}

// Subscribe registers handler and returns a function that detaches
// it. The detach function is idempotent.
func (broadcaster *Broadcaster[T]) Subscribe(handler func(T)) (cancel func()) {
	broadcaster.mutex.Lock()
	defer broadcaster.mutex.Unlock()

	broadcaster.nextID++
	id := broadcaster.nextID
	broadcaster.subscribers = append(broadcaster.subscribers, subscriber[T]{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { broadcaster.remove(id) })
	}
}

func (broadcaster *Broadcaster[T]) remove(id uint64) {
	broadcaster.mutex.Lock()
	defer broadcaster.mutex.Unlock()
	for index, entry := range broadcaster.subscribers {
		if entry.id == id {
			broadcaster.subscribers = append(broadcaster.subscribers[:index:index], broadcaster.subscribers[index+1:]...)
			return
		}
	}
}

// Publish delivers value to every subscription registered at the time
// of the call. Handlers may subscribe or cancel during delivery; the
// change takes effect from the next Publish.
func (broadcaster *Broadcaster[T]) Publish(value T) {
	broadcaster.mutex.Lock()
	broadcaster.last = value
	broadcaster.published = true
	// Snapshot under lock; dispatch after release.
	subscribers := broadcaster.subscribers
	broadcaster.mutex.Unlock()

	for _, entry := range subscribers {
		entry.handler(value)
	}
}

// Last returns the most recently published value and whether anything
// has been published yet. Late subscribers use it to pick up current
// state (the terminal size, for example).
func (broadcaster *Broadcaster[T]) Last() (T, bool) {
	broadcaster.mutex.Lock()
	defer broadcaster.mutex.Unlock()
	return broadcaster.last, broadcaster.published
}

// Len returns the number of live subscriptions.
func (broadcaster *Broadcaster[T]) Len() int {
	broadcaster.mutex.Lock()
	defer broadcaster.mutex.Unlock()
	return len(broadcaster.subscribers)
}
