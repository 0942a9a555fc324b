// Package notify delivers coarse change signals between stores and their
// observers. Signals carry no payload; observers re-read what they need.
package notify

import (
	"slices"
	"sync"
)

// Signal names a kind of change.
type Signal string

const (
	// StorageChanged fires after any persisted catalog or log write.
	StorageChanged Signal = "storage"
	// LogsCleared fires after every conversation was removed at once.
	LogsCleared Signal = "logsCleared"
)

// Source tells observers whether a change came from this process or
// from another tab or process sharing the medium.
type Source int

const (
	Local Source = iota
	External
)

func (s Source) String() string {
	if s == External {
		return "external"
	}
	return "local"
}

// Event is what subscribers receive.
type Event struct {
	Signal Signal
	Source Source
}

// Handler receives events synchronously on the emitting goroutine.
type Handler func(Event)

// Bus is an in-process publish/subscribe hub. Zero value is not usable; use NewBus.
type Bus struct {
	mu       sync.RWMutex
	next     uint64
	handlers map[uint64]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[uint64]Handler)}
}

// Subscribe registers h and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Emit delivers a local event to every subscriber in subscription order.
func (b *Bus) Emit(sig Signal) {
	b.Publish(Event{Signal: sig, Source: Local})
}

// Publish delivers ev to every subscriber. Handlers may subscribe or
// unsubscribe from inside a callback.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	ids := make([]uint64, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	hs := make(map[uint64]Handler, len(ids))
	for _, id := range ids {
		hs[id] = b.handlers[id]
	}
	b.mu.RUnlock()

	slices.Sort(ids)
	for _, id := range ids {
		hs[id](ev)
	}
}

// Len reports the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
