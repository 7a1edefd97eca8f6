// Package broadcast provides the payload-free "cart changed" signal. Listeners
// re-fetch whatever they display instead of trusting a pushed value.
package broadcast

import (
	"context"
	"sync"
)

// Notifier is the publishing side used by the cart store and checkout.
type Notifier interface {
	Notify()
}

// Broadcaster fans a signal out to every registered listener.
type Broadcaster struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]func()
	order     []uint64
}

// New creates an empty Broadcaster.
func New() *Broadcaster {
	return &Broadcaster{listeners: make(map[uint64]func())}
}

// Subscribe registers fn and returns a function that deregisters it. Calling
// the returned function more than once is a no-op.
func (b *Broadcaster) Subscribe(fn func()) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Broadcaster) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.listeners, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Notify invokes every listener registered at the time of the call, once
// each, synchronously and in subscription order. Listeners may subscribe or
// unsubscribe from inside the callback.
func (b *Broadcaster) Notify() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.listeners[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Watch returns a channel that receives a value after each Notify. Signals
// that arrive while one is pending are coalesced. The listener is removed
// when ctx ends.
func (b *Broadcaster) Watch(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)
	unsubscribe := b.Subscribe(func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	go func() {
		<-ctx.Done()
		unsubscribe()
	}()
	return ch
}

// Len returns the number of registered listeners.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
