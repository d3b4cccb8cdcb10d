package app

import (
	"sync"

	"github.com/dkeye/Duet/internal/core"
	"github.com/rs/zerolog/log"
)

type Listener func(core.Event)

// Bus delivers lifecycle events to any number of listeners, synchronously and
// in subscription order. Listeners run on the publisher's goroutine, so they
// must not call back into whatever published the event.
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
	order     []int
}

func NewBus() *Bus {
	return &Bus{listeners: make(map[int]Listener)}
}

// Subscribe registers fn and returns the func that removes it.
// Calling the returned func more than once is harmless.
func (b *Bus) Subscribe(fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.listeners, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *Bus) Publish(ev core.Event) {
	b.mu.RLock()
	fns := make([]Listener, 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.listeners[id])
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		b.call(fn, ev)
	}
}

// call isolates listeners from each other: a panicking listener is logged
// and the rest still run.
func (b *Bus) call(fn Listener, ev core.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("module", "app.bus").Str("event", ev.Kind.String()).Interface("panic", rec).Msg("listener panicked")
		}
	}()
	fn(ev)
}
