// Package dispatcher fans domain events out to background handlers.
package dispatcher

import (
	"context"
	"sync"
	"time"

	"prosorter/domain/events"
	"prosorter/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// handlerTimeout bounds each handler invocation so a hung device or SMTP
// server cannot pin goroutines forever.
const handlerTimeout = 30 * time.Second

// Handler is a function that handles events
type Handler func(ctx context.Context, event events.Event)

// Bus manages event subscriptions and dispatching. Handlers run in their
// own goroutines; publishing never blocks the committing caller.
type Bus struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]Handler
	wg       sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[events.EventType][]Handler),
	}
}

var _ interfaces.EventPublisher = (*Bus)(nil)

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType events.EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Publish delivers an event to all registered handlers asynchronously.
// Events are emitted after a successful commit, so delivery is best-effort
// and never returns a handler error to the caller.
func (b *Bus) Publish(event events.Event) error {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Publishing event to handlers")

	for i, handler := range handlers {
		b.wg.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()

			// Handlers outlive the request that triggered the commit, so
			// they get a fresh context rather than the caller's.
			ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
			defer cancel()
			h(ctx, event)
		}(handler, i)
	}
	return nil
}

// Wait blocks until all in-flight handlers finish. Used during shutdown
// and by tests.
func (b *Bus) Wait() {
	b.wg.Wait()
}
