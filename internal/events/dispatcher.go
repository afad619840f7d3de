package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans lifecycle events out to subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// HandlerError wraps a subscriber failure with the event it was handling.
type HandlerError struct {
	EventType EventType
	EventID   string
	// Index is the subscriber's position in registration order.
	Index int
	Err   error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s handler %d (event %s): %v", e.EventType, e.Index, e.EventID, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// ticketDispatcher delivers synchronously on the publishing goroutine.
type ticketDispatcher struct {
	mu          sync.RWMutex
	subscribers map[EventType][]EventHandler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &ticketDispatcher{subscribers: make(map[EventType][]EventHandler)}
}

// Publish runs every subscriber of event.Type in registration order. A
// failing or panicking subscriber does not stop the others; all failures
// come back joined, each as a *HandlerError.
func (d *ticketDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	subs := d.subscribers[event.Type]
	d.mu.RUnlock()

	var errs []error
	for i, handle := range subs {
		if err := invoke(ctx, handle, event); err != nil {
			errs = append(errs, &HandlerError{EventType: event.Type, EventID: event.ID, Index: i, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for eventType. Subscribing while a Publish
// is running does not affect that Publish.
func (d *ticketDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	subs := d.subscribers[eventType]
	d.subscribers[eventType] = append(subs[:len(subs):len(subs)], handler)
}

func invoke(ctx context.Context, handle EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handle(ctx, event)
}
