package events

import (
	"context"
	"errors"
	"strings"
	"testing"
)

var errBus = errors.New("bus down")

func TestDispatcherRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventTicketOpened, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errBus
	})
	d.Subscribe(EventTicketOpened, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketClosed, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e1", Type: EventTicketOpened})
	if !errors.Is(err, errBus) {
		t.Fatalf("Publish error = %v, want the handler error", err)
	}
	var herr *HandlerError
	if !errors.As(err, &herr) || herr.Index != 0 || herr.EventID != "e1" || herr.EventType != EventTicketOpened {
		t.Errorf("handler error = %+v", herr)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("calls = %v", calls)
	}
}

func TestDispatcherJoinsFailuresAndRecoversPanics(t *testing.T) {
	d := NewInMemoryDispatcher()
	ran := false
	d.Subscribe(EventNoteAdded, func(context.Context, Event) error { panic("nil comment") })
	d.Subscribe(EventNoteAdded, func(context.Context, Event) error { return errBus })
	d.Subscribe(EventNoteAdded, func(context.Context, Event) error {
		ran = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventNoteAdded})
	if !ran {
		t.Error("subscriber after a panic did not run")
	}
	if err == nil || !strings.Contains(err.Error(), "panic: nil comment") || !errors.Is(err, errBus) {
		t.Errorf("err = %v", err)
	}
}

func TestDispatcherNoSubscribers(t *testing.T) {
	if err := NewInMemoryDispatcher().Publish(context.Background(), Event{Type: EventTicketClosed}); err != nil {
		t.Errorf("err = %v", err)
	}
}
