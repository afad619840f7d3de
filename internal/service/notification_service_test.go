package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spec-kit/ticket-bridge/internal/events"
	"github.com/spec-kit/ticket-bridge/internal/persistence"
)

type recordingPublisher struct {
	channel  string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, payload []byte) error {
	p.channel = channel
	p.payloads = append(p.payloads, payload)
	return p.err
}

func TestNotificationServiceForwardsEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	pub := &recordingPublisher{}
	NewNotificationService(dispatcher, pub, "ticket-events", nil).RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:          "e1",
		Type:        events.EventTicketOpened,
		RequesterID: "A",
		ChannelID:   "c1",
		Payload:     events.TicketOpenedPayload{Category: "Question", Detail: "help me", Notified: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if pub.channel != "ticket-events" || len(pub.payloads) != 1 {
		t.Fatalf("published %d payloads on %q", len(pub.payloads), pub.channel)
	}

	var decoded struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Payload struct {
			Category string `json:"category"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(pub.payloads[0], &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.ID != "e1" || decoded.Type != "ticket_opened" || decoded.Payload.Category != "Question" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestNotificationServicePublishErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"bus down", errors.New("connection refused"), true},
		{"bus disabled", persistence.ErrRedisNotConfigured, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dispatcher := events.NewInMemoryDispatcher()
			NewNotificationService(dispatcher, &recordingPublisher{err: tc.err}, "ticket-events", nil).RegisterHandlers()
			err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketClosed})
			if (err != nil) != tc.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
