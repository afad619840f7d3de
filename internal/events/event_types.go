package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketOpened       EventType = "ticket_opened"
	EventTicketClosed       EventType = "ticket_closed"
	EventMessageRelayed     EventType = "message_relayed"
	EventNoteAdded          EventType = "note_added"
	EventTranscriptExported EventType = "transcript_exported"
)

// RelayDirection tells which side of the bridge a message came from.
type RelayDirection string

const (
	DirectionToStaff     RelayDirection = "to_staff"
	DirectionToRequester RelayDirection = "to_requester"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Staff  bool   `json:"staff"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	RequesterID string      `json:"requester_id"`
	ChannelID   string      `json:"channel_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// TicketOpenedPayload payload.
type TicketOpenedPayload struct {
	Category string `json:"category"`
	Detail   string `json:"detail"`
	Notified bool   `json:"notified"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	Reason       string `json:"reason"`
	MessageCount int    `json:"message_count"`
	Exported     bool   `json:"exported"`
}

// MessageRelayedPayload payload.
type MessageRelayedPayload struct {
	Direction   RelayDirection `json:"direction"`
	Attachments int            `json:"attachments"`
	HasText     bool           `json:"has_text"`
	Delivered   bool           `json:"delivered"`
}

// NoteAddedPayload payload.
type NoteAddedPayload struct {
	CommentID   string `json:"comment_id"`
	BodyPreview string `json:"body_preview"`
}

// TranscriptExportedPayload payload.
type TranscriptExportedPayload struct {
	Sink      string `json:"sink"`
	Truncated bool   `json:"truncated"`
	Archived  bool   `json:"archived"`
}
