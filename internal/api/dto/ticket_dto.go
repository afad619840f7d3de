package dto

import "time"

// TicketSummary is a live ticket in list responses.
type TicketSummary struct {
	ChannelID     string    `json:"channel_id"`
	ChannelName   string    `json:"channel_name"`
	RequesterID   string    `json:"requester_id"`
	RequesterName string    `json:"requester_name"`
	Category      string    `json:"category"`
	Detail        string    `json:"detail"`
	Status        string    `json:"status"`
	OpenedAt      time.Time `json:"opened_at"`
	EntryCount    int       `json:"entry_count"`
}

// TranscriptEntryResponse is one transcript line.
type TranscriptEntryResponse struct {
	Author       string    `json:"author"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	Internal     bool      `json:"internal"`
	IsAttachment bool      `json:"is_attachment"`
}

// TicketDetail is a live ticket with its transcript.
type TicketDetail struct {
	TicketSummary
	Entries []TranscriptEntryResponse `json:"entries"`
}

// CommentResponse is one staff note.
type CommentResponse struct {
	ID              string    `json:"id"`
	RequesterID     string    `json:"requester_id"`
	Author          string    `json:"author"`
	Content         string    `json:"content"`
	Timestamp       time.Time `json:"timestamp"`
	OriginChannelID string    `json:"origin_channel_id,omitempty"`
}

// ArchiveResponse is a stored transcript of a closed ticket.
type ArchiveResponse struct {
	ID           string    `json:"id"`
	RequesterID  string    `json:"requester_id"`
	ChannelID    string    `json:"channel_id"`
	ChannelName  string    `json:"channel_name"`
	Reason       string    `json:"reason"`
	OpenedAt     time.Time `json:"opened_at"`
	ClosedAt     time.Time `json:"closed_at"`
	MessageCount int       `json:"message_count"`
	Truncated    bool      `json:"truncated"`
	DeliveredVia string    `json:"delivered_via"`
	Transcript   string    `json:"transcript,omitempty"`
}
