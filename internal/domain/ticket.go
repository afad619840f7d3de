package domain

import "time"

// TicketStatus describes where a live ticket is in its lifecycle. A ticket
// that has been torn down no longer exists anywhere, so there is no
// closed status.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "OPEN"
	TicketStatusClosing TicketStatus = "CLOSING"
)

// Ticket is the immutable identity of a support ticket: one requester,
// one staff-facing channel.
type Ticket struct {
	RequesterID   string
	RequesterName string
	ChannelID     string
	ChannelName   string
	Category      string
	Detail        string
	OpenedAt      time.Time
}

// Reason is the "<category> — <detail>" label carried through exports and
// closing notices.
func (t Ticket) Reason() string {
	return t.Category + " — " + t.Detail
}
