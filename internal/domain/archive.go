package domain

import "time"

// TranscriptArchive is the stored copy of a closed ticket's export.
type TranscriptArchive struct {
	ID           string
	RequesterID  string
	ChannelID    string
	ChannelName  string
	Reason       string
	OpenedAt     time.Time
	ClosedAt     time.Time
	MessageCount int
	Transcript   string
	Truncated    bool
	DeliveredVia string
	CreatedAt    time.Time
}
