package domain

import "time"

// CommentRecord is a staff annotation kept per requester across tickets.
type CommentRecord struct {
	ID              string
	RequesterID     string
	Author          string
	Content         string
	Timestamp       time.Time
	OriginChannelID string
}
