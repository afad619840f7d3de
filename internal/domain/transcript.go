package domain

import "time"

// Author tags appended to display names in transcript entries.
const (
	AuthorTagRequester = "(joueur)"
	AuthorTagStaff     = "(staff)"
	AuthorTagNote      = "(note)"
)

// TranscriptEntry is one append-only record of a ticket conversation.
type TranscriptEntry struct {
	Author       string
	Content      string
	Timestamp    time.Time
	Internal     bool
	IsAttachment bool
}

// TaggedAuthor returns "<name> <tag>".
func TaggedAuthor(name, tag string) string {
	return name + " " + tag
}
