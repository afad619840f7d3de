package transcript

import (
	"strings"
	"time"

	"github.com/spec-kit/ticket-bridge/internal/domain"
)

// TimestampLayout is the timestamp format used in rendered lines and
// export headers. Times are always rendered in UTC.
const TimestampLayout = "2006-01-02 15:04:05"

// Line renders one entry as
//
//	[YYYY-MM-DD HH:MM:SS UTC] [note] [fichier] author: content
//
// where the tags only appear for internal and attachment entries.
func Line(entry domain.TranscriptEntry) string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(FormatTime(entry.Timestamp))
	b.WriteString(" UTC]")
	if entry.Internal {
		b.WriteString(" [note]")
	}
	if entry.IsAttachment {
		b.WriteString(" [fichier]")
	}
	b.WriteByte(' ')
	b.WriteString(entry.Author)
	b.WriteString(": ")
	b.WriteString(strings.TrimSpace(entry.Content))
	return b.String()
}

// Lines renders every entry in insertion order.
func Lines(entries []domain.TranscriptEntry) []string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, Line(e))
	}
	return lines
}

// Render joins the rendered lines with newlines, without a trailing one.
func Render(entries []domain.TranscriptEntry) string {
	return strings.Join(Lines(entries), "\n")
}

// FormatTime formats t in UTC with TimestampLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
