// Package export turns a closed ticket's transcript into a bounded summary
// plus an optional full document, and delivers it to the archive
// destinations.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/platform"
	"github.com/spec-kit/ticket-bridge/internal/transcript"
)

const (
	blockOpen  = "```txt\n"
	blockClose = "\n```"

	// SenderName is the display name used for export deliveries.
	SenderName = "Ticket Logs"
)

// Options bound the summary size.
type Options struct {
	// SummaryBudget is the largest literal block, in characters, sent
	// inline before the transcript gets truncated.
	SummaryBudget int
	// TruncationMargin is subtracted from the budget when choosing how
	// many whole lines to keep, leaving room for the hidden-lines note.
	TruncationMargin int
	// GuildName heads the full document.
	GuildName string
}

// Report is a rendered export ready for delivery.
type Report struct {
	Ticket       domain.Ticket
	ClosedAt     time.Time
	MessageCount int
	// Transcript is the full, untruncated rendering.
	Transcript  string
	Truncated   bool
	HiddenLines int
	Summary     platform.Embed
	// Document is the full transcript file, set only when Truncated.
	Document *platform.File
}

// Message packs the report as one outbound unit.
func (r Report) Message() platform.Message {
	summary := r.Summary
	return platform.Message{
		Embed:    &summary,
		File:     r.Document,
		Username: SenderName,
	}
}

// Compose renders entries and builds the summary for ticket t.
func Compose(t domain.Ticket, entries []domain.TranscriptEntry, closedAt time.Time, opts Options) Report {
	full := transcript.Render(entries)
	report := Report{
		Ticket:       t,
		ClosedAt:     closedAt,
		MessageCount: len(entries),
		Transcript:   full,
	}

	body := blockOpen + full + blockClose
	if utf8.RuneCountInString(body) > opts.SummaryBudget {
		kept, hidden := Truncate(full, opts.SummaryBudget-opts.TruncationMargin)
		body = blockOpen + kept + blockClose
		report.Truncated = true
		report.HiddenLines = hidden
		report.Document = &platform.File{
			Name:        "ticket-" + t.RequesterID + ".txt",
			ContentType: "text/plain; charset=utf-8",
			Data:        []byte(documentHeader(report, opts.GuildName) + full + "\n"),
		}
	}
	report.Summary = summaryEmbed(report, body)
	return report
}

// Truncate keeps the longest prefix of whole lines of full whose length,
// newlines included, fits limit characters, and appends a note counting the
// hidden lines.
func Truncate(full string, limit int) (string, int) {
	var kept strings.Builder
	used, keptLines := 0, 0
	for _, line := range strings.SplitAfter(full+"\n", "\n") {
		if line == "" {
			continue
		}
		n := utf8.RuneCountInString(line)
		if used+n > limit {
			break
		}
		kept.WriteString(line)
		used += n
		keptLines++
	}

	total := 0
	if full != "" {
		total = strings.Count(full, "\n") + 1
	}
	hidden := total - keptLines
	if hidden < 0 {
		hidden = 0
	}
	text := strings.TrimRightFunc(kept.String(), unicode.IsSpace)
	return text + "\n… (+" + strconv.Itoa(hidden) + " lignes masquées)", hidden
}

func summaryEmbed(r Report, body string) platform.Embed {
	channel := r.Ticket.ChannelName
	if channel == "" {
		channel = r.Ticket.ChannelID
	}
	fields := []platform.EmbedField{
		{Name: "Joueur", Value: platform.UserMention(r.Ticket.RequesterID), Inline: true},
		{Name: "Salon", Value: "#" + channel, Inline: true},
		{Name: "Raison", Value: r.Ticket.Reason()},
		{Name: "Ouvert (UTC)", Value: transcript.FormatTime(r.Ticket.OpenedAt), Inline: true},
		{Name: "Fermé (UTC)", Value: transcript.FormatTime(r.ClosedAt), Inline: true},
		{Name: "Messages", Value: strconv.Itoa(r.MessageCount), Inline: true},
	}
	if r.Truncated {
		fields = append(fields, platform.EmbedField{
			Name:  "Note",
			Value: "Transcript tronqué dans l’embed. Le fichier joint contient l’intégralité.",
		})
	}
	return platform.Embed{
		Title:       "🧾 Transcript Ticket",
		Description: body,
		Color:       platform.ColorDarkGrey,
		Fields:      fields,
	}
}

func documentHeader(r Report, guildName string) string {
	requester := r.Ticket.RequesterName
	if requester == "" {
		requester = r.Ticket.RequesterID
	}
	channel := r.Ticket.ChannelName
	if channel == "" {
		channel = r.Ticket.ChannelID
	}
	return fmt.Sprintf("Transcript Ticket — %s\n", guildName) +
		fmt.Sprintf("Joueur: %s | Salon: #%s\n", requester, channel) +
		fmt.Sprintf("Raison: %s\n", r.Ticket.Reason()) +
		fmt.Sprintf("Ouvert (UTC): %s | Fermé (UTC): %s\n",
			transcript.FormatTime(r.Ticket.OpenedAt), transcript.FormatTime(r.ClosedAt)) +
		fmt.Sprintf("Messages: %d\n", r.MessageCount) +
		strings.Repeat("-", 50) + "\n"
}
