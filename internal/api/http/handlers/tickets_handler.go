package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bridge/internal/api/dto"
	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/service"
	"github.com/spec-kit/ticket-bridge/internal/transcript"
)

// TicketReader is the read side of the ticket service.
type TicketReader interface {
	ListLive() []service.TicketSnapshot
	Snapshot(channelID string) (*service.TicketSnapshot, error)
	CommentHistory(ctx context.Context, requesterID string) ([]domain.CommentRecord, error)
	Archives(ctx context.Context, requesterID string, limit, offset int) ([]domain.TranscriptArchive, error)
}

// TicketsHandler serves the staff read endpoints.
type TicketsHandler struct {
	tickets TicketReader
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets TicketReader) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	live := h.tickets.ListLive()
	items := make([]dto.TicketSummary, 0, len(live))
	for _, snap := range live {
		items = append(items, ticketSummary(snap))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:channelId.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	snap, err := h.tickets.Snapshot(c.Params("channelId"))
	if err != nil {
		return err
	}
	entries := make([]dto.TranscriptEntryResponse, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		entries = append(entries, dto.TranscriptEntryResponse{
			Author:       e.Author,
			Content:      e.Content,
			Timestamp:    e.Timestamp,
			Internal:     e.Internal,
			IsAttachment: e.IsAttachment,
		})
	}
	return c.JSON(fiber.Map{"data": dto.TicketDetail{TicketSummary: ticketSummary(*snap), Entries: entries}})
}

// GetTranscript GET /tickets/:channelId/transcript.
func (h *TicketsHandler) GetTranscript(c *fiber.Ctx) error {
	snap, err := h.tickets.Snapshot(c.Params("channelId"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(transcript.Render(snap.Entries))
}

// ListComments GET /users/:userId/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	records, err := h.tickets.CommentHistory(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(records))
	for _, r := range records {
		items = append(items, dto.CommentResponse{
			ID:              r.ID,
			RequesterID:     r.RequesterID,
			Author:          r.Author,
			Content:         r.Content,
			Timestamp:       r.Timestamp,
			OriginChannelID: r.OriginChannelID,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListArchives GET /users/:userId/archives.
func (h *TicketsHandler) ListArchives(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	if pageSize > 100 {
		pageSize = 100
	}
	archives, err := h.tickets.Archives(c.UserContext(), c.Params("userId"), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	withText := c.QueryBool("include_transcript", false)
	items := make([]dto.ArchiveResponse, 0, len(archives))
	for _, a := range archives {
		item := dto.ArchiveResponse{
			ID:           a.ID,
			RequesterID:  a.RequesterID,
			ChannelID:    a.ChannelID,
			ChannelName:  a.ChannelName,
			Reason:       a.Reason,
			OpenedAt:     a.OpenedAt,
			ClosedAt:     a.ClosedAt,
			MessageCount: a.MessageCount,
			Truncated:    a.Truncated,
			DeliveredVia: a.DeliveredVia,
		}
		if withText {
			item.Transcript = a.Transcript
		}
		items = append(items, item)
	}
	return c.JSON(fiber.Map{"data": items, "page": page, "page_size": pageSize})
}

func ticketSummary(snap service.TicketSnapshot) dto.TicketSummary {
	t := snap.Ticket
	return dto.TicketSummary{
		ChannelID:     t.ChannelID,
		ChannelName:   t.ChannelName,
		RequesterID:   t.RequesterID,
		RequesterName: t.RequesterName,
		Category:      t.Category,
		Detail:        t.Detail,
		Status:        string(snap.Status),
		OpenedAt:      t.OpenedAt,
		EntryCount:    len(snap.Entries),
	}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
