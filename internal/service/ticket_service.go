package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/config"
	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/events"
	"github.com/spec-kit/ticket-bridge/internal/export"
	"github.com/spec-kit/ticket-bridge/internal/observability"
	"github.com/spec-kit/ticket-bridge/internal/platform"
	"github.com/spec-kit/ticket-bridge/internal/registry"
	"github.com/spec-kit/ticket-bridge/internal/repository"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

// CloseAuditReason is recorded when a ticket channel is deleted.
const CloseAuditReason = "Ticket fermé"

// TicketService drives the ticket lifecycle: creation, annotation and
// closure.
type TicketService struct {
	registry   *registry.Registry
	gateway    platform.Gateway
	comments   repository.CommentRepository
	archives   repository.TranscriptArchiveRepository
	pipeline   *export.Pipeline
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.TicketsConfig
	guildName  string
	bannerURL  string
	emoji      string
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Registry    *registry.Registry
	Gateway     platform.Gateway
	CommentRepo repository.CommentRepository
	// ArchiveRepo is optional; archive listing is unavailable without it.
	ArchiveRepo repository.TranscriptArchiveRepository
	Pipeline    *export.Pipeline
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	Config      config.TicketsConfig
	GuildName   string
	BannerURL   string
	// NoticeEmoji prefixes the opening notice when set.
	NoticeEmoji string
	Now         func() time.Time
}

// CreateRequest is a requester's ticket submission.
type CreateRequest struct {
	RequesterID   string
	RequesterName string
	Category      string
	Detail        string
}

// CreateResult describes the outcome of a creation request.
type CreateResult struct {
	Ticket domain.Ticket
	// Existing is set when the requester already had a live ticket; Ticket
	// then describes that ticket and nothing was created.
	Existing bool
	// Notified reports whether the confirmation reached the requester.
	Notified bool
}

// CloseResult describes a completed closure.
type CloseResult struct {
	Ticket         domain.Ticket
	Report         export.Report
	Export         export.Outcome
	Notified       bool
	ChannelDeleted bool
}

// TicketSnapshot is a read-only view of a live ticket.
type TicketSnapshot struct {
	Ticket  domain.Ticket
	Status  domain.TicketStatus
	Entries []domain.TranscriptEntry
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		registry:   deps.Registry,
		gateway:    deps.Gateway,
		comments:   deps.CommentRepo,
		archives:   deps.ArchiveRepo,
		pipeline:   deps.Pipeline,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		cfg:        deps.Config,
		guildName:  deps.GuildName,
		bannerURL:  deps.BannerURL,
		emoji:      deps.NoticeEmoji,
		now:        now,
	}
}

// Create opens a ticket for the requester. A requester who already owns a
// live ticket gets that ticket back with Existing set. A refused
// confirmation does not undo the creation.
func (s *TicketService) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	category, ok := domain.LookupCategory(req.Category)
	if !ok {
		return nil, apperrors.NewCategoryNotFound(req.Category)
	}
	detail := strings.TrimSpace(req.Detail)
	if detail == "" {
		return nil, apperrors.NewValidationError("detail is required", map[string]any{"field": "detail"})
	}
	if limit := s.cfg.DetailMaxLength; limit > 0 && utf8.RuneCountInString(detail) > limit {
		return nil, apperrors.NewValidationError("detail is too long", map[string]any{
			"field":      "detail",
			"max_length": limit,
		})
	}

	containerID := s.cfg.Categories[category.Name]
	if containerID == "" || !s.gateway.CategoryExists(ctx, containerID) {
		return nil, apperrors.NewCategoryUnavailable(category.Name)
	}

	exists := func(channelID string) bool { return s.gateway.ChannelExists(ctx, channelID) }
	if existing := s.registry.Active(req.RequesterID, exists); existing != nil {
		s.metrics.Inc(observability.CounterTicketDuplicate)
		return &CreateResult{Ticket: existing.Info(), Existing: true}, nil
	}

	name := ChannelName(req.RequesterName, req.RequesterID)
	channelID, err := s.gateway.CreateChannel(ctx, platform.ChannelSpec{
		ParentID:         containerID,
		Name:             name,
		Topic:            fmt.Sprintf("Ticket de %s — %s : %s", displayName(req), category.Name, detail),
		HideFromEveryone: true,
		StaffRoleID:      s.cfg.StaffRoleID,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	ticket, err := s.registry.Create(domain.Ticket{
		RequesterID:   req.RequesterID,
		RequesterName: displayName(req),
		ChannelID:     channelID,
		ChannelName:   name,
		Category:      category.Name,
		Detail:        detail,
		OpenedAt:      s.now().UTC(),
	}, exists)
	if err != nil {
		s.discardChannel(ctx, channelID)
		if apperrors.HasCode(err, apperrors.CodeDuplicateTicket) && ticket != nil {
			s.metrics.Inc(observability.CounterTicketDuplicate)
			return &CreateResult{Ticket: ticket.Info(), Existing: true}, nil
		}
		return nil, err
	}
	info := ticket.Info()

	if err := s.gateway.Send(ctx, channelID, platform.Message{Content: s.openingNotice(info), CloseControl: true}); err != nil {
		s.logger.Warn("opening notice not posted", zap.String("channel_id", channelID), zap.Error(err))
	}
	if recap := s.recap(ctx, info.RequesterID); recap != nil {
		if err := s.gateway.Send(ctx, channelID, platform.Message{Embed: recap}); err != nil {
			s.logger.Warn("comment recap not posted", zap.String("channel_id", channelID), zap.Error(err))
		}
	}

	result := &CreateResult{Ticket: info, Notified: true}
	if err := s.gateway.SendDirect(ctx, info.RequesterID, platform.Message{Embed: s.createdEmbed(info)}); err != nil {
		result.Notified = false
		if errors.Is(err, platform.ErrRefused) {
			s.metrics.Inc(observability.CounterDeliveryRefused)
		}
		s.logger.Info("ticket confirmation not delivered",
			zap.String("requester_id", info.RequesterID),
			zap.Error(err))
	}

	s.metrics.Inc(observability.CounterTicketOpened)
	s.logger.Info("ticket opened",
		zap.String("requester_id", info.RequesterID),
		zap.String("channel_id", info.ChannelID),
		zap.String("category", info.Category))
	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketOpened,
		RequesterID: info.RequesterID,
		ChannelID:   info.ChannelID,
		Actor:       events.Actor{UserID: info.RequesterID, Name: info.RequesterName},
		Payload: events.TicketOpenedPayload{
			Category: info.Category,
			Detail:   info.Detail,
			Notified: result.Notified,
		},
	})
	return result, nil
}

// Annotate attaches an internal note to the ticket living in channelID: one
// comment record, one internal transcript entry and one confirmation in the
// channel.
func (s *TicketService) Annotate(ctx context.Context, channelID string, actor events.Actor, text string) (*domain.CommentRecord, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("note text is required", map[string]any{"field": "texte"})
	}
	ticket, ok := s.registry.TicketForChannel(channelID)
	if !ok {
		return nil, apperrors.NewNotATicketChannel(channelID)
	}
	info := ticket.Info()

	var (
		record    *domain.CommentRecord
		appendErr error
	)
	ran := ticket.Serialize(func() {
		ts := s.now().UTC()
		record = &domain.CommentRecord{
			RequesterID:     info.RequesterID,
			Author:          actor.Name,
			Content:         text,
			Timestamp:       ts,
			OriginChannelID: channelID,
		}
		if appendErr = s.comments.Append(ctx, record); appendErr != nil {
			return
		}
		ticket.Transcript().Append(domain.TranscriptEntry{
			Author:    domain.TaggedAuthor(actor.Name, domain.AuthorTagNote),
			Content:   text,
			Timestamp: ts,
			Internal:  true,
		})
		confirmation := "📝 **Note interne par " + platform.UserMention(actor.UserID) + "** : " + text
		if err := s.gateway.Send(ctx, channelID, platform.Message{Content: confirmation}); err != nil {
			s.logger.Warn("note confirmation not posted", zap.String("channel_id", channelID), zap.Error(err))
		}
	})
	if !ran {
		return nil, apperrors.NewNotATicketChannel(channelID)
	}
	if appendErr != nil {
		return nil, apperrors.NewInternalError(appendErr)
	}

	s.metrics.Inc(observability.CounterNoteAdded)
	s.publishEvent(ctx, events.Event{
		Type:        events.EventNoteAdded,
		RequesterID: info.RequesterID,
		ChannelID:   channelID,
		Actor:       actor,
		Payload: events.NoteAddedPayload{
			CommentID:   record.ID,
			BodyPreview: stringPreview(text, 80),
		},
	})
	return record, nil
}

// Close exports the transcript of the ticket living in channelID, notifies
// the requester and tears the ticket down. Export and notification are best
// effort and never block the teardown.
func (s *TicketService) Close(ctx context.Context, channelID string, actor events.Actor) (*CloseResult, error) {
	ticket, ok := s.registry.TicketForChannel(channelID)
	if !ok {
		return nil, apperrors.NewTicketNotFound(channelID)
	}
	var entries []domain.TranscriptEntry
	if !ticket.Serialize(func() { entries = ticket.MarkClosing() }) {
		return nil, apperrors.NewTicketNotFound(channelID)
	}
	info := ticket.Info()
	if name, ok := s.gateway.ChannelName(ctx, channelID); ok && name != "" {
		info.ChannelName = name
	}

	report := export.Compose(info, entries, s.now().UTC(), export.Options{
		SummaryBudget:    s.cfg.ExportSummaryBudget,
		TruncationMargin: s.cfg.ExportTruncationMargin,
		GuildName:        s.guildName,
	})
	result := &CloseResult{Ticket: info, Report: report}
	if s.pipeline != nil {
		result.Export = s.pipeline.Deliver(ctx, report)
	}

	if err := s.gateway.SendDirect(ctx, info.RequesterID, platform.Message{Embed: s.closedEmbed(info)}); err != nil {
		s.logger.Info("closing notice not delivered",
			zap.String("requester_id", info.RequesterID),
			zap.Error(err))
	} else {
		result.Notified = true
	}

	if !s.registry.Close(ticket) {
		s.logger.Warn("ticket already replaced in registry", zap.String("channel_id", channelID))
	}
	if err := s.gateway.DeleteChannel(ctx, channelID, CloseAuditReason); err != nil {
		s.logger.Warn("ticket channel not deleted", zap.String("channel_id", channelID), zap.Error(err))
	} else {
		result.ChannelDeleted = true
	}

	s.metrics.Inc(observability.CounterTicketClosed)
	s.logger.Info("ticket closed",
		zap.String("requester_id", info.RequesterID),
		zap.String("channel_id", channelID),
		zap.Int("messages", report.MessageCount),
		zap.String("export_sink", result.Export.Sink))
	s.publishEvent(ctx, events.Event{
		Type:        events.EventTranscriptExported,
		RequesterID: info.RequesterID,
		ChannelID:   channelID,
		Actor:       actor,
		Payload: events.TranscriptExportedPayload{
			Sink:      result.Export.Sink,
			Truncated: report.Truncated,
			Archived:  result.Export.Archived,
		},
	})
	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketClosed,
		RequesterID: info.RequesterID,
		ChannelID:   channelID,
		Actor:       actor,
		Payload: events.TicketClosedPayload{
			Reason:       info.Reason(),
			MessageCount: report.MessageCount,
			Exported:     result.Export.Delivered(),
		},
	})
	return result, nil
}

// ListLive returns snapshots of every live ticket, oldest first.
func (s *TicketService) ListLive() []TicketSnapshot {
	tickets := s.registry.List()
	out := make([]TicketSnapshot, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, snapshot(t))
	}
	return out
}

// Snapshot returns the live ticket bound to channelID.
func (s *TicketService) Snapshot(channelID string) (*TicketSnapshot, error) {
	t, ok := s.registry.TicketForChannel(channelID)
	if !ok {
		return nil, apperrors.NewTicketNotFound(channelID)
	}
	snap := snapshot(t)
	return &snap, nil
}

// CommentHistory returns a requester's notes, newest first.
func (s *TicketService) CommentHistory(ctx context.Context, requesterID string) ([]domain.CommentRecord, error) {
	return s.comments.Recent(ctx, requesterID, 0)
}

// Archives lists stored transcripts of a requester's closed tickets.
func (s *TicketService) Archives(ctx context.Context, requesterID string, limit, offset int) ([]domain.TranscriptArchive, error) {
	if s.archives == nil {
		return nil, apperrors.NewNotFound("transcript archive", map[string]any{"reason": "archive storage not configured"})
	}
	return s.archives.ListByRequester(ctx, requesterID, limit, offset)
}

func snapshot(t *registry.Ticket) TicketSnapshot {
	return TicketSnapshot{
		Ticket:  t.Info(),
		Status:  t.Status(),
		Entries: t.Transcript().Entries(),
	}
}

func (s *TicketService) discardChannel(ctx context.Context, channelID string) {
	if err := s.gateway.DeleteChannel(ctx, channelID, CloseAuditReason); err != nil {
		s.logger.Warn("orphan ticket channel not deleted", zap.String("channel_id", channelID), zap.Error(err))
	}
}

func (s *TicketService) openingNotice(t domain.Ticket) string {
	prefix := ""
	if s.emoji != "" {
		prefix = s.emoji + " "
	}
	return prefix + "**Nouveau ticket** — " + platform.UserMention(t.RequesterID) + "\n" +
		"**Catégorie :** " + t.Category + "\n" +
		"**Raison :** " + t.Detail
}

// recap renders the requester's most recent notes, or nil without history.
func (s *TicketService) recap(ctx context.Context, requesterID string) *platform.Embed {
	all, err := s.comments.ListByRequester(ctx, requesterID)
	if err != nil {
		s.logger.Warn("comment history unavailable", zap.String("requester_id", requesterID), zap.Error(err))
		return nil
	}
	if len(all) == 0 {
		return nil
	}
	recent, err := s.comments.Recent(ctx, requesterID, s.cfg.RecapLimit)
	if err != nil {
		s.logger.Warn("comment history unavailable", zap.String("requester_id", requesterID), zap.Error(err))
		return nil
	}

	lines := make([]string, 0, len(recent))
	for _, c := range recent {
		line := "• **" + c.Timestamp.UTC().Format("2006-01-02 15:04") + " UTC** — par **" + c.Author + "** : " + c.Content
		if name, ok := s.gateway.ChannelName(ctx, c.OriginChannelID); ok && name != "" {
			line += " • #" + name
		}
		lines = append(lines, line)
	}
	return &platform.Embed{
		Title:       "Historique des commentaires (" + strconv.Itoa(len(all)) + " au total)",
		Description: strings.Join(lines, "\n"),
		Color:       platform.ColorBlurple,
		Footer:      "Commentaires ajoutés via /commentaire (notes internes)",
	}
}

func (s *TicketService) createdEmbed(t domain.Ticket) *platform.Embed {
	return &platform.Embed{
		Title:       "✅ Ticket créé",
		Description: "Ton ticket a été ouvert. Tu peux répondre à ce message pour discuter avec le staff.",
		Color:       platform.ColorGreen,
		Fields: []platform.EmbedField{
			{Name: "Catégorie", Value: t.Category, Inline: true},
			{Name: "Raison", Value: t.Detail},
		},
		Footer:   s.footer(),
		ImageURL: s.bannerURL,
	}
}

func (s *TicketService) closedEmbed(t domain.Ticket) *platform.Embed {
	return &platform.Embed{
		Title:       "🗂️ Ticket fermé",
		Description: "Merci d’avoir contacté le staff. N’hésite pas à rouvrir un ticket si besoin.",
		Color:       platform.ColorDarkGrey,
		Fields:      []platform.EmbedField{{Name: "Résumé", Value: t.Reason()}},
		Footer:      s.footer(),
		ImageURL:    s.bannerURL,
	}
}

func (s *TicketService) footer() string {
	stamp := s.now().UTC().Format("02/01/2006 15:04") + " UTC"
	if s.guildName == "" {
		return stamp
	}
	return s.guildName + " • " + stamp
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}

// ChannelName derives the ticket channel name from the requester's name,
// keeping lowercase letters, digits, dashes and underscores.
func ChannelName(requesterName, requesterID string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(requesterName)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '.':
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = requesterID
	}
	return "ticket-" + slug
}

func displayName(req CreateRequest) string {
	if req.RequesterName != "" {
		return req.RequesterName
	}
	return req.RequesterID
}

func stringPreview(body string, limit int) string {
	if utf8.RuneCountInString(body) <= limit {
		return body
	}
	runes := []rune(body)
	return string(runes[:limit]) + "…"
}
