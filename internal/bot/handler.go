// Package bot dispatches Discord gateway events to the ticket lifecycle and
// the relay engine.
package bot

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/events"
	"github.com/spec-kit/ticket-bridge/internal/platform/discord"
	"github.com/spec-kit/ticket-bridge/internal/relay"
	"github.com/spec-kit/ticket-bridge/internal/service"
)

// TicketLifecycle is the part of the ticket service driven by interactions.
type TicketLifecycle interface {
	Create(ctx context.Context, req service.CreateRequest) (*service.CreateResult, error)
	Annotate(ctx context.Context, channelID string, actor events.Actor, text string) (*domain.CommentRecord, error)
	Close(ctx context.Context, channelID string, actor events.Actor) (*service.CloseResult, error)
}

// Relay consumes conversation messages.
type Relay interface {
	HandlePrivateMessage(ctx context.Context, msg relay.PrivateMessage)
	HandleChannelMessage(ctx context.Context, msg relay.ChannelMessage)
}

// Options configures the handler.
type Options struct {
	GuildID   string
	GuildName string
	// Emoji is the message markup of the panel emoji, empty for none.
	Emoji     string
	BannerURL string
	DetailMax int
	// Timeout bounds the work done for a single event.
	Timeout time.Duration
}

// Handler routes gateway events.
type Handler struct {
	tickets TicketLifecycle
	relay   Relay
	logger  *zap.Logger
	opts    Options
	now     func() time.Time
}

// NewHandler builds the event handler.
func NewHandler(tickets TicketLifecycle, relay Relay, logger *zap.Logger, opts Options) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Handler{tickets: tickets, relay: relay, logger: logger, opts: opts, now: time.Now}
}

// Register attaches the handler to session.
func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(h.onMessageCreate)
	s.AddHandler(h.onInteractionCreate)
}

func (h *Handler) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || isSelf(s, m.Author.ID) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.Timeout)
	defer cancel()

	if m.GuildID == "" {
		h.relay.HandlePrivateMessage(ctx, privateMessage(m.Message))
		return
	}
	if m.GuildID != h.opts.GuildID {
		return
	}
	if !m.Author.Bot && strings.TrimSpace(m.Content) == PanelCommand {
		h.postPanel(s, m.Message)
		return
	}
	h.relay.HandleChannelMessage(ctx, channelMessage(m.Message))
}

func (h *Handler) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID != "" && i.GuildID != h.opts.GuildID {
		return
	}
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		switch data.CustomID {
		case CategorySelectID:
			if len(data.Values) == 0 {
				return
			}
			if err := s.InteractionRespond(i.Interaction, reasonModal(data.Values[0], h.opts.DetailMax)); err != nil {
				h.logger.Warn("reason modal not shown", zap.Error(err))
			}
		case discord.CloseButtonID:
			h.closeTicket(s, i.Interaction)
		}
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		if category, ok := modalCategory(data.CustomID); ok {
			h.createTicket(s, i.Interaction, category, textInputValue(data.Components, reasonInputID))
		}
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		if data.Name == CommentCommand {
			h.annotate(s, i.Interaction, optionString(data.Options, CommentOption))
		}
	}
}

func (h *Handler) createTicket(s *discordgo.Session, i *discordgo.Interaction, category, detail string) {
	if !h.deferEphemeral(s, i) {
		return
	}
	user := interactionUser(i)
	if user == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.Timeout)
	defer cancel()

	res, err := h.tickets.Create(ctx, service.CreateRequest{
		RequesterID:   user.ID,
		RequesterName: user.Username,
		Category:      category,
		Detail:        detail,
	})
	if err != nil {
		h.logger.Info("ticket creation rejected", zap.String("requester_id", user.ID), zap.Error(err))
	}
	h.editReply(s, i, createReply(res, err, h.opts.DetailMax))
}

func (h *Handler) annotate(s *discordgo.Session, i *discordgo.Interaction, text string) {
	if !h.deferEphemeral(s, i) {
		return
	}
	user := interactionUser(i)
	if user == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.Timeout)
	defer cancel()

	_, err := h.tickets.Annotate(ctx, i.ChannelID, events.Actor{UserID: user.ID, Name: user.Username, Staff: true}, text)
	h.editReply(s, i, annotateReply(err))
}

func (h *Handler) closeTicket(s *discordgo.Session, i *discordgo.Interaction) {
	ack := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}
	if err := s.InteractionRespond(i, ack); err != nil {
		h.logger.Warn("close acknowledgement failed", zap.Error(err))
		return
	}
	user := interactionUser(i)
	if user == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.Timeout)
	defer cancel()

	if _, err := h.tickets.Close(ctx, i.ChannelID, events.Actor{UserID: user.ID, Name: user.Username, Staff: true}); err != nil {
		_, ferr := s.FollowupMessageCreate(i, false, &discordgo.WebhookParams{
			Content: closeReply(err),
			Flags:   discordgo.MessageFlagsEphemeral,
		})
		if ferr != nil {
			h.logger.Warn("close failure not reported", zap.Error(ferr))
		}
	}
}

func (h *Handler) postPanel(s *discordgo.Session, m *discordgo.Message) {
	perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil || perms&discordgo.PermissionAdministrator == 0 {
		return
	}
	if _, err := s.ChannelMessageSendComplex(m.ChannelID, panelMessage(h.opts.Emoji, h.opts.BannerURL, h.opts.GuildName, h.opts.DetailMax, h.now())); err != nil {
		h.logger.Warn("ticket panel not posted", zap.String("channel_id", m.ChannelID), zap.Error(err))
	}
}

func (h *Handler) deferEphemeral(s *discordgo.Session, i *discordgo.Interaction) bool {
	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		h.logger.Warn("interaction acknowledgement failed", zap.Error(err))
		return false
	}
	return true
}

func (h *Handler) editReply(s *discordgo.Session, i *discordgo.Interaction, content string) {
	if _, err := s.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content}); err != nil {
		h.logger.Warn("interaction reply failed", zap.Error(err))
	}
}

func privateMessage(m *discordgo.Message) relay.PrivateMessage {
	return relay.PrivateMessage{
		SenderID:    m.Author.ID,
		SenderName:  m.Author.Username,
		Bot:         m.Author.Bot,
		Text:        m.Content,
		Attachments: attachmentURLs(m.Attachments),
	}
}

func channelMessage(m *discordgo.Message) relay.ChannelMessage {
	return relay.ChannelMessage{
		ChannelID:   m.ChannelID,
		AuthorID:    m.Author.ID,
		AuthorName:  m.Author.Username,
		Bot:         m.Author.Bot,
		Text:        m.Content,
		Attachments: attachmentURLs(m.Attachments),
	}
}

func attachmentURLs(attachments []*discordgo.MessageAttachment) []string {
	out := make([]string, 0, len(attachments))
	for _, a := range attachments {
		if a != nil && a.URL != "" {
			out = append(out, a.URL)
		}
	}
	return out
}

func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func isSelf(s *discordgo.Session, userID string) bool {
	return s != nil && s.State != nil && s.State.User != nil && s.State.User.ID == userID
}
