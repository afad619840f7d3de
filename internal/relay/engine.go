// Package relay bridges a requester's private channel and the staff ticket
// channel, recording every relayed message in the ticket transcript.
package relay

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/events"
	"github.com/spec-kit/ticket-bridge/internal/observability"
	"github.com/spec-kit/ticket-bridge/internal/platform"
	"github.com/spec-kit/ticket-bridge/internal/registry"
)

// RefusedWarning is posted in the ticket channel when the requester cannot
// be reached.
const RefusedWarning = "⚠️ Impossible d’envoyer un DM au joueur (MP fermés)."

// PrivateMessage is an inbound message from a requester's private channel.
type PrivateMessage struct {
	SenderID    string
	SenderName  string
	Bot         bool
	Text        string
	Attachments []string
}

// ChannelMessage is an inbound message from a guild text channel.
type ChannelMessage struct {
	ChannelID   string
	AuthorID    string
	AuthorName  string
	Bot         bool
	Text        string
	Attachments []string
}

// Engine relays messages for live tickets.
type Engine struct {
	registry   *registry.Registry
	gateway    platform.Gateway
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	prefixes   []string
	now        func() time.Time
}

// Dependencies bundles the engine collaborators.
type Dependencies struct {
	Registry   *registry.Registry
	Gateway    platform.Gateway
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	// CommandPrefixes mark staff-side messages that are commands rather
	// than conversation.
	CommandPrefixes []string
	Now             func() time.Time
}

// NewEngine constructs the relay engine.
func NewEngine(deps Dependencies) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		registry:   deps.Registry,
		gateway:    deps.Gateway,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		prefixes:   deps.CommandPrefixes,
		now:        now,
	}
}

// HandlePrivateMessage forwards a requester's message to their ticket
// channel. Messages from bots or from members without a live ticket are
// dropped.
func (e *Engine) HandlePrivateMessage(ctx context.Context, msg PrivateMessage) {
	if msg.Bot {
		return
	}
	ticket, ok := e.registry.LookupByUser(msg.SenderID)
	if !ok {
		return
	}
	channelID := ticket.Info().ChannelID
	author := domain.TaggedAuthor(msg.SenderName, domain.AuthorTagRequester)

	delivered := true
	ran := ticket.Serialize(func() {
		if hasText(msg.Text) {
			ticket.Transcript().Append(e.entry(author, msg.Text, false))
			forward := platform.Message{Content: "**" + author + "** : " + msg.Text}
			if err := e.gateway.Send(ctx, channelID, forward); err != nil {
				delivered = false
				e.logger.Warn("relay to ticket channel failed",
					zap.String("requester_id", msg.SenderID),
					zap.String("channel_id", channelID),
					zap.Error(err))
			}
		}
		for _, ref := range msg.Attachments {
			ticket.Transcript().Append(e.entry(author, ref, true))
			if err := e.gateway.Send(ctx, channelID, platform.Message{Content: ref}); err != nil {
				delivered = false
				e.logger.Warn("attachment relay to ticket channel failed",
					zap.String("requester_id", msg.SenderID),
					zap.String("channel_id", channelID),
					zap.Error(err))
			}
		}
	})
	if !ran {
		return
	}

	e.metrics.Inc(observability.CounterRelayToStaff)
	e.publish(ctx, ticket.Info(), events.Actor{UserID: msg.SenderID, Name: msg.SenderName}, events.MessageRelayedPayload{
		Direction:   events.DirectionToStaff,
		Attachments: len(msg.Attachments),
		HasText:     hasText(msg.Text),
		Delivered:   delivered,
	})
}

// HandleChannelMessage forwards a staff message from a ticket channel to the
// requester. Bots, command invocations and channels without a live ticket
// are ignored.
func (e *Engine) HandleChannelMessage(ctx context.Context, msg ChannelMessage) {
	if msg.Bot || e.isCommand(msg.Text) {
		return
	}
	ticket, ok := e.registry.TicketForChannel(msg.ChannelID)
	if !ok {
		return
	}
	requesterID := ticket.Info().RequesterID
	author := domain.TaggedAuthor(msg.AuthorName, domain.AuthorTagStaff)

	delivered := true
	ran := ticket.Serialize(func() {
		if hasText(msg.Text) {
			ticket.Transcript().Append(e.entry(author, msg.Text, false))
			forward := platform.Message{Content: "**" + author + "** : " + msg.Text}
			if err := e.gateway.SendDirect(ctx, requesterID, forward); err != nil {
				delivered = false
				e.refused(ctx, msg.ChannelID, requesterID, err, true)
			}
		}
		for _, ref := range msg.Attachments {
			ticket.Transcript().Append(e.entry(author, ref, true))
			if err := e.gateway.SendDirect(ctx, requesterID, platform.Message{Content: ref}); err != nil {
				delivered = false
				// The attachment stays visible in the channel history.
				e.refused(ctx, msg.ChannelID, requesterID, err, false)
			}
		}
	})
	if !ran {
		return
	}

	e.metrics.Inc(observability.CounterRelayToRequester)
	e.publish(ctx, ticket.Info(), events.Actor{UserID: msg.AuthorID, Name: msg.AuthorName, Staff: true}, events.MessageRelayedPayload{
		Direction:   events.DirectionToRequester,
		Attachments: len(msg.Attachments),
		HasText:     hasText(msg.Text),
		Delivered:   delivered,
	})
}

func (e *Engine) refused(ctx context.Context, channelID, requesterID string, err error, warn bool) {
	if !errors.Is(err, platform.ErrRefused) {
		e.logger.Warn("relay to requester failed",
			zap.String("requester_id", requesterID),
			zap.Error(err))
		return
	}
	e.metrics.Inc(observability.CounterDeliveryRefused)
	if !warn {
		return
	}
	if err := e.gateway.Send(ctx, channelID, platform.Message{Content: RefusedWarning}); err != nil {
		e.logger.Warn("refusal warning not posted",
			zap.String("channel_id", channelID),
			zap.Error(err))
	}
}

func (e *Engine) isCommand(text string) bool {
	for _, p := range e.prefixes {
		if p != "" && strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}

func (e *Engine) entry(author, content string, attachment bool) domain.TranscriptEntry {
	return domain.TranscriptEntry{
		Author:       author,
		Content:      content,
		Timestamp:    e.now().UTC(),
		IsAttachment: attachment,
	}
}

func (e *Engine) publish(ctx context.Context, t domain.Ticket, actor events.Actor, payload events.MessageRelayedPayload) {
	if e.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventMessageRelayed,
		RequesterID: t.RequesterID,
		ChannelID:   t.ChannelID,
		Actor:       actor,
		Timestamp:   e.now().UTC(),
		Payload:     payload,
	}
	if err := e.dispatcher.Publish(ctx, event); err != nil {
		e.logger.Warn("relay event handler failed", zap.String("event_id", event.ID), zap.Error(err))
	}
}

func hasText(text string) bool {
	return strings.TrimSpace(text) != ""
}
