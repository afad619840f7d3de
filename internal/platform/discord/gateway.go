// Package discord implements platform.Gateway on top of a discordgo session.
package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/platform"
)

// CloseButtonID is the custom ID of the ticket close control.
const CloseButtonID = "ticket:close"

const staffPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory

// Gateway talks to one guild through a discordgo session.
type Gateway struct {
	session *discordgo.Session
	guildID string
	logger  *zap.Logger
}

// NewGateway wraps session for guildID.
func NewGateway(session *discordgo.Session, guildID string, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{session: session, guildID: guildID, logger: logger}
}

func (g *Gateway) CategoryExists(ctx context.Context, categoryID string) bool {
	ch, ok := g.channel(ctx, categoryID)
	return ok && ch.Type == discordgo.ChannelTypeGuildCategory
}

func (g *Gateway) ChannelExists(ctx context.Context, channelID string) bool {
	_, ok := g.channel(ctx, channelID)
	return ok
}

func (g *Gateway) ChannelName(ctx context.Context, channelID string) (string, bool) {
	ch, ok := g.channel(ctx, channelID)
	if !ok || ch == nil {
		return "", false
	}
	return ch.Name, true
}

// channel resolves a channel from the state cache, falling back to REST.
// Transport errors other than "unknown channel" count as present so a
// flaky lookup never discards a live ticket.
func (g *Gateway) channel(ctx context.Context, id string) (*discordgo.Channel, bool) {
	if id == "" {
		return nil, false
	}
	if g.session.State != nil {
		if ch, err := g.session.State.Channel(id); err == nil {
			return ch, true
		}
	}
	ch, err := g.session.Channel(id, discordgo.WithContext(ctx))
	if err == nil {
		return ch, true
	}
	if errors.Is(mapError(err), platform.ErrNotFound) {
		return nil, false
	}
	g.logger.Warn("channel lookup failed", zap.String("channel_id", id), zap.Error(err))
	return &discordgo.Channel{ID: id}, true
}

func (g *Gateway) CreateChannel(ctx context.Context, spec platform.ChannelSpec) (string, error) {
	ch, err := g.session.GuildChannelCreateComplex(g.guildID, channelCreateData(g.guildID, spec), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create channel %s: %w", spec.Name, mapError(err))
	}
	return ch.ID, nil
}

func (g *Gateway) DeleteChannel(ctx context.Context, channelID, reason string) error {
	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}
	if _, err := g.session.ChannelDelete(channelID, opts...); err != nil {
		return fmt.Errorf("delete channel %s: %w", channelID, mapError(err))
	}
	return nil
}

func (g *Gateway) Send(ctx context.Context, channelID string, msg platform.Message) error {
	if _, err := g.session.ChannelMessageSendComplex(channelID, messageSend(msg), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send to channel %s: %w", channelID, mapError(err))
	}
	return nil
}

func (g *Gateway) SendDirect(ctx context.Context, userID string, msg platform.Message) error {
	dm, err := g.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm with %s: %w", userID, mapError(err))
	}
	if _, err := g.session.ChannelMessageSendComplex(dm.ID, messageSend(msg), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send dm to %s: %w", userID, mapError(err))
	}
	return nil
}

func channelCreateData(guildID string, spec platform.ChannelSpec) discordgo.GuildChannelCreateData {
	var overwrites []*discordgo.PermissionOverwrite
	if spec.HideFromEveryone {
		// The @everyone role shares the guild ID.
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		})
	}
	if spec.StaffRoleID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    spec.StaffRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: staffPermissions,
		})
	}
	return discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                spec.Topic,
		ParentID:             spec.ParentID,
		PermissionOverwrites: overwrites,
	}
}

func messageSend(msg platform.Message) *discordgo.MessageSend {
	out := &discordgo.MessageSend{Content: msg.Content}
	if msg.Embed != nil {
		out.Embeds = []*discordgo.MessageEmbed{toEmbed(*msg.Embed)}
	}
	if msg.File != nil {
		out.Files = []*discordgo.File{toFile(*msg.File)}
	}
	if msg.CloseControl {
		out.Components = []discordgo.MessageComponent{CloseControl()}
	}
	return out
}

// CloseControl is the action row carrying the close button.
func CloseControl() discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "Fermer le ticket",
			Style:    discordgo.DangerButton,
			CustomID: CloseButtonID,
			Emoji:    &discordgo.ComponentEmoji{Name: "🔒"},
		},
	}}
}

func toEmbed(e platform.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	if e.ImageURL != "" {
		out.Image = &discordgo.MessageEmbedImage{URL: e.ImageURL}
	}
	return out
}

func toFile(f platform.File) *discordgo.File {
	return &discordgo.File{
		Name:        f.Name,
		ContentType: f.ContentType,
		Reader:      bytes.NewReader(f.Data),
	}
}

// mapError translates discordgo REST failures into platform sentinels.
func mapError(err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return err
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeCannotSendMessagesToThisUser:
			return fmt.Errorf("%w: %v", platform.ErrRefused, err)
		case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownUser, discordgo.ErrCodeUnknownWebhook:
			return fmt.Errorf("%w: %v", platform.ErrNotFound, err)
		}
	}
	if restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", platform.ErrRefused, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", platform.ErrNotFound, err)
		}
	}
	return err
}
