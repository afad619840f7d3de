package discord

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/spec-kit/ticket-bridge/internal/export"
)

// WebhookSink delivers export reports through an incoming webhook.
type WebhookSink struct {
	session *discordgo.Session
	id      string
	token   string
}

// NewWebhookSink parses rawURL (https://discord.com/api/webhooks/<id>/<token>).
// An empty URL yields a sink that reports export.ErrSinkNotConfigured.
func NewWebhookSink(session *discordgo.Session, rawURL string) (*WebhookSink, error) {
	sink := &WebhookSink{session: session}
	if strings.TrimSpace(rawURL) == "" {
		return sink, nil
	}
	id, token, err := ParseWebhookURL(rawURL)
	if err != nil {
		return nil, err
	}
	sink.id, sink.token = id, token
	return sink, nil
}

// ParseWebhookURL extracts the webhook ID and token.
func ParseWebhookURL(rawURL string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", "", fmt.Errorf("parse webhook url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", "", fmt.Errorf("webhook url %q: unsupported scheme", rawURL)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("webhook url %q: missing id or token", rawURL)
}

func (s *WebhookSink) Name() string { return "webhook" }

func (s *WebhookSink) Deliver(ctx context.Context, report export.Report) error {
	if s.id == "" {
		return export.ErrSinkNotConfigured
	}
	if _, err := s.session.WebhookExecute(s.id, s.token, true, webhookParams(report), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("execute webhook: %w", mapError(err))
	}
	return nil
}

func webhookParams(report export.Report) *discordgo.WebhookParams {
	msg := report.Message()
	send := messageSend(msg)
	return &discordgo.WebhookParams{
		Content:  send.Content,
		Username: msg.Username,
		Embeds:   send.Embeds,
		Files:    send.Files,
	}
}
