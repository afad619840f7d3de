package discord

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/export"
	"github.com/spec-kit/ticket-bridge/internal/platform"
)

func TestParseWebhookURL(t *testing.T) {
	cases := []struct {
		name    string
		url     string
		id      string
		token   string
		wantErr bool
	}{
		{"discord.com", "https://discord.com/api/webhooks/123/abc-def", "123", "abc-def", false},
		{"versioned", "https://discordapp.com/api/v10/webhooks/9/tok?wait=true", "9", "tok", false},
		{"missing token", "https://discord.com/api/webhooks/123", "", "", true},
		{"not a webhook", "https://example.com/hooks/1/2", "", "", true},
		{"bad scheme", "ftp://discord.com/api/webhooks/1/2", "", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, token, err := ParseWebhookURL(tc.url)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tc.id || token != tc.token {
				t.Errorf("got %q/%q, want %q/%q", id, token, tc.id, tc.token)
			}
		})
	}
}

func TestWebhookSinkNotConfigured(t *testing.T) {
	sink, err := NewWebhookSink(nil, "  ")
	if err != nil {
		t.Fatal(err)
	}
	if err := sink.Deliver(context.Background(), export.Report{}); !errors.Is(err, export.ErrSinkNotConfigured) {
		t.Errorf("err = %v, want ErrSinkNotConfigured", err)
	}
	if _, err := NewWebhookSink(nil, "https://discord.com/nope"); err == nil {
		t.Error("malformed webhook url should be rejected")
	}
}

func TestMapError(t *testing.T) {
	rest := func(status, code int) error {
		e := &discordgo.RESTError{Response: &http.Response{StatusCode: status}}
		if code != 0 {
			e.Message = &discordgo.APIErrorMessage{Code: code}
		}
		return e
	}

	cases := []struct {
		name string
		err  error
		want error
	}{
		{"dm closed", rest(http.StatusForbidden, discordgo.ErrCodeCannotSendMessagesToThisUser), platform.ErrRefused},
		{"forbidden", rest(http.StatusForbidden, 0), platform.ErrRefused},
		{"unknown channel", rest(http.StatusNotFound, discordgo.ErrCodeUnknownChannel), platform.ErrNotFound},
		{"not found", rest(http.StatusNotFound, 0), platform.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapError(tc.err); !errors.Is(got, tc.want) {
				t.Errorf("mapError = %v, want %v", got, tc.want)
			}
		})
	}

	plain := errors.New("boom")
	if got := mapError(plain); got != plain {
		t.Errorf("non-REST errors pass through, got %v", got)
	}
	if got := mapError(rest(http.StatusInternalServerError, 0)); errors.Is(got, platform.ErrRefused) || errors.Is(got, platform.ErrNotFound) {
		t.Errorf("server errors must not map to a sentinel, got %v", got)
	}
}

func TestChannelCreateData(t *testing.T) {
	data := channelCreateData("guild", platform.ChannelSpec{
		ParentID:         "cat",
		Name:             "ticket-alice",
		Topic:            "Ticket de alice",
		HideFromEveryone: true,
		StaffRoleID:      "staff",
	})

	if data.Type != discordgo.ChannelTypeGuildText || data.ParentID != "cat" {
		t.Fatalf("unexpected channel data: %+v", data)
	}
	if len(data.PermissionOverwrites) != 2 {
		t.Fatalf("overwrites = %d, want 2", len(data.PermissionOverwrites))
	}
	everyone, staff := data.PermissionOverwrites[0], data.PermissionOverwrites[1]
	if everyone.ID != "guild" || everyone.Deny&discordgo.PermissionViewChannel == 0 {
		t.Error("@everyone must be denied view access")
	}
	if staff.ID != "staff" || staff.Allow != staffPermissions {
		t.Error("staff role must be granted view, send and history access")
	}

	if got := channelCreateData("guild", platform.ChannelSpec{Name: "x"}).PermissionOverwrites; len(got) != 0 {
		t.Errorf("no overwrites expected, got %d", len(got))
	}
}

func TestMessageSend(t *testing.T) {
	send := messageSend(platform.Message{
		Content: "hello",
		Embed: &platform.Embed{
			Title:    "t",
			Fields:   []platform.EmbedField{{Name: "a", Value: "b", Inline: true}},
			Footer:   "foot",
			ImageURL: "https://img",
		},
		File:         &platform.File{Name: "ticket-1.txt", ContentType: "text/plain", Data: []byte("full")},
		CloseControl: true,
	})

	if send.Content != "hello" || len(send.Embeds) != 1 || len(send.Files) != 1 || len(send.Components) != 1 {
		t.Fatalf("unexpected message: %+v", send)
	}
	embed := send.Embeds[0]
	if embed.Footer == nil || embed.Footer.Text != "foot" || embed.Image == nil || len(embed.Fields) != 1 {
		t.Errorf("embed not converted: %+v", embed)
	}
	body, _ := io.ReadAll(send.Files[0].Reader)
	if string(body) != "full" {
		t.Errorf("file body = %q", body)
	}
	row, ok := send.Components[0].(discordgo.ActionsRow)
	if !ok || len(row.Components) != 1 {
		t.Fatal("expected one action row with the close button")
	}
	if btn := row.Components[0].(discordgo.Button); btn.CustomID != CloseButtonID {
		t.Errorf("button id = %q", btn.CustomID)
	}
}

func TestWebhookParamsUseSenderName(t *testing.T) {
	opened := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	report := export.Compose(domain.Ticket{RequesterID: "1", ChannelID: "c", OpenedAt: opened}, nil, opened, export.Options{SummaryBudget: 4000})

	params := webhookParams(report)
	if params.Username != export.SenderName {
		t.Errorf("username = %q", params.Username)
	}
	if len(params.Embeds) != 1 || len(params.Files) != 0 {
		t.Errorf("expected the summary only, got %d embeds %d files", len(params.Embeds), len(params.Files))
	}
}
