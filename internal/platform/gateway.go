// Package platform defines the boundary between the ticket core and the chat
// platform hosting it: channel provisioning, message delivery and lookups.
package platform

import (
	"context"
	"errors"
)

var (
	// ErrRefused means the target exists but will not accept the message,
	// typically a member whose direct messages are closed.
	ErrRefused = errors.New("platform: delivery refused")
	// ErrNotFound means the target channel or user does not exist.
	ErrNotFound = errors.New("platform: target not found")
)

// Gateway is the set of platform operations the ticket core relies on.
type Gateway interface {
	// CategoryExists reports whether a channel container still exists.
	CategoryExists(ctx context.Context, categoryID string) bool
	// ChannelExists reports whether a text channel still exists.
	ChannelExists(ctx context.Context, channelID string) bool
	// ChannelName returns a channel's display name.
	ChannelName(ctx context.Context, channelID string) (string, bool)
	// CreateChannel provisions a ticket channel and returns its ID.
	CreateChannel(ctx context.Context, spec ChannelSpec) (string, error)
	// DeleteChannel removes a channel.
	DeleteChannel(ctx context.Context, channelID, reason string) error
	// Send posts a message into a channel.
	Send(ctx context.Context, channelID string, msg Message) error
	// SendDirect posts a message into a user's private channel.
	SendDirect(ctx context.Context, userID string, msg Message) error
}

// ChannelSpec describes a ticket channel to provision.
type ChannelSpec struct {
	ParentID string
	Name     string
	Topic    string
	// HideFromEveryone denies view access to the general membership.
	HideFromEveryone bool
	// StaffRoleID, when set, is granted view/send/history access.
	StaffRoleID string
}

// Message is an outbound message. Any combination of fields may be set.
type Message struct {
	Content string
	Embed   *Embed
	File    *File
	// CloseControl attaches the ticket close button.
	CloseControl bool
	// Username overrides the sender name where the platform allows it
	// (webhooks).
	Username string
}

// Embed is a structured rich summary.
type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
	Footer      string
	ImageURL    string
}

// EmbedField is one name/value pair of an Embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// File is a downloadable attachment.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Embed colors.
const (
	ColorGreen    = 0x57F287
	ColorDarkGrey = 0x607D8B
	ColorBlurple  = 0x5865F2
)

// UserMention renders a user reference that the platform expands to a
// clickable name.
func UserMention(userID string) string {
	return "<@" + userID + ">"
}

// ChannelMention renders a clickable channel reference.
func ChannelMention(channelID string) string {
	return "<#" + channelID + ">"
}
