package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Slash command names.
const (
	CommentCommand = "commentaire"
	CommentOption  = "texte"
)

// Commands lists the guild slash commands.
func Commands() []*discordgo.ApplicationCommand {
	manageMessages := int64(discordgo.PermissionManageMessages)
	inDM := false
	return []*discordgo.ApplicationCommand{
		{
			Name:                     CommentCommand,
			Type:                     discordgo.ChatApplicationCommand,
			Description:              "Ajoute un commentaire interne au ticket (non envoyé au joueur).",
			DefaultMemberPermissions: &manageMessages,
			DMPermission:             &inDM,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        CommentOption,
					Description: "Contenu de la note interne",
					Required:    true,
				},
			},
		},
	}
}

// SyncCommands replaces the guild's slash commands with Commands.
func SyncCommands(s *discordgo.Session, guildID string) error {
	if s.State == nil || s.State.User == nil {
		return fmt.Errorf("sync commands: session not ready")
	}
	if _, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, Commands()); err != nil {
		return fmt.Errorf("sync commands: %w", err)
	}
	return nil
}

func optionString(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range options {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionString {
			return o.StringValue()
		}
	}
	return ""
}

// Presence sets the bot's custom status.
type Presence struct {
	Session *discordgo.Session
}

func (p Presence) SetStatus(text string) error {
	return p.Session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: string(discordgo.StatusOnline),
		Activities: []*discordgo.Activity{{
			Name:  "Custom Status",
			Type:  discordgo.ActivityTypeCustom,
			State: text,
		}},
	})
}

// EmojiMarkup returns the message markup of a guild emoji, or "" when it is
// unknown.
func EmojiMarkup(s *discordgo.Session, guildID, emojiID string) string {
	if emojiID == "" || s.State == nil {
		return ""
	}
	e, err := s.State.Emoji(guildID, emojiID)
	if err != nil {
		return ""
	}
	return e.MessageFormat()
}

// GuildName resolves the guild's display name.
func GuildName(s *discordgo.Session, guildID string) string {
	if s.State != nil {
		if g, err := s.State.Guild(guildID); err == nil && g.Name != "" {
			return g.Name
		}
	}
	if g, err := s.Guild(guildID); err == nil {
		return g.Name
	}
	return ""
}
