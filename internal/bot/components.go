package bot

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/platform"
)

// Component custom IDs.
const (
	CategorySelectID = "ticket:category"
	reasonModalID    = "ticket:reason:"
	reasonInputID    = "raison"
)

// PanelCommand is the admin text command posting the ticket panel.
const PanelCommand = "!ticket"

// panelDescription renders the panel instructions.
func panelDescription(emoji string, detailMax int) string {
	head := "# Ouvrir un ticket \n\n"
	if emoji != "" {
		head = "# " + emoji + " Ouvrir un ticket via le bot admin\n\n"
	}
	return head +
		"**Comment ça marche ?**\n" +
		"> 1️⃣ **Choisis la catégorie** de ton ticket dans le menu.\n" +
		"> 2️⃣ Une fenêtre s’ouvrira → **explique ta demande** (" + strconv.Itoa(detailMax) + " caractères max).\n" +
		"> 3️⃣ Tu recevras un **DM** du bot : continue la discussion là-bas.\n\n" +
		"**Prévention**\n" +
		"> • Si tes MP sont fermés, ouvre-les : **Paramètres utilisateur → Contenu et social → Messages privés.**"
}

// panelMessage builds the ticket panel with its category menu.
func panelMessage(emoji, bannerURL, guildName string, detailMax int, now time.Time) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Description: panelDescription(emoji, detailMax),
		Color:       platform.ColorDarkGrey,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText(guildName, now)},
	}
	if bannerURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: bannerURL}
	}
	return &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{categoryMenu()},
	}
}

func categoryMenu() discordgo.ActionsRow {
	one := 1
	options := make([]discordgo.SelectMenuOption, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		options = append(options, discordgo.SelectMenuOption{
			Label:       c.Name,
			Value:       c.Name,
			Description: c.Description,
			Emoji:       &discordgo.ComponentEmoji{Name: c.Emoji},
		})
	}
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    CategorySelectID,
			Placeholder: "Sélectionnez la catégorie…",
			MinValues:   &one,
			MaxValues:   1,
			Options:     options,
		},
	}}
}

// reasonModal asks for the ticket detail of category.
func reasonModal(category string, detailMax int) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: reasonModalID + category,
			Title:    "Ouvrir un ticket",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    reasonInputID,
						Label:       "Explique ta demande",
						Style:       discordgo.TextInputShort,
						Placeholder: "Rédige ta raison (max " + strconv.Itoa(detailMax) + " caractères)...",
						Required:    true,
						MaxLength:   detailMax,
					},
				}},
			},
		},
	}
}

// modalCategory extracts the category from a reason modal custom ID.
func modalCategory(customID string) (string, bool) {
	if !strings.HasPrefix(customID, reasonModalID) {
		return "", false
	}
	return strings.TrimPrefix(customID, reasonModalID), true
}

// textInputValue finds the value of the text input id in modal components.
func textInputValue(components []discordgo.MessageComponent, id string) string {
	for _, c := range components {
		switch v := c.(type) {
		case *discordgo.ActionsRow:
			if got := textInputValue(v.Components, id); got != "" {
				return got
			}
		case discordgo.ActionsRow:
			if got := textInputValue(v.Components, id); got != "" {
				return got
			}
		case *discordgo.TextInput:
			if v.CustomID == id {
				return v.Value
			}
		case discordgo.TextInput:
			if v.CustomID == id {
				return v.Value
			}
		}
	}
	return ""
}

func footerText(guildName string, now time.Time) string {
	stamp := now.UTC().Format("02/01/2006 15:04") + " UTC"
	if guildName == "" {
		return stamp
	}
	return guildName + " • " + stamp
}
