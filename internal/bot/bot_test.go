package bot

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/service"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

func TestPanelMessage(t *testing.T) {
	now := time.Date(2025, 3, 9, 14, 5, 0, 0, time.UTC)
	msg := panelMessage("<:logo:42>", "https://cdn.example/banner.png", "Ile RP", 55, now)

	if len(msg.Embeds) != 1 {
		t.Fatalf("embeds = %d", len(msg.Embeds))
	}
	embed := msg.Embeds[0]
	if !strings.HasPrefix(embed.Description, "# <:logo:42> Ouvrir un ticket") {
		t.Errorf("description head = %q", embed.Description[:40])
	}
	if !strings.Contains(embed.Description, "(55 caractères max)") {
		t.Errorf("description lacks the detail limit: %q", embed.Description)
	}
	if embed.Image == nil || embed.Image.URL != "https://cdn.example/banner.png" {
		t.Errorf("image = %+v", embed.Image)
	}
	if embed.Footer.Text != "Ile RP • 09/03/2025 14:05 UTC" {
		t.Errorf("footer = %q", embed.Footer.Text)
	}

	row := msg.Components[0].(discordgo.ActionsRow)
	menu := row.Components[0].(discordgo.SelectMenu)
	if menu.CustomID != CategorySelectID || len(menu.Options) != len(domain.Categories) {
		t.Fatalf("menu = %s with %d options", menu.CustomID, len(menu.Options))
	}
	if menu.Options[0].Value != "Plainte" || menu.Options[0].Emoji.Name != "📣" {
		t.Errorf("first option = %+v", menu.Options[0])
	}
}

func TestPanelWithoutEmojiOrBanner(t *testing.T) {
	msg := panelMessage("", "", "", 55, time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC))
	embed := msg.Embeds[0]
	if !strings.HasPrefix(embed.Description, "# Ouvrir un ticket") {
		t.Errorf("description = %q", embed.Description)
	}
	if embed.Image != nil {
		t.Errorf("unexpected image %+v", embed.Image)
	}
	if embed.Footer.Text != "02/01/2025 03:04 UTC" {
		t.Errorf("footer = %q", embed.Footer.Text)
	}
}

func TestReasonModalRoundTrip(t *testing.T) {
	resp := reasonModal("Candidature RP", 55)
	if resp.Type != discordgo.InteractionResponseModal {
		t.Fatalf("type = %v", resp.Type)
	}
	category, ok := modalCategory(resp.Data.CustomID)
	if !ok || category != "Candidature RP" {
		t.Errorf("modalCategory = %q, %v", category, ok)
	}
	input := resp.Data.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.TextInput)
	if input.MaxLength != 55 || !input.Required || input.CustomID != reasonInputID {
		t.Errorf("input = %+v", input)
	}

	if _, ok := modalCategory("other:modal"); ok {
		t.Error("foreign modal accepted")
	}
}

func TestTextInputValue(t *testing.T) {
	components := []discordgo.MessageComponent{
		&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: "other", Value: "nope"},
		}},
		&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: reasonInputID, Value: "lost my house"},
		}},
	}
	if got := textInputValue(components, reasonInputID); got != "lost my house" {
		t.Errorf("value = %q", got)
	}
	if got := textInputValue(components, "missing"); got != "" {
		t.Errorf("missing value = %q", got)
	}
}

func TestCommands(t *testing.T) {
	cmds := Commands()
	if len(cmds) != 1 {
		t.Fatalf("commands = %d", len(cmds))
	}
	c := cmds[0]
	if c.Name != CommentCommand || c.DMPermission == nil || *c.DMPermission {
		t.Errorf("command = %+v", c)
	}
	if c.DefaultMemberPermissions == nil || *c.DefaultMemberPermissions != discordgo.PermissionManageMessages {
		t.Errorf("permissions = %v", c.DefaultMemberPermissions)
	}
	if len(c.Options) != 1 || c.Options[0].Name != CommentOption || !c.Options[0].Required {
		t.Errorf("options = %+v", c.Options)
	}
}

func TestOptionString(t *testing.T) {
	opts := []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: CommentOption, Type: discordgo.ApplicationCommandOptionString, Value: "payment pending"},
	}
	if got := optionString(opts, CommentOption); got != "payment pending" {
		t.Errorf("got %q", got)
	}
	if got := optionString(opts, "autre"); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestAttachmentURLs(t *testing.T) {
	got := attachmentURLs([]*discordgo.MessageAttachment{
		{URL: "https://cdn/a.png"},
		nil,
		{URL: ""},
		{URL: "https://cdn/b.txt"},
	})
	if len(got) != 2 || got[0] != "https://cdn/a.png" || got[1] != "https://cdn/b.txt" {
		t.Errorf("urls = %v", got)
	}
}

func TestInteractionUser(t *testing.T) {
	member := &discordgo.Interaction{Member: &discordgo.Member{User: &discordgo.User{ID: "m"}}, User: &discordgo.User{ID: "u"}}
	if got := interactionUser(member); got.ID != "m" {
		t.Errorf("member interaction user = %s", got.ID)
	}
	dm := &discordgo.Interaction{User: &discordgo.User{ID: "u"}}
	if got := interactionUser(dm); got.ID != "u" {
		t.Errorf("dm interaction user = %s", got.ID)
	}
}

func TestCreateReply(t *testing.T) {
	existing := &service.CreateResult{Ticket: domain.Ticket{ChannelID: "c9"}, Existing: true}
	cases := []struct {
		name string
		res  *service.CreateResult
		err  error
		want string
	}{
		{"created", &service.CreateResult{Notified: true}, nil, "✅ Ticket créé. Vérifie tes DM."},
		{"existing", existing, nil, "⚠️ Tu as déjà un ticket ouvert : <#c9>. Merci d’utiliser celui-ci."},
		{"dm closed", &service.CreateResult{}, nil, "⚠️ Impossible d’envoyer un DM (MP fermés)."},
		{"unconfigured", nil, apperrors.NewCategoryUnavailable("Autre"), "⚠️ Catégorie non configurée."},
		{"too long", nil, apperrors.NewValidationError("detail is too long", nil), "⚠️ Explique ta demande en 55 caractères maximum."},
		{"internal", nil, apperrors.NewInternalError(errors.New("boom")), genericFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := createReply(tc.res, tc.err, 55); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAnnotateAndCloseReplies(t *testing.T) {
	if got := annotateReply(nil); got != "📝 Commentaire ajouté (note interne liée au joueur)." {
		t.Errorf("annotate ok = %q", got)
	}
	if got := annotateReply(apperrors.NewNotATicketChannel("c1")); got != "Ce salon n'est pas lié à un ticket actif." {
		t.Errorf("annotate outside = %q", got)
	}
	if got := closeReply(apperrors.NewTicketNotFound("c1")); got != "Ticket introuvable." {
		t.Errorf("close unknown = %q", got)
	}
	if got := closeReply(errors.New("boom")); got != genericFailure {
		t.Errorf("close failure = %q", got)
	}
}
