package bot

import (
	"errors"
	"strconv"

	"github.com/spec-kit/ticket-bridge/internal/platform"
	"github.com/spec-kit/ticket-bridge/internal/service"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

const genericFailure = "❌ Une erreur est survenue, réessaie plus tard."

func createReply(res *service.CreateResult, err error, detailMax int) string {
	switch {
	case err == nil && res != nil && res.Existing:
		return "⚠️ Tu as déjà un ticket ouvert : <#" + res.Ticket.ChannelID + ">. Merci d’utiliser celui-ci."
	case err == nil && res != nil && !res.Notified:
		return "⚠️ Impossible d’envoyer un DM (MP fermés)."
	case err == nil:
		return "✅ Ticket créé. Vérifie tes DM."
	case apperrors.HasCode(err, apperrors.CodeCategoryUnavailable),
		apperrors.HasCode(err, apperrors.CodeCategoryNotFound):
		return "⚠️ Catégorie non configurée."
	case apperrors.HasCode(err, apperrors.CodeValidationFailed):
		return "⚠️ Explique ta demande en " + strconv.Itoa(detailMax) + " caractères maximum."
	case errors.Is(err, platform.ErrRefused):
		return "⚠️ Impossible d’envoyer un DM (MP fermés)."
	default:
		return genericFailure
	}
}

func annotateReply(err error) string {
	switch {
	case err == nil:
		return "📝 Commentaire ajouté (note interne liée au joueur)."
	case apperrors.HasCode(err, apperrors.CodeNotATicketChannel),
		apperrors.HasCode(err, apperrors.CodeTicketNotFound):
		return "Ce salon n'est pas lié à un ticket actif."
	case apperrors.HasCode(err, apperrors.CodeValidationFailed):
		return "⚠️ Le commentaire ne peut pas être vide."
	default:
		return genericFailure
	}
}

func closeReply(err error) string {
	if apperrors.HasCode(err, apperrors.CodeTicketNotFound) {
		return "Ticket introuvable."
	}
	return genericFailure
}
