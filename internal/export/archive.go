package export

import (
	"context"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/repository"
)

// RepositoryArchiver stores every report through a transcript archive
// repository.
type RepositoryArchiver struct {
	repo repository.TranscriptArchiveRepository
}

// NewRepositoryArchiver builds the archiver.
func NewRepositoryArchiver(repo repository.TranscriptArchiveRepository) *RepositoryArchiver {
	return &RepositoryArchiver{repo: repo}
}

func (a *RepositoryArchiver) Archive(ctx context.Context, report Report, deliveredVia string) error {
	return a.repo.Create(ctx, &domain.TranscriptArchive{
		ID:           uuid.NewString(),
		RequesterID:  report.Ticket.RequesterID,
		ChannelID:    report.Ticket.ChannelID,
		ChannelName:  report.Ticket.ChannelName,
		Reason:       report.Ticket.Reason(),
		OpenedAt:     report.Ticket.OpenedAt,
		ClosedAt:     report.ClosedAt,
		MessageCount: report.MessageCount,
		Transcript:   report.Transcript,
		Truncated:    report.Truncated,
		DeliveredVia: deliveredVia,
	})
}
