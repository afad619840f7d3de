package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-bridge/internal/domain"
)

// TranscriptArchiveRepository stores exported transcripts of closed tickets.
type TranscriptArchiveRepository interface {
	Create(ctx context.Context, archive *domain.TranscriptArchive) error
	ListByRequester(ctx context.Context, requesterID string, limit, offset int) ([]domain.TranscriptArchive, error)
}

type transcriptArchiveRepository struct {
	pool *pgxpool.Pool
}

// NewTranscriptArchiveRepository builds repository.
func NewTranscriptArchiveRepository(pool *pgxpool.Pool) TranscriptArchiveRepository {
	return &transcriptArchiveRepository{pool: pool}
}

func (r *transcriptArchiveRepository) Create(ctx context.Context, archive *domain.TranscriptArchive) error {
	const query = `
        INSERT INTO transcript_archives (id, requester_id, channel_id, channel_name, reason, opened_at, closed_at,
            message_count, transcript, truncated, delivered_via)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		archive.ID,
		archive.RequesterID,
		archive.ChannelID,
		archive.ChannelName,
		archive.Reason,
		archive.OpenedAt,
		archive.ClosedAt,
		archive.MessageCount,
		archive.Transcript,
		archive.Truncated,
		archive.DeliveredVia,
	).Scan(&archive.CreatedAt)
}

func (r *transcriptArchiveRepository) ListByRequester(ctx context.Context, requesterID string, limit, offset int) ([]domain.TranscriptArchive, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
        SELECT id, requester_id, channel_id, channel_name, reason, opened_at, closed_at,
               message_count, transcript, truncated, delivered_via, created_at
        FROM transcript_archives WHERE requester_id=$1
        ORDER BY closed_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, requesterID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TranscriptArchive
	for rows.Next() {
		var archive domain.TranscriptArchive
		if err := rows.Scan(
			&archive.ID,
			&archive.RequesterID,
			&archive.ChannelID,
			&archive.ChannelName,
			&archive.Reason,
			&archive.OpenedAt,
			&archive.ClosedAt,
			&archive.MessageCount,
			&archive.Transcript,
			&archive.Truncated,
			&archive.DeliveredVia,
			&archive.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, archive)
	}
	return result, rows.Err()
}
