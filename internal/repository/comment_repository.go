package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-bridge/internal/domain"
)

// CommentRepository stores staff annotations per requester. Records are
// append-only and outlive the ticket they were written in.
type CommentRepository interface {
	Append(ctx context.Context, record *domain.CommentRecord) error
	ListByRequester(ctx context.Context, requesterID string) ([]domain.CommentRecord, error)
	Recent(ctx context.Context, requesterID string, limit int) ([]domain.CommentRecord, error)
}

type memoryCommentRepository struct {
	mu      sync.RWMutex
	records map[string][]domain.CommentRecord
}

// NewMemoryCommentRepository builds the process-lifetime comment store.
func NewMemoryCommentRepository() CommentRepository {
	return &memoryCommentRepository{records: make(map[string][]domain.CommentRecord)}
}

func (r *memoryCommentRepository) Append(_ context.Context, record *domain.CommentRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.RequesterID] = append(r.records[record.RequesterID], *record)
	return nil
}

// ListByRequester returns the history in insertion order.
func (r *memoryCommentRepository) ListByRequester(_ context.Context, requesterID string) ([]domain.CommentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.CommentRecord(nil), r.records[requesterID]...), nil
}

// Recent returns up to limit records, newest first. A non-positive limit
// returns everything.
func (r *memoryCommentRepository) Recent(ctx context.Context, requesterID string, limit int) ([]domain.CommentRecord, error) {
	items, err := r.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	// Reverse first so the stable sort keeps later inserts ahead of
	// earlier ones sharing a timestamp.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
