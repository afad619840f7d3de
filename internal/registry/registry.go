// Package registry owns every live ticket of the process and the indices
// used to find them from either side of the relay.
//
// A Registry is created once at start-up and lives for the process; nothing
// is persisted. It guarantees at most one live ticket per requester and
// keeps the requester→ticket and channel→requester indices consistent under
// a single lock. The lock is never held while calling out to the platform.
package registry

import (
	"sort"
	"sync"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

// ChannelExists reports whether a channel is still present on the platform.
type ChannelExists func(channelID string) bool

// Registry maps requesters to live tickets and channels back to requesters.
type Registry struct {
	mu        sync.RWMutex
	byUser    map[string]*Ticket
	byChannel map[string]string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		byUser:    make(map[string]*Ticket),
		byChannel: make(map[string]string),
	}
}

// Create registers a ticket for info.RequesterID on info.ChannelID.
//
// When the requester already owns a ticket whose channel still exists the
// existing ticket is returned together with a DUPLICATE_TICKET error. A
// ticket whose channel has disappeared is discarded and creation proceeds.
func (r *Registry) Create(info domain.Ticket, exists ChannelExists) (*Ticket, error) {
	if existing := r.Active(info.RequesterID, exists); existing != nil {
		return existing, apperrors.NewDuplicateTicket(info.RequesterID, existing.info.ChannelID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byUser[info.RequesterID]; ok {
		// Lost a race with a concurrent Create for the same requester.
		return existing, apperrors.NewDuplicateTicket(info.RequesterID, existing.info.ChannelID)
	}
	if owner, taken := r.byChannel[info.ChannelID]; taken {
		return nil, apperrors.NewConflict("channel already linked to a ticket", map[string]any{
			"channel_id":   info.ChannelID,
			"requester_id": owner,
		})
	}

	ticket := newTicket(info)
	r.byUser[info.RequesterID] = ticket
	r.byChannel[info.ChannelID] = info.RequesterID
	return ticket, nil
}

// Active returns the requester's live ticket, discarding it first when its
// channel no longer exists.
func (r *Registry) Active(requesterID string, exists ChannelExists) *Ticket {
	for {
		r.mu.RLock()
		existing := r.byUser[requesterID]
		r.mu.RUnlock()
		if existing == nil {
			return nil
		}
		if exists == nil || exists(existing.info.ChannelID) {
			return existing
		}

		r.mu.Lock()
		if r.byUser[requesterID] != existing {
			// Replaced while we were checking the channel; look again.
			r.mu.Unlock()
			continue
		}
		r.removeLocked(existing)
		r.mu.Unlock()
		existing.discard()
		return nil
	}
}

// LookupByUser returns the requester's live ticket.
func (r *Registry) LookupByUser(requesterID string) (*Ticket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byUser[requesterID]
	return t, ok
}

// LookupByChannel returns the requester owning channelID.
func (r *Registry) LookupByChannel(channelID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byChannel[channelID]
	return id, ok
}

// TicketForChannel resolves a channel straight to its ticket.
func (r *Registry) TicketForChannel(channelID string) (*Ticket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	requesterID, ok := r.byChannel[channelID]
	if !ok {
		return nil, false
	}
	t, ok := r.byUser[requesterID]
	return t, ok
}

// Close removes t from both indices. It reports false when t is no longer
// the requester's live ticket, e.g. after a stale-channel discard let a
// newer ticket take its place; the newer ticket is left untouched.
func (r *Registry) Close(t *Ticket) bool {
	r.mu.Lock()
	removed := r.byUser[t.info.RequesterID] == t
	if removed {
		r.removeLocked(t)
	}
	r.mu.Unlock()
	t.discard()
	return removed
}

// List returns the live tickets ordered by opening time.
func (r *Registry) List() []*Ticket {
	r.mu.RLock()
	out := make([]*Ticket, 0, len(r.byUser))
	for _, t := range r.byUser {
		out = append(out, t)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].info.OpenedAt.Before(out[j].info.OpenedAt)
	})
	return out
}

// Len returns the number of live tickets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

func (r *Registry) removeLocked(t *Ticket) {
	delete(r.byUser, t.info.RequesterID)
	if r.byChannel[t.info.ChannelID] == t.info.RequesterID {
		delete(r.byChannel, t.info.ChannelID)
	}
}
