package registry

import (
	"sync"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/transcript"
)

// Ticket is a live ticket owned by the Registry. Work that touches the
// ticket (relaying, annotating, closing) runs through Serialize so only one
// operation per ticket is in flight at a time.
type Ticket struct {
	info       domain.Ticket
	transcript transcript.Log

	ops    sync.Mutex
	mu     sync.RWMutex
	status domain.TicketStatus
}

func newTicket(info domain.Ticket) *Ticket {
	return &Ticket{info: info, status: domain.TicketStatusOpen}
}

// Info returns the ticket identity.
func (t *Ticket) Info() domain.Ticket {
	return t.info
}

// Transcript returns the ticket's transcript log.
func (t *Ticket) Transcript() *transcript.Log {
	return &t.transcript
}

// Status returns the current lifecycle status.
func (t *Ticket) Status() domain.TicketStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Serialize runs fn while holding the ticket's operation lock. It reports
// false without calling fn once the ticket has started closing.
func (t *Ticket) Serialize(fn func()) bool {
	t.ops.Lock()
	defer t.ops.Unlock()
	if t.Status() != domain.TicketStatusOpen {
		return false
	}
	fn()
	return true
}

// MarkClosing seals the transcript and returns its final contents. Call it
// from inside Serialize so no relay is mid-flight.
func (t *Ticket) MarkClosing() []domain.TranscriptEntry {
	t.mu.Lock()
	t.status = domain.TicketStatusClosing
	t.mu.Unlock()
	return t.transcript.Seal()
}

func (t *Ticket) discard() {
	t.mu.Lock()
	t.status = domain.TicketStatusClosing
	t.mu.Unlock()
	t.transcript.Seal()
}
