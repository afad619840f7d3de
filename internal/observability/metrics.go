package observability

import (
	"strconv"
	"sync"
	"time"
)

// Ticket counter names.
const (
	CounterTicketOpened      = "ticket_opened"
	CounterTicketDuplicate   = "ticket_duplicate"
	CounterTicketClosed      = "ticket_closed"
	CounterRelayToStaff      = "relay_to_staff"
	CounterRelayToRequester  = "relay_to_requester"
	CounterDeliveryRefused   = "delivery_refused"
	CounterNoteAdded         = "note_added"
	CounterExportWebhook     = "export_webhook"
	CounterExportFallback    = "export_fallback"
	CounterExportFailed      = "export_failed"
	CounterExportTruncated   = "export_truncated"
	CounterTranscriptArchive = "transcript_archived"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	ticketCount  map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		ticketCount:  make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Inc increments a ticket counter.
func (m *Metrics) Inc(counter string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketCount[counter]++
}

// Count returns a ticket counter value.
func (m *Metrics) Count(counter string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticketCount[counter]
}

// Snapshot copies every counter, keyed by family.
func (m *Metrics) Snapshot() map[string]map[string]int64 {
	out := map[string]map[string]int64{
		"requests": {},
		"errors":   {},
		"tickets":  {},
	}
	if m == nil {
		return out
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.requestCount {
		out["requests"][k] = v
	}
	for k, v := range m.errorCount {
		out["errors"][k] = v
	}
	for k, v := range m.ticketCount {
		out["tickets"][k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
