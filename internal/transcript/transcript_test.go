package transcript

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/ticket-bridge/internal/domain"
)

var base = time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)

func TestLine(t *testing.T) {
	cases := []struct {
		name  string
		entry domain.TranscriptEntry
		want  string
	}{
		{
			name:  "conversation",
			entry: domain.TranscriptEntry{Author: "alice", Content: "hello", Timestamp: base},
			want:  "[2025-03-09 14:05:07 UTC] alice: hello",
		},
		{
			name:  "note",
			entry: domain.TranscriptEntry{Author: "mod (note)", Content: " watch out ", Timestamp: base, Internal: true},
			want:  "[2025-03-09 14:05:07 UTC] [note] mod (note): watch out",
		},
		{
			name:  "attachment",
			entry: domain.TranscriptEntry{Author: "alice", Content: "https://cdn/x.png", Timestamp: base, IsAttachment: true},
			want:  "[2025-03-09 14:05:07 UTC] [fichier] alice: https://cdn/x.png",
		},
		{
			name:  "both tags",
			entry: domain.TranscriptEntry{Author: "a", Content: "u", Timestamp: base, Internal: true, IsAttachment: true},
			want:  "[2025-03-09 14:05:07 UTC] [note] [fichier] a: u",
		},
		{
			name:  "non utc timestamp",
			entry: domain.TranscriptEntry{Author: "a", Content: "b", Timestamp: base.In(time.FixedZone("CEST", 2*3600))},
			want:  "[2025-03-09 14:05:07 UTC] a: b",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Line(tc.entry); got != tc.want {
				t.Errorf("Line() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRenderKeepsInsertionOrder(t *testing.T) {
	var log Log
	// Timestamps deliberately go backwards: order is defined by insertion.
	log.Append(domain.TranscriptEntry{Author: "a", Content: "first", Timestamp: base.Add(time.Minute)})
	log.Append(domain.TranscriptEntry{Author: "b", Content: "second", Timestamp: base})

	want := "[2025-03-09 14:06:07 UTC] a: first\n[2025-03-09 14:05:07 UTC] b: second"
	if got := Render(log.Entries()); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestSealStopsAppends(t *testing.T) {
	var log Log
	if !log.Append(domain.TranscriptEntry{Content: "kept"}) {
		t.Fatal("append before seal should succeed")
	}
	final := log.Seal()
	if log.Append(domain.TranscriptEntry{Content: "dropped"}) {
		t.Error("append after seal should be rejected")
	}
	if len(final) != 1 || log.Len() != 1 {
		t.Errorf("final = %d entries, Len = %d, want 1/1", len(final), log.Len())
	}
}

func TestConcurrentAppend(t *testing.T) {
	var log Log
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			log.Append(domain.TranscriptEntry{Content: fmt.Sprint(i)})
		}(i)
	}
	wg.Wait()
	if log.Len() != 50 {
		t.Errorf("Len = %d, want 50", log.Len())
	}
}
