package export

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/observability"
	"github.com/spec-kit/ticket-bridge/internal/platform"
	"github.com/spec-kit/ticket-bridge/internal/platform/platformtest"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

var (
	opened = time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC)
	closed = time.Date(2025, 3, 9, 15, 0, 0, 0, time.UTC)
	opts   = Options{SummaryBudget: 4000, TruncationMargin: 50, GuildName: "Atlas"}
)

func testTicket() domain.Ticket {
	return domain.Ticket{
		RequesterID:   "42",
		RequesterName: "alice",
		ChannelID:     "c1",
		ChannelName:   "ticket-alice",
		Category:      "Question",
		Detail:        "help me",
		OpenedAt:      opened,
	}
}

func entries(n int, content string) []domain.TranscriptEntry {
	out := make([]domain.TranscriptEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.TranscriptEntry{
			Author:    "alice",
			Content:   content,
			Timestamp: opened.Add(time.Duration(i) * time.Second),
		})
	}
	return out
}

func field(e platform.Embed, name string) (string, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func TestComposeUnderBudget(t *testing.T) {
	list := []domain.TranscriptEntry{
		{Author: "alice", Content: "hello", Timestamp: opened},
		{Author: "bob (staff)", Content: "hi", Timestamp: opened.Add(time.Minute)},
	}
	report := Compose(testTicket(), list, closed, opts)

	if report.Truncated || report.Document != nil {
		t.Fatal("short transcript must not be truncated nor carry a document")
	}
	want := "```txt\n[2025-03-09 14:00:00 UTC] alice: hello\n[2025-03-09 14:01:00 UTC] bob (staff): hi\n```"
	if report.Summary.Description != want {
		t.Errorf("description = %q, want %q", report.Summary.Description, want)
	}
	if _, ok := field(report.Summary, "Note"); ok {
		t.Error("no truncation note expected")
	}
	checks := map[string]string{
		"Joueur":       "<@42>",
		"Salon":        "#ticket-alice",
		"Raison":       "Question — help me",
		"Ouvert (UTC)": "2025-03-09 14:00:00",
		"Fermé (UTC)":  "2025-03-09 15:00:00",
		"Messages":     "2",
	}
	for name, want := range checks {
		if got, _ := field(report.Summary, name); got != want {
			t.Errorf("field %s = %q, want %q", name, got, want)
		}
	}
}

func TestComposeOverBudget(t *testing.T) {
	list := entries(45, strings.Repeat("x", 80))
	report := Compose(testTicket(), list, closed, opts)

	if utf8.RuneCountInString("```txt\n"+report.Transcript+"\n```") <= opts.SummaryBudget {
		t.Fatal("fixture should exceed the budget")
	}
	if !report.Truncated || report.HiddenLines == 0 {
		t.Fatal("expected truncation")
	}
	if !strings.Contains(report.Summary.Description, "lignes masquées)") {
		t.Error("summary should carry the hidden-lines note")
	}
	if utf8.RuneCountInString(report.Summary.Description) > opts.SummaryBudget {
		t.Errorf("summary is %d characters, over budget", utf8.RuneCountInString(report.Summary.Description))
	}
	if _, ok := field(report.Summary, "Note"); !ok {
		t.Error("truncated summary should carry the Note field")
	}

	doc := report.Document
	if doc == nil || len(doc.Data) == 0 {
		t.Fatal("expected a full document")
	}
	if doc.Name != "ticket-42.txt" {
		t.Errorf("document name = %q", doc.Name)
	}
	content := string(doc.Data)
	if !strings.HasSuffix(content, report.Transcript+"\n") {
		t.Error("document must end with the untruncated transcript")
	}
	if !strings.HasPrefix(content, "Transcript Ticket — Atlas\nJoueur: alice | Salon: #ticket-alice\n") {
		t.Errorf("unexpected document header: %q", content[:80])
	}
	parts := strings.SplitN(content, strings.Repeat("-", 50)+"\n", 2)
	if len(parts) != 2 || strings.TrimSuffix(parts[1], "\n") != report.Transcript {
		t.Error("document body should equal the original transcript")
	}
	if got := strings.Count(report.Transcript, "\n") + 1; got != 45 {
		t.Errorf("transcript has %d lines, want 45", got)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		name       string
		full       string
		limit      int
		want       string
		wantHidden int
	}{
		{"keeps whole lines", "aaaa\nbbbb\ncccc", 10, "aaaa\nbbbb\n… (+1 lignes masquées)", 1},
		{"first line too long", "aaaaaaaaaaaa\nb", 5, "\n… (+2 lignes masquées)", 2},
		{"everything fits", "a\nb", 10, "a\nb\n… (+0 lignes masquées)", 0},
		{"counts characters not bytes", "ééé\nb", 4, "ééé\n… (+1 lignes masquées)", 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, hidden := Truncate(tc.full, tc.limit)
			if got != tc.want || hidden != tc.wantHidden {
				t.Errorf("Truncate() = %q, %d; want %q, %d", got, hidden, tc.want, tc.wantHidden)
			}
		})
	}
}

type stubSink struct {
	name  string
	err   error
	calls int
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Deliver(context.Context, Report) error {
	s.calls++
	return s.err
}

type stubArchiver struct {
	via   string
	calls int
	err   error
}

func (a *stubArchiver) Archive(_ context.Context, _ Report, via string) error {
	a.calls++
	a.via = via
	return a.err
}

func TestPipelineDeliver(t *testing.T) {
	report := Compose(testTicket(), entries(1, "hi"), closed, opts)

	t.Run("primary succeeds", func(t *testing.T) {
		primary, fallback := &stubSink{name: "webhook"}, &stubSink{name: "channel"}
		archive := &stubArchiver{}
		p := NewPipeline(PipelineDependencies{Primary: primary, Fallback: fallback, Archive: archive})

		out := p.Deliver(context.Background(), report)
		if out.Sink != "webhook" || out.Err != nil || fallback.calls != 0 {
			t.Errorf("outcome = %+v, fallback calls = %d", out, fallback.calls)
		}
		if !out.Archived || archive.via != "webhook" {
			t.Errorf("archive via %q, archived %v", archive.via, out.Archived)
		}
	})

	t.Run("primary fails", func(t *testing.T) {
		primary := &stubSink{name: "webhook", err: errors.New("http 500")}
		fallback := &stubSink{name: "channel"}
		metrics := observability.NewMetrics()
		p := NewPipeline(PipelineDependencies{Primary: primary, Fallback: fallback, Metrics: metrics})

		out := p.Deliver(context.Background(), report)
		if out.Sink != "channel" || primary.calls != 1 || fallback.calls != 1 {
			t.Errorf("outcome = %+v", out)
		}
		if metrics.Count(observability.CounterExportFallback) != 1 {
			t.Error("fallback delivery should be counted")
		}
	})

	t.Run("primary not configured", func(t *testing.T) {
		fallback := &stubSink{name: "channel"}
		p := NewPipeline(PipelineDependencies{Fallback: fallback})
		if out := p.Deliver(context.Background(), report); out.Sink != "channel" {
			t.Errorf("outcome = %+v", out)
		}
	})

	t.Run("both fail", func(t *testing.T) {
		primary := &stubSink{name: "webhook", err: errors.New("down")}
		fallback := &stubSink{name: "channel", err: errors.New("gone")}
		archive := &stubArchiver{}
		p := NewPipeline(PipelineDependencies{Primary: primary, Fallback: fallback, Archive: archive})

		out := p.Deliver(context.Background(), report)
		if out.Delivered() {
			t.Fatal("nothing should have been delivered")
		}
		if !apperrors.HasCode(out.Err, apperrors.CodeExportDeliveryFailed) {
			t.Errorf("err = %v, want EXPORT_DELIVERY_FAILED", out.Err)
		}
		if archive.calls != 1 || archive.via != "" {
			t.Error("archive still runs when delivery fails")
		}
	})
}

func TestChannelSink(t *testing.T) {
	gw := platformtest.New()
	report := Compose(testTicket(), entries(45, strings.Repeat("y", 80)), closed, opts)

	if err := NewChannelSink(gw, "").Deliver(context.Background(), report); !errors.Is(err, ErrSinkNotConfigured) {
		t.Errorf("err = %v, want ErrSinkNotConfigured", err)
	}
	if err := NewChannelSink(gw, "logs").Deliver(context.Background(), report); err != nil {
		t.Fatal(err)
	}
	sent := gw.SentTo("logs")
	if len(sent) != 1 || sent[0].Embed == nil || sent[0].File == nil {
		t.Fatalf("expected one message with embed and file, got %+v", sent)
	}
}
