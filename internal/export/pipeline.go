package export

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/observability"
	"github.com/spec-kit/ticket-bridge/internal/platform"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

// ErrSinkNotConfigured is returned by sinks lacking a destination.
var ErrSinkNotConfigured = errors.New("export: sink not configured")

// Sink delivers a report as a single outbound unit.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, report Report) error
}

// Archiver keeps a copy of delivered reports.
type Archiver interface {
	Archive(ctx context.Context, report Report, deliveredVia string) error
}

// Outcome summarizes a delivery attempt.
type Outcome struct {
	// Sink names the sink that accepted the report, empty when none did.
	Sink     string
	Archived bool
	Err      error
}

// Delivered reports whether any sink accepted the report.
func (o Outcome) Delivered() bool {
	return o.Sink != ""
}

// Pipeline delivers reports through a primary sink with a fallback.
type Pipeline struct {
	primary  Sink
	fallback Sink
	archive  Archiver
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// PipelineDependencies bundles pipeline collaborators. Any sink may be nil.
type PipelineDependencies struct {
	Primary  Sink
	Fallback Sink
	Archive  Archiver
	Logger   *zap.Logger
	Metrics  *observability.Metrics
}

// NewPipeline constructs the pipeline.
func NewPipeline(deps PipelineDependencies) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		primary:  deps.Primary,
		fallback: deps.Fallback,
		archive:  deps.Archive,
		logger:   logger,
		metrics:  deps.Metrics,
	}
}

// Deliver tries the primary sink, then the fallback. Failures are logged
// and reported in the Outcome, never returned: export is best effort.
func (p *Pipeline) Deliver(ctx context.Context, report Report) Outcome {
	if report.Truncated {
		p.metrics.Inc(observability.CounterExportTruncated)
	}

	var outcome Outcome
	primaryErr := attempt(ctx, p.primary, report)
	if primaryErr == nil {
		outcome.Sink = p.primary.Name()
		p.metrics.Inc(observability.CounterExportWebhook)
	} else {
		if !errors.Is(primaryErr, ErrSinkNotConfigured) {
			p.logger.Warn("primary export delivery failed, using fallback",
				zap.String("requester_id", report.Ticket.RequesterID),
				zap.Error(primaryErr))
		}
		fallbackErr := attempt(ctx, p.fallback, report)
		if fallbackErr == nil {
			outcome.Sink = p.fallback.Name()
			p.metrics.Inc(observability.CounterExportFallback)
		} else {
			outcome.Err = apperrors.NewExportDeliveryFailed(errors.Join(primaryErr, fallbackErr))
			p.metrics.Inc(observability.CounterExportFailed)
			p.logger.Error("transcript export lost",
				zap.String("requester_id", report.Ticket.RequesterID),
				zap.String("channel_id", report.Ticket.ChannelID),
				zap.Error(outcome.Err))
		}
	}

	if p.archive != nil {
		if err := p.archive.Archive(ctx, report, outcome.Sink); err != nil {
			p.logger.Warn("transcript archive failed",
				zap.String("requester_id", report.Ticket.RequesterID),
				zap.Error(err))
		} else {
			outcome.Archived = true
			p.metrics.Inc(observability.CounterTranscriptArchive)
		}
	}
	return outcome
}

func attempt(ctx context.Context, sink Sink, report Report) (err error) {
	if sink == nil {
		return ErrSinkNotConfigured
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("export sink %s panicked: %v", sink.Name(), r)
		}
	}()
	return sink.Deliver(ctx, report)
}

// ChannelSink posts reports into a platform channel.
type ChannelSink struct {
	gateway   platform.Gateway
	channelID string
}

// NewChannelSink builds a sink targeting channelID.
func NewChannelSink(gateway platform.Gateway, channelID string) *ChannelSink {
	return &ChannelSink{gateway: gateway, channelID: channelID}
}

func (s *ChannelSink) Name() string { return "channel" }

func (s *ChannelSink) Deliver(ctx context.Context, report Report) error {
	if s.channelID == "" {
		return ErrSinkNotConfigured
	}
	msg := report.Message()
	msg.Username = ""
	return s.gateway.Send(ctx, s.channelID, msg)
}
