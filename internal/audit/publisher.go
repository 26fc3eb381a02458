package audit

import (
	"context"
	"log/slog"

	"specregistry/pkg/requestcontext"
)

// Sink receives finalized events. Implementations must tolerate concurrent
// calls.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher enriches events with request metadata and hands them to a sink.
// Sink failures are logged and swallowed: audit is fail-open so an
// unreachable broker never rejects a registry mutation.
type Publisher struct {
	sink   Sink
	logger *slog.Logger
}

// NewPublisher constructs a Publisher. A nil sink makes Emit a no-op.
func NewPublisher(sink Sink, logger *slog.Logger) *Publisher {
	return &Publisher{sink: sink, logger: logger}
}

// Emit finalizes and publishes one event.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = requestcontext.UserAgent(ctx)
	}
	if user := requestcontext.User(ctx); user != nil {
		if event.UserID == 0 {
			event.UserID = user.UserID
		}
		if event.Role == "" {
			event.Role = user.Role
		}
	}

	if p.logger != nil {
		p.logger.InfoContext(ctx, string(event.Action),
			"log_type", "audit",
			"user_id", event.UserID,
			"specification_id", event.SpecificationID,
			"request_id", event.RequestID,
		)
	}
	if p.sink == nil {
		return
	}
	if err := p.sink.Append(ctx, event); err != nil && p.logger != nil {
		p.logger.WarnContext(ctx, "audit sink append failed",
			"action", event.Action, "error", err)
	}
}
