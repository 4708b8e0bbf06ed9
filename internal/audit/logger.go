package audit

import (
	"context"

	"github.com/cityagenda/event-platform/internal/domain"
	appctx "github.com/cityagenda/event-platform/internal/pkg/context"
	"github.com/rs/zerolog"
)

// Logger provides structured audit logging for business events
type Logger struct {
	log zerolog.Logger
}

// New creates a new audit logger
func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

// EventSubmitted logs when an owner submits a new event for moderation
func (l *Logger) EventSubmitted(ctx context.Context, eventID, initiatorID int64) {
	l.log.Info().
		Str("action", "event_submitted").
		Int64("event_id", eventID).
		Int64("initiator_id", initiatorID).
		Str("trace_id", appctx.GetRequestID(ctx)).
		Msg("Event submitted for review")
}

// EventStateChanged logs owner and admin lifecycle transitions
func (l *Logger) EventStateChanged(ctx context.Context, eventID int64, from, to domain.EventState, actor string) {
	l.log.Info().
		Str("action", "event_state_changed").
		Int64("event_id", eventID).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("actor", actor).
		Str("trace_id", appctx.GetRequestID(ctx)).
		Msg("Event state changed")
}

// RequestCreated logs a successful admission
func (l *Logger) RequestCreated(ctx context.Context, requestID, eventID, requesterID int64, status domain.RequestStatus) {
	l.log.Info().
		Str("action", "request_created").
		Int64("request_id", requestID).
		Int64("event_id", eventID).
		Int64("requester_id", requesterID).
		Str("status", string(status)).
		Str("trace_id", appctx.GetRequestID(ctx)).
		Msg("Participation request created")
}

// RequestCanceled logs a requester withdrawing their own request
func (l *Logger) RequestCanceled(ctx context.Context, requestID, requesterID int64) {
	l.log.Info().
		Str("action", "request_canceled").
		Int64("request_id", requestID).
		Int64("requester_id", requesterID).
		Str("trace_id", appctx.GetRequestID(ctx)).
		Msg("Participation request canceled")
}

// BatchStatusChanged logs an organizer confirm/reject batch, including
// how many pending requests the cascade swept away.
func (l *Logger) BatchStatusChanged(ctx context.Context, eventID, organizerID int64, target domain.RequestStatus, confirmed, rejected, cascaded int) {
	ev := l.log.Info()
	if cascaded > 0 {
		ev = l.log.Warn()
	}
	ev.
		Str("action", "request_batch_status").
		Int64("event_id", eventID).
		Int64("organizer_id", organizerID).
		Str("target", string(target)).
		Int("confirmed", confirmed).
		Int("rejected", rejected).
		Int("cascade_rejected", cascaded).
		Str("trace_id", appctx.GetRequestID(ctx)).
		Msg("Batch request status change")
}
