package postgres

import (
	"context"
	"encoding/json"

	"github.com/cityagenda/event-platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// insertOutbox queues a notification in the same transaction as the state
// change it describes, so a rollback never leaves a phantom message.
func insertOutbox(ctx context.Context, tx pgx.Tx, traceID, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO outbox (message_id, trace_id, routing_key, payload, occurred_at, status)
		VALUES ($1, $2, $3, $4, NOW(), 'pending')
	`, uuid.New(), traceID, routingKey, body)
	return err
}

func requestPayload(req domain.Request) map[string]any {
	return map[string]any{
		"request_id":   req.ID,
		"event_id":     req.EventID,
		"requester_id": req.RequesterID,
		"status":       req.Status,
	}
}

func eventPayload(e *domain.Event) map[string]any {
	return map[string]any{
		"event_id":          e.ID,
		"initiator_id":      e.InitiatorID,
		"title":             e.Title,
		"state":             e.State,
		"event_date":        e.EventDate,
		"participant_limit": e.ParticipantLimit,
	}
}
