package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/cityagenda/event-platform/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ChangeStatus applies the organizer's confirm/reject decision to the whole
// batch in one transaction, then cascade-rejects every remaining pending
// request once the confirm fills the event. All-or-nothing: any precondition
// failure rolls back without touching a single request.
func (r *Repository) ChangeStatus(
	ctx context.Context,
	traceID string,
	eventID, organizerID int64,
	requestIDs []int64,
	target domain.RequestStatus,
) (domain.StatusUpdateResult, error) {
	traceID = strings.TrimSpace(traceID)

	if target != domain.RequestConfirmed && target != domain.RequestRejected {
		return domain.StatusUpdateResult{}, domain.ErrValidation("target status must be CONFIRMED or REJECTED")
	}
	if len(requestIDs) == 0 {
		return domain.StatusUpdateResult{}, domain.ErrValidation("request ids are required")
	}

	var result domain.StatusUpdateResult
	err := r.withTxRetry(ctx, func(tx pgx.Tx) error {
		result = domain.StatusUpdateResult{}

		// Lock the capacity authority first.
		ev, err := lockEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if ev.InitiatorID != organizerID {
			return domain.ErrForbidden("not your event")
		}

		// Load the named batch. The event lock already serializes writers,
		// no per-row lock needed.
		rows, err := tx.Query(ctx, `
			SELECT id, event_id, requester_id, status, created
			FROM requests
			WHERE event_id = $1 AND id = ANY($2)
			ORDER BY created ASC, id ASC
		`, eventID, requestIDs)
		if err != nil {
			return err
		}
		batch := make([]domain.Request, 0, len(requestIDs))
		loaded := make(map[int64]bool, len(requestIDs))
		for rows.Next() {
			req, err := scanRequest(rows)
			if err != nil {
				rows.Close()
				return err
			}
			batch = append(batch, req)
			loaded[req.ID] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range requestIDs {
			if !loaded[id] {
				return domain.ErrNotFound(fmt.Sprintf("request %d not found for this event", id))
			}
		}

		for _, req := range batch {
			if req.Status != domain.RequestPending {
				return domain.ErrConflict("request must be PENDING")
			}
		}

		confirmed, err := countConfirmedTx(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if target == domain.RequestConfirmed && ev.ParticipantLimit > 0 {
			if confirmed >= ev.ParticipantLimit {
				return domain.ErrConflict("participant limit reached")
			}
			if confirmed+len(batch) > ev.ParticipantLimit {
				return domain.ErrConflict("batch exceeds remaining capacity")
			}
		}

		// Capacity is checked once per call: the batch either lands whole
		// or not at all, matching the all-or-nothing contract above.
		_, err = tx.Exec(ctx, `
			UPDATE requests SET status = $2 WHERE id = ANY($1)
		`, requestIDs, string(target))
		if err != nil {
			return err
		}

		for i := range batch {
			batch[i].Status = target
		}
		if target == domain.RequestConfirmed {
			result.Confirmed = batch
		} else {
			result.Rejected = batch
		}

		routing := "request.rejected"
		if target == domain.RequestConfirmed {
			routing = "request.confirmed"
		}
		for _, req := range batch {
			if err := insertOutbox(ctx, tx, traceID, routing, requestPayload(req)); err != nil {
				return err
			}
		}

		// Overflow cascade: once the event is full, every other pending
		// request has zero chance of admission and is rejected here rather
		// than left to linger.
		if target == domain.RequestConfirmed && ev.ParticipantLimit > 0 &&
			confirmed+len(batch) >= ev.ParticipantLimit {

			cascRows, err := tx.Query(ctx, `
				UPDATE requests
				SET status = 'REJECTED'
				WHERE event_id = $1 AND status = 'PENDING'
				RETURNING id, event_id, requester_id, status, created
			`, eventID)
			if err != nil {
				return err
			}
			var cascade []domain.Request
			for cascRows.Next() {
				req, err := scanRequest(cascRows)
				if err != nil {
					cascRows.Close()
					return err
				}
				cascade = append(cascade, req)
			}
			cascRows.Close()
			if err := cascRows.Err(); err != nil {
				return err
			}

			for _, req := range cascade {
				if err := insertOutbox(ctx, tx, traceID, "request.rejected", requestPayload(req)); err != nil {
					return err
				}
			}
			result.Rejected = append(result.Rejected, cascade...)
		}

		return nil
	})
	if err != nil {
		return domain.StatusUpdateResult{}, err
	}
	return result, nil
}
