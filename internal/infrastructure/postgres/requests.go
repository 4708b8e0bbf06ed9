package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/cityagenda/event-platform/internal/domain"
	"github.com/jackc/pgx/v5"
)

// lockEvent loads the capacity-relevant event fields under FOR UPDATE.
// Callers hold the lock until commit.
type lockedEvent struct {
	InitiatorID       int64
	State             domain.EventState
	ParticipantLimit  int
	RequestModeration bool
}

func lockEvent(ctx context.Context, tx pgx.Tx, eventID int64) (lockedEvent, error) {
	var le lockedEvent
	var state string
	err := tx.QueryRow(ctx, `
		SELECT initiator_id, state, participant_limit, request_moderation
		FROM events
		WHERE id = $1
		FOR UPDATE
	`, eventID).Scan(&le.InitiatorID, &state, &le.ParticipantLimit, &le.RequestModeration)
	if errors.Is(err, pgx.ErrNoRows) {
		return le, domain.ErrNotFound("event not found")
	}
	if err != nil {
		return le, err
	}
	le.State = domain.EventState(state)
	return le, nil
}

func countConfirmedTx(ctx context.Context, tx pgx.Tx, eventID int64) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM requests WHERE event_id = $1 AND status = 'CONFIRMED'
	`, eventID).Scan(&n)
	return n, err
}

// CreateRequest runs the full admission check and insert in one
// transaction. The events row is locked first, so the capacity read
// stays valid until the insert commits.
func (r *Repository) CreateRequest(ctx context.Context, traceID string, eventID, requesterID int64) (domain.Request, error) {
	traceID = strings.TrimSpace(traceID)

	var req domain.Request
	err := r.withTxRetry(ctx, func(tx pgx.Tx) error {
		ev, err := lockEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}

		if ev.InitiatorID == requesterID {
			return domain.ErrConflict("cannot request participation in your own event")
		}
		if ev.State != domain.StatePublished {
			return domain.ErrConflict("event is not published")
		}

		var exists bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM requests
				WHERE event_id = $1 AND requester_id = $2 AND status <> 'CANCELED'
			)
		`, eventID, requesterID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrConflict("participation request already exists")
		}

		confirmed, err := countConfirmedTx(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if ev.ParticipantLimit > 0 && confirmed >= ev.ParticipantLimit {
			return domain.ErrConflict("participant limit reached")
		}

		status := domain.RequestPending
		if ev.ParticipantLimit == 0 || !ev.RequestModeration {
			status = domain.RequestConfirmed
		}

		req = domain.Request{
			EventID:     eventID,
			RequesterID: requesterID,
			Status:      status,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO requests (event_id, requester_id, status, created)
			VALUES ($1, $2, $3, NOW())
			RETURNING id, created
		`, eventID, requesterID, string(status)).Scan(&req.ID, &req.Created)
		if err != nil {
			return err
		}

		return insertOutbox(ctx, tx, traceID, "request.created", requestPayload(req))
	})
	if err != nil {
		return domain.Request{}, err
	}
	return req, nil
}

// CancelRequest marks the requester's own request CANCELED. Confirmed
// participation stays confirmed; freeing a taken slot is the organizer's
// call, not the participant's.
func (r *Repository) CancelRequest(ctx context.Context, traceID string, requestID, requesterID int64) (domain.Request, error) {
	traceID = strings.TrimSpace(traceID)

	var req domain.Request
	err := r.withTxRetry(ctx, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `
			SELECT id, event_id, requester_id, status, created
			FROM requests
			WHERE id = $1
			FOR UPDATE
		`, requestID).Scan(&req.ID, &req.EventID, &req.RequesterID, &status, &req.Created)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound("request not found")
		}
		if err != nil {
			return err
		}
		req.Status = domain.RequestStatus(status)

		if req.RequesterID != requesterID {
			return domain.ErrForbidden("not your request")
		}
		if req.Status == domain.RequestConfirmed {
			return domain.ErrConflict("confirmed participation cannot be canceled")
		}
		if req.Status == domain.RequestCanceled {
			// idempotent
			return nil
		}

		_, err = tx.Exec(ctx, `UPDATE requests SET status = 'CANCELED' WHERE id = $1`, requestID)
		if err != nil {
			return err
		}
		req.Status = domain.RequestCanceled

		return insertOutbox(ctx, tx, traceID, "request.canceled", requestPayload(req))
	})
	if err != nil {
		return domain.Request{}, err
	}
	return req, nil
}

func scanRequest(row pgx.Row) (domain.Request, error) {
	var req domain.Request
	var status string
	err := row.Scan(&req.ID, &req.EventID, &req.RequesterID, &status, &req.Created)
	if err != nil {
		return domain.Request{}, err
	}
	req.Status = domain.RequestStatus(status)
	return req, nil
}

func (r *Repository) GetRequest(ctx context.Context, id int64) (domain.Request, error) {
	req, err := scanRequest(r.pool.QueryRow(ctx, `
		SELECT id, event_id, requester_id, status, created FROM requests WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Request{}, domain.ErrNotFound("request not found")
	}
	return req, err
}

func (r *Repository) listRequests(ctx context.Context, q string, args ...any) ([]domain.Request, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *Repository) ListByRequester(ctx context.Context, requesterID int64) ([]domain.Request, error) {
	return r.listRequests(ctx, `
		SELECT id, event_id, requester_id, status, created
		FROM requests
		WHERE requester_id = $1
		ORDER BY created DESC, id DESC
	`, requesterID)
}

func (r *Repository) ListByEvent(ctx context.Context, eventID int64) ([]domain.Request, error) {
	return r.listRequests(ctx, `
		SELECT id, event_id, requester_id, status, created
		FROM requests
		WHERE event_id = $1
		ORDER BY created ASC, id ASC
	`, eventID)
}
