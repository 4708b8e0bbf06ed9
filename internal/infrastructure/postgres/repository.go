package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cityagenda/event-platform/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// -------------------------
// Locking policy:
// Every operation that checks confirmed-count and then writes request state
// runs in ONE transaction and locks the events row FIRST (FOR UPDATE).
// The events row is the capacity authority, so two concurrent admissions or
// batch confirms for the same event serialize on that lock and can never
// both observe a free slot. Request rows are only ever touched while the
// event lock is held, which also rules out lock-order cycles.
// -------------------------

const txMaxRetries = 3

// isRetryableTxErr reports serialization failures and deadlocks, the only
// transient errors worth an internal retry.
func isRetryableTxErr(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func (r *Repository) runTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// withTxRetry reruns fn a bounded number of times on transient tx errors
// before surfacing the failure as a Conflict.
func (r *Repository) withTxRetry(ctx context.Context, fn func(pgx.Tx) error) error {
	var err error
	for attempt := 0; attempt < txMaxRetries; attempt++ {
		err = r.runTx(ctx, fn)
		if err == nil || !isRetryableTxErr(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 25 * time.Millisecond):
		}
	}
	return domain.ErrConflict("operation lost a capacity race, retry")
}

// -------------------------
// Events
// -------------------------

const eventColumns = `id, title, annotation, description, category_id, initiator_id,
       lat, lon, event_date, paid, participant_limit, request_moderation,
       state, created_on, published_on`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	var state string
	err := row.Scan(
		&e.ID, &e.Title, &e.Annotation, &e.Description, &e.CategoryID, &e.InitiatorID,
		&e.Location.Lat, &e.Location.Lon, &e.EventDate, &e.Paid, &e.ParticipantLimit,
		&e.RequestModeration, &state, &e.CreatedOn, &e.PublishedOn,
	)
	if err != nil {
		return nil, err
	}
	e.State = domain.EventState(state)
	if !e.State.Valid() {
		return nil, domain.ErrConflict("invalid event state in store")
	}
	return &e, nil
}

func (r *Repository) CreateEvent(ctx context.Context, e *domain.Event) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO events (title, annotation, description, category_id, initiator_id,
		                    lat, lon, event_date, paid, participant_limit,
		                    request_moderation, state, created_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`,
		e.Title, e.Annotation, e.Description, e.CategoryID, e.InitiatorID,
		e.Location.Lat, e.Location.Lon, e.EventDate, e.Paid, e.ParticipantLimit,
		e.RequestModeration, string(e.State), e.CreatedOn,
	).Scan(&e.ID)
}

func (r *Repository) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("event not found")
	}
	return e, err
}

// UpdateEvent writes all mutable fields with a state guard: the row is only
// touched while its stored state still equals expectState. Losing that
// compare-and-swap means another actor changed the lifecycle concurrently.
func (r *Repository) UpdateEvent(ctx context.Context, traceID string, e *domain.Event, expectState domain.EventState) error {
	return r.runTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE events
			SET title = $2, annotation = $3, description = $4, category_id = $5,
			    lat = $6, lon = $7, event_date = $8, paid = $9,
			    participant_limit = $10, request_moderation = $11,
			    state = $12, published_on = $13
			WHERE id = $1 AND state = $14
		`,
			e.ID, e.Title, e.Annotation, e.Description, e.CategoryID,
			e.Location.Lat, e.Location.Lon, e.EventDate, e.Paid,
			e.ParticipantLimit, e.RequestModeration,
			string(e.State), e.PublishedOn, string(expectState),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, e.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return domain.ErrNotFound("event not found")
			}
			return domain.ErrConflict("event state changed concurrently")
		}

		if e.State == expectState {
			return nil // plain field edit, no lifecycle notification
		}
		var routing string
		switch e.State {
		case domain.StatePublished:
			routing = "event.published"
		case domain.StateCanceled:
			routing = "event.canceled"
		default:
			routing = "event.resubmitted"
		}
		return insertOutbox(ctx, tx, strings.TrimSpace(traceID), routing, eventPayload(e))
	})
}

func (r *Repository) CountConfirmed(ctx context.Context, eventID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM requests WHERE event_id = $1 AND status = 'CONFIRMED'
	`, eventID).Scan(&n)
	return n, err
}
