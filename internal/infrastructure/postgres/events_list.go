package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/cityagenda/event-platform/internal/domain"
	"github.com/jackc/pgx/v5"
)

func clampPage(from, size int) (int, int) {
	if from < 0 {
		from = 0
	}
	if size <= 0 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return from, size
}

func (r *Repository) collectEvents(ctx context.Context, rows pgx.Rows) ([]*domain.Event, error) {
	defer rows.Close()
	var out []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) ListByInitiator(ctx context.Context, initiatorID int64, from, size int) ([]*domain.Event, error) {
	from, size = clampPage(from, size)
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE initiator_id = $1
		ORDER BY event_date DESC, id ASC
		OFFSET $2 LIMIT $3
	`, initiatorID, from, size)
	if err != nil {
		return nil, err
	}
	return r.collectEvents(ctx, rows)
}

func (r *Repository) ListAdmin(ctx context.Context, f domain.AdminEventFilter) ([]*domain.Event, error) {
	from, size := clampPage(f.From, f.Size)

	where := []string{"TRUE"}
	args := []any{}
	argN := 1

	if len(f.Users) > 0 {
		where = append(where, fmt.Sprintf("initiator_id = ANY($%d)", argN))
		args = append(args, f.Users)
		argN++
	}
	if len(f.States) > 0 {
		states := make([]string, len(f.States))
		for i, s := range f.States {
			states[i] = string(s)
		}
		where = append(where, fmt.Sprintf("state = ANY($%d)", argN))
		args = append(args, states)
		argN++
	}
	if len(f.Categories) > 0 {
		where = append(where, fmt.Sprintf("category_id = ANY($%d)", argN))
		args = append(args, f.Categories)
		argN++
	}
	if f.RangeStart != nil {
		where = append(where, fmt.Sprintf("event_date >= $%d", argN))
		args = append(args, *f.RangeStart)
		argN++
	}
	if f.RangeEnd != nil {
		where = append(where, fmt.Sprintf("event_date <= $%d", argN))
		args = append(args, *f.RangeEnd)
		argN++
	}

	q := fmt.Sprintf(`
		SELECT `+eventColumns+`
		FROM events
		WHERE %s
		ORDER BY event_date DESC, id ASC
		OFFSET $%d LIMIT $%d
	`, strings.Join(where, " AND "), argN, argN+1)
	args = append(args, from, size)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return r.collectEvents(ctx, rows)
}

func (r *Repository) ListPublished(ctx context.Context, f domain.PublicEventFilter) ([]*domain.Event, error) {
	from, size := clampPage(f.From, f.Size)

	where := []string{"state = 'PUBLISHED'"}
	args := []any{}
	argN := 1

	if text := strings.TrimSpace(f.Text); text != "" {
		where = append(where, fmt.Sprintf("(annotation ILIKE $%d OR description ILIKE $%d)", argN, argN))
		args = append(args, "%"+text+"%")
		argN++
	}
	if len(f.Categories) > 0 {
		where = append(where, fmt.Sprintf("category_id = ANY($%d)", argN))
		args = append(args, f.Categories)
		argN++
	}
	if f.Paid != nil {
		where = append(where, fmt.Sprintf("paid = $%d", argN))
		args = append(args, *f.Paid)
		argN++
	}
	if f.RangeStart == nil && f.RangeEnd == nil {
		// no window given: upcoming events only
		where = append(where, "event_date >= NOW()")
	}
	if f.RangeStart != nil {
		where = append(where, fmt.Sprintf("event_date >= $%d", argN))
		args = append(args, *f.RangeStart)
		argN++
	}
	if f.RangeEnd != nil {
		where = append(where, fmt.Sprintf("event_date <= $%d", argN))
		args = append(args, *f.RangeEnd)
		argN++
	}
	if f.OnlyAvailable {
		// Unlimited events are always available; limited ones must have a
		// free confirmed slot.
		where = append(where, `(participant_limit = 0 OR participant_limit > (
			SELECT COUNT(*) FROM requests
			WHERE requests.event_id = events.id AND requests.status = 'CONFIRMED'
		))`)
	}

	q := fmt.Sprintf(`
		SELECT `+eventColumns+`
		FROM events
		WHERE %s
		ORDER BY event_date DESC, id ASC
		OFFSET $%d LIMIT $%d
	`, strings.Join(where, " AND "), argN, argN+1)
	args = append(args, from, size)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return r.collectEvents(ctx, rows)
}
