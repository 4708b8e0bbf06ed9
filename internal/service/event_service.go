package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cityagenda/event-platform/internal/audit"
	"github.com/cityagenda/event-platform/internal/domain"
	"github.com/cityagenda/event-platform/internal/logger"
	appctx "github.com/cityagenda/event-platform/internal/pkg/context"
)

// EventService orchestrates the publication lifecycle. Capacity-sensitive
// request writes live in the repository layer; this layer owns reference
// validation, lead-time rules, patch application and view decoration.
type EventService struct {
	events     domain.EventRepository
	users      domain.UserDirectory
	categories domain.CategoryDirectory
	stats      domain.StatsProvider
	cache      domain.CacheRepository
	clock      Clock
	audit      *audit.Logger
	viewsTTL   time.Duration
}

func NewEventService(
	events domain.EventRepository,
	users domain.UserDirectory,
	categories domain.CategoryDirectory,
	stats domain.StatsProvider,
	cache domain.CacheRepository,
	clock Clock,
	auditLog *audit.Logger,
	viewsTTL time.Duration,
) *EventService {
	return &EventService{
		events:     events,
		users:      users,
		categories: categories,
		stats:      stats,
		cache:      cache,
		clock:      clock,
		audit:      auditLog,
		viewsTTL:   viewsTTL,
	}
}

// Submit validates the owner's draft and stores it as PENDING.
func (s *EventService) Submit(ctx context.Context, initiatorID int64, n domain.NewEvent) (*domain.EventDetails, error) {
	if _, err := s.users.GetUser(ctx, initiatorID); err != nil {
		return nil, err
	}
	if n.CategoryID > 0 {
		if _, err := s.categories.GetCategory(ctx, n.CategoryID); err != nil {
			return nil, err
		}
	}

	e, err := domain.NewPendingEvent(initiatorID, n, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.events.CreateEvent(ctx, e); err != nil {
		return nil, err
	}

	s.audit.EventSubmitted(ctx, e.ID, initiatorID)
	return &domain.EventDetails{Event: *e}, nil
}

// GetByOwner returns the owner's event in any state, with counters.
func (s *EventService) GetByOwner(ctx context.Context, ownerID, eventID int64) (*domain.EventDetails, error) {
	e, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.InitiatorID != ownerID {
		return nil, domain.ErrForbidden("not your event")
	}
	return s.decorateOne(ctx, e)
}

// EditByOwner applies a partial update and an optional review action.
// Published events are frozen for the owner.
func (s *EventService) EditByOwner(ctx context.Context, ownerID, eventID int64, patch domain.EventPatch, action *domain.OwnerStateAction) (*domain.EventDetails, error) {
	e, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.InitiatorID != ownerID {
		return nil, domain.ErrForbidden("not your event")
	}
	if e.State == domain.StatePublished {
		return nil, domain.ErrConflict("published events cannot be edited")
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.EventDate != nil {
		if err := domain.ValidateEventDate(*patch.EventDate, domain.OwnerLeadTime, s.clock.Now()); err != nil {
			return nil, err
		}
	}
	if patch.CategoryID != nil {
		if _, err := s.categories.GetCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
	}

	prev := e.State
	e.Apply(patch)
	if action != nil {
		e.ApplyOwnerAction(*action)
	}

	if err := s.events.UpdateEvent(ctx, appctx.GetRequestID(ctx), e, prev); err != nil {
		return nil, err
	}
	if e.State != prev {
		s.audit.EventStateChanged(ctx, e.ID, prev, e.State, "owner")
	}
	return s.decorateOne(ctx, e)
}

// EditByAdmin applies a moderation edit and an optional publish/reject
// decision. The state guard on Update makes publish a once-only transition
// even under concurrent moderators.
func (s *EventService) EditByAdmin(ctx context.Context, eventID int64, patch domain.EventPatch, action *domain.AdminStateAction) (*domain.EventDetails, error) {
	e, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.EventDate != nil {
		if err := domain.ValidateEventDate(*patch.EventDate, domain.AdminLeadTime, s.clock.Now()); err != nil {
			return nil, err
		}
	}
	if patch.CategoryID != nil {
		if _, err := s.categories.GetCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
	}

	prev := e.State
	e.Apply(patch)
	if action != nil {
		if err := e.ApplyAdminAction(*action, s.clock.Now()); err != nil {
			return nil, err
		}
	}

	if err := s.events.UpdateEvent(ctx, appctx.GetRequestID(ctx), e, prev); err != nil {
		return nil, err
	}
	if e.State != prev {
		s.audit.EventStateChanged(ctx, e.ID, prev, e.State, "admin")
	}
	return s.decorateOne(ctx, e)
}

// GetPublished serves the public event page. Unpublished events are
// indistinguishable from missing ones. The view hit is recorded before the
// response, so callers see counters that include their own visit on the
// next read.
func (s *EventService) GetPublished(ctx context.Context, eventID int64, clientIP string) (*domain.EventDetails, error) {
	e, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.State != domain.StatePublished {
		return nil, domain.ErrNotFound("event not found")
	}

	s.stats.RecordView(ctx, fmt.Sprintf("/events/%d", eventID), clientIP)
	return s.decorateOne(ctx, e)
}

func (s *EventService) ListByOwner(ctx context.Context, ownerID int64, from, size int) ([]domain.EventDetails, error) {
	if _, err := s.users.GetUser(ctx, ownerID); err != nil {
		return nil, err
	}
	evs, err := s.events.ListByInitiator(ctx, ownerID, from, size)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, evs)
}

func (s *EventService) ListAdmin(ctx context.Context, f domain.AdminEventFilter) ([]domain.EventDetails, error) {
	if err := validateRange(f.RangeStart, f.RangeEnd); err != nil {
		return nil, err
	}
	evs, err := s.events.ListAdmin(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, evs)
}

func (s *EventService) ListPublished(ctx context.Context, f domain.PublicEventFilter, clientIP string) ([]domain.EventDetails, error) {
	if err := validateRange(f.RangeStart, f.RangeEnd); err != nil {
		return nil, err
	}
	evs, err := s.events.ListPublished(ctx, f)
	if err != nil {
		return nil, err
	}

	s.stats.RecordView(ctx, "/events", clientIP)
	return s.decorate(ctx, evs)
}

func validateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return domain.ErrValidation("rangeEnd must not be before rangeStart")
	}
	return nil
}

func (s *EventService) decorateOne(ctx context.Context, e *domain.Event) (*domain.EventDetails, error) {
	out, err := s.decorate(ctx, []*domain.Event{e})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// decorate attaches confirmed counts and views. Views only exist for
// published events; cache misses are batched into one stats query over the
// window since the earliest publication.
func (s *EventService) decorate(ctx context.Context, evs []*domain.Event) ([]domain.EventDetails, error) {
	views := make(map[int64]int64, len(evs))
	var missed []int64
	var earliest time.Time

	for _, e := range evs {
		if e.State != domain.StatePublished || e.PublishedOn == nil {
			continue
		}
		if v, err := s.cache.GetViews(ctx, e.ID); err == nil {
			views[e.ID] = v
			continue
		}
		missed = append(missed, e.ID)
		if earliest.IsZero() || e.PublishedOn.Before(earliest) {
			earliest = *e.PublishedOn
		}
	}

	if len(missed) > 0 {
		fresh := s.stats.ViewCounts(ctx, missed, earliest, s.clock.Now())
		for id, v := range fresh {
			views[id] = v
			if err := s.cache.SetViews(ctx, id, v, s.viewsTTL); err != nil {
				logger.WithCtx(ctx).Debug().Err(err).Int64("event_id", id).Msg("views cache write failed")
			}
		}
	}

	out := make([]domain.EventDetails, 0, len(evs))
	for _, e := range evs {
		confirmed, err := s.events.CountConfirmed(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.EventDetails{
			Event:             *e,
			ConfirmedRequests: confirmed,
			Views:             views[e.ID],
		})
	}
	return out, nil
}
