package domain

import (
	"fmt"
	"strings"
	"time"
)

type EventState string

const (
	StatePending   EventState = "PENDING"
	StatePublished EventState = "PUBLISHED"
	StateCanceled  EventState = "CANCELED"
)

func (s EventState) Valid() bool {
	switch s {
	case StatePending, StatePublished, StateCanceled:
		return true
	}
	return false
}

// State actions are closed per-actor sets: an owner can only move an event
// between review and canceled, an admin decides publication.
type OwnerStateAction string

const (
	SendToReview OwnerStateAction = "SEND_TO_REVIEW"
	CancelReview OwnerStateAction = "CANCEL_REVIEW"
)

func ParseOwnerStateAction(s string) (OwnerStateAction, error) {
	switch OwnerStateAction(s) {
	case SendToReview, CancelReview:
		return OwnerStateAction(s), nil
	}
	return "", ErrValidation(fmt.Sprintf("unknown state action %q", s))
}

type AdminStateAction string

const (
	PublishEvent AdminStateAction = "PUBLISH_EVENT"
	RejectEvent  AdminStateAction = "REJECT_EVENT"
)

func ParseAdminStateAction(s string) (AdminStateAction, error) {
	switch AdminStateAction(s) {
	case PublishEvent, RejectEvent:
		return AdminStateAction(s), nil
	}
	return "", ErrValidation(fmt.Sprintf("unknown state action %q", s))
}

// Minimum gap between "now" and the scheduled occurrence when the event is
// created or its date changed.
const (
	OwnerLeadTime = 2 * time.Hour
	AdminLeadTime = 1 * time.Hour
)

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Event struct {
	ID          int64
	Title       string
	Annotation  string
	Description string
	CategoryID  int64
	InitiatorID int64
	Location    Location
	EventDate   time.Time
	Paid        bool
	// 0 = unlimited
	ParticipantLimit  int
	RequestModeration bool
	State             EventState
	CreatedOn         time.Time
	PublishedOn       *time.Time
}

type NewEvent struct {
	Title       string
	Annotation  string
	Description string
	CategoryID  int64
	Location    Location
	EventDate   time.Time
	// Optional on the wire; defaults: paid=false, limit=0, moderation=true.
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
}

func ValidateEventDate(d time.Time, lead time.Duration, now time.Time) error {
	if d.Before(now.Add(lead)) {
		return ErrValidationMeta("event date is too soon", map[string]string{
			"event_date": fmt.Sprintf("must be at least %s in the future", lead),
		})
	}
	return nil
}

// NewPendingEvent builds the initial PENDING event from an owner submission.
func NewPendingEvent(initiatorID int64, n NewEvent, now time.Time) (*Event, error) {
	title := strings.TrimSpace(n.Title)
	annotation := strings.TrimSpace(n.Annotation)
	description := strings.TrimSpace(n.Description)

	if initiatorID <= 0 {
		return nil, ErrValidation("initiator id is required")
	}
	if title == "" || len(title) > 120 {
		return nil, ErrValidation("title is required and must be <= 120 chars")
	}
	if annotation == "" || len(annotation) > 2000 {
		return nil, ErrValidation("annotation is required and must be <= 2000 chars")
	}
	if description == "" || len(description) > 7000 {
		return nil, ErrValidation("description is required and must be <= 7000 chars")
	}
	if n.CategoryID <= 0 {
		return nil, ErrValidation("category is required")
	}
	if err := ValidateEventDate(n.EventDate, OwnerLeadTime, now); err != nil {
		return nil, err
	}

	e := &Event{
		Title:             title,
		Annotation:        annotation,
		Description:       description,
		CategoryID:        n.CategoryID,
		InitiatorID:       initiatorID,
		Location:          n.Location,
		EventDate:         n.EventDate.UTC(),
		Paid:              false,
		ParticipantLimit:  0,
		RequestModeration: true,
		State:             StatePending,
		CreatedOn:         now.UTC(),
	}
	if n.Paid != nil {
		e.Paid = *n.Paid
	}
	if n.ParticipantLimit != nil {
		if *n.ParticipantLimit < 0 {
			return nil, ErrValidation("participant limit must be >= 0 (0 means unlimited)")
		}
		e.ParticipantLimit = *n.ParticipantLimit
	}
	if n.RequestModeration != nil {
		e.RequestModeration = *n.RequestModeration
	}
	return e, nil
}

// ApplyOwnerAction moves the event between review states. A mismatched
// precondition state is a no-op, not an error: re-sending an already
// pending event to review just leaves it pending.
func (e *Event) ApplyOwnerAction(a OwnerStateAction) {
	switch a {
	case SendToReview:
		if e.State == StateCanceled {
			e.State = StatePending
		}
	case CancelReview:
		if e.State == StatePending {
			e.State = StateCanceled
		}
	}
}

// ApplyAdminAction applies a moderation decision. Publishing requires the
// event to be pending; a published event can no longer be rejected.
// PublishedOn is set here and nowhere else.
func (e *Event) ApplyAdminAction(a AdminStateAction, now time.Time) error {
	switch a {
	case PublishEvent:
		if e.State != StatePending {
			return ErrConflict(fmt.Sprintf("cannot publish event in state %s: must be PENDING", e.State))
		}
		t := now.UTC()
		e.State = StatePublished
		e.PublishedOn = &t
	case RejectEvent:
		if e.State == StatePublished {
			return ErrConflict("published events cannot be rejected")
		}
		e.State = StateCanceled
	}
	return nil
}

// EventPatch is a partial update: nil fields are left untouched.
type EventPatch struct {
	Title             *string
	Annotation        *string
	Description       *string
	CategoryID        *int64
	Location          *Location
	EventDate         *time.Time
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
}

func (p EventPatch) Validate() error {
	if p.Title != nil && (strings.TrimSpace(*p.Title) == "" || len(*p.Title) > 120) {
		return ErrValidation("title must be non-empty and <= 120 chars")
	}
	if p.Annotation != nil && (strings.TrimSpace(*p.Annotation) == "" || len(*p.Annotation) > 2000) {
		return ErrValidation("annotation must be non-empty and <= 2000 chars")
	}
	if p.Description != nil && (strings.TrimSpace(*p.Description) == "" || len(*p.Description) > 7000) {
		return ErrValidation("description must be non-empty and <= 7000 chars")
	}
	if p.CategoryID != nil && *p.CategoryID <= 0 {
		return ErrValidation("category must be a positive id")
	}
	if p.ParticipantLimit != nil && *p.ParticipantLimit < 0 {
		return ErrValidation("participant limit must be >= 0 (0 means unlimited)")
	}
	return nil
}

func (e *Event) Apply(p EventPatch) {
	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Annotation != nil {
		e.Annotation = strings.TrimSpace(*p.Annotation)
	}
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.CategoryID != nil {
		e.CategoryID = *p.CategoryID
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.EventDate != nil {
		e.EventDate = p.EventDate.UTC()
	}
	if p.Paid != nil {
		e.Paid = *p.Paid
	}
	if p.ParticipantLimit != nil {
		e.ParticipantLimit = *p.ParticipantLimit
	}
	if p.RequestModeration != nil {
		e.RequestModeration = *p.RequestModeration
	}
}

// EventDetails decorates an event with the counters shown to callers.
// Views come from the popularity provider and are advisory only.
type EventDetails struct {
	Event
	ConfirmedRequests int
	Views             int64
}
