package rest

import (
	"time"

	"github.com/cityagenda/event-platform/internal/domain"
)

type newEventRequest struct {
	Title             string          `json:"title"`
	Annotation        string          `json:"annotation"`
	Description       string          `json:"description"`
	Category          int64           `json:"category"`
	Location          domain.Location `json:"location"`
	EventDate         time.Time       `json:"event_date"`
	Paid              *bool           `json:"paid"`
	ParticipantLimit  *int            `json:"participant_limit"`
	RequestModeration *bool           `json:"request_moderation"`
}

func (req newEventRequest) toDomain() domain.NewEvent {
	return domain.NewEvent{
		Title:             req.Title,
		Annotation:        req.Annotation,
		Description:       req.Description,
		CategoryID:        req.Category,
		Location:          req.Location,
		EventDate:         req.EventDate,
		Paid:              req.Paid,
		ParticipantLimit:  req.ParticipantLimit,
		RequestModeration: req.RequestModeration,
	}
}

// updateEventRequest carries a partial edit plus an optional state action.
// The action string is parsed against the caller's allowed set (owner or
// admin) in the handler.
type updateEventRequest struct {
	Title             *string          `json:"title"`
	Annotation        *string          `json:"annotation"`
	Description       *string          `json:"description"`
	Category          *int64           `json:"category"`
	Location          *domain.Location `json:"location"`
	EventDate         *time.Time       `json:"event_date"`
	Paid              *bool            `json:"paid"`
	ParticipantLimit  *int             `json:"participant_limit"`
	RequestModeration *bool            `json:"request_moderation"`
	StateAction       *string          `json:"state_action"`
}

func (req updateEventRequest) toPatch() domain.EventPatch {
	return domain.EventPatch{
		Title:             req.Title,
		Annotation:        req.Annotation,
		Description:       req.Description,
		CategoryID:        req.Category,
		Location:          req.Location,
		EventDate:         req.EventDate,
		Paid:              req.Paid,
		ParticipantLimit:  req.ParticipantLimit,
		RequestModeration: req.RequestModeration,
	}
}

type eventResponse struct {
	ID                int64           `json:"id"`
	Title             string          `json:"title"`
	Annotation        string          `json:"annotation"`
	Description       string          `json:"description,omitempty"`
	Category          int64           `json:"category"`
	InitiatorID       int64           `json:"initiator_id"`
	Location          domain.Location `json:"location"`
	EventDate         time.Time       `json:"event_date"`
	Paid              bool            `json:"paid"`
	ParticipantLimit  int             `json:"participant_limit"`
	RequestModeration bool            `json:"request_moderation"`
	State             string          `json:"state"`
	CreatedOn         time.Time       `json:"created_on"`
	PublishedOn       *time.Time      `json:"published_on,omitempty"`
	ConfirmedRequests int             `json:"confirmed_requests"`
	Views             int64           `json:"views"`
}

func toEventResponse(d domain.EventDetails) eventResponse {
	return eventResponse{
		ID:                d.ID,
		Title:             d.Title,
		Annotation:        d.Annotation,
		Description:       d.Description,
		Category:          d.CategoryID,
		InitiatorID:       d.InitiatorID,
		Location:          d.Location,
		EventDate:         d.EventDate,
		Paid:              d.Paid,
		ParticipantLimit:  d.ParticipantLimit,
		RequestModeration: d.RequestModeration,
		State:             string(d.State),
		CreatedOn:         d.CreatedOn,
		PublishedOn:       d.PublishedOn,
		ConfirmedRequests: d.ConfirmedRequests,
		Views:             d.Views,
	}
}

func toEventResponses(ds []domain.EventDetails) []eventResponse {
	out := make([]eventResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, toEventResponse(d))
	}
	return out
}

type requestResponse struct {
	ID          int64     `json:"id"`
	EventID     int64     `json:"event_id"`
	RequesterID int64     `json:"requester_id"`
	Status      string    `json:"status"`
	Created     time.Time `json:"created"`
}

func toRequestResponse(req domain.Request) requestResponse {
	return requestResponse{
		ID:          req.ID,
		EventID:     req.EventID,
		RequesterID: req.RequesterID,
		Status:      string(req.Status),
		Created:     req.Created,
	}
}

func toRequestResponses(reqs []domain.Request) []requestResponse {
	out := make([]requestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toRequestResponse(req))
	}
	return out
}

type statusUpdateRequest struct {
	RequestIDs []int64 `json:"request_ids"`
	Status     string  `json:"status"`
}

type statusUpdateResponse struct {
	ConfirmedRequests []requestResponse `json:"confirmed_requests"`
	RejectedRequests  []requestResponse `json:"rejected_requests"`
}
