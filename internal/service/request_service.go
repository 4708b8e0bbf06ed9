package service

import (
	"context"

	"github.com/cityagenda/event-platform/internal/audit"
	"github.com/cityagenda/event-platform/internal/domain"
	appctx "github.com/cityagenda/event-platform/internal/pkg/context"
)

// RequestService fronts the participation-request repository. Admission,
// cancellation and batch status changes are single transactions there; this
// layer adds reference checks, ownership checks and audit records.
type RequestService struct {
	events   domain.EventRepository
	requests domain.RequestRepository
	users    domain.UserDirectory
	audit    *audit.Logger
}

func NewRequestService(
	events domain.EventRepository,
	requests domain.RequestRepository,
	users domain.UserDirectory,
	auditLog *audit.Logger,
) *RequestService {
	return &RequestService{
		events:   events,
		requests: requests,
		users:    users,
		audit:    auditLog,
	}
}

// Create admits requesterID to eventID, or explains why not via a Conflict.
func (s *RequestService) Create(ctx context.Context, requesterID, eventID int64) (domain.Request, error) {
	if _, err := s.users.GetUser(ctx, requesterID); err != nil {
		return domain.Request{}, err
	}

	req, err := s.requests.CreateRequest(ctx, appctx.GetRequestID(ctx), eventID, requesterID)
	if err != nil {
		return domain.Request{}, err
	}

	s.audit.RequestCreated(ctx, req.ID, req.EventID, req.RequesterID, req.Status)
	return req, nil
}

// Cancel withdraws the requester's own request. Canceling an already
// canceled request is a no-op and still returns the request.
func (s *RequestService) Cancel(ctx context.Context, requesterID, requestID int64) (domain.Request, error) {
	req, err := s.requests.CancelRequest(ctx, appctx.GetRequestID(ctx), requestID, requesterID)
	if err != nil {
		return domain.Request{}, err
	}

	s.audit.RequestCanceled(ctx, req.ID, requesterID)
	return req, nil
}

func (s *RequestService) ListForUser(ctx context.Context, requesterID int64) ([]domain.Request, error) {
	if _, err := s.users.GetUser(ctx, requesterID); err != nil {
		return nil, err
	}
	return s.requests.ListByRequester(ctx, requesterID)
}

// ListForEvent returns the requests for an event, organizer only.
func (s *RequestService) ListForEvent(ctx context.Context, organizerID, eventID int64) ([]domain.Request, error) {
	e, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.InitiatorID != organizerID {
		return nil, domain.ErrForbidden("not your event")
	}
	return s.requests.ListByEvent(ctx, eventID)
}

// ChangeStatus confirms or rejects a batch of pending requests. When a
// confirm fills the event, every other pending request is cascade-rejected
// in the same transaction and reported in the result.
func (s *RequestService) ChangeStatus(ctx context.Context, organizerID, eventID int64, requestIDs []int64, target domain.RequestStatus) (domain.StatusUpdateResult, error) {
	res, err := s.requests.ChangeStatus(ctx, appctx.GetRequestID(ctx), eventID, organizerID, requestIDs, target)
	if err != nil {
		return domain.StatusUpdateResult{}, err
	}

	cascaded := 0
	if target == domain.RequestConfirmed {
		cascaded = len(res.Rejected)
	}
	s.audit.BatchStatusChanged(ctx, eventID, organizerID, target, len(res.Confirmed), len(res.Rejected), cascaded)
	return res, nil
}
