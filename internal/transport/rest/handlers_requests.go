package rest

import (
	"net/http"
	"strings"

	"github.com/cityagenda/event-platform/internal/domain"
	"github.com/cityagenda/event-platform/internal/transport/rest/response"
	"github.com/go-chi/render"
)

// POST /requests
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	var req struct {
		EventID int64 `json:"event_id"`
	}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body", nil)
		return
	}
	if req.EventID <= 0 {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid event_id", map[string]string{
			"event_id": "must be a positive id",
		})
		return
	}

	created, err := h.requests.Create(r.Context(), auth.UserID, req.EventID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, toRequestResponse(created))
}

// PATCH /requests/{requestID}/cancel
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	requestID, err := pathID(r, "requestID")
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid requestID", nil)
		return
	}

	canceled, err := h.requests.Cancel(r.Context(), auth.UserID, requestID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toRequestResponse(canceled))
}

// GET /me/requests
func (h *Handler) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	items, err := h.requests.ListForUser(r.Context(), auth.UserID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toRequestResponses(items))
}

// GET /me/events/{eventID}/requests
func (h *Handler) ListEventRequests(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	eventID, err := pathID(r, "eventID")
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid eventID", nil)
		return
	}

	items, err := h.requests.ListForEvent(r.Context(), auth.UserID, eventID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toRequestResponses(items))
}

// PATCH /me/events/{eventID}/requests
func (h *Handler) ChangeRequestStatuses(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	eventID, err := pathID(r, "eventID")
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid eventID", nil)
		return
	}

	var req statusUpdateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body", nil)
		return
	}

	target := domain.RequestStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	res, err := h.requests.ChangeStatus(r.Context(), auth.UserID, eventID, req.RequestIDs, target)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, statusUpdateResponse{
		ConfirmedRequests: toRequestResponses(res.Confirmed),
		RejectedRequests:  toRequestResponses(res.Rejected),
	})
}
