package rest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cityagenda/event-platform/internal/domain"
	appctx "github.com/cityagenda/event-platform/internal/pkg/context"
	"github.com/cityagenda/event-platform/internal/service"
	"github.com/cityagenda/event-platform/internal/transport/rest/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type Handler struct {
	events   *service.EventService
	requests *service.RequestService
}

func NewHandler(events *service.EventService, requests *service.RequestService) *Handler {
	return &Handler{events: events, requests: requests}
}

// POST /events
func (h *Handler) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	var req newEventRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body", nil)
		return
	}

	details, err := h.events.Submit(r.Context(), auth.UserID, req.toDomain())
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, toEventResponse(*details))
}

// GET /me/events
func (h *Handler) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	from, size := parsePage(r)
	items, err := h.events.ListByOwner(r.Context(), auth.UserID, from, size)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventResponses(items))
}

// GET /me/events/{eventID}
func (h *Handler) GetMyEvent(w http.ResponseWriter, r *http.Request) {
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

	details, err := h.events.GetByOwner(r.Context(), auth.UserID, eventID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventResponse(*details))
}

// PATCH /me/events/{eventID}
func (h *Handler) EditMyEvent(w http.ResponseWriter, r *http.Request) {
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

	var req updateEventRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body", nil)
		return
	}

	var action *domain.OwnerStateAction
	if req.StateAction != nil {
		a, err := domain.ParseOwnerStateAction(*req.StateAction)
		if err != nil {
			handleErr(w, r, err)
			return
		}
		action = &a
	}

	details, err := h.events.EditByOwner(r.Context(), auth.UserID, eventID, req.toPatch(), action)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventResponse(*details))
}

// PATCH /admin/events/{eventID}
func (h *Handler) EditEventAdmin(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid eventID", nil)
		return
	}

	var req updateEventRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body", nil)
		return
	}

	var action *domain.AdminStateAction
	if req.StateAction != nil {
		a, err := domain.ParseAdminStateAction(*req.StateAction)
		if err != nil {
			handleErr(w, r, err)
			return
		}
		action = &a
	}

	details, err := h.events.EditByAdmin(r.Context(), eventID, req.toPatch(), action)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventResponse(*details))
}

// GET /admin/events
func (h *Handler) ListEventsAdmin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, size := parsePage(r)

	f := domain.AdminEventFilter{
		Users:      parseInt64List(q.Get("users")),
		Categories: parseInt64List(q.Get("categories")),
		From:       from,
		Size:       size,
	}
	for _, s := range splitList(q.Get("states")) {
		st := domain.EventState(strings.ToUpper(s))
		if !st.Valid() {
			fail(w, r, http.StatusBadRequest, "request.invalid", "invalid states", map[string]string{
				"states": "must be PENDING, PUBLISHED or CANCELED",
			})
			return
		}
		f.States = append(f.States, st)
	}

	var err error
	if f.RangeStart, err = parseTimeParam(q.Get("range_start")); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid range_start", nil)
		return
	}
	if f.RangeEnd, err = parseTimeParam(q.Get("range_end")); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid range_end", nil)
		return
	}

	items, err := h.events.ListAdmin(r.Context(), f)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventResponses(items))
}

// GET /events/{eventID} (public)
func (h *Handler) GetPublicEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid eventID", nil)
		return
	}

	details, err := h.events.GetPublished(r.Context(), eventID, clientIP(r))
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventResponse(*details))
}

// GET /events (public)
func (h *Handler) ListPublicEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, size := parsePage(r)

	f := domain.PublicEventFilter{
		Text:          strings.TrimSpace(q.Get("text")),
		Categories:    parseInt64List(q.Get("categories")),
		OnlyAvailable: q.Get("only_available") == "true",
		From:          from,
		Size:          size,
	}
	if s := strings.TrimSpace(q.Get("paid")); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			fail(w, r, http.StatusBadRequest, "request.invalid", "invalid paid", nil)
			return
		}
		f.Paid = &b
	}

	var err error
	if f.RangeStart, err = parseTimeParam(q.Get("range_start")); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid range_start", nil)
		return
	}
	if f.RangeEnd, err = parseTimeParam(q.Get("range_end")); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid range_end", nil)
		return
	}

	items, err := h.events.ListPublished(r.Context(), f, clientIP(r))
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventResponses(items))
}

func handleErr(w http.ResponseWriter, r *http.Request, err error) {
	var ae *domain.AppError
	if !errors.As(err, &ae) {
		// Do not leak internal details.
		fail(w, r, http.StatusInternalServerError, "internal", "internal error", nil)
		return
	}

	status := http.StatusInternalServerError
	switch ae.Code {
	case domain.CodeValidation:
		status = http.StatusBadRequest
	case domain.CodeNotFound:
		status = http.StatusNotFound
	case domain.CodeForbidden:
		status = http.StatusForbidden
	case domain.CodeConflict:
		status = http.StatusConflict
	}
	fail(w, r, status, string(ae.Code), ae.Message, ae.Meta)
}

func fail(w http.ResponseWriter, r *http.Request, status int, code, message string, meta map[string]string) {
	reqID := appctx.GetRequestID(r.Context())
	if reqID == "" {
		reqID = "no-request-id"
	}
	response.Fail(w, status, code, message, meta, reqID)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func parsePage(r *http.Request) (from, size int) {
	from, _ = strconv.Atoi(r.URL.Query().Get("from"))
	size, _ = strconv.Atoi(r.URL.Query().Get("size"))
	return from, size
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInt64List(s string) []int64 {
	var out []int64
	for _, p := range splitList(s) {
		if n, err := strconv.ParseInt(p, 10, 64); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func parseTimeParam(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	tt := t.UTC()
	return &tt, nil
}
