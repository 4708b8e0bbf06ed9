package service_test

import (
	"context"
	"time"

	"github.com/cityagenda/event-platform/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockEventRepo struct{ mock.Mock }

func (m *MockEventRepo) CreateEvent(ctx context.Context, e *domain.Event) error {
	return m.Called(ctx, e).Error(0)
}
func (m *MockEventRepo) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	args := m.Called(ctx, id)
	var e *domain.Event
	if v := args.Get(0); v != nil {
		e = v.(*domain.Event)
	}
	return e, args.Error(1)
}
func (m *MockEventRepo) UpdateEvent(ctx context.Context, traceID string, e *domain.Event, expectState domain.EventState) error {
	return m.Called(ctx, traceID, e, expectState).Error(0)
}
func (m *MockEventRepo) ListByInitiator(ctx context.Context, initiatorID int64, from, size int) ([]*domain.Event, error) {
	args := m.Called(ctx, initiatorID, from, size)
	var evs []*domain.Event
	if v := args.Get(0); v != nil {
		evs = v.([]*domain.Event)
	}
	return evs, args.Error(1)
}
func (m *MockEventRepo) ListAdmin(ctx context.Context, f domain.AdminEventFilter) ([]*domain.Event, error) {
	args := m.Called(ctx, f)
	var evs []*domain.Event
	if v := args.Get(0); v != nil {
		evs = v.([]*domain.Event)
	}
	return evs, args.Error(1)
}
func (m *MockEventRepo) ListPublished(ctx context.Context, f domain.PublicEventFilter) ([]*domain.Event, error) {
	args := m.Called(ctx, f)
	var evs []*domain.Event
	if v := args.Get(0); v != nil {
		evs = v.([]*domain.Event)
	}
	return evs, args.Error(1)
}
func (m *MockEventRepo) CountConfirmed(ctx context.Context, eventID int64) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

type MockRequestRepo struct{ mock.Mock }

func (m *MockRequestRepo) CreateRequest(ctx context.Context, traceID string, eventID, requesterID int64) (domain.Request, error) {
	args := m.Called(ctx, traceID, eventID, requesterID)
	return args.Get(0).(domain.Request), args.Error(1)
}
func (m *MockRequestRepo) CancelRequest(ctx context.Context, traceID string, requestID, requesterID int64) (domain.Request, error) {
	args := m.Called(ctx, traceID, requestID, requesterID)
	return args.Get(0).(domain.Request), args.Error(1)
}
func (m *MockRequestRepo) ChangeStatus(ctx context.Context, traceID string, eventID, organizerID int64, requestIDs []int64, target domain.RequestStatus) (domain.StatusUpdateResult, error) {
	args := m.Called(ctx, traceID, eventID, organizerID, requestIDs, target)
	return args.Get(0).(domain.StatusUpdateResult), args.Error(1)
}
func (m *MockRequestRepo) GetRequest(ctx context.Context, id int64) (domain.Request, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Request), args.Error(1)
}
func (m *MockRequestRepo) ListByRequester(ctx context.Context, requesterID int64) ([]domain.Request, error) {
	args := m.Called(ctx, requesterID)
	var reqs []domain.Request
	if v := args.Get(0); v != nil {
		reqs = v.([]domain.Request)
	}
	return reqs, args.Error(1)
}
func (m *MockRequestRepo) ListByEvent(ctx context.Context, eventID int64) ([]domain.Request, error) {
	args := m.Called(ctx, eventID)
	var reqs []domain.Request
	if v := args.Get(0); v != nil {
		reqs = v.([]domain.Request)
	}
	return reqs, args.Error(1)
}

// MockDirectory serves both the user and category lookups.
type MockDirectory struct{ mock.Mock }

func (m *MockDirectory) GetUser(ctx context.Context, id int64) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}
func (m *MockDirectory) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Category), args.Error(1)
}

type MockStats struct{ mock.Mock }

func (m *MockStats) RecordView(ctx context.Context, uri, ip string) {
	m.Called(ctx, uri, ip)
}
func (m *MockStats) ViewCounts(ctx context.Context, eventIDs []int64, start, end time.Time) map[int64]int64 {
	args := m.Called(ctx, eventIDs, start, end)
	return args.Get(0).(map[int64]int64)
}

type MockCache struct{ mock.Mock }

func (m *MockCache) GetViews(ctx context.Context, eventID int64) (int64, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockCache) SetViews(ctx context.Context, eventID int64, views int64, ttl time.Duration) error {
	return m.Called(ctx, eventID, views, ttl).Error(0)
}
func (m *MockCache) AllowRequest(ctx context.Context, ip string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, ip, limit, window)
	return args.Bool(0), args.Error(1)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
