package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/cityagenda/event-platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validNewEvent() domain.NewEvent {
	return domain.NewEvent{
		Title:       "City marathon",
		Annotation:  "Annual spring marathon through the old town",
		Description: "42km, start at the main square, refreshment points every 5km",
		CategoryID:  3,
		Location:    domain.Location{Lat: 55.75, Lon: 37.61},
		EventDate:   now.Add(48 * time.Hour),
	}
}

func TestNewPendingEvent_Defaults(t *testing.T) {
	e, err := domain.NewPendingEvent(7, validNewEvent(), now)
	require.NoError(t, err)

	assert.Equal(t, domain.StatePending, e.State)
	assert.False(t, e.Paid)
	assert.Equal(t, 0, e.ParticipantLimit)
	assert.True(t, e.RequestModeration)
	assert.Nil(t, e.PublishedOn)
	assert.Equal(t, int64(7), e.InitiatorID)
}

func TestNewPendingEvent_OverridesDefaults(t *testing.T) {
	n := validNewEvent()
	paid := true
	limit := 50
	moderation := false
	n.Paid = &paid
	n.ParticipantLimit = &limit
	n.RequestModeration = &moderation

	e, err := domain.NewPendingEvent(7, n, now)
	require.NoError(t, err)

	assert.True(t, e.Paid)
	assert.Equal(t, 50, e.ParticipantLimit)
	assert.False(t, e.RequestModeration)
}

func TestNewPendingEvent_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.NewEvent)
	}{
		{"empty title", func(n *domain.NewEvent) { n.Title = "  " }},
		{"title too long", func(n *domain.NewEvent) { n.Title = strings.Repeat("x", 121) }},
		{"annotation too long", func(n *domain.NewEvent) { n.Annotation = strings.Repeat("x", 2001) }},
		{"description too long", func(n *domain.NewEvent) { n.Description = strings.Repeat("x", 7001) }},
		{"missing category", func(n *domain.NewEvent) { n.CategoryID = 0 }},
		{"date too soon", func(n *domain.NewEvent) { n.EventDate = now.Add(time.Hour) }},
		{"date in the past", func(n *domain.NewEvent) { n.EventDate = now.Add(-time.Hour) }},
		{"negative limit", func(n *domain.NewEvent) {
			neg := -1
			n.ParticipantLimit = &neg
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := validNewEvent()
			tt.mutate(&n)

			_, err := domain.NewPendingEvent(7, n, now)
			require.Error(t, err)
			assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
		})
	}
}

func TestValidateEventDate_Boundary(t *testing.T) {
	// exactly at the lead boundary is allowed
	assert.NoError(t, domain.ValidateEventDate(now.Add(domain.OwnerLeadTime), domain.OwnerLeadTime, now))
	assert.Error(t, domain.ValidateEventDate(now.Add(domain.OwnerLeadTime-time.Second), domain.OwnerLeadTime, now))

	// admin gets the shorter window
	assert.NoError(t, domain.ValidateEventDate(now.Add(domain.AdminLeadTime), domain.AdminLeadTime, now))
}

func TestApplyOwnerAction(t *testing.T) {
	tests := []struct {
		name   string
		state  domain.EventState
		action domain.OwnerStateAction
		want   domain.EventState
	}{
		{"cancel pending", domain.StatePending, domain.CancelReview, domain.StateCanceled},
		{"resubmit canceled", domain.StateCanceled, domain.SendToReview, domain.StatePending},
		{"send pending to review is a no-op", domain.StatePending, domain.SendToReview, domain.StatePending},
		{"cancel canceled is a no-op", domain.StateCanceled, domain.CancelReview, domain.StateCanceled},
		{"published stays published", domain.StatePublished, domain.CancelReview, domain.StatePublished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &domain.Event{State: tt.state}
			e.ApplyOwnerAction(tt.action)
			assert.Equal(t, tt.want, e.State)
		})
	}
}

func TestApplyAdminAction_PublishOnlyFromPending(t *testing.T) {
	e := &domain.Event{State: domain.StatePending}
	require.NoError(t, e.ApplyAdminAction(domain.PublishEvent, now))
	assert.Equal(t, domain.StatePublished, e.State)
	require.NotNil(t, e.PublishedOn)
	assert.Equal(t, now, *e.PublishedOn)

	// second publish must fail: published is terminal
	err := e.ApplyAdminAction(domain.PublishEvent, now)
	require.Error(t, err)
	assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))

	canceled := &domain.Event{State: domain.StateCanceled}
	err = canceled.ApplyAdminAction(domain.PublishEvent, now)
	require.Error(t, err)
	assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
}

func TestApplyAdminAction_Reject(t *testing.T) {
	e := &domain.Event{State: domain.StatePending}
	require.NoError(t, e.ApplyAdminAction(domain.RejectEvent, now))
	assert.Equal(t, domain.StateCanceled, e.State)

	published := &domain.Event{State: domain.StatePublished}
	err := published.ApplyAdminAction(domain.RejectEvent, now)
	require.Error(t, err)
	assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
}

func TestParseStateActions(t *testing.T) {
	a, err := domain.ParseOwnerStateAction("SEND_TO_REVIEW")
	require.NoError(t, err)
	assert.Equal(t, domain.SendToReview, a)

	_, err = domain.ParseOwnerStateAction("PUBLISH_EVENT")
	require.Error(t, err)
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))

	b, err := domain.ParseAdminStateAction("REJECT_EVENT")
	require.NoError(t, err)
	assert.Equal(t, domain.RejectEvent, b)

	_, err = domain.ParseAdminStateAction("CANCEL_REVIEW")
	require.Error(t, err)
}

func TestEventPatch_Apply(t *testing.T) {
	e, err := domain.NewPendingEvent(7, validNewEvent(), now)
	require.NoError(t, err)

	title := "  Night marathon  "
	limit := 100
	newDate := now.Add(72 * time.Hour)
	p := domain.EventPatch{
		Title:            &title,
		ParticipantLimit: &limit,
		EventDate:        &newDate,
	}
	require.NoError(t, p.Validate())
	e.Apply(p)

	assert.Equal(t, "Night marathon", e.Title)
	assert.Equal(t, 100, e.ParticipantLimit)
	assert.Equal(t, newDate, e.EventDate)
	// untouched fields survive
	assert.Equal(t, "Annual spring marathon through the old town", e.Annotation)
}

func TestEventPatch_Validate(t *testing.T) {
	empty := " "
	bad := domain.EventPatch{Title: &empty}
	require.Error(t, bad.Validate())

	neg := -5
	require.Error(t, domain.EventPatch{ParticipantLimit: &neg}.Validate())

	zero := int64(0)
	require.Error(t, domain.EventPatch{CategoryID: &zero}.Validate())

	require.NoError(t, domain.EventPatch{}.Validate())
}
