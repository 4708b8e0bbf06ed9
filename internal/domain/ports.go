package domain

import (
	"context"
	"time"
)

// AdminEventFilter narrows the moderation listing.
type AdminEventFilter struct {
	Users      []int64
	States     []EventState
	Categories []int64
	RangeStart *time.Time
	RangeEnd   *time.Time
	From       int
	Size       int
}

// PublicEventFilter narrows the public listing; only published events match.
type PublicEventFilter struct {
	Text          string
	Categories    []int64
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	From          int
	Size          int
}

type EventRepository interface {
	CreateEvent(ctx context.Context, e *Event) error
	GetEvent(ctx context.Context, id int64) (*Event, error)

	// UpdateEvent persists all mutable fields, but only while the stored
	// state still equals expectState. Zero rows updated surfaces as
	// Conflict: this is the compare-and-swap that keeps PENDING->PUBLISHED
	// a once-only transition under concurrent admin edits. State
	// transitions also queue a lifecycle notification in the same
	// transaction.
	UpdateEvent(ctx context.Context, traceID string, e *Event, expectState EventState) error

	ListByInitiator(ctx context.Context, initiatorID int64, from, size int) ([]*Event, error)
	ListAdmin(ctx context.Context, f AdminEventFilter) ([]*Event, error)
	ListPublished(ctx context.Context, f PublicEventFilter) ([]*Event, error)

	CountConfirmed(ctx context.Context, eventID int64) (int, error)
}

// RequestRepository owns every confirmed-count-affecting write. The three
// mutating operations each run as one transaction that locks the event row
// first, so two concurrent calls can never both pass a capacity check.
type RequestRepository interface {
	// CreateRequest runs the full admission check and inserts the request
	// with its initial status (CONFIRMED when the event is unmoderated or
	// unlimited, PENDING otherwise).
	CreateRequest(ctx context.Context, traceID string, eventID, requesterID int64) (Request, error)

	// CancelRequest sets the requester's own request to CANCELED.
	// Confirmed participation cannot be self-canceled.
	CancelRequest(ctx context.Context, traceID string, requestID, requesterID int64) (Request, error)

	// ChangeStatus applies target (CONFIRMED or REJECTED) to the whole
	// batch atomically, then cascade-rejects every remaining pending
	// request once the confirm fills the event.
	ChangeStatus(ctx context.Context, traceID string, eventID, organizerID int64, requestIDs []int64, target RequestStatus) (StatusUpdateResult, error)

	GetRequest(ctx context.Context, id int64) (Request, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]Request, error)
	ListByEvent(ctx context.Context, eventID int64) ([]Request, error)
}

type User struct {
	ID    int64
	Name  string
	Email string
}

type Category struct {
	ID   int64
	Name string
}

// UserDirectory and CategoryDirectory are read-only lookups used to
// validate references; their CRUD lives elsewhere.
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (User, error)
}

type CategoryDirectory interface {
	GetCategory(ctx context.Context, id int64) (Category, error)
}

// StatsProvider is the popularity service. It is advisory: RecordView is
// fire-and-forget and ViewCounts returns zero counts on any failure, so a
// provider outage never breaks an event or request operation.
type StatsProvider interface {
	RecordView(ctx context.Context, uri, ip string)
	ViewCounts(ctx context.Context, eventIDs []int64, start, end time.Time) map[int64]int64
}

type CacheRepository interface {
	GetViews(ctx context.Context, eventID int64) (int64, error)
	SetViews(ctx context.Context, eventID int64, views int64, ttl time.Duration) error

	AllowRequest(ctx context.Context, ip string, limit int, window time.Duration) (bool, error)
}
