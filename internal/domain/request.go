package domain

import "time"

type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCanceled  RequestStatus = "CANCELED"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestConfirmed, RequestRejected, RequestCanceled:
		return true
	}
	return false
}

// Request is a user's participation request for an event. At most one
// non-canceled request per (event, requester) pair exists at a time.
type Request struct {
	ID          int64
	EventID     int64
	RequesterID int64
	Status      RequestStatus
	Created     time.Time
}

// StatusUpdateResult reports the outcome of a batch confirm/reject:
// Rejected includes both the batch rejections and any cascade rejections
// triggered by the event filling up.
type StatusUpdateResult struct {
	Confirmed []Request
	Rejected  []Request
}
