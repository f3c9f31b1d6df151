package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows the operator listing. Zero values match everything.
type ListFilter struct {
	Status *Status
	// Text matches the device reference or service type, case-insensitively.
	Text   string
	Limit  int
	Offset int
}

// ClaimReader is the read side used by availability.
type ClaimReader interface {
	// ListClaimsBetween returns every request with a requested or proposed
	// time in [start, end).
	ListClaimsBetween(ctx context.Context, start, end time.Time) ([]SlotClaim, error)
}

// RequestRepository persists Request aggregates.
type RequestRepository interface {
	ClaimReader
	// Save inserts a new request or updates an existing one. Updates fail
	// with ErrConcurrentUpdate when the stored version moved.
	Save(ctx context.Context, r *Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*Request, error)
	// FindByIDForUpdate loads the request and locks it for the rest of the
	// surrounding transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Request, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByOwner returns the owner's requests, newest first. A non-empty
	// deviceRef restricts the result to that device.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, deviceRef string) ([]*Request, error)
	List(ctx context.Context, filter ListFilter) ([]*Request, error)
}

// Tombstone is the archived trace of a cancelled request.
type Tombstone struct {
	RequestID   uuid.UUID
	OwnerID     uuid.UUID
	CancelledBy uuid.UUID
	CancelledAt time.Time
	Snapshot    RequestState
}

// NewTombstone captures r as it was when cancelled.
func NewTombstone(r *Request, cancelledBy uuid.UUID, at time.Time) Tombstone {
	return Tombstone{
		RequestID:   r.ID(),
		OwnerID:     r.OwnerID(),
		CancelledBy: cancelledBy,
		CancelledAt: normalize(at),
		Snapshot:    r.State(),
	}
}

// TombstoneArchive stores traces of cancelled requests.
type TombstoneArchive interface {
	Archive(ctx context.Context, t Tombstone) error
	FindByRequestID(ctx context.Context, id uuid.UUID) (*Tombstone, error)
}
