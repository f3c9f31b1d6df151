package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/upkeep/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "MaintenanceRequest"

	RoutingKeySubmitted   = "maintenance.request.submitted"
	RoutingKeyReviewed    = "maintenance.request.reviewed"
	RoutingKeyApproved    = "maintenance.request.approved"
	RoutingKeyRescheduled = "maintenance.request.rescheduled"
	RoutingKeyCancelled   = "maintenance.request.cancelled"
)

// Transition captures status and approval flags around one operation.
type Transition struct {
	PreviousStatus          Status `json:"previous_status,omitempty"`
	Status                  Status `json:"status"`
	PreviousUserApproved    bool   `json:"previous_user_approved"`
	UserApproved            bool   `json:"user_approved"`
	PreviousFactoryApproved bool   `json:"previous_factory_approved"`
	FactoryApproved         bool   `json:"factory_approved"`
}

// Changed reports whether status or either approval flag moved.
func (t Transition) Changed() bool {
	return t.PreviousStatus != t.Status ||
		t.PreviousUserApproved != t.UserApproved ||
		t.PreviousFactoryApproved != t.FactoryApproved
}

// RequestEvent is implemented by every event the aggregate raises.
type RequestEvent interface {
	sharedDomain.DomainEvent
	OwnerID() uuid.UUID
	Transition() Transition
}

type requestEvent struct {
	sharedDomain.BaseEvent
	ownerID    uuid.UUID
	transition Transition
}

func newRequestEvent(r *Request, routingKey string, tr Transition, at time.Time) requestEvent {
	return requestEvent{
		BaseEvent:  sharedDomain.NewBaseEvent(r.ID(), AggregateType, routingKey, at),
		ownerID:    r.ownerID,
		transition: tr,
	}
}

func (e requestEvent) OwnerID() uuid.UUID     { return e.ownerID }
func (e requestEvent) Transition() Transition { return e.transition }

// RequestSubmitted is raised when an owner creates a request.
type RequestSubmitted struct {
	requestEvent
	ServiceType     ServiceType
	UserRequestedAt time.Time
}

// FactoryReviewed is raised on every operator review.
type FactoryReviewed struct {
	requestEvent
	FactoryProposedAt *time.Time
	TimeChanged       bool
}

// UserApproved is raised when the owner accepts the factory proposal.
type UserApproved struct {
	requestEvent
}

// RequestRescheduled is raised when the owner picks a new slot.
type RequestRescheduled struct {
	requestEvent
	UserRequestedAt time.Time
}

// RequestCancelled is raised when the owner withdraws the request.
type RequestCancelled struct {
	requestEvent
	CancelledBy uuid.UUID
}
