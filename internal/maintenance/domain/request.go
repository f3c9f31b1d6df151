package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/upkeep/internal/shared/domain"
	"github.com/google/uuid"
)

// Request is one owner's maintenance appointment and its approval state.
type Request struct {
	sharedDomain.BaseAggregateRoot
	ownerID           uuid.UUID
	deviceRef         string
	serviceType       ServiceType
	status            Status
	userRequestedAt   time.Time
	factoryProposedAt *time.Time
	userApproved      bool
	factoryApproved   bool
	changeLog         ChangeLog
}

// NewRequest creates a request awaiting factory review.
// deviceRef is optional; an empty string means no device.
func NewRequest(ownerID uuid.UUID, deviceRef string, slot time.Time, serviceType ServiceType, now time.Time) (*Request, error) {
	if ownerID == uuid.Nil {
		return nil, ErrOwnerRequired
	}
	if !serviceType.IsValid() {
		return nil, ErrInvalidServiceType
	}
	if err := validateSlot(slot, now); err != nil {
		return nil, err
	}

	r := &Request{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(sharedDomain.NewBaseEntity(normalize(now))),
		ownerID:           ownerID,
		deviceRef:         deviceRef,
		serviceType:       serviceType,
		status:            StatusPendingFactoryReview,
		userRequestedAt:   normalize(slot),
	}

	r.AddDomainEvent(&RequestSubmitted{
		requestEvent:    newRequestEvent(r, RoutingKeySubmitted, Transition{Status: r.status}, now),
		ServiceType:     serviceType,
		UserRequestedAt: r.userRequestedAt,
	})
	return r, nil
}

func validateSlot(slot, now time.Time) error {
	if slot.IsZero() {
		return ErrSlotRequired
	}
	if !slot.After(now) {
		return ErrSlotInPast
	}
	return nil
}

// RequestState is the persisted form of a Request.
type RequestState struct {
	ID                uuid.UUID           `json:"id"`
	OwnerID           uuid.UUID           `json:"owner_id"`
	DeviceRef         string              `json:"device_ref,omitempty"`
	ServiceType       ServiceType         `json:"service_type"`
	Status            Status              `json:"status"`
	UserRequestedAt   time.Time           `json:"user_requested_at"`
	FactoryProposedAt *time.Time          `json:"factory_proposed_at,omitempty"`
	UserApproved      bool                `json:"is_user_approved"`
	FactoryApproved   bool                `json:"is_factory_approved"`
	ChangeLog         []ChangeRecordState `json:"change_log"`
	Version           int                 `json:"version"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// RehydrateRequest restores a request from storage without raising events.
func RehydrateRequest(s RequestState) *Request {
	records := make([]ChangeRecord, len(s.ChangeLog))
	for i, rs := range s.ChangeLog {
		records[i] = RehydrateChangeRecord(rs)
	}
	return &Request{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(s.ID, normalize(s.CreatedAt), normalize(s.UpdatedAt)),
			s.Version,
		),
		ownerID:           s.OwnerID,
		deviceRef:         s.DeviceRef,
		serviceType:       s.ServiceType,
		status:            s.Status,
		userRequestedAt:   normalize(s.UserRequestedAt),
		factoryProposedAt: normalizePtr(s.FactoryProposedAt),
		userApproved:      s.UserApproved,
		factoryApproved:   s.FactoryApproved,
		changeLog:         NewChangeLog(records...),
	}
}

// State returns the persisted form.
func (r *Request) State() RequestState {
	return RequestState{
		ID:                r.ID(),
		OwnerID:           r.ownerID,
		DeviceRef:         r.deviceRef,
		ServiceType:       r.serviceType,
		Status:            r.status,
		UserRequestedAt:   r.userRequestedAt,
		FactoryProposedAt: copyTime(r.factoryProposedAt),
		UserApproved:      r.userApproved,
		FactoryApproved:   r.factoryApproved,
		ChangeLog:         r.changeLog.States(),
		Version:           r.Version(),
		CreatedAt:         r.CreatedAt(),
		UpdatedAt:         r.UpdatedAt(),
	}
}

func (r *Request) OwnerID() uuid.UUID            { return r.ownerID }
func (r *Request) DeviceRef() string             { return r.deviceRef }
func (r *Request) ServiceType() ServiceType      { return r.serviceType }
func (r *Request) Status() Status                { return r.status }
func (r *Request) UserRequestedAt() time.Time    { return r.userRequestedAt }
func (r *Request) FactoryProposedAt() *time.Time { return copyTime(r.factoryProposedAt) }
func (r *Request) IsUserApproved() bool          { return r.userApproved }
func (r *Request) IsFactoryApproved() bool       { return r.factoryApproved }
func (r *Request) ChangeLog() ChangeLog          { return NewChangeLog(r.changeLog.records...) }

// IsOwnedBy reports whether actorID owns the request.
func (r *Request) IsOwnedBy(actorID uuid.UUID) bool {
	return r.ownerID == actorID
}

func (r *Request) snapshot() Transition {
	return Transition{
		PreviousStatus:          r.status,
		PreviousUserApproved:    r.userApproved,
		PreviousFactoryApproved: r.factoryApproved,
	}
}

func (r *Request) complete(tr Transition) Transition {
	tr.Status = r.status
	tr.UserApproved = r.userApproved
	tr.FactoryApproved = r.factoryApproved
	return tr
}

// Review carries the fields an operator may set. Nil fields are left alone.
type Review struct {
	Status            *Status
	FactoryProposedAt *time.Time
	FactoryApproved   *bool
}

// FactoryReview applies an operator review. Any status may be set. A proposed
// time that differs from the stored one is logged and sends the request back
// to the owner for approval, overriding the supplied status.
func (r *Request) FactoryReview(actorID uuid.UUID, review Review, now time.Time) error {
	if review.Status != nil && !review.Status.IsValid() {
		return ErrInvalidStatus
	}
	if review.FactoryProposedAt != nil && review.FactoryProposedAt.IsZero() {
		return ErrFactoryTimeRequired
	}

	tr := r.snapshot()

	if review.Status != nil {
		r.status = *review.Status
	}
	if review.FactoryApproved != nil {
		r.factoryApproved = *review.FactoryApproved
	}

	proposed := normalizePtr(review.FactoryProposedAt)
	timeChanged := proposed != nil && !sameTime(r.factoryProposedAt, proposed)
	if timeChanged {
		r.changeLog.Append(newChangeRecord(now, actorID,
			r.userRequestedAt, r.userRequestedAt,
			r.factoryProposedAt, proposed))
		r.factoryProposedAt = proposed
		r.status = StatusPendingUserApproval
		r.userApproved = false
	}

	r.Touch(normalize(now))
	r.AddDomainEvent(&FactoryReviewed{
		requestEvent:      newRequestEvent(r, RoutingKeyReviewed, r.complete(tr), now),
		FactoryProposedAt: copyTime(r.factoryProposedAt),
		TimeChanged:       timeChanged,
	})
	return nil
}

// Approve records the owner's acceptance of the factory proposal.
func (r *Request) Approve(actorID uuid.UUID, now time.Time) error {
	if !r.IsOwnedBy(actorID) {
		return ErrNotOwner
	}
	if r.status != StatusPendingUserApproval {
		return ErrNotAwaitingUserApproval
	}
	if r.userApproved {
		return ErrAlreadyUserApproved
	}
	if !r.factoryApproved {
		return ErrNotFactoryApproved
	}

	tr := r.snapshot()
	r.userApproved = true
	r.status = StatusInProgress
	r.Touch(normalize(now))

	r.AddDomainEvent(&UserApproved{
		requestEvent: newRequestEvent(r, RoutingKeyApproved, r.complete(tr), now),
	})
	return nil
}

// Reschedule moves the owner's requested slot and reopens factory review.
func (r *Request) Reschedule(actorID uuid.UUID, slot time.Time, now time.Time) error {
	if !r.IsOwnedBy(actorID) {
		return ErrNotOwner
	}
	if !r.status.IsOpen() {
		return ErrRescheduleNotAllowed
	}
	if err := validateSlot(slot, now); err != nil {
		return err
	}

	tr := r.snapshot()
	slot = normalize(slot)
	r.changeLog.Append(newChangeRecord(now, actorID,
		r.userRequestedAt, slot,
		r.factoryProposedAt, nil))

	r.userRequestedAt = slot
	r.factoryProposedAt = nil
	r.status = StatusPendingFactoryReview
	r.userApproved = false
	r.factoryApproved = false
	r.Touch(normalize(now))

	r.AddDomainEvent(&RequestRescheduled{
		requestEvent:    newRequestEvent(r, RoutingKeyRescheduled, r.complete(tr), now),
		UserRequestedAt: slot,
	})
	return nil
}

// Cancel checks that the owner may withdraw the request and raises
// RequestCancelled. The repository removes the request.
func (r *Request) Cancel(actorID uuid.UUID, now time.Time) error {
	if !r.IsOwnedBy(actorID) {
		return ErrNotOwner
	}
	if r.factoryApproved {
		return ErrTooLateToCancel
	}
	if !r.status.IsOpen() {
		return ErrCancelNotAllowed
	}

	tr := r.snapshot()
	tr.Status = r.status
	tr.UserApproved = r.userApproved
	tr.FactoryApproved = r.factoryApproved

	r.AddDomainEvent(&RequestCancelled{
		requestEvent: newRequestEvent(r, RoutingKeyCancelled, tr, now),
		CancelledBy:  actorID,
	})
	return nil
}
