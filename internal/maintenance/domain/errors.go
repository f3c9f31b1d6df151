package domain

import (
	"errors"
	"fmt"
)

// Kind classifies domain errors so adapters can map them to responses.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindStateConflict Kind = "state_conflict"
	KindNotFound      Kind = "not_found"
)

// Error is the typed error returned by every maintenance operation.
// Two errors match under errors.Is when kind and code agree, so callers can
// compare against the sentinels below while messages stay specific.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Field   string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// NewValidationError creates a field-level validation error.
func NewValidationError(field, code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Field: field}
}

// InvalidInput reports a malformed input field that failed a generic rule
// such as required or max length.
func InvalidInput(field, rule, param string) *Error {
	msg := "failed " + rule
	if param != "" {
		msg += "=" + param
	}
	return NewValidationError(field, "invalid_input", msg)
}

var (
	ErrOwnerRequired       = NewValidationError("owner_id", "owner_required", "owner is required")
	ErrSlotRequired        = NewValidationError("slot", "slot_required", "slot is required")
	ErrSlotInPast          = NewValidationError("slot", "slot_in_past", "slot must be in the future")
	ErrInvalidServiceType  = NewValidationError("service_type", "invalid_service_type", "unknown service type")
	ErrInvalidStatus       = NewValidationError("status", "invalid_status", "unknown status")
	ErrInvalidRange        = NewValidationError("to", "invalid_range", "to must not be before from")
	ErrRangeTooLarge       = NewValidationError("to", "range_too_large", "availability range is too large")
	ErrFactoryTimeRequired = NewValidationError("factory_proposed_at", "factory_time_required", "factory proposed time must be set")

	ErrNotOwner     = &Error{Kind: KindAuthorization, Code: "not_owner", Message: "only the owner may perform this operation"}
	ErrOperatorOnly = &Error{Kind: KindAuthorization, Code: "operator_only", Message: "only an operator may perform this operation"}
	ErrOwnerOnly    = &Error{Kind: KindAuthorization, Code: "owner_only", Message: "only a device owner may perform this operation"}

	ErrNotAwaitingUserApproval = &Error{Kind: KindStateConflict, Code: "not_awaiting_user_approval", Message: "request is not awaiting user approval"}
	ErrAlreadyUserApproved     = &Error{Kind: KindStateConflict, Code: "already_user_approved", Message: "request is already approved by the user"}
	ErrNotFactoryApproved      = &Error{Kind: KindStateConflict, Code: "not_factory_approved", Message: "request is not yet approved by the factory"}
	ErrTooLateToCancel         = &Error{Kind: KindStateConflict, Code: "too_late_to_cancel", Message: "request is already approved by the factory and can no longer be cancelled"}
	ErrRescheduleNotAllowed    = &Error{Kind: KindStateConflict, Code: "reschedule_not_allowed", Message: "request can no longer be rescheduled"}
	ErrCancelNotAllowed        = &Error{Kind: KindStateConflict, Code: "cancel_not_allowed", Message: "request can no longer be cancelled"}
	ErrConcurrentUpdate        = &Error{Kind: KindStateConflict, Code: "concurrent_update", Message: "request was modified concurrently"}

	ErrRequestNotFound = &Error{Kind: KindNotFound, Code: "request_not_found", Message: "maintenance request not found"}
)

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsValidation(err error) bool    { return KindOf(err) == KindValidation }
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }
func IsStateConflict(err error) bool { return KindOf(err) == KindStateConflict }
func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
