package domain

import (
	"slices"
	"strings"
)

// ServiceType is the kind of maintenance being booked.
type ServiceType string

const (
	ServiceYearly  ServiceType = "yearly"
	ServiceMonthly ServiceType = "monthly"
	ServiceOneTime ServiceType = "one_time"
)

func (s ServiceType) String() string { return string(s) }

func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceYearly, ServiceMonthly, ServiceOneTime:
		return true
	}
	return false
}

// ParseServiceType accepts the canonical names, case-insensitively.
func ParseServiceType(s string) (ServiceType, error) {
	st := ServiceType(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", ErrInvalidServiceType
	}
	return st, nil
}

// Status is the lifecycle state of a request.
type Status string

const (
	StatusPendingFactoryReview Status = "pending_factory_review"
	StatusPendingUserApproval  Status = "pending_user_approval"
	StatusInProgress           Status = "in_progress"
	StatusCompleted            Status = "completed"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusPendingFactoryReview,
	StatusPendingUserApproval,
	StatusInProgress,
	StatusCompleted,
}

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	return slices.Contains(AllStatuses, s)
}

// IsOpen reports whether the owner may still reschedule or cancel.
func (s Status) IsOpen() bool {
	return s == StatusPendingFactoryReview || s == StatusPendingUserApproval
}

// ParseStatus accepts the canonical names, case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}
