package queries

import (
	"time"

	"github.com/felixgeelhaar/upkeep/internal/maintenance/domain"
	"github.com/google/uuid"
)

// DateLayout formats calendar dates in availability results.
const DateLayout = "2006-01-02"

// RequestDTO is the read model of a maintenance request.
type RequestDTO struct {
	ID                uuid.UUID  `json:"id"`
	OwnerID           uuid.UUID  `json:"owner_id"`
	DeviceRef         string     `json:"device_ref,omitempty"`
	ServiceType       string     `json:"service_type"`
	Status            string     `json:"status"`
	UserRequestedAt   time.Time  `json:"user_requested_at"`
	FactoryProposedAt *time.Time `json:"factory_proposed_at,omitempty"`
	IsUserApproved    bool       `json:"is_user_approved"`
	IsFactoryApproved bool       `json:"is_factory_approved"`
	ChangeCount       int        `json:"change_count"`
	Version           int        `json:"version"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewRequestDTO maps a request to its read model.
func NewRequestDTO(r *domain.Request) RequestDTO {
	return RequestDTO{
		ID:                r.ID(),
		OwnerID:           r.OwnerID(),
		DeviceRef:         r.DeviceRef(),
		ServiceType:       r.ServiceType().String(),
		Status:            r.Status().String(),
		UserRequestedAt:   r.UserRequestedAt(),
		FactoryProposedAt: r.FactoryProposedAt(),
		IsUserApproved:    r.IsUserApproved(),
		IsFactoryApproved: r.IsFactoryApproved(),
		ChangeCount:       r.ChangeLog().Len(),
		Version:           r.Version(),
		CreatedAt:         r.CreatedAt(),
		UpdatedAt:         r.UpdatedAt(),
	}
}

func newRequestDTOs(rs []*domain.Request) []RequestDTO {
	out := make([]RequestDTO, len(rs))
	for i, r := range rs {
		out[i] = NewRequestDTO(r)
	}
	return out
}

// ChangeRecordDTO is one ChangeLog entry.
type ChangeRecordDTO struct {
	ChangedAt                 time.Time  `json:"changed_at"`
	ActorID                   uuid.UUID  `json:"actor_id"`
	PreviousUserRequestedAt   time.Time  `json:"previous_user_requested_at"`
	NewUserRequestedAt        time.Time  `json:"new_user_requested_at"`
	PreviousFactoryProposedAt *time.Time `json:"previous_factory_proposed_at,omitempty"`
	NewFactoryProposedAt      *time.Time `json:"new_factory_proposed_at,omitempty"`
}

func newChangeRecordDTOs(log domain.ChangeLog) []ChangeRecordDTO {
	records := log.All()
	out := make([]ChangeRecordDTO, len(records))
	for i, r := range records {
		out[i] = ChangeRecordDTO{
			ChangedAt:                 r.ChangedAt(),
			ActorID:                   r.ActorID(),
			PreviousUserRequestedAt:   r.PreviousUserRequestedAt(),
			NewUserRequestedAt:        r.NewUserRequestedAt(),
			PreviousFactoryProposedAt: r.PreviousFactoryProposedAt(),
			NewFactoryProposedAt:      r.NewFactoryProposedAt(),
		}
	}
	return out
}

// DateSlotsDTO lists occupied times of one date.
type DateSlotsDTO struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

// AvailabilityDTO is the availability report with dates as YYYY-MM-DD and
// times as HH:MM.
type AvailabilityDTO struct {
	AvailableTimeSlots []string       `json:"available_time_slots"`
	DisabledDates      []string       `json:"disabled_dates"`
	DisabledTimeSlots  []DateSlotsDTO `json:"disabled_time_slots"`
}

// NewAvailabilityDTO maps a calculated availability to its read model.
func NewAvailabilityDTO(a domain.Availability) AvailabilityDTO {
	dto := AvailabilityDTO{
		AvailableTimeSlots: formatTimes(a.AvailableTimeSlots),
		DisabledDates:      make([]string, len(a.DisabledDates)),
		DisabledTimeSlots:  make([]DateSlotsDTO, len(a.DisabledTimeSlots)),
	}
	for i, d := range a.DisabledDates {
		dto.DisabledDates[i] = d.Format(DateLayout)
	}
	for i, ds := range a.DisabledTimeSlots {
		dto.DisabledTimeSlots[i] = DateSlotsDTO{Date: ds.Date.Format(DateLayout), Times: formatTimes(ds.Times)}
	}
	return dto
}

func formatTimes(ts []domain.TimeOfDay) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return out
}
