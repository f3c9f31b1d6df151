package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChangeRecord is one immutable entry in a request's audit trail.
type ChangeRecord struct {
	changedAt                 time.Time
	actorID                   uuid.UUID
	previousUserRequestedAt   time.Time
	newUserRequestedAt        time.Time
	previousFactoryProposedAt *time.Time
	newFactoryProposedAt      *time.Time
}

// ChangeRecordState is the persisted form of a ChangeRecord.
type ChangeRecordState struct {
	ChangedAt                 time.Time  `json:"changed_at"`
	ActorID                   uuid.UUID  `json:"actor_id"`
	PreviousUserRequestedAt   time.Time  `json:"previous_user_requested_at"`
	NewUserRequestedAt        time.Time  `json:"new_user_requested_at"`
	PreviousFactoryProposedAt *time.Time `json:"previous_factory_proposed_at,omitempty"`
	NewFactoryProposedAt      *time.Time `json:"new_factory_proposed_at,omitempty"`
}

func newChangeRecord(at time.Time, actorID uuid.UUID, prevUser, newUser time.Time, prevFactory, newFactory *time.Time) ChangeRecord {
	return ChangeRecord{
		changedAt:                 normalize(at),
		actorID:                   actorID,
		previousUserRequestedAt:   prevUser,
		newUserRequestedAt:        newUser,
		previousFactoryProposedAt: copyTime(prevFactory),
		newFactoryProposedAt:      copyTime(newFactory),
	}
}

// RehydrateChangeRecord restores a record from storage.
func RehydrateChangeRecord(s ChangeRecordState) ChangeRecord {
	return newChangeRecord(s.ChangedAt, s.ActorID,
		normalize(s.PreviousUserRequestedAt), normalize(s.NewUserRequestedAt),
		normalizePtr(s.PreviousFactoryProposedAt), normalizePtr(s.NewFactoryProposedAt))
}

func (r ChangeRecord) ChangedAt() time.Time                 { return r.changedAt }
func (r ChangeRecord) ActorID() uuid.UUID                   { return r.actorID }
func (r ChangeRecord) PreviousUserRequestedAt() time.Time   { return r.previousUserRequestedAt }
func (r ChangeRecord) NewUserRequestedAt() time.Time        { return r.newUserRequestedAt }
func (r ChangeRecord) PreviousFactoryProposedAt() *time.Time { return copyTime(r.previousFactoryProposedAt) }
func (r ChangeRecord) NewFactoryProposedAt() *time.Time      { return copyTime(r.newFactoryProposedAt) }

// State returns the persisted form.
func (r ChangeRecord) State() ChangeRecordState {
	return ChangeRecordState{
		ChangedAt:                 r.changedAt,
		ActorID:                   r.actorID,
		PreviousUserRequestedAt:   r.previousUserRequestedAt,
		NewUserRequestedAt:        r.newUserRequestedAt,
		PreviousFactoryProposedAt: copyTime(r.previousFactoryProposedAt),
		NewFactoryProposedAt:      copyTime(r.newFactoryProposedAt),
	}
}

// ChangeLog is the append-only, ordered audit trail of a request.
// The zero value is an empty log.
type ChangeLog struct {
	records []ChangeRecord
}

// NewChangeLog restores a log in its stored order.
func NewChangeLog(records ...ChangeRecord) ChangeLog {
	return ChangeLog{records: append([]ChangeRecord(nil), records...)}
}

// Append adds a record to the end of the log.
func (l *ChangeLog) Append(r ChangeRecord) {
	l.records = append(l.records, r)
}

// All returns the records oldest first. The slice is a copy.
func (l ChangeLog) All() []ChangeRecord {
	return append([]ChangeRecord(nil), l.records...)
}

// Last returns the most recent record.
func (l ChangeLog) Last() (ChangeRecord, bool) {
	if len(l.records) == 0 {
		return ChangeRecord{}, false
	}
	return l.records[len(l.records)-1], true
}

func (l ChangeLog) Len() int { return len(l.records) }

// States returns the persisted form of every record, oldest first.
func (l ChangeLog) States() []ChangeRecordState {
	out := make([]ChangeRecordState, len(l.records))
	for i, r := range l.records {
		out[i] = r.State()
	}
	return out
}

// timestamps are kept in UTC at microsecond precision, which both storage
// backends round-trip exactly.
func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func normalizePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := normalize(*t)
	return &n
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
