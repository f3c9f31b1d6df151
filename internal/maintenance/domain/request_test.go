package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)

func slotAt(days, hour int) time.Time {
	return time.Date(2026, 5, 4+days, hour, 0, 0, 0, time.UTC)
}

func newTestRequest(t *testing.T, owner uuid.UUID) *Request {
	t.Helper()
	r, err := NewRequest(owner, "device-42", slotAt(2, 10), ServiceYearly, now)
	require.NoError(t, err)
	r.ClearDomainEvents()
	return r
}

func ptr[T any](v T) *T { return &v }

// awaitingOwner returns a request the factory has approved and proposed a time for.
func awaitingOwner(t *testing.T, owner uuid.UUID) *Request {
	t.Helper()
	r := newTestRequest(t, owner)
	require.NoError(t, r.FactoryReview(uuid.New(), Review{
		FactoryProposedAt: ptr(slotAt(3, 11)),
		FactoryApproved:   ptr(true),
	}, now))
	r.ClearDomainEvents()
	return r
}

func TestNewRequest(t *testing.T) {
	owner := uuid.New()

	t.Run("starts pending factory review", func(t *testing.T) {
		r, err := NewRequest(owner, "", slotAt(1, 15), ServiceMonthly, now)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, r.ID())
		assert.Equal(t, owner, r.OwnerID())
		assert.Equal(t, StatusPendingFactoryReview, r.Status())
		assert.False(t, r.IsUserApproved())
		assert.False(t, r.IsFactoryApproved())
		assert.Nil(t, r.FactoryProposedAt())
		assert.Equal(t, 0, r.ChangeLog().Len())
		assert.Equal(t, slotAt(1, 15), r.UserRequestedAt())
		assert.True(t, r.IsNew())

		require.Len(t, r.DomainEvents(), 1)
		submitted, ok := r.DomainEvents()[0].(*RequestSubmitted)
		require.True(t, ok)
		assert.Equal(t, RoutingKeySubmitted, submitted.RoutingKey())
		assert.Equal(t, owner, submitted.OwnerID())
		assert.Equal(t, StatusPendingFactoryReview, submitted.Transition().Status)
	})

	tests := []struct {
		name    string
		owner   uuid.UUID
		slot    time.Time
		service ServiceType
		want    error
	}{
		{"missing owner", uuid.Nil, slotAt(1, 10), ServiceYearly, ErrOwnerRequired},
		{"zero slot", owner, time.Time{}, ServiceYearly, ErrSlotRequired},
		{"slot in the past", owner, now.Add(-time.Minute), ServiceYearly, ErrSlotInPast},
		{"slot equal to now", owner, now, ServiceYearly, ErrSlotInPast},
		{"unknown service type", owner, slotAt(1, 10), ServiceType("weekly"), ErrInvalidServiceType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRequest(tt.owner, "", tt.slot, tt.service, now)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestRequest_FactoryReview(t *testing.T) {
	owner := uuid.New()
	operator := uuid.New()

	t.Run("new time is logged and sent to the owner", func(t *testing.T) {
		r := newTestRequest(t, owner)
		proposed := slotAt(3, 12)

		require.NoError(t, r.FactoryReview(operator, Review{FactoryProposedAt: &proposed}, now.Add(time.Hour)))

		assert.Equal(t, StatusPendingUserApproval, r.Status())
		require.NotNil(t, r.FactoryProposedAt())
		assert.Equal(t, proposed, *r.FactoryProposedAt())

		last, ok := r.ChangeLog().Last()
		require.True(t, ok)
		assert.Equal(t, operator, last.ActorID())
		assert.Nil(t, last.PreviousFactoryProposedAt())
		assert.Equal(t, proposed, *last.NewFactoryProposedAt())
		assert.Equal(t, r.UserRequestedAt(), last.PreviousUserRequestedAt())
		assert.Equal(t, r.UserRequestedAt(), last.NewUserRequestedAt())

		ev := r.DomainEvents()[0].(*FactoryReviewed)
		assert.True(t, ev.TimeChanged)
		assert.True(t, ev.Transition().Changed())
	})

	t.Run("time change overrides supplied status and resets user approval", func(t *testing.T) {
		r := awaitingOwner(t, owner)
		require.NoError(t, r.Approve(owner, now))
		require.True(t, r.IsUserApproved())

		require.NoError(t, r.FactoryReview(operator, Review{
			Status:            ptr(StatusCompleted),
			FactoryProposedAt: ptr(slotAt(4, 16)),
		}, now))

		assert.Equal(t, StatusPendingUserApproval, r.Status())
		assert.False(t, r.IsUserApproved())
		assert.Equal(t, 2, r.ChangeLog().Len())
	})

	t.Run("same time appends nothing", func(t *testing.T) {
		r := awaitingOwner(t, owner)
		before := r.ChangeLog().Len()

		require.NoError(t, r.FactoryReview(operator, Review{FactoryProposedAt: r.FactoryProposedAt()}, now))

		assert.Equal(t, before, r.ChangeLog().Len())
		assert.False(t, r.DomainEvents()[0].(*FactoryReviewed).TimeChanged)
	})

	t.Run("any status may be set without a time", func(t *testing.T) {
		r := newTestRequest(t, owner)

		require.NoError(t, r.FactoryReview(operator, Review{Status: ptr(StatusCompleted)}, now))

		assert.Equal(t, StatusCompleted, r.Status())
		assert.False(t, r.IsFactoryApproved())
		assert.Equal(t, 0, r.ChangeLog().Len())
	})

	t.Run("approval flag alone", func(t *testing.T) {
		r := newTestRequest(t, owner)

		require.NoError(t, r.FactoryReview(operator, Review{FactoryApproved: ptr(true)}, now))

		assert.True(t, r.IsFactoryApproved())
		assert.Equal(t, StatusPendingFactoryReview, r.Status())
		tr := r.DomainEvents()[0].(*FactoryReviewed).Transition()
		assert.False(t, tr.PreviousFactoryApproved)
		assert.True(t, tr.FactoryApproved)
	})

	t.Run("empty review changes nothing", func(t *testing.T) {
		r := newTestRequest(t, owner)

		require.NoError(t, r.FactoryReview(operator, Review{}, now))

		assert.False(t, r.DomainEvents()[0].(*FactoryReviewed).Transition().Changed())
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		r := newTestRequest(t, owner)
		err := r.FactoryReview(operator, Review{Status: ptr(Status("archived"))}, now)

		assert.ErrorIs(t, err, ErrInvalidStatus)
		assert.Equal(t, StatusPendingFactoryReview, r.Status())
		assert.Empty(t, r.DomainEvents())
	})

	t.Run("rejects zero proposed time", func(t *testing.T) {
		r := newTestRequest(t, owner)
		err := r.FactoryReview(operator, Review{FactoryProposedAt: &time.Time{}}, now)

		assert.ErrorIs(t, err, ErrFactoryTimeRequired)
	})
}

func TestRequest_Approve(t *testing.T) {
	owner := uuid.New()

	t.Run("moves to in progress", func(t *testing.T) {
		r := awaitingOwner(t, owner)

		require.NoError(t, r.Approve(owner, now))

		assert.True(t, r.IsUserApproved())
		assert.Equal(t, StatusInProgress, r.Status())
		ev := r.DomainEvents()[0].(*UserApproved)
		assert.Equal(t, StatusPendingUserApproval, ev.Transition().PreviousStatus)
		assert.Equal(t, StatusInProgress, ev.Transition().Status)
	})

	t.Run("factory not approved is a conflict and leaves state unchanged", func(t *testing.T) {
		r := newTestRequest(t, owner)
		require.NoError(t, r.FactoryReview(uuid.New(), Review{FactoryProposedAt: ptr(slotAt(3, 11))}, now))
		r.ClearDomainEvents()
		before := r.State()

		err := r.Approve(owner, now)

		assert.ErrorIs(t, err, ErrNotFactoryApproved)
		assert.True(t, IsStateConflict(err))
		assert.Equal(t, before, r.State())
		assert.Empty(t, r.DomainEvents())
	})

	t.Run("not awaiting approval", func(t *testing.T) {
		r := newTestRequest(t, owner)
		assert.ErrorIs(t, r.Approve(owner, now), ErrNotAwaitingUserApproval)
	})

	t.Run("already approved", func(t *testing.T) {
		r := awaitingOwner(t, owner)
		require.NoError(t, r.Approve(owner, now))
		// An operator may put the status back without clearing the owner's flag.
		require.NoError(t, r.FactoryReview(uuid.New(), Review{Status: ptr(StatusPendingUserApproval)}, now))
		require.True(t, r.IsUserApproved())

		assert.ErrorIs(t, r.Approve(owner, now), ErrAlreadyUserApproved)
	})

	t.Run("checks distinct preconditions in order", func(t *testing.T) {
		s := awaitingOwner(t, owner).State()
		s.UserApproved = true
		s.FactoryApproved = false
		r := RehydrateRequest(s)

		assert.ErrorIs(t, r.Approve(owner, now), ErrAlreadyUserApproved)
	})
}

func TestRequest_Reschedule(t *testing.T) {
	owner := uuid.New()

	t.Run("resets approvals and logs exactly one record", func(t *testing.T) {
		r := awaitingOwner(t, owner)
		t1 := *r.FactoryProposedAt()
		t2 := slotAt(5, 13)
		before := r.ChangeLog().Len()

		require.NoError(t, r.Reschedule(owner, t2, now))

		assert.Nil(t, r.FactoryProposedAt())
		assert.False(t, r.IsUserApproved())
		assert.False(t, r.IsFactoryApproved())
		assert.Equal(t, StatusPendingFactoryReview, r.Status())
		assert.Equal(t, t2, r.UserRequestedAt())
		require.Equal(t, before+1, r.ChangeLog().Len())

		last, _ := r.ChangeLog().Last()
		assert.Equal(t, t2, last.NewUserRequestedAt())
		assert.Equal(t, slotAt(2, 10), last.PreviousUserRequestedAt())
		require.NotNil(t, last.PreviousFactoryProposedAt())
		assert.Equal(t, t1, *last.PreviousFactoryProposedAt())
		assert.Nil(t, last.NewFactoryProposedAt())
		assert.Equal(t, owner, last.ActorID())
	})

	t.Run("rejects past slot", func(t *testing.T) {
		r := newTestRequest(t, owner)
		assert.ErrorIs(t, r.Reschedule(owner, now.Add(-time.Hour), now), ErrSlotInPast)
		assert.Equal(t, 0, r.ChangeLog().Len())
	})

	t.Run("not allowed once in progress", func(t *testing.T) {
		r := awaitingOwner(t, owner)
		require.NoError(t, r.Approve(owner, now))

		assert.ErrorIs(t, r.Reschedule(owner, slotAt(6, 10), now), ErrRescheduleNotAllowed)
	})
}

func TestRequest_Cancel(t *testing.T) {
	owner := uuid.New()

	t.Run("allowed before factory approval", func(t *testing.T) {
		r := newTestRequest(t, owner)

		require.NoError(t, r.Cancel(owner, now))

		ev := r.DomainEvents()[0].(*RequestCancelled)
		assert.Equal(t, owner, ev.CancelledBy)
		assert.Equal(t, RoutingKeyCancelled, ev.RoutingKey())
	})

	t.Run("too late once the factory approved", func(t *testing.T) {
		r := awaitingOwner(t, owner)

		err := r.Cancel(owner, now)
		assert.ErrorIs(t, err, ErrTooLateToCancel)
		assert.Empty(t, r.DomainEvents())
	})

	t.Run("not allowed when completed", func(t *testing.T) {
		r := newTestRequest(t, owner)
		require.NoError(t, r.FactoryReview(uuid.New(), Review{Status: ptr(StatusCompleted)}, now))

		assert.ErrorIs(t, r.Cancel(owner, now), ErrCancelNotAllowed)
	})
}

func TestRequest_OwnershipIsolation(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()

	ops := map[string]func(r *Request) error{
		"approve":    func(r *Request) error { return r.Approve(stranger, now) },
		"reschedule": func(r *Request) error { return r.Reschedule(stranger, slotAt(6, 10), now) },
		"cancel":     func(r *Request) error { return r.Cancel(stranger, now) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			r := awaitingOwner(t, owner)
			before := r.State()

			err := op(r)

			assert.ErrorIs(t, err, ErrNotOwner)
			assert.True(t, IsAuthorization(err))
			assert.Equal(t, before, r.State())
			assert.Empty(t, r.DomainEvents())
		})
	}
}

func TestRequest_ChangeLogOnlyGrows(t *testing.T) {
	owner := uuid.New()
	operator := uuid.New()
	r := newTestRequest(t, owner)

	steps := []func() error{
		func() error { return r.FactoryReview(operator, Review{FactoryProposedAt: ptr(slotAt(3, 10))}, now) },
		func() error { return r.Reschedule(owner, slotAt(4, 11), now) },
		func() error { return r.FactoryReview(operator, Review{FactoryApproved: ptr(true)}, now) },
		func() error { return r.FactoryReview(operator, Review{FactoryProposedAt: ptr(slotAt(4, 12))}, now) },
		func() error { return r.Approve(owner, now) },
		func() error { return r.FactoryReview(operator, Review{Status: ptr(StatusCompleted)}, now) },
	}

	var seen []ChangeRecord
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		all := r.ChangeLog().All()
		require.GreaterOrEqual(t, len(all), len(seen))
		if len(seen) > 0 {
			assert.Equal(t, seen, all[:len(seen)], "step %d rewrote history", i)
		}
		seen = all
	}
	assert.Len(t, seen, 3)
}

func TestRehydrateRequest_RoundTripsState(t *testing.T) {
	r := awaitingOwner(t, uuid.New())
	r.MarkPersisted(3)

	restored := RehydrateRequest(r.State())

	assert.Equal(t, r.State(), restored.State())
	assert.Empty(t, restored.DomainEvents())
	assert.Equal(t, 3, restored.Version())
}
