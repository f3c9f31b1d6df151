package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/maintenance/application/queries"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp_ParseSlot(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	a := &App{Location: berlin}

	got, err := a.ParseSlot("2030-01-07 10:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)))

	got, err = a.ParseSlot("2030-01-07T10:00:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)))

	_, err = a.ParseSlot("next monday")
	assert.Error(t, err)
}

func TestPrintRequests(t *testing.T) {
	var buf bytes.Buffer
	PrintRequests(&buf, nil, time.UTC)
	assert.Equal(t, "No maintenance requests found.\n", buf.String())

	buf.Reset()
	proposed := time.Date(2030, 1, 7, 11, 0, 0, 0, time.UTC)
	PrintRequests(&buf, []queries.RequestDTO{{
		ID:                uuid.New(),
		Status:            "pending_user_approval",
		ServiceType:       "yearly",
		UserRequestedAt:   time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC),
		FactoryProposedAt: &proposed,
	}}, time.UTC)
	assert.Contains(t, buf.String(), "Maintenance requests (1):")
	assert.Contains(t, buf.String(), "2030-01-07 10:00 UTC -> 2030-01-07 11:00 UTC")
}

func TestPrintAvailability(t *testing.T) {
	var buf bytes.Buffer
	PrintAvailability(&buf, &queries.AvailabilityDTO{
		AvailableTimeSlots: []string{"10:00", "11:00"},
		DisabledDates:      []string{"2030-01-08"},
		DisabledTimeSlots: []queries.DateSlotsDTO{
			{Date: "2030-01-07", Times: []string{"10:00"}},
			{Date: "2030-01-08", Times: []string{"10:00", "11:00"}},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "Bookable times: 10:00 11:00")
	assert.Contains(t, out, "2030-01-07  10:00\n")
	assert.Contains(t, out, "2030-01-08  10:00 11:00 (fully booked)")
}

func TestPrintChangeLog(t *testing.T) {
	var buf bytes.Buffer
	actor := uuid.New()
	before := time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)
	after := before.AddDate(0, 0, 1)
	PrintChangeLog(&buf, []queries.ChangeRecordDTO{{
		ChangedAt:               before.Add(-48 * time.Hour),
		ActorID:                 actor,
		PreviousUserRequestedAt: before,
		NewUserRequestedAt:      after,
	}}, time.UTC)
	out := buf.String()
	assert.Contains(t, out, "1. 2030-01-05 10:00 UTC by "+actor.String())
	assert.Contains(t, out, "requested: 2030-01-07 10:00 UTC -> 2030-01-08 10:00 UTC")
	assert.NotContains(t, out, "proposed:")
}
