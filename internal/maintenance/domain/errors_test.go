package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MatchesByKindAndCode(t *testing.T) {
	err := fmt.Errorf("approve: %w", ErrNotFactoryApproved)

	assert.ErrorIs(t, err, ErrNotFactoryApproved)
	assert.NotErrorIs(t, err, ErrAlreadyUserApproved)
	assert.True(t, IsStateConflict(err))
	assert.False(t, IsValidation(err))

	custom := NewValidationError("slot", "slot_in_past", "slot 2020-01-01 is in the past")
	assert.ErrorIs(t, custom, ErrSlotInPast)
	assert.Equal(t, "slot: slot 2020-01-01 is in the past", custom.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(ErrRequestNotFound))
	assert.Equal(t, KindAuthorization, KindOf(fmt.Errorf("wrapped: %w", ErrOperatorOnly)))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.True(t, IsNotFound(ErrRequestNotFound))
	assert.True(t, IsAuthorization(ErrNotOwner))
}

func TestParseEnums(t *testing.T) {
	st, err := ParseServiceType(" One_Time ")
	assert.NoError(t, err)
	assert.Equal(t, ServiceOneTime, st)

	_, err = ParseServiceType("weekly")
	assert.ErrorIs(t, err, ErrInvalidServiceType)

	status, err := ParseStatus("IN_PROGRESS")
	assert.NoError(t, err)
	assert.Equal(t, StatusInProgress, status)
	assert.False(t, status.IsOpen())

	_, err = ParseStatus("cancelled")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestAllStatusesParse(t *testing.T) {
	require.Len(t, AllStatuses, 4)
	for _, s := range AllStatuses {
		got, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	assert.False(t, Status("archived").IsValid())
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("device_ref", "max", "128")
	assert.True(t, IsValidation(err))
	assert.Equal(t, "device_ref: failed max=128", err.Error())
	assert.Equal(t, "owner_id: failed required", InvalidInput("owner_id", "required", "").Error())
}
