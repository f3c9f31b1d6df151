package application

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	domain.BaseEvent
}

func TestNewEventMetadata(t *testing.T) {
	actorID := uuid.New()

	t.Run("keeps supplied correlation id", func(t *testing.T) {
		correlationID := uuid.New()
		metadata := NewEventMetadata(correlationID, actorID)

		assert.Equal(t, correlationID, metadata.CorrelationID)
		assert.Equal(t, actorID, metadata.ActorID)
		assert.NotEqual(t, uuid.Nil, metadata.CausationID)
	})

	t.Run("generates correlation id when missing", func(t *testing.T) {
		a := NewEventMetadata(uuid.Nil, actorID)
		b := NewEventMetadata(uuid.Nil, actorID)

		assert.NotEqual(t, uuid.Nil, a.CorrelationID)
		assert.NotEqual(t, a.CorrelationID, b.CorrelationID)
	})
}

func TestApplyEventMetadata(t *testing.T) {
	now := time.Now()
	first := &testEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "test", "test.first", now)}
	second := &testEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "test", "test.second", now)}
	metadata := NewEventMetadata(uuid.New(), uuid.New())

	ApplyEventMetadata([]domain.DomainEvent{first, second}, metadata)

	assert.Equal(t, metadata, first.Metadata())
	assert.Equal(t, metadata, second.Metadata())

	require.NotPanics(t, func() { ApplyEventMetadata(nil, metadata) })
}
