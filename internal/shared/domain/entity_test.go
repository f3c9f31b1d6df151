package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEntity(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	entity := domain.NewBaseEntity(at)

	assert.NotEqual(t, uuid.Nil, entity.ID())
	assert.Equal(t, time.UTC, entity.CreatedAt().Location())
	assert.True(t, entity.CreatedAt().Equal(at))
	assert.Equal(t, entity.CreatedAt(), entity.UpdatedAt())
}

func TestBaseEntity_Touch(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entity := domain.NewBaseEntity(at)

	entity.Touch(at.Add(time.Hour))
	assert.Equal(t, at.Add(time.Hour), entity.UpdatedAt())
	assert.Equal(t, at, entity.CreatedAt())

	entity.Touch(at)
	assert.Equal(t, at.Add(time.Hour), entity.UpdatedAt(), "touch must not move time backwards")
}

type widgetEvent struct {
	domain.BaseEvent
}

type widget struct {
	domain.BaseAggregateRoot
}

func TestBaseAggregateRoot_Events(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	w := &widget{BaseAggregateRoot: domain.NewBaseAggregateRoot(domain.NewBaseEntity(now))}

	assert.True(t, w.IsNew())
	assert.Empty(t, w.DomainEvents())

	w.AddDomainEvent(widgetEvent{BaseEvent: domain.NewBaseEvent(w.ID(), "Widget", "widget.created", now)})
	w.AddDomainEvent(widgetEvent{BaseEvent: domain.NewBaseEvent(w.ID(), "Widget", "widget.renamed", now)})

	events := w.DomainEvents()
	assert.Len(t, events, 2)
	assert.Equal(t, "widget.created", events[0].RoutingKey())
	assert.Equal(t, w.ID(), events[1].AggregateID())

	w.ClearDomainEvents()
	assert.Empty(t, w.DomainEvents())
}

func TestBaseAggregateRoot_Version(t *testing.T) {
	now := time.Now()
	root := domain.RehydrateBaseAggregateRoot(domain.NewBaseEntity(now), 3)

	assert.Equal(t, 3, root.Version())
	assert.False(t, root.IsNew())

	root.MarkPersisted(4)
	assert.Equal(t, 4, root.Version())
}

func TestBaseEvent_Metadata(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	aggregateID := uuid.New()
	event := domain.NewBaseEvent(aggregateID, "Widget", "widget.created", at)

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "Widget", event.AggregateType())
	assert.Equal(t, at, event.OccurredAt())

	meta := domain.EventMetadata{CorrelationID: uuid.New(), ActorID: uuid.New()}
	event.SetMetadata(meta)
	assert.Equal(t, meta, event.Metadata())
}
