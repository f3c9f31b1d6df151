package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/upkeep/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/upkeep/internal/shared/domain"
	"github.com/google/uuid"
)

// EventDispatcher receives domain events after their transaction committed.
// Dispatch is best-effort: it handles its own failures.
type EventDispatcher interface {
	Dispatch(ctx context.Context, events []sharedDomain.DomainEvent)
}

// Dispatchers fans events out to several dispatchers in order.
type Dispatchers []EventDispatcher

func (d Dispatchers) Dispatch(ctx context.Context, events []sharedDomain.DomainEvent) {
	for _, next := range d {
		if next != nil {
			next.Dispatch(ctx, events)
		}
	}
}

// NoopDispatcher drops events.
type NoopDispatcher struct{}

func (NoopDispatcher) Dispatch(context.Context, []sharedDomain.DomainEvent) {}

// Deps are the collaborators shared by all command handlers.
type Deps struct {
	Requests   RequestStore
	Tombstones TombstoneStore
	UoW        sharedApplication.UnitOfWork
	Dispatcher EventDispatcher
	Clock      sharedApplication.Clock
}

func (d Deps) withDefaults() Deps {
	if d.Dispatcher == nil {
		d.Dispatcher = NoopDispatcher{}
	}
	if d.Clock == nil {
		d.Clock = sharedApplication.SystemClock{}
	}
	return d
}

type aggregate interface {
	DomainEvents() []sharedDomain.DomainEvent
	ClearDomainEvents()
}

// publish stamps metadata on the aggregate's pending events and dispatches
// them. Call only after commit.
func publish(ctx context.Context, d EventDispatcher, agg aggregate, correlationID, actorID uuid.UUID) {
	events := agg.DomainEvents()
	if len(events) == 0 {
		return
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(correlationID, actorID))
	agg.ClearDomainEvents()
	d.Dispatch(ctx, events)
}
