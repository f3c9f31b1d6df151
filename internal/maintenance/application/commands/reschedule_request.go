package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/maintenance/domain"
	sharedApplication "github.com/felixgeelhaar/upkeep/internal/shared/application"
	"github.com/google/uuid"
)

// RescheduleRequestCommand moves the owner's requested slot.
type RescheduleRequestCommand struct {
	RequestID     uuid.UUID `json:"request_id" validate:"required"`
	ActorID       uuid.UUID `json:"actor_id" validate:"required"`
	Slot          time.Time `json:"slot"`
	CorrelationID uuid.UUID `json:"-"`
}

// CommandName implements application.Command.
func (RescheduleRequestCommand) CommandName() string { return "reschedule" }

// RescheduleRequestHandler handles RescheduleRequestCommand.
type RescheduleRequestHandler struct {
	deps Deps
}

// NewRescheduleRequestHandler creates a new RescheduleRequestHandler.
func NewRescheduleRequestHandler(deps Deps) *RescheduleRequestHandler {
	return &RescheduleRequestHandler{deps: deps.withDefaults()}
}

// Handle executes the RescheduleRequestCommand.
func (h *RescheduleRequestHandler) Handle(ctx context.Context, cmd RescheduleRequestCommand) (*domain.Request, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}

	var r *domain.Request
	err := sharedApplication.WithUnitOfWork(ctx, h.deps.UoW, func(txCtx context.Context) error {
		var err error
		r, err = h.deps.Requests.FindByIDForUpdate(txCtx, cmd.RequestID)
		if err != nil {
			return err
		}
		if err := r.Reschedule(cmd.ActorID, cmd.Slot, h.deps.Clock.Now()); err != nil {
			return err
		}
		return h.deps.Requests.Save(txCtx, r)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, h.deps.Dispatcher, r, cmd.CorrelationID, cmd.ActorID)
	return r, nil
}
