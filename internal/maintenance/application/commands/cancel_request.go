package commands

import (
	"context"

	"github.com/felixgeelhaar/upkeep/internal/maintenance/domain"
	sharedApplication "github.com/felixgeelhaar/upkeep/internal/shared/application"
	"github.com/google/uuid"
)

// CancelRequestCommand withdraws a request before the factory approved it.
type CancelRequestCommand struct {
	RequestID     uuid.UUID `json:"request_id" validate:"required"`
	ActorID       uuid.UUID `json:"actor_id" validate:"required"`
	CorrelationID uuid.UUID `json:"-"`
}

// CommandName implements application.Command.
func (CancelRequestCommand) CommandName() string { return "cancel" }

// CancelRequestHandler handles CancelRequestCommand. The request row is
// deleted and a tombstone is archived in the same transaction.
type CancelRequestHandler struct {
	deps Deps
}

// NewCancelRequestHandler creates a new CancelRequestHandler.
func NewCancelRequestHandler(deps Deps) *CancelRequestHandler {
	return &CancelRequestHandler{deps: deps.withDefaults()}
}

// Handle executes the CancelRequestCommand.
func (h *CancelRequestHandler) Handle(ctx context.Context, cmd CancelRequestCommand) error {
	if err := validate(cmd); err != nil {
		return err
	}

	var r *domain.Request
	err := sharedApplication.WithUnitOfWork(ctx, h.deps.UoW, func(txCtx context.Context) error {
		var err error
		r, err = h.deps.Requests.FindByIDForUpdate(txCtx, cmd.RequestID)
		if err != nil {
			return err
		}
		now := h.deps.Clock.Now()
		if err := r.Cancel(cmd.ActorID, now); err != nil {
			return err
		}
		if h.deps.Tombstones != nil {
			if err := h.deps.Tombstones.Archive(txCtx, domain.NewTombstone(r, cmd.ActorID, now)); err != nil {
				return err
			}
		}
		return h.deps.Requests.Delete(txCtx, r.ID())
	})
	if err != nil {
		return err
	}

	publish(ctx, h.deps.Dispatcher, r, cmd.CorrelationID, cmd.ActorID)
	return nil
}
