package commands

import (
	"context"

	"github.com/felixgeelhaar/upkeep/internal/maintenance/domain"
	sharedApplication "github.com/felixgeelhaar/upkeep/internal/shared/application"
	"github.com/google/uuid"
)

// ApproveRequestCommand accepts the factory's proposal on the owner's behalf.
type ApproveRequestCommand struct {
	RequestID     uuid.UUID `json:"request_id" validate:"required"`
	ActorID       uuid.UUID `json:"actor_id" validate:"required"`
	CorrelationID uuid.UUID `json:"-"`
}

// CommandName implements application.Command.
func (ApproveRequestCommand) CommandName() string { return "user_approve" }

// ApproveRequestHandler handles ApproveRequestCommand.
type ApproveRequestHandler struct {
	deps Deps
}

// NewApproveRequestHandler creates a new ApproveRequestHandler.
func NewApproveRequestHandler(deps Deps) *ApproveRequestHandler {
	return &ApproveRequestHandler{deps: deps.withDefaults()}
}

// Handle executes the ApproveRequestCommand.
func (h *ApproveRequestHandler) Handle(ctx context.Context, cmd ApproveRequestCommand) (*domain.Request, error) {
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
		if err := r.Approve(cmd.ActorID, h.deps.Clock.Now()); err != nil {
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
