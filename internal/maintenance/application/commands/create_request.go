package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/maintenance/domain"
	sharedApplication "github.com/felixgeelhaar/upkeep/internal/shared/application"
	"github.com/google/uuid"
)

// CreateRequestCommand books a maintenance slot for a device owner.
type CreateRequestCommand struct {
	OwnerID       uuid.UUID `json:"owner_id" validate:"required"`
	DeviceRef     string    `json:"device_ref" validate:"max=128"`
	Slot          time.Time `json:"slot"`
	ServiceType   string    `json:"service_type" validate:"required"`
	CorrelationID uuid.UUID `json:"-"`
}

// CommandName implements application.Command.
func (CreateRequestCommand) CommandName() string { return "create" }

// CreateRequestHandler handles CreateRequestCommand.
type CreateRequestHandler struct {
	deps Deps
}

// NewCreateRequestHandler creates a new CreateRequestHandler.
func NewCreateRequestHandler(deps Deps) *CreateRequestHandler {
	return &CreateRequestHandler{deps: deps.withDefaults()}
}

// Handle executes the CreateRequestCommand.
func (h *CreateRequestHandler) Handle(ctx context.Context, cmd CreateRequestCommand) (*domain.Request, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	serviceType, err := domain.ParseServiceType(cmd.ServiceType)
	if err != nil {
		return nil, err
	}

	r, err := domain.NewRequest(cmd.OwnerID, cmd.DeviceRef, cmd.Slot, serviceType, h.deps.Clock.Now())
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.deps.UoW, func(txCtx context.Context) error {
		return h.deps.Requests.Save(txCtx, r)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, h.deps.Dispatcher, r, cmd.CorrelationID, cmd.OwnerID)
	return r, nil
}
