package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/maintenance/domain"
	sharedApplication "github.com/felixgeelhaar/upkeep/internal/shared/application"
	"github.com/google/uuid"
)

// ReviewRequestCommand is an operator review. Nil fields are left unchanged.
type ReviewRequestCommand struct {
	RequestID         uuid.UUID  `json:"request_id" validate:"required"`
	OperatorID        uuid.UUID  `json:"operator_id" validate:"required"`
	Status            *string    `json:"status"`
	FactoryProposedAt *time.Time `json:"factory_proposed_at"`
	FactoryApproved   *bool      `json:"is_factory_approved"`
	CorrelationID     uuid.UUID  `json:"-"`
}

// CommandName implements application.Command.
func (ReviewRequestCommand) CommandName() string { return "factory_review" }

// ReviewRequestHandler handles ReviewRequestCommand.
type ReviewRequestHandler struct {
	deps Deps
}

// NewReviewRequestHandler creates a new ReviewRequestHandler.
func NewReviewRequestHandler(deps Deps) *ReviewRequestHandler {
	return &ReviewRequestHandler{deps: deps.withDefaults()}
}

// Handle executes the ReviewRequestCommand.
func (h *ReviewRequestHandler) Handle(ctx context.Context, cmd ReviewRequestCommand) (*domain.Request, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}

	review := domain.Review{
		FactoryProposedAt: cmd.FactoryProposedAt,
		FactoryApproved:   cmd.FactoryApproved,
	}
	if cmd.Status != nil {
		status, err := domain.ParseStatus(*cmd.Status)
		if err != nil {
			return nil, err
		}
		review.Status = &status
	}

	var r *domain.Request
	err := sharedApplication.WithUnitOfWork(ctx, h.deps.UoW, func(txCtx context.Context) error {
		var err error
		r, err = h.deps.Requests.FindByIDForUpdate(txCtx, cmd.RequestID)
		if err != nil {
			return err
		}
		if err := r.FactoryReview(cmd.OperatorID, review, h.deps.Clock.Now()); err != nil {
			return err
		}
		return h.deps.Requests.Save(txCtx, r)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, h.deps.Dispatcher, r, cmd.CorrelationID, cmd.OperatorID)
	return r, nil
}
