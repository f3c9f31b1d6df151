package commands

import (
	"context"

	"github.com/felixgeelhaar/upkeep/internal/maintenance/domain"
	sharedApplication "github.com/felixgeelhaar/upkeep/internal/shared/application"
	"github.com/google/uuid"
)

// RequestStore is the part of domain.RequestRepository the write side uses.
type RequestStore interface {
	Save(ctx context.Context, r *domain.Request) error
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Request, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TombstoneStore archives cancelled requests.
type TombstoneStore interface {
	Archive(ctx context.Context, t domain.Tombstone) error
}

var (
	_ sharedApplication.CommandHandler[CreateRequestCommand, *domain.Request]     = (*CreateRequestHandler)(nil)
	_ sharedApplication.CommandHandler[ReviewRequestCommand, *domain.Request]     = (*ReviewRequestHandler)(nil)
	_ sharedApplication.CommandHandler[ApproveRequestCommand, *domain.Request]    = (*ApproveRequestHandler)(nil)
	_ sharedApplication.CommandHandler[RescheduleRequestCommand, *domain.Request] = (*RescheduleRequestHandler)(nil)
)

func validate(cmd any) error {
	fes, err := sharedApplication.ValidateStruct(cmd)
	if err != nil {
		return err
	}
	if len(fes) > 0 {
		return domain.InvalidInput(fes[0].Field, fes[0].Tag, fes[0].Param)
	}
	return nil
}
