package queries

import (
	"context"

	"github.com/felixgeelhaar/upkeep/internal/maintenance/domain"
	sharedApplication "github.com/felixgeelhaar/upkeep/internal/shared/application"
	"github.com/google/uuid"
)

// RequestReader is the read side of domain.RequestRepository.
type RequestReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Request, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, deviceRef string) ([]*domain.Request, error)
	List(ctx context.Context, filter domain.ListFilter) ([]*domain.Request, error)
}

// Viewer is who is reading. Operators see every request, owners only theirs.
type Viewer struct {
	ID       uuid.UUID `json:"viewer_id" validate:"required"`
	Operator bool      `json:"-"`
}

func (v Viewer) canSee(r *domain.Request) bool {
	return v.Operator || r.IsOwnedBy(v.ID)
}

// loadVisible returns the request or ErrRequestNotFound when the viewer may
// not see it.
func loadVisible(ctx context.Context, repo RequestReader, id uuid.UUID, v Viewer) (*domain.Request, error) {
	r, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil || !v.canSee(r) {
		return nil, domain.ErrRequestNotFound
	}
	return r, nil
}

func validate(q any) error {
	fes, err := sharedApplication.ValidateStruct(q)
	if err != nil {
		return err
	}
	if len(fes) > 0 {
		return domain.InvalidInput(fes[0].Field, fes[0].Tag, fes[0].Param)
	}
	return nil
}
