package queries

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/upkeep/internal/maintenance/domain"
	"github.com/google/uuid"
)

// DefaultListLimit caps operator listings when no limit is given.
const DefaultListLimit = 100

// ListMineQuery lists an owner's requests, optionally for one device.
type ListMineQuery struct {
	OwnerID   uuid.UUID `json:"owner_id" validate:"required"`
	DeviceRef string    `json:"device_ref" validate:"max=128"`
}

// ListMineHandler handles ListMineQuery.
type ListMineHandler struct {
	repo RequestReader
}

// NewListMineHandler creates a new ListMineHandler.
func NewListMineHandler(repo RequestReader) *ListMineHandler {
	return &ListMineHandler{repo: repo}
}

// Handle executes the ListMineQuery.
func (h *ListMineHandler) Handle(ctx context.Context, q ListMineQuery) ([]RequestDTO, error) {
	if err := validate(q); err != nil {
		return nil, err
	}
	rs, err := h.repo.ListByOwner(ctx, q.OwnerID, strings.TrimSpace(q.DeviceRef))
	if err != nil {
		return nil, err
	}
	return newRequestDTOs(rs), nil
}

// ListAllQuery is the operator listing. Status and Text are optional.
type ListAllQuery struct {
	Status string `json:"status"`
	Text   string `json:"q" validate:"max=200"`
	Limit  int    `json:"limit" validate:"min=0,max=500"`
	Offset int    `json:"offset" validate:"min=0"`
}

// ListAllHandler handles ListAllQuery.
type ListAllHandler struct {
	repo RequestReader
}

// NewListAllHandler creates a new ListAllHandler.
func NewListAllHandler(repo RequestReader) *ListAllHandler {
	return &ListAllHandler{repo: repo}
}

// Handle executes the ListAllQuery.
func (h *ListAllHandler) Handle(ctx context.Context, q ListAllQuery) ([]RequestDTO, error) {
	if err := validate(q); err != nil {
		return nil, err
	}
	filter := domain.ListFilter{
		Text:   strings.TrimSpace(q.Text),
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultListLimit
	}
	if s := strings.TrimSpace(q.Status); s != "" {
		status, err := domain.ParseStatus(s)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	rs, err := h.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return newRequestDTOs(rs), nil
}
