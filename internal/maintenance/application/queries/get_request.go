package queries

import (
	"context"

	"github.com/google/uuid"
)

// GetRequestQuery loads one request.
type GetRequestQuery struct {
	RequestID uuid.UUID `json:"request_id" validate:"required"`
	Viewer    Viewer
}

// GetRequestHandler handles GetRequestQuery.
type GetRequestHandler struct {
	repo RequestReader
}

// NewGetRequestHandler creates a new GetRequestHandler.
func NewGetRequestHandler(repo RequestReader) *GetRequestHandler {
	return &GetRequestHandler{repo: repo}
}

// Handle executes the GetRequestQuery.
func (h *GetRequestHandler) Handle(ctx context.Context, q GetRequestQuery) (*RequestDTO, error) {
	if err := validate(q); err != nil {
		return nil, err
	}
	r, err := loadVisible(ctx, h.repo, q.RequestID, q.Viewer)
	if err != nil {
		return nil, err
	}
	dto := NewRequestDTO(r)
	return &dto, nil
}

// GetChangeLogQuery loads the reschedule history of one request.
type GetChangeLogQuery struct {
	RequestID uuid.UUID `json:"request_id" validate:"required"`
	Viewer    Viewer
}

// GetChangeLogHandler handles GetChangeLogQuery.
type GetChangeLogHandler struct {
	repo RequestReader
}

// NewGetChangeLogHandler creates a new GetChangeLogHandler.
func NewGetChangeLogHandler(repo RequestReader) *GetChangeLogHandler {
	return &GetChangeLogHandler{repo: repo}
}

// Handle returns the records oldest first.
func (h *GetChangeLogHandler) Handle(ctx context.Context, q GetChangeLogQuery) ([]ChangeRecordDTO, error) {
	if err := validate(q); err != nil {
		return nil, err
	}
	r, err := loadVisible(ctx, h.repo, q.RequestID, q.Viewer)
	if err != nil {
		return nil, err
	}
	return newChangeRecordDTOs(r.ChangeLog()), nil
}
