package persistence

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/domain"
	"github.com/felixgeelhaar/upkeep/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const tombstonesTable = "maintenance_tombstones"

// TombstoneArchive implements domain.TombstoneArchive.
type TombstoneArchive struct {
	conn    database.Connection
	driver  database.Driver
	dialect goqu.DialectWrapper
}

func NewTombstoneArchive(conn database.Connection) *TombstoneArchive {
	return &TombstoneArchive{conn: conn, driver: conn.Driver(), dialect: conn.Driver().Dialect()}
}

func (a *TombstoneArchive) Archive(ctx context.Context, t domain.Tombstone) error {
	snapshot, err := json.Marshal(t.Snapshot)
	if err != nil {
		return fmt.Errorf("encode tombstone snapshot: %w", err)
	}
	query, args, err := a.dialect.Insert(tombstonesTable).Rows(goqu.Record{
		"request_id":   t.RequestID.String(),
		"owner_id":     t.OwnerID.String(),
		"cancelled_by": t.CancelledBy.String(),
		"cancelled_at": encodeTime(a.driver, t.CancelledAt),
		"snapshot":     string(snapshot),
	}).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build tombstone insert: %w", err)
	}
	if _, err := database.ExecutorFromContext(ctx, a.conn).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("archive maintenance request: %w", err)
	}
	return nil
}

func (a *TombstoneArchive) FindByRequestID(ctx context.Context, id uuid.UUID) (*domain.Tombstone, error) {
	query, args, err := a.dialect.From(tombstonesTable).
		Select("owner_id", "cancelled_by", "cancelled_at", "snapshot").
		Where(goqu.C("request_id").Eq(id.String())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build tombstone select: %w", err)
	}

	var (
		ownerID, cancelledBy string
		cancelledAt          dbTime
		snapshot             []byte
	)
	err = database.ExecutorFromContext(ctx, a.conn).QueryRow(ctx, query, args...).
		Scan(&ownerID, &cancelledBy, &cancelledAt, &snapshot)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("load tombstone %s: %w", id, err)
	}

	t := &domain.Tombstone{RequestID: id, CancelledAt: cancelledAt.Time}
	if t.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return nil, fmt.Errorf("parse owner id: %w", err)
	}
	if t.CancelledBy, err = uuid.Parse(cancelledBy); err != nil {
		return nil, fmt.Errorf("parse cancelled by: %w", err)
	}
	if err := json.Unmarshal(snapshot, &t.Snapshot); err != nil {
		return nil, fmt.Errorf("decode tombstone snapshot: %w", err)
	}
	return t, nil
}
