// Package persistence stores maintenance requests in PostgreSQL or SQLite.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/domain"
	"github.com/felixgeelhaar/upkeep/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/upkeep/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const requestsTable = "maintenance_requests"

var requestColumns = []any{
	"id", "owner_id", "device_ref", "service_type", "status",
	"user_requested_at", "factory_proposed_at",
	"is_user_approved", "is_factory_approved",
	"change_log", "version", "created_at", "updated_at",
}

// RequestRepository implements domain.RequestRepository for both drivers.
// Statements are built with goqu in the connection's dialect and run on the
// transaction in the context when there is one.
type RequestRepository struct {
	conn    database.Connection
	driver  database.Driver
	dialect goqu.DialectWrapper
}

// NewRequestRepository creates a repository over conn.
func NewRequestRepository(conn database.Connection) *RequestRepository {
	return &RequestRepository{
		conn:    conn,
		driver:  conn.Driver(),
		dialect: conn.Driver().Dialect(),
	}
}

func (r *RequestRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

// Save inserts new requests and updates existing ones under a version check.
func (r *RequestRepository) Save(ctx context.Context, req *domain.Request) error {
	state := req.State()
	changeLog, err := json.Marshal(state.ChangeLog)
	if err != nil {
		return fmt.Errorf("encode change log: %w", err)
	}

	record := goqu.Record{
		"device_ref":          nullString(state.DeviceRef),
		"service_type":        string(state.ServiceType),
		"status":              string(state.Status),
		"user_requested_at":   encodeTime(r.driver, state.UserRequestedAt),
		"factory_proposed_at": encodeOptionalTime(r.driver, state.FactoryProposedAt),
		"is_user_approved":    state.UserApproved,
		"is_factory_approved": state.FactoryApproved,
		"change_log":          string(changeLog),
		"updated_at":          encodeTime(r.driver, state.UpdatedAt),
	}

	if req.IsNew() {
		record["id"] = state.ID.String()
		record["owner_id"] = state.OwnerID.String()
		record["version"] = 1
		record["created_at"] = encodeTime(r.driver, state.CreatedAt)

		query, args, err := r.dialect.Insert(requestsTable).Rows(record).Prepared(true).ToSQL()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := r.exec(ctx).Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert maintenance request: %w", err)
		}
		req.MarkPersisted(1)
		return nil
	}

	next := req.Version() + 1
	record["version"] = next
	query, args, err := r.dialect.Update(requestsTable).
		Set(record).
		Where(goqu.C("id").Eq(state.ID.String()), goqu.C("version").Eq(req.Version())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	res, err := r.exec(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update maintenance request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update maintenance request: %w", err)
	}
	if n == 0 {
		return domain.ErrConcurrentUpdate
	}
	req.MarkPersisted(next)
	return nil
}

func (r *RequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	return r.findOne(ctx, id, false)
}

// FindByIDForUpdate locks the row on PostgreSQL. SQLite serialises writers
// through its single connection.
func (r *RequestRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	return r.findOne(ctx, id, r.driver == database.DriverPostgres)
}

func (r *RequestRepository) findOne(ctx context.Context, id uuid.UUID, lock bool) (*domain.Request, error) {
	ds := r.dialect.From(requestsTable).Select(requestColumns...).Where(goqu.C("id").Eq(id.String()))
	if lock {
		ds = ds.ForUpdate(exp.Wait)
	}
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	req, err := scanRequest(r.exec(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("load maintenance request %s: %w", id, err)
	}
	return req, nil
}

func (r *RequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := r.dialect.Delete(requestsTable).Where(goqu.C("id").Eq(id.String())).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	res, err := r.exec(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete maintenance request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete maintenance request: %w", err)
	}
	if n == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, deviceRef string) ([]*domain.Request, error) {
	where := []exp.Expression{goqu.C("owner_id").Eq(ownerID.String())}
	if deviceRef != "" {
		where = append(where, goqu.C("device_ref").Eq(deviceRef))
	}
	ds := r.dialect.From(requestsTable).
		Select(requestColumns...).
		Where(where...).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Asc())
	return r.list(ctx, ds)
}

func (r *RequestRepository) List(ctx context.Context, f domain.ListFilter) ([]*domain.Request, error) {
	ds := r.dialect.From(requestsTable).
		Select(requestColumns...).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Asc())
	if f.Status != nil {
		ds = ds.Where(goqu.C("status").Eq(string(*f.Status)))
	}
	if f.Text != "" {
		pattern := "%" + f.Text + "%"
		ds = ds.Where(goqu.Or(
			goqu.C("device_ref").ILike(pattern),
			goqu.C("service_type").ILike(pattern),
		))
	}
	if f.Limit > 0 {
		ds = ds.Limit(convert.ClampUint(f.Limit))
	}
	if f.Offset > 0 {
		ds = ds.Offset(convert.ClampUint(f.Offset))
	}
	return r.list(ctx, ds)
}

func (r *RequestRepository) list(ctx context.Context, ds *goqu.SelectDataset) ([]*domain.Request, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := r.exec(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list maintenance requests: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan maintenance request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list maintenance requests: %w", err)
	}
	return out, nil
}

// ListClaimsBetween reads only the slot columns of requests that touch
// [start, end).
func (r *RequestRepository) ListClaimsBetween(ctx context.Context, start, end time.Time) ([]domain.SlotClaim, error) {
	s, e := encodeTime(r.driver, start), encodeTime(r.driver, end)
	query, args, err := r.dialect.From(requestsTable).
		Select("id", "user_requested_at", "factory_proposed_at").
		Where(goqu.Or(
			goqu.And(goqu.C("user_requested_at").Gte(s), goqu.C("user_requested_at").Lt(e)),
			goqu.And(goqu.C("factory_proposed_at").Gte(s), goqu.C("factory_proposed_at").Lt(e)),
		)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build claims select: %w", err)
	}

	rows, err := r.exec(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list slot claims: %w", err)
	}
	defer rows.Close()

	claims := make([]domain.SlotClaim, 0)
	for rows.Next() {
		var (
			id       string
			user     dbTime
			proposed dbTime
		)
		if err := rows.Scan(&id, &user, &proposed); err != nil {
			return nil, fmt.Errorf("scan slot claim: %w", err)
		}
		rid, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("scan slot claim: %w", err)
		}
		claims = append(claims, domain.SlotClaim{
			RequestID:         rid,
			UserRequestedAt:   user.Time,
			FactoryProposedAt: proposed.ptr(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list slot claims: %w", err)
	}
	return claims, nil
}

func scanRequest(row database.Row) (*domain.Request, error) {
	var (
		id, ownerID         string
		deviceRef           sql.NullString
		serviceType, status string
		userRequestedAt     dbTime
		factoryProposedAt   dbTime
		userApproved        bool
		factoryApproved     bool
		changeLog           []byte
		version             int
		createdAt           dbTime
		updatedAt           dbTime
	)
	if err := row.Scan(
		&id, &ownerID, &deviceRef, &serviceType, &status,
		&userRequestedAt, &factoryProposedAt,
		&userApproved, &factoryApproved,
		&changeLog, &version, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	state := domain.RequestState{
		DeviceRef:         deviceRef.String,
		ServiceType:       domain.ServiceType(serviceType),
		Status:            domain.Status(status),
		UserRequestedAt:   userRequestedAt.Time,
		FactoryProposedAt: factoryProposedAt.ptr(),
		UserApproved:      userApproved,
		FactoryApproved:   factoryApproved,
		Version:           version,
		CreatedAt:         createdAt.Time,
		UpdatedAt:         updatedAt.Time,
	}
	var err error
	if state.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if state.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return nil, fmt.Errorf("parse owner id: %w", err)
	}
	if len(changeLog) > 0 {
		if err := json.Unmarshal(changeLog, &state.ChangeLog); err != nil {
			return nil, fmt.Errorf("decode change log: %w", err)
		}
	}
	return domain.RehydrateRequest(state), nil
}
