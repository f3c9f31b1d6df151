// Package application orchestrates the maintenance workflow: it authorizes
// the caller, runs the command or query and reports the outcome.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/identity"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/application/commands"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/application/queries"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/domain"
	sharedApplication "github.com/felixgeelhaar/upkeep/internal/shared/application"
	"github.com/felixgeelhaar/upkeep/pkg/observability"
	"github.com/google/uuid"
)

// Authorizer decides role permissions. identity.Authorizer implements it.
type Authorizer interface {
	Allowed(p identity.Principal, resource, action string) (bool, error)
}

// CoordinatorDeps wires a Coordinator.
type CoordinatorDeps struct {
	Requests      domain.RequestRepository
	Tombstones    domain.TombstoneArchive
	UoW           sharedApplication.UnitOfWork
	Authorizer    Authorizer
	Notifier      Notifier
	Policy        NotificationPolicy
	NotifyTimeout time.Duration
	Cache         queries.AvailabilityCache
	Location      *time.Location
	Clock         sharedApplication.Clock
	Logger        *slog.Logger
	Metrics       observability.Metrics
}

// Coordinator is the single entry point for maintenance operations.
type Coordinator struct {
	authz   Authorizer
	logger  *slog.Logger
	metrics observability.Metrics

	create     *commands.CreateRequestHandler
	review     *commands.ReviewRequestHandler
	approve    *commands.ApproveRequestHandler
	reschedule *commands.RescheduleRequestHandler
	cancel     *commands.CancelRequestHandler

	get          *queries.GetRequestHandler
	changeLog    *queries.GetChangeLogHandler
	listMine     *queries.ListMineHandler
	listAll      *queries.ListAllHandler
	availability *queries.AvailabilityHandler
}

// NewCoordinator builds the handlers and the post-commit dispatch chain.
// Without an Authorizer the built-in role policy applies.
func NewCoordinator(d CoordinatorDeps) *Coordinator {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Authorizer == nil {
		authz, err := identity.NewAuthorizer()
		if err != nil {
			d.Logger.Error("load default role policy", "error", err)
			d.Authorizer = denyAll{err: err}
		} else {
			d.Authorizer = authz
		}
	}
	if d.Metrics == nil {
		d.Metrics = observability.NoopMetrics{}
	}
	if d.Policy.Location == nil {
		d.Policy.Location = d.Location
	}

	dispatchers := commands.Dispatchers{}
	if d.Cache != nil {
		dispatchers = append(dispatchers, queries.NewCacheInvalidator(d.Cache, d.Logger))
	}
	if d.Notifier != nil {
		dispatchers = append(dispatchers, NewNotificationDispatcher(d.Notifier, d.Policy, d.NotifyTimeout, d.Logger, d.Metrics))
	}

	deps := commands.Deps{
		Requests:   d.Requests,
		Tombstones: d.Tombstones,
		UoW:        d.UoW,
		Dispatcher: dispatchers,
		Clock:      d.Clock,
	}

	return &Coordinator{
		authz:        d.Authorizer,
		logger:       d.Logger,
		metrics:      d.Metrics,
		create:       commands.NewCreateRequestHandler(deps),
		review:       commands.NewReviewRequestHandler(deps),
		approve:      commands.NewApproveRequestHandler(deps),
		reschedule:   commands.NewRescheduleRequestHandler(deps),
		cancel:       commands.NewCancelRequestHandler(deps),
		get:          queries.NewGetRequestHandler(d.Requests),
		changeLog:    queries.NewGetChangeLogHandler(d.Requests),
		listMine:     queries.NewListMineHandler(d.Requests),
		listAll:      queries.NewListAllHandler(d.Requests),
		availability: queries.NewAvailabilityHandler(d.Requests, d.Cache, d.Location, d.Logger, d.Metrics),
	}
}

// CreateInput is the owner's booking.
type CreateInput struct {
	DeviceRef   string
	Slot        time.Time
	ServiceType string
}

// ReviewInput carries the operator's changes. Nil fields are left alone.
type ReviewInput struct {
	Status            *string
	FactoryProposedAt *time.Time
	FactoryApproved   *bool
}

// Create books a maintenance request for the calling owner.
func (c *Coordinator) Create(ctx context.Context, p identity.Principal, in CreateInput) (_ *queries.RequestDTO, err error) {
	cmd := commands.CreateRequestCommand{
		OwnerID:       p.ID,
		DeviceRef:     in.DeviceRef,
		Slot:          in.Slot,
		ServiceType:   in.ServiceType,
		CorrelationID: observability.CorrelationUUID(ctx),
	}
	defer c.observe(ctx, cmd.CommandName(), &err)()
	if err := c.authorize(p, identity.ResourceRequest, identity.ActionCreate); err != nil {
		return nil, err
	}
	return toDTO(c.create.Handle(ctx, cmd))
}

// ListMine returns the caller's own requests, optionally for one device.
func (c *Coordinator) ListMine(ctx context.Context, p identity.Principal, deviceRef string) (_ []queries.RequestDTO, err error) {
	defer c.observe(ctx, "list_mine", &err)()
	if err := c.authorize(p, identity.ResourceRequest, identity.ActionListMine); err != nil {
		return nil, err
	}
	return c.listMine.Handle(ctx, queries.ListMineQuery{OwnerID: p.ID, DeviceRef: deviceRef})
}

// ListAll returns requests across all owners. Operators only.
func (c *Coordinator) ListAll(ctx context.Context, p identity.Principal, q queries.ListAllQuery) (_ []queries.RequestDTO, err error) {
	defer c.observe(ctx, "list_all", &err)()
	if err := c.authorize(p, identity.ResourceRequest, identity.ActionListAll); err != nil {
		return nil, err
	}
	return c.listAll.Handle(ctx, q)
}

// FactoryReview applies an operator's review. A changed proposal sends the
// request back to the owner for approval.
func (c *Coordinator) FactoryReview(ctx context.Context, p identity.Principal, id uuid.UUID, in ReviewInput) (_ *queries.RequestDTO, err error) {
	cmd := commands.ReviewRequestCommand{
		RequestID:         id,
		OperatorID:        p.ID,
		Status:            in.Status,
		FactoryProposedAt: in.FactoryProposedAt,
		FactoryApproved:   in.FactoryApproved,
		CorrelationID:     observability.CorrelationUUID(ctx),
	}
	defer c.observe(ctx, cmd.CommandName(), &err)()
	if err := c.authorize(p, identity.ResourceRequest, identity.ActionReview); err != nil {
		return nil, err
	}
	return toDTO(c.review.Handle(ctx, cmd))
}

// UserApprove accepts the factory's proposal on behalf of the owner.
func (c *Coordinator) UserApprove(ctx context.Context, p identity.Principal, id uuid.UUID) (_ *queries.RequestDTO, err error) {
	cmd := commands.ApproveRequestCommand{
		RequestID:     id,
		ActorID:       p.ID,
		CorrelationID: observability.CorrelationUUID(ctx),
	}
	defer c.observe(ctx, cmd.CommandName(), &err)()
	if err := c.authorize(p, identity.ResourceRequest, identity.ActionApprove); err != nil {
		return nil, err
	}
	return toDTO(c.approve.Handle(ctx, cmd))
}

// Reschedule moves the owner's slot and restarts the review.
func (c *Coordinator) Reschedule(ctx context.Context, p identity.Principal, id uuid.UUID, slot time.Time) (_ *queries.RequestDTO, err error) {
	cmd := commands.RescheduleRequestCommand{
		RequestID:     id,
		ActorID:       p.ID,
		Slot:          slot,
		CorrelationID: observability.CorrelationUUID(ctx),
	}
	defer c.observe(ctx, cmd.CommandName(), &err)()
	if err := c.authorize(p, identity.ResourceRequest, identity.ActionReschedule); err != nil {
		return nil, err
	}
	return toDTO(c.reschedule.Handle(ctx, cmd))
}

// Cancel removes an owner's request that the factory has not approved yet.
func (c *Coordinator) Cancel(ctx context.Context, p identity.Principal, id uuid.UUID) (err error) {
	cmd := commands.CancelRequestCommand{
		RequestID:     id,
		ActorID:       p.ID,
		CorrelationID: observability.CorrelationUUID(ctx),
	}
	defer c.observe(ctx, cmd.CommandName(), &err)()
	if err := c.authorize(p, identity.ResourceRequest, identity.ActionCancel); err != nil {
		return err
	}
	return c.cancel.Handle(ctx, cmd)
}

// Availability reports occupied slots on dates from..to inclusive.
func (c *Coordinator) Availability(ctx context.Context, p identity.Principal, from, to time.Time) (_ *queries.AvailabilityDTO, err error) {
	defer c.observe(ctx, "availability", &err)()
	if err := c.authorize(p, identity.ResourceAvailability, identity.ActionRead); err != nil {
		return nil, err
	}
	return c.availability.Handle(ctx, queries.AvailabilityQuery{From: from, To: to})
}

// Get returns one request visible to the caller.
func (c *Coordinator) Get(ctx context.Context, p identity.Principal, id uuid.UUID) (_ *queries.RequestDTO, err error) {
	defer c.observe(ctx, "get", &err)()
	if err := c.authorize(p, identity.ResourceRequest, identity.ActionRead); err != nil {
		return nil, err
	}
	return c.get.Handle(ctx, queries.GetRequestQuery{RequestID: id, Viewer: viewer(p)})
}

// ChangeLog returns the schedule changes of one request, oldest first.
func (c *Coordinator) ChangeLog(ctx context.Context, p identity.Principal, id uuid.UUID) (_ []queries.ChangeRecordDTO, err error) {
	defer c.observe(ctx, "change_log", &err)()
	if err := c.authorize(p, identity.ResourceRequest, identity.ActionRead); err != nil {
		return nil, err
	}
	return c.changeLog.Handle(ctx, queries.GetChangeLogQuery{RequestID: id, Viewer: viewer(p)})
}

func (c *Coordinator) authorize(p identity.Principal, resource, action string) error {
	if p.ID == uuid.Nil || !p.Role.IsValid() {
		return identity.ErrUnauthenticated
	}
	ok, err := c.authz.Allowed(p, resource, action)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if p.Role == identity.RoleOwner {
		return domain.ErrOperatorOnly
	}
	return domain.ErrOwnerOnly
}

// denyAll rejects every call when no policy could be loaded.
type denyAll struct{ err error }

func (d denyAll) Allowed(identity.Principal, string, string) (bool, error) {
	return false, fmt.Errorf("authorizer unavailable: %w", d.err)
}

func (c *Coordinator) observe(ctx context.Context, op string, err *error) func() {
	timer := observability.StartTimer(op).
		WithLogger(c.logger.With(observability.CorrelationIDKey, observability.CorrelationIDFromContext(ctx))).
		WithMetrics(c.metrics)
	return func() {
		timer.Stop(*err, classify)
	}
}

func classify(err error) string {
	if k := domain.KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}

func viewer(p identity.Principal) queries.Viewer {
	return queries.Viewer{ID: p.ID, Operator: p.IsOperator()}
}

func toDTO(r *domain.Request, err error) (*queries.RequestDTO, error) {
	if err != nil {
		return nil, err
	}
	dto := queries.NewRequestDTO(r)
	return &dto, nil
}
