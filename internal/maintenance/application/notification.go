package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/maintenance/domain"
	sharedDomain "github.com/felixgeelhaar/upkeep/internal/shared/domain"
	"github.com/felixgeelhaar/upkeep/pkg/observability"
	"github.com/google/uuid"
)

// NotificationKind tells the delivery side which template applies.
type NotificationKind string

const (
	KindAwaitingReview   NotificationKind = "maintenance.awaiting_review"
	KindAwaitingApproval NotificationKind = "maintenance.awaiting_approval"
	KindInProgress       NotificationKind = "maintenance.in_progress"
	KindCompleted        NotificationKind = "maintenance.completed"
	KindCancelled        NotificationKind = "maintenance.cancelled"
)

// Notification is one message for one recipient.
type Notification struct {
	RecipientID uuid.UUID        `json:"recipient_id"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	Kind        NotificationKind `json:"kind"`
	RequestID   uuid.UUID        `json:"request_id"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

// Notifier delivers notifications to the external notification service.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotificationPolicy turns request events into notifications. Owner actions
// notify the operator desk, operator actions notify the owner.
type NotificationPolicy struct {
	OperatorRecipient uuid.UUID
	Location          *time.Location
}

// For returns the notification for e, or false when e did not change status
// or either approval flag.
func (p NotificationPolicy) For(e domain.RequestEvent) (Notification, bool) {
	n := Notification{RequestID: e.AggregateID(), OccurredAt: e.OccurredAt()}

	if c, ok := e.(*domain.RequestCancelled); ok {
		n.RecipientID = p.OperatorRecipient
		n.Kind = KindCancelled
		n.Title = "Maintenance request cancelled"
		n.Body = fmt.Sprintf("Request %s was cancelled by its owner %s.", shortID(c.AggregateID()), c.CancelledBy)
		return n, true
	}

	tr := e.Transition()
	if !tr.Changed() {
		return Notification{}, false
	}

	n.RecipientID = e.OwnerID()
	if ownerInitiated(e) {
		n.RecipientID = p.OperatorRecipient
	}

	switch tr.Status {
	case domain.StatusPendingFactoryReview:
		n.Kind = KindAwaitingReview
		n.Title = "Maintenance request awaiting review"
		n.Body = fmt.Sprintf("Request %s needs a factory review.", shortID(e.AggregateID()))
		if rs, ok := e.(*domain.RequestRescheduled); ok {
			n.Title = "Maintenance request rescheduled"
			n.Body = fmt.Sprintf("Request %s was moved to %s and needs a new review.", shortID(e.AggregateID()), p.format(rs.UserRequestedAt))
		}
	case domain.StatusPendingUserApproval:
		n.Kind = KindAwaitingApproval
		n.Title = "Please confirm your maintenance appointment"
		n.Body = fmt.Sprintf("The service team updated request %s and is waiting for your approval.", shortID(e.AggregateID()))
		if fr, ok := e.(*domain.FactoryReviewed); ok && fr.FactoryProposedAt != nil {
			n.Body = fmt.Sprintf("The service team proposed %s for request %s. Please approve or reschedule.", p.format(*fr.FactoryProposedAt), shortID(e.AggregateID()))
		}
	case domain.StatusInProgress:
		n.Kind = KindInProgress
		n.Title = "Maintenance appointment confirmed"
		n.Body = fmt.Sprintf("Request %s is confirmed and in progress.", shortID(e.AggregateID()))
	case domain.StatusCompleted:
		n.Kind = KindCompleted
		n.Title = "Maintenance completed"
		n.Body = fmt.Sprintf("Request %s is completed.", shortID(e.AggregateID()))
	default:
		return Notification{}, false
	}
	return n, true
}

func ownerInitiated(e domain.RequestEvent) bool {
	switch e.(type) {
	case *domain.RequestSubmitted, *domain.UserApproved, *domain.RequestRescheduled, *domain.RequestCancelled:
		return true
	default:
		return false
	}
}

func (p NotificationPolicy) format(t time.Time) string {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("Mon 2 Jan 2006 15:04 MST")
}

func shortID(id uuid.UUID) string { return id.String()[:8] }

// NotificationDispatcher sends notifications for committed events. Delivery
// failures are logged and counted, never returned.
type NotificationDispatcher struct {
	notifier Notifier
	policy   NotificationPolicy
	timeout  time.Duration
	logger   *slog.Logger
	metrics  observability.Metrics
}

// NewNotificationDispatcher creates a dispatcher. A zero timeout means none.
func NewNotificationDispatcher(notifier Notifier, policy NotificationPolicy, timeout time.Duration, logger *slog.Logger, metrics observability.Metrics) *NotificationDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &NotificationDispatcher{notifier: notifier, policy: policy, timeout: timeout, logger: logger, metrics: metrics}
}

func (d *NotificationDispatcher) Dispatch(ctx context.Context, events []sharedDomain.DomainEvent) {
	for _, e := range events {
		if e.AggregateType() != domain.AggregateType {
			continue
		}
		re, ok := e.(domain.RequestEvent)
		if !ok {
			continue
		}
		n, ok := d.policy.For(re)
		if !ok {
			continue
		}
		d.send(ctx, n)
	}
}

func (d *NotificationDispatcher) send(ctx context.Context, n Notification) {
	// The caller may hang up once the transition committed.
	ctx = context.WithoutCancel(ctx)
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	result := "sent"
	if err := d.notifier.Notify(ctx, n); err != nil {
		result = "failed"
		d.logger.WarnContext(ctx, "notification delivery failed",
			"request_id", n.RequestID,
			"recipient_id", n.RecipientID,
			"kind", n.Kind,
			"error", err,
		)
	} else {
		d.logger.DebugContext(ctx, "notification sent", "request_id", n.RequestID, "kind", n.Kind)
	}
	d.metrics.Counter(observability.MetricNotificationTotal, 1,
		observability.T("kind", string(n.Kind)),
		observability.T("result", result),
	)
}
