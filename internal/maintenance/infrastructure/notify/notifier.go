// Package notify delivers workflow notifications to the notification service.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/upkeep/internal/maintenance/application"
	"github.com/felixgeelhaar/upkeep/internal/shared/infrastructure/eventbus"
	jsoniter "github.com/json-iterator/go"
)

// RoutingKeyPrefix precedes the notification kind in broker routing keys.
const RoutingKeyPrefix = "notification."

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BrokerNotifier publishes notifications as JSON for the push service to
// consume.
type BrokerNotifier struct {
	publisher eventbus.Publisher
}

func NewBrokerNotifier(publisher eventbus.Publisher) *BrokerNotifier {
	return &BrokerNotifier{publisher: publisher}
}

func (n *BrokerNotifier) Notify(ctx context.Context, note application.Notification) error {
	payload, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := n.publisher.Publish(ctx, RoutingKeyPrefix+string(note.Kind), payload); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// LogNotifier writes notifications to the log. Used when no broker is set.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, note application.Notification) error {
	n.logger.InfoContext(ctx, "notification",
		"recipient_id", note.RecipientID,
		"kind", note.Kind,
		"title", note.Title,
		"request_id", note.RequestID,
	)
	return nil
}
