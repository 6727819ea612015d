package services

import (
	"context"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/logger"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

// publish delivers an event after commit. Failures are logged, not returned.
func publish(ctx context.Context, notifier Notifier, event models.SettlementEvent) {
	if notifier == nil {
		logger.Log.Warnw("notifier not configured, skipping publishing", "event_id", event.EventID, "type", event.Type)
		return
	}

	if err := notifier.Publish(ctx, event); err != nil {
		logger.Log.Errorw("failed to publish settlement event", "event_id", event.EventID, "type", event.Type, "order_id", event.OrderID, "error", err)
		return
	}
	logger.Log.Infow("settlement event published", "event_id", event.EventID, "type", event.Type, "order_id", event.OrderID)
}
