package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/services"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/logger"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/queue"
)

// NotificationWorker consumes relationship events and performs the
// best-effort follow-ups decoupled from the write path: dispatching user
// notifications and dropping cached relationship statuses for the pair
// the event touched. Everything here is allowed to fail without
// affecting the relationship data.
type NotificationWorker struct {
	consumer    *queue.KafkaConsumer
	statusCache services.StatusCache
	logger      *logger.Logger
}

func NewNotificationWorker(consumer *queue.KafkaConsumer, statusCache services.StatusCache, logger *logger.Logger) *NotificationWorker {
	return &NotificationWorker{
		consumer:    consumer,
		statusCache: statusCache,
		logger:      logger,
	}
}

func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")

	return w.consumer.Subscribe(ctx, func(msg queue.Message) error {
		var event queue.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal event: %w", err)
		}

		switch event.Type {
		case queue.EventFollowCreated,
			queue.EventFollowDeleted,
			queue.EventFollowRequestSent,
			queue.EventFollowRequestCanceled,
			queue.EventFollowRequestAccepted,
			queue.EventFollowRequestDeclined:
			return w.handleRelationshipEvent(ctx, event)
		case queue.EventUserCreated, queue.EventUserUpdated:
			// Profile events carry no relationship side effects.
			return nil
		default:
			w.logger.WithField("event_type", event.Type).Warn("Unknown event type")
			return nil
		}
	})
}

func (w *NotificationWorker) handleRelationshipEvent(ctx context.Context, event queue.Event) error {
	var data queue.RelationshipEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("failed to unmarshal relationship event data: %w", err)
	}

	w.statusCache.Invalidate(ctx, data.FollowerID, data.FollowingID)

	w.dispatchNotification(event.Type, data)
	return nil
}

// dispatchNotification hands the event to the notification channel. Email
// delivery sits behind an external gateway; this worker only logs the
// dispatch and never retries into the write path.
func (w *NotificationWorker) dispatchNotification(eventType queue.EventType, data queue.RelationshipEventData) {
	w.logger.WithFields(map[string]interface{}{
		"event_type":   eventType,
		"recipient":    data.RecipientUID,
		"follower_id":  data.FollowerID,
		"following_id": data.FollowingID,
	}).Info("Dispatching notification")
}

func (w *NotificationWorker) Stop() error {
	return w.consumer.Close()
}
