package services

import (
	"context"
	"time"

	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/logger"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/queue"
)

// Notifier delivers best-effort notifications about relationship
// transitions. Implementations must never block or fail the transition
// that triggered them.
type Notifier interface {
	Notify(kind queue.EventType, data queue.RelationshipEventData)
}

// EventNotifier publishes relationship events to Kafka from a detached
// goroutine. Publish failures are logged and dropped; the caller's result
// is already settled by the time the publish runs.
type EventNotifier struct {
	producer *queue.KafkaProducer
	logger   *logger.Logger
	timeout  time.Duration
}

func NewEventNotifier(producer *queue.KafkaProducer, logger *logger.Logger) *EventNotifier {
	return &EventNotifier{
		producer: producer,
		logger:   logger,
		timeout:  5 * time.Second,
	}
}

func (n *EventNotifier) Notify(kind queue.EventType, data queue.RelationshipEventData) {
	event, err := queue.NewEvent(kind, data)
	if err != nil {
		n.logger.WithError(err).Error("Failed to build relationship event")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.producer.Publish(ctx, data.RecipientUID, event); err != nil {
			n.logger.WithError(err).WithField("event_type", kind).
				Error("Failed to publish relationship event")
		}
	}()
}
