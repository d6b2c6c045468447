package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
)

// RunAuditLog subscribes to every event type and writes one log line per
// event until ctx is cancelled. It returns once all subscriptions are set up;
// the returned function waits for the consumers to drain.
func RunAuditLog(ctx context.Context, subscriber message.Subscriber, topicPrefix string, logger *slog.Logger) (wait func(), err error) {
	var wg sync.WaitGroup
	for _, eventType := range AllTypes {
		messages, err := subscriber.Subscribe(ctx, topicPrefix+eventType)
		if err != nil {
			return nil, fmt.Errorf("failed to subscribe to %s: %w", eventType, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range messages {
				logEvent(logger, msg)
				msg.Ack()
			}
		}()
	}
	return wg.Wait, nil
}

func logEvent(logger *slog.Logger, msg *message.Message) {
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		logger.Warn("Discarding malformed event", "message_id", msg.UUID, "error", err)
		return
	}
	logger.Info("audit",
		"event_id", event.ID,
		"event_type", event.Type,
		"timestamp", event.Timestamp,
		"data", event.Data,
	)
}
