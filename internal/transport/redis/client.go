package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
)

const relayBuffer = 64

// EventRelay mirrors session events on Redis pub/sub for out-of-process observers.
type EventRelay struct {
	logger *slog.Logger
	client *redis.Client
}

func New(logger *slog.Logger, client *redis.Client) *EventRelay {
	return &EventRelay{
		logger: logger.With("component", "relay"),
		client: client,
	}
}

// Channel - the pub/sub channel of a session.
func Channel(gameID string) string {
	return "game:" + gameID + ":events"
}

// Publish - best-effort: failures are logged.
func (that *EventRelay) Publish(ctx context.Context, event entity.Event) {
	log := that.logger.With("method", "Publish")

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error("failed to marshal event", "error", err)
		return
	}

	if err = that.client.Publish(context.WithoutCancel(ctx), Channel(event.GameID), payload).Err(); err != nil {
		log.Warn("failed to publish event", "game_id", event.GameID, "error", err)
	}
}

// Subscribe - decodes the session's events until ctx ends or the returned close func is called.
func (that *EventRelay) Subscribe(ctx context.Context, gameID string) (<-chan entity.Event, func() error, error) {
	pubsub := that.client.Subscribe(ctx, Channel(gameID))

	// wait for the subscription to be confirmed, so no event published after return is lost
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()

		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", Channel(gameID), err)
	}

	events := make(chan entity.Event, relayBuffer)

	go func() {
		defer close(events)

		for msg := range pubsub.Channel() {
			var event entity.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				that.logger.Warn("failed to unmarshal relayed event", "channel", msg.Channel, "error", err)
				continue
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, pubsub.Close, nil
}
