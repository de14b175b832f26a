package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/redchat/redchat"
)

// SignalService fans envelopes out to live sessions through redis pub/sub.
// Every websocket connection subscribes to its identity's channel, so all
// simultaneous sessions of one user receive each delivery, across server
// instances.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

// UserChannel names the delivery channel for one identity.
func UserChannel(userID string) string {
	return "chat:user:" + userID
}

func (s *SignalService) Publish(ctx context.Context, channel string, event redchat.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, channel, jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// PublishToUser delivers an event to every live session of one identity.
func (s *SignalService) PublishToUser(ctx context.Context, userID string, event redchat.Event) error {
	return s.Publish(ctx, UserChannel(userID), event)
}

// Subscribe streams events for channel into output until ctx is cancelled.
// Intended to run as one goroutine per websocket connection.
func (s *SignalService) Subscribe(ctx context.Context, channel string, output chan<- redchat.Event) {
	pubsub := s.rdb.Subscribe(ctx, channel)
	defer pubsub.Close()

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event redchat.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.Error(
					"Failed to decode pubsub payload",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
