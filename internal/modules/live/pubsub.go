package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bookadmin/internal/domain"
)

const (
	channelPrefix  = "bookadmin:org:"
	publishTimeout = 5 * time.Second
)

// RedisFanout implements Fanout over Redis pub/sub so every server instance
// delivers lifecycle events to its own connected sessions.
type RedisFanout struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisFanout(client *redis.Client, logger *zap.Logger) *RedisFanout {
	return &RedisFanout{client: client, logger: logger}
}

func (r *RedisFanout) Publish(organizationID int64, ev domain.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return r.client.Publish(ctx, channel(organizationID), body).Err()
}

func (r *RedisFanout) Subscribe(organizationID int64, handler func(domain.Event)) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, channel(organizationID))
	if _, err := pubsub.Receive(ctx); err != nil {
		cancelCtx()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev domain.Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					r.logger.Warn("dropping malformed fanout event", zap.Error(err))
					continue
				}
				handler(ev)
			}
		}
	}()
	return cancelCtx, nil
}

func channel(organizationID int64) string {
	return fmt.Sprintf("%s%d", channelPrefix, organizationID)
}
