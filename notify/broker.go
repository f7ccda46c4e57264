package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pix-payment-svc/config"
	"pix-payment-svc/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Broker fans order status changes out to live subscribers. Delivery is
// at-most-once with no durability; the orders table stays the source of
// truth for anything missed.
type Broker interface {
	Publish(ctx context.Context, event models.StatusEvent) error
	// Subscribe returns a channel of events for one order id and a cancel
	// function that releases the subscription.
	Subscribe(ctx context.Context, orderID int) (<-chan models.StatusEvent, func())
}

func InitRedis(cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established")
	return rdb, nil
}

// RedisBroker implements Broker over Redis pub/sub, one channel per order.
type RedisBroker struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisBroker(rdb *redis.Client, logger *zap.Logger) *RedisBroker {
	return &RedisBroker{rdb: rdb, logger: logger}
}

func channelName(orderID int) string {
	return fmt.Sprintf("orders.%d", orderID)
}

func (b *RedisBroker) Publish(ctx context.Context, event models.StatusEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}
	if err := b.rdb.Publish(ctx, channelName(event.OrderID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish status event: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, orderID int) (<-chan models.StatusEvent, func()) {
	pubsub := b.rdb.Subscribe(ctx, channelName(orderID))
	out := make(chan models.StatusEvent)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var event models.StatusEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Error("Failed to unmarshal status event",
					zap.Int("order_id", orderID), zap.Error(err))
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		if err := pubsub.Close(); err != nil {
			b.logger.Error("Failed to close subscription",
				zap.Int("order_id", orderID), zap.Error(err))
		}
	}

	return out, cancel
}
