package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/swiftryde/swiftryde-wallet/pkg/config"
	"github.com/swiftryde/swiftryde-wallet/pkg/logger"
	"github.com/swiftryde/swiftryde-wallet/pkg/money"
)

const (
	WebhookQueue      = "webhook_events"
	FailedQueue       = "failed_webhook_events"
	NotificationQueue = "notification_events"
)

// provider event names consumed by the reconciler worker
const (
	EventChargeSuccess    = "charge.success"
	EventTransferSuccess  = "transfer.success"
	EventTransferReversed = "transfer.reversed"
	EventTransferFailed   = "transfer.failed"
)

type RedisClient struct {
	Client *redis.Client
}

type Customer struct {
	CustomerCode string `json:"customer_code"`
}

type Authorization struct {
	AuthorizationCode string `json:"authorization_code"`
	Channel           string `json:"channel"`
}

// WebhookEvent is the normalized queue payload for a provider webhook.
// Amounts stay in kobo until a reconciler converts them.
type WebhookEvent struct {
	Event         string        `json:"event"`
	Reference     string        `json:"reference"`
	Status        string        `json:"status"`
	Amount        money.Kobo    `json:"amount"`
	Customer      Customer      `json:"customer"`
	IPAddress     string        `json:"ip_address,omitempty"`
	Authorization Authorization `json:"authorization,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	ReceivedAt    time.Time     `json:"received_at"`
}

func NewRedisClient(cfg config.Config) *RedisClient {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("Failed to parse Redis url", logger.Fields{"error": err.Error(), "url": cfg.RedisURL})
		opt = &redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       0,
		}
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Error("Failed to connect to Redis", logger.Fields{"error": err.Error(), "url": cfg.RedisURL})
	} else {
		logger.Info("Connected to Redis", logger.Fields{"url": cfg.RedisURL})
	}

	return &RedisClient{Client: rdb}
}

func (r *RedisClient) PublishEvent(ctx context.Context, event WebhookEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %v", err)
	}

	if err := r.Client.RPush(ctx, WebhookQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to push event to redis: %v", err)
	}

	return nil
}

func (r *RedisClient) PushToDLQ(ctx context.Context, data []byte) error {
	if err := r.Client.RPush(ctx, FailedQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to push event to DLQ: %v", err)
	}
	return nil
}

// PublishNotification puts a serialized notification on the outbound
// delivery channel. Callers treat failures as advisory only.
func (r *RedisClient) PublishNotification(ctx context.Context, data []byte) error {
	if err := r.Client.RPush(ctx, NotificationQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to push notification to redis: %v", err)
	}
	return nil
}
