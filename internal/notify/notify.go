package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/swiftryde/swiftryde-wallet/pkg/events"
	"github.com/swiftryde/swiftryde-wallet/pkg/logger"
	"gorm.io/gorm"
)

// delivery channels
const (
	ChannelInApp = "in_app"
	ChannelPush  = "push"
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Notification is one user-facing message fanned out over one or more
// channels. The in-app copy is persisted; push/email/sms delivery happens
// downstream of the outbound queue.
type Notification struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Title     string         `gorm:"not null" json:"title"`
	Body      string         `gorm:"not null" json:"body"`
	Channels  pq.StringArray `gorm:"type:text[]" json:"channels"`
	Reference string         `json:"reference,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Emitter is the core's only notification surface. Emit is fire-and-forget:
// it returns nothing and a delivery failure can never reach the caller, so
// a committed ledger mutation is never rolled back by messaging trouble.
type Emitter interface {
	Emit(n Notification)
}

type emitter struct {
	db    *gorm.DB
	redis *events.RedisClient
}

func NewEmitter(db *gorm.DB, redis *events.RedisClient) Emitter {
	return &emitter{db: db, redis: redis}
}

func (e *emitter) Emit(n Notification) {
	go e.deliver(n)
}

func (e *emitter) deliver(n Notification) {
	if err := e.db.Create(&n).Error; err != nil {
		logger.Error("Notify: failed to persist notification", logger.Fields{
			logger.UserIdKey: n.UserID.String(),
			"error":          err.Error(),
		})
	}

	data, err := json.Marshal(n)
	if err != nil {
		logger.Error("Notify: failed to marshal notification", logger.WithError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.redis.PublishNotification(ctx, data); err != nil {
		logger.Error("Notify: failed to enqueue notification", logger.Fields{
			logger.UserIdKey: n.UserID.String(),
			"error":          err.Error(),
		})
	}
}

// NopEmitter discards everything; used in tests.
type NopEmitter struct{}

func (NopEmitter) Emit(Notification) {}
