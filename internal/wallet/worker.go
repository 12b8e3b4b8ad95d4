package wallet

import (
	"context"
	"encoding/json"
	"time"

	"github.com/swiftryde/swiftryde-wallet/pkg/config"
	"github.com/swiftryde/swiftryde-wallet/pkg/events"
	"github.com/swiftryde/swiftryde-wallet/pkg/logger"
)

// ReconcileWorker drains the webhook queue and feeds events to the
// reconcilers. Delivery is at-least-once: transient failures requeue via
// bounded retries then the DLQ, final outcomes (unknown reference, already
// reconciled) are dropped, and invariant violations go straight to the DLQ.
type ReconcileWorker struct {
	Config      config.Config
	Service     *Service
	RedisClient *events.RedisClient
}

func NewReconcileWorker(cfg config.Config, svc *Service, redisClient *events.RedisClient) *ReconcileWorker {
	return &ReconcileWorker{Config: cfg, Service: svc, RedisClient: redisClient}
}

func (w *ReconcileWorker) Start(ctx context.Context) {
	n := w.Config.WorkerConcurrency
	if n < 1 {
		n = 1
	}
	logger.Info("Starting reconcile workers", logger.Fields{"concurrency": n})
	for i := 0; i < n; i++ {
		go w.processEvents(ctx)
	}
}

func (w *ReconcileWorker) processEvents(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		result, err := w.RedisClient.Client.BLPop(ctx, 5*time.Second, events.WebhookQueue).Result()
		if err != nil {
			continue
		}

		eventData := []byte(result[1])
		var event events.WebhookEvent
		if err := json.Unmarshal(eventData, &event); err != nil {
			logger.Error("Worker: failed to unmarshal event", logger.Fields{"error": err.Error(), "data": string(eventData)})
			w.moveToDLQ(ctx, eventData)
			continue
		}

		w.handleEvent(ctx, event, eventData)
	}
}

func (w *ReconcileWorker) handleEvent(ctx context.Context, event events.WebhookEvent, rawData []byte) {
	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		err := w.dispatch(ctx, event)
		if err == nil {
			logger.Info("Worker: event processed", logger.Fields{
				logger.EventKey:     event.Event,
				logger.ReferenceKey: event.Reference,
			})
			return
		}

		if IsFatal(err) {
			logger.Error("Worker: invariant violation, moving to DLQ", logger.Fields{
				logger.EventKey:     event.Event,
				logger.ReferenceKey: event.Reference,
				"error":             err.Error(),
			})
			w.moveToDLQ(ctx, rawData)
			return
		}

		if !IsRetryable(err) {
			logger.Warn("Worker: event rejected, dropping", logger.Fields{
				logger.EventKey:     event.Event,
				logger.ReferenceKey: event.Reference,
				"error":             err.Error(),
			})
			return
		}

		logger.Warn("Worker: transient failure, retrying", logger.Fields{
			logger.EventKey:     event.Event,
			logger.ReferenceKey: event.Reference,
			"attempt":           i + 1,
			"error":             err.Error(),
		})
		time.Sleep(time.Duration(i+1) * time.Second)
	}

	logger.Error("Worker: max retries exhausted, moving to DLQ", logger.Fields{logger.ReferenceKey: event.Reference})
	w.moveToDLQ(ctx, rawData)
}

func (w *ReconcileWorker) dispatch(ctx context.Context, event events.WebhookEvent) error {
	switch event.Event {
	case events.EventChargeSuccess:
		return w.Service.ReconcileDeposit(ctx, event)
	case events.EventTransferSuccess, events.EventTransferReversed, events.EventTransferFailed:
		return w.Service.ReconcileTransfer(ctx, event)
	default:
		logger.Warn("Worker: unknown event type", logger.Fields{
			logger.EventKey:     event.Event,
			logger.ReferenceKey: event.Reference,
		})
		return nil
	}
}

func (w *ReconcileWorker) moveToDLQ(ctx context.Context, data []byte) {
	if err := w.RedisClient.PushToDLQ(ctx, data); err != nil {
		logger.Error("Worker: failed to push to DLQ", logger.Fields{"error": err.Error()})
	}
}
