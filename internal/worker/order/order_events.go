package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/cache"
	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/messaging"
	ordersvc "github.com/Additional-Code/atelier/internal/service/order"
	"github.com/Additional-Code/atelier/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/atelier/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderEventsHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewOrderEventsHandler drops the cached aggregate of every order named in an
// event so that other instances stop serving it.
func NewOrderEventsHandler(store cache.Store, logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.String("order.event_type", msg.EventType()),
		))
		defer span.End()

		var event ordersvc.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		if event.ID <= 0 {
			logger.Warn("order event without id", zap.String("type", event.Type))
			return nil
		}

		if err := store.Delete(ctx, ordersvc.CacheKey(event.ID)); err != nil {
			span.RecordError(err)
			logger.Warn("order cache invalidation failed", zap.Int64("id", event.ID), zap.Error(err))
		}

		if event.Type == ordersvc.EventFinalized {
			logger.Info("order finalized",
				zap.Int64("id", event.ID),
				zap.String("number", event.Number),
			)
		} else {
			logger.Debug("order event processed",
				zap.String("type", event.Type),
				zap.Int64("id", event.ID),
				zap.String("status", event.Status),
			)
		}

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
