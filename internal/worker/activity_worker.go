// Package worker hosts background consumers of client events.
package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking/internal/events"
	"github.com/spec-kit/tour-booking/internal/observability"
)

// ActivityWorker records session, cart and coupon activity in logs and metrics.
type ActivityWorker struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

func NewActivityWorker(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *ActivityWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityWorker{dispatcher: dispatcher, logger: logger, metrics: metrics}
}

// Start subscribes to events.
func (w *ActivityWorker) Start() {
	if w.dispatcher == nil {
		return
	}
	w.dispatcher.Subscribe(events.EventSessionStarted, w.handleSessionStarted)
	w.dispatcher.Subscribe(events.EventSessionRenewed, w.handleGeneric)
	w.dispatcher.Subscribe(events.EventSessionDestroyed, w.handleSessionDestroyed)
	w.dispatcher.Subscribe(events.EventCartChanged, w.handleCartChanged)
	w.dispatcher.Subscribe(events.EventCartCleared, w.handleGeneric)
	w.dispatcher.Subscribe(events.EventCouponApplied, w.handleCouponApplied)
	w.dispatcher.Subscribe(events.EventCouponCleared, w.handleGeneric)
}

func (w *ActivityWorker) handleSessionStarted(_ context.Context, event events.Event) error {
	p, _ := event.Payload.(events.SessionStartedPayload)
	w.metrics.RecordEvent(string(event.Type), p.Role)
	w.logger.Info("SessionStarted",
		zap.Int64("user_id", p.UserID),
		zap.String("role", p.Role),
		zap.Time("expires_at", p.ExpiresAt))
	return nil
}

func (w *ActivityWorker) handleSessionDestroyed(_ context.Context, event events.Event) error {
	p, _ := event.Payload.(events.SessionDestroyedPayload)
	w.metrics.RecordEvent(string(event.Type), string(p.Reason))
	w.logger.Info("SessionDestroyed", zap.String("reason", string(p.Reason)))
	return nil
}

func (w *ActivityWorker) handleCartChanged(_ context.Context, event events.Event) error {
	p, _ := event.Payload.(events.CartChangedPayload)
	w.metrics.RecordEvent(string(event.Type), p.Operation)
	w.logger.Debug("CartChanged",
		zap.String("operation", p.Operation),
		zap.Int64("tour_id", p.TourID),
		zap.Int("tour_count", p.TourCount),
		zap.Int("person_count", p.PersonCount))
	return nil
}

func (w *ActivityWorker) handleCouponApplied(_ context.Context, event events.Event) error {
	p, _ := event.Payload.(events.CouponAppliedPayload)
	w.metrics.RecordEvent(string(event.Type), p.Code)
	w.logger.Info("CouponApplied", zap.String("code", p.Code), zap.Int64("discount", p.DiscountAmount))
	return nil
}

func (w *ActivityWorker) handleGeneric(_ context.Context, event events.Event) error {
	w.metrics.RecordEvent(string(event.Type), "")
	w.logger.Debug(string(event.Type), zap.Any("payload", event.Payload))
	return nil
}
