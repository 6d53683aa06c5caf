// Package coupon validates discount codes against the backend and holds the
// single coupon applied to the cart.
package coupon

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking/internal/domain"
	"github.com/spec-kit/tour-booking/internal/events"
	"github.com/spec-kit/tour-booking/internal/gateway"
	apperrors "github.com/spec-kit/tour-booking/pkg/util"
)

const (
	msgBlankCode   = "please enter a coupon code"
	msgInvalidCode = "invalid coupon code"
)

// ErrSuperseded is returned by Apply when the coupon was removed, the cart
// cleared or another code applied while validation was in flight.
var ErrSuperseded = errors.New("coupon validation superseded")

// Subtotaler provides the order total a code is validated against.
type Subtotaler interface {
	SubTotal() domain.Money
}

// Dependencies encapsulates collaborators of the resolver.
type Dependencies struct {
	Gateway gateway.Gateway
	Cart    Subtotaler
	// Events must be shared with the cart manager; cart.cleared on it drops the coupon.
	Events events.Dispatcher
	Logger *zap.Logger
}

// Resolver holds at most one applied coupon. Applying a new code replaces the
// old one; the coupon is not revalidated when the cart changes afterwards.
type Resolver struct {
	gw     gateway.Gateway
	cart   Subtotaler
	events events.Dispatcher
	logger *zap.Logger

	mu         sync.RWMutex
	applied    *domain.AppliedCoupon
	generation uint64
}

// NewResolver builds a resolver and subscribes it to cart.cleared.
func NewResolver(deps Dependencies) *Resolver {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if events.IsNop(deps.Events) {
		deps.Logger.Warn("coupon resolver has no event dispatcher, cart clears will not drop the coupon")
		deps.Events = events.Nop()
	}
	r := &Resolver{
		gw:     deps.Gateway,
		cart:   deps.Cart,
		events: deps.Events,
		logger: deps.Logger,
	}
	r.events.Subscribe(events.EventCartCleared, func(ctx context.Context, _ events.Event) error {
		r.clear(ctx)
		return nil
	})
	return r
}

// Apply validates code against the current subtotal. On success the coupon
// replaces any applied one; on any failure the applied coupon is cleared.
func (r *Resolver) Apply(ctx context.Context, code string) (domain.AppliedCoupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return domain.AppliedCoupon{}, apperrors.NewValidationError(0, msgBlankCode, nil)
	}

	r.mu.Lock()
	r.generation++
	gen := r.generation
	r.mu.Unlock()

	total := r.cart.SubTotal()
	resp, err := r.gw.ValidateCoupon(ctx, code, total)
	if err != nil {
		r.logger.Debug("coupon validation failed", zap.String("code", code), zap.Error(err))
		r.clearIfCurrent(ctx, gen)
		return domain.AppliedCoupon{}, err
	}
	if !resp.Valid || resp.Coupon == nil {
		r.clearIfCurrent(ctx, gen)
		msg := resp.Message
		if msg == "" {
			msg = msgInvalidCode
		}
		return domain.AppliedCoupon{}, apperrors.NewValidationError(0, msg, nil)
	}

	discount := resp.DiscountAmount
	if discount > total {
		discount = total
	}
	applied := domain.AppliedCoupon{Coupon: *resp.Coupon, DiscountAmount: discount}

	r.mu.Lock()
	if r.generation != gen {
		r.mu.Unlock()
		return domain.AppliedCoupon{}, ErrSuperseded
	}
	r.applied = &applied
	r.mu.Unlock()

	r.logger.Info("coupon applied", zap.String("code", applied.Coupon.Code), zap.Int64("discount", int64(discount)))
	r.events.Publish(ctx, events.Event{
		Type:      events.EventCouponApplied,
		Timestamp: time.Now(),
		Payload:   events.CouponAppliedPayload{Code: applied.Coupon.Code, DiscountAmount: int64(discount)},
	})
	return applied, nil
}

// Remove clears the applied coupon. It never calls the backend.
func (r *Resolver) Remove(ctx context.Context) {
	r.clear(ctx)
}

// Revalidate re-applies the current code against the current subtotal.
// Nothing happens when no coupon is applied.
func (r *Resolver) Revalidate(ctx context.Context) (domain.AppliedCoupon, error) {
	current, ok := r.Applied()
	if !ok {
		return domain.AppliedCoupon{}, nil
	}
	return r.Apply(ctx, current.Coupon.Code)
}

func (r *Resolver) Applied() (domain.AppliedCoupon, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.applied == nil {
		return domain.AppliedCoupon{}, false
	}
	return *r.applied, true
}

// DiscountAmount is zero when no coupon is applied.
func (r *Resolver) DiscountAmount() domain.Money {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.applied == nil {
		return 0
	}
	return r.applied.DiscountAmount
}

// FinalTotal is the subtotal minus the applied discount. It is not clamped at
// zero; the backend bounds the discount when validating.
func (r *Resolver) FinalTotal() domain.Money {
	return r.cart.SubTotal() - r.DiscountAmount()
}

func (r *Resolver) clear(ctx context.Context) {
	r.mu.Lock()
	r.generation++
	had := r.applied != nil
	r.applied = nil
	r.mu.Unlock()

	if had {
		r.events.Publish(ctx, events.Event{Type: events.EventCouponCleared, Timestamp: time.Now()})
	}
}

func (r *Resolver) clearIfCurrent(ctx context.Context, gen uint64) {
	r.mu.RLock()
	current := r.generation == gen
	r.mu.RUnlock()
	if current {
		r.clear(ctx)
	}
}
