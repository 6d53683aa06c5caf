package coupon

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/tour-booking/internal/cart"
	"github.com/spec-kit/tour-booking/internal/domain"
	"github.com/spec-kit/tour-booking/internal/events"
	"github.com/spec-kit/tour-booking/internal/gateway"
	"github.com/spec-kit/tour-booking/internal/store"
	"github.com/spec-kit/tour-booking/internal/testutil"
	apperrors "github.com/spec-kit/tour-booking/pkg/util"
)

type fixture struct {
	cart     *cart.Manager
	resolver *Resolver
	gw       *testutil.FakeGateway
	bus      events.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gw:  &testutil.FakeGateway{},
		bus: events.NewInMemoryDispatcher(nil),
	}
	f.cart = cart.NewManager(cart.Dependencies{Store: store.NewMemory(), Events: f.bus})
	require.NoError(t, f.cart.Load(context.Background()))
	f.resolver = NewResolver(Dependencies{Gateway: f.gw, Cart: f.cart, Events: f.bus})
	return f
}

func (f *fixture) fillCart(t *testing.T, total domain.Money) {
	t.Helper()
	_, err := f.cart.Add(context.Background(), domain.CartLine{TourID: 1, QuantityAdult: 1, PriceAdult: total})
	require.NoError(t, err)
}

// percentCoupon validates like the backend would for a percent coupon.
func percentCoupon(code string, percent float64) func(context.Context, string, domain.Money) (*gateway.CouponValidation, error) {
	return func(_ context.Context, got string, total domain.Money) (*gateway.CouponValidation, error) {
		if got != code {
			return &gateway.CouponValidation{Valid: false, Message: "coupon not found"}, nil
		}
		c := domain.Coupon{Code: code, DiscountType: domain.DiscountPercent, DiscountValue: percent}
		discount := CalculateDiscount(total, c)
		return &gateway.CouponValidation{Valid: true, Coupon: &c, DiscountAmount: discount, FinalTotal: total - discount}, nil
	}
}

func TestApplyAndRemove(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, 1_000_000)
	f.gw.ValidateCouponFunc = percentCoupon("SUMMER10", 10)
	ctx := context.Background()

	applied, err := f.resolver.Apply(ctx, "summer10")
	require.NoError(t, err)

	assert.Equal(t, "SUMMER10", applied.Coupon.Code)
	assert.Equal(t, domain.Money(100_000), f.resolver.DiscountAmount())
	assert.Equal(t, domain.Money(900_000), f.resolver.FinalTotal())

	f.resolver.Remove(ctx)

	_, ok := f.resolver.Applied()
	assert.False(t, ok)
	assert.Zero(t, f.resolver.DiscountAmount())
	assert.Equal(t, domain.Money(1_000_000), f.resolver.FinalTotal())
}

func TestApplyBlankCodeSkipsBackend(t *testing.T) {
	f := newFixture(t)

	_, err := f.resolver.Apply(context.Background(), "   ")

	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Zero(t, f.gw.Calls("ValidateCoupon"))
}

func TestApplySendsSubtotal(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, 2_400_000)
	var sent domain.Money
	f.gw.ValidateCouponFunc = func(_ context.Context, _ string, total domain.Money) (*gateway.CouponValidation, error) {
		sent = total
		return &gateway.CouponValidation{Valid: false}, nil
	}

	_, _ = f.resolver.Apply(context.Background(), "X")

	assert.Equal(t, domain.Money(2_400_000), sent)
}

func TestInvalidCodeClearsExistingCoupon(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, 1_000_000)
	f.gw.ValidateCouponFunc = percentCoupon("SUMMER10", 10)
	ctx := context.Background()
	_, err := f.resolver.Apply(ctx, "SUMMER10")
	require.NoError(t, err)

	_, err = f.resolver.Apply(ctx, "WINTER")

	assert.EqualError(t, err, "coupon not found")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	_, ok := f.resolver.Applied()
	assert.False(t, ok)
}

func TestInvalidWithoutMessageUsesFallback(t *testing.T) {
	f := newFixture(t)
	f.gw.ValidateCouponFunc = func(context.Context, string, domain.Money) (*gateway.CouponValidation, error) {
		return &gateway.CouponValidation{Valid: false}, nil
	}

	_, err := f.resolver.Apply(context.Background(), "NOPE")

	assert.EqualError(t, err, "invalid coupon code")
}

func TestTransportErrorClearsAndPropagates(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, 1_000_000)
	f.gw.ValidateCouponFunc = percentCoupon("SUMMER10", 10)
	ctx := context.Background()
	_, err := f.resolver.Apply(ctx, "SUMMER10")
	require.NoError(t, err)

	netErr := apperrors.NewNetworkError(errors.New("connection reset"))
	f.gw.ValidateCouponFunc = func(context.Context, string, domain.Money) (*gateway.CouponValidation, error) {
		return nil, netErr
	}
	_, err = f.resolver.Apply(ctx, "SUMMER10")

	assert.Same(t, netErr, err)
	assert.Zero(t, f.resolver.DiscountAmount())
}

func TestNewCodeReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, 1_000_000)
	ctx := context.Background()

	f.gw.ValidateCouponFunc = percentCoupon("A10", 10)
	_, err := f.resolver.Apply(ctx, "A10")
	require.NoError(t, err)
	f.gw.ValidateCouponFunc = percentCoupon("B20", 20)
	_, err = f.resolver.Apply(ctx, "B20")
	require.NoError(t, err)

	applied, ok := f.resolver.Applied()
	require.True(t, ok)
	assert.Equal(t, "B20", applied.Coupon.Code)
	assert.Equal(t, domain.Money(200_000), f.resolver.DiscountAmount())
}

func TestCartClearDropsCoupon(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, 1_000_000)
	f.gw.ValidateCouponFunc = percentCoupon("SUMMER10", 10)
	ctx := context.Background()
	_, err := f.resolver.Apply(ctx, "SUMMER10")
	require.NoError(t, err)

	require.NoError(t, f.cart.Clear(ctx))

	_, ok := f.resolver.Applied()
	assert.False(t, ok)
	assert.Zero(t, f.cart.SubTotal())
	assert.Zero(t, f.resolver.FinalTotal())
}

func TestClearDuringValidationSupersedes(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, 1_000_000)
	ctx := context.Background()
	validate := percentCoupon("SUMMER10", 10)
	f.gw.ValidateCouponFunc = func(ctx context.Context, code string, total domain.Money) (*gateway.CouponValidation, error) {
		require.NoError(t, f.cart.Clear(ctx))
		return validate(ctx, code, total)
	}

	_, err := f.resolver.Apply(ctx, "SUMMER10")

	assert.ErrorIs(t, err, ErrSuperseded)
	_, ok := f.resolver.Applied()
	assert.False(t, ok)
}

func TestCouponIsNotRevalidatedOnCartChange(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, 1_000_000)
	f.gw.ValidateCouponFunc = percentCoupon("SUMMER10", 10)
	ctx := context.Background()
	_, err := f.resolver.Apply(ctx, "SUMMER10")
	require.NoError(t, err)

	_, err = f.cart.Remove(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, domain.Money(100_000), f.resolver.DiscountAmount())
	assert.Equal(t, domain.Money(-100_000), f.resolver.FinalTotal())
	assert.Equal(t, 1, f.gw.Calls("ValidateCoupon"))

	_, err = f.cart.Add(ctx, domain.CartLine{TourID: 2, QuantityAdult: 1, PriceAdult: 3_000_000})
	require.NoError(t, err)
	applied, err := f.resolver.Revalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(300_000), applied.DiscountAmount)
	assert.Equal(t, domain.Money(2_700_000), f.resolver.FinalTotal())
}

func TestAppliedDiscountNeverExceedsSubtotal(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, 50_000)
	f.gw.ValidateCouponFunc = func(_ context.Context, code string, _ domain.Money) (*gateway.CouponValidation, error) {
		c := domain.Coupon{Code: code, DiscountType: domain.DiscountFixed, DiscountValue: 200_000}
		return &gateway.CouponValidation{Valid: true, Coupon: &c, DiscountAmount: 200_000}, nil
	}

	applied, err := f.resolver.Apply(context.Background(), "BIG")
	require.NoError(t, err)

	assert.Equal(t, domain.Money(50_000), applied.DiscountAmount)
	assert.Zero(t, f.resolver.FinalTotal())
}

func TestApplyPublishesEvents(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, 1_000_000)
	f.gw.ValidateCouponFunc = percentCoupon("SUMMER10", 10)
	var seen []events.EventType
	record := func(_ context.Context, e events.Event) error {
		seen = append(seen, e.Type)
		return nil
	}
	f.bus.Subscribe(events.EventCouponApplied, record)
	f.bus.Subscribe(events.EventCouponCleared, record)
	ctx := context.Background()

	_, err := f.resolver.Apply(ctx, "SUMMER10")
	require.NoError(t, err)
	f.resolver.Remove(ctx)
	f.resolver.Remove(ctx)

	assert.Equal(t, []events.EventType{events.EventCouponApplied, events.EventCouponCleared}, seen)
}

func TestResolverWithoutDispatcherWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c := cart.NewManager(cart.Dependencies{Store: store.NewMemory()})
	NewResolver(Dependencies{Gateway: &testutil.FakeGateway{}, Cart: c, Logger: zap.New(core)})

	assert.Equal(t, 1, logs.FilterMessageSnippet("cart clears will not drop the coupon").Len())
}

func TestSeparateDispatchersKeepCouponOnCartClear(t *testing.T) {
	ctx := context.Background()
	gw := &testutil.FakeGateway{ValidateCouponFunc: percentCoupon("SUMMER10", 10)}
	c := cart.NewManager(cart.Dependencies{Store: store.NewMemory(), Events: events.NewInMemoryDispatcher(nil)})
	require.NoError(t, c.Load(ctx))
	r := NewResolver(Dependencies{Gateway: gw, Cart: c, Events: events.NewInMemoryDispatcher(nil)})
	_, err := c.Add(ctx, domain.CartLine{TourID: 1, QuantityAdult: 1, PriceAdult: 1_000_000})
	require.NoError(t, err)
	_, err = r.Apply(ctx, "SUMMER10")
	require.NoError(t, err)

	require.NoError(t, c.Clear(ctx))

	_, ok := r.Applied()
	assert.True(t, ok, "only a shared dispatcher links cart clears to the coupon")
}
