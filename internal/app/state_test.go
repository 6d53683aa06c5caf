package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tour-booking/internal/clock"
	"github.com/spec-kit/tour-booking/internal/config"
	"github.com/spec-kit/tour-booking/internal/domain"
	"github.com/spec-kit/tour-booking/internal/gateway"
	"github.com/spec-kit/tour-booking/internal/session"
	"github.com/spec-kit/tour-booking/internal/store"
	"github.com/spec-kit/tour-booking/internal/testutil"
)

func testConfig(driver string) *config.Config {
	return &config.Config{
		Gateway: config.GatewayConfig{BaseURL: "http://127.0.0.1:1", TimeoutSeconds: 1},
		Session: config.SessionConfig{TTLDays: 7},
		Store:   config.StoreConfig{Driver: driver, Namespace: "test"},
	}
}

func fakeBackend() *testutil.FakeGateway {
	return &testutil.FakeGateway{
		LoginFunc: testutil.LoginAs("tok-1", domain.User{ID: 1, Email: "a@example.com", Role: domain.RoleCustomer}),
		MeFunc: func(context.Context) (*domain.User, error) {
			return &domain.User{ID: 1, Email: "a@example.com", Role: domain.RoleCustomer}, nil
		},
		ValidateCouponFunc: func(_ context.Context, code string, total domain.Money) (*gateway.CouponValidation, error) {
			c := domain.Coupon{Code: code, DiscountType: domain.DiscountPercent, DiscountValue: 10}
			return &gateway.CouponValidation{Valid: true, Coupon: &c, DiscountAmount: total / 10}, nil
		},
	}
}

func TestStateSurvivesRestartAndExpiresOnResume(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()
	clk := clock.NewManual(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	gw := fakeBackend()

	first, err := New(ctx, testConfig(config.StoreDriverMemory), Options{Backend: backend, Gateway: gw, Clock: clk})
	require.NoError(t, err)
	require.NoError(t, first.Start(ctx))
	require.NoError(t, first.Session.Login(ctx, "a@example.com", "pw"))
	_, err = first.Cart.Add(ctx, domain.CartLine{TourID: 3, QuantityAdult: 2, PriceAdult: 500_000})
	require.NoError(t, err)
	_, err = first.Coupon.Apply(ctx, "save10")
	require.NoError(t, err)
	assert.Equal(t, domain.Money(900_000), first.Coupon.FinalTotal())
	require.NoError(t, first.Close(ctx))

	clk.Advance(2 * 24 * time.Hour)
	second, err := New(ctx, testConfig(config.StoreDriverMemory), Options{Backend: backend, Gateway: gw, Clock: clk})
	require.NoError(t, err)
	require.NoError(t, second.Start(ctx))

	assert.True(t, second.Session.IsAuthenticated())
	assert.Equal(t, 2, second.Cart.PersonCount())
	_, applied := second.Coupon.Applied()
	assert.False(t, applied, "coupons live in memory only")

	_, err = second.HandleAppStateChange(ctx, session.AppBackground)
	require.NoError(t, err)
	clk.Advance(6 * 24 * time.Hour)
	expired, err := second.HandleAppStateChange(ctx, session.AppActive)
	require.NoError(t, err)
	require.NoError(t, second.Flush(ctx))

	assert.True(t, expired)
	assert.False(t, second.Session.IsAuthenticated())
	assert.Equal(t, 2, second.Cart.PersonCount(), "expiry never touches the cart")
	_, ok := backend.Raw(domain.KeyToken)
	assert.False(t, ok)
	_, ok = backend.Raw(domain.KeyCart)
	assert.True(t, ok)
}

func TestStateOpensSQLiteStore(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(config.StoreDriverSQLite)
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "device.db")

	s, err := New(ctx, cfg, Options{Gateway: fakeBackend(), Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))
	_, err = s.Cart.Add(ctx, domain.CartLine{TourID: 1, QuantityAdult: 1})
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	reopened, err := New(ctx, cfg, Options{Gateway: fakeBackend()})
	require.NoError(t, err)
	defer reopened.Close(ctx) //nolint:errcheck
	require.NoError(t, reopened.Start(ctx))
	assert.True(t, reopened.Cart.IsPresent(1))
}

func TestStateRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), testConfig("etcd"), Options{})
	assert.Error(t, err)
}

func TestStateClearingCartDropsCoupon(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, testConfig(config.StoreDriverMemory), Options{Backend: store.NewMemory(), Gateway: fakeBackend(),
		Clock: clock.NewManual(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))})
	require.NoError(t, err)
	defer s.Close(ctx)
	require.NoError(t, s.Start(ctx))
	_, err = s.Cart.Add(ctx, domain.CartLine{TourID: 3, QuantityAdult: 1, PriceAdult: 800_000})
	require.NoError(t, err)
	_, err = s.Coupon.Apply(ctx, "save10")
	require.NoError(t, err)

	require.NoError(t, s.Cart.Clear(ctx))

	_, applied := s.Coupon.Applied()
	assert.False(t, applied)
	assert.Zero(t, s.Coupon.FinalTotal())
}
