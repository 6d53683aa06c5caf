// Package app wires the session, cart and coupon managers over one store,
// one gateway and one event bus. A State is the single application-scoped
// object handed to every caller.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking/internal/cart"
	"github.com/spec-kit/tour-booking/internal/clock"
	"github.com/spec-kit/tour-booking/internal/config"
	"github.com/spec-kit/tour-booking/internal/coupon"
	"github.com/spec-kit/tour-booking/internal/events"
	"github.com/spec-kit/tour-booking/internal/gateway"
	"github.com/spec-kit/tour-booking/internal/observability"
	"github.com/spec-kit/tour-booking/internal/session"
	"github.com/spec-kit/tour-booking/internal/store"
	"github.com/spec-kit/tour-booking/internal/worker"
)

// Options overrides collaborators normally built from config.
type Options struct {
	Logger     *zap.Logger
	Registerer prometheus.Registerer
	Clock      clock.Clock
	// Backend replaces the store selected by cfg.Store.Driver.
	Backend store.Store
	// Gateway replaces the HTTP client built from cfg.Gateway.
	Gateway gateway.Gateway
}

// State is the application-scoped container.
type State struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Events  events.Dispatcher
	Store   store.Store
	Gateway gateway.Gateway

	Session *session.Manager
	Cart    *cart.Manager
	Coupon  *coupon.Resolver

	queue   *store.Queue
	closers []func() error
}

// New builds the state. Nothing is read from the store until Start.
func New(ctx context.Context, cfg *config.Config, opts Options) (*State, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := observability.NewMetrics(opts.Registerer)

	s := &State{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Events:  events.NewInMemoryDispatcher(observability.Component(logger, "events")),
	}
	worker.NewActivityWorker(s.Events, observability.Component(logger, "activity"), metrics).Start()

	backend := opts.Backend
	if backend == nil {
		var err error
		backend, err = s.openBackend(ctx)
		if err != nil {
			return nil, err
		}
	}
	s.queue = store.NewQueue(backend, observability.Component(logger, "store"), metrics)
	s.Store = s.queue

	s.Gateway = opts.Gateway
	if s.Gateway == nil {
		s.Gateway = gateway.NewClient(gateway.Options{
			BaseURL: cfg.Gateway.BaseURL,
			Timeout: cfg.Gateway.Timeout(),
			Tokens:  gateway.StoreTokens(s.Store),
			Logger:  observability.Component(logger, "gateway"),
			Metrics: metrics,
		})
	}

	s.Session = session.NewManager(session.Dependencies{
		Gateway: s.Gateway,
		Store:   s.Store,
		Clock:   opts.Clock,
		Events:  s.Events,
		Logger:  observability.Component(logger, "session"),
		TTL:     cfg.Session.TTL(),
	})
	s.Cart = cart.NewManager(cart.Dependencies{
		Store:   s.Store,
		Gateway: s.Gateway,
		Events:  s.Events,
		Logger:  observability.Component(logger, "cart"),
	})
	s.Coupon = coupon.NewResolver(coupon.Dependencies{
		Gateway: s.Gateway,
		Cart:    s.Cart,
		Events:  s.Events,
		Logger:  observability.Component(logger, "coupon"),
	})
	return s, nil
}

func (s *State) openBackend(ctx context.Context) (store.Store, error) {
	cfg := s.Config.Store
	switch cfg.Driver {
	case config.StoreDriverMemory:
		return store.NewMemory(), nil
	case config.StoreDriverSQLite:
		db, err := store.NewSQLite(ctx, cfg.SQLitePath, s.Logger)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		return db, nil
	case config.StoreDriverRedis:
		rdb := store.NewRedis(s.Config.Redis, cfg.Namespace, s.Logger)
		if err := rdb.Ping(ctx); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connect redis store: %w", err)
		}
		s.closers = append(s.closers, func() error {
			rdb.Close()
			return nil
		})
		return rdb, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Start restores the persisted session and cart. A session that cannot be
// restored leaves the device signed out; the cart is still loaded.
func (s *State) Start(ctx context.Context) error {
	sessErr := s.Session.Initialize(ctx)
	if sessErr != nil {
		s.Logger.Warn("session restore failed", zap.Error(sessErr))
	}
	if err := s.Cart.Load(ctx); err != nil {
		return errors.Join(sessErr, err)
	}
	return sessErr
}

// HandleAppStateChange forwards host visibility changes to the session manager.
func (s *State) HandleAppStateChange(ctx context.Context, next session.AppStatus) (bool, error) {
	return s.Session.HandleAppStateChange(ctx, next)
}

// Flush waits for queued store writes.
func (s *State) Flush(ctx context.Context) error {
	return s.queue.Flush(ctx)
}

// Close flushes pending writes and releases the store backend.
func (s *State) Close(ctx context.Context) error {
	errs := []error{s.Flush(ctx)}
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}
