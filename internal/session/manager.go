// Package session owns the signed-in identity on the device: token, cached
// profile, role and the fixed-length window that starts at sign-in.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking/internal/clock"
	"github.com/spec-kit/tour-booking/internal/domain"
	"github.com/spec-kit/tour-booking/internal/events"
	"github.com/spec-kit/tour-booking/internal/gateway"
	"github.com/spec-kit/tour-booking/internal/store"
	apperrors "github.com/spec-kit/tour-booking/pkg/util"
)

// Dependencies encapsulates collaborators of the session manager.
type Dependencies struct {
	Gateway gateway.Gateway
	Store   store.Store
	Clock   clock.Clock
	Events  events.Dispatcher
	Logger  *zap.Logger
	TTL     time.Duration
}

// Manager coordinates sign-in, sign-out and expiry of the device session.
type Manager struct {
	gw     gateway.Gateway
	store  store.Store
	clock  clock.Clock
	events events.Dispatcher
	logger *zap.Logger
	ttl    time.Duration

	mu      sync.RWMutex
	state   State
	session domain.Session
	// generation changes whenever a session starts or ends, so results of
	// calls that raced with a sign-in or sign-out are discarded.
	generation uint64
	appStatus  AppStatus

	// writeMu serializes writes of the session keys so a sign-out cannot be
	// overtaken by the persistence of the session it ended.
	writeMu sync.Mutex
}

// NewManager builds the manager in the Uninitialized state.
func NewManager(deps Dependencies) *Manager {
	if deps.Clock == nil {
		deps.Clock = clock.NewSystem()
	}
	if deps.Events == nil {
		deps.Events = events.Nop()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.TTL <= 0 {
		deps.TTL = domain.DefaultSessionTTL
	}
	return &Manager{
		gw:        deps.Gateway,
		store:     deps.Store,
		clock:     deps.Clock,
		events:    deps.Events,
		logger:    deps.Logger,
		ttl:       deps.TTL,
		state:     StateUninitialized,
		appStatus: AppActive,
	}
}

// Initialize restores a persisted session and refreshes its profile.
// Connectivity failures keep the cached credentials; an explicit 401 or a
// locally expired window signs the device out.
func (m *Manager) Initialize(ctx context.Context) error {
	stored, err := m.readStored(ctx)
	if err != nil {
		m.logger.Warn("stored session unreadable, clearing", zap.Error(err))
		if derr := m.destroy(ctx, events.ReasonCorrupt); derr != nil {
			err = errors.Join(err, derr)
		}
		return fmt.Errorf("restore session: %w", err)
	}

	if stored.Token == "" || stored.User == nil || stored.Role == "" {
		m.mu.Lock()
		m.state = StateUnauthenticated
		m.mu.Unlock()
		m.logger.Debug("no stored session")
		return nil
	}

	if !stored.IssuedAt.IsZero() {
		stored.ExpiresAt = domain.ExpiryFor(stored.IssuedAt, m.ttl)
		if !m.clock.Now().Before(stored.ExpiresAt) {
			m.logger.Info("stored session expired", zap.Time("expires_at", stored.ExpiresAt))
			return m.destroy(ctx, events.ReasonExpired)
		}
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.session = stored
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	user, err := m.gw.Me(ctx)
	switch {
	case err == nil:
		return m.replaceUser(ctx, gen, user)
	case apperrors.IsUnauthorized(err):
		m.logger.Info("token rejected by server, clearing session")
		return m.destroyIfCurrent(ctx, gen, events.ReasonUnauthorized)
	default:
		m.logger.Warn("profile refresh failed, keeping cached session",
			zap.String("kind", string(apperrors.KindOf(err))), zap.Error(err))
		return nil
	}
}

// Login signs in with email and password. Failures leave existing state untouched.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	resp, err := m.gw.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return m.start(ctx, resp, "login failed")
}

// Register creates a customer account and signs it in.
func (m *Manager) Register(ctx context.Context, reg domain.Registration) error {
	resp, err := m.gw.Register(ctx, reg)
	if err != nil {
		return err
	}
	return m.start(ctx, resp, "registration failed")
}

// Logout invalidates the token remotely on a best-effort basis, then always clears the session.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.gw.Logout(ctx); err != nil {
		m.logger.Debug("remote logout failed", zap.Error(err))
	}
	return m.destroy(ctx, events.ReasonLogout)
}

// ChangePassword changes the password and restarts the session window.
func (m *Manager) ChangePassword(ctx context.Context, current, next string) error {
	if _, err := m.ensureLive(ctx); err != nil {
		return err
	}
	resp, err := m.gw.ChangePassword(ctx, current, next)
	if err != nil {
		m.HandleUnauthorized(ctx, err)
		return err
	}
	if !resp.Success {
		return apperrors.NewValidationError(0, fallback(resp.Message, "password change failed"), nil)
	}

	issuedAt := m.now()
	m.mu.Lock()
	if m.session.Token == "" {
		m.mu.Unlock()
		return nil
	}
	m.session.IssuedAt = issuedAt
	m.session.ExpiresAt = domain.ExpiryFor(issuedAt, m.ttl)
	expiresAt := m.session.ExpiresAt
	gen := m.generation
	m.mu.Unlock()

	if err := m.writeIfCurrent(gen, func() error {
		return m.store.Set(ctx, domain.KeyLoginTimestamp, issuedAt.UnixMilli())
	}); err != nil {
		return fmt.Errorf("persist login timestamp: %w", err)
	}
	m.events.Publish(ctx, events.Event{
		Type:      events.EventSessionRenewed,
		Timestamp: issuedAt,
		Payload:   events.SessionStartedPayload{UserID: m.userID(), Role: string(m.Role()), ExpiresAt: expiresAt},
	})
	return nil
}

// UpdateProfile saves profile fields remotely and replaces the cached profile. Expiry is unaffected.
func (m *Manager) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.User, error) {
	gen, err := m.ensureLive(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := m.gw.UpdateProfile(ctx, update)
	if err != nil {
		m.HandleUnauthorized(ctx, err)
		return nil, err
	}
	if !resp.Success {
		return nil, apperrors.NewValidationError(0, fallback(resp.Message, "profile update failed"), nil)
	}
	if resp.User == nil {
		return m.User(), nil
	}
	if err := m.replaceUser(ctx, gen, resp.User); err != nil {
		return nil, err
	}
	return m.User(), nil
}

// RefreshUser reloads the profile from the server.
func (m *Manager) RefreshUser(ctx context.Context) (*domain.User, error) {
	gen, err := m.ensureLive(ctx)
	if err != nil {
		return nil, err
	}

	user, err := m.gw.Me(ctx)
	if err != nil {
		m.HandleUnauthorized(ctx, err)
		return nil, err
	}
	if err := m.replaceUser(ctx, gen, user); err != nil {
		return nil, err
	}
	return m.User(), nil
}

// CheckSessionExpiry compares the stored sign-in time with now and signs the
// device out when the window has passed. It reports whether the session had
// expired. Concurrent callers destroy at most once.
func (m *Manager) CheckSessionExpiry(ctx context.Context) (bool, error) {
	m.mu.RLock()
	gen := m.generation
	m.mu.RUnlock()

	var issuedMillis int64
	found, err := m.store.Get(ctx, domain.KeyLoginTimestamp, &issuedMillis)
	if err != nil {
		return false, fmt.Errorf("read login timestamp: %w", err)
	}
	if !found || issuedMillis <= 0 {
		return false, nil
	}

	expiresAt := domain.ExpiryFor(time.UnixMilli(issuedMillis), m.ttl)
	if !m.clock.Now().Before(expiresAt) {
		m.logger.Info("session expired", zap.Time("expires_at", expiresAt))
		return true, m.destroyIfCurrent(ctx, gen, events.ReasonExpired)
	}

	m.mu.Lock()
	if m.generation == gen && m.session.Token != "" {
		m.session.ExpiresAt = expiresAt
	}
	m.mu.Unlock()
	return false, nil
}

// HandleUnauthorized signs the device out when err is a server-confirmed 401.
// It reports whether the session was destroyed.
func (m *Manager) HandleUnauthorized(ctx context.Context, err error) bool {
	if !apperrors.IsUnauthorized(err) {
		return false
	}
	if derr := m.destroy(ctx, events.ReasonUnauthorized); derr != nil {
		m.logger.Warn("clear session after 401", zap.Error(derr))
	}
	return true
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsAuthenticated reports whether a usable, unexpired session is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateAuthenticated && m.session.User != nil && m.session.ValidAt(m.clock.Now())
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.session
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Token
}

func (m *Manager) User() *domain.User {
	return m.Snapshot().User
}

func (m *Manager) Role() domain.Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Role
}

// ExpiresAt is zero when no session is held or no expiry could be computed.
func (m *Manager) ExpiresAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.ExpiresAt
}

func (m *Manager) IssuedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.IssuedAt
}

func (m *Manager) start(ctx context.Context, resp *gateway.AuthResponse, failure string) error {
	if resp == nil || !resp.Success || resp.Token == "" || resp.User == nil {
		msg := ""
		if resp != nil {
			msg = resp.Message
		}
		return apperrors.NewValidationError(0, fallback(msg, failure), nil)
	}

	issuedAt := m.now()
	user := *resp.User
	sess := domain.Session{
		Token:     resp.Token,
		User:      &user,
		Role:      user.Role,
		IssuedAt:  issuedAt,
		ExpiresAt: domain.ExpiryFor(issuedAt, m.ttl),
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.session = sess
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	current, err := m.persist(ctx, gen, sess)
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if !current {
		m.logger.Debug("session ended while persisting, skipping start")
		return nil
	}

	m.logger.Info("session started",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Time("expires_at", sess.ExpiresAt))
	m.events.Publish(ctx, events.Event{
		Type:      events.EventSessionStarted,
		Timestamp: issuedAt,
		Payload:   events.SessionStartedPayload{UserID: user.ID, Role: string(user.Role), ExpiresAt: sess.ExpiresAt},
	})
	return nil
}

// persist writes the session keys while gen is still the live generation.
// It reports false when the session ended before every key was written.
func (m *Manager) persist(ctx context.Context, gen uint64, s domain.Session) (bool, error) {
	writes := []struct {
		key   string
		value any
	}{
		{domain.KeyToken, s.Token},
		{domain.KeyUser, s.User},
		{domain.KeyRole, s.Role},
		{domain.KeyLoginTimestamp, s.IssuedAt.UnixMilli()},
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	for _, w := range writes {
		if !m.isGeneration(gen) {
			return false, nil
		}
		if err := m.store.Set(ctx, w.key, w.value); err != nil {
			return true, err
		}
	}
	return true, nil
}

// writeIfCurrent runs write under writeMu unless the session generation moved past gen.
func (m *Manager) writeIfCurrent(gen uint64, write func() error) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if !m.isGeneration(gen) {
		return nil
	}
	return write()
}

func (m *Manager) isGeneration(gen uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation == gen
}

// ensureLive signs the device out when the held session's window has passed,
// before any request is spent on it. It returns the generation to guard results with.
func (m *Manager) ensureLive(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	gen := m.generation
	held := m.session.Token != ""
	expiresAt := m.session.ExpiresAt
	m.mu.RUnlock()

	if !held || expiresAt.IsZero() || m.clock.Now().Before(expiresAt) {
		return gen, nil
	}
	m.logger.Info("session expired", zap.Time("expires_at", expiresAt))
	if err := m.destroyIfCurrent(ctx, gen, events.ReasonExpired); err != nil {
		m.logger.Warn("clear expired session", zap.Error(err))
	}
	return gen, apperrors.NewLocalExpiryError()
}

func (m *Manager) readStored(ctx context.Context) (domain.Session, error) {
	var (
		s            domain.Session
		user         domain.User
		issuedMillis int64
	)
	if _, err := m.store.Get(ctx, domain.KeyToken, &s.Token); err != nil {
		return domain.Session{}, err
	}
	foundUser, err := m.store.Get(ctx, domain.KeyUser, &user)
	if err != nil {
		return domain.Session{}, err
	}
	if foundUser {
		s.User = &user
	}
	if _, err := m.store.Get(ctx, domain.KeyRole, &s.Role); err != nil {
		return domain.Session{}, err
	}
	foundIssued, err := m.store.Get(ctx, domain.KeyLoginTimestamp, &issuedMillis)
	if err != nil {
		return domain.Session{}, err
	}
	if foundIssued && issuedMillis > 0 {
		s.IssuedAt = time.UnixMilli(issuedMillis)
	}
	return s, nil
}

func (m *Manager) replaceUser(ctx context.Context, gen uint64, user *domain.User) error {
	if user == nil {
		return nil
	}
	u := *user

	m.mu.Lock()
	if m.generation != gen || m.session.Token == "" {
		m.mu.Unlock()
		return nil
	}
	m.session.User = &u
	m.mu.Unlock()

	if err := m.writeIfCurrent(gen, func() error {
		return m.store.Set(ctx, domain.KeyUser, &u)
	}); err != nil {
		return fmt.Errorf("persist profile: %w", err)
	}
	return nil
}

func (m *Manager) destroyIfCurrent(ctx context.Context, gen uint64, reason events.DestroyReason) error {
	if !m.isGeneration(gen) {
		return nil
	}
	return m.destroy(ctx, reason)
}

// destroy clears memory and the four session keys.
func (m *Manager) destroy(ctx context.Context, reason events.DestroyReason) error {
	m.mu.Lock()
	hadSession := m.session.Token != ""
	m.state = StateUnauthenticated
	m.session = domain.Session{}
	m.generation++
	m.mu.Unlock()

	m.writeMu.Lock()
	var errs []error
	for _, key := range domain.SessionKeys {
		if err := m.store.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	m.writeMu.Unlock()

	if hadSession {
		m.logger.Info("session destroyed", zap.String("reason", string(reason)))
		m.events.Publish(ctx, events.Event{
			Type:      events.EventSessionDestroyed,
			Timestamp: m.clock.Now(),
			Payload:   events.SessionDestroyedPayload{Reason: reason},
		})
	}
	return errors.Join(errs...)
}

// now returns the current time at the millisecond precision the store keeps.
func (m *Manager) now() time.Time {
	return time.UnixMilli(m.clock.Now().UnixMilli())
}

func (m *Manager) userID() int64 {
	if u := m.User(); u != nil {
		return u.ID
	}
	return 0
}

func fallback(msg, def string) string {
	if msg != "" {
		return msg
	}
	return def
}
