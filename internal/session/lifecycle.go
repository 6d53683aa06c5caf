package session

import (
	"context"

	"go.uber.org/zap"
)

// HandleAppStateChange must be fed every visibility change of the host app.
// Timers do not run while the app is suspended, so expiry is re-checked on
// each background-to-foreground transition. It reports whether the session
// had expired.
func (m *Manager) HandleAppStateChange(ctx context.Context, next AppStatus) (bool, error) {
	m.mu.Lock()
	prev := m.appStatus
	m.appStatus = next
	hasToken := m.session.Token != ""
	m.mu.Unlock()

	resumed := (prev == AppBackground || prev == AppInactive) && next == AppActive
	if !resumed || !hasToken {
		return false, nil
	}

	m.logger.Debug("app resumed, checking session")
	expired, err := m.CheckSessionExpiry(ctx)
	if expired {
		m.logger.Info("session expired while app was in background")
	}
	if err != nil {
		m.logger.Warn("session check on resume failed", zap.Error(err))
	}
	return expired, err
}
