// Package cart keeps the device's multi-line tour cart: quantities merged
// per tour, clamped to known stock, and persisted whole after every change.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking/internal/domain"
	"github.com/spec-kit/tour-booking/internal/events"
	"github.com/spec-kit/tour-booking/internal/gateway"
	"github.com/spec-kit/tour-booking/internal/store"
)

// Dependencies encapsulates collaborators of the cart manager.
// Gateway is only needed by Validate.
type Dependencies struct {
	Store   store.Store
	Gateway gateway.Gateway
	// Events must be the dispatcher the coupon resolver subscribes to,
	// otherwise clearing the cart leaves the applied coupon in place.
	Events events.Dispatcher
	Logger *zap.Logger
}

// Manager owns the ordered cart lines.
type Manager struct {
	store  store.Store
	gw     gateway.Gateway
	events events.Dispatcher
	logger *zap.Logger

	mu     sync.RWMutex
	lines  []domain.CartLine
	loaded bool
}

func NewManager(deps Dependencies) *Manager {
	if deps.Events == nil {
		deps.Events = events.Nop()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Manager{
		store:  deps.Store,
		gw:     deps.Gateway,
		events: deps.Events,
		logger: deps.Logger,
	}
}

// Load hydrates the cart from the store. Only the first successful call reads;
// a malformed stored value yields an empty cart.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(ctx)
}

func (m *Manager) loadLocked(ctx context.Context) error {
	if m.loaded {
		return nil
	}
	var lines []domain.CartLine
	_, err := m.store.Get(ctx, domain.KeyCart, &lines)
	switch {
	case errors.Is(err, store.ErrMalformed):
		m.logger.Warn("stored cart unreadable, starting empty", zap.Error(err))
		lines = nil
	case err != nil:
		return fmt.Errorf("load cart: %w", err)
	}
	m.lines = lines
	m.loaded = true
	m.logger.Debug("cart loaded", zap.Int("lines", len(lines)))
	return nil
}

// Add merges candidate into the matching line or appends it. Summed
// quantities are clamped to the candidate's stock ceiling, else the stored
// one. It returns the resulting line.
func (m *Manager) Add(ctx context.Context, candidate domain.CartLine) (domain.CartLine, error) {
	m.mu.Lock()
	if err := m.loadLocked(ctx); err != nil {
		m.mu.Unlock()
		return domain.CartLine{}, err
	}

	var result domain.CartLine
	idx := m.indexOf(candidate)
	if idx >= 0 {
		m.lines[idx] = merge(m.lines[idx], candidate)
		result = m.lines[idx].Clone()
	} else {
		line := candidate.Clone()
		line.QuantityAdult = clamp(line.QuantityAdult, line.StockAdult)
		line.QuantityChildren = clamp(line.QuantityChildren, line.StockChildren)
		line.QuantityBaby = clamp(line.QuantityBaby, line.StockBaby)
		m.lines = append(m.lines, line)
		result = line.Clone()
	}
	err := m.persistLocked(ctx)
	payload := m.changedLocked("add", candidate.TourID)
	m.mu.Unlock()

	m.publish(ctx, events.EventCartChanged, payload)
	return result, err
}

// Remove deletes every line of tourID and reports whether any existed.
func (m *Manager) Remove(ctx context.Context, tourID int64) (bool, error) {
	m.mu.Lock()
	if err := m.loadLocked(ctx); err != nil {
		m.mu.Unlock()
		return false, err
	}

	kept := m.lines[:0]
	for _, l := range m.lines {
		if l.TourID != tourID {
			kept = append(kept, l)
		}
	}
	removed := len(kept) != len(m.lines)
	m.lines = kept
	if !removed {
		m.mu.Unlock()
		return false, nil
	}
	err := m.persistLocked(ctx)
	payload := m.changedLocked("remove", tourID)
	m.mu.Unlock()

	m.publish(ctx, events.EventCartChanged, payload)
	return true, err
}

// Update overwrites only the quantities present in patch on every line of
// tourID, clamped to each line's stock. Lines that reach zero persons stay in
// the cart; removing them is up to the caller.
func (m *Manager) Update(ctx context.Context, tourID int64, patch domain.QuantityPatch) (bool, error) {
	m.mu.Lock()
	if err := m.loadLocked(ctx); err != nil {
		m.mu.Unlock()
		return false, err
	}

	found := false
	for i := range m.lines {
		l := &m.lines[i]
		if l.TourID != tourID {
			continue
		}
		found = true
		if patch.Adult != nil {
			l.QuantityAdult = clamp(*patch.Adult, l.StockAdult)
		}
		if patch.Children != nil {
			l.QuantityChildren = clamp(*patch.Children, l.StockChildren)
		}
		if patch.Baby != nil {
			l.QuantityBaby = clamp(*patch.Baby, l.StockBaby)
		}
	}
	if !found {
		m.mu.Unlock()
		return false, nil
	}
	err := m.persistLocked(ctx)
	payload := m.changedLocked("update", tourID)
	m.mu.Unlock()

	m.publish(ctx, events.EventCartChanged, payload)
	return true, err
}

// Clear empties the cart. Subscribers of cart.cleared drop any applied coupon.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.lines = nil
	m.loaded = true
	err := m.persistLocked(ctx)
	m.mu.Unlock()

	m.logger.Info("cart cleared")
	m.publish(ctx, events.EventCartCleared, events.CartChangedPayload{Operation: "clear"})
	return err
}

func (m *Manager) IsPresent(tourID int64) bool {
	_, ok := m.Get(tourID)
	return ok
}

// Get returns the first line of tourID.
func (m *Manager) Get(tourID int64) (domain.CartLine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.lines {
		if l.TourID == tourID {
			return l.Clone(), true
		}
	}
	return domain.CartLine{}, false
}

// Lines returns a copy of the cart in insertion order.
func (m *Manager) Lines() []domain.CartLine {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.CartLine, len(m.lines))
	for i, l := range m.lines {
		out[i] = l.Clone()
	}
	return out
}

// TourCount is the number of distinct lines.
func (m *Manager) TourCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.lines)
}

// PersonCount sums all quantities across lines and classes.
func (m *Manager) PersonCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return personCount(m.lines)
}

func (m *Manager) SubTotal() domain.Money {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total domain.Money
	for _, l := range m.lines {
		total += l.Total()
	}
	return total
}

func (m *Manager) indexOf(candidate domain.CartLine) int {
	for i, l := range m.lines {
		if l.SameLine(candidate) {
			return i
		}
	}
	return -1
}

// persistLocked writes the whole cart. An empty cart is stored as [] so a
// reader never mistakes it for a missing key.
func (m *Manager) persistLocked(ctx context.Context) error {
	snapshot := make([]domain.CartLine, len(m.lines))
	for i, l := range m.lines {
		snapshot[i] = l.Clone()
	}
	if err := m.store.Set(ctx, domain.KeyCart, snapshot); err != nil {
		m.logger.Warn("persist cart failed", zap.Error(err))
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func (m *Manager) changedLocked(op string, tourID int64) events.CartChangedPayload {
	return events.CartChangedPayload{
		Operation:   op,
		TourID:      tourID,
		TourCount:   len(m.lines),
		PersonCount: personCount(m.lines),
	}
}

func (m *Manager) publish(ctx context.Context, t events.EventType, payload events.CartChangedPayload) {
	m.events.Publish(ctx, events.Event{Type: t, Timestamp: time.Now(), Payload: payload})
}

// merge sums quantities pairwise. Each class is clamped to the candidate's
// ceiling when supplied, else the stored one; the stored ceiling is then
// refreshed. Prices and display fields stay as first added.
func merge(stored, candidate domain.CartLine) domain.CartLine {
	out := stored.Clone()

	out.StockAdult = latest(candidate.StockAdult, stored.StockAdult)
	out.StockChildren = latest(candidate.StockChildren, stored.StockChildren)
	out.StockBaby = latest(candidate.StockBaby, stored.StockBaby)

	out.QuantityAdult = clamp(stored.QuantityAdult+candidate.QuantityAdult, out.StockAdult)
	out.QuantityChildren = clamp(stored.QuantityChildren+candidate.QuantityChildren, out.StockChildren)
	out.QuantityBaby = clamp(stored.QuantityBaby+candidate.QuantityBaby, out.StockBaby)
	return out
}

func latest(candidate, stored *int) *int {
	if candidate != nil {
		v := *candidate
		return &v
	}
	if stored != nil {
		v := *stored
		return &v
	}
	return nil
}

// clamp bounds q to [0, ceiling]; a nil ceiling is unbounded.
func clamp(q int, ceiling *int) int {
	if ceiling != nil && q > *ceiling {
		q = *ceiling
	}
	if q < 0 {
		q = 0
	}
	return q
}

func personCount(lines []domain.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Persons()
	}
	return n
}
