package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/tour-booking/internal/domain"
)

// MemoryUsers is an in-process UserRepository for local runs and tests.
type MemoryUsers struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]domain.Account
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{byID: make(map[int64]domain.Account)}
}

func (r *MemoryUsers) Create(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if strings.EqualFold(existing.Email, a.Email) {
			return ErrDuplicate
		}
	}
	r.nextID++
	now := time.Now()
	a.ID, a.CreatedAt, a.UpdatedAt = r.nextID, now, now
	r.byID[a.ID] = *a
	return nil
}

func (r *MemoryUsers) Update(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[a.ID]; !ok {
		return ErrNotFound
	}
	a.UpdatedAt = time.Now()
	r.byID[a.ID] = *a
	return nil
}

func (r *MemoryUsers) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *MemoryUsers) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.byID {
		if strings.EqualFold(a.Email, email) {
			found := a
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

// MemoryTours is an in-process TourRepository.
type MemoryTours struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]domain.Tour
}

func NewMemoryTours() *MemoryTours {
	return &MemoryTours{byID: make(map[int64]domain.Tour)}
}

// Create stores t, assigning an id unless one is set.
func (r *MemoryTours) Create(_ context.Context, t *domain.Tour) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == 0 {
		r.nextID++
		t.ID = r.nextID
	} else if t.ID > r.nextID {
		r.nextID = t.ID
	}
	if _, exists := r.byID[t.ID]; exists {
		return ErrDuplicate
	}
	r.byID[t.ID] = *t
	return nil
}

func (r *MemoryTours) GetByIDs(_ context.Context, ids []int64) (map[int64]domain.Tour, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int64]domain.Tour, len(ids))
	for _, id := range ids {
		if t, ok := r.byID[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

// MemoryCoupons is an in-process CouponRepository.
type MemoryCoupons struct {
	mu     sync.RWMutex
	nextID int64
	byCode map[string]domain.CouponRule
}

func NewMemoryCoupons() *MemoryCoupons {
	return &MemoryCoupons{byCode: make(map[string]domain.CouponRule)}
}

func (r *MemoryCoupons) Create(_ context.Context, c *domain.CouponRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Code = strings.ToUpper(c.Code)
	if _, exists := r.byCode[c.Code]; exists {
		return ErrDuplicate
	}
	r.nextID++
	c.ID = r.nextID
	r.byCode[c.Code] = *c
	return nil
}

func (r *MemoryCoupons) GetByCode(_ context.Context, code string) (*domain.CouponRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byCode[strings.ToUpper(code)]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

var (
	_ UserRepository   = (*MemoryUsers)(nil)
	_ TourRepository   = (*MemoryTours)(nil)
	_ CouponRepository = (*MemoryCoupons)(nil)
)
