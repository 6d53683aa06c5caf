// Package testutil provides fakes shared by package tests.
package testutil

import (
	"context"
	"sync"

	"github.com/spec-kit/tour-booking/internal/domain"
	"github.com/spec-kit/tour-booking/internal/gateway"
)

// FakeGateway is a scriptable gateway.Gateway. Nil funcs succeed with empty responses.
type FakeGateway struct {
	LoginFunc          func(ctx context.Context, email, password string) (*gateway.AuthResponse, error)
	RegisterFunc       func(ctx context.Context, reg domain.Registration) (*gateway.AuthResponse, error)
	LogoutFunc         func(ctx context.Context) error
	MeFunc             func(ctx context.Context) (*domain.User, error)
	UpdateProfileFunc  func(ctx context.Context, update domain.ProfileUpdate) (*gateway.ProfileResponse, error)
	ChangePasswordFunc func(ctx context.Context, current, next string) (*gateway.StatusResponse, error)
	ValidateCouponFunc func(ctx context.Context, code string, total domain.Money) (*gateway.CouponValidation, error)
	CartDetailFunc     func(ctx context.Context, lines []domain.CartLine) (*gateway.CartDetail, error)

	mu    sync.Mutex
	calls map[string]int
}

var _ gateway.Gateway = (*FakeGateway)(nil)

func (f *FakeGateway) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

// Calls returns how many times the named method was invoked.
func (f *FakeGateway) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *FakeGateway) Login(ctx context.Context, email, password string) (*gateway.AuthResponse, error) {
	f.record("Login")
	if f.LoginFunc == nil {
		return &gateway.AuthResponse{}, nil
	}
	return f.LoginFunc(ctx, email, password)
}

func (f *FakeGateway) Register(ctx context.Context, reg domain.Registration) (*gateway.AuthResponse, error) {
	f.record("Register")
	if f.RegisterFunc == nil {
		return &gateway.AuthResponse{}, nil
	}
	return f.RegisterFunc(ctx, reg)
}

func (f *FakeGateway) Logout(ctx context.Context) error {
	f.record("Logout")
	if f.LogoutFunc == nil {
		return nil
	}
	return f.LogoutFunc(ctx)
}

func (f *FakeGateway) Me(ctx context.Context) (*domain.User, error) {
	f.record("Me")
	if f.MeFunc == nil {
		return nil, nil
	}
	return f.MeFunc(ctx)
}

func (f *FakeGateway) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*gateway.ProfileResponse, error) {
	f.record("UpdateProfile")
	if f.UpdateProfileFunc == nil {
		return &gateway.ProfileResponse{Success: true}, nil
	}
	return f.UpdateProfileFunc(ctx, update)
}

func (f *FakeGateway) ChangePassword(ctx context.Context, current, next string) (*gateway.StatusResponse, error) {
	f.record("ChangePassword")
	if f.ChangePasswordFunc == nil {
		return &gateway.StatusResponse{Success: true}, nil
	}
	return f.ChangePasswordFunc(ctx, current, next)
}

func (f *FakeGateway) ValidateCoupon(ctx context.Context, code string, total domain.Money) (*gateway.CouponValidation, error) {
	f.record("ValidateCoupon")
	if f.ValidateCouponFunc == nil {
		return &gateway.CouponValidation{}, nil
	}
	return f.ValidateCouponFunc(ctx, code, total)
}

func (f *FakeGateway) CartDetail(ctx context.Context, lines []domain.CartLine) (*gateway.CartDetail, error) {
	f.record("CartDetail")
	if f.CartDetailFunc == nil {
		return &gateway.CartDetail{Cart: lines}, nil
	}
	return f.CartDetailFunc(ctx, lines)
}

// LoginAs returns a LoginFunc that signs in the given user with token.
func LoginAs(token string, user domain.User) func(context.Context, string, string) (*gateway.AuthResponse, error) {
	return func(context.Context, string, string) (*gateway.AuthResponse, error) {
		u := user
		return &gateway.AuthResponse{Success: true, Token: token, User: &u}, nil
	}
}
