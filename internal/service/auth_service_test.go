package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking/internal/config"
	"github.com/spec-kit/tour-booking/internal/domain"
	"github.com/spec-kit/tour-booking/internal/repository"
	apperrors "github.com/spec-kit/tour-booking/pkg/util"
)

func newAuthService() (*AuthService, *repository.MemoryUsers) {
	users := repository.NewMemoryUsers()
	svc := NewAuthService(config.AuthConfig{JWTSecret: "s3cret", AccessTokenTTLMinutes: 30, BcryptCost: 4},
		AuthDependencies{UserRepo: users})
	return svc, users
}

func TestRegisterIssuesCustomerToken(t *testing.T) {
	svc, _ := newAuthService()

	account, token, err := svc.Register(context.Background(), domain.Registration{
		Email: " hoa@example.com ", Password: "secret1", FullName: "Hoa",
	})
	require.NoError(t, err)
	assert.Equal(t, "hoa@example.com", account.Email)
	assert.Equal(t, domain.RoleCustomer, account.Role)
	assert.NotEqual(t, "secret1", account.PasswordHash)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, claims.UserID)
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()
	_, _, err := svc.Register(ctx, domain.Registration{Email: "hoa@example.com", Password: "secret1", FullName: "Hoa"})
	require.NoError(t, err)

	for _, creds := range [][2]string{{"hoa@example.com", "wrong-one"}, {"nobody@example.com", "secret1"}} {
		_, _, err := svc.Login(ctx, creds[0], creds[1])
		var de *apperrors.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
		assert.Equal(t, "invalid email or password", de.Message)
	}
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	svc, users := newAuthService()
	ctx := context.Background()
	account, _, err := svc.Register(ctx, domain.Registration{Email: "hoa@example.com", Password: "secret1", FullName: "Hoa"})
	require.NoError(t, err)
	account.Status = domain.UserStatusDisabled
	require.NoError(t, users.Update(ctx, account))

	_, _, err = svc.Login(ctx, "hoa@example.com", "secret1")
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
	assert.Equal(t, "account disabled", de.Message)
}

func TestLogoutRevokesTokenID(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()
	_, token, err := svc.Register(ctx, domain.Registration{Email: "hoa@example.com", Password: "secret1", FullName: "Hoa"})
	require.NoError(t, err)
	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))
	revoked, err := svc.Revocations().IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestProfileAndPasswordChanges(t *testing.T) {
	svc, users := newAuthService()
	ctx := context.Background()
	account, _, err := svc.Register(ctx, domain.Registration{Email: "hoa@example.com", Password: "secret1", FullName: "Hoa"})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, account, domain.ProfileUpdate{FullName: "  "})
	require.Error(t, err)

	updated, err := svc.UpdateProfile(ctx, account, domain.ProfileUpdate{FullName: "Hoa Le", Phone: " 0901 "})
	require.NoError(t, err)
	assert.Equal(t, "0901", updated.Phone)

	require.Error(t, svc.ChangePassword(ctx, updated, "secret1", "short"))
	require.NoError(t, svc.ChangePassword(ctx, updated, "secret1", "secret2"))

	stored, err := users.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hoa Le", stored.FullName)
	_, _, err = svc.Login(ctx, "hoa@example.com", "secret2")
	assert.NoError(t, err)
}

func TestCartDetailRepricesLines(t *testing.T) {
	tours := repository.NewMemoryTours()
	for _, tour := range DemoTours() {
		require.NoError(t, tours.Create(context.Background(), &tour))
	}
	svc := NewCartService(tours)

	lines, subTotal, err := svc.Detail(context.Background(), []domain.CartLine{
		{TourID: 2, QuantityAdult: 2, QuantityChildren: 1, PriceAdult: 1},
		{TourID: 42, QuantityAdult: 1, Name: "Gone"},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, domain.Money(650_000), lines[0].PriceAdult)
	assert.Equal(t, 12, *lines[0].StockAdult)
	assert.Equal(t, 2, lines[0].QuantityAdult)
	assert.Equal(t, "Gone", lines[1].Name)
	assert.Equal(t, 0, *lines[1].StockAdult)
	assert.Equal(t, domain.Money(2*650_000+450_000), subTotal)
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	svc, _ := newAuthService()
	tours := repository.NewMemoryTours()
	coupons, _ := newCouponService(t)
	ctx := context.Background()

	require.NoError(t, SeedDemo(ctx, svc, tours, coupons, zap.NewNop()))
	require.NoError(t, SeedDemo(ctx, svc, tours, coupons, zap.NewNop()))

	account, _, err := svc.Login(ctx, DemoAdminEmail, DemoAdminPassword)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, account.Role)
}
