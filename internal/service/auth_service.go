package service

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking/internal/auth"
	"github.com/spec-kit/tour-booking/internal/config"
	"github.com/spec-kit/tour-booking/internal/domain"
	"github.com/spec-kit/tour-booking/internal/repository"
	apperrors "github.com/spec-kit/tour-booking/pkg/util"
)

const msgInvalidCredentials = "invalid email or password"

// AuthService coordinates registration, login and profile flows.
type AuthService struct {
	users      repository.UserRepository
	revoked    auth.RevocationStore
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	Revocations auth.RevocationStore
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	if deps.Revocations == nil {
		deps.Revocations = auth.NewMemoryRevocations()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		revoked:    deps.Revocations,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		logger:     deps.Logger,
	}
}

// Register creates a customer account and issues its first token.
func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (*domain.Account, string, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.FullName = strings.TrimSpace(reg.FullName)

	details := map[string]any{}
	if _, err := mail.ParseAddress(reg.Email); err != nil {
		details["email"] = "a valid email is required"
	}
	if len(reg.Password) < auth.MinPasswordLength {
		details["password"] = "password must be at least 6 characters"
	}
	if reg.FullName == "" {
		details["fullName"] = "full name is required"
	}
	if len(details) > 0 {
		return nil, "", apperrors.NewBadRequest("invalid registration data", details)
	}

	account, err := s.CreateAccount(ctx, reg, domain.RoleCustomer)
	if err != nil {
		return nil, "", err
	}
	token, _, err := s.tokenMgr.GenerateToken(account.User)
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	s.logger.Info("account registered", zap.Int64("user_id", account.ID))
	return account, token, nil
}

// CreateAccount stores a new account with the given role.
func (s *AuthService) CreateAccount(ctx context.Context, reg domain.Registration, role domain.Role) (*domain.Account, error) {
	hash, err := auth.HashPassword(reg.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	account := &domain.Account{
		User: domain.User{
			Email:    reg.Email,
			FullName: reg.FullName,
			Phone:    reg.Phone,
			Role:     role,
			Status:   domain.UserStatusActive,
		},
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			de := apperrors.NewDomainError("VALIDATION_FAILED", "email already registered", http.StatusBadRequest,
				map[string]any{"email": "already registered"})
			de.Err = err
			return nil, de
		}
		return nil, apperrors.NewInternalError(err)
	}
	return account, nil
}

// Login authenticates with email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Account, string, error) {
	account, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", apperrors.NewUnauthorized(msgInvalidCredentials)
		}
		return nil, "", apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, "", apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	if account.Status == domain.UserStatusDisabled {
		return nil, "", apperrors.NewUnauthorized("account disabled")
	}
	token, _, err := s.tokenMgr.GenerateToken(account.User)
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	return account, token, nil
}

// Logout revokes the presented token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	until := time.Now()
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := s.revoked.Revoke(ctx, claims.ID, until); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// UpdateProfile saves the editable fields of account.
func (s *AuthService) UpdateProfile(ctx context.Context, account *domain.Account, update domain.ProfileUpdate) (*domain.Account, error) {
	name := strings.TrimSpace(update.FullName)
	if name == "" {
		return nil, apperrors.NewBadRequest("full name is required", map[string]any{"fullName": "required"})
	}
	updated := *account
	updated.FullName = name
	updated.Phone = strings.TrimSpace(update.Phone)
	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &updated, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, account *domain.Account, currentPassword, newPassword string) error {
	if err := auth.ComparePassword(account.PasswordHash, currentPassword); err != nil {
		return apperrors.NewBadRequest("current password is incorrect", nil)
	}
	if len(newPassword) < auth.MinPasswordLength {
		return apperrors.NewBadRequest("password must be at least 6 characters", map[string]any{"newPassword": "too short"})
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	updated := *account
	updated.PasswordHash = hash
	if err := s.users.Update(ctx, &updated); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Revocations exposes the revocation store for middleware usage.
func (s *AuthService) Revocations() auth.RevocationStore {
	return s.revoked
}
