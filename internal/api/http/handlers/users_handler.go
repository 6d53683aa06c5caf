package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tour-booking/internal/api/dto"
	"github.com/spec-kit/tour-booking/internal/auth"
	"github.com/spec-kit/tour-booking/internal/domain"
	"github.com/spec-kit/tour-booking/internal/service"
	apperrors "github.com/spec-kit/tour-booking/pkg/util"
)

// UsersHandler exposes auth and profile endpoints.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /api/auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}

	account, token, err := h.auth.Register(c.UserContext(), domain.Registration{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}

	user := account.User
	return c.Status(http.StatusCreated).JSON(dto.AuthResponse{
		Success: true,
		Message: "registration successful",
		Token:   token,
		User:    &user,
	})
}

// Login handles POST /api/auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewBadRequest("email and password required", nil)
	}

	account, token, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	user := account.User
	return c.JSON(dto.AuthResponse{
		Success: true,
		Message: "login successful",
		Token:   token,
		User:    &user,
	})
}

// Logout handles POST /api/auth/logout.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.auth.Logout(c.UserContext(), principal.Claims); err != nil {
		return err
	}
	return c.JSON(dto.StatusResponse{Success: true, Message: "logged out"})
}

// Me handles GET /api/auth/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	user := principal.Account.User
	return c.JSON(dto.UserResponse{Success: true, User: &user})
}

// UpdateProfile handles PUT /api/client/user/profile.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}

	updated, err := h.auth.UpdateProfile(c.UserContext(), principal.Account, domain.ProfileUpdate{
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}
	user := updated.User
	return c.JSON(dto.UserResponse{Success: true, Message: "profile updated", User: &user})
}

// ChangePassword handles POST /api/client/user/change-password.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewBadRequest("currentPassword and newPassword required", nil)
	}

	if err := h.auth.ChangePassword(c.UserContext(), principal.Account, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(dto.StatusResponse{Success: true, Message: "password changed"})
}
