package gateway

import "github.com/spec-kit/tour-booking/internal/domain"

// Endpoint paths of the tour-booking backend.
const (
	PathLogin          = "/api/auth/login"
	PathRegister       = "/api/auth/register"
	PathLogout         = "/api/auth/logout"
	PathMe             = "/api/auth/me"
	PathProfile        = "/api/client/user/profile"
	PathChangePassword = "/api/client/user/change-password"
	PathCouponValidate = "/coupon/validate"
	PathCartDetail     = "/cart/detail"
)

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    *domain.User `json:"user"`
	Message string       `json:"message,omitempty"`
}

type meResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
}

// ProfileResponse is returned by the profile update endpoint.
type ProfileResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *domain.User `json:"user,omitempty"`
}

// StatusResponse is a bare success/message acknowledgement.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CouponValidation is the backend verdict on a coupon code for an order total.
type CouponValidation struct {
	Valid          bool           `json:"valid"`
	Message        string         `json:"message,omitempty"`
	Coupon         *domain.Coupon `json:"coupon,omitempty"`
	DiscountAmount domain.Money   `json:"discountAmount,omitempty"`
	FinalTotal     domain.Money   `json:"finalTotal,omitempty"`
}

// CartDetail is the server's view of the cart: current prices and stock.
type CartDetail struct {
	Cart     []domain.CartLine `json:"cart"`
	SubTotal domain.Money      `json:"subTotal"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest payload for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// CouponRequest payload for coupon validation.
type CouponRequest struct {
	Code       string       `json:"code"`
	OrderTotal domain.Money `json:"orderTotal"`
}

// CartDetailRequest payload for a cart detail lookup.
type CartDetailRequest struct {
	Items []domain.CartLine `json:"items"`
}
