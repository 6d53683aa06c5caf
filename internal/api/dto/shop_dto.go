package dto

import (
	"time"

	"github.com/spec-kit/tour-booking/internal/domain"
)

// ValidateCouponRequest payload for coupon validation.
type ValidateCouponRequest struct {
	Code       string       `json:"code"`
	OrderTotal domain.Money `json:"orderTotal"`
}

// CouponValidationData is returned under "data" by coupon validation.
type CouponValidationData struct {
	Valid          bool           `json:"valid"`
	Message        string         `json:"message"`
	Coupon         *domain.Coupon `json:"coupon,omitempty"`
	DiscountAmount domain.Money   `json:"discountAmount"`
	FinalTotal     domain.Money   `json:"finalTotal"`
}

// CreateCouponRequest payload for the admin coupon endpoint.
type CreateCouponRequest struct {
	Code          string              `json:"code"`
	Description   string              `json:"description"`
	DiscountType  domain.DiscountType `json:"discountType"`
	DiscountValue float64             `json:"discountValue"`
	MinOrderValue domain.Money        `json:"minOrderValue"`
	MaxDiscount   domain.Money        `json:"maxDiscount"`
	UsageLimit    *int                `json:"usageLimit"`
	StartDate     *time.Time          `json:"startDate"`
	EndDate       time.Time           `json:"endDate"`
}

// CartDetailRequest payload for cart detail.
type CartDetailRequest struct {
	Items []domain.CartLine `json:"items"`
}

// CartDetailData is returned under "data" by cart detail.
type CartDetailData struct {
	Cart     []domain.CartLine `json:"cart"`
	SubTotal domain.Money      `json:"subTotal"`
}
