package domain

import "time"

// DiscountType selects how a coupon's value is interpreted.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// Coupon is a backend-validated discount definition.
type Coupon struct {
	Code          string       `json:"code"`
	Description   string       `json:"description,omitempty"`
	DiscountType  DiscountType `json:"discountType"`
	DiscountValue float64      `json:"discountValue"`
	MaxDiscount   Money        `json:"maxDiscount,omitempty"`
}

// AppliedCoupon is the single coupon currently discounting the cart.
type AppliedCoupon struct {
	Coupon         Coupon `json:"coupon"`
	DiscountAmount Money  `json:"discountAmount"`
}

// CouponRule is a coupon as the backend stores it, with its eligibility limits.
type CouponRule struct {
	Coupon
	ID            int64
	MinOrderValue Money
	// nil means unlimited.
	UsageLimit *int
	UsedCount  int
	StartDate  time.Time
	EndDate    time.Time
	Active     bool
}
