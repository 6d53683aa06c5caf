package coupon

import (
	"math"

	"github.com/spec-kit/tour-booking/internal/domain"
)

// CalculateDiscount computes the discount a coupon grants on total. Percent
// coupons honor MaxDiscount when set; fixed coupons never exceed the total.
func CalculateDiscount(total domain.Money, c domain.Coupon) domain.Money {
	if total <= 0 || c.DiscountValue <= 0 {
		return 0
	}

	var discount float64
	switch c.DiscountType {
	case domain.DiscountPercent:
		discount = float64(total) * c.DiscountValue / 100
		if c.MaxDiscount > 0 && discount > float64(c.MaxDiscount) {
			discount = float64(c.MaxDiscount)
		}
	case domain.DiscountFixed:
		discount = c.DiscountValue
	default:
		return 0
	}

	if discount > float64(total) {
		discount = float64(total)
	}
	return domain.Money(math.Round(discount))
}
