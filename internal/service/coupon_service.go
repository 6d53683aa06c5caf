package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking/internal/clock"
	"github.com/spec-kit/tour-booking/internal/coupon"
	"github.com/spec-kit/tour-booking/internal/domain"
	"github.com/spec-kit/tour-booking/internal/repository"
	apperrors "github.com/spec-kit/tour-booking/pkg/util"
)

// CouponVerdict is the outcome of validating a code against an order total.
type CouponVerdict struct {
	Valid          bool
	Message        string
	Coupon         *domain.Coupon
	DiscountAmount domain.Money
	FinalTotal     domain.Money
}

// CouponService validates and manages coupons.
type CouponService struct {
	coupons repository.CouponRepository
	clock   clock.Clock
	logger  *zap.Logger
}

func NewCouponService(coupons repository.CouponRepository, clk clock.Clock, logger *zap.Logger) *CouponService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CouponService{coupons: coupons, clock: clk, logger: logger}
}

// Validate checks eligibility of code for total. Ineligible codes are a
// negative verdict, not an error.
func (s *CouponService) Validate(ctx context.Context, code string, total domain.Money) (CouponVerdict, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return CouponVerdict{}, apperrors.NewBadRequest("coupon code is required", map[string]any{"code": "required"})
	}
	if total < 0 {
		return CouponVerdict{}, apperrors.NewBadRequest("order total must not be negative", map[string]any{"orderTotal": "negative"})
	}

	rule, err := s.coupons.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return rejected("coupon not found", total), nil
	}
	if err != nil {
		return CouponVerdict{}, apperrors.NewInternalError(err)
	}

	now := s.clock.Now()
	switch {
	case !rule.Active:
		return rejected("coupon is no longer active", total), nil
	case now.Before(rule.StartDate):
		return rejected("coupon is not yet valid", total), nil
	case !now.Before(rule.EndDate):
		return rejected("coupon has expired", total), nil
	case rule.UsageLimit != nil && rule.UsedCount >= *rule.UsageLimit:
		return rejected("coupon usage limit reached", total), nil
	case total < rule.MinOrderValue:
		return rejected(fmt.Sprintf("order total must be at least %s", rule.MinOrderValue), total), nil
	}

	discount := coupon.CalculateDiscount(total, rule.Coupon)
	c := rule.Coupon
	s.logger.Debug("coupon validated", zap.String("code", c.Code), zap.Int64("discount", int64(discount)))
	return CouponVerdict{
		Valid:          true,
		Message:        "coupon applied",
		Coupon:         &c,
		DiscountAmount: discount,
		FinalTotal:     total - discount,
	}, nil
}

// Create stores a new coupon rule. StartDate defaults to now.
func (s *CouponService) Create(ctx context.Context, rule *domain.CouponRule) error {
	details := map[string]any{}
	rule.Code = strings.ToUpper(strings.TrimSpace(rule.Code))
	if rule.Code == "" {
		details["code"] = "required"
	}
	switch rule.DiscountType {
	case domain.DiscountPercent:
		if rule.DiscountValue <= 0 || rule.DiscountValue > 100 {
			details["discountValue"] = "percent must be in (0, 100]"
		}
	case domain.DiscountFixed:
		if rule.DiscountValue <= 0 {
			details["discountValue"] = "must be positive"
		}
	default:
		details["discountType"] = "must be percent or fixed"
	}
	if rule.StartDate.IsZero() {
		rule.StartDate = s.clock.Now()
	}
	if !rule.EndDate.After(rule.StartDate) {
		details["endDate"] = "must be after start date"
	}
	if len(details) > 0 {
		return apperrors.NewBadRequest("invalid coupon", details)
	}

	if err := s.coupons.Create(ctx, rule); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			de := apperrors.NewDomainError("CONFLICT", "coupon code already exists", http.StatusConflict, nil)
			de.Err = err
			return de
		}
		return apperrors.NewInternalError(err)
	}
	s.logger.Info("coupon created", zap.String("code", rule.Code))
	return nil
}

func rejected(message string, total domain.Money) CouponVerdict {
	return CouponVerdict{Valid: false, Message: message, FinalTotal: total}
}
