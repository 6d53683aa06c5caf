package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tour-booking/internal/api/dto"
	"github.com/spec-kit/tour-booking/internal/domain"
	"github.com/spec-kit/tour-booking/internal/service"
	apperrors "github.com/spec-kit/tour-booking/pkg/util"
)

// ShopHandler serves coupon and cart endpoints.
type ShopHandler struct {
	coupons *service.CouponService
	carts   *service.CartService
}

func NewShopHandler(coupons *service.CouponService, carts *service.CartService) *ShopHandler {
	return &ShopHandler{coupons: coupons, carts: carts}
}

// ValidateCoupon handles POST /coupon/validate.
func (h *ShopHandler) ValidateCoupon(c *fiber.Ctx) error {
	var req dto.ValidateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}

	verdict, err := h.coupons.Validate(c.UserContext(), req.Code, req.OrderTotal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": dto.CouponValidationData{
			Valid:          verdict.Valid,
			Message:        verdict.Message,
			Coupon:         verdict.Coupon,
			DiscountAmount: verdict.DiscountAmount,
			FinalTotal:     verdict.FinalTotal,
		},
	})
}

// CreateCoupon handles POST /api/admin/coupons.
func (h *ShopHandler) CreateCoupon(c *fiber.Ctx) error {
	var req dto.CreateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}

	rule := &domain.CouponRule{
		Coupon: domain.Coupon{
			Code:          req.Code,
			Description:   req.Description,
			DiscountType:  req.DiscountType,
			DiscountValue: req.DiscountValue,
			MaxDiscount:   req.MaxDiscount,
		},
		MinOrderValue: req.MinOrderValue,
		UsageLimit:    req.UsageLimit,
		EndDate:       req.EndDate,
		Active:        true,
	}
	if req.StartDate != nil {
		rule.StartDate = *req.StartDate
	}
	if err := h.coupons.Create(c.UserContext(), rule); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":        rule.ID,
			"code":      rule.Code,
			"startDate": rule.StartDate.Format(time.RFC3339),
			"endDate":   rule.EndDate.Format(time.RFC3339),
		},
	})
}

// CartDetail handles POST /cart/detail.
func (h *ShopHandler) CartDetail(c *fiber.Ctx) error {
	var req dto.CartDetailRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}

	lines, subTotal, err := h.carts.Detail(c.UserContext(), req.Items)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.CartDetailData{Cart: lines, SubTotal: subTotal},
	})
}
