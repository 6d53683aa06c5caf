package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking/internal/domain"
	"github.com/spec-kit/tour-booking/internal/repository"
)

// DemoAdminEmail and DemoAdminPassword sign in to the seeded admin account.
const (
	DemoAdminEmail    = "admin@tourbooking.local"
	DemoAdminPassword = "admin123"
)

// DemoTours is the catalog written by SeedDemo.
func DemoTours() []domain.Tour {
	return []domain.Tour{
		{ID: 1, Name: "Ha Long Bay 2 days 1 night", Slug: "ha-long-bay-2d1n", CityName: "Quang Ninh", DepartureDate: "2025-12-20",
			PriceAdult: 2_890_000, PriceChildren: 2_190_000, PriceBaby: 500_000, StockAdult: 20, StockChildren: 10, StockBaby: 4},
		{ID: 2, Name: "Hoi An ancient town walking tour", Slug: "hoi-an-walking", CityName: "Quang Nam", DepartureDate: "2025-12-22",
			PriceAdult: 650_000, PriceChildren: 450_000, StockAdult: 12, StockChildren: 6},
		{ID: 3, Name: "Sa Pa trekking 3 days", Slug: "sa-pa-trekking-3d", CityName: "Lao Cai", DepartureDate: "2026-01-05",
			PriceAdult: 4_200_000, PriceChildren: 3_100_000, StockAdult: 3, StockChildren: 1},
	}
}

// SeedDemo writes an admin account, the demo catalog and two coupons.
// Records that already exist are left alone.
func SeedDemo(ctx context.Context, authSvc *AuthService, tours repository.TourRepository, coupons *CouponService, logger *zap.Logger) error {
	_, err := authSvc.CreateAccount(ctx, domain.Registration{
		Email:    DemoAdminEmail,
		Password: DemoAdminPassword,
		FullName: "Demo Admin",
	}, domain.RoleAdmin)
	if err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return err
	}

	for _, t := range DemoTours() {
		if err := tours.Create(ctx, &t); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
	}

	now := time.Now()
	rules := []domain.CouponRule{
		{Coupon: domain.Coupon{Code: "SUMMER10", Description: "10% off", DiscountType: domain.DiscountPercent, DiscountValue: 10, MaxDiscount: 1_000_000},
			EndDate: now.AddDate(1, 0, 0), Active: true},
		{Coupon: domain.Coupon{Code: "WELCOME200K", Description: "200,000 off orders over 1,000,000", DiscountType: domain.DiscountFixed, DiscountValue: 200_000},
			MinOrderValue: 1_000_000, EndDate: now.AddDate(1, 0, 0), Active: true},
	}
	for i := range rules {
		if err := coupons.Create(ctx, &rules[i]); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
	}

	logger.Info("demo data seeded", zap.Int("tours", len(DemoTours())), zap.Int("coupons", len(rules)))
	return nil
}
