package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tour-booking/internal/domain"
)

// CouponRepository stores coupon rules. Codes are matched case-insensitively.
type CouponRepository interface {
	Create(ctx context.Context, rule *domain.CouponRule) error
	GetByCode(ctx context.Context, code string) (*domain.CouponRule, error)
}

type couponRepository struct {
	pool *pgxpool.Pool
}

func NewCouponRepository(pool *pgxpool.Pool) CouponRepository {
	return &couponRepository{pool: pool}
}

func (r *couponRepository) Create(ctx context.Context, c *domain.CouponRule) error {
	const query = `
        INSERT INTO coupons (code, description, discount_type, discount_value, min_order_value,
            max_discount, usage_limit, used_count, start_date, end_date, active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id`

	c.Code = strings.ToUpper(c.Code)
	err := r.pool.QueryRow(ctx, query,
		c.Code, c.Description, string(c.DiscountType), c.DiscountValue, int64(c.MinOrderValue),
		int64(c.MaxDiscount), c.UsageLimit, c.UsedCount, c.StartDate, c.EndDate, c.Active,
	).Scan(&c.ID)
	return mapError(err)
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*domain.CouponRule, error) {
	const query = `
        SELECT id, code, description, discount_type, discount_value, min_order_value,
            max_discount, usage_limit, used_count, start_date, end_date, active
        FROM coupons WHERE code=$1`

	var (
		c                   domain.CouponRule
		discountType        string
		minOrder, maxAmount int64
	)
	if err := r.pool.QueryRow(ctx, query, strings.ToUpper(code)).Scan(
		&c.ID, &c.Code, &c.Description, &discountType, &c.DiscountValue, &minOrder,
		&maxAmount, &c.UsageLimit, &c.UsedCount, &c.StartDate, &c.EndDate, &c.Active,
	); err != nil {
		return nil, mapError(err)
	}
	c.DiscountType = domain.DiscountType(discountType)
	c.MinOrderValue = domain.Money(minOrder)
	c.MaxDiscount = domain.Money(maxAmount)
	return &c, nil
}
