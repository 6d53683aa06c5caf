package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tour-booking/internal/domain"
)

// TourRepository reads the tour catalog.
type TourRepository interface {
	Create(ctx context.Context, tour *domain.Tour) error
	// GetByIDs returns the tours that exist, keyed by id.
	GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.Tour, error)
}

type tourRepository struct {
	pool *pgxpool.Pool
}

func NewTourRepository(pool *pgxpool.Pool) TourRepository {
	return &tourRepository{pool: pool}
}

func (r *tourRepository) Create(ctx context.Context, t *domain.Tour) error {
	const query = `
        INSERT INTO tours (name, slug, avatar, city_name, departure_date,
            price_adult, price_children, price_baby, stock_adult, stock_children, stock_baby)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		t.Name, t.Slug, t.Avatar, t.CityName, t.DepartureDate,
		int64(t.PriceAdult), int64(t.PriceChildren), int64(t.PriceBaby),
		t.StockAdult, t.StockChildren, t.StockBaby,
	).Scan(&t.ID)
	return mapError(err)
}

func (r *tourRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.Tour, error) {
	const query = `
        SELECT id, name, slug, avatar, city_name, departure_date,
            price_adult, price_children, price_baby, stock_adult, stock_children, stock_baby
        FROM tours WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make(map[int64]domain.Tour, len(ids))
	for rows.Next() {
		var (
			t                       domain.Tour
			adult, children, infant int64
		)
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Slug, &t.Avatar, &t.CityName, &t.DepartureDate,
			&adult, &children, &infant,
			&t.StockAdult, &t.StockChildren, &t.StockBaby,
		); err != nil {
			return nil, err
		}
		t.PriceAdult, t.PriceChildren, t.PriceBaby = domain.Money(adult), domain.Money(children), domain.Money(infant)
		out[t.ID] = t
	}
	return out, rows.Err()
}
