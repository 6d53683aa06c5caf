package service

import (
	"context"

	"github.com/spec-kit/tour-booking/internal/domain"
	"github.com/spec-kit/tour-booking/internal/repository"
	apperrors "github.com/spec-kit/tour-booking/pkg/util"
)

// CartService reprices a client cart against the catalog.
type CartService struct {
	tours repository.TourRepository
}

func NewCartService(tours repository.TourRepository) *CartService {
	return &CartService{tours: tours}
}

// Detail returns items with current prices, stock and display fields, and
// the resulting subtotal. Items for unknown tours are reported with zero
// stock so the client flags them.
func (s *CartService) Detail(ctx context.Context, items []domain.CartLine) ([]domain.CartLine, domain.Money, error) {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.TourID)
	}
	tours, err := s.tours.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, apperrors.NewInternalError(err)
	}

	out := make([]domain.CartLine, 0, len(items))
	var subTotal domain.Money
	for _, item := range items {
		tour, ok := tours[item.TourID]
		if !ok {
			tour = domain.Tour{ID: item.TourID, Name: item.Name}
		}
		line := tour.Refresh(item)
		subTotal += line.Total()
		out = append(out, line)
	}
	return out, subTotal, nil
}
