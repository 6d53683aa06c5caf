package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/tour-booking/internal/domain"
)

// PassengerClass names a priced quantity class on a cart line.
type PassengerClass string

const (
	ClassAdult    PassengerClass = "adult"
	ClassChildren PassengerClass = "children"
	ClassBaby     PassengerClass = "baby"
)

// Issue is a line whose requested quantity exceeds the server's stock.
type Issue struct {
	TourID    int64
	Name      string
	Class     PassengerClass
	Requested int
	Available int
}

func (i Issue) String() string {
	name := i.Name
	if name == "" {
		name = fmt.Sprintf("tour %d", i.TourID)
	}
	return fmt.Sprintf("%s: not enough %s places (requested %d, available %d)", name, i.Class, i.Requested, i.Available)
}

// Validation is the outcome of checking the cart against the server.
type Validation struct {
	Issues   []Issue
	Cart     []domain.CartLine
	SubTotal domain.Money
}

func (v Validation) Valid() bool {
	return len(v.Issues) == 0
}

// ValidationIssues lists quantities above their stock ceiling. Lines with an
// unknown ceiling are not checked.
func ValidationIssues(lines []domain.CartLine) []Issue {
	var issues []Issue
	for _, l := range lines {
		check := func(class PassengerClass, requested int, stock *int) {
			if stock != nil && requested > *stock {
				issues = append(issues, Issue{
					TourID:    l.TourID,
					Name:      l.Name,
					Class:     class,
					Requested: requested,
					Available: *stock,
				})
			}
		}
		check(ClassAdult, l.QuantityAdult, l.StockAdult)
		check(ClassChildren, l.QuantityChildren, l.StockChildren)
		check(ClassBaby, l.QuantityBaby, l.StockBaby)
	}
	return issues
}

// Validate asks the server for current prices and stock of the cart and
// reports any shortfall. The local cart is not modified.
func (m *Manager) Validate(ctx context.Context) (Validation, error) {
	if m.gw == nil {
		return Validation{}, errors.New("cart validation needs a gateway")
	}
	detail, err := m.gw.CartDetail(ctx, m.Lines())
	if err != nil {
		return Validation{}, err
	}
	return Validation{
		Issues:   ValidationIssues(detail.Cart),
		Cart:     detail.Cart,
		SubTotal: detail.SubTotal,
	}, nil
}
