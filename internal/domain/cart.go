package domain

// CartLine is one tour's pending quantities awaiting checkout.
// Display fields are captured when the line is first added.
type CartLine struct {
	TourID       int64  `json:"tourId"`
	LocationFrom *int64 `json:"locationFrom,omitempty"`

	QuantityAdult    int `json:"quantityAdult"`
	QuantityChildren int `json:"quantityChildren"`
	QuantityBaby     int `json:"quantityBaby"`

	PriceAdult    Money `json:"priceNewAdult,omitempty"`
	PriceChildren Money `json:"priceNewChildren,omitempty"`
	PriceBaby     Money `json:"priceNewBaby,omitempty"`

	// nil means the ceiling is unknown.
	StockAdult    *int `json:"stockAdult,omitempty"`
	StockChildren *int `json:"stockChildren,omitempty"`
	StockBaby     *int `json:"stockBaby,omitempty"`

	Name          string `json:"name,omitempty"`
	Slug          string `json:"slug,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	DepartureDate string `json:"departureDate,omitempty"`
	CityName      string `json:"cityName,omitempty"`
}

// SameLine reports whether l and other address the same cart line.
// Both the tour and the departure location must agree; an unset location only matches an unset one.
func (l CartLine) SameLine(other CartLine) bool {
	if l.TourID != other.TourID {
		return false
	}
	if l.LocationFrom == nil || other.LocationFrom == nil {
		return l.LocationFrom == nil && other.LocationFrom == nil
	}
	return *l.LocationFrom == *other.LocationFrom
}

// Persons is the number of travellers on the line.
func (l CartLine) Persons() int {
	return l.QuantityAdult + l.QuantityChildren + l.QuantityBaby
}

// Total is the line price across all passenger classes.
func (l CartLine) Total() Money {
	return Money(l.QuantityAdult)*l.PriceAdult +
		Money(l.QuantityChildren)*l.PriceChildren +
		Money(l.QuantityBaby)*l.PriceBaby
}

// QuantityPatch is a partial quantity update; nil fields are left untouched.
type QuantityPatch struct {
	Adult    *int
	Children *int
	Baby     *int
}

// Clone returns a copy that shares no pointers with l.
func (l CartLine) Clone() CartLine {
	out := l
	out.LocationFrom = cloneInt64(l.LocationFrom)
	out.StockAdult = cloneInt(l.StockAdult)
	out.StockChildren = cloneInt(l.StockChildren)
	out.StockBaby = cloneInt(l.StockBaby)
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
