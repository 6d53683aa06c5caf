package domain

// Tour is the catalog entry a cart line refers to.
type Tour struct {
	ID            int64
	Name          string
	Slug          string
	Avatar        string
	CityName      string
	DepartureDate string

	PriceAdult    Money
	PriceChildren Money
	PriceBaby     Money

	StockAdult    int
	StockChildren int
	StockBaby     int
}

// Refresh returns line with this tour's current prices, stock and display
// fields. Quantities are left as requested.
func (t Tour) Refresh(line CartLine) CartLine {
	out := line.Clone()
	out.PriceAdult, out.PriceChildren, out.PriceBaby = t.PriceAdult, t.PriceChildren, t.PriceBaby
	adult, children, baby := t.StockAdult, t.StockChildren, t.StockBaby
	out.StockAdult, out.StockChildren, out.StockBaby = &adult, &children, &baby
	out.Name = t.Name
	out.Slug = t.Slug
	out.Avatar = t.Avatar
	out.CityName = t.CityName
	out.DepartureDate = t.DepartureDate
	return out
}
