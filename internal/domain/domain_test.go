package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyUnmarshalRounds(t *testing.T) {
	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":1500000,"b":99.5,"c":null}`), &v))
	assert.Equal(t, Money(1_500_000), v.A)
	assert.Equal(t, Money(100), v.B)
	assert.Equal(t, Money(0), v.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"12"}`), &v))
}

func TestSameLine(t *testing.T) {
	one, two := int64(1), int64(2)
	base := CartLine{TourID: 7}

	assert.True(t, base.SameLine(CartLine{TourID: 7}))
	assert.False(t, base.SameLine(CartLine{TourID: 8}))
	assert.False(t, base.SameLine(CartLine{TourID: 7, LocationFrom: &one}))
	assert.True(t, CartLine{TourID: 7, LocationFrom: &one}.SameLine(CartLine{TourID: 7, LocationFrom: &one}))
	assert.False(t, CartLine{TourID: 7, LocationFrom: &one}.SameLine(CartLine{TourID: 7, LocationFrom: &two}))
}

func TestLineTotals(t *testing.T) {
	l := CartLine{
		QuantityAdult: 2, QuantityChildren: 1, QuantityBaby: 1,
		PriceAdult: 1_000_000, PriceChildren: 600_000, PriceBaby: 0,
	}
	assert.Equal(t, 4, l.Persons())
	assert.Equal(t, Money(2_600_000), l.Total())
}

func TestCloneSharesNoPointers(t *testing.T) {
	stock, loc := 3, int64(9)
	l := CartLine{TourID: 1, StockAdult: &stock, LocationFrom: &loc}
	c := l.Clone()
	*c.StockAdult = 10
	*c.LocationFrom = 10

	assert.Equal(t, 3, *l.StockAdult)
	assert.Equal(t, int64(9), *l.LocationFrom)
	assert.Nil(t, c.StockChildren)
}

func TestTourRefreshKeepsQuantities(t *testing.T) {
	tour := Tour{ID: 1, Name: "Mekong delta", PriceAdult: 900_000, StockAdult: 4, StockChildren: 0}
	line := tour.Refresh(CartLine{TourID: 1, QuantityAdult: 6, PriceAdult: 1, Name: "stale"})

	assert.Equal(t, 6, line.QuantityAdult)
	assert.Equal(t, Money(900_000), line.PriceAdult)
	assert.Equal(t, "Mekong delta", line.Name)
	require.NotNil(t, line.StockChildren)
	assert.Equal(t, 0, *line.StockChildren)
}

func TestSessionValidity(t *testing.T) {
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := Session{Token: "t", IssuedAt: issued, ExpiresAt: ExpiryFor(issued, DefaultSessionTTL)}

	assert.True(t, s.ValidAt(issued.Add(6*24*time.Hour)))
	assert.False(t, s.ValidAt(issued.Add(DefaultSessionTTL)))
	assert.True(t, Session{Token: "t"}.ValidAt(issued), "unknown issue time never expires locally")
	assert.False(t, Session{}.ValidAt(issued))
	assert.True(t, ExpiryFor(time.Time{}, DefaultSessionTTL).IsZero())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleCustomer.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("superuser").Valid())
}
