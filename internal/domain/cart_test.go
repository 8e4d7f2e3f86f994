package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"veloshop-client/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestEffectiveUnitPrice(t *testing.T) {
	sale := dec("7.50")

	tests := []struct {
		name string
		line domain.CartLine
		want decimal.Decimal
	}{
		{
			name: "sale price wins when set",
			line: domain.CartLine{UnitPrice: dec("10"), SalePrice: &sale},
			want: dec("7.50"),
		},
		{
			name: "regular price when no sale",
			line: domain.CartLine{UnitPrice: dec("10")},
			want: dec("10"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.line.EffectiveUnitPrice().Equal(tt.want))
		})
	}
}

func TestSubtotalMultipliesByQuantity(t *testing.T) {
	sale := dec("7.50")
	line := domain.CartLine{UnitPrice: dec("10"), SalePrice: &sale, Quantity: 3}

	assert.True(t, line.Subtotal().Equal(dec("22.50")))
}

func TestNewCartLineCopiesProductFields(t *testing.T) {
	sale := dec("15")
	product := domain.Product{
		ID:        "p1",
		Name:      "Cap",
		Slug:      "cap",
		Price:     dec("20"),
		SalePrice: &sale,
		Image:     "/c.jpg",
	}

	line := domain.NewCartLine(product, 2)

	assert.Equal(t, "p1", line.ProductID)
	assert.Equal(t, "Cap", line.Name)
	assert.Equal(t, "cap", line.Slug)
	assert.Equal(t, "/c.jpg", line.Thumbnail)
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.UnitPrice.Equal(dec("20")))
	assert.True(t, line.EffectiveUnitPrice().Equal(dec("15")))
}

func TestCartAggregates(t *testing.T) {
	sale := dec("5")
	cart := domain.Cart{Lines: []domain.CartLine{
		{ProductID: "a", UnitPrice: dec("8"), Quantity: 2},
		{ProductID: "b", UnitPrice: dec("9.99"), SalePrice: &sale, Quantity: 3},
	}}

	assert.Equal(t, 5, cart.ItemCount())
	assert.True(t, cart.TotalPrice().Equal(dec("31")), "2*8 + 3*5")
	assert.False(t, cart.IsEmpty())
}

func TestEmptyCartAggregates(t *testing.T) {
	var cart domain.Cart

	assert.Zero(t, cart.ItemCount())
	assert.True(t, cart.TotalPrice().IsZero())
	assert.True(t, cart.IsEmpty())
}

func TestFindLine(t *testing.T) {
	lines := []domain.CartLine{
		{ProductID: "a"},
		{ProductID: "b"},
	}

	assert.Equal(t, 0, domain.FindLine(lines, "a"))
	assert.Equal(t, 1, domain.FindLine(lines, "b"))
	assert.Equal(t, -1, domain.FindLine(lines, "missing"))
	assert.Equal(t, -1, domain.FindLine(nil, "a"))
}
