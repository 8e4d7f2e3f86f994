package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is a denormalized product snapshot inside a cart. Identity key is
// ProductID: a cart holds at most one line per product.
type CartLine struct {
	ProductID string           `json:"productId"`
	Name      string           `json:"name"`
	UnitPrice decimal.Decimal  `json:"price"`
	SalePrice *decimal.Decimal `json:"salePrice"`
	Thumbnail string           `json:"image"`
	Quantity  int              `json:"quantity"`
	Slug      string           `json:"slug"`
}

// EffectiveUnitPrice returns the sale price when one is set, otherwise the
// regular unit price.
func (l CartLine) EffectiveUnitPrice() decimal.Decimal {
	if l.SalePrice != nil {
		return *l.SalePrice
	}
	return l.UnitPrice
}

// Subtotal is the effective unit price multiplied by the line quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.EffectiveUnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// NewCartLine builds a line from a product snapshot. Sale price is carried
// over so the cart keeps rendering the price the shopper saw.
func NewCartLine(p Product, quantity int) CartLine {
	return CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		SalePrice: p.SalePrice,
		Thumbnail: p.Image,
		Quantity:  quantity,
		Slug:      p.Slug,
	}
}

// Cart is an ordered collection of lines. Line order is insertion order and
// carries no meaning beyond display.
type Cart struct {
	Lines     []CartLine `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ItemCount sums the quantities of all lines.
func (c Cart) ItemCount() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice sums the subtotals of all lines.
func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// FindLine returns the index of the line for productID, or -1.
func FindLine(lines []CartLine, productID string) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// CartRemote is the server-side cart record of the authenticated user.
// Every mutating call returns the full authoritative cart, which callers are
// expected to apply wholesale.
type CartRemote interface {
	Fetch(ctx context.Context) (Cart, error)
	AddItem(ctx context.Context, productID string, quantity int) (Cart, error)
	UpdateItem(ctx context.Context, productID string, quantity int) (Cart, error)
	Clear(ctx context.Context) error
}
