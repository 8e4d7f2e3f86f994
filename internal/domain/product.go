package domain

import "github.com/shopspring/decimal"

// Product is the catalog snapshot the engine needs to build cart lines and
// render favorites. The full catalog record lives server-side.
type Product struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Slug      string           `json:"slug"`
	Price     decimal.Decimal  `json:"price"`
	SalePrice *decimal.Decimal `json:"salePrice"`
	Image     string           `json:"image"`
}
