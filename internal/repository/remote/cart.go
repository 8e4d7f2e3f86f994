package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"veloshop-client/internal/domain"
)

// CartGateway issues the four cart operations against the authenticated
// user's server-side record. Mutations return the full authoritative cart.
type CartGateway struct {
	client *Client
}

func NewCartGateway(client *Client) *CartGateway {
	return &CartGateway{client: client}
}

var _ domain.CartRemote = (*CartGateway)(nil)

// cartPayload is the cart shape the API returns. Items must be present,
// even when empty; a missing array is a malformed response, not an empty
// cart.
type cartPayload struct {
	Items      []domain.CartLine `json:"items"`
	ItemCount  int               `json:"itemCount"`
	TotalPrice decimal.Decimal   `json:"totalPrice"`
}

// cartEnvelope wraps mutation responses.
type cartEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Cart    *cartPayload `json:"cart"`
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (g *CartGateway) Fetch(ctx context.Context) (domain.Cart, error) {
	var payload cartPayload
	if err := g.client.do(ctx, http.MethodGet, "/api/cart", nil, &payload); err != nil {
		return domain.Cart{}, err
	}
	if payload.Items == nil {
		return domain.Cart{}, &domain.SerializationError{Err: fmt.Errorf("cart response missing items")}
	}
	return domain.Cart{Lines: payload.Items, UpdatedAt: time.Now()}, nil
}

func (g *CartGateway) AddItem(ctx context.Context, productID string, quantity int) (domain.Cart, error) {
	if productID == "" {
		return domain.Cart{}, domain.Validationf("product ID is required")
	}
	if quantity < 1 {
		return domain.Cart{}, domain.Validationf("quantity must be at least 1")
	}

	var env cartEnvelope
	req := cartItemRequest{ProductID: productID, Quantity: quantity}
	if err := g.client.do(ctx, http.MethodPost, "/api/cart/add", req, &env); err != nil {
		return domain.Cart{}, err
	}
	return env.cart()
}

func (g *CartGateway) UpdateItem(ctx context.Context, productID string, quantity int) (domain.Cart, error) {
	if productID == "" {
		return domain.Cart{}, domain.Validationf("product ID is required")
	}
	if quantity < 0 {
		return domain.Cart{}, domain.Validationf("quantity must be a non-negative number")
	}

	var env cartEnvelope
	req := cartItemRequest{ProductID: productID, Quantity: quantity}
	if err := g.client.do(ctx, http.MethodPost, "/api/cart/update", req, &env); err != nil {
		return domain.Cart{}, err
	}
	return env.cart()
}

func (g *CartGateway) Clear(ctx context.Context) error {
	var env cartEnvelope
	return g.client.do(ctx, http.MethodPost, "/api/cart/clear", struct{}{}, &env)
}

func (e cartEnvelope) cart() (domain.Cart, error) {
	if e.Cart == nil || e.Cart.Items == nil {
		return domain.Cart{}, &domain.SerializationError{Err: fmt.Errorf("cart response missing cart payload")}
	}
	return domain.Cart{Lines: e.Cart.Items, UpdatedAt: time.Now()}, nil
}
