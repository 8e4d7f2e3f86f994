package remote

import (
	"context"
	"fmt"
	"net/http"

	"veloshop-client/internal/domain"
)

// FavoritesGateway issues the favorites operations against the authenticated
// user's server-side record.
type FavoritesGateway struct {
	client *Client
}

func NewFavoritesGateway(client *Client) *FavoritesGateway {
	return &FavoritesGateway{client: client}
}

var _ domain.FavoritesRemote = (*FavoritesGateway)(nil)

type favoritesListResponse struct {
	Success   bool                   `json:"success"`
	Favorites []domain.FavoriteEntry `json:"favorites"`
}

type toggleResponse struct {
	Success    bool   `json:"success"`
	IsFavorite *bool  `json:"isFavorite"`
	Message    string `json:"message"`
}

type checkResponse struct {
	Success   bool            `json:"success"`
	Favorites map[string]bool `json:"favorites"`
}

func (g *FavoritesGateway) List(ctx context.Context) ([]domain.FavoriteEntry, error) {
	var resp favoritesListResponse
	if err := g.client.do(ctx, http.MethodGet, "/api/favorites", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Favorites == nil {
		return nil, &domain.SerializationError{Err: fmt.Errorf("favorites response missing entries")}
	}
	return resp.Favorites, nil
}

func (g *FavoritesGateway) Toggle(ctx context.Context, productID string) (bool, error) {
	if productID == "" {
		return false, domain.Validationf("product ID is required")
	}

	var resp toggleResponse
	req := struct {
		ProductID string `json:"productId"`
	}{ProductID: productID}

	if err := g.client.do(ctx, http.MethodPost, "/api/favorites/toggle", req, &resp); err != nil {
		return false, err
	}
	if resp.IsFavorite == nil {
		return false, &domain.SerializationError{Err: fmt.Errorf("toggle response missing isFavorite")}
	}
	return *resp.IsFavorite, nil
}

func (g *FavoritesGateway) Check(ctx context.Context, productIDs []string) (map[string]bool, error) {
	if len(productIDs) == 0 {
		return map[string]bool{}, nil
	}

	var resp checkResponse
	req := struct {
		ProductIDs []string `json:"productIds"`
	}{ProductIDs: productIDs}

	if err := g.client.do(ctx, http.MethodPost, "/api/favorites/check", req, &resp); err != nil {
		return nil, err
	}
	if resp.Favorites == nil {
		return nil, &domain.SerializationError{Err: fmt.Errorf("check response missing favorites map")}
	}
	return resp.Favorites, nil
}
