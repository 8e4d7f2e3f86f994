package domain

import (
	"context"
	"time"
)

// FavoriteEntry is one favorited product of a user. Uniqueness per
// (user, product) is enforced by the remote store; favorites do not exist
// for anonymous sessions.
type FavoriteEntry struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	AddedAt   time.Time `json:"addedAt"`
	Product   Product   `json:"product"`
}

// FavoritesRemote is the server-side favorites record of the authenticated
// user.
type FavoritesRemote interface {
	List(ctx context.Context) ([]FavoriteEntry, error)
	// Toggle flips membership for productID and returns the new state.
	Toggle(ctx context.Context, productID string) (bool, error)
	// Check reports membership for a batch of product IDs in one round trip.
	Check(ctx context.Context, productIDs []string) (map[string]bool, error)
}
