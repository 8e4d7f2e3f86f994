package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"veloshop-client/internal/domain"
	"veloshop-client/internal/session"
	"veloshop-client/pkg/cache"
	"veloshop-client/pkg/logger"
)

// FavoritesUsecase tracks the authenticated user's favorite set. There is no
// anonymous concept: mutations require Remote Mode, and the in-memory copy
// lives only between login and logout. Membership lookups read a local index
// and never touch the network.
type FavoritesUsecase struct {
	mu      sync.RWMutex
	entries []domain.FavoriteEntry
	index   map[string]bool

	session  *session.Provider
	remote   domain.FavoritesRemote
	checks   cache.Service
	checkTTL time.Duration
}

// NewFavoritesUsecase wires the tracker. checks caches batch membership
// responses so repeated grid renders do not repeat round trips; it is
// flushed on every mutation.
func NewFavoritesUsecase(sess *session.Provider, remote domain.FavoritesRemote, checks cache.Service, checkTTL time.Duration) *FavoritesUsecase {
	return &FavoritesUsecase{
		index:    make(map[string]bool),
		session:  sess,
		remote:   remote,
		checks:   checks,
		checkTTL: checkTTL,
	}
}

var _ session.Listener = (*FavoritesUsecase)(nil)

// --- Views ---

// Entries returns a copy of the favorite entries.
func (u *FavoritesUsecase) Entries() []domain.FavoriteEntry {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return append([]domain.FavoriteEntry(nil), u.entries...)
}

func (u *FavoritesUsecase) Count() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.entries)
}

func (u *FavoritesUsecase) HasFavorites() bool {
	return u.Count() > 0
}

// IsFavorite reads the membership index. O(1), no I/O.
func (u *FavoritesUsecase) IsFavorite(productID string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.index[productID]
}

// --- Mutations ---

// Toggle flips membership for productID and returns the new state. It
// requires an authenticated session; there is no local fallback. After a
// toggle-to-added the full list is reloaded to pick up denormalized product
// data; a toggle-to-removed drops the entry locally without a round trip.
func (u *FavoritesUsecase) Toggle(ctx context.Context, productID string) (bool, error) {
	if productID == "" {
		return false, domain.Validationf("product ID is required")
	}
	if u.session.Mode() != session.ModeRemote {
		return false, &domain.PermissionDeniedError{Msg: "you must be logged in to manage favorites"}
	}

	added, err := u.remote.Toggle(ctx, productID)
	if err != nil {
		return false, err
	}
	u.checks.Flush()

	if added {
		if err := u.load(ctx); err != nil {
			// The toggle itself succeeded; keep the index truthful even
			// though the denormalized entry is missing until the next load.
			logger.Warn().Err(err).Msg("favorites reload failed after toggle")
			u.mu.Lock()
			u.index[productID] = true
			u.mu.Unlock()
		}
		return true, nil
	}

	u.mu.Lock()
	for i, e := range u.entries {
		if e.ProductID == productID {
			u.entries = append(u.entries[:i], u.entries[i+1:]...)
			break
		}
	}
	u.rebuildIndex()
	u.mu.Unlock()
	return false, nil
}

// Remove unfavorites productID if it is currently a favorite. A no-op
// otherwise.
func (u *FavoritesUsecase) Remove(ctx context.Context, productID string) error {
	if !u.IsFavorite(productID) {
		return nil
	}
	_, err := u.Toggle(ctx, productID)
	return err
}

// CheckMany reports membership for a batch of product IDs, the call a
// product grid makes once instead of N IsFavorite round trips. An
// unauthenticated session gets an all-false map without any I/O, and remote
// failures degrade the same way. Results are merged into the index.
func (u *FavoritesUsecase) CheckMany(ctx context.Context, productIDs []string) (map[string]bool, error) {
	if len(productIDs) == 0 {
		return map[string]bool{}, nil
	}
	if u.session.Mode() != session.ModeRemote {
		return allFalse(productIDs), nil
	}

	key := checkCacheKey(productIDs)
	if cached, ok := u.checks.Get(key); ok {
		if result, ok := cached.(map[string]bool); ok {
			u.mergeIndex(result)
			return copyBoolMap(result), nil
		}
	}

	result, err := u.remote.Check(ctx, productIDs)
	if err != nil {
		logger.Warn().Err(err).Msg("favorites check failed")
		return allFalse(productIDs), nil
	}

	u.checks.Set(key, copyBoolMap(result), u.checkTTL)
	u.mergeIndex(result)

	return result, nil
}

// --- Session transitions ---

// OnLogin populates the in-memory copy from the server. A failed load
// degrades to an empty set rather than failing the login.
func (u *FavoritesUsecase) OnLogin(ctx context.Context) {
	if u.session.Mode() != session.ModeRemote {
		return
	}
	if err := u.load(ctx); err != nil {
		logger.Warn().Err(err).Msg("favorites load failed, starting empty")
		u.reset()
	}
}

// OnLogout discards the in-memory copy. The server record is untouched.
func (u *FavoritesUsecase) OnLogout() {
	u.reset()
}

// --- Internals ---

func (u *FavoritesUsecase) load(ctx context.Context) error {
	entries, err := u.remote.List(ctx)
	if err != nil {
		return err
	}

	u.mu.Lock()
	u.entries = entries
	u.rebuildIndex()
	u.mu.Unlock()
	return nil
}

func (u *FavoritesUsecase) reset() {
	u.mu.Lock()
	u.entries = nil
	u.index = make(map[string]bool)
	u.mu.Unlock()
	u.checks.Flush()
}

func (u *FavoritesUsecase) mergeIndex(result map[string]bool) {
	u.mu.Lock()
	for id, fav := range result {
		u.index[id] = fav
	}
	u.mu.Unlock()
}

// rebuildIndex recomputes the membership index from entries. Callers hold
// the write lock.
func (u *FavoritesUsecase) rebuildIndex() {
	u.index = make(map[string]bool, len(u.entries))
	for _, e := range u.entries {
		u.index[e.ProductID] = true
	}
}

func checkCacheKey(productIDs []string) string {
	ids := append([]string(nil), productIDs...)
	sort.Strings(ids)
	return "favcheck:" + strings.Join(ids, ",")
}

func allFalse(productIDs []string) map[string]bool {
	result := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		result[id] = false
	}
	return result
}

func copyBoolMap(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
