package usecase

import (
	"context"
	"sync"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"veloshop-client/internal/domain"
	"veloshop-client/internal/session"
	"veloshop-client/pkg/kv"
	"veloshop-client/pkg/logger"
)

// CartStorageKey is the fixed blob name for the anonymous cart. Local mode
// is inherently single-session, so the key is not per-user.
const CartStorageKey = "cart"

// CartUsecase owns the in-memory cart and dispatches every mutation to
// either the local blob or the remote record, depending on the session mode
// at operation entry. Remote writes are never applied optimistically: the
// server's full cart replaces in-memory state, or nothing changes.
type CartUsecase struct {
	mu    sync.RWMutex
	lines []domain.CartLine

	session *session.Provider
	remote  domain.CartRemote
	local   kv.Store
	maxQty  int
}

// NewCartUsecase wires the ledger. maxQty <= 0 disables the quantity
// ceiling.
func NewCartUsecase(sess *session.Provider, remote domain.CartRemote, local kv.Store, maxQty int) *CartUsecase {
	return &CartUsecase{
		session: sess,
		remote:  remote,
		local:   local,
		maxQty:  maxQty,
	}
}

var _ session.Listener = (*CartUsecase)(nil)

// Init loads the persisted guest cart, or synchronizes from the remote
// record when the session is already authenticated. Read failures degrade
// to an empty cart; they never block startup.
func (u *CartUsecase) Init(ctx context.Context) {
	if u.session.Mode() == session.ModeRemote {
		u.syncRemote(ctx)
		return
	}
	u.loadLocal()
}

// --- Views ---

// Items returns a copy of the cart lines in insertion order.
func (u *CartUsecase) Items() []domain.CartLine {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return append([]domain.CartLine(nil), u.lines...)
}

// Len is the number of distinct lines.
func (u *CartUsecase) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.lines)
}

// ItemCount sums line quantities.
func (u *CartUsecase) ItemCount() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return domain.Cart{Lines: u.lines}.ItemCount()
}

// TotalPrice sums effective unit price times quantity over all lines.
func (u *CartUsecase) TotalPrice() decimal.Decimal {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return domain.Cart{Lines: u.lines}.TotalPrice()
}

func (u *CartUsecase) HasItems() bool {
	return u.Len() > 0
}

// --- Mutations ---

// Add merges quantity into an existing line for the product or appends a new
// one. In remote mode the server performs the identical merge and returns
// the authoritative cart.
func (u *CartUsecase) Add(ctx context.Context, product domain.Product, quantity int) error {
	if product.ID == "" {
		return domain.Validationf("product ID is required")
	}
	if quantity < 1 {
		return domain.Validationf("quantity must be at least 1")
	}
	if u.maxQty > 0 && quantity > u.maxQty {
		return domain.Validationf("quantity exceeds the maximum of %d", u.maxQty)
	}

	// Mode is captured once here; a logout racing this call cannot switch
	// the backend mid-operation.
	if u.session.Mode() == session.ModeRemote {
		cart, err := u.remote.AddItem(ctx, product.ID, quantity)
		if err != nil {
			return err
		}
		u.replace(cart.Lines)
		return nil
	}

	u.mu.Lock()
	if i := domain.FindLine(u.lines, product.ID); i >= 0 {
		u.lines[i].Quantity += quantity
	} else {
		u.lines = append(u.lines, domain.NewCartLine(product, quantity))
	}
	snapshot := append([]domain.CartLine(nil), u.lines...)
	u.mu.Unlock()

	u.persistLocal(snapshot)
	return nil
}

// SetQuantity overwrites the quantity of an existing line. Zero or negative
// quantity removes the line; zero-quantity lines are never retained. In
// local mode a missing line is a silent no-op, which tolerates stale UI
// rows; in remote mode the server reports it as not found.
func (u *CartUsecase) SetQuantity(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return domain.Validationf("product ID is required")
	}
	if quantity <= 0 {
		return u.Remove(ctx, productID)
	}
	if u.maxQty > 0 && quantity > u.maxQty {
		return domain.Validationf("quantity exceeds the maximum of %d", u.maxQty)
	}

	if u.session.Mode() == session.ModeRemote {
		cart, err := u.remote.UpdateItem(ctx, productID, quantity)
		if err != nil {
			return err
		}
		u.replace(cart.Lines)
		return nil
	}

	u.mu.Lock()
	i := domain.FindLine(u.lines, productID)
	if i < 0 {
		u.mu.Unlock()
		return nil
	}
	u.lines[i].Quantity = quantity
	snapshot := append([]domain.CartLine(nil), u.lines...)
	u.mu.Unlock()

	u.persistLocal(snapshot)
	return nil
}

// Remove deletes the line for productID. Removing an absent line is not an
// error in either mode.
func (u *CartUsecase) Remove(ctx context.Context, productID string) error {
	if productID == "" {
		return domain.Validationf("product ID is required")
	}

	if u.session.Mode() == session.ModeRemote {
		cart, err := u.remote.UpdateItem(ctx, productID, 0)
		if err != nil {
			if domain.IsNotFound(err) {
				// Absent on the server: drop any stale local copy and
				// treat the removal as done.
				u.dropLine(productID)
				return nil
			}
			return err
		}
		u.replace(cart.Lines)
		return nil
	}

	u.mu.Lock()
	i := domain.FindLine(u.lines, productID)
	if i < 0 {
		u.mu.Unlock()
		return nil
	}
	u.lines = append(u.lines[:i], u.lines[i+1:]...)
	snapshot := append([]domain.CartLine(nil), u.lines...)
	u.mu.Unlock()

	u.persistLocal(snapshot)
	return nil
}

// Clear empties the cart. Local mode deletes the persisted blob entirely
// rather than writing an empty array, so a stale value can never be
// resurrected.
func (u *CartUsecase) Clear(ctx context.Context) error {
	if u.session.Mode() == session.ModeRemote {
		if err := u.remote.Clear(ctx); err != nil {
			return err
		}
		u.replace(nil)
		return nil
	}

	u.replace(nil)
	if err := u.local.Remove(CartStorageKey); err != nil {
		logger.Warn().Err(err).Msg("failed to delete local cart blob")
	}
	return nil
}

// --- Session transitions ---

// OnLogin merges the guest cart into the user's remote record, then
// re-synchronizes from the server as the source of truth. Runs before login
// returns to the caller.
func (u *CartUsecase) OnLogin(ctx context.Context) {
	// A rejected or expired credential resolves to local mode; migrating
	// against it would only burn the guest blob on failed calls.
	if u.session.Mode() != session.ModeRemote {
		return
	}
	u.migrateGuestCart(ctx)
	u.syncRemote(ctx)
}

// OnLogout resets in-memory state only. The remote copy stays as it was for
// the next login; the local blob was already consumed at login time.
func (u *CartUsecase) OnLogout() {
	u.replace(nil)
}

// migrateGuestCart replays each locally accumulated line against the remote
// add endpoint. Server-side merge semantics absorb overlap with a
// pre-existing remote cart by addition, so this is safe against a non-empty
// record. Lines that fail to add are skipped and logged; the blob is
// cleared as the last step so a crash mid-merge re-attempts on next login.
func (u *CartUsecase) migrateGuestCart(ctx context.Context) {
	raw, ok, err := u.local.Get(CartStorageKey)
	if err != nil {
		logger.Warn().Err(err).Msg("guest cart unreadable, skipping migration")
		return
	}
	if !ok || raw == "" {
		return
	}

	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		logger.Warn().Err(err).Msg("discarding corrupt guest cart blob")
		_ = u.local.Remove(CartStorageKey)
		return
	}

	for _, line := range lines {
		if _, err := u.remote.AddItem(ctx, line.ProductID, line.Quantity); err != nil {
			logger.Warn().
				Err(err).
				Str("product_id", line.ProductID).
				Msg("skipping cart line during guest cart merge")
		}
	}

	if err := u.local.Remove(CartStorageKey); err != nil {
		logger.Warn().Err(err).Msg("failed to clear guest cart blob after merge")
	}
}

// --- Internals ---

func (u *CartUsecase) replace(lines []domain.CartLine) {
	u.mu.Lock()
	u.lines = lines
	u.mu.Unlock()
}

func (u *CartUsecase) dropLine(productID string) {
	u.mu.Lock()
	if i := domain.FindLine(u.lines, productID); i >= 0 {
		u.lines = append(u.lines[:i], u.lines[i+1:]...)
	}
	u.mu.Unlock()
}

func (u *CartUsecase) syncRemote(ctx context.Context) {
	cart, err := u.remote.Fetch(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("cart sync failed, starting empty")
		u.replace(nil)
		return
	}
	u.replace(cart.Lines)
}

func (u *CartUsecase) loadLocal() {
	raw, ok, err := u.local.Get(CartStorageKey)
	if err != nil {
		logger.Warn().Err(err).Msg("local cart unreadable, starting empty")
		return
	}
	if !ok {
		return
	}

	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		logger.Warn().Err(err).Msg("discarding corrupt local cart blob")
		_ = u.local.Remove(CartStorageKey)
		return
	}
	u.replace(lines)
}

// persistLocal writes the snapshot to durable storage. Serialization and
// write failures are logged and treated as a no-op persist; the in-memory
// state has already been updated.
func (u *CartUsecase) persistLocal(lines []domain.CartLine) {
	data, err := json.Marshal(lines)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode cart for local storage")
		return
	}
	if err := u.local.Set(CartStorageKey, string(data)); err != nil {
		logger.Error().Err(err).Msg("failed to persist cart locally")
	}
}
