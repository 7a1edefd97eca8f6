// Package cart keeps the in-memory view of the signed-in user's remote cart.
//
// The remote cart is authoritative. Add never mutates local state before the
// server confirms; UpdateQuantity shows the new quantity immediately but marks
// it provisional and reverts it if the server refuses; Remove only drops the
// line after the server confirms. Every successful mutation emits exactly one
// cart-changed signal after the remote call resolves.
package cart

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/utafrali/storefront/internal/broadcast"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

// API is the subset of the storefront API the cart store needs.
type API interface {
	GetCart(ctx context.Context) (*domain.Cart, error)
	AddToCart(ctx context.Context, productID string, quantity int) (*domain.Cart, error)
	UpdateCartItem(ctx context.Context, productID string, quantity int) error
	RemoveCartItem(ctx context.Context, productID string) error
}

// Authenticator reports whether a usable session token is present.
type Authenticator interface {
	Authenticated() bool
}

// DefaultLoadTimeout bounds a shared cart fetch.
const DefaultLoadTimeout = 15 * time.Second

// Option configures a Store.
type Option func(*Store)

// WithLoadTimeout bounds the shared fetch behind Load. Callers still return
// as soon as their own context ends.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.loadTimeout = d
		}
	}
}

type noopNotifier struct{}

func (noopNotifier) Notify() {}

// Store mirrors the remote cart. It is safe for concurrent use.
type Store struct {
	api      API
	auth     Authenticator
	notifier broadcast.Notifier
	logger   *slog.Logger

	loads       singleflight.Group
	loadTimeout time.Duration
	keys        *keyLock

	mu          sync.Mutex
	cart        *domain.Cart
	provisional map[string]int // productID -> last confirmed quantity
	closed      bool
}

// NewStore creates an empty store. A nil notifier drops signals.
func NewStore(api API, auth Authenticator, notifier broadcast.Notifier, log *slog.Logger, opts ...Option) *Store {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if log == nil {
		log = logger.Discard()
	}
	s := &Store{
		api:         api,
		auth:        auth,
		notifier:    notifier,
		logger:      log,
		loadTimeout: DefaultLoadTimeout,
		keys:        newKeyLock(),
		cart:        &domain.Cart{},
		provisional: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) requireAuth() error {
	if !s.auth.Authenticated() {
		return apperrors.Unauthenticated("please log in to manage your cart")
	}
	return nil
}

// Load fetches the remote cart and replaces the local view. Concurrent loads
// share one request, which outlives any single caller's cancellation. On
// failure the previous view is kept.
func (s *Store) Load(ctx context.Context) (*domain.Cart, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}

	ch := s.loads.DoChan("cart", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()
		return s.api.GetCart(fetchCtx)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, apperrors.Network(ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		s.logger.WarnContext(ctx, "failed to load cart, keeping previous state",
			slog.String("error", res.Err.Error()),
		)
		return nil, res.Err
	}

	remote := res.Val.(*domain.Cart)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return remote.Clone(), nil
	}
	s.applyLocked(remote)
	return s.cart.Clone(), nil
}

// applyLocked replaces the local view with a server cart. Server state
// supersedes any provisional quantity.
func (s *Store) applyLocked(remote *domain.Cart) {
	s.cart = remote.Clone()
	clear(s.provisional)
}

// Add adds quantity of productID to the remote cart. Local state changes only
// when the server answers with the updated cart.
func (s *Store) Add(ctx context.Context, productID string, quantity int) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if productID == "" {
		return apperrors.Validation("product id is required", map[string]string{"productId": "is required"})
	}
	if quantity < 1 {
		return apperrors.Validation("quantity must be at least 1", map[string]string{"quantity": "must be at least 1"})
	}

	unlock := s.keys.Lock(productID)
	defer unlock()

	remote, err := s.api.AddToCart(ctx, productID, quantity)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to add item to cart",
			slog.String("product_id", productID),
			slog.Int("quantity", quantity),
			slog.String("error", err.Error()),
		)
		return err
	}

	if !s.settle(func() {
		if remote != nil {
			s.applyLocked(remote)
		}
	}) {
		return nil
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)
	s.notifier.Notify()
	return nil
}

// UpdateQuantity sets the quantity of productID, clamped to at least 1. The
// new value is visible immediately as provisional; a failed update restores
// the last confirmed value.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if productID == "" {
		return apperrors.Validation("product id is required", map[string]string{"productId": "is required"})
	}
	quantity = max(quantity, 1)

	unlock := s.keys.Lock(productID)
	defer unlock()

	s.mu.Lock()
	if !s.closed {
		if idx := s.cart.FindItemIndex(productID); idx >= 0 {
			if _, pending := s.provisional[productID]; !pending {
				s.provisional[productID] = s.cart.Items[idx].Quantity
			}
			s.cart.Items[idx].Quantity = quantity
		}
	}
	s.mu.Unlock()

	err := s.api.UpdateCartItem(ctx, productID, quantity)
	if err != nil {
		s.settle(func() { s.revertLocked(productID) })
		s.logger.WarnContext(ctx, "failed to update cart quantity, reverted",
			slog.String("product_id", productID),
			slog.Int("quantity", quantity),
			slog.String("error", err.Error()),
		)
		return err
	}

	// A Load that resolved while the update was in flight may have put the
	// older server quantity back; the confirmed value wins.
	if !s.settle(func() {
		delete(s.provisional, productID)
		if idx := s.cart.FindItemIndex(productID); idx >= 0 {
			s.cart.Items[idx].Quantity = quantity
		}
	}) {
		return nil
	}
	s.notifier.Notify()
	return nil
}

func (s *Store) revertLocked(productID string) {
	prev, ok := s.provisional[productID]
	if !ok {
		return
	}
	delete(s.provisional, productID)
	if idx := s.cart.FindItemIndex(productID); idx >= 0 {
		s.cart.Items[idx].Quantity = prev
	}
}

// Remove deletes productID from the remote cart, then from the local view.
// On failure the item stays as it was.
func (s *Store) Remove(ctx context.Context, productID string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if productID == "" {
		return apperrors.Validation("product id is required", map[string]string{"productId": "is required"})
	}

	unlock := s.keys.Lock(productID)
	defer unlock()

	if err := s.api.RemoveCartItem(ctx, productID); err != nil {
		s.logger.WarnContext(ctx, "failed to remove cart item",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return err
	}

	if !s.settle(func() {
		if idx := s.cart.FindItemIndex(productID); idx >= 0 {
			s.cart.Items = append(s.cart.Items[:idx], s.cart.Items[idx+1:]...)
		}
		delete(s.provisional, productID)
	}) {
		return nil
	}
	s.notifier.Notify()
	return nil
}

// settle applies fn under the state lock unless the store is closed. It
// reports whether fn ran.
func (s *Store) settle(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	fn()
	return true
}

// Snapshot returns a copy of the current view.
func (s *Store) Snapshot() *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// Total returns Σ price × quantity over resolved items of the current view.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Subtotal()
}

// ItemCount returns the total quantity of resolved items.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}

// IsProvisional reports whether productID has a quantity change the server
// has not confirmed yet.
func (s *Store) IsProvisional(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.provisional[productID]
	return ok
}

// Close detaches the store from its view. Responses that arrive afterwards
// change nothing and emit no signal.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
