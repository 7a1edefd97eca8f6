package cart

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ============================================================================
// Fakes
// ============================================================================

type fakeAuth bool

func (f fakeAuth) Authenticated() bool { return bool(f) }

type countingNotifier struct{ n atomic.Int32 }

func (c *countingNotifier) Notify() { c.n.Add(1) }

// fakeAPI records calls and returns whatever its hooks say.
type fakeAPI struct {
	calls atomic.Int32

	getCart func(ctx context.Context) (*domain.Cart, error)
	add     func(ctx context.Context, id string, qty int) (*domain.Cart, error)
	update  func(ctx context.Context, id string, qty int) error
	remove  func(ctx context.Context, id string) error

	mu      sync.Mutex
	updates []int
}

func (f *fakeAPI) GetCart(ctx context.Context) (*domain.Cart, error) {
	f.calls.Add(1)
	if f.getCart == nil {
		return &domain.Cart{}, nil
	}
	return f.getCart(ctx)
}

func (f *fakeAPI) AddToCart(ctx context.Context, id string, qty int) (*domain.Cart, error) {
	f.calls.Add(1)
	if f.add == nil {
		return nil, nil
	}
	return f.add(ctx, id, qty)
}

func (f *fakeAPI) UpdateCartItem(ctx context.Context, id string, qty int) error {
	f.calls.Add(1)
	f.mu.Lock()
	f.updates = append(f.updates, qty)
	f.mu.Unlock()
	if f.update == nil {
		return nil
	}
	return f.update(ctx, id, qty)
}

func (f *fakeAPI) RemoveCartItem(ctx context.Context, id string) error {
	f.calls.Add(1)
	if f.remove == nil {
		return nil
	}
	return f.remove(ctx, id)
}

func item(id, price string, qty int) domain.CartItem {
	return domain.CartItem{
		ProductID: id,
		Product:   &domain.Product{ID: id, Name: "Product " + id, Price: decimal.RequireFromString(price)},
		Quantity:  qty,
	}
}

func twoItemCart() *domain.Cart {
	return &domain.Cart{Items: []domain.CartItem{item("A", "10.00", 2), item("B", "5.00", 1)}}
}

// newLoadedStore returns a store whose view holds remote.
func newLoadedStore(t *testing.T, api *fakeAPI, remote *domain.Cart) (*Store, *countingNotifier) {
	t.Helper()
	if api.getCart == nil {
		api.getCart = func(context.Context) (*domain.Cart, error) { return remote.Clone(), nil }
	}
	n := &countingNotifier{}
	s := NewStore(api, fakeAuth(true), n, nil)
	_, err := s.Load(context.Background())
	require.NoError(t, err)
	api.calls.Store(0)
	return s, n
}

var errRemote = apperrors.RemoteRejected(500, "Server error")

// ============================================================================
// Load
// ============================================================================

func TestLoad_Unauthenticated(t *testing.T) {
	api := &fakeAPI{}
	s := NewStore(api, fakeAuth(false), nil, nil)

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	assert.Equal(t, int32(0), api.calls.Load())
}

func TestLoad_ReplacesView(t *testing.T) {
	api := &fakeAPI{}
	s, _ := newLoadedStore(t, api, twoItemCart())

	assert.Equal(t, "25.00", s.Total().StringFixed(2))
	assert.Equal(t, 3, s.ItemCount())
}

func TestLoad_FailureKeepsPreviousState(t *testing.T) {
	api := &fakeAPI{}
	s, _ := newLoadedStore(t, api, twoItemCart())

	api.getCart = func(context.Context) (*domain.Cart, error) {
		return nil, apperrors.Network(errors.New("connection refused"))
	}
	_, err := s.Load(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrNetwork)
	assert.Len(t, s.Snapshot().Items, 2)
	assert.Equal(t, "25.00", s.Total().StringFixed(2))
}

func TestLoad_ConcurrentCallsShareOneRequest(t *testing.T) {
	release := make(chan struct{})
	api := &fakeAPI{getCart: func(context.Context) (*domain.Cart, error) {
		<-release
		return twoItemCart(), nil
	}}
	s := NewStore(api, fakeAuth(true), nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cart, err := s.Load(context.Background())
			assert.NoError(t, err)
			assert.Len(t, cart.Items, 2)
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), api.calls.Load())
}

func TestLoad_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var fetchErr atomic.Value
	api := &fakeAPI{getCart: func(ctx context.Context) (*domain.Cart, error) {
		close(entered)
		<-release
		if err := ctx.Err(); err != nil {
			fetchErr.Store(err)
			return nil, apperrors.Network(err)
		}
		return twoItemCart(), nil
	}}
	s := NewStore(api, fakeAuth(true), nil, nil)

	firstCtx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := s.Load(firstCtx)
		first <- err
	}()
	<-entered

	second := make(chan *domain.Cart, 1)
	go func() {
		cart, err := s.Load(context.Background())
		assert.NoError(t, err)
		second <- cart
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-first, apperrors.ErrNetwork, "the cancelled caller returns on its own context")

	close(release)
	cart := <-second
	require.NotNil(t, cart)
	assert.Len(t, cart.Items, 2)
	assert.Nil(t, fetchErr.Load(), "shared fetch must not see the first caller's cancellation")
	assert.Equal(t, int32(1), api.calls.Load())
	assert.Equal(t, 3, s.ItemCount())
}

func TestLoad_TimeoutBoundsSharedFetch(t *testing.T) {
	api := &fakeAPI{getCart: func(ctx context.Context) (*domain.Cart, error) {
		<-ctx.Done()
		return nil, apperrors.Network(ctx.Err())
	}}
	s := NewStore(api, fakeAuth(true), nil, nil, WithLoadTimeout(20*time.Millisecond))

	_, err := s.Load(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrNetwork)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ============================================================================
// Add
// ============================================================================

func TestAdd_UnauthenticatedMakesNoCall(t *testing.T) {
	api := &fakeAPI{}
	n := &countingNotifier{}
	s := NewStore(api, fakeAuth(false), n, nil)

	err := s.Add(context.Background(), "A", 1)

	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	assert.Equal(t, int32(0), api.calls.Load())
	assert.Equal(t, int32(0), n.n.Load())
}

func TestAdd_Validation(t *testing.T) {
	api := &fakeAPI{}
	s := NewStore(api, fakeAuth(true), nil, nil)

	assert.ErrorIs(t, s.Add(context.Background(), "A", 0), apperrors.ErrValidation)
	assert.ErrorIs(t, s.Add(context.Background(), "", 1), apperrors.ErrValidation)
	assert.Equal(t, int32(0), api.calls.Load())
}

func TestAdd_AckDoesNotMutateLocally(t *testing.T) {
	api := &fakeAPI{}
	s, n := newLoadedStore(t, api, twoItemCart())

	require.NoError(t, s.Add(context.Background(), "C", 3))

	assert.Len(t, s.Snapshot().Items, 2)
	assert.Equal(t, int32(1), n.n.Load())
}

func TestAdd_AppliesServerCart(t *testing.T) {
	api := &fakeAPI{add: func(_ context.Context, id string, qty int) (*domain.Cart, error) {
		c := twoItemCart()
		c.Items = append(c.Items, item(id, "1.50", qty))
		return c, nil
	}}
	s, n := newLoadedStore(t, api, twoItemCart())

	require.NoError(t, s.Add(context.Background(), "C", 2))

	assert.Len(t, s.Snapshot().Items, 3)
	assert.Equal(t, "28.00", s.Total().StringFixed(2))
	assert.Equal(t, int32(1), n.n.Load())
}

func TestAdd_FailureEmitsNothing(t *testing.T) {
	api := &fakeAPI{add: func(context.Context, string, int) (*domain.Cart, error) { return nil, errRemote }}
	s, n := newLoadedStore(t, api, twoItemCart())

	err := s.Add(context.Background(), "C", 1)

	assert.ErrorIs(t, err, apperrors.ErrRemoteRejected)
	assert.Len(t, s.Snapshot().Items, 2)
	assert.Equal(t, int32(0), n.n.Load())
}

// ============================================================================
// UpdateQuantity
// ============================================================================

func TestUpdateQuantity_ClampingLaw(t *testing.T) {
	for _, q := range []int{1, 0, -1, -100} {
		api := &fakeAPI{}
		s, n := newLoadedStore(t, api, twoItemCart())

		require.NoError(t, s.UpdateQuantity(context.Background(), "A", q))

		assert.Equal(t, []int{1}, api.updates, "q=%d", q)
		assert.Equal(t, 1, s.Snapshot().Items[0].Quantity, "q=%d", q)
		assert.Equal(t, "15.00", s.Total().StringFixed(2), "q=%d", q)
		assert.Equal(t, int32(1), n.n.Load(), "q=%d", q)
	}
}

func TestUpdateQuantity_ProvisionalUntilConfirmed(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{update: func(context.Context, string, int) error {
		close(entered)
		<-release
		return nil
	}}
	s, n := newLoadedStore(t, api, twoItemCart())

	done := make(chan error, 1)
	go func() { done <- s.UpdateQuantity(context.Background(), "A", 5) }()
	<-entered

	assert.Equal(t, 5, s.Snapshot().Items[0].Quantity)
	assert.True(t, s.IsProvisional("A"))
	assert.Equal(t, int32(0), n.n.Load())

	close(release)
	require.NoError(t, <-done)

	assert.False(t, s.IsProvisional("A"))
	assert.Equal(t, 5, s.Snapshot().Items[0].Quantity)
	assert.Equal(t, int32(1), n.n.Load())
}

func TestUpdateQuantity_FailureReverts(t *testing.T) {
	api := &fakeAPI{update: func(context.Context, string, int) error { return errRemote }}
	s, n := newLoadedStore(t, api, twoItemCart())

	err := s.UpdateQuantity(context.Background(), "A", 7)

	assert.ErrorIs(t, err, apperrors.ErrRemoteRejected)
	assert.Equal(t, 2, s.Snapshot().Items[0].Quantity)
	assert.False(t, s.IsProvisional("A"))
	assert.Equal(t, "25.00", s.Total().StringFixed(2))
	assert.Equal(t, int32(0), n.n.Load())
}

func TestUpdateQuantity_FailureAfterReloadKeepsServerState(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{update: func(context.Context, string, int) error {
		close(entered)
		<-release
		return errRemote
	}}
	s, _ := newLoadedStore(t, api, twoItemCart())

	done := make(chan error, 1)
	go func() { done <- s.UpdateQuantity(context.Background(), "A", 9) }()
	<-entered

	api.getCart = func(context.Context) (*domain.Cart, error) {
		c := twoItemCart()
		c.Items[0].Quantity = 4
		return c, nil
	}
	_, err := s.Load(context.Background())
	require.NoError(t, err)

	close(release)
	require.Error(t, <-done)
	assert.Equal(t, 4, s.Snapshot().Items[0].Quantity)
}

func TestUpdateQuantity_SuccessAfterStaleReloadKeepsConfirmedQuantity(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{update: func(context.Context, string, int) error {
		close(entered)
		<-release
		return nil
	}}
	s, n := newLoadedStore(t, api, twoItemCart())

	done := make(chan error, 1)
	go func() { done <- s.UpdateQuantity(context.Background(), "A", 5) }()
	<-entered

	// The server has not applied the update yet and still reports A=2.
	_, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Snapshot().Items[0].Quantity)

	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, 5, s.Snapshot().Items[0].Quantity)
	assert.False(t, s.IsProvisional("A"))
	assert.Equal(t, "55.00", s.Total().StringFixed(2))
	assert.Equal(t, int32(1), n.n.Load())
}

func TestUpdateQuantity_SerializedPerProduct(t *testing.T) {
	var inFlight, peak atomic.Int32
	api := &fakeAPI{update: func(context.Context, string, int) error {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	}}
	s, n := newLoadedStore(t, api, twoItemCart())

	var wg sync.WaitGroup
	for q := 1; q <= 10; q++ {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			assert.NoError(t, s.UpdateQuantity(context.Background(), "A", q))
		}(q)
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
	assert.Equal(t, int32(10), n.n.Load())
	assert.False(t, s.IsProvisional("A"))
}

// ============================================================================
// Remove
// ============================================================================

func TestRemove_FailureLeavesItemUnchanged(t *testing.T) {
	api := &fakeAPI{remove: func(context.Context, string) error { return apperrors.Network(nil) }}
	s, n := newLoadedStore(t, api, twoItemCart())
	before := s.Snapshot()

	err := s.Remove(context.Background(), "B")

	assert.ErrorIs(t, err, apperrors.ErrNetwork)
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, int32(0), n.n.Load())
}

func TestRemove_NotOptimistic(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{remove: func(context.Context, string) error {
		close(entered)
		<-release
		return nil
	}}
	s, n := newLoadedStore(t, api, twoItemCart())

	done := make(chan error, 1)
	go func() { done <- s.Remove(context.Background(), "B") }()
	<-entered

	assert.Len(t, s.Snapshot().Items, 2, "item stays until the server confirms")

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, s.Snapshot().Items, 1)
	assert.Equal(t, "20.00", s.Total().StringFixed(2))
	assert.Equal(t, int32(1), n.n.Load())
}

func TestRemove_UnresolvedItemNeedsExplicitCall(t *testing.T) {
	remote := twoItemCart()
	remote.Items = append(remote.Items, domain.CartItem{ProductID: "gone", Quantity: 2})
	api := &fakeAPI{}
	s, _ := newLoadedStore(t, api, remote)

	assert.Len(t, s.Snapshot().Items, 3)
	assert.Equal(t, "25.00", s.Total().StringFixed(2))

	require.NoError(t, s.Remove(context.Background(), "gone"))
	assert.Len(t, s.Snapshot().Items, 2)
}

// ============================================================================
// Invariants
// ============================================================================

func TestTotalLaw_HoldsAcrossMutations(t *testing.T) {
	api := &fakeAPI{}
	s, _ := newLoadedStore(t, api, twoItemCart())
	ctx := context.Background()

	check := func() {
		snap := s.Snapshot()
		want := decimal.Zero
		for _, it := range snap.Items {
			if it.Product != nil {
				want = want.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
			}
		}
		assert.True(t, want.Equal(s.Total()), "want %s got %s", want, s.Total())
	}

	check()
	require.NoError(t, s.UpdateQuantity(ctx, "A", 4))
	check()
	require.NoError(t, s.UpdateQuantity(ctx, "B", 0))
	check()
	require.NoError(t, s.Add(ctx, "C", 1))
	check()
	require.NoError(t, s.Remove(ctx, "A"))
	check()
	assert.Equal(t, "5.00", s.Total().StringFixed(2))
}

func TestClose_DiscardsLateResponses(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{remove: func(context.Context, string) error {
		close(entered)
		<-release
		return nil
	}}
	s, n := newLoadedStore(t, api, twoItemCart())

	done := make(chan error, 1)
	go func() { done <- s.Remove(context.Background(), "A") }()
	<-entered
	s.Close()
	close(release)

	require.NoError(t, <-done)
	assert.Len(t, s.Snapshot().Items, 2)
	assert.Equal(t, int32(0), n.n.Load())
}

func TestSnapshot_IsACopy(t *testing.T) {
	api := &fakeAPI{}
	s, _ := newLoadedStore(t, api, twoItemCart())

	snap := s.Snapshot()
	snap.Items[0].Quantity = 99

	assert.Equal(t, 2, s.Snapshot().Items[0].Quantity)
}

func TestKeyLock_ReleasesEntries(t *testing.T) {
	k := newKeyLock()
	unlock := k.Lock("a")
	assert.Len(t, k.locks, 1)
	unlock()
	assert.Empty(t, k.locks)
}
