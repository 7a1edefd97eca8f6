package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotify_InvokesEachListenerOnce(t *testing.T) {
	b := New()
	var a, c int
	b.Subscribe(func() { a++ })
	b.Subscribe(func() { c++ })

	b.Notify()

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, c)
}

func TestNotify_SubscriptionOrder(t *testing.T) {
	b := New()
	var got []int
	for i := 0; i < 3; i++ {
		i := i
		b.Subscribe(func() { got = append(got, i) })
	}

	b.Notify()

	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestUnsubscribe_StopsDeliveryAndIsIdempotent(t *testing.T) {
	b := New()
	var calls int
	unsubscribe := b.Subscribe(func() { calls++ })
	other := b.Subscribe(func() {})

	unsubscribe()
	unsubscribe()
	b.Notify()

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, b.Len())
	other()
	assert.Equal(t, 0, b.Len())
}

func TestNotify_ListenerAddedDuringNotifyWaitsForNextSignal(t *testing.T) {
	b := New()
	var late int
	b.Subscribe(func() {
		b.Subscribe(func() { late++ })
	})

	b.Notify()
	assert.Equal(t, 0, late)

	b.Notify()
	assert.Equal(t, 1, late)
}

func TestNotify_ListenerCanUnsubscribeItself(t *testing.T) {
	b := New()
	var calls int
	var unsubscribe func()
	unsubscribe = b.Subscribe(func() {
		calls++
		unsubscribe()
	})

	b.Notify()
	b.Notify()

	assert.Equal(t, 1, calls)
}

func TestNotify_NoListeners(t *testing.T) {
	assert.NotPanics(t, func() { New().Notify() })
}

func TestNotify_Concurrent(t *testing.T) {
	b := New()
	var mu sync.Mutex
	var calls int
	b.Subscribe(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Notify()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, calls)
}

func TestWatch_CoalescesAndUnregisters(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Watch(ctx)
	require.Equal(t, 1, b.Len())

	b.Notify()
	b.Notify()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a signal")
	}
	select {
	case <-ch:
		t.Fatal("signals should coalesce")
	default:
	}

	cancel()
	assert.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)
}
