package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	var zero T
	return zero
}

func TestSubscribe_InitialSnapshotAndReload(t *testing.T) {
	hub := NewHub(zap.NewNop())
	var version atomic.Int64
	got := make(chan int64, 8)

	sub := Subscribe(context.Background(), hub,
		func(ev Event) bool { return ev.BusinessID == "t1" },
		func(context.Context) (int64, error) { return version.Load(), nil },
		func(v int64) { got <- v })
	defer sub.Cancel()

	assert.Equal(t, int64(0), recv(t, got))

	version.Store(1)
	hub.Publish(Event{Collection: Products, BusinessID: "t2"})
	hub.Publish(Event{Collection: Products, BusinessID: "t1"})
	assert.Equal(t, int64(1), recv(t, got))

	select {
	case v := <-got:
		t.Fatalf("unexpected extra snapshot %d", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancel_NoDeliveryAfterReturn(t *testing.T) {
	hub := NewHub(zap.NewNop())
	var mu sync.Mutex
	cancelled := false
	late := atomic.Bool{}

	sub := Subscribe(context.Background(), hub, nil,
		func(context.Context) (int, error) {
			time.Sleep(time.Millisecond)
			return 1, nil
		},
		func(int) {
			mu.Lock()
			defer mu.Unlock()
			if cancelled {
				late.Store(true)
			}
		})

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				hub.Publish(Event{Collection: Orders})
			}
		}
	}()

	time.Sleep(20 * time.Millisecond)
	sub.Cancel()
	mu.Lock()
	cancelled = true
	mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	close(stop)

	assert.False(t, late.Load(), "callback fired after Cancel returned")
	assert.Equal(t, 0, hub.Len())
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("delivery goroutine did not exit")
	}
}

func TestSubscribe_ContextCancelStops(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan string, 4)

	sub := Subscribe(ctx, hub, nil,
		func(context.Context) (string, error) { return "snap", nil },
		func(s string) { got <- s })
	assert.Equal(t, "snap", recv(t, got))

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription still running after context cancel")
	}
	require.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSubscribe_LoadErrorSkipsEmission(t *testing.T) {
	hub := NewHub(zap.NewNop())
	var fail atomic.Bool
	fail.Store(true)
	got := make(chan int, 4)

	sub := Subscribe(context.Background(), hub, nil,
		func(context.Context) (int, error) {
			if fail.Load() {
				return 0, errors.New("store down")
			}
			return 7, nil
		},
		func(v int) { got <- v })
	defer sub.Cancel()

	select {
	case <-got:
		t.Fatal("snapshot delivered despite load error")
	case <-time.After(50 * time.Millisecond):
	}

	fail.Store(false)
	hub.Publish(Event{})
	assert.Equal(t, 7, recv(t, got))
}
