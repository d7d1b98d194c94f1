// Package feed provides cancellable observation streams over the stores.
//
// A write publishes an Event on the Hub. Every Subscription whose match
// function accepts the event reloads its snapshot and hands it to its
// callback. Bursts of events coalesce into a single reload. Each
// subscription delivers from one goroutine, so callbacks never overlap and
// always see the most recent snapshot last.
package feed

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Collections that publish change events.
const (
	Products = "products"
	Orders   = "orders"
)

// Event announces that a document changed.
type Event struct {
	Collection string
	DocID      string
	BusinessID string // "" for legacy or untenanted documents
	UserID     string
}

// Hub fans events out to subscriptions.
type Hub struct {
	mu     sync.RWMutex
	next   uint64
	subs   map[uint64]*Subscription
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{subs: make(map[uint64]*Subscription), logger: logger}
}

// Publish signals every matching subscription. It never blocks.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		if s.match != nil && !s.match(ev) {
			continue
		}
		s.notify()
	}
}

// Len is the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) add(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	s.id = h.next
	h.subs[s.id] = s
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// Subscription is a live view. Cancel stops it.
type Subscription struct {
	id     uint64
	hub    *Hub
	match  func(Event) bool
	step   func(ctx context.Context) (func(), error)
	signal chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	stop   func() bool

	mu     sync.Mutex // held while a snapshot is being delivered
	closed bool
	once   sync.Once
	done   chan struct{}
}

// Subscribe registers a live view on h. load produces a snapshot; deliver
// receives it. The first snapshot is produced immediately. match filters the
// events that trigger a reload (nil accepts all). The subscription ends when
// ctx is done or Cancel is called.
func Subscribe[T any](ctx context.Context, h *Hub, match func(Event) bool, load func(context.Context) (T, error), deliver func(T)) *Subscription {
	subCtx, cancel := context.WithCancel(context.Background())
	s := &Subscription{
		hub:    h,
		match:  match,
		signal: make(chan struct{}, 1),
		ctx:    subCtx,
		cancel: cancel,
		done:   make(chan struct{}),
		step: func(ctx context.Context) (func(), error) {
			v, err := load(ctx)
			if err != nil {
				return nil, err
			}
			return func() { deliver(v) }, nil
		},
	}
	h.add(s)
	s.stop = context.AfterFunc(ctx, s.Cancel)
	s.notify()
	go s.run()
	return s
}

func (s *Subscription) notify() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscription) run() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.signal:
		}

		emit, err := s.step(s.ctx)
		if err != nil {
			if s.ctx.Err() == nil {
				s.hub.logger.Warn("feed snapshot failed", zap.Error(err))
			}
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		emit()
		s.mu.Unlock()
	}
}

// Cancel tears the subscription down. When it returns no callback is
// running and none will start. It must not be called from inside the
// subscription's own deliver callback.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.remove(s.id)
		s.cancel()
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		if s.stop != nil {
			s.stop()
		}
	})
}

// Done is closed once the delivery goroutine has exited.
func (s *Subscription) Done() <-chan struct{} { return s.done }
