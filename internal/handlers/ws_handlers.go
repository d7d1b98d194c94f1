package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/identity"
	"github.com/01moynul/a2z-storefront/internal/middleware"
	"github.com/01moynul/a2z-storefront/internal/models"
	"github.com/01moynul/a2z-storefront/internal/tenancy"
)

//
// --- Live Views (WebSocket) ---
//

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsConn serialises writes; gorilla allows one concurrent writer.
type wsConn struct {
	conn   *websocket.Conn
	logger *zap.Logger
	mu     sync.Mutex
}

func (h *Handlers) upgrade(c *gin.Context) (*wsConn, bool) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.Logger.Debug("websocket upgrade failed", zap.Error(err))
		return nil, false
	}
	return &wsConn{conn: conn, logger: h.Logger}, true
}

func (w *wsConn) send(v any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := w.conn.WriteJSON(v); err != nil {
		w.logger.Debug("websocket write failed", zap.Error(err))
	}
}

func (w *wsConn) control(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(messageType, data, time.Now().Add(writeWait))
}

// run reads client messages until the client goes away or ctx ends. It
// keeps the connection alive with pings.
func (w *wsConn) run(ctx context.Context, onMessage func([]byte)) {
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				_ = w.control(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				w.conn.Close()
				return
			case <-ticker.C:
				if err := w.control(websocket.PingMessage, nil); err != nil {
					w.conn.Close()
					return
				}
			}
		}
	}()

	w.conn.SetReadLimit(maxMessageSize)
	_ = w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			return
		}
		if onMessage != nil {
			onMessage(msg)
		}
	}
}

// liveContext outlives the hijacked request.
func liveContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(context.WithoutCancel(c.Request.Context()))
}

// WatchStoreProducts is the handler for GET /v1/stores/:slug/products/ws
// The client may send {"slug": "..."} to switch stores on the same socket;
// listings of the previous store stop before the new store's first listing.
func (h *Handlers) WatchStoreProducts(c *gin.Context) {
	ws, ok := h.upgrade(c)
	if !ok {
		return
	}
	defer ws.conn.Close()
	ctx, cancel := liveContext(c)
	defer cancel()

	resolver := tenancy.NewResolver(h.Directory)
	unwatch := resolver.Watch(func(s tenancy.Snapshot) {
		if s.State == tenancy.NotFound {
			ws.send(gin.H{"type": "store", "state": s.State.String(), "slug": s.Slug})
		}
	})
	defer unwatch()

	binding := h.Catalog.Bind(resolver, func(t *models.Tenant, products []models.Product) {
		ws.send(gin.H{"type": "products", "store": t, "products": products})
	})
	defer binding.Close()

	resolver.Navigate(ctx, c.Param("slug"))
	ws.run(ctx, func(msg []byte) {
		var in struct {
			Slug string `json:"slug"`
		}
		if err := json.Unmarshal(msg, &in); err != nil || in.Slug == "" {
			ws.send(gin.H{"type": "error", "error": `expected {"slug": "..."}`})
			return
		}
		resolver.Navigate(ctx, in.Slug)
	})
}

// WatchOrder is the handler for GET /v1/orders/:id/ws
func (h *Handlers) WatchOrder(c *gin.Context) {
	o, ok := h.loadViewableOrder(c)
	if !ok {
		return
	}
	ws, ok := h.upgrade(c)
	if !ok {
		return
	}
	defer ws.conn.Close()
	ctx, cancel := liveContext(c)
	defer cancel()

	sub := h.Ledger.WatchOrder(ctx, o.ID, func(o *models.Order) {
		ws.send(gin.H{"type": "order", "order": o})
	})
	defer sub.Cancel()
	ws.run(ctx, nil)
}

// WatchMyOrders is the handler for GET /v1/me/orders/ws
// The socket closes when the session signs out or the password is reset.
func (h *Handlers) WatchMyOrders(c *gin.Context) {
	u := middleware.CurrentUser(c)
	var tokenID string
	if v, ok := c.Get(middleware.KeyIdentity); ok {
		tokenID = v.(*identity.Identity).TokenID
	}

	ws, ok := h.upgrade(c)
	if !ok {
		return
	}
	defer ws.conn.Close()
	ctx, cancel := liveContext(c)
	defer cancel()

	unsubscribe := h.Identity.OnIdentityChanged(func(ch identity.Change) {
		switch {
		case ch.Kind == identity.ChangeLogout && ch.TokenID == tokenID:
			cancel()
		case ch.Kind == identity.ChangeSignedOutEverywhere && ch.UserID == u.ID:
			cancel()
		}
	})
	defer unsubscribe()

	sub := h.Ledger.WatchBuyer(ctx, u.ID, func(orders []models.Order) {
		ws.send(gin.H{"type": "orders", "orders": orders})
	})
	defer sub.Cancel()
	ws.run(ctx, nil)
}

// WatchStoreOrders is the handler for GET /v1/stores/:slug/admin/orders/ws
func (h *Handlers) WatchStoreOrders(c *gin.Context) {
	t := middleware.CurrentTenant(c)
	ws, ok := h.upgrade(c)
	if !ok {
		return
	}
	defer ws.conn.Close()
	ctx, cancel := liveContext(c)
	defer cancel()

	sub := h.Ledger.WatchTenant(ctx, t.ID, func(orders []models.Order) {
		ws.send(gin.H{"type": "orders", "orders": orders})
	})
	defer sub.Cancel()
	ws.run(ctx, nil)
}
