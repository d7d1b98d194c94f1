package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/a2z-storefront/internal/models"
)

type feedMessage struct {
	Type     string           `json:"type"`
	State    string           `json:"state"`
	Slug     string           `json:"slug"`
	Store    *models.Tenant   `json:"store"`
	Products []models.Product `json:"products"`
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until match accepts one or the deadline passes.
func readUntil(t *testing.T, conn *websocket.Conn, match func(feedMessage) bool) feedMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg feedMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func TestWatchStoreProducts(t *testing.T) {
	h := newHarness(t)
	acme := h.registerBusiness("Acme", "owner@acme.test", "acme")
	h.registerBusiness("Bolt", "owner@bolt.test", "bolt")
	h.addProduct("acme", acme.Session.Token, "Mug", 300)

	srv := httptest.NewServer(h.router)
	defer srv.Close()
	conn := dial(t, srv, "/v1/stores/acme/products/ws")

	first := readUntil(t, conn, func(m feedMessage) bool { return m.Type == "products" })
	require.Equal(t, "acme", first.Store.Slug)
	require.Len(t, first.Products, 1)

	h.addProduct("acme", acme.Session.Token, "Bowl", 150)
	readUntil(t, conn, func(m feedMessage) bool { return m.Type == "products" && len(m.Products) == 2 })

	require.NoError(t, conn.WriteJSON(map[string]string{"slug": "bolt"}))
	bolt := readUntil(t, conn, func(m feedMessage) bool { return m.Type == "products" && m.Store.Slug == "bolt" })
	require.Empty(t, bolt.Products)

	require.NoError(t, conn.WriteJSON(map[string]string{"slug": "nowhere"}))
	gone := readUntil(t, conn, func(m feedMessage) bool { return m.Type == "store" })
	require.Equal(t, "not_found", gone.State)
	require.Equal(t, "nowhere", gone.Slug)
}

func TestWatchMyOrdersClosesOnLogout(t *testing.T) {
	h := newHarness(t)
	s := h.register("Asha", "asha@x.test")

	srv := httptest.NewServer(h.router)
	defer srv.Close()
	conn := dial(t, srv, "/v1/me/orders/ws?token="+s.Token)
	readUntil(t, conn, func(m feedMessage) bool { return m.Type == "orders" })

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/v1/auth/logout", s.Token, nil).Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err)
			return
		}
	}
}
