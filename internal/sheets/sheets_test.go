package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/models"
)

type capture struct {
	mu   sync.Mutex
	rows []map[string]any
}

func (c *capture) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var row map[string]any
		_ = json.NewDecoder(r.Body).Decode(&row)
		c.mu.Lock()
		c.rows = append(c.rows, row)
		c.mu.Unlock()
		w.WriteHeader(status)
	}
}

func TestLogOrder_PostsTypedRow(t *testing.T) {
	c := &capture{}
	srv := httptest.NewServer(c.handler(http.StatusOK))
	defer srv.Close()

	l := New(srv.URL, zap.NewNop())
	require.NoError(t, l.LogOrder(context.Background(), models.OrderSummary{OrderID: "o1", Total: "900.00"}))

	require.Len(t, c.rows, 1)
	assert.Equal(t, "order", c.rows[0]["type"])
	assert.Equal(t, "o1", c.rows[0]["orderId"])
	assert.Equal(t, "900.00", c.rows[0]["total"])
	assert.NotEmpty(t, c.rows[0]["timestamp"])
}

func TestLogContact_ServerError(t *testing.T) {
	c := &capture{}
	srv := httptest.NewServer(c.handler(http.StatusInternalServerError))
	defer srv.Close()

	err := New(srv.URL, zap.NewNop()).LogContact(context.Background(), Contact{Name: "Asha", Message: "Hi"})
	require.Error(t, err)
	assert.Equal(t, "contact", c.rows[0]["type"])
}

func TestDisabled(t *testing.T) {
	l := New("", zap.NewNop())
	assert.False(t, l.Enabled())
	assert.ErrorIs(t, l.LogUser(context.Background(), &models.User{ID: "u1"}), ErrDisabled)

	called := false
	l.Async("user", func(context.Context) error { called = true; return nil })
	l.Wait()
	assert.False(t, called)
}

func TestAsync_RunsInBackground(t *testing.T) {
	c := &capture{}
	srv := httptest.NewServer(c.handler(http.StatusOK))
	defer srv.Close()

	l := New(srv.URL, zap.NewNop())
	u := &models.User{ID: "u1", Name: "Asha", Email: "asha@x.test"}
	l.Async("user", func(ctx context.Context) error { return l.LogUser(ctx, u) })
	l.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	require.Len(t, c.rows, 1)
	assert.Equal(t, "user", c.rows[0]["type"])
	assert.Equal(t, "asha@x.test", c.rows[0]["email"])
}
