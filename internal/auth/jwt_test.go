package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, claims, err := m.GenerateToken("u1", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.TokenID)

	got, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, claims.TokenID, got.TokenID)
	assert.Equal(t, int64(3), got.Epoch)
}

func TestManager_RejectsForeignAndExpired(t *testing.T) {
	m := NewManager("secret", time.Hour)
	token, _, err := m.GenerateToken("u1", 0)
	require.NoError(t, err)

	_, err = NewManager("other", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	later := NewManager("secret", time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
