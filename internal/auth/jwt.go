package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is what a session token proves.
type Claims struct {
	UserID    string
	TokenID   string // jti, used to revoke the session on logout
	Epoch     int64  // sessions of the user end when their epoch moves on
	ExpiresAt time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Epoch int64 `json:"sep,omitempty"`
}

// Manager signs and checks session tokens (HS256).
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken creates a new JWT (passport) for a given user ID in the
// user's current session epoch.
func (m *Manager) GenerateToken(userID string, epoch int64) (string, *Claims, error) {
	// 1. Create the "claims" (the data inside the passport).
	now := m.now()
	claims := &Claims{
		UserID:    userID,
		TokenID:   uuid.NewString(),
		Epoch:     epoch,
		ExpiresAt: now.Add(m.ttl),
	}
	registered := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			ID:        claims.TokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
		Epoch: epoch,
	}

	// 2. Sign it using the 'HS256' algorithm and our secret key.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, registered)
	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return tokenString, claims, nil
}

// ValidateToken parses and validates a JWT token string.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	// 1. Parse the token string, pinning the signing method.
	var registered sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &registered, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	// 2. A session needs both a subject and a token id.
	if registered.Subject == "" || registered.ID == "" || registered.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return &Claims{
		UserID:    registered.Subject,
		TokenID:   registered.ID,
		Epoch:     registered.Epoch,
		ExpiresAt: registered.ExpiresAt.Time,
	}, nil
}
