// Package identity handles accounts and sessions, and answers the two
// authorization questions of the storefront: is this user a platform admin,
// and may this user manage this store.
package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/auth"
	"github.com/01moynul/a2z-storefront/internal/email"
	"github.com/01moynul/a2z-storefront/internal/models"
	"github.com/01moynul/a2z-storefront/internal/repository"
	"github.com/01moynul/a2z-storefront/internal/sheets"
	"github.com/01moynul/a2z-storefront/internal/store"
)

const (
	minPasswordLength = 6
	verificationTTL   = email.VerificationExpiryMinutes * time.Minute
	maxVerifyAttempts = 5
	resetTTL          = 30 * time.Minute
)

// Change kinds reported to OnIdentityChanged listeners.
const (
	ChangeRegister = "register"
	ChangeLogin    = "login"
	ChangeLogout   = "logout"
	ChangeProfile  = "profile"
	// ChangeSignedOutEverywhere ends every session of UserID.
	ChangeSignedOutEverywhere = "signed_out_everywhere"
)

// Change describes a sign-in state change. User is nil on logout.
type Change struct {
	Kind    string
	UserID  string
	TokenID string
	User    *models.User
}

// Session is a signed-in identity with its bearer token.
type Session struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// Identity is the result of restoring a session from a token.
type Identity struct {
	User      *models.User
	TokenID   string
	ExpiresAt time.Time
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     string // user or seller; admin comes only from the allowlist seed
}

type Service struct {
	users  repository.UserRepository
	tokens *auth.Manager
	kv     store.KV
	mailer *email.Mailer
	sheets *sheets.Logger
	logger *zap.Logger

	// adminSeed is the legacy allowlist. It is copied into the role field
	// by SeedAdmins and Register and is never read by an authorization check.
	adminSeed map[string]bool

	mu        sync.Mutex
	listeners map[int]func(Change)
	nextID    int

	now func() time.Time
}

func NewService(users repository.UserRepository, tokens *auth.Manager, kv store.KV, mailer *email.Mailer,
	sheetsLogger *sheets.Logger, logger *zap.Logger, adminSeed []string) *Service {
	seed := make(map[string]bool, len(adminSeed))
	for _, e := range adminSeed {
		if e = normalizeEmail(e); e != "" {
			seed[e] = true
		}
	}
	return &Service{
		users:     users,
		tokens:    tokens,
		kv:        kv,
		mailer:    mailer,
		sheets:    sheetsLogger,
		logger:    logger,
		adminSeed: seed,
		listeners: map[int]func(Change){},
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// IsPlatformAdmin is the single platform-level authorization check.
func IsPlatformAdmin(u *models.User) bool {
	return u != nil && u.EffectiveRole() == models.RoleAdmin
}

// CanManage reports whether u may administer store t: its owner or a
// platform admin.
func CanManage(u *models.User, t *models.Tenant) bool {
	if u == nil || t == nil {
		return false
	}
	return t.OwnerID == u.ID || IsPlatformAdmin(u)
}

// OnIdentityChanged registers fn for sign-in state changes.
func (s *Service) OnIdentityChanged(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Service) notify(c Change) {
	s.mu.Lock()
	fns := make([]func(Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

func epochKey(userID string) string { return "session:epoch:" + userID }

// epoch is the user's current session epoch. Tokens from an older epoch are
// no longer accepted.
func (s *Service) epoch(ctx context.Context, userID string) (int64, error) {
	raw, err := s.kv.Get(ctx, epochKey(userID))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return 0, nil
		}
		return 0, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("identity: bad session epoch for %s: %w", userID, err)
	}
	return n, nil
}

func (s *Service) issue(ctx context.Context, u *models.User) (*Session, *auth.Claims, error) {
	epoch, err := s.epoch(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	token, claims, err := s.tokens.GenerateToken(u.ID, epoch)
	if err != nil {
		return nil, nil, err
	}
	return &Session{User: u, Token: token, ExpiresAt: claims.ExpiresAt}, claims, nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	addr := normalizeEmail(in.Email)
	if addr == "" || !strings.Contains(addr, "@") {
		return nil, apperr.Invalid("email", "a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Invalid("password", "password must be at least 6 characters")
	}
	role := in.Role
	switch role {
	case "":
		role = models.RoleUser
	case models.RoleUser, models.RoleSeller:
	default:
		return nil, apperr.Invalid("role", "role must be user or seller")
	}
	if s.adminSeed[addr] {
		role = models.RoleAdmin
	}

	var pw models.Password
	if err := pw.Set(in.Password); err != nil {
		return nil, err
	}
	now := s.now()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        addr,
		PasswordHash: pw.Hash,
		Name:         strings.TrimSpace(in.Name),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	sess, claims, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", u.ID), zap.String("role", u.Role))

	if err := s.sendVerification(ctx, u.Email); err != nil {
		s.logger.Warn("verification email failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	s.sheets.Async("user", func(ctx context.Context) error { return s.sheets.LogUser(ctx, u) })

	s.notify(Change{Kind: ChangeRegister, UserID: u.ID, TokenID: claims.TokenID, User: u})
	return sess, nil
}

func (s *Service) Login(ctx context.Context, addr, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(addr))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthorized)
		}
		return nil, err
	}
	pw := models.Password{Hash: u.PasswordHash}
	ok, err := pw.Matches(password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthorized)
	}
	u.Role = u.EffectiveRole()

	sess, claims, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}
	s.notify(Change{Kind: ChangeLogin, UserID: u.ID, TokenID: claims.TokenID, User: u})
	return sess, nil
}

func revokedKey(tokenID string) string { return "session:revoked:" + tokenID }

// Logout revokes the session until its natural expiry.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return apperr.ErrUnauthorized
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl > 0 {
		if err := s.kv.Set(ctx, revokedKey(claims.TokenID), "1", ttl); err != nil {
			return err
		}
	}
	s.notify(Change{Kind: ChangeLogout, UserID: claims.UserID, TokenID: claims.TokenID})
	return nil
}

// Restore turns a bearer token back into an identity: the token must be
// valid and not revoked, and the profile must still exist.
func (s *Service) Restore(ctx context.Context, token string) (*Identity, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, apperr.ErrUnauthorized
	}
	_, err = s.kv.Get(ctx, revokedKey(claims.TokenID))
	switch {
	case err == nil:
		return nil, apperr.ErrUnauthorized
	case !errors.Is(err, store.ErrMiss):
		return nil, err
	}

	epoch, err := s.epoch(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if claims.Epoch != epoch {
		return nil, apperr.ErrUnauthorized
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, err
	}
	u.Role = u.EffectiveRole()
	return &Identity{User: u, TokenID: claims.TokenID, ExpiresAt: claims.ExpiresAt}, nil
}

// UpdateProfile merges the non-nil fields of patch. Credentials and role are
// not part of the profile patch.
func (s *Service) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(u)
	u.UpdatedAt = s.now()
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	u.Role = u.EffectiveRole()
	s.notify(Change{Kind: ChangeProfile, UserID: u.ID, User: u})
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// --- verification codes ---

func verifyKey(addr string) string { return "verify:" + addr }

func verifyAttemptsKey(addr string) string { return "verify:attempts:" + addr }

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *Service) sendVerification(ctx context.Context, addr string) error {
	code, err := newCode()
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, verifyKey(addr), code, verificationTTL); err != nil {
		return err
	}
	if err := s.kv.Del(ctx, verifyAttemptsKey(addr)); err != nil {
		return err
	}
	return s.mailer.VerificationCode(ctx, addr, code)
}

// VerifyEmail checks a code sent at sign-up. After maxVerifyAttempts wrong
// guesses the code is discarded and a new one must be requested.
func (s *Service) VerifyEmail(ctx context.Context, addr, code string) error {
	addr = normalizeEmail(addr)
	stored, err := s.kv.Get(ctx, verifyKey(addr))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return apperr.Invalid("code", "verification code is invalid or has expired")
		}
		return err
	}
	if stored != strings.TrimSpace(code) {
		attempts, err := s.kv.Incr(ctx, verifyAttemptsKey(addr), verificationTTL)
		if err != nil {
			return err
		}
		if attempts >= maxVerifyAttempts {
			if err := s.kv.Del(ctx, verifyKey(addr), verifyAttemptsKey(addr)); err != nil {
				return err
			}
			return apperr.Invalid("code", "too many attempts, request a new code")
		}
		return apperr.Invalid("code", "verification code is invalid or has expired")
	}
	u, err := s.users.GetByEmail(ctx, addr)
	if err != nil {
		return err
	}
	if err := s.users.SetEmailVerified(ctx, u.ID, true); err != nil {
		return err
	}
	return s.kv.Del(ctx, verifyKey(addr), verifyAttemptsKey(addr))
}

// ResendVerification issues a fresh code. Unknown or verified addresses are
// accepted silently.
func (s *Service) ResendVerification(ctx context.Context, addr string) error {
	addr = normalizeEmail(addr)
	u, err := s.users.GetByEmail(ctx, addr)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if u.EmailVerified {
		return nil
	}
	return s.sendVerification(ctx, addr)
}

// --- password reset ---

func resetKey(token string) string { return "reset:" + token }

// ResetPassword mails a reset token. Unknown emails are accepted silently so
// the endpoint cannot be used to discover accounts.
func (s *Service) ResetPassword(ctx context.Context, addr string) error {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(addr))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}
	token := uuid.NewString()
	if err := s.kv.Set(ctx, resetKey(token), u.ID, resetTTL); err != nil {
		return err
	}
	if err := s.mailer.PasswordReset(ctx, u.Email, token); err != nil {
		s.logger.Warn("password reset email failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	return nil
}

// ConfirmPasswordReset sets a new password using a mailed token and signs the
// user out of every existing session.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperr.Invalid("password", "password must be at least 6 characters")
	}
	userID, err := s.kv.Get(ctx, resetKey(token))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return apperr.Invalid("token", "reset link is invalid or has expired")
		}
		return err
	}
	var pw models.Password
	if err := pw.Set(newPassword); err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, userID, pw.Hash); err != nil {
		return err
	}
	if err := s.kv.Del(ctx, resetKey(token)); err != nil {
		return err
	}
	// Every session signed in with the old password ends here.
	if _, err := s.kv.Incr(ctx, epochKey(userID), 0); err != nil {
		return err
	}
	s.notify(Change{Kind: ChangeSignedOutEverywhere, UserID: userID})
	return nil
}

// --- platform operator ---

// SeedAdmins copies the legacy allowlist into profile roles. It returns how
// many profiles were promoted.
func (s *Service) SeedAdmins(ctx context.Context) (int, error) {
	promoted := 0
	for addr := range s.adminSeed {
		u, err := s.users.GetByEmail(ctx, addr)
		if err != nil {
			if apperr.IsNotFound(err) {
				continue
			}
			return promoted, err
		}
		if u.Role == models.RoleAdmin {
			continue
		}
		if err := s.users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
			return promoted, err
		}
		promoted++
		s.logger.Info("admin role seeded from allowlist", zap.String("user_id", u.ID))
	}
	return promoted, nil
}

// EnsureSeller upgrades a plain user to seller once they own a store.
func (s *Service) EnsureSeller(ctx context.Context, u *models.User) error {
	if u.EffectiveRole() != models.RoleUser {
		return nil
	}
	if err := s.users.SetRole(ctx, u.ID, models.RoleSeller); err != nil {
		return err
	}
	u.Role = models.RoleSeller
	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Role = users[i].EffectiveRole()
	}
	return users, nil
}

func (s *Service) SetRole(ctx context.Context, id, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, apperr.Invalid("role", "unknown role")
	}
	if err := s.users.SetRole(ctx, id, role); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}
