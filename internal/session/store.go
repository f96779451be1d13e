package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/client/internal/errs"
	"github.com/anonto42/nano-midea/client/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

// Names of the persisted credential values.
const (
	TokenKey  = "access_token"
	UserIDKey = "userId"
)

// Store owns the authentication state. The in-memory session only changes
// after the vault has committed the matching durable state.
type Store struct {
	vault  Vault
	logger *log.Logger
	now    func() time.Time

	// txn serializes transitions so durable and in-memory state move together.
	txn sync.Mutex

	mu      sync.RWMutex
	session models.Session
	subs    map[int]func(models.Session)
	nextSub int
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for non-fatal failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the clock used to check token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store backed by vault
func NewStore(vault Vault, opts ...Option) *Store {
	s := &Store{
		vault:  vault,
		logger: log.Default(),
		now:    time.Now,
		subs:   make(map[int]func(models.Session)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize restores the persisted session. It never fails: unreadable
// storage yields an unauthenticated session and is only logged.
func (s *Store) Initialize(ctx context.Context) models.Session {
	s.txn.Lock()
	defer s.txn.Unlock()

	restored := s.restore(ctx)
	s.commit(restored)
	return restored
}

func (s *Store) restore(ctx context.Context) models.Session {
	token, ok, err := s.vault.Get(ctx, TokenKey)
	if err != nil {
		s.logger.Printf("session: failed to read stored token: %v", err)
		return models.Session{}
	}
	if !ok || token == "" {
		return models.Session{}
	}
	if expired(token, s.now()) {
		s.logger.Println("session: stored token has expired, clearing it")
		if err := s.clear(ctx); err != nil {
			s.logger.Printf("session: failed to clear expired token: %v", err)
		}
		return models.Session{}
	}
	userID, ok, err := s.vault.Get(ctx, UserIDKey)
	if err != nil || !ok || userID == "" {
		if err != nil {
			s.logger.Printf("session: failed to read stored user id: %v", err)
		}
		s.logger.Println("session: stored token has no user id, clearing it")
		if err := s.clear(ctx); err != nil {
			s.logger.Printf("session: failed to clear orphaned token: %v", err)
		}
		return models.Session{}
	}
	return models.Session{Token: token, UserID: userID}
}

// Login persists userID, then token, then marks the session authenticated. The
// token is written last so storage never holds a token without its user. On a
// persistence failure the session stays unauthenticated.
func (s *Store) Login(ctx context.Context, token, userID string) error {
	if token == "" {
		return errs.Validation("login", "token is required")
	}
	if userID == "" {
		return errs.Validation("login", "user id is required")
	}

	s.txn.Lock()
	defer s.txn.Unlock()

	if err := s.vault.Set(ctx, UserIDKey, userID); err != nil {
		return errs.Persistence("login", err)
	}
	if err := s.vault.Set(ctx, TokenKey, token); err != nil {
		if derr := s.vault.Delete(ctx, UserIDKey); derr != nil {
			s.logger.Printf("session: failed to roll back user id after failed login: %v", derr)
		}
		return errs.Persistence("login", err)
	}
	s.commit(models.Session{Token: token, UserID: userID})
	return nil
}

// Logout deletes the persisted credentials, then clears the session. It is a
// no-op when already logged out. A failed delete leaves the session as it was.
func (s *Store) Logout(ctx context.Context) error {
	s.txn.Lock()
	defer s.txn.Unlock()

	if !s.Read().Authenticated() {
		return nil
	}
	if err := s.clear(ctx); err != nil {
		return errs.Persistence("logout", err)
	}
	s.commit(models.Session{})
	return nil
}

// clear removes the token first so a partial failure never leaves a durable
// token behind a cleared user id.
func (s *Store) clear(ctx context.Context) error {
	if err := s.vault.Delete(ctx, TokenKey); err != nil {
		return err
	}
	return s.vault.Delete(ctx, UserIDKey)
}

// Read returns the current in-memory session.
func (s *Store) Read() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Subscribe registers fn to be called after every committed transition. The
// returned func removes the subscription.
func (s *Store) Subscribe(fn func(models.Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) commit(next models.Session) {
	s.mu.Lock()
	s.session = next
	subs := make([]func(models.Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

// expired reports whether token is a JWT whose exp claim has passed. Tokens
// that are not JWTs never expire here.
func expired(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(now)
}
