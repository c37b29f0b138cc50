package oidc

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultCodeExpiration is how long an authorization code stays redeemable
const DefaultCodeExpiration = 5 * time.Minute

// ErrCodeExists is returned when storing a code that is already present
var ErrCodeExists = errors.New("authorization code already exists")

// AuthorizationRequestContext is everything remembered between issuing a
// code at /authorize and redeeming it at /token
type AuthorizationRequestContext struct {
	Code                string    `json:"code"`
	UserID              string    `json:"user_id"`
	Username            string    `json:"username"`
	Email               string    `json:"email,omitempty"`
	ClientID            string    `json:"client_id"`
	RedirectURI         string    `json:"redirect_uri"`
	Scope               string    `json:"scope,omitempty"`
	State               string    `json:"state,omitempty"`
	Nonce               string    `json:"nonce,omitempty"`
	CodeChallenge       string    `json:"code_challenge,omitempty"`
	CodeChallengeMethod string    `json:"code_challenge_method,omitempty"`
	IssuedAt            time.Time `json:"issued_at"`
}

// Subject returns the identity tokens are issued for
func (c *AuthorizationRequestContext) Subject() string {
	if c.Username != "" {
		return c.Username
	}
	return c.UserID
}

// AuthorizationCodeStore maps opaque codes to request contexts. Each code can
// be retrieved at most once, and not after the store's TTL has passed.
type AuthorizationCodeStore interface {
	// Store saves reqCtx under code. It never overwrites: a present code yields ErrCodeExists.
	Store(ctx context.Context, code string, reqCtx *AuthorizationRequestContext) error

	// TryRetrieve removes and returns the context for code. found is false if
	// the code is unknown, already used or expired.
	TryRetrieve(ctx context.Context, code string) (reqCtx *AuthorizationRequestContext, found bool, err error)
}

// InMemoryCodeStore implements AuthorizationCodeStore inside one process.
// It is only correct when a single instance serves /authorize and /token.
type InMemoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]*AuthorizationRequestContext
	ttl   time.Duration
	now   func() time.Time
}

// CodeStoreOption configures a code store
type CodeStoreOption func(*codeStoreOptions)

type codeStoreOptions struct {
	ttl time.Duration
	now func() time.Time
}

// WithCodeTTL sets how long codes remain redeemable
func WithCodeTTL(ttl time.Duration) CodeStoreOption {
	return func(o *codeStoreOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithCodeClock overrides the time source, used by tests
func WithCodeClock(now func() time.Time) CodeStoreOption {
	return func(o *codeStoreOptions) {
		o.now = now
	}
}

func applyCodeStoreOptions(opts []CodeStoreOption) codeStoreOptions {
	o := codeStoreOptions{ttl: DefaultCodeExpiration, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewInMemoryCodeStore creates an empty in-memory code store
func NewInMemoryCodeStore(opts ...CodeStoreOption) *InMemoryCodeStore {
	o := applyCodeStoreOptions(opts)
	return &InMemoryCodeStore{
		codes: make(map[string]*AuthorizationRequestContext),
		ttl:   o.ttl,
		now:   o.now,
	}
}

// Store saves a context and prunes expired entries
func (s *InMemoryCodeStore) Store(ctx context.Context, code string, reqCtx *AuthorizationRequestContext) error {
	if code == "" {
		return errors.New("authorization code cannot be empty")
	}
	if reqCtx == nil {
		return errors.New("authorization request context cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	if _, exists := s.codes[code]; exists {
		return ErrCodeExists
	}

	stored := *reqCtx
	stored.Code = code
	s.codes[code] = &stored
	return nil
}

// TryRetrieve removes the entry under the lock so only one caller can win
func (s *InMemoryCodeStore) TryRetrieve(ctx context.Context, code string) (*AuthorizationRequestContext, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqCtx, ok := s.codes[code]
	if !ok {
		return nil, false, nil
	}
	delete(s.codes, code)

	if s.expired(reqCtx) {
		return nil, false, nil
	}
	return reqCtx, true, nil
}

// Len returns the number of codes currently held
func (s *InMemoryCodeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}

func (s *InMemoryCodeStore) expired(reqCtx *AuthorizationRequestContext) bool {
	return s.now().Sub(reqCtx.IssuedAt) > s.ttl
}

// sweep must be called with mu held
func (s *InMemoryCodeStore) sweep() {
	for code, reqCtx := range s.codes {
		if s.expired(reqCtx) {
			delete(s.codes, code)
		}
	}
}
