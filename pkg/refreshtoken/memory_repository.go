package refreshtoken

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InMemoryRepository implements Repository with maps guarded by one mutex.
// It is used in tests and in single-process development setups.
type InMemoryRepository struct {
	mu          sync.Mutex
	tokens      map[string]*RefreshToken
	predecessor map[string]string
	nextID      int64
}

// NewInMemoryRepository creates an empty in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		tokens:      make(map[string]*RefreshToken),
		predecessor: make(map[string]string),
	}
}

func (r *InMemoryRepository) insert(req CreateRefreshTokenRequest) (*RefreshToken, error) {
	if _, exists := r.tokens[req.TokenHash]; exists {
		return nil, fmt.Errorf("refresh token already exists")
	}
	r.nextID++
	token := &RefreshToken{
		ID:        r.nextID,
		TokenHash: req.TokenHash,
		Subject:   req.Subject,
		ClientID:  req.ClientID,
		CreatedAt: req.CreatedAt,
		ExpiresAt: req.ExpiresAt,
		IPAddress: req.IPAddress,
		DeviceID:  req.DeviceID,
	}
	r.tokens[req.TokenHash] = token
	return token, nil
}

// Create persists the first token of a new chain
func (r *InMemoryRepository) Create(ctx context.Context, req CreateRefreshTokenRequest) (*RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, err := r.insert(req)
	if err != nil {
		return nil, err
	}
	return copyToken(token), nil
}

// GetByHash returns a copy of the token with the given hash
func (r *InMemoryRepository) GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[tokenHash]
	if !ok {
		return nil, ErrNotFound
	}
	return copyToken(token), nil
}

// Rotate revokes, creates and links under the repository lock
func (r *InMemoryRepository) Rotate(ctx context.Context, tokenHash string, next CreateRefreshTokenRequest) (*RotateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.tokens[tokenHash]
	if !ok {
		return nil, ErrNotFound
	}
	previous := copyToken(current)
	if !current.IsActive(next.CreatedAt) {
		return &RotateResult{Previous: previous}, nil
	}

	created, err := r.insert(next)
	if err != nil {
		return nil, err
	}

	revokedAt := next.CreatedAt
	current.Revoked = true
	current.RevokedAt = &revokedAt
	current.ReplacedByHash = created.TokenHash
	r.predecessor[created.TokenHash] = tokenHash

	return &RotateResult{
		Previous: previous,
		Current:  copyToken(created),
		Rotated:  true,
	}, nil
}

// RevokeChain revokes every token linked to tokenHash
func (r *InMemoryRepository) RevokeChain(ctx context.Context, tokenHash string, revokedAt time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[tokenHash]; !ok {
		return 0, ErrNotFound
	}

	root := tokenHash
	for i := 0; i < maxChainLength; i++ {
		prev, ok := r.predecessor[root]
		if !ok {
			break
		}
		if _, exists := r.tokens[prev]; !exists {
			break
		}
		root = prev
	}

	revoked := 0
	visited := make(map[string]bool)
	for current := root; current != "" && !visited[current]; {
		visited[current] = true
		token, ok := r.tokens[current]
		if !ok {
			break
		}
		if !token.Revoked {
			at := revokedAt
			token.Revoked = true
			token.RevokedAt = &at
			revoked++
		}
		current = token.ReplacedByHash
	}
	return revoked, nil
}

// DeleteExpired removes tokens that expired before the cutoff
func (r *InMemoryRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for hash, token := range r.tokens {
		if token.ExpiresAt.Before(before) {
			delete(r.tokens, hash)
			delete(r.predecessor, hash)
			deleted++
		}
	}
	return deleted, nil
}

func copyToken(t *RefreshToken) *RefreshToken {
	c := *t
	if t.RevokedAt != nil {
		at := *t.RevokedAt
		c.RevokedAt = &at
	}
	return &c
}
