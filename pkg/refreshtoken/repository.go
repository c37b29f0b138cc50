package refreshtoken

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no token has the given hash
var ErrNotFound = errors.New("refresh token not found")

// Repository is durable storage for refresh token chains
type Repository interface {
	// Create persists the first token of a new chain
	Create(ctx context.Context, req CreateRefreshTokenRequest) (*RefreshToken, error)

	// GetByHash returns the token with the given hash or ErrNotFound
	GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// Rotate atomically revokes the token identified by tokenHash, persists next
	// and links them, provided the token is active at next.CreatedAt. Concurrent
	// rotations of the same token are serialised: exactly one observes it active.
	Rotate(ctx context.Context, tokenHash string, next CreateRefreshTokenRequest) (*RotateResult, error)

	// RevokeChain walks from tokenHash back to the root of its chain and then
	// forward through every successor, revoking each. It returns the number of
	// tokens newly revoked.
	RevokeChain(ctx context.Context, tokenHash string, revokedAt time.Time) (int, error)

	// DeleteExpired removes tokens that expired before the cutoff
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// maxChainLength bounds chain traversal so a corrupted link cycle cannot loop forever
const maxChainLength = 100000
