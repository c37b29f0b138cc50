package refreshtoken

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainRequest(hash string, now time.Time) CreateRefreshTokenRequest {
	return CreateRefreshTokenRequest{
		TokenHash: hash,
		Subject:   "user-1",
		ClientID:  "finance-web",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestInMemoryRepository_RotateInactive(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	_, err := repo.Create(ctx, chainRequest("a", now))
	require.NoError(t, err)

	result, err := repo.Rotate(ctx, "a", chainRequest("b", now))
	require.NoError(t, err)
	assert.True(t, result.Rotated)
	assert.False(t, result.Previous.Revoked, "previous reflects the state before rotation")

	result, err = repo.Rotate(ctx, "a", chainRequest("c", now))
	require.NoError(t, err)
	assert.False(t, result.Rotated)
	assert.Nil(t, result.Current)
	assert.True(t, result.Previous.Revoked)
	assert.Equal(t, "b", result.Previous.ReplacedByHash)

	_, err = repo.GetByHash(ctx, "c")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Rotate(ctx, "missing", chainRequest("d", now))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryRepository_RevokeChainFromAnyLink(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	for _, start := range []string{"a", "b", "c", "d"} {
		t.Run(start, func(t *testing.T) {
			repo := NewInMemoryRepository()
			_, err := repo.Create(ctx, chainRequest("a", now))
			require.NoError(t, err)
			for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}} {
				_, err := repo.Rotate(ctx, pair[0], chainRequest(pair[1], now))
				require.NoError(t, err)
			}

			count, err := repo.RevokeChain(ctx, start, now)
			require.NoError(t, err)
			assert.Equal(t, 1, count, "only the tip was still active")

			for _, hash := range []string{"a", "b", "c", "d"} {
				token, err := repo.GetByHash(ctx, hash)
				require.NoError(t, err)
				assert.True(t, token.Revoked, hash)
			}
		})
	}
}

func TestInMemoryRepository_RevokeChainLeavesOtherChains(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	_, err := repo.Create(ctx, chainRequest("a", now))
	require.NoError(t, err)
	_, err = repo.Create(ctx, chainRequest("x", now))
	require.NoError(t, err)

	_, err = repo.RevokeChain(ctx, "a", now)
	require.NoError(t, err)

	other, err := repo.GetByHash(ctx, "x")
	require.NoError(t, err)
	assert.False(t, other.Revoked)

	_, err = repo.RevokeChain(ctx, "missing", now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, chainRequest("a", time.Now()))
	require.NoError(t, err)

	token, err := repo.GetByHash(ctx, "a")
	require.NoError(t, err)
	token.Revoked = true

	again, err := repo.GetByHash(ctx, "a")
	require.NoError(t, err)
	assert.False(t, again.Revoked)
}
