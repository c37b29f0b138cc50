package refreshtoken

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithInitScripts(filepath.Join("../../migrations", "authz_db.sql")),
		postgres.WithDatabase("authz_db"),
		postgres.WithUsername("authz"),
		postgres.WithPassword("pwd"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	poolConfig, err := pgxpool.ParseConfig(connString)
	require.NoError(t, err)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func TestPostgresRepository(t *testing.T) {
	pool := setupTestDatabase(t)
	repo := NewPostgresRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("create and get", func(t *testing.T) {
		req := chainRequest("pg-a", now)
		req.IPAddress = "10.0.0.1"
		created, err := repo.Create(ctx, req)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)

		got, err := repo.GetByHash(ctx, "pg-a")
		require.NoError(t, err)
		assert.Equal(t, "user-1", got.Subject)
		assert.Equal(t, "10.0.0.1", got.IPAddress)
		assert.WithinDuration(t, now.Add(time.Hour), got.ExpiresAt, time.Millisecond)
		assert.False(t, got.Revoked)
		assert.Nil(t, got.RevokedAt)

		_, err = repo.GetByHash(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rotate and reuse", func(t *testing.T) {
		result, err := repo.Rotate(ctx, "pg-a", chainRequest("pg-b", now))
		require.NoError(t, err)
		require.True(t, result.Rotated)
		assert.Equal(t, "pg-b", result.Current.TokenHash)

		old, err := repo.GetByHash(ctx, "pg-a")
		require.NoError(t, err)
		assert.True(t, old.Revoked)
		assert.Equal(t, "pg-b", old.ReplacedByHash)

		result, err = repo.Rotate(ctx, "pg-a", chainRequest("pg-c", now))
		require.NoError(t, err)
		assert.False(t, result.Rotated)
		assert.True(t, result.Previous.HasSuccessor())

		_, err = repo.GetByHash(ctx, "pg-c")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("revoke chain from root", func(t *testing.T) {
		_, err := repo.Rotate(ctx, "pg-b", chainRequest("pg-d", now))
		require.NoError(t, err)

		count, err := repo.RevokeChain(ctx, "pg-a", now)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		for _, hash := range []string{"pg-a", "pg-b", "pg-d"} {
			token, err := repo.GetByHash(ctx, hash)
			require.NoError(t, err)
			assert.True(t, token.Revoked, hash)
		}
	})

	t.Run("concurrent rotation", func(t *testing.T) {
		_, err := repo.Create(ctx, chainRequest("pg-race", now))
		require.NoError(t, err)

		var wg sync.WaitGroup
		results := make([]*RotateResult, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				next := chainRequest("pg-race-"+string(rune('a'+i)), now)
				result, err := repo.Rotate(ctx, "pg-race", next)
				assert.NoError(t, err)
				results[i] = result
			}(i)
		}
		wg.Wait()

		rotated := 0
		for _, result := range results {
			if result != nil && result.Rotated {
				rotated++
			}
		}
		assert.Equal(t, 1, rotated)
	})

	t.Run("cancelled rotation leaves token active", func(t *testing.T) {
		_, err := repo.Create(ctx, chainRequest("pg-cancel", now))
		require.NoError(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = repo.Rotate(cancelled, "pg-cancel", chainRequest("pg-cancel-next", now))
		assert.Error(t, err)

		token, err := repo.GetByHash(ctx, "pg-cancel")
		require.NoError(t, err)
		assert.False(t, token.Revoked)
	})

	t.Run("delete expired", func(t *testing.T) {
		expired := chainRequest("pg-expired", now.Add(-2*time.Hour))
		_, err := repo.Create(ctx, expired)
		require.NoError(t, err)

		deleted, err := repo.DeleteExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
	})
}
