package refreshtoken

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *InMemoryRepository, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	repo := NewInMemoryRepository()
	return NewService(repo, WithExpiry(time.Hour), WithClock(clock.Now)), repo, clock
}

func TestService_IssueStoresOnlyHash(t *testing.T) {
	svc, repo, clock := newTestService(t)
	ctx := context.Background()

	raw, token, err := svc.Issue(ctx, "user-1", "finance-web", Metadata{IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	assert.Len(t, raw, 43)
	assert.Equal(t, HashToken(raw), token.TokenHash)
	assert.NotEqual(t, raw, token.TokenHash)
	assert.Equal(t, clock.Now().Add(time.Hour), token.ExpiresAt)

	stored, err := repo.GetByHash(ctx, HashToken(raw))
	require.NoError(t, err)
	assert.Equal(t, "user-1", stored.Subject)
	assert.True(t, stored.IsActive(clock.Now()))
}

func TestService_RotateLinksSuccessor(t *testing.T) {
	svc, repo, clock := newTestService(t)
	ctx := context.Background()

	first, _, err := svc.Issue(ctx, "user-1", "finance-web", Metadata{})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	rotation, err := svc.Rotate(ctx, first, "finance-web", Metadata{})
	require.NoError(t, err)
	assert.NotEqual(t, first, rotation.Token)
	assert.Equal(t, "user-1", rotation.Current.Subject)

	old, err := repo.GetByHash(ctx, HashToken(first))
	require.NoError(t, err)
	assert.True(t, old.Revoked)
	assert.Equal(t, HashToken(rotation.Token), old.ReplacedByHash)
	require.NotNil(t, old.RevokedAt)
	assert.Equal(t, clock.Now(), *old.RevokedAt)

	next, err := repo.GetByHash(ctx, HashToken(rotation.Token))
	require.NoError(t, err)
	assert.True(t, next.IsActive(clock.Now()))
}

func TestService_ReuseRevokesWholeChain(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	r1, _, err := svc.Issue(ctx, "user-1", "finance-web", Metadata{})
	require.NoError(t, err)
	rot2, err := svc.Rotate(ctx, r1, "finance-web", Metadata{})
	require.NoError(t, err)
	rot3, err := svc.Rotate(ctx, rot2.Token, "finance-web", Metadata{})
	require.NoError(t, err)

	// replaying the middle token
	_, err = svc.Rotate(ctx, rot2.Token, "finance-web", Metadata{})
	assert.ErrorIs(t, err, ErrInvalidGrant)

	for _, raw := range []string{r1, rot2.Token, rot3.Token} {
		token, err := repo.GetByHash(ctx, HashToken(raw))
		require.NoError(t, err)
		assert.True(t, token.Revoked)
	}

	_, err = svc.Rotate(ctx, rot3.Token, "finance-web", Metadata{})
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestService_RotateRejects(t *testing.T) {
	t.Run("unknown token", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Rotate(context.Background(), "not-a-token", "finance-web", Metadata{})
		assert.ErrorIs(t, err, ErrInvalidGrant)
	})

	t.Run("empty token", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Rotate(context.Background(), "", "finance-web", Metadata{})
		assert.ErrorIs(t, err, ErrInvalidGrant)
	})

	t.Run("expired token does not revoke anything else", func(t *testing.T) {
		svc, repo, clock := newTestService(t)
		ctx := context.Background()

		raw, _, err := svc.Issue(ctx, "user-1", "finance-web", Metadata{})
		require.NoError(t, err)

		clock.Advance(time.Hour)
		_, err = svc.Rotate(ctx, raw, "finance-web", Metadata{})
		assert.ErrorIs(t, err, ErrInvalidGrant)

		token, err := repo.GetByHash(ctx, HashToken(raw))
		require.NoError(t, err)
		assert.False(t, token.Revoked)
	})

	t.Run("other client", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		ctx := context.Background()

		raw, _, err := svc.Issue(ctx, "user-1", "finance-web", Metadata{})
		require.NoError(t, err)

		_, err = svc.Rotate(ctx, raw, "other-client", Metadata{})
		assert.ErrorIs(t, err, ErrInvalidGrant)

		token, err := repo.GetByHash(ctx, HashToken(raw))
		require.NoError(t, err)
		assert.True(t, token.IsActive(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
	})
}

func TestService_ConcurrentRotationHasOneWinner(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	raw, _, err := svc.Issue(ctx, "user-1", "finance-web", Metadata{})
	require.NoError(t, err)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Rotate(ctx, raw, "finance-web", Metadata{})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrInvalidGrant)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestService_BindingMismatchStillRotates(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	raw, _, err := svc.Issue(ctx, "user-1", "finance-web", Metadata{IPAddress: "10.0.0.1", DeviceID: "laptop"})
	require.NoError(t, err)

	rotation, err := svc.Rotate(ctx, raw, "finance-web", Metadata{IPAddress: "10.0.0.2", DeviceID: "phone"})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", rotation.Current.IPAddress)
	assert.Equal(t, "phone", rotation.Current.DeviceID)
}

func TestService_Revoke(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	r1, _, err := svc.Issue(ctx, "user-1", "finance-web", Metadata{})
	require.NoError(t, err)
	rot, err := svc.Rotate(ctx, r1, "finance-web", Metadata{})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, "unknown", "finance-web"))
	require.NoError(t, svc.Revoke(ctx, rot.Token, "other-client"))

	token, err := repo.GetByHash(ctx, HashToken(rot.Token))
	require.NoError(t, err)
	assert.False(t, token.Revoked)

	require.NoError(t, svc.Revoke(ctx, rot.Token, "finance-web"))
	token, err = repo.GetByHash(ctx, HashToken(rot.Token))
	require.NoError(t, err)
	assert.True(t, token.Revoked)

	_, err = svc.Rotate(ctx, rot.Token, "finance-web", Metadata{})
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestService_PurgeExpired(t *testing.T) {
	svc, repo, clock := newTestService(t)
	ctx := context.Background()

	old, _, err := svc.Issue(ctx, "user-1", "finance-web", Metadata{})
	require.NoError(t, err)
	clock.Advance(90 * time.Minute)
	fresh, _, err := svc.Issue(ctx, "user-2", "finance-web", Metadata{})
	require.NoError(t, err)

	deleted, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetByHash(ctx, HashToken(old))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByHash(ctx, HashToken(fresh))
	assert.NoError(t, err)
}
