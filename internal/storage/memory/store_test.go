package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/reward-auth/internal/models"
	"github.com/hongminglow/reward-auth/internal/storage"
)

func seed(t *testing.T, s *Store, identity string, lastLogin time.Time) models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), models.User{
		Identity:    identity,
		Secret:      "pw",
		Role:        models.RoleUser,
		LastLoginAt: lastLogin,
	})
	require.NoError(t, err)
	return u
}

func TestStore_CreateAndFind(t *testing.T) {
	s := NewUserStore()
	at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	created := seed(t, s, "alice", at)

	assert.Equal(t, int64(1), created.ID)
	assert.Zero(t, created.LoginCount)
	assert.Zero(t, created.RecommendCount)

	got, err := s.FindByIdentity(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "pw", got.Secret)
	assert.True(t, got.LastLoginAt.Equal(at))

	_, err = s.FindByIdentity(context.Background(), "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_CreateDuplicate(t *testing.T) {
	s := NewUserStore()
	seed(t, s, "alice", time.Now())

	_, err := s.CreateUser(context.Background(), models.User{Identity: "alice", Secret: "other"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	got, err := s.FindByIdentity(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "pw", got.Secret, "first record must survive")
}

func TestStore_TargetedUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	seed(t, s, "alice", start)

	require.NoError(t, s.IncrementLoginCount(ctx, "alice"))
	require.NoError(t, s.IncrementRecommendCount(ctx, "alice"))
	require.NoError(t, s.IncrementRecommendCount(ctx, "alice"))
	require.NoError(t, s.TouchLastLogin(ctx, "alice", start.Add(time.Hour)))
	require.NoError(t, s.TouchLastLogin(ctx, "alice", start.Add(-time.Hour)))

	got, err := s.FindByIdentity(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LoginCount)
	assert.Equal(t, int64(2), got.RecommendCount)
	assert.True(t, got.LastLoginAt.Equal(start.Add(time.Hour)), "lastLoginAt must not move backwards")

	assert.ErrorIs(t, s.IncrementLoginCount(ctx, "ghost"), storage.ErrNotFound)
	assert.ErrorIs(t, s.IncrementRecommendCount(ctx, "ghost"), storage.ErrNotFound)
	assert.ErrorIs(t, s.TouchLastLogin(ctx, "ghost", start), storage.ErrNotFound)
}

func TestStore_RecordLogin_SerializesDecision(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	seed(t, s, "alice", time.Now())

	onlyFromZero := func(u models.User) bool { return u.LoginCount == 0 }

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.RecordLogin(ctx, "alice", time.Now(), onlyFromZero)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.FindByIdentity(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LoginCount)
}

func TestStore_RecordLogin_Missing(t *testing.T) {
	s := NewUserStore()
	_, err := s.RecordLogin(context.Background(), "ghost", time.Now(), nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
