package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "restaurant-agent/internal/common/errors"
	"restaurant-agent/internal/common/logger"
	"restaurant-agent/internal/models"
)

// ==========================
// Test Helpers
// ==========================

func createTestConfig() Config {
	return Config{ContextTTL: time.Hour, LockTTL: 30 * time.Second}
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, createTestConfig(), logger.NewNoOpLogger()), mr
}

// ==========================
// Context Persistence
// ==========================

func TestStore_SaveGetClear(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	got, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())

	want := models.ConversationContext{
		LastIntent:        models.IntentSearch,
		LastRestaurantIDs: []int{3, 1},
		PendingAction:     models.SearchAction(),
	}
	require.NoError(t, store.Save(ctx, "conv-1", want))
	assert.Equal(t, time.Hour, mr.TTL("agent:ctx:conv-1"))

	got, err = store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear(ctx, "conv-1"))
	got, err = store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestStore_ContextExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "conv-1", models.ConversationContext{PendingAction: models.ReservationAction()}))
	mr.FastForward(2 * time.Hour)

	got, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestStore_CorruptValue(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set("agent:ctx:conv-1", "not json"))

	_, err := store.Get(context.Background(), "conv-1")
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeContextStoreFailure, stdErr.Code)
}

// ==========================
// Turn Lock
// ==========================

func TestStore_LockIsExclusive(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	lock, err := store.Lock(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, mr.TTL("agent:lock:conv-1"))

	_, err = store.Lock(ctx, "conv-1")
	assert.ErrorIs(t, err, ErrConversationBusy)

	other, err := store.Lock(ctx, "conv-2")
	require.NoError(t, err)
	require.NoError(t, store.Unlock(ctx, other))

	require.NoError(t, store.Unlock(ctx, lock))
	again, err := store.Lock(ctx, "conv-1")
	require.NoError(t, err)
	require.NoError(t, store.Unlock(ctx, again))
}

func TestStore_UnlockKeepsLockClaimedByAnotherTurn(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	stale, err := store.Lock(ctx, "conv-1")
	require.NoError(t, err)

	mr.FastForward(time.Minute)
	fresh, err := store.Lock(ctx, "conv-1")
	require.NoError(t, err)

	require.NoError(t, store.Unlock(ctx, stale))
	assert.True(t, mr.Exists("agent:lock:conv-1"))

	require.NoError(t, store.Unlock(ctx, fresh))
	assert.False(t, mr.Exists("agent:lock:conv-1"))
}

func TestStore_UnlockNil(t *testing.T) {
	store, _ := newTestStore(t)
	assert.NoError(t, store.Unlock(context.Background(), nil))
}

// ==========================
// Redis Errors
// ==========================

func TestStore_RedisErrors(t *testing.T) {
	boom := errors.New("connection reset")

	tests := []struct {
		name   string
		expect func(mock redismock.ClientMock)
		call   func(s *Store) error
	}{
		{
			name:   "get",
			expect: func(mock redismock.ClientMock) { mock.ExpectGet("agent:ctx:c").SetErr(boom) },
			call: func(s *Store) error {
				_, err := s.Get(context.Background(), "c")
				return err
			},
		},
		{
			name:   "clear",
			expect: func(mock redismock.ClientMock) { mock.ExpectDel("agent:ctx:c").SetErr(boom) },
			call:   func(s *Store) error { return s.Clear(context.Background(), "c") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := redismock.NewClientMock()
			tt.expect(mock)
			store := NewStore(client, createTestConfig(), logger.NewNoOpLogger())

			err := tt.call(store)
			var stdErr *apperrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, apperrors.ErrCodeContextStoreFailure, stdErr.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
