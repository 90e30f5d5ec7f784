package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCheckAndMarkProcessedKeysAndTTL(t *testing.T) {
	store := newMemoryStore()
	manager, err := NewManager(store, 24*time.Hour)
	require.NoError(t, err)

	eventID := uuid.NewString()
	seen, err := manager.CheckAndMarkProcessed(context.Background(), "video-deletion", eventID)
	require.NoError(t, err)
	require.False(t, seen)

	key := "evt:processed:video-deletion:" + eventID
	require.Contains(t, store.keys, key)
	require.Equal(t, 24*time.Hour, store.ttl[key])

	seen, err = manager.CheckAndMarkProcessed(context.Background(), "video-deletion", " "+eventID+" ")
	require.NoError(t, err)
	require.True(t, seen, "ids are trimmed before keying")
}

func TestCheckAndMarkProcessedErrors(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	store.err = errors.New("boom")
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	_, err = manager.CheckAndMarkProcessed(ctx, "video-deletion", "1")
	require.ErrorIs(t, err, store.err)
	_, err = manager.CheckAndMarkProcessed(ctx, "video-deletion", " ")
	require.ErrorContains(t, err, "message id")
	_, err = manager.CheckAndMarkProcessed(ctx, "", "1")
	require.ErrorContains(t, err, "consumer")
	require.Error(t, manager.Delete(ctx, "analytics", ""))
}

type memoryStore struct {
	keys map[string]any
	ttl  map[string]time.Duration
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string]any{}, ttl: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, _ := m.keys[key].(string)
	return v, nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = value
	m.ttl[key] = ttl
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

func TestGuardMarksOncePerConsumer(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)
	manager.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }

	push, err := manager.Scope("video-deleted-push")
	require.NoError(t, err)

	seen, err := push.CheckAndMark(ctx, "m-1")
	require.NoError(t, err)
	require.False(t, seen)
	require.Equal(t, "2025-03-01T09:00:00Z", store.keys["evt:processed:video-deleted-push:m-1"])

	seen, err = push.CheckAndMark(ctx, "m-1")
	require.NoError(t, err)
	require.True(t, seen)

	// other consumers keep their own markers
	seen, err = manager.CheckAndMarkProcessed(ctx, "analytics", "m-1")
	require.NoError(t, err)
	require.False(t, seen)

	require.NoError(t, push.Delete(ctx, "m-1"))
	seen, err = push.CheckAndMark(ctx, "m-1")
	require.NoError(t, err)
	require.False(t, seen)

	_, err = push.CheckAndMark(ctx, "")
	require.Error(t, err)
}

func TestScopeValidation(t *testing.T) {
	manager, err := NewManager(newMemoryStore(), time.Hour)
	require.NoError(t, err)
	_, err = manager.Scope(" ")
	require.Error(t, err)

	_, err = NewManager(nil, time.Hour)
	require.Error(t, err)
	_, err = NewManager(newMemoryStore(), -time.Second)
	require.Error(t, err)

	var guard *Guard
	seen, err := guard.CheckAndMark(context.Background(), "m-1")
	require.NoError(t, err)
	require.False(t, seen)
	require.NoError(t, guard.Delete(context.Background(), "m-1"))
}
