package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/clipstream-backend/pkg/config"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	for i, want := range []bool{true, true, false} {
		allowed, count, err := client.FixedWindowAllow(ctx, "createAccount:1.2.3.4", 2, time.Minute)
		require.NoError(t, err)
		require.Equal(t, want, allowed, "hit %d", i+1)
		require.EqualValues(t, i+1, count)
	}
	require.Equal(t, map[string]time.Duration{"cs:rate_limit:createAccount:1.2.3.4": time.Minute}, mock.ttl)
}

func TestFixedWindowAllowRestoresLostTTL(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	mock.incr["cs:rate_limit:countViews:p-1"] = 5
	client := &Client{store: mock}

	_, count, err := client.FixedWindowAllow(ctx, "countViews:p-1", 10, time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 6, count)
	require.Equal(t, time.Hour, mock.ttl["cs:rate_limit:countViews:p-1"])
}

func TestFixedWindowAllowErrors(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	mock.incrErr = errors.New("conn reset")
	client := &Client{store: mock}

	allowed, _, err := client.FixedWindowAllow(ctx, "scope", 1, time.Second)
	require.ErrorContains(t, err, "incr cs:rate_limit:scope")
	require.False(t, allowed)

	_, _, err = (&Client{}).FixedWindowAllow(ctx, "scope", 1, time.Second)
	require.ErrorIs(t, err, errNotInitialized)
}

func TestDefaultProfileLifecycle(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	_, ok, err := client.GetDefaultProfile(ctx, "0xABC")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, client.SetDefaultProfile(ctx, "0xABC", "profile-1", 0))
	got, ok, err := client.GetDefaultProfile(ctx, "0xabc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "profile-1", got)

	require.NoError(t, client.ClearDefaultProfile(ctx, "0xabc"))
	_, ok, err = client.GetDefaultProfile(ctx, "0xabc")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKeys(t *testing.T) {
	client := &Client{}
	cases := []struct {
		got, want string
	}{
		{client.IdempotencyKey("sendTips", "k-1"), "cs:idempotency:sendTips:k-1"},
		{client.RateLimitKey("countViews"), "cs:rate_limit:countViews"},
		{client.DefaultProfileKey("0xAbC"), "cs:session:default_profile:0xabc"},
		{Key("a", " ", "b "), "cs:a:b"},
		{Key(), "cs"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.got)
	}
}

func TestOptions(t *testing.T) {
	_, err := options(config.RedisConfig{})
	require.Error(t, err)

	opts, err := options(config.RedisConfig{URL: "redis://:secret@cache:6380/3", PoolSize: 20, DB: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	require.Equal(t, "cache:6380", opts.Addr)
	require.Equal(t, 3, opts.DB)
	require.Equal(t, 20, opts.PoolSize)
	require.Equal(t, time.Second, opts.DialTimeout)

	opts, err = options(config.RedisConfig{Address: "localhost:6379", DB: 2})
	require.NoError(t, err)
	require.Equal(t, "localhost:6379", opts.Addr)
	require.Equal(t, 2, opts.DB)
}

type mockCmdable struct {
	data    map[string]string
	incr    map[string]int64
	ttl     map[string]time.Duration
	incrErr error
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: map[string]string{},
		incr: map[string]int64{},
		ttl:  map[string]time.Duration{},
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(_ context.Context, key string) *redis.IntCmd {
	if m.incrErr != nil {
		return redis.NewIntResult(0, m.incrErr)
	}
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	if _, ok := m.ttl[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.ttl[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
