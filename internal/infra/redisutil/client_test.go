package redisutil

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/wagerledger/internal/config"
)

type published struct {
	channel string
	payload string
}

type mockCmdable struct {
	data      map[string]string
	published []published
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) Publish(_ context.Context, channel string, payload any) *redis.IntCmd {
	m.published = append(m.published, published{channel: channel, payload: fmt.Sprint(payload)})
	return redis.NewIntResult(1, nil)
}

func TestClient_SetNXGetDel(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	ok, err := client.SetNX(ctx, "k", "v1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, "k", "v2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second SetNX must not overwrite")

	got, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	require.NoError(t, client.Set(ctx, "k", "v3", time.Minute))
	got, err = client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v3", got)

	require.NoError(t, client.Del(ctx, "k"))

	_, err = client.Get(ctx, "k")
	assert.True(t, errors.Is(err, redis.Nil))
}

func TestClient_Publish(t *testing.T) {
	mock := newMockCmdable()
	client := &Client{store: mock}

	require.NoError(t, client.Publish(context.Background(), "events", `{"a":1}`))
	require.Len(t, mock.published, 1)
	assert.Equal(t, "events", mock.published[0].channel)
	assert.Equal(t, `{"a":1}`, mock.published[0].payload)
}

func TestClient_Uninitialized(t *testing.T) {
	var client *Client
	ctx := context.Background()

	_, err := client.Get(ctx, "k")
	assert.ErrorIs(t, err, errNotInitialized)
	assert.ErrorIs(t, client.Publish(ctx, "c", "p"), errNotInitialized)
	assert.ErrorIs(t, client.Ping(ctx), errNotInitialized)
	assert.NoError(t, client.Close())
}

func TestIdempotencyKey(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "wl:idempotency:7|POST|/api/v1/bets:abc", client.IdempotencyKey("7|POST|/api/v1/bets", "abc"))
	assert.Equal(t, "wl:idempotency:abc", client.IdempotencyKey("", " abc "))
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{})
	assert.Error(t, err)

	_, err = New(context.Background(), config.RedisConfig{URL: "not a url"})
	assert.Error(t, err)
}
