package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	mr := miniredis.RunT(t)

	client, err := NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		expectError bool
	}{
		{
			name:        "Invalid URL",
			url:         "invalid://url",
			expectError: true,
		},
		{
			name:        "Empty URL",
			url:         "",
			expectError: true,
		},
		{
			name:        "Unreachable server",
			url:         "redis://127.0.0.1:1/0",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url, "test", nil)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, client)
			}
		})
	}

	t.Run("Reachable server", func(t *testing.T) {
		_, client := setupTestRedis(t)
		assert.NotNil(t, client.KeyBuilder)
		assert.Equal(t, "test", client.KeyBuilder.GetPrefix())
	})
}

func TestClient_GetSet(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "test:key1", "value1", time.Minute))

	val, err := client.Get(ctx, "test:key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", val)
	assert.Greater(t, mr.TTL("test:key1"), time.Duration(0))

	_, err = client.Get(ctx, "test:missing")
	assert.ErrorIs(t, err, Nil)
}

func TestClient_IncrWindow(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	n, ttl, err := client.IncrWindow(ctx, "test:counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Duration(-1), ttl, "no expiry yet")

	require.NoError(t, client.Expire(ctx, "test:counter", 30*time.Second))

	n, ttl, err = client.IncrWindow(ctx, "test:counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Greater(t, ttl, time.Duration(0))

	mr.FastForward(31 * time.Second)
	assert.False(t, mr.Exists("test:counter"))
}

func TestClient_IncrWindowIsLogged(t *testing.T) {
	mr := miniredis.RunT(t)
	core, logs := observer.New(zap.DebugLevel)

	client, err := NewClient("redis://"+mr.Addr(), "test", zap.New(core))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, _, err = client.IncrWindow(context.Background(), "test:counter")
	require.NoError(t, err)

	entries := logs.FilterMessage("redis_incr_window").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)

	mr.Close()
	_, _, err = client.IncrWindow(context.Background(), "test:counter")
	require.Error(t, err)

	entries = logs.FilterMessage("redis_incr_window").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[1].Level)
	assert.Contains(t, entries[1].ContextMap(), "error")
}

func TestClient_Delete(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	mr.Set("test:key1", "value1")
	mr.Set("test:key2", "value2")

	require.NoError(t, client.Delete(ctx, "test:key1", "test:key2", "test:nonexistent"))
	assert.False(t, mr.Exists("test:key1"))
	assert.False(t, mr.Exists("test:key2"))
}

func TestClient_Health(t *testing.T) {
	mr, client := setupTestRedis(t)
	assert.NoError(t, client.Health(context.Background()))

	mr.Close()
	assert.Error(t, client.Health(context.Background()))
}

func TestPrefixForLog(t *testing.T) {
	assert.Equal(t, "short", prefixForLog("short"))
	assert.Equal(t, "prod:ratelimit:submit:ab…", prefixForLog("prod:ratelimit:submit:abcdef0123456789"))
}
