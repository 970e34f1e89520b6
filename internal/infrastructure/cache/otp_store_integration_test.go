//go:build integration

package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/infrastructure/cache"
	"github.com/jhoicas/pos-api/pkg/config"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client, err := cache.NewRedisClient(ctx, config.RedisConfig{Addr: endpoint})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisOTPStore_RoundTripKeepsTTL(t *testing.T) {
	client := newRedis(t)
	store := cache.NewRedisOTPStore(client)
	ctx := context.Background()

	entry := entity.OTPEntry{Code: "123456", Purpose: entity.OTPPurposeLogin, Data: map[string]string{"user_id": "u1"}}
	require.NoError(t, store.Save(ctx, "pk1", entry, time.Minute))

	got, err := store.Get(ctx, "pk1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "123456", got.Code)
	assert.Equal(t, "u1", got.Data["user_id"])

	got.Verified = true
	require.NoError(t, store.Update(ctx, "pk1", *got))
	ttl, err := client.TTL(ctx, "otp:pk1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	got, err = store.Get(ctx, "pk1")
	require.NoError(t, err)
	assert.True(t, got.Verified)

	require.NoError(t, store.Delete(ctx, "pk1"))
	got, err = store.Get(ctx, "pk1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisOTPStore_ExpiredEntry(t *testing.T) {
	client := newRedis(t)
	store := cache.NewRedisOTPStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "pk2", entity.OTPEntry{Code: "1"}, 50*time.Millisecond))
	time.Sleep(200 * time.Millisecond)

	got, err := store.Get(ctx, "pk2")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, store.Update(ctx, "pk2", entity.OTPEntry{Code: "1"}), domain.ErrInvalidOTP)
}

func TestRedisOTPStore_IncrAttemptsIsAtomic(t *testing.T) {
	client := newRedis(t)
	store := cache.NewRedisOTPStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "pk3", entity.OTPEntry{Code: "123456"}, time.Minute))

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.IncrAttempts(ctx, "pk3")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := store.IncrAttempts(ctx, "pk3")
	require.NoError(t, err)
	assert.Equal(t, workers+1, n)
	ttl, err := client.TTL(ctx, "otp:pk3:attempts").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "el contador expira con la entrada")

	require.NoError(t, store.Save(ctx, "pk3", entity.OTPEntry{Code: "654321"}, time.Minute))
	n, err = store.IncrAttempts(ctx, "pk3")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "un código nuevo reinicia el contador")

	require.NoError(t, store.Delete(ctx, "pk3"))
	exists, err := client.Exists(ctx, "otp:pk3", "otp:pk3:attempts").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
	_, err = store.IncrAttempts(ctx, "pk3")
	assert.ErrorIs(t, err, domain.ErrInvalidOTP)
}
