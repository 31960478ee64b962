package middleware_test

import (
	"context"
	"testing"
	"time"

	"pulse/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRateLimit(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	t.Run("counts within window", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			ok, err := middleware.CheckRateLimit(ctx, rdb, "login", "1.2.3.4", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, ok)
		}
		ok, err := middleware.CheckRateLimit(ctx, rdb, "login", "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("separate keys per resource and id", func(t *testing.T) {
		ok, err := middleware.CheckRateLimit(ctx, rdb, "login", "5.6.7.8", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = middleware.CheckRateLimit(ctx, rdb, "register", "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("window expiry resets the counter", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			_, err := middleware.CheckRateLimit(ctx, rdb, "send_message", "u9", 3, time.Minute)
			require.NoError(t, err)
		}
		mr.FastForward(2 * time.Minute)

		ok, err := middleware.CheckRateLimit(ctx, rdb, "send_message", "u9", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("nil redis errors", func(t *testing.T) {
		_, err := middleware.CheckRateLimit(ctx, nil, "login", "1.2.3.4", 3, time.Minute)
		assert.Error(t, err)
	})
}

func TestCheckRateLimitDisabledOutsideProduction(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	ok, err := middleware.CheckRateLimit(context.Background(), nil, "login", "x", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
