package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"emr-metadata-dashboard/internal/shared/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectPattern(t *testing.T) {
	assert.Equal(t, "emr-dashboard:report:p1:*", projectPattern("p1"))
	assert.Equal(t, `emr-dashboard:report:p\*\?:*`, projectPattern("p*?"))
}

func newTestCache(t *testing.T) *ReportCache {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available for testing")
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewReportCache(client, logger.NewLoggerWithWriter(io.Discard, "error", "json"))
}

func TestReportCache_RoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	project := uuid.NewString()
	key := "report:" + project + ":all:m1:1"

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, key, []byte(`{"forms":[]}`), time.Minute))
	raw, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"forms":[]}`, string(raw))
}

func TestReportCache_InvalidateProject(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	project, other := uuid.NewString(), uuid.NewString()

	for _, tab := range []string{"all", "deploy", "metadata"} {
		require.NoError(t, cache.Set(ctx, "report:"+project+":"+tab+":m1:1", []byte("{}"), time.Minute))
	}
	require.NoError(t, cache.Set(ctx, "report:"+other+":all:m2:1", []byte("{}"), time.Minute))

	require.NoError(t, cache.InvalidateProject(ctx, project))

	_, ok, err := cache.Get(ctx, "report:"+project+":deploy:m1:1")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = cache.Get(ctx, "report:"+other+":all:m2:1")
	require.NoError(t, err)
	assert.True(t, ok)
}
