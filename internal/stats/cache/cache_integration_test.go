//go:build integration

package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	platformredis "homeward/internal/platform/redis"
	"homeward/internal/stats"
	"homeward/internal/stats/cache"
	"homeward/pkg/testutil/containers"
)

func testClient(t *testing.T) *platformredis.Client {
	t.Helper()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(context.Background()))
	return &platformredis.Client{Client: rc.Client}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSnapshot() *stats.Stats {
	return &stats.Stats{
		TotalUsers:            7,
		Adopters:              4,
		Organizations:         3,
		AdoptersActive:        3,
		AdoptersSuspended:     1,
		PendingOrganizations:  1,
		VerifiedOrganizations: 2,
		ApplicationsByStatus:  map[string]int{"pending": 2, "approved": 1},
		ComputedAt:            time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := cache.New(testClient(t), time.Minute, discard())

	_, ok := c.Get(ctx)
	require.False(t, ok, "empty cache should miss")

	snapshot := testSnapshot()
	c.Set(ctx, snapshot)

	cached, ok := c.Get(ctx)
	require.True(t, ok)
	require.Equal(t, snapshot, cached)
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	c := cache.New(testClient(t), 100*time.Millisecond, discard())

	c.Set(ctx, testSnapshot())
	_, ok := c.Get(ctx)
	require.True(t, ok)

	time.Sleep(200 * time.Millisecond)

	_, ok = c.Get(ctx)
	require.False(t, ok, "snapshot should expire with the TTL")
}
