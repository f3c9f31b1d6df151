package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/application/queries"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisAvailabilityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisAvailabilityCache(client, "", ttl), mr
}

func sampleReport() queries.AvailabilityDTO {
	return queries.AvailabilityDTO{
		AvailableTimeSlots: []string{"10:00", "11:00"},
		DisabledDates:      []string{"2030-01-10"},
		DisabledTimeSlots:  []queries.DateSlotsDTO{{Date: "2030-01-10", Times: []string{"10:00", "11:00"}}},
	}
}

func TestRedisAvailabilityCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	miss, err := c.Get(ctx, "UTC:2030-01-10:2030-01-10")
	require.NoError(t, err)
	assert.Nil(t, miss.Report)
	assert.Equal(t, int64(0), miss.Generation)

	require.NoError(t, c.Set(ctx, "UTC:2030-01-10:2030-01-10", miss.Generation, sampleReport()))

	got, err := c.Get(ctx, "UTC:2030-01-10:2030-01-10")
	require.NoError(t, err)
	require.NotNil(t, got.Report)
	assert.Equal(t, sampleReport(), *got.Report)
	assert.NoError(t, c.Ping(ctx))
}

func TestRedisAvailabilityCache_InvalidateHidesOldEntries(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 0, sampleReport()))
	require.NoError(t, c.Invalidate(ctx))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got.Report)
	assert.Equal(t, int64(1), got.Generation)

	gen, err := mr.Get(DefaultPrefix + ":gen")
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
	assert.True(t, mr.Exists(DefaultPrefix+":0:k"))
}

func TestRedisAvailabilityCache_EntriesExpire(t *testing.T) {
	c, mr := newTestCache(t, 10*time.Second)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 0, sampleReport()))
	mr.FastForward(11 * time.Second)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got.Report)
}

func TestRedisAvailabilityCache_SetAfterInvalidateStaysHidden(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	miss, err := c.Get(ctx, "k")
	require.NoError(t, err)

	// A write commits while the report is being computed.
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, "k", miss.Generation, sampleReport()))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got.Report)
	assert.Equal(t, miss.Generation+1, got.Generation)
}

func TestRedisAvailabilityCache_ReportsErrors(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, mr.Set(DefaultPrefix+":0:k", "{not json"))
	_, err := c.Get(ctx, "k")
	assert.ErrorContains(t, err, "decode cached availability")

	mr.Close()
	_, err = c.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, c.Invalidate(ctx))
}
