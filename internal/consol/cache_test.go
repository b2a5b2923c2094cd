package consol

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
)

func TestRedisSummaryCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisSummaryCache(client, time.Hour)
	ctx := context.Background()

	_, ok, err := cache.GetSummary(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	stored := Summary{
		PeriodEnd:            day(2025, 3, 31),
		PresentationCurrency: model.USD,
		EntityCount:          3,
		TotalAssets:          decimal.RequireFromString("610500"),
		IsBalanced:           true,
	}
	require.NoError(t, cache.SetSummary(ctx, stored))

	got, ok, err := cache.GetSummary(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, got.EntityCount)
	require.Equal(t, "610500", got.TotalAssets.String())
	require.True(t, got.IsBalanced)

	require.NoError(t, cache.Invalidate(ctx))
	_, ok, err = cache.GetSummary(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisSummaryCacheExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisSummaryCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetSummary(ctx, Summary{EntityCount: 1}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.GetSummary(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisSummaryCacheNilClientDegrades(t *testing.T) {
	var cache *RedisSummaryCache
	ctx := context.Background()

	require.NoError(t, cache.SetSummary(ctx, Summary{}))
	_, ok, err := cache.GetSummary(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, cache.Invalidate(ctx))
}
