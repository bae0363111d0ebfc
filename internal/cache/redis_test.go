package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codedlook/storefront/internal/domain"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: 101, Name: "Classic White T-Shirt", Price: 25000, Category: "Tops", Stock: 50},
		{ID: 200, Name: "Seller Hat", Price: 12000, Category: "Accessories", Stock: 3},
	}
}

func TestGet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	products := testProducts()

	data, _ := json.Marshal(products)
	mr.Set(cacheKey(), string(data))

	result, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, int64(101), result[0].ID)
	assert.Equal(t, "Seller Hat", result[1].Name)
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	result, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set(cacheKey(), "{not valid"))

	_, err := cache.Get(context.Background())
	require.ErrorContains(t, err, "unmarshal catalog failed")
}

func TestSet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, testProducts()))

	stored, err := mr.Get(cacheKey())
	require.NoError(t, err)

	var decoded []domain.Product
	require.NoError(t, json.Unmarshal([]byte(stored), &decoded))
	assert.Len(t, decoded, 2)

	// A TTL was applied.
	assert.Positive(t, mr.TTL(cacheKey()))
}

func TestDelete(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, testProducts()))
	require.NoError(t, cache.Delete(ctx))

	assert.False(t, mr.Exists(cacheKey()))
}
