package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func testProduct() *domain.Product {
	return &domain.Product{
		ID:       "65a000000000000000000001",
		Name:     "Fast-Charging Power Bank",
		Category: "Accessories",
		Price:    domain.NewMoney(85000),
		Image:    "https://placehold.co/600x400",
		Stock:    45,
		IsActive: true,
	}
}

func TestGetProduct_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	p := testProduct()
	data, _ := json.Marshal(p)
	require.NoError(t, mr.Set(productKey(p.ID), string(data)))

	got, err := cache.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.ID, got.ID)
	assert.True(t, got.Price.Equal(domain.NewMoney(85000)))
}

func TestGetProduct_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	got, err := cache.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestGetProduct_InvalidJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set(productKey("x"), `{"name":`))

	_, err := cache.GetProduct(context.Background(), "x")
	require.ErrorContains(t, err, "unmarshal catalog entry failed")
}

func TestSetProduct_WithTTL(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	p := testProduct()
	require.NoError(t, cache.SetProduct(context.Background(), p))

	ttl := mr.TTL(productKey(p.ID))
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.Less(t, ttl, 20*time.Minute)

	mr.FastForward(21 * time.Minute)
	_, err := cache.GetProduct(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestList_RoundTrip(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	filter := domain.ProductFilter{Query: "power", Limit: 10}
	page := &domain.ProductPage{Items: []*domain.Product{testProduct()}, Total: 1, Page: 1, Limit: 10}

	require.NoError(t, cache.SetList(ctx, filter, page))

	// same query after normalization
	got, err := cache.GetList(ctx, domain.ProductFilter{Query: " POWER ", Limit: 10, Page: 1})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(1), got.Total)
	assert.Equal(t, "Fast-Charging Power Bank", got.Items[0].Name)

	_, err = cache.GetList(ctx, domain.ProductFilter{Query: "power", Limit: 20})
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestInvalidate_RemovesOnlyCatalogKeys(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.SetProduct(ctx, testProduct()))
	require.NoError(t, cache.SetList(ctx, domain.ProductFilter{}, &domain.ProductPage{}))
	require.NoError(t, mr.Set("session:abc", "keep"))

	require.NoError(t, cache.Invalidate(ctx))

	assert.False(t, mr.Exists(productKey(testProduct().ID)))
	assert.False(t, mr.Exists(listKey(domain.ProductFilter{})))
	assert.True(t, mr.Exists("session:abc"))
}

func TestRedisUnavailable(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Close()

	_, err := cache.GetProduct(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
