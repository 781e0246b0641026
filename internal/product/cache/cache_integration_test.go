//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"tienda/internal/product/cache"
	"tienda/internal/product/models"
	"tienda/pkg/testutil/containers"
)

type ProductListCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.ProductList
}

func TestProductListCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProductListCacheSuite))
}

func (s *ProductListCacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.cache = cache.NewProductList(s.redis.Client, time.Minute)
}

func (s *ProductListCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func sampleProducts() []*models.Product {
	return []*models.Product{
		{ID: 1, Name: "Coffee", Description: "Whole beans", Quantity: 10, Price: decimal.RequireFromString("2.50")},
		{ID: 2, Name: "Mug", Description: "Ceramic", Quantity: 4, Price: decimal.RequireFromString("7.00")},
	}
}

func (s *ProductListCacheSuite) TestMissThenHit() {
	ctx := context.Background()

	_, ok := s.cache.Get(ctx)
	s.False(ok)

	s.cache.Set(ctx, sampleProducts())

	cached, ok := s.cache.Get(ctx)
	s.Require().True(ok)
	s.Require().Len(cached, 2)
	s.Equal("Coffee", cached[0].Name)
	s.True(cached[0].Price.Equal(decimal.RequireFromString("2.50")))
}

func (s *ProductListCacheSuite) TestInvalidate() {
	ctx := context.Background()
	s.cache.Set(ctx, sampleProducts())

	s.cache.Invalidate(ctx)

	_, ok := s.cache.Get(ctx)
	s.False(ok)
}

func (s *ProductListCacheSuite) TestTTLExpiry() {
	ctx := context.Background()
	short := cache.NewProductList(s.redis.Client, 100*time.Millisecond)
	short.Set(ctx, sampleProducts())

	_, ok := short.Get(ctx)
	s.Require().True(ok)

	time.Sleep(200 * time.Millisecond)
	_, ok = short.Get(ctx)
	s.False(ok)
}

func (s *ProductListCacheSuite) TestNilClientDegradesToMiss() {
	disabled := cache.NewProductList(nil, time.Minute)

	disabled.Set(context.Background(), sampleProducts())
	_, ok := disabled.Get(context.Background())
	s.False(ok)
}
