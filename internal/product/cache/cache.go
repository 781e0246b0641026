package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"tienda/internal/product/models"
)

var (
	listHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tienda_product_list_cache_hits_total",
		Help: "Product list requests served from the Redis cache",
	})
	listMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tienda_product_list_cache_misses_total",
		Help: "Product list requests that fell through to Postgres",
	})
)

const productListKey = "catalog:products"

// ProductList caches the full product list in Redis. Only list reads go
// through the cache; the sale path always reads stock from Postgres, so a
// stale cached quantity can never corrupt a sale.
type ProductList struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProductList constructs the cache. A nil client disables caching and all
// lookups report a miss.
func NewProductList(client *redis.Client, ttl time.Duration) *ProductList {
	return &ProductList{client: client, ttl: ttl}
}

// Get returns the cached product list, or ok=false on miss, disabled cache,
// or any Redis failure. Failures degrade to a miss rather than an error: the
// caller falls back to Postgres.
func (c *ProductList) Get(ctx context.Context) ([]*models.Product, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, productListKey).Bytes()
	if err != nil {
		listMisses.Inc()
		return nil, false
	}
	var products []*models.Product
	if err := json.Unmarshal(payload, &products); err != nil {
		listMisses.Inc()
		return nil, false
	}
	listHits.Inc()
	return products, true
}

// Set stores the product list with the configured TTL. Best effort.
func (c *ProductList) Set(ctx context.Context, products []*models.Product) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(products)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, productListKey, payload, c.ttl).Err()
}

// Invalidate drops the cached list. Called after any product mutation and
// after every committed sale (stock changed).
func (c *ProductList) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, productListKey).Err()
}
