package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	customerhandler "tienda/internal/customer/handler"
	customerservice "tienda/internal/customer/service"
	customerstore "tienda/internal/customer/store"
	"tienda/internal/platform/config"
	"tienda/internal/platform/httpserver"
	"tienda/internal/platform/logger"
	platformmetrics "tienda/internal/platform/metrics"
	"tienda/internal/platform/middleware"
	"tienda/internal/platform/postgres"
	platformredis "tienda/internal/platform/redis"
	"tienda/internal/product/cache"
	producthandler "tienda/internal/product/handler"
	productservice "tienda/internal/product/service"
	productstore "tienda/internal/product/store"
	salehandler "tienda/internal/sale/handler"
	salemetrics "tienda/internal/sale/metrics"
	saleservice "tienda/internal/sale/service"
	salestore "tienda/internal/sale/store"
)

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx := context.Background()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var productCache *cache.ProductList
	if redisClient != nil {
		productCache = cache.NewProductList(redisClient.Client, cfg.ProductCacheTTL)
	}

	customerSvc := customerservice.New(
		customerstore.NewPostgres(db),
		customerservice.WithLogger(log),
	)

	productOpts := []productservice.Option{productservice.WithLogger(log)}
	if productCache != nil {
		productOpts = append(productOpts, productservice.WithListCache(productCache))
	}
	productSvc := productservice.New(productstore.NewPostgres(db), productOpts...)

	saleStore := salestore.NewPostgres(db)
	saleOpts := []saleservice.Option{
		saleservice.WithLogger(log),
		saleservice.WithMetrics(salemetrics.New()),
	}
	if productCache != nil {
		saleOpts = append(saleOpts, saleservice.WithCacheInvalidator(productCache))
	}
	saleSvc := saleservice.New(saleStore, saleStore, newSalePostgresTx(db), saleOpts...)

	httpMetrics := platformmetrics.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(httpMetrics))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := db.PingContext(req.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if redisClient != nil {
			if err := redisClient.Health(req.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		customerhandler.New(customerSvc, log).Register(api)
		producthandler.New(productSvc, log).Register(api)
		salehandler.New(saleSvc, log).Register(api)
	})

	srv := httpserver.New(cfg.Addr, r)

	log.Info("starting tienda", "addr", cfg.Addr, "redis", redisClient != nil)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
