// Command seed replaces the catalog with the sample products.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/retisha256/ecommerce/internal/cache"
	"github.com/retisha256/ecommerce/internal/config"
	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/logger"
	"github.com/retisha256/ecommerce/internal/repository"
	"github.com/retisha256/ecommerce/internal/service"
)

func sampleProducts() []*domain.Product {
	return []*domain.Product{
		{
			Name:        "Spectrum Laptop 14.6 Inc",
			Category:    "Laptops",
			Price:       domain.NewMoney(950000),
			Description: "High-performance laptop with a 14.6-inch display, perfect for professional use.",
			Image:       "https://placehold.co/400x400/805ad5/ffffff?text=LAPTOP",
			Rating:      5,
			Stock:       15,
		},
		{
			Name:        "SONY Alpha Camera Kit",
			Category:    "Electronics",
			Price:       domain.NewMoney(1800000),
			Description: "Professional grade mirrorless camera kit with standard zoom lens.",
			Image:       "https://placehold.co/400x400/805ad5/ffffff?text=CAMERA",
			Rating:      4,
			Stock:       8,
		},
		{
			Name:        "Fast-Charging Power Bank",
			Category:    "Accessories",
			Price:       domain.NewMoney(85000),
			Description: "20,000mAh power bank with fast-charging USB-C ports.",
			Image:       "https://placehold.co/400x400/805ad5/ffffff?text=POWER+BANK",
			Rating:      5,
			Stock:       45,
		},
		{
			Name:        "Wireless Noise-Cancelling Headphones",
			Category:    "Audio",
			Price:       domain.NewMoney(240000),
			Description: "Immersive sound experience with industry-leading noise cancellation.",
			Image:       "https://placehold.co/400x400/805ad5/ffffff?text=HEADPHONES",
			Rating:      4,
			Stock:       22,
		},
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer db.Client().Disconnect(context.Background())
	log.Info("MongoDB connection successful, starting database seeding")

	// Clear the API's cached listings too when Redis is reachable.
	var catalogCache cache.CatalogCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err == nil {
			catalogCache = cache.NewRedisCache(rc)
		}
	}

	products := service.NewProductService(repository.NewProductRepository(db), catalogCache, log)
	seed := sampleProducts()
	if err := products.Seed(ctx, seed); err != nil {
		log.Error("database seeding failed", "error", err)
		os.Exit(1)
	}

	page, err := products.List(ctx, domain.ProductFilter{Limit: 100})
	if err != nil {
		log.Error("failed to count products", "error", err)
		os.Exit(1)
	}
	log.Info("seeding complete", "inserted", len(seed), "total", page.Total)
}
