package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/retisha256/ecommerce/internal/cache"
	"github.com/retisha256/ecommerce/internal/config"
	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/events"
	h "github.com/retisha256/ecommerce/internal/http"
	"github.com/retisha256/ecommerce/internal/logger"
	"github.com/retisha256/ecommerce/internal/repository"
	"github.com/retisha256/ecommerce/internal/service"
	"github.com/retisha256/ecommerce/internal/telemetry"
	"github.com/retisha256/ecommerce/internal/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx := context.Background()
	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTelExporter)
	if err != nil {
		log.Error("failed to set up telemetry", "error", err)
		os.Exit(1)
	}

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	if err := repository.CreateIndexes(ctx, mongoDB); err != nil {
		log.Error("failed to create indexes", "error", err)
		os.Exit(1)
	}
	log.Info("connected to MongoDB", "db", cfg.MongoDBName)

	products := repository.NewProductRepository(mongoDB)
	orders := repository.NewOrderRepository(mongoDB)
	subscribers := repository.NewSubscriberRepository(mongoDB)
	outbox := repository.NewOutboxRepository(mongoDB)

	var catalogCache cache.CatalogCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, running without catalog cache", "addr", cfg.RedisAddr, "error", err)
		} else {
			catalogCache = cache.NewRedisCache(redisClient)
			log.Info("redis ping succeeded", "addr", cfg.RedisAddr)
		}
	}

	images, err := newImageStorage(cfg)
	if err != nil {
		log.Error("failed to set up image storage", "error", err)
		os.Exit(1)
	}

	productService := service.NewProductService(products, catalogCache, log)
	orderService := service.NewOrderService(orders, outbox, log)
	providers := domain.Providers(cfg.Merchants.MTN, cfg.Merchants.Airtel)
	paymentService := service.NewPaymentService(orderService, providers, log)
	subscriberService := service.NewSubscriberService(subscribers, outbox, log)

	limits := h.Limits{
		Timeout:        cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxRequestBodySize,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	router := h.NewRouter(h.RouterConfig{
		Products:    h.NewProductHandler(productService, images, limits, log),
		Orders:      h.NewOrderHandler(orderService, limits, log),
		Payments:    h.NewPaymentHandler(paymentService, limits, log),
		Subscribers: h.NewSubscribeHandler(subscriberService, limits, log),
		UploadsDir:  cfg.UploadsDir,
		Timeout:     cfg.RequestTimeout,
		Logger:      log,
	})

	var wg sync.WaitGroup
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	var poller *events.OutboxPoller
	if len(cfg.KafkaBrokers) > 0 {
		poller = events.NewOutboxPoller(outbox, cfg.KafkaTopic, log, cfg.KafkaBrokers...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(pollerCtx)
		}()
		log.Info("outbox poller started", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		log.Warn("KAFKA_BROKERS not set, outbox events will not be published")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront API starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	pollerCancel()
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()
	select {
	case <-doneChan:
	case <-shutdownCtx.Done():
		log.Warn("outbox poller didn't stop in time")
	}
	if poller != nil {
		if err := poller.Close(); err != nil {
			log.Error("failed to close kafka writer", "error", err)
		}
	}

	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		log.Error("failed to disconnect from MongoDB", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("failed to flush traces", "error", err)
	}
	log.Info("storefront API stopped")
}

// newImageStorage stores uploads in Cloudinary when CLOUDINARY_URL is set and
// on local disk otherwise.
func newImageStorage(cfg *config.Config) (upload.Storage, error) {
	if cfg.CloudinaryURL != "" {
		cld, err := upload.NewCloudinaryStorage(cfg.CloudinaryURL, "novuna-products")
		if err != nil {
			return nil, err
		}
		return cld, nil
	}
	disk, err := upload.NewDiskStorage(cfg.UploadsDir, "/uploads")
	if err != nil {
		return nil, err
	}
	return disk, nil
}
