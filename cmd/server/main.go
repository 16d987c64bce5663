package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	cartapp "github.com/freshcart/backend/internal/cart/app"
	cartpg "github.com/freshcart/backend/internal/cart/postgres"
	catalogapp "github.com/freshcart/backend/internal/catalog/app"
	catalogcache "github.com/freshcart/backend/internal/catalog/cache"
	catalogpg "github.com/freshcart/backend/internal/catalog/postgres"
	orderapp "github.com/freshcart/backend/internal/order/app"
	orderpg "github.com/freshcart/backend/internal/order/postgres"
	paymentapp "github.com/freshcart/backend/internal/payment/app"
	"github.com/freshcart/backend/internal/payment/pricing"
	stripegw "github.com/freshcart/backend/internal/payment/stripe"
	"github.com/freshcart/backend/internal/web"
	"github.com/freshcart/backend/pkg/config"
	"github.com/freshcart/backend/pkg/kafka"
	"github.com/freshcart/backend/pkg/logger"
	"github.com/freshcart/backend/pkg/metrics"
	"github.com/freshcart/backend/pkg/outbox"
	"github.com/freshcart/backend/pkg/postgres"
	"github.com/freshcart/backend/pkg/shutdown"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service:   "freshcart-api",
		Env:       cfg.AppEnv,
		Level:     cfg.LogLevel,
		AddSource: true,
	})

	root := context.Background()
	ctx, cancel := shutdown.WithSignals(root)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer pool.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
	}

	rules := pricing.Rules{
		ShippingFee:         cfg.ShippingFee,
		SmallOrderFee:       cfg.SmallOrderFee,
		SmallOrderThreshold: cfg.SmallOrderThreshold,
	}

	cartRepo := cartpg.NewCartRepo(pool)
	cartSvc := cartapp.NewService(cartRepo)

	productRepo := catalogpg.NewProductRepo(pool)
	productSource := catalogcache.New(productRepo, redisClient, log, 5*time.Minute)
	catalogSvc := catalogapp.NewService(productSource)

	ledger := orderpg.NewLedger(pool, cfg.OrdersTopic)
	reader := orderpg.NewReader(pool)
	orderSvc := orderapp.NewService(ledger, reader, cartRepo, productSource, rules, cfg.TrustClientTotal, log)

	gateway := stripegw.New(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	paymentSvc := paymentapp.NewService(gateway, ledger, rules, cfg.ClearCartOnWebhook, log)

	srvMetrics := metrics.NewServerMetrics("api")
	server := web.NewServer(orderSvc, paymentSvc, cartSvc, catalogSvc, pool, srvMetrics, log)

	var wg sync.WaitGroup

	kafkaClient := kafka.NewClient(cfg.KafkaBrokers)
	if kafkaClient.Enabled() {
		writer := kafkaClient.NewWriter(cfg.OrdersTopic)
		defer writer.Close()

		relay := outbox.NewRelay(pool, writer, log, time.Second)
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("outbox relay starting", slog.String("topic", cfg.OrdersTopic))
			relay.Run(ctx)
		}()
	} else {
		log.Info("kafka disabled, outbox relay not started")
	}

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http server starting", slog.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", slog.Any("err", err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", slog.Any("err", err))
	}

	wg.Wait()
	log.Info("bye")
}
