package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-orders/config"
	"storefront-orders/internal/api"
	"storefront-orders/internal/auth"
	"storefront-orders/internal/broker"
	"storefront-orders/internal/redisclient"
	"storefront-orders/internal/service"
	"storefront-orders/internal/store"
	"storefront-orders/internal/util"
	"storefront-orders/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "storefront-orders"

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, serviceName); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront orders service", zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer(serviceName, cfg.Server.Env, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	if cfg.Payments.WebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET is not set, payment webhooks will be rejected")
	}

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicOrder))

	eventPublisher := broker.NewEventPublisher(producer)

	reconciler := service.NewReconciler(db, eventPublisher)
	receiver := service.NewWebhookReceiver(service.ReceiverConfig{
		Secret:         cfg.Payments.WebhookSecret,
		Tolerance:      time.Duration(cfg.Payments.SignatureToleranceSecs) * time.Second,
		StrictDelivery: cfg.Payments.StrictDelivery,
		LockTTL:        time.Duration(cfg.Payments.WebhookLockTTLSeconds) * time.Second,
	}, reconciler, redisClient)
	sessionResolver := service.NewSessionResolver(db)
	orderService := service.NewOrderService(db)
	storefrontService := service.NewStorefrontService(db, time.Duration(cfg.Cache.StoreTTLSeconds)*time.Second)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if n := storefrontService.PurgeExpired(); n > 0 {
					logger.Debug("Purged expired storefront cache entries", zap.Int("count", n))
				}
			}
		}
	}()

	var relayWorker *worker.WebhookRelayWorker
	if cfg.Kafka.RelayEnabled {
		relayConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPaymentWebhooks, cfg.Kafka.ConsumerGroup)
		relayWorker = worker.NewWebhookRelayWorker(relayConsumer, receiver)
		go func() {
			if err := relayWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("Webhook relay worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Dependencies{
		Webhooks:    receiver,
		Sessions:    sessionResolver,
		Orders:      orderService,
		Storefronts: storefrontService,
		Auth:        auth.NewHeaderProvider(),
		Readiness: map[string]api.Pinger{
			"postgres": db,
			"redis":    redisClient,
		},
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if relayWorker != nil {
		if err := relayWorker.Stop(); err != nil {
			logger.Error("Error stopping relay worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
