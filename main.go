package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"order-hub/apperrors"
	"order-hub/config"
	"order-hub/controllers"
	"order-hub/database"
	"order-hub/kafka"
	"order-hub/logger"
	"order-hub/middleware"
	"order-hub/repository"
	"order-hub/routes"
	"order-hub/services"
	"order-hub/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	zapLogger, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer zapLogger.Sync()

	db, err := database.Connect(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// Redis is optional; without it channel config reads hit postgres.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	// Kafka is optional; without brokers payment events are not published.
	var producer kafka.ProducerAPI
	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewPaymentEventProducer(cfg.KafkaBrokers, cfg.PaymentEventTopic, zapLogger)
		defer p.Close()
		producer = p
	}

	secretVault, err := vault.New(cfg.EncryptionKey)
	if err != nil {
		zapLogger.Fatal("Failed to initialize vault", zap.Error(err))
	}

	orderRepo := repository.NewGormOrderRepository(db)
	paymentRepo := repository.NewGormPaymentRepo(db)
	channelRepo := repository.NewGormChannelConfigRepo(db)
	idempotencyRepo := repository.NewGormIdempotencyRepo(db)
	providerRepo := repository.NewGormProviderRepo(db)

	orderSvc := services.NewOrderService(orderRepo, paymentRepo, zapLogger)
	paymentSvc := services.NewPaymentService(paymentRepo, orderRepo, producer, zapLogger)
	policySvc := services.NewChannelPolicyService(channelRepo, redisClient, zapLogger)
	dispatcher := services.NewCallbackDispatcher(policySvc, cfg.CallbackURL, cfg.CallbackSecret, cfg.SandboxMode, zapLogger)
	webhookSvc := services.NewWebhookService(orderSvc, paymentSvc, policySvc, dispatcher, zapLogger)
	simulatorSvc := services.NewWebhookSimulatorService(webhookSvc, paymentSvc, cfg.SandboxMode, zapLogger)
	stripeSvc := services.NewStripeService(cfg.StripeWebhookKey)
	providerSvc := services.NewProviderService(providerRepo, secretVault, stripeSvc, zapLogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLogger(zapLogger))
	router.Use(apperrors.ErrorMiddleware())

	routes.SetupRoutes(router, routes.Controllers{
		Order:    controllers.NewOrderController(orderSvc),
		Payment:  controllers.NewPaymentController(paymentSvc),
		Webhook:  controllers.NewWebhookController(webhookSvc, simulatorSvc, stripeSvc),
		Channel:  controllers.NewChannelController(policySvc),
		Provider: controllers.NewProviderController(providerSvc),
	}, middleware.Idempotency(idempotencyRepo, middleware.DefaultIdempotencyTTL, zapLogger))

	zapLogger.Info("Order hub listening",
		zap.String("port", cfg.Port),
		zap.Bool("sandbox_mode", cfg.SandboxMode),
	)
	if err := router.Run(":" + cfg.Port); err != nil {
		zapLogger.Fatal("Server failed", zap.Error(err))
	}
}
