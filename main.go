package main

import (
	"context"
	"os"
	"time"

	"storefront-backend/config"
	"storefront-backend/controllers"
	"storefront-backend/database"
	"storefront-backend/events"
	"storefront-backend/models"
	"storefront-backend/payments"
	"storefront-backend/pkg/awsutil"
	"storefront-backend/pkg/logger"
	"storefront-backend/repository"
	"storefront-backend/routes"
	"storefront-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const cartTTL = 7 * 24 * time.Hour

func main() {
	_ = godotenv.Load()

	logger.Initialize(os.Getenv("ENVIRONMENT"))
	log := logger.Log
	defer log.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := database.ConnectPostgres(cfg, log,
		&models.Product{},
		&models.InventoryLock{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderPayment{},
		&models.Refund{},
		&models.WebhookEvent{},
		&models.Profile{},
		&models.Address{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer database.Close(db)

	redisClient, err := database.NewRedisClient(cfg.RedisURL, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	var snsPublisher awsutil.SNSPublisher
	if cfg.SNSTopicArn != "" {
		awsCfg, err := awsutil.LoadAWSConfig(context.Background())
		if err != nil {
			log.Warn("Failed to load AWS config, SNS publishing disabled", zap.Error(err))
		} else {
			snsPublisher = awsutil.NewSNSClient(awsCfg)
		}
	}
	producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, snsPublisher, cfg.SNSTopicArn, log)
	defer producer.Close()

	orderRepo := repository.NewGormOrderRepository(db)
	inventoryRepo := repository.NewGormInventoryRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)
	webhookRepo := repository.NewGormWebhookRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	notificationRepo := repository.NewGormNotificationRepository(db)
	cartRepo := repository.NewRedisCartRepository(redisClient, cartTTL)

	providerFor := payments.NewFactory(payments.Config{
		PaystackSecretKey:   cfg.PaystackSecretKey,
		StripeSecretKey:     cfg.StripeSecretKey,
		StripeWebhookSecret: cfg.StripeWebhookSecret,
	})

	checkoutService := services.NewCheckoutService(
		orderRepo, inventoryRepo, paymentRepo, userRepo, cartRepo,
		notificationRepo, providerFor, producer, log,
	)
	webhookService := services.NewWebhookService(
		orderRepo, inventoryRepo, paymentRepo, webhookRepo, userRepo,
		notificationRepo, providerFor, producer, log,
	)
	adminService := services.NewAdminService(
		orderRepo, inventoryRepo, paymentRepo, userRepo,
		notificationRepo, providerFor, producer, log,
	)
	orderService := services.NewOrderService(orderRepo)
	cleanupService := services.NewCleanupService(orderRepo, inventoryRepo, producer, log)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())

	routes.Register(r, routes.Controllers{
		Cart:     controllers.NewCartController(cartRepo, log),
		Checkout: controllers.NewCheckoutController(checkoutService, checkoutDefaults(cfg)),
		Orders:   controllers.NewOrderController(orderService, webhookService),
		Admin:    controllers.NewAdminController(adminService, orderService),
		Webhooks: controllers.NewWebhookController(webhookService, log),
		Cron:     controllers.NewCronController(cleanupService, cfg.CronSecret),
	}, []byte(cfg.JWTSecret))

	log.Info("Starting server", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Error starting server", zap.Error(err))
	}
}

func checkoutDefaults(cfg *config.Config) controllers.CheckoutDefaults {
	defaults := controllers.CheckoutDefaults{PaymentMethod: cfg.DefaultGateway}
	if cfg.SiteURL != "" {
		defaults.CallbackURL = cfg.SiteURL + "/checkout/callback"
	}
	return defaults
}
