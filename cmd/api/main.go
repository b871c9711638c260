package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/antiekhuis/antiekhuis-api/internal/config"
	"github.com/antiekhuis/antiekhuis-api/internal/handler"
	"github.com/antiekhuis/antiekhuis-api/internal/mailer"
	"github.com/antiekhuis/antiekhuis-api/internal/middleware"
	"github.com/antiekhuis/antiekhuis-api/internal/payment"
	"github.com/antiekhuis/antiekhuis-api/internal/repository"
	"github.com/antiekhuis/antiekhuis-api/internal/service"
	"github.com/antiekhuis/antiekhuis-api/internal/storage"
	"github.com/antiekhuis/antiekhuis-api/internal/worker"
	"github.com/antiekhuis/antiekhuis-api/migrations"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Migrations
	if err := runMigrations(cfg.DB.DSN()); err != nil {
		log.Error("run migrations", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := worker.SetupRabbitMQ(amqpCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	// Outbound integrations
	mail := mailer.NewSMTPMailer(
		cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password,
		cfg.SMTP.From, cfg.Store.Name, cfg.Store.BaseURL,
	)

	var images storage.ImageStore
	if cfg.Cloudinary.URL != "" {
		store, err := storage.NewCloudinaryStore(cfg.Cloudinary.URL, cfg.Cloudinary.Folder)
		if err != nil {
			log.Error("init cloudinary", "error", err)
			os.Exit(1)
		}
		images = store
	} else {
		log.Warn("cloudinary not configured, image upload disabled")
	}

	stripeClient := payment.NewStripeClient(
		cfg.Stripe.SecretKey, cfg.Stripe.Currency,
		cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL,
	)

	flatShipping, err := decimal.NewFromString(cfg.Store.FlatShippingCost)
	if err != nil {
		log.Error("parse flat shipping cost", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	categoryRepo := repository.NewCategoryRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	wishlistRepo := repository.NewWishlistRepository(dbPool)
	webhookRepo := repository.NewWebhookRepository(dbPool)
	cartStore := repository.NewCartStore(redisClient)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWT)
	wishlistSvc := service.NewWishlistService(wishlistRepo, productRepo, mail)
	productSvc := service.NewProductService(productRepo, categoryRepo, redisClient, wishlistSvc, images, log)
	categorySvc := service.NewCategoryService(categoryRepo)
	cartSvc := service.NewCartService(cartStore)
	checkoutSvc := service.NewCheckoutService(productRepo, stripeClient, flatShipping)
	orderSvc := service.NewOrderService(orderRepo, productRepo, userRepo, mail, log)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	productH := handler.NewProductHandler(productSvc)
	categoryH := handler.NewCategoryHandler(categorySvc)
	cartH := handler.NewCartHandler(cartSvc)
	checkoutH := handler.NewCheckoutHandler(checkoutSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	wishlistH := handler.NewWishlistHandler(wishlistSvc)
	webhookH := handler.NewWebhookHandler(amqpCh, cfg.Stripe.WebhookSecret, log)
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn)

	// Worker
	orderWorker := worker.NewOrderWorker(
		amqpCh, orderRepo, productRepo, webhookRepo,
		wishlistSvc, mail, redisClient, cfg.Store.OrderPrefix, log,
	)

	// Router
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	authRequired := middleware.AuthMiddleware(cfg.JWT.Secret)
	adminOnly := middleware.AdminOnly()

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.GET("/me", authRequired, authH.Me)

		products := api.Group("/products")
		products.GET("", productH.List)
		products.GET("/:id", productH.Get)

		productsAdmin := products.Group("", authRequired, adminOnly)
		productsAdmin.POST("", productH.Create)
		productsAdmin.PUT("/:id", productH.Update)
		productsAdmin.DELETE("/:id", productH.Delete)
		productsAdmin.POST("/:id/images", productH.UploadImage)
		productsAdmin.DELETE("/:id/images/:imageId", productH.DeleteImage)

		categories := api.Group("/categories")
		categories.GET("", categoryH.List)
		categories.POST("", authRequired, adminOnly, categoryH.Create)
		categories.DELETE("/:id", authRequired, adminOnly, categoryH.Delete)

		cart := api.Group("/cart")
		cart.GET("", cartH.Get)
		cart.POST("/items", cartH.AddItem)
		cart.DELETE("/items/:productId", cartH.RemoveItem)
		cart.DELETE("", cartH.Clear)

		api.POST("/checkout", middleware.OptionalAuth(cfg.JWT.Secret), checkoutH.CreateSession)
		api.POST("/webhooks/stripe", webhookH.HandleStripe)

		wishlist := api.Group("/wishlist", authRequired)
		wishlist.POST("", wishlistH.Add)
		wishlist.GET("", wishlistH.List)
		wishlist.DELETE("/:productId", wishlistH.Remove)

		orders := api.Group("/orders", authRequired)
		orders.GET("/my", orderH.ListMine)
		orders.GET("/:id", orderH.Get)
		orders.GET("", adminOnly, orderH.List)
		orders.PUT("/:id", adminOnly, orderH.Update)
		orders.POST("/:id/resend-notification", adminOnly, orderH.ResendNotification)
	}

	if err := orderWorker.Start(ctx); err != nil {
		log.Error("start order worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	orderWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}

func runMigrations(dsn string) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
