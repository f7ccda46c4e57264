package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pix-payment-svc/config"
	"pix-payment-svc/database"
	"pix-payment-svc/gateway"
	"pix-payment-svc/handlers"
	"pix-payment-svc/middleware"
	"pix-payment-svc/notify"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis (status notification channel)
	rdb, err := notify.InitRedis(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer rdb.Close()

	// Initialize OpenTelemetry
	shutdown, err := middleware.InitTracing("pix-payment-service")
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer shutdown()

	broker := notify.NewRedisBroker(rdb, logger)

	// Gateway adapters; each route is bound to exactly one provider.
	tribopay := gateway.NewTriboPay(cfg, logger)
	pushinpay := gateway.NewPushinPay(cfg, database.NewPushinPayCredentials(db), logger)
	syncpay := gateway.NewSyncPay(cfg, logger)

	adminHandler := handlers.NewAdminHandler(db, logger)
	orderHandler := handlers.NewOrderHandler(db, logger)
	streamHandler := handlers.NewStreamHandler(db, broker, logger)

	// Setup REST API with Gin
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("pix-payment-service"))
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())

	router.POST("/pix/tribopay", handlers.NewChargeHandler(db, tribopay, true, logger).CreateCharge)
	router.POST("/pix/pushinpay", handlers.NewChargeHandler(db, pushinpay, false, logger).CreateCharge)
	router.POST("/pix/syncpay", handlers.NewChargeHandler(db, syncpay, true, logger).CreateCharge)

	router.POST("/webhooks/tribopay", handlers.NewWebhookHandler(db, tribopay, broker, logger).Handle)
	router.POST("/webhooks/pushinpay", handlers.NewWebhookHandler(db, pushinpay, broker, logger).Handle)
	router.POST("/webhooks/syncpay", handlers.NewWebhookHandler(db, syncpay, broker, logger).Handle)

	router.GET("/admin/pushinpay", adminHandler.GetPushinPayConfig)
	router.POST("/admin/pushinpay", adminHandler.SavePushinPayConfig)

	router.GET("/orders/:id", orderHandler.GetOrder)
	router.GET("/orders/:id/stream", streamHandler.StreamStatus)

	// Health check endpoint
	router.GET("/health", handlers.HealthCheck)

	// Metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler())

	// Start REST server
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start REST server", zap.Error(err))
		}
	}()

	logger.Info("PIX Payment Service started", zap.String("addr", cfg.HTTPAddr))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	logger.Info("Server exited")
}
