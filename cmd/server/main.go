package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/detailnco/booking-backend/internal/config"
	"github.com/detailnco/booking-backend/internal/database"
	"github.com/detailnco/booking-backend/internal/handlers"
	"github.com/detailnco/booking-backend/internal/pricing"
	"github.com/detailnco/booking-backend/internal/services"
	"github.com/detailnco/booking-backend/pkg/mail"
	"github.com/detailnco/booking-backend/pkg/payments"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Detail'N Co. Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize mail gateway
	var mailGateway mail.Gateway
	if cfg.Mail.Mode == "production" {
		logger.Info("Initializing Resend mail gateway in production mode...")
		mailGateway = mail.NewResendGateway(mail.ResendConfig{
			APIURL:   cfg.Mail.APIURL,
			APIKey:   cfg.Mail.APIKey,
			From:     cfg.Mail.From,
			FromName: cfg.Mail.FromName,
		})
	} else {
		logger.Info("Mail gateway in development mode (no actual email will be sent)")
		mailGateway = mail.NewDevGateway(logger)
	}

	// Initialize payment providers
	providers := map[string]payments.Provider{
		"stripe": payments.NewStripeClient(payments.StripeConfig{
			APIURL:    cfg.Payment.StripeAPIURL,
			SecretKey: cfg.Payment.StripeSecretKey,
		}, logger),
		"paypal": payments.NewPayPalClient(payments.PayPalConfig{
			APIBase:  cfg.Payment.PayPalAPIBase,
			ClientID: cfg.Payment.PayPalClientID,
			Secret:   cfg.Payment.PayPalSecret,
		}, logger),
	}

	// Initialize services
	logger.Info("Initializing services...")
	catalog := pricing.DefaultCatalog()
	bookingRepository := database.NewBookingRepository(db)
	availabilityService := services.NewAvailabilityService(bookingRepository, cfg.Booking)
	bookingService := services.NewBookingService(bookingRepository, catalog, mailGateway, cfg.Booking, cfg.Server.PublicBaseURL, logger)
	paymentService := services.NewPaymentService(bookingRepository, providers, cfg.Payment, logger)
	rateLimitService := services.NewRateLimitService(db, cfg.RateLimit)
	auditService := services.NewAuditService(db)
	logger.Info("Services initialized")

	// Initialize handlers
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	bookingHandler := handlers.NewBookingHandler(bookingService, rateLimitService, auditService, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, auditService, logger)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthCheckHandler(db))

	api := router.Group("/api")
	{
		api.GET("/availability", availabilityHandler.GetAvailability)

		bookings := api.Group("/bookings")
		{
			bookings.POST("", bookingHandler.CreateBooking)
			// Approve/reject are GET because they are clicked from an email.
			bookings.GET("/approve", bookingHandler.ApproveBooking)
			bookings.GET("/reject", bookingHandler.RejectBooking)
		}

		paymentGroup := api.Group("/payments")
		{
			paymentGroup.GET("/quote", paymentHandler.GetQuote)
			paymentGroup.POST("/checkout", paymentHandler.CreateCheckout)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
