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

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/minsukang/codementor/config"
	"github.com/minsukang/codementor/pkg/ai/llm"
	"github.com/minsukang/codementor/pkg/api/handlers"
	custommw "github.com/minsukang/codementor/pkg/api/middleware"
	"github.com/minsukang/codementor/pkg/billing"
	"github.com/minsukang/codementor/pkg/cache"
	"github.com/minsukang/codementor/pkg/database"
	"github.com/minsukang/codementor/pkg/email"
	"github.com/minsukang/codementor/pkg/logger"
	"github.com/minsukang/codementor/pkg/metrics"
	custommiddleware "github.com/minsukang/codementor/pkg/middleware"
	"github.com/minsukang/codementor/pkg/oauth"
	"github.com/minsukang/codementor/pkg/quota"
	"github.com/minsukang/codementor/pkg/review"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load .env if present; real deployments set variables directly
	_ = godotenv.Load()

	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	appLogger := logger.New(cfg.LogLevel)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Initialize database
	db, err := database.NewClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Redis cache (optional)
	var redisClient *cache.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		log.Printf("ℹ️  Redis disabled (no URL configured), review history is uncached")
	}

	// Initialize Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Rate limiters
	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	reviewRateLimiter := custommiddleware.NewRateLimiter(10, 3)     // review generation is expensive
	webhookRateLimiter := custommiddleware.NewRateLimiter(100, 20)  // Stripe retries in bursts

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", c.Request().Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	e.Use(prometheusMetrics.Middleware())
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(cfg.FrontendURL)))
	e.Use(middleware.Gzip())
	e.Use(middleware.Secure())
	e.Use(globalRateLimiter.RateLimitMiddleware())

	// Health check endpoints (public)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "CodeMentor API",
			"version":     "0.1.0",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":   "unhealthy",
				"database": "down",
			})
		}

		cacheStatus := "disabled"
		if redisClient != nil {
			cacheStatus = "up"
			if err := redisClient.Redis.Ping(ctx).Err(); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]any{
					"status": "unhealthy",
					"cache":  "down",
				})
			}
		}

		return c.JSON(http.StatusOK, map[string]any{
			"status":   "healthy",
			"database": "up",
			"cache":    cacheStatus,
		})
	})

	// Prometheus metrics endpoint (public)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Initialize services
	aiClient := llm.NewClient(llm.Config{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OpenAIModel,
	}, appLogger)

	quotaService := quota.NewService(db.DB)
	reviewService := review.NewService(db.DB, aiClient, quotaService, redisClient)
	reviewService.SetCacheRecorder(prometheusMetrics)
	emailService := email.NewService(cfg.SendGridAPIKey, cfg.EmailFrom, "CodeMentor")
	billingService := billing.NewService(db.DB, &billing.Config{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		PricePro:      cfg.StripePricePro,
		PriceTeam:     cfg.StripePriceTeam,
		FrontendURL:   cfg.FrontendURL,
	})
	billingService.SetEmailSender(emailService)
	billingService.SetMetricsRecorder(prometheusMetrics)
	oauthService := oauth.NewService(db.DB, &oauth.Config{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		CallbackURL:  cfg.OAuthCallbackURL,
	})

	// Initialize handlers
	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	secureCookies := cfg.APIEnvironment == "production"
	authHandler := handlers.NewAuthHandler(oauthService, prometheusMetrics, cfg.SessionSecret, sessionTTL, cfg.FrontendURL, secureCookies)
	reviewHandler := handlers.NewReviewHandler(db.DB, reviewService, prometheusMetrics)
	userHandler := handlers.NewUserHandler(db.DB, quotaService)
	billingHandler := handlers.NewBillingHandler(db.DB, billingService)

	// Public routes
	e.GET("/auth/github", authHandler.GithubLogin)
	e.GET("/auth/callback", authHandler.Callback)
	e.POST("/webhooks/payments", billingHandler.HandleWebhook, webhookRateLimiter.RateLimitMiddleware())

	// Protected routes (require a valid session)
	protected := e.Group("")
	protected.Use(custommw.SessionMiddleware(cfg.SessionSecret))
	{
		protected.POST("/auth/logout", authHandler.Logout)

		protected.POST("/reviews", reviewHandler.Create, reviewRateLimiter.RateLimitMiddleware())
		protected.GET("/reviews", reviewHandler.List)

		protected.GET("/user", userHandler.Get)
		protected.PATCH("/user", userHandler.Update)

		protected.POST("/checkout", billingHandler.CreateCheckout)
	}

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 CodeMentor API starting on %s", address)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d), reviews (10/min), webhook (100/min)",
		cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)

	// Graceful shutdown
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
