package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spendly/spendly-backend/internal/auth"
	"github.com/spendly/spendly-backend/internal/config"
	"github.com/spendly/spendly-backend/internal/handler"
	"github.com/spendly/spendly-backend/internal/mail"
	"github.com/spendly/spendly-backend/internal/middleware"
	"github.com/spendly/spendly-backend/internal/repository/postgres"
	"github.com/spendly/spendly-backend/internal/repository/storage"
	"github.com/spendly/spendly-backend/internal/service"
	"github.com/spendly/spendly-backend/internal/websocket"
)

// @title Spendly API
// @version 1.0
// @description Personal finance backend: wallets, transactions, budgets and reports.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer access token issued by /auth/login
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		log.Info().Msg("Migrations applied")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	txManager := postgres.NewTxManager(pool)
	userRepo := postgres.NewUserRepository(pool)
	resetRepo := postgres.NewPasswordResetRepository(pool)
	walletRepo := postgres.NewWalletRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	budgetRepo := postgres.NewBudgetRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)

	store := newObjectStore(cfg)

	var mailQueue mail.Queue = mail.NewLogQueue()
	if cfg.Mail.AMQPURL != "" {
		client, err := mail.NewClient(cfg.Mail.AMQPURL, cfg.Mail.Exchange, cfg.Mail.Queue)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to mail queue")
		}
		defer client.Close()
		mailQueue = client
		log.Info().Str("queue", cfg.Mail.Queue).Msg("Connected to mail queue")
	} else {
		log.Warn().Msg("AMQP_URL not set, outbound mail is logged only")
	}

	issuer := auth.NewTokenIssuer(cfg.JWT)
	verifier, err := auth.NewVerifier(cfg.JWT)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token verifier")
	}

	hub := websocket.NewHub()

	// Initialize services
	authService := service.NewAuthService(userRepo, resetRepo, issuer, mailQueue, cfg.PasswordResetTTL)
	profileService := service.NewProfileService(userRepo, store)
	categoryService := service.NewCategoryService(categoryRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	notificationService.SetEventPublisher(hub)
	budgetService := service.NewBudgetService(budgetRepo, categoryRepo, walletRepo, transactionRepo, userRepo, notificationService, mailQueue)
	budgetService.SetEventPublisher(hub)
	transactionService := service.NewTransactionService(txManager, transactionRepo, walletRepo, categoryRepo, budgetRepo, budgetService)
	transactionService.SetEventPublisher(hub)
	walletService := service.NewWalletService(txManager, walletRepo, transactionRepo, budgetRepo, userRepo, transactionService, budgetService)
	walletService.SetEventPublisher(hub)
	reportService := service.NewReportService(reportRepo, userRepo)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	ipExtractor, err := middleware.ClientIPExtractor(cfg.TrustedProxies)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure trusted proxies")
	}
	e.IPExtractor = ipExtractor

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Leaves headroom over the avatar limit for multipart framing
	e.Use(echomiddleware.BodyLimit("6M"))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Register API routes
	handler.RegisterRoutes(e,
		middleware.NewAuthMiddleware(verifier),
		middleware.NewRateLimiterWithConfig(cfg.AuthRateLimit, middleware.DefaultBurstSize),
		handler.Handlers{
			Auth:         handler.NewAuthHandler(authService),
			Profile:      handler.NewProfileHandler(profileService),
			Wallet:       handler.NewWalletHandler(walletService),
			Category:     handler.NewCategoryHandler(categoryService),
			Transaction:  handler.NewTransactionHandler(transactionService),
			Budget:       handler.NewBudgetHandler(budgetService),
			Notification: handler.NewNotificationHandler(notificationService),
			Report:       handler.NewReportHandler(reportService),
			WebSocket:    handler.NewWebSocketHandler(hub, websocket.NewJWTValidator(verifier), cfg.CORSOrigins),
		},
	)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// newObjectStore connects the configured avatar storage. It returns a nil
// interface when uploads are disabled.
func newObjectStore(cfg *config.Config) storage.ObjectStore {
	ctx := context.Background()

	switch cfg.StorageDriver {
	case "s3":
		store, err := storage.NewS3Store(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
		}
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Avatar storage: S3")
		return store
	case "minio":
		store, err := storage.NewMinIOStore(ctx, cfg.MinIO)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize MinIO storage")
		}
		log.Info().Str("bucket", cfg.MinIO.BucketName).Msg("Avatar storage: MinIO")
		return store
	}

	log.Warn().Msg("STORAGE_DRIVER not set, avatar uploads disabled")
	return nil
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
