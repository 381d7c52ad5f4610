// Package main is the entrypoint for the Shelfmark API server.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"github.com/shelfmark/shelfmark/internal/activity"
	"github.com/shelfmark/shelfmark/internal/cache"
	"github.com/shelfmark/shelfmark/internal/config"
	"github.com/shelfmark/shelfmark/internal/handler"
	"github.com/shelfmark/shelfmark/internal/metrics"
	"github.com/shelfmark/shelfmark/internal/middleware"
	"github.com/shelfmark/shelfmark/internal/notify"
	"github.com/shelfmark/shelfmark/internal/repository"
	"github.com/shelfmark/shelfmark/internal/server"
	"github.com/shelfmark/shelfmark/internal/service"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize metrics
	recorder := metrics.NewInMemory()

	// Loan lifecycle event sinks. The activity publisher feeds the
	// circulation stats pipeline; the webhook publisher fans out to
	// registered endpoints when webhook delivery is configured.
	activityPublisher := activity.NewPublisher(cacheClient.Client(), logger, recorder)
	sinks := []service.EventSink{activityPublisher}

	webhooks, err := setupWebhooks(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize webhook delivery", "error", err)
		os.Exit(1)
	}
	if webhooks != nil {
		defer webhooks.db.Close()
		sinks = append(sinks, webhooks.publisher)
	}

	// Initialize services
	bookService := service.NewBookService(repo, cacheClient, recorder)
	loanService := service.NewLoanService(repo, cacheClient, nil, cfg.LoanPeriod(), recorder, sinks...)
	reviewService := service.NewReviewService(repo, nil)
	userService := service.NewUserService(repo, cacheClient, cfg.SessionTTL)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	bookHandler := handler.NewBookHandler(bookService, logger)
	loanHandler := handler.NewLoanHandler(loanService, logger)
	reviewHandler := handler.NewReviewHandler(reviewService, logger)
	authHandler := handler.NewAuthHandler(userService, logger)
	adminHandler := handler.NewAdminHandler(recorder)

	var webhookHandler *handler.WebhookHandler
	if webhooks != nil {
		webhookHandler = handler.NewWebhookHandler(webhooks.manager, logger)
	}

	// Setup router
	r := setupRouter(routerDeps{
		base:     h,
		health:   healthHandler,
		books:    bookHandler,
		loans:    loanHandler,
		reviews:  reviewHandler,
		auth:     authHandler,
		admin:    adminHandler,
		webhooks: webhookHandler,
		cache:    cacheClient,
		cfg:      cfg,
		logger:   logger,
	})

	// Create server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Start background workers. Registered with the server so they drain
	// after the HTTP listener stops accepting requests.
	if cfg.ActivityWorkerEnabled {
		loanEventRepo := repository.NewLoanEventRepository(repo)
		worker := activity.NewWorker(cacheClient.Client(), loanEventRepo, logger, activity.NewConsumerID(), recorder)
		go func() {
			if err := worker.Run(ctx); err != nil && err != context.Canceled {
				logger.Error("activity worker exited", "error", err)
			}
		}()
		srv.OnShutdown("activity-worker", worker.Shutdown)
	}

	if webhooks != nil && cfg.WebhookWorkerEnabled {
		worker := notify.NewWorker(webhooks.repo, webhooks.cipher, logger)
		workerCtx, stopWorker := context.WithCancel(ctx)
		go func() {
			if err := worker.Run(workerCtx); err != nil {
				logger.Error("webhook worker exited", "error", err)
			}
		}()
		srv.OnShutdown("webhook-worker", func(ctx context.Context) error {
			stopWorker()
			return nil
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"webhooks_enabled", webhooks != nil,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// webhookStack bundles the webhook delivery components that exist only
// when an encryption key is configured.
type webhookStack struct {
	db        *sql.DB
	repo      *notify.Repository
	cipher    *notify.SecretCipher
	manager   *notify.Manager
	publisher *notify.Publisher
}

// setupWebhooks wires the webhook delivery stack. Without an encryption
// key the stack stays off: no routes, no publisher, no worker. A key that
// is present but malformed is a hard startup error rather than a silently
// disabled feature.
func setupWebhooks(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*webhookStack, error) {
	if cfg.WebhookEncryptionKey == "" {
		logger.Warn("WEBHOOK_ENCRYPTION_KEY not set, webhook delivery disabled")
		return nil, nil
	}

	cipher, err := notify.NewSecretCipher(cfg.WebhookEncryptionKey)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	repo := notify.NewRepository(db)
	return &webhookStack{
		db:        db,
		repo:      repo,
		cipher:    cipher,
		manager:   notify.NewManager(repo, cipher),
		publisher: notify.NewPublisher(repo, logger),
	}, nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// routerDeps collects everything setupRouter needs.
type routerDeps struct {
	base     *handler.Handler
	health   *handler.HealthHandler
	books    *handler.BookHandler
	loans    *handler.LoanHandler
	reviews  *handler.ReviewHandler
	auth     *handler.AuthHandler
	admin    *handler.AdminHandler
	webhooks *handler.WebhookHandler // nil when webhook delivery is disabled
	cache    *cache.Cache
	cfg      *config.Config
	logger   *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:  deps.cfg.IsDevelopment(),
		AllowedOrigins: deps.cfg.GetCORSAllowedOrigins(),
	}))
	r.Use(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = deps.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)

	// Root info endpoint
	r.Get("/", deps.base.Info)

	sessionCfg := middleware.SessionAuthConfig{
		Logger: deps.logger,
		Cache:  deps.cache,
	}

	loginRateLimit := middleware.RateLimitConfig{
		Logger:  deps.logger,
		Cache:   deps.cache,
		Enabled: deps.cfg.RateLimitLoginEnabled,
		RPS:     deps.cfg.RateLimitLoginRPS,
		Burst:   deps.cfg.RateLimitLoginBurst,
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Account endpoints (no session required)
		r.Post("/auth/register", deps.auth.Register)
		r.With(middleware.RateLimitIP(loginRateLimit)).Post("/auth/login", deps.auth.Login)
		r.Post("/auth/logout", deps.auth.Logout)

		// Everything below requires a live session
		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuth(sessionCfg))

			// Catalog
			r.Route("/books", func(r chi.Router) {
				r.Get("/", deps.books.List)
				r.Get("/{id}", deps.books.Get)
				r.With(middleware.RequireLibrarian()).Post("/", deps.books.Create)
				r.With(middleware.RequireLibrarian()).Delete("/{id}", deps.books.Delete)

				r.Get("/{id}/reviews", deps.reviews.ListByBook)
				r.Post("/{id}/reviews", deps.reviews.Create)
			})

			// Loan workflow
			r.Route("/loans", func(r chi.Router) {
				r.With(middleware.RequireLibrarian()).Get("/", deps.loans.List)
				r.Get("/{id}", deps.loans.Get)
				r.With(middleware.RateLimitIP(loginRateLimit)).Post("/", deps.loans.Create)
				r.Post("/{id}/return", deps.loans.Return)
				r.With(middleware.RequireLibrarian()).Delete("/{id}", deps.loans.Delete)
			})

			// User-scoped views
			r.Get("/users/me", deps.auth.Me)
			r.Put("/users/me/password", deps.auth.ChangePassword)
			r.Get("/users/{id}/loans", deps.loans.ListByUser)
			r.Get("/users/{id}/reviews", deps.reviews.ListByUser)
			r.With(middleware.RequireAdmin()).Delete("/users/{id}", deps.auth.DeleteUser)

			r.Delete("/reviews/{id}", deps.reviews.Delete)

			// Webhook endpoint management (librarians)
			if deps.webhooks != nil {
				r.Route("/webhooks", func(r chi.Router) {
					r.Use(middleware.RequireLibrarian())
					r.Post("/", deps.webhooks.Create)
					r.Get("/", deps.webhooks.List)
					r.Delete("/{id}", deps.webhooks.Delete)
					r.Get("/{id}/deliveries", deps.webhooks.ListDeliveries)
				})
			}

			// Operational endpoints
			r.With(middleware.RequireAdmin()).Get("/admin/metrics", deps.admin.Metrics)
		})
	})

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
