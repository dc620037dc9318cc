package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/gemwallet/internal/auth"
	"github.com/congo-pay/gemwallet/internal/config"
	"github.com/congo-pay/gemwallet/internal/middleware"
	"github.com/congo-pay/gemwallet/internal/notification"
	"github.com/congo-pay/gemwallet/internal/transfer"
	"github.com/congo-pay/gemwallet/internal/user"
	"github.com/congo-pay/gemwallet/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
// DB, Cache and Events may be nil in development.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Events   notification.MessageWriter
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	var walletStore wallet.Store
	var userRepo user.Repository
	if d.DB != nil {
		walletStore = wallet.NewPostgresStore(d.DB)
		userRepo = user.NewPostgresRepository(d.DB)
	} else {
		d.Logger.Warn("no database configured, using in-memory stores")
		walletStore = wallet.NewMemoryStore()
		userRepo = user.NewMemoryRepository()
	}

	var refreshStore auth.RefreshStore
	if d.Cache != nil {
		refreshStore = auth.NewRedisRefreshStore(d.Cache)
	} else {
		refreshStore = auth.NewMemoryRefreshStore()
	}

	var notifier notification.Notifier = notification.NewLoggerNotifier(d.Logger)
	if d.Events != nil {
		notifier = notification.NewKafkaNotifier(d.Events)
	}

	walletSvc := wallet.NewService(walletStore)
	userSvc := user.NewService(userRepo, walletSvc, d.Logger)
	tokens := auth.NewTokens(d.Cfg.JWTSecret, d.Cfg.AppName, d.Cfg.AccessTokenTTL)
	authSvc := auth.NewService(userSvc, tokens, refreshStore, d.Cfg.RefreshTokenTTL, d.Logger)

	metrics := transfer.NewMetrics(d.Registry)
	policy := transfer.RetryPolicy{
		BaseDelay:   d.Cfg.Transfer.RetryBaseDelay,
		MaxAttempts: d.Cfg.Transfer.MaxAttempts,
		Jitter:      d.Cfg.Transfer.RetryJitter,
	}
	executor := transfer.NewExecutor(walletStore, d.Logger)
	transferSvc := transfer.NewService(transfer.NewRetrier(executor, policy, d.Logger, metrics), notifier, d.Logger)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals(middleware.RequestIDLocal).(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterUserRoutes(api, user.NewHandler(userSvc))
	RegisterAuthRoutes(api, auth.NewHandler(authSvc), middleware.LoginRateLimit(d.Cache, d.Cfg.LoginAttemptsPerMinute, d.Logger))

	// Protected routes
	protected := api.Group("", middleware.JWTAuth(authSvc))
	RegisterWalletRoutes(protected, wallet.NewHandler(walletSvc))

	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(middleware.IdempotencyConfig{
			Cache:  d.Cache,
			TTL:    d.Cfg.IdempotencyTTL,
			Logger: d.Logger,
		})
	}
	RegisterTransferRoutes(protected, transfer.NewHandler(transferSvc), idempotency)

	return nil
}
