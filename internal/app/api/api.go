package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/content-generator/internal/billing"
	"github.com/magabrotheeeer/content-generator/internal/cache"
	"github.com/magabrotheeeer/content-generator/internal/config"
	"github.com/magabrotheeeer/content-generator/internal/grpc/client"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/auth/session"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/health"
	"github.com/magabrotheeeer/content-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-generator/internal/lib/clock"
	"github.com/magabrotheeeer/content-generator/internal/lib/jwt"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/migrations"
	"github.com/magabrotheeeer/content-generator/internal/paymentprovider"
	"github.com/magabrotheeeer/content-generator/internal/rabbitmq"
	accountservice "github.com/magabrotheeeer/content-generator/internal/services/account"
	authservice "github.com/magabrotheeeer/content-generator/internal/services/auth"
	"github.com/magabrotheeeer/content-generator/internal/services/generation"
	"github.com/magabrotheeeer/content-generator/internal/services/metering"
	paymentservice "github.com/magabrotheeeer/content-generator/internal/services/payment"
	"github.com/magabrotheeeer/content-generator/internal/services/subscription"
	"github.com/magabrotheeeer/content-generator/internal/storage/repository"
	"github.com/magabrotheeeer/content-generator/internal/textgen"
)

const shutdownTimeout = 15 * time.Second

// App HTTP API вместе с ресурсами, которые нужно закрыть при остановке.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	closers []io.Closer
}

// New подключает хранилище, кэш и брокер и собирает сервисы и маршруты.
// Redis и RabbitMQ необязательны: без адреса кэш профилей и уведомления отключены.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.api.New"
	app := &App{logger: logger}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.closers = append(app.closers, db)

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	catalog, err := billing.NewCatalog(cfg.Billing)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	engine := billing.NewEngine(catalog)
	clk := clock.Real{}

	checks := []health.Check{{Name: "postgres", Probe: db.DB.PingContext}}

	var (
		profiles    accountservice.ProfileCache
		invalidator generation.Invalidator
		subOpts     []subscription.Option
	)
	if cfg.AddressRedis != "" {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.closers = append(app.closers, redisCache)
		profiles, invalidator = redisCache, redisCache
		subOpts = append(subOpts, subscription.WithCache(redisCache))
		checks = append(checks, health.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return redisCache.Db.Ping(ctx).Err()
		}})
	} else {
		logger.Warn("redis address is empty, profile cache disabled")
	}

	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.closers = append(app.closers, conn)
		ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, rabbitmq.BillingQueues(cfg.RabbitMQ.Queue))
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.closers = append(app.closers, ch)
		subOpts = append(subOpts, subscription.WithPublisher(rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange)))
	} else {
		logger.Warn("rabbitmq url is empty, billing notifications disabled")
	}

	authService := authservice.New(db, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), clk, cfg.Billing.TrialPeriod)
	var tokens middlewarectx.TokenValidator = authService
	if cfg.GRPCAuthAddress != "" {
		authClient, err := client.NewAuthClient(cfg.GRPCAuthAddress)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.closers = append(app.closers, authClient)
		tokens = authClient
	}

	subscriptions := subscription.New(db, engine, clk, logger, subOpts...)
	provider := paymentprovider.NewStripe(cfg.Stripe)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Auth:         authService,
		Tokens:       tokens,
		Entitlements: metering.NewEvaluator(db, catalog),
		Accounts:     accountservice.New(db, profiles, catalog, logger),
		Generation:   generation.New(metering.NewLedger(db, catalog), textgen.New(cfg.TextGen), invalidator, logger),
		Payments:     paymentservice.New(provider, db, subscriptions, catalog, logger),
		Limiter:      middlewarectx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Cookie: session.Config{
			Name:   cfg.AuthCookie.Name,
			MaxAge: cfg.AuthCookie.MaxAge,
			Secure: cfg.IsProduction(),
		},
		Checks:         checks,
		AllowedOrigins: []string{cfg.ClientOrigin},
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run обслуживает запросы до отмены ctx, затем останавливает сервер и закрывает ресурсы.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

// close закрывает ресурсы в обратном порядке открытия.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
}
