// Package scheduler запускает фоновую сверку биллинга: истечение пробного
// периода и сброс счётчиков в начале расчётного периода.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/content-generator/internal/billing"
	"github.com/magabrotheeeer/content-generator/internal/cache"
	"github.com/magabrotheeeer/content-generator/internal/config"
	"github.com/magabrotheeeer/content-generator/internal/lib/clock"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/rabbitmq"
	"github.com/magabrotheeeer/content-generator/internal/services/reconciliation"
	"github.com/magabrotheeeer/content-generator/internal/services/subscription"
	"github.com/magabrotheeeer/content-generator/internal/storage/repository"
)

const (
	dbReadyAttempts = 10
	dbReadyDelay    = 3 * time.Second
)

// App представляет приложение планировщика.
type App struct {
	worker *reconciliation.Worker
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range dbReadyAttempts {
		if err := repository.CheckDatabaseReady(db); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dbReadyDelay):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

func newWorker(db *repository.Storage, cfg *config.Config, logger *slog.Logger, opts ...subscription.Option) (*reconciliation.Worker, error) {
	catalog, err := billing.NewCatalog(cfg.Billing)
	if err != nil {
		return nil, err
	}
	clk := clock.Real{}
	transitions := subscription.New(db, billing.NewEngine(catalog), clk, logger, opts...)
	return reconciliation.NewWorker(db, transitions, clk, logger,
		cfg.Scheduler.TrialSweepInterval, cfg.Scheduler.CycleSweepInterval), nil
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.scheduler.New"
	a := &App{logger: logger}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect storage: %w", op, err)
	}
	a.db = db
	if err = waitForDB(ctx, db); err != nil {
		a.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var opts []subscription.Option
	if cfg.RabbitMQ.URL != "" {
		a.conn, err = rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: failed to connect RabbitMQ: %w", op, err)
		}
		a.ch, err = rabbitmq.SetupChannel(a.conn, cfg.RabbitMQ.Exchange, rabbitmq.BillingQueues(cfg.RabbitMQ.Queue))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: failed to setup RabbitMQ channel: %w", op, err)
		}
		opts = append(opts, subscription.WithPublisher(rabbitmq.NewPublisher(a.ch, cfg.RabbitMQ.Exchange)))
	}

	if cfg.AddressRedis != "" {
		a.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: cache not initialized: %w", op, err)
		}
		opts = append(opts, subscription.WithCache(a.cache))
	}

	a.worker, err = newWorker(db, cfg, logger, opts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := a.worker.Run(ctx)
	a.logger.Info("shutting down scheduler service")
	a.Close()
	return err
}

// Worker воркер сверки. CLI запускает через него разовые проверки.
func (a *App) Worker() *reconciliation.Worker {
	return a.worker
}

// Close закрывает соединения с брокером, кэшем и базой.
func (a *App) Close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
	}
}
