// Package sender читает события биллинга из RabbitMQ и отправляет письма.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/content-generator/internal/config"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/lib/smtp"
	"github.com/magabrotheeeer/content-generator/internal/models"
	"github.com/magabrotheeeer/content-generator/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/content-generator/internal/services/sender"
)

// App потребитель уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	queue         string
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New подключается к RabbitMQ и объявляет очередь уведомлений.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, rabbitmq.BillingQueues(cfg.RabbitMQ.Queue))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{
		conn:          conn,
		ch:            ch,
		queue:         cfg.RabbitMQ.Queue,
		senderService: senderservice.New(smtp.NewTransport(cfg.SMTP, logger), logger),
		logger:        logger,
	}, nil
}

// Run потребляет сообщения до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, a.queue, a.handle); err != nil {
		a.logger.Error("failed to start billing queue consumer", slog.String("queue", a.queue), sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}

// handle подтверждает сообщения, которые невозможно обработать, чтобы они не возвращались в очередь бесконечно.
func (a *App) handle(body []byte) error {
	err := a.senderService.HandleBillingEvent(body)
	if errors.Is(err, senderservice.ErrUnknownEvent) || errors.Is(err, models.ErrValidation) {
		a.logger.Warn("dropping billing event", sl.Err(err))
		return nil
	}
	return err
}
