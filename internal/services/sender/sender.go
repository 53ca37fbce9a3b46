// Package sender отправляет пользователям письма о событиях биллинга.
package sender

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/lib/smtp"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// ErrUnknownEvent событие без шаблона письма.
var ErrUnknownEvent = errors.New("unknown billing event")

// Service отправитель уведомлений.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создаёт Service.
func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// HandleBillingEvent разбирает сообщение из очереди и отправляет письмо владельцу учётной записи.
func (s *Service) HandleBillingEvent(body []byte) error {
	const op = "services.sender.HandleBillingEvent"

	var event models.BillingEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Op(op), sl.Err(err))
		return fmt.Errorf("%s: %w: error unmarshalling message: %w", op, models.ErrValidation, err)
	}
	if event.Email == "" {
		return fmt.Errorf("%s: %w: event without recipient", op, models.ErrValidation)
	}

	subject, text, err := compose(event)
	if err != nil {
		s.log.Warn("no template for event", sl.Op(op), slog.String("type", event.Type))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = s.sendEmail([]string{event.Email}, subject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func compose(e models.BillingEvent) (subject, body string, err error) {
	switch e.Type {
	case models.EventTrialExpired:
		return "Пробный период завершён",
			fmt.Sprintf("Здравствуйте, %s!\n\nПробный период закончился, учётная запись переведена на тариф %s.\n"+
				"Оформите бесплатный тариф или оплатите Basic или Premium, чтобы продолжить генерацию.",
				e.Username, e.Plan), nil
	case models.EventCycleReset:
		return "Лимит запросов обновлён",
			fmt.Sprintf("Здравствуйте, %s!\n\nНачался новый расчётный месяц. Счётчик запросов по тарифу %s обнулён.",
				e.Username, e.Plan), nil
	case models.EventPaymentSucceeded:
		amount := ""
		if e.Amount != nil {
			amount = fmt.Sprintf(" на сумму %s %s", e.Amount.StringFixed(2), strings.ToUpper(e.Currency))
		}
		return "Оплата получена",
			fmt.Sprintf("Здравствуйте, %s!\n\nМы получили оплату%s. Тариф %s активирован.",
				e.Username, amount, e.Plan), nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
	}
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	const op = "services.sender.sendEmail"
	from := s.transport.GetSMTPUser()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = client.Close()
	}()

	if err = client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, addr := range to {
		if err = client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("email sent successfully", slog.Any("to", to), slog.String("subject", subject))
	return nil
}
