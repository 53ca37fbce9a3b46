// Package auth регистрирует учётные записи, выполняет вход и проверяет токены сессии.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/lib/clock"
	"github.com/magabrotheeeer/content-generator/internal/lib/jwt"
	"github.com/magabrotheeeer/content-generator/internal/lib/password"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// AccountRepository описывает контракт для работы с учётными записями в базе данных.
type AccountRepository interface {
	// CreateAccount сохраняет новую учётную запись и возвращает её UID.
	CreateAccount(ctx context.Context, acc models.Account) (string, error)
	// GetAccountByEmail возвращает учётную запись по email.
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
}

// Service отвечает за регистрацию, вход и валидацию JWT.
type Service struct {
	accounts    AccountRepository
	jwtMaker    jwt.Maker
	clock       clock.Clock
	trialPeriod time.Duration
}

// New создает новый экземпляр Service.
func New(accounts AccountRepository, jwtMaker jwt.Maker, clk clock.Clock, trialPeriod time.Duration) *Service {
	return &Service{
		accounts:    accounts,
		jwtMaker:    jwtMaker,
		clock:       clk,
		trialPeriod: trialPeriod,
	}
}

// Register создает учётную запись на пробном тарифе с ролью "user".
func (s *Service) Register(ctx context.Context, email, username, rawPassword string) (*models.Account, error) {
	const op = "services.auth.Register"

	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if email == "" || username == "" || rawPassword == "" {
		return nil, fmt.Errorf("%s: %w: username, email and password are required", op, models.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%s: %w: invalid email", op, models.ErrValidation)
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrValidation, err)
	}

	now := s.clock.Now()
	acc := models.Account{
		Username:       username,
		Email:          email,
		PasswordHash:   hashed,
		Role:           models.RoleUser,
		Plan:           models.PlanTrial,
		TrialActive:    true,
		TrialExpiresAt: now.Add(s.trialPeriod),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	uid, err := s.accounts.CreateAccount(ctx, acc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	acc.UID = uid
	return &acc, nil
}

// Login проверяет пароль и выпускает токен сессии.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (string, *models.Account, error) {
	const op = "services.auth.Login"

	acc, err := s.accounts.GetAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return "", nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = password.CompareHash(acc.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}

	token, err := s.jwtMaker.GenerateToken(acc.Username, acc.Role, acc.UID)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, acc, nil
}

// ValidateToken проверяет JWT и возвращает пользователя, которому он выдан.
func (s *Service) ValidateToken(_ context.Context, token string) (models.Principal, error) {
	const op = "services.auth.ValidateToken"
	if token == "" {
		return models.Principal{}, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%s: %w: %w", op, models.ErrUnauthenticated, err)
	}
	return claims.Principal(), nil
}
