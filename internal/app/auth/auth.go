// Package auth запускает gRPC-сервис проверки токенов.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"

	"github.com/magabrotheeeer/content-generator/internal/config"
	"github.com/magabrotheeeer/content-generator/internal/grpc/authpb"
	"github.com/magabrotheeeer/content-generator/internal/grpc/server"
	"github.com/magabrotheeeer/content-generator/internal/lib/clock"
	"github.com/magabrotheeeer/content-generator/internal/lib/jwt"
	authservice "github.com/magabrotheeeer/content-generator/internal/services/auth"
)

// App gRPC-сервер авторизации.
type App struct {
	grpcServer *grpc.Server
	listener   net.Listener
	logger     *slog.Logger
}

// New создаёт сервер. Для проверки токена база не нужна, достаточно секрета подписи.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.auth.New"

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.New(nil, jwtMaker, clock.Real{}, cfg.Billing.TrialPeriod)

	lis, err := net.Listen("tcp", cfg.GRPCAuthAddress)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	grpcServer := grpc.NewServer()
	authpb.RegisterAuthServiceServer(grpcServer, server.NewAuthServer(authService, logger))

	return &App{
		grpcServer: grpcServer,
		listener:   lis,
		logger:     logger,
	}, nil
}

// Run обслуживает запросы до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("Auth gRPC service listening on", slog.String("address", a.listener.Addr().String()))
		errCh <- a.grpcServer.Serve(a.listener)
	}()

	select {
	case <-ctx.Done():
		a.grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}
