// Package server реализует gRPC-сервер проверки токенов.
//
// AuthServer принимает токен, делегирует проверку TokenValidator и возвращает
// пользователя, которому токен выдан. Ошибки отображаются в коды gRPC.
package server

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/content-generator/internal/grpc/authpb"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// TokenValidator проверяет токен.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (models.Principal, error)
}

// AuthServer реализует authpb.AuthServiceServer.
type AuthServer struct {
	authService TokenValidator
	log         *slog.Logger
}

var _ authpb.AuthServiceServer = (*AuthServer)(nil)

// NewAuthServer создает новый экземпляр AuthServer.
func NewAuthServer(authService TokenValidator, logger *slog.Logger) *AuthServer {
	return &AuthServer{
		authService: authService,
		log:         logger,
	}
}

// ValidateToken проверяет валидность JWT и возвращает данные пользователя.
func (s *AuthServer) ValidateToken(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	const op = "grpc.server.ValidateToken"
	log := s.log.With(sl.Op(op))

	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}

	principal, err := s.authService.ValidateToken(ctx, req.GetValue())
	if err != nil {
		if errors.Is(err, models.ErrUnauthenticated) {
			log.Debug("invalid token", sl.Err(err))
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		log.Error("token validation failed", sl.Err(err))
		return nil, status.Error(codes.Internal, "token validation failed")
	}

	resp, err := authpb.PrincipalToStruct(principal)
	if err != nil {
		log.Error("failed to encode principal", sl.Err(err))
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return resp, nil
}
