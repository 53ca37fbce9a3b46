// Package client клиент gRPC-сервиса проверки токенов.
package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/content-generator/internal/grpc/authpb"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// AuthClient проверяет токены через удалённый сервис авторизации.
type AuthClient struct {
	conn   *grpc.ClientConn
	client authpb.AuthServiceClient
}

// NewAuthClient создаёт клиента. Соединение устанавливается при первом вызове.
func NewAuthClient(addr string, opts ...grpc.DialOption) (*AuthClient, error) {
	const op = "grpc.client.NewAuthClient"
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &AuthClient{conn: conn, client: authpb.NewAuthServiceClient(conn)}, nil
}

// Close закрывает соединение.
func (a *AuthClient) Close() error {
	return a.conn.Close()
}

// ValidateToken возвращает пользователя, которому выдан токен.
// Отклонённый сервисом токен даёт ErrUnauthenticated, недоступность сервиса ErrUpstreamFailure.
func (a *AuthClient) ValidateToken(ctx context.Context, token string) (models.Principal, error) {
	const op = "grpc.client.ValidateToken"
	if token == "" {
		return models.Principal{}, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}

	resp, err := a.client.ValidateToken(ctx, wrapperspb.String(token))
	if err != nil {
		switch status.Code(err) {
		case codes.Unauthenticated, codes.InvalidArgument:
			return models.Principal{}, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
		default:
			return models.Principal{}, fmt.Errorf("%s: %w: %w", op, models.ErrUpstreamFailure, err)
		}
	}

	p, err := authpb.PrincipalFromStruct(resp)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%s: %w: %w", op, models.ErrUpstreamFailure, err)
	}
	return p, nil
}
