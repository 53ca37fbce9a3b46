package client

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/magabrotheeeer/content-generator/internal/grpc/authpb"
	"github.com/magabrotheeeer/content-generator/internal/grpc/server"
	"github.com/magabrotheeeer/content-generator/internal/lib/clock"
	"github.com/magabrotheeeer/content-generator/internal/lib/jwt"
	"github.com/magabrotheeeer/content-generator/internal/models"
	"github.com/magabrotheeeer/content-generator/internal/services/auth"
)

const bufSize = 1024 * 1024

func startGRPCServer(t *testing.T, validator server.TokenValidator) *AuthClient {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	lis := bufconn.Listen(bufSize)
	grpcServer := grpc.NewServer()
	authpb.RegisterAuthServiceServer(grpcServer, server.NewAuthServer(validator, logger))

	go func() {
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			t.Logf("gRPC server error: %v", serveErr)
		}
	}()
	t.Cleanup(grpcServer.Stop)

	client, err := NewAuthClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, client.Close())
	})
	return client
}

func TestAuthGRPC(t *testing.T) {
	maker := jwt.NewJWTMaker("test_secret_key", 24*time.Hour)
	authService := auth.New(nil, maker, clock.Real{}, 72*time.Hour)
	client := startGRPCServer(t, authService)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("valid token", func(t *testing.T) {
		token, err := maker.GenerateToken("alice", models.RoleAdmin, "uid-1")
		require.NoError(t, err)

		p, err := client.ValidateToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, models.Principal{UserUID: "uid-1", Username: "alice", Role: models.RoleAdmin}, p)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := client.ValidateToken(ctx, "invalid.token.here")
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := client.ValidateToken(ctx, "")
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		other := jwt.NewJWTMaker("other_key", time.Hour)
		token, err := other.GenerateToken("mallory", models.RoleAdmin, "uid-2")
		require.NoError(t, err)

		_, err = client.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})
}

func TestAuthClient_Unavailable(t *testing.T) {
	lis := bufconn.Listen(bufSize)
	require.NoError(t, lis.Close())

	client, err := NewAuthClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	defer func() {
		_ = client.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = client.ValidateToken(ctx, "some.token")
	assert.ErrorIs(t, err, models.ErrUpstreamFailure)
}
