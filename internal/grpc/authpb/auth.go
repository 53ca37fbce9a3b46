// Package authpb описывает gRPC-сервис проверки токенов auth.AuthService.
//
// Сообщения построены на well-known типах protobuf: запрос google.protobuf.StringValue
// с токеном, ответ google.protobuf.Struct с полями user_uid, username и role.
package authpb

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Имена сервиса и метода.
const (
	ServiceName             = "auth.AuthService"
	ValidateTokenFullMethod = "/auth.AuthService/ValidateToken"
)

const (
	fieldUserUID = "user_uid"
	fieldName    = "username"
	fieldRole    = "role"
)

// AuthServiceServer серверная часть сервиса.
type AuthServiceServer interface {
	ValidateToken(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
}

// RegisterAuthServiceServer регистрирует реализацию на gRPC-сервере.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

// AuthServiceDesc описание сервиса для grpc.Server.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ValidateToken",
			Handler:    validateTokenHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "auth.proto",
}

func validateTokenHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).ValidateToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ValidateTokenFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).ValidateToken(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// AuthServiceClient клиентская часть сервиса.
type AuthServiceClient interface {
	ValidateToken(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type authServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAuthServiceClient создаёт клиента поверх соединения.
func NewAuthServiceClient(cc grpc.ClientConnInterface) AuthServiceClient {
	return &authServiceClient{cc: cc}
}

func (c *authServiceClient) ValidateToken(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ValidateTokenFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// PrincipalToStruct кодирует пользователя в ответ ValidateToken.
func PrincipalToStruct(p models.Principal) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		fieldUserUID: p.UserUID,
		fieldName:    p.Username,
		fieldRole:    p.Role,
	})
}

// PrincipalFromStruct читает пользователя из ответа ValidateToken.
func PrincipalFromStruct(s *structpb.Struct) (models.Principal, error) {
	const op = "authpb.PrincipalFromStruct"
	fields := s.GetFields()
	p := models.Principal{
		UserUID:  fields[fieldUserUID].GetStringValue(),
		Username: fields[fieldName].GetStringValue(),
		Role:     fields[fieldRole].GetStringValue(),
	}
	if p.IsZero() {
		return models.Principal{}, fmt.Errorf("%s: response has no %s", op, fieldUserUID)
	}
	return p, nil
}
