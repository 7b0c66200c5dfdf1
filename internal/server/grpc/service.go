package grpc

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"google.golang.org/grpc"
)

const (
	ServiceName = "authkeeper.v1.AuthService"

	RegisterFullMethod  = "/" + ServiceName + "/Register"
	LoginFullMethod     = "/" + ServiceName + "/Login"
	AuthorizeFullMethod = "/" + ServiceName + "/Authorize"
)

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenReply struct {
	Token string `json:"token"`
}

// AuthorizeRequest is empty: the token travels in the "authorization"
// metadata entry.
type AuthorizeRequest struct{}

type AuthorizeReply struct {
	User *auth.Claims `json:"user"`
}

// AuthServiceServer is implemented by GRPCServer.
type AuthServiceServer interface {
	Register(context.Context, *CredentialsRequest) (*TokenReply, error)
	Login(context.Context, *CredentialsRequest) (*TokenReply, error)
	Authorize(context.Context, *AuthorizeRequest) (*AuthorizeReply, error)
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: _AuthService_Register_Handler},
		{MethodName: "Login", Handler: _AuthService_Login_Handler},
		{MethodName: "Authorize", Handler: _AuthService_Authorize_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "authkeeper/v1/auth",
}

func _AuthService_Register_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CredentialsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).Register(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RegisterFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).Register(ctx, req.(*CredentialsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _AuthService_Login_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CredentialsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).Login(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LoginFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).Login(ctx, req.(*CredentialsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _AuthService_Authorize_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AuthorizeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).Authorize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AuthorizeFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).Authorize(ctx, req.(*AuthorizeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// AuthServiceClient is the typed client for the service.
type AuthServiceClient interface {
	Register(ctx context.Context, in *CredentialsRequest, opts ...grpc.CallOption) (*TokenReply, error)
	Login(ctx context.Context, in *CredentialsRequest, opts ...grpc.CallOption) (*TokenReply, error)
	Authorize(ctx context.Context, in *AuthorizeRequest, opts ...grpc.CallOption) (*AuthorizeReply, error)
}

type authServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAuthServiceClient returns a client that always uses the JSON codec.
func NewAuthServiceClient(cc grpc.ClientConnInterface) AuthServiceClient {
	return &authServiceClient{cc: cc}
}

func (c *authServiceClient) Register(ctx context.Context, in *CredentialsRequest, opts ...grpc.CallOption) (*TokenReply, error) {
	out := new(TokenReply)
	if err := c.cc.Invoke(ctx, RegisterFullMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *authServiceClient) Login(ctx context.Context, in *CredentialsRequest, opts ...grpc.CallOption) (*TokenReply, error) {
	out := new(TokenReply)
	if err := c.cc.Invoke(ctx, LoginFullMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *authServiceClient) Authorize(ctx context.Context, in *AuthorizeRequest, opts ...grpc.CallOption) (*AuthorizeReply, error) {
	out := new(AuthorizeReply)
	if err := c.cc.Invoke(ctx, AuthorizeFullMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
}
