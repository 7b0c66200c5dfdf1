package client

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	gs "github.com/dmitrijs2005/authkeeper/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	conn   *grpc.ClientConn
	client gs.AuthServiceClient
}

// NewGRPCClient prepares a client for addr. No connection is made until the
// first call.
func NewGRPCClient(addr string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCClient{conn: conn, client: gs.NewAuthServiceClient(conn)}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) Register(ctx context.Context, email, password string) (string, error) {
	resp, err := c.client.Register(ctx, &gs.CredentialsRequest{Email: email, Password: password})
	if err != nil {
		return "", fromStatus(err)
	}
	return resp.Token, nil
}

func (c *GRPCClient) Login(ctx context.Context, email, password string) (string, error) {
	resp, err := c.client.Login(ctx, &gs.CredentialsRequest{Email: email, Password: password})
	if err != nil {
		return "", fromStatus(err)
	}
	return resp.Token, nil
}

func (c *GRPCClient) WhoAmI(ctx context.Context, token string) (*auth.Claims, error) {
	ctx = metadata.AppendToOutgoingContext(ctx, common.AuthorizationHeaderName, common.BearerPrefix+token)
	resp, err := c.client.Authorize(ctx, &gs.AuthorizeRequest{})
	if err != nil {
		return nil, fromStatus(err)
	}
	return resp.User, nil
}

func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return &APIError{err: ErrUnavailable, Message: err.Error()}
	}

	var sentinel error
	switch st.Code() {
	case codes.AlreadyExists:
		sentinel = common.ErrDuplicateUser
	case codes.Unauthenticated:
		if st.Message() == "invalid credentials" {
			sentinel = common.ErrInvalidCredentials
		} else {
			sentinel = ErrUnauthorized
		}
	case codes.InvalidArgument:
		sentinel = ErrInvalidRequest
	case codes.Unavailable, codes.DeadlineExceeded:
		sentinel = ErrUnavailable
	default:
		sentinel = ErrServer
	}
	return &APIError{Kind: st.Code().String(), Message: st.Message(), err: sentinel}
}
