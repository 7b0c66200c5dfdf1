package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Register(ctx context.Context, req *CredentialsRequest) (*TokenReply, error) {
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}

	token, err := s.service.Register(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &TokenReply{Token: token}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *CredentialsRequest) (*TokenReply, error) {
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}

	token, err := s.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &TokenReply{Token: token}, nil
}

// Authorize returns the claims placed in the context by the access token
// interceptor.
func (s *GRPCServer) Authorize(ctx context.Context, _ *AuthorizeRequest) (*AuthorizeReply, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	return &AuthorizeReply{User: claims}, nil
}

// toStatus maps service errors to gRPC statuses. Causes never reach the
// client.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorInternal):
	case errors.Is(err, common.ErrDuplicateUser):
		return status.Error(codes.AlreadyExists, "user already exists")
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrHashing):
		return status.Error(codes.InvalidArgument, "invalid email or password")
	}
	s.logger.Error(ctx, "request failed", "error", err)
	return status.Error(codes.Internal, "server error")
}
