package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
)

type Client interface {
	Close() error
	Register(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	WhoAmI(ctx context.Context, token string) (*auth.Claims, error)
}

// New returns the client for cfg.Transport.
func New(cfg *config.Config) (Client, error) {
	switch cfg.Transport {
	case config.TransportHTTP:
		return NewHTTPClient(cfg.ServerURL, cfg.RequestTimeout), nil
	case config.TransportGRPC:
		return NewGRPCClient(cfg.GRPCAddr)
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
