package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/rest"
)

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, email, password string) (string, error) {
	var resp rest.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", rest.CredentialsRequest{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	var resp rest.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", rest.CredentialsRequest{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *HTTPClient) WhoAmI(ctx context.Context, token string) (*auth.Claims, error) {
	var resp rest.ProtectedResponse
	if err := c.do(ctx, http.MethodGet, "/api/protected", token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("%w: response without user", ErrServer)
	}
	return resp.User, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %w", ErrServer, err)
		}
		return nil
	}

	var e rest.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&e)
	return &APIError{Kind: e.Error, Message: e.Message, err: kindError(resp.StatusCode, e.Error)}
}

func kindError(status int, kind string) error {
	switch kind {
	case rest.KindDuplicateUser:
		return common.ErrDuplicateUser
	case rest.KindInvalidCredentials:
		return common.ErrInvalidCredentials
	case rest.KindUnauthorized:
		return ErrUnauthorized
	case rest.KindInvalidRequest:
		return ErrInvalidRequest
	}
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status >= 500:
		return ErrServer
	default:
		return ErrInvalidRequest
	}
}
