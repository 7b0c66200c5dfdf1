// Package client talks to the authkeeper server on behalf of the CLI.
//
// Client is transport-agnostic; HTTPClient speaks the REST API and
// GRPCClient the gRPC service. Failures are reported as sentinel errors
// matched with errors.Is: common.ErrDuplicateUser, common.ErrInvalidCredentials,
// ErrUnauthorized, ErrInvalidRequest, ErrServer and ErrUnavailable. Server
// rejections also carry the server's message in an *APIError.
package client
