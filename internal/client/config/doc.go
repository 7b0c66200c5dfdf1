// Package config loads runtime configuration for the authctl CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file passed with --config (see (*Config).LoadFile).
//  3. Environment variables (see (*Config).ApplyEnv).
//  4. Command-line flags, bound by the cli package, which override earlier values.
//
// # JSON schema
//
//	{
//	  "server_url": "http://localhost:5000",
//	  "grpc_addr": "127.0.0.1:50051",
//	  "transport": "http",
//	  "token_file": "/home/me/.authkeeper/token",
//	  "request_timeout": "10s"
//	}
//
// request_timeout uses timex.Duration, so "10s" and integer nanoseconds both work.
package config
