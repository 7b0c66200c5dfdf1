package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Environment variables read by parseEnv.
const (
	EnvHTTPAddress        = "HTTP_ADDRESS"
	EnvGRPCAddress        = "GRPC_ADDRESS"
	EnvDatabaseDSN        = "DATABASE_DSN"
	EnvSecret             = "JWT_SECRET"
	EnvAccessTokenTTL     = "ACCESS_TOKEN_TTL"
	EnvPasswordHashCost   = "PASSWORD_HASH_COST"
	EnvAppEnv             = "APP_ENV"
	EnvLogFormat          = "LOG_FORMAT"
	EnvLogLevel           = "LOG_LEVEL"
	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"
	EnvSeedDemoUsers      = "SEED_DEMO_USERS"
)

// parseEnv overlays set, non-empty environment variables onto config.
func parseEnv(config *Config, getenv func(string) string) error {
	setString(&config.EndpointAddrHTTP, getenv(EnvHTTPAddress))
	setString(&config.EndpointAddrGRPC, getenv(EnvGRPCAddress))
	setString(&config.DatabaseDSN, getenv(EnvDatabaseDSN))
	setString(&config.SecretKey, getenv(EnvSecret))
	setString(&config.Environment, getenv(EnvAppEnv))
	setString(&config.LogFormat, getenv(EnvLogFormat))
	setString(&config.LogLevel, getenv(EnvLogLevel))

	if v := getenv(EnvAccessTokenTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAccessTokenTTL, err)
		}
		config.AccessTokenValidityDuration = d
	}
	if v := getenv(EnvPasswordHashCost); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPasswordHashCost, err)
		}
		config.PasswordHashCost = n
	}
	if v := getenv(EnvCORSAllowedOrigins); v != "" {
		config.CORSAllowedOrigins = splitList(v)
	}
	if v := getenv(EnvSeedDemoUsers); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeedDemoUsers, err)
		}
		config.SeedDemoUsers = b
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
