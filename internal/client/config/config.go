package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/timex"
)

const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"

	EnvServerURL = "AUTHKEEPER_SERVER_URL"
	EnvGRPCAddr  = "AUTHKEEPER_GRPC_ADDR"
	EnvTransport = "AUTHKEEPER_TRANSPORT"
	EnvTokenFile = "AUTHKEEPER_TOKEN_FILE"
)

// Config holds runtime settings for the authctl CLI.
type Config struct {
	ServerURL      string
	GRPCAddr       string
	Transport      string
	TokenFile      string
	RequestTimeout time.Duration
}

// JsonConfig is the on-disk form of Config.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	GRPCAddr       string         `json:"grpc_addr"`
	Transport      string         `json:"transport"`
	TokenFile      string         `json:"token_file"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

// LoadDefaults populates c with defaults. The token lives under the user's
// home directory, or the working directory when there is none.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:5000"
	c.GRPCAddr = "127.0.0.1:50051"
	c.Transport = TransportHTTP
	c.TokenFile = DefaultTokenFile()
	c.RequestTimeout = 10 * time.Second
}

func DefaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".authkeeper-token"
	}
	return filepath.Join(home, ".authkeeper", "token")
}

// LoadFile overlays c with the non-empty values of the JSON file at path.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.ServerURL, jc.ServerURL)
	setString(&c.GRPCAddr, jc.GRPCAddr)
	setString(&c.Transport, jc.Transport)
	setString(&c.TokenFile, jc.TokenFile)
	if jc.RequestTimeout.Duration > 0 {
		c.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}

// ApplyEnv overlays c with the AUTHKEEPER_* variables that are set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	setString(&c.ServerURL, getenv(EnvServerURL))
	setString(&c.GRPCAddr, getenv(EnvGRPCAddr))
	setString(&c.Transport, getenv(EnvTransport))
	setString(&c.TokenFile, getenv(EnvTokenFile))
}

func (c *Config) Validate() error {
	switch c.Transport {
	case TransportHTTP, TransportGRPC:
	default:
		return fmt.Errorf("unknown transport %q (want %q or %q)", c.Transport, TransportHTTP, TransportGRPC)
	}
	if c.TokenFile == "" {
		return fmt.Errorf("token file path is empty")
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
