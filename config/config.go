// Package config loads server settings from a YAML file, the environment and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultPath is the config file read when none is given
const DefaultPath = "config.yml"

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

type Config struct {
	Host      string    `yaml:"host" env:"CONNECT6_HOST" env-default:"localhost"`
	Port      int       `yaml:"port" env:"CONNECT6_PORT" env-default:"8080"`
	LogLevel  string    `yaml:"log-level" env:"CONNECT6_LOG_LEVEL" env-default:"info"`
	HTTP      HTTP      `yaml:"http"`
	Observers Observers `yaml:"observers"`
	Redis     Redis     `yaml:"redis"`
	Telemetry Telemetry `yaml:"telemetry"`
	Tunnel    Tunnel    `yaml:"tunnel"`
}

type HTTP struct {
	ReadTimeout  time.Duration `yaml:"read-timeout" env:"CONNECT6_HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write-timeout" env:"CONNECT6_HTTP_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout  time.Duration `yaml:"idle-timeout" env:"CONNECT6_HTTP_IDLE_TIMEOUT" env-default:"60s"`
	// SSEWriteTimeout bounds each event write on a server-sent events stream
	SSEWriteTimeout time.Duration `yaml:"sse-write-timeout" env:"CONNECT6_SSE_WRITE_TIMEOUT" env-default:"10s"`
}

type Observers struct {
	// Buffer is the number of snapshots queued per observer before it is dropped
	Buffer int `yaml:"buffer" env:"CONNECT6_OBSERVER_BUFFER" env-default:"64"`
	// Timeout ends observer streams after this long. Zero never expires them.
	Timeout time.Duration `yaml:"timeout" env:"CONNECT6_OBSERVER_TIMEOUT" env-default:"0s"`
}

type Redis struct {
	// Addr enables the snapshot relay when set, e.g. localhost:6379
	Addr      string `yaml:"addr" env:"CONNECT6_REDIS_ADDR" env-default:""`
	Password  string `yaml:"password" env:"CONNECT6_REDIS_PASSWORD" env-default:""`
	DB        int    `yaml:"db" env:"CONNECT6_REDIS_DB" env-default:"0"`
	Channel   string `yaml:"channel" env:"CONNECT6_REDIS_CHANNEL" env-default:"connect6:snapshots"`
	LatestKey string `yaml:"latest-key" env:"CONNECT6_REDIS_LATEST_KEY" env-default:"connect6:latest"`
}

// Tunnel exposes the server through ngrok during development
type Tunnel struct {
	Enabled   bool   `yaml:"enabled" env:"NGROK_ENABLED" env-default:"false"`
	AuthToken string `yaml:"auth-token" env:"NGROK_AUTHTOKEN,NGROK_AUTH_TOKEN"`
	Domain    string `yaml:"domain" env:"NGROK_DOMAIN"`
}

type Telemetry struct {
	Enabled     bool   `yaml:"enabled" env:"CONNECT6_OTEL_ENABLED" env-default:"true"`
	Endpoint    string `yaml:"endpoint" env:"CONNECT6_OTEL_ENDPOINT" env-default:""`
	ServiceName string `yaml:"service-name" env:"CONNECT6_OTEL_SERVICE_NAME" env-default:"connect6-live"`
}

// LoadDotEnv loads .env files into the environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads path when it exists and then the environment. An empty path
// reads the environment only. A path that was asked for explicitly but is
// missing returns ErrConfigNotFound.
func Load(path string, required bool) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			return cfg, cfg.Validate()
		case errors.Is(err, os.ErrNotExist) && required:
			return nil, fmt.Errorf("%s: %w", path, ErrConfigNotFound)
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges that cleanenv cannot express
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d: %w", c.Port, ErrInvalidConfig)
	}
	if c.Observers.Buffer < 1 {
		return fmt.Errorf("observers.buffer must be positive, got %d: %w", c.Observers.Buffer, ErrInvalidConfig)
	}
	if c.Observers.Timeout < 0 {
		return fmt.Errorf("observers.timeout must not be negative: %w", ErrInvalidConfig)
	}
	if c.HTTP.SSEWriteTimeout <= 0 {
		return fmt.Errorf("http.sse-write-timeout must be positive: %w", ErrInvalidConfig)
	}
	return nil
}

// Addr is the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// BaseURL is the address the MCP client uses to reach the REST API
func (c *Config) BaseURL() string {
	host := c.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// RelayEnabled reports whether the Redis relay should run
func (r Redis) RelayEnabled() bool {
	return r.Addr != ""
}
