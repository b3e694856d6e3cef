// Package config loads layered configuration: struct defaults, then an optional YAML
// file, then BADUK_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"baduklive/internal/logging"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override
	EnvPrefix = "BADUK_"
	// PathEnvVar names the config file when -config is not given
	PathEnvVar = "BADUK_CONFIG"
)

// Config is the full process configuration
type Config struct {
	Server  ServerConfig   `koanf:"server"`
	Source  SourceConfig   `koanf:"source"`
	Polling PollingConfig  `koanf:"polling"`
	Session SessionConfig  `koanf:"session"`
	Storage StorageConfig  `koanf:"storage"`
	Logging logging.Config `koanf:"logging"`
}

// ServerConfig configures the HTTP listener. CommandRateLimit is requests per
// minute per client IP on command endpoints, 0 disables the limit.
type ServerConfig struct {
	Addr              string        `koanf:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	CommandRateLimit  int           `koanf:"command_rate_limit" validate:"gte=0"`
}

// SourceConfig configures the match data service client
type SourceConfig struct {
	BaseURL         string        `koanf:"base_url" validate:"required,url"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	RateLimit       float64       `koanf:"rate_limit" validate:"gte=0"`
	Burst           int           `koanf:"burst" validate:"gte=1"`
	MaxTries        uint          `koanf:"max_tries" validate:"gte=1,lte=10"`
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// PollingConfig sets refresh cadences
type PollingConfig struct {
	Detail       time.Duration `koanf:"detail_interval" validate:"gte=1s"`
	Analysis     time.Duration `koanf:"analysis_interval" validate:"gte=1s"`
	List         time.Duration `koanf:"list_interval" validate:"gte=1s"`
	FetchTimeout time.Duration `koanf:"fetch_timeout" validate:"gt=0"`
	ListLimit    int           `koanf:"list_limit" validate:"gte=1,lte=500"`
}

// SessionConfig tunes kiosk sessions
type SessionConfig struct {
	IdleTimeout         time.Duration `koanf:"idle_timeout" validate:"gte=1m"`
	RecommendationLimit int           `koanf:"recommendation_limit" validate:"gte=1,lte=20"`
}

// StorageConfig configures the archive. An empty DSN disables it.
type StorageConfig struct {
	DSN string `koanf:"dsn"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			CommandRateLimit:  120,
		},
		Source: SourceConfig{
			BaseURL:         "http://localhost:8000/api",
			Timeout:         10 * time.Second,
			RateLimit:       20,
			Burst:           5,
			MaxTries:        3,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Polling: PollingConfig{
			Detail:       5 * time.Second,
			Analysis:     5 * time.Second,
			List:         30 * time.Second,
			FetchTimeout: 15 * time.Second,
			ListLimit:    50,
		},
		Session: SessionConfig{
			IdleTimeout:         24 * time.Hour,
			RecommendationLimit: 3,
		},
		Logging: logging.Config{Level: "info", Format: "json"},
	}
}

// Load builds a Config. path may be empty, in which case BADUK_CONFIG is consulted;
// a missing file is only an error when it was named explicitly.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	def := Default()
	if err := k.Load(structs.Provider(def, "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: load environment: %w", err)
	}
	if err := splitList(k, "server.cors_origins"); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps BADUK_SOURCE__BASE_URL to source.base_url
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// splitList turns a comma separated env value into a slice
func splitList(k *koanf.Koanf, key string) error {
	s, ok := k.Get(key).(string)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(key, out); err != nil {
		return fmt.Errorf("config: set %s: %w", key, err)
	}
	return nil
}

// Validate checks field constraints
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (%v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}
