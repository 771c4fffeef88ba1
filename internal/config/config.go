package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ARCHITECTURAL DISCOVERY: Configuration layer serves as system-wide settings coordinator
// Clean separation between configuration management and business logic
type Config struct {
	HTTP      HTTPConfig
	WebSocket WebSocketConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Executor  ExecutorConfig
	Metrics   MetricsConfig
}

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FUNCTIONAL DISCOVERY: WebSocket configuration optimized for classroom scenarios
type WebSocketConfig struct {
	BufferSize       int
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	ReadTimeout      time.Duration
	HandshakeTimeout time.Duration
}

type DatabaseConfig struct {
	Path string
}

// AuthConfig controls credential verification. Redis is optional; when
// disabled, revocation checks are skipped entirely.
type AuthConfig struct {
	JWTSecret         string
	RedisEnabled      bool
	RedisAddress      string
	RedisPassword     string
	RedisDB           int
	RevocationListKey string
}

// ExecutorConfig points at the external code execution sandbox.
type ExecutorConfig struct {
	URL        string
	Timeout    time.Duration
	MaxRetries int
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration with precedence: environment > file > defaults.
// The file is optional; an empty path falls back to defaults plus environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CLASSHUB")
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVars(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
