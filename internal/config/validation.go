package config

import "errors"

// FUNCTIONAL DISCOVERY: Comprehensive validation prevents invalid system configurations
// Critical for preventing runtime failures in production deployment
func (c *Config) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return errors.New("HTTP port must be between 1 and 65535")
	}
	if c.HTTP.Host == "" {
		return errors.New("HTTP host cannot be empty")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return errors.New("HTTP timeouts must be positive")
	}

	if c.WebSocket.BufferSize < 1 {
		return errors.New("WebSocket buffer size must be positive")
	}
	if c.WebSocket.WriteTimeout <= 0 {
		return errors.New("WebSocket write timeout must be positive")
	}
	if c.WebSocket.PingInterval <= 0 {
		return errors.New("WebSocket ping interval must be positive")
	}
	if c.WebSocket.PingInterval >= c.WebSocket.ReadTimeout {
		return errors.New("WebSocket ping interval must be less than read timeout")
	}

	if c.Database.Path == "" {
		return errors.New("database path cannot be empty")
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("auth JWT secret must be configured")
	}
	if c.Auth.RedisEnabled && c.Auth.RedisAddress == "" {
		return errors.New("redis address must be set when redis is enabled")
	}

	if c.Executor.URL == "" {
		return errors.New("executor URL cannot be empty")
	}
	if c.Executor.Timeout <= 0 {
		return errors.New("executor timeout must be positive")
	}
	if c.Executor.MaxRetries < 0 {
		return errors.New("executor max retries cannot be negative")
	}

	return nil
}
