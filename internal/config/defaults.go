package config

import (
	"time"

	"github.com/spf13/viper"
)

// FUNCTIONAL DISCOVERY: Production-ready defaults based on classroom requirements
// HTTP on standard port, WebSocket with 30s heartbeat, sandbox with retries
func setDefaults(v *viper.Viper) {
	// HTTP
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readTimeout", 30*time.Second)
	v.SetDefault("http.writeTimeout", 30*time.Second)

	// WebSocket
	v.SetDefault("websocket.bufferSize", 100)
	v.SetDefault("websocket.writeTimeout", 5*time.Second)
	v.SetDefault("websocket.pingInterval", 30*time.Second)
	v.SetDefault("websocket.readTimeout", 60*time.Second)
	v.SetDefault("websocket.handshakeTimeout", 10*time.Second)

	// Database
	v.SetDefault("database.path", "./data/classhub.db")

	// Auth
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.redisEnabled", false)
	v.SetDefault("auth.redisAddress", "localhost:6379")
	v.SetDefault("auth.redisDB", 0)
	v.SetDefault("auth.revocationListKey", "jwt:revoked")

	// Executor
	v.SetDefault("executor.url", "http://localhost:9000")
	v.SetDefault("executor.timeout", 10*time.Second)
	v.SetDefault("executor.maxRetries", 2)

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("http.host", "CLASSHUB_HTTP_HOST")
	v.BindEnv("http.port", "CLASSHUB_HTTP_PORT")

	v.BindEnv("websocket.bufferSize", "CLASSHUB_WEBSOCKET_BUFFER_SIZE")
	v.BindEnv("websocket.pingInterval", "CLASSHUB_WEBSOCKET_PING_INTERVAL")
	v.BindEnv("websocket.readTimeout", "CLASSHUB_WEBSOCKET_READ_TIMEOUT")
	v.BindEnv("websocket.writeTimeout", "CLASSHUB_WEBSOCKET_WRITE_TIMEOUT")

	v.BindEnv("database.path", "CLASSHUB_DATABASE_PATH")

	v.BindEnv("auth.jwtSecret", "CLASSHUB_AUTH_JWT_SECRET")
	v.BindEnv("auth.redisEnabled", "CLASSHUB_AUTH_REDIS_ENABLED")
	v.BindEnv("auth.redisAddress", "CLASSHUB_AUTH_REDIS_ADDRESS")
	v.BindEnv("auth.redisPassword", "CLASSHUB_AUTH_REDIS_PASSWORD")
	v.BindEnv("auth.revocationListKey", "CLASSHUB_AUTH_REVOCATION_KEY")

	v.BindEnv("executor.url", "CLASSHUB_EXECUTOR_URL")
	v.BindEnv("executor.timeout", "CLASSHUB_EXECUTOR_TIMEOUT")
	v.BindEnv("executor.maxRetries", "CLASSHUB_EXECUTOR_MAX_RETRIES")

	v.BindEnv("metrics.enabled", "CLASSHUB_METRICS_ENABLED")
}
