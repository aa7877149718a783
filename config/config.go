// Package config provides configuration management for jfsio.
// It handles loading and validating configuration from YAML or JSON files
// and environment variables.
package config

import "time"

// AppConfig represents the complete application configuration
type AppConfig struct {
	Log     LogConfig     `koanf:"log"`
	Server  ServerConfig  `koanf:"server"`
	Session SessionConfig `koanf:"session"`
	// Engine is forwarded to the engine unchanged, as a flat JSON object.
	Engine map[string]any `koanf:"engine"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// Mode is "production", "development" or "debug" and controls how
	// paths and user names appear in log fields. Empty keeps JFS_LOG_MODE.
	Mode string `koanf:"mode"`
}

// ServerConfig holds admin HTTP server configuration. The /v1 browse
// routes are only mounted when at least one API key is set.
type ServerConfig struct {
	ListenAddr     string        `koanf:"listen_addr"`
	APIKeys        []string      `koanf:"api_keys"`
	RateLimit      float64       `koanf:"rate_limit"` // /v1 requests per second, 0 for unlimited
	RateBurst      int           `koanf:"rate_burst"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// SessionConfig selects the engine and the identity a session acts as.
type SessionConfig struct {
	Name           string `koanf:"name"`
	Engine         string `koanf:"engine"`  // "embedded" or "native"
	Library        string `koanf:"library"` // path to libjfs for the native engine
	User           string `koanf:"user"`
	Group          string `koanf:"group"`
	Superuser      string `koanf:"superuser"`
	Supergroup     string `koanf:"supergroup"`
	ListBufferSize int    `koanf:"list_buffer_size"`
	LeakCheck      bool   `koanf:"leak_check"`
}

// Engine kinds accepted by session.engine.
const (
	EngineEmbedded = "embedded"
	EngineNative   = "native"
)
