package config

import "time"

// DefaultEngineConfig returns the engine keys every session starts from.
func DefaultEngineConfig() map[string]any {
	return map[string]any{
		"accessLog":      "",
		"autoCreate":     true,
		"cacheDir":       "memory",
		"cacheFullBlock": true,
		"cacheSize":      100,
		"debug":          true,
		"fastResolve":    true,
		"freeSpace":      "0.1",
		"getTimeout":     5,
		"maxUploads":     20,
		"memorySize":     300,
		"meta":           "",
		"noUsageReport":  true,
		"opencache":      false,
		"prefetch":       1,
		"pushAuth":       "",
		"pushGateway":    "",
		"pushInterval":   10,
		"putTimeout":     60,
		"readahead":      0,
		"readOnly":       false,
		"uploadLimit":    0,
		"writeback":      false,
	}
}

// DefaultAppConfig returns an AppConfig struct with sensible default values
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			ListenAddr:     ":9090",
			APIKeys:        []string{},
			RateLimit:      100,
			RateBurst:      20,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			RequestTimeout: 60 * time.Second,
		},
		Session: SessionConfig{
			Name:           "jfs",
			Engine:         EngineEmbedded,
			Library:        "libjfs.so",
			Group:          "nogroup",
			Superuser:      "root",
			Supergroup:     "nogroup",
			ListBufferSize: 32 << 10,
			LeakCheck:      false,
		},
		Engine: DefaultEngineConfig(),
	}
}
