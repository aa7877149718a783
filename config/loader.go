package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	jfslog "github.com/ebogdum/jfsio/core/log"
)

// EnvPrefix prefixes every environment override, e.g. JFS_SESSION_NAME or
// JFS_ENGINE_META.
const EnvPrefix = "JFS_"

// LoadConfig loads configuration from multiple sources with strict priority:
// 1. Environment variables (highest priority)
// 2. Config file (jfs.yaml, jfs.yml or jfs.json)
// 3. Defaults (lowest priority)
func LoadConfig() (AppConfig, error) {
	return LoadConfigFromFile("")
}

func parserFor(path string) koanf.Parser {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return yaml.Parser()
	}
	return json.Parser()
}

// LoadConfigFromFile loads configuration from multiple sources with a specific config file:
// 1. Environment variables (highest priority)
// 2. Specified config file or default config files
// 3. Defaults (lowest priority)
func LoadConfigFromFile(configFilePath string) (AppConfig, error) {
	k := koanf.New(".")

	// Load default configuration first
	if err := k.Load(structs.Provider(DefaultAppConfig(), "koanf"), nil); err != nil {
		return AppConfig{}, fmt.Errorf("failed to load default config: %w", err)
	}

	if configFilePath != "" {
		if _, err := os.Stat(configFilePath); err != nil {
			return AppConfig{}, fmt.Errorf("specified config file %s not found: %w", configFilePath, err)
		}
		if err := k.Load(file.Provider(configFilePath), parserFor(configFilePath)); err != nil {
			return AppConfig{}, fmt.Errorf("failed to load config file %s: %w", configFilePath, err)
		}
	} else {
		for _, configFile := range []string{"jfs.yaml", "jfs.yml", "jfs.json"} {
			if _, err := os.Stat(configFile); err == nil {
				if err := k.Load(file.Provider(configFile), parserFor(configFile)); err != nil {
					return AppConfig{}, fmt.Errorf("failed to load config file %s: %w", configFile, err)
				}
				break
			}
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return AppConfig{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// envValue maps JFS_SECTION_REST to section.rest. Engine keys are camel
// case, so JFS_ENGINE_GET_TIMEOUT resolves to engine.getTimeout when that
// key is known, and engine values are typed from their text.
func envValue(name, value string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key, value
	}
	if section != "engine" {
		return section + "." + rest, value
	}

	flat := strings.ReplaceAll(rest, "_", "")
	for _, known := range engineKeys() {
		if strings.EqualFold(known, flat) {
			rest = known
			break
		}
	}
	return "engine." + rest, typedValue(value)
}

// engineKeys lists the defaulted engine keys plus the ones only the
// embedded engine reads.
func engineKeys() []string {
	keys := []string{"bucket", "capacity", "dirPageSize", "writebackInterval"}
	for key := range DefaultEngineConfig() {
		keys = append(keys, key)
	}
	return keys
}

func typedValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// Validate checks the session settings and that every engine value is a
// string, a bool or a number.
func Validate(cfg *AppConfig) error {
	if cfg.Session.Name == "" {
		return fmt.Errorf("session.name is required")
	}
	switch cfg.Session.Engine {
	case EngineEmbedded:
	case EngineNative:
		if cfg.Session.Library == "" {
			return fmt.Errorf("session.library is required for the native engine")
		}
	default:
		return fmt.Errorf("session.engine must be %q or %q, got %q", EngineEmbedded, EngineNative, cfg.Session.Engine)
	}
	if cfg.Log.Mode != "" {
		if _, ok := jfslog.ParseMode(cfg.Log.Mode); !ok {
			return fmt.Errorf("log.mode must be production, development or debug, got %q", cfg.Log.Mode)
		}
	}
	if cfg.Session.ListBufferSize < 0 {
		return fmt.Errorf("session.list_buffer_size must not be negative")
	}
	if cfg.Server.RateLimit < 0 || cfg.Server.RateBurst < 0 {
		return fmt.Errorf("server.rate_limit and server.rate_burst must not be negative")
	}
	for _, key := range cfg.Server.APIKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("server.api_keys must not contain empty keys")
		}
	}

	keys := make([]string, 0, len(cfg.Engine))
	for key := range cfg.Engine {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		switch cfg.Engine[key].(type) {
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
		default:
			return fmt.Errorf("engine.%s must be a string, bool or number, got %T", key, cfg.Engine[key])
		}
	}
	return nil
}

// EngineJSON encodes the engine settings as the JSON object the engine
// init call expects.
func (c AppConfig) EngineJSON() ([]byte, error) {
	data, err := json.Parser().Marshal(c.Engine)
	if err != nil {
		return nil, fmt.Errorf("failed to encode engine config: %w", err)
	}
	return data, nil
}
