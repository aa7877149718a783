package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Session.Engine != EngineEmbedded || cfg.Session.Group != "nogroup" || cfg.Session.Superuser != "root" {
		t.Errorf("session defaults = %+v", cfg.Session)
	}
	if cfg.Session.ListBufferSize != 32<<10 {
		t.Errorf("list_buffer_size = %d", cfg.Session.ListBufferSize)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("log defaults = %+v", cfg.Log)
	}
	if len(cfg.Engine) != len(DefaultEngineConfig()) {
		t.Errorf("engine has %d keys", len(cfg.Engine))
	}
	if cfg.Engine["cacheDir"] != "memory" {
		t.Errorf("engine.cacheDir = %v", cfg.Engine["cacheDir"])
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "jfs.yaml", `
log:
  level: debug
session:
  name: photos
  user: alice
  leak_check: true
engine:
  meta: sqlite3:///var/lib/jfs/meta.db
  getTimeout: 10
  dirPageSize: 4096
`)
	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Session.Name != "photos" || cfg.Session.User != "alice" || !cfg.Session.LeakCheck {
		t.Errorf("session = %+v", cfg.Session)
	}
	if cfg.Engine["meta"] != "sqlite3:///var/lib/jfs/meta.db" {
		t.Errorf("engine.meta = %v", cfg.Engine["meta"])
	}
	if _, ok := cfg.Engine["dirPageSize"]; !ok {
		t.Error("engine.dirPageSize missing")
	}
	if cfg.Engine["writeback"] != false {
		t.Errorf("default engine.writeback lost: %v", cfg.Engine["writeback"])
	}
}

func TestLoadJSONFromWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "jfs.json"), []byte(`{"session": {"name": "fromjson"}}`), 0o600)
	t.Chdir(dir)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Session.Name != "fromjson" {
		t.Errorf("session.name = %q", cfg.Session.Name)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JFS_SESSION_NAME", "envvol")
	t.Setenv("JFS_SESSION_LIST_BUFFER_SIZE", "4096")
	t.Setenv("JFS_LOG_FORMAT", "console")
	t.Setenv("JFS_ENGINE_GET_TIMEOUT", "2.5")
	t.Setenv("JFS_ENGINE_READONLY", "true")
	t.Setenv("JFS_ENGINE_META", "redis://localhost:6379/1")
	t.Setenv("JFS_ENGINE_DIR_PAGE_SIZE", "512")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Session.Name != "envvol" || cfg.Session.ListBufferSize != 4096 {
		t.Errorf("session = %+v", cfg.Session)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("log.format = %q", cfg.Log.Format)
	}
	checks := map[string]any{
		"getTimeout":  2.5,
		"readOnly":    true,
		"meta":        "redis://localhost:6379/1",
		"dirPageSize": int64(512),
	}
	for key, want := range checks {
		if got := cfg.Engine[key]; got != want {
			t.Errorf("engine.%s = %v (%T), want %v", key, got, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*AppConfig)
		errMsg string
	}{
		{name: "defaults are valid", modify: func(*AppConfig) {}},
		{name: "missing name", modify: func(c *AppConfig) { c.Session.Name = "" }, errMsg: "session.name"},
		{name: "unknown engine", modify: func(c *AppConfig) { c.Session.Engine = "fuse" }, errMsg: "session.engine"},
		{name: "native without library", modify: func(c *AppConfig) {
			c.Session.Engine = EngineNative
			c.Session.Library = ""
		}, errMsg: "session.library"},
		{name: "unknown log mode", modify: func(c *AppConfig) { c.Log.Mode = "verbose" }, errMsg: "log.mode"},
		{name: "debug log mode", modify: func(c *AppConfig) { c.Log.Mode = "debug" }},
		{name: "negative list buffer", modify: func(c *AppConfig) { c.Session.ListBufferSize = -1 }, errMsg: "list_buffer_size"},
		{name: "nested engine value", modify: func(c *AppConfig) { c.Engine["meta"] = map[string]any{"a": 1} }, errMsg: "engine.meta"},
		{name: "null engine value", modify: func(c *AppConfig) { c.Engine["bucket"] = nil }, errMsg: "engine.bucket"},
		{name: "list engine value", modify: func(c *AppConfig) { c.Engine["cacheDir"] = []string{"a"} }, errMsg: "engine.cacheDir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAppConfig()
			tt.modify(&cfg)
			err := Validate(&cfg)
			if tt.errMsg == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate error = %v, want mention of %q", err, tt.errMsg)
			}
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := writeConfig(t, "bad.yaml", "engine:\n  meta: [1, 2]\n")
	if _, err := LoadConfigFromFile(path); err == nil {
		t.Error("nested engine value accepted")
	}
	if _, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing config file accepted")
	}
}

func TestEngineJSON(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.Engine["meta"] = "sqlite3:///tmp/meta.db"
	data, err := cfg.EngineJSON()
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("EngineJSON produced invalid JSON: %v", err)
	}
	if decoded["meta"] != "sqlite3:///tmp/meta.db" || decoded["putTimeout"] != float64(60) || decoded["autoCreate"] != true {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestServerSettings(t *testing.T) {
	path := writeConfig(t, "jfs.yaml", `
server:
  listen_addr: 127.0.0.1:9999
  api_keys: [first, second]
  read_timeout: 5s
`)
	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.ListenAddr != "127.0.0.1:9999" || len(cfg.Server.APIKeys) != 2 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.ReadTimeout.Seconds() != 5 || cfg.Server.WriteTimeout.Seconds() != 30 {
		t.Errorf("timeouts = %v / %v", cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	}

	bad := DefaultAppConfig()
	bad.Server.APIKeys = []string{" "}
	if err := Validate(&bad); err == nil {
		t.Error("blank API key accepted")
	}
}
