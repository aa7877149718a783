package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/config"
	"github.com/ebogdum/jfsio/core"
	jfslog "github.com/ebogdum/jfsio/core/log"
	"github.com/ebogdum/jfsio/engine"
	"github.com/ebogdum/jfsio/engine/embedded"
	"github.com/ebogdum/jfsio/engine/native"
)

var rootCmd = &cobra.Command{
	Use:   "jfsctl",
	Short: "jfsctl - POSIX-style access to a jfs volume",
	Long: `jfsctl opens a session on a jfs volume through the embedded engine or
a native libjfs and runs file operations, or serves a read-only HTTP view.`,
	SilenceUsage: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the jfsctl configuration and display the loaded settings",
	Args:  cobra.NoArgs,
	RunE:  validateConfig,
}

var (
	configFilePath string
	engineFlag     string
	libraryFlag    string
	userFlag       string
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&engineFlag, "engine", "", `Engine to use, "embedded" or "native"`)
	rootCmd.PersistentFlags().StringVar(&libraryFlag, "library", "", "Path to libjfs for the native engine")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "User the session acts as")

	configCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(configCmd, serveCmd)
	addFileCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the configuration and applies command line overrides.
func loadConfig() (config.AppConfig, error) {
	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return cfg, fmt.Errorf("failed to load configuration: %w", err)
	}
	if engineFlag != "" {
		cfg.Session.Engine = engineFlag
	}
	if libraryFlag != "" {
		cfg.Session.Library = libraryFlag
	}
	if userFlag != "" {
		cfg.Session.User = userFlag
	}
	if err := config.Validate(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// volume bundles an open session with the library that backs it.
type volume struct {
	*core.Session
	cfg    config.AppConfig
	logger *zap.Logger
	lib    *native.Library
}

// openVolume loads configuration, builds the logger, and starts a session.
func openVolume() (*volume, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := initializeLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	v := &volume{cfg: cfg, logger: logger}
	var lib engine.Lib
	switch cfg.Session.Engine {
	case config.EngineNative:
		nl, err := native.Load(cfg.Session.Library)
		if err != nil {
			return nil, err
		}
		v.lib = nl
		lib = nl
	default:
		lib = embedded.New(logger)
	}

	conf, err := cfg.EngineJSON()
	if err != nil {
		v.closeLib()
		return nil, err
	}
	sess, err := core.NewSession(lib, core.Config{
		Name:           cfg.Session.Name,
		User:           cfg.Session.User,
		Group:          cfg.Session.Group,
		Superuser:      cfg.Session.Superuser,
		Supergroup:     cfg.Session.Supergroup,
		ListBufferSize: cfg.Session.ListBufferSize,
	}, conf, logger)
	if err != nil {
		v.closeLib()
		return nil, fmt.Errorf("failed to open volume %s: %w", cfg.Session.Name, err)
	}
	v.Session = sess
	logger.Debug("Session opened",
		zap.String("volume", cfg.Session.Name),
		zap.String("engine", cfg.Session.Engine),
		zap.String("user", jfslog.SanitizeUser(cfg.Session.User)))
	return v, nil
}

func (v *volume) closeLib() {
	if v.lib != nil {
		if err := v.lib.Unload(); err != nil {
			v.logger.Warn("Failed to unload engine library", zap.Error(err))
		}
	}
}

// Close ends the session and unloads the library.
func (v *volume) Close() error {
	err := v.Session.Close()
	v.closeLib()
	_ = v.logger.Sync() // fails on terminals
	return err
}

// withVolume runs fn against a freshly opened volume.
func withVolume(fn func(v *volume, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		v, err := openVolume()
		if err != nil {
			return err
		}
		defer v.Close()
		return fn(v, args)
	}
}

// validateConfig validates the configuration and displays settings
func validateConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Validating configuration...")

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(out, "Configuration validation failed: %v\n", err)
		return err
	}
	conf, err := cfg.EngineJSON()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Configuration is valid")
	fmt.Fprintf(out, "Volume: %s\n", cfg.Session.Name)
	fmt.Fprintf(out, "Engine: %s\n", cfg.Session.Engine)
	if cfg.Session.Engine == config.EngineNative {
		fmt.Fprintf(out, "Library: %s\n", cfg.Session.Library)
	}
	fmt.Fprintf(out, "Metadata: %s\n", maskURI(fmt.Sprint(cfg.Engine["meta"])))
	fmt.Fprintf(out, "Listen Address: %s\n", cfg.Server.ListenAddr)
	fmt.Fprintf(out, "API Keys: %d\n", len(cfg.Server.APIKeys))
	fmt.Fprintf(out, "Engine Config: %d bytes\n", len(conf))
	return nil
}

// maskURI hides credentials embedded in a metadata URI
func maskURI(uri string) string {
	if uri == "" || uri == "<nil>" {
		return "memory"
	}
	if len(uri) > 20 {
		return uri[:10] + "***" + uri[len(uri)-7:]
	}
	return uri
}

// initializeLogger creates a zap logger based on configuration
func initializeLogger(logCfg config.LogConfig) (*zap.Logger, error) {
	var cfg zap.Config

	if logCfg.Format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	switch logCfg.Level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	if mode, ok := jfslog.ParseMode(logCfg.Mode); ok {
		jfslog.SetMode(mode)
	}

	return cfg.Build()
}
