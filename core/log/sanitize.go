// Package log holds helpers that keep file names and user names out of logs
// unless the operator asks for them.
package log

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
)

// SanitizationMode controls how paths and user names are rendered in log fields.
type SanitizationMode int

const (
	// ProductionMode replaces values with a short hash.
	ProductionMode SanitizationMode = iota
	// DevelopmentMode shows a truncated value.
	DevelopmentMode
	// DebugMode shows the value unchanged.
	DebugMode
)

var currentMode = ProductionMode

func init() {
	if mode, ok := ParseMode(os.Getenv("JFS_LOG_MODE")); ok {
		currentMode = mode
	}
}

// ParseMode maps "production", "development" or "debug" to a mode.
func ParseMode(s string) (SanitizationMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production":
		return ProductionMode, true
	case "development":
		return DevelopmentMode, true
	case "debug":
		return DebugMode, true
	}
	return ProductionMode, false
}

// SetMode overrides the mode picked up from JFS_LOG_MODE. It is meant to be
// called once during startup.
func SetMode(mode SanitizationMode) { currentMode = mode }

// Mode reports the active sanitization mode.
func Mode() SanitizationMode { return currentMode }

// SanitizePath renders a path for a log field.
func SanitizePath(path string) string {
	if path == "" {
		return ""
	}
	switch currentMode {
	case DebugMode:
		return path
	case DevelopmentMode:
		if len(path) <= 20 {
			return path
		}
		return path[:10] + "..." + path[len(path)-7:]
	default:
		hash := sha256.Sum256([]byte(path))
		return fmt.Sprintf("hash:%x", hash[:8])
	}
}

// SanitizeUser renders an owner or group name for a log field.
func SanitizeUser(name string) string {
	if name == "" {
		return ""
	}
	switch currentMode {
	case DebugMode:
		return name
	case DevelopmentMode:
		if len(name) <= 8 {
			return name
		}
		return name[:4] + "****"
	default:
		hash := sha256.Sum256([]byte(name))
		return fmt.Sprintf("user_hash:%x", hash[:6])
	}
}
