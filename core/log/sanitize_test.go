package log

import (
	"strings"
	"testing"
)

func withMode(t *testing.T, mode SanitizationMode) {
	t.Helper()
	prev := Mode()
	SetMode(mode)
	t.Cleanup(func() { SetMode(prev) })
}

func TestSanitizePath(t *testing.T) {
	long := "/very/long/directory/name/file.txt"

	tests := []struct {
		name  string
		mode  SanitizationMode
		input string
		check func(string) bool
	}{
		{"empty stays empty", ProductionMode, "", func(s string) bool { return s == "" }},
		{"production hashes", ProductionMode, long, func(s string) bool { return strings.HasPrefix(s, "hash:") && !strings.Contains(s, "file") }},
		{"development keeps short paths", DevelopmentMode, "/a/b", func(s string) bool { return s == "/a/b" }},
		{"development truncates long paths", DevelopmentMode, long, func(s string) bool { return s == "/very/long...ile.txt" }},
		{"debug shows everything", DebugMode, long, func(s string) bool { return s == long }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withMode(t, tt.mode)
			if got := SanitizePath(tt.input); !tt.check(got) {
				t.Errorf("SanitizePath(%q) = %q", tt.input, got)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want SanitizationMode
		ok   bool
	}{
		{"production", ProductionMode, true},
		{" Development ", DevelopmentMode, true},
		{"DEBUG", DebugMode, true},
		{"verbose", ProductionMode, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseMode(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseMode(%q) = %v, %v", tt.in, got, ok)
			}
		})
	}
}

func TestSanitizeUser(t *testing.T) {
	withMode(t, DevelopmentMode)
	if got := SanitizeUser("administrator"); got != "admi****" {
		t.Errorf("got %q", got)
	}
	withMode(t, ProductionMode)
	if got := SanitizeUser("root"); !strings.HasPrefix(got, "user_hash:") {
		t.Errorf("got %q", got)
	}
}
