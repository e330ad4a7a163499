package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rtfdclip/pkg/errors"
	"rtfdclip/pkg/richtext"
	"rtfdclip/pkg/rtf"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

// clearEnv unsets every variable the loader reads for the duration of t.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RTFDCLIP_ATTACHMENT_POLICY",
		"RTFDCLIP_IMAGE_ENCODING",
		"RTFDCLIP_DEFAULT_FONT",
		"RTFDCLIP_HISTORY",
		"RTFDCLIP_HISTORY_MAX",
		"RTFDCLIP_LOG_LEVEL",
		"RTFDCLIP_PROFILE",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}
	return configPath
}

func TestLoad_Success(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, `serializer:
  attachment_policy: drop
  image_encoding: png
  default_font: Menlo
  default_font_size: 13
history:
  enabled: false
  max_entries: 10
log_level: debug
`)

	cfg, err := loadFromPath(configPath)
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}

	want := SerializerConfig{AttachmentPolicy: "drop", ImageEncoding: "png", DefaultFont: "Menlo", DefaultFontSize: 13}
	if diff := cmp.Diff(want, cfg.Serializer); diff != "" {
		t.Errorf("serializer config mismatch (-want +got):\n%s", diff)
	}
	if cfg.History.Enabled {
		t.Error("Expected history to be disabled")
	}
	if cfg.History.MaxEntries != 10 {
		t.Errorf("Expected max_entries 10, got %d", cfg.History.MaxEntries)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log_level 'debug', got '%s'", cfg.LogLevel)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options() returned error: %v", err)
	}
	if opts.AttachmentPolicy != richtext.PolicyDrop || opts.ImageEncoding != rtf.EncodingPNG {
		t.Errorf("Options() = %+v", opts)
	}
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, `serializer:
  default_font: Georgia
`)

	cfg, err := loadFromPath(configPath)
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}
	if cfg.Serializer.DefaultFont != "Georgia" {
		t.Errorf("Expected default_font 'Georgia', got '%s'", cfg.Serializer.DefaultFont)
	}
	if cfg.Serializer.ImageEncoding != "tiff" {
		t.Errorf("Expected image_encoding 'tiff', got '%s'", cfg.Serializer.ImageEncoding)
	}
	if !cfg.History.Enabled || cfg.History.MaxEntries != DefaultMaxEntries {
		t.Errorf("Expected default history settings, got %+v", cfg.History)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := loadFromPath(configPath)
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, "serializer: [unclosed\n")

	_, err := loadFromPath(configPath)
	if err == nil {
		t.Error("loadFromPath() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"unknown policy", "serializer:\n  attachment_policy: keep\n", "unknown attachment policy"},
		{"unknown encoding", "serializer:\n  image_encoding: gif\n", "unknown image encoding"},
		{"negative size", "serializer:\n  default_font_size: -1\n", "default_font_size"},
		{"negative max entries", "history:\n  max_entries: -5\n", "max_entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := loadFromPath(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("loadFromPath() expected error, got nil")
			}
			if !errors.IsExitCode(err, errors.ExitCodeConfig) {
				t.Errorf("Expected a config error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Unexpected error message: %v", err)
			}
		})
	}
}

func TestLoad_WithEnvOverrides(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, `serializer:
  attachment_policy: placeholder
history:
  enabled: true
  max_entries: 50
`)
	t.Setenv("RTFDCLIP_ATTACHMENT_POLICY", "drop")
	t.Setenv("RTFDCLIP_IMAGE_ENCODING", "png")
	t.Setenv("RTFDCLIP_DEFAULT_FONT", "Courier")
	t.Setenv("RTFDCLIP_HISTORY", "off")
	t.Setenv("RTFDCLIP_HISTORY_MAX", "7")
	t.Setenv("RTFDCLIP_LOG_LEVEL", "error")

	cfg, err := loadFromPath(configPath)
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}

	if cfg.Serializer.AttachmentPolicy != "drop" {
		t.Errorf("Expected attachment_policy 'drop', got '%s'", cfg.Serializer.AttachmentPolicy)
	}
	if cfg.Serializer.ImageEncoding != "png" {
		t.Errorf("Expected image_encoding 'png', got '%s'", cfg.Serializer.ImageEncoding)
	}
	if cfg.Serializer.DefaultFont != "Courier" {
		t.Errorf("Expected default_font 'Courier', got '%s'", cfg.Serializer.DefaultFont)
	}
	if cfg.History.Enabled {
		t.Error("Expected RTFDCLIP_HISTORY=off to disable history")
	}
	if cfg.History.MaxEntries != 7 {
		t.Errorf("Expected max_entries 7, got %d", cfg.History.MaxEntries)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("Expected log_level 'error', got '%s'", cfg.LogLevel)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("RTFDCLIP_TEST_VAR", "test-value")
	t.Setenv("RTFDCLIP_TEST_INT", "not-a-number")
	t.Setenv("RTFDCLIP_TEST_BOOL", "yes")

	if got := getEnv("RTFDCLIP_TEST_VAR", "default"); got != "test-value" {
		t.Errorf("Expected 'test-value', got '%s'", got)
	}
	if got := getEnv("RTFDCLIP_NONEXISTENT_VAR", "default"); got != "default" {
		t.Errorf("Expected 'default', got '%s'", got)
	}
	if got := getEnvInt("RTFDCLIP_TEST_INT", 3); got != 3 {
		t.Errorf("Expected fallback 3 for a bad integer, got %d", got)
	}
	if got := getEnvBool("RTFDCLIP_TEST_BOOL", false); !got {
		t.Error("Expected 'yes' to parse as true")
	}
	if got := getEnvBool("RTFDCLIP_NONEXISTENT_VAR", true); !got {
		t.Error("Expected the default for an unset variable")
	}
}

func TestGetConfigPath_WithXDG(t *testing.T) {
	xdgDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdgDir)

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() returned error: %v", err)
	}

	expectedPath := filepath.Join(xdgDir, "rtfdclip", "config.yaml")
	if path != expectedPath {
		t.Errorf("Expected config path '%s', got '%s'", expectedPath, path)
	}
}

func TestHistoryPath(t *testing.T) {
	cacheDir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheDir)

	cfg := Default()
	path, err := cfg.HistoryPath()
	if err != nil {
		t.Fatalf("HistoryPath() returned error: %v", err)
	}
	if want := filepath.Join(cacheDir, "rtfdclip", "history.db"); path != want {
		t.Errorf("Expected history path '%s', got '%s'", want, path)
	}

	cfg.History.Path = "/tmp/custom.db"
	if path, _ := cfg.HistoryPath(); path != "/tmp/custom.db" {
		t.Errorf("Expected configured history path, got '%s'", path)
	}
}

func TestConfig_ProfileManagement(t *testing.T) {
	cfg := Default()

	profile := Profile{
		Name:       "slides",
		Serializer: SerializerConfig{ImageEncoding: "png", DefaultFontSize: 24},
	}

	if err := cfg.AddProfile(profile); err != nil {
		t.Fatalf("AddProfile() failed: %v", err)
	}

	retrieved, err := cfg.GetProfile("slides")
	if err != nil {
		t.Fatalf("GetProfile() failed: %v", err)
	}
	if retrieved.Serializer.ImageEncoding != "png" {
		t.Errorf("Expected image_encoding 'png', got '%s'", retrieved.Serializer.ImageEncoding)
	}

	profiles := cfg.ListProfiles()
	if len(profiles) != 1 || profiles[0] != "slides" {
		t.Errorf("Expected profiles ['slides'], got %v", profiles)
	}

	if err := cfg.SetProfile("slides"); err != nil {
		t.Fatalf("SetProfile() failed: %v", err)
	}
	if !cfg.IsProfileActive("slides") {
		t.Error("Expected IsProfileActive('slides') to be true")
	}

	if err := cfg.AddProfile(profile); err == nil {
		t.Error("AddProfile() expected error for duplicate profile")
	}
	if err := cfg.AddProfile(Profile{Name: "bad", Serializer: SerializerConfig{AttachmentPolicy: "keep"}}); err == nil {
		t.Error("AddProfile() expected error for an invalid policy")
	}
	if err := cfg.AddProfile(Profile{}); err == nil {
		t.Error("AddProfile() expected error for an unnamed profile")
	}

	if err := cfg.RemoveProfile("slides"); err == nil {
		t.Error("RemoveProfile() expected error when removing active profile")
	}

	cfg.SetProfile("")
	if err := cfg.RemoveProfile("slides"); err != nil {
		t.Fatalf("RemoveProfile() failed: %v", err)
	}
	if _, err := cfg.GetProfile("slides"); err == nil {
		t.Error("GetProfile() expected error for removed profile")
	}
	if err := cfg.SetProfile("nonexistent"); err == nil {
		t.Error("SetProfile() expected error for non-existent profile")
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Serializer.DefaultFont = "Times"
	cfg.History.MaxEntries = 12
	if err := cfg.AddProfile(Profile{Name: "plain", Serializer: SerializerConfig{AttachmentPolicy: "drop"}}); err != nil {
		t.Fatalf("AddProfile() failed: %v", err)
	}

	if err := saveToPath(cfg, configPath); err != nil {
		t.Fatalf("saveToPath() returned error: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read saved config: %v", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Saved config is not valid YAML: %v", err)
	}
	if _, ok := raw["serializer"]; !ok {
		t.Errorf("Saved config lacks the serializer section:\n%s", data)
	}

	loaded, err := loadFromPath(configPath)
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("config mismatch after save/load (-want +got):\n%s", diff)
	}
}

func TestConfig_LoadWithProfile(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, `serializer:
  attachment_policy: placeholder
  default_font: Helvetica
profiles:
  - name: code
    serializer:
      default_font: Menlo
      attachment_policy: drop
active_profile: code
`)

	cfg, err := loadFromPath(configPath)
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}
	if cfg.Serializer.DefaultFont != "Menlo" || cfg.Serializer.AttachmentPolicy != "drop" {
		t.Errorf("Active profile not applied: %+v", cfg.Serializer)
	}

	t.Setenv("RTFDCLIP_PROFILE", "missing")
	if _, err := loadFromPath(configPath); err == nil {
		t.Error("loadFromPath() expected error for an unknown profile")
	}
}
