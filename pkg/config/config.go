package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"rtfdclip/pkg/errors"
	"rtfdclip/pkg/richtext"
	"rtfdclip/pkg/rtf"

	"gopkg.in/yaml.v3"
)

const (
	appName           = "rtfdclip"
	DefaultMaxEntries = 200
)

// Profile is a named set of serializer settings.
type Profile struct {
	Name       string           `yaml:"name"`
	Serializer SerializerConfig `yaml:"serializer"`
}

// Config holds the complete configuration including profiles
type Config struct {
	Serializer    SerializerConfig `yaml:"serializer"`
	History       HistoryConfig    `yaml:"history"`
	LogLevel      string           `yaml:"log_level,omitempty"`
	Profiles      []Profile        `yaml:"profiles,omitempty"`
	ActiveProfile string           `yaml:"active_profile,omitempty"`
}

type SerializerConfig struct {
	AttachmentPolicy string  `yaml:"attachment_policy,omitempty"`
	ImageEncoding    string  `yaml:"image_encoding,omitempty"`
	DefaultFont      string  `yaml:"default_font,omitempty"`
	DefaultFontSize  float64 `yaml:"default_font_size,omitempty"`
}

type HistoryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	MaxEntries int    `yaml:"max_entries"`
	Path       string `yaml:"path,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	d := rtf.DefaultOptions()
	return &Config{
		Serializer: SerializerConfig{
			AttachmentPolicy: d.AttachmentPolicy.String(),
			ImageEncoding:    string(d.ImageEncoding),
			DefaultFont:      d.DefaultFont,
			DefaultFontSize:  d.DefaultFontSize,
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: DefaultMaxEntries,
		},
		LogLevel: "warn",
	}
}

// Load loads the configuration, optionally with a specific profile
func Load(profileName ...string) (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeConfig, "failed to get config path", err)
	}
	return loadFromPath(configPath, profileName...)
}

// LoadFile reads the config file without environment overrides or
// profile application. Commands that edit and save the file use it.
func LoadFile() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeConfig, "failed to get config path", err)
	}
	cfg := Default()
	if err := loadConfigFile(configPath, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName, "config.yaml"), nil
}

// DefaultHistoryPath is the history database used when none is configured.
func DefaultHistoryPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, appName, "history.db"), nil
}

// Save saves the configuration to file
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return saveToPath(cfg, configPath)
}

func saveToPath(cfg *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to write config file", err)
	}

	return nil
}

// Options converts the serializer settings into writer options.
func (c *Config) Options() (rtf.Options, error) {
	return c.Serializer.options()
}

func (s SerializerConfig) options() (rtf.Options, error) {
	policy, err := richtext.ParsePolicy(s.AttachmentPolicy)
	if err != nil {
		return rtf.Options{}, errors.ConfigError(err.Error())
	}
	enc, err := rtf.ParseImageEncoding(s.ImageEncoding)
	if err != nil {
		return rtf.Options{}, errors.ConfigError(err.Error())
	}
	return rtf.Options{
		AttachmentPolicy: policy,
		ImageEncoding:    enc,
		DefaultFont:      s.DefaultFont,
		DefaultFontSize:  s.DefaultFontSize,
	}, nil
}

// HistoryPath returns the configured history database or the default one.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	return DefaultHistoryPath()
}

// GetProfile returns a profile by name
func (c *Config) GetProfile(name string) (*Profile, error) {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i], nil
		}
	}
	return nil, fmt.Errorf("profile '%s' not found", name)
}

// SetProfile sets the active profile
func (c *Config) SetProfile(name string) error {
	if name == "" {
		c.ActiveProfile = ""
		return nil
	}

	if _, err := c.GetProfile(name); err != nil {
		return err
	}

	c.ActiveProfile = name
	return nil
}

// AddProfile adds a new profile
func (c *Config) AddProfile(profile Profile) error {
	if profile.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if _, err := c.GetProfile(profile.Name); err == nil {
		return fmt.Errorf("profile '%s' already exists", profile.Name)
	}
	if _, err := profile.Serializer.options(); err != nil {
		return err
	}

	c.Profiles = append(c.Profiles, profile)
	return nil
}

// RemoveProfile removes a profile
func (c *Config) RemoveProfile(name string) error {
	if c.ActiveProfile == name {
		return fmt.Errorf("cannot remove active profile '%s'", name)
	}

	for i, p := range c.Profiles {
		if p.Name == name {
			c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("profile '%s' not found", name)
}

// ListProfiles returns a list of profile names
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// IsProfileActive returns true if the given profile is active
func (c *Config) IsProfileActive(name string) bool {
	return c.ActiveProfile == name
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func loadFromPath(configPath string, profileName ...string) (*Config, error) {
	cfg := Default()

	if err := loadConfigFile(configPath, cfg); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(cfg)

	// Apply profile if specified or if there's an active profile
	targetProfile := ""
	if len(profileName) > 0 && profileName[0] != "" {
		targetProfile = profileName[0]
	} else if cfg.ActiveProfile != "" {
		targetProfile = cfg.ActiveProfile
	}

	if targetProfile != "" {
		profile, err := cfg.GetProfile(targetProfile)
		if err != nil {
			return nil, errors.ConfigError(err.Error())
		}
		applyProfileConfig(cfg, profile)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyProfileConfig(cfg *Config, profile *Profile) {
	p := profile.Serializer
	if p.AttachmentPolicy != "" {
		cfg.Serializer.AttachmentPolicy = p.AttachmentPolicy
	}
	if p.ImageEncoding != "" {
		cfg.Serializer.ImageEncoding = p.ImageEncoding
	}
	if p.DefaultFont != "" {
		cfg.Serializer.DefaultFont = p.DefaultFont
	}
	if p.DefaultFontSize > 0 {
		cfg.Serializer.DefaultFontSize = p.DefaultFontSize
	}
}

// loadConfigFile reads and parses the config file from the given path
func loadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		// File doesn't exist, that's okay - defaults and env vars apply
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to parse config file", err)
	}

	return nil
}

// applyEnvironmentOverrides applies environment variable overrides to the config
func applyEnvironmentOverrides(cfg *Config) {
	cfg.Serializer.AttachmentPolicy = getEnv("RTFDCLIP_ATTACHMENT_POLICY", cfg.Serializer.AttachmentPolicy)
	cfg.Serializer.ImageEncoding = getEnv("RTFDCLIP_IMAGE_ENCODING", cfg.Serializer.ImageEncoding)
	cfg.Serializer.DefaultFont = getEnv("RTFDCLIP_DEFAULT_FONT", cfg.Serializer.DefaultFont)
	cfg.History.Enabled = getEnvBool("RTFDCLIP_HISTORY", cfg.History.Enabled)
	cfg.History.MaxEntries = getEnvInt("RTFDCLIP_HISTORY_MAX", cfg.History.MaxEntries)
	cfg.LogLevel = getEnv("RTFDCLIP_LOG_LEVEL", cfg.LogLevel)

	// Profile can be overridden via environment
	if profileEnv := os.Getenv("RTFDCLIP_PROFILE"); profileEnv != "" {
		cfg.ActiveProfile = profileEnv
	}
}

// validateConfig ensures every setting has a usable value
func validateConfig(cfg *Config) error {
	if _, err := cfg.Options(); err != nil {
		return err
	}
	if cfg.Serializer.DefaultFontSize < 0 {
		return errors.ConfigError("default_font_size must not be negative")
	}
	if cfg.History.MaxEntries < 0 {
		return errors.ConfigError("history max_entries must not be negative. Use 0 to keep every entry")
	}
	return nil
}
