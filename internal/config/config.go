// Package config provides YAML-based configuration for the DSS visualizer server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MaxUploadBytes bounds the size of a request body (50 MiB).
	MaxUploadBytes int64 = 50 << 20
	// BodyLimit is MaxUploadBytes expressed for echo's BodyLimit middleware.
	BodyLimit = "50M"

	// UploadsDirName and ExportsDirName are fixed directory names under the data directory.
	UploadsDirName = "uploads"
	ExportsDirName = "exports"

	// DefaultSecretKey is an insecure fallback for non-production use.
	DefaultSecretKey = "dev-key-123456"

	// DefaultFileName is the name of the config file looked up next to the executable.
	DefaultFileName = "dssviz.yaml"
)

// AppConfig is the root configuration. It is built once by Load and treated as read-only.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Decoder   DecoderConfig   `yaml:"decoder"`
	Chart     ChartConfig     `yaml:"chart"`
	Retention RetentionConfig `yaml:"retention"`
	Log       LogConfig       `yaml:"log"`

	// SecretKey is only taken from the SECRET_KEY environment variable.
	SecretKey string `yaml:"-"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	BindAddress          string `yaml:"bindAddress"`
	Port                 int    `yaml:"port"`
	ReadTimeoutSeconds   int    `yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds  int    `yaml:"writeTimeoutSeconds"`
	IdleTimeoutSeconds   int    `yaml:"idleTimeoutSeconds"`
	EnableRequestLogging bool   `yaml:"enableRequestLogging"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
}

// DecoderConfig describes the external DSS reader program.
type DecoderConfig struct {
	Binary         string `yaml:"binary"`
	Format         string `yaml:"format"` // "json" or "msgpack"
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// ChartConfig contains rendering options
type ChartConfig struct {
	// FontPath points to a TTF font with CJK glyphs for the chart labels.
	FontPath string `yaml:"fontPath"`
}

// RetentionConfig controls the optional sweeper for uploads and exports.
type RetentionConfig struct {
	MaxAgeHours          int `yaml:"maxAgeHours"` // 0 disables the sweeper
	SweepIntervalMinutes int `yaml:"sweepIntervalMinutes"`
}

// LogConfig contains logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			BindAddress:          "0.0.0.0",
			Port:                 5000,
			ReadTimeoutSeconds:   120,
			WriteTimeoutSeconds:  120,
			IdleTimeoutSeconds:   120,
			EnableRequestLogging: true,
		},
		Storage: StorageConfig{
			DataDirectory: "./data",
		},
		Decoder: DecoderConfig{
			Binary:         "dss-reader",
			Format:         "json",
			TimeoutSeconds: 0,
		},
		Retention: RetentionConfig{
			MaxAgeHours:          0,
			SweepIntervalMinutes: 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		SecretKey: DefaultSecretKey,
	}
}

// Load reads the configuration file at configPath. A missing file is created with defaults.
// Environment overrides are applied in both cases and relative paths are resolved
// against the config file's directory.
func Load(configPath string) (*AppConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()
	cfg.resolvePaths(filepath.Dir(configPath))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# DSS visualizer configuration\n# This file is auto-generated on first run\n\n")
	if err := os.WriteFile(configPath, append(header, out...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if key := os.Getenv("SECRET_KEY"); key != "" {
		c.SecretKey = key
	}

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}

	if bin := os.Getenv("DSS_READER_BIN"); bin != "" {
		c.Decoder.Binary = bin
	}

	if font := os.Getenv("CHART_FONT"); font != "" {
		c.Chart.FontPath = font
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
	if c.Chart.FontPath != "" && !filepath.IsAbs(c.Chart.FontPath) {
		c.Chart.FontPath = filepath.Join(configDir, c.Chart.FontPath)
	}
}

func (c *AppConfig) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch strings.ToLower(c.Decoder.Format) {
	case "json", "msgpack":
	default:
		return fmt.Errorf("invalid decoder format %q (want json or msgpack)", c.Decoder.Format)
	}
	if c.Retention.MaxAgeHours < 0 {
		return fmt.Errorf("invalid retention maxAgeHours: %d", c.Retention.MaxAgeHours)
	}
	return nil
}

// UploadDir returns the absolute uploads directory path
func (c *AppConfig) UploadDir() string {
	return filepath.Join(c.Storage.DataDirectory, UploadsDirName)
}

// ExportDir returns the absolute exports directory path
func (c *AppConfig) ExportDir() string {
	return filepath.Join(c.Storage.DataDirectory, ExportsDirName)
}

// ServerAddr returns the server bind address
func (c *AppConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// UsingDefaultSecret reports whether the insecure default secret key is in effect.
func (c *AppConfig) UsingDefaultSecret() bool {
	return c.SecretKey == DefaultSecretKey
}

// DecoderTimeout returns the per-call decoder timeout; zero means no timeout.
func (c *AppConfig) DecoderTimeout() time.Duration {
	return time.Duration(c.Decoder.TimeoutSeconds) * time.Second
}

// RetentionMaxAge returns the file age after which the sweeper removes files.
func (c *AppConfig) RetentionMaxAge() time.Duration {
	return time.Duration(c.Retention.MaxAgeHours) * time.Hour
}

// SweepInterval returns how often the background sweeper runs.
func (c *AppConfig) SweepInterval() time.Duration {
	if c.Retention.SweepIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Retention.SweepIntervalMinutes) * time.Minute
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.UploadDir(),
		c.ExportDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
