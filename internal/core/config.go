package core

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/putao520/qrcodesdk/internal/qrcode"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config.yaml"
	ConfigPathEnv     = "CONFIG_PATH"
	DefaultPort       = 8080
	DefaultCacheTTL   = time.Hour
)

// Duration reads YAML values such as "30s" or "1h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

// Cache configures the rendered-image cache. An empty Addr disables it.
type Cache struct {
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	Prefix   string   `yaml:"prefix"`
	TTL      Duration `yaml:"ttl"`
}

type ServiceConfig struct {
	Port     int           `yaml:"port"`
	LogLevel string        `yaml:"logLevel"`
	QRCode   qrcode.Config `yaml:"qrcode"`
	Database Database      `yaml:"database"`
	Cache    Cache         `yaml:"cache"`
}

func DefaultConfig() *ServiceConfig {
	return &ServiceConfig{
		Port:     DefaultPort,
		LogLevel: "info",
		QRCode:   qrcode.DefaultConfig(),
		Database: Database{Type: "sqlite", ConnectionString: ":memory:"},
		Cache:    Cache{TTL: Duration(DefaultCacheTTL)},
	}
}

// ConfigPath returns $CONFIG_PATH, or config.yaml in the working directory.
func ConfigPath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	return DefaultConfigPath
}

// LoadConfig loads configuration from the specified YAML file. Keys missing
// from the file keep their defaults; a missing file yields the defaults.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("Config: file not found, using defaults", "path", configPath)
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}
	return config, nil
}

func (c *ServiceConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	if err := c.QRCode.Validate(); err != nil {
		return fmt.Errorf("qrcode: %w", err)
	}
	return nil
}

// ParseLogLevel maps debug, info, warn and error to slog levels. Empty means info.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}
