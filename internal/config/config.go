package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/LogiDash/internal/apperr"
	"github.com/TobiSchelling/LogiDash/internal/cache"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// Environment variables that override the file.
const (
	EnvOrdersURL  = "LOGIDASH_ORDERS_URL"
	EnvParcelsURL = "LOGIDASH_PARCELS_URL"
	EnvEnv        = "LOGIDASH_ENV"
)

const (
	Production  = "production"
	Development = "development"
)

type Config struct {
	Sheets      Sheets   `yaml:"sheets"`
	Cache       Cache    `yaml:"cache"`
	Forecast    Forecast `yaml:"forecast"`
	Server      Server   `yaml:"server"`
	Logging     Logging  `yaml:"logging"`
	Output      Output   `yaml:"output"`
	Environment string   `yaml:"environment"`
}

type Sheets struct {
	Orders         SheetSource `yaml:"orders"`
	Parcels        SheetSource `yaml:"parcels"`
	APIKeyEnv      string      `yaml:"api_key_env"`
	TimeoutSeconds int         `yaml:"timeout_seconds"`
}

// SheetSource points at a CSV export URL or a local workbook.
type SheetSource struct {
	URL   string `yaml:"url"`
	File  string `yaml:"file"`
	Range string `yaml:"range"`
}

// Configured reports whether the source has a location.
func (s SheetSource) Configured() bool {
	return s.URL != "" || s.File != ""
}

type Cache struct {
	DefaultMinutes int            `yaml:"default_minutes"`
	Endpoints      map[string]int `yaml:"endpoints"`
}

type Forecast struct {
	HorizonDays int `yaml:"horizon_days"`
}

type Server struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type Logging struct {
	Level string `yaml:"level"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

// ConfigDir returns the XDG config directory for logidash.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "logidash")
}

// DataDir returns the XDG data directory for logidash.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "logidash")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/logidash/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", apperr.Configuration("config file not found: " + explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", apperr.Configuration(fmt.Sprintf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'logidash init' to create a default config",
		xdgConfig,
	))
}

// LoadDotEnv loads variables from .env files into the process environment
// without overriding variables that are already set. Missing files are
// ignored.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// Load reads a config YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sheets: Sheets{
			Orders:         SheetSource{Range: "Orders!A3:AM"},
			Parcels:        SheetSource{Range: "Parcels!A2:I"},
			APIKeyEnv:      "LOGIDASH_SHEETS_KEY",
			TimeoutSeconds: 30,
		},
		Cache:       Cache{DefaultMinutes: 5},
		Forecast:    Forecast{HorizonDays: 7},
		Server:      Server{Port: 8000},
		Logging:     Logging{Level: "info"},
		Environment: Production,
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperr.New(apperr.KindConfiguration, "parsing config", err)
	}
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvOrdersURL); v != "" {
		c.Sheets.Orders.URL = v
	}
	if v := getenv(EnvParcelsURL); v != "" {
		c.Sheets.Parcels.URL = v
	}
	if v := getenv(EnvEnv); v != "" {
		c.Environment = strings.ToLower(strings.TrimSpace(v))
	}
}

// Validate reports configuration that would stop the dashboard from serving.
func (c *Config) Validate() error {
	if !c.Sheets.Orders.Configured() {
		return apperr.Configuration("sheets.orders needs a url or file (or set " + EnvOrdersURL + ")")
	}
	if c.Environment != Production && c.Environment != Development {
		return apperr.Configuration("environment must be production or development, got " + c.Environment)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return apperr.Configuration(fmt.Sprintf("server.port out of range: %d", c.Server.Port))
	}
	return nil
}

// IsDevelopment reports whether error responses may carry stack traces.
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// SheetsAPIKey returns the key from the configured environment variable.
func (c *Config) SheetsAPIKey() string {
	if c.Sheets.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Sheets.APIKeyEnv)
}

// SheetsTimeout is the per-fetch deadline.
func (c *Config) SheetsTimeout() time.Duration {
	if c.Sheets.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Sheets.TimeoutSeconds) * time.Second
}

// CacheTTLs converts the per-endpoint minutes into durations.
func (c *Config) CacheTTLs() map[string]time.Duration {
	out := make(map[string]time.Duration, len(c.Cache.Endpoints)+1)
	out[cache.DefaultEndpoint] = time.Duration(c.Cache.DefaultMinutes) * time.Minute
	for endpoint, minutes := range c.Cache.Endpoints {
		out[endpoint] = time.Duration(minutes) * time.Minute
	}
	return out
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DBPath is the SQLite file holding the audit log and sync reports.
func (c *Config) DBPath() string {
	return filepath.Join(c.GetDataDir(), "logidash.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
