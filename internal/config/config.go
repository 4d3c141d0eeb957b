// Package config loads the service configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mkoziy/mgnrega/dashboard/internal/models"
	"github.com/mkoziy/mgnrega/dashboard/internal/ratelimit"
	"github.com/mkoziy/mgnrega/dashboard/internal/sources/datagov"
)

const (
	EnvServerHost         = "MGNREGA_SERVER_HOST"
	EnvPort               = "PORT"
	EnvDatabaseDSN        = "MGNREGA_DATABASE_DSN"
	EnvDatabaseDebug      = "MGNREGA_DATABASE_DEBUG"
	EnvUpstreamMode       = "MGNREGA_UPSTREAM_MODE"
	EnvUpstreamBaseURL    = "MGNREGA_UPSTREAM_BASE_URL"
	EnvUpstreamResourceID = "MGNREGA_UPSTREAM_RESOURCE_ID"
	EnvUpstreamAPIKey     = "MGNREGA_UPSTREAM_API_KEY"
	EnvLogDevelopment     = "MGNREGA_LOG_DEVELOPMENT"
)

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	DSN   string `yaml:"dsn"`
	Debug bool   `yaml:"debug"`
}

type UpstreamConfig struct {
	Mode       datagov.Mode     `yaml:"mode"`
	BaseURL    string           `yaml:"base_url"`
	ResourceID string           `yaml:"resource_id"`
	APIKey     string           `yaml:"api_key"`
	Timeout    time.Duration    `yaml:"timeout"`
	RateLimit  ratelimit.Config `yaml:"rate_limit"`
}

type SampleConfig struct {
	FinancialYear string `yaml:"financial_year"`
	// Seed makes fallback data reproducible. Zero seeds from the clock.
	Seed int64 `yaml:"seed"`
}

type CacheConfig struct {
	DistrictTTL time.Duration `yaml:"district_ttl"`
}

type LogConfig struct {
	Development bool `yaml:"development"`
}

// Config is the root of the YAML document.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Sample   SampleConfig   `yaml:"sample"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns a configuration that runs locally without any file.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{DSN: "file:mgnrega.db"},
		Upstream: UpstreamConfig{
			Mode:      datagov.ModeStub,
			BaseURL:   datagov.DefaultBaseURL,
			Timeout:   10 * time.Second,
			RateLimit: ratelimit.DefaultConfig(),
		},
		Sample: SampleConfig{FinancialYear: models.DefaultFinancialYear},
		Cache:  CacheConfig{DistrictTTL: time.Hour},
	}
}

// Load parses YAML bytes and fills unset fields with defaults.
func Load(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return applyDefaults(cfg), nil
}

// LoadFile reads path, applies environment overrides and validates the
// result. An empty path starts from Default.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
		if cfg, err = Load(data); err != nil {
			return Config{}, err
		}
	}
	cfg, err := cfg.ApplyEnv(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment visible through lookup.
func (c Config) ApplyEnv(lookup func(string) (string, bool)) (Config, error) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str(EnvServerHost, &c.Server.Host)
	str(EnvDatabaseDSN, &c.Database.DSN)
	str(EnvUpstreamBaseURL, &c.Upstream.BaseURL)
	str(EnvUpstreamResourceID, &c.Upstream.ResourceID)
	str(EnvUpstreamAPIKey, &c.Upstream.APIKey)

	mode := string(c.Upstream.Mode)
	str(EnvUpstreamMode, &mode)
	c.Upstream.Mode = datagov.Mode(mode)

	if v, ok := lookup(EnvPort); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if err := boolean(EnvDatabaseDebug, &c.Database.Debug); err != nil {
		return Config{}, err
	}
	if err := boolean(EnvLogDevelopment, &c.Log.Development); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks that the configuration is coherent.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be in range 1..65535", c.Server.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("invalid database.dsn: must not be empty")
	}
	switch c.Upstream.Mode {
	case datagov.ModeStub:
	case datagov.ModeLive:
		if c.Upstream.BaseURL == "" {
			return fmt.Errorf("invalid upstream.base_url: required in live mode")
		}
		if c.Upstream.ResourceID == "" {
			return fmt.Errorf("invalid upstream.resource_id: required in live mode")
		}
	default:
		return fmt.Errorf("invalid upstream.mode %q: must be %q or %q", c.Upstream.Mode, datagov.ModeStub, datagov.ModeLive)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("invalid upstream.timeout: must be > 0")
	}
	if err := c.Upstream.RateLimit.Validate(); err != nil {
		return fmt.Errorf("invalid upstream.rate_limit: %w", err)
	}
	return nil
}

func applyDefaults(cfg Config) Config {
	def := Default()
	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = def.Server.ReadTimeout
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = def.Server.WriteTimeout
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = def.Database.DSN
	}
	if cfg.Upstream.Mode == "" {
		cfg.Upstream.Mode = def.Upstream.Mode
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = def.Upstream.BaseURL
	}
	if cfg.Upstream.Timeout <= 0 {
		cfg.Upstream.Timeout = def.Upstream.Timeout
	}
	cfg.Upstream.RateLimit = cfg.Upstream.RateLimit.WithDefaults()
	if cfg.Sample.FinancialYear == "" {
		cfg.Sample.FinancialYear = def.Sample.FinancialYear
	}
	// Negative TTLs pass through and disable expiry.
	if cfg.Cache.DistrictTTL == 0 {
		cfg.Cache.DistrictTTL = def.Cache.DistrictTTL
	}
	return cfg
}
