// Package config loads service settings from defaults, an optional TOML file,
// an optional .env file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/horiken1977/roic-sub001/pkg/edinet"
	"github.com/horiken1977/roic-sub001/pkg/facts"
)

// Default file names looked up when no path is given.
const (
	DefaultFile    = "roic.toml"
	DefaultEnvFile = ".env"
)

// Duration is a time.Duration written as a string such as "45s" or "24h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Server     ServerConfig     `toml:"server"`
	Edinet     EdinetConfig     `toml:"edinet"`
	Locator    LocatorConfig    `toml:"locator"`
	Tax        TaxConfig        `toml:"tax"`
	Cache      CacheConfig      `toml:"cache"`
	Logging    LoggingConfig    `toml:"logging"`
	Candidates facts.Candidates `toml:"candidates"`
}

type ServerConfig struct {
	Port       int    `toml:"port"`
	CORSOrigin string `toml:"cors_origin"`
}

type EdinetConfig struct {
	BaseURL      string   `toml:"base_url"`
	APIKey       string   `toml:"api_key"`
	RateLimit    float64  `toml:"rate_limit"` // requests per second
	Timeout      Duration `toml:"timeout"`
	MaxRetries   int      `toml:"max_retries"`
	RetryBackoff Duration `toml:"retry_backoff"`
}

type LocatorConfig struct {
	Concurrency     int  `toml:"concurrency"`
	DefaultEndMonth int  `toml:"default_end_month"`
	AllowPermissive bool `toml:"allow_permissive"`
}

type TaxConfig struct {
	AllowDefault bool    `toml:"allow_default"`
	DefaultRate  float64 `toml:"default_rate"`
}

// Policy converts the settings to a facts.TaxPolicy.
func (t TaxConfig) Policy() facts.TaxPolicy {
	return facts.TaxPolicy{
		AllowDefault: t.AllowDefault,
		DefaultRate:  decimal.NewFromFloat(t.DefaultRate),
	}
}

type CacheConfig struct {
	// Path of the sqlite file; empty disables caching.
	Path           string   `toml:"path"`
	FactSetMaxAge  Duration `toml:"fact_set_max_age"`
	RecentWindow   Duration `toml:"recent_window"`
	RecentListsAge Duration `toml:"recent_lists_max_age"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console or json
}

// NewDefaultConfig returns the built-in settings.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       8080,
			CORSOrigin: "*",
		},
		Edinet: EdinetConfig{
			BaseURL:      edinet.DefaultBaseURL,
			RateLimit:    5,
			Timeout:      Duration{45 * time.Second},
			MaxRetries:   2,
			RetryBackoff: Duration{time.Second},
		},
		Locator: LocatorConfig{
			Concurrency:     4,
			DefaultEndMonth: int(time.March),
		},
		Tax: TaxConfig{
			DefaultRate: facts.DefaultTaxRate.InexactFloat64(),
		},
		Cache: CacheConfig{
			FactSetMaxAge:  Duration{7 * 24 * time.Hour},
			RecentWindow:   Duration{7 * 24 * time.Hour},
			RecentListsAge: Duration{time.Hour},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Candidates: facts.DefaultCandidates(),
	}
}

// Load builds a Config: defaults, then the TOML file at path, then envFile,
// then environment variables. Empty paths fall back to DefaultFile and
// DefaultEnvFile, which may be absent. Variables already set in the
// environment are not overwritten by envFile.
func Load(path, envFile string) (*Config, error) {
	config := NewDefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	explicitEnv := envFile != ""
	if !explicitEnv {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		if explicitEnv || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	config.Candidates = config.Candidates.WithDefaults()
	return config, config.Validate()
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) error {
	if key := os.Getenv("EDINET_API_KEY"); key != "" {
		config.Edinet.APIKey = key
	}
	if base := os.Getenv("EDINET_BASE_URL"); base != "" {
		config.Edinet.BaseURL = base
	}
	if port := os.Getenv("ROIC_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid ROIC_PORT %q: %w", port, err)
		}
		config.Server.Port = p
	}
	if path, ok := os.LookupEnv("ROIC_CACHE_PATH"); ok {
		config.Cache.Path = path
	}
	if level := os.Getenv("ROIC_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("ROIC_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if v := os.Getenv("ROIC_ALLOW_PERMISSIVE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ROIC_ALLOW_PERMISSIVE %q: %w", v, err)
		}
		config.Locator.AllowPermissive = b
	}
	if v := os.Getenv("ROIC_TAX_ALLOW_DEFAULT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ROIC_TAX_ALLOW_DEFAULT %q: %w", v, err)
		}
		config.Tax.AllowDefault = b
	}
	return nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Edinet.RateLimit <= 0 {
		problems = append(problems, "edinet.rate_limit must be positive")
	}
	if c.Edinet.MaxRetries < 0 {
		problems = append(problems, "edinet.max_retries must not be negative")
	}
	if c.Locator.Concurrency <= 0 {
		problems = append(problems, "locator.concurrency must be positive")
	}
	if c.Locator.DefaultEndMonth < 1 || c.Locator.DefaultEndMonth > 12 {
		problems = append(problems, fmt.Sprintf("locator.default_end_month %d out of range", c.Locator.DefaultEndMonth))
	}
	if c.Tax.DefaultRate < 0 || c.Tax.DefaultRate > 1 {
		problems = append(problems, "tax.default_rate must be within [0, 1]")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// EndMonth returns the default fiscal-year-end month.
func (c *Config) EndMonth() time.Month {
	return time.Month(c.Locator.DefaultEndMonth)
}
