package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Range filter modes.
const (
	RangeIndependent   = "independent"
	RangeChronological = "chronological"
)

// Chart placeholder modes.
const (
	ChartZero = "zero"
	ChartGap  = "gap"
)

// Config captures the settings required to boot the shift report service.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Store       StoreConfig       `yaml:"store"`
	Logging     LoggingConfig     `yaml:"logging"`
	Cache       CacheConfig       `yaml:"cache"`
	Components  ComponentsConfig  `yaml:"components"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Reports     ReportsConfig     `yaml:"reports"`
}

// ServerConfig controls the gRPC, HTTP and metrics listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	HTTPAddress     string        `yaml:"httpAddress"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls Valkey-backed caching of aggregate listings.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Addr          string        `yaml:"addr"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	DB            int           `yaml:"db"`
	DialTimeout   time.Duration `yaml:"dialTimeout"`
	ReadTimeout   time.Duration `yaml:"readTimeout"`
	WriteTimeout  time.Duration `yaml:"writeTimeout"`
	MaxRetries    int           `yaml:"maxRetries"`
	TLS           bool          `yaml:"tls"`
	AggregatesTTL time.Duration `yaml:"aggregatesTTL"`
}

// ComponentsConfig names the organizational components shown first in reports
// and the critical component that gets sentinel handling.
type ComponentsConfig struct {
	Organization   string   `yaml:"organization"`
	Organizational []string `yaml:"organizational"`
	Critical       string   `yaml:"critical"`
}

// AggregationConfig holds the shift count a day needs before it is reduced.
type AggregationConfig struct {
	RequiredShifts int `yaml:"requiredShifts"`
}

// ReportsConfig controls report layout, output areas and presentation policies.
type ReportsConfig struct {
	Title           string `yaml:"title"`
	HeaderImage     string `yaml:"headerImage"`
	ShiftDir        string `yaml:"shiftDir"`
	DailyDir        string `yaml:"dailyDir"`
	MonthlyDir      string `yaml:"monthlyDir"`
	ChartsDir       string `yaml:"chartsDir"`
	Extension       string `yaml:"extension"`
	RangeFilter     string `yaml:"rangeFilter"`
	ChartNonNumeric string `yaml:"chartNonNumeric"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SHIFTREPORT_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := defaultConfig()
	return &cfg
}

// Validate rejects unknown modes and incomplete component settings.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("store.driver %q must be one of memory, sqlite, postgres", c.Store.Driver)
	}
	if c.Store.Driver != DriverMemory && c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for driver %s", c.Store.Driver)
	}
	switch c.Reports.RangeFilter {
	case RangeIndependent, RangeChronological:
	default:
		return fmt.Errorf("reports.rangeFilter %q must be independent or chronological", c.Reports.RangeFilter)
	}
	switch c.Reports.ChartNonNumeric {
	case ChartZero, ChartGap:
	default:
		return fmt.Errorf("reports.chartNonNumeric %q must be zero or gap", c.Reports.ChartNonNumeric)
	}
	if c.Components.Critical == "" {
		return errors.New("components.critical is required")
	}
	seen := make(map[string]struct{}, len(c.Components.Organizational))
	for _, name := range c.Components.Organizational {
		if name == "" {
			return errors.New("components.organizational contains an empty name")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("components.organizational lists %s twice", name)
		}
		seen[name] = struct{}{}
	}
	if c.Aggregation.RequiredShifts <= 0 {
		return errors.New("aggregation.requiredShifts must be positive")
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return errors.New("cache.addr is required when cache is enabled")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50051",
			HTTPAddress:     ":5000",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3039"},
		},
		Store:   StoreConfig{Driver: DriverSQLite, DSN: "file:shiftreport.db?_pragma=busy_timeout(5000)"},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			Enabled:       false,
			DialTimeout:   2 * time.Second,
			ReadTimeout:   500 * time.Millisecond,
			WriteTimeout:  500 * time.Millisecond,
			MaxRetries:    2,
			AggregatesTTL: 5 * time.Minute,
		},
		Components: ComponentsConfig{
			Organization:   "PTO",
			Organizational: []string{"blc-be", "blc-fe", "gco-be", "gco-fe", "sbp-be", "sbp-fe"},
			Critical:       "sbp-be",
		},
		Aggregation: AggregationConfig{RequiredShifts: 3},
		Reports: ReportsConfig{
			Title:           "AKS Daily Monitoring Report",
			ShiftDir:        "shift_output",
			DailyDir:        "daily_output",
			MonthlyDir:      "monthly_output",
			ChartsDir:       "charts",
			Extension:       "pdf",
			RangeFilter:     RangeIndependent,
			ChartNonNumeric: ChartZero,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SHIFTREPORT_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("SHIFTREPORT_HTTP_ADDRESS"); v != "" {
		cfg.Server.HTTPAddress = v
	}
	if v := os.Getenv("SHIFTREPORT_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("SHIFTREPORT_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("SHIFTREPORT_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("SHIFTREPORT_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("SHIFTREPORT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SHIFTREPORT_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("SHIFTREPORT_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("SHIFTREPORT_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("SHIFTREPORT_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("SHIFTREPORT_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("SHIFTREPORT_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("SHIFTREPORT_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("SHIFTREPORT_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.AggregatesTTL = d
		}
	}
	if v := os.Getenv("SHIFTREPORT_CRITICAL_COMPONENT"); v != "" {
		cfg.Components.Critical = v
	}
	if v := os.Getenv("SHIFTREPORT_ORGANIZATIONAL_COMPONENTS"); v != "" {
		cfg.Components.Organizational = splitList(v)
	}
	if v := os.Getenv("SHIFTREPORT_HEADER_IMAGE"); v != "" {
		cfg.Reports.HeaderImage = v
	}
	if v := os.Getenv("SHIFTREPORT_RANGE_FILTER"); v != "" {
		cfg.Reports.RangeFilter = strings.ToLower(v)
	}
	if v := os.Getenv("SHIFTREPORT_CHART_NON_NUMERIC"); v != "" {
		cfg.Reports.ChartNonNumeric = strings.ToLower(v)
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
