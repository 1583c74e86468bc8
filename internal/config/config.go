// Package config loads ls-natal settings from YAML, .env files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/litescript/ls-natal/internal/astro"
	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/ephem"
	"github.com/litescript/ls-natal/internal/logging"
	"github.com/litescript/ls-natal/internal/natal"
	"github.com/litescript/ls-natal/internal/state"
)

// DefaultPath is read when no config file is named and it exists.
const DefaultPath = "ls-natal.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LS_NATAL_"

type Config struct {
	Orbs      OrbsConfig      `yaml:"orbs"`
	Chart     ChartConfig     `yaml:"chart"`
	Observer  ObserverConfig  `yaml:"observer"`
	Ephemeris EphemerisConfig `yaml:"ephemeris"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type OrbsConfig struct {
	Wheel          float64 `yaml:"wheel"`
	Interpretation float64 `yaml:"interpretation"`
}

type ChartConfig struct {
	HouseSystem string `yaml:"house_system"`
	IncludeNode bool   `yaml:"include_node"`
}

// ObserverConfig is the birth place used when none is given on the command line.
type ObserverConfig struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

type EphemerisConfig struct {
	Mode         string        `yaml:"mode"`
	HorizonsURL  string        `yaml:"horizons_url"`
	Timeout      time.Duration `yaml:"timeout"`
	RateLimit    float64       `yaml:"rate_limit"`
	Burst        int           `yaml:"burst"`
	Concurrency  int           `yaml:"concurrency"`
	LongitudeTTL time.Duration `yaml:"longitude_ttl"`
}

type CacheConfig struct {
	MaxEntries int           `yaml:"max_entries"`
	TTL        time.Duration `yaml:"ttl"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the built-in configuration.
func Default() *Config {
	h := ephem.DefaultHorizonsOptions()
	sc := state.DefaultConfig()
	return &Config{
		Orbs: OrbsConfig{
			Wheel:          chart.WheelOrb,
			Interpretation: chart.InterpretationOrb,
		},
		Chart: ChartConfig{
			HouseSystem: chart.HouseEqual.String(),
			IncludeNode: true,
		},
		Observer: ObserverConfig{
			Name: "Greenwich",
			Lat:  51.4769,
			Lon:  -0.0005,
		},
		Ephemeris: EphemerisConfig{
			Mode:         ephem.ModeAuto.String(),
			HorizonsURL:  h.BaseURL,
			Timeout:      h.Timeout,
			RateLimit:    h.RatePerSecond,
			Burst:        h.Burst,
			Concurrency:  h.Concurrency,
			LongitudeTTL: h.CacheTTL,
		},
		Cache: CacheConfig{
			MaxEntries: sc.MaxEntries,
			TTL:        sc.TTL,
		},
		Server: ServerConfig{
			Addr:         ":8088",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path reads DefaultPath if present.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads .env files into the environment. Missing files are
// ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// applyEnvOverrides copies LS_NATAL_* variables over the file values.
func (c *Config) applyEnvOverrides() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *float64) {
		if v, ok := lookup(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	num("WHEEL_ORB", &c.Orbs.Wheel)
	num("INTERPRETATION_ORB", &c.Orbs.Interpretation)

	str("HOUSE_SYSTEM", &c.Chart.HouseSystem)
	boolean("INCLUDE_NODE", &c.Chart.IncludeNode)

	str("PLACE", &c.Observer.Name)
	num("LAT", &c.Observer.Lat)
	num("LON", &c.Observer.Lon)

	str("EPHEM", &c.Ephemeris.Mode)
	str("HORIZONS_URL", &c.Ephemeris.HorizonsURL)
	duration("HORIZONS_TIMEOUT", &c.Ephemeris.Timeout)
	num("HORIZONS_RATE", &c.Ephemeris.RateLimit)
	integer("HORIZONS_BURST", &c.Ephemeris.Burst)
	integer("HORIZONS_CONCURRENCY", &c.Ephemeris.Concurrency)

	integer("CACHE_MAX_ENTRIES", &c.Cache.MaxEntries)
	duration("CACHE_TTL", &c.Cache.TTL)

	str("SERVER_ADDR", &c.Server.Addr)

	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	str("LOG_FILE", &c.Logging.File)

	return errors.Join(errs...)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !validOrb(c.Orbs.Wheel) {
		return fmt.Errorf("orbs.wheel must be between 0 and 15, got %v", c.Orbs.Wheel)
	}
	if !validOrb(c.Orbs.Interpretation) {
		return fmt.Errorf("orbs.interpretation must be between 0 and 15, got %v", c.Orbs.Interpretation)
	}
	if _, ok := chart.ParseHouseSystem(c.Chart.HouseSystem); !ok {
		return fmt.Errorf("chart.house_system %q is not one of equal, whole, placidus, koch", c.Chart.HouseSystem)
	}
	if !c.Observer.observer().Valid() {
		return fmt.Errorf("observer %.4f,%.4f is off the globe", c.Observer.Lat, c.Observer.Lon)
	}
	if !ephem.ValidMode(c.Ephemeris.Mode) {
		return fmt.Errorf("ephemeris.mode %q is not one of horizons, almanac, auto", c.Ephemeris.Mode)
	}
	if c.Ephemeris.Timeout < 0 || c.Ephemeris.LongitudeTTL < 0 {
		return fmt.Errorf("ephemeris durations must not be negative")
	}
	if c.Ephemeris.RateLimit < 0 || c.Ephemeris.Burst < 0 || c.Ephemeris.Concurrency < 0 {
		return fmt.Errorf("ephemeris rate_limit, burst and concurrency must not be negative")
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be greater than 0")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not text or json", c.Logging.Format)
	}
	return nil
}

func validOrb(orb float64) bool {
	return !math.IsNaN(orb) && orb >= 0 && orb <= 15
}

func (o ObserverConfig) observer() astro.Observer {
	return astro.Observer{Name: o.Name, LatDeg: o.Lat, LonDeg: o.Lon}
}

// DefaultObserver returns the configured birth place.
func (c *Config) DefaultObserver() astro.Observer {
	return c.Observer.observer()
}

// HouseSystem returns the configured house system.
func (c *Config) HouseSystem() chart.HouseSystem {
	hs, _ := chart.ParseHouseSystem(c.Chart.HouseSystem)
	return hs
}

// EphemerisMode returns the configured ephemeris source.
func (c *Config) EphemerisMode() ephem.Mode {
	return ephem.ParseMode(c.Ephemeris.Mode)
}

// HorizonsOptions converts the ephemeris section for ephem.NewProvider.
func (c *Config) HorizonsOptions() ephem.HorizonsOptions {
	return ephem.HorizonsOptions{
		BaseURL:       c.Ephemeris.HorizonsURL,
		Timeout:       c.Ephemeris.Timeout,
		RatePerSecond: c.Ephemeris.RateLimit,
		Burst:         c.Ephemeris.Burst,
		Concurrency:   c.Ephemeris.Concurrency,
		CacheTTL:      c.Ephemeris.LongitudeTTL,
	}
}

// NatalOptions converts the orb and chart sections for natal.NewService.
func (c *Config) NatalOptions() natal.Options {
	opts := natal.DefaultOptions()
	opts.WheelOrb = c.Orbs.Wheel
	opts.InterpretationOrb = c.Orbs.Interpretation
	opts.IncludeNode = c.Chart.IncludeNode
	return opts
}

// StateConfig converts the cache section for state.NewManager.
func (c *Config) StateConfig() state.Config {
	sc := state.DefaultConfig()
	sc.MaxEntries = c.Cache.MaxEntries
	sc.TTL = c.Cache.TTL
	return sc
}

// LoggingOptions converts the logging section for logging.Configure.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		File:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
	}
}
