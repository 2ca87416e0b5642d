package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Driver names accepted for db.driver
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config aggregates runtime configuration. Values come from an optional
// TOML file, with environment variables taking precedence for the
// settings that differ per deployment.
type Config struct {
	HTTP  HTTPConfig  `toml:"http"`
	DB    DBConfig    `toml:"db"`
	Sweep SweepConfig `toml:"sweep"`
}

type HTTPConfig struct {
	Addr string `toml:"addr"`
}

type DBConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type SweepConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
	LockTimeoutMS   int `toml:"lock_timeout_ms"`
}

// Interval returns the sweep tick interval
func (s SweepConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// LockTimeout returns how long a request waits for an auction's lock
func (s SweepConfig) LockTimeout() time.Duration {
	return time.Duration(s.LockTimeoutMS) * time.Millisecond
}

// Load reads configuration from path (skipped when empty or missing),
// then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{
		HTTP:  HTTPConfig{Addr: ":8080"},
		DB:    DBConfig{Driver: DriverMemory},
		Sweep: SweepConfig{IntervalSeconds: 60, LockTimeoutMS: 3000},
	}

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to open config: %w", err)
			}
		} else {
			defer file.Close()
			if err := toml.NewDecoder(file).Decode(cfg); err != nil {
				return nil, fmt.Errorf("failed to decode config: %w", err)
			}
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.HTTP.Addr = ":" + port
	}
	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTP.Addr = addr
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.DB.Driver = DriverPostgres
		cfg.DB.DSN = dsn
	}
	if raw := os.Getenv("SWEEP_INTERVAL_SECONDS"); raw != "" {
		interval, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SWEEP_INTERVAL_SECONDS: %w", err)
		}
		cfg.Sweep.IntervalSeconds = interval
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown db.driver %q", c.DB.Driver)
	}
	if c.Sweep.IntervalSeconds <= 0 {
		return fmt.Errorf("sweep.interval_seconds must be positive")
	}
	if c.Sweep.LockTimeoutMS <= 0 {
		return fmt.Errorf("sweep.lock_timeout_ms must be positive")
	}
	return nil
}
