package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for the snbfetch CLI.
type Config struct {
	BaseURL           string        `yaml:"base_url"`
	UserAgent         string        `yaml:"user_agent"`
	OutputDir         string        `yaml:"output_dir"`
	Selection         string        `yaml:"selection"`
	Timeout           time.Duration `yaml:"timeout"`
	ChunkSize         int           `yaml:"chunk_size"`
	PauseSpread       time.Duration `yaml:"pause_spread"`
	PauseCeiling      time.Duration `yaml:"pause_ceiling"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	ArchiveBucket     string        `yaml:"archive_bucket"`
}

// Default returns a Config with sensible defaults. A zero timeout means
// requests wait indefinitely; a zero rate means no limiter.
func Default() Config {
	return Config{
		BaseURL:      "https://data.snb.ch/api/cube",
		OutputDir:    "data/raw",
		ChunkSize:    8192,
		PauseSpread:  5 * time.Second,
		PauseCeiling: 2 * time.Second,
	}
}

// yamlConfig is used for YAML unmarshaling with string duration fields.
type yamlConfig struct {
	BaseURL           string  `yaml:"base_url"`
	UserAgent         string  `yaml:"user_agent"`
	OutputDir         string  `yaml:"output_dir"`
	Selection         string  `yaml:"selection"`
	Timeout           string  `yaml:"timeout"`
	ChunkSize         int     `yaml:"chunk_size"`
	PauseSpread       string  `yaml:"pause_spread"`
	PauseCeiling      string  `yaml:"pause_ceiling"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	ArchiveBucket     string  `yaml:"archive_bucket"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if yc.UserAgent != "" {
		cfg.UserAgent = yc.UserAgent
	}
	if yc.OutputDir != "" {
		cfg.OutputDir = yc.OutputDir
	}
	if yc.Selection != "" {
		cfg.Selection = yc.Selection
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if yc.ChunkSize != 0 {
		cfg.ChunkSize = yc.ChunkSize
	}
	if yc.PauseSpread != "" {
		d, err := time.ParseDuration(yc.PauseSpread)
		if err != nil {
			return Config{}, fmt.Errorf("parse pause_spread: %w", err)
		}
		cfg.PauseSpread = d
	}
	if yc.PauseCeiling != "" {
		d, err := time.ParseDuration(yc.PauseCeiling)
		if err != nil {
			return Config{}, fmt.Errorf("parse pause_ceiling: %w", err)
		}
		cfg.PauseCeiling = d
	}
	if yc.RequestsPerSecond != 0 {
		cfg.RequestsPerSecond = yc.RequestsPerSecond
	}
	if yc.ArchiveBucket != "" {
		cfg.ArchiveBucket = yc.ArchiveBucket
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the SNBFETCH_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("SNBFETCH_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("SNBFETCH_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("SNBFETCH_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("SNBFETCH_SELECTION"); v != "" {
		c.Selection = v
	}
	if v := os.Getenv("SNBFETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SNBFETCH_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("SNBFETCH_CHUNK_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse SNBFETCH_CHUNK_SIZE: %w", err)
		}
		c.ChunkSize = n
	}
	if v := os.Getenv("SNBFETCH_PAUSE_SPREAD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SNBFETCH_PAUSE_SPREAD: %w", err)
		}
		c.PauseSpread = d
	}
	if v := os.Getenv("SNBFETCH_PAUSE_CEILING"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SNBFETCH_PAUSE_CEILING: %w", err)
		}
		c.PauseCeiling = d
	}
	if v := os.Getenv("SNBFETCH_REQUESTS_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse SNBFETCH_REQUESTS_PER_SECOND: %w", err)
		}
		c.RequestsPerSecond = f
	}
	if v := os.Getenv("SNBFETCH_ARCHIVE_BUCKET"); v != "" {
		c.ArchiveBucket = v
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("config: base_url is required")
	}
	if c.OutputDir == "" {
		return errors.New("config: output_dir is required")
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: chunk_size must be positive")
	}
	if c.PauseSpread < 0 || c.PauseCeiling < 0 {
		return errors.New("config: pause durations must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("config: requests_per_second must not be negative")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.BaseURL != "" {
		c.BaseURL = override.BaseURL
	}
	if override.UserAgent != "" {
		c.UserAgent = override.UserAgent
	}
	if override.OutputDir != "" {
		c.OutputDir = override.OutputDir
	}
	if override.Selection != "" {
		c.Selection = override.Selection
	}
	if override.Timeout != 0 {
		c.Timeout = override.Timeout
	}
	if override.ChunkSize != 0 {
		c.ChunkSize = override.ChunkSize
	}
	if override.PauseSpread != 0 {
		c.PauseSpread = override.PauseSpread
	}
	if override.PauseCeiling != 0 {
		c.PauseCeiling = override.PauseCeiling
	}
	if override.RequestsPerSecond != 0 {
		c.RequestsPerSecond = override.RequestsPerSecond
	}
	if override.ArchiveBucket != "" {
		c.ArchiveBucket = override.ArchiveBucket
	}
	return c
}
