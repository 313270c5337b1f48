package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5m"
// or "30s" (plain integers are taken as nanoseconds).
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// Config holds all surveydash configuration.
type Config struct {
	Listen  string        `yaml:"listen"`
	Backend BackendConfig `yaml:"backend"`
	Cache   CacheConfig   `yaml:"cache"`
	Fetch   FetchConfig   `yaml:"fetch"`
	History HistoryConfig `yaml:"history"`
	Sample  SampleConfig  `yaml:"sample"`
}

// BackendConfig identifies the upstream survey API.
type BackendConfig struct {
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key"`
	Timeout Duration `yaml:"timeout"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled bool     `yaml:"enabled"`
	TTL     Duration `yaml:"ttl"`
}

// FetchConfig controls pagination.
type FetchConfig struct {
	PageLimit int `yaml:"page_limit"`
	// MaxRecords is the accumulation ceiling: full-dataset fetches stop here
	// and the result is marked partial.
	MaxRecords int `yaml:"max_records"`
}

// HistoryConfig controls the fetch-history log.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// SampleConfig controls the bundled fallback dataset.
type SampleConfig struct {
	Records int `yaml:"records"`
}

// Default returns a Config with sensible defaults. Cache TTL and request
// timeout match the survey API's documented limits.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		Backend: BackendConfig{
			BaseURL: "https://ansebmrsurveysv1.oa.r.appspot.com",
			Timeout: Duration(30 * time.Second),
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     Duration(5 * time.Minute),
		},
		Fetch: FetchConfig{
			PageLimit:  1000,
			MaxRecords: 20000,
		},
		History: HistoryConfig{
			Enabled: true,
			DBPath:  "surveydash.db",
		},
		Sample: SampleConfig{
			Records: 1000,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}
