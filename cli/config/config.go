package config

import (
	"fmt"
	"time"
)

// Defaults applied when neither flags, environment nor the config file set a value.
const (
	DefaultAPIBase = "http://localhost:8000"
	DefaultTopK    = 5
)

// APIBaseEnv overrides the config file's api_base.
const APIBaseEnv = "DOCENT_API_BASE"

// Config represents a docent.yaml configuration file.
// All values are optional. CLI flags always override config values.
type Config struct {
	APIBase  string        `yaml:"api_base"`
	TopK     int           `yaml:"top_k"`
	LogLevel string        `yaml:"log_level"`
	Timeout  Duration      `yaml:"timeout"`
	S3       S3Config      `yaml:"s3"`
	Adapter  AdapterConfig `yaml:"adapter"`
}

// S3Config configures access to s3:// upload sources.
type S3Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// AdapterConfig configures the session completion notification.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
	Codec   string            `yaml:"codec,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML renders the duration in its string form.
func (d Duration) MarshalYAML() (any, error) {
	if d.Duration == 0 {
		return "", nil
	}
	return d.String(), nil
}

// ResolveAPIBase picks the backend base URL once at startup:
// flag, then $DOCENT_API_BASE, then the config file, then the local default.
func ResolveAPIBase(flag string, cfg *Config, getenv func(string) string) string {
	if flag != "" {
		return flag
	}
	if v := getenv(APIBaseEnv); v != "" {
		return v
	}
	if cfg != nil && cfg.APIBase != "" {
		return cfg.APIBase
	}
	return DefaultAPIBase
}

// ResolveTopK returns flag when set (positive), else the config value, else the default.
func ResolveTopK(flag int, cfg *Config) int {
	if flag > 0 {
		return flag
	}
	if cfg != nil && cfg.TopK > 0 {
		return cfg.TopK
	}
	return DefaultTopK
}

// Validate checks values that cannot be checked by YAML decoding alone.
func (c *Config) Validate() error {
	if c.TopK < 0 {
		return fmt.Errorf("top_k must be >= 0, got %d", c.TopK)
	}
	switch c.Adapter.Type {
	case "", "webhook", "redis":
	default:
		return fmt.Errorf("unknown adapter type %q (expected webhook or redis)", c.Adapter.Type)
	}
	if c.Adapter.Type != "" && c.Adapter.URL == "" {
		return fmt.Errorf("adapter %s requires a url", c.Adapter.Type)
	}
	if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
		return fmt.Errorf("adapter retries must be >= 0, got %d", *c.Adapter.Retries)
	}
	switch c.Adapter.Codec {
	case "", "json", "msgpack":
	default:
		return fmt.Errorf("unknown adapter codec %q (expected json or msgpack)", c.Adapter.Codec)
	}
	return nil
}
