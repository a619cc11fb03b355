// Package config defines process configuration and its loading.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers an optional YAML file and PLAYDASH_* env vars over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
)

// Source kinds.
const (
	SourceFile     = "file"
	SourceFirebase = "firebase"
)

// Sink kinds.
const (
	SinkFile     = "file"
	SinkS3       = "s3"
	SinkRedis    = "redis"
	SinkPostgres = "postgres"
)

const (
	minOperatingYear = 1000
	maxOperatingYear = 9999
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// OperatingYear is the only calendar year dated statistics accept.
	OperatingYear int `koanf:"operating_year"`

	// RecentPlaysLimit caps the recent plays list.
	RecentPlaysLimit int `koanf:"recent_plays_limit"`

	// CostumeTopN caps the costume distribution.
	CostumeTopN int `koanf:"costume_top_n"`

	// SourceKind selects where the user snapshot comes from: file or firebase.
	SourceKind string `koanf:"source_kind"`

	// RawDataPath is the snapshot file read by the file source.
	RawDataPath string `koanf:"raw_data_path"`

	// FirebaseURL is the Realtime Database root, e.g. https://example.firebaseio.com.
	FirebaseURL string `koanf:"firebase_url"`

	// FirebaseAuth is an optional database secret or ID token.
	FirebaseAuth string `koanf:"firebase_auth"`

	// FirebaseTimeoutMS bounds one snapshot fetch.
	FirebaseTimeoutMS int `koanf:"firebase_timeout_ms"`

	// AnalyticsPath is the optional analytics summary file. Empty disables it.
	AnalyticsPath string `koanf:"analytics_path"`

	// Sinks is a comma separated list of sink kinds: file, s3, redis, postgres.
	Sinks string `koanf:"sinks"`

	// OutputPath is the document file written by the file sink.
	OutputPath string `koanf:"output_path"`

	// S3 sink settings.
	S3Bucket          string `koanf:"s3_bucket"`
	S3Key             string `koanf:"s3_key"`
	S3Endpoint        string `koanf:"s3_endpoint"`
	S3Region          string `koanf:"s3_region"`
	S3AccessKeyID     string `koanf:"s3_access_key_id"`
	S3SecretAccessKey string `koanf:"s3_secret_access_key"`

	// Redis sink settings.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisKey      string `koanf:"redis_key"`

	// PostgresDSN is the connection string of the snapshot table's database.
	PostgresDSN string `koanf:"postgres_dsn"`

	// RunIntervalS schedules a run every N seconds. 0 runs once and exits.
	RunIntervalS int `koanf:"run_interval_s"`

	// Serve exposes the latest document over HTTP.
	Serve bool `koanf:"serve"`

	// Tracing settings.
	TracingEnabled      bool    `koanf:"tracing_enabled"`
	TracingEndpoint     string  `koanf:"tracing_endpoint"`
	TracingInsecure     bool    `koanf:"tracing_insecure"`
	TracingSamplingRate float64 `koanf:"tracing_sampling_rate"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		OperatingYear:       2025,
		RecentPlaysLimit:    500,
		CostumeTopN:         20,
		SourceKind:          SourceFile,
		RawDataPath:         "data/raw_data.json",
		FirebaseTimeoutMS:   30_000,
		AnalyticsPath:       "data/ga4_data.json",
		Sinks:               SinkFile,
		OutputPath:          "public/data/dashboard_data.json",
		S3Key:               "dashboard_data.json",
		S3Region:            "us-east-1",
		RedisAddr:           "localhost:6379",
		RedisKey:            "playdash:dashboard",
		TracingEndpoint:     "localhost:4318",
		TracingSamplingRate: 0.1,
	}
}

// SinkKinds returns the configured sink kinds, trimmed and lower-cased, with
// blanks and duplicates dropped.
func (c *Config) SinkKinds() []string {
	var kinds []string
	seen := make(map[string]struct{})
	for _, k := range strings.Split(c.Sinks, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		kinds = append(kinds, k)
	}
	return kinds
}

// Validate checks the values the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.OperatingYear < minOperatingYear || c.OperatingYear > maxOperatingYear {
		return fmt.Errorf("%w: operating_year %d out of range", ErrInvalidConfig, c.OperatingYear)
	}
	if c.RecentPlaysLimit <= 0 {
		return fmt.Errorf("%w: recent_plays_limit must be positive", ErrInvalidConfig)
	}
	if c.CostumeTopN <= 0 {
		return fmt.Errorf("%w: costume_top_n must be positive", ErrInvalidConfig)
	}
	if c.RunIntervalS < 0 {
		return fmt.Errorf("%w: run_interval_s must not be negative", ErrInvalidConfig)
	}
	if c.Serve && c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.SourceKind {
	case SourceFile:
		if c.RawDataPath == "" {
			return fmt.Errorf("%w: raw_data_path must not be empty", ErrInvalidConfig)
		}
	case SourceFirebase:
		if c.FirebaseURL == "" {
			return fmt.Errorf("%w: firebase_url must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source_kind %q", ErrInvalidConfig, c.SourceKind)
	}
	for _, kind := range c.SinkKinds() {
		switch kind {
		case SinkFile, SinkS3, SinkRedis, SinkPostgres:
		default:
			return fmt.Errorf("%w: unknown sink %q", ErrInvalidConfig, kind)
		}
	}
	return nil
}
