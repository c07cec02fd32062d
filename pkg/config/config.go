// Package config loads medgraph settings from a YAML file, the environment
// and an optional .env file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/medgraph/pkg/validation"
)

// Store drivers
const (
	DriverEmbedded = "embedded"
	DriverNeo4j    = "neo4j"
	DriverPostgres = "postgres"
)

// Config is the full medgraph configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Source  SourceConfig  `yaml:"source"`
	Load    LoadConfig    `yaml:"load"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	// DataDir holds the embedded snapshot.
	DataDir     string `yaml:"data_dir"`
	Compress    bool   `yaml:"compress"`
	URI         string `yaml:"uri"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	Database    string `yaml:"database"`
	PostgresURL string `yaml:"postgres_url"`
}

type SourceConfig struct {
	// URI is a local directory or s3://bucket/prefix.
	URI string   `yaml:"uri"`
	S3  S3Config `yaml:"s3"`
}

type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LoadConfig struct {
	BatchSize       int    `yaml:"batch_size"`
	Parallelism     int    `yaml:"parallelism"`
	StrictEndpoints bool   `yaml:"strict_endpoints"`
	Manifest        string `yaml:"manifest"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	// Listen is the address serving /metrics; empty disables it.
	Listen string `yaml:"listen"`
}

// DefaultDataDir is where the embedded store keeps its snapshot unless
// configured otherwise, so that load, verify and query share one graph.
const DefaultDataDir = "medgraph-data"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store:  StoreConfig{Driver: DriverEmbedded, DataDir: DefaultDataDir, Compress: true},
		Source: SourceConfig{URI: "."},
		Load:   LoadConfig{BatchSize: 1000, Parallelism: 1},
		Log:    LogConfig{Level: "info"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is not empty), then environment variables. A .env file in the working
// directory is read first; it never overrides variables already set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Store.Driver, "MEDGRAPH_STORE_DRIVER")
	setString(&c.Store.DataDir, "MEDGRAPH_DATA_DIR")
	setString(&c.Store.URI, "NEO4J_URI")
	setString(&c.Store.Username, "NEO4J_USERNAME")
	setString(&c.Store.Password, "NEO4J_PASSWORD")
	setString(&c.Store.Database, "NEO4J_DATABASE")
	setString(&c.Store.PostgresURL, "DATABASE_URL")
	setString(&c.Source.URI, "MEDGRAPH_SOURCE")
	setString(&c.Source.S3.Region, "MEDGRAPH_S3_REGION")
	setString(&c.Source.S3.Endpoint, "MEDGRAPH_S3_ENDPOINT")
	setString(&c.Load.Manifest, "MEDGRAPH_MANIFEST")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Metrics.Listen, "MEDGRAPH_METRICS_LISTEN")

	if err := setInt(&c.Load.BatchSize, "MEDGRAPH_BATCH_SIZE"); err != nil {
		return err
	}
	if err := setInt(&c.Load.Parallelism, "MEDGRAPH_PARALLELISM"); err != nil {
		return err
	}
	return setBool(&c.Load.StrictEndpoints, "MEDGRAPH_STRICT_ENDPOINTS")
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	cv := validation.NewConfigValidator("config")
	cv.OneOf("store.driver", c.Store.Driver, []string{DriverEmbedded, DriverNeo4j, DriverPostgres}).
		When(c.Store.Driver == DriverNeo4j, func(cv *validation.ConfigValidator) {
			cv.Required("store.uri", c.Store.URI)
		}).
		When(c.Store.Driver == DriverPostgres, func(cv *validation.ConfigValidator) {
			cv.Required("store.postgres_url", c.Store.PostgresURL)
		}).
		Required("source.uri", c.Source.URI).
		When(c.Source.S3.AccessKeyID != "", func(cv *validation.ConfigValidator) {
			cv.Required("source.s3.secret_access_key", c.Source.S3.SecretAccessKey)
		}).
		Positive("load.batch_size", c.Load.BatchSize).
		RangeInt("load.parallelism", c.Load.Parallelism, 1, 64).
		OneOf("log.level", strings.ToLower(c.Log.Level), []string{"debug", "info", "warn", "warning", "error"})
	return cv.Validate()
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not an integer", key, v)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not a boolean", key, v)
	}
	*dst = b
	return nil
}
