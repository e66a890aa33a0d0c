// Package config loads the loader configuration. Precedence, lowest to
// highest: built-in defaults, an optional YAML file, environment variable
// overrides. Command-line flags sit on top of all three and are applied by
// the command itself.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/animals-etl-client/pkg/catalog"
)

const (
	configPathEnv  = "ANIMALS_LOADER_CONFIG"
	baseURLEnv     = "ANIMALS_BASE_URL"
	concurrencyEnv = "ANIMALS_CONCURRENCY"
	groupSizeEnv   = "ANIMALS_GROUP_SIZE"
	batchSizeEnv   = "ANIMALS_BATCH_SIZE"
	maxAttemptsEnv = "ANIMALS_MAX_ATTEMPTS"
	logLevelEnv    = "ANIMALS_LOG_LEVEL"
	logPrettyEnv   = "ANIMALS_LOG_PRETTY"
	metricsAddrEnv = "ANIMALS_METRICS_ADDR"
)

// Config holds every setting the loader command needs.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServiceConfig describes the catalog service and the executor limits.
type ServiceConfig struct {
	BaseURL               string            `yaml:"baseUrl"`
	MaxAttempts           int               `yaml:"maxAttempts"`
	ConnectTimeoutSeconds int               `yaml:"connectTimeoutSeconds"`
	RequestTimeoutSeconds int               `yaml:"requestTimeoutSeconds"`
	Endpoints             catalog.Endpoints `yaml:"endpoints"`
}

// ConnectTimeout resolves the connect timeout to a duration.
func (s ServiceConfig) ConnectTimeout() time.Duration {
	return time.Duration(s.ConnectTimeoutSeconds) * time.Second
}

// RequestTimeout resolves the per-request timeout to a duration.
func (s ServiceConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// PipelineConfig tunes the pipeline stages.
type PipelineConfig struct {
	Concurrency int `yaml:"concurrency"`
	GroupSize   int `yaml:"groupSize"`
	BatchSize   int `yaml:"batchSize"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// MetricsConfig controls the optional Prometheus endpoint. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load builds the effective configuration. The YAML file is taken from the
// path argument, or from ANIMALS_LOADER_CONFIG when the argument is empty;
// a missing or broken file falls back to defaults rather than failing.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(baseURLEnv); v != "" {
		c.Service.BaseURL = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(logPrettyEnv); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("config: invalid %s value %q: %v", logPrettyEnv, v, err)
		} else {
			c.Logging.Pretty = pretty
		}
	}
	if v := os.Getenv(metricsAddrEnv); v != "" {
		c.Metrics.Addr = v
	}

	c.Service.MaxAttempts = envInt(maxAttemptsEnv, c.Service.MaxAttempts)
	c.Pipeline.Concurrency = envInt(concurrencyEnv, c.Pipeline.Concurrency)
	c.Pipeline.GroupSize = envInt(groupSizeEnv, c.Pipeline.GroupSize)
	c.Pipeline.BatchSize = envInt(batchSizeEnv, c.Pipeline.BatchSize)
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid %s value %q: %v", key, v, err)
		return fallback
	}
	return n
}

func mergeConfig(base, override Config) Config {
	if override.Service.BaseURL != "" {
		base.Service.BaseURL = override.Service.BaseURL
	}
	if override.Service.MaxAttempts > 0 {
		base.Service.MaxAttempts = override.Service.MaxAttempts
	}
	if override.Service.ConnectTimeoutSeconds > 0 {
		base.Service.ConnectTimeoutSeconds = override.Service.ConnectTimeoutSeconds
	}
	if override.Service.RequestTimeoutSeconds > 0 {
		base.Service.RequestTimeoutSeconds = override.Service.RequestTimeoutSeconds
	}
	if override.Service.Endpoints.List != "" {
		base.Service.Endpoints.List = override.Service.Endpoints.List
	}
	if override.Service.Endpoints.Detail != "" {
		base.Service.Endpoints.Detail = override.Service.Endpoints.Detail
	}
	if override.Service.Endpoints.Home != "" {
		base.Service.Endpoints.Home = override.Service.Endpoints.Home
	}

	if override.Pipeline.Concurrency > 0 {
		base.Pipeline.Concurrency = override.Pipeline.Concurrency
	}
	if override.Pipeline.GroupSize > 0 {
		base.Pipeline.GroupSize = override.Pipeline.GroupSize
	}
	if override.Pipeline.BatchSize > 0 {
		base.Pipeline.BatchSize = override.Pipeline.BatchSize
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Pretty {
		base.Logging.Pretty = true
	}
	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Service: ServiceConfig{
			BaseURL:               "http://localhost:3123",
			MaxAttempts:           6,
			ConnectTimeoutSeconds: 5,
			RequestTimeoutSeconds: 45,
			Endpoints:             catalog.DefaultEndpoints(),
		},
		Pipeline: PipelineConfig{
			Concurrency: 32,
			GroupSize:   5000,
			BatchSize:   100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
		Metrics: MetricsConfig{
			Addr: "",
		},
	}
}
