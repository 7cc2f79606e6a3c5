// Package config provides hierarchical configuration management.
// Priority: defaults < system < user < project < env < flags
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/logflow/alphaminer/pkg/errors"
	"github.com/logflow/alphaminer/pkg/eventlog"
)

// Config holds all alphaminer configuration.
type Config struct {
	Version int `yaml:"version"`

	Discovery DiscoveryConfig `yaml:"discovery"`
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Cache     CacheConfig     `yaml:"cache"`
	Storage   StorageConfig   `yaml:"storage"`
}

// DiscoveryConfig selects the mining algorithm.
type DiscoveryConfig struct {
	Algorithm     string `yaml:"algorithm"`       // alpha | alpha+ | alpha++ | alpha#
	AlphaPlusPlus bool   `yaml:"alpha_plus_plus"` // Alpha+ only: also loop over contained places
	Workers       int    `yaml:"workers"`         // batch parallelism, 0 = NumCPU
}

// InputConfig describes how event logs are read.
type InputConfig struct {
	CaseColumn      string `yaml:"case_column"`
	ActivityColumn  string `yaml:"activity_column"`
	TimestampColumn string `yaml:"timestamp_column"`
	TimestampLayout string `yaml:"timestamp_layout"`
	Delimiter       string `yaml:"delimiter"`
	Sheet           string `yaml:"sheet"`
	Engine          string `yaml:"engine"` // native | duckdb
}

// OutputConfig controls net export.
type OutputConfig struct {
	Format string `yaml:"format"` // json | yaml
	Dir    string `yaml:"dir"`
}

// LoggingConfig controls the logrus logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// TelemetryConfig for optional OTLP tracing.
type TelemetryConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Endpoint      string  `yaml:"endpoint"`
	ServiceName   string  `yaml:"service_name"`
	Insecure      bool    `yaml:"insecure"`
	SamplingRatio float64 `yaml:"sampling_ratio"`
}

// CacheConfig for the Redis net cache.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	Database int           `yaml:"database"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// StorageConfig for remote (s3://) event logs.
type StorageConfig struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	UsePathStyle    bool   `yaml:"use_path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Discovery: DiscoveryConfig{
			Algorithm: AlgorithmAlpha.String(),
		},
		Input: InputConfig{
			CaseColumn:      "case:concept:name",
			ActivityColumn:  "concept:name",
			TimestampColumn: "time:timestamp",
			Delimiter:       ",",
			Engine:          eventlog.EngineNative.String(),
		},
		Output: OutputConfig{
			Format: "json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Endpoint:      "localhost:4317",
			ServiceName:   "alphaminer",
			Insecure:      true,
			SamplingRatio: 1.0,
		},
		Cache: CacheConfig{
			Address: "localhost:6379",
			Prefix:  "alphaminer:nets:",
			TTL:     24 * time.Hour,
		},
		Storage: StorageConfig{
			Region: "us-east-1",
		},
	}
}

// Options converts the input section into reader options.
func (c InputConfig) Options() eventlog.Options {
	opts := eventlog.DefaultOptions()
	if c.CaseColumn != "" {
		opts.CaseColumn = c.CaseColumn
	}
	if c.ActivityColumn != "" {
		opts.ActivityColumn = c.ActivityColumn
	}
	if c.TimestampColumn != "" {
		opts.TimestampColumn = c.TimestampColumn
	}
	if c.Delimiter != "" {
		opts.Delimiter = []rune(c.Delimiter)[0]
	}
	opts.TimestampLayout = c.TimestampLayout
	opts.Sheet = c.Sheet
	opts.Engine = eventlog.ParseEngine(c.Engine)
	return opts
}

// Validate checks the fields that have a closed set of values.
func (c *Config) Validate() error {
	if _, err := ParseAlgorithm(c.Discovery.Algorithm); err != nil {
		return err
	}
	switch c.Output.Format {
	case "json", "yaml":
	default:
		return errors.New(errors.CodeConfigInvalid, "unknown output format").
			WithContext("format", c.Output.Format)
	}
	if len([]rune(c.Input.Delimiter)) > 1 {
		return errors.New(errors.CodeConfigInvalid, "delimiter must be a single character").
			WithContext("delimiter", c.Input.Delimiter)
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return errors.New(errors.CodeConfigInvalid, "sampling ratio must be within [0, 1]").
			WithContext("sampling_ratio", c.Telemetry.SamplingRatio)
	}
	return nil
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	search []string // candidate files, lowest priority first
	paths  []string // files that were loaded
}

// NewManager creates a manager that searches the standard locations.
func NewManager() *Manager {
	return &Manager{
		config: Default(),
		search: defaultPaths(),
	}
}

// NewManagerWithPaths creates a manager that only searches paths.
func NewManagerWithPaths(paths ...string) *Manager {
	return &Manager{
		config: Default(),
		search: paths,
	}
}

// Load loads configuration from all sources in priority order.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = Default()
	m.paths = nil

	for _, path := range m.search {
		if err := m.loadFile(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrap(err, errors.CodeConfigInvalid, "cannot load config file").
				WithContext("path", path)
		}
		m.paths = append(m.paths, path)
	}

	m.loadEnv()
	return m.config.Validate()
}

// LoadFile merges an explicit file on top of the current configuration.
func (m *Manager) LoadFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadFile(path); err != nil {
		if os.IsNotExist(err) {
			return errors.FileNotFound(path)
		}
		return errors.Wrap(err, errors.CodeConfigInvalid, "cannot load config file").
			WithContext("path", path)
	}
	m.paths = append(m.paths, path)
	m.loadEnv()
	return m.config.Validate()
}

func defaultPaths() []string {
	var paths []string

	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/alphaminer/config.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".alphaminer", "config.yaml"))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".alphaminer.yaml"))
	}
	return paths
}

func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return err
	}

	m.merge(&partial)
	return nil
}

// merge merges non-zero values from src into config.
func (m *Manager) merge(src *Config) {
	dst := m.config

	// Discovery
	setString(&dst.Discovery.Algorithm, src.Discovery.Algorithm)
	if src.Discovery.AlphaPlusPlus {
		dst.Discovery.AlphaPlusPlus = true
	}
	if src.Discovery.Workers != 0 {
		dst.Discovery.Workers = src.Discovery.Workers
	}

	// Input
	setString(&dst.Input.CaseColumn, src.Input.CaseColumn)
	setString(&dst.Input.ActivityColumn, src.Input.ActivityColumn)
	setString(&dst.Input.TimestampColumn, src.Input.TimestampColumn)
	setString(&dst.Input.TimestampLayout, src.Input.TimestampLayout)
	setString(&dst.Input.Delimiter, src.Input.Delimiter)
	setString(&dst.Input.Sheet, src.Input.Sheet)
	setString(&dst.Input.Engine, src.Input.Engine)

	// Output
	setString(&dst.Output.Format, src.Output.Format)
	setString(&dst.Output.Dir, src.Output.Dir)

	// Logging
	setString(&dst.Logging.Level, src.Logging.Level)
	setString(&dst.Logging.Format, src.Logging.Format)

	// Telemetry
	if src.Telemetry.Enabled {
		dst.Telemetry.Enabled = true
	}
	setString(&dst.Telemetry.Endpoint, src.Telemetry.Endpoint)
	setString(&dst.Telemetry.ServiceName, src.Telemetry.ServiceName)
	if src.Telemetry.SamplingRatio != 0 {
		dst.Telemetry.SamplingRatio = src.Telemetry.SamplingRatio
	}

	// Cache
	if src.Cache.Enabled {
		dst.Cache.Enabled = true
	}
	setString(&dst.Cache.Address, src.Cache.Address)
	setString(&dst.Cache.Password, src.Cache.Password)
	setString(&dst.Cache.Prefix, src.Cache.Prefix)
	if src.Cache.Database != 0 {
		dst.Cache.Database = src.Cache.Database
	}
	if src.Cache.TTL != 0 {
		dst.Cache.TTL = src.Cache.TTL
	}

	// Storage
	setString(&dst.Storage.Region, src.Storage.Region)
	setString(&dst.Storage.Endpoint, src.Storage.Endpoint)
	setString(&dst.Storage.AccessKeyID, src.Storage.AccessKeyID)
	setString(&dst.Storage.SecretAccessKey, src.Storage.SecretAccessKey)
	if src.Storage.UsePathStyle {
		dst.Storage.UsePathStyle = true
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// loadEnv loads configuration from environment variables.
func (m *Manager) loadEnv() {
	// ALPHAMINER_ALGORITHM
	if v := os.Getenv("ALPHAMINER_ALGORITHM"); v != "" {
		m.config.Discovery.Algorithm = v
	}

	// ALPHAMINER_LOG_LEVEL
	if v := os.Getenv("ALPHAMINER_LOG_LEVEL"); v != "" {
		m.config.Logging.Level = v
	}

	// ALPHAMINER_REDIS_ADDR enables the cache
	if v := os.Getenv("ALPHAMINER_REDIS_ADDR"); v != "" {
		m.config.Cache.Address = v
		m.config.Cache.Enabled = true
	}

	// ALPHAMINER_OTLP_ENDPOINT enables tracing
	if v := os.Getenv("ALPHAMINER_OTLP_ENDPOINT"); v != "" {
		m.config.Telemetry.Endpoint = v
		m.config.Telemetry.Enabled = true
	}

	// ALPHAMINER_WORKERS
	if v := os.Getenv("ALPHAMINER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			m.config.Discovery.Workers = n
		}
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetPaths returns the paths that were loaded.
func (m *Manager) GetPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths
}

// Save writes the current config to path.
func (m *Manager) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "cannot create config directory")
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return errors.Wrap(err, errors.CodeEncodeFailed, "cannot encode config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "cannot write config").WithContext("path", path)
	}
	return nil
}
