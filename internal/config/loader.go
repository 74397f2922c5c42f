// This file demonstrates layered configuration loading: defaults, a base
// config file, an environment-specific overlay, a local override (dev
// only), and finally environment variables, in ascending priority.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// CONFIGURATION LOADER
// ============================================================================

// Loader handles loading configuration from multiple sources, demonstrating
// the Strategy pattern for file formats and layered overlays for precedence.
type Loader struct {
	basePath    string
	environment Environment
	sources     []string
	fileLoaders map[string]FileLoader
}

// FileLoader loads a configuration file format into a target struct.
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extension() string
}

// NewLoader creates a configuration loader with sensible defaults.
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "config"
	}

	loader := &Loader{
		basePath:    basePath,
		environment: env,
		sources:     make([]string, 0),
		fileLoaders: make(map[string]FileLoader),
	}

	loader.RegisterLoader(&YAMLLoader{})
	loader.RegisterLoader(&JSONLoader{})

	return loader
}

// RegisterLoader registers a new file loader for a specific format.
func (l *Loader) RegisterLoader(loader FileLoader) {
	l.fileLoaders[loader.Extension()] = loader
}

// Load loads configuration using a hierarchy of sources (lowest to highest
// priority): defaults, base.yaml, {environment}.yaml, local.yaml (dev only),
// then environment variables.
func (l *Loader) Load() (*Config, error) {
	cfg := l.defaultConfig()
	l.sources = append(l.sources, "defaults")

	if err := l.loadFile("base", cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	if l.environment == Development {
		if err := l.loadFile("local", cfg); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load local config: %v\n", err)
		}
	}

	l.loadEnvironmentVariables(cfg)
	l.sources = append(l.sources, "environment")

	cfg.LoadedFrom = l.sources
	cfg.Version = "1.0.0"
	cfg.applyEnvironmentDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (l *Loader) loadFile(name string, cfg *Config) error {
	for ext, loader := range l.fileLoaders {
		filename := fmt.Sprintf("%s.%s", name, ext)
		path := filepath.Join(l.basePath, filename)

		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		defer file.Close()

		if err := loader.Load(file, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		l.sources = append(l.sources, path)
		return nil
	}

	return os.ErrNotExist
}

// loadEnvironmentVariables overlays environment variables, the highest
// priority configuration source.
func (l *Loader) loadEnvironmentVariables(cfg *Config) {
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if port := parseInt(val); port > 0 {
			cfg.Server.Port = port
		}
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("CACHE_MAX_PREFIX_LEN"); val != "" {
		cfg.Cache.MaxPrefixLen = parseInt(val)
	}
	if val := os.Getenv("CACHE_NUM_RESULTS"); val != "" {
		cfg.Cache.NumResults = parseInt(val)
	}
	if val := os.Getenv("PERSISTENCE_PROVIDER"); val != "" {
		cfg.Persistence.Provider = val
	}
	if val := os.Getenv("PERSISTENCE_SNAPSHOT_PATH"); val != "" {
		cfg.Persistence.SnapshotPath = val
	}
	if val := os.Getenv("AWS_REGION"); val != "" {
		cfg.Persistence.Region = val
		cfg.Events.Region = val
	}
	if val := os.Getenv("EVENT_BUS_NAME"); val != "" {
		cfg.Events.EventBusName = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("ENABLE_AUTH"); val != "" {
		cfg.Security.EnableAuth = parseBool(val)
	}
}

// defaultConfig returns a configuration with sensible defaults, ensuring the
// service can run even without configuration files.
func (l *Loader) defaultConfig() *Config {
	return &Config{
		Environment: l.environment,
		Server: Server{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxRequestSize:  1 * 1024 * 1024,
		},
		Cache: Cache{
			MaxPrefixLen: 2,
			NumResults:   20,
		},
		Persistence: Persistence{
			Provider:     "file",
			SnapshotPath: "autocompleted.snapshot.json",
		},
		Metrics: Metrics{
			Namespace: "autocompleted",
			Enabled:   true,
			Prometheus: PrometheusConfig{
				Port: 9090,
				Path: "/metrics",
			},
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: Security{
			APIKeyHeader: "X-API-Key",
			EnableAuth:   false,
		},
		CORS: CORS{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         300,
		},
		Events: Events{
			Provider:      "none",
			EventBusName:  "default",
			RetryAttempts: 3,
		},
		Concurrency: Concurrency{
			MaxWorkers: 8,
			QueueSize:  256,
		},
	}
}

// ============================================================================
// FILE LOADERS
// ============================================================================

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target interface{}) error {
	decoder := yaml.NewDecoder(reader)
	return decoder.Decode(target)
}

func (y *YAMLLoader) Extension() string { return "yaml" }

// JSONLoader loads configuration from JSON files.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target interface{}) error {
	decoder := json.NewDecoder(reader)
	return decoder.Decode(target)
}

func (j *JSONLoader) Extension() string { return "json" }

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

func parseInt(s string) int {
	val, _ := strconv.Atoi(s)
	return val
}

func parseBool(s string) bool {
	val, _ := strconv.ParseBool(s)
	return val
}

// Load loads configuration using the default "config" directory and the
// environment detected from ENVIRONMENT/ENV.
func Load() (*Config, error) {
	env := getEnvironment()
	loader := NewLoader("config", env)
	return loader.Load()
}

// MustLoad loads configuration and panics on error. Use only in main().
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
