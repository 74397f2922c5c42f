// Package config provides configuration management for the autocompleted
// service: environment-specific settings, struct-tag validation, and
// sensible defaults with file/environment overlays (see loader.go).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"autocompleted/internal/index/indexerrors"
)

// ============================================================================
// MAIN CONFIGURATION STRUCTURE
// ============================================================================

// Config represents the complete service configuration.
type Config struct {
	Environment Environment `yaml:"environment" json:"environment" validate:"required,oneof=development staging production"`
	Server      Server      `yaml:"server" json:"server" validate:"required,dive"`
	Cache       Cache       `yaml:"cache" json:"cache" validate:"dive"`
	Persistence Persistence `yaml:"persistence" json:"persistence" validate:"dive"`
	Metrics     Metrics     `yaml:"metrics" json:"metrics" validate:"dive"`
	Logging     Logging     `yaml:"logging" json:"logging" validate:"dive"`
	Security    Security    `yaml:"security" json:"security" validate:"dive"`
	CORS        CORS        `yaml:"cors" json:"cors" validate:"dive"`
	Events      Events      `yaml:"events" json:"events" validate:"dive"`
	Concurrency Concurrency `yaml:"concurrency" json:"concurrency" validate:"dive"`

	// Metadata fields
	Version    string   `yaml:"version" json:"version"`
	LoadedFrom []string `yaml:"-" json:"-"`
}

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// ============================================================================
// SERVER CONFIGURATION
// ============================================================================

// Server contains HTTP server configuration (internal/httpapi).
type Server struct {
	Port            int           `yaml:"port" json:"port" validate:"required,min=1,max=65535"`
	Host            string        `yaml:"host" json:"host" validate:"required,hostname|ip"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout" validate:"required,min=1s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout" validate:"required,min=1s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout" validate:"required,min=1s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" validate:"required,min=1s"`
	MaxRequestSize  int64         `yaml:"max_request_size" json:"max_request_size" validate:"required,min=1024"`
}

// ============================================================================
// CACHE CONFIGURATION
// ============================================================================

// Cache mirrors the index's own tunables (spec §4.D) so they can be set from
// config/environment instead of only via Index.SetMaxCachePrefixLen /
// Index.SetNumCacheResults.
type Cache struct {
	MaxPrefixLen int `yaml:"max_prefix_len" json:"max_prefix_len" validate:"min=0,max=32"`
	NumResults   int `yaml:"num_results" json:"num_results" validate:"min=1,max=10000"`
}

// ============================================================================
// PERSISTENCE CONFIGURATION
// ============================================================================

// Persistence selects and configures the snapshot backend (internal/persistence).
type Persistence struct {
	Provider      string `yaml:"provider" json:"provider" validate:"omitempty,oneof=file dynamodb none"`
	SnapshotPath  string `yaml:"snapshot_path" json:"snapshot_path" validate:"required_if=Provider file"`
	DynamoDBTable string `yaml:"dynamodb_table" json:"dynamodb_table" validate:"required_if=Provider dynamodb"`
	Region        string `yaml:"region" json:"region" validate:"required_if=Provider dynamodb"`
}

// ============================================================================
// METRICS CONFIGURATION
// ============================================================================

// Metrics contains Prometheus recorder configuration (internal/metrics).
type Metrics struct {
	Namespace string           `yaml:"namespace" json:"namespace" validate:"omitempty,min=1,max=255"`
	Enabled   bool             `yaml:"enabled" json:"enabled"`
	Prometheus PrometheusConfig `yaml:"prometheus" json:"prometheus" validate:"dive"`
}

// PrometheusConfig contains Prometheus-specific settings.
type PrometheusConfig struct {
	Port int    `yaml:"port" json:"port" validate:"omitempty,min=1,max=65535"`
	Path string `yaml:"path" json:"path" validate:"omitempty,startswith=/"`
}

// ============================================================================
// LOGGING CONFIGURATION
// ============================================================================

// Logging controls the zap logger built by internal/logging.
type Logging struct {
	Level  string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"oneof=json console"`
	Output string `yaml:"output" json:"output" validate:"oneof=stdout stderr"`
}

// ============================================================================
// SECURITY CONFIGURATION
// ============================================================================

// Security contains the HTTP API's authentication/authorization settings.
type Security struct {
	APIKeyHeader  string `yaml:"api_key_header" json:"api_key_header"`
	EnableAuth    bool   `yaml:"enable_auth" json:"enable_auth"`
	SecureHeaders bool   `yaml:"secure_headers" json:"secure_headers"`
}

// ============================================================================
// CORS CONFIGURATION
// ============================================================================

// CORS contains CORS configuration (internal/httpapi, go-chi/cors).
type CORS struct {
	Enabled          bool     `yaml:"enabled" json:"enabled"`
	AllowedOrigins   []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers" json:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials" json:"allow_credentials"`
	MaxAge           int      `yaml:"max_age" json:"max_age"`
}

// ============================================================================
// EVENTS CONFIGURATION
// ============================================================================

// Events configures change-event publishing (internal/events).
type Events struct {
	Provider      string `yaml:"provider" json:"provider" validate:"omitempty,oneof=eventbridge none"`
	EventBusName  string `yaml:"event_bus_name" json:"event_bus_name" validate:"omitempty,min=1,max=255"`
	Region        string `yaml:"region" json:"region"`
	RetryAttempts int    `yaml:"retry_attempts" json:"retry_attempts" validate:"min=0,max=10"`
}

// ============================================================================
// CONCURRENCY CONFIGURATION
// ============================================================================

// Concurrency tunes the snapshot/warm-up worker pool (internal/concurrency).
type Concurrency struct {
	MaxWorkers int `yaml:"max_workers" json:"max_workers" validate:"min=1,max=256"`
	QueueSize  int `yaml:"queue_size" json:"queue_size" validate:"min=1,max=100000"`
}

// ============================================================================
// VALIDATION
// ============================================================================

// Validate validates the configuration using struct tags and custom rules.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errs []string
			for _, e := range validationErrors {
				errs = append(errs, formatValidationError(e))
			}
			return indexerrors.InvalidConfig(fmt.Sprintf("validation failed:\n  - %s", strings.Join(errs, "\n  - ")))
		}
		return indexerrors.InvalidConfig(fmt.Sprintf("validation failed: %v", err))
	}

	return c.validateEnvironmentRules()
}

// validateEnvironmentRules enforces environment-specific constraints.
func (c *Config) validateEnvironmentRules() error {
	switch c.Environment {
	case Production:
		if c.Logging.Level == "debug" {
			return indexerrors.InvalidConfig("debug logging should not be used in production")
		}
		if !c.Security.SecureHeaders {
			return indexerrors.InvalidConfig("secure headers must be enabled in production")
		}
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()
	param := e.Param()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}

// applyEnvironmentDefaults applies environment-specific defaults.
func (c *Config) applyEnvironmentDefaults() {
	switch c.Environment {
	case Production:
		if c.Logging.Level == "" {
			c.Logging.Level = "info"
		}
		c.Security.SecureHeaders = true
	case Development:
		if c.Logging.Level == "" {
			c.Logging.Level = "debug"
		}
	}
}

func getEnvironment() Environment {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = os.Getenv("ENV")
	}
	switch strings.ToLower(env) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	default:
		return Development
	}
}
