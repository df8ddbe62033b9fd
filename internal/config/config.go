package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/docscan/docscan/internal/storage/s3"
	"github.com/docscan/docscan/pkg/errors"
	"github.com/docscan/docscan/pkg/utils"
)

// Environments accepted for Configuration.Environment
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvUAT         = "uat"
	EnvProduction  = "production"
	EnvTest        = "test"
)

const component = "config"

var validEnvironments = []string{EnvDevelopment, EnvStaging, EnvUAT, EnvProduction, EnvTest}

var validLogLevels = []string{"DEBUG", "INFO", "WARN", "WARNING", "ERROR"}

// Configuration represents the complete application configuration
type Configuration struct {
	Environment string        `yaml:"environment"`
	Storage     StorageConfig `yaml:"storage"`
	Buckets     BucketConfig  `yaml:"buckets"`
	Logging     LoggingConfig `yaml:"logging"`
	Metrics     MetricsConfig `yaml:"metrics"`
}

// StorageConfig represents object storage settings
type StorageConfig struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	MaxRetries      int    `yaml:"max_retries"`
}

// BucketConfig names the buckets of the scanning pipeline
type BucketConfig struct {
	Quarantine string `yaml:"quarantine"`
	Clean      string `yaml:"clean"`
}

// LoggingConfig represents logging settings
type LoggingConfig struct {
	Service string `yaml:"service"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	File    string `yaml:"file"`
}

// MetricsConfig represents metrics settings
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// NewDefault returns a configuration with sensible defaults
func NewDefault() *Configuration {
	return &Configuration{
		Environment: EnvDevelopment,
		Storage: StorageConfig{
			Region:     "ap-southeast-1",
			MaxRetries: 3,
		},
		Logging: LoggingConfig{
			Service: "virus-scanner",
			Level:   "INFO",
			Format:  "json",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Port:      9090,
			Path:      "/metrics",
			Namespace: "docscan",
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return loadError("failed to read config file", filename, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return loadError("failed to parse config file", filename, err)
	}

	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv("NODE_ENV"); val != "" {
		c.Environment = val
	}
	if val := os.Getenv("DOCSCAN_ENV"); val != "" {
		c.Environment = val
	}

	// Storage settings
	if val := os.Getenv("AWS_REGION"); val != "" {
		c.Storage.Region = val
	}
	if val := os.Getenv("AWS_ENDPOINT"); val != "" {
		c.Storage.Endpoint = val
	}

	// Buckets
	if val := os.Getenv("VIRUS_SCANNER_QUARANTINE_S3_BUCKET"); val != "" {
		c.Buckets.Quarantine = val
	}
	if val := os.Getenv("VIRUS_SCANNER_CLEAN_S3_BUCKET"); val != "" {
		c.Buckets.Clean = val
	}

	// Logging
	if val := os.Getenv("DOCSCAN_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	if val := os.Getenv("DOCSCAN_LOG_FORMAT"); val != "" {
		c.Logging.Format = val
	}
	if val := os.Getenv("DOCSCAN_LOG_FILE"); val != "" {
		c.Logging.File = val
	}

	if val := os.Getenv("DOCSCAN_METRICS_ENABLED"); val != "" {
		c.Metrics.Enabled = strings.ToLower(val) == "true"
	}

	return nil
}

// SaveToFile saves the configuration to a YAML file
func (c *Configuration) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return loadError("failed to marshal config", filename, err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0750); err != nil {
		return loadError("failed to create config directory", filename, err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return loadError("failed to write config file", filename, err)
	}

	return nil
}

// Validate validates the configuration. Failures are *errors.StoreError
// values with code CONFIG_VALIDATION, or CREDENTIALS_MISSING for a partial
// static credential pair.
func (c *Configuration) Validate() error {
	envValid := false
	for _, env := range validEnvironments {
		if c.Environment == env {
			envValid = true
			break
		}
	}
	if !envValid {
		return validationError("environment", fmt.Sprintf("invalid environment: %s (must be one of: %s)",
			c.Environment, strings.Join(validEnvironments, ", ")), nil)
	}

	if c.Storage.Region == "" {
		return validationError("storage.region", "storage region cannot be empty", nil)
	}

	if c.Storage.Endpoint != "" {
		u, err := url.Parse(c.Storage.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return validationError("storage.endpoint",
				fmt.Sprintf("invalid storage endpoint: %s", c.Storage.Endpoint), err)
		}
	}

	if (c.Storage.AccessKeyID == "") != (c.Storage.SecretAccessKey == "") {
		return errors.NewError(errors.ErrCodeCredentialsMissing,
			"access_key_id and secret_access_key must be set together").
			WithComponent(component).
			WithOperation("Validate")
	}

	if _, err := utils.ParseLogLevel(c.Logging.Level); err != nil {
		return validationError("logging.level", fmt.Sprintf("invalid log level: %s (must be one of: %s)",
			c.Logging.Level, strings.Join(validLogLevels, ", ")), err)
	}

	if _, err := utils.ParseLogFormat(c.Logging.Format); err != nil {
		return validationError("logging.format", fmt.Sprintf("invalid log format: %s", c.Logging.Format), err)
	}

	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return validationError("metrics.port", "metrics port must be greater than 0", nil)
	}

	return nil
}

func validationError(field, message string, cause error) error {
	return errors.NewError(errors.ErrCodeConfigValidation, message).
		WithComponent(component).
		WithOperation("Validate").
		WithContext("field", field).
		WithCause(cause)
}

func loadError(message, filename string, cause error) error {
	return errors.NewError(errors.ErrCodeConfigLoad, fmt.Sprintf("%s: %v", message, cause)).
		WithComponent(component).
		WithContext("file", filename).
		WithCause(cause)
}

// IsTestOrDev reports whether the environment is development or test
func (c *Configuration) IsTestOrDev() bool {
	return c.Environment == EnvDevelopment || c.Environment == EnvTest
}

// StorageConfig builds the object store configuration
func (c *Configuration) StorageConfig() *s3.Config {
	cfg := s3.NewDefaultConfig()
	cfg.Region = c.Storage.Region
	cfg.Endpoint = c.Storage.Endpoint
	cfg.IsTestOrDev = c.IsTestOrDev()
	cfg.AccessKeyID = c.Storage.AccessKeyID
	cfg.SecretAccessKey = c.Storage.SecretAccessKey
	cfg.SessionToken = c.Storage.SessionToken
	if c.Storage.MaxRetries > 0 {
		cfg.MaxRetries = c.Storage.MaxRetries
	}
	return cfg
}
