package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" validate:"required"`
	Sources SourcesConfig `mapstructure:"sources" validate:"required"`
	Pool    PoolConfig    `mapstructure:"pool" validate:"required"`
	Timeout TimeoutConfig `mapstructure:"timeout" validate:"required"`
	Cache   CacheConfig   `mapstructure:"cache" validate:"required"`
	Logging LoggingConfig `mapstructure:"logging" validate:"required"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	Environment  string        `mapstructure:"environment" validate:"required,oneof=development production test"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" validate:"required"`
}

// SourcesConfig holds the external source adapters' endpoints and
// credentials (spec.md §6.4).
type SourcesConfig struct {
	BenefitBaseURL     string `mapstructure:"benefit_base_url" validate:"required"`
	AccumulatorBaseURL string `mapstructure:"accumulator_base_url" validate:"required"`
	RateBaseURL        string `mapstructure:"rate_base_url" validate:"required"`
	TokenEndpointURL   string `mapstructure:"token_endpoint_url" validate:"required"`
	ClientID           string `mapstructure:"client_id" validate:"required"`
	ClientSecret       string `mapstructure:"client_secret" validate:"required"`
	// SpannerProjectID, SpannerInstanceID, SpannerDatabaseID address the
	// Rate store's Spanner-equivalent connection, per spec.md §6.4. The
	// Rate adapter treats the store as opaque (§1) and reaches it over
	// HTTP; these three fields are loaded but not passed to the adapter.
	SpannerProjectID  string `mapstructure:"spanner_project_id"`
	SpannerInstanceID string `mapstructure:"spanner_instance_id"`
	SpannerDatabaseID string `mapstructure:"spanner_database_id"`
}

// PoolConfig holds worker/connection pool sizes (spec.md §5/§6.4).
type PoolConfig struct {
	ProviderWorkerPoolSize int `mapstructure:"provider_worker_pool_size" validate:"min=1"`
	HTTPClientPoolSize     int `mapstructure:"http_client_pool_size" validate:"min=1"`
}

// TimeoutConfig holds the request deadline and per-source timeouts
// (spec.md §5/§6.4).
type TimeoutConfig struct {
	RequestDeadline time.Duration `mapstructure:"request_deadline" validate:"required"`
	SourceTimeout   time.Duration `mapstructure:"source_timeout" validate:"required"`
	TokenTTL        time.Duration `mapstructure:"token_ttl" validate:"required"`
}

// CacheConfig holds the process-wide cache refresh cadences (spec.md §6.4).
type CacheConfig struct {
	PCPSpecialtyRefresh  time.Duration `mapstructure:"pcp_specialty_refresh" validate:"required"`
	PaymentMethodRefresh time.Duration `mapstructure:"payment_method_refresh" validate:"required"`
	BearerRefresh        time.Duration `mapstructure:"bearer_refresh" validate:"required"`
}

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level       string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Environment string `mapstructure:"environment" validate:"required,oneof=development production test"`
}

// LoadConfig loads configuration from files and environment variables.
func LoadConfig() (*Config, error) {
	env := getEnvironment()

	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.Set("sources.client_id", expandEnvWithDefault(v.GetString("sources.client_id"), ""))
	v.Set("sources.client_secret", expandEnvWithDefault(v.GetString("sources.client_secret"), ""))
	v.Set("pool.provider_worker_pool_size", expandEnvIntWithDefault(v.GetString("pool.provider_worker_pool_size"), 12))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// getEnvironment determines the current environment.
func getEnvironment() string {
	if env := os.Getenv("GO_ENV"); env != "" {
		return normalizeEnvironment(env)
	}
	if env := os.Getenv("GIN_MODE"); env != "" {
		return normalizeEnvironment(env)
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		return normalizeEnvironment(env)
	}
	return "development"
}

// normalizeEnvironment maps various environment names to our standard names.
func normalizeEnvironment(env string) string {
	env = strings.ToLower(env)
	switch env {
	case "prod", "production", "release":
		return "production"
	case "test", "testing":
		return "test"
	case "dev", "development", "local":
		return "development"
	default:
		return "development"
	}
}

// expandEnvWithDefault expands environment variables with a default value.
func expandEnvWithDefault(value, defaultValue string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVar := value[2 : len(value)-1]
		if envValue := os.Getenv(envVar); envValue != "" {
			return envValue
		}
		return defaultValue
	}
	if value == "" {
		return defaultValue
	}
	return value
}

// expandEnvIntWithDefault expands environment variables for integer values
// with a default.
func expandEnvIntWithDefault(value string, defaultValue int) int {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVar := value[2 : len(value)-1]
		if envValue := os.Getenv(envVar); envValue != "" {
			if intValue, err := strconv.Atoi(envValue); err == nil {
				return intValue
			}
		}
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

// validateConfig validates the configuration using struct tags.
func validateConfig(config *Config) error {
	v := validator.New()
	if err := v.Struct(config); err != nil {
		return fmt.Errorf("validation errors: %w", err)
	}
	return nil
}

// GetConfigPath returns the path to the config file being used.
func GetConfigPath(env string) string {
	configPaths := []string{
		"./configs",
		"../configs",
		"../../configs",
	}
	for _, path := range configPaths {
		configFile := filepath.Join(path, env+".yaml")
		if _, err := os.Stat(configFile); err == nil {
			return configFile
		}
	}
	return filepath.Join("configs", env+".yaml")
}

// MustLoadConfig loads configuration and panics on error.
func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return config
}
