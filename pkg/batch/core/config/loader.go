package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/riptide/pkg/batch/support/util/exception"
	"github.com/tigerroll/riptide/pkg/batch/support/util/logger"

	"go.uber.org/fx"
)

// Package config provides utilities for loading and managing engine configuration
// from various sources, including YAML files and environment variables.

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig // EmbeddedConfig contains the raw bytes of the configuration file.
	EnvFilePath    string         `name:"envFilePath" optional:"true"` // EnvFilePath is the path to the .env file, if any.
}

// LoadConfig loads configuration from a file and environment variables.
// This function is intended to be called only once during application startup.
//
// Parameters:
//   envFilePath: The path to the .env file.
//   embeddedConfig: The embedded configuration bytes.
// Returns:
//   A pointer to the loaded Config and an error if loading fails.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	// 1. Load defaults from NewConfig()

	// 2. Load configuration from embedded YAML into a temporary Config struct.
	// This ensures that YAML values are correctly parsed into their respective types.
	var yamlConfig Config
	if err := yaml.Unmarshal(embeddedConfig, &yamlConfig); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to unmarshal embedded config", err, false)
	}

	// 3. Merge YAML configuration into the default configuration.
	mergeConfig(cfg, &yamlConfig)

	// 4. Override with environment variables
	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to load config from environment variables", err, false)
	}
	return cfg, nil
}

// NewConfigProvider is an Fx provider that loads and provides *Config.
// It initializes the engine configuration by loading defaults,
// merging from embedded YAML, and overriding with environment variables.
// It also sets the global logger level and validates the batch configuration.
//
// Parameters:
//   params: ConfigParams containing dependencies like embedded config and env file path.
// Returns:
//   A pointer to the initialized Config and an error if configuration loading or validation fails.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := LoadConfig(params.EnvFilePath, params.EmbeddedConfig)
	if err != nil {
		return nil, err
	}

	// Set log level
	logger.SetLogLevel(cfg.Riptide.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Riptide.System.Logging.Level)

	if err := cfg.Riptide.Batch.Validate(); err != nil {
		return nil, exception.NewBatchError(moduleName, "invalid batch configuration", err, false)
	}

	return cfg, nil
}

// mergeConfig performs a deep merge from sourceConfig into destConfig.
// Values in sourceConfig will overwrite corresponding values in destConfig
// if they are not zero/empty values for their type.
//
// Parameters:
//   destConfig: The destination Config to merge into.
//   sourceConfig: The source Config to merge from.
func mergeConfig(destConfig, sourceConfig *Config) {
	mergeRiptideConfig(&destConfig.Riptide, &sourceConfig.Riptide)
}

// mergeRiptideConfig merges source into dest.
//
// Parameters:
//   dest: The destination RiptideConfig to merge into.
//   source: The source RiptideConfig to merge from.
func mergeRiptideConfig(dest, source *RiptideConfig) {
	mergeBatchConfig(&dest.Batch, &source.Batch)

	// Merge SystemConfig
	if source.System.Logging.Level != "" {
		dest.System.Logging.Level = source.System.Logging.Level
	}

	// Merge HistoryConfig
	if source.History.Driver != "" {
		dest.History.Driver = source.History.Driver
	}
	if source.History.DSN != "" {
		dest.History.DSN = source.History.DSN
	}
}

// mergeBatchConfig merges source into dest.
//
// Parameters:
//   dest: The destination BatchConfig to merge into.
//   source: The source BatchConfig to merge from.
func mergeBatchConfig(dest, source *BatchConfig) {
	if source.BatchSize != 0 {
		dest.BatchSize = source.BatchSize
	}
	if source.MaxConcurrency != 0 {
		dest.MaxConcurrency = source.MaxConcurrency
	}
	if source.DelayMs != 0 {
		dest.DelayMs = source.DelayMs
	}
	if source.RetryAttempts != 0 {
		dest.RetryAttempts = source.RetryAttempts
	}
	if source.TimeoutMs != 0 {
		dest.TimeoutMs = source.TimeoutMs
	}
	if source.MemoryThresholdMB != 0 {
		dest.MemoryThresholdMB = source.MemoryThresholdMB
	}
	if source.RatePerSecond != 0 {
		dest.RatePerSecond = source.RatePerSecond
	}
	mergeRetryConfig(&dest.Retry, &source.Retry)
}

// mergeRetryConfig merges source into dest.
//
// Parameters:
//   dest: The destination RetryConfig to merge into.
//   source: The source RetryConfig to merge from.
func mergeRetryConfig(dest, source *RetryConfig) {
	if source.MaxRetries != 0 {
		dest.MaxRetries = source.MaxRetries
	}
	if source.BackoffStrategy != "" {
		dest.BackoffStrategy = source.BackoffStrategy
	}
	if source.BaseDelayMs != 0 {
		dest.BaseDelayMs = source.BaseDelayMs
	}
	if source.MaxDelayMs != 0 {
		dest.MaxDelayMs = source.MaxDelayMs
	}
	if source.RetryableExceptions != nil {
		dest.RetryableExceptions = source.RetryableExceptions
	}
}

// loadStructFromEnv recursively loads configuration values into a struct from environment variables.
// It uses the "yaml" tag to determine the environment variable name.
//
// Parameters:
//   val: The reflect.Value of the struct to populate.
//   prefix: The prefix for environment variable names (e.g., "RIPTIDE_BATCH_").
// Returns: An error if any field cannot be set.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}

		if err := setField(field, envValue); err != nil {
			return exception.NewBatchErrorf(moduleName, "failed to set field '%s' from env var '%s'", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// setField sets the value of a reflect.Value field based on its kind.
// It handles string, int, float, bool and []string types.
//
// Parameters:
//   field: The reflect.Value of the field to set.
//   value: The string value to convert and set.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
	return nil
}
