package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. PEOPLE_SERVER_PORT.
const EnvPrefix = "PEOPLE"

// Load reads configuration from defaults, an optional config.yaml in the
// working directory, and environment variables, in increasing precedence.
// It returns a validated Config or an error naming the failure.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field rules and the cross-field storage requirements.
func Validate(cfg *Config) error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.Storage.Driver == DriverPostgres && cfg.Database.URL == "" {
		return fmt.Errorf("config validation failed: database.url is required for the %s driver", DriverPostgres)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can bind it on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.base_url", "")
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.sqlite_path", "people.db")
	v.SetDefault("database.url", "")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "people-api")
}
