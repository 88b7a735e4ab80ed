package config

// Storage driver names accepted by StorageConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage"   validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// BaseURL prefixes every hypermedia link. Empty yields path-absolute links.
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
}

// StorageConfig selects the person store backend.
type StorageConfig struct {
	Driver     string `mapstructure:"driver"      validate:"required,oneof=memory sqlite postgres"`
	SQLitePath string `mapstructure:"sqlite_path" validate:"required_if=Driver sqlite"`
}

// DatabaseConfig contains the Postgres connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// TelemetryConfig controls OpenTelemetry tracing. Tracing is off when
// OTLPEndpoint is empty.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint" validate:"omitempty,url"`
	ServiceName  string `mapstructure:"service_name"  validate:"required"`
}
